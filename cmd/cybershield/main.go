package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cybershield/cybershield/internal/activity"
	"github.com/cybershield/cybershield/internal/auth"
	"github.com/cybershield/cybershield/internal/config"
	"github.com/cybershield/cybershield/internal/dashboard"
	"github.com/cybershield/cybershield/internal/event"
	"github.com/cybershield/cybershield/internal/netscan"
	"github.com/cybershield/cybershield/internal/phishing"
	"github.com/cybershield/cybershield/internal/registry"
	"github.com/cybershield/cybershield/internal/server"
	"github.com/cybershield/cybershield/internal/store"
	"github.com/cybershield/cybershield/internal/vault"
	"github.com/cybershield/cybershield/internal/version"
	"github.com/cybershield/cybershield/internal/ws"
	"github.com/cybershield/cybershield/pkg/plugin"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Short())
		os.Exit(0)
	}

	// Load configuration before the logger so log level/format can be
	// configured.
	viperCfg, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := config.New(viperCfg)

	logger, err := config.NewLogger(viperCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("CyberShield server starting", zap.String("version", version.Short()))

	if f := viperCfg.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded",
			zap.String("component", "config"),
			zap.String("source", f),
		)
	} else {
		logger.Warn("no configuration file found, using defaults",
			zap.String("component", "config"),
		)
	}

	// Open database.
	dbPath := viperCfg.GetString("database.dsn")
	if dbPath == "" {
		dbPath = "cybershield.db"
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal("failed to create data directory", zap.Error(err))
		}
	}
	db, err := store.New(dbPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.CheckVersion(ctx, version.Short()); err != nil {
		logger.Fatal("database version check failed", zap.Error(err))
	}
	logger.Info("database initialized",
		zap.String("component", "database"),
		zap.String("path", dbPath),
	)

	// Shared services.
	bus := event.NewBus(logger.Named("event"))
	reg := registry.New(logger.Named("registry"))

	// The vault refuses an empty secret; generate an ephemeral one when
	// unset so first runs work out of the box.
	if viperCfg.GetString("modules.vault.secret") == "" {
		viperCfg.Set("modules.vault.secret", randomSecret(logger))
		logger.Warn("using auto-generated vault secret; entries will not decrypt across restarts until modules.vault.secret is set",
			zap.String("component", "vault"),
		)
	}

	// Register all modules (compile-time composition). The activity module
	// is both a plugin and the audit sink the others record into.
	activityMod := activity.New()
	vaultMod := vault.New(activityMod)
	phishingMod := phishing.New(activityMod)
	netscanMod := netscan.New(activityMod)
	dashboardMod := dashboard.New(dashboard.Providers{
		Passwords: vaultMod,
		Phishing:  phishingMod,
		Network:   netscanMod,
		Activity:  activityMod,
	})

	modules := []plugin.Plugin{activityMod, vaultMod, phishingMod, netscanMod, dashboardMod}
	for _, m := range modules {
		if err := reg.Register(m); err != nil {
			logger.Fatal("failed to register module", zap.Error(err))
		}
	}

	if err := reg.Validate(); err != nil {
		logger.Fatal("module validation failed", zap.Error(err))
	}

	if err := reg.InitAll(ctx, func(name string) plugin.Dependencies {
		return plugin.Dependencies{
			Config: cfg.Sub("modules." + name),
			Logger: logger.Named(name),
			Store:  db,
			Bus:    bus,
		}
	}); err != nil {
		logger.Fatal("failed to initialize modules", zap.Error(err))
	}

	if err := reg.StartAll(ctx); err != nil {
		logger.Fatal("failed to start modules", zap.Error(err))
	}

	// Auth service.
	authStore, err := auth.NewUserStore(ctx, db)
	if err != nil {
		logger.Fatal("failed to initialize auth store", zap.Error(err))
	}

	jwtSecret := viperCfg.GetString("auth.jwt_secret")
	if jwtSecret == "" {
		// Ephemeral secret: tokens won't survive restarts.
		jwtSecret = randomSecret(logger)
		logger.Info("using auto-generated JWT secret (set auth.jwt_secret in config to persist sessions across restarts)",
			zap.String("component", "auth"),
		)
	}

	accessTTL := viperCfg.GetDuration("auth.access_token_ttl")
	refreshTTL := viperCfg.GetDuration("auth.refresh_token_ttl")
	tokens := auth.NewTokenService([]byte(jwtSecret), accessTTL, refreshTTL)
	authService := auth.NewService(authStore, tokens, logger.Named("auth"))
	authHandler := auth.NewHandler(authService, logger.Named("auth"))
	logger.Info("auth service initialized",
		zap.String("component", "auth"),
		zap.Duration("access_token_ttl", tokens.AccessTokenTTL()),
		zap.Duration("refresh_token_ttl", tokens.RefreshTokenTTL()),
	)

	// WebSocket handler for real-time scan updates.
	wsHandler := ws.NewHandler(tokens, bus, logger.Named("ws"))

	// HTTP server.
	addr := viperCfg.GetString("server.host") + ":" + viperCfg.GetString("server.port")
	if addr == ":" {
		addr = "0.0.0.0:8080"
	}
	readyCheck := server.ReadinessChecker(func(ctx context.Context) error {
		return db.DB().PingContext(ctx)
	})
	srv := server.New(addr, reg, logger, readyCheck, authHandler, wsHandler)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("CyberShield server ready", zap.String("addr", addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	reg.StopAll(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("CyberShield server stopped")
}

func randomSecret(logger *zap.Logger) string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		logger.Fatal("failed to generate random secret", zap.Error(err))
	}
	return hex.EncodeToString(b)
}
