// Package dashboard aggregates per-module security metrics into a single
// overview endpoint. It consumes sibling modules through small provider
// interfaces wired in main, never by importing them directly.
package dashboard

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/cybershield/cybershield/internal/auth"
	"github.com/cybershield/cybershield/internal/server"
	"github.com/cybershield/cybershield/pkg/models"
	"github.com/cybershield/cybershield/pkg/plugin"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin       = (*Module)(nil)
	_ plugin.HTTPProvider = (*Module)(nil)
)

// PasswordStats reports vault entry counts and average strength.
type PasswordStats interface {
	PasswordStats(ctx context.Context, userID string) (count, avgStrength int, err error)
}

// PhishingStats reports quiz completion counts and success rate.
type PhishingStats interface {
	PhishingStats(ctx context.Context, userID string) (completed, successRate int, err error)
}

// NetworkStats reports device inventory counts.
type NetworkStats interface {
	NetworkStats(ctx context.Context, userID string) (total, vulnerable int, err error)
}

// ActivityFeed reads a user's newest activity entries.
type ActivityFeed interface {
	Recent(ctx context.Context, userID string, limit int) ([]models.Activity, error)
}

// Providers bundles the sibling-module views the dashboard reads from.
// Any field may be nil; missing providers report zero metrics.
type Providers struct {
	Passwords PasswordStats
	Phishing  PhishingStats
	Network   NetworkStats
	Activity  ActivityFeed
}

// Module implements the dashboard plugin.
type Module struct {
	logger    *zap.Logger
	providers Providers
}

// New creates a new dashboard module instance.
func New(providers Providers) *Module {
	return &Module{providers: providers}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "dashboard",
		Version:      "0.1.0",
		Description:  "Aggregated security metrics",
		Dependencies: []string{"activity"},
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.logger.Info("dashboard module initialized")
	return nil
}

func (m *Module) Start(ctx context.Context) error { return nil }
func (m *Module) Stop(ctx context.Context) error  { return nil }

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/security-metrics", Handler: m.handleSecurityMetrics},
		{Method: "GET", Path: "/recent-activities", Handler: m.handleRecentActivities},
	}
}

type passwordMetrics struct {
	Count           int `json:"count"`
	AverageStrength int `json:"averageStrength"`
}

type phishingMetrics struct {
	CompletedTests int `json:"completedTests"`
	SuccessRate    int `json:"successRate"`
}

type networkMetrics struct {
	Devices          int `json:"devices"`
	SecurePercentage int `json:"securePercentage"`
}

type securityMetrics struct {
	Passwords passwordMetrics `json:"passwords"`
	Phishing  phishingMetrics `json:"phishing"`
	Network   networkMetrics  `json:"network"`
}

func (m *Module) handleSecurityMetrics(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		server.Unauthorized(w, "authentication required", r.URL.Path)
		return
	}
	ctx := r.Context()

	// A failing provider degrades its section to zeros rather than failing
	// the whole overview.
	var metrics securityMetrics
	metrics.Network.SecurePercentage = 100

	if m.providers.Passwords != nil {
		count, strength, err := m.providers.Passwords.PasswordStats(ctx, claims.UserID)
		if err != nil {
			m.logger.Warn("password stats unavailable", zap.Error(err))
		} else {
			metrics.Passwords = passwordMetrics{Count: count, AverageStrength: strength}
		}
	}

	if m.providers.Phishing != nil {
		completed, rate, err := m.providers.Phishing.PhishingStats(ctx, claims.UserID)
		if err != nil {
			m.logger.Warn("phishing stats unavailable", zap.Error(err))
		} else {
			metrics.Phishing = phishingMetrics{CompletedTests: completed, SuccessRate: rate}
		}
	}

	if m.providers.Network != nil {
		total, vulnerable, err := m.providers.Network.NetworkStats(ctx, claims.UserID)
		if err != nil {
			m.logger.Warn("network stats unavailable", zap.Error(err))
		} else {
			metrics.Network = networkMetrics{
				Devices:          total,
				SecurePercentage: securePercentage(total, vulnerable),
			}
		}
	}

	writeJSON(w, metrics)
}

func (m *Module) handleRecentActivities(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		server.Unauthorized(w, "authentication required", r.URL.Path)
		return
	}

	limit := 10
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 || n > 200 {
			server.BadRequest(w, "limit must be an integer between 1 and 200", r.URL.Path)
			return
		}
		limit = n
	}

	entries := []models.Activity{}
	if m.providers.Activity != nil {
		got, err := m.providers.Activity.Recent(r.Context(), claims.UserID, limit)
		if err != nil {
			m.logger.Error("failed to load recent activity", zap.Error(err))
			server.InternalError(w, "failed to load activity", r.URL.Path)
			return
		}
		if got != nil {
			entries = got
		}
	}
	writeJSON(w, entries)
}

// securePercentage is the share of devices not flagged vulnerable. An empty
// inventory counts as fully secure.
func securePercentage(total, vulnerable int) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(total-vulnerable) / float64(total) * 100))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
