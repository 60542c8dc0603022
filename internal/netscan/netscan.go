// Package netscan implements the network scanner: host discovery, concurrent
// TCP port probing, device classification, and heuristic vulnerability
// detection.
package netscan

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/cybershield/cybershield/internal/auth"
	"github.com/cybershield/cybershield/internal/server"
	"github.com/cybershield/cybershield/pkg/models"
	"github.com/cybershield/cybershield/pkg/plugin"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin        = (*Module)(nil)
	_ plugin.HTTPProvider  = (*Module)(nil)
	_ plugin.HealthChecker = (*Module)(nil)
)

// Module implements the netscan plugin.
type Module struct {
	logger   *zap.Logger
	store    *Store
	scanner  *Scanner
	activity ActivityLog
	cfg      Config
}

// New creates a new netscan module instance. activity may be nil.
func New(activity ActivityLog) *Module {
	return &Module{activity: activity}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "netscan",
		Version:      "0.1.0",
		Description:  "Local network device and port scanner",
		Dependencies: []string{"activity"},
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return err
		}
		if m.cfg.DefaultScanSpeed == 0 {
			m.cfg.DefaultScanSpeed = DefaultConfig().DefaultScanSpeed
		}
	}

	store, err := NewStore(ctx, deps.Store)
	if err != nil {
		return err
	}
	m.store = store

	m.scanner = NewScanner(
		NewICMPProber(m.cfg.PingTimeout, m.logger),
		TCPProber{},
		NewHostIdentifier(m.cfg.DNSTimeout, m.logger),
		store,
		deps.Bus,
		m.activity,
		m.cfg,
		m.logger,
	)

	m.logger.Info("netscan module initialized")
	return nil
}

func (m *Module) Start(ctx context.Context) error { return nil }
func (m *Module) Stop(ctx context.Context) error  { return nil }

// Health implements plugin.HealthChecker.
func (m *Module) Health(ctx context.Context) plugin.HealthStatus {
	if _, _, err := m.store.DeviceCounts(ctx, ""); err != nil {
		return plugin.HealthStatus{Status: "unhealthy", Message: err.Error()}
	}
	return plugin.HealthStatus{Status: "healthy"}
}

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "POST", Path: "/scan", Handler: m.handleScan},
		{Method: "POST", Path: "/scan-ports", Handler: m.handleScanPorts},
		{Method: "GET", Path: "/devices", Handler: m.handleDevices},
		{Method: "GET", Path: "/vulnerabilities", Handler: m.handleVulnerabilities},
		{Method: "POST", Path: "/vulnerabilities/{id}/resolve", Handler: m.handleResolveVulnerability},
	}
}

// NetworkStats returns the total and vulnerable device counts for a user.
// Consumed by the dashboard module through an adapter.
func (m *Module) NetworkStats(ctx context.Context, userID string) (total, vulnerable int, err error) {
	return m.store.DeviceCounts(ctx, userID)
}

type scanResponse struct {
	Success    bool                  `json:"success"`
	Summary    models.ScanSummary    `json:"summary"`
	Statistics models.ScanStatistics `json:"statistics"`
	Devices    []models.Device       `json:"devices"`
}

func (m *Module) handleScan(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		server.Unauthorized(w, "authentication required", r.URL.Path)
		return
	}

	// Port scanning and vulnerability detection are on unless the client
	// opts out; absent JSON fields leave the preset values untouched.
	opts := models.ScanOptions{
		ScanPorts:             true,
		DetectVulnerabilities: true,
	}
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		server.BadRequest(w, "invalid JSON body", r.URL.Path)
		return
	}
	if opts.ScanSpeed != 0 && (opts.ScanSpeed < minScanSpeed || opts.ScanSpeed > maxScanSpeed) {
		server.BadRequest(w, "scanSpeed must be between 10 and 100", r.URL.Path)
		return
	}

	result, err := m.scanner.Scan(r.Context(), claims.UserID, opts)
	if err != nil {
		m.logger.Error("scan failed", zap.Error(err))
		server.InternalError(w, "scan failed", r.URL.Path)
		return
	}
	if result.Devices == nil {
		result.Devices = []models.Device{}
	}

	writeJSON(w, http.StatusAccepted, scanResponse{
		Success:    true,
		Summary:    result.Summarize(),
		Statistics: result.Statistics(),
		Devices:    result.Devices,
	})
}

type scanPortsRequest struct {
	IP              string `json:"ip"`
	PortRange       string `json:"portRange"`
	OnlyCommonPorts bool   `json:"onlyCommonPorts"`
}

type scanPortsResponse struct {
	IP               string  `json:"ip"`
	OpenPorts        []int   `json:"openPorts"`
	ScannedPortCount int     `json:"scannedPortCount"`
	ScanTimeSeconds  float64 `json:"scanTimeSeconds"`
}

func (m *Module) handleScanPorts(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		server.Unauthorized(w, "authentication required", r.URL.Path)
		return
	}

	var req scanPortsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.BadRequest(w, "invalid JSON body", r.URL.Path)
		return
	}
	if net.ParseIP(req.IP) == nil {
		server.BadRequest(w, "ip must be a valid address", r.URL.Path)
		return
	}

	open, scanned, elapsed := m.scanner.ScanSinglePorts(r.Context(), claims.UserID, req.IP, req.PortRange, req.OnlyCommonPorts)
	if open == nil {
		open = []int{}
	}

	writeJSON(w, http.StatusOK, scanPortsResponse{
		IP:               req.IP,
		OpenPorts:        open,
		ScannedPortCount: scanned,
		ScanTimeSeconds:  elapsed,
	})
}

func (m *Module) handleDevices(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		server.Unauthorized(w, "authentication required", r.URL.Path)
		return
	}

	devices, err := m.store.ListDevices(r.Context(), claims.UserID)
	if err != nil {
		m.logger.Error("list devices failed", zap.Error(err))
		server.InternalError(w, "failed to list devices", r.URL.Path)
		return
	}
	if devices == nil {
		devices = []models.Device{}
	}
	writeJSON(w, http.StatusOK, devices)
}

func (m *Module) handleVulnerabilities(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		server.Unauthorized(w, "authentication required", r.URL.Path)
		return
	}

	vulns, err := m.store.ListOpenVulnerabilities(r.Context(), claims.UserID)
	if err != nil {
		m.logger.Error("list vulnerabilities failed", zap.Error(err))
		server.InternalError(w, "failed to list vulnerabilities", r.URL.Path)
		return
	}
	if vulns == nil {
		vulns = []models.Vulnerability{}
	}
	writeJSON(w, http.StatusOK, vulns)
}

func (m *Module) handleResolveVulnerability(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		server.Unauthorized(w, "authentication required", r.URL.Path)
		return
	}

	err := m.store.ResolveVulnerability(r.Context(), claims.UserID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrVulnNotFound) {
			server.NotFound(w, "vulnerability not found", r.URL.Path)
			return
		}
		m.logger.Error("resolve vulnerability failed", zap.Error(err))
		server.InternalError(w, "failed to resolve vulnerability", r.URL.Path)
		return
	}

	if m.activity != nil {
		m.activity.Record(r.Context(), claims.UserID, "netscan", "Vulnerability resolved", models.ActivityCompleted)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
