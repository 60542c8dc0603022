// Package activity records per-user audit entries emitted by the other
// modules and exposes a recent-activity feed.
package activity

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

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

// Module implements the activity log plugin.
type Module struct {
	logger    *zap.Logger
	store     *Store
	retention time.Duration

	stopPurge chan struct{}
}

// New creates a new activity module instance.
func New() *Module {
	return &Module{stopPurge: make(chan struct{})}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "activity",
		Version:     "0.1.0",
		Description: "Per-user activity log",
		Required:    true,
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger

	store, err := NewStore(ctx, deps.Store)
	if err != nil {
		return err
	}
	m.store = store

	m.retention = deps.Config.GetDuration("retention_period")
	if m.retention == 0 {
		m.retention = 90 * 24 * time.Hour
	}

	m.logger.Info("activity module initialized", zap.Duration("retention", m.retention))
	return nil
}

func (m *Module) Start(ctx context.Context) error {
	go m.purgeLoop()
	return nil
}

func (m *Module) Stop(ctx context.Context) error {
	close(m.stopPurge)
	return nil
}

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/recent", Handler: m.handleRecent},
	}
}

// Record appends an activity entry for a user. Errors are logged, not
// returned: a failed audit write must never fail the calling operation.
func (m *Module) Record(ctx context.Context, userID, module, activity string, status models.ActivityStatus) {
	err := m.store.Insert(ctx, &models.Activity{
		UserID:   userID,
		Module:   module,
		Activity: activity,
		Status:   status,
	})
	if err != nil {
		m.logger.Warn("failed to record activity",
			zap.String("module", module),
			zap.Error(err))
	}
}

// Recent returns a user's newest activity entries. Consumed by the dashboard
// module through an adapter.
func (m *Module) Recent(ctx context.Context, userID string, limit int) ([]models.Activity, error) {
	return m.store.Recent(ctx, userID, limit)
}

func (m *Module) handleRecent(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		server.Unauthorized(w, "authentication required", r.URL.Path)
		return
	}

	limit := 20
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 || n > 200 {
			server.BadRequest(w, "limit must be an integer between 1 and 200", r.URL.Path)
			return
		}
		limit = n
	}

	entries, err := m.store.Recent(r.Context(), claims.UserID, limit)
	if err != nil {
		m.logger.Error("failed to load recent activity", zap.Error(err))
		server.InternalError(w, "failed to load activity", r.URL.Path)
		return
	}
	if entries == nil {
		entries = []models.Activity{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}

// purgeLoop removes entries past the retention period once a day.
func (m *Module) purgeLoop() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopPurge:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			n, err := m.store.Purge(ctx, time.Now().Add(-m.retention))
			cancel()
			if err != nil {
				m.logger.Warn("activity purge failed", zap.Error(err))
			} else if n > 0 {
				m.logger.Info("purged old activity entries", zap.Int64("removed", n))
			}
		}
	}
}
