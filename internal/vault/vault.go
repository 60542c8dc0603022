// Package vault implements the password manager module: encrypted credential
// storage, strength scoring, and a heuristic breach check.
package vault

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

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

// ActivityLog records user-visible audit entries. Wired in main to the
// activity module.
type ActivityLog interface {
	Record(ctx context.Context, userID, module, activity string, status models.ActivityStatus)
}

// Module implements the vault plugin.
type Module struct {
	logger   *zap.Logger
	store    *Store
	cipher   *Cipher
	activity ActivityLog
}

// New creates a new vault module instance. activity may be nil.
func New(activity ActivityLog) *Module {
	return &Module{activity: activity}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "vault",
		Version:      "0.1.0",
		Description:  "Encrypted password manager",
		Dependencies: []string{"activity"},
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger

	cipher, err := NewCipher(deps.Config.GetString("secret"))
	if err != nil {
		return err
	}
	m.cipher = cipher

	store, err := NewStore(ctx, deps.Store)
	if err != nil {
		return err
	}
	m.store = store

	m.logger.Info("vault module initialized")
	return nil
}

func (m *Module) Start(ctx context.Context) error { return nil }
func (m *Module) Stop(ctx context.Context) error  { return nil }

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/passwords", Handler: m.handleList},
		{Method: "POST", Path: "/passwords", Handler: m.handleCreate},
		{Method: "GET", Path: "/passwords/{id}", Handler: m.handleGet},
		{Method: "PUT", Path: "/passwords/{id}", Handler: m.handleUpdate},
		{Method: "DELETE", Path: "/passwords/{id}", Handler: m.handleDelete},
		{Method: "POST", Path: "/check-breaches", Handler: m.handleCheckBreaches},
	}
}

// PasswordStats returns the entry count and average strength for a user.
// Consumed by the dashboard module through an adapter.
func (m *Module) PasswordStats(ctx context.Context, userID string) (count, avgStrength int, err error) {
	return m.store.Stats(ctx, userID)
}

type entryRequest struct {
	Site     string `json:"site"`
	Username string `json:"username"`
	Password string `json:"password"`
	Category string `json:"category"`
	SiteIcon string `json:"siteIcon"`
	Notes    string `json:"notes"`
}

func (m *Module) handleList(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		server.Unauthorized(w, "authentication required", r.URL.Path)
		return
	}

	entries, err := m.store.List(r.Context(), claims.UserID)
	if err != nil {
		m.logger.Error("list entries failed", zap.Error(err))
		server.InternalError(w, "failed to list entries", r.URL.Path)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}

	// Passwords stay redacted on list; clients fetch single entries to reveal.
	for i := range entries {
		entries[i].Password = ""
	}
	writeJSON(w, http.StatusOK, entries)
}

func (m *Module) handleGet(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		server.Unauthorized(w, "authentication required", r.URL.Path)
		return
	}

	entry, err := m.store.Get(r.Context(), claims.UserID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			server.NotFound(w, "entry not found", r.URL.Path)
			return
		}
		m.logger.Error("get entry failed", zap.Error(err))
		server.InternalError(w, "failed to fetch entry", r.URL.Path)
		return
	}

	plaintext, err := m.cipher.Decrypt(entry.Password)
	if err != nil {
		m.logger.Error("decrypt failed", zap.String("entry_id", entry.ID), zap.Error(err))
		server.InternalError(w, "failed to decrypt entry", r.URL.Path)
		return
	}
	entry.Password = plaintext

	writeJSON(w, http.StatusOK, entry)
}

func (m *Module) handleCreate(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		server.Unauthorized(w, "authentication required", r.URL.Path)
		return
	}

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.BadRequest(w, "invalid JSON body", r.URL.Path)
		return
	}
	if req.Site == "" || req.Password == "" {
		server.BadRequest(w, "site and password are required", r.URL.Path)
		return
	}

	ciphertext, err := m.cipher.Encrypt(req.Password)
	if err != nil {
		m.logger.Error("encrypt failed", zap.Error(err))
		server.InternalError(w, "failed to encrypt password", r.URL.Path)
		return
	}

	entry := &Entry{
		Site:     req.Site,
		Username: req.Username,
		Password: ciphertext,
		Category: req.Category,
		SiteIcon: req.SiteIcon,
		Notes:    req.Notes,
		Breached: IsCommonPassword(req.Password),
		Strength: StrengthScore(req.Password),
	}
	if err := m.store.Create(r.Context(), claims.UserID, entry); err != nil {
		m.logger.Error("create entry failed", zap.Error(err))
		server.InternalError(w, "failed to create entry", r.URL.Path)
		return
	}

	m.record(r.Context(), claims.UserID, "Added password for "+entry.Site, models.ActivityCompleted)

	entry.Password = ""
	writeJSON(w, http.StatusCreated, entry)
}

func (m *Module) handleUpdate(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		server.Unauthorized(w, "authentication required", r.URL.Path)
		return
	}

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.BadRequest(w, "invalid JSON body", r.URL.Path)
		return
	}
	if req.Site == "" || req.Password == "" {
		server.BadRequest(w, "site and password are required", r.URL.Path)
		return
	}

	ciphertext, err := m.cipher.Encrypt(req.Password)
	if err != nil {
		m.logger.Error("encrypt failed", zap.Error(err))
		server.InternalError(w, "failed to encrypt password", r.URL.Path)
		return
	}

	entry := &Entry{
		ID:       r.PathValue("id"),
		Site:     req.Site,
		Username: req.Username,
		Password: ciphertext,
		Category: req.Category,
		SiteIcon: req.SiteIcon,
		Notes:    req.Notes,
		Breached: IsCommonPassword(req.Password),
		Strength: StrengthScore(req.Password),
	}
	if err := m.store.Update(r.Context(), claims.UserID, entry); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			server.NotFound(w, "entry not found", r.URL.Path)
			return
		}
		m.logger.Error("update entry failed", zap.Error(err))
		server.InternalError(w, "failed to update entry", r.URL.Path)
		return
	}

	m.record(r.Context(), claims.UserID, "Updated password for "+entry.Site, models.ActivityCompleted)

	entry.Password = ""
	writeJSON(w, http.StatusOK, entry)
}

func (m *Module) handleDelete(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		server.Unauthorized(w, "authentication required", r.URL.Path)
		return
	}

	if err := m.store.Delete(r.Context(), claims.UserID, r.PathValue("id")); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			server.NotFound(w, "entry not found", r.URL.Path)
			return
		}
		m.logger.Error("delete entry failed", zap.Error(err))
		server.InternalError(w, "failed to delete entry", r.URL.Path)
		return
	}

	m.record(r.Context(), claims.UserID, "Deleted password entry", models.ActivityCompleted)
	w.WriteHeader(http.StatusNoContent)
}

// handleCheckBreaches flags entries whose decrypted password appears in the
// built-in common-password list and returns the flagged count.
func (m *Module) handleCheckBreaches(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		server.Unauthorized(w, "authentication required", r.URL.Path)
		return
	}

	entries, err := m.store.List(r.Context(), claims.UserID)
	if err != nil {
		m.logger.Error("list entries failed", zap.Error(err))
		server.InternalError(w, "failed to check breaches", r.URL.Path)
		return
	}

	flagged := 0
	for _, e := range entries {
		plaintext, err := m.cipher.Decrypt(e.Password)
		if err != nil {
			m.logger.Warn("skipping undecryptable entry",
				zap.String("entry_id", e.ID), zap.Error(err))
			continue
		}

		breached := IsCommonPassword(plaintext)
		if breached {
			flagged++
		}
		if breached != e.Breached {
			if err := m.store.SetBreached(r.Context(), claims.UserID, e.ID, breached); err != nil {
				m.logger.Warn("failed to update breached flag",
					zap.String("entry_id", e.ID), zap.Error(err))
			}
		}
	}

	status := models.ActivityCompleted
	if flagged > 0 {
		status = models.ActivityWarning
	}
	m.record(r.Context(), claims.UserID, "Breach check completed", status)

	writeJSON(w, http.StatusOK, map[string]int{
		"checked": len(entries),
		"flagged": flagged,
	})
}

func (m *Module) record(ctx context.Context, userID, activity string, status models.ActivityStatus) {
	if m.activity != nil {
		m.activity.Record(ctx, userID, "vault", activity, status)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
