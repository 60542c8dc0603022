// Package phishing implements the phishing-recognition training module:
// a seeded example set, per-user answers, and aggregate stats.
package phishing

import (
	"context"
	"encoding/json"
	"errors"
	"math"
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

// Module implements the phishing training plugin.
type Module struct {
	logger   *zap.Logger
	store    *Store
	activity ActivityLog
}

// New creates a new phishing module instance. activity may be nil.
func New(activity ActivityLog) *Module {
	return &Module{activity: activity}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "phishing",
		Version:      "0.1.0",
		Description:  "Phishing recognition training",
		Dependencies: []string{"activity"},
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger

	store, err := NewStore(ctx, deps.Store)
	if err != nil {
		return err
	}
	m.store = store

	if deps.Config == nil || !deps.Config.IsSet("seed_examples") || deps.Config.GetBool("seed_examples") {
		if err := seedExamples(ctx, store); err != nil {
			return err
		}
	}

	m.logger.Info("phishing module initialized")
	return nil
}

func (m *Module) Start(ctx context.Context) error { return nil }
func (m *Module) Stop(ctx context.Context) error  { return nil }

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/current-test", Handler: m.handleCurrentTest},
		{Method: "POST", Path: "/submit-answer", Handler: m.handleSubmitAnswer},
		{Method: "GET", Path: "/stats", Handler: m.handleStats},
	}
}

// PhishingStats returns completed-test count and success rate (rounded
// percent) for a user. Consumed by the dashboard module through an adapter.
func (m *Module) PhishingStats(ctx context.Context, userID string) (completed, successRate int, err error) {
	completed, correct, err := m.store.Stats(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	if completed == 0 {
		return 0, 0, nil
	}
	return completed, int(math.Round(float64(correct) / float64(completed) * 100)), nil
}

// testView is an example with the answer withheld.
type testView struct {
	ID          string `json:"id"`
	Sender      string `json:"sender"`
	SenderEmail string `json:"senderEmail"`
	Subject     string `json:"subject"`
	Content     string `json:"content"`
}

func (m *Module) handleCurrentTest(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		server.Unauthorized(w, "authentication required", r.URL.Path)
		return
	}

	example, err := m.store.RandomExample(r.Context())
	if err != nil {
		if errors.Is(err, ErrExampleNotFound) {
			server.NotFound(w, "no training examples available", r.URL.Path)
			return
		}
		m.logger.Error("fetch example failed", zap.Error(err))
		server.InternalError(w, "failed to fetch example", r.URL.Path)
		return
	}

	writeJSON(w, http.StatusOK, testView{
		ID:          example.ID,
		Sender:      example.Sender,
		SenderEmail: example.SenderEmail,
		Subject:     example.Subject,
		Content:     example.Content,
	})
}

type answerRequest struct {
	ExampleID  string `json:"exampleId"`
	UserAnswer bool   `json:"userAnswer"`
}

type answerResponse struct {
	Correct    bool     `json:"correct"`
	IsPhishing bool     `json:"isPhishing"`
	Indicators []string `json:"indicators"`
}

func (m *Module) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		server.Unauthorized(w, "authentication required", r.URL.Path)
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ExampleID == "" {
		server.BadRequest(w, "exampleId is required", r.URL.Path)
		return
	}

	example, err := m.store.GetExample(r.Context(), req.ExampleID)
	if err != nil {
		if errors.Is(err, ErrExampleNotFound) {
			server.NotFound(w, "example not found", r.URL.Path)
			return
		}
		m.logger.Error("fetch example failed", zap.Error(err))
		server.InternalError(w, "failed to fetch example", r.URL.Path)
		return
	}

	correct := req.UserAnswer == example.IsPhishing
	err = m.store.InsertResult(r.Context(), &Result{
		UserID:    claims.UserID,
		ExampleID: example.ID,
		Answer:    req.UserAnswer,
		Correct:   correct,
	})
	if err != nil {
		m.logger.Error("record result failed", zap.Error(err))
		server.InternalError(w, "failed to record answer", r.URL.Path)
		return
	}

	status := models.ActivityCompleted
	if !correct {
		status = models.ActivityWarning
	}
	m.record(r.Context(), claims.UserID, "Phishing test completed", status)

	writeJSON(w, http.StatusOK, answerResponse{
		Correct:    correct,
		IsPhishing: example.IsPhishing,
		Indicators: example.Indicators,
	})
}

func (m *Module) handleStats(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		server.Unauthorized(w, "authentication required", r.URL.Path)
		return
	}

	completed, successRate, err := m.PhishingStats(r.Context(), claims.UserID)
	if err != nil {
		m.logger.Error("stats failed", zap.Error(err))
		server.InternalError(w, "failed to compute stats", r.URL.Path)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"completedTests": completed,
		"successRate":    successRate,
	})
}

func (m *Module) record(ctx context.Context, userID, activity string, status models.ActivityStatus) {
	if m.activity != nil {
		m.activity.Record(ctx, userID, "phishing", activity, status)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
