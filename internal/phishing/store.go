package phishing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cybershield/cybershield/pkg/plugin"
	"github.com/google/uuid"
)

// ErrExampleNotFound is returned when an example ID is unknown.
var ErrExampleNotFound = errors.New("phishing: example not found")

// Example is one training email. Examples are global; results are per user.
type Example struct {
	ID          string   `json:"id"`
	Sender      string   `json:"sender"`
	SenderEmail string   `json:"senderEmail"`
	Subject     string   `json:"subject"`
	Content     string   `json:"content"`
	IsPhishing  bool     `json:"isPhishing"`
	Indicators  []string `json:"indicators"`
}

// Result records one user's answer to one example.
type Result struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	ExampleID string    `json:"exampleId"`
	Answer    bool      `json:"answer"`
	Correct   bool      `json:"correct"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists phishing examples and per-user results.
type Store struct {
	store plugin.Store
}

// NewStore creates the store and applies the phishing schema migrations.
func NewStore(ctx context.Context, store plugin.Store) (*Store, error) {
	migrations := []plugin.Migration{
		{
			Version:     1,
			Description: "create phishing examples and results tables",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE phishing_examples (
						id TEXT PRIMARY KEY,
						sender TEXT NOT NULL,
						sender_email TEXT NOT NULL,
						subject TEXT NOT NULL,
						content TEXT NOT NULL,
						is_phishing INTEGER NOT NULL,
						indicators TEXT NOT NULL DEFAULT '[]'
					);
					CREATE TABLE phishing_results (
						id TEXT PRIMARY KEY,
						user_id TEXT NOT NULL,
						example_id TEXT NOT NULL REFERENCES phishing_examples(id),
						answer INTEGER NOT NULL,
						correct INTEGER NOT NULL,
						created_at TIMESTAMP NOT NULL
					);
					CREATE INDEX idx_phishing_results_user ON phishing_results(user_id)`)
				return err
			},
		},
	}

	if err := store.Migrate(ctx, "phishing", migrations); err != nil {
		return nil, fmt.Errorf("phishing migrations: %w", err)
	}
	return &Store{store: store}, nil
}

// InsertExample adds a training example.
func (s *Store) InsertExample(ctx context.Context, e *Example) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	indicators, err := json.Marshal(e.Indicators)
	if err != nil {
		return fmt.Errorf("marshal indicators: %w", err)
	}

	_, err = s.store.DB().ExecContext(ctx, `
		INSERT INTO phishing_examples (id, sender, sender_email, subject, content, is_phishing, indicators)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Sender, e.SenderEmail, e.Subject, e.Content, boolToInt(e.IsPhishing), string(indicators))
	if err != nil {
		return fmt.Errorf("insert example: %w", err)
	}
	return nil
}

// CountExamples returns the number of stored examples.
func (s *Store) CountExamples(ctx context.Context) (int, error) {
	var n int
	err := s.store.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM phishing_examples`).Scan(&n)
	return n, err
}

// GetExample fetches one example by ID.
func (s *Store) GetExample(ctx context.Context, id string) (*Example, error) {
	row := s.store.DB().QueryRowContext(ctx, `
		SELECT id, sender, sender_email, subject, content, is_phishing, indicators
		FROM phishing_examples WHERE id = ?`, id)
	return scanExample(row)
}

// RandomExample returns a pseudo-random example.
func (s *Store) RandomExample(ctx context.Context) (*Example, error) {
	row := s.store.DB().QueryRowContext(ctx, `
		SELECT id, sender, sender_email, subject, content, is_phishing, indicators
		FROM phishing_examples ORDER BY RANDOM() LIMIT 1`)
	return scanExample(row)
}

// InsertResult records a user's answer.
func (s *Store) InsertResult(ctx context.Context, r *Result) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.store.DB().ExecContext(ctx, `
		INSERT INTO phishing_results (id, user_id, example_id, answer, correct, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.ExampleID, boolToInt(r.Answer), boolToInt(r.Correct), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// Stats returns the completed-test count and correct-answer count for a user.
func (s *Store) Stats(ctx context.Context, userID string) (completed, correct int, err error) {
	row := s.store.DB().QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(correct), 0)
		FROM phishing_results WHERE user_id = ?`, userID)
	if err := row.Scan(&completed, &correct); err != nil {
		return 0, 0, fmt.Errorf("phishing stats: %w", err)
	}
	return completed, correct, nil
}

func scanExample(row *sql.Row) (*Example, error) {
	var e Example
	var isPhishing int
	var indicators string

	err := row.Scan(&e.ID, &e.Sender, &e.SenderEmail, &e.Subject, &e.Content, &isPhishing, &indicators)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrExampleNotFound
		}
		return nil, fmt.Errorf("scan example: %w", err)
	}

	e.IsPhishing = isPhishing != 0
	if err := json.Unmarshal([]byte(indicators), &e.Indicators); err != nil {
		return nil, fmt.Errorf("unmarshal indicators: %w", err)
	}
	return &e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
