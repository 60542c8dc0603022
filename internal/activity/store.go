package activity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cybershield/cybershield/pkg/models"
	"github.com/cybershield/cybershield/pkg/plugin"
	"github.com/google/uuid"
)

// Store persists activity log entries.
type Store struct {
	store plugin.Store
}

// NewStore creates the store and applies the activity schema migrations.
func NewStore(ctx context.Context, store plugin.Store) (*Store, error) {
	migrations := []plugin.Migration{
		{
			Version:     1,
			Description: "create activity log table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE activity_log (
						id TEXT PRIMARY KEY,
						user_id TEXT NOT NULL,
						module TEXT NOT NULL,
						activity TEXT NOT NULL,
						status TEXT NOT NULL,
						created_at TIMESTAMP NOT NULL
					);
					CREATE INDEX idx_activity_log_user ON activity_log(user_id, created_at)`)
				return err
			},
		},
	}

	if err := store.Migrate(ctx, "activity", migrations); err != nil {
		return nil, fmt.Errorf("activity migrations: %w", err)
	}
	return &Store{store: store}, nil
}

// Insert appends an activity entry.
func (s *Store) Insert(ctx context.Context, a *models.Activity) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := s.store.DB().ExecContext(ctx, `
		INSERT INTO activity_log (id, user_id, module, activity, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Module, a.Activity, a.Status, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// Recent returns the newest entries for a user, newest first.
func (s *Store) Recent(ctx context.Context, userID string, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.store.DB().QueryContext(ctx, `
		SELECT id, user_id, module, activity, status, created_at
		FROM activity_log
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent activity: %w", err)
	}
	defer rows.Close()

	var out []models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.UserID, &a.Module, &a.Activity, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Purge deletes entries older than the cutoff, returning the count removed.
func (s *Store) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.store.DB().ExecContext(ctx,
		`DELETE FROM activity_log WHERE created_at < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("purge activity: %w", err)
	}
	return res.RowsAffected()
}
