package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cybershield/cybershield/pkg/plugin"
	"github.com/google/uuid"
)

// ErrEntryNotFound is returned when an entry does not exist or belongs to
// another user.
var ErrEntryNotFound = errors.New("vault: entry not found")

// Entry is one stored credential. Password holds ciphertext at rest and
// plaintext only in API responses for single-entry fetches.
type Entry struct {
	ID        string    `json:"id"`
	Site      string    `json:"site"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Category  string    `json:"category,omitempty"`
	SiteIcon  string    `json:"siteIcon,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Breached  bool      `json:"breached"`
	Strength  int       `json:"strength"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists vault entries.
type Store struct {
	store plugin.Store
}

// NewStore creates the store and applies the vault schema migrations.
func NewStore(ctx context.Context, store plugin.Store) (*Store, error) {
	migrations := []plugin.Migration{
		{
			Version:     1,
			Description: "create vault entries table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE vault_entries (
						id TEXT PRIMARY KEY,
						user_id TEXT NOT NULL,
						site TEXT NOT NULL,
						username TEXT NOT NULL,
						password_enc TEXT NOT NULL,
						category TEXT NOT NULL DEFAULT '',
						site_icon TEXT NOT NULL DEFAULT '',
						notes TEXT NOT NULL DEFAULT '',
						breached INTEGER NOT NULL DEFAULT 0,
						strength INTEGER NOT NULL DEFAULT 0,
						created_at TIMESTAMP NOT NULL,
						updated_at TIMESTAMP NOT NULL
					);
					CREATE INDEX idx_vault_entries_user ON vault_entries(user_id)`)
				return err
			},
		},
	}

	if err := store.Migrate(ctx, "vault", migrations); err != nil {
		return nil, fmt.Errorf("vault migrations: %w", err)
	}
	return &Store{store: store}, nil
}

const entryColumns = `id, site, username, password_enc, category, site_icon,
	notes, breached, strength, created_at, updated_at`

// Create inserts a new entry. The entry's Password field must already hold
// ciphertext.
func (s *Store) Create(ctx context.Context, userID string, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := s.store.DB().ExecContext(ctx, `
		INSERT INTO vault_entries (id, user_id, site, username, password_enc,
			category, site_icon, notes, breached, strength, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, userID, e.Site, e.Username, e.Password, e.Category, e.SiteIcon,
		e.Notes, boolToInt(e.Breached), e.Strength, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create vault entry: %w", err)
	}
	return nil
}

// Get fetches one entry owned by the user.
func (s *Store) Get(ctx context.Context, userID, id string) (*Entry, error) {
	row := s.store.DB().QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM vault_entries WHERE id = ? AND user_id = ?`,
		id, userID)
	return scanEntry(row)
}

// List returns all entries owned by the user, newest first. Password fields
// hold ciphertext; callers redact or decrypt as appropriate.
func (s *Store) List(ctx context.Context, userID string) ([]Entry, error) {
	rows, err := s.store.DB().QueryContext(ctx,
		`SELECT `+entryColumns+` FROM vault_entries WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list vault entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var breached int
		if err := rows.Scan(&e.ID, &e.Site, &e.Username, &e.Password, &e.Category,
			&e.SiteIcon, &e.Notes, &breached, &e.Strength, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan vault entry: %w", err)
		}
		e.Breached = breached != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// Update rewrites an entry owned by the user.
func (s *Store) Update(ctx context.Context, userID string, e *Entry) error {
	e.UpdatedAt = time.Now()
	res, err := s.store.DB().ExecContext(ctx, `
		UPDATE vault_entries
		SET site = ?, username = ?, password_enc = ?, category = ?, site_icon = ?,
			notes = ?, breached = ?, strength = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		e.Site, e.Username, e.Password, e.Category, e.SiteIcon, e.Notes,
		boolToInt(e.Breached), e.Strength, e.UpdatedAt, e.ID, userID)
	if err != nil {
		return fmt.Errorf("update vault entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// SetBreached flips the breached flag on an entry.
func (s *Store) SetBreached(ctx context.Context, userID, id string, breached bool) error {
	_, err := s.store.DB().ExecContext(ctx,
		`UPDATE vault_entries SET breached = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		boolToInt(breached), time.Now(), id, userID)
	return err
}

// Delete removes an entry owned by the user.
func (s *Store) Delete(ctx context.Context, userID, id string) error {
	res, err := s.store.DB().ExecContext(ctx,
		`DELETE FROM vault_entries WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete vault entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// Stats returns the entry count and average strength for a user.
func (s *Store) Stats(ctx context.Context, userID string) (count int, avgStrength int, err error) {
	row := s.store.DB().QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(AVG(strength), 0)
		FROM vault_entries WHERE user_id = ?`, userID)

	var avg float64
	if err := row.Scan(&count, &avg); err != nil {
		return 0, 0, fmt.Errorf("vault stats: %w", err)
	}
	return count, int(avg + 0.5), nil
}

func scanEntry(row *sql.Row) (*Entry, error) {
	var e Entry
	var breached int
	err := row.Scan(&e.ID, &e.Site, &e.Username, &e.Password, &e.Category,
		&e.SiteIcon, &e.Notes, &breached, &e.Strength, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("scan vault entry: %w", err)
	}
	e.Breached = breached != 0
	return &e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
