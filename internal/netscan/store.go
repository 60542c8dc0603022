package netscan

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cybershield/cybershield/pkg/models"
	"github.com/cybershield/cybershield/pkg/plugin"
	"github.com/google/uuid"
)

// ErrVulnNotFound is returned when a vulnerability ID is unknown or owned by
// another user.
var ErrVulnNotFound = errors.New("netscan: vulnerability not found")

// Store persists scanned devices and their vulnerability findings.
type Store struct {
	store plugin.Store
}

// NewStore creates the store and applies the netscan schema migrations.
func NewStore(ctx context.Context, store plugin.Store) (*Store, error) {
	migrations := []plugin.Migration{
		{
			Version:     1,
			Description: "create devices table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE netscan_devices (
						id TEXT PRIMARY KEY,
						user_id TEXT NOT NULL,
						ip TEXT NOT NULL,
						mac TEXT NOT NULL,
						name TEXT NOT NULL,
						type TEXT NOT NULL,
						ports TEXT NOT NULL DEFAULT '[]',
						status TEXT NOT NULL,
						is_vulnerable INTEGER NOT NULL DEFAULT 0,
						last_seen TIMESTAMP NOT NULL
					);
					CREATE INDEX idx_netscan_devices_user ON netscan_devices(user_id)`)
				return err
			},
		},
		{
			Version:     2,
			Description: "create vulnerabilities table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE netscan_vulnerabilities (
						id TEXT PRIMARY KEY,
						user_id TEXT NOT NULL,
						device_id TEXT NOT NULL REFERENCES netscan_devices(id) ON DELETE CASCADE,
						description TEXT NOT NULL,
						severity TEXT NOT NULL,
						recommendation TEXT NOT NULL,
						resolved INTEGER NOT NULL DEFAULT 0,
						created_at TIMESTAMP NOT NULL
					);
					CREATE INDEX idx_netscan_vulns_user ON netscan_vulnerabilities(user_id);
					CREATE INDEX idx_netscan_vulns_device ON netscan_vulnerabilities(device_id)`)
				return err
			},
		},
	}

	if err := store.Migrate(ctx, "netscan", migrations); err != nil {
		return nil, fmt.Errorf("netscan migrations: %w", err)
	}
	return &Store{store: store}, nil
}

// ClearDevices removes all of a user's devices and their findings. Called at
// scan start: each scan replaces the previous inventory wholesale.
func (s *Store) ClearDevices(ctx context.Context, userID string) error {
	return s.store.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM netscan_vulnerabilities WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("clear vulnerabilities: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM netscan_devices WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("clear devices: %w", err)
		}
		return nil
	})
}

// CreateDevice inserts a discovered device.
func (s *Store) CreateDevice(ctx context.Context, userID string, d *models.Device) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.LastSeen.IsZero() {
		d.LastSeen = time.Now()
	}

	ports, err := json.Marshal(d.Ports)
	if err != nil {
		return fmt.Errorf("marshal ports: %w", err)
	}

	_, err = s.store.DB().ExecContext(ctx, `
		INSERT INTO netscan_devices (id, user_id, ip, mac, name, type, ports, status, is_vulnerable, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, userID, d.IP, d.MAC, d.Name, d.Type, string(ports), d.Status,
		boolToInt(d.IsVulnerable), d.LastSeen)
	if err != nil {
		return fmt.Errorf("create device: %w", err)
	}
	return nil
}

// ListDevices returns a user's current device inventory.
func (s *Store) ListDevices(ctx context.Context, userID string) ([]models.Device, error) {
	rows, err := s.store.DB().QueryContext(ctx, `
		SELECT id, ip, mac, name, type, ports, status, is_vulnerable, last_seen
		FROM netscan_devices WHERE user_id = ? ORDER BY ip`, userID)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var out []models.Device
	for rows.Next() {
		var d models.Device
		var ports string
		var vulnerable int
		if err := rows.Scan(&d.ID, &d.IP, &d.MAC, &d.Name, &d.Type, &ports,
			&d.Status, &vulnerable, &d.LastSeen); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		if err := json.Unmarshal([]byte(ports), &d.Ports); err != nil {
			return nil, fmt.Errorf("unmarshal ports: %w", err)
		}
		d.IsVulnerable = vulnerable != 0
		out = append(out, d)
	}
	return out, rows.Err()
}

// CreateVulnerability inserts a finding for a device.
func (s *Store) CreateVulnerability(ctx context.Context, userID string, v *models.Vulnerability) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}

	_, err := s.store.DB().ExecContext(ctx, `
		INSERT INTO netscan_vulnerabilities (id, user_id, device_id, description, severity, recommendation, resolved, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, userID, v.DeviceID, v.Description, v.Severity, v.Recommendation,
		boolToInt(v.Resolved), v.CreatedAt)
	if err != nil {
		return fmt.Errorf("create vulnerability: %w", err)
	}
	return nil
}

// SetDeviceVulnerable updates a device's vulnerable flag.
func (s *Store) SetDeviceVulnerable(ctx context.Context, userID, deviceID string, vulnerable bool) error {
	_, err := s.store.DB().ExecContext(ctx,
		`UPDATE netscan_devices SET is_vulnerable = ? WHERE id = ? AND user_id = ?`,
		boolToInt(vulnerable), deviceID, userID)
	return err
}

// ListOpenVulnerabilities returns a user's unresolved findings joined with the
// owning device's name and IP, highest severity first.
func (s *Store) ListOpenVulnerabilities(ctx context.Context, userID string) ([]models.Vulnerability, error) {
	rows, err := s.store.DB().QueryContext(ctx, `
		SELECT v.id, v.device_id, v.description, v.severity, v.recommendation,
			v.resolved, v.created_at, d.name, d.ip
		FROM netscan_vulnerabilities v
		JOIN netscan_devices d ON d.id = v.device_id
		WHERE v.user_id = ? AND v.resolved = 0
		ORDER BY CASE v.severity
			WHEN 'high' THEN 0
			WHEN 'medium' THEN 1
			ELSE 2 END, d.ip`, userID)
	if err != nil {
		return nil, fmt.Errorf("list vulnerabilities: %w", err)
	}
	defer rows.Close()

	var out []models.Vulnerability
	for rows.Next() {
		var v models.Vulnerability
		var resolved int
		if err := rows.Scan(&v.ID, &v.DeviceID, &v.Description, &v.Severity,
			&v.Recommendation, &resolved, &v.CreatedAt, &v.DeviceName, &v.DeviceIP); err != nil {
			return nil, fmt.Errorf("scan vulnerability: %w", err)
		}
		v.Resolved = resolved != 0
		out = append(out, v)
	}
	return out, rows.Err()
}

// ResolveVulnerability marks a finding resolved. When it was the device's
// last open finding, the device's vulnerable flag is cleared in the same
// transaction.
func (s *Store) ResolveVulnerability(ctx context.Context, userID, vulnID string) error {
	return s.store.Tx(ctx, func(tx *sql.Tx) error {
		var deviceID string
		err := tx.QueryRowContext(ctx,
			`SELECT device_id FROM netscan_vulnerabilities WHERE id = ? AND user_id = ?`,
			vulnID, userID).Scan(&deviceID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrVulnNotFound
			}
			return fmt.Errorf("lookup vulnerability: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE netscan_vulnerabilities SET resolved = 1 WHERE id = ?`, vulnID); err != nil {
			return fmt.Errorf("resolve vulnerability: %w", err)
		}

		var open int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM netscan_vulnerabilities
			WHERE device_id = ? AND resolved = 0`, deviceID).Scan(&open); err != nil {
			return fmt.Errorf("count open vulnerabilities: %w", err)
		}
		if open == 0 {
			if _, err := tx.ExecContext(ctx,
				`UPDATE netscan_devices SET is_vulnerable = 0 WHERE id = ?`, deviceID); err != nil {
				return fmt.Errorf("clear vulnerable flag: %w", err)
			}
		}
		return nil
	})
}

// DeviceCounts returns the total and vulnerable device counts for a user.
func (s *Store) DeviceCounts(ctx context.Context, userID string) (total, vulnerable int, err error) {
	row := s.store.DB().QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(is_vulnerable), 0)
		FROM netscan_devices WHERE user_id = ?`, userID)
	if err := row.Scan(&total, &vulnerable); err != nil {
		return 0, 0, fmt.Errorf("device counts: %w", err)
	}
	return total, vulnerable, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
