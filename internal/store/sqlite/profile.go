// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/curadocs-dev/curadocs/internal/store"
)

// Compile-time interface check.
var _ store.ProfileStore = (*ProfileStore)(nil)

// ProfileStore implements store.ProfileStore backed by SQLite. Role-specific
// profile fields are stored as a JSON payload column next to the role
// discriminator, so clinician and patient records share one table.
type ProfileStore struct {
	db *sql.DB
}

// NewProfileStore opens (or creates) a SQLite database at dbPath and
// initialises the profile tables.
func NewProfileStore(dbPath string) (*ProfileStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if err := migrateProfiles(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating profile tables: %w", err)
	}

	return &ProfileStore{db: db}, nil
}

func migrateProfiles(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS profiles (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT UNIQUE NOT NULL,
	role       TEXT NOT NULL,
	active     INTEGER NOT NULL DEFAULT 1,
	payload    TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_profiles_role ON profiles(role, created_at);

CREATE TABLE IF NOT EXISTS api_tokens (
	token_hash TEXT PRIMARY KEY,
	profile_id TEXT NOT NULL,
	created_at TEXT NOT NULL,
	FOREIGN KEY (profile_id) REFERENCES profiles(id) ON DELETE CASCADE
);
`
	_, err := db.Exec(ddl)
	return err
}

// Close closes the underlying database connection.
func (s *ProfileStore) Close() error {
	return s.db.Close()
}

func (s *ProfileStore) Get(ctx context.Context, id string) (*store.Profile, error) {
	const q = `SELECT id, name, email, role, active, payload, created_at, updated_at
FROM profiles WHERE id = ?`
	return s.scanProfile(s.db.QueryRowContext(ctx, q, id))
}

func (s *ProfileStore) GetByToken(ctx context.Context, tokenHash string) (*store.Profile, error) {
	const q = `SELECT p.id, p.name, p.email, p.role, p.active, p.payload, p.created_at, p.updated_at
FROM profiles p JOIN api_tokens t ON t.profile_id = p.id
WHERE t.token_hash = ?`
	return s.scanProfile(s.db.QueryRowContext(ctx, q, tokenHash))
}

func (s *ProfileStore) scanProfile(row *sql.Row) (*store.Profile, error) {
	var p store.Profile
	var active int
	var payload, createdAt, updatedAt string

	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Role, &active, &payload, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", wrapDB(err))
	}

	p.Active = active != 0
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	if err := unmarshalPayload(payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProfileStore) Put(ctx context.Context, profile *store.Profile) error {
	if profile.ID == "" {
		return store.ErrInvalidInput
	}

	payload, err := marshalPayload(profile)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	created := profile.CreatedAt
	if created.IsZero() {
		created = now
	}

	const q = `INSERT INTO profiles (id, name, email, role, active, payload, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	email = excluded.email,
	role = excluded.role,
	active = excluded.active,
	payload = excluded.payload,
	updated_at = excluded.updated_at`

	_, err = s.db.ExecContext(ctx, q,
		profile.ID,
		profile.Name,
		profile.Email,
		string(profile.Role),
		boolToInt(profile.Active),
		payload,
		formatTime(created),
		formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("putting profile %s: %w", profile.ID, wrapDB(err))
	}
	return nil
}

func (s *ProfileStore) PutToken(ctx context.Context, tokenHash, profileID string) error {
	if tokenHash == "" || profileID == "" {
		return store.ErrInvalidInput
	}

	const q = `INSERT INTO api_tokens (token_hash, profile_id, created_at) VALUES (?, ?, ?)
ON CONFLICT(token_hash) DO UPDATE SET profile_id = excluded.profile_id`

	if _, err := s.db.ExecContext(ctx, q, tokenHash, profileID, formatTime(time.Now().UTC())); err != nil {
		return fmt.Errorf("putting token for %s: %w", profileID, wrapDB(err))
	}
	return nil
}

func (s *ProfileStore) ListByRole(ctx context.Context, role store.Role, opts store.ListOpts) ([]*store.Profile, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	const q = `SELECT id, name, email, role, active, payload, created_at, updated_at
FROM profiles WHERE role = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, q, string(role), limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("listing %s profiles: %w", role, wrapDB(err))
	}
	defer func() { _ = rows.Close() }()

	var out []*store.Profile
	for rows.Next() {
		var p store.Profile
		var active int
		var payload, createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Role, &active, &payload, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning profile row: %w", wrapDB(err))
		}
		p.Active = active != 0
		p.CreatedAt = parseTime(createdAt)
		p.UpdatedAt = parseTime(updatedAt)
		if err := unmarshalPayload(payload, &p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}

	return out, rows.Err()
}

func marshalPayload(p *store.Profile) (string, error) {
	var payload any
	switch p.Role {
	case store.RoleClinician:
		if p.Clinician == nil {
			return "{}", nil
		}
		payload = p.Clinician
	case store.RolePatient:
		if p.Patient == nil {
			return "{}", nil
		}
		payload = p.Patient
	default:
		return "", fmt.Errorf("%w: unknown role %q", store.ErrInvalidInput, p.Role)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshalling profile payload: %w", err)
	}
	return string(raw), nil
}

func unmarshalPayload(raw string, p *store.Profile) error {
	if raw == "" || raw == "{}" {
		return nil
	}

	switch p.Role {
	case store.RoleClinician:
		p.Clinician = &store.ClinicianInfo{}
		return json.Unmarshal([]byte(raw), p.Clinician)
	case store.RolePatient:
		p.Patient = &store.PatientInfo{}
		return json.Unmarshal([]byte(raw), p.Patient)
	default:
		return nil
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
