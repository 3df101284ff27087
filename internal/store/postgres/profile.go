// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curadocs-dev/curadocs/internal/store"
)

// Compile-time interface check.
var _ store.ProfileStore = (*ProfileStore)(nil)

// ProfileStore implements store.ProfileStore backed by PostgreSQL, using a
// JSONB payload column next to the role discriminator.
type ProfileStore struct {
	pool *pgxpool.Pool
}

// NewProfileStore connects to the database and initialises the profile tables.
func NewProfileStore(ctx context.Context, databaseURL string) (*ProfileStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	const ddl = `
CREATE TABLE IF NOT EXISTS profiles (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT UNIQUE NOT NULL,
	role       TEXT NOT NULL,
	active     BOOLEAN NOT NULL DEFAULT TRUE,
	payload    JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_profiles_role ON profiles(role, created_at);

CREATE TABLE IF NOT EXISTS api_tokens (
	token_hash TEXT PRIMARY KEY,
	profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL
);
`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrating profile tables: %w", err)
	}

	return &ProfileStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *ProfileStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *ProfileStore) Get(ctx context.Context, id string) (*store.Profile, error) {
	const q = `SELECT id, name, email, role, active, payload, created_at, updated_at
FROM profiles WHERE id = $1`
	return scanProfile(s.pool.QueryRow(ctx, q, id))
}

func (s *ProfileStore) GetByToken(ctx context.Context, tokenHash string) (*store.Profile, error) {
	const q = `SELECT p.id, p.name, p.email, p.role, p.active, p.payload, p.created_at, p.updated_at
FROM profiles p JOIN api_tokens t ON t.profile_id = p.id
WHERE t.token_hash = $1`
	return scanProfile(s.pool.QueryRow(ctx, q, tokenHash))
}

func scanProfile(row pgx.Row) (*store.Profile, error) {
	var p store.Profile
	var payload []byte

	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Role, &p.Active, &payload, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", wrapDB(err))
	}

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
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	email = EXCLUDED.email,
	role = EXCLUDED.role,
	active = EXCLUDED.active,
	payload = EXCLUDED.payload,
	updated_at = EXCLUDED.updated_at`

	if _, err := s.pool.Exec(ctx, q,
		profile.ID, profile.Name, profile.Email, string(profile.Role),
		profile.Active, payload, created, now,
	); err != nil {
		return fmt.Errorf("putting profile %s: %w", profile.ID, wrapDB(err))
	}
	return nil
}

func (s *ProfileStore) PutToken(ctx context.Context, tokenHash, profileID string) error {
	if tokenHash == "" || profileID == "" {
		return store.ErrInvalidInput
	}

	const q = `INSERT INTO api_tokens (token_hash, profile_id, created_at) VALUES ($1, $2, $3)
ON CONFLICT (token_hash) DO UPDATE SET profile_id = EXCLUDED.profile_id`

	if _, err := s.pool.Exec(ctx, q, tokenHash, profileID, time.Now().UTC()); err != nil {
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
FROM profiles WHERE role = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := s.pool.Query(ctx, q, string(role), limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("listing %s profiles: %w", role, wrapDB(err))
	}
	defer rows.Close()

	var out []*store.Profile
	for rows.Next() {
		var p store.Profile
		var payload []byte
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Role, &p.Active, &payload, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning profile row: %w", wrapDB(err))
		}
		if err := unmarshalPayload(payload, &p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}

	return out, rows.Err()
}

func marshalPayload(p *store.Profile) ([]byte, error) {
	var payload any
	switch p.Role {
	case store.RoleClinician:
		if p.Clinician == nil {
			return []byte("{}"), nil
		}
		payload = p.Clinician
	case store.RolePatient:
		if p.Patient == nil {
			return []byte("{}"), nil
		}
		payload = p.Patient
	default:
		return nil, fmt.Errorf("%w: unknown role %q", store.ErrInvalidInput, p.Role)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshalling profile payload: %w", err)
	}
	return raw, nil
}

func unmarshalPayload(raw []byte, p *store.Profile) error {
	if len(raw) == 0 || string(raw) == "{}" {
		return nil
	}

	switch p.Role {
	case store.RoleClinician:
		p.Clinician = &store.ClinicianInfo{}
		return json.Unmarshal(raw, p.Clinician)
	case store.RolePatient:
		p.Patient = &store.PatientInfo{}
		return json.Unmarshal(raw, p.Patient)
	default:
		return nil
	}
}
