// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

// Package postgres implements the store interfaces on PostgreSQL via pgx.
// It is the deployment backend for multi-instance installs; sqlite remains
// the default for single-node use.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curadocs-dev/curadocs/internal/store"
)

// Compile-time interface check.
var _ store.ChatStore = (*ChatStore)(nil)

// ChatStore implements store.ChatStore backed by PostgreSQL.
//
// Per-owner append serialization uses a row lock on the session record:
// AppendTurns takes SELECT ... FOR UPDATE on the owner's session row inside
// its transaction, so concurrent appends for the same owner queue while
// appends for different owners proceed independently.
type ChatStore struct {
	pool *pgxpool.Pool
}

// NewChatStore connects to the database and initialises the chat tables.
func NewChatStore(ctx context.Context, databaseURL string) (*ChatStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateChat(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrating chat tables: %w", err)
	}

	return &ChatStore{pool: pool}, nil
}

func migrateChat(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS chat_sessions (
	owner_id   TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS chat_turns (
	seq      BIGSERIAL PRIMARY KEY,
	id       TEXT UNIQUE NOT NULL,
	owner_id TEXT NOT NULL REFERENCES chat_sessions(owner_id) ON DELETE CASCADE,
	speaker  TEXT NOT NULL,
	content  TEXT NOT NULL,
	at       TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chat_turns_owner ON chat_turns(owner_id, seq);
`
	_, err := pool.Exec(ctx, ddl)
	return err
}

// Close releases the connection pool.
func (s *ChatStore) Close() error {
	s.pool.Close()
	return nil
}

type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *ChatStore) getSession(ctx context.Context, q pgQuerier, ownerID string) (*store.ChatSession, error) {
	var sess store.ChatSession
	err := q.QueryRow(ctx,
		`SELECT owner_id, session_id, created_at, updated_at FROM chat_sessions WHERE owner_id = $1`,
		ownerID,
	).Scan(&sess.OwnerID, &sess.SessionID, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting chat session for %s: %w", ownerID, wrapDB(err))
	}

	rows, err := q.Query(ctx,
		`SELECT id, speaker, content, at FROM chat_turns WHERE owner_id = $1 ORDER BY seq ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing turns for %s: %w", ownerID, wrapDB(err))
	}
	defer rows.Close()

	for rows.Next() {
		var turn store.Turn
		if err := rows.Scan(&turn.ID, &turn.Speaker, &turn.Text, &turn.At); err != nil {
			return nil, fmt.Errorf("scanning turn row: %w", wrapDB(err))
		}
		sess.Turns = append(sess.Turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDB(err)
	}

	return &sess, nil
}

func (s *ChatStore) Get(ctx context.Context, ownerID string) (*store.ChatSession, error) {
	return s.getSession(ctx, s.pool, ownerID)
}

func (s *ChatStore) CreateIfAbsent(ctx context.Context, ownerID string) (*store.ChatSession, error) {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_sessions (owner_id, session_id, created_at, updated_at)
VALUES ($1, $2, $3, $3) ON CONFLICT (owner_id) DO NOTHING`,
		ownerID, uuid.NewString(), now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating chat session for %s: %w", ownerID, wrapDB(err))
	}

	return s.Get(ctx, ownerID)
}

func (s *ChatStore) AppendTurns(ctx context.Context, ownerID string, turns []store.Turn) (*store.ChatSession, error) {
	if len(turns) == 0 {
		return nil, store.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning append tx: %w", wrapDB(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Owner-scoped row lock: serializes appends for this owner only.
	var sessionID string
	err = tx.QueryRow(ctx,
		`SELECT session_id FROM chat_sessions WHERE owner_id = $1 FOR UPDATE`,
		ownerID,
	).Scan(&sessionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("locking chat session for %s: %w", ownerID, wrapDB(err))
	}

	for _, turn := range turns {
		if _, err := tx.Exec(ctx,
			`INSERT INTO chat_turns (id, owner_id, speaker, content, at) VALUES ($1, $2, $3, $4, $5)`,
			turn.ID, ownerID, string(turn.Speaker), turn.Text, turn.At.UTC(),
		); err != nil {
			return nil, fmt.Errorf("appending turn %s for %s: %w", turn.ID, ownerID, wrapDB(err))
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE chat_sessions SET updated_at = $1 WHERE owner_id = $2`,
		time.Now().UTC(), ownerID,
	); err != nil {
		return nil, fmt.Errorf("touching chat session for %s: %w", ownerID, wrapDB(err))
	}

	sess, err := s.getSession(ctx, tx, ownerID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing append for %s: %w", ownerID, wrapDB(err))
	}
	return sess, nil
}

func (s *ChatStore) Delete(ctx context.Context, ownerID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM chat_sessions WHERE owner_id = $1`, ownerID)
	if err != nil {
		return false, fmt.Errorf("deleting chat session for %s: %w", ownerID, wrapDB(err))
	}
	return tag.RowsAffected() > 0, nil
}

// wrapDB tags connection-level failures with store.ErrDatabase so callers
// can classify store unavailability without importing pgx.
func wrapDB(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", store.ErrDatabase, err)
}
