// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

// Package sqlite implements the store interfaces on SQLite via mattn/go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/curadocs-dev/curadocs/internal/store"
)

// Compile-time interface check.
var _ store.ChatStore = (*ChatStore)(nil)

// ChatStore implements store.ChatStore backed by SQLite.
//
// Per-owner append serialization comes from SQLite's single-writer model:
// each AppendTurns runs in one immediate transaction, so concurrent appends
// for any owner are applied as whole units in some total order.
type ChatStore struct {
	db *sql.DB
}

// NewChatStore opens (or creates) a SQLite database at dbPath and
// initialises the chat tables.
func NewChatStore(dbPath string) (*ChatStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if err := migrateChat(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating chat tables: %w", err)
	}

	return &ChatStore{db: db}, nil
}

func migrateChat(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS chat_sessions (
	owner_id   TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chat_sessions_created ON chat_sessions(created_at);

CREATE TABLE IF NOT EXISTS chat_turns (
	rowid    INTEGER PRIMARY KEY AUTOINCREMENT,
	id       TEXT UNIQUE NOT NULL,
	owner_id TEXT NOT NULL,
	speaker  TEXT NOT NULL,
	content  TEXT NOT NULL,
	at       TEXT NOT NULL,
	FOREIGN KEY (owner_id) REFERENCES chat_sessions(owner_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_chat_turns_owner ON chat_turns(owner_id, rowid);
`
	_, err := db.Exec(ddl)
	return err
}

// Close closes the underlying database connection.
func (s *ChatStore) Close() error {
	return s.db.Close()
}

func (s *ChatStore) Get(ctx context.Context, ownerID string) (*store.ChatSession, error) {
	return s.getSession(ctx, s.db, ownerID)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *ChatStore) getSession(ctx context.Context, q querier, ownerID string) (*store.ChatSession, error) {
	const sessQ = `SELECT owner_id, session_id, created_at, updated_at FROM chat_sessions WHERE owner_id = ?`

	var sess store.ChatSession
	var createdAt, updatedAt string

	err := q.QueryRowContext(ctx, sessQ, ownerID).Scan(&sess.OwnerID, &sess.SessionID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting chat session for %s: %w", ownerID, wrapDB(err))
	}
	sess.CreatedAt = parseTime(createdAt)
	sess.UpdatedAt = parseTime(updatedAt)

	const turnsQ = `SELECT id, speaker, content, at FROM chat_turns WHERE owner_id = ? ORDER BY rowid ASC`

	rows, err := q.QueryContext(ctx, turnsQ, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing turns for %s: %w", ownerID, wrapDB(err))
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var turn store.Turn
		var at string
		if err := rows.Scan(&turn.ID, &turn.Speaker, &turn.Text, &at); err != nil {
			return nil, fmt.Errorf("scanning turn row: %w", wrapDB(err))
		}
		turn.At = parseTime(at)
		sess.Turns = append(sess.Turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDB(err)
	}

	return &sess, nil
}

func (s *ChatStore) CreateIfAbsent(ctx context.Context, ownerID string) (*store.ChatSession, error) {
	now := formatTime(time.Now().UTC())
	const q = `INSERT INTO chat_sessions (owner_id, session_id, created_at, updated_at)
VALUES (?, ?, ?, ?) ON CONFLICT(owner_id) DO NOTHING`

	if _, err := s.db.ExecContext(ctx, q, ownerID, uuid.NewString(), now, now); err != nil {
		return nil, fmt.Errorf("creating chat session for %s: %w", ownerID, wrapDB(err))
	}

	return s.Get(ctx, ownerID)
}

func (s *ChatStore) AppendTurns(ctx context.Context, ownerID string, turns []store.Turn) (*store.ChatSession, error) {
	if len(turns) == 0 {
		return nil, store.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning append tx: %w", wrapDB(err))
	}
	defer func() { _ = tx.Rollback() }()

	// Bump updated_at first; zero rows affected means no session to append to.
	res, err := tx.ExecContext(ctx,
		`UPDATE chat_sessions SET updated_at = ? WHERE owner_id = ?`,
		formatTime(time.Now().UTC()), ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("touching chat session for %s: %w", ownerID, wrapDB(err))
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, wrapDB(err)
	} else if n == 0 {
		return nil, store.ErrNotFound
	}

	const ins = `INSERT INTO chat_turns (id, owner_id, speaker, content, at) VALUES (?, ?, ?, ?, ?)`
	for _, turn := range turns {
		if _, err := tx.ExecContext(ctx, ins, turn.ID, ownerID, string(turn.Speaker), turn.Text, formatTime(turn.At)); err != nil {
			return nil, fmt.Errorf("appending turn %s for %s: %w", turn.ID, ownerID, wrapDB(err))
		}
	}

	sess, err := s.getSession(ctx, tx, ownerID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing append for %s: %w", ownerID, wrapDB(err))
	}
	return sess, nil
}

func (s *ChatStore) Delete(ctx context.Context, ownerID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE owner_id = ?`, ownerID)
	if err != nil {
		return false, fmt.Errorf("deleting chat session for %s: %w", ownerID, wrapDB(err))
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, wrapDB(err)
	}
	return rows > 0, nil
}

// wrapDB tags driver errors with the store.ErrDatabase sentinel so callers
// can classify store unavailability without importing the driver.
func wrapDB(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %w", store.ErrDatabase, err)
	}
	return err
}

// formatTime serialises a time.Time to RFC3339 with nanosecond precision.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime deserialises a time string stored in the database.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
