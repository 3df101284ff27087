// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

func init() {
	RegisterBackend("memory", func(Config) (ChatStore, ProfileStore, error) {
		return NewMemoryChatStore(), NewMemoryProfileStore(), nil
	})
}

// MemoryChatStore is an in-memory ChatStore for tests and development.
// Each owner has its own lock, so appends for different owners never
// serialize against each other.
type MemoryChatStore struct {
	mu       sync.RWMutex
	sessions map[string]*chatEntry
}

type chatEntry struct {
	mu      sync.Mutex
	session ChatSession
}

// NewMemoryChatStore creates an empty in-memory chat store.
func NewMemoryChatStore() *MemoryChatStore {
	return &MemoryChatStore{sessions: map[string]*chatEntry{}}
}

func (m *MemoryChatStore) entry(ownerID string) (*chatEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[ownerID]
	return e, ok
}

func (m *MemoryChatStore) Get(_ context.Context, ownerID string) (*ChatSession, error) {
	e, ok := m.entry(ownerID)
	if !ok {
		return nil, ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return copySession(&e.session), nil
}

func (m *MemoryChatStore) CreateIfAbsent(_ context.Context, ownerID string) (*ChatSession, error) {
	m.mu.Lock()
	e, ok := m.sessions[ownerID]
	if !ok {
		now := time.Now().UTC()
		e = &chatEntry{session: ChatSession{
			OwnerID:   ownerID,
			SessionID: uuid.NewString(),
			CreatedAt: now,
			UpdatedAt: now,
		}}
		m.sessions[ownerID] = e
	}
	m.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	return copySession(&e.session), nil
}

func (m *MemoryChatStore) AppendTurns(_ context.Context, ownerID string, turns []Turn) (*ChatSession, error) {
	e, ok := m.entry(ownerID)
	if !ok {
		return nil, ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Turns = append(e.session.Turns, turns...)
	e.session.UpdatedAt = time.Now().UTC()
	return copySession(&e.session), nil
}

func (m *MemoryChatStore) Delete(_ context.Context, ownerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[ownerID]
	delete(m.sessions, ownerID)
	return ok, nil
}

func (m *MemoryChatStore) Close() error { return nil }

func copySession(s *ChatSession) *ChatSession {
	out := *s
	out.Turns = make([]Turn, len(s.Turns))
	copy(out.Turns, s.Turns)
	return &out
}

// MemoryProfileStore is an in-memory ProfileStore for tests and development.
type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	tokens   map[string]string // token hash -> profile ID
}

// NewMemoryProfileStore creates an empty in-memory profile store.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{
		profiles: map[string]*Profile{},
		tokens:   map[string]string{},
	}
}

func (m *MemoryProfileStore) Get(_ context.Context, id string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}

func (m *MemoryProfileStore) GetByToken(ctx context.Context, tokenHash string) (*Profile, error) {
	m.mu.RLock()
	id, ok := m.tokens[tokenHash]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.Get(ctx, id)
}

func (m *MemoryProfileStore) Put(_ context.Context, profile *Profile) error {
	if profile.ID == "" {
		return ErrInvalidInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	p := *profile
	m.profiles[profile.ID] = &p
	return nil
}

func (m *MemoryProfileStore) PutToken(_ context.Context, tokenHash, profileID string) error {
	if tokenHash == "" || profileID == "" {
		return ErrInvalidInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[tokenHash] = profileID
	return nil
}

func (m *MemoryProfileStore) ListByRole(_ context.Context, role Role, opts ListOpts) ([]*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Profile
	for _, p := range m.profiles {
		if p.Role != role {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}

	// Map iteration order is random; newest-first like the SQL backends.
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *MemoryProfileStore) Close() error { return nil }
