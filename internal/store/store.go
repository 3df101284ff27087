// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

// Package store defines the persistence interfaces for conversation sessions
// and portal profiles, plus the backend registry. Concrete backends live in
// subpackages (sqlite, postgres) and self-register from init().
package store

import "context"

// ChatStore manages per-owner conversation sessions.
//
// Implementations must serialize AppendTurns per owner: two concurrent
// appends for the same owner are applied as whole, totally-ordered units
// with no interleaving and no lost update. Appends for different owners
// are independent.
type ChatStore interface {
	// Get returns the owner's session, or ErrNotFound if none exists.
	Get(ctx context.Context, ownerID string) (*ChatSession, error)

	// CreateIfAbsent returns the owner's session, creating an empty one
	// if it does not exist yet.
	CreateIfAbsent(ctx context.Context, ownerID string) (*ChatSession, error)

	// AppendTurns appends the given turns, in order, as one atomic unit
	// and returns the updated session. ErrNotFound if no session exists.
	AppendTurns(ctx context.Context, ownerID string, turns []Turn) (*ChatSession, error)

	// Delete removes the owner's session and all its turns. Returns true
	// if a session existed.
	Delete(ctx context.Context, ownerID string) (bool, error)

	Close() error
}

// ProfileStore manages portal accounts and their API tokens.
type ProfileStore interface {
	// Get returns the profile by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Profile, error)

	// GetByToken returns the profile owning the given token hash, or
	// ErrNotFound. Tokens are stored hashed; callers hash before lookup.
	GetByToken(ctx context.Context, tokenHash string) (*Profile, error)

	// Put inserts or replaces a profile.
	Put(ctx context.Context, profile *Profile) error

	// PutToken binds a token hash to a profile.
	PutToken(ctx context.Context, tokenHash, profileID string) error

	// ListByRole returns profiles with the given role, newest first.
	ListByRole(ctx context.Context, role Role, opts ListOpts) ([]*Profile, error)

	Close() error
}
