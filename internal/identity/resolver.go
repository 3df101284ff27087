// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

// Package identity resolves bearer credentials to portal accounts. Tokens
// are opaque strings stored hashed; a raw token never touches the store.
package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/curadocs-dev/curadocs/internal/store"
	curaerr "github.com/curadocs-dev/curadocs/pkg/errors"
)

// Identity is the authenticated caller attached to a request.
type Identity struct {
	ID     string
	Name   string
	Role   store.Role
	Active bool
}

// Resolver maps bearer tokens to portal identities.
type Resolver struct {
	profiles store.ProfileStore
}

// NewResolver creates a Resolver backed by the given profile store.
func NewResolver(profiles store.ProfileStore) *Resolver {
	return &Resolver{profiles: profiles}
}

// HashToken returns the hex-encoded SHA-256 digest of a raw token, the form
// under which tokens are persisted and looked up.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Resolve looks up the identity owning the given bearer token. It rejects
// blank or unknown tokens as unauthorized and deactivated accounts as
// forbidden.
func (r *Resolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, curaerr.New(curaerr.CodeAuthTokenUnauthorized, "missing bearer token")
	}

	profile, err := r.profiles.GetByToken(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, curaerr.Wrap(err, curaerr.CodeAuthTokenUnauthorized, "unknown bearer token")
		}
		return nil, curaerr.Wrap(err, curaerr.CodeStoreDatabaseFailure, "identity lookup failed")
	}

	if !profile.Active {
		return nil, curaerr.New(
			curaerr.CodeAuthAccountForbidden,
			"account is deactivated",
			curaerr.Field("profile_id", profile.ID),
		)
	}

	return &Identity{
		ID:     profile.ID,
		Name:   profile.Name,
		Role:   profile.Role,
		Active: profile.Active,
	}, nil
}

// RequireRole verifies the identity holds one of the allowed roles.
func RequireRole(id *Identity, allowed ...store.Role) error {
	for _, role := range allowed {
		if id.Role == role {
			return nil
		}
	}
	return curaerr.New(
		curaerr.CodeAuthRoleForbidden,
		"role not permitted for this resource",
		curaerr.Field("profile_id", id.ID),
		curaerr.Field("role", string(id.Role)),
	)
}
