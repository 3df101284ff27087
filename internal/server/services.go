// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package server

import (
	"context"

	"github.com/curadocs-dev/curadocs/internal/assistant"
	"github.com/curadocs-dev/curadocs/internal/identity"
	"github.com/curadocs-dev/curadocs/internal/store"
	curaerr "github.com/curadocs-dev/curadocs/pkg/errors"
)

// AssistantService provides the conversational pipeline operations for REST
// handlers. Implemented by *assistant.Pipeline; an interface so handlers can
// be tested against fakes.
type AssistantService interface {
	SendMessage(ctx context.Context, ownerID, message string) (*assistant.Reply, error)
	History(ctx context.Context, ownerID string, limit int) (*assistant.History, error)
	Clear(ctx context.Context, ownerID string) error
	Stats(ctx context.Context, ownerID string) (*assistant.Stats, error)
}

// IdentityService resolves bearer tokens for the auth middleware.
// Implemented by *identity.Resolver.
type IdentityService interface {
	Resolve(ctx context.Context, token string) (*identity.Identity, error)
}

// Services holds dependencies injected into route handlers.
// Use NewServices to ensure all required services are provided.
type Services struct {
	assistant AssistantService
	identity  IdentityService
	profiles  store.ProfileStore
}

// NewServices creates a Services instance with validation.
func NewServices(asst AssistantService, ident IdentityService, profiles store.ProfileStore) (*Services, error) {
	if asst == nil {
		return nil, curaerr.New(curaerr.CodeServerConfigInvalid, "assistant service is required")
	}
	if ident == nil {
		return nil, curaerr.New(curaerr.CodeServerConfigInvalid, "identity service is required")
	}
	if profiles == nil {
		return nil, curaerr.New(curaerr.CodeServerConfigInvalid, "profile store is required")
	}
	return &Services{assistant: asst, identity: ident, profiles: profiles}, nil
}

// Assistant returns the assistant service.
func (s *Services) Assistant() AssistantService {
	return s.assistant
}

// Identity returns the identity service.
func (s *Services) Identity() IdentityService {
	return s.identity
}

// Profiles returns the profile store.
func (s *Services) Profiles() store.ProfileStore {
	return s.profiles
}
