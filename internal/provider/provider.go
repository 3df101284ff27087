// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

// Package provider abstracts the external text-generation capability the
// assistant pipeline delegates to. Implementations are stateless per call:
// every request carries the full context window, and any transport, quota,
// or malformed-response condition surfaces as a coded error with no partial
// text returned.
package provider

import (
	"context"
	"strings"

	curaerr "github.com/curadocs-dev/curadocs/pkg/errors"
)

// Generator produces one assistant reply for a context window plus a new
// user message. Generate must honour ctx cancellation.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
	Close() error
}

// Role is the message role vocabulary generation backends expect.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one prior conversation turn in the context window.
type Message struct {
	Role    Role
	Content string
}

// Request is a single generation call.
type Request struct {
	Model string

	// SystemPolicy is the fixed instruction string governing the reply.
	SystemPolicy string

	// Window holds the bounded prior turns, oldest first. It never
	// includes the new message.
	Window []Message

	// Message is the new user message to answer.
	Message string

	Options Options
}

// Options contains model sampling configuration.
type Options struct {
	MaxOutputTokens int
	Temperature     float32
	TopP            float32
	TopK            int
}

// Validate checks the request fields every backend requires.
func (r Request) Validate() error {
	if r.Model == "" {
		return curaerr.New(curaerr.CodeProviderRequestInvalid, "model is required")
	}
	if strings.TrimSpace(r.Message) == "" {
		return curaerr.New(curaerr.CodeProviderRequestInvalid, "message is required")
	}
	return nil
}

// Config holds the credentials and model selection for a generation backend.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string // optional, useful for testing against a mock server
}
