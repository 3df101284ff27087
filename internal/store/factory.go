// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package store

import (
	"sync"

	curaerr "github.com/curadocs-dev/curadocs/pkg/errors"
)

// Config selects and parameterises a storage backend.
type Config struct {
	// Backend names a registered backend: "sqlite" (default), "postgres",
	// or "memory".
	Backend string

	// Path is the data directory for file-backed backends (sqlite).
	Path string

	// DSN is the connection string for server-backed backends (postgres).
	DSN string
}

// BackendFactory creates the stores for a named backend.
type BackendFactory func(cfg Config) (ChatStore, ProfileStore, error)

var (
	factories   = map[string]BackendFactory{}
	factoriesMu sync.RWMutex
)

// RegisterBackend registers a factory for a named storage backend.
// Backend packages call this from init(). Goroutine-safe.
func RegisterBackend(name string, f BackendFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// New creates the chat and profile stores for the configured backend,
// defaulting to "sqlite".
func New(cfg Config) (ChatStore, ProfileStore, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = "sqlite"
	}

	factoriesMu.RLock()
	factory, ok := factories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, nil, curaerr.Errorf(curaerr.CodeStoreBackendUnknown, "unsupported storage backend: %q", backend)
	}

	return factory(cfg)
}
