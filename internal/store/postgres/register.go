// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package postgres

import (
	"context"
	"fmt"

	"github.com/curadocs-dev/curadocs/internal/store"
)

func init() {
	store.RegisterBackend("postgres", newStores)
}

func newStores(cfg store.Config) (store.ChatStore, store.ProfileStore, error) {
	if cfg.DSN == "" {
		return nil, nil, fmt.Errorf("postgres backend requires a dsn")
	}

	ctx := context.Background()

	cs, err := NewChatStore(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("creating chat store: %w", err)
	}

	ps, err := NewProfileStore(ctx, cfg.DSN)
	if err != nil {
		_ = cs.Close()
		return nil, nil, fmt.Errorf("creating profile store: %w", err)
	}

	return cs, ps, nil
}
