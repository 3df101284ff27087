// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package sqlite

import (
	"fmt"
	"path/filepath"

	"github.com/curadocs-dev/curadocs/internal/store"
)

func init() {
	store.RegisterBackend("sqlite", newStores)
}

func newStores(cfg store.Config) (store.ChatStore, store.ProfileStore, error) {
	cs, err := NewChatStore(filepath.Join(cfg.Path, "chat.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("creating chat store: %w", err)
	}

	ps, err := NewProfileStore(filepath.Join(cfg.Path, "profiles.db"))
	if err != nil {
		_ = cs.Close()
		return nil, nil, fmt.Errorf("creating profile store: %w", err)
	}

	return cs, ps, nil
}
