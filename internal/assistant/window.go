// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package assistant

import (
	"github.com/curadocs-dev/curadocs/internal/provider"
	"github.com/curadocs-dev/curadocs/internal/store"
)

// BuildWindow maps the last min(len(turns), limit) turns to provider
// messages, preserving order. It only ever truncates from the front;
// interior turns are never dropped or reordered. A limit of zero or less
// yields an empty window.
func BuildWindow(turns []store.Turn, limit int) []provider.Message {
	if limit <= 0 {
		return nil
	}
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	window := make([]provider.Message, 0, len(turns))
	for _, turn := range turns {
		role := provider.RoleUser
		if turn.Speaker == store.SpeakerAssistant {
			role = provider.RoleAssistant
		}
		window = append(window, provider.Message{Role: role, Content: turn.Text})
	}
	return window
}
