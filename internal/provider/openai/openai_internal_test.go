// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curadocs-dev/curadocs/internal/provider"
)

func TestBuildParams(t *testing.T) {
	req := provider.Request{
		Model:        "gpt-4.1-mini",
		Message:      "and now?",
		SystemPolicy: "be careful",
		Window: []provider.Message{
			{Role: provider.RoleUser, Content: "I have a headache"},
			{Role: provider.RoleAssistant, Content: "How long has it lasted?"},
		},
		Options: provider.Options{MaxOutputTokens: 800, Temperature: 0.7, TopP: 0.8},
	}

	params := buildParams(req)
	assert.Equal(t, "gpt-4.1-mini", string(params.Model))
	// system + 2 window turns + new message
	require.Len(t, params.Messages, 4)
	assert.Equal(t, int64(800), params.MaxCompletionTokens.Value)
	assert.InDelta(t, 0.7, params.Temperature.Value, 1e-6)
	assert.InDelta(t, 0.8, params.TopP.Value, 1e-6)
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(provider.Config{})
	assert.Error(t, err)
}
