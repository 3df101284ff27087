// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package server_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthIsOpen(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestAPIRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/assistant/history", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["success"])

	rec = doRequest(t, srv, http.MethodGet, "/api/assistant/history", "bogus-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInactiveAccountForbidden(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/assistant/history", tokenInactive, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSendMessageFlow(t *testing.T) {
	srv := newTestServer(t)

	rec := sendMessage(t, srv, tokenPatient, "I have a mild headache")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["isEmergency"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "I have a mild headache", data["userMessage"])
	assert.Equal(t, "echo: I have a mild headache", data["botResponse"])
	assert.NotEmpty(t, data["disclaimer"])
	assert.NotEmpty(t, data["timestamp"])

	// The exchange is visible in history.
	rec = doRequest(t, srv, http.MethodGet, "/api/assistant/history", tokenPatient, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	histData := decodeBody(t, rec)["data"].(map[string]any)
	messages := histData["messages"].([]any)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]any)
	second := messages[1].(map[string]any)
	assert.Equal(t, "user", first["speaker"])
	assert.Equal(t, "I have a mild headache", first["text"])
	assert.Equal(t, "assistant", second["speaker"])
	assert.Equal(t, float64(2), histData["totalMessages"])
	assert.NotEmpty(t, histData["sessionId"])
}

func TestSendMessageEmergency(t *testing.T) {
	srv := newTestServer(t)

	rec := sendMessage(t, srv, tokenPatient, "I think I'm having a heart attack")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["isEmergency"])
	assert.NotEmpty(t, body["emergencyMessage"])

	// Nothing was persisted.
	rec = doRequest(t, srv, http.MethodGet, "/api/assistant/stats", tokenPatient, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(0), stats["totalMessages"])
	assert.Nil(t, stats["firstMessageDate"])
}

func TestSendMessageEmptyBody(t *testing.T) {
	srv := newTestServer(t)

	rec := sendMessage(t, srv, tokenPatient, "   ")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClearHistoryIsIdempotent(t *testing.T) {
	srv := newTestServer(t)

	rec := sendMessage(t, srv, tokenPatient, "hello there")
	require.Equal(t, http.StatusOK, rec.Code)

	for i := 0; i < 2; i++ {
		rec = doRequest(t, srv, http.MethodDelete, "/api/assistant/history", tokenPatient, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["message"], "cleared")
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/assistant/history", tokenPatient, nil)
	histData := decodeBody(t, rec)["data"].(map[string]any)
	assert.Empty(t, histData["messages"])
}

func TestStatsCounts(t *testing.T) {
	srv := newTestServer(t)

	for _, msg := range []string{"one", "two"} {
		rec := sendMessage(t, srv, tokenPatient, msg)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/assistant/stats", tokenPatient, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	stats := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(4), stats["totalMessages"])
	assert.Equal(t, float64(2), stats["totalUserMessages"])
	assert.Equal(t, float64(2), stats["totalBotMessages"])
	assert.NotEmpty(t, stats["sessionStarted"])
}

func TestSessionsAreIsolatedPerOwner(t *testing.T) {
	srv := newTestServer(t)

	rec := sendMessage(t, srv, tokenPatient, "patient message")
	require.Equal(t, http.StatusOK, rec.Code)

	// The clinician's history is untouched.
	rec = doRequest(t, srv, http.MethodGet, "/api/assistant/history", tokenClinician, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	histData := decodeBody(t, rec)["data"].(map[string]any)
	assert.Empty(t, histData["messages"])
}
