// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/curadocs-dev/curadocs/internal/assistant"
	"github.com/curadocs-dev/curadocs/internal/identity"
	"github.com/curadocs-dev/curadocs/internal/provider"
	"github.com/curadocs-dev/curadocs/internal/server"
	"github.com/curadocs-dev/curadocs/internal/store"
)

// echoGenerator replies with a fixed transform of the message so tests can
// assert on persisted content.
type echoGenerator struct{}

func (echoGenerator) Name() string { return "echo" }
func (echoGenerator) Close() error { return nil }
func (echoGenerator) Generate(_ context.Context, req provider.Request) (string, error) {
	return "echo: " + req.Message, nil
}

const (
	tokenPatient   = "tok-patient"
	tokenClinician = "tok-clinician"
	tokenInactive  = "tok-inactive"
)

func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	profiles := store.NewMemoryProfileStore()
	seed := func(id string, role store.Role, active bool, token string) {
		require.NoError(t, profiles.Put(context.Background(), &store.Profile{
			ID:     id,
			Name:   "Test " + id,
			Email:  id + "@example.com",
			Role:   role,
			Active: active,
		}))
		require.NoError(t, profiles.PutToken(context.Background(), identity.HashToken(token), id))
	}
	seed("patient-1", store.RolePatient, true, tokenPatient)
	seed("clinician-1", store.RoleClinician, true, tokenClinician)
	seed("inactive-1", store.RolePatient, false, tokenInactive)

	pipeline, err := assistant.NewPipeline(store.NewMemoryChatStore(), echoGenerator{}, assistant.Config{})
	require.NoError(t, err)

	svc, err := server.NewServices(pipeline, identity.NewResolver(profiles), profiles)
	require.NoError(t, err)

	srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0"})
	require.NoError(t, err)
	srv.RegisterServices(svc)
	return srv
}

func doRequest(t *testing.T, srv *server.Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func sendMessage(t *testing.T, srv *server.Server, token, message string) *httptest.ResponseRecorder {
	t.Helper()
	return doRequest(t, srv, http.MethodPost, "/api/assistant/message", token, map[string]string{"message": message})
}
