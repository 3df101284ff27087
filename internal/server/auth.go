// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/curadocs-dev/curadocs/internal/identity"
	curaerr "github.com/curadocs-dev/curadocs/pkg/errors"
)

type identityCtxKey struct{}

// WithIdentity returns a context carrying the authenticated identity.
func WithIdentity(ctx context.Context, id *identity.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext returns the authenticated identity attached by the
// auth middleware, if any.
func IdentityFromContext(ctx context.Context) (*identity.Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(*identity.Identity)
	return id, ok
}

// authMiddleware enforces bearer-token authentication for everything under
// /api. The health endpoint and the OpenAPI docs stay open.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		if s.services == nil {
			writeAuthError(w, http.StatusServiceUnavailable, "Service is starting up. Please try again.")
			return
		}

		token := bearerToken(r.Header.Get("Authorization"))
		id, err := s.services.identity.Resolve(r.Context(), token)
		if err != nil {
			status := curaerr.HTTPStatus(err)
			msg := "Authentication required"
			switch status {
			case http.StatusForbidden:
				msg = "Account is deactivated. Please contact support."
			case http.StatusInternalServerError:
				s.logger.Error("identity resolution failed", "error", err)
				status = http.StatusInternalServerError
				msg = "Authentication service unavailable. Please try again."
			}
			writeAuthError(w, status, msg)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// bearerToken extracts the token from an Authorization header value.
// Returns the empty string when the header is absent or not a Bearer scheme.
func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": msg,
	})
}
