// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package identity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curadocs-dev/curadocs/internal/identity"
	"github.com/curadocs-dev/curadocs/internal/store"
	curaerr "github.com/curadocs-dev/curadocs/pkg/errors"
)

func seedProfile(t *testing.T, profiles store.ProfileStore, id string, role store.Role, active bool, token string) {
	t.Helper()

	err := profiles.Put(context.Background(), &store.Profile{
		ID:     id,
		Name:   "Test " + id,
		Email:  id + "@example.com",
		Role:   role,
		Active: active,
	})
	require.NoError(t, err)
	require.NoError(t, profiles.PutToken(context.Background(), identity.HashToken(token), id))
}

func TestResolve(t *testing.T) {
	profiles := store.NewMemoryProfileStore()
	seedProfile(t, profiles, "p1", store.RolePatient, true, "tok-p1")
	seedProfile(t, profiles, "d1", store.RoleClinician, false, "tok-d1")

	r := identity.NewResolver(profiles)

	id, err := r.Resolve(context.Background(), "tok-p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", id.ID)
	assert.Equal(t, store.RolePatient, id.Role)
	assert.True(t, id.Active)

	_, err = r.Resolve(context.Background(), "")
	assert.True(t, curaerr.HasCode(err, curaerr.CodeAuthTokenUnauthorized))

	_, err = r.Resolve(context.Background(), "no-such-token")
	assert.True(t, curaerr.HasCode(err, curaerr.CodeAuthTokenUnauthorized))

	// Valid token but deactivated account.
	_, err = r.Resolve(context.Background(), "tok-d1")
	assert.True(t, curaerr.HasCode(err, curaerr.CodeAuthAccountForbidden))
}

func TestRequireRole(t *testing.T) {
	clinician := &identity.Identity{ID: "d1", Role: store.RoleClinician}

	assert.NoError(t, identity.RequireRole(clinician, store.RoleClinician))
	assert.NoError(t, identity.RequireRole(clinician, store.RolePatient, store.RoleClinician))

	err := identity.RequireRole(clinician, store.RolePatient)
	assert.True(t, curaerr.HasCode(err, curaerr.CodeAuthRoleForbidden))
}

func TestHashTokenStable(t *testing.T) {
	assert.Equal(t, identity.HashToken("abc"), identity.HashToken("abc"))
	assert.NotEqual(t, identity.HashToken("abc"), identity.HashToken("abd"))
	assert.Len(t, identity.HashToken("abc"), 64)
}
