// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package secrets_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curadocs-dev/curadocs/internal/secrets"
	curaerr "github.com/curadocs-dev/curadocs/pkg/errors"
)

// mapStore is an in-memory Store for tests.
type mapStore map[string]string

func (m mapStore) Retrieve(service, key string) (string, error) {
	val, ok := m[service+"/"+key]
	if !ok {
		return "", curaerr.Errorf(curaerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
	}
	return val, nil
}

func (m mapStore) Set(service, key, value string) error {
	m[service+"/"+key] = value
	return nil
}

func (m mapStore) Delete(service, key string) error {
	delete(m, service+"/"+key)
	return nil
}

func TestParseKeyringURI(t *testing.T) {
	service, key, err := secrets.ParseKeyringURI("keyring://curadocs/google-api-key")
	require.NoError(t, err)
	assert.Equal(t, "curadocs", service)
	assert.Equal(t, "google-api-key", key)

	for _, uri := range []string{"plain-value", "keyring://", "keyring://only-service", "keyring:///key"} {
		_, _, err := secrets.ParseKeyringURI(uri)
		assert.Error(t, err, "uri %q", uri)
	}
}

func TestResolve(t *testing.T) {
	store := mapStore{"curadocs/google-api-key": "s3cret"}

	// Literal values pass through untouched.
	val, err := secrets.Resolve(store, "literal-key")
	require.NoError(t, err)
	assert.Equal(t, "literal-key", val)

	val, err = secrets.Resolve(store, "keyring://curadocs/google-api-key")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", val)

	_, err = secrets.Resolve(store, "keyring://curadocs/missing")
	assert.True(t, curaerr.HasCode(err, curaerr.CodeSecretResolveFailure))
}
