// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

// Package secrets resolves credentials referenced from config, so provider
// API keys and broker tokens never need to live in the config file itself.
// The backing store is the OS keyring: Keychain on macOS, secret-service on
// Linux, Credential Manager on Windows.
package secrets

import (
	"errors"

	"github.com/zalando/go-keyring"

	curaerr "github.com/curadocs-dev/curadocs/pkg/errors"
)

// Store provides secret retrieval and management.
type Store interface {
	// Retrieve fetches the secret for the given service and key.
	Retrieve(service, key string) (string, error)

	// Set saves a secret under the given service and key.
	Set(service, key, value string) error

	// Delete removes the secret for the given service and key.
	Delete(service, key string) error
}

// KeyringStore implements Store on the OS keyring.
type KeyringStore struct{}

// NewKeyringStore returns a KeyringStore.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func (s *KeyringStore) Retrieve(service, key string) (string, error) {
	if service == "" || key == "" {
		return "", curaerr.New(curaerr.CodeSecretInvalidInput, "secret retrieve: service and key must not be empty")
	}

	val, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", curaerr.Errorf(curaerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return "", curaerr.Wrapf(err, curaerr.CodeSecretStoreFailure, "retrieving secret %s/%s", service, key)
	}
	return val, nil
}

func (s *KeyringStore) Set(service, key, value string) error {
	if service == "" || key == "" {
		return curaerr.New(curaerr.CodeSecretInvalidInput, "secret set: service and key must not be empty")
	}

	if err := keyring.Set(service, key, value); err != nil {
		return curaerr.Wrapf(err, curaerr.CodeSecretStoreFailure, "storing secret %s/%s", service, key)
	}
	return nil
}

func (s *KeyringStore) Delete(service, key string) error {
	if service == "" || key == "" {
		return curaerr.New(curaerr.CodeSecretInvalidInput, "secret delete: service and key must not be empty")
	}

	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return curaerr.Errorf(curaerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return curaerr.Wrapf(err, curaerr.CodeSecretStoreFailure, "deleting secret %s/%s", service, key)
	}
	return nil
}
