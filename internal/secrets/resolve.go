// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package secrets

import (
	"strings"

	curaerr "github.com/curadocs-dev/curadocs/pkg/errors"
)

const keyringScheme = "keyring://"

// IsKeyringURI reports whether value uses the keyring:// URI scheme.
func IsKeyringURI(value string) bool {
	return strings.HasPrefix(value, keyringScheme)
}

// ParseKeyringURI extracts service and key from a keyring://service/key URI.
func ParseKeyringURI(uri string) (service, key string, err error) {
	if !IsKeyringURI(uri) {
		return "", "", curaerr.Errorf(curaerr.CodeSecretInvalidInput, "not a keyring URI: %q", uri)
	}

	path := strings.TrimPrefix(uri, keyringScheme)
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", curaerr.Errorf(curaerr.CodeSecretInvalidInput,
			"invalid keyring URI %q: expected keyring://service/key", uri)
	}

	return parts[0], parts[1], nil
}

// Resolve resolves a keyring:// URI to its secret value. Any other value is
// returned unchanged, so config fields can hold either a literal secret or
// a keyring reference.
func Resolve(store Store, value string) (string, error) {
	if !IsKeyringURI(value) {
		return value, nil
	}

	service, key, err := ParseKeyringURI(value)
	if err != nil {
		return "", err
	}

	secret, err := store.Retrieve(service, key)
	if err != nil {
		return "", curaerr.Wrapf(err, curaerr.CodeSecretResolveFailure, "resolving keyring URI %q", value)
	}

	return secret, nil
}
