// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package store

import "errors"

// Sentinel errors for store operations, checked with errors.Is.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDatabase indicates the underlying store is unavailable or failed
	// unexpectedly. Adapters never retry; retry policy belongs to callers.
	ErrDatabase = errors.New("database error")
)
