// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package node

import (
	"errors"
	"fmt"
)

var (
	// ErrExists is returned by Map.Add when the key is already present.
	ErrExists = errors.New("node: key already exists")

	// ErrNotFound is returned by Map.Update and Map.Remove when the key
	// is absent.
	ErrNotFound = errors.New("node: key not found")
)

// InvariantError reports a violated state-tree invariant or an
// unrecoverable value in persisted state. Operation names what was being
// done ("modify port", "decode port"), Detail names the offending value.
type InvariantError struct {
	Operation string
	Detail    string
}

func (err *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated: %s: %s", err.Operation, err.Detail)
}

// Invariant builds an InvariantError to be returned as an error value.
func Invariant(operation, format string, args ...any) *InvariantError {
	return &InvariantError{
		Operation: operation,
		Detail:    fmt.Sprintf(format, args...),
	}
}

// Abort panics with an InvariantError. Use it only for programming
// errors in the writer; callers never recover.
func Abort(operation, format string, args ...any) {
	panic(Invariant(operation, format, args...))
}

// IsInvariant reports whether err is, or wraps, an InvariantError.
func IsInvariant(err error) bool {
	var invariantError *InvariantError
	return errors.As(err, &invariantError)
}
