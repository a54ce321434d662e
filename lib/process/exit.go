// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"os"

	"github.com/bureau-foundation/switchagent/lib/node"
)

// ExitInvariant is the exit status used when persisted or in-memory
// state violated a structural invariant. Supervisors use it to tell a
// corrupt state file apart from an ordinary startup failure.
const ExitInvariant = 3

// Fatal writes "error: err" to stderr and exits. The status is
// ExitInvariant for invariant violations, the error's own ExitCode when
// it has one, and 1 otherwise.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(ExitCode(err))
}

// ExitCode maps an error returned by run() to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if node.IsInvariant(err) {
		return ExitInvariant
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}
