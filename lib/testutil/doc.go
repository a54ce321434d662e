// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for switch agent
// packages.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so that tests of the
// update executor and the snapshot loop do not need direct time.After
// calls. These are the only place in the test suite where real
// wall-clock timeouts are used; everything else runs on a fake clock.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no switch agent dependencies.
package testutil
