// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package statejournal keeps a SQLite record of recently published
// switch-state generations.
//
// Each row holds one generation: when it was published, how many ports
// it had, the payload digest, and the full state as a warm-boot
// envelope. Operators use the journal to inspect what the agent
// programmed a few generations ago and to diff two generations after an
// incident. The agent never restores from the journal on its own; warm
// boot reads only the state file.
//
// A [Journal] implements stateupdate.Journal and is called on the
// writer goroutine after every publish. It prunes itself to the newest
// Keep generations after each insert.
package statejournal
