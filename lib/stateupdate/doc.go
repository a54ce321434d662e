// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package stateupdate serializes every mutation of the switch state
// through one writer goroutine.
//
// Callers describe a change as an [UpdateFunc] and hand it to
// [Updater.Submit]. The writer loop hands the function a pointer to the
// current root, lets it fork and mutate whatever it needs through the
// Modify cascade, and then publishes the result as the next generation.
// Readers never lock: they call [switchstate.Holder.Current] and get a
// frozen tree.
//
// An update that returns an error leaves nothing behind. Its forked
// nodes were never published and nobody else holds them. An update that
// leaves the root pointer untouched publishes nothing and does not
// advance the generation.
//
// After each publish the updater fans an [Event] out to subscribers and
// records the generation in the optional [Journal]. Fanout never blocks
// the writer: a subscriber whose buffer is full is marked for resync and
// must compare its last applied state against the holder's current one.
//
// Invariant violations raised inside an update (node.Abort panics) are
// not recovered. The process restarts from the last warm-boot file.
package stateupdate
