// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package node provides the copy-on-write building blocks of the switch
// state tree.
//
// A [Node] wraps a value record (the attributes of one entity: a port,
// the flow-monitor config, the root itself) together with a published
// flag. A node starts unpublished and may be mutated freely by the
// single writer that created it. Once the tree containing it is
// published it is frozen: every later change happens on a clone, and
// the clone replaces the original in a forked copy of each ancestor up
// to the root. Siblings that were not touched are shared by reference
// between the old and new generations, so a reader holding the old
// root keeps a complete, self-consistent view without any locking.
//
// A [Map] is the ordered container: a keyed set of nodes that is itself
// versioned. Cloning a Map copies its index but not its elements.
//
// The package does not know the shape of the tree. Each entity type
// implements its own Modify by walking the explicit path from the root
// holder down to itself (see lib/switchstate); there are no parent
// pointers.
//
// # Failure classes
//
// Violating the publish discipline (writing through a published node,
// modifying off a superseded generation) is a programming error, not a
// runtime condition. [Abort] panics with an [*InvariantError]; nothing
// recovers it. Decoders that meet forwarding-affecting garbage in
// persisted state return an [*InvariantError] as an ordinary error so
// the caller can report the offending field before terminating; use
// [IsInvariant] to recognize it.
//
// This package depends on no other packages in this module.
package node
