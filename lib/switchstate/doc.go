// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package switchstate is the switch agent's model of configuration and
// forwarding state: a copy-on-write tree rooted at [SwitchState].
//
// # Tree shape
//
//	SwitchState
//	├── PortMap ── Port (one per front-panel port)
//	└── QcmConfig (optional, flow monitoring)
//
// Every level is built from lib/node: Port and QcmConfig wrap a value
// record in a node.Node, PortMap wraps a node.Map.
//
// # Writing
//
// Exactly one writer at a time. The writer holds a **SwitchState (the
// root holder) that starts out pointing at the currently published
// root, and calls Modify on whatever it wants to change:
//
//	port, _ := (*holder).Ports().Get(5)
//	writable := port.Modify(holder)
//	writable.Writable().AdminState = switchconfig.PortStateEnabled
//
// Modify returns the node itself while it is still unpublished. For a
// published node it clones the node, forks every ancestor on the path to
// the root, and repoints *holder at the new root. Siblings are shared.
// When the writer is done, [Holder.Publish] freezes the new tree and
// swaps it in atomically. Discarding an unpublished fork cancels the
// update; nothing was ever visible.
//
// Calling Modify on a node that is not reachable from *holder (a node
// from a generation the writer has already moved past) aborts.
//
// # Reading
//
// [Holder.Current] is a lock-free atomic load. A reader may keep the
// returned root as long as it likes; it never changes.
//
// # Persistence
//
// Each entity has a persisted form (PersistedPort, PersistedQcmConfig,
// PersistedSwitchState) whose JSON field names are the warm-restart wire
// contract. The same structs encode to CBOR through lib/codec, which
// reads the json tags. Decoders accept every historical spelling and
// fill fields older agents never wrote; values that would make
// forwarding behavior ambiguous (unknown speed, FEC, admin state) are
// returned as *node.InvariantError.
package switchstate
