// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hostkey derives the keys that address next-hop objects in
// hardware forwarding tables.
//
// A next hop with no active label operation is keyed by network identity
// alone: VRF, address, and (for IPv6 link-local addresses only) the
// interface the address is scoped to. That is a [Key]. A next hop that
// swaps or pushes MPLS labels is keyed additionally by its label
// semantics, so that two next hops with the same network identity but
// different label operations never share a hardware object. That is a
// [LabeledKey]. [DeriveForwardingKey] chooses between them.
//
// Both variants implement [HostKey] and share one total order, so
// mixed collections sort deterministically: every plain key sorts before
// every labeled key. [Set] is a sorted, deduplicated collection of keys.
package hostkey
