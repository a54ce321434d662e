// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package node

// Fields is the capability a value record provides to Node: an
// independent deep copy and value equality. F is the record type itself.
type Fields[F any] interface {
	Clone() F
	Equal(other F) bool
}

// Node wraps a value record with a published flag. The zero Node holds
// the zero record and is unpublished.
//
// Node is meant to be embedded by value in an entity type:
//
//	type Port struct {
//	    node.Node[PortFields]
//	}
//
// The published flag is written only by the single writer, and only
// before the tree is handed to readers through an atomic pointer swap,
// so readers never race with it.
type Node[F Fields[F]] struct {
	fields    F
	published bool
}

// New returns an unpublished Node holding fields.
func New[F Fields[F]](fields F) Node[F] {
	return Node[F]{fields: fields}
}

// Get returns a read-only pointer to the record. Callers must not write
// through it; use Writable for that.
func (n *Node[F]) Get() *F {
	return &n.fields
}

// Writable returns a pointer through which the record may be mutated.
// It aborts if the node has been published.
func (n *Node[F]) Writable() *F {
	if n.published {
		Abort("write node", "record is published; fork it with Modify first")
	}
	return &n.fields
}

// Published reports whether the node is part of a published tree.
func (n *Node[F]) Published() bool {
	return n.published
}

// Publish freezes the node. Publishing an already-published node is a
// no-op and does not write: shared subtrees of a new generation are
// republished while readers of the old one are looking at them.
func (n *Node[F]) Publish() {
	if !n.published {
		n.published = true
	}
}

// CloneNode returns an unpublished Node holding a deep copy of the
// record.
func (n *Node[F]) CloneNode() Node[F] {
	return Node[F]{fields: n.fields.Clone()}
}

// SameFields reports whether two nodes hold value-equal records.
func (n *Node[F]) SameFields(other *Node[F]) bool {
	return n.fields.Equal(other.fields)
}
