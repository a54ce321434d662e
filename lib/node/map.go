// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package node

import (
	"cmp"
	"fmt"
	"iter"
	"maps"
	"slices"
)

// Element is what a Map holds: a node pointer that knows its own key
// and can be published.
type Element[K cmp.Ordered] interface {
	comparable
	NodeID() K
	Published() bool
	Publish()
}

// Map is a versioned, key-unique container of nodes. Iteration is in
// ascending key order regardless of insertion order.
//
// Like Node, Map is embedded by value in a concrete container type that
// adds its own Modify.
type Map[K cmp.Ordered, V Element[K]] struct {
	elements  map[K]V
	published bool
}

// NewMap returns an empty unpublished Map.
func NewMap[K cmp.Ordered, V Element[K]]() Map[K, V] {
	return Map[K, V]{elements: make(map[K]V)}
}

// Get returns the element stored under id.
func (m *Map[K, V]) Get(id K) (V, bool) {
	element, ok := m.elements[id]
	return element, ok
}

// Len returns the number of elements.
func (m *Map[K, V]) Len() int {
	return len(m.elements)
}

// Keys returns the keys in ascending order.
func (m *Map[K, V]) Keys() []K {
	return slices.Sorted(maps.Keys(m.elements))
}

// All iterates over the elements in ascending key order.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, id := range m.Keys() {
			if !yield(id, m.elements[id]) {
				return
			}
		}
	}
}

// Add inserts a new element. The key must not already be present.
func (m *Map[K, V]) Add(element V) error {
	m.requireWritable("add element")
	id := element.NodeID()
	if _, exists := m.elements[id]; exists {
		return fmt.Errorf("adding %v: %w", id, ErrExists)
	}
	if m.elements == nil {
		m.elements = make(map[K]V)
	}
	m.elements[id] = element
	return nil
}

// Update replaces the element stored under element.NodeID(). The key
// must already be present; inserting is Add's job.
func (m *Map[K, V]) Update(element V) error {
	m.requireWritable("update element")
	id := element.NodeID()
	if _, exists := m.elements[id]; !exists {
		return fmt.Errorf("updating %v: %w", id, ErrNotFound)
	}
	m.elements[id] = element
	return nil
}

// Remove deletes the element stored under id.
func (m *Map[K, V]) Remove(id K) error {
	m.requireWritable("remove element")
	if _, exists := m.elements[id]; !exists {
		return fmt.Errorf("removing %v: %w", id, ErrNotFound)
	}
	delete(m.elements, id)
	return nil
}

// Published reports whether the container is part of a published tree.
func (m *Map[K, V]) Published() bool {
	return m.published
}

// Publish freezes the container and every element in it. An element
// whose NodeID no longer matches the key it is stored under aborts.
func (m *Map[K, V]) Publish() {
	if m.published {
		return
	}
	for id, element := range m.elements {
		if got := element.NodeID(); got != id {
			Abort("publish container", "element stored under %v reports id %v", id, got)
		}
		element.Publish()
	}
	m.published = true
}

// CloneMap returns an unpublished container holding the same element
// pointers. Elements are shared, not copied.
func (m *Map[K, V]) CloneMap() Map[K, V] {
	return Map[K, V]{elements: maps.Clone(m.elements)}
}

func (m *Map[K, V]) requireWritable(operation string) {
	if m.published {
		Abort(operation, "container is published; fork it with Modify first")
	}
}
