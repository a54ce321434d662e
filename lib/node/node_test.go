// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package node

import (
	"errors"
	"slices"
	"testing"
)

type counterFields struct {
	id     int
	count  int
	labels []string
}

func (f counterFields) Clone() counterFields {
	f.labels = slices.Clone(f.labels)
	return f
}

func (f counterFields) Equal(other counterFields) bool {
	return f.id == other.id && f.count == other.count && slices.Equal(f.labels, other.labels)
}

type counter struct {
	Node[counterFields]
}

func (c *counter) NodeID() int { return c.Get().id }

func newCounter(id int) *counter {
	return &counter{Node: New(counterFields{id: id})}
}

func requireAbort(t *testing.T, function func()) *InvariantError {
	t.Helper()
	var recovered any
	func() {
		defer func() { recovered = recover() }()
		function()
	}()
	if recovered == nil {
		t.Fatal("expected abort, function returned normally")
	}
	invariantError, ok := recovered.(*InvariantError)
	if !ok {
		t.Fatalf("panic value = %T (%v), want *InvariantError", recovered, recovered)
	}
	return invariantError
}

func TestNodeWritableUntilPublished(t *testing.T) {
	element := newCounter(1)
	element.Writable().count = 5
	if element.Get().count != 5 {
		t.Fatalf("count = %d, want 5", element.Get().count)
	}

	element.Publish()
	if !element.Published() {
		t.Fatal("Published() = false after Publish")
	}
	requireAbort(t, func() { element.Writable() })
}

func TestCloneNodeIsIndependent(t *testing.T) {
	original := newCounter(1)
	original.Writable().labels = []string{"a"}
	original.Publish()

	clone := &counter{Node: original.CloneNode()}
	if clone.Published() {
		t.Fatal("clone is published")
	}
	if !clone.SameFields(&original.Node) {
		t.Fatal("clone fields differ from original")
	}

	clone.Writable().labels[0] = "b"
	if original.Get().labels[0] != "a" {
		t.Errorf("original label = %q after mutating clone, want %q", original.Get().labels[0], "a")
	}
}

func TestMapAddUpdateRemove(t *testing.T) {
	container := NewMap[int, *counter]()
	for _, id := range []int{3, 1, 2} {
		if err := container.Add(newCounter(id)); err != nil {
			t.Fatalf("Add(%d): %v", id, err)
		}
	}

	if err := container.Add(newCounter(2)); !errors.Is(err, ErrExists) {
		t.Errorf("Add duplicate: err = %v, want ErrExists", err)
	}
	if err := container.Update(newCounter(9)); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update missing: err = %v, want ErrNotFound", err)
	}

	replacement := newCounter(2)
	if err := container.Update(replacement); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got, _ := container.Get(2); got != replacement {
		t.Error("Update did not replace the element")
	}

	if got := container.Keys(); !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("Keys() = %v, want [1 2 3]", got)
	}

	if err := container.Remove(1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := container.Remove(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove twice: err = %v, want ErrNotFound", err)
	}
	if container.Len() != 2 {
		t.Errorf("Len() = %d, want 2", container.Len())
	}
}

func TestMapAllIteratesInKeyOrder(t *testing.T) {
	container := NewMap[int, *counter]()
	for _, id := range []int{5, 4, 9, 1} {
		container.Add(newCounter(id))
	}
	var seen []int
	for id, element := range container.All() {
		if element.NodeID() != id {
			t.Errorf("element under %d reports id %d", id, element.NodeID())
		}
		seen = append(seen, id)
	}
	if !slices.Equal(seen, []int{1, 4, 5, 9}) {
		t.Errorf("iteration order = %v, want [1 4 5 9]", seen)
	}
}

func TestMapPublishCascadesToElements(t *testing.T) {
	container := NewMap[int, *counter]()
	first, second := newCounter(1), newCounter(2)
	container.Add(first)
	container.Add(second)

	container.Publish()
	if !first.Published() || !second.Published() {
		t.Fatal("elements not published with their container")
	}

	requireAbort(t, func() { container.Add(newCounter(3)) })
	requireAbort(t, func() { container.Update(newCounter(1)) })
	requireAbort(t, func() { container.Remove(1) })
}

func TestCloneMapSharesElements(t *testing.T) {
	container := NewMap[int, *counter]()
	first, second := newCounter(1), newCounter(2)
	container.Add(first)
	container.Add(second)
	container.Publish()

	clone := container.CloneMap()
	if clone.Published() {
		t.Fatal("cloned map is published")
	}
	replacement := &counter{Node: first.CloneNode()}
	replacement.Writable().count = 7
	if err := clone.Update(replacement); err != nil {
		t.Fatalf("Update on clone: %v", err)
	}

	if got, _ := clone.Get(2); got != second {
		t.Error("untouched element is not shared by reference")
	}
	if got, _ := container.Get(1); got != first {
		t.Error("original container changed after updating the clone")
	}
	if first.Get().count != 0 {
		t.Errorf("original element count = %d, want 0", first.Get().count)
	}
}

func TestMapPublishRejectsChangedID(t *testing.T) {
	var container Map[int, *counter]
	element := newCounter(1)
	if err := container.Add(element); err != nil {
		t.Fatalf("Add: %v", err)
	}
	element.Writable().id = 2

	requireAbort(t, container.Publish)
	if container.Published() {
		t.Error("container published with a mismatched key")
	}
}

func TestIsInvariant(t *testing.T) {
	err := Invariant("decode port", "invalid port speed %q", "WARP")
	if !IsInvariant(err) {
		t.Error("IsInvariant(InvariantError) = false")
	}
	wrapped := errors.Join(errors.New("loading state"), err)
	if !IsInvariant(wrapped) {
		t.Error("IsInvariant(wrapped) = false")
	}
	if IsInvariant(errors.New("plain")) {
		t.Error("IsInvariant(plain error) = true")
	}
	if got := err.Error(); got != `invariant violated: decode port: invalid port speed "WARP"` {
		t.Errorf("Error() = %q", got)
	}
}
