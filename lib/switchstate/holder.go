// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package switchstate

import (
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/switchagent/lib/clock"
)

// Snapshot is one published generation of the state tree.
type Snapshot struct {
	State       *SwitchState
	Generation  uint64
	PublishedAt time.Time
}

// Holder owns the current published state of the agent. Readers call
// Current from any goroutine without locking; a single writer calls
// Publish.
type Holder struct {
	clock   clock.Clock
	current atomic.Pointer[Snapshot]
}

// NewHolder returns a Holder whose current state is an empty, published
// tree at generation zero.
func NewHolder(clk clock.Clock) *Holder {
	return NewHolderAt(clk, 0)
}

// NewHolderAt returns a Holder whose empty initial tree carries the
// given generation, so the first Publish produces generation+1. A
// restarted agent passes the last generation it persisted.
func NewHolderAt(clk clock.Clock, generation uint64) *Holder {
	initial := NewSwitchState()
	initial.Publish()
	holder := &Holder{clock: clk}
	holder.current.Store(&Snapshot{State: initial, Generation: generation, PublishedAt: clk.Now()})
	return holder
}

// Current returns the latest published state.
func (h *Holder) Current() *SwitchState {
	return h.current.Load().State
}

// Snapshot returns the latest published generation with its metadata.
func (h *Holder) Snapshot() Snapshot {
	return *h.current.Load()
}

// Publish freezes state and makes it current. It returns the snapshot
// that was current before. Only the single writer may call Publish.
func (h *Holder) Publish(state *SwitchState) (previous Snapshot, published Snapshot) {
	state.Publish()
	old := h.current.Load()
	next := &Snapshot{
		State:       state,
		Generation:  old.Generation + 1,
		PublishedAt: h.clock.Now(),
	}
	h.current.Store(next)
	return *old, *next
}
