// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stateupdate

import (
	"sync/atomic"

	"github.com/bureau-foundation/switchagent/lib/switchstate"
)

// DefaultSubscriberBuffer is the channel size used when Subscribe is
// given a non-positive buffer.
const DefaultSubscriberBuffer = 16

// Event is delivered to subscribers after each publish.
type Event struct {
	Generation uint64
	Update     string
	Delta      *switchstate.Delta
}

// Subscription receives published events in generation order. Events
// is closed when the subscription is cancelled or the updater stops.
type Subscription struct {
	// Events receives one Event per published generation unless the
	// buffer overflowed.
	Events <-chan Event

	events chan Event
	resync atomic.Bool
	closed bool
}

// Resync reports whether events were dropped since the last call and
// clears the flag. After a resync the subscriber should diff its last
// applied tree against the holder's current tree instead of trusting
// the event stream.
func (s *Subscription) Resync() bool {
	return s.resync.Swap(false)
}

// Subscribe registers a new subscriber. Call Unsubscribe when done.
func (u *Updater) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	events := make(chan Event, buffer)
	subscription := &Subscription{Events: events, events: events}

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.stopped {
		subscription.closed = true
		close(events)
		return subscription
	}
	u.subscribers[subscription] = struct{}{}
	return subscription
}

// Unsubscribe removes the subscription and closes its Events channel.
// Safe to call more than once.
func (u *Updater) Unsubscribe(subscription *Subscription) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if subscription.closed {
		return
	}
	delete(u.subscribers, subscription)
	subscription.closed = true
	close(subscription.events)
}

func (u *Updater) fanout(event Event) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for subscription := range u.subscribers {
		select {
		case subscription.events <- event:
		default:
			subscription.resync.Store(true)
			u.logger.Warn("subscriber buffer full, marking for resync",
				"generation", event.Generation,
			)
		}
	}
}

func (u *Updater) closeSubscribers() {
	u.mu.Lock()
	defer u.mu.Unlock()
	for subscription := range u.subscribers {
		subscription.closed = true
		close(subscription.events)
	}
	clear(u.subscribers)
	u.stopped = true
}
