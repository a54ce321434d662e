// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stateupdate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/switchagent/lib/switchstate"
)

// DefaultQueueDepth is the request buffer used when Config.QueueDepth
// is zero.
const DefaultQueueDepth = 64

// ErrStopped is returned by Submit once the writer loop has exited.
var ErrStopped = errors.New("state updater stopped")

// UpdateFunc mutates the tree rooted at *state. Nodes must be obtained
// through Modify(state) before they are written. Returning an error
// discards every fork the function made.
type UpdateFunc func(state **switchstate.SwitchState) error

// Journal receives every published generation. Record runs on the
// writer goroutine, so implementations should be quick.
type Journal interface {
	Record(ctx context.Context, snapshot switchstate.Snapshot) error
}

// Config holds the dependencies of an Updater.
type Config struct {
	// Holder is the published-state holder the updater writes to.
	// Required.
	Holder *switchstate.Holder

	// QueueDepth bounds the number of submitted updates waiting for
	// the writer. Zero means DefaultQueueDepth.
	QueueDepth int

	// Journal is optional.
	Journal Journal

	Logger *slog.Logger
}

// Result reports the outcome of a successful update.
type Result struct {
	// Published is false when the update left the tree unchanged.
	Published bool

	// Generation is the generation current after the update.
	Generation uint64
}

type request struct {
	name   string
	update UpdateFunc
	reply  chan response
}

type response struct {
	result Result
	err    error
}

// Updater is the single writer of a Holder.
type Updater struct {
	holder   *switchstate.Holder
	journal  Journal
	logger   *slog.Logger
	requests chan request
	started  chan struct{}
	done     chan struct{}

	mu          sync.Mutex
	subscribers map[*Subscription]struct{}
	stopped     bool
}

// New creates an Updater. Call Run to start the writer loop.
func New(config Config) *Updater {
	if config.Holder == nil {
		panic("stateupdate: Config.Holder is required")
	}
	depth := config.QueueDepth
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Updater{
		holder:      config.Holder,
		journal:     config.Journal,
		logger:      logger,
		requests:    make(chan request, depth),
		started:     make(chan struct{}),
		done:        make(chan struct{}),
		subscribers: make(map[*Subscription]struct{}),
	}
}

// Run processes submitted updates until ctx is cancelled. Updates still
// queued when ctx ends are rejected with ErrStopped.
//
// Must be called exactly once.
func (u *Updater) Run(ctx context.Context) {
	defer close(u.done)
	close(u.started)

	for {
		select {
		case req := <-u.requests:
			req.reply <- u.apply(ctx, req)
		case <-ctx.Done():
			u.drain()
			u.closeSubscribers()
			return
		}
	}
}

// Started is closed once Run has entered its loop.
func (u *Updater) Started() <-chan struct{} {
	return u.started
}

// Done is closed after Run has returned.
func (u *Updater) Done() <-chan struct{} {
	return u.done
}

// Submit queues an update and waits for the writer to apply it. If ctx
// ends after the update was queued, the update may still be applied.
func (u *Updater) Submit(ctx context.Context, name string, update UpdateFunc) (Result, error) {
	select {
	case <-u.done:
		return Result{}, ErrStopped
	default:
	}

	req := request{name: name, update: update, reply: make(chan response, 1)}
	select {
	case u.requests <- req:
	case <-u.done:
		return Result{}, ErrStopped
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	select {
	case resp := <-req.reply:
		return resp.result, resp.err
	case <-u.done:
		// Run may have answered just before returning.
		select {
		case resp := <-req.reply:
			return resp.result, resp.err
		default:
			return Result{}, ErrStopped
		}
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (u *Updater) apply(ctx context.Context, req request) response {
	current := u.holder.Snapshot()
	next := current.State
	if err := req.update(&next); err != nil {
		u.logger.Warn("state update rejected",
			"update", req.name,
			"generation", current.Generation,
			"error", err,
		)
		return response{err: fmt.Errorf("update %q: %w", req.name, err)}
	}
	if next == current.State {
		return response{result: Result{Generation: current.Generation}}
	}

	previous, published := u.holder.Publish(next)
	delta := switchstate.NewDelta(previous.State, published.State)
	u.logger.Debug("state published",
		"update", req.name,
		"generation", published.Generation,
		"added_ports", len(delta.AddedPorts),
		"removed_ports", len(delta.RemovedPorts),
		"changed_ports", len(delta.ChangedPorts),
		"qcm_changed", delta.QcmChanged,
	)

	u.fanout(Event{Generation: published.Generation, Update: req.name, Delta: delta})

	if u.journal != nil {
		if err := u.journal.Record(ctx, published); err != nil {
			u.logger.Error("recording generation in journal failed",
				"generation", published.Generation,
				"error", err,
			)
		}
	}
	return response{result: Result{Published: true, Generation: published.Generation}}
}

// drain rejects requests that were queued but never reached the loop.
func (u *Updater) drain() {
	for {
		select {
		case req := <-u.requests:
			req.reply <- response{err: ErrStopped}
		default:
			return
		}
	}
}
