// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stateupdate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/switchagent/lib/clock"
	"github.com/bureau-foundation/switchagent/lib/switchconfig"
	"github.com/bureau-foundation/switchagent/lib/switchstate"
	"github.com/bureau-foundation/switchagent/lib/testutil"
)

type recordingJournal struct {
	mu          sync.Mutex
	generations []uint64
	err         error
}

func (j *recordingJournal) Record(_ context.Context, snapshot switchstate.Snapshot) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.generations = append(j.generations, snapshot.Generation)
	return j.err
}

func (j *recordingJournal) recorded() []uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]uint64(nil), j.generations...)
}

func startUpdater(t *testing.T, config Config) *Updater {
	t.Helper()
	if config.Holder == nil {
		config.Holder = switchstate.NewHolder(clock.Fake(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	}
	updater := New(config)
	ctx, cancel := context.WithCancel(context.Background())
	go updater.Run(ctx)
	t.Cleanup(func() {
		cancel()
		testutil.RequireClosed(t, updater.Done(), 5*time.Second, "updater stopping")
	})
	testutil.RequireClosed(t, updater.Started(), 5*time.Second, "updater running")
	return updater
}

func addPort(id switchstate.PortID, name string) UpdateFunc {
	return func(state **switchstate.SwitchState) error {
		return (*state).Ports().Modify(state).AddPort(switchstate.NewPort(switchstate.NewPortFields(id, name)))
	}
}

func TestSubmitPublishes(t *testing.T) {
	journal := &recordingJournal{}
	updater := startUpdater(t, Config{Journal: journal})
	holder := updater.holder
	initial := holder.Current()

	result, err := updater.Submit(context.Background(), "add port 1", addPort(1, "eth1/1/1"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !result.Published || result.Generation != 1 {
		t.Errorf("result = %+v, want published generation 1", result)
	}

	current := holder.Current()
	if current == initial || !current.Published() {
		t.Fatal("holder did not advance to a published tree")
	}
	if _, ok := current.Port(1); !ok {
		t.Error("port 1 missing from published state")
	}
	if initial.Ports().Len() != 0 {
		t.Error("previous generation was mutated")
	}
	if got := journal.recorded(); len(got) != 1 || got[0] != 1 {
		t.Errorf("journal generations = %v, want [1]", got)
	}
}

func TestFailedUpdatePublishesNothing(t *testing.T) {
	journal := &recordingJournal{}
	updater := startUpdater(t, Config{Journal: journal})
	subscription := updater.Subscribe(4)
	initial := updater.holder.Current()

	sentinel := errors.New("rejected")
	_, err := updater.Submit(context.Background(), "bad update", func(state **switchstate.SwitchState) error {
		port := switchstate.NewPort(switchstate.NewPortFields(7, "eth1/7/1"))
		if err := (*state).Ports().Modify(state).AddPort(port); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Submit error = %v, want wrapped sentinel", err)
	}
	if updater.holder.Current() != initial {
		t.Error("failed update changed the current state")
	}
	if updater.holder.Snapshot().Generation != 0 {
		t.Error("failed update advanced the generation")
	}
	if len(journal.recorded()) != 0 {
		t.Error("failed update was journaled")
	}
	select {
	case event := <-subscription.Events:
		t.Fatalf("unexpected event for generation %d", event.Generation)
	default:
	}
}

func TestNoOpUpdatePublishesNothing(t *testing.T) {
	updater := startUpdater(t, Config{})
	if _, err := updater.Submit(context.Background(), "seed", addPort(1, "eth1/1/1")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	before := updater.holder.Current()

	result, err := updater.Submit(context.Background(), "read only", func(state **switchstate.SwitchState) error {
		if _, ok := (*state).Port(1); !ok {
			return errors.New("port 1 missing")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Published || result.Generation != 1 {
		t.Errorf("result = %+v, want unpublished generation 1", result)
	}
	if updater.holder.Current() != before {
		t.Error("no-op update replaced the current state")
	}
}

func TestSubscribersObserveDeltasInOrder(t *testing.T) {
	updater := startUpdater(t, Config{})
	subscription := updater.Subscribe(8)

	for id := switchstate.PortID(1); id <= 3; id++ {
		if _, err := updater.Submit(context.Background(), "add port", addPort(id, "eth1/"+string(rune('0'+id))+"/1")); err != nil {
			t.Fatalf("add port %d: %v", id, err)
		}
	}
	_, err := updater.Submit(context.Background(), "enable port 2", func(state **switchstate.SwitchState) error {
		port, _ := (*state).Port(2)
		port.Modify(state).Writable().AdminState = switchconfig.PortStateEnabled
		return nil
	})
	if err != nil {
		t.Fatalf("enable port 2: %v", err)
	}

	for generation := uint64(1); generation <= 3; generation++ {
		event := testutil.RequireReceive(t, subscription.Events, 5*time.Second, "waiting for generation %d", generation)
		if event.Generation != generation {
			t.Fatalf("event generation = %d, want %d", event.Generation, generation)
		}
		if len(event.Delta.AddedPorts) != 1 || event.Delta.AddedPorts[0].ID() != switchstate.PortID(generation) {
			t.Errorf("generation %d: added ports = %d", generation, len(event.Delta.AddedPorts))
		}
	}

	event := testutil.RequireReceive(t, subscription.Events, 5*time.Second, "waiting for modify event")
	if event.Update != "enable port 2" {
		t.Errorf("event update = %q", event.Update)
	}
	if len(event.Delta.ChangedPorts) != 1 || event.Delta.ChangedPorts[0].New.ID() != 2 {
		t.Fatalf("changed ports = %+v", event.Delta.ChangedPorts)
	}
	if event.Delta.ChangedPorts[0].Old.Get().AdminState == switchconfig.PortStateEnabled {
		t.Error("old port in delta was mutated")
	}
	if subscription.Resync() {
		t.Error("resync set without overflow")
	}
}

func TestSubscriberOverflowMarksResync(t *testing.T) {
	updater := startUpdater(t, Config{})
	subscription := updater.Subscribe(1)

	for id := switchstate.PortID(1); id <= 3; id++ {
		if _, err := updater.Submit(context.Background(), "add port", addPort(id, "eth1/"+string(rune('0'+id))+"/1")); err != nil {
			t.Fatalf("add port %d: %v", id, err)
		}
	}

	event := testutil.RequireReceive(t, subscription.Events, 5*time.Second, "first event")
	if event.Generation != 1 {
		t.Errorf("buffered event generation = %d, want 1", event.Generation)
	}
	if !subscription.Resync() {
		t.Error("expected resync after overflow")
	}
	if subscription.Resync() {
		t.Error("Resync should clear the flag")
	}
}

func TestJournalErrorDoesNotFailUpdate(t *testing.T) {
	journal := &recordingJournal{err: errors.New("disk full")}
	updater := startUpdater(t, Config{Journal: journal})

	result, err := updater.Submit(context.Background(), "add port", addPort(1, "eth1/1/1"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !result.Published {
		t.Error("update should publish despite journal failure")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	updater := startUpdater(t, Config{})
	subscription := updater.Subscribe(1)
	updater.Unsubscribe(subscription)
	updater.Unsubscribe(subscription)

	if _, ok := <-subscription.Events; ok {
		t.Error("Events should be closed after Unsubscribe")
	}
	if _, err := updater.Submit(context.Background(), "add port", addPort(1, "eth1/1/1")); err != nil {
		t.Fatalf("Submit after unsubscribe: %v", err)
	}
}

func TestSubmitAfterStop(t *testing.T) {
	holder := switchstate.NewHolder(clock.Real())
	updater := New(Config{Holder: holder})
	subscription := updater.Subscribe(1)

	ctx, cancel := context.WithCancel(context.Background())
	go updater.Run(ctx)
	testutil.RequireClosed(t, updater.Started(), 5*time.Second, "updater running")
	cancel()
	testutil.RequireClosed(t, updater.Done(), 5*time.Second, "updater stopping")

	if _, err := updater.Submit(context.Background(), "late", addPort(1, "eth1/1/1")); !errors.Is(err, ErrStopped) {
		t.Errorf("Submit after stop = %v, want ErrStopped", err)
	}
	if _, ok := <-subscription.Events; ok {
		t.Error("subscriber channel should close when the updater stops")
	}
	if _, ok := <-updater.Subscribe(1).Events; ok {
		t.Error("subscription after stop should be closed")
	}
}

func TestSubmitAfterStopNeverBlocks(t *testing.T) {
	for i := range 50 {
		holder := switchstate.NewHolder(clock.Real())
		updater := New(Config{Holder: holder})

		ctx, cancel := context.WithCancel(context.Background())
		go updater.Run(ctx)
		testutil.RequireClosed(t, updater.Started(), 5*time.Second, "updater running")
		cancel()
		testutil.RequireClosed(t, updater.Done(), 5*time.Second, "updater stopping")

		result := make(chan error, 1)
		go func() {
			_, err := updater.Submit(context.Background(), "late", addPort(1, "eth1/1/1"))
			result <- err
		}()
		err := testutil.RequireReceive(t, result, 2*time.Second, "Submit after stop")
		if !errors.Is(err, ErrStopped) {
			t.Fatalf("iteration %d: Submit after stop = %v, want ErrStopped", i, err)
		}
	}
}

func TestUpdateAbortIsNotRecovered(t *testing.T) {
	holder := switchstate.NewHolder(clock.Real())
	updater := New(Config{Holder: holder})

	stale := holder.Current()
	var recovered any
	func() {
		defer func() { recovered = recover() }()
		updater.apply(context.Background(), request{
			name: "stale modify",
			update: func(state **switchstate.SwitchState) error {
				other := stale.Clone()
				other.Modify(state)
				return nil
			},
		})
	}()
	if recovered == nil {
		t.Fatal("stale modify should abort")
	}
	if holder.Current() != stale {
		t.Error("aborted update changed the current state")
	}
}
