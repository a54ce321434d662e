// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"

	"github.com/bureau-foundation/switchagent/lib/testutil"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClockNow(t *testing.T) {
	clock := Fake(epoch)
	if !clock.Now().Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", clock.Now(), epoch)
	}
	clock.Advance(90 * time.Second)
	if want := epoch.Add(90 * time.Second); !clock.Now().Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", clock.Now(), want)
	}
}

func TestFakeClockTickerFiresOnAdvance(t *testing.T) {
	clock := Fake(epoch)
	ticker := clock.NewTicker(time.Minute)
	defer ticker.Stop()

	clock.Advance(59 * time.Second)
	select {
	case <-ticker.C:
		t.Fatal("ticker fired before its interval elapsed")
	default:
	}

	clock.Advance(time.Second)
	tick := testutil.RequireReceive(t, ticker.C, time.Second, "waiting for tick")
	if !tick.Equal(epoch.Add(time.Minute)) {
		t.Errorf("tick = %v, want %v", tick, epoch.Add(time.Minute))
	}
}

func TestFakeClockTickerDropsTicks(t *testing.T) {
	clock := Fake(epoch)
	ticker := clock.NewTicker(time.Second)
	defer ticker.Stop()

	clock.Advance(5 * time.Second)
	testutil.RequireReceive(t, ticker.C, time.Second, "waiting for first tick")
	select {
	case <-ticker.C:
		t.Fatal("ticker queued more than one tick")
	default:
	}

	// The schedule kept advancing while ticks were dropped.
	clock.Advance(time.Second)
	tick := testutil.RequireReceive(t, ticker.C, time.Second, "waiting for next tick")
	if !tick.Equal(epoch.Add(6 * time.Second)) {
		t.Errorf("tick = %v, want %v", tick, epoch.Add(6*time.Second))
	}
}

func TestFakeClockTickerStop(t *testing.T) {
	clock := Fake(epoch)
	ticker := clock.NewTicker(time.Second)
	ticker.Stop()

	clock.Advance(10 * time.Second)
	select {
	case <-ticker.C:
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestFakeClockTickerPanicsOnNonPositive(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewTicker(0) did not panic")
		}
	}()
	Fake(epoch).NewTicker(0)
}

func TestFakeClockWaitForTimers(t *testing.T) {
	clock := Fake(epoch)
	registered := make(chan struct{})
	go func() {
		clock.WaitForTimers(1)
		close(registered)
	}()

	ticker := clock.NewTicker(time.Second)
	defer ticker.Stop()
	testutil.RequireClosed(t, registered, time.Second, "WaitForTimers did not return")
}

func TestClocksImplementClock(t *testing.T) {
	var _ Clock = Fake(epoch)
	var _ Clock = Real()
}
