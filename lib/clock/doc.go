// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Components that timestamp state or act periodically accept a Clock
// instead of calling time.Now or time.NewTicker directly. In production,
// Real() provides the standard library behavior. In tests, Fake()
// provides a clock that advances only when Advance is called:
//
//	fakeClock := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	agent := newAgent(fakeClock)
//	go agent.run(ctx)
//	fakeClock.WaitForTimers(1)          // the snapshot ticker exists
//	fakeClock.Advance(5 * time.Minute)  // fire it deterministically
package clock
