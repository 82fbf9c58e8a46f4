// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock lets DevTrack components that schedule work (the
// debounced board reload, cache freshness stamps) take time as an
// injected dependency.
//
// Production code passes [Real]. Tests pass [Fake], whose time moves
// only when the test calls [FakeClock.Advance]:
//
//	fake := clock.Fake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
//	manager := board.NewManager(board.Config{Clock: fake, ...})
//	manager.ScheduleLoad(filter)
//	fake.WaitForTimers(1)
//	fake.Advance(400 * time.Millisecond) // the reload runs here
package clock
