// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// FakeClock is a Clock whose time moves only on Advance. Safe for
// concurrent use.
//
// AfterFunc callbacks run synchronously inside Advance, in deadline
// order (registration order for equal deadlines). A callback may
// register new timers; those fire in the same Advance if their
// deadline is within it. A callback must not call Advance.
type FakeClock struct {
	mu       sync.Mutex
	current  time.Time
	sequence uint64
	pending  []*pendingTimer
	changed  *sync.Cond
}

type pendingTimer struct {
	deadline time.Time
	sequence uint64
	channel  chan time.Time
	callback func()
	done     bool
}

// Fake returns a FakeClock reading initial.
func Fake(initial time.Time) *FakeClock {
	clock := &FakeClock{current: initial}
	clock.changed = sync.NewCond(&clock.mu)
	return clock
}

// Now returns the fake time.
func (clock *FakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.current
}

// After returns a channel that receives when the clock reaches now+d.
func (clock *FakeClock) After(d time.Duration) <-chan time.Time {
	channel := make(chan time.Time, 1)
	clock.mu.Lock()
	defer clock.mu.Unlock()
	if d <= 0 {
		channel <- clock.current
		return channel
	}
	clock.addLocked(&pendingTimer{deadline: clock.current.Add(d), channel: channel})
	return channel
}

// AfterFunc registers f to run when the clock reaches now+d. A
// non-positive d runs f before AfterFunc returns.
func (clock *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{stop: func() bool { return false }}
	}
	clock.mu.Lock()
	defer clock.mu.Unlock()
	timer := &pendingTimer{deadline: clock.current.Add(d), callback: f}
	clock.addLocked(timer)
	return &Timer{stop: func() bool {
		clock.mu.Lock()
		defer clock.mu.Unlock()
		if timer.done {
			return false
		}
		timer.done = true
		clock.removeLocked(timer)
		return true
	}}
}

func (clock *FakeClock) addLocked(timer *pendingTimer) {
	clock.sequence++
	timer.sequence = clock.sequence
	clock.pending = append(clock.pending, timer)
	clock.changed.Broadcast()
}

func (clock *FakeClock) removeLocked(timer *pendingTimer) {
	for index, candidate := range clock.pending {
		if candidate == timer {
			clock.pending = append(clock.pending[:index], clock.pending[index+1:]...)
			return
		}
	}
}

// Advance moves the clock forward by d, firing every timer whose
// deadline is reached.
func (clock *FakeClock) Advance(d time.Duration) {
	clock.mu.Lock()
	target := clock.current.Add(d)
	clock.mu.Unlock()

	for {
		timer := clock.nextDue(target)
		if timer == nil {
			break
		}
		if timer.callback != nil {
			timer.callback()
		} else {
			timer.channel <- timer.deadline
		}
	}

	clock.mu.Lock()
	clock.current = target
	clock.mu.Unlock()
}

// nextDue removes and returns the earliest timer due by target, moving
// the clock to its deadline so callbacks observe the time they were
// scheduled for.
func (clock *FakeClock) nextDue(target time.Time) *pendingTimer {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	sort.SliceStable(clock.pending, func(i, j int) bool {
		left, right := clock.pending[i], clock.pending[j]
		if !left.deadline.Equal(right.deadline) {
			return left.deadline.Before(right.deadline)
		}
		return left.sequence < right.sequence
	})
	if len(clock.pending) == 0 || clock.pending[0].deadline.After(target) {
		return nil
	}
	timer := clock.pending[0]
	clock.pending = clock.pending[1:]
	timer.done = true
	if timer.deadline.After(clock.current) {
		clock.current = timer.deadline
	}
	return timer
}

// WaitForTimers blocks until at least n timers are pending. Use it when
// another goroutine registers the timer the test is about to fire.
func (clock *FakeClock) WaitForTimers(n int) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	for len(clock.pending) < n {
		clock.changed.Wait()
	}
}

// PendingCount returns how many timers have not yet fired or been
// stopped.
func (clock *FakeClock) PendingCount() int {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return len(clock.pending)
}
