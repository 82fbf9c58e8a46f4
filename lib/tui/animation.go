// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"time"
)

// HeatDecayDuration is how long a card glows after it changes. Heat
// starts at 1.0 and decays linearly to 0.0.
const HeatDecayDuration = 3 * time.Second

// HeatTickInterval is the re-render interval while any card is hot.
const HeatTickInterval = 100 * time.Millisecond

// HeatKind selects the glow color.
type HeatKind int

const (
	// HeatPut marks a card that was created or moved.
	HeatPut HeatKind = iota
	// HeatRemove marks a card whose move was rejected and reverted.
	HeatRemove
)

type heatEntry struct {
	ignition time.Time
	kind     HeatKind
}

// HeatTracker records when each ticket last changed so the board can
// tint it for a few seconds.
type HeatTracker struct {
	entries map[int64]heatEntry
}

// NewHeatTracker creates an empty tracker.
func NewHeatTracker() *HeatTracker {
	return &HeatTracker{entries: make(map[int64]heatEntry)}
}

// Ignite marks a ticket as changed at now, restarting its decay.
func (tracker *HeatTracker) Ignite(ticketID int64, kind HeatKind, now time.Time) {
	tracker.entries[ticketID] = heatEntry{ignition: now, kind: kind}
}

// Heat returns the ticket's intensity in [0, 1].
func (tracker *HeatTracker) Heat(ticketID int64, now time.Time) float64 {
	entry, exists := tracker.entries[ticketID]
	if !exists {
		return 0
	}
	elapsed := now.Sub(entry.ignition)
	if elapsed >= HeatDecayDuration || elapsed < 0 {
		return 0
	}
	return 1 - float64(elapsed)/float64(HeatDecayDuration)
}

// Kind returns the heat kind of a ticket. Only meaningful while Heat
// is positive.
func (tracker *HeatTracker) Kind(ticketID int64) HeatKind {
	return tracker.entries[ticketID].kind
}

// HasHot reports whether any ticket still glows, and forgets the ones
// that have cooled.
func (tracker *HeatTracker) HasHot(now time.Time) bool {
	hot := false
	for ticketID, entry := range tracker.entries {
		if now.Sub(entry.ignition) < HeatDecayDuration {
			hot = true
			continue
		}
		delete(tracker.entries, ticketID)
	}
	return hot
}
