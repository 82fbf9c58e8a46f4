// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package board owns the ticket list of the project being viewed and
// everything derived from it: the three status columns, per-status
// totals, and status changes in flight.
//
// A [Manager] is the only writer of its ticket list. Loads replace the
// list wholesale. Every load carries a sequence number and a response
// older than one already applied is discarded, so a slow response for
// an outdated filter never overwrites a newer one. Changing the viewed
// project cancels every outstanding request for the previous one.
//
// Mutations are pessimistic. [Manager.UpdateTicketStatus] records the
// requested status as pending (the card stays in its column, marked in
// flight), sends {status} to the server, and only a confirmed update
// moves the card; a rejected one clears the pending mark so the card
// is shown where it was, and the caller gets a [MutationError] with a
// message to display. Every successful mutation is followed by an
// authoritative reload.
//
// Search, status, and priority filter changes go through
// [Manager.ScheduleLoad], which waits for a quiet period (400ms by
// default) and supersedes any reload still waiting.
//
// When a load fails with a network error before any live data for the
// project has arrived, the manager falls back to the last snapshot in
// its [Cache], marked stale.
package board
