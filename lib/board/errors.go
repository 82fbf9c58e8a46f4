// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"errors"
	"fmt"
)

var (
	// ErrNoProject is returned by operations called before SetProject.
	ErrNoProject = errors.New("no project selected")

	// ErrSuperseded is returned by a load whose result was discarded
	// because a newer load was applied or the viewed project changed.
	ErrSuperseded = errors.New("superseded by a newer load")

	// ErrNotConfirmed is returned by destructive operations called
	// without confirmation. No request is sent.
	ErrNotConfirmed = errors.New("not confirmed")

	// ErrUnknownTicket is returned for a ticket not on the board.
	ErrUnknownTicket = errors.New("ticket is not on the board")

	// ErrInFlight is returned when a status change for the same ticket
	// is still waiting for the server.
	ErrInFlight = errors.New("a status change for this ticket is already in flight")
)

// MutationError is a failed board mutation. Message is written for
// display; Err is the underlying API error for errors.As.
type MutationError struct {
	Op       string
	TicketID int64
	Message  string
	Err      error
}

func (e *MutationError) Error() string {
	if e.TicketID != 0 {
		return fmt.Sprintf("%s ticket %d: %s", e.Op, e.TicketID, e.Message)
	}
	return fmt.Sprintf("%s ticket: %s", e.Op, e.Message)
}

func (e *MutationError) Unwrap() error { return e.Err }
