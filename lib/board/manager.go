// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/devtrack-foundation/devtrack/lib/apiclient"
	"github.com/devtrack-foundation/devtrack/lib/clock"
	"github.com/devtrack-foundation/devtrack/lib/rolegate"
	"github.com/devtrack-foundation/devtrack/lib/schema"
)

// DefaultDebounce is the quiet period before a scheduled reload runs.
const DefaultDebounce = 400 * time.Millisecond

// API is the part of the DevTrack client the board uses.
// *apiclient.Client implements it.
type API interface {
	ListTickets(ctx context.Context, projectID int64, filter schema.TicketFilter) ([]schema.Ticket, error)
	CreateTicket(ctx context.Context, draft schema.TicketDraft) (schema.Ticket, error)
	UpdateTicket(ctx context.Context, ticketID int64, update schema.TicketUpdate) (schema.Ticket, error)
	DeleteTicket(ctx context.Context, ticketID int64) error
}

// Cache keeps the last ticket list fetched per project.
// *boardcache.Cache implements it.
type Cache interface {
	Save(ctx context.Context, projectID int64, tickets []schema.Ticket, fetchedAt time.Time) error
	Load(ctx context.Context, projectID int64) (tickets []schema.Ticket, fetchedAt time.Time, found bool, err error)
}

// Config configures a Manager.
type Config struct {
	API API

	// Clock schedules debounced reloads. Nil uses the wall clock.
	Clock clock.Clock

	// Debounce is the quiet period for ScheduleLoad. Zero uses
	// DefaultDebounce.
	Debounce time.Duration

	// Cache, when set, receives every unfiltered successful load and
	// serves as the fallback when the first load fails with a network
	// error.
	Cache Cache

	Logger *slog.Logger
}

// EventKind says what changed.
type EventKind int

const (
	// EventProjectChanged: SetProject switched the viewed project.
	EventProjectChanged EventKind = iota
	// EventLoaded: a load replaced the ticket list.
	EventLoaded
	// EventLoadFailed: a load failed; the list is unchanged (or, for
	// a network failure with a cache, replaced by a stale snapshot).
	EventLoadFailed
	// EventPendingChanged: a status change started or finished.
	EventPendingChanged
	// EventFilterChanged: ScheduleLoad recorded a new filter.
	EventFilterChanged
)

func (kind EventKind) String() string {
	switch kind {
	case EventProjectChanged:
		return "project-changed"
	case EventLoaded:
		return "loaded"
	case EventLoadFailed:
		return "load-failed"
	case EventPendingChanged:
		return "pending-changed"
	case EventFilterChanged:
		return "filter-changed"
	}
	return fmt.Sprintf("EventKind(%d)", int(kind))
}

// Event is a change notification. Read the new state with Snapshot.
type Event struct {
	Kind      EventKind
	ProjectID int64
	Err       error
}

// Snapshot is a consistent copy of the manager's state.
type Snapshot struct {
	ProjectID int64

	// Filter is the most recently requested filter; it can be ahead
	// of the list while a scheduled reload is waiting.
	Filter schema.TicketFilter

	Tickets []schema.Ticket

	// Pending maps ticket IDs to the status a change in flight is
	// requesting. The ticket itself still has its confirmed status.
	Pending map[int64]schema.Status

	// Loaded is true once any list (live or cached) has been applied
	// for the project.
	Loaded bool

	// Stale is true when Tickets came from the cache rather than the
	// server.
	Stale     bool
	FetchedAt time.Time

	// LastErr is the error of the most recent failed load, cleared by
	// the next successful one.
	LastErr error
}

// Columns groups the snapshot's tickets by status.
func (snapshot Snapshot) Columns() Columns {
	return GroupByStatus(snapshot.Tickets)
}

// Stats totals the snapshot's tickets by status.
func (snapshot Snapshot) Stats() Stats {
	return CountByStatus(snapshot.Tickets)
}

// PendingStatus returns the status a change in flight for ticketID is
// requesting, if any.
func (snapshot Snapshot) PendingStatus(ticketID int64) (schema.Status, bool) {
	status, ok := snapshot.Pending[ticketID]
	return status, ok
}

// Ticket returns the ticket with the given ID.
func (snapshot Snapshot) Ticket(ticketID int64) (schema.Ticket, bool) {
	for _, ticket := range snapshot.Tickets {
		if ticket.ID == ticketID {
			return ticket, true
		}
	}
	return schema.Ticket{}, false
}

// Manager owns the board state of one viewed project at a time. Safe
// for concurrent use.
type Manager struct {
	api      API
	clock    clock.Clock
	debounce time.Duration
	cache    Cache
	logger   *slog.Logger

	mu            sync.Mutex
	projectID     int64
	projectCtx    context.Context
	projectCancel context.CancelFunc
	filter        schema.TicketFilter
	tickets       []schema.Ticket
	loaded        bool
	live          bool
	stale         bool
	fetchedAt     time.Time
	lastErr       error
	issued        uint64
	applied       uint64
	scheduled     uint64
	timer         *clock.Timer
	pending       map[int64]schema.Status
	subscribers   []chan Event
}

// NewManager creates a Manager with no project selected.
func NewManager(config Config) (*Manager, error) {
	if config.API == nil {
		return nil, fmt.Errorf("board: API is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	projectCtx, projectCancel := context.WithCancel(context.Background())
	return &Manager{
		api:           config.API,
		clock:         config.Clock,
		debounce:      config.Debounce,
		cache:         config.Cache,
		logger:        config.Logger,
		projectCtx:    projectCtx,
		projectCancel: projectCancel,
		pending:       make(map[int64]schema.Status),
	}, nil
}

// Subscribe returns a channel of change events. Events are dropped
// when the channel is full; readers re-read Snapshot on every event.
func (manager *Manager) Subscribe() <-chan Event {
	channel := make(chan Event, 16)
	manager.mu.Lock()
	defer manager.mu.Unlock()
	manager.subscribers = append(manager.subscribers, channel)
	return channel
}

func (manager *Manager) emit(event Event) {
	manager.mu.Lock()
	subscribers := slices.Clone(manager.subscribers)
	manager.mu.Unlock()
	for _, channel := range subscribers {
		select {
		case channel <- event:
		default:
		}
	}
}

// SetProject switches the viewed project. Outstanding requests and any
// scheduled reload for the previous project are cancelled, and the
// list, filter, and pending changes are cleared. Selecting the current
// project again is a no-op.
func (manager *Manager) SetProject(projectID int64) {
	manager.mu.Lock()
	if projectID == manager.projectID {
		manager.mu.Unlock()
		return
	}
	manager.projectCancel()
	manager.projectCtx, manager.projectCancel = context.WithCancel(context.Background())
	manager.stopTimerLocked()
	manager.projectID = projectID
	manager.filter = schema.TicketFilter{}
	manager.tickets = nil
	manager.loaded = false
	manager.live = false
	manager.stale = false
	manager.fetchedAt = time.Time{}
	manager.lastErr = nil
	manager.pending = make(map[int64]schema.Status)
	manager.mu.Unlock()

	manager.logger.Debug("board project changed", "project_id", projectID)
	manager.emit(Event{Kind: EventProjectChanged, ProjectID: projectID})
}

// Close cancels every outstanding request and scheduled reload.
func (manager *Manager) Close() {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	manager.stopTimerLocked()
	manager.projectCancel()
}

func (manager *Manager) stopTimerLocked() {
	manager.scheduled++
	if manager.timer != nil {
		manager.timer.Stop()
		manager.timer = nil
	}
}

// ProjectID returns the viewed project, or 0 before SetProject.
func (manager *Manager) ProjectID() int64 {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	return manager.projectID
}

// Snapshot returns a copy of the current state.
func (manager *Manager) Snapshot() Snapshot {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	return Snapshot{
		ProjectID: manager.projectID,
		Filter:    manager.filter,
		Tickets:   slices.Clone(manager.tickets),
		Pending:   maps.Clone(manager.pending),
		Loaded:    manager.loaded,
		Stale:     manager.stale,
		FetchedAt: manager.fetchedAt,
		LastErr:   manager.lastErr,
	}
}

// Columns groups the current list by status.
func (manager *Manager) Columns() Columns {
	return manager.Snapshot().Columns()
}

// Stats totals the current list by status.
func (manager *Manager) Stats() Stats {
	return manager.Snapshot().Stats()
}

// scope returns a context cancelled when either ctx ends or the viewed
// project changes, along with the project it was taken for.
func (manager *Manager) scope(ctx context.Context) (context.Context, context.CancelFunc, int64, error) {
	manager.mu.Lock()
	projectID := manager.projectID
	projectCtx := manager.projectCtx
	manager.mu.Unlock()
	if projectID == 0 {
		return nil, nil, 0, ErrNoProject
	}
	scoped, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(projectCtx, cancel)
	return scoped, func() {
		stop()
		cancel()
	}, projectID, nil
}

// LoadTickets fetches the viewed project's tickets matching filter and
// replaces the list with them. Returns ErrSuperseded (wrapped) when a
// newer load was applied first or the project changed meanwhile.
func (manager *Manager) LoadTickets(ctx context.Context, filter schema.TicketFilter) error {
	scoped, cancel, projectID, err := manager.scope(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	manager.mu.Lock()
	manager.issued++
	sequence := manager.issued
	manager.filter = filter
	manager.mu.Unlock()

	tickets, err := manager.api.ListTickets(scoped, projectID, filter)

	manager.mu.Lock()
	current := manager.projectID == projectID && sequence > manager.applied
	manager.mu.Unlock()
	if !current {
		manager.logger.Debug("discarding superseded ticket load",
			"project_id", projectID,
			"sequence", sequence,
		)
		return fmt.Errorf("load tickets: %w", ErrSuperseded)
	}

	if err != nil {
		return manager.loadFailed(scoped, projectID, sequence, filter, err)
	}

	manager.mu.Lock()
	if manager.projectID != projectID || sequence <= manager.applied {
		manager.mu.Unlock()
		return fmt.Errorf("load tickets: %w", ErrSuperseded)
	}
	manager.applied = sequence
	manager.tickets = tickets
	manager.loaded = true
	manager.live = true
	manager.stale = false
	manager.fetchedAt = manager.clock.Now()
	manager.lastErr = nil
	fetchedAt := manager.fetchedAt
	manager.mu.Unlock()

	manager.logger.Debug("tickets loaded",
		"project_id", projectID,
		"count", len(tickets),
		"filter", describeFilter(filter),
	)
	if manager.cache != nil && filter.IsZero() {
		if err := manager.cache.Save(scoped, projectID, tickets, fetchedAt); err != nil {
			manager.logger.Warn("saving board snapshot failed", "project_id", projectID, "error", err)
		}
	}
	manager.emit(Event{Kind: EventLoaded, ProjectID: projectID})
	return nil
}

func (manager *Manager) loadFailed(ctx context.Context, projectID int64, sequence uint64, filter schema.TicketFilter, loadErr error) error {
	if errors.Is(loadErr, context.Canceled) {
		return loadErr
	}

	manager.logger.Warn("ticket load failed", "project_id", projectID, "error", loadErr)

	var cached []schema.Ticket
	var cachedAt time.Time
	useCache := false
	if apiclient.IsNetwork(loadErr) && manager.cache != nil {
		manager.mu.Lock()
		live := manager.live
		manager.mu.Unlock()
		if !live {
			tickets, fetchedAt, found, err := manager.cache.Load(ctx, projectID)
			switch {
			case err != nil:
				manager.logger.Warn("reading board snapshot failed", "project_id", projectID, "error", err)
			case found:
				cached, cachedAt, useCache = filterTickets(tickets, filter), fetchedAt, true
			}
		}
	}

	manager.mu.Lock()
	if manager.projectID != projectID || sequence <= manager.applied {
		manager.mu.Unlock()
		return fmt.Errorf("load tickets: %w", ErrSuperseded)
	}
	manager.applied = sequence
	manager.lastErr = loadErr
	switch {
	case apiclient.IsAuth(loadErr):
		manager.tickets = nil
		manager.loaded = false
		manager.live = false
		manager.stale = false
	case useCache:
		manager.tickets = cached
		manager.loaded = true
		manager.stale = true
		manager.fetchedAt = cachedAt
	}
	manager.mu.Unlock()

	if useCache {
		manager.logger.Info("showing cached board", "project_id", projectID, "fetched_at", cachedAt)
	}
	manager.emit(Event{Kind: EventLoadFailed, ProjectID: projectID, Err: loadErr})
	return loadErr
}

func filterTickets(tickets []schema.Ticket, filter schema.TicketFilter) []schema.Ticket {
	if filter.IsZero() {
		return tickets
	}
	matched := make([]schema.Ticket, 0, len(tickets))
	for _, ticket := range tickets {
		if filter.Matches(ticket) {
			matched = append(matched, ticket)
		}
	}
	return matched
}

func describeFilter(filter schema.TicketFilter) string {
	if filter.IsZero() {
		return "none"
	}
	return filter.Query().Encode()
}

// Reload re-fetches with the current filter.
func (manager *Manager) Reload(ctx context.Context) error {
	manager.mu.Lock()
	filter := manager.filter
	manager.mu.Unlock()
	return manager.LoadTickets(ctx, filter)
}

// ScheduleLoad records filter as the requested filter and reloads with
// it after the debounce period, unless another ScheduleLoad (or
// SetProject) comes first. The reload's error is logged, and reported
// to subscribers as EventLoadFailed.
func (manager *Manager) ScheduleLoad(filter schema.TicketFilter) {
	manager.mu.Lock()
	if manager.projectID == 0 {
		manager.mu.Unlock()
		return
	}
	manager.stopTimerLocked()
	manager.filter = filter
	token := manager.scheduled
	projectID := manager.projectID
	projectCtx := manager.projectCtx
	manager.timer = manager.clock.AfterFunc(manager.debounce, func() {
		manager.mu.Lock()
		if token != manager.scheduled {
			manager.mu.Unlock()
			return
		}
		manager.timer = nil
		manager.mu.Unlock()

		err := manager.LoadTickets(projectCtx, filter)
		if err != nil && !errors.Is(err, ErrSuperseded) && !errors.Is(err, context.Canceled) {
			manager.logger.Debug("scheduled reload failed", "project_id", projectID, "error", err)
		}
	})
	manager.mu.Unlock()
	manager.emit(Event{Kind: EventFilterChanged, ProjectID: projectID})
}

// CreateTicket creates a ticket in the viewed project and reloads. The
// title is required; blank optional fields are sent as null. On
// failure the list is untouched.
func (manager *Manager) CreateTicket(ctx context.Context, draft schema.TicketDraft) (schema.Ticket, error) {
	scoped, cancel, projectID, err := manager.scope(ctx)
	if err != nil {
		return schema.Ticket{}, err
	}
	defer cancel()

	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		return schema.Ticket{}, &MutationError{
			Op:      "create",
			Message: "A title is required.",
			Err:     &apiclient.ValidationError{Detail: "title is required", Fields: map[string]string{"title": "required"}},
		}
	}
	draft.ProjectID = projectID
	if draft.Description != nil && strings.TrimSpace(*draft.Description) == "" {
		draft.Description = nil
	}
	if draft.AssignedToID != nil && *draft.AssignedToID == 0 {
		draft.AssignedToID = nil
	}
	if draft.IssueType == "" {
		draft.IssueType = schema.IssueTask
	}
	if draft.Priority == "" {
		draft.Priority = schema.PriorityMedium
	}

	ticket, err := manager.api.CreateTicket(scoped, draft)
	if err != nil {
		manager.logger.Warn("create ticket failed", "project_id", projectID, "error", err)
		return schema.Ticket{}, &MutationError{Op: "create", Message: mutationMessage(err, rolegate.ActionCreateTicket), Err: err}
	}
	manager.logger.Info("ticket created", "project_id", projectID, "ticket_id", ticket.ID)
	manager.reloadAfterMutation(scoped, projectID)
	return ticket, nil
}

// UpdateTicketStatus moves a ticket to status. Moving to the column the
// ticket is already in succeeds without a request. While the request
// is in flight the snapshot reports the target as pending; the ticket
// moves only once the server confirms, and a rejection clears the
// pending mark and returns a MutationError explaining why.
//
// The role gate is not consulted here: the server is the authority,
// and callers use rolegate to decide whether to offer the move.
func (manager *Manager) UpdateTicketStatus(ctx context.Context, ticketID int64, status schema.Status) error {
	if !status.IsKnown() {
		return &MutationError{
			Op:       "move",
			TicketID: ticketID,
			Message:  fmt.Sprintf("%q is not a ticket status.", status),
			Err:      &apiclient.ValidationError{Detail: "unknown status", Fields: map[string]string{"status": string(status)}},
		}
	}
	scoped, cancel, projectID, err := manager.scope(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	manager.mu.Lock()
	var current schema.Ticket
	found := false
	for _, ticket := range manager.tickets {
		if ticket.ID == ticketID {
			current, found = ticket, true
			break
		}
	}
	if !found {
		manager.mu.Unlock()
		return fmt.Errorf("move ticket %d: %w", ticketID, ErrUnknownTicket)
	}
	if current.Status == status {
		manager.mu.Unlock()
		return nil
	}
	if _, inFlight := manager.pending[ticketID]; inFlight {
		manager.mu.Unlock()
		return fmt.Errorf("move ticket %d: %w", ticketID, ErrInFlight)
	}
	manager.pending[ticketID] = status
	manager.mu.Unlock()
	manager.emit(Event{Kind: EventPendingChanged, ProjectID: projectID})

	updated, err := manager.api.UpdateTicket(scoped, ticketID, schema.TicketUpdate{Status: &status})
	if err != nil {
		manager.clearPending(projectID, ticketID)
		manager.logger.Warn("status change rejected",
			"project_id", projectID,
			"ticket_id", ticketID,
			"from", current.Status,
			"to", status,
			"error", err,
		)
		return &MutationError{
			Op:       "move",
			TicketID: ticketID,
			Message:  mutationMessage(err, rolegate.ActionChangeStatus) + fmt.Sprintf(" The ticket stays in %s.", current.Status.Label()),
			Err:      err,
		}
	}

	manager.mu.Lock()
	if manager.projectID == projectID {
		for index := range manager.tickets {
			if manager.tickets[index].ID == ticketID {
				manager.tickets[index] = updated
				break
			}
		}
	}
	manager.mu.Unlock()
	manager.clearPending(projectID, ticketID)

	manager.logger.Info("ticket moved",
		"project_id", projectID,
		"ticket_id", ticketID,
		"from", current.Status,
		"to", status,
	)
	manager.reloadAfterMutation(scoped, projectID)
	return nil
}

func (manager *Manager) clearPending(projectID, ticketID int64) {
	manager.mu.Lock()
	if manager.projectID == projectID {
		delete(manager.pending, ticketID)
	}
	manager.mu.Unlock()
	manager.emit(Event{Kind: EventPendingChanged, ProjectID: projectID})
}

// DeleteTicket deletes a ticket and reloads. Without confirm it returns
// ErrNotConfirmed and sends nothing.
func (manager *Manager) DeleteTicket(ctx context.Context, ticketID int64, confirm bool) error {
	if !confirm {
		return fmt.Errorf("delete ticket %d: %w", ticketID, ErrNotConfirmed)
	}
	scoped, cancel, projectID, err := manager.scope(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	if err := manager.api.DeleteTicket(scoped, ticketID); err != nil {
		manager.logger.Warn("delete ticket failed", "project_id", projectID, "ticket_id", ticketID, "error", err)
		return &MutationError{Op: "delete", TicketID: ticketID, Message: mutationMessage(err, rolegate.ActionDeleteTicket), Err: err}
	}
	manager.logger.Info("ticket deleted", "project_id", projectID, "ticket_id", ticketID)
	manager.reloadAfterMutation(scoped, projectID)
	return nil
}

// reloadAfterMutation runs the authoritative reload that follows every
// successful mutation. Its failure does not fail the mutation.
func (manager *Manager) reloadAfterMutation(ctx context.Context, projectID int64) {
	if err := manager.Reload(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		manager.logger.Warn("reload after mutation failed", "project_id", projectID, "error", err)
	}
}

// mutationMessage turns an API error into text for the user.
func mutationMessage(err error, action rolegate.Action) string {
	var (
		forbidden  *apiclient.ForbiddenError
		validation *apiclient.ValidationError
		notFound   *apiclient.NotFoundError
	)
	switch {
	case errors.As(err, &forbidden):
		if forbidden.Detail != "" {
			return ensureSentence(forbidden.Detail)
		}
		return "Insufficient role: " + rolegate.ForbiddenMessage(action, "")
	case errors.As(err, &validation):
		return ensureSentence(apiclient.Detail(err))
	case errors.As(err, &notFound):
		return "The ticket no longer exists."
	case apiclient.IsAuth(err):
		return "Your session has ended; sign in again."
	case apiclient.IsNetwork(err):
		return "Could not reach the server."
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	}
	return "The server could not complete the request."
}

func ensureSentence(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}
	switch text[len(text)-1] {
	case '.', '!', '?':
		return text
	}
	return text + "."
}
