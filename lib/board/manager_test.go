// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devtrack-foundation/devtrack/lib/apiclient"
	"github.com/devtrack-foundation/devtrack/lib/apitest"
	"github.com/devtrack-foundation/devtrack/lib/clock"
	"github.com/devtrack-foundation/devtrack/lib/schema"
	"github.com/devtrack-foundation/devtrack/lib/session"
	"github.com/devtrack-foundation/devtrack/lib/testutil"
)

// fixture is a project with three tickets, one per column:
// T1 (TODO, assigned to alice), T2 (IN_PROGRESS, assigned to bob), and
// T3 (DONE, unassigned). carol owns the project, alice is a DEV, and
// bob is a VIEWER.
type fixture struct {
	backend   *apitest.Server
	clock     *clock.FakeClock
	carol     schema.User
	alice     schema.User
	bob       schema.User
	projectID int64
	t1        schema.Ticket
	t2        schema.Ticket
	t3        schema.Ticket
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := apitest.New(t)
	carol := backend.AddUser("Carol", "carol@example.test", "pw")
	alice := backend.AddUser("Alice", "alice@example.test", "pw")
	bob := backend.AddUser("Bob", "bob@example.test", "pw")
	projectID := backend.AddProject(carol.ID, "Board")
	backend.AddMember(projectID, alice.ID, schema.RoleDev)
	backend.AddMember(projectID, bob.ID, schema.RoleViewer)

	high := schema.PriorityHigh
	return &fixture{
		backend:   backend,
		clock:     clock.Fake(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)),
		carol:     carol,
		alice:     alice,
		bob:       bob,
		projectID: projectID,
		t1: backend.AddTicket(schema.Ticket{
			Title: "Write the login form", Status: schema.StatusTodo,
			ProjectID: projectID, AssignedToID: &alice.ID, Priority: high,
		}),
		t2: backend.AddTicket(schema.Ticket{
			Title: "Fix the header", Status: schema.StatusInProgress,
			ProjectID: projectID, AssignedToID: &bob.ID,
		}),
		t3: backend.AddTicket(schema.Ticket{
			Title: "Set up CI", Status: schema.StatusDone, ProjectID: projectID,
		}),
	}
}

// board returns a manager signed in as userID, viewing the fixture
// project.
func (f *fixture) board(t *testing.T, userID int64, cache Cache) (*Manager, *session.Session) {
	t.Helper()
	sess := session.New(nil, nil)
	if err := sess.Begin(f.backend.TokenFor(userID), f.backend.URL()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	client, err := apiclient.New(apiclient.Config{BaseURL: f.backend.URL(), Timeout: 5 * time.Second}, sess)
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	manager, err := NewManager(Config{API: client, Clock: f.clock, Cache: cache})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(manager.Close)
	manager.SetProject(f.projectID)
	return manager, sess
}

func statusOf(t *testing.T, manager *Manager, ticketID int64) schema.Status {
	t.Helper()
	ticket, ok := manager.Snapshot().Ticket(ticketID)
	if !ok {
		t.Fatalf("ticket %d not on the board", ticketID)
	}
	return ticket.Status
}

func TestNewManagerRequiresAPI(t *testing.T) {
	if _, err := NewManager(Config{}); err == nil {
		t.Fatal("NewManager without API succeeded")
	}
}

func TestLoadWithoutProject(t *testing.T) {
	f := newFixture(t)
	manager, _ := f.board(t, f.alice.ID, nil)
	manager.SetProject(0)
	if err := manager.LoadTickets(context.Background(), schema.TicketFilter{}); !errors.Is(err, ErrNoProject) {
		t.Fatalf("LoadTickets error = %v, want ErrNoProject", err)
	}
}

func TestLoadGroupsTicketsIntoColumns(t *testing.T) {
	f := newFixture(t)
	manager, _ := f.board(t, f.alice.ID, nil)

	if err := manager.LoadTickets(context.Background(), schema.TicketFilter{}); err != nil {
		t.Fatalf("LoadTickets: %v", err)
	}
	columns := manager.Columns()
	for status, want := range map[schema.Status][]int64{
		schema.StatusTodo:       {f.t1.ID},
		schema.StatusInProgress: {f.t2.ID},
		schema.StatusDone:       {f.t3.ID},
	} {
		if got := ids(columns.Column(status).Tickets); !equalIDs(got, want) {
			t.Errorf("column %s = %v, want %v", status, got, want)
		}
	}
	snapshot := manager.Snapshot()
	if !snapshot.Loaded || snapshot.Stale {
		t.Errorf("Loaded = %v, Stale = %v; want true, false", snapshot.Loaded, snapshot.Stale)
	}
	if !snapshot.FetchedAt.Equal(f.clock.Now()) {
		t.Errorf("FetchedAt = %v, want %v", snapshot.FetchedAt, f.clock.Now())
	}
	if stats := manager.Stats(); stats.Total != 3 || stats.Done != 1 {
		t.Errorf("Stats = %+v", stats)
	}
}

func TestReloadIsIdempotent(t *testing.T) {
	f := newFixture(t)
	manager, _ := f.board(t, f.alice.ID, nil)
	ctx := context.Background()

	if err := manager.LoadTickets(ctx, schema.TicketFilter{}); err != nil {
		t.Fatalf("LoadTickets: %v", err)
	}
	first := ids(manager.Snapshot().Tickets)
	if err := manager.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if second := ids(manager.Snapshot().Tickets); !equalIDs(first, second) {
		t.Errorf("after reload tickets = %v, want %v", second, first)
	}
}

func TestLoadAppliesFilters(t *testing.T) {
	f := newFixture(t)
	manager, _ := f.board(t, f.alice.ID, nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter schema.TicketFilter
		want   []int64
	}{
		{"empty", schema.TicketFilter{}, []int64{f.t1.ID, f.t2.ID, f.t3.ID}},
		{"priority", schema.TicketFilter{Priority: schema.PriorityHigh}, []int64{f.t1.ID}},
		{"status", schema.TicketFilter{Status: schema.StatusDone}, []int64{f.t3.ID}},
		{"search", schema.TicketFilter{Search: "HEADER"}, []int64{f.t2.ID}},
		{"whitespace search", schema.TicketFilter{Search: "   "}, []int64{f.t1.ID, f.t2.ID, f.t3.ID}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if err := manager.LoadTickets(ctx, test.filter); err != nil {
				t.Fatalf("LoadTickets: %v", err)
			}
			got := ids(manager.Snapshot().Tickets)
			if len(got) != len(test.want) {
				t.Fatalf("tickets = %v, want %v", got, test.want)
			}
			for _, id := range test.want {
				if _, ok := manager.Snapshot().Ticket(id); !ok {
					t.Errorf("ticket %d missing from %v", id, got)
				}
			}
		})
	}
}

func TestScheduleLoadDebounces(t *testing.T) {
	f := newFixture(t)
	manager, _ := f.board(t, f.alice.ID, nil)

	manager.ScheduleLoad(schema.TicketFilter{Search: "f"})
	manager.ScheduleLoad(schema.TicketFilter{Search: "fi"})
	manager.ScheduleLoad(schema.TicketFilter{Search: "fix"})

	if got := manager.Snapshot().Filter.Search; got != "fix" {
		t.Errorf("Filter.Search = %q, want %q", got, "fix")
	}

	f.clock.Advance(DefaultDebounce - time.Millisecond)
	if got := f.backend.Requests(apitest.RouteListTickets); got != 0 {
		t.Fatalf("requests before debounce elapsed = %d, want 0", got)
	}

	f.clock.Advance(time.Millisecond)
	if got := f.backend.Requests(apitest.RouteListTickets); got != 1 {
		t.Fatalf("requests after debounce = %d, want 1", got)
	}
	if got, want := ids(manager.Snapshot().Tickets), []int64{f.t2.ID}; !equalIDs(got, want) {
		t.Errorf("tickets = %v, want %v", got, want)
	}

	f.clock.Advance(time.Hour)
	if got := f.backend.Requests(apitest.RouteListTickets); got != 1 {
		t.Errorf("requests after a quiet hour = %d, want 1", got)
	}
}

func TestScheduleLoadCancelledBySetProject(t *testing.T) {
	f := newFixture(t)
	manager, _ := f.board(t, f.alice.ID, nil)

	manager.ScheduleLoad(schema.TicketFilter{Search: "login"})
	manager.SetProject(f.projectID + 1000)
	f.clock.Advance(time.Second)

	if got := f.backend.Requests(apitest.RouteListTickets); got != 0 {
		t.Errorf("requests = %d, want 0", got)
	}
	if f.clock.PendingCount() != 0 {
		t.Errorf("PendingCount = %d, want 0", f.clock.PendingCount())
	}
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	f := newFixture(t)
	manager, _ := f.board(t, f.alice.ID, nil)
	ctx := context.Background()

	hold := f.backend.HoldNext(apitest.RouteListTickets)
	firstDone := make(chan error, 1)
	go func() {
		firstDone <- manager.LoadTickets(ctx, schema.TicketFilter{})
	}()
	testutil.RequireClosed(t, hold.Arrived(), 5*time.Second, "first load never reached the server")

	if err := manager.LoadTickets(ctx, schema.TicketFilter{Status: schema.StatusDone}); err != nil {
		t.Fatalf("second LoadTickets: %v", err)
	}
	hold.Release()

	err := testutil.RequireReceive(t, firstDone, 5*time.Second, "first load never returned")
	if !errors.Is(err, ErrSuperseded) {
		t.Fatalf("first load error = %v, want ErrSuperseded", err)
	}
	if got, want := ids(manager.Snapshot().Tickets), []int64{f.t3.ID}; !equalIDs(got, want) {
		t.Errorf("tickets = %v, want %v (the newer load)", got, want)
	}
}

func TestSetProjectCancelsInFlightLoad(t *testing.T) {
	f := newFixture(t)
	manager, _ := f.board(t, f.alice.ID, nil)

	hold := f.backend.HoldNext(apitest.RouteListTickets)
	done := make(chan error, 1)
	go func() {
		done <- manager.LoadTickets(context.Background(), schema.TicketFilter{})
	}()
	testutil.RequireClosed(t, hold.Arrived(), 5*time.Second, "load never reached the server")

	otherProject := f.backend.AddProject(f.alice.ID, "Other")
	manager.SetProject(otherProject)

	err := testutil.RequireReceive(t, done, 5*time.Second, "cancelled load never returned")
	if !errors.Is(err, ErrSuperseded) {
		t.Fatalf("load error = %v, want ErrSuperseded", err)
	}
	snapshot := manager.Snapshot()
	if snapshot.ProjectID != otherProject || snapshot.Loaded || len(snapshot.Tickets) != 0 {
		t.Errorf("snapshot after switch = %+v", snapshot)
	}
}

func TestStatusChangeToSameColumnSendsNothing(t *testing.T) {
	f := newFixture(t)
	manager, _ := f.board(t, f.alice.ID, nil)
	ctx := context.Background()
	if err := manager.LoadTickets(ctx, schema.TicketFilter{}); err != nil {
		t.Fatalf("LoadTickets: %v", err)
	}

	if err := manager.UpdateTicketStatus(ctx, f.t1.ID, schema.StatusTodo); err != nil {
		t.Fatalf("UpdateTicketStatus: %v", err)
	}
	if got := f.backend.Requests(apitest.RouteUpdateTicket); got != 0 {
		t.Errorf("update requests = %d, want 0", got)
	}
}

func TestStatusChangeRejectsUnknownInput(t *testing.T) {
	f := newFixture(t)
	manager, _ := f.board(t, f.alice.ID, nil)
	ctx := context.Background()
	if err := manager.LoadTickets(ctx, schema.TicketFilter{}); err != nil {
		t.Fatalf("LoadTickets: %v", err)
	}

	var validation *apiclient.ValidationError
	if err := manager.UpdateTicketStatus(ctx, f.t1.ID, "BLOCKED"); !errors.As(err, &validation) {
		t.Errorf("unknown status error = %v, want ValidationError", err)
	}
	if err := manager.UpdateTicketStatus(ctx, 99999, schema.StatusDone); !errors.Is(err, ErrUnknownTicket) {
		t.Errorf("unknown ticket error = %v, want ErrUnknownTicket", err)
	}
	if got := f.backend.Requests(apitest.RouteUpdateTicket); got != 0 {
		t.Errorf("update requests = %d, want 0", got)
	}
}

func TestStatusChangePendingUntilConfirmed(t *testing.T) {
	f := newFixture(t)
	manager, _ := f.board(t, f.alice.ID, nil)
	ctx := context.Background()
	if err := manager.LoadTickets(ctx, schema.TicketFilter{}); err != nil {
		t.Fatalf("LoadTickets: %v", err)
	}

	hold := f.backend.HoldNext(apitest.RouteUpdateTicket)
	done := make(chan error, 1)
	go func() {
		done <- manager.UpdateTicketStatus(ctx, f.t1.ID, schema.StatusDone)
	}()
	testutil.RequireClosed(t, hold.Arrived(), 5*time.Second, "update never reached the server")

	snapshot := manager.Snapshot()
	if pending, ok := snapshot.PendingStatus(f.t1.ID); !ok || pending != schema.StatusDone {
		t.Errorf("PendingStatus = %q, %v; want DONE, true", pending, ok)
	}
	if got := statusOf(t, manager, f.t1.ID); got != schema.StatusTodo {
		t.Errorf("status while pending = %s, want TODO", got)
	}
	if err := manager.UpdateTicketStatus(ctx, f.t1.ID, schema.StatusInProgress); !errors.Is(err, ErrInFlight) {
		t.Errorf("second change while pending = %v, want ErrInFlight", err)
	}

	hold.Release()
	if err := testutil.RequireReceive(t, done, 5*time.Second, "update never returned"); err != nil {
		t.Fatalf("UpdateTicketStatus: %v", err)
	}
	if _, ok := manager.Snapshot().PendingStatus(f.t1.ID); ok {
		t.Error("pending mark survived confirmation")
	}
	if got := statusOf(t, manager, f.t1.ID); got != schema.StatusDone {
		t.Errorf("status after confirmation = %s, want DONE", got)
	}
}

func TestForbiddenStatusChangeReverts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	aliceBoard, _ := f.board(t, f.alice.ID, nil)
	if err := aliceBoard.LoadTickets(ctx, schema.TicketFilter{}); err != nil {
		t.Fatalf("alice LoadTickets: %v", err)
	}
	if err := aliceBoard.UpdateTicketStatus(ctx, f.t1.ID, schema.StatusDone); err != nil {
		t.Fatalf("alice moving T1 to DONE: %v", err)
	}
	if got := aliceBoard.Columns().Column(schema.StatusDone).Tickets; len(got) != 2 {
		t.Errorf("DONE column on alice's board has %d tickets, want 2", len(got))
	}

	bobBoard, _ := f.board(t, f.bob.ID, nil)
	if err := bobBoard.LoadTickets(ctx, schema.TicketFilter{}); err != nil {
		t.Fatalf("bob LoadTickets: %v", err)
	}
	events := bobBoard.Subscribe()

	err := bobBoard.UpdateTicketStatus(ctx, f.t1.ID, schema.StatusInProgress)
	var mutation *MutationError
	if !errors.As(err, &mutation) {
		t.Fatalf("bob's move error = %v, want MutationError", err)
	}
	if !apiclient.IsForbidden(err) {
		t.Errorf("error %v does not wrap ForbiddenError", err)
	}
	if !strings.Contains(mutation.Message, "permission") {
		t.Errorf("Message = %q, want the server's explanation", mutation.Message)
	}

	snapshot := bobBoard.Snapshot()
	if _, ok := snapshot.PendingStatus(f.t1.ID); ok {
		t.Error("pending mark survived rejection")
	}
	if got := statusOf(t, bobBoard, f.t1.ID); got != schema.StatusDone {
		t.Errorf("status after rejection = %s, want DONE", got)
	}
	if stored, _ := f.backend.Ticket(f.t1.ID); stored.Status != schema.StatusDone {
		t.Errorf("server status = %s, want DONE", stored.Status)
	}

	sawPending := 0
	for {
		select {
		case event := <-events:
			if event.Kind == EventPendingChanged {
				sawPending++
			}
			continue
		default:
		}
		break
	}
	if sawPending != 2 {
		t.Errorf("pending events = %d, want 2 (set and cleared)", sawPending)
	}
}

func TestAssigneeMayOnlyChangeStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bobBoard, _ := f.board(t, f.bob.ID, nil)
	if err := bobBoard.LoadTickets(ctx, schema.TicketFilter{}); err != nil {
		t.Fatalf("LoadTickets: %v", err)
	}

	if err := bobBoard.UpdateTicketStatus(ctx, f.t2.ID, schema.StatusDone); err != nil {
		t.Fatalf("assignee moving own ticket: %v", err)
	}
	if got := statusOf(t, bobBoard, f.t2.ID); got != schema.StatusDone {
		t.Errorf("status = %s, want DONE", got)
	}
}

func TestCreateTicket(t *testing.T) {
	f := newFixture(t)
	manager, _ := f.board(t, f.alice.ID, nil)
	ctx := context.Background()
	if err := manager.LoadTickets(ctx, schema.TicketFilter{}); err != nil {
		t.Fatalf("LoadTickets: %v", err)
	}

	blank := "   "
	zero := int64(0)
	created, err := manager.CreateTicket(ctx, schema.TicketDraft{
		Title:        "  Add dark mode  ",
		Description:  &blank,
		AssignedToID: &zero,
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if created.Title != "Add dark mode" {
		t.Errorf("Title = %q, want %q", created.Title, "Add dark mode")
	}
	if created.Description != nil {
		t.Errorf("Description = %q, want nil", *created.Description)
	}
	if created.AssignedToID != nil {
		t.Errorf("AssignedToID = %d, want nil", *created.AssignedToID)
	}
	if created.Status != schema.StatusTodo || created.Priority != schema.PriorityMedium || created.IssueType != schema.IssueTask {
		t.Errorf("defaults = %s/%s/%s", created.Status, created.Priority, created.IssueType)
	}
	if _, ok := manager.Snapshot().Ticket(created.ID); !ok {
		t.Error("created ticket missing after reload")
	}
}

func TestCreateTicketRequiresTitle(t *testing.T) {
	f := newFixture(t)
	manager, _ := f.board(t, f.alice.ID, nil)

	_, err := manager.CreateTicket(context.Background(), schema.TicketDraft{Title: "  "})
	var validation *apiclient.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if validation.Fields["title"] == "" {
		t.Errorf("Fields = %v, want a title entry", validation.Fields)
	}
	if got := f.backend.Requests(apitest.RouteCreateTicket); got != 0 {
		t.Errorf("create requests = %d, want 0", got)
	}
}

func TestCreateTicketForbiddenLeavesList(t *testing.T) {
	f := newFixture(t)
	manager, _ := f.board(t, f.bob.ID, nil)
	ctx := context.Background()
	if err := manager.LoadTickets(ctx, schema.TicketFilter{}); err != nil {
		t.Fatalf("LoadTickets: %v", err)
	}

	_, err := manager.CreateTicket(ctx, schema.TicketDraft{Title: "Sneaky"})
	if !apiclient.IsForbidden(err) {
		t.Fatalf("error = %v, want ForbiddenError", err)
	}
	if got := len(manager.Snapshot().Tickets); got != 3 {
		t.Errorf("tickets = %d, want 3", got)
	}
}

func TestDeleteTicketNeedsConfirmation(t *testing.T) {
	f := newFixture(t)
	manager, _ := f.board(t, f.alice.ID, nil)
	ctx := context.Background()
	if err := manager.LoadTickets(ctx, schema.TicketFilter{}); err != nil {
		t.Fatalf("LoadTickets: %v", err)
	}

	if err := manager.DeleteTicket(ctx, f.t3.ID, false); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("unconfirmed delete error = %v, want ErrNotConfirmed", err)
	}
	if got := f.backend.Requests(apitest.RouteDeleteTicket); got != 0 {
		t.Fatalf("delete requests = %d, want 0", got)
	}

	if err := manager.DeleteTicket(ctx, f.t3.ID, true); err != nil {
		t.Fatalf("DeleteTicket: %v", err)
	}
	if _, ok := manager.Snapshot().Ticket(f.t3.ID); ok {
		t.Error("deleted ticket still on the board")
	}
	if _, ok := f.backend.Ticket(f.t3.ID); ok {
		t.Error("deleted ticket still on the server")
	}
}

func TestViewerDeleteIsForbidden(t *testing.T) {
	f := newFixture(t)
	manager, _ := f.board(t, f.bob.ID, nil)
	ctx := context.Background()
	if err := manager.LoadTickets(ctx, schema.TicketFilter{}); err != nil {
		t.Fatalf("LoadTickets: %v", err)
	}

	err := manager.DeleteTicket(ctx, f.t3.ID, true)
	var mutation *MutationError
	if !errors.As(err, &mutation) || !apiclient.IsForbidden(err) {
		t.Fatalf("error = %v, want forbidden MutationError", err)
	}
	if _, ok := manager.Snapshot().Ticket(f.t3.ID); !ok {
		t.Error("ticket vanished from the board after a rejected delete")
	}
}

func TestUnauthorizedLoadEndsSession(t *testing.T) {
	f := newFixture(t)
	manager, sess := f.board(t, f.alice.ID, nil)
	ctx := context.Background()
	if err := manager.LoadTickets(ctx, schema.TicketFilter{}); err != nil {
		t.Fatalf("LoadTickets: %v", err)
	}

	token, _ := sess.Token()
	f.backend.RevokeToken(token)
	if err := manager.LoadTickets(ctx, schema.TicketFilter{}); !apiclient.IsAuth(err) {
		t.Fatalf("LoadTickets error = %v, want AuthError", err)
	}
	if sess.Authenticated() {
		t.Error("session still authenticated after 401")
	}
	snapshot := manager.Snapshot()
	if snapshot.Loaded || len(snapshot.Tickets) != 0 {
		t.Errorf("snapshot after 401 = %+v, want cleared", snapshot)
	}

	before := f.backend.TotalRequests()
	_, err := manager.CreateTicket(ctx, schema.TicketDraft{Title: "After logout"})
	if !errors.Is(err, apiclient.ErrNotAuthenticated) {
		t.Errorf("CreateTicket error = %v, want ErrNotAuthenticated", err)
	}
	if after := f.backend.TotalRequests(); after != before {
		t.Errorf("requests sent without a session: %d", after-before)
	}
}

func TestServerErrorKeepsList(t *testing.T) {
	f := newFixture(t)
	manager, _ := f.board(t, f.alice.ID, nil)
	ctx := context.Background()
	if err := manager.LoadTickets(ctx, schema.TicketFilter{}); err != nil {
		t.Fatalf("LoadTickets: %v", err)
	}

	f.backend.FailNext(apitest.RouteListTickets, 500, "database unavailable")
	if err := manager.LoadTickets(ctx, schema.TicketFilter{}); err == nil {
		t.Fatal("LoadTickets succeeded against a failing server")
	}
	snapshot := manager.Snapshot()
	if len(snapshot.Tickets) != 3 || snapshot.LastErr == nil {
		t.Errorf("snapshot = %d tickets, LastErr %v; want 3 and an error", len(snapshot.Tickets), snapshot.LastErr)
	}
}

// memoryCache is a Cache backed by a map.
type memoryCache struct {
	mu      sync.Mutex
	entries map[int64]cacheEntry
}

type cacheEntry struct {
	tickets   []schema.Ticket
	fetchedAt time.Time
}

func (cache *memoryCache) Save(_ context.Context, projectID int64, tickets []schema.Ticket, fetchedAt time.Time) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	if cache.entries == nil {
		cache.entries = make(map[int64]cacheEntry)
	}
	cache.entries[projectID] = cacheEntry{tickets: tickets, fetchedAt: fetchedAt}
	return nil
}

func (cache *memoryCache) Load(_ context.Context, projectID int64) ([]schema.Ticket, time.Time, bool, error) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	entry, ok := cache.entries[projectID]
	return entry.tickets, entry.fetchedAt, ok, nil
}

func TestNetworkFailureFallsBackToCache(t *testing.T) {
	f := newFixture(t)
	cache := &memoryCache{}
	ctx := context.Background()

	warm, _ := f.board(t, f.alice.ID, cache)
	if err := warm.LoadTickets(ctx, schema.TicketFilter{}); err != nil {
		t.Fatalf("LoadTickets: %v", err)
	}
	savedAt := f.clock.Now()
	f.clock.Advance(time.Hour)

	cold, _ := f.board(t, f.alice.ID, cache)
	f.backend.Close()

	err := cold.LoadTickets(ctx, schema.TicketFilter{Status: schema.StatusDone})
	if !apiclient.IsNetwork(err) {
		t.Fatalf("LoadTickets error = %v, want NetworkError", err)
	}
	snapshot := cold.Snapshot()
	if !snapshot.Stale || !snapshot.Loaded {
		t.Errorf("Stale = %v, Loaded = %v; want both true", snapshot.Stale, snapshot.Loaded)
	}
	if !snapshot.FetchedAt.Equal(savedAt) {
		t.Errorf("FetchedAt = %v, want %v", snapshot.FetchedAt, savedAt)
	}
	if got, want := ids(snapshot.Tickets), []int64{f.t3.ID}; !equalIDs(got, want) {
		t.Errorf("cached tickets = %v, want %v (filtered locally)", got, want)
	}
}

func TestFilteredLoadsDoNotOverwriteCache(t *testing.T) {
	f := newFixture(t)
	cache := &memoryCache{}
	manager, _ := f.board(t, f.alice.ID, cache)

	if err := manager.LoadTickets(context.Background(), schema.TicketFilter{Status: schema.StatusDone}); err != nil {
		t.Fatalf("LoadTickets: %v", err)
	}
	if _, _, found, _ := cache.Load(context.Background(), f.projectID); found {
		t.Error("filtered load was cached")
	}
}
