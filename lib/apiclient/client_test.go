// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/devtrack-foundation/devtrack/lib/apitest"
	"github.com/devtrack-foundation/devtrack/lib/schema"
	"github.com/devtrack-foundation/devtrack/lib/session"
	"github.com/devtrack-foundation/devtrack/lib/testutil"
)

func newTestClient(t *testing.T, baseURL string) (*Client, *session.Session) {
	t.Helper()
	sess := session.New(&session.MemoryStore{}, nil)
	client, err := New(Config{BaseURL: baseURL}, sess)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client, sess
}

// signedIn returns a client whose session holds a valid token for
// userID on backend.
func signedIn(t *testing.T, backend *apitest.Server, userID int64) (*Client, *session.Session) {
	t.Helper()
	client, sess := newTestClient(t, backend.URL())
	if err := sess.Begin(backend.TokenFor(userID), backend.URL()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	return client, sess
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	sess := session.New(nil, nil)
	for _, baseURL := range []string{"", "ftp://devtrack.test", "://"} {
		if _, err := New(Config{BaseURL: baseURL}, sess); err == nil {
			t.Errorf("New(%q) succeeded", baseURL)
		}
	}
}

func TestLoginStoresTokenAndResolvesUser(t *testing.T) {
	backend := apitest.New(t)
	alice := backend.AddUser("Alice", "alice@example.test", "secret")
	client, sess := newTestClient(t, backend.URL())

	user, err := client.Login(context.Background(), schema.Credentials{Email: "alice@example.test", Password: "secret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != alice.ID {
		t.Errorf("Login user ID = %d, want %d", user.ID, alice.ID)
	}
	if !sess.Authenticated() {
		t.Fatal("session not authenticated after Login")
	}
	current, ok := sess.CurrentUser()
	if !ok || current.Email != "alice@example.test" {
		t.Errorf("CurrentUser() = %+v, %v", current, ok)
	}
}

func TestLoginWrongPasswordKeepsExistingSession(t *testing.T) {
	backend := apitest.New(t)
	alice := backend.AddUser("Alice", "alice@example.test", "secret")
	client, sess := signedIn(t, backend, alice.ID)

	_, err := client.Login(context.Background(), schema.Credentials{Email: "alice@example.test", Password: "wrong"})
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Login error = %v, want AuthError", err)
	}
	if authErr.Detail != "Invalid credentials" {
		t.Errorf("Detail = %q, want %q", authErr.Detail, "Invalid credentials")
	}
	if !sess.Authenticated() {
		t.Error("failed login cleared the existing session")
	}
}

func TestRegisterThenDuplicate(t *testing.T) {
	backend := apitest.New(t)
	client, _ := newTestClient(t, backend.URL())
	registration := schema.Registration{Name: "Bob", Email: "bob@example.test", Password: "pw"}

	if err := client.Register(context.Background(), registration); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := client.Register(context.Background(), registration)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("second Register error = %v, want ValidationError", err)
	}
	if validation.Detail != "Email already registered" {
		t.Errorf("Detail = %q", validation.Detail)
	}
}

// A protected call without a token must fail before reaching the wire.
func TestProtectedCallWithoutTokenSendsNothing(t *testing.T) {
	backend := apitest.New(t)
	client, _ := newTestClient(t, backend.URL())

	_, err := client.ListProjects(context.Background())
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("ListProjects error = %v, want ErrNotAuthenticated", err)
	}
	if !IsAuth(err) {
		t.Error("ErrNotAuthenticated is not an AuthError")
	}
	if got := backend.TotalRequests(); got != 0 {
		t.Errorf("requests sent = %d, want 0", got)
	}
}

// After a 401 the session is gone and the next mutation fails fast.
// A user resolved for a token that has since been replaced must not
// become the new session's identity.
func TestMeAfterSessionChangeIsNotRecorded(t *testing.T) {
	backend := apitest.New(t)
	alice := backend.AddUser("Alice", "alice@example.test", "secret")
	bob := backend.AddUser("Bob", "bob@example.test", "secret")
	client, sess := signedIn(t, backend, alice.ID)

	hold := backend.HoldNext(apitest.RouteMe)
	type result struct {
		user schema.User
		err  error
	}
	done := make(chan result, 1)
	go func() {
		user, err := client.Me(context.Background())
		done <- result{user: user, err: err}
	}()
	testutil.RequireClosed(t, hold.Arrived(), 5*time.Second, "me request never reached the server")

	if err := sess.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := sess.Begin(backend.TokenFor(bob.ID), backend.URL()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	hold.Release()

	resolved := testutil.RequireReceive(t, done, 5*time.Second, "me request never returned")
	if resolved.err != nil {
		t.Fatalf("Me: %v", resolved.err)
	}
	if resolved.user.ID != alice.ID {
		t.Errorf("Me user ID = %d, want %d", resolved.user.ID, alice.ID)
	}
	if current, ok := sess.CurrentUser(); ok {
		t.Errorf("CurrentUser = %+v, want unknown until bob is resolved", current)
	}
}

func TestUnauthorizedInvalidatesSession(t *testing.T) {
	backend := apitest.New(t)
	alice := backend.AddUser("Alice", "alice@example.test", "secret")
	projectID := backend.AddProject(alice.ID, "Apollo")
	client, sess := newTestClient(t, backend.URL())
	token := backend.TokenFor(alice.ID)
	if err := sess.Begin(token, backend.URL()); err != nil {
		t.Fatal(err)
	}
	notices := sess.Subscribe()
	backend.RevokeToken(token)

	_, err := client.ListTickets(context.Background(), projectID, schema.TicketFilter{})
	if !IsAuth(err) {
		t.Fatalf("ListTickets error = %v, want AuthError", err)
	}
	if sess.Authenticated() {
		t.Fatal("session still authenticated after 401")
	}
	select {
	case notice := <-notices:
		if notice.Reason != "Invalid Token" {
			t.Errorf("notice reason = %q, want %q", notice.Reason, "Invalid Token")
		}
	default:
		t.Error("no invalidation notice delivered")
	}

	before := backend.TotalRequests()
	_, err = client.CreateTicket(context.Background(), schema.TicketDraft{Title: "x", ProjectID: projectID})
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("CreateTicket error = %v, want ErrNotAuthenticated", err)
	}
	if got := backend.TotalRequests(); got != before {
		t.Errorf("CreateTicket sent %d requests, want 0", got-before)
	}
}

func TestForbiddenCarriesServerDetail(t *testing.T) {
	backend := apitest.New(t)
	alice := backend.AddUser("Alice", "alice@example.test", "a")
	bob := backend.AddUser("Bob", "bob@example.test", "b")
	projectID := backend.AddProject(alice.ID, "Apollo")
	backend.AddMember(projectID, bob.ID, schema.RoleViewer)
	client, _ := signedIn(t, backend, bob.ID)

	_, err := client.CreateTicket(context.Background(), schema.TicketDraft{Title: "Fix login", ProjectID: projectID})
	var forbidden *ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("CreateTicket error = %v, want ForbiddenError", err)
	}
	want := "You do not have permission to create tickets in this project."
	if forbidden.Detail != want {
		t.Errorf("Detail = %q, want %q", forbidden.Detail, want)
	}
	if got := Detail(err); got != want {
		t.Errorf("Detail(err) = %q, want %q", got, want)
	}
}

func TestCreateTicketRequiresTitle(t *testing.T) {
	backend := apitest.New(t)
	alice := backend.AddUser("Alice", "alice@example.test", "a")
	projectID := backend.AddProject(alice.ID, "Apollo")
	client, _ := signedIn(t, backend, alice.ID)

	_, err := client.CreateTicket(context.Background(), schema.TicketDraft{Title: "   ", ProjectID: projectID})
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if validation.Fields["title"] == "" {
		t.Error("no title field message")
	}
	if got := backend.Requests(apitest.RouteCreateTicket); got != 0 {
		t.Errorf("create requests = %d, want 0", got)
	}
}

func TestCreateTicketSendsNullDescription(t *testing.T) {
	backend := apitest.New(t)
	alice := backend.AddUser("Alice", "alice@example.test", "a")
	projectID := backend.AddProject(alice.ID, "Apollo")
	client, _ := signedIn(t, backend, alice.ID)
	blank := "  "

	ticket, err := client.CreateTicket(context.Background(), schema.TicketDraft{
		Title:       " Fix login ",
		Description: &blank,
		IssueType:   schema.IssueBug,
		Priority:    schema.PriorityHigh,
		ProjectID:   projectID,
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if ticket.Title != "Fix login" {
		t.Errorf("Title = %q, want %q", ticket.Title, "Fix login")
	}
	if ticket.Description != nil {
		t.Errorf("Description = %q, want null", *ticket.Description)
	}
	if ticket.Status != schema.StatusTodo {
		t.Errorf("Status = %q, want TODO", ticket.Status)
	}
}

func TestAddMemberErrors(t *testing.T) {
	backend := apitest.New(t)
	alice := backend.AddUser("Alice", "alice@example.test", "a")
	backend.AddUser("Bob", "bob@example.test", "b")
	projectID := backend.AddProject(alice.ID, "Apollo")
	client, _ := signedIn(t, backend, alice.ID)
	ctx := context.Background()

	if _, err := client.AddMember(ctx, projectID, schema.MemberInvite{Email: "bob@example.test", Role: schema.RoleDev}); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if _, err := client.AddMember(ctx, projectID, schema.MemberInvite{Email: "bob@example.test", Role: schema.RoleDev}); Detail(err) != "User already a project member" {
		t.Errorf("duplicate AddMember error = %v", err)
	}
	if _, err := client.AddMember(ctx, projectID, schema.MemberInvite{Email: "nobody@example.test", Role: schema.RoleDev}); !IsNotFound(err) {
		t.Errorf("unknown user AddMember error = %v, want NotFoundError", err)
	}
	if _, err := client.AddMember(ctx, projectID, schema.MemberInvite{Email: "bob@example.test", Role: "OWNER"}); err == nil {
		t.Error("AddMember accepted unknown role")
	}

	members, err := client.ListMembers(ctx, projectID)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 2 || members[1].Role != schema.RoleDev {
		t.Errorf("members = %+v, want alice ADMIN and bob DEV", members)
	}
}

func TestProjectLifecycle(t *testing.T) {
	backend := apitest.New(t)
	alice := backend.AddUser("Alice", "alice@example.test", "a")
	client, _ := signedIn(t, backend, alice.ID)
	ctx := context.Background()

	created, err := client.CreateProject(ctx, schema.ProjectDraft{Name: "Apollo"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	projects, err := client.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 1 || projects[0].ID != created.ID || projects[0].Role != schema.RoleAdmin {
		t.Fatalf("projects = %+v, want one ADMIN project %d", projects, created.ID)
	}

	name := "Artemis"
	updated, err := client.UpdateProject(ctx, created.ID, schema.ProjectUpdate{Name: &name})
	if err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	if updated.Name != "Artemis" {
		t.Errorf("updated name = %q", updated.Name)
	}
	if err := client.DeleteProject(ctx, created.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if _, err := client.GetProject(ctx, created.ID); !IsForbidden(err) {
		t.Errorf("GetProject after delete = %v, want ForbiddenError", err)
	}
}

func TestCommentCountIsPublic(t *testing.T) {
	backend := apitest.New(t)
	alice := backend.AddUser("Alice", "alice@example.test", "a")
	projectID := backend.AddProject(alice.ID, "Apollo")
	ticket := backend.AddTicket(schema.Ticket{Title: "T", ProjectID: projectID})
	backend.AddComment(ticket.ID, alice.ID, "one")
	backend.AddComment(ticket.ID, alice.ID, "two")
	client, _ := newTestClient(t, backend.URL())

	count, err := client.CommentCount(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("CommentCount: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestCommentEditByNonAuthorIsForbidden(t *testing.T) {
	backend := apitest.New(t)
	alice := backend.AddUser("Alice", "alice@example.test", "a")
	bob := backend.AddUser("Bob", "bob@example.test", "b")
	projectID := backend.AddProject(alice.ID, "Apollo")
	backend.AddMember(projectID, bob.ID, schema.RoleDev)
	ticket := backend.AddTicket(schema.Ticket{Title: "T", ProjectID: projectID})
	comment := backend.AddComment(ticket.ID, alice.ID, "original")
	client, _ := signedIn(t, backend, bob.ID)

	for _, edit := range []func(context.Context, int64, string) (schema.Comment, error){client.UpdateComment, client.PatchComment} {
		_, err := edit(context.Background(), comment.ID, "hijacked")
		if Detail(err) != "You can only edit your own comments." {
			t.Errorf("edit error = %v", err)
		}
	}
	stored, _ := backend.Comment(comment.ID)
	if stored.Comment != "original" {
		t.Errorf("comment = %q, want unchanged", stored.Comment)
	}
}

func TestListCommentsPaging(t *testing.T) {
	backend := apitest.New(t)
	alice := backend.AddUser("Alice", "alice@example.test", "a")
	projectID := backend.AddProject(alice.ID, "Apollo")
	ticket := backend.AddTicket(schema.Ticket{Title: "T", ProjectID: projectID})
	for _, text := range []string{"a", "b", "c"} {
		backend.AddComment(ticket.ID, alice.ID, text)
	}
	client, _ := signedIn(t, backend, alice.ID)

	comments, err := client.ListComments(context.Background(), ticket.ID, schema.Page{Skip: 1, Limit: 1})
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(comments) != 1 || comments[0].Comment != "b" {
		t.Fatalf("comments = %+v, want [b]", comments)
	}
	if comments[0].Username != "Alice" || comments[0].UserEmail != "alice@example.test" {
		t.Errorf("author = %q <%s>", comments[0].Username, comments[0].UserEmail)
	}
}

func TestDashboard(t *testing.T) {
	backend := apitest.New(t)
	alice := backend.AddUser("Alice", "alice@example.test", "a")
	projectID := backend.AddProject(alice.ID, "Apollo")
	backend.AddTicket(schema.Ticket{Title: "one", ProjectID: projectID})
	backend.AddTicket(schema.Ticket{Title: "two", ProjectID: projectID, Status: schema.StatusDone})
	client, _ := signedIn(t, backend, alice.ID)

	stats, err := client.DashboardStats(context.Background())
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	if stats.TotalTickets != 2 || stats.TodoTickets != 1 || stats.CompletedTickets != 1 {
		t.Errorf("stats = %+v", stats)
	}
	activity, err := client.RecentActivity(context.Background())
	if err != nil {
		t.Fatalf("RecentActivity: %v", err)
	}
	if len(activity) != 2 || activity[0].Title != "two" || activity[0].ProjectName != "Apollo" {
		t.Errorf("activity = %+v, want newest first", activity)
	}
}

// The query string carries only the filter fields that are set, and
// every request carries a request ID.
func TestRequestShape(t *testing.T) {
	var (
		mu        sync.Mutex
		rawQuery  []string
		requestID []string
		auth      []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		mu.Lock()
		rawQuery = append(rawQuery, request.URL.RawQuery)
		requestID = append(requestID, request.Header.Get(RequestIDHeader))
		auth = append(auth, request.Header.Get("Authorization"))
		mu.Unlock()
		writer.Header().Set("Content-Type", "application/json")
		writer.Write([]byte(`[]`))
	}))
	t.Cleanup(server.Close)

	client, sess := newTestClient(t, server.URL)
	if err := sess.Begin("tok", server.URL); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := client.ListTickets(ctx, 1, schema.TicketFilter{}); err != nil {
		t.Fatalf("ListTickets: %v", err)
	}
	if _, err := client.ListTickets(ctx, 1, schema.TicketFilter{Search: " crash ", Priority: schema.PriorityHigh}); err != nil {
		t.Fatalf("ListTickets: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if rawQuery[0] != "" {
		t.Errorf("empty filter query = %q, want empty", rawQuery[0])
	}
	if rawQuery[1] != "priority=HIGH&search=crash" {
		t.Errorf("filter query = %q, want %q", rawQuery[1], "priority=HIGH&search=crash")
	}
	if requestID[0] == requestID[1] {
		t.Error("request IDs repeat")
	}
	for _, id := range requestID {
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("request ID %q is not a UUID", id)
		}
	}
	if auth[0] != "Bearer tok" {
		t.Errorf("Authorization = %q, want %q", auth[0], "Bearer tok")
	}
}

func TestValidationListDecodesFields(t *testing.T) {
	body := []byte(`{"detail":[{"loc":["body","title"],"msg":"Field required","type":"missing"},
		{"loc":["body","assignee",0],"msg":"bad","type":"x"},{"loc":[],"msg":"whole body","type":"y"}]}`)
	err := statusError(http.StatusUnprocessableEntity, body)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("statusError = %T, want ValidationError", err)
	}
	if validation.Fields["title"] != "Field required" {
		t.Errorf("title = %q", validation.Fields["title"])
	}
	if validation.Fields["assignee.0"] != "bad" {
		t.Errorf("assignee.0 = %q", validation.Fields["assignee.0"])
	}
	if validation.Detail != "whole body" {
		t.Errorf("Detail = %q, want %q", validation.Detail, "whole body")
	}
}

func TestStatusErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusUnauthorized, IsAuth},
		{http.StatusForbidden, IsForbidden},
		{http.StatusNotFound, IsNotFound},
		{http.StatusBadRequest, func(err error) bool { var v *ValidationError; return errors.As(err, &v) }},
		{http.StatusInternalServerError, func(err error) bool { var s *ServerError; return errors.As(err, &s) }},
		{http.StatusTeapot, func(err error) bool { var s *ServerError; return errors.As(err, &s) }},
	}
	for _, test := range tests {
		if err := statusError(test.status, []byte(`{"detail":"x"}`)); !test.check(err) {
			t.Errorf("statusError(%d) = %T", test.status, err)
		}
	}
	if err := statusError(http.StatusBadGateway, []byte("<html>bad gateway</html>")); Detail(err) != "<html>bad gateway</html>" {
		t.Errorf("non-JSON detail = %q", Detail(err))
	}
}

func TestNonJSONErrorBodyTruncatesOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("é", 300)
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
		writer.WriteHeader(http.StatusBadGateway)
		writer.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	client, sess := newTestClient(t, server.URL)
	if err := sess.Begin("tok", server.URL); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	_, err := client.ListProjects(context.Background())
	var serverErr *ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("error = %v, want ServerError", err)
	}
	if !utf8.ValidString(serverErr.Detail) {
		t.Fatalf("Detail is not valid UTF-8: %q", serverErr.Detail)
	}
	want := strings.Repeat("é", 200) + "..."
	if serverErr.Detail != want {
		t.Errorf("Detail = %q (%d runes), want 200 runes and an ellipsis", serverErr.Detail, utf8.RuneCountInString(serverErr.Detail))
	}
}

func TestServerErrorInjection(t *testing.T) {
	backend := apitest.New(t)
	alice := backend.AddUser("Alice", "alice@example.test", "a")
	client, _ := signedIn(t, backend, alice.ID)
	backend.FailNext(apitest.RouteListProjects, http.StatusServiceUnavailable, "maintenance")

	_, err := client.ListProjects(context.Background())
	var serverErr *ServerError
	if !errors.As(err, &serverErr) || serverErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("error = %v, want 503 ServerError", err)
	}
	if _, err := client.ListProjects(context.Background()); err != nil {
		t.Fatalf("second ListProjects: %v", err)
	}
}

func TestUnreachableServerIsNetworkError(t *testing.T) {
	backend := apitest.New(t)
	alice := backend.AddUser("Alice", "alice@example.test", "a")
	client, _ := signedIn(t, backend, alice.ID)
	backend.Close()

	_, err := client.ListProjects(context.Background())
	if !IsNetwork(err) {
		t.Fatalf("error = %v, want NetworkError", err)
	}
}

func TestTimeoutIsNetworkError(t *testing.T) {
	backend := apitest.New(t)
	alice := backend.AddUser("Alice", "alice@example.test", "a")
	sess := session.New(nil, nil)
	if err := sess.Begin(backend.TokenFor(alice.ID), backend.URL()); err != nil {
		t.Fatal(err)
	}
	client, err := New(Config{BaseURL: backend.URL(), Timeout: 20 * time.Millisecond}, sess)
	if err != nil {
		t.Fatal(err)
	}
	backend.SetLatency(apitest.RouteMe, 2*time.Second)

	_, err = client.Me(context.Background())
	var network *NetworkError
	if !errors.As(err, &network) {
		t.Fatalf("error = %v, want NetworkError", err)
	}
	if !network.Timeout {
		t.Error("NetworkError.Timeout = false, want true")
	}
}

func TestCancelledContextIsNotNetworkError(t *testing.T) {
	backend := apitest.New(t)
	alice := backend.AddUser("Alice", "alice@example.test", "a")
	client, _ := signedIn(t, backend, alice.ID)
	hold := backend.HoldNext(apitest.RouteListProjects)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := client.ListProjects(ctx)
		done <- err
	}()
	<-hold.Arrived()
	cancel()

	err := <-done
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if IsNetwork(err) {
		t.Error("cancelled request reported as NetworkError")
	}
}
