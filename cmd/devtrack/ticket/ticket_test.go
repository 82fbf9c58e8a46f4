// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ticket

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/devtrack-foundation/devtrack/cmd/devtrack/cli"
	"github.com/devtrack-foundation/devtrack/cmd/devtrack/cli/clitest"
	"github.com/devtrack-foundation/devtrack/lib/apitest"
	"github.com/devtrack-foundation/devtrack/lib/schema"
)

func id(value int64) string { return strconv.FormatInt(value, 10) }

// fixture is a project owned by an ADMIN with one DEV and one VIEWER.
type fixture struct {
	env       *clitest.Env
	projectID int64
	admin     schema.User
	dev       schema.User
	viewer    schema.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := clitest.Setup(t)
	admin := env.Server.AddUser("Admin", "admin@example.com", "pw")
	dev := env.Server.AddUser("Dev", "dev@example.com", "pw")
	viewer := env.Server.AddUser("Viewer", "viewer@example.com", "pw")
	projectID := env.Server.AddProject(admin.ID, "Apollo")
	env.Server.AddMember(projectID, dev.ID, schema.RoleDev)
	env.Server.AddMember(projectID, viewer.ID, schema.RoleViewer)
	env.SignIn(t, admin)
	return &fixture{env: env, projectID: projectID, admin: admin, dev: dev, viewer: viewer}
}

func (f *fixture) addTicket(title string, status schema.Status, assignee *schema.User) schema.Ticket {
	ticket := schema.Ticket{Title: title, Status: status, ProjectID: f.projectID, CreatedByID: f.admin.ID}
	if assignee != nil {
		assigneeID := assignee.ID
		ticket.AssignedToID = &assigneeID
	}
	return f.env.Server.AddTicket(ticket)
}

func TestCreate(t *testing.T) {
	f := newFixture(t)

	result := f.env.MustRun(t, Command(), "create", id(f.projectID), "Fix login",
		"-p", "high", "-t", "bug", "-a", "dev@example.com", "-d", "Users are logged out")
	if !strings.HasPrefix(result.Stdout, "Created ticket #") || !strings.Contains(result.Stdout, "Fix login in To Do") {
		t.Fatalf("create = %q", result.Stdout)
	}
	createdID, err := strconv.ParseInt(strings.Fields(strings.TrimPrefix(result.Stdout, "Created ticket #"))[0], 10, 64)
	if err != nil {
		t.Fatalf("parsing ticket ID from %q: %v", result.Stdout, err)
	}
	stored, ok := f.env.Server.Ticket(createdID)
	if !ok {
		t.Fatalf("ticket %d not on the server", createdID)
	}
	if stored.Priority != schema.PriorityHigh || stored.IssueType != schema.IssueBug {
		t.Errorf("ticket = %+v, want HIGH BUG", stored)
	}
	if stored.AssignedToID == nil || *stored.AssignedToID != f.dev.ID {
		t.Errorf("assignee = %v, want %d", stored.AssignedToID, f.dev.ID)
	}
	if stored.DescriptionText() != "Users are logged out" {
		t.Errorf("description = %q", stored.DescriptionText())
	}
}

func TestCreateRejectsViewerAssignee(t *testing.T) {
	f := newFixture(t)

	result := f.env.Run(t, Command(), "create", id(f.projectID), "Fix login", "-a", "viewer@example.com")
	if clitest.Category(result.Err) != cli.CategoryValidation {
		t.Fatalf("err = %v, want validation", result.Err)
	}
	if !strings.Contains(result.Err.Error(), "tickets can only be assigned to ADMIN or DEV members") {
		t.Errorf("err = %q", result.Err)
	}
	if f.env.Server.Requests(apitest.RouteCreateTicket) != 0 {
		t.Error("invalid assignee reached the server")
	}
}

func TestCreateAsViewer(t *testing.T) {
	f := newFixture(t)
	f.env.SignIn(t, f.viewer)

	result := f.env.Run(t, Command(), "create", id(f.projectID), "Fix login")
	if clitest.Category(result.Err) != cli.CategoryForbidden {
		t.Fatalf("err = %v, want forbidden", result.Err)
	}
	if !strings.Contains(result.Err.Error(), "Only ADMIN or DEV can create tickets; your role is VIEWER.") {
		t.Errorf("err = %q", result.Err)
	}
	if f.env.Server.Requests(apitest.RouteCreateTicket) != 0 {
		t.Error("denied create reached the server")
	}
}

func TestCreateBadPriority(t *testing.T) {
	f := newFixture(t)

	result := f.env.Run(t, Command(), "create", id(f.projectID), "Fix login", "-p", "critical")
	if clitest.Category(result.Err) != cli.CategoryValidation {
		t.Fatalf("err = %v, want validation", result.Err)
	}
}

func TestCreateServerRejection(t *testing.T) {
	f := newFixture(t)
	f.env.Server.FailNext(apitest.RouteCreateTicket, 403, "You do not have permission to create tickets in this project.")

	result := f.env.Run(t, Command(), "create", id(f.projectID), "Fix login")
	if clitest.Category(result.Err) != cli.CategoryForbidden {
		t.Fatalf("err = %v, want forbidden", result.Err)
	}
}

func TestListGroupsByStatus(t *testing.T) {
	f := newFixture(t)
	f.addTicket("Write docs", schema.StatusTodo, nil)
	f.addTicket("Fix login", schema.StatusInProgress, &f.dev)
	f.addTicket("Ship it", schema.StatusDone, nil)

	result := f.env.MustRun(t, Command(), "list", id(f.projectID))
	for _, want := range []string{"To Do (1)", "In Progress (1)", "Done (1)", "Write docs", "dev@example.com", "3 tickets: 1 to do, 1 in progress, 1 done"} {
		if !strings.Contains(result.Stdout, want) {
			t.Errorf("list output missing %q:\n%s", want, result.Stdout)
		}
	}
	if strings.Index(result.Stdout, "To Do") > strings.Index(result.Stdout, "In Progress") {
		t.Errorf("columns out of order:\n%s", result.Stdout)
	}
}

func TestListFilterJSON(t *testing.T) {
	f := newFixture(t)
	f.addTicket("Write docs", schema.StatusTodo, nil)
	done := f.addTicket("Ship it", schema.StatusDone, nil)

	result := f.env.MustRun(t, Command(), "list", id(f.projectID), "--status", "done", "--json")
	var decoded struct {
		Tickets []schema.Ticket `json:"tickets"`
		Stats   struct {
			Total int `json:"total"`
			Done  int `json:"done"`
		} `json:"stats"`
		Stale bool `json:"stale"`
	}
	if err := json.Unmarshal([]byte(result.Stdout), &decoded); err != nil {
		t.Fatalf("decoding %q: %v", result.Stdout, err)
	}
	if len(decoded.Tickets) != 1 || decoded.Tickets[0].ID != done.ID {
		t.Fatalf("tickets = %+v, want only #%d", decoded.Tickets, done.ID)
	}
	if decoded.Stats.Total != 1 || decoded.Stats.Done != 1 {
		t.Errorf("stats = %+v, want one done", decoded.Stats)
	}
	if decoded.Stale {
		t.Error("live listing marked stale")
	}
}

func TestListFallsBackToCache(t *testing.T) {
	f := newFixture(t)
	f.addTicket("Write docs", schema.StatusTodo, nil)
	f.env.MustRun(t, Command(), "list", id(f.projectID))

	f.env.Server.Close()
	result := f.env.MustRun(t, Command(), "list", id(f.projectID))
	if !strings.Contains(result.Stderr, "Server unreachable; showing the board cached at") {
		t.Errorf("stderr = %q, want stale notice", result.Stderr)
	}
	if !strings.Contains(result.Stdout, "Write docs") {
		t.Errorf("stdout = %q, want cached ticket", result.Stdout)
	}
}

func TestListUnreachableWithoutCache(t *testing.T) {
	f := newFixture(t)
	f.env.Server.Close()

	result := f.env.Run(t, Command(), "list", id(f.projectID))
	if clitest.Category(result.Err) != cli.CategoryTransient {
		t.Fatalf("err = %v, want transient", result.Err)
	}
}

func TestShowWithComments(t *testing.T) {
	f := newFixture(t)
	ticket := f.addTicket("Fix login", schema.StatusTodo, &f.dev)
	f.env.Server.AddComment(ticket.ID, f.dev.ID, "Looking into it")

	result := f.env.MustRun(t, Command(), "show", id(ticket.ID), "--comments")
	for _, want := range []string{"#" + id(ticket.ID) + " Fix login", "To Do", "dev@example.com", "Looking into it"} {
		if !strings.Contains(result.Stdout, want) {
			t.Errorf("show output missing %q:\n%s", want, result.Stdout)
		}
	}
}

func TestStatusByAssignee(t *testing.T) {
	f := newFixture(t)
	ticket := f.addTicket("Fix login", schema.StatusTodo, &f.dev)
	f.env.SignIn(t, f.dev)

	result := f.env.MustRun(t, Command(), "status", id(ticket.ID), "in progress")
	want := "Moved ticket #" + id(ticket.ID) + " Fix login from To Do to In Progress"
	if got := strings.TrimSpace(result.Stdout); got != want {
		t.Errorf("status = %q, want %q", got, want)
	}
	stored, _ := f.env.Server.Ticket(ticket.ID)
	if stored.Status != schema.StatusInProgress {
		t.Errorf("server status = %s, want IN_PROGRESS", stored.Status)
	}
}

func TestStatusDeniedForNonAssignee(t *testing.T) {
	f := newFixture(t)
	ticket := f.addTicket("Fix login", schema.StatusTodo, &f.admin)
	f.env.SignIn(t, f.dev)

	result := f.env.Run(t, Command(), "status", id(ticket.ID), "done")
	if clitest.Category(result.Err) != cli.CategoryForbidden {
		t.Fatalf("err = %v, want forbidden", result.Err)
	}
	if f.env.Server.Requests(apitest.RouteUpdateTicket) != 0 {
		t.Error("denied move reached the server")
	}
}

func TestStatusRoleOrAssigneePolicy(t *testing.T) {
	f := newFixture(t)
	configPath := filepath.Join(f.env.Dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("board:\n  status_policy: role-or-assignee\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DEVTRACK_CONFIG", configPath)
	ticket := f.addTicket("Fix login", schema.StatusTodo, &f.admin)
	f.env.SignIn(t, f.dev)

	f.env.MustRun(t, Command(), "status", id(ticket.ID), "DONE")
	stored, _ := f.env.Server.Ticket(ticket.ID)
	if stored.Status != schema.StatusDone {
		t.Errorf("server status = %s, want DONE", stored.Status)
	}
}

func TestStatusUnchanged(t *testing.T) {
	f := newFixture(t)
	ticket := f.addTicket("Fix login", schema.StatusDone, &f.admin)

	result := f.env.MustRun(t, Command(), "status", id(ticket.ID), "done")
	if got, want := strings.TrimSpace(result.Stderr), "Ticket #"+id(ticket.ID)+" is already in Done."; got != want {
		t.Errorf("stderr = %q, want %q", got, want)
	}
	if f.env.Server.Requests(apitest.RouteUpdateTicket) != 0 {
		t.Error("unchanged status reached the server")
	}
}

func TestStatusUnknown(t *testing.T) {
	f := newFixture(t)

	result := f.env.Run(t, Command(), "status", "1", "blocked")
	if clitest.Category(result.Err) != cli.CategoryValidation {
		t.Fatalf("err = %v, want validation", result.Err)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ticket := f.addTicket("Fix login", schema.StatusTodo, nil)
	f.env.SignIn(t, f.dev)

	result := f.env.MustRun(t, Command(), "delete", id(ticket.ID), "--yes")
	if got, want := strings.TrimSpace(result.Stdout), "Deleted ticket #"+id(ticket.ID)+" Fix login"; got != want {
		t.Errorf("delete = %q, want %q", got, want)
	}
	if _, ok := f.env.Server.Ticket(ticket.ID); ok {
		t.Error("ticket still on the server")
	}
}

func TestDeleteAsViewer(t *testing.T) {
	f := newFixture(t)
	ticket := f.addTicket("Fix login", schema.StatusTodo, nil)
	f.env.SignIn(t, f.viewer)

	result := f.env.Run(t, Command(), "delete", id(ticket.ID), "--yes")
	if clitest.Category(result.Err) != cli.CategoryForbidden {
		t.Fatalf("err = %v, want forbidden", result.Err)
	}
	if f.env.Server.Requests(apitest.RouteDeleteTicket) != 0 {
		t.Error("denied delete reached the server")
	}
}

const backlog = `{
  // Imported from the planning doc.
  "tickets": [
    {"title": "Write docs", "priority": "low"},
    {"title": "Fix login", "type": "bug", "status": "in progress", "assignee": "dev@example.com"},
  ],
}`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backlog.jsonc")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImport(t *testing.T) {
	f := newFixture(t)
	path := writeFile(t, backlog)

	result := f.env.MustRun(t, Command(), "import", id(f.projectID), path)
	if !strings.Contains(result.Stdout, "Imported 2 tickets into #"+id(f.projectID)+" Apollo") {
		t.Errorf("import = %q", result.Stdout)
	}
	if got := f.env.Server.Requests(apitest.RouteCreateTicket); got != 2 {
		t.Errorf("create requests = %d, want 2", got)
	}
}

func TestImportDryRun(t *testing.T) {
	f := newFixture(t)
	path := writeFile(t, backlog)

	result := f.env.MustRun(t, Command(), "import", id(f.projectID), path, "--dry-run")
	if got, want := strings.TrimSpace(result.Stdout), "2 tickets are valid; nothing was created"; got != want {
		t.Errorf("dry run = %q, want %q", got, want)
	}
	if f.env.Server.Requests(apitest.RouteCreateTicket) != 0 {
		t.Error("dry run created tickets")
	}
}

func TestImportReportsEveryProblem(t *testing.T) {
	f := newFixture(t)
	path := writeFile(t, `[
		{"title": ""},
		{"title": "Fix login", "priority": "critical"},
		{"title": "Pair", "assignee": "viewer@example.com"}
	]`)

	result := f.env.Run(t, Command(), "import", id(f.projectID), path)
	if clitest.Category(result.Err) != cli.CategoryValidation {
		t.Fatalf("err = %v, want validation", result.Err)
	}
	for _, want := range []string{"3 problem(s)", "ticket 1: a title is required", "ticket 2: unknown priority", "ticket 3: viewer@example.com is a VIEWER"} {
		if !strings.Contains(result.Err.Error(), want) {
			t.Errorf("err missing %q:\n%s", want, result.Err)
		}
	}
	if f.env.Server.Requests(apitest.RouteCreateTicket) != 0 {
		t.Error("invalid import created tickets")
	}
}

func TestParseImportForms(t *testing.T) {
	for _, input := range []string{
		`[{"title": "One"}, {"title": "Two"},]`,
		`{"tickets": [{"title": "One"}, /* second */ {"title": "Two"}]}`,
	} {
		entries, err := ParseImport([]byte(input))
		if err != nil {
			t.Fatalf("ParseImport(%q): %v", input, err)
		}
		if len(entries) != 2 || entries[1].Title != "Two" {
			t.Errorf("ParseImport(%q) = %+v", input, entries)
		}
	}
	if _, err := ParseImport([]byte("  // nothing\n")); err == nil {
		t.Error("ParseImport accepted an empty file")
	}
}

func TestParseStatusSpellings(t *testing.T) {
	for input, want := range map[string]schema.Status{
		"todo":        schema.StatusTodo,
		"in progress": schema.StatusInProgress,
		"in-progress": schema.StatusInProgress,
		"IN_PROGRESS": schema.StatusInProgress,
		" Done ":      schema.StatusDone,
		"":            "",
	} {
		got, err := ParseStatus(input)
		if err != nil {
			t.Errorf("ParseStatus(%q): %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ParseStatus(%q) = %q, want %q", input, got, want)
		}
	}
}
