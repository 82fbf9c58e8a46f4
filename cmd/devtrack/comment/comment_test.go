// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package comment

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/devtrack-foundation/devtrack/cmd/devtrack/cli"
	"github.com/devtrack-foundation/devtrack/cmd/devtrack/cli/clitest"
	"github.com/devtrack-foundation/devtrack/lib/apitest"
	"github.com/devtrack-foundation/devtrack/lib/schema"
	"github.com/devtrack-foundation/devtrack/lib/session"
)

func id(value int64) string { return strconv.FormatInt(value, 10) }

// fixture is one ticket in a project shared by Ada (ADMIN) and Bob
// (DEV), with Ada signed in.
type fixture struct {
	env    *clitest.Env
	ticket schema.Ticket
	ada    schema.User
	bob    schema.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := clitest.Setup(t)
	ada := env.Server.AddUser("Ada", "ada@example.com", "pw")
	bob := env.Server.AddUser("Bob", "bob@example.com", "pw")
	projectID := env.Server.AddProject(ada.ID, "Apollo")
	env.Server.AddMember(projectID, bob.ID, schema.RoleDev)
	ticket := env.Server.AddTicket(schema.Ticket{Title: "Fix login", ProjectID: projectID, CreatedByID: ada.ID})
	env.SignIn(t, ada)
	return &fixture{env: env, ticket: ticket, ada: ada, bob: bob}
}

func TestAdd(t *testing.T) {
	f := newFixture(t)

	result := f.env.MustRun(t, Command(), "add", id(f.ticket.ID), "Looking", "into", "it")
	prefix := "Added comment #"
	if !strings.HasPrefix(result.Stdout, prefix) || !strings.Contains(result.Stdout, "to ticket #"+id(f.ticket.ID)) {
		t.Fatalf("add = %q", result.Stdout)
	}
	commentID, err := strconv.ParseInt(strings.Fields(strings.TrimPrefix(result.Stdout, prefix))[0], 10, 64)
	if err != nil {
		t.Fatalf("parsing comment ID from %q: %v", result.Stdout, err)
	}
	stored, ok := f.env.Server.Comment(commentID)
	if !ok {
		t.Fatalf("comment %d not on the server", commentID)
	}
	if stored.Comment != "Looking into it" || stored.UserID != f.ada.ID {
		t.Errorf("comment = %+v, want Ada's text", stored)
	}
}

func TestAddFromStdin(t *testing.T) {
	f := newFixture(t)
	f.env.Stdin = "Line one\nLine two\n"

	f.env.MustRun(t, Command(), "add", id(f.ticket.ID), "-")
	if got := f.env.Server.Requests(apitest.RouteCreateComment); got != 1 {
		t.Errorf("create requests = %d, want 1", got)
	}
}

func TestAddValidatesLength(t *testing.T) {
	f := newFixture(t)

	for _, text := range []string{"   ", strings.Repeat("x", 5001)} {
		result := f.env.Run(t, Command(), "add", id(f.ticket.ID), text)
		if clitest.Category(result.Err) != cli.CategoryValidation {
			t.Errorf("add %d chars: err = %v, want validation", len(text), result.Err)
		}
	}
	if f.env.Server.Requests(apitest.RouteCreateComment) != 0 {
		t.Error("invalid comment reached the server")
	}

	f.env.MustRun(t, Command(), "add", id(f.ticket.ID), strings.Repeat("é", 5000))
}

func TestListPages(t *testing.T) {
	f := newFixture(t)
	for _, text := range []string{"first", "second", "third"} {
		f.env.Server.AddComment(f.ticket.ID, f.bob.ID, text)
	}

	result := f.env.MustRun(t, Command(), "list", id(f.ticket.ID), "--limit", "2")
	if !strings.Contains(result.Stdout, "second") || strings.Contains(result.Stdout, "third") {
		t.Errorf("first page = %q", result.Stdout)
	}
	if !strings.Contains(result.Stderr, "use --skip 2 or --all") {
		t.Errorf("stderr = %q, want more-comments notice", result.Stderr)
	}

	result = f.env.MustRun(t, Command(), "list", id(f.ticket.ID), "--limit", "2", "--all")
	if !strings.Contains(result.Stdout, "third") {
		t.Errorf("--all = %q, want every comment", result.Stdout)
	}
	if result.Stderr != "" {
		t.Errorf("--all stderr = %q, want none", result.Stderr)
	}
}

func TestListEmpty(t *testing.T) {
	f := newFixture(t)

	result := f.env.MustRun(t, Command(), "list", id(f.ticket.ID))
	if got, want := strings.TrimSpace(result.Stdout), "No comments on ticket #"+id(f.ticket.ID)+"."; got != want {
		t.Errorf("list = %q, want %q", got, want)
	}
}

func TestEditOwnComment(t *testing.T) {
	f := newFixture(t)
	comment := f.env.Server.AddComment(f.ticket.ID, f.ada.ID, "draft")

	result := f.env.MustRun(t, Command(), "edit", id(comment.ID), "final", "text")
	if got, want := strings.TrimSpace(result.Stdout), "Updated comment #"+id(comment.ID)+" on ticket #"+id(f.ticket.ID); got != want {
		t.Errorf("edit = %q, want %q", got, want)
	}
	stored, _ := f.env.Server.Comment(comment.ID)
	if stored.Comment != "final text" {
		t.Errorf("comment = %q, want %q", stored.Comment, "final text")
	}
	if f.env.Server.Requests(apitest.RouteUpdateComment) != 1 {
		t.Error("edit did not use PUT")
	}
}

func TestEditPatch(t *testing.T) {
	f := newFixture(t)
	comment := f.env.Server.AddComment(f.ticket.ID, f.ada.ID, "draft")

	f.env.MustRun(t, Command(), "edit", id(comment.ID), "patched", "--patch")
	if f.env.Server.Requests(apitest.RoutePatchComment) != 1 {
		t.Error("--patch did not use PATCH")
	}
	stored, _ := f.env.Server.Comment(comment.ID)
	if stored.Comment != "patched" {
		t.Errorf("comment = %q, want %q", stored.Comment, "patched")
	}
}

func TestEditOthersComment(t *testing.T) {
	f := newFixture(t)
	comment := f.env.Server.AddComment(f.ticket.ID, f.bob.ID, "Bob's note")

	result := f.env.Run(t, Command(), "edit", id(comment.ID), "hijacked")
	if clitest.Category(result.Err) != cli.CategoryForbidden {
		t.Fatalf("err = %v, want forbidden", result.Err)
	}
	if !strings.Contains(result.Err.Error(), "You can only edit or delete your own comments.") {
		t.Errorf("err = %q", result.Err)
	}
	if f.env.Server.Requests(apitest.RouteUpdateComment) != 0 {
		t.Error("denied edit reached the server")
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	comment := f.env.Server.AddComment(f.ticket.ID, f.ada.ID, "oops")

	result := f.env.MustRun(t, Command(), "delete", id(comment.ID), "--yes")
	if got, want := strings.TrimSpace(result.Stdout), "Deleted comment #"+id(comment.ID); got != want {
		t.Errorf("delete = %q, want %q", got, want)
	}
	if _, ok := f.env.Server.Comment(comment.ID); ok {
		t.Error("comment still on the server")
	}
}

func TestDeleteDeclined(t *testing.T) {
	f := newFixture(t)
	comment := f.env.Server.AddComment(f.ticket.ID, f.ada.ID, "keep me")
	f.env.Stdin = "\n"

	result := f.env.Run(t, Command(), "delete", id(comment.ID))
	var exitError *cli.ExitError
	if !errors.As(result.Err, &exitError) {
		t.Fatalf("err = %v, want ExitError", result.Err)
	}
	if _, ok := f.env.Server.Comment(comment.ID); !ok {
		t.Error("declined delete removed the comment")
	}
}

func TestDeleteOthersComment(t *testing.T) {
	f := newFixture(t)
	comment := f.env.Server.AddComment(f.ticket.ID, f.bob.ID, "Bob's note")

	result := f.env.Run(t, Command(), "delete", id(comment.ID), "--yes")
	if clitest.Category(result.Err) != cli.CategoryForbidden {
		t.Fatalf("err = %v, want forbidden", result.Err)
	}
	if f.env.Server.Requests(apitest.RouteDeleteComment) != 0 {
		t.Error("denied delete reached the server")
	}
}

func TestCountWithoutSession(t *testing.T) {
	f := newFixture(t)
	f.env.Server.AddComment(f.ticket.ID, f.bob.ID, "one")
	f.env.Server.AddComment(f.ticket.ID, f.bob.ID, "two")
	if err := os.Remove(session.DefaultPath()); err != nil {
		t.Fatal(err)
	}

	result := f.env.MustRun(t, Command(), "count", id(f.ticket.ID))
	if got := strings.TrimSpace(result.Stdout); got != "2" {
		t.Errorf("count = %q, want 2", got)
	}
}

func TestCountUnknownTicket(t *testing.T) {
	f := newFixture(t)

	result := f.env.Run(t, Command(), "count", "999")
	if clitest.Category(result.Err) != cli.CategoryNotFound {
		t.Fatalf("err = %v, want not found", result.Err)
	}
}
