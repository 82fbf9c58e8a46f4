// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ticket implements the ticket commands. Listing and status
// changes go through the board state manager, so the CLI and the
// terminal board share one set of rules: moves are confirmed by the
// server before they show, and an unreachable server falls back to the
// cached board.
package ticket

import (
	"errors"
	"fmt"
	"strings"

	"github.com/devtrack-foundation/devtrack/cmd/devtrack/cli"
	"github.com/devtrack-foundation/devtrack/lib/board"
	"github.com/devtrack-foundation/devtrack/lib/rolegate"
	"github.com/devtrack-foundation/devtrack/lib/schema"
)

// Command returns the "ticket" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "ticket",
		Summary: "List, create, move, and delete tickets",
		Description: `Work with the tickets of a project. Tickets move between three
statuses (TODO, IN_PROGRESS, DONE); by default only a ticket's
assignee may move it.`,
		Subcommands: []*cli.Command{
			listCommand(),
			showCommand(),
			createCommand(),
			statusCommand(),
			deleteCommand(),
			importCommand(),
		},
	}
}

// normalizedToken upper-cases value and joins words with underscores,
// so "in progress" and "in-progress" both read as IN_PROGRESS.
func normalizedToken(value string) string {
	value = strings.ToUpper(strings.TrimSpace(value))
	return strings.NewReplacer("-", "_", " ", "_").Replace(value)
}

// ParseStatus reads a ticket status. Empty is allowed and means no
// status.
func ParseStatus(value string) (schema.Status, error) {
	status := schema.Status(normalizedToken(value))
	if status == "" || status.IsKnown() {
		return status, nil
	}
	return "", cli.Validation("unknown status %q (want TODO, IN_PROGRESS, or DONE)", value)
}

// ParsePriority reads a ticket priority. Empty is allowed.
func ParsePriority(value string) (schema.Priority, error) {
	priority := schema.Priority(normalizedToken(value))
	if priority == "" || priority.IsKnown() {
		return priority, nil
	}
	return "", cli.Validation("unknown priority %q (want LOW, MEDIUM, HIGH, or URGENT)", value)
}

// ParseIssueType reads a ticket type. Empty is allowed.
func ParseIssueType(value string) (schema.IssueType, error) {
	issueType := schema.IssueType(normalizedToken(value))
	if issueType == "" || issueType.IsKnown() {
		return issueType, nil
	}
	return "", cli.Validation("unknown type %q (want TASK, BUG, or FEATURE)", value)
}

// resolveAssignee finds the member named by reference (an email or a
// numeric user ID) and checks that tickets may be assigned to them.
func resolveAssignee(members []schema.ProjectMember, reference string) (schema.ProjectMember, error) {
	reference = strings.TrimSpace(reference)
	var found *schema.ProjectMember
	for index := range members {
		member := &members[index]
		if strings.EqualFold(member.Email, reference) || fmt.Sprint(member.UserID) == strings.TrimPrefix(reference, "#") {
			found = member
			break
		}
	}
	if found == nil {
		return schema.ProjectMember{}, cli.Validation("%s is not a member of this project", reference).
			WithHint("Run 'devtrack member list <project-id>' to see who can be assigned.")
	}
	for _, eligible := range rolegate.EligibleAssignees(members) {
		if eligible.UserID == found.UserID {
			return *found, nil
		}
	}
	return schema.ProjectMember{}, cli.Validation("%s is a %s; tickets can only be assigned to ADMIN or DEV members", found.Email, found.Role)
}

// mutationFailed categorizes a board mutation error, keeping the
// manager's explanation as the message.
func mutationFailed(action string, err error) error {
	var mutation *board.MutationError
	if !errors.As(err, &mutation) {
		return cli.FromAPI(action, err)
	}
	if mutation.Err == nil {
		return cli.Internal("%w", mutation)
	}
	categorized := cli.FromAPI(action, mutation.Err)
	var toolError *cli.ToolError
	if errors.As(categorized, &toolError) {
		return &cli.ToolError{Category: toolError.Category, Err: mutation, Hint: toolError.Hint}
	}
	return categorized
}

// assigneeLabel is the assignee column of a listing.
func assigneeLabel(ticket schema.Ticket) string {
	if email := ticket.AssigneeEmail(); email != "" {
		return email
	}
	if ticket.AssignedToID != nil {
		return fmt.Sprintf("user %d", *ticket.AssignedToID)
	}
	return "-"
}
