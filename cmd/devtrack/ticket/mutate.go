// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ticket

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/devtrack-foundation/devtrack/cmd/devtrack/cli"
	"github.com/devtrack-foundation/devtrack/lib/rolegate"
	"github.com/devtrack-foundation/devtrack/lib/schema"
)

// --- create ---

type createParams struct {
	cli.Connection
	cli.JSONOutput
	Description     string `flag:"description,d" desc:"ticket description (markdown)"`
	DescriptionFile string `flag:"description-file" desc:"read the description from a file"`
	Type            string `flag:"type,t" desc:"TASK, BUG, or FEATURE" default:"TASK"`
	Priority        string `flag:"priority,p" desc:"LOW, MEDIUM, HIGH, or URGENT" default:"MEDIUM"`
	Status          string `flag:"status" desc:"initial status (default TODO)"`
	Assignee        string `flag:"assignee,a" desc:"assign to this member (email or user ID)"`
}

func createCommand() *cli.Command {
	var params createParams

	return &cli.Command{
		Name:    "create",
		Summary: "Create a ticket (ADMIN or DEV)",
		Description: `Create a ticket in a project. The title is required. The assignee
must be an ADMIN or DEV member of the project; VIEWERs cannot be
assigned work.`,
		Usage: "devtrack ticket create <project-id> <title> [flags]",
		Examples: []cli.Example{
			{
				Description: "File an urgent bug for alice",
				Command:     "devtrack ticket create 3 'Login fails on Safari' -t BUG -p URGENT -a alice@example.com",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := cli.ExpectArgs(args, "devtrack ticket create <project-id> <title>", "project ID", "title"); err != nil {
				return err
			}
			projectID, err := cli.ParseID("project", args[0])
			if err != nil {
				return err
			}
			draft := schema.TicketDraft{Title: strings.TrimSpace(args[1]), ProjectID: projectID}
			if draft.Title == "" {
				return cli.Validation("a title is required")
			}
			if draft.IssueType, err = ParseIssueType(params.Type); err != nil {
				return err
			}
			if draft.Priority, err = ParsePriority(params.Priority); err != nil {
				return err
			}
			if draft.Status, err = ParseStatus(params.Status); err != nil {
				return err
			}
			description := params.Description
			if params.DescriptionFile != "" {
				if description != "" {
					return cli.Validation("--description and --description-file are mutually exclusive")
				}
				data, err := os.ReadFile(params.DescriptionFile)
				if err != nil {
					return cli.Internal("reading description: %w", err)
				}
				description = string(data)
			}
			if strings.TrimSpace(description) != "" {
				draft.Description = &description
			}

			client, err := params.ConnectSignedIn(logger)
			if err != nil {
				return err
			}
			ctx, cancel := client.CallContext(ctx)
			defer cancel()

			membership, err := client.Membership(ctx, projectID)
			if err != nil {
				return err
			}
			if !rolegate.CanCreateTicket(membership.Role) {
				return cli.Forbidden("%s", rolegate.ForbiddenMessage(rolegate.ActionCreateTicket, membership.Role))
			}
			if params.Assignee != "" {
				members, err := client.API.ListMembers(ctx, projectID)
				if err != nil {
					return cli.FromAPI("list members", err)
				}
				assignee, err := resolveAssignee(members, params.Assignee)
				if err != nil {
					return err
				}
				draft.AssignedToID = &assignee.UserID
			}

			manager, release, err := client.Board(projectID, logger)
			if err != nil {
				return err
			}
			defer release()

			ticket, err := manager.CreateTicket(ctx, draft)
			if err != nil {
				return mutationFailed("create ticket", err)
			}
			if done, err := params.EmitJSON(ticket); done {
				return err
			}
			fmt.Fprintf(cli.Stdout, "Created ticket #%d %s in %s\n", ticket.ID, ticket.Title, ticket.Status.Label())
			return nil
		},
	}
}

// --- status ---

type statusParams struct {
	cli.Connection
	cli.JSONOutput
}

func statusCommand() *cli.Command {
	var params statusParams

	return &cli.Command{
		Name:    "status",
		Summary: "Move a ticket to another status",
		Description: `Move a ticket to TODO, IN_PROGRESS, or DONE. Any status may follow
any other. Under the default assignee-only policy (board.status_policy
in the configuration) only the ticket's assignee may move it; with
role-or-assignee, ADMIN and DEV members may move any ticket.

The ticket changes status only once the server accepts the move.`,
		Usage: "devtrack ticket status <ticket-id> <status>",
		Examples: []cli.Example{
			{
				Description: "Start work on ticket 12",
				Command:     "devtrack ticket status 12 in-progress",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := cli.ExpectArgs(args, "devtrack ticket status <ticket-id> <status>", "ticket ID", "status"); err != nil {
				return err
			}
			ticketID, err := cli.ParseID("ticket", args[0])
			if err != nil {
				return err
			}
			status, err := ParseStatus(args[1])
			if err != nil {
				return err
			}
			if status == "" {
				return cli.Validation("a status is required")
			}

			client, err := params.ConnectSignedIn(logger)
			if err != nil {
				return err
			}
			ctx, cancel := client.CallContext(ctx)
			defer cancel()

			ticket, err := client.API.GetTicket(ctx, ticketID)
			if err != nil {
				return cli.FromAPI("show ticket", err)
			}
			user, err := client.CurrentUser(ctx)
			if err != nil {
				return err
			}
			membership, err := client.Membership(ctx, ticket.ProjectID)
			if err != nil {
				return err
			}
			if !client.Config.StatusPolicy().CanChangeStatus(ticket, user, membership.Role) {
				return cli.Forbidden("%s", rolegate.ForbiddenMessage(rolegate.ActionChangeStatus, membership.Role))
			}
			if ticket.Status == status {
				fmt.Fprintf(cli.Stderr, "Ticket #%d is already in %s.\n", ticket.ID, status.Label())
				if done, err := params.EmitJSON(ticket); done {
					return err
				}
				return nil
			}

			manager, release, err := client.Board(ticket.ProjectID, logger)
			if err != nil {
				return err
			}
			defer release()
			if err := manager.LoadTickets(ctx, schema.TicketFilter{}); err != nil {
				return cli.FromAPI("load board", err)
			}
			if err := manager.UpdateTicketStatus(ctx, ticketID, status); err != nil {
				return mutationFailed("move ticket", err)
			}
			moved, _ := manager.Snapshot().Ticket(ticketID)
			if moved.ID == 0 {
				moved = ticket
				moved.Status = status
			}
			if done, err := params.EmitJSON(moved); done {
				return err
			}
			fmt.Fprintf(cli.Stdout, "Moved ticket #%d %s from %s to %s\n",
				ticket.ID, ticket.Title, ticket.Status.Label(), status.Label())
			return nil
		},
	}
}

// --- delete ---

type deleteParams struct {
	cli.Connection
	Yes bool `flag:"yes,y" desc:"delete without asking for confirmation"`
}

func deleteCommand() *cli.Command {
	var params deleteParams

	return &cli.Command{
		Name:    "delete",
		Summary: "Delete a ticket (ADMIN or DEV)",
		Usage:   "devtrack ticket delete <ticket-id> [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := cli.ExpectArgs(args, "devtrack ticket delete <ticket-id>", "ticket ID"); err != nil {
				return err
			}
			ticketID, err := cli.ParseID("ticket", args[0])
			if err != nil {
				return err
			}
			client, err := params.ConnectSignedIn(logger)
			if err != nil {
				return err
			}
			ctx, cancel := client.CallContext(ctx)
			defer cancel()

			ticket, err := client.API.GetTicket(ctx, ticketID)
			if err != nil {
				return cli.FromAPI("show ticket", err)
			}
			membership, err := client.Membership(ctx, ticket.ProjectID)
			if err != nil {
				return err
			}
			if !rolegate.CanDeleteTicket(membership.Role) {
				return cli.Forbidden("%s", rolegate.ForbiddenMessage(rolegate.ActionDeleteTicket, membership.Role))
			}
			confirmed, err := cli.ConfirmOrYes(params.Yes, fmt.Sprintf("Delete ticket #%d %s?", ticket.ID, ticket.Title))
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Fprintln(cli.Stderr, "Not deleted.")
				return &cli.ExitError{Code: 1}
			}

			manager, release, err := client.Board(ticket.ProjectID, logger)
			if err != nil {
				return err
			}
			defer release()
			if err := manager.DeleteTicket(ctx, ticketID, true); err != nil {
				return mutationFailed("delete ticket", err)
			}
			fmt.Fprintf(cli.Stdout, "Deleted ticket #%d %s\n", ticket.ID, ticket.Title)
			return nil
		},
	}
}
