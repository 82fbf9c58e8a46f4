// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ticket

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/devtrack-foundation/devtrack/cmd/devtrack/cli"
	"github.com/devtrack-foundation/devtrack/lib/board"
	"github.com/devtrack-foundation/devtrack/lib/schema"
)

// --- list ---

type listParams struct {
	cli.Connection
	cli.JSONOutput
	Search   string `flag:"search,s" desc:"only tickets whose title or description contains this text"`
	Status   string `flag:"status" desc:"only tickets with this status (TODO, IN_PROGRESS, DONE)"`
	Priority string `flag:"priority,p" desc:"only tickets with this priority (LOW, MEDIUM, HIGH, URGENT)"`
}

type listResult struct {
	ProjectID int64           `json:"project_id"`
	Tickets   []schema.Ticket `json:"tickets"`
	Stats     board.Stats     `json:"stats"`
	Stale     bool            `json:"stale,omitempty"`
	FetchedAt time.Time       `json:"fetched_at"`
}

func listCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "Show a project's tickets grouped by status",
		Description: `Show a project's tickets in board order: one group per status,
each sorted by the ticket order field, then by creation. Filters
combine; an empty filter is no constraint.

When the server cannot be reached, the last board fetched for the
project is shown from the cache and marked as such.`,
		Usage: "devtrack ticket list <project-id> [flags]",
		Examples: []cli.Example{
			{
				Description: "Urgent tickets mentioning login",
				Command:     "devtrack ticket list 3 --search login --priority URGENT",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := cli.ExpectArgs(args, "devtrack ticket list <project-id>", "project ID"); err != nil {
				return err
			}
			projectID, err := cli.ParseID("project", args[0])
			if err != nil {
				return err
			}
			filter := schema.TicketFilter{Search: strings.TrimSpace(params.Search)}
			if filter.Status, err = ParseStatus(params.Status); err != nil {
				return err
			}
			if filter.Priority, err = ParsePriority(params.Priority); err != nil {
				return err
			}

			client, err := params.ConnectSignedIn(logger)
			if err != nil {
				return err
			}
			ctx, cancel := client.CallContext(ctx)
			defer cancel()

			manager, release, err := client.Board(projectID, logger)
			if err != nil {
				return err
			}
			defer release()

			loadErr := manager.LoadTickets(ctx, filter)
			snapshot := manager.Snapshot()
			if loadErr != nil && !(snapshot.Loaded && snapshot.Stale) {
				return cli.FromAPI("list tickets", loadErr)
			}
			if snapshot.Stale {
				fmt.Fprintf(cli.Stderr, "Server unreachable; showing the board cached at %s.\n",
					snapshot.FetchedAt.Local().Format(time.DateTime))
			}

			result := listResult{
				ProjectID: projectID,
				Tickets:   snapshot.Tickets,
				Stats:     snapshot.Stats(),
				Stale:     snapshot.Stale,
				FetchedAt: snapshot.FetchedAt,
			}
			if done, err := params.EmitJSON(result); done {
				return err
			}
			return writeBoard(snapshot)
		},
	}
}

// writeBoard prints the snapshot as one table section per column.
func writeBoard(snapshot board.Snapshot) error {
	columns := snapshot.Columns()
	tw := tabwriter.NewWriter(cli.Stdout, 2, 0, 2, ' ', 0)
	for index, status := range schema.Statuses {
		column := columns.Column(status)
		if index > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s (%d)\n", status.Label(), len(column.Tickets))
		for _, ticket := range column.Tickets {
			fmt.Fprintf(tw, "  #%d\t%s\t%s\t%s\t%s\n",
				ticket.ID, ticket.Priority, ticket.IssueType, assigneeLabel(ticket), ticket.Title)
		}
	}
	stats := snapshot.Stats()
	fmt.Fprintf(tw, "\n%d tickets: %d to do, %d in progress, %d done\n",
		stats.Total, stats.Todo, stats.InProgress, stats.Done)
	return tw.Flush()
}

// --- show ---

type showParams struct {
	cli.Connection
	cli.JSONOutput
	Comments bool `flag:"comments,c" desc:"include the first page of comments"`
}

type showResult struct {
	schema.Ticket
	CommentCount int              `json:"comment_count"`
	Comments     []schema.Comment `json:"comments,omitempty"`
}

func showCommand() *cli.Command {
	var params showParams

	return &cli.Command{
		Name:    "show",
		Summary: "Show one ticket",
		Usage:   "devtrack ticket show <ticket-id> [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := cli.ExpectArgs(args, "devtrack ticket show <ticket-id>", "ticket ID"); err != nil {
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
			result := showResult{Ticket: ticket}
			if result.CommentCount, err = client.API.CommentCount(ctx, ticketID); err != nil {
				logger.Warn("comment count unavailable", "ticket_id", ticketID, "error", err)
			}
			if params.Comments {
				if result.Comments, err = client.API.ListComments(ctx, ticketID, schema.DefaultPage); err != nil {
					return cli.FromAPI("list comments", err)
				}
			}
			if done, err := params.EmitJSON(result); done {
				return err
			}

			tw := tabwriter.NewWriter(cli.Stdout, 2, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "#%d %s\n\n", ticket.ID, ticket.Title)
			fmt.Fprintf(tw, "Status:\t%s\n", ticket.Status.Label())
			fmt.Fprintf(tw, "Priority:\t%s\n", ticket.Priority)
			fmt.Fprintf(tw, "Type:\t%s\n", ticket.IssueType)
			fmt.Fprintf(tw, "Assignee:\t%s\n", assigneeLabel(ticket))
			fmt.Fprintf(tw, "Project:\t%d\n", ticket.ProjectID)
			if !ticket.CreatedAt.IsZero() {
				fmt.Fprintf(tw, "Created:\t%s\n", ticket.CreatedAt.Local().Format(time.DateTime))
			}
			fmt.Fprintf(tw, "Comments:\t%d\n", result.CommentCount)
			if err := tw.Flush(); err != nil {
				return err
			}
			if description := strings.TrimSpace(ticket.DescriptionText()); description != "" {
				fmt.Fprintf(cli.Stdout, "\n%s\n", description)
			}
			for _, comment := range result.Comments {
				fmt.Fprintf(cli.Stdout, "\n[%d] %s", comment.ID, comment.Author())
				if !comment.CreatedAt.IsZero() {
					fmt.Fprintf(cli.Stdout, ", %s", comment.CreatedAt.Local().Format(time.DateTime))
				}
				fmt.Fprintf(cli.Stdout, "\n%s\n", comment.Comment)
			}
			return nil
		},
	}
}
