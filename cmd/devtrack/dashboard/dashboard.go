// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package dashboard implements "devtrack dashboard": account-wide
// ticket counts and recent activity.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/devtrack-foundation/devtrack/cmd/devtrack/cli"
	"github.com/devtrack-foundation/devtrack/lib/schema"
)

type dashboardParams struct {
	cli.Connection
	cli.JSONOutput
	Activity bool `flag:"activity,a" desc:"also list recently created tickets" default:"true"`
}

type dashboardResult struct {
	Stats    schema.DashboardStats  `json:"stats"`
	Activity []schema.ActivityEntry `json:"recent_activity,omitempty"`
}

// Command returns the "dashboard" command.
func Command() *cli.Command {
	var params dashboardParams

	return &cli.Command{
		Name:    "dashboard",
		Summary: "Show ticket counts across your projects",
		Description: `Show how many projects and tickets you can see, broken down by
status, followed by the most recently created tickets.`,
		Usage:  "devtrack dashboard [flags]",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := cli.ExpectArgs(args, "devtrack dashboard"); err != nil {
				return err
			}
			client, err := params.ConnectSignedIn(logger)
			if err != nil {
				return err
			}
			ctx, cancel := client.CallContext(ctx)
			defer cancel()

			var result dashboardResult
			result.Stats, err = client.API.DashboardStats(ctx)
			if err != nil {
				return cli.FromAPI("dashboard", err)
			}
			if params.Activity {
				result.Activity, err = client.API.RecentActivity(ctx)
				if err != nil {
					return cli.FromAPI("recent activity", err)
				}
			}
			if done, err := params.EmitJSON(result); done {
				return err
			}
			writeDashboard(result)
			return nil
		},
	}
}

func writeDashboard(result dashboardResult) {
	stats := result.Stats
	writer := tabwriter.NewWriter(cli.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Projects\t%d\t%s\n", stats.TotalProjects, stats.ProjectChange)
	fmt.Fprintf(writer, "Tickets\t%d\t%s\n", stats.TotalTickets, stats.TicketChange)
	fmt.Fprintf(writer, "  %s\t%d\t\n", schema.StatusTodo.Label(), stats.TodoTickets)
	fmt.Fprintf(writer, "  %s\t%d\t\n", schema.StatusInProgress.Label(), stats.InProgressTickets)
	fmt.Fprintf(writer, "  %s\t%d\t\n", schema.StatusDone.Label(), stats.CompletedTickets)
	writer.Flush()

	if len(result.Activity) == 0 {
		return
	}
	fmt.Fprintln(cli.Stdout, "\nRecent activity")
	writer = tabwriter.NewWriter(cli.Stdout, 0, 4, 2, ' ', 0)
	for _, entry := range result.Activity {
		assignee := "unassigned"
		if entry.AssignedToEmail != nil && *entry.AssignedToEmail != "" {
			assignee = *entry.AssignedToEmail
		}
		fmt.Fprintf(writer, "  #%d\t%s\t%s\t%s\t%s\t%s\n",
			entry.ID, entry.Status.Label(), entry.Priority, entry.ProjectName, assignee, entry.Title)
	}
	writer.Flush()
}
