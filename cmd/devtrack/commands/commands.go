// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete devtrack command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	authcmd "github.com/devtrack-foundation/devtrack/cmd/devtrack/auth"
	boardcmd "github.com/devtrack-foundation/devtrack/cmd/devtrack/board"
	"github.com/devtrack-foundation/devtrack/cmd/devtrack/cli"
	commentcmd "github.com/devtrack-foundation/devtrack/cmd/devtrack/comment"
	dashboardcmd "github.com/devtrack-foundation/devtrack/cmd/devtrack/dashboard"
	projectcmd "github.com/devtrack-foundation/devtrack/cmd/devtrack/project"
	ticketcmd "github.com/devtrack-foundation/devtrack/cmd/devtrack/ticket"
	"github.com/devtrack-foundation/devtrack/lib/version"
)

// Root builds and returns the complete devtrack command tree.
func Root() *cli.Command {
	subcommands := authcmd.Commands()
	subcommands = append(subcommands,
		projectcmd.Command(),
		projectcmd.MemberCommand(),
		ticketcmd.Command(),
		commentcmd.Command(),
		dashboardcmd.Command(),
		boardcmd.Command(),
		&cli.Command{
			Name:    "version",
			Summary: "Print version information",
			Run: func(_ context.Context, args []string, _ *slog.Logger) error {
				if err := cli.ExpectArgs(args, "devtrack version"); err != nil {
					return err
				}
				fmt.Fprintf(cli.Stdout, "devtrack %s\n", version.Full())
				return nil
			},
		},
	)

	return &cli.Command{
		Name: "devtrack",
		Description: `DevTrack: project and ticket tracking from the terminal.

Sign in to a DevTrack server, then manage projects, their members,
tickets, and ticket comments. "devtrack board" opens the interactive
kanban board.`,
		Subcommands: subcommands,
		Examples: []cli.Example{
			{
				Description: "Create an account and sign in",
				Command:     "devtrack register ada@example.com --name Ada",
			},
			{
				Description: "Sign in to a specific server",
				Command:     "devtrack login ada@example.com --server https://devtrack.example.com",
			},
			{
				Description: "List your projects with your role in each",
				Command:     "devtrack project list",
			},
			{
				Description: "Show the board of project 3 as text",
				Command:     "devtrack ticket list 3",
			},
			{
				Description: "Move ticket 12 to In Progress",
				Command:     "devtrack ticket status 12 in-progress",
			},
			{
				Description: "Open the interactive board",
				Command:     "devtrack board 3",
			},
		},
	}
}
