// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package project

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/devtrack-foundation/devtrack/cmd/devtrack/cli"
	"github.com/devtrack-foundation/devtrack/lib/rolegate"
	"github.com/devtrack-foundation/devtrack/lib/schema"
)

// MemberCommand returns the "member" command group.
func MemberCommand() *cli.Command {
	return &cli.Command{
		Name:    "member",
		Summary: "List and add project members",
		Subcommands: []*cli.Command{
			memberListCommand(),
			memberAddCommand(),
		},
	}
}

type memberListParams struct {
	cli.Connection
	cli.JSONOutput
}

func memberListCommand() *cli.Command {
	var params memberListParams

	return &cli.Command{
		Name:    "list",
		Summary: "List a project's members and their roles",
		Usage:   "devtrack member list <project-id> [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := cli.ExpectArgs(args, "devtrack member list <project-id>", "project ID"); err != nil {
				return err
			}
			projectID, err := cli.ParseID("project", args[0])
			if err != nil {
				return err
			}
			client, err := params.ConnectSignedIn(logger)
			if err != nil {
				return err
			}
			ctx, cancel := client.CallContext(ctx)
			defer cancel()

			members, err := client.API.ListMembers(ctx, projectID)
			if err != nil {
				return cli.FromAPI("list members", err)
			}
			if done, err := params.EmitJSON(members); done {
				return err
			}
			return writeMembers(members)
		},
	}
}

type memberAddParams struct {
	cli.Connection
	cli.JSONOutput
	Role string `flag:"role,r" desc:"role to grant: ADMIN, DEV, or VIEWER" default:"DEV"`
}

func memberAddCommand() *cli.Command {
	var params memberAddParams

	return &cli.Command{
		Name:    "add",
		Summary: "Add a registered user to a project (ADMIN)",
		Description: `Add a registered user to a project with a role. Only the project's
ADMINs may add members; the user must already have an account.`,
		Usage: "devtrack member add <project-id> <email> [--role ROLE]",
		Examples: []cli.Example{
			{
				Description: "Add a read-only member",
				Command:     "devtrack member add 3 bob@example.com --role VIEWER",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := cli.ExpectArgs(args, "devtrack member add <project-id> <email>", "project ID", "email"); err != nil {
				return err
			}
			projectID, err := cli.ParseID("project", args[0])
			if err != nil {
				return err
			}
			email := strings.TrimSpace(args[1])
			role := schema.Role(strings.ToUpper(strings.TrimSpace(params.Role)))
			if !role.IsKnown() {
				return cli.Validation("unknown role %q (want ADMIN, DEV, or VIEWER)", params.Role)
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
			if !rolegate.CanManageMembers(membership.Role) {
				return cli.Forbidden("%s", rolegate.ForbiddenMessage(rolegate.ActionManageMembers, membership.Role))
			}
			record, err := client.API.AddMember(ctx, projectID, schema.MemberInvite{Email: email, Role: role})
			if err != nil {
				return cli.FromAPI("add member", err)
			}
			logger.Info("member added", "project_id", projectID, "user_id", record.UserID, "role", record.Role)
			if done, err := params.EmitJSON(record); done {
				return err
			}
			fmt.Fprintf(cli.Stdout, "Added %s to #%d %s as %s\n", email, membership.ID, membership.Name, record.Role)
			return nil
		},
	}
}
