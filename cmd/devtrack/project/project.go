// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package project implements the project and member commands.
package project

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/devtrack-foundation/devtrack/cmd/devtrack/cli"
	"github.com/devtrack-foundation/devtrack/lib/rolegate"
	"github.com/devtrack-foundation/devtrack/lib/schema"
)

// Command returns the "project" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "project",
		Summary: "List, create, and manage projects",
		Subcommands: []*cli.Command{
			listCommand(),
			createCommand(),
			showCommand(),
			updateCommand(),
			deleteCommand(),
		},
	}
}

// --- list ---

type listParams struct {
	cli.Connection
	cli.JSONOutput
}

func listCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List the projects you belong to, with your role",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := cli.ExpectArgs(args, "devtrack project list"); err != nil {
				return err
			}
			client, err := params.ConnectSignedIn(logger)
			if err != nil {
				return err
			}
			ctx, cancel := client.CallContext(ctx)
			defer cancel()

			projects, err := client.API.ListProjects(ctx)
			if err != nil {
				return cli.FromAPI("list projects", err)
			}
			if done, err := params.EmitJSON(projects); done {
				return err
			}
			if len(projects) == 0 {
				fmt.Fprintln(cli.Stdout, "You are not a member of any project yet.")
				return nil
			}
			tw := tabwriter.NewWriter(cli.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tROLE\tDESCRIPTION")
			for _, project := range projects {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", project.ID, project.Name, project.Role, firstLine(project.Description))
			}
			return tw.Flush()
		},
	}
}

// --- create ---

type createParams struct {
	cli.Connection
	cli.JSONOutput
	Description string `flag:"description,d" desc:"project description"`
}

func createCommand() *cli.Command {
	var params createParams

	return &cli.Command{
		Name:    "create",
		Summary: "Create a project; you become its ADMIN",
		Usage:   "devtrack project create <name> [flags]",
		Examples: []cli.Example{
			{
				Description: "Create a project with a description",
				Command:     "devtrack project create Apollo -d 'Moon landing tracker'",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := cli.ExpectArgs(args, "devtrack project create <name>", "name"); err != nil {
				return err
			}
			name := strings.TrimSpace(args[0])
			if name == "" {
				return cli.Validation("project name must not be blank")
			}
			client, err := params.ConnectSignedIn(logger)
			if err != nil {
				return err
			}
			ctx, cancel := client.CallContext(ctx)
			defer cancel()

			draft := schema.ProjectDraft{Name: name}
			if params.Description != "" {
				draft.Description = &params.Description
			}
			project, err := client.API.CreateProject(ctx, draft)
			if err != nil {
				return cli.FromAPI("create project", err)
			}
			logger.Info("project created", "project_id", project.ID)
			if done, err := params.EmitJSON(project); done {
				return err
			}
			fmt.Fprintf(cli.Stdout, "Created project #%d %s\n", project.ID, project.Name)
			return nil
		},
	}
}

// --- show ---

type showParams struct {
	cli.Connection
	cli.JSONOutput
}

type projectView struct {
	schema.ProjectDetail
	Role    schema.Role            `json:"role"`
	Members []schema.ProjectMember `json:"members"`
}

func showCommand() *cli.Command {
	var params showParams

	return &cli.Command{
		Name:    "show",
		Summary: "Show a project and its members",
		Usage:   "devtrack project show <project-id> [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := cli.ExpectArgs(args, "devtrack project show <project-id>", "project ID"); err != nil {
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

			membership, err := client.Membership(ctx, projectID)
			if err != nil {
				return err
			}
			detail, err := client.API.GetProject(ctx, projectID)
			if err != nil {
				return cli.FromAPI("show project", err)
			}
			members, err := client.API.ListMembers(ctx, projectID)
			if err != nil {
				return cli.FromAPI("list members", err)
			}
			view := projectView{ProjectDetail: detail, Role: membership.Role, Members: members}
			if done, err := params.EmitJSON(view); done {
				return err
			}

			fmt.Fprintf(cli.Stdout, "#%d %s\n", detail.ID, detail.Name)
			if detail.Description != "" {
				fmt.Fprintf(cli.Stdout, "\n%s\n", detail.Description)
			}
			fmt.Fprintf(cli.Stdout, "\nYour role: %s\n\nMembers:\n", membership.Role)
			return writeMembers(members)
		},
	}
}

// --- update ---

type updateParams struct {
	cli.Connection
	cli.JSONOutput
	Name        string `flag:"name" desc:"new project name"`
	Description string `flag:"description,d" desc:"new project description"`
}

func updateCommand() *cli.Command {
	var params updateParams

	return &cli.Command{
		Name:    "update",
		Summary: "Rename or re-describe a project (ADMIN)",
		Usage:   "devtrack project update <project-id> [--name NAME] [--description TEXT]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := cli.ExpectArgs(args, "devtrack project update <project-id> [flags]", "project ID"); err != nil {
				return err
			}
			projectID, err := cli.ParseID("project", args[0])
			if err != nil {
				return err
			}
			var update schema.ProjectUpdate
			if name := strings.TrimSpace(params.Name); name != "" {
				update.Name = &name
			}
			if params.Description != "" {
				update.Description = &params.Description
			}
			if update.Name == nil && update.Description == nil {
				return cli.Validation("nothing to update").WithHint("Pass --name, --description, or both.")
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
			if !rolegate.CanUpdateProject(membership.Role) {
				return cli.Forbidden("%s", rolegate.ForbiddenMessage(rolegate.ActionUpdateProject, membership.Role))
			}
			detail, err := client.API.UpdateProject(ctx, projectID, update)
			if err != nil {
				return cli.FromAPI("update project", err)
			}
			if done, err := params.EmitJSON(detail); done {
				return err
			}
			fmt.Fprintf(cli.Stdout, "Updated project #%d %s\n", detail.ID, detail.Name)
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
		Summary: "Delete a project and its tickets (ADMIN)",
		Usage:   "devtrack project delete <project-id> [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := cli.ExpectArgs(args, "devtrack project delete <project-id>", "project ID"); err != nil {
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

			membership, err := client.Membership(ctx, projectID)
			if err != nil {
				return err
			}
			if !rolegate.CanDeleteProject(membership.Role) {
				return cli.Forbidden("%s", rolegate.ForbiddenMessage(rolegate.ActionDeleteProject, membership.Role))
			}
			confirmed, err := cli.ConfirmOrYes(params.Yes,
				fmt.Sprintf("Delete project #%d %s with all its tickets and comments?", membership.ID, membership.Name))
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Fprintln(cli.Stderr, "Not deleted.")
				return &cli.ExitError{Code: 1}
			}
			if err := client.API.DeleteProject(ctx, projectID); err != nil {
				return cli.FromAPI("delete project", err)
			}
			logger.Info("project deleted", "project_id", projectID)
			fmt.Fprintf(cli.Stdout, "Deleted project #%d %s\n", membership.ID, membership.Name)
			return nil
		},
	}
}

func writeMembers(members []schema.ProjectMember) error {
	tw := tabwriter.NewWriter(cli.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "USER\tEMAIL\tNAME\tROLE")
	for _, member := range members {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", member.UserID, member.Email, member.Name, member.Role)
	}
	return tw.Flush()
}

// firstLine returns the first line of text, marked with an ellipsis
// when more follows.
func firstLine(text string) string {
	line, rest, found := strings.Cut(strings.TrimSpace(text), "\n")
	if found && strings.TrimSpace(rest) != "" {
		return line + "…"
	}
	return line
}
