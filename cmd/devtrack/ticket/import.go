// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ticket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/devtrack-foundation/devtrack/cmd/devtrack/cli"
	"github.com/devtrack-foundation/devtrack/lib/rolegate"
	"github.com/devtrack-foundation/devtrack/lib/schema"
)

// importEntry is one ticket in an import file.
type importEntry struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	Assignee    string `json:"assignee"`
	Order       *int   `json:"order"`
}

// importFile is the object form of an import file. A bare array of
// entries is accepted as well.
type importFile struct {
	Tickets []importEntry `json:"tickets"`
}

// ParseImport decodes an import file: JSON with comments and trailing
// commas, holding either an array of tickets or an object with a
// "tickets" array.
func ParseImport(data []byte) ([]importEntry, error) {
	stripped := bytes.TrimSpace(jsonc.ToJSON(data))
	if len(stripped) == 0 {
		return nil, fmt.Errorf("empty import file")
	}
	if stripped[0] == '[' {
		var entries []importEntry
		if err := json.Unmarshal(stripped, &entries); err != nil {
			return nil, fmt.Errorf("parsing ticket list: %w", err)
		}
		return entries, nil
	}
	var file importFile
	if err := json.Unmarshal(stripped, &file); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return file.Tickets, nil
}

// drafts validates every entry and converts it to a draft for
// projectID. Assignees are resolved against members. All problems are
// reported together, by entry number.
func drafts(entries []importEntry, projectID int64, members []schema.ProjectMember) ([]schema.TicketDraft, error) {
	var problems []string
	result := make([]schema.TicketDraft, 0, len(entries))
	for index, entry := range entries {
		fail := func(format string, args ...any) {
			problems = append(problems, fmt.Sprintf("ticket %d: %s", index+1, fmt.Sprintf(format, args...)))
		}
		draft := schema.TicketDraft{
			Title:     strings.TrimSpace(entry.Title),
			ProjectID: projectID,
			Order:     entry.Order,
		}
		if draft.Title == "" {
			fail("a title is required")
		}
		var err error
		if draft.IssueType, err = ParseIssueType(entry.Type); err != nil {
			fail("%s", message(err))
		}
		if draft.Priority, err = ParsePriority(entry.Priority); err != nil {
			fail("%s", message(err))
		}
		if draft.Status, err = ParseStatus(entry.Status); err != nil {
			fail("%s", message(err))
		}
		if description := entry.Description; strings.TrimSpace(description) != "" {
			draft.Description = &description
		}
		if entry.Assignee != "" {
			assignee, err := resolveAssignee(members, entry.Assignee)
			if err != nil {
				fail("%s", message(err))
			} else {
				draft.AssignedToID = &assignee.UserID
			}
		}
		if draft.IssueType == "" {
			draft.IssueType = schema.IssueTask
		}
		if draft.Priority == "" {
			draft.Priority = schema.PriorityMedium
		}
		result = append(result, draft)
	}
	if len(problems) > 0 {
		return nil, cli.Validation("%d problem(s) in import file:\n  %s", len(problems), strings.Join(problems, "\n  "))
	}
	return result, nil
}

// message returns an error's text without any hint.
func message(err error) string {
	var toolError *cli.ToolError
	if errors.As(err, &toolError) {
		return toolError.Err.Error()
	}
	return err.Error()
}

type importParams struct {
	cli.Connection
	cli.JSONOutput
	DryRun bool `flag:"dry-run,n" desc:"validate the file without creating anything"`
}

type importResult struct {
	Created []schema.Ticket `json:"created"`
	DryRun  bool            `json:"dry_run,omitempty"`
}

func importCommand() *cli.Command {
	var params importParams

	return &cli.Command{
		Name:    "import",
		Summary: "Create tickets from a JSONC file (ADMIN or DEV)",
		Description: `Create tickets listed in a file. The file is JSON that may contain
// and /* */ comments and trailing commas. It holds an array of
tickets, or an object whose "tickets" key holds the array. Each ticket
has a required "title" and optional "description", "type",
"priority", "status", "assignee" (email or user ID), and "order".

Every entry is validated before anything is created. Creation stops
at the first ticket the server rejects.`,
		Usage: "devtrack ticket import <project-id> <file> [flags]",
		Examples: []cli.Example{
			{
				Description: "Check a backlog file without creating tickets",
				Command:     "devtrack ticket import 3 backlog.jsonc --dry-run",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := cli.ExpectArgs(args, "devtrack ticket import <project-id> <file>", "project ID", "file"); err != nil {
				return err
			}
			projectID, err := cli.ParseID("project", args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return cli.Internal("reading %s: %w", args[1], err)
			}
			entries, err := ParseImport(data)
			if err != nil {
				return cli.Validation("%s: %w", args[1], err)
			}
			if len(entries) == 0 {
				return cli.Validation("%s lists no tickets", args[1])
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
			members, err := client.API.ListMembers(ctx, projectID)
			if err != nil {
				return cli.FromAPI("list members", err)
			}
			ticketDrafts, err := drafts(entries, projectID, members)
			if err != nil {
				return err
			}

			result := importResult{DryRun: params.DryRun}
			if !params.DryRun {
				for index, draft := range ticketDrafts {
					ticket, err := client.API.CreateTicket(ctx, draft)
					if err != nil {
						logger.Warn("import stopped", "project_id", projectID, "entry", index+1, "created", len(result.Created), "error", err)
						return cli.FromAPI(fmt.Sprintf("import ticket %d (%s); %d created before it", index+1, draft.Title, len(result.Created)), err)
					}
					result.Created = append(result.Created, ticket)
				}
				logger.Info("tickets imported", "project_id", projectID, "count", len(result.Created))
			}

			if done, err := params.EmitJSON(result); done {
				return err
			}
			if params.DryRun {
				fmt.Fprintf(cli.Stdout, "%d tickets are valid; nothing was created\n", len(ticketDrafts))
				return nil
			}
			for _, ticket := range result.Created {
				fmt.Fprintf(cli.Stdout, "#%d\t%s\t%s\n", ticket.ID, ticket.Status, ticket.Title)
			}
			fmt.Fprintf(cli.Stdout, "Imported %d tickets into #%d %s\n", len(result.Created), membership.ID, membership.Name)
			return nil
		},
	}
}
