// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package comment implements the comment commands on top of the
// comment thread manager.
package comment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/devtrack-foundation/devtrack/cmd/devtrack/cli"
	"github.com/devtrack-foundation/devtrack/lib/comments"
	"github.com/devtrack-foundation/devtrack/lib/rolegate"
	"github.com/devtrack-foundation/devtrack/lib/schema"
)

// Command returns the "comment" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "comment",
		Summary: "Read and write ticket comments",
		Description: `Read and write the discussion thread of a ticket. Any project
member may comment; only a comment's author may edit or delete it.`,
		Subcommands: []*cli.Command{
			listCommand(),
			addCommand(),
			editCommand(),
			deleteCommand(),
			countCommand(),
		},
	}
}

func openThread(client *cli.Client, ticketID int64, logger *slog.Logger) (*comments.Thread, error) {
	thread, err := comments.Open(comments.Config{
		API:         client.API,
		CurrentUser: client.Session.CurrentUser,
		Logger:      logger,
	}, ticketID)
	if err != nil {
		return nil, cli.Internal("%w", err)
	}
	return thread, nil
}

// commentText joins the text arguments, or reads Stdin when the only
// text argument is "-".
func commentText(args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(cli.Stdin)
		if err != nil {
			return "", cli.Internal("reading comment from stdin: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}

// checkText applies the length rules before anything is sent.
func checkText(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return cli.Validation("comment text is required")
	}
	if length := utf8.RuneCountInString(trimmed); length > comments.MaxLength {
		return cli.Validation("comment is %d characters; the limit is %d", length, comments.MaxLength)
	}
	return nil
}

// --- list ---

type listParams struct {
	cli.Connection
	cli.JSONOutput
	Skip  int  `flag:"skip" desc:"comments to skip"`
	Limit int  `flag:"limit" desc:"comments per page" default:"50"`
	All   bool `flag:"all" desc:"fetch every page"`
}

func listCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List a ticket's comments, oldest first",
		Usage:   "devtrack comment list <ticket-id> [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := cli.ExpectArgs(args, "devtrack comment list <ticket-id>", "ticket ID"); err != nil {
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

			thread, err := openThread(client, ticketID, logger)
			if err != nil {
				return err
			}
			defer thread.Close()

			if err := thread.LoadComments(ctx, schema.Page{Skip: params.Skip, Limit: params.Limit}); err != nil {
				return cli.FromAPI("list comments", err)
			}
			for params.All && thread.HasMore() {
				added, err := thread.LoadMore(ctx)
				if err != nil {
					return cli.FromAPI("list comments", err)
				}
				if added == 0 {
					break
				}
			}

			list := thread.Comments()
			if done, err := params.EmitJSON(list); done {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintf(cli.Stdout, "No comments on ticket #%d.\n", ticketID)
				return nil
			}
			for index, comment := range list {
				if index > 0 {
					fmt.Fprintln(cli.Stdout)
				}
				fmt.Fprintf(cli.Stdout, "[%d] %s", comment.ID, comment.Author())
				if !comment.CreatedAt.IsZero() {
					fmt.Fprintf(cli.Stdout, ", %s", comment.CreatedAt.Local().Format(time.DateTime))
				}
				fmt.Fprintf(cli.Stdout, "\n%s\n", comment.Comment)
			}
			if thread.HasMore() {
				fmt.Fprintf(cli.Stderr, "More comments follow; use --skip %d or --all.\n", params.Skip+len(list))
			}
			return nil
		},
	}
}

// --- add ---

type addParams struct {
	cli.Connection
	cli.JSONOutput
}

func addCommand() *cli.Command {
	var params addParams

	return &cli.Command{
		Name:    "add",
		Summary: "Comment on a ticket",
		Description: `Post a comment on a ticket. The text is the remaining arguments, or
stdin when the text is "-". Comments are at most 5000 characters.`,
		Usage: "devtrack comment add <ticket-id> <text...>",
		Examples: []cli.Example{
			{
				Description: "Comment from a file",
				Command:     "devtrack comment add 12 - < notes.md",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) < 2 {
				return cli.ExpectArgs(args, "devtrack comment add <ticket-id> <text...>", "ticket ID", "text")
			}
			ticketID, err := cli.ParseID("ticket", args[0])
			if err != nil {
				return err
			}
			text, err := commentText(args[1:])
			if err != nil {
				return err
			}
			if err := checkText(text); err != nil {
				return err
			}
			client, err := params.ConnectSignedIn(logger)
			if err != nil {
				return err
			}
			ctx, cancel := client.CallContext(ctx)
			defer cancel()

			thread, err := openThread(client, ticketID, logger)
			if err != nil {
				return err
			}
			defer thread.Close()

			comment, err := thread.CreateComment(ctx, text)
			if err != nil {
				return cli.FromAPI("add comment", err)
			}
			if done, err := params.EmitJSON(comment); done {
				return err
			}
			fmt.Fprintf(cli.Stdout, "Added comment #%d to ticket #%d\n", comment.ID, ticketID)
			return nil
		},
	}
}

// --- edit ---

type editParams struct {
	cli.Connection
	cli.JSONOutput
	Patch bool `flag:"patch" desc:"send a partial update (PATCH) instead of a replacement (PUT)"`
}

func editCommand() *cli.Command {
	var params editParams

	return &cli.Command{
		Name:    "edit",
		Summary: "Replace the text of your comment",
		Usage:   "devtrack comment edit <comment-id> <text...>",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) < 2 {
				return cli.ExpectArgs(args, "devtrack comment edit <comment-id> <text...>", "comment ID", "text")
			}
			commentID, err := cli.ParseID("comment", args[0])
			if err != nil {
				return err
			}
			text, err := commentText(args[1:])
			if err != nil {
				return err
			}
			if err := checkText(text); err != nil {
				return err
			}
			client, err := params.ConnectSignedIn(logger)
			if err != nil {
				return err
			}
			ctx, cancel := client.CallContext(ctx)
			defer cancel()

			existing, err := ownComment(ctx, client, commentID)
			if err != nil {
				return err
			}

			var updated schema.Comment
			if params.Patch {
				updated, err = client.API.PatchComment(ctx, commentID, strings.TrimSpace(text))
			} else {
				thread, openErr := openThread(client, existing.TicketID, logger)
				if openErr != nil {
					return openErr
				}
				defer thread.Close()
				updated, err = thread.UpdateComment(ctx, commentID, text)
			}
			if err != nil {
				return cli.FromAPI("edit comment", err)
			}
			if done, err := params.EmitJSON(updated); done {
				return err
			}
			fmt.Fprintf(cli.Stdout, "Updated comment #%d on ticket #%d\n", updated.ID, existing.TicketID)
			return nil
		},
	}
}

// ownComment fetches a comment and checks that the signed-in user
// wrote it.
func ownComment(ctx context.Context, client *cli.Client, commentID int64) (schema.Comment, error) {
	comment, err := client.API.GetComment(ctx, commentID)
	if err != nil {
		return schema.Comment{}, cli.FromAPI("show comment", err)
	}
	user, err := client.CurrentUser(ctx)
	if err != nil {
		return schema.Comment{}, err
	}
	if !rolegate.CanModifyComment(comment, user) {
		return schema.Comment{}, cli.Forbidden("%s", rolegate.ForbiddenMessage(rolegate.ActionModifyComment, ""))
	}
	return comment, nil
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
		Summary: "Delete your comment",
		Usage:   "devtrack comment delete <comment-id> [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := cli.ExpectArgs(args, "devtrack comment delete <comment-id>", "comment ID"); err != nil {
				return err
			}
			commentID, err := cli.ParseID("comment", args[0])
			if err != nil {
				return err
			}
			client, err := params.ConnectSignedIn(logger)
			if err != nil {
				return err
			}
			ctx, cancel := client.CallContext(ctx)
			defer cancel()

			existing, err := ownComment(ctx, client, commentID)
			if err != nil {
				return err
			}
			confirmed, err := cli.ConfirmOrYes(params.Yes, fmt.Sprintf("Delete comment #%d on ticket #%d?", commentID, existing.TicketID))
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Fprintln(cli.Stderr, "Not deleted.")
				return &cli.ExitError{Code: 1}
			}

			thread, err := openThread(client, existing.TicketID, logger)
			if err != nil {
				return err
			}
			defer thread.Close()
			if err := thread.DeleteComment(ctx, commentID, true); err != nil {
				return cli.FromAPI("delete comment", err)
			}
			fmt.Fprintf(cli.Stdout, "Deleted comment #%d\n", commentID)
			return nil
		},
	}
}

// --- count ---

type countParams struct {
	cli.Connection
	cli.JSONOutput
}

func countCommand() *cli.Command {
	var params countParams

	return &cli.Command{
		Name:        "count",
		Summary:     "Print how many comments a ticket has",
		Description: "Print a ticket's comment count. No sign-in is needed.",
		Usage:       "devtrack comment count <ticket-id>",
		Params:      func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := cli.ExpectArgs(args, "devtrack comment count <ticket-id>", "ticket ID"); err != nil {
				return err
			}
			ticketID, err := cli.ParseID("ticket", args[0])
			if err != nil {
				return err
			}
			client, err := params.Connect(logger)
			if err != nil {
				return err
			}
			ctx, cancel := client.CallContext(ctx)
			defer cancel()

			thread, err := openThread(client, ticketID, logger)
			if err != nil {
				return err
			}
			defer thread.Close()
			count, err := thread.CommentCount(ctx)
			if err != nil {
				return cli.FromAPI("count comments", err)
			}
			if done, err := params.EmitJSON(map[string]int64{"ticket_id": ticketID, "count": int64(count)}); done {
				return err
			}
			fmt.Fprintln(cli.Stdout, count)
			return nil
		},
	}
}
