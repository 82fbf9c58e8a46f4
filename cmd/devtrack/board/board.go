// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package board implements "devtrack board", the interactive kanban
// view, and the board cache inspector.
package board

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/devtrack-foundation/devtrack/cmd/devtrack/cli"
	"github.com/devtrack-foundation/devtrack/lib/boardcache"
	"github.com/devtrack-foundation/devtrack/lib/boardui"
	"github.com/devtrack-foundation/devtrack/lib/codec"
)

type boardParams struct {
	cli.Connection
	Project   int64  `flag:"project,p" desc:"project to open first (default: your first project)"`
	LogFile   string `flag:"log-file" desc:"write JSON log records to this file (in addition to the status bar)"`
	DumpCache bool   `flag:"dump-cache" desc:"list cached board snapshots instead of opening the board"`
}

// Command returns the "board" command.
func Command() *cli.Command {
	var params boardParams

	return &cli.Command{
		Name:    "board",
		Summary: "Open the interactive kanban board",
		Description: `Open a full-screen board with one column per ticket status. Tickets
can be created, moved between columns, and deleted; the detail view
shows the comment thread. Press ? on the board for key bindings.

When the server cannot be reached the board shows the last cached
snapshot of the project, marked stale, until a reload succeeds.

With --dump-cache the cached snapshots are listed instead. Passing a
project ID as well prints that snapshot in CBOR diagnostic notation.`,
		Usage: "devtrack board [project-id] [flags]",
		Examples: []cli.Example{
			{
				Description: "Open project 3",
				Command:     "devtrack board 3",
			},
			{
				Description: "Inspect the cached snapshot of project 3",
				Command:     "devtrack board --dump-cache 3",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 1 {
				return cli.ExpectArgs(args, "devtrack board [project-id]", "project ID")
			}
			projectID := params.Project
			if len(args) == 1 {
				id, err := cli.ParseID("project", args[0])
				if err != nil {
					return err
				}
				projectID = id
			}
			if params.DumpCache {
				return dumpCache(ctx, &params.Connection, projectID, logger)
			}
			return runBoard(ctx, &params, projectID, logger)
		},
	}
}

func runBoard(ctx context.Context, params *boardParams, projectID int64, logger *slog.Logger) error {
	client, err := params.ConnectSignedIn(logger)
	if err != nil {
		return err
	}

	// Records go to the status bar once the program runs; stderr is
	// hidden behind the alternate screen.
	tuiHandler := boardui.NewTUILogHandler(slog.LevelWarn)
	var handler slog.Handler = tuiHandler
	logFile := params.LogFile
	if logFile == "" {
		logFile = client.Config.Log.File
	}
	if logFile != "" {
		fileHandler, closeFile, err := openFileLogHandler(logFile, client.Config.LogLevel())
		if err != nil {
			return cli.Validation("cannot open log file %s: %w", logFile, err)
		}
		defer closeFile()
		handler = fanoutHandler{tuiHandler, fileHandler}
	}
	backgroundLogger := slog.New(handler).With("command", "board")

	manager, release, err := client.Board(projectID, backgroundLogger)
	if err != nil {
		return err
	}
	defer release()

	model, err := boardui.NewModel(boardui.Config{
		Backend:   client.API,
		Board:     manager,
		Session:   client.Session,
		Policy:    client.Config.StatusPolicy(),
		ProjectID: projectID,
		Timeout:   client.Config.Server.Timeout.Std(),
		Logger:    backgroundLogger,
	})
	if err != nil {
		return cli.Internal("%w", err)
	}

	final, err := boardui.Run(ctx, model, boardui.RunOptions{LogHandler: tuiHandler})
	if err != nil {
		return cli.Internal("%w", err)
	}
	if reason, detail := final.Exit(); reason == boardui.ExitSessionEnded {
		if detail == "" {
			detail = "the server rejected the session token"
		}
		return cli.Forbidden("session ended: %s", detail).WithHint(cli.LoginHint)
	}
	return nil
}

func dumpCache(ctx context.Context, connection *cli.Connection, projectID int64, logger *slog.Logger) error {
	config, err := connection.Config()
	if err != nil {
		return err
	}
	if !config.Cache.Enabled {
		return cli.Validation("the board cache is disabled").WithHint("Set cache.enabled: true in the configuration file.")
	}
	client := &cli.Client{Config: config}
	cache := client.OpenCache(logger)
	if cache == nil {
		return cli.Internal("cannot open the board cache at %s", config.Cache.Path)
	}
	defer cache.Close()

	if projectID != 0 {
		encoded, entry, found, err := cache.Raw(ctx, projectID)
		if err != nil {
			return cli.Internal("%w", err)
		}
		if !found {
			return cli.NotFound("no cached snapshot of project #%d", projectID)
		}
		diagnostic, err := codec.Diagnose(encoded)
		if err != nil {
			return cli.Internal("decoding snapshot of project #%d: %w", projectID, err)
		}
		fmt.Fprintf(cli.Stderr, "project #%d, fetched %s, digest %s\n",
			entry.ProjectID, entry.FetchedAt.Local().Format(time.DateTime), entry.Digest)
		fmt.Fprintln(cli.Stdout, diagnostic)
		return nil
	}

	entries, err := cache.Entries(ctx)
	if err != nil {
		return cli.Internal("%w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintf(cli.Stdout, "No cached boards in %s.\n", config.Cache.Path)
		return nil
	}
	writeEntries(entries)
	return nil
}

func writeEntries(entries []boardcache.Entry) {
	writer := tabwriter.NewWriter(cli.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "PROJECT\tFETCHED\tSIZE\tSTORED\tCOMPRESSION\tDIGEST")
	for _, entry := range entries {
		digest := entry.Digest
		if len(digest) > 16 {
			digest = digest[:16]
		}
		fmt.Fprintf(writer, "#%d\t%s\t%d\t%d\t%s\t%s\n",
			entry.ProjectID, entry.FetchedAt.Local().Format(time.DateTime),
			entry.Size, entry.Stored, entry.Compression, digest)
	}
	writer.Flush()
}

// openFileLogHandler creates a JSON handler appending to path.
func openFileLogHandler(path string, level slog.Level) (slog.Handler, func(), error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, err
	}
	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return handler, func() { file.Close() }, nil
}

// fanoutHandler sends each record to every handler enabled for its
// level.
type fanoutHandler []slog.Handler

func (handlers fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (handlers fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (handlers fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithAttrs(attrs)
	}
	return derived
}

func (handlers fanoutHandler) WithGroup(name string) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithGroup(name)
	}
	return derived
}
