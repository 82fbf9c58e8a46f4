// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command devtrack is the DevTrack command-line client.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/devtrack-foundation/devtrack/cmd/devtrack/cli"
	"github.com/devtrack-foundation/devtrack/cmd/devtrack/commands"
)

// logLevelEnv overrides the stderr log level ("debug", "info", ...).
const logLevelEnv = "DEVTRACK_LOG_LEVEL"

func main() {
	if err := run(); err != nil {
		// Commands that already reported their outcome return an
		// ExitError carrying only the exit code.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(cli.ExitCodeFor(err))
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := slog.LevelWarn
	if value := os.Getenv(logLevelEnv); value != "" {
		if err := level.UnmarshalText([]byte(value)); err != nil {
			return cli.Validation("$%s: %w", logLevelEnv, err)
		}
	}
	return commands.Root().Execute(ctx, os.Args[1:], cli.NewCommandLogger(level))
}
