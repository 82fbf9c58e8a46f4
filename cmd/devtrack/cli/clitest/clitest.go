// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clitest runs devtrack commands against an in-process fake
// DevTrack server with isolated configuration, session, and cache
// paths.
package clitest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/devtrack-foundation/devtrack/cmd/devtrack/cli"
	"github.com/devtrack-foundation/devtrack/lib/apitest"
	"github.com/devtrack-foundation/devtrack/lib/schema"
	"github.com/devtrack-foundation/devtrack/lib/session"
	"github.com/devtrack-foundation/devtrack/lib/testutil"
)

// Env is one isolated client environment.
type Env struct {
	Server *apitest.Server

	// Dir is the temporary XDG config home.
	Dir string

	// Stdin is fed to commands that read standard input.
	Stdin string
}

// Result is the captured outcome of one command.
type Result struct {
	Stdout string
	Stderr string
	Err    error
}

// Setup starts a fake server and points $DEVTRACK_SERVER at it. The
// calling test must not be parallel.
func Setup(t *testing.T) *Env {
	t.Helper()
	directory := testutil.ConfigDir(t)
	server := apitest.New(t)
	t.Setenv("DEVTRACK_SERVER", server.URL())
	return &Env{Server: server, Dir: directory}
}

// SignIn writes a session file for user, as "devtrack login" would.
func (env *Env) SignIn(t *testing.T, user schema.User) {
	t.Helper()
	store := session.FileStore{Path: session.DefaultPath()}
	if err := store.Save(session.Persisted{Token: env.Server.TokenFor(user.ID), Server: env.Server.URL()}); err != nil {
		t.Fatalf("saving session: %v", err)
	}
}

// NewUser registers a user with the fake server and signs in as them.
func (env *Env) NewUser(t *testing.T, name string) schema.User {
	t.Helper()
	user := env.Server.AddUser(name, testutil.UniqueEmail(strings.ToLower(name)), "password")
	env.SignIn(t, user)
	return user
}

// Run executes command with args, capturing its output.
func (env *Env) Run(t *testing.T, command *cli.Command, args ...string) Result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	savedStdout, savedStderr, savedStdin := cli.Stdout, cli.Stderr, cli.Stdin
	cli.Stdout, cli.Stderr = &stdout, &stderr
	cli.Stdin = strings.NewReader(env.Stdin)
	defer func() {
		cli.Stdout, cli.Stderr, cli.Stdin = savedStdout, savedStderr, savedStdin
	}()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := command.Execute(context.Background(), args, logger)
	return Result{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
}

// MustRun is Run that fails the test when the command fails.
func (env *Env) MustRun(t *testing.T, command *cli.Command, args ...string) Result {
	t.Helper()
	result := env.Run(t, command, args...)
	if result.Err != nil {
		t.Fatalf("%s %s: %v\nstderr: %s", command.Name, strings.Join(args, " "), result.Err, result.Stderr)
	}
	return result
}

// Category returns the ToolError category of err, or "" when err is
// not a ToolError.
func Category(err error) cli.ErrorCategory {
	var toolError *cli.ToolError
	if !errors.As(err, &toolError) {
		return ""
	}
	return toolError.Category
}
