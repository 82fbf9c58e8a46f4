// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package auth implements the account commands: register, login,
// logout, and whoami.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/devtrack-foundation/devtrack/cmd/devtrack/cli"
	"github.com/devtrack-foundation/devtrack/lib/schema"
	"github.com/devtrack-foundation/devtrack/lib/session"
)

// Commands returns the top-level account commands.
func Commands() []*cli.Command {
	return []*cli.Command{
		registerCommand(),
		loginCommand(),
		logoutCommand(),
		whoamiCommand(),
	}
}

type registerParams struct {
	cli.Connection
	Name         string `flag:"name" desc:"display name"`
	PasswordFile string `flag:"password-file" desc:"read the password from a file (- for stdin) instead of prompting"`
	NoLogin      bool   `flag:"no-login" desc:"create the account without signing in"`
}

func registerCommand() *cli.Command {
	var params registerParams

	return &cli.Command{
		Name:    "register",
		Summary: "Create an account and sign in",
		Description: `Create a DevTrack account, then sign in with it unless --no-login
is given. The password is prompted for on the terminal.`,
		Usage: "devtrack register <email> [--name NAME] [flags]",
		Examples: []cli.Example{
			{
				Description: "Register and sign in",
				Command:     "devtrack register alice@example.com --name Alice",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := cli.ExpectArgs(args, "devtrack register <email> [--name NAME]", "email"); err != nil {
				return err
			}
			email := strings.TrimSpace(args[0])
			name := strings.TrimSpace(params.Name)

			client, err := params.Connect(logger)
			if err != nil {
				return err
			}
			password, err := cli.ReadPassword(params.PasswordFile)
			if err != nil {
				return err
			}

			ctx, cancel := client.CallContext(ctx)
			defer cancel()

			if err := client.API.Register(ctx, schema.Registration{Name: name, Email: email, Password: password}); err != nil {
				return cli.FromAPI("register", err)
			}
			logger.Info("account registered", "email", email)
			fmt.Fprintf(cli.Stderr, "Registered %s\n", email)
			if params.NoLogin {
				return nil
			}

			user, err := client.API.Login(ctx, schema.Credentials{Email: email, Password: password})
			if err != nil {
				return cli.FromAPI("sign in", err)
			}
			fmt.Fprintf(cli.Stderr, "Signed in as %s\n", describeUser(user))
			return nil
		},
	}
}

type loginParams struct {
	cli.Connection
	PasswordFile string `flag:"password-file" desc:"read the password from a file (- for stdin) instead of prompting"`
}

func loginCommand() *cli.Command {
	var params loginParams

	return &cli.Command{
		Name:    "login",
		Summary: "Sign in and save the session",
		Description: `Sign in to a DevTrack server and save the session token, so later
commands run as this user. The token is stored in the session file
(see DEVTRACK_SESSION_FILE) readable only by you.

A failed sign-in leaves any saved session untouched.`,
		Usage: "devtrack login <email> [flags]",
		Examples: []cli.Example{
			{
				Description: "Sign in interactively",
				Command:     "devtrack login alice@example.com",
			},
			{
				Description: "Sign in to another server with the password from a file",
				Command:     "devtrack login alice@example.com --server https://devtrack.example.com --password-file ~/.devtrack-password",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := cli.ExpectArgs(args, "devtrack login <email>", "email"); err != nil {
				return err
			}
			client, err := params.Connect(logger)
			if err != nil {
				return err
			}
			password, err := cli.ReadPassword(params.PasswordFile)
			if err != nil {
				return err
			}

			ctx, cancel := client.CallContext(ctx)
			defer cancel()

			user, err := client.API.Login(ctx, schema.Credentials{Email: args[0], Password: password})
			if err != nil {
				return cli.FromAPI("sign in", err)
			}
			logger.Debug("signed in", "user_id", user.ID, "server", client.API.BaseURL())
			fmt.Fprintf(cli.Stderr, "Signed in as %s\n", describeUser(user))
			fmt.Fprintf(cli.Stderr, "Session saved to %s\n", client.Config.SessionPath())
			return nil
		},
	}
}

type logoutParams struct {
	ConfigPath string `flag:"config" desc:"configuration file"`
}

func logoutCommand() *cli.Command {
	var params logoutParams

	return &cli.Command{
		Name:    "logout",
		Summary: "Forget the saved session",
		Description: `Delete the saved session token. The server keeps no session state,
so nothing is sent. An unreadable session file is removed as well.`,
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if err := cli.ExpectArgs(args, "devtrack logout"); err != nil {
				return err
			}
			connection := cli.Connection{ConfigPath: params.ConfigPath}
			cfg, err := connection.Config()
			if err != nil {
				return err
			}
			store := session.FileStore{Path: cfg.SessionPath()}
			sess, err := session.Open(store, logger)
			if err != nil {
				logger.Warn("removing unreadable session file", "path", store.Path, "error", err)
				if err := store.Clear(); err != nil {
					return cli.Internal("remove session file: %w", err)
				}
				fmt.Fprintln(cli.Stderr, "Signed out.")
				return nil
			}
			if !sess.Authenticated() {
				fmt.Fprintln(cli.Stderr, "Not signed in.")
				return nil
			}
			if err := sess.Logout(); err != nil {
				return cli.Internal("sign out: %w", err)
			}
			fmt.Fprintln(cli.Stderr, "Signed out.")
			return nil
		},
	}
}

type whoamiParams struct {
	cli.Connection
	cli.JSONOutput
}

type whoamiResult struct {
	schema.User
	Server string `json:"server"`
}

func whoamiCommand() *cli.Command {
	var params whoamiParams

	return &cli.Command{
		Name:    "whoami",
		Summary: "Show the signed-in user",
		Description: `Ask the server who the saved session belongs to. An expired or
revoked token is discarded.`,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := cli.ExpectArgs(args, "devtrack whoami"); err != nil {
				return err
			}
			client, err := params.ConnectSignedIn(logger)
			if err != nil {
				return err
			}
			ctx, cancel := client.CallContext(ctx)
			defer cancel()

			user, err := client.API.Me(ctx)
			if err != nil {
				return cli.FromAPI("whoami", err)
			}
			result := whoamiResult{User: user, Server: client.API.BaseURL()}
			if done, err := params.EmitJSON(result); done {
				return err
			}
			fmt.Fprintf(cli.Stdout, "%s on %s\n", describeUser(user), result.Server)
			return nil
		},
	}
}

// describeUser formats a user as "Name <email> (#id)".
func describeUser(user schema.User) string {
	if user.Name == "" || user.Name == user.Email {
		return fmt.Sprintf("%s (#%d)", user.Email, user.ID)
	}
	return fmt.Sprintf("%s <%s> (#%d)", user.Name, user.Email, user.ID)
}
