// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/devtrack-foundation/devtrack/lib/apiclient"
	"github.com/devtrack-foundation/devtrack/lib/config"
	"github.com/devtrack-foundation/devtrack/lib/session"
)

// Connection holds the flags every server-facing command shares.
// Embed it in a params struct; [BindFlags] registers its flags through
// AddFlags.
type Connection struct {
	ConfigPath string
	Server     string
}

// AddFlags registers --config and --server.
func (c *Connection) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.ConfigPath, "config", "", "configuration file (default $"+config.EnvConfig+")")
	flagSet.StringVar(&c.Server, "server", "", "DevTrack API base URL (default: the signed-in server, then the configuration)")
}

// Client is a connected API client with the configuration and session
// it was built from.
type Client struct {
	Config  *config.Config
	Session *session.Session
	API     *apiclient.Client
}

// Config loads the configuration named by --config.
func (c *Connection) Config() (*config.Config, error) {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, Validation("%w", err)
	}
	return cfg, nil
}

// Connect loads the configuration, restores the saved session, and
// creates an API client. The server is, in order: --server,
// $DEVTRACK_SERVER, the server the saved session was issued by, the
// configuration file.
func (c *Connection) Connect(logger *slog.Logger) (*Client, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	sess, err := session.Open(session.FileStore{Path: cfg.SessionPath()}, logger)
	if err != nil {
		return nil, Internal("%w", err).
			WithHint("Run 'devtrack logout' to discard the saved session, then sign in again.")
	}

	server := c.Server
	if server == "" {
		server = os.Getenv(config.EnvServer)
	}
	if server == "" {
		server = sess.Server()
	}
	if server == "" {
		server = cfg.Server.URL
	}
	server = strings.TrimRight(server, "/")
	if sess.Authenticated() && sess.Server() != "" && sess.Server() != server {
		// The token is never sent to another deployment. Signing in
		// here replaces the saved session.
		logger.Warn("saved session belongs to a different server; ignoring it",
			"session_server", sess.Server(), "server", server)
		sess = session.New(session.FileStore{Path: cfg.SessionPath()}, logger)
	}

	api, err := apiclient.New(apiclient.Config{
		BaseURL: server,
		Timeout: cfg.Server.Timeout.Std(),
		Logger:  logger,
	}, sess)
	if err != nil {
		return nil, Validation("%w", err)
	}
	return &Client{Config: cfg, Session: sess, API: api}, nil
}

// ConnectSignedIn is Connect for commands that need a session. It
// fails before any request when nobody is signed in.
func (c *Connection) ConnectSignedIn(logger *slog.Logger) (*Client, error) {
	client, err := c.Connect(logger)
	if err != nil {
		return nil, err
	}
	if !client.Session.Authenticated() {
		return nil, Forbidden("not signed in").WithHint(LoginHint)
	}
	return client, nil
}

// CallContext bounds a command's requests by the configured timeout
// plus headroom for the few commands that issue several calls.
func (client *Client) CallContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 4*client.Config.Server.Timeout.Std())
}
