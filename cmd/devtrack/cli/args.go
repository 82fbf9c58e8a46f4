// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/devtrack-foundation/devtrack/lib/schema"
)

// ExpectArgs fails unless args has exactly the named positional
// arguments. usage is appended to the error.
func ExpectArgs(args []string, usage string, names ...string) error {
	if len(args) < len(names) {
		return Validation("%s is required", names[len(args)]).WithHint("Usage: " + usage)
	}
	if len(args) > len(names) {
		return Validation("unexpected argument: %s", args[len(names)]).WithHint("Usage: " + usage)
	}
	return nil
}

// ParseID parses a positive numeric identifier. A leading "#" is
// accepted so IDs can be pasted from listings.
func ParseID(kind, value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(value), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, Validation("%s ID %q is not a positive number", kind, value)
	}
	return id, nil
}

// Membership returns the caller's project entry, which carries their
// role. Projects the caller does not belong to are not found.
func (client *Client) Membership(ctx context.Context, projectID int64) (schema.Project, error) {
	projects, err := client.API.ListProjects(ctx)
	if err != nil {
		return schema.Project{}, FromAPI("list projects", err)
	}
	for _, project := range projects {
		if project.ID == projectID {
			return project, nil
		}
	}
	return schema.Project{}, NotFound("project #%d not found among your projects", projectID).
		WithHint("Run 'devtrack project list' to see the projects you belong to.")
}

// CurrentUser returns the signed-in user, asking the server when the
// session does not know yet.
func (client *Client) CurrentUser(ctx context.Context) (schema.User, error) {
	if user, ok := client.Session.CurrentUser(); ok {
		return user, nil
	}
	user, err := client.API.Me(ctx)
	if err != nil {
		return schema.User{}, FromAPI("resolve current user", err)
	}
	return user, nil
}
