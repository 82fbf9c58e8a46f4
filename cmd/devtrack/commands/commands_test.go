// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"strings"
	"testing"

	"github.com/devtrack-foundation/devtrack/cmd/devtrack/cli"
	"github.com/devtrack-foundation/devtrack/cmd/devtrack/cli/clitest"
)

// walkCommands visits every command in the tree with its path.
func walkCommands(command *cli.Command, path []string, visit func(*cli.Command, []string)) {
	current := append(append([]string(nil), path...), command.Name)
	visit(command, current)
	for _, sub := range command.Subcommands {
		walkCommands(sub, current, visit)
	}
}

func TestCommandTreeIsWellFormed(t *testing.T) {
	walkCommands(Root(), nil, func(command *cli.Command, path []string) {
		name := strings.Join(path, " ")
		if len(path) > 1 && command.Summary == "" {
			t.Errorf("%s: missing Summary", name)
		}
		if command.Run == nil && len(command.Subcommands) == 0 {
			t.Errorf("%s: neither Run nor Subcommands", name)
		}
		seen := make(map[string]bool)
		for _, sub := range command.Subcommands {
			if seen[sub.Name] {
				t.Errorf("%s: duplicate subcommand %q", name, sub.Name)
			}
			seen[sub.Name] = true
		}
	})
}

func TestTopLevelCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, command := range Root().Subcommands {
		names[command.Name] = true
	}
	for _, want := range []string{"register", "login", "logout", "whoami", "project", "member", "ticket", "comment", "dashboard", "board", "version"} {
		if !names[want] {
			t.Errorf("root has no %q command", want)
		}
	}
}

func TestVersion(t *testing.T) {
	env := clitest.Setup(t)

	result := env.MustRun(t, Root(), "version")
	if !strings.HasPrefix(result.Stdout, "devtrack ") {
		t.Errorf("version = %q", result.Stdout)
	}
}

func TestUnknownCommandSuggests(t *testing.T) {
	env := clitest.Setup(t)

	result := env.Run(t, Root(), "tiket", "list")
	if clitest.Category(result.Err) != cli.CategoryValidation {
		t.Fatalf("err = %v, want validation", result.Err)
	}
	if !strings.Contains(result.Err.Error(), "ticket") {
		t.Errorf("err = %q, want suggestion", result.Err)
	}
}
