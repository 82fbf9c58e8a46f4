// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the devtrack
// client.
//
// The central type is [Command], a named command with optional nested
// [Command.Subcommands], a flag source, and a Run function. Commands
// are assembled into a tree in cmd/devtrack/commands and dispatched
// via [Command.Execute], which handles flag parsing, subcommand
// routing, and help output with examples.
//
// Flags are declared on a params struct with flag, desc, and default
// tags and bound by [FlagsFromParams]. Unknown commands and flags get
// a Levenshtein suggestion (distance <= 3).
//
// Errors returned by Run are usually a [ToolError], whose category
// picks the process exit code. [FromAPI] converts the typed errors of
// the DevTrack API client into categorized errors with a hint for
// the user.
package cli
