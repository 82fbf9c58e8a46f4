// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package boardui is the interactive kanban board for DevTrack,
// built on bubbletea.
//
// The Model renders one project as three columns (To Do, In
// Progress, Done) backed by a [board.Manager]. Cards move between
// columns with shift+arrow keys or a status dropdown; the move is shown
// as pending until the server confirms it, and a rejection reverts the
// card with the server's explanation in the status bar. A detail view
// renders the ticket description as markdown and hosts the comment
// thread ([comments.Thread]) with author-only edit and delete. Project
// admins get a member list and an add-member form.
//
// All network work runs in tea.Cmd functions; results come back as
// messages. Manager events and session-end notices are pushed into the
// running program by [Run], and [TUILogHandler] routes slog records
// into the status bar.
package boardui
