// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the board's key bindings.
type KeyMap struct {
	// Card cursor.
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding // Previous column.
	Right key.Binding // Next column.
	Home  key.Binding
	End   key.Binding

	// Moving the selected card between columns.
	MoveLeft  key.Binding
	MoveRight key.Binding
	Status    key.Binding // Open the status dropdown.

	Open    key.Binding // Open the detail view.
	Back    key.Binding // Leave the detail view, or clear filters.
	Refresh key.Binding

	// Filters.
	Search         key.Binding
	FilterStatus   key.Binding
	FilterPriority key.Binding

	// Tickets.
	Create key.Binding
	Delete key.Binding

	// Comments (detail view).
	Comment  key.Binding
	Edit     key.Binding
	LoadMore key.Binding

	// Project.
	Members   key.Binding
	AddMember key.Binding
	Projects  key.Binding

	Submit key.Binding // Save in forms and the comment editor.
	Quit   key.Binding
}

// DefaultKeyMap is the built-in binding set: vim-style movement
// alongside the arrow keys.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h/←", "prev column"),
	),
	Right: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l/→", "next column"),
	),
	Home: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	End: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	MoveLeft: key.NewBinding(
		key.WithKeys("H", "shift+left"),
		key.WithHelp("H", "move left"),
	),
	MoveRight: key.NewBinding(
		key.WithKeys("L", "shift+right"),
		key.WithHelp("L", "move right"),
	),
	Status: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "status"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "open"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "back"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	FilterStatus: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "status filter"),
	),
	FilterPriority: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "priority filter"),
	),
	Create: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new ticket"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d", "delete"),
		key.WithHelp("d", "delete"),
	),
	Comment: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "comment"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit"),
	),
	LoadMore: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "more comments"),
	),
	Members: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "members"),
	),
	AddMember: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "add member"),
	),
	Projects: key.NewBinding(
		key.WithKeys("P"),
		key.WithHelp("P", "projects"),
	),
	Submit: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("C-s", "save"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
