// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// DropdownOption is a single selectable item in a dropdown.
type DropdownOption struct {
	Label string // Display text.
	Value string // Wire value handed back on selection.
}

// Dropdown is a floating menu anchored at a screen position. The
// owning model routes keys to it while it is open: up/down move the
// cursor with wrap-around, enter selects, escape dismisses.
type Dropdown struct {
	Title   string
	Options []DropdownOption
	Cursor  int
	AnchorX int
	AnchorY int

	// Field names what the selection applies to ("status",
	// "filter-status", "project", ...). TicketID is the card a status
	// dropdown was opened for; zero otherwise.
	Field    string
	TicketID int64
}

// NewDropdown creates a dropdown with the cursor on the option whose
// value equals current, or on the first option.
func NewDropdown(field, title string, options []DropdownOption, current string) *Dropdown {
	dropdown := &Dropdown{Title: title, Options: options, Field: field}
	if index := dropdown.Index(current); index >= 0 {
		dropdown.Cursor = index
	}
	return dropdown
}

// Index returns the position of the option with the given value, or
// -1.
func (dropdown *Dropdown) Index(value string) int {
	for index, option := range dropdown.Options {
		if option.Value == value {
			return index
		}
	}
	return -1
}

// MoveUp moves the cursor up by one, wrapping to the bottom.
func (dropdown *Dropdown) MoveUp() {
	if len(dropdown.Options) == 0 {
		return
	}
	dropdown.Cursor--
	if dropdown.Cursor < 0 {
		dropdown.Cursor = len(dropdown.Options) - 1
	}
}

// MoveDown moves the cursor down by one, wrapping to the top.
func (dropdown *Dropdown) MoveDown() {
	if len(dropdown.Options) == 0 {
		return
	}
	dropdown.Cursor++
	if dropdown.Cursor >= len(dropdown.Options) {
		dropdown.Cursor = 0
	}
}

// Selected returns the highlighted option. ok is false for an empty
// dropdown.
func (dropdown *Dropdown) Selected() (DropdownOption, bool) {
	if dropdown.Cursor < 0 || dropdown.Cursor >= len(dropdown.Options) {
		return DropdownOption{}, false
	}
	return dropdown.Options[dropdown.Cursor], true
}

// Width returns the visible width of the rendered dropdown: marker
// prefix, the widest label or title, and one column of padding on each
// side.
func (dropdown *Dropdown) Width() int {
	widest := ansi.StringWidth(dropdown.Title)
	for _, option := range dropdown.Options {
		if labelWidth := ansi.StringWidth(option.Label) + 2; labelWidth > widest {
			widest = labelWidth
		}
	}
	return widest + 2
}

// Height returns the number of rendered lines.
func (dropdown *Dropdown) Height() int {
	height := len(dropdown.Options)
	if dropdown.Title != "" {
		height++
	}
	return height
}

// Render produces equal-width lines for SpliceOverlay, with a solid
// background and the highlighted option in the selection colors.
func (dropdown *Dropdown) Render(theme Theme) []string {
	totalWidth := dropdown.Width()
	innerWidth := totalWidth - 2

	backgroundStyle := lipgloss.NewStyle().
		Foreground(theme.OverlayForeground).
		Background(theme.OverlayBackground)
	titleStyle := backgroundStyle.Bold(true).Foreground(theme.HeaderForeground)
	selectedStyle := lipgloss.NewStyle().
		Background(theme.SelectedBackground).
		Foreground(theme.SelectedForeground)

	var lines []string
	if dropdown.Title != "" {
		lines = append(lines, PadOverlayLine(titleStyle.Render(dropdown.Title), innerWidth, backgroundStyle))
	}
	for index, option := range dropdown.Options {
		if index == dropdown.Cursor {
			content := "> " + option.Label
			pad := innerWidth - ansi.StringWidth(content)
			if pad < 0 {
				pad = 0
			}
			lines = append(lines, selectedStyle.Render(" "+content+strings.Repeat(" ", pad+1)))
			continue
		}
		lines = append(lines, PadOverlayLine(backgroundStyle.Render("  "+option.Label), innerWidth, backgroundStyle))
	}
	return lines
}
