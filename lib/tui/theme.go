// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/devtrack-foundation/devtrack/lib/schema"
)

// Theme defines the color palette for DevTrack's terminal views. All
// colors use lipgloss ANSI 256-color codes for broad terminal
// compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected card or row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Priority colors, indexed in schema.Priorities order (low to
	// urgent).
	PriorityColors [4]lipgloss.Color

	// Column accents.
	StatusTodo       lipgloss.Color
	StatusInProgress lipgloss.Color
	StatusDone       lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	FocusBorderColor lipgloss.Color
	HelpText         lipgloss.Color

	// Status bar levels.
	WarnForeground  lipgloss.Color
	ErrorForeground lipgloss.Color

	// Background tint for cards that just changed. HotAccentPut marks
	// created or moved cards; HotAccentRemove marks a reverted move.
	HotAccentPut    lipgloss.Color
	HotAccentRemove lipgloss.Color

	// Fuzzy match highlighting in pickers.
	MatchForeground lipgloss.Color

	LinkForeground lipgloss.Color

	// Overlay boxes (dropdowns, modals).
	OverlayForeground lipgloss.Color
	OverlayBackground lipgloss.Color
}

// PriorityColor returns the color for a priority. Unknown priorities
// use NormalText.
func (theme Theme) PriorityColor(priority schema.Priority) lipgloss.Color {
	for index, known := range schema.Priorities {
		if known == priority {
			return theme.PriorityColors[index]
		}
	}
	return theme.NormalText
}

// StatusColor returns the accent color of a board column. Unknown
// statuses use FaintText.
func (theme Theme) StatusColor(status schema.Status) lipgloss.Color {
	switch status {
	case schema.StatusTodo:
		return theme.StatusTodo
	case schema.StatusInProgress:
		return theme.StatusInProgress
	case schema.StatusDone:
		return theme.StatusDone
	default:
		return theme.FaintText
	}
}

// DefaultTheme is the built-in scheme for 256-color terminals with a
// dark background.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	PriorityColors: [4]lipgloss.Color{
		lipgloss.Color("245"), // low: gray
		lipgloss.Color("75"),  // medium: blue
		lipgloss.Color("208"), // high: orange
		lipgloss.Color("196"), // urgent: bright red
	},

	StatusTodo:       lipgloss.Color("75"),  // blue
	StatusInProgress: lipgloss.Color("220"), // amber
	StatusDone:       lipgloss.Color("114"), // green

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	FocusBorderColor: lipgloss.Color("220"),
	HelpText:         lipgloss.Color("241"),

	WarnForeground:  lipgloss.Color("214"),
	ErrorForeground: lipgloss.Color("203"),

	HotAccentPut:    lipgloss.Color("58"),
	HotAccentRemove: lipgloss.Color("52"),

	MatchForeground: lipgloss.Color("220"),

	LinkForeground: lipgloss.Color("75"),

	OverlayForeground: lipgloss.Color("252"),
	OverlayBackground: lipgloss.Color("237"),
}
