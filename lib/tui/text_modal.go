// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// TextModal is a centered overlay with a small multi-line editor, used
// for composing and editing comments. The owning model decides which
// keys submit or cancel; TextModal only edits.
type TextModal struct {
	// Title is shown on the first line ("New comment on #12").
	Title string

	// Limit is the maximum length in characters. Zero means no limit.
	// The footer shows a counter and turns red past the limit; the
	// modal never truncates input.
	Limit int

	// Hint is the key help shown in the footer.
	Hint string

	lines   [][]rune
	cursorY int
	cursorX int
	theme   Theme
}

// NewTextModal creates a modal holding initial, with the cursor at
// the end of the text.
func NewTextModal(title, initial string, limit int, theme Theme) TextModal {
	modal := TextModal{
		Title: title,
		Limit: limit,
		Hint:  "Ctrl+S save  Esc cancel",
		theme: theme,
	}
	modal.SetValue(initial)
	return modal
}

// SetValue replaces the text and moves the cursor to the end.
func (modal *TextModal) SetValue(text string) {
	modal.lines = nil
	for _, line := range strings.Split(text, "\n") {
		modal.lines = append(modal.lines, []rune(line))
	}
	modal.cursorY = len(modal.lines) - 1
	modal.cursorX = len(modal.lines[modal.cursorY])
}

// Value returns the current text.
func (modal TextModal) Value() string {
	parts := make([]string, len(modal.lines))
	for index, line := range modal.lines {
		parts[index] = string(line)
	}
	return strings.Join(parts, "\n")
}

// Length returns the text length in characters, counting line breaks.
func (modal TextModal) Length() int {
	return utf8.RuneCountInString(modal.Value())
}

// OverLimit reports whether the text exceeds Limit.
func (modal TextModal) OverLimit() bool {
	return modal.Limit > 0 && modal.Length() > modal.Limit
}

// Update applies an editing key.
func (modal *TextModal) Update(message tea.KeyMsg) {
	line := modal.lines[modal.cursorY]
	switch message.Type {
	case tea.KeyRunes, tea.KeySpace:
		runes := message.Runes
		if message.Type == tea.KeySpace {
			runes = []rune{' '}
		}
		for _, character := range runes {
			modal.insertRune(character)
		}

	case tea.KeyEnter:
		before := append([]rune(nil), line[:modal.cursorX]...)
		after := append([]rune(nil), line[modal.cursorX:]...)
		modal.lines[modal.cursorY] = before
		modal.lines = append(modal.lines[:modal.cursorY+1], append([][]rune{after}, modal.lines[modal.cursorY+1:]...)...)
		modal.cursorY++
		modal.cursorX = 0

	case tea.KeyBackspace:
		switch {
		case modal.cursorX > 0:
			modal.lines[modal.cursorY] = append(line[:modal.cursorX-1:modal.cursorX-1], line[modal.cursorX:]...)
			modal.cursorX--
		case modal.cursorY > 0:
			previous := modal.lines[modal.cursorY-1]
			modal.cursorX = len(previous)
			modal.lines[modal.cursorY-1] = append(previous[:len(previous):len(previous)], line...)
			modal.lines = append(modal.lines[:modal.cursorY], modal.lines[modal.cursorY+1:]...)
			modal.cursorY--
		}

	case tea.KeyDelete:
		switch {
		case modal.cursorX < len(line):
			modal.lines[modal.cursorY] = append(line[:modal.cursorX:modal.cursorX], line[modal.cursorX+1:]...)
		case modal.cursorY < len(modal.lines)-1:
			modal.lines[modal.cursorY] = append(line[:len(line):len(line)], modal.lines[modal.cursorY+1]...)
			modal.lines = append(modal.lines[:modal.cursorY+1], modal.lines[modal.cursorY+2:]...)
		}

	case tea.KeyLeft:
		if modal.cursorX > 0 {
			modal.cursorX--
		} else if modal.cursorY > 0 {
			modal.cursorY--
			modal.cursorX = len(modal.lines[modal.cursorY])
		}

	case tea.KeyRight:
		if modal.cursorX < len(line) {
			modal.cursorX++
		} else if modal.cursorY < len(modal.lines)-1 {
			modal.cursorY++
			modal.cursorX = 0
		}

	case tea.KeyUp:
		if modal.cursorY > 0 {
			modal.cursorY--
			modal.cursorX = min(modal.cursorX, len(modal.lines[modal.cursorY]))
		}

	case tea.KeyDown:
		if modal.cursorY < len(modal.lines)-1 {
			modal.cursorY++
			modal.cursorX = min(modal.cursorX, len(modal.lines[modal.cursorY]))
		}

	case tea.KeyHome, tea.KeyCtrlA:
		modal.cursorX = 0

	case tea.KeyEnd, tea.KeyCtrlE:
		modal.cursorX = len(line)
	}
}

func (modal *TextModal) insertRune(character rune) {
	line := modal.lines[modal.cursorY]
	updated := make([]rune, 0, len(line)+1)
	updated = append(updated, line[:modal.cursorX]...)
	updated = append(updated, character)
	updated = append(updated, line[modal.cursorX:]...)
	modal.lines[modal.cursorY] = updated
	modal.cursorX++
}

// Border (2) and padding (2) columns; border (2), title and footer
// lines.
const (
	textModalChromeWidth  = 4
	textModalChromeHeight = 4
	textModalMinWidth     = 30
	textModalMinHeight    = 3
	textModalMargin       = 4
)

// Render produces the modal lines for CenterOverlay, sized to the
// screen minus a margin.
func (modal TextModal) Render(screenWidth, screenHeight int) []string {
	innerWidth := max(screenWidth-textModalMargin*2-textModalChromeWidth, textModalMinWidth)
	innerHeight := max(screenHeight-textModalMargin*2-textModalChromeHeight, textModalMinHeight)
	innerWidth = min(innerWidth, max(screenWidth-textModalChromeWidth, 1))
	innerHeight = min(innerHeight, max(screenHeight-textModalChromeHeight, 1))

	background := lipgloss.NewStyle().Background(modal.theme.OverlayBackground)
	textStyle := background.Foreground(modal.theme.OverlayForeground)
	titleStyle := background.Bold(true).Foreground(modal.theme.HeaderForeground)
	footerStyle := background.Foreground(modal.theme.FaintText)
	cursorStyle := lipgloss.NewStyle().Reverse(true)

	pad := func(rendered string) string {
		if width := ansi.StringWidth(rendered); width < innerWidth {
			return rendered + background.Render(strings.Repeat(" ", innerWidth-width))
		}
		return ansi.Truncate(rendered, innerWidth, "")
	}

	scrollOffset := 0
	if modal.cursorY >= innerHeight {
		scrollOffset = modal.cursorY - innerHeight + 1
	}

	rows := []string{pad(titleStyle.Render(modal.Title))}
	for index := scrollOffset; index < scrollOffset+innerHeight; index++ {
		var rendered string
		if index < len(modal.lines) {
			line := modal.lines[index]
			switch {
			case index != modal.cursorY:
				rendered = textStyle.Render(string(line))
			case modal.cursorX >= len(line):
				rendered = textStyle.Render(string(line)) + cursorStyle.Render(" ")
			default:
				rendered = textStyle.Render(string(line[:modal.cursorX])) +
					cursorStyle.Render(string(line[modal.cursorX])) +
					textStyle.Render(string(line[modal.cursorX+1:]))
			}
		}
		rows = append(rows, pad(rendered))
	}

	footer := footerStyle.Render(modal.Hint)
	if modal.Limit > 0 {
		counterStyle := footerStyle
		if modal.OverLimit() {
			counterStyle = background.Foreground(modal.theme.ErrorForeground)
		}
		footer += footerStyle.Render("  ") + counterStyle.Render(fmt.Sprintf("%d/%d", modal.Length(), modal.Limit))
	}
	rows = append(rows, pad(footer))

	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(modal.theme.BorderColor).
		Background(modal.theme.OverlayBackground).
		Padding(0, 1)
	return strings.Split(border.Render(strings.Join(rows, "\n")), "\n")
}
