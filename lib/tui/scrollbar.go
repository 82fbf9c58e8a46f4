// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderScrollbar produces a one-column scrollbar of the given height
// for a viewport showing visible of total lines starting at offset.
// When everything fits the thumb fills the track. The thumb takes the
// focus color when focused.
func RenderScrollbar(theme Theme, height, total, visible, offset int, focused bool) string {
	if height <= 0 {
		return ""
	}

	thumbColor := theme.BorderColor
	if focused {
		thumbColor = theme.FocusBorderColor
	}
	trackStyle := lipgloss.NewStyle().Foreground(theme.BorderColor)
	thumbStyle := lipgloss.NewStyle().Foreground(thumbColor)

	thumbStart, thumbSize := 0, height
	if total > visible && total > 0 {
		thumbSize = max(height*visible/total, 1)
		scrollable := total - visible
		if track := height - thumbSize; track > 0 {
			thumbStart = min(offset*track/scrollable, track)
		}
	}

	lines := make([]string, height)
	for index := range lines {
		if index >= thumbStart && index < thumbStart+thumbSize {
			lines[index] = thumbStyle.Render("┃")
		} else {
			lines[index] = trackStyle.Render("│")
		}
	}
	return strings.Join(lines, "\n")
}
