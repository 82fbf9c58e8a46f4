// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// SpliceOverlay replaces a rectangular region of a rendered view with
// overlay lines placed at (anchorX, anchorY). Truncation is ANSI-aware,
// so styling on both sides of the overlay survives.
func SpliceOverlay(view string, overlayLines []string, anchorX, anchorY int) string {
	if len(overlayLines) == 0 {
		return view
	}

	viewLines := strings.Split(view, "\n")
	for index, overlayLine := range overlayLines {
		row := anchorY + index
		if row < 0 || row >= len(viewLines) {
			continue
		}

		viewLine := viewLines[row]
		overlayWidth := ansi.StringWidth(overlayLine)

		var result strings.Builder
		if anchorX > 0 {
			prefix := ansi.Truncate(viewLine, anchorX, "")
			result.WriteString(prefix)
			// Short lines are padded so the overlay lands at anchorX.
			if gap := anchorX - ansi.StringWidth(prefix); gap > 0 {
				result.WriteString(strings.Repeat(" ", gap))
			}
		}
		result.WriteString("\x1b[0m")
		result.WriteString(overlayLine)
		result.WriteString("\x1b[0m")

		suffixStart := anchorX + overlayWidth
		if suffixStart < ansi.StringWidth(viewLine) {
			result.WriteString(ansi.TruncateLeft(viewLine, suffixStart, ""))
		}
		viewLines[row] = result.String()
	}
	return strings.Join(viewLines, "\n")
}

// CenterOverlay splices overlay lines into the middle of a view of the
// given size.
func CenterOverlay(view string, overlayLines []string, screenWidth, screenHeight int) string {
	if len(overlayLines) == 0 {
		return view
	}
	anchorX := (screenWidth - ansi.StringWidth(overlayLines[0])) / 2
	anchorY := (screenHeight - len(overlayLines)) / 2
	return SpliceOverlay(view, overlayLines, max(anchorX, 0), max(anchorY, 0))
}

// PadOverlayLine pads styled content to innerWidth with
// background-colored spaces and adds one column of padding on each
// side.
func PadOverlayLine(styledContent string, innerWidth int, backgroundStyle lipgloss.Style) string {
	rightPad := innerWidth - ansi.StringWidth(styledContent)
	if rightPad < 0 {
		styledContent = ansi.Truncate(styledContent, innerWidth, "…")
		rightPad = 0
	}
	return backgroundStyle.Render(" ") +
		styledContent +
		backgroundStyle.Render(strings.Repeat(" ", rightPad+1))
}

// ExtractExcerpt returns the first maxLines non-blank lines of body,
// each trimmed and truncated to maxWidth.
func ExtractExcerpt(body string, maxWidth, maxLines int) []string {
	if maxWidth <= 1 || maxLines <= 0 {
		return nil
	}
	var result []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if ansi.StringWidth(trimmed) > maxWidth {
			trimmed = ansi.Truncate(trimmed, maxWidth-1, "…")
		}
		result = append(result, trimmed)
		if len(result) >= maxLines {
			break
		}
	}
	return result
}
