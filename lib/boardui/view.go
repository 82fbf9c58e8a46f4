// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/devtrack-foundation/devtrack/lib/board"
	"github.com/devtrack-foundation/devtrack/lib/schema"
	"github.com/devtrack-foundation/devtrack/lib/tui"
)

// Layout constants.
const (
	headerHeight    = 2
	statusBarHeight = 1
	columnGap       = 1

	// cardHeight is the rows one card occupies: title, meta line, and
	// a spacer.
	cardHeight = 3
)

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "Loading…"
	}
	bodyHeight := max(model.height-headerHeight-statusBarHeight, 1)

	var body string
	switch {
	case model.projectsLoaded && len(model.projects) == 0:
		body = model.renderEmpty(bodyHeight, "You are not a member of any project yet.",
			"Create one with `devtrack project create`, or ask an admin to add you.")
	case model.project.ID == 0:
		body = model.renderEmpty(bodyHeight, model.spinner.View()+" Loading projects…", "")
	case model.detail != nil:
		body = model.renderDetail(model.width, bodyHeight)
	case model.focus == focusMembers || model.focus == focusMemberForm:
		body = model.renderMembers(bodyHeight)
	default:
		body = model.renderColumns(bodyHeight)
	}

	view := lipgloss.JoinVertical(lipgloss.Left, model.renderHeader(), body, model.renderStatusBar())
	return model.renderOverlays(view)
}

func (model Model) renderHeader() string {
	theme := model.theme
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)

	title := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground).Render("DevTrack")
	if model.project.ID != 0 {
		title += faint.Render(" / ") +
			lipgloss.NewStyle().Bold(true).Foreground(theme.NormalText).Render(model.project.Name) +
			faint.Render(" ("+string(model.project.Role)+")")
	}
	right := ""
	if model.userKnown {
		right = faint.Render(model.user.Email)
	}
	gap := max(model.width-ansi.StringWidth(title)-ansi.StringWidth(right), 1)
	first := title + strings.Repeat(" ", gap) + right

	var parts []string
	if model.project.ID != 0 {
		stats := model.snapshot.Stats()
		parts = append(parts, faint.Render(fmt.Sprintf("%d tickets: %d to do, %d in progress, %d done",
			stats.Total, stats.Todo, stats.InProgress, stats.Done)))
	}
	if model.focus == focusSearch || model.search.Value() != "" {
		parts = append(parts, model.search.View())
	}
	if model.filter.Status != "" {
		parts = append(parts, faint.Render("status:")+string(model.filter.Status))
	}
	if model.filter.Priority != "" {
		parts = append(parts, faint.Render("priority:")+string(model.filter.Priority))
	}
	if model.snapshot.Stale {
		warn := lipgloss.NewStyle().Foreground(theme.WarnForeground)
		label := "offline"
		if !model.snapshot.FetchedAt.IsZero() {
			label = "offline, cached " + model.snapshot.FetchedAt.Local().Format("Jan 2 15:04")
		}
		parts = append(parts, warn.Render(label))
	}
	if model.loading {
		parts = append(parts, model.spinner.View())
	}
	second := ansi.Truncate(strings.Join(parts, "  "), max(model.width, 1), "…")
	return first + "\n" + second
}

func (model Model) renderEmpty(height int, headline, hint string) string {
	lines := []string{lipgloss.NewStyle().Foreground(model.theme.NormalText).Render(headline)}
	if hint != "" {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(hint))
	}
	return lipgloss.Place(max(model.width, 1), height, lipgloss.Center, lipgloss.Center, strings.Join(lines, "\n"))
}

// renderColumns draws the three status columns side by side.
func (model Model) renderColumns(height int) string {
	count := len(model.columns)
	columnWidth := max((model.width-columnGap*(count-1))/count, 12)

	rendered := make([]string, 0, count*2)
	for index, column := range model.columns {
		if index > 0 {
			rendered = append(rendered, strings.Repeat(" ", columnGap))
		}
		rendered = append(rendered, model.renderColumn(index, column, columnWidth, height))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (model Model) renderColumn(index int, column board.Column, width, height int) string {
	theme := model.theme
	focused := index == model.column && model.focus == focusBoard
	borderColor := theme.BorderColor
	if focused {
		borderColor = theme.FocusBorderColor
	}
	innerWidth := max(width-2, 8)
	innerHeight := max(height-2, 1)

	heading := lipgloss.NewStyle().Bold(true).Foreground(theme.StatusColor(column.Status)).
		Render(fmt.Sprintf("%s (%d)", column.Status.Label(), len(column.Tickets)))
	lines := []string{heading}

	available := max(innerHeight-1, 1)
	visibleCards := max(available/cardHeight, 1)
	row := model.rows[index]
	offset := 0
	if row >= visibleCards {
		offset = row - visibleCards + 1
	}

	switch {
	case len(column.Tickets) == 0 && !model.snapshot.Loaded:
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.FaintText).Render("…"))
	case len(column.Tickets) == 0:
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.FaintText).Render("No tickets"))
	}
	for cardIndex := offset; cardIndex < len(column.Tickets) && cardIndex < offset+visibleCards; cardIndex++ {
		selected := focused && cardIndex == row
		lines = append(lines, model.renderCard(column.Tickets[cardIndex], innerWidth-1, selected)...)
	}
	for len(lines) < innerHeight {
		lines = append(lines, "")
	}
	lines = lines[:innerHeight]

	content := lipgloss.NewStyle().Width(innerWidth - 1).Render(strings.Join(lines, "\n"))
	bar := tui.RenderScrollbar(theme, innerHeight, len(column.Tickets)*cardHeight, visibleCards*cardHeight, offset*cardHeight, focused)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, content, bar))
}

// renderCard draws one ticket: a title line and a meta line, then a
// blank spacer.
func (model Model) renderCard(ticket schema.Ticket, width int, selected bool) []string {
	theme := model.theme
	base := lipgloss.NewStyle().Foreground(theme.NormalText)
	if selected {
		base = base.Background(theme.SelectedBackground).Foreground(theme.SelectedForeground).Bold(true)
	} else if heat := model.heat.Heat(ticket.ID, model.now()); heat > 0 {
		accent := theme.HotAccentPut
		if model.heat.Kind(ticket.ID) == tui.HeatRemove {
			accent = theme.HotAccentRemove
		}
		base = base.Background(accent)
	}

	marker := lipgloss.NewStyle().Foreground(theme.PriorityColor(ticket.Priority)).Render("▍")
	title := ansi.Truncate(fmt.Sprintf("#%d %s", ticket.ID, ticket.Title), max(width-1, 1), "…")
	titleLine := marker + base.Width(max(width-1, 1)).Render(title)

	meta := []string{string(ticket.Priority), string(ticket.IssueType)}
	if email := ticket.AssigneeEmail(); email != "" {
		meta = append(meta, "@"+strings.SplitN(email, "@", 2)[0])
	}
	metaText := strings.ToLower(strings.Join(meta, " · "))
	if pending, inFlight := model.snapshot.PendingStatus(ticket.ID); inFlight {
		metaText = "→ " + pending.Label() + "…"
	}
	metaLine := " " + lipgloss.NewStyle().Foreground(theme.FaintText).Render(ansi.Truncate(metaText, max(width-1, 1), "…"))
	return []string{titleLine, metaLine, ""}
}

// renderMembers lists the project's members.
func (model Model) renderMembers(height int) string {
	theme := model.theme
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground).Render("Members of " + model.project.Name),
		"",
	}
	if model.membersProject != model.project.ID {
		lines = append(lines, faint.Render("Loading…"))
	}
	for _, member := range model.members {
		role := lipgloss.NewStyle().Foreground(theme.FaintText).Width(8).Render(string(member.Role))
		lines = append(lines, "  "+role+" "+memberLabel(member))
	}
	hint := "Esc back"
	if model.permissions().ManageMembers {
		hint = "a add member  " + hint
	}
	lines = append(lines, "", faint.Render(hint))
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines[:height], "\n")
}

// renderOverlays splices the open dropdown, form, or dialog over view.
func (model Model) renderOverlays(view string) string {
	theme := model.theme
	switch {
	case model.dropdown != nil:
		return tui.SpliceOverlay(view, model.dropdown.Render(theme), model.dropdown.AnchorX, model.dropdown.AnchorY)
	case model.confirm != nil:
		return tui.CenterOverlay(view, model.confirm.render(theme), model.width, model.height)
	case model.create != nil:
		width := min(max(model.width-8, 40), 72)
		return tui.CenterOverlay(view, model.create.render(theme, model.project.Name, width), model.width, model.height)
	case model.memberForm != nil:
		return tui.CenterOverlay(view, model.memberForm.render(theme, model.project.Name), model.width, model.height)
	case model.editor != nil:
		modal := model.editor.modal
		switch {
		case model.editor.submitting:
			modal.Hint = "Saving…"
		case model.editor.err != "":
			modal.Hint = model.editor.err
		}
		return tui.CenterOverlay(view, modal.Render(model.width, model.height), model.width, model.height)
	}
	return view
}

// renderStatusBar shows the current notice, or key help when there is
// none.
func (model Model) renderStatusBar() string {
	theme := model.theme
	if model.notice != "" {
		color := theme.NormalText
		switch {
		case model.noticeLevel >= slog.LevelError:
			color = theme.ErrorForeground
		case model.noticeLevel >= slog.LevelWarn:
			color = theme.WarnForeground
		}
		return lipgloss.NewStyle().Foreground(color).Render(ansi.Truncate(model.notice, max(model.width, 1), "…"))
	}
	return lipgloss.NewStyle().Foreground(theme.HelpText).Render(ansi.Truncate(model.helpText(), max(model.width, 1), "…"))
}

func (model Model) helpText() string {
	switch model.focus {
	case focusSearch:
		return "type to filter  Enter keep  Esc clear"
	case focusDropdown:
		return "j/k choose  Enter select  Esc cancel"
	case focusCreate:
		return "Tab next field  ←/→ change  Ctrl+S create  Esc cancel"
	case focusEditor:
		return "Ctrl+S save  Esc cancel"
	case focusMemberForm:
		return "Tab next field  ←/→ role  Enter add  Esc cancel"
	case focusDetail:
		return "j/k comments  c comment  e edit  d delete  s status  H/L move  ] more  Esc back"
	}
	return "h/j/k/l move  H/L shift card  s status  Enter open  n new  d delete  / search  f/p filter  m members  P projects  q quit"
}
