// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/devtrack-foundation/devtrack/lib/comments"
	"github.com/devtrack-foundation/devtrack/lib/rolegate"
	"github.com/devtrack-foundation/devtrack/lib/schema"
	"github.com/devtrack-foundation/devtrack/lib/tui"
)

// detailView is the full-screen view of one ticket: its fields, the
// rendered description, and the comment thread.
type detailView struct {
	ticket     schema.Ticket
	thread     *comments.Thread
	cursor     int
	count      int
	countKnown bool
	loading    bool
}

// commentEditor is the modal for a new comment (commentID zero) or an
// edit of an existing one.
type commentEditor struct {
	modal      tui.TextModal
	commentID  int64
	err        string
	submitting bool
}

func (model Model) openDetail() (tea.Model, tea.Cmd) {
	ticket, ok := model.selectedTicket()
	if !ok {
		return model, nil
	}
	thread, err := comments.Open(comments.Config{
		API:         model.backend,
		CurrentUser: model.currentUser,
		Logger:      model.logger.With("ticket_id", ticket.ID),
	}, ticket.ID)
	if err != nil {
		return model.failed("Could not open the ticket", err)
	}
	model.detail = &detailView{ticket: ticket, thread: thread, loading: true}
	model.focus = focusDetail
	return model, tea.Batch(model.loadThreadCmd(thread), model.commentCountCmd(thread))
}

// currentUser is handed to comment threads for author checks.
func (model Model) currentUser() (schema.User, bool) {
	if model.session != nil {
		if user, ok := model.session.CurrentUser(); ok {
			return user, true
		}
	}
	return model.user, model.userKnown
}

// closeDetail closes the open thread, cancelling its fetches.
func (model *Model) closeDetail() {
	if model.detail == nil {
		return
	}
	model.detail.thread.Close()
	model.detail = nil
	model.editor = nil
	if model.focus == focusDetail || model.focus == focusEditor {
		model.focus = focusBoard
	}
}

// selectedComment returns the comment under the detail cursor.
func (detail *detailView) selectedComment() (schema.Comment, bool) {
	list := detail.thread.Comments()
	if detail.cursor < 0 || detail.cursor >= len(list) {
		return schema.Comment{}, false
	}
	return list[detail.cursor], true
}

func (detail *detailView) clampCursor() {
	detail.cursor = min(max(detail.cursor, 0), max(len(detail.thread.Comments())-1, 0))
}

func (model Model) handleDetailKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := model.keys
	detail := model.detail
	switch {
	case key.Matches(message, keys.Back):
		model.closeDetail()

	case key.Matches(message, keys.Quit):
		return model, tea.Quit

	case key.Matches(message, keys.Up):
		detail.cursor--
		detail.clampCursor()

	case key.Matches(message, keys.Down):
		detail.cursor++
		detail.clampCursor()

	case key.Matches(message, keys.MoveLeft):
		return model.moveSelected(-1)

	case key.Matches(message, keys.MoveRight):
		return model.moveSelected(1)

	case key.Matches(message, keys.Status):
		return model.openStatusDropdown()

	case key.Matches(message, keys.Delete):
		comment, ok := detail.selectedComment()
		if !ok {
			return model, nil
		}
		if !detail.thread.CanModify(comment) {
			return model.setNotice(rolegate.ForbiddenMessage(rolegate.ActionModifyComment, model.project.Role), slog.LevelWarn)
		}
		model.confirm = &confirmation{
			prompt:   fmt.Sprintf("Delete your comment from %s?", comment.CreatedAt.Format("Jan 2 15:04")),
			excerpt:  tui.ExtractExcerpt(comment.Comment, confirmExcerptWidth, confirmExcerptLines),
			kind:     "comment",
			targetID: comment.ID,
		}
		model.priorFocus = focusDetail
		model.focus = focusConfirm

	case key.Matches(message, keys.Comment):
		if !model.permissions().Comment {
			return model.setNotice(rolegate.ForbiddenMessage(rolegate.ActionComment, model.project.Role), slog.LevelWarn)
		}
		model.editor = &commentEditor{modal: tui.NewTextModal(fmt.Sprintf("New comment on #%d", detail.ticket.ID), "", comments.MaxLength, model.theme)}
		model.focus = focusEditor

	case key.Matches(message, keys.Edit):
		comment, ok := detail.selectedComment()
		if !ok {
			return model, nil
		}
		if !detail.thread.CanModify(comment) {
			return model.setNotice(rolegate.ForbiddenMessage(rolegate.ActionModifyComment, model.project.Role), slog.LevelWarn)
		}
		model.editor = &commentEditor{
			modal:     tui.NewTextModal(fmt.Sprintf("Edit comment on #%d", detail.ticket.ID), comment.Comment, comments.MaxLength, model.theme),
			commentID: comment.ID,
		}
		model.focus = focusEditor

	case key.Matches(message, keys.LoadMore):
		if !detail.thread.HasMore() || detail.loading {
			return model, nil
		}
		detail.loading = true
		return model, model.loadMoreCmd(detail.thread)

	case key.Matches(message, keys.Refresh):
		detail.loading = true
		return model, tea.Batch(model.loadThreadCmd(detail.thread), model.commentCountCmd(detail.thread))
	}
	return model, nil
}

func (model Model) handleEditorKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	editor := model.editor
	if editor.submitting {
		return model, nil
	}
	switch {
	case message.Type == tea.KeyEsc:
		model.editor = nil
		model.focus = focusDetail
		return model, nil
	case key.Matches(message, model.keys.Submit):
		editor.submitting = true
		editor.err = ""
		op := "add"
		if editor.commentID != 0 {
			op = "edit"
		}
		return model, model.commentCmd(model.detail.thread, op, editor.commentID, editor.modal.Value())
	}
	editor.modal.Update(message)
	return model, nil
}

func (model Model) handleThreadMessage(message tea.Msg) (tea.Model, tea.Cmd) {
	detail := model.detail
	switch message := message.(type) {
	case threadLoadedMsg:
		if detail == nil || detail.ticket.ID != message.ticketID {
			return model, nil
		}
		detail.loading = false
		detail.clampCursor()
		if message.err != nil && !errors.Is(message.err, comments.ErrClosed) {
			return model.failed("Could not load comments", message.err)
		}

	case commentCountMsg:
		if detail == nil || detail.ticket.ID != message.ticketID || message.err != nil {
			return model, nil
		}
		detail.count = message.count
		detail.countKnown = true

	case commentResultMsg:
		if detail == nil || detail.ticket.ID != message.ticketID {
			return model, nil
		}
		detail.clampCursor()
		if message.err != nil {
			if model.editor != nil && message.op != "delete" {
				model.editor.submitting = false
				model.editor.err = describeError("", message.err)
				return model, nil
			}
			return model.failed("", message.err)
		}
		model.editor = nil
		model.focus = focusDetail
		notice := map[string]string{"add": "Comment added.", "edit": "Comment updated.", "delete": "Comment deleted."}[message.op]
		next, cmd := model.setNotice(notice, slog.LevelInfo)
		return next, tea.Batch(cmd, next.commentCountCmd(detail.thread))
	}
	return model, nil
}

// renderDetail draws the detail view into width x height.
func (model Model) renderDetail(width, height int) string {
	detail := model.detail
	theme := model.theme
	ticket, ok := model.snapshot.Ticket(detail.ticket.ID)
	if !ok {
		ticket = detail.ticket
	}
	contentWidth := max(width-3, 20)

	faint := lipgloss.NewStyle().Foreground(theme.FaintText)
	var lines []string
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground).
		Render(ansi.Truncate(fmt.Sprintf("#%d %s", ticket.ID, ticket.Title), contentWidth, "…"))
	lines = append(lines, title)

	status := lipgloss.NewStyle().Foreground(theme.StatusColor(ticket.Status)).Render(ticket.Status.Label())
	if pending, inFlight := model.snapshot.PendingStatus(ticket.ID); inFlight {
		status += faint.Render(" → " + pending.Label() + " (waiting for server)")
	}
	assignee := ticket.AssigneeEmail()
	if assignee == "" {
		assignee = "unassigned"
	}
	lines = append(lines,
		status+faint.Render("  ·  ")+
			lipgloss.NewStyle().Foreground(theme.PriorityColor(ticket.Priority)).Render(string(ticket.Priority))+
			faint.Render(fmt.Sprintf("  ·  %s  ·  %s", ticket.IssueType, assignee)),
	)
	if !ticket.CreatedAt.IsZero() {
		lines = append(lines, faint.Render("Created "+ticket.CreatedAt.Format("2006-01-02 15:04")))
	}
	lines = append(lines, "")

	if description := renderMarkdown(ticket.DescriptionText(), theme, contentWidth); description != "" {
		lines = append(lines, strings.Split(description, "\n")...)
	} else {
		lines = append(lines, faint.Render("No description."))
	}
	lines = append(lines, "")

	heading := "Comments"
	if detail.countKnown {
		heading = fmt.Sprintf("Comments (%d)", detail.count)
	}
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground).Render(heading))

	list := detail.thread.Comments()
	selectedLine := len(lines)
	switch {
	case len(list) == 0 && detail.loading:
		lines = append(lines, faint.Render("Loading…"))
	case len(list) == 0:
		lines = append(lines, faint.Render("No comments yet. Press c to add one."))
	}
	for index, comment := range list {
		marker := "  "
		if index == detail.cursor {
			marker = lipgloss.NewStyle().Foreground(theme.FocusBorderColor).Render("▌ ")
			selectedLine = len(lines)
		}
		author := lipgloss.NewStyle().Bold(true).Foreground(theme.NormalText).Render(comment.Author())
		meta := ""
		if !comment.CreatedAt.IsZero() {
			meta = comment.CreatedAt.Format("Jan 2 15:04")
		}
		if detail.thread.CanModify(comment) {
			meta += "  e edit  d delete"
		}
		lines = append(lines, marker+author+" "+faint.Render(meta))
		for _, line := range strings.Split(ansi.Wrap(comment.Comment, contentWidth-2, " "), "\n") {
			lines = append(lines, "  "+line)
		}
	}
	if detail.thread.HasMore() {
		lines = append(lines, faint.Render("  ] load more"))
	}

	offset := 0
	if selectedLine >= height-2 {
		offset = selectedLine - height + 3
	}
	offset = min(offset, max(len(lines)-height, 0))
	visible := lines[offset:min(offset+height, len(lines))]
	for len(visible) < height {
		visible = append(visible, "")
	}
	body := lipgloss.NewStyle().Width(contentWidth).MaxWidth(contentWidth).Render(strings.Join(visible, "\n"))
	bar := tui.RenderScrollbar(theme, height, len(lines), height, offset, true)
	return lipgloss.JoinHorizontal(lipgloss.Top, " ", body, " ", bar)
}
