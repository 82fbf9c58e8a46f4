// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/devtrack-foundation/devtrack/lib/rolegate"
	"github.com/devtrack-foundation/devtrack/lib/schema"
	"github.com/devtrack-foundation/devtrack/lib/tui"
)

// formAction is what a key did to a form.
type formAction int

const (
	formContinue formAction = iota
	formSubmit
	formCancel
)

var (
	nextFieldKey     = key.NewBinding(key.WithKeys("tab"))
	previousFieldKey = key.NewBinding(key.WithKeys("shift+tab"))
	submitFormKey    = key.NewBinding(key.WithKeys("enter", "ctrl+s"))
	cancelFormKey    = key.NewBinding(key.WithKeys("esc"))
	cyclePreviousKey = key.NewBinding(key.WithKeys("left"))
	cycleNextKey     = key.NewBinding(key.WithKeys("right"))
	choiceUpKey      = key.NewBinding(key.WithKeys("up"))
	choiceDownKey    = key.NewBinding(key.WithKeys("down"))
)

// newInput creates a prompt-less text input with a steady cursor.
func newInput(placeholder string, limit int) textinput.Model {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = placeholder
	input.CharLimit = limit
	input.Cursor.SetMode(cursor.CursorStatic)
	return input
}

// cycle moves index by delta within [0, length).
func cycle(index, delta, length int) int {
	return ((index+delta)%length + length) % length
}

type createField int

const (
	createFieldTitle createField = iota
	createFieldDescription
	createFieldType
	createFieldPriority
	createFieldAssignee
	createFieldCount
)

// assigneePickerRows is how many matching members the picker shows.
const assigneePickerRows = 5

// createForm collects a new ticket. The assignee picker offers only
// members eligible for assignment, fuzzy-filtered by what the user
// types; choice 0 is "Unassigned".
type createForm struct {
	title       textinput.Model
	description textinput.Model
	query       textinput.Model
	issueType   int
	priority    int
	field       createField

	candidates []schema.ProjectMember
	labels     []string
	matches    []int
	choice     int

	err        string
	submitting bool
}

func newCreateForm(members []schema.ProjectMember) *createForm {
	form := &createForm{
		title:       newInput("What needs doing?", 200),
		description: newInput("optional, markdown", 2000),
		query:       newInput("type to filter members", 100),
		priority:    indexOf(schema.Priorities, schema.PriorityMedium),
		candidates:  rolegate.EligibleAssignees(members),
	}
	for _, member := range form.candidates {
		form.labels = append(form.labels, memberLabel(member))
	}
	form.matches = tui.FuzzyRank(form.labels, "")
	form.title.Focus()
	return form
}

func indexOf[T comparable](values []T, value T) int {
	for index, candidate := range values {
		if candidate == value {
			return index
		}
	}
	return 0
}

func memberLabel(member schema.ProjectMember) string {
	if member.Name != "" {
		return fmt.Sprintf("%s <%s>", member.Name, member.Email)
	}
	return member.Email
}

func (form *createForm) focusField(field createField) {
	form.field = field
	form.title.Blur()
	form.description.Blur()
	form.query.Blur()
	switch field {
	case createFieldTitle:
		form.title.Focus()
	case createFieldDescription:
		form.description.Focus()
	case createFieldAssignee:
		form.query.Focus()
	}
}

// assignee returns the chosen member, if any.
func (form *createForm) assignee() (schema.ProjectMember, bool) {
	if form.choice <= 0 || form.choice > len(form.matches) {
		return schema.ProjectMember{}, false
	}
	return form.candidates[form.matches[form.choice-1]], true
}

func (form *createForm) draft() schema.TicketDraft {
	draft := schema.TicketDraft{
		Title:     strings.TrimSpace(form.title.Value()),
		IssueType: schema.IssueTypes[form.issueType],
		Priority:  schema.Priorities[form.priority],
	}
	if description := strings.TrimSpace(form.description.Value()); description != "" {
		draft.Description = &description
	}
	if member, ok := form.assignee(); ok {
		userID := member.UserID
		draft.AssignedToID = &userID
	}
	return draft
}

// update applies a key. A submit with a blank title is refused here
// with an error instead of being reported as formSubmit.
func (form *createForm) update(message tea.KeyMsg) (formAction, tea.Cmd) {
	switch {
	case key.Matches(message, cancelFormKey):
		return formCancel, nil
	case key.Matches(message, submitFormKey):
		if strings.TrimSpace(form.title.Value()) == "" {
			form.err = "A title is required."
			form.focusField(createFieldTitle)
			return formContinue, nil
		}
		return formSubmit, nil
	case key.Matches(message, nextFieldKey):
		form.focusField(createField(cycle(int(form.field), 1, int(createFieldCount))))
		return formContinue, nil
	case key.Matches(message, previousFieldKey):
		form.focusField(createField(cycle(int(form.field), -1, int(createFieldCount))))
		return formContinue, nil
	}

	switch form.field {
	case createFieldType, createFieldPriority:
		delta := 0
		if key.Matches(message, cyclePreviousKey) {
			delta = -1
		} else if key.Matches(message, cycleNextKey) {
			delta = 1
		}
		if form.field == createFieldType {
			form.issueType = cycle(form.issueType, delta, len(schema.IssueTypes))
		} else {
			form.priority = cycle(form.priority, delta, len(schema.Priorities))
		}
		return formContinue, nil

	case createFieldAssignee:
		switch {
		case key.Matches(message, choiceUpKey):
			form.choice = cycle(form.choice, -1, len(form.matches)+1)
			return formContinue, nil
		case key.Matches(message, choiceDownKey):
			form.choice = cycle(form.choice, 1, len(form.matches)+1)
			return formContinue, nil
		}
		before := form.query.Value()
		var cmd tea.Cmd
		form.query, cmd = form.query.Update(message)
		if form.query.Value() != before {
			form.matches = tui.FuzzyRank(form.labels, form.query.Value())
			form.choice = 0
			if strings.TrimSpace(form.query.Value()) != "" && len(form.matches) > 0 {
				form.choice = 1
			}
		}
		return formContinue, cmd

	case createFieldDescription:
		var cmd tea.Cmd
		form.description, cmd = form.description.Update(message)
		return formContinue, cmd
	}

	var cmd tea.Cmd
	form.title, cmd = form.title.Update(message)
	if form.err != "" && strings.TrimSpace(form.title.Value()) != "" {
		form.err = ""
	}
	return formContinue, cmd
}

func (form *createForm) render(theme tui.Theme, projectName string, width int) []string {
	innerWidth := min(max(width-8, 40), 72)
	label := func(field createField, text string) string {
		style := lipgloss.NewStyle().Foreground(theme.FaintText).Width(13)
		if form.field == field {
			style = style.Foreground(theme.FocusBorderColor).Bold(true)
		}
		return style.Render(text)
	}
	chooser := func(value string, focused bool) string {
		if focused {
			return "◂ " + value + " ▸"
		}
		return value
	}

	form.title.Width = innerWidth - 14
	form.description.Width = innerWidth - 14
	form.query.Width = innerWidth - 14

	priority := schema.Priorities[form.priority]
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground).Render("New ticket in " + projectName),
		"",
		label(createFieldTitle, "Title") + form.title.View(),
		label(createFieldDescription, "Description") + form.description.View(),
		label(createFieldType, "Type") + chooser(string(schema.IssueTypes[form.issueType]), form.field == createFieldType),
		label(createFieldPriority, "Priority") + lipgloss.NewStyle().Foreground(theme.PriorityColor(priority)).
			Render(chooser(string(priority), form.field == createFieldPriority)),
		label(createFieldAssignee, "Assignee") + form.query.View(),
	}

	options := []string{"Unassigned"}
	for _, match := range form.matches {
		options = append(options, form.labels[match])
	}
	start := max(0, form.choice-assigneePickerRows+1)
	for index := start; index < len(options) && index < start+assigneePickerRows; index++ {
		marker := "  "
		style := lipgloss.NewStyle().Foreground(theme.NormalText)
		if index == form.choice {
			marker = "> "
			style = style.Foreground(theme.SelectedForeground).Bold(true)
		}
		lines = append(lines, strings.Repeat(" ", 13)+style.Render(marker+ansi.Truncate(options[index], innerWidth-16, "…")))
	}
	if len(form.candidates) == 0 {
		lines = append(lines, strings.Repeat(" ", 13)+lipgloss.NewStyle().Foreground(theme.FaintText).Render("no members can be assigned"))
	}

	lines = append(lines, "")
	if form.err != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.ErrorForeground).Render(form.err))
	}
	footer := "Tab next field  ←/→ change  Enter create  Esc cancel"
	if form.submitting {
		footer = "Creating…"
	}
	lines = append(lines, lipgloss.NewStyle().Foreground(theme.HelpText).Render(footer))
	return boxed(theme, lines, innerWidth)
}

// memberRoles are the roles offered by the add-member form, most
// common first.
var memberRoles = []schema.Role{schema.RoleDev, schema.RoleViewer, schema.RoleAdmin}

// memberForm adds a registered user to the project by email.
type memberForm struct {
	email      textinput.Model
	role       int
	roleFocus  bool
	err        string
	submitting bool
}

func newMemberForm() *memberForm {
	form := &memberForm{email: newInput("user@example.com", 254)}
	form.email.Focus()
	return form
}

func (form *memberForm) invite() schema.MemberInvite {
	return schema.MemberInvite{
		Email: strings.TrimSpace(form.email.Value()),
		Role:  memberRoles[form.role],
	}
}

func (form *memberForm) update(message tea.KeyMsg) (formAction, tea.Cmd) {
	switch {
	case key.Matches(message, cancelFormKey):
		return formCancel, nil
	case key.Matches(message, submitFormKey):
		if !strings.Contains(form.email.Value(), "@") {
			form.err = "Enter the email address of a registered user."
			return formContinue, nil
		}
		return formSubmit, nil
	case key.Matches(message, nextFieldKey), key.Matches(message, previousFieldKey):
		form.roleFocus = !form.roleFocus
		if form.roleFocus {
			form.email.Blur()
		} else {
			form.email.Focus()
		}
		return formContinue, nil
	}

	if form.roleFocus {
		if key.Matches(message, cyclePreviousKey) {
			form.role = cycle(form.role, -1, len(memberRoles))
		} else if key.Matches(message, cycleNextKey) {
			form.role = cycle(form.role, 1, len(memberRoles))
		}
		return formContinue, nil
	}
	var cmd tea.Cmd
	form.email, cmd = form.email.Update(message)
	form.err = ""
	return formContinue, cmd
}

func (form *memberForm) render(theme tui.Theme, projectName string) []string {
	const innerWidth = 56
	form.email.Width = innerWidth - 8
	roleLabel := string(memberRoles[form.role])
	if form.roleFocus {
		roleLabel = "◂ " + roleLabel + " ▸"
	}
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground).Render("Add a member to " + projectName),
		"",
		"Email " + form.email.View(),
		"Role  " + roleLabel,
		"",
	}
	if form.err != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.ErrorForeground).Render(form.err))
	}
	footer := "Tab role  ←/→ change  Enter add  Esc cancel"
	if form.submitting {
		footer = "Adding…"
	}
	lines = append(lines, lipgloss.NewStyle().Foreground(theme.HelpText).Render(footer))
	return boxed(theme, lines, innerWidth)
}

// confirmation is a yes/no question guarding a destructive action.
type confirmation struct {
	prompt   string
	excerpt  []string // quoted start of the text being deleted
	kind     string   // "ticket" or "comment"
	targetID int64
}

// confirmExcerptWidth and confirmExcerptLines bound the quoted text in
// a delete confirmation.
const (
	confirmExcerptWidth = 48
	confirmExcerptLines = 3
)

func (confirm *confirmation) render(theme tui.Theme) []string {
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(theme.ErrorForeground).Render(confirm.prompt),
	}
	width := max(ansi.StringWidth(confirm.prompt), 30)
	if len(confirm.excerpt) > 0 {
		lines = append(lines, "")
		quote := lipgloss.NewStyle().Foreground(theme.HelpText).Italic(true)
		for _, line := range confirm.excerpt {
			lines = append(lines, quote.Render("  "+line))
			width = max(width, ansi.StringWidth(line)+2)
		}
	}
	lines = append(lines, "", lipgloss.NewStyle().Foreground(theme.HelpText).Render("y delete  n/Esc keep"))
	return boxed(theme, lines, width)
}

// boxed wraps lines in a rounded border with the overlay background,
// returning lines ready for tui.CenterOverlay.
func boxed(theme tui.Theme, lines []string, innerWidth int) []string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.BorderColor).
		Padding(0, 1).
		Width(innerWidth + 2)
	return strings.Split(style.Render(strings.Join(lines, "\n")), "\n")
}
