// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/devtrack-foundation/devtrack/lib/apiclient"
	"github.com/devtrack-foundation/devtrack/lib/board"
	"github.com/devtrack-foundation/devtrack/lib/comments"
	"github.com/devtrack-foundation/devtrack/lib/rolegate"
	"github.com/devtrack-foundation/devtrack/lib/schema"
	"github.com/devtrack-foundation/devtrack/lib/session"
	"github.com/devtrack-foundation/devtrack/lib/tui"
)

// Backend is the API surface the board needs beyond the manager.
// *apiclient.Client satisfies it.
type Backend interface {
	comments.API
	Me(ctx context.Context) (schema.User, error)
	ListProjects(ctx context.Context) ([]schema.Project, error)
	ListMembers(ctx context.Context, projectID int64) ([]schema.ProjectMember, error)
	AddMember(ctx context.Context, projectID int64, invite schema.MemberInvite) (schema.MembershipRecord, error)
}

// Config configures a Model.
type Config struct {
	// Backend and Board are required. Board must be built on the same
	// API client as Backend.
	Backend Backend
	Board   *board.Manager

	// Session supplies the current user for ownership checks. Nil
	// means nobody is signed in and every ownership check fails.
	Session *session.Session

	// Policy decides who may move cards. Empty means
	// rolegate.DefaultPolicy.
	Policy rolegate.Policy

	// ProjectID is the project shown first. Zero picks the first
	// project the user belongs to.
	ProjectID int64

	// Timeout bounds each network operation. Zero means 30s.
	Timeout time.Duration

	Theme  *tui.Theme
	Logger *slog.Logger
}

// ExitReason says why the program stopped.
type ExitReason int

const (
	// ExitQuit means the user quit.
	ExitQuit ExitReason = iota
	// ExitSessionEnded means the server rejected the token; the caller
	// should sign in again.
	ExitSessionEnded
)

// focus is the part of the screen receiving keys. Overlays take
// precedence over the view beneath them.
type focus int

const (
	focusBoard focus = iota
	focusSearch
	focusDropdown
	focusCreate
	focusConfirm
	focusDetail
	focusEditor
	focusMembers
	focusMemberForm
)

// Model is the top-level bubbletea model for the board.
type Model struct {
	backend Backend
	manager *board.Manager
	session *session.Session
	policy  rolegate.Policy
	logger  *slog.Logger
	theme   tui.Theme
	keys    KeyMap
	timeout time.Duration

	width  int
	height int
	ready  bool

	// Projects and the signed-in user.
	projects       []schema.Project
	projectsLoaded bool
	project        schema.Project
	initialProject int64
	user           schema.User
	userKnown      bool
	members        []schema.ProjectMember
	membersProject int64

	// Board contents and cursor. selectedID keeps the cursor on the
	// same card across reloads.
	snapshot   board.Snapshot
	columns    board.Columns
	column     int
	rows       []int
	selectedID int64
	loading    bool
	spinner    spinner.Model

	focus      focus
	priorFocus focus
	search     textinput.Model
	filter     schema.TicketFilter

	dropdown   *tui.Dropdown
	create     *createForm
	confirm    *confirmation
	detail     *detailView
	editor     *commentEditor
	memberForm *memberForm

	// Status bar message, from a result or a log record. noticeSerial
	// pairs each message with its fade.
	notice       string
	noticeLevel  slog.Level
	noticeSerial int
	fadeDelay    time.Duration

	heat        *tui.HeatTracker
	heatTicking bool
	now         func() time.Time

	exitReason ExitReason
	exitDetail string
}

// NewModel creates a board model. Call Init (or run it in a program)
// to load the project list.
func NewModel(config Config) (Model, error) {
	if config.Backend == nil {
		return Model{}, errors.New("boardui: backend is required")
	}
	if config.Board == nil {
		return Model{}, errors.New("boardui: board manager is required")
	}
	if config.Policy == "" {
		config.Policy = rolegate.DefaultPolicy
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	theme := tui.DefaultTheme
	if config.Theme != nil {
		theme = *config.Theme
	}

	search := newInput("search titles", 200)
	search.Prompt = "/ "

	model := Model{
		backend:        config.Backend,
		manager:        config.Board,
		session:        config.Session,
		policy:         config.Policy,
		logger:         config.Logger,
		theme:          theme,
		keys:           DefaultKeyMap,
		timeout:        config.Timeout,
		initialProject: config.ProjectID,
		rows:           make([]int, len(schema.Statuses)),
		columns:        board.GroupByStatus(nil),
		spinner:        spinner.New(spinner.WithSpinner(spinner.Dot)),
		search:         search,
		fadeDelay:      logRecordFadeDelay,
		heat:           tui.NewHeatTracker(),
		now:            time.Now,
	}
	if config.Session != nil {
		model.user, model.userKnown = config.Session.CurrentUser()
	}
	return model, nil
}

// Exit reports why the program stopped, with the session-end reason
// when there is one.
func (model Model) Exit() (ExitReason, string) {
	return model.exitReason, model.exitDetail
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	cmds := []tea.Cmd{model.loadProjectsCmd(), model.spinner.Tick}
	if !model.userKnown {
		cmds = append(cmds, model.resolveUserCmd())
	}
	return tea.Batch(cmds...)
}

// permissions answers the role-only gates for the viewed project.
func (model Model) permissions() rolegate.Permissions {
	return rolegate.PermissionsFor(model.project.Role)
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		return model.handleKey(message)

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.search.Width = max(message.Width/3, 20)

	case spinner.TickMsg:
		if !model.loading {
			return model, nil
		}
		var cmd tea.Cmd
		model.spinner, cmd = model.spinner.Update(message)
		return model, cmd

	case projectsLoadedMsg:
		return model.handleProjects(message)

	case userResolvedMsg:
		if message.err != nil {
			return model.failed("Could not resolve the signed-in user", message.err)
		}
		if model.session != nil && !model.session.SetCurrentUserFor(message.generation, message.user) {
			model.logger.Debug("dropping user resolved for an ended session", "user_id", message.user.ID)
			return model, nil
		}
		model.user, model.userKnown = message.user, true

	case boardLoadedMsg:
		if message.projectID != model.project.ID {
			return model, nil
		}
		model.loading = false
		model.refresh()
		if message.err != nil && !errors.Is(message.err, board.ErrSuperseded) && !errors.Is(message.err, context.Canceled) {
			return model.failed("Loading tickets failed", message.err)
		}

	case boardEventMsg:
		if message.event.ProjectID != model.project.ID {
			return model, nil
		}
		if message.event.Kind == board.EventLoaded || message.event.Kind == board.EventLoadFailed {
			model.loading = false
		}
		model.refresh()

	case statusResultMsg:
		return model.handleStatusResult(message)

	case createResultMsg:
		return model.handleCreateResult(message)

	case deleteResultMsg:
		model.refresh()
		if message.err != nil {
			return model.failed("", message.err)
		}
		if model.detail != nil && model.detail.ticket.ID == message.ticketID {
			model.closeDetail()
		}
		return model.setNotice(fmt.Sprintf("Deleted #%d.", message.ticketID), slog.LevelInfo)

	case membersLoadedMsg:
		if message.projectID != model.project.ID {
			return model, nil
		}
		if message.err != nil {
			return model.failed("Could not load members", message.err)
		}
		model.members = message.members
		model.membersProject = message.projectID

	case memberAddedMsg:
		return model.handleMemberAdded(message)

	case threadLoadedMsg, commentCountMsg, commentResultMsg:
		return model.handleThreadMessage(message)

	case sessionEndedMsg:
		return model.endSession(message.notice.Reason)

	case logRecordMsg:
		return model.setNotice(message.Summary, message.Level)

	case logRecordFadeMsg:
		if message.Serial == model.noticeSerial {
			model.notice = ""
		}

	case heatTickMsg:
		if model.heat.HasHot(model.now()) {
			return model, scheduleHeatTick()
		}
		model.heatTicking = false
	}
	return model, nil
}

func (model Model) handleProjects(message projectsLoadedMsg) (tea.Model, tea.Cmd) {
	if message.err != nil {
		return model.failed("Could not load projects", message.err)
	}
	model.projects = message.projects
	model.projectsLoaded = true
	if len(model.projects) == 0 {
		return model, nil
	}

	target := model.projects[0]
	wanted := model.initialProject
	if model.project.ID != 0 {
		wanted = model.project.ID
	}
	for _, project := range model.projects {
		if project.ID == wanted {
			target = project
			break
		}
	}
	if target.ID == model.project.ID {
		model.project = target
		return model, nil
	}
	return model.selectProject(target)
}

// selectProject switches the board to project, discarding everything
// shown for the previous one.
func (model Model) selectProject(project schema.Project) (tea.Model, tea.Cmd) {
	model.closeDetail()
	model.project = project
	model.members = nil
	model.membersProject = 0
	model.filter = schema.TicketFilter{}
	model.search.SetValue("")
	model.column = 0
	model.rows = make([]int, len(schema.Statuses))
	model.selectedID = 0

	model.manager.SetProject(project.ID)
	model.refresh()
	model.loading = true
	model.logger.Info("viewing project", "project_id", project.ID, "role", project.Role)
	return model, tea.Batch(
		model.loadBoardCmd(model.filter),
		model.loadMembersCmd(project.ID),
		model.spinner.Tick,
	)
}

// refresh pulls the manager's snapshot and puts the cursor back on the
// selected card, wherever it now lives.
func (model *Model) refresh() {
	model.snapshot = model.manager.Snapshot()
	model.columns = model.snapshot.Columns()
	if len(model.columns) == 0 {
		model.columns = board.GroupByStatus(nil)
	}

	if model.selectedID != 0 {
		for columnIndex, column := range model.columns {
			for rowIndex, ticket := range column.Tickets {
				if ticket.ID == model.selectedID {
					model.column = columnIndex
					model.rows[columnIndex] = rowIndex
					model.clampRows()
					return
				}
			}
		}
	}
	model.clampRows()
	model.syncSelection()
}

func (model *Model) clampRows() {
	model.column = min(max(model.column, 0), len(model.columns)-1)
	for columnIndex := range model.rows {
		count := len(model.columns[columnIndex].Tickets)
		model.rows[columnIndex] = min(max(model.rows[columnIndex], 0), max(count-1, 0))
	}
}

func (model *Model) syncSelection() {
	if ticket, ok := model.selectedTicket(); ok {
		model.selectedID = ticket.ID
	} else {
		model.selectedID = 0
	}
}

// selectedTicket returns the card under the cursor.
func (model Model) selectedTicket() (schema.Ticket, bool) {
	if model.column < 0 || model.column >= len(model.columns) {
		return schema.Ticket{}, false
	}
	tickets := model.columns[model.column].Tickets
	row := model.rows[model.column]
	if row < 0 || row >= len(tickets) {
		return schema.Ticket{}, false
	}
	return tickets[row], true
}

// actionTicket is the ticket an action applies to: the open detail
// view's ticket, or the selected card.
func (model Model) actionTicket() (schema.Ticket, bool) {
	if model.detail != nil {
		if current, ok := model.snapshot.Ticket(model.detail.ticket.ID); ok {
			return current, true
		}
		return model.detail.ticket, true
	}
	return model.selectedTicket()
}

// setNotice shows text in the status bar until the fade delay passes
// or another notice replaces it.
func (model Model) setNotice(text string, level slog.Level) (Model, tea.Cmd) {
	model.noticeSerial++
	model.notice = text
	model.noticeLevel = level
	serial := model.noticeSerial
	return model, tea.Tick(model.fadeDelay, func(time.Time) tea.Msg {
		return logRecordFadeMsg{Serial: serial}
	})
}

// failed reports err in the status bar. Authentication failures end
// the board instead: the API client has already invalidated the
// session.
func (model Model) failed(prefix string, err error) (tea.Model, tea.Cmd) {
	if apiclient.IsAuth(err) {
		return model.endSession(apiclient.Detail(err))
	}
	return model.setNotice(describeError(prefix, err), slog.LevelError)
}

// describeError picks the most useful text for err: a mutation's
// display message, or the server's detail.
func describeError(prefix string, err error) string {
	var mutation *board.MutationError
	if errors.As(err, &mutation) {
		return mutation.Message
	}
	var forbidden *apiclient.ForbiddenError
	if errors.As(err, &forbidden) && forbidden.Detail != "" {
		return forbidden.Detail
	}
	detail := apiclient.Detail(err)
	if prefix == "" {
		return detail
	}
	return prefix + ": " + detail
}

func (model Model) endSession(reason string) (tea.Model, tea.Cmd) {
	model.closeDetail()
	model.exitReason = ExitSessionEnded
	model.exitDetail = reason
	model.logger.Warn("session ended, returning to sign-in", "reason", reason)
	return model, tea.Quit
}

// ignite marks a card as changed and starts the glow animation.
func (model *Model) ignite(ticketID int64, kind tui.HeatKind) tea.Cmd {
	model.heat.Ignite(ticketID, kind, model.now())
	if model.heatTicking {
		return nil
	}
	model.heatTicking = true
	return scheduleHeatTick()
}

func (model Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if message.Type == tea.KeyCtrlC {
		return model, tea.Quit
	}
	switch model.focus {
	case focusSearch:
		return model.handleSearchKey(message)
	case focusDropdown:
		return model.handleDropdownKey(message)
	case focusCreate:
		return model.handleCreateKey(message)
	case focusConfirm:
		return model.handleConfirmKey(message)
	case focusEditor:
		return model.handleEditorKey(message)
	case focusMembers:
		return model.handleMembersKey(message)
	case focusMemberForm:
		return model.handleMemberFormKey(message)
	case focusDetail:
		return model.handleDetailKey(message)
	}
	return model.handleBoardKey(message)
}

func (model Model) handleBoardKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := model.keys
	switch {
	case key.Matches(message, keys.Quit):
		return model, tea.Quit

	case key.Matches(message, keys.Up):
		model.rows[model.column]--
		model.clampRows()
		model.syncSelection()

	case key.Matches(message, keys.Down):
		model.rows[model.column]++
		model.clampRows()
		model.syncSelection()

	case key.Matches(message, keys.Home):
		model.rows[model.column] = 0
		model.syncSelection()

	case key.Matches(message, keys.End):
		model.rows[model.column] = len(model.columns[model.column].Tickets) - 1
		model.clampRows()
		model.syncSelection()

	case key.Matches(message, keys.Left):
		model.column = max(model.column-1, 0)
		model.syncSelection()

	case key.Matches(message, keys.Right):
		model.column = min(model.column+1, len(model.columns)-1)
		model.syncSelection()

	case key.Matches(message, keys.MoveLeft):
		return model.moveSelected(-1)

	case key.Matches(message, keys.MoveRight):
		return model.moveSelected(1)

	case key.Matches(message, keys.Status):
		return model.openStatusDropdown()

	case key.Matches(message, keys.Open):
		return model.openDetail()

	case key.Matches(message, keys.Refresh):
		if model.project.ID == 0 {
			return model, model.loadProjectsCmd()
		}
		model.loading = true
		return model, tea.Batch(model.reloadBoardCmd(), model.spinner.Tick)

	case key.Matches(message, keys.Search):
		model.focus = focusSearch
		return model, model.search.Focus()

	case key.Matches(message, keys.FilterStatus):
		options := []tui.DropdownOption{{Label: "All statuses", Value: ""}}
		for _, status := range schema.Statuses {
			options = append(options, tui.DropdownOption{Label: status.Label(), Value: string(status)})
		}
		return model.openDropdown(tui.NewDropdown("filter-status", "Show status", options, string(model.filter.Status)))

	case key.Matches(message, keys.FilterPriority):
		options := []tui.DropdownOption{{Label: "All priorities", Value: ""}}
		for _, priority := range schema.Priorities {
			options = append(options, tui.DropdownOption{Label: string(priority), Value: string(priority)})
		}
		return model.openDropdown(tui.NewDropdown("filter-priority", "Show priority", options, string(model.filter.Priority)))

	case key.Matches(message, keys.Back):
		if model.filter.IsZero() {
			return model, nil
		}
		model.filter = schema.TicketFilter{}
		model.search.SetValue("")
		model.loading = true
		return model, model.loadBoardCmd(model.filter)

	case key.Matches(message, keys.Create):
		if model.project.ID == 0 {
			return model, nil
		}
		if !model.permissions().CreateTicket {
			return model.setNotice(rolegate.ForbiddenMessage(rolegate.ActionCreateTicket, model.project.Role), slog.LevelWarn)
		}
		model.create = newCreateForm(model.members)
		model.focus = focusCreate
		if model.membersProject != model.project.ID {
			return model, model.loadMembersCmd(model.project.ID)
		}

	case key.Matches(message, keys.Delete):
		return model.confirmDeleteTicket()

	case key.Matches(message, keys.Members):
		if model.project.ID == 0 {
			return model, nil
		}
		model.focus = focusMembers
		return model, model.loadMembersCmd(model.project.ID)

	case key.Matches(message, keys.Projects):
		if len(model.projects) == 0 {
			return model, nil
		}
		options := make([]tui.DropdownOption, 0, len(model.projects))
		for _, project := range model.projects {
			options = append(options, tui.DropdownOption{
				Label: fmt.Sprintf("%s (%s)", project.Name, project.Role),
				Value: fmt.Sprint(project.ID),
			})
		}
		return model.openDropdown(tui.NewDropdown("project", "Switch project", options, fmt.Sprint(model.project.ID)))
	}
	return model, nil
}

func (model Model) handleSearchKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyEnter:
		model.focus = focusBoard
		model.search.Blur()
		return model, nil
	case tea.KeyEsc:
		model.focus = focusBoard
		model.search.Blur()
		if model.search.Value() == "" {
			return model, nil
		}
		model.search.SetValue("")
	default:
		var cmd tea.Cmd
		before := model.search.Value()
		model.search, cmd = model.search.Update(message)
		if model.search.Value() == before {
			return model, cmd
		}
	}

	// Every change restarts the debounce; only the last one is sent.
	model.filter.Search = model.search.Value()
	model.manager.ScheduleLoad(model.filter)
	return model, nil
}

func (model Model) openDropdown(dropdown *tui.Dropdown) (tea.Model, tea.Cmd) {
	dropdown.AnchorX = 2
	dropdown.AnchorY = 2
	model.dropdown = dropdown
	model.priorFocus = model.focus
	model.focus = focusDropdown
	return model, nil
}

func (model Model) openStatusDropdown() (tea.Model, tea.Cmd) {
	ticket, ok := model.actionTicket()
	if !ok {
		return model, nil
	}
	if !model.policy.CanChangeStatus(ticket, model.user, model.project.Role) {
		return model.setNotice(rolegate.ForbiddenMessage(rolegate.ActionChangeStatus, model.project.Role), slog.LevelWarn)
	}
	options := make([]tui.DropdownOption, 0, len(schema.Statuses))
	for _, status := range schema.Statuses {
		options = append(options, tui.DropdownOption{Label: status.Label(), Value: string(status)})
	}
	dropdown := tui.NewDropdown("status", fmt.Sprintf("Move #%d to", ticket.ID), options, string(ticket.Status))
	dropdown.TicketID = ticket.ID
	return model.openDropdown(dropdown)
}

func (model Model) handleDropdownKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	dropdown := model.dropdown
	switch {
	case key.Matches(message, model.keys.Up):
		dropdown.MoveUp()
		return model, nil
	case key.Matches(message, model.keys.Down):
		dropdown.MoveDown()
		return model, nil
	case key.Matches(message, model.keys.Back), key.Matches(message, model.keys.Quit):
		model.dropdown = nil
		model.focus = model.priorFocus
		return model, nil
	case message.Type != tea.KeyEnter:
		return model, nil
	}

	model.dropdown = nil
	model.focus = model.priorFocus
	selected, ok := dropdown.Selected()
	if !ok {
		return model, nil
	}
	switch dropdown.Field {
	case "status":
		return model.move(dropdown.TicketID, schema.Status(selected.Value))
	case "filter-status":
		model.filter.Status = schema.Status(selected.Value)
	case "filter-priority":
		model.filter.Priority = schema.Priority(selected.Value)
	case "project":
		for _, project := range model.projects {
			if fmt.Sprint(project.ID) == selected.Value && project.ID != model.project.ID {
				return model.selectProject(project)
			}
		}
		return model, nil
	}
	model.loading = true
	return model, tea.Batch(model.loadBoardCmd(model.filter), model.spinner.Tick)
}

// moveSelected moves the selected card one column left (-1) or right
// (+1).
func (model Model) moveSelected(delta int) (tea.Model, tea.Cmd) {
	ticket, ok := model.actionTicket()
	if !ok {
		return model, nil
	}
	current := indexOf(schema.Statuses, ticket.Status)
	target := current + delta
	if target < 0 || target >= len(schema.Statuses) {
		return model, nil
	}
	return model.move(ticket.ID, schema.Statuses[target])
}

// move asks the manager to change a ticket's status. The gate is
// checked first so a move the server would refuse is never offered.
func (model Model) move(ticketID int64, status schema.Status) (tea.Model, tea.Cmd) {
	ticket, ok := model.snapshot.Ticket(ticketID)
	if !ok {
		return model, nil
	}
	if ticket.Status == status {
		return model, nil
	}
	if !model.policy.CanChangeStatus(ticket, model.user, model.project.Role) {
		return model.setNotice(rolegate.ForbiddenMessage(rolegate.ActionChangeStatus, model.project.Role), slog.LevelWarn)
	}
	if _, inFlight := model.snapshot.PendingStatus(ticketID); inFlight {
		return model.setNotice(fmt.Sprintf("#%d is still moving.", ticketID), slog.LevelWarn)
	}
	model.selectedID = ticketID
	return model, model.moveCmd(ticketID, status)
}

func (model Model) handleStatusResult(message statusResultMsg) (tea.Model, tea.Cmd) {
	model.refresh()
	if message.err != nil {
		if errors.Is(message.err, board.ErrInFlight) {
			return model.setNotice(fmt.Sprintf("#%d is still moving.", message.ticketID), slog.LevelWarn)
		}
		heat := model.ignite(message.ticketID, tui.HeatRemove)
		next, notice := model.failed("", message.err)
		return next, tea.Batch(heat, notice)
	}
	heat := model.ignite(message.ticketID, tui.HeatPut)
	next, notice := model.setNotice(fmt.Sprintf("#%d moved to %s.", message.ticketID, message.status.Label()), slog.LevelInfo)
	return next, tea.Batch(heat, notice)
}

func (model Model) handleCreateKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if model.create.submitting {
		return model, nil
	}
	action, cmd := model.create.update(message)
	switch action {
	case formCancel:
		model.create = nil
		model.focus = focusBoard
	case formSubmit:
		model.create.submitting = true
		model.create.err = ""
		return model, model.createCmd(model.create.draft())
	}
	return model, cmd
}

func (model Model) handleCreateResult(message createResultMsg) (tea.Model, tea.Cmd) {
	model.refresh()
	if message.err != nil {
		if apiclient.IsAuth(message.err) {
			return model.endSession(apiclient.Detail(message.err))
		}
		if model.create != nil {
			model.create.submitting = false
			model.create.err = describeError("", message.err)
			return model, nil
		}
		return model.failed("", message.err)
	}
	model.create = nil
	model.focus = focusBoard
	model.selectedID = message.ticket.ID
	model.refresh()
	heat := model.ignite(message.ticket.ID, tui.HeatPut)
	next, notice := model.setNotice(fmt.Sprintf("Created #%d %s.", message.ticket.ID, message.ticket.Title), slog.LevelInfo)
	return next, tea.Batch(heat, notice)
}

func (model Model) confirmDeleteTicket() (tea.Model, tea.Cmd) {
	ticket, ok := model.actionTicket()
	if !ok {
		return model, nil
	}
	if !model.permissions().DeleteTicket {
		return model.setNotice(rolegate.ForbiddenMessage(rolegate.ActionDeleteTicket, model.project.Role), slog.LevelWarn)
	}
	model.confirm = &confirmation{
		prompt:   fmt.Sprintf("Delete #%d %q?", ticket.ID, ticket.Title),
		excerpt:  tui.ExtractExcerpt(ticket.DescriptionText(), confirmExcerptWidth, confirmExcerptLines),
		kind:     "ticket",
		targetID: ticket.ID,
	}
	model.priorFocus = model.focus
	model.focus = focusConfirm
	return model, nil
}

func (model Model) handleConfirmKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	confirm := model.confirm
	switch strings.ToLower(message.String()) {
	case "y":
		model.confirm = nil
		model.focus = model.priorFocus
		if confirm.kind == "comment" && model.detail != nil {
			return model, model.commentCmd(model.detail.thread, "delete", confirm.targetID, "")
		}
		return model, model.deleteCmd(confirm.targetID)
	case "n", "esc", "q":
		model.confirm = nil
		model.focus = model.priorFocus
	}
	return model, nil
}

func (model Model) handleMembersKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.AddMember):
		if !model.permissions().ManageMembers {
			return model.setNotice(rolegate.ForbiddenMessage(rolegate.ActionManageMembers, model.project.Role), slog.LevelWarn)
		}
		model.memberForm = newMemberForm()
		model.focus = focusMemberForm
	case key.Matches(message, model.keys.Back), key.Matches(message, model.keys.Members), key.Matches(message, model.keys.Quit):
		model.focus = focusBoard
	}
	return model, nil
}

func (model Model) handleMemberFormKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if model.memberForm.submitting {
		return model, nil
	}
	action, cmd := model.memberForm.update(message)
	switch action {
	case formCancel:
		model.memberForm = nil
		model.focus = focusMembers
	case formSubmit:
		model.memberForm.submitting = true
		return model, model.addMemberCmd(model.project.ID, model.memberForm.invite())
	}
	return model, cmd
}

func (model Model) handleMemberAdded(message memberAddedMsg) (tea.Model, tea.Cmd) {
	if message.err != nil {
		if apiclient.IsAuth(message.err) {
			return model.endSession(apiclient.Detail(message.err))
		}
		if model.memberForm != nil {
			model.memberForm.submitting = false
			model.memberForm.err = apiclient.Detail(message.err)
		}
		return model, nil
	}
	model.memberForm = nil
	if model.focus == focusMemberForm {
		model.focus = focusMembers
	}
	next, notice := model.setNotice(fmt.Sprintf("Added %s as %s.", message.invite.Email, message.invite.Role), slog.LevelInfo)
	return next, tea.Batch(notice, next.loadMembersCmd(message.projectID))
}
