// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/devtrack-foundation/devtrack/lib/board"
	"github.com/devtrack-foundation/devtrack/lib/comments"
	"github.com/devtrack-foundation/devtrack/lib/schema"
	"github.com/devtrack-foundation/devtrack/lib/session"
	"github.com/devtrack-foundation/devtrack/lib/tui"
)

// Messages produced by the commands below. Each carries enough
// identity (project, ticket) for Update to drop results that arrive
// after the user has moved on.
type (
	projectsLoadedMsg struct {
		projects []schema.Project
		err      error
	}

	userResolvedMsg struct {
		user       schema.User
		generation uint64
		err        error
	}

	boardLoadedMsg struct {
		projectID int64
		err       error
	}

	statusResultMsg struct {
		ticketID int64
		status   schema.Status
		err      error
	}

	createResultMsg struct {
		ticket schema.Ticket
		err    error
	}

	deleteResultMsg struct {
		ticketID int64
		err      error
	}

	membersLoadedMsg struct {
		projectID int64
		members   []schema.ProjectMember
		err       error
	}

	memberAddedMsg struct {
		projectID int64
		invite    schema.MemberInvite
		err       error
	}

	threadLoadedMsg struct {
		ticketID int64
		added    int
		err      error
	}

	commentCountMsg struct {
		ticketID int64
		count    int
		err      error
	}

	commentResultMsg struct {
		ticketID int64
		op       string
		err      error
	}

	// boardEventMsg and sessionEndedMsg are pushed into the program by
	// Run.
	boardEventMsg struct {
		event board.Event
	}

	sessionEndedMsg struct {
		notice session.Notice
	}

	heatTickMsg struct{}
)

// operation runs fn with the model's per-operation timeout.
func (model Model) operation(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	timeout := model.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return fn(ctx)
	}
}

func (model Model) loadProjectsCmd() tea.Cmd {
	backend := model.backend
	return model.operation(func(ctx context.Context) tea.Msg {
		projects, err := backend.ListProjects(ctx)
		return projectsLoadedMsg{projects: projects, err: err}
	})
}

func (model Model) resolveUserCmd() tea.Cmd {
	backend := model.backend
	sess := model.session
	return model.operation(func(ctx context.Context) tea.Msg {
		var generation uint64
		if sess != nil {
			_, generation, _ = sess.Credential()
		}
		user, err := backend.Me(ctx)
		return userResolvedMsg{user: user, generation: generation, err: err}
	})
}

func (model Model) loadBoardCmd(filter schema.TicketFilter) tea.Cmd {
	manager := model.manager
	projectID := manager.ProjectID()
	return model.operation(func(ctx context.Context) tea.Msg {
		return boardLoadedMsg{projectID: projectID, err: manager.LoadTickets(ctx, filter)}
	})
}

func (model Model) reloadBoardCmd() tea.Cmd {
	manager := model.manager
	projectID := manager.ProjectID()
	return model.operation(func(ctx context.Context) tea.Msg {
		return boardLoadedMsg{projectID: projectID, err: manager.Reload(ctx)}
	})
}

func (model Model) moveCmd(ticketID int64, status schema.Status) tea.Cmd {
	manager := model.manager
	return model.operation(func(ctx context.Context) tea.Msg {
		return statusResultMsg{ticketID: ticketID, status: status, err: manager.UpdateTicketStatus(ctx, ticketID, status)}
	})
}

func (model Model) createCmd(draft schema.TicketDraft) tea.Cmd {
	manager := model.manager
	return model.operation(func(ctx context.Context) tea.Msg {
		ticket, err := manager.CreateTicket(ctx, draft)
		return createResultMsg{ticket: ticket, err: err}
	})
}

func (model Model) deleteCmd(ticketID int64) tea.Cmd {
	manager := model.manager
	return model.operation(func(ctx context.Context) tea.Msg {
		return deleteResultMsg{ticketID: ticketID, err: manager.DeleteTicket(ctx, ticketID, true)}
	})
}

func (model Model) loadMembersCmd(projectID int64) tea.Cmd {
	backend := model.backend
	return model.operation(func(ctx context.Context) tea.Msg {
		members, err := backend.ListMembers(ctx, projectID)
		return membersLoadedMsg{projectID: projectID, members: members, err: err}
	})
}

func (model Model) addMemberCmd(projectID int64, invite schema.MemberInvite) tea.Cmd {
	backend := model.backend
	return model.operation(func(ctx context.Context) tea.Msg {
		_, err := backend.AddMember(ctx, projectID, invite)
		return memberAddedMsg{projectID: projectID, invite: invite, err: err}
	})
}

func (model Model) loadThreadCmd(thread *comments.Thread) tea.Cmd {
	return model.operation(func(ctx context.Context) tea.Msg {
		return threadLoadedMsg{ticketID: thread.TicketID(), err: thread.LoadComments(ctx, schema.DefaultPage)}
	})
}

func (model Model) loadMoreCmd(thread *comments.Thread) tea.Cmd {
	return model.operation(func(ctx context.Context) tea.Msg {
		added, err := thread.LoadMore(ctx)
		return threadLoadedMsg{ticketID: thread.TicketID(), added: added, err: err}
	})
}

func (model Model) commentCountCmd(thread *comments.Thread) tea.Cmd {
	return model.operation(func(ctx context.Context) tea.Msg {
		count, err := thread.CommentCount(ctx)
		return commentCountMsg{ticketID: thread.TicketID(), count: count, err: err}
	})
}

// commentCmd runs one comment mutation. commentID is zero for a new
// comment; text is ignored for deletes.
func (model Model) commentCmd(thread *comments.Thread, op string, commentID int64, text string) tea.Cmd {
	return model.operation(func(ctx context.Context) tea.Msg {
		var err error
		switch op {
		case "add":
			_, err = thread.CreateComment(ctx, text)
		case "edit":
			_, err = thread.UpdateComment(ctx, commentID, text)
		case "delete":
			err = thread.DeleteComment(ctx, commentID, true)
		}
		return commentResultMsg{ticketID: thread.TicketID(), op: op, err: err}
	})
}

func scheduleHeatTick() tea.Cmd {
	return tea.Tick(tui.HeatTickInterval, func(time.Time) tea.Msg {
		return heatTickMsg{}
	})
}
