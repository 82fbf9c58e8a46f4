// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"net/url"
	"strings"
)

// Status is a ticket's position in its lifecycle. Every status is
// reachable from every other; DONE is not terminal.
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Statuses lists the statuses in board column order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// IsKnown reports whether the status is one of the three board columns.
func (status Status) IsKnown() bool {
	switch status {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Label returns the human-readable column title.
func (status Status) Label() string {
	switch status {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	}
	return string(status)
}

// Priority is a ticket's urgency.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Priorities lists the priorities from least to most urgent.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// IsKnown reports whether the priority is one of the four levels.
func (priority Priority) IsKnown() bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// IssueType classifies the kind of work a ticket tracks.
type IssueType string

const (
	IssueTask    IssueType = "TASK"
	IssueBug     IssueType = "BUG"
	IssueFeature IssueType = "FEATURE"
)

// IssueTypes lists every issue type.
var IssueTypes = []IssueType{IssueTask, IssueBug, IssueFeature}

// IsKnown reports whether the issue type is TASK, BUG, or FEATURE.
func (issueType IssueType) IsKnown() bool {
	switch issueType {
	case IssueTask, IssueBug, IssueFeature:
		return true
	}
	return false
}

// Ticket is a unit of trackable work within a project.
type Ticket struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     *string   `json:"description"`
	IssueType       IssueType `json:"issue_type"`
	Status          Status    `json:"status"`
	Priority        Priority  `json:"priority"`
	ProjectID       int64     `json:"project_id"`
	CreatedByID     int64     `json:"created_by_id,omitempty"`
	AssignedToID    *int64    `json:"assigned_to_id"`
	AssignedToEmail *string   `json:"assigned_to_email"`
	CreatedAt       Timestamp `json:"created_at,omitzero"`

	// Order is the manual position within a status column. Nil when
	// the backend does not report one, in which case fetch order is
	// the column order.
	Order *int `json:"order,omitempty"`
}

// DescriptionText returns the description, or "" when it is null.
func (ticket Ticket) DescriptionText() string {
	if ticket.Description == nil {
		return ""
	}
	return *ticket.Description
}

// AssigneeEmail returns the assignee's email, or "" when the ticket is
// unassigned.
func (ticket Ticket) AssigneeEmail() string {
	if ticket.AssignedToEmail == nil {
		return ""
	}
	return *ticket.AssignedToEmail
}

// TicketDraft is the body of POST /tickets/. Optional fields are sent
// as null rather than empty strings.
type TicketDraft struct {
	Title        string    `json:"title"`
	Description  *string   `json:"description"`
	IssueType    IssueType `json:"issue_type"`
	Priority     Priority  `json:"priority"`
	Status       Status    `json:"status,omitempty"`
	ProjectID    int64     `json:"project_id"`
	AssignedToID *int64    `json:"assigned_to_id"`
	Order        *int      `json:"order,omitempty"`
}

// TicketUpdate is the body of PUT /tickets/{id}. Only non-nil fields
// are serialized, so a status change sends exactly {"status": ...}.
type TicketUpdate struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	IssueType    *IssueType `json:"issue_type,omitempty"`
	Status       *Status    `json:"status,omitempty"`
	Priority     *Priority  `json:"priority,omitempty"`
	AssignedToID *int64     `json:"assigned_to_id,omitempty"`
	Order        *int       `json:"order,omitempty"`
}

// TicketFilter narrows GET /tickets/project/{id}. Search is a
// case-insensitive substring match performed by the backend; Status
// and Priority are exact matches. An empty field is no constraint,
// never "match the empty string".
type TicketFilter struct {
	Search   string   `json:"search,omitempty"`
	Status   Status   `json:"status_filter,omitempty"`
	Priority Priority `json:"priority,omitempty"`
}

// IsZero reports whether the filter constrains nothing.
func (filter TicketFilter) IsZero() bool {
	return strings.TrimSpace(filter.Search) == "" && filter.Status == "" && filter.Priority == ""
}

// Query encodes the filter as URL query parameters, omitting every
// empty field.
func (filter TicketFilter) Query() url.Values {
	query := url.Values{}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query.Set("search", search)
	}
	if filter.Status != "" {
		query.Set("status_filter", string(filter.Status))
	}
	if filter.Priority != "" {
		query.Set("priority", string(filter.Priority))
	}
	return query
}

// Matches reports whether a ticket satisfies the filter. Used by
// callers that filter a cached list locally; the backend remains the
// authority for live results.
func (filter TicketFilter) Matches(ticket Ticket) bool {
	if filter.Status != "" && ticket.Status != filter.Status {
		return false
	}
	if filter.Priority != "" && ticket.Priority != filter.Priority {
		return false
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(ticket.Title), search) ||
		strings.Contains(strings.ToLower(ticket.DescriptionText()), search)
}
