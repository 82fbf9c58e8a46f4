// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

// DashboardStats is the body of GET /dashboard/stats: ticket totals
// across every project the user belongs to.
type DashboardStats struct {
	TotalProjects     int    `json:"total_projects"`
	TotalTickets      int    `json:"total_tickets"`
	TodoTickets       int    `json:"todo_tickets"`
	InProgressTickets int    `json:"in_progress_tickets"`
	CompletedTickets  int    `json:"completed_tickets"`
	ProjectChange     string `json:"project_change,omitempty"`
	TicketChange      string `json:"ticket_change,omitempty"`
}

// ActivityEntry is one row of GET /dashboard/recent-activity.
type ActivityEntry struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Status          Status    `json:"status"`
	Priority        Priority  `json:"priority"`
	ProjectName     string    `json:"project_name"`
	AssignedToEmail *string   `json:"assigned_to_email"`
	CreatedAt       Timestamp `json:"created_at,omitzero"`
}
