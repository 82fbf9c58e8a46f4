// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/devtrack-foundation/devtrack/lib/schema"
)

// ListTickets returns a project's tickets matching filter. Empty filter
// fields are not sent.
func (client *Client) ListTickets(ctx context.Context, projectID int64, filter schema.TicketFilter) ([]schema.Ticket, error) {
	var tickets []schema.Ticket
	if err := client.do(ctx, call{
		op:     fmt.Sprintf("list tickets of project %d", projectID),
		method: http.MethodGet,
		path:   fmt.Sprintf("/tickets/project/%d", projectID),
		query:  filter.Query(),
		out:    &tickets,
	}); err != nil {
		return nil, err
	}
	return tickets, nil
}

// GetTicket fetches one ticket.
func (client *Client) GetTicket(ctx context.Context, ticketID int64) (schema.Ticket, error) {
	var ticket schema.Ticket
	if err := client.do(ctx, call{
		op:     fmt.Sprintf("get ticket %d", ticketID),
		method: http.MethodGet,
		path:   fmt.Sprintf("/tickets/%d", ticketID),
		out:    &ticket,
	}); err != nil {
		return schema.Ticket{}, err
	}
	return ticket, nil
}

// CreateTicket creates a ticket. The title is required; a blank
// description is sent as null.
func (client *Client) CreateTicket(ctx context.Context, draft schema.TicketDraft) (schema.Ticket, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		return schema.Ticket{}, &ValidationError{Detail: "title is required", Fields: map[string]string{"title": "required"}}
	}
	draft.Description = nonEmpty(draft.Description)
	var ticket schema.Ticket
	if err := client.do(ctx, call{
		op:     fmt.Sprintf("create ticket in project %d", draft.ProjectID),
		method: http.MethodPost,
		path:   "/tickets/",
		body:   draft,
		out:    &ticket,
	}); err != nil {
		return schema.Ticket{}, err
	}
	return ticket, nil
}

// UpdateTicket applies a partial update; only the non-nil fields of
// update are sent.
func (client *Client) UpdateTicket(ctx context.Context, ticketID int64, update schema.TicketUpdate) (schema.Ticket, error) {
	var ticket schema.Ticket
	if err := client.do(ctx, call{
		op:     fmt.Sprintf("update ticket %d", ticketID),
		method: http.MethodPut,
		path:   fmt.Sprintf("/tickets/%d", ticketID),
		body:   update,
		out:    &ticket,
	}); err != nil {
		return schema.Ticket{}, err
	}
	return ticket, nil
}

// DeleteTicket deletes a ticket (ADMIN or DEV). Callers confirm first.
func (client *Client) DeleteTicket(ctx context.Context, ticketID int64) error {
	return client.do(ctx, call{
		op:     fmt.Sprintf("delete ticket %d", ticketID),
		method: http.MethodDelete,
		path:   fmt.Sprintf("/tickets/%d", ticketID),
	})
}
