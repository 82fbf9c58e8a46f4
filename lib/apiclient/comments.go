// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/devtrack-foundation/devtrack/lib/schema"
)

// ListComments returns one page of a ticket's comments.
func (client *Client) ListComments(ctx context.Context, ticketID int64, page schema.Page) ([]schema.Comment, error) {
	page = page.Normalized()
	var comments []schema.Comment
	if err := client.do(ctx, call{
		op:     fmt.Sprintf("list comments of ticket %d", ticketID),
		method: http.MethodGet,
		path:   fmt.Sprintf("/tickets/%d/comments", ticketID),
		query: url.Values{
			"skip":  {strconv.Itoa(page.Skip)},
			"limit": {strconv.Itoa(page.Limit)},
		},
		out: &comments,
	}); err != nil {
		return nil, err
	}
	return comments, nil
}

// CreateComment posts a comment on a ticket. Blank text is rejected
// without a request.
func (client *Client) CreateComment(ctx context.Context, ticketID int64, text string) (schema.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return schema.Comment{}, &ValidationError{Detail: "comment cannot be empty", Fields: map[string]string{"comment": "required"}}
	}
	var comment schema.Comment
	if err := client.do(ctx, call{
		op:     fmt.Sprintf("comment on ticket %d", ticketID),
		method: http.MethodPost,
		path:   fmt.Sprintf("/tickets/%d/comments", ticketID),
		body:   schema.CommentDraft{Comment: text, TicketID: ticketID},
		out:    &comment,
	}); err != nil {
		return schema.Comment{}, err
	}
	return comment, nil
}

// GetComment fetches one comment.
func (client *Client) GetComment(ctx context.Context, commentID int64) (schema.Comment, error) {
	var comment schema.Comment
	if err := client.do(ctx, call{
		op:     fmt.Sprintf("get comment %d", commentID),
		method: http.MethodGet,
		path:   fmt.Sprintf("/tickets/comments/%d", commentID),
		out:    &comment,
	}); err != nil {
		return schema.Comment{}, err
	}
	return comment, nil
}

// UpdateComment replaces a comment's text (author only).
func (client *Client) UpdateComment(ctx context.Context, commentID int64, text string) (schema.Comment, error) {
	return client.editComment(ctx, http.MethodPut, commentID, text)
}

// PatchComment edits a comment's text with PATCH (author only).
func (client *Client) PatchComment(ctx context.Context, commentID int64, text string) (schema.Comment, error) {
	return client.editComment(ctx, http.MethodPatch, commentID, text)
}

func (client *Client) editComment(ctx context.Context, method string, commentID int64, text string) (schema.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return schema.Comment{}, &ValidationError{Detail: "comment cannot be empty", Fields: map[string]string{"comment": "required"}}
	}
	var comment schema.Comment
	if err := client.do(ctx, call{
		op:     fmt.Sprintf("edit comment %d", commentID),
		method: method,
		path:   fmt.Sprintf("/tickets/comments/%d", commentID),
		body:   schema.CommentEdit{Comment: text},
		out:    &comment,
	}); err != nil {
		return schema.Comment{}, err
	}
	return comment, nil
}

// DeleteComment deletes a comment (author only). Callers confirm first.
func (client *Client) DeleteComment(ctx context.Context, commentID int64) error {
	return client.do(ctx, call{
		op:     fmt.Sprintf("delete comment %d", commentID),
		method: http.MethodDelete,
		path:   fmt.Sprintf("/tickets/comments/%d", commentID),
	})
}

// CommentCount returns how many comments a ticket has. The endpoint is
// public; no token is sent.
func (client *Client) CommentCount(ctx context.Context, ticketID int64) (int, error) {
	var count schema.CommentCount
	if err := client.do(ctx, call{
		op:     fmt.Sprintf("count comments of ticket %d", ticketID),
		method: http.MethodGet,
		path:   fmt.Sprintf("/tickets/%d/comments/count", ticketID),
		public: true,
		out:    &count,
	}); err != nil {
		return 0, err
	}
	return count.Count, nil
}
