// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"fmt"
)

// Comment is one entry in a ticket's discussion thread. Only its author
// (UserID) may edit or delete it.
type Comment struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	UserEmail string    `json:"user_email,omitempty"`
	Comment   string    `json:"comment"`
	CreatedAt Timestamp `json:"created_at,omitzero"`
}

// Author returns the best display name for the comment's author.
func (comment Comment) Author() string {
	if comment.Username != "" {
		return comment.Username
	}
	if comment.UserEmail != "" {
		return comment.UserEmail
	}
	return fmt.Sprintf("user %d", comment.UserID)
}

// CommentDraft is the body of POST /tickets/{id}/comments.
type CommentDraft struct {
	Comment  string `json:"comment"`
	TicketID int64  `json:"ticket_id"`
}

// CommentEdit is the body of PUT and PATCH /tickets/comments/{id}.
type CommentEdit struct {
	Comment string `json:"comment"`
}

// Page selects a window of a paginated listing.
type Page struct {
	Skip  int
	Limit int
}

// DefaultPage is the first page of fifty comments.
var DefaultPage = Page{Skip: 0, Limit: 50}

// Normalized returns the page with a non-negative Skip and a positive
// Limit, substituting the default limit when none is set.
func (page Page) Normalized() Page {
	if page.Skip < 0 {
		page.Skip = 0
	}
	if page.Limit <= 0 {
		page.Limit = DefaultPage.Limit
	}
	return page
}

// CommentCount is the body of GET /tickets/{id}/comments/count. The
// backend has reported the count as a bare number and as an object
// keyed "count" or "comment_count"; all three decode.
type CommentCount struct {
	TicketID int64 `json:"ticket_id,omitempty"`
	Count    int   `json:"count"`
}

// UnmarshalJSON accepts a bare integer or an object carrying the count.
func (count *CommentCount) UnmarshalJSON(data []byte) error {
	var bare int
	if err := json.Unmarshal(data, &bare); err == nil {
		count.Count = bare
		return nil
	}
	var object struct {
		TicketID     int64 `json:"ticket_id"`
		Count        *int  `json:"count"`
		CommentCount *int  `json:"comment_count"`
	}
	if err := json.Unmarshal(data, &object); err != nil {
		return fmt.Errorf("comment count: %w", err)
	}
	count.TicketID = object.TicketID
	switch {
	case object.Count != nil:
		count.Count = *object.Count
	case object.CommentCount != nil:
		count.Count = *object.CommentCount
	default:
		return fmt.Errorf("comment count: no count field in %s", data)
	}
	return nil
}
