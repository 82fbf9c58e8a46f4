// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package comments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/devtrack-foundation/devtrack/lib/apiclient"
	"github.com/devtrack-foundation/devtrack/lib/rolegate"
	"github.com/devtrack-foundation/devtrack/lib/schema"
)

// MaxLength is the longest comment the server accepts, in characters.
const MaxLength = 5000

var (
	// ErrClosed is returned by operations on a closed Thread.
	ErrClosed = errors.New("comment thread is closed")

	// ErrNotConfirmed is returned by DeleteComment without
	// confirmation. No request is sent.
	ErrNotConfirmed = errors.New("not confirmed")

	// errSuperseded marks a load whose result was discarded because a
	// newer load finished first.
	errSuperseded = errors.New("superseded by a newer load")
)

// API is the part of the DevTrack client a thread uses.
// *apiclient.Client implements it.
type API interface {
	ListComments(ctx context.Context, ticketID int64, page schema.Page) ([]schema.Comment, error)
	CreateComment(ctx context.Context, ticketID int64, text string) (schema.Comment, error)
	UpdateComment(ctx context.Context, commentID int64, text string) (schema.Comment, error)
	DeleteComment(ctx context.Context, commentID int64) error
	CommentCount(ctx context.Context, ticketID int64) (int, error)
}

// Config configures threads.
type Config struct {
	API API

	// CurrentUser reports the signed-in user for CanModify. Typically
	// (*session.Session).CurrentUser. Nil means nobody may modify.
	CurrentUser func() (schema.User, bool)

	Logger *slog.Logger
}

// Thread is the comment list of one ticket. Safe for concurrent use.
type Thread struct {
	api         API
	currentUser func() (schema.User, bool)
	logger      *slog.Logger
	ticketID    int64

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	comments  []schema.Comment
	page      schema.Page
	loaded    bool
	exhausted bool
	lastErr   error
	issued    uint64
	applied   uint64
}

// Open starts a thread for ticketID. Nothing is fetched until
// LoadComments.
func Open(config Config, ticketID int64) (*Thread, error) {
	if config.API == nil {
		return nil, fmt.Errorf("comments: API is required")
	}
	if ticketID <= 0 {
		return nil, fmt.Errorf("comments: invalid ticket ID %d", ticketID)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Thread{
		api:         config.API,
		currentUser: config.CurrentUser,
		logger:      logger.With("ticket_id", ticketID),
		ticketID:    ticketID,
		ctx:         ctx,
		cancel:      cancel,
		page:        schema.DefaultPage,
	}, nil
}

// TicketID returns the ticket the thread belongs to.
func (thread *Thread) TicketID() int64 { return thread.ticketID }

// Close cancels in-flight requests. Later calls fail with ErrClosed.
func (thread *Thread) Close() { thread.cancel() }

// scope joins ctx with the thread's lifetime.
func (thread *Thread) scope(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if thread.ctx.Err() != nil {
		return nil, nil, ErrClosed
	}
	scoped, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(thread.ctx, cancel)
	return scoped, func() {
		stop()
		cancel()
	}, nil
}

// Comments returns a copy of the loaded comments, oldest first.
func (thread *Thread) Comments() []schema.Comment {
	thread.mu.Lock()
	defer thread.mu.Unlock()
	return slices.Clone(thread.comments)
}

// Loaded reports whether any page has been applied.
func (thread *Thread) Loaded() bool {
	thread.mu.Lock()
	defer thread.mu.Unlock()
	return thread.loaded
}

// HasMore reports whether the last page came back full, so LoadMore
// may find more comments.
func (thread *Thread) HasMore() bool {
	thread.mu.Lock()
	defer thread.mu.Unlock()
	return thread.loaded && !thread.exhausted
}

// LastError returns the most recent failure, cleared by the next
// successful load.
func (thread *Thread) LastError() error {
	thread.mu.Lock()
	defer thread.mu.Unlock()
	return thread.lastErr
}

// CanModify reports whether the signed-in user may edit or delete
// comment.
func (thread *Thread) CanModify(comment schema.Comment) bool {
	if thread.currentUser == nil {
		return false
	}
	user, ok := thread.currentUser()
	if !ok {
		return false
	}
	return rolegate.CanModifyComment(comment, user)
}

func (thread *Thread) fail(op string, err error) error {
	if errors.Is(err, context.Canceled) && thread.ctx.Err() != nil {
		return ErrClosed
	}
	thread.logger.Warn("comment operation failed", "op", op, "error", err)
	thread.mu.Lock()
	thread.lastErr = err
	thread.mu.Unlock()
	return err
}

// LoadComments fetches page and replaces the list with it.
func (thread *Thread) LoadComments(ctx context.Context, page schema.Page) error {
	page = page.Normalized()
	comments, err := thread.fetch(ctx, page)
	if err != nil {
		return err
	}
	thread.mu.Lock()
	thread.comments = comments
	thread.page = page
	thread.loaded = true
	thread.exhausted = len(comments) < page.Limit
	thread.lastErr = nil
	thread.mu.Unlock()
	thread.logger.Debug("comments loaded", "count", len(comments), "skip", page.Skip)
	return nil
}

// LoadMore fetches the page following the loaded comments and appends
// it. Returns how many comments were added.
func (thread *Thread) LoadMore(ctx context.Context) (int, error) {
	thread.mu.Lock()
	next := schema.Page{Skip: thread.page.Skip + len(thread.comments), Limit: thread.page.Limit}
	thread.mu.Unlock()

	comments, err := thread.fetch(ctx, next)
	if err != nil {
		return 0, err
	}

	thread.mu.Lock()
	defer thread.mu.Unlock()
	seen := make(map[int64]bool, len(thread.comments))
	for _, comment := range thread.comments {
		seen[comment.ID] = true
	}
	added := 0
	for _, comment := range comments {
		if seen[comment.ID] {
			continue
		}
		thread.comments = append(thread.comments, comment)
		added++
	}
	thread.loaded = true
	thread.exhausted = len(comments) < next.Limit
	thread.lastErr = nil
	return added, nil
}

// fetch lists one page, discarding the result if a newer fetch has
// already been applied.
func (thread *Thread) fetch(ctx context.Context, page schema.Page) ([]schema.Comment, error) {
	scoped, cancel, err := thread.scope(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	thread.mu.Lock()
	thread.issued++
	sequence := thread.issued
	thread.mu.Unlock()

	comments, err := thread.api.ListComments(scoped, thread.ticketID, page)

	thread.mu.Lock()
	if sequence <= thread.applied {
		thread.mu.Unlock()
		return nil, fmt.Errorf("load comments: %w", errSuperseded)
	}
	thread.applied = sequence
	thread.mu.Unlock()

	if err != nil {
		return nil, thread.fail("load", err)
	}
	return comments, nil
}

// reload refreshes the current window after a mutation.
func (thread *Thread) reload(ctx context.Context) {
	thread.mu.Lock()
	page := schema.Page{Skip: thread.page.Skip, Limit: max(thread.page.Limit, len(thread.comments)+1)}
	thread.mu.Unlock()
	if err := thread.LoadComments(ctx, page); err != nil && !errors.Is(err, errSuperseded) {
		thread.logger.Warn("reload after comment change failed", "error", err)
	}
}

func validateText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", &apiclient.ValidationError{Detail: "comment cannot be empty", Fields: map[string]string{"comment": "required"}}
	}
	if utf8.RuneCountInString(trimmed) > MaxLength {
		return "", &apiclient.ValidationError{
			Detail: fmt.Sprintf("comment is longer than %d characters", MaxLength),
			Fields: map[string]string{"comment": "too long"},
		}
	}
	return trimmed, nil
}

// CreateComment posts text on the ticket and reloads. Empty or
// whitespace-only text is rejected without a request.
func (thread *Thread) CreateComment(ctx context.Context, text string) (schema.Comment, error) {
	text, err := validateText(text)
	if err != nil {
		return schema.Comment{}, err
	}
	scoped, cancel, err := thread.scope(ctx)
	if err != nil {
		return schema.Comment{}, err
	}
	defer cancel()

	comment, err := thread.api.CreateComment(scoped, thread.ticketID, text)
	if err != nil {
		return schema.Comment{}, thread.fail("create", err)
	}
	thread.logger.Info("comment added", "comment_id", comment.ID)
	thread.reload(scoped)
	return comment, nil
}

// UpdateComment replaces a comment's text. On success the comment is
// replaced in place; on failure (including a 403 for someone else's
// comment) the list is unchanged.
func (thread *Thread) UpdateComment(ctx context.Context, commentID int64, text string) (schema.Comment, error) {
	text, err := validateText(text)
	if err != nil {
		return schema.Comment{}, err
	}
	scoped, cancel, err := thread.scope(ctx)
	if err != nil {
		return schema.Comment{}, err
	}
	defer cancel()

	updated, err := thread.api.UpdateComment(scoped, commentID, text)
	if err != nil {
		return schema.Comment{}, thread.fail("update", err)
	}

	thread.mu.Lock()
	for index := range thread.comments {
		if thread.comments[index].ID == commentID {
			thread.comments[index] = updated
			break
		}
	}
	thread.mu.Unlock()
	thread.logger.Info("comment edited", "comment_id", commentID)
	return updated, nil
}

// DeleteComment deletes a comment and reloads. Without confirm it
// returns ErrNotConfirmed and sends nothing.
func (thread *Thread) DeleteComment(ctx context.Context, commentID int64, confirm bool) error {
	if !confirm {
		return fmt.Errorf("delete comment %d: %w", commentID, ErrNotConfirmed)
	}
	scoped, cancel, err := thread.scope(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	if err := thread.api.DeleteComment(scoped, commentID); err != nil {
		return thread.fail("delete", err)
	}
	thread.mu.Lock()
	thread.comments = slices.DeleteFunc(thread.comments, func(comment schema.Comment) bool {
		return comment.ID == commentID
	})
	thread.mu.Unlock()
	thread.logger.Info("comment deleted", "comment_id", commentID)
	thread.reload(scoped)
	return nil
}

// CommentCount fetches the ticket's total comment count without
// loading the comments.
func (thread *Thread) CommentCount(ctx context.Context) (int, error) {
	scoped, cancel, err := thread.scope(ctx)
	if err != nil {
		return 0, err
	}
	defer cancel()
	count, err := thread.api.CommentCount(scoped, thread.ticketID)
	if err != nil {
		return 0, thread.fail("count", err)
	}
	return count, nil
}
