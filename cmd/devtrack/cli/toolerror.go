// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"

	"github.com/devtrack-foundation/devtrack/lib/apiclient"
)

// ErrorCategory classifies command errors. The category picks the
// process exit code (see [ExitCodeFor]) so scripts can react without
// parsing messages.
type ErrorCategory string

const (
	// CategoryValidation: missing or malformed arguments, or input the
	// server rejected. Fix the input and retry.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound: a referenced project, ticket, comment, or user
	// does not exist.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryForbidden: the caller's role or ownership does not permit
	// the operation, or the caller is not signed in.
	CategoryForbidden ErrorCategory = "forbidden"

	// CategoryConflict: the operation conflicts with existing state,
	// such as registering an email that is already taken.
	CategoryConflict ErrorCategory = "conflict"

	// CategoryTransient: the server was unreachable, timed out, or
	// failed. Retrying later may succeed.
	CategoryTransient ErrorCategory = "transient"

	// CategoryInternal: anything else, including local I/O failures.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError is a categorized error returned by commands. It wraps the
// underlying error, so errors.Is and errors.As see the full chain.
type ToolError struct {
	Category ErrorCategory
	Err      error

	// Hint is an optional suggestion printed after the message.
	Hint string
}

// Error returns the message followed by the hint, if any.
func (e *ToolError) Error() string {
	if e.Hint == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + "\n\n" + e.Hint
}

func (e *ToolError) Unwrap() error { return e.Err }

// WithHint sets the hint and returns the receiver.
func (e *ToolError) WithHint(hint string) *ToolError {
	e.Hint = hint
	return e
}

// Validation creates a validation error.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error.
func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Forbidden creates a forbidden error.
func Forbidden(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryForbidden, Err: fmt.Errorf(format, args...)}
}

// Conflict creates a conflict error.
func Conflict(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryConflict, Err: fmt.Errorf(format, args...)}
}

// Transient creates a transient error.
func Transient(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryTransient, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}

// LoginHint is shown whenever a command needs a session it does not
// have.
const LoginHint = "Run 'devtrack login <email>' to sign in."

// FromAPI categorizes an error from the DevTrack API client. action
// prefixes the message ("create ticket"). A nil error stays nil and an
// error that is already a ToolError is returned unchanged.
func FromAPI(action string, err error) error {
	if err == nil {
		return nil
	}
	var toolError *ToolError
	if errors.As(err, &toolError) {
		return err
	}

	var (
		auth       *apiclient.AuthError
		forbidden  *apiclient.ForbiddenError
		notFound   *apiclient.NotFoundError
		validation *apiclient.ValidationError
		network    *apiclient.NetworkError
		server     *apiclient.ServerError
	)
	switch {
	case errors.As(err, &auth):
		return Forbidden("%s: %w", action, err).WithHint(LoginHint)
	case errors.As(err, &forbidden):
		return Forbidden("%s: %w", action, err)
	case errors.As(err, &notFound):
		return NotFound("%s: %w", action, err)
	case errors.As(err, &validation):
		if validation.StatusCode == 409 {
			return Conflict("%s: %w", action, err)
		}
		return Validation("%s: %w", action, err)
	case errors.As(err, &network):
		return Transient("%s: %w", action, err).
			WithHint("Check that the DevTrack server is running and that --server (or DEVTRACK_SERVER) points at it.")
	case errors.As(err, &server):
		if server.StatusCode >= 500 {
			return Transient("%s: %w", action, err)
		}
		return Internal("%s: %w", action, err)
	}
	return Internal("%s: %w", action, err)
}
