// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package apiclient

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// AuthError is a 401: the token is missing, expired, or the credentials
// were wrong.
type AuthError struct {
	Detail string
}

func (e *AuthError) Error() string {
	if e.Detail == "" {
		return "not authenticated"
	}
	return "not authenticated: " + e.Detail
}

// ErrNotAuthenticated is returned, wrapped, by protected calls made
// while the session holds no token. No request is sent.
var ErrNotAuthenticated = &AuthError{Detail: "no session token"}

// ForbiddenError is a 403: the caller's role or ownership does not
// permit the action. Detail carries the server's explanation.
type ForbiddenError struct {
	Detail string
}

func (e *ForbiddenError) Error() string {
	if e.Detail == "" {
		return "forbidden"
	}
	return "forbidden: " + e.Detail
}

// NotFoundError is a 404.
type NotFoundError struct {
	Detail string
}

func (e *NotFoundError) Error() string {
	if e.Detail == "" {
		return "not found"
	}
	return "not found: " + e.Detail
}

// ValidationError is a 400, 409, or 422. Fields maps a request field
// name to its message when the server reported per-field problems.
type ValidationError struct {
	StatusCode int
	Detail     string
	Fields     map[string]string
}

func (e *ValidationError) Error() string {
	var builder strings.Builder
	builder.WriteString("invalid request")
	if e.Detail != "" {
		builder.WriteString(": ")
		builder.WriteString(e.Detail)
	}
	if len(e.Fields) > 0 {
		names := make([]string, 0, len(e.Fields))
		for name := range e.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&builder, "; %s: %s", name, e.Fields[name])
		}
	}
	return builder.String()
}

// NetworkError is a transport failure: the server was unreachable, the
// connection broke, or the request timed out.
type NetworkError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: request timed out: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is any response status the client has no specific
// handling for, including every 5xx.
type ServerError struct {
	StatusCode int
	Detail     string
}

func (e *ServerError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("server error: HTTP %d: %s", e.StatusCode, e.Detail)
}

// IsAuth reports whether err is (or wraps) an AuthError.
func IsAuth(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

// IsForbidden reports whether err is (or wraps) a ForbiddenError.
func IsForbidden(err error) bool {
	var target *ForbiddenError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsNetwork reports whether err is (or wraps) a NetworkError.
func IsNetwork(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// Detail returns the server-supplied explanation carried by a typed
// error, or err's message when there is none.
func Detail(err error) string {
	var (
		auth       *AuthError
		forbidden  *ForbiddenError
		notFound   *NotFoundError
		validation *ValidationError
		server     *ServerError
	)
	switch {
	case errors.As(err, &forbidden) && forbidden.Detail != "":
		return forbidden.Detail
	case errors.As(err, &validation) && validation.Detail != "":
		return validation.Detail
	case errors.As(err, &notFound) && notFound.Detail != "":
		return notFound.Detail
	case errors.As(err, &auth) && auth.Detail != "":
		return auth.Detail
	case errors.As(err, &server) && server.Detail != "":
		return server.Detail
	}
	return err.Error()
}
