// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package apiclient is the typed HTTP client for the DevTrack REST API:
// authentication, projects and their members, tickets, comments, and
// the dashboard summary.
//
// The client attaches the bearer token from an injected
// [session.Session] to every call except registration, login, and the
// comment count. A protected call made without a token fails with
// [ErrNotAuthenticated] before any request is sent. A 401 from any
// protected call invalidates the session (for the token generation the
// request was made with) and returns an [AuthError].
//
// Non-2xx responses become typed errors discoverable with errors.As:
//
//	401  *AuthError
//	403  *ForbiddenError
//	404  *NotFoundError
//	400, 409, 422  *ValidationError (with per-field messages)
//	other  *ServerError
//
// Transport failures and timeouts become *NetworkError. A cancelled
// context is returned as the context's error, not as a NetworkError, so
// superseded fetches are distinguishable from connectivity problems.
//
// Every request carries a fresh X-Request-ID header, also attached to
// the debug log line for the call, so client and server logs can be
// correlated.
package apiclient
