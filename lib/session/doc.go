// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session owns the DevTrack bearer credential and the identity
// of the user it belongs to.
//
// A [Session] is created once per process and passed explicitly to the
// API client and the views that need the current user; nothing reads
// the token from ambient state. Only two kinds of event write the
// token: [Session.Begin] after a successful login or registration, and
// [Session.Invalidate] / [Session.Logout] when the server rejects the
// token or the user signs out.
//
// The token is persisted through a [Store] under the key "token"
// ([FileStore] writes ~/.config/devtrack/session.json with mode 0600).
// In memory it lives in a [secret.Buffer].
//
// Every Begin starts a new generation. Callers that captured a token
// for an in-flight request invalidate with the generation they used,
// so a late 401 from a request made under an old token cannot destroy
// a session the user established afterwards.
package session
