// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package apitest provides an in-memory DevTrack backend for tests.
//
// [Server] serves every endpoint the client uses over an
// httptest.Server and enforces the backend's membership and ownership
// rules: only ADMIN manages members and deletes projects, only ADMIN
// and DEV create and delete tickets, an assignee may change only the
// status of their own ticket, and only a comment's author may edit or
// delete it. Error bodies use the backend's {"detail": ...} shape and
// messages.
//
// Tests seed state directly ([Server.AddUser], [Server.AddProject],
// [Server.AddTicket]), inject failures ([Server.FailNext]), hold
// requests to force response reordering ([Server.HoldNext]), and count
// requests per route ([Server.Requests]).
package apitest
