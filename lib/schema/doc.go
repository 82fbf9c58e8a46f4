// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema defines the DevTrack wire types shared by the API
// client, the board and comment managers, the role gate, and the
// terminal board: users, projects and memberships, tickets, comments,
// and the dashboard summaries.
//
// Field names and JSON tags mirror the backend's REST payloads
// (snake_case on the wire). Optional fields are pointers so that "not
// set" and "set to the zero value" stay distinguishable: a ticket with
// no assignee encodes assigned_to_id as null, never 0.
//
// The enumerations (Role, Status, Priority, IssueType) are string
// types with an IsKnown method. Parsing is strict here; the lenient
// "unknown role means least privilege" rule lives in lib/rolegate,
// where authorization decisions are made.
package schema
