// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package comments manages the discussion thread of one open ticket.
//
// A [Thread] is opened per ticket and closed when the ticket view
// closes; Close cancels any fetch still in flight. LoadComments
// replaces the thread's list with one page of comments, and LoadMore
// appends the next page. Mutations validate their input before any
// request (blank text never reaches the server), reload the page on
// success, and leave the list untouched on failure. Failures are
// logged and kept in LastError so a view can show them without
// becoming unusable; retrying is calling LoadComments again.
//
// Edit and delete controls are offered only for the current user's
// own comments (CanModify), but the server decides: a 403 surfaces as
// an *apiclient.ForbiddenError.
package comments
