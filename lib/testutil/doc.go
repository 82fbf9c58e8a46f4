// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for DevTrack packages:
// bounded channel receives, isolated config directories, and unique
// identifiers for fixtures.
package testutil
