// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the devtrack
// binary.
//
// Three package-level variables are injected at build time via
// -ldflags -X:
//
//   - [GitCommit] -- short git SHA of the build
//   - [GitDirty] -- "true" if there were uncommitted changes
//   - [BuildTime] -- UTC timestamp of the build
//
// [Version] is the semantic version, set manually for releases. These
// default to "unknown" / "0.1.0-dev" in development builds and tests.
//
// [Info] and [Full] format the values for "devtrack version";
// [UserAgent] identifies the client to the DevTrack server.
package version
