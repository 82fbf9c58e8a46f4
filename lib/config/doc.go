// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads DevTrack client configuration.
//
// Configuration is a YAML file named by the --config flag or the
// DEVTRACK_CONFIG environment variable. With neither set, built-in
// defaults are used; there is no search for a file in other places.
// Two environment variables override file values: DEVTRACK_SERVER
// (server.url) and DEVTRACK_SESSION_FILE (session.file).
//
// Loading runs in a fixed order: defaults, the file, environment
// overrides, ${VAR} and ${VAR:-default} expansion in path fields,
// normalization, and finally [Config.Validate], which reports every
// problem at once.
//
//	server:
//	  url: https://devtrack.example.com
//	  timeout: 30s
//	board:
//	  debounce: 400ms
//	  status_policy: assignee-only
//	cache:
//	  enabled: true
//	  path: ${HOME}/.cache/devtrack/board.db
//	  compression: zstd
//	log:
//	  file: ""
//	  level: info
package config
