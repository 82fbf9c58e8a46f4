// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package boardcache keeps the last ticket list fetched for each
// project, so a board can show something when the server is
// unreachable.
//
// Snapshots live in a SQLite database (see lib/sqlitepool), one row
// per project:
//
//	board_snapshot(project_id, digest, compression, size, payload, fetched_at)
//
// The payload is the deterministic CBOR encoding of the ticket list
// (lib/codec), compressed with zstd or LZ4. The digest is a keyed
// BLAKE3 hash of the encoded bytes; saving a list whose digest matches
// the stored one only refreshes fetched_at.
//
// [Cache] implements board.Cache.
package boardcache
