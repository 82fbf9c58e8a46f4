// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens the SQLite databases DevTrack keeps on the
// local machine.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool with the pragmas
// every DevTrack database uses and with schema setup on connect.
// Callers [Pool.Take] a connection, do their work with sqlitex.Execute
// and sqlitex.ImmediateTransaction, and [Pool.Put] it back.
// Connections are not safe for concurrent use.
//
// # Pragmas
//
//   - journal_mode=WAL: the terminal board and a CLI command can read
//     and write the same cache at once.
//   - synchronous=NORMAL: survives process crashes. The cache is
//     rebuilt from the server, so OS-crash durability is not needed.
//   - busy_timeout=5000: wait for a write lock instead of failing.
//   - temp_store=MEMORY.
//
// # Usage
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:   filepath.Join(cacheDir, "board.db"),
//	    Schema: boardSchema,
//	    Logger: logger,
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
package sqlitepool
