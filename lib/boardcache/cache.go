// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boardcache

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/zeebo/blake3"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/devtrack-foundation/devtrack/lib/codec"
	"github.com/devtrack-foundation/devtrack/lib/schema"
	"github.com/devtrack-foundation/devtrack/lib/sqlitepool"
)

const tableSchema = `
CREATE TABLE IF NOT EXISTS board_snapshot (
	project_id  INTEGER PRIMARY KEY,
	digest      TEXT    NOT NULL,
	compression TEXT    NOT NULL,
	size        INTEGER NOT NULL,
	payload     BLOB    NOT NULL,
	fetched_at  INTEGER NOT NULL
);
`

// digestKey is the BLAKE3 key for snapshot digests: the ASCII domain
// name, zero-padded to 32 bytes.
var digestKey = [32]byte{
	'd', 'e', 'v', 't', 'r', 'a', 'c', 'k', '.', 'b', 'o', 'a', 'r', 'd', '.',
	's', 'n', 'a', 'p', 's', 'h', 'o', 't',
}

// Digest returns the hex snapshot digest of encoded bytes.
func Digest(encoded []byte) string {
	hasher, err := blake3.NewKeyed(digestKey[:])
	if err != nil {
		panic("boardcache: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(encoded)
	return hex.EncodeToString(hasher.Sum(nil))
}

// Config configures a Cache.
type Config struct {
	// Path is the database file; ":memory:" for tests.
	Path string

	// Compression for new snapshots. Empty means zstd.
	Compression Compression

	Logger *slog.Logger
}

// Cache stores board snapshots. Safe for concurrent use.
type Cache struct {
	pool        *sqlitepool.Pool
	compression Compression
	logger      *slog.Logger
}

// Open opens (creating if needed) the cache database.
func Open(config Config) (*Cache, error) {
	compression, err := ParseCompression(string(config.Compression))
	if err != nil {
		return nil, fmt.Errorf("boardcache: %w", err)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   config.Path,
		Schema: tableSchema,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("boardcache: %w", err)
	}
	return &Cache{pool: pool, compression: compression, logger: logger}, nil
}

// Close closes the database.
func (cache *Cache) Close() error {
	return cache.pool.Close()
}

// Entry describes a stored snapshot without decoding it.
type Entry struct {
	ProjectID   int64
	Digest      string
	Compression Compression
	Size        int
	Stored      int
	FetchedAt   time.Time
}

// Save stores tickets as the snapshot of projectID. When the encoded
// list matches the stored digest only fetched_at is updated.
func (cache *Cache) Save(ctx context.Context, projectID int64, tickets []schema.Ticket, fetchedAt time.Time) (err error) {
	if tickets == nil {
		tickets = []schema.Ticket{}
	}
	encoded, err := codec.Marshal(tickets)
	if err != nil {
		return fmt.Errorf("boardcache: encoding project %d: %w", projectID, err)
	}
	digest := Digest(encoded)

	conn, err := cache.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("boardcache: %w", err)
	}
	defer cache.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("boardcache: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	var storedDigest string
	err = sqlitex.Execute(conn, "SELECT digest FROM board_snapshot WHERE project_id = ?", &sqlitex.ExecOptions{
		Args: []any{projectID},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			storedDigest = stmt.ColumnText(0)
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("boardcache: reading digest of project %d: %w", projectID, err)
	}

	if storedDigest == digest {
		err = sqlitex.Execute(conn, "UPDATE board_snapshot SET fetched_at = ? WHERE project_id = ?", &sqlitex.ExecOptions{
			Args: []any{fetchedAt.UnixMilli(), projectID},
		})
		if err != nil {
			return fmt.Errorf("boardcache: refreshing project %d: %w", projectID, err)
		}
		cache.logger.Debug("board snapshot unchanged", "project_id", projectID, "digest", digest[:12])
		return nil
	}

	payload, compression, err := compress(encoded, cache.compression)
	if err != nil {
		return fmt.Errorf("boardcache: compressing project %d: %w", projectID, err)
	}
	err = sqlitex.Execute(conn, `
		INSERT INTO board_snapshot (project_id, digest, compression, size, payload, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (project_id) DO UPDATE SET
			digest = excluded.digest,
			compression = excluded.compression,
			size = excluded.size,
			payload = excluded.payload,
			fetched_at = excluded.fetched_at`,
		&sqlitex.ExecOptions{
			Args: []any{projectID, digest, string(compression), len(encoded), payload, fetchedAt.UnixMilli()},
		})
	if err != nil {
		return fmt.Errorf("boardcache: storing project %d: %w", projectID, err)
	}
	cache.logger.Debug("board snapshot stored",
		"project_id", projectID,
		"tickets", len(tickets),
		"compression", compression,
		"size", len(encoded),
		"stored", len(payload),
	)
	return nil
}

// Load returns the snapshot of projectID. found is false when none is
// stored.
func (cache *Cache) Load(ctx context.Context, projectID int64) (tickets []schema.Ticket, fetchedAt time.Time, found bool, err error) {
	encoded, entry, found, err := cache.read(ctx, projectID)
	if err != nil || !found {
		return nil, time.Time{}, false, err
	}
	if Digest(encoded) != entry.Digest {
		return nil, time.Time{}, false, fmt.Errorf("boardcache: snapshot of project %d fails its digest check", projectID)
	}
	if err := codec.Unmarshal(encoded, &tickets); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("boardcache: decoding project %d: %w", projectID, err)
	}
	return tickets, entry.FetchedAt, true, nil
}

// Raw returns the decompressed CBOR snapshot of projectID and its
// metadata, for inspection.
func (cache *Cache) Raw(ctx context.Context, projectID int64) ([]byte, Entry, bool, error) {
	return cache.read(ctx, projectID)
}

func (cache *Cache) read(ctx context.Context, projectID int64) ([]byte, Entry, bool, error) {
	conn, err := cache.pool.Take(ctx)
	if err != nil {
		return nil, Entry{}, false, fmt.Errorf("boardcache: %w", err)
	}
	defer cache.pool.Put(conn)

	var (
		entry   Entry
		payload []byte
		found   bool
	)
	err = sqlitex.Execute(conn,
		"SELECT digest, compression, size, payload, fetched_at FROM board_snapshot WHERE project_id = ?",
		&sqlitex.ExecOptions{
			Args: []any{projectID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				entry = Entry{
					ProjectID:   projectID,
					Digest:      stmt.ColumnText(0),
					Compression: Compression(stmt.ColumnText(1)),
					Size:        stmt.ColumnInt(2),
					FetchedAt:   time.UnixMilli(stmt.ColumnInt64(4)).UTC(),
				}
				payload = make([]byte, stmt.ColumnLen(3))
				stmt.ColumnBytes(3, payload)
				entry.Stored = len(payload)
				return nil
			},
		})
	if err != nil {
		return nil, Entry{}, false, fmt.Errorf("boardcache: reading project %d: %w", projectID, err)
	}
	if !found {
		return nil, Entry{}, false, nil
	}
	encoded, err := decompress(payload, entry.Compression, entry.Size)
	if err != nil {
		return nil, Entry{}, false, fmt.Errorf("boardcache: project %d: %w", projectID, err)
	}
	return encoded, entry, true, nil
}

// Entries lists the metadata of every stored snapshot, by project.
func (cache *Cache) Entries(ctx context.Context) ([]Entry, error) {
	conn, err := cache.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("boardcache: %w", err)
	}
	defer cache.pool.Put(conn)

	var entries []Entry
	err = sqlitex.Execute(conn,
		"SELECT project_id, digest, compression, size, length(payload), fetched_at FROM board_snapshot ORDER BY project_id",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				entries = append(entries, Entry{
					ProjectID:   stmt.ColumnInt64(0),
					Digest:      stmt.ColumnText(1),
					Compression: Compression(stmt.ColumnText(2)),
					Size:        stmt.ColumnInt(3),
					Stored:      stmt.ColumnInt(4),
					FetchedAt:   time.UnixMilli(stmt.ColumnInt64(5)).UTC(),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("boardcache: listing snapshots: %w", err)
	}
	return entries, nil
}

// Forget deletes the snapshot of projectID, if any.
func (cache *Cache) Forget(ctx context.Context, projectID int64) error {
	conn, err := cache.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("boardcache: %w", err)
	}
	defer cache.pool.Put(conn)
	if err := sqlitex.Execute(conn, "DELETE FROM board_snapshot WHERE project_id = ?", &sqlitex.ExecOptions{
		Args: []any{projectID},
	}); err != nil {
		return fmt.Errorf("boardcache: forgetting project %d: %w", projectID, err)
	}
	return nil
}
