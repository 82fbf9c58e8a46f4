// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"

	"github.com/devtrack-foundation/devtrack/lib/board"
	"github.com/devtrack-foundation/devtrack/lib/boardcache"
)

// OpenCache opens the board cache when the configuration enables it.
// It returns nil when the cache is disabled or cannot be opened; the
// board then works without offline fallback.
func (client *Client) OpenCache(logger *slog.Logger) *boardcache.Cache {
	if !client.Config.Cache.Enabled {
		return nil
	}
	cache, err := boardcache.Open(boardcache.Config{
		Path:        client.Config.Cache.Path,
		Compression: client.Config.CacheCompression(),
		Logger:      logger,
	})
	if err != nil {
		logger.Warn("board cache unavailable", "path", client.Config.Cache.Path, "error", err)
		return nil
	}
	return cache
}

// Board creates a board manager for projectID on the client's API,
// backed by the board cache when enabled. The returned function
// releases the manager and the cache.
func (client *Client) Board(projectID int64, logger *slog.Logger) (*board.Manager, func(), error) {
	cache := client.OpenCache(logger)
	config := board.Config{
		API:      client.API,
		Debounce: client.Config.Board.Debounce.Std(),
		Logger:   logger,
	}
	if cache != nil {
		config.Cache = cache
	}
	manager, err := board.NewManager(config)
	if err != nil {
		if cache != nil {
			cache.Close()
		}
		return nil, nil, Internal("%w", err)
	}
	if projectID != 0 {
		manager.SetProject(projectID)
	}
	return manager, func() {
		manager.Close()
		if cache != nil {
			if err := cache.Close(); err != nil {
				logger.Warn("closing board cache failed", "error", err)
			}
		}
	}, nil
}
