// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/devtrack-foundation/devtrack/lib/secret"
)

// ErrNoSession is returned by Store.Load when nothing is persisted.
var ErrNoSession = errors.New("no saved session")

// Persisted is the value a Store keeps between runs. The token is the
// only required field; Server records which backend issued it so a
// token is never replayed against a different deployment.
type Persisted struct {
	Token  string `json:"token"`
	Server string `json:"server,omitempty"`
}

// Store persists the session token across process restarts.
type Store interface {
	Load() (Persisted, error)
	Save(Persisted) error
	Clear() error
}

// DefaultPath returns the session file location: $DEVTRACK_SESSION_FILE
// if set, otherwise devtrack/session.json under $XDG_CONFIG_HOME or
// ~/.config.
func DefaultPath() string {
	if path := os.Getenv("DEVTRACK_SESSION_FILE"); path != "" {
		return path
	}
	configDirectory := os.Getenv("XDG_CONFIG_HOME")
	if configDirectory == "" {
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "devtrack-session.json")
		}
		configDirectory = filepath.Join(homeDirectory, ".config")
	}
	return filepath.Join(configDirectory, "devtrack", "session.json")
}

// FileStore keeps the session in a JSON file readable only by its
// owner.
type FileStore struct {
	Path string
}

// Load reads the session file. A missing file is ErrNoSession.
func (store FileStore) Load() (Persisted, error) {
	data, err := os.ReadFile(store.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Persisted{}, ErrNoSession
		}
		return Persisted{}, fmt.Errorf("reading session file %s: %w", store.Path, err)
	}
	defer secret.Zero(data)

	var persisted Persisted
	if err := json.Unmarshal(data, &persisted); err != nil {
		return Persisted{}, fmt.Errorf("parsing session file %s: %w", store.Path, err)
	}
	if persisted.Token == "" {
		return Persisted{}, ErrNoSession
	}
	return persisted, nil
}

// Save writes the session file with mode 0600, creating its directory
// with mode 0700.
func (store FileStore) Save(persisted Persisted) error {
	data, err := json.MarshalIndent(persisted, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	data = append(data, '\n')
	defer secret.Zero(data)

	directory := filepath.Dir(store.Path)
	if err := os.MkdirAll(directory, 0700); err != nil {
		return fmt.Errorf("creating session directory %s: %w", directory, err)
	}
	if err := os.WriteFile(store.Path, data, 0600); err != nil {
		return fmt.Errorf("writing session file %s: %w", store.Path, err)
	}
	return nil
}

// Clear removes the session file. Removing a file that does not exist
// is not an error.
func (store FileStore) Clear() error {
	if err := os.Remove(store.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file %s: %w", store.Path, err)
	}
	return nil
}

// MemoryStore is a Store that lives only as long as the process. Tests
// use it to observe what a Session persisted.
type MemoryStore struct {
	mu        sync.Mutex
	persisted *Persisted
}

// Load returns the stored session or ErrNoSession.
func (store *MemoryStore) Load() (Persisted, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.persisted == nil {
		return Persisted{}, ErrNoSession
	}
	return *store.persisted, nil
}

// Save replaces the stored session.
func (store *MemoryStore) Save(persisted Persisted) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.persisted = &persisted
	return nil
}

// Clear forgets the stored session.
func (store *MemoryStore) Clear() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.persisted = nil
	return nil
}
