// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/devtrack-foundation/devtrack/lib/schema"
	"github.com/devtrack-foundation/devtrack/lib/secret"
)

// NoticeKind distinguishes why a session ended.
type NoticeKind int

const (
	// NoticeInvalidated means the server rejected the token (401).
	NoticeInvalidated NoticeKind = iota
	// NoticeLoggedOut means the user signed out.
	NoticeLoggedOut
)

// Notice is delivered to subscribers when the session ends.
type Notice struct {
	Kind   NoticeKind
	Reason string
}

// Session holds the bearer token and the current user. Safe for
// concurrent use.
type Session struct {
	mu          sync.Mutex
	store       Store
	logger      *slog.Logger
	token       *secret.Buffer
	server      string
	user        *schema.User
	generation  uint64
	subscribers []chan Notice
}

// New creates an empty session backed by store. A nil store keeps the
// session in memory only; a nil logger discards.
func New(store Store, logger *slog.Logger) *Session {
	if store == nil {
		store = &MemoryStore{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{store: store, logger: logger}
}

// Open creates a session and restores a persisted token from store.
// Nothing persisted is not an error: the session starts
// unauthenticated. The restored token has no current user until the
// caller resolves one (GET /auth/me).
func Open(store Store, logger *slog.Logger) (*Session, error) {
	session := New(store, logger)
	persisted, err := session.store.Load()
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return session, nil
		}
		return nil, err
	}
	if err := session.install(persisted.Token, persisted.Server); err != nil {
		return nil, err
	}
	session.logger.Debug("session restored", "server", persisted.Server)
	return session, nil
}

// Begin installs a freshly issued token, persists it, and starts a new
// generation. Any previous current user is forgotten.
func (session *Session) Begin(token, server string) error {
	if token == "" {
		return fmt.Errorf("session: empty token")
	}
	if err := session.install(token, server); err != nil {
		return err
	}
	if err := session.store.Save(Persisted{Token: token, Server: server}); err != nil {
		return fmt.Errorf("session: persisting token: %w", err)
	}
	session.logger.Info("session started", "server", server)
	return nil
}

func (session *Session) install(token, server string) error {
	buffer, err := secret.NewFromString(token)
	if err != nil {
		return fmt.Errorf("session: protecting token: %w", err)
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.token != nil {
		session.token.Close()
	}
	session.token = buffer
	session.server = server
	session.user = nil
	session.generation++
	return nil
}

// Token returns the bearer token, or false when unauthenticated.
func (session *Session) Token() (string, bool) {
	token, _, ok := session.Credential()
	return token, ok
}

// Credential returns the token together with the generation it
// belongs to. Pass the generation to InvalidateGeneration when the
// request made with this token comes back 401.
func (session *Session) Credential() (string, uint64, bool) {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.token == nil {
		return "", session.generation, false
	}
	return session.token.String(), session.generation, true
}

// Authenticated reports whether a token is present.
func (session *Session) Authenticated() bool {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.token != nil
}

// Server returns the backend URL the token was issued by.
func (session *Session) Server() string {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.server
}

// SetCurrentUser records the identity resolved for the current token.
// Ignored when the session is unauthenticated.
func (session *Session) SetCurrentUser(user schema.User) {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.token == nil {
		return
	}
	session.user = &user
}

// SetCurrentUserFor records user only if the session is still in the
// given generation. Take the generation from [Session.Credential]
// before resolving the user; a result that arrives after logout or a
// new login is dropped. Returns whether the user was recorded.
func (session *Session) SetCurrentUserFor(generation uint64, user schema.User) bool {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.token == nil || session.generation != generation {
		return false
	}
	session.user = &user
	return true
}

// CurrentUser returns the resolved user, or false when the user is not
// yet known. Role-gated views must not enable controls until this
// returns true.
func (session *Session) CurrentUser() (schema.User, bool) {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.user == nil {
		return schema.User{}, false
	}
	return *session.user, true
}

// Invalidate ends the session because the server rejected the token.
// The persisted token is removed and subscribers are notified.
func (session *Session) Invalidate(reason string) {
	session.mu.Lock()
	generation := session.generation
	session.mu.Unlock()
	session.InvalidateGeneration(generation, reason)
}

// InvalidateGeneration ends the session only if it is still in the
// given generation. Returns whether anything was cleared.
func (session *Session) InvalidateGeneration(generation uint64, reason string) bool {
	if !session.end(generation, Notice{Kind: NoticeInvalidated, Reason: reason}) {
		return false
	}
	session.logger.Warn("session invalidated", "reason", reason)
	return true
}

// Logout ends the session at the user's request.
func (session *Session) Logout() error {
	session.mu.Lock()
	generation := session.generation
	session.mu.Unlock()
	session.end(generation, Notice{Kind: NoticeLoggedOut, Reason: "logged out"})
	if err := session.store.Clear(); err != nil {
		return fmt.Errorf("session: clearing saved token: %w", err)
	}
	session.logger.Info("session ended")
	return nil
}

func (session *Session) end(generation uint64, notice Notice) bool {
	session.mu.Lock()
	if session.generation != generation || session.token == nil {
		session.mu.Unlock()
		return false
	}
	session.token.Close()
	session.token = nil
	session.user = nil
	session.generation++
	subscribers := session.subscribers
	session.mu.Unlock()

	if notice.Kind == NoticeInvalidated {
		if err := session.store.Clear(); err != nil {
			session.logger.Error("clearing saved token failed", "error", err)
		}
	}

	// Non-blocking: a subscriber that has not drained its previous
	// notice already knows the session ended.
	for _, channel := range subscribers {
		select {
		case channel <- notice:
		default:
		}
	}
	return true
}

// Subscribe returns a channel that receives a Notice each time the
// session ends.
func (session *Session) Subscribe() <-chan Notice {
	channel := make(chan Notice, 1)
	session.mu.Lock()
	defer session.mu.Unlock()
	session.subscribers = append(session.subscribers, channel)
	return channel
}
