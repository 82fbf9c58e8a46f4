// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devtrack-foundation/devtrack/lib/schema"
	"github.com/devtrack-foundation/devtrack/lib/testutil"
)

func TestBeginPersistsToken(t *testing.T) {
	store := &MemoryStore{}
	session := New(store, nil)

	if session.Authenticated() {
		t.Fatal("new session is authenticated")
	}
	if err := session.Begin("tok-1", "http://devtrack.test"); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	token, ok := session.Token()
	if !ok || token != "tok-1" {
		t.Errorf("Token() = %q, %v, want %q, true", token, ok, "tok-1")
	}
	persisted, err := store.Load()
	if err != nil {
		t.Fatalf("store.Load: %v", err)
	}
	if persisted.Token != "tok-1" {
		t.Errorf("persisted token = %q, want %q", persisted.Token, "tok-1")
	}
	if persisted.Server != "http://devtrack.test" {
		t.Errorf("persisted server = %q, want %q", persisted.Server, "http://devtrack.test")
	}
}

func TestBeginRejectsEmptyToken(t *testing.T) {
	session := New(nil, nil)
	if err := session.Begin("", "http://devtrack.test"); err == nil {
		t.Fatal("Begin(\"\") succeeded")
	}
	if session.Authenticated() {
		t.Error("session authenticated after rejected Begin")
	}
}

func TestCurrentUserRequiresToken(t *testing.T) {
	session := New(nil, nil)
	session.SetCurrentUser(schema.User{ID: 1, Email: "alice@example.test"})
	if _, ok := session.CurrentUser(); ok {
		t.Fatal("CurrentUser set on unauthenticated session")
	}

	if err := session.Begin("tok", ""); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, ok := session.CurrentUser(); ok {
		t.Fatal("CurrentUser known before SetCurrentUser")
	}
	session.SetCurrentUser(schema.User{ID: 1, Email: "alice@example.test"})
	user, ok := session.CurrentUser()
	if !ok || user.ID != 1 {
		t.Errorf("CurrentUser() = %+v, %v, want ID 1", user, ok)
	}
}

func TestInvalidateClearsTokenAndNotifies(t *testing.T) {
	store := &MemoryStore{}
	session := New(store, nil)
	notices := session.Subscribe()
	if err := session.Begin("tok", ""); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	session.SetCurrentUser(schema.User{ID: 1})

	session.Invalidate("Invalid Token")

	if session.Authenticated() {
		t.Error("session still authenticated after Invalidate")
	}
	if _, ok := session.CurrentUser(); ok {
		t.Error("current user survived Invalidate")
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Errorf("store.Load after Invalidate = %v, want ErrNoSession", err)
	}
	notice := testutil.RequireReceive(t, notices, time.Second, "waiting for invalidation notice")
	if notice.Kind != NoticeInvalidated || notice.Reason != "Invalid Token" {
		t.Errorf("notice = %+v, want invalidated with reason %q", notice, "Invalid Token")
	}
}

func TestInvalidateStaleGenerationIsIgnored(t *testing.T) {
	session := New(nil, nil)
	if err := session.Begin("old", ""); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	_, oldGeneration, _ := session.Credential()

	if err := session.Begin("new", ""); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if session.InvalidateGeneration(oldGeneration, "late 401") {
		t.Fatal("InvalidateGeneration cleared a newer session")
	}
	token, ok := session.Token()
	if !ok || token != "new" {
		t.Errorf("Token() = %q, %v, want %q, true", token, ok, "new")
	}
}

func TestSetCurrentUserForStaleGenerationIsIgnored(t *testing.T) {
	session := New(nil, nil)
	if err := session.Begin("alice-token", ""); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	_, aliceGeneration, _ := session.Credential()

	if err := session.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := session.Begin("bob-token", ""); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if session.SetCurrentUserFor(aliceGeneration, schema.User{ID: 1, Email: "alice@example.test"}) {
		t.Fatal("SetCurrentUserFor recorded a user for an ended session")
	}
	if user, ok := session.CurrentUser(); ok {
		t.Fatalf("CurrentUser = %+v, want unknown", user)
	}

	_, bobGeneration, _ := session.Credential()
	if !session.SetCurrentUserFor(bobGeneration, schema.User{ID: 2, Email: "bob@example.test"}) {
		t.Fatal("SetCurrentUserFor rejected the current generation")
	}
	user, ok := session.CurrentUser()
	if !ok || user.Email != "bob@example.test" {
		t.Errorf("CurrentUser = %+v, %v, want bob", user, ok)
	}
}

func TestLogoutClearsStore(t *testing.T) {
	store := &MemoryStore{}
	session := New(store, nil)
	notices := session.Subscribe()
	if err := session.Begin("tok", ""); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := session.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if session.Authenticated() {
		t.Error("session authenticated after Logout")
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Errorf("store.Load after Logout = %v, want ErrNoSession", err)
	}
	notice := testutil.RequireReceive(t, notices, time.Second, "waiting for logout notice")
	if notice.Kind != NoticeLoggedOut {
		t.Errorf("notice kind = %v, want NoticeLoggedOut", notice.Kind)
	}
}

func TestOpenRestoresFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devtrack", "session.json")
	store := FileStore{Path: path}
	if err := store.Save(Persisted{Token: "persisted", Server: "http://devtrack.test"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat session file: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		t.Errorf("session file mode = %o, want 600", mode)
	}

	session, err := Open(store, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	token, ok := session.Token()
	if !ok || token != "persisted" {
		t.Errorf("Token() = %q, %v, want %q, true", token, ok, "persisted")
	}
	if session.Server() != "http://devtrack.test" {
		t.Errorf("Server() = %q", session.Server())
	}
}

func TestOpenWithoutFileIsUnauthenticated(t *testing.T) {
	store := FileStore{Path: filepath.Join(t.TempDir(), "missing.json")}
	session, err := Open(store, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if session.Authenticated() {
		t.Error("session authenticated with no saved file")
	}
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(FileStore{Path: path}, nil); err == nil {
		t.Fatal("Open succeeded on corrupt session file")
	}
}

func TestFileStoreClearMissingIsNotError(t *testing.T) {
	store := FileStore{Path: filepath.Join(t.TempDir(), "absent.json")}
	if err := store.Clear(); err != nil {
		t.Errorf("Clear on missing file: %v", err)
	}
}

func TestDefaultPath(t *testing.T) {
	directory := testutil.ConfigDir(t)
	want := filepath.Join(directory, "devtrack", "session.json")
	if got := DefaultPath(); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}

	t.Setenv("DEVTRACK_SESSION_FILE", "/tmp/explicit.json")
	if got := DefaultPath(); got != "/tmp/explicit.json" {
		t.Errorf("DefaultPath() with override = %q", got)
	}
}
