// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/devtrack-foundation/devtrack/cmd/devtrack/cli"
	"github.com/devtrack-foundation/devtrack/cmd/devtrack/cli/clitest"
	"github.com/devtrack-foundation/devtrack/lib/session"
)

func command(name string) *cli.Command {
	for _, command := range Commands() {
		if command.Name == name {
			return command
		}
	}
	panic("no command " + name)
}

func savedSession(t *testing.T) (session.Persisted, bool) {
	t.Helper()
	persisted, err := session.FileStore{Path: session.DefaultPath()}.Load()
	if err != nil {
		t.Fatalf("loading session file: %v", err)
	}
	return persisted, persisted.Token != ""
}

func TestRegisterSignsIn(t *testing.T) {
	env := clitest.Setup(t)
	env.Stdin = "s3cret\n"

	result := env.MustRun(t, command("register"), "ada@example.com", "--name", "Ada", "--password-file", "-")
	if !strings.Contains(result.Stderr, "Registered ada@example.com") {
		t.Errorf("stderr = %q, want registration notice", result.Stderr)
	}
	if !strings.Contains(result.Stderr, "Signed in as Ada <ada@example.com>") {
		t.Errorf("stderr = %q, want sign-in notice", result.Stderr)
	}
	persisted, ok := savedSession(t)
	if !ok {
		t.Fatal("no session saved after register")
	}
	if persisted.Server != env.Server.URL() {
		t.Errorf("session server = %q, want %q", persisted.Server, env.Server.URL())
	}

	whoami := env.MustRun(t, command("whoami"))
	if !strings.HasPrefix(whoami.Stdout, "Ada <ada@example.com>") {
		t.Errorf("whoami = %q, want Ada", whoami.Stdout)
	}
}

func TestRegisterNoLogin(t *testing.T) {
	env := clitest.Setup(t)
	env.Stdin = "s3cret\n"

	env.MustRun(t, command("register"), "bob@example.com", "--password-file", "-", "--no-login")
	if _, ok := savedSession(t); ok {
		t.Error("--no-login saved a session")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := clitest.Setup(t)
	env.Server.AddUser("Ada", "ada@example.com", "pw")
	env.Stdin = "s3cret\n"

	result := env.Run(t, command("register"), "ada@example.com", "--password-file", "-")
	if clitest.Category(result.Err) != cli.CategoryValidation {
		t.Fatalf("err = %v, want validation error", result.Err)
	}
	if !strings.Contains(result.Err.Error(), "Email already registered") {
		t.Errorf("err = %q, want server detail", result.Err)
	}
}

func TestLoginWithPasswordFile(t *testing.T) {
	env := clitest.Setup(t)
	env.Server.AddUser("Ada", "ada@example.com", "hunter2")
	passwordFile := filepath.Join(t.TempDir(), "password")
	if err := os.WriteFile(passwordFile, []byte("hunter2\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	result := env.MustRun(t, command("login"), "ada@example.com", "--password-file", passwordFile)
	if !strings.Contains(result.Stderr, "Session saved to "+session.DefaultPath()) {
		t.Errorf("stderr = %q, want session path", result.Stderr)
	}
	if _, ok := savedSession(t); !ok {
		t.Error("login saved no session")
	}
}

func TestLoginBadPasswordKeepsSession(t *testing.T) {
	env := clitest.Setup(t)
	ada := env.NewUser(t, "Ada")
	before, _ := savedSession(t)
	env.Stdin = "wrong\n"

	result := env.Run(t, command("login"), ada.Email, "--password-file", "-")
	if clitest.Category(result.Err) != cli.CategoryForbidden {
		t.Fatalf("err = %v, want forbidden", result.Err)
	}
	if !strings.Contains(result.Err.Error(), "Invalid credentials") {
		t.Errorf("err = %q, want server detail", result.Err)
	}
	after, _ := savedSession(t)
	if after.Token != before.Token {
		t.Errorf("session token changed after failed login")
	}
}

func TestLogout(t *testing.T) {
	env := clitest.Setup(t)

	result := env.MustRun(t, command("logout"))
	if strings.TrimSpace(result.Stderr) != "Not signed in." {
		t.Errorf("stderr = %q, want %q", result.Stderr, "Not signed in.")
	}

	env.NewUser(t, "Ada")
	result = env.MustRun(t, command("logout"))
	if strings.TrimSpace(result.Stderr) != "Signed out." {
		t.Errorf("stderr = %q, want %q", result.Stderr, "Signed out.")
	}
	if _, err := os.Stat(session.DefaultPath()); !os.IsNotExist(err) {
		t.Errorf("session file still present after logout: %v", err)
	}
}

func TestLogoutRemovesCorruptSession(t *testing.T) {
	env := clitest.Setup(t)
	path := session.DefaultPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	env.MustRun(t, command("logout"))
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("corrupt session file still present: %v", err)
	}
}

func TestWhoamiRequiresSession(t *testing.T) {
	env := clitest.Setup(t)

	result := env.Run(t, command("whoami"))
	if clitest.Category(result.Err) != cli.CategoryForbidden {
		t.Fatalf("err = %v, want forbidden", result.Err)
	}
	if !strings.Contains(result.Err.Error(), cli.LoginHint) {
		t.Errorf("err = %q, want login hint", result.Err)
	}
}

func TestWhoamiJSON(t *testing.T) {
	env := clitest.Setup(t)
	ada := env.NewUser(t, "Ada")

	result := env.MustRun(t, command("whoami"), "--json")
	var decoded struct {
		ID     int64  `json:"id"`
		Email  string `json:"email"`
		Server string `json:"server"`
	}
	if err := json.Unmarshal([]byte(result.Stdout), &decoded); err != nil {
		t.Fatalf("decoding %q: %v", result.Stdout, err)
	}
	if decoded.ID != ada.ID || decoded.Email != ada.Email {
		t.Errorf("whoami = %+v, want user %d %s", decoded, ada.ID, ada.Email)
	}
	if decoded.Server != env.Server.URL() {
		t.Errorf("server = %q, want %q", decoded.Server, env.Server.URL())
	}
}

func TestWhoamiRevokedTokenEndsSession(t *testing.T) {
	env := clitest.Setup(t)
	env.NewUser(t, "Ada")
	persisted, _ := savedSession(t)
	env.Server.RevokeToken(persisted.Token)

	result := env.Run(t, command("whoami"))
	if clitest.Category(result.Err) != cli.CategoryForbidden {
		t.Fatalf("err = %v, want forbidden", result.Err)
	}
	if _, ok := savedSession(t); ok {
		t.Error("revoked token still saved")
	}
}
