// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"
)

func TestRequireReceiveReturnsValue(t *testing.T) {
	channel := make(chan int, 1)
	channel <- 7
	if got := RequireReceive(t, channel, time.Second, "waiting for value"); got != 7 {
		t.Errorf("RequireReceive = %d, want 7", got)
	}
}

func TestFormatMessage(t *testing.T) {
	if got := formatMessage(nil); got != "(no message)" {
		t.Errorf("formatMessage(nil) = %q", got)
	}
	if got := formatMessage([]any{"loading %s", "board"}); got != "loading board" {
		t.Errorf("formatMessage = %q, want %q", got, "loading board")
	}
}

func TestConfigDirIsolatesEnvironment(t *testing.T) {
	directory := ConfigDir(t)
	if got := os.Getenv("XDG_CONFIG_HOME"); got != directory {
		t.Errorf("XDG_CONFIG_HOME = %q, want %q", got, directory)
	}
	if got := os.Getenv("DEVTRACK_SESSION_FILE"); got != "" {
		t.Errorf("DEVTRACK_SESSION_FILE = %q, want empty", got)
	}
}

func TestUniqueEmailDistinct(t *testing.T) {
	first := UniqueEmail("alice")
	second := UniqueEmail("alice")
	if first == second {
		t.Fatalf("UniqueEmail returned %q twice", first)
	}
	if !strings.HasSuffix(first, "@example.test") {
		t.Errorf("UniqueEmail = %q, want @example.test domain", first)
	}
}

func TestRequireClosedReturnsOnClose(t *testing.T) {
	channel := make(chan struct{})
	close(channel)
	RequireClosed(t, channel, time.Second, "waiting for close")
}

// recordingT captures Fatalf instead of stopping the test.
type recordingT struct {
	message string
}

func (r *recordingT) Helper() {}

func (r *recordingT) Fatalf(format string, args ...any) {
	r.message = fmt.Sprintf(format, args...)
}

func TestRequireClosedTimesOut(t *testing.T) {
	recorder := &recordingT{}
	RequireClosed(recorder, make(chan struct{}), time.Millisecond, "hold for ticket %d", 7)
	if !strings.Contains(recorder.message, "hold for ticket 7") {
		t.Errorf("failure message = %q, want formatted message", recorder.message)
	}
}
