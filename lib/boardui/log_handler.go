// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// logRecordMsg delivers a log record to the model for display in the
// status bar.
type logRecordMsg struct {
	Summary string
	Level   slog.Level
}

// logRecordFadeMsg clears the record from the status bar. Serial
// matches the record it fades, so an older fade never clears a newer
// record.
type logRecordFadeMsg struct {
	Serial int
}

// logRecordFadeDelay is how long a record stays in the status bar.
const logRecordFadeDelay = 5 * time.Second

// messageSender is the part of *tea.Program the handler needs.
type messageSender interface {
	Send(message tea.Msg)
}

// TUILogHandler is a slog.Handler that delivers records at or above
// its level to a running bubbletea program, which shows them in the
// status bar. Records arriving before SetProgram are dropped.
//
// Handlers derived through WithAttrs and WithGroup share the program
// pointer, so one SetProgram call reaches all of them.
type TUILogHandler struct {
	level  slog.Leveler
	target *atomic.Pointer[messageSender]
	attrs  []string
	group  string
}

// NewTUILogHandler creates a handler for records at or above level.
func NewTUILogHandler(level slog.Leveler) *TUILogHandler {
	return &TUILogHandler{
		level:  level,
		target: &atomic.Pointer[messageSender]{},
	}
}

// SetProgram starts delivery to program, or stops it when program is
// nil. Safe to call from any goroutine.
func (handler *TUILogHandler) SetProgram(program *tea.Program) {
	if program == nil {
		handler.target.Store(nil)
		return
	}
	handler.setSender(program)
}

func (handler *TUILogHandler) setSender(sender messageSender) {
	handler.target.Store(&sender)
}

// Enabled implements slog.Handler.
func (handler *TUILogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= handler.level.Level()
}

// Handle formats the record as "message (key=value, ...)" and sends it
// to the program.
func (handler *TUILogHandler) Handle(_ context.Context, record slog.Record) error {
	sender := handler.target.Load()
	if sender == nil {
		return nil
	}

	parts := append([]string(nil), handler.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		parts = append(parts, handler.formatAttr(attr))
		return true
	})

	summary := record.Message
	if len(parts) > 0 {
		summary += " (" + strings.Join(parts, ", ") + ")"
	}
	(*sender).Send(logRecordMsg{Summary: summary, Level: record.Level})
	return nil
}

func (handler *TUILogHandler) formatAttr(attr slog.Attr) string {
	key := attr.Key
	if handler.group != "" {
		key = handler.group + "." + key
	}
	return fmt.Sprintf("%s=%s", key, attr.Value.Resolve())
}

// WithAttrs implements slog.Handler.
func (handler *TUILogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := *handler
	derived.attrs = append([]string(nil), handler.attrs...)
	for _, attr := range attrs {
		derived.attrs = append(derived.attrs, handler.formatAttr(attr))
	}
	return &derived
}

// WithGroup implements slog.Handler.
func (handler *TUILogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return handler
	}
	derived := *handler
	if derived.group != "" {
		derived.group += "." + name
	} else {
		derived.group = name
	}
	return &derived
}
