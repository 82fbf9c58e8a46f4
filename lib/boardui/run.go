// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// RunOptions configures Run.
type RunOptions struct {
	// LogHandler, when set, routes log records into the status bar
	// while the program runs.
	LogHandler *TUILogHandler

	// ProgramOptions are appended after the alternate-screen option.
	ProgramOptions []tea.ProgramOption
}

// Run shows the board until the user quits, ctx is cancelled, or the
// session ends. The returned model reports which through Exit.
func Run(ctx context.Context, model Model, options RunOptions) (Model, error) {
	programOptions := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, options.ProgramOptions...)
	program := tea.NewProgram(model, programOptions...)
	if options.LogHandler != nil {
		options.LogHandler.SetProgram(program)
		defer options.LogHandler.SetProgram(nil)
	}

	forwardContext, stopForwarding := context.WithCancel(ctx)
	defer stopForwarding()

	events := model.manager.Subscribe()
	go func() {
		for {
			select {
			case <-forwardContext.Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				program.Send(boardEventMsg{event: event})
			}
		}
	}()

	if model.session != nil {
		notices := model.session.Subscribe()
		go func() {
			select {
			case <-forwardContext.Done():
			case notice, ok := <-notices:
				if ok {
					program.Send(sessionEndedMsg{notice: notice})
				}
			}
		}()
	}

	final, err := program.Run()
	if finalModel, ok := final.(Model); ok {
		model = finalModel
	}
	if err != nil && ctx.Err() == nil {
		return model, fmt.Errorf("board: %w", err)
	}
	return model, nil
}
