// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
)

// ExitError signals a non-zero exit code without printing an extra
// error message. The command has already written its own output.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code. main checks for this interface to
// tell a handled non-zero exit from an error to display.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// Process exit codes by error category.
const (
	ExitInternal   = 1
	ExitValidation = 2
	ExitNotFound   = 3
	ExitForbidden  = 4
	ExitConflict   = 5
	ExitTransient  = 6
)

// ExitCodeFor returns the exit code for an error returned by a
// command: 0 for nil, the carried code for an ExitError, the category
// code for a ToolError, and 1 otherwise.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var exitCoder interface{ ExitCode() int }
	if errors.As(err, &exitCoder) {
		return exitCoder.ExitCode()
	}
	var toolError *ToolError
	if !errors.As(err, &toolError) {
		return ExitInternal
	}
	switch toolError.Category {
	case CategoryValidation:
		return ExitValidation
	case CategoryNotFound:
		return ExitNotFound
	case CategoryForbidden:
		return ExitForbidden
	case CategoryConflict:
		return ExitConflict
	case CategoryTransient:
		return ExitTransient
	}
	return ExitInternal
}
