// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ReadPassword reads a password into a Buffer. A path of "" or "-"
// prompts on the controlling terminal with echo disabled (the prompt
// goes to promptOutput); any other path is read as a file whose
// surrounding whitespace is trimmed.
func ReadPassword(path string, promptOutput io.Writer, prompt string) (*Buffer, error) {
	if path != "" && path != "-" {
		return ReadFromPath(path)
	}

	descriptor := int(os.Stdin.Fd())
	if !term.IsTerminal(descriptor) {
		return ReadFromReader(os.Stdin)
	}

	fmt.Fprint(promptOutput, prompt)
	password, err := term.ReadPassword(descriptor)
	fmt.Fprintln(promptOutput)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	if len(password) == 0 {
		return nil, fmt.Errorf("password is empty")
	}
	return NewFromBytes(password)
}

// ReadFromPath reads a secret from a file. Surrounding whitespace is
// trimmed; an empty result is an error.
func ReadFromPath(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	defer Zero(data)
	return fromTrimmed(data, path)
}

// ReadFromReader reads the first line of reader as a secret. Used when
// stdin is piped rather than a terminal.
func ReadFromReader(reader io.Reader) (*Buffer, error) {
	scanner := bufio.NewScanner(reader)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading secret: %w", err)
		}
		return nil, fmt.Errorf("secret input is empty")
	}
	data := scanner.Bytes()
	defer Zero(data)
	return fromTrimmed(data, "input")
}

func fromTrimmed(data []byte, source string) (*Buffer, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("secret from %s is empty", source)
	}
	return NewFromBytes(trimmed)
}
