// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Stdin is where prompts read answers. Tests replace it.
var Stdin io.Reader = os.Stdin

// ReadPassword reads a password. An empty passwordFile prompts on the
// terminal with echo disabled; "-" reads the first line of Stdin; any
// other value is a file whose trailing newlines are stripped.
func ReadPassword(passwordFile string) (string, error) {
	switch passwordFile {
	case "":
		file, ok := Stdin.(*os.File)
		if !ok || !term.IsTerminal(int(file.Fd())) {
			return "", Validation("no terminal available for the password prompt").
				WithHint("Pass --password-file <path>, or --password-file - to read it from stdin.")
		}
		fmt.Fprint(Stderr, "Password: ")
		password, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(Stderr)
		if err != nil {
			return "", Internal("reading password: %w", err)
		}
		if len(password) == 0 {
			return "", Validation("password is empty")
		}
		return string(password), nil

	case "-":
		line, err := readLine(Stdin)
		if err != nil {
			return "", Internal("reading password from stdin: %w", err)
		}
		if line == "" {
			return "", Validation("password on stdin is empty")
		}
		return line, nil
	}

	data, err := os.ReadFile(passwordFile)
	if err != nil {
		return "", Internal("reading %s: %w", passwordFile, err)
	}
	password := strings.TrimRight(string(data), "\r\n")
	if password == "" {
		return "", Validation("file %s is empty (after stripping trailing newlines)", passwordFile)
	}
	return password, nil
}

// Confirm asks a yes/no question on Stderr and reads the answer from
// Stdin. Only "y" and "yes" (any case) confirm; end of input declines.
func Confirm(question string) (bool, error) {
	fmt.Fprintf(Stderr, "%s [y/N]: ", question)
	answer, err := readLine(Stdin)
	if err != nil {
		return false, Internal("reading confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// ConfirmOrYes returns true without asking when yes is set.
func ConfirmOrYes(yes bool, question string) (bool, error) {
	if yes {
		return true, nil
	}
	return Confirm(question)
}

// readLine reads one line without its terminator. End of input after
// no bytes yields "".
func readLine(reader io.Reader) (string, error) {
	line, err := bufio.NewReader(reader).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
