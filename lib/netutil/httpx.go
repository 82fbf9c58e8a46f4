// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides bounded HTTP body reads for DevTrack.
//
// Every JSON body the client or the test backend reads goes through
// these helpers so a misbehaving peer cannot force an unbounded
// allocation. A body larger than the bound is an error rather than a
// silently truncated document that would fail to decode later with a
// confusing message.
package netutil

import (
	"fmt"
	"io"
)

// MaxResponseSize bounds JSON API response reads: 32 MB. A project with
// tens of thousands of tickets is still well under it.
const MaxResponseSize int64 = 32 << 20

// MaxRequestSize bounds JSON request body reads on the server side.
const MaxRequestSize int64 = 1 << 20

// ReadResponse reads a JSON API response body up to MaxResponseSize.
func ReadResponse(body io.Reader) ([]byte, error) {
	return ReadBounded(body, MaxResponseSize)
}

// ReadRequest reads a JSON request body up to MaxRequestSize.
func ReadRequest(body io.Reader) ([]byte, error) {
	return ReadBounded(body, MaxRequestSize)
}

// ReadBounded reads all of body, failing if it exceeds limit bytes.
func ReadBounded(body io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("body exceeds %d bytes", limit)
	}
	return data, nil
}
