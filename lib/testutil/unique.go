// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniqueEmail returns an address that no other call in this process
// returns, for registering users against a shared fake backend.
func UniqueEmail(local string) string {
	return fmt.Sprintf("%s+%d@example.test", local, uniqueCounter.Add(1))
}
