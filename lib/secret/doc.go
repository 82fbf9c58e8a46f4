// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds DevTrack credentials (account passwords during
// login and registration, the bearer token for the lifetime of a
// session) in memory that the Go runtime never sees.
//
// [Buffer] allocates with mmap(MAP_ANONYMOUS), locks the pages with
// mlock so they are never swapped, and marks them MADV_DONTDUMP so a
// crash does not write the token into a core file. [Buffer.Close]
// zeroes, unlocks and unmaps. Because the memory is outside the heap
// the garbage collector cannot leave stale copies behind.
//
// [ReadPassword] reads a password from a file or prompts on the
// terminal with echo disabled; both paths land in a Buffer and zero
// every intermediate slice.
package secret
