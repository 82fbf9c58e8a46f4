// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides DevTrack's standard CBOR configuration.
//
// JSON is the wire format for everything the backend sees and for CLI
// --json output. CBOR is used for local binary state: the board cache
// stores ticket snapshots as CBOR so that an unchanged board encodes to
// identical bytes and can be recognized by digest.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
//
//	data, err := codec.Marshal(tickets)
//	err = codec.Unmarshal(data, &tickets)
//
// Types that already carry `json` tags need no `cbor` tags:
// fxamacker/cbor reads `json` tags when `cbor` tags are absent, so one
// tag controls field naming for both formats. Never put both on the
// same field.
package codec
