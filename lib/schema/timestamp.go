// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// timestampLayouts are tried in order. The backend serializes naive
// datetimes (no zone), which are interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp is a point in time as the DevTrack backend reports it.
type Timestamp struct {
	time.Time
}

// At wraps a time as a Timestamp.
func At(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// ParseTimestamp parses any layout the backend emits.
func ParseTimestamp(value string) (Timestamp, error) {
	for _, layout := range timestampLayouts {
		parsed, err := time.ParseInLocation(layout, value, time.UTC)
		if err == nil {
			return Timestamp{Time: parsed}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// MarshalJSON writes RFC 3339 in UTC.
func (timestamp Timestamp) MarshalJSON() ([]byte, error) {
	if timestamp.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(timestamp.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON accepts null, RFC 3339, or a naive ISO 8601 datetime.
func (timestamp *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*timestamp = Timestamp{}
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if value == "" {
		*timestamp = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(value)
	if err != nil {
		return err
	}
	*timestamp = parsed
	return nil
}
