// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Timestamp decodes the time encodings found in transcripts: RFC 3339 strings
// (with or without fractional seconds) and numeric epochs in seconds or
// milliseconds. Anything else decodes to the zero time instead of failing the
// record.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		t.Time = ParseTime(s)
		return nil
	}
	if n, err := strconv.ParseFloat(string(data), 64); err == nil {
		t.Time = epoch(n)
	}
	return nil
}

// ParseTime parses an RFC 3339 timestamp or a numeric epoch string, returning
// the zero time when s is neither. Parsed times are normalized to UTC.
func ParseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC()
		}
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return epoch(n)
	}
	return time.Time{}
}

// epoch treats values above 1e11 as milliseconds.
func epoch(n float64) time.Time {
	if n <= 0 {
		return time.Time{}
	}
	if n > 1e11 {
		return time.UnixMilli(int64(n)).UTC()
	}
	sec := int64(n)
	return time.Unix(sec, int64((n-float64(sec))*1e9)).UTC()
}
