// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Filter selects session files before anything is read. Zero fields match
// everything.
type Filter struct {
	// Since keeps files modified at or after the instant.
	Since time.Time
	// Before keeps files modified strictly before the instant.
	Before time.Time

	// Agent and Project match the descriptor's Project exactly.
	Agent   string
	Project string

	// Session matches a transcript path, a session id prefix, or a substring
	// of the file name.
	Session string

	// Latest keeps only the most recently modified match.
	Latest bool
}

// Match reports whether a single file passes every field except Latest.
func (f Filter) Match(file SessionFile) bool {
	if !f.Since.IsZero() && file.ModTime.Before(f.Since) {
		return false
	}
	if !f.Before.IsZero() && !file.ModTime.Before(f.Before) {
		return false
	}
	if f.Agent != "" && file.Project != f.Agent {
		return false
	}
	if f.Project != "" && file.Project != f.Project {
		return false
	}
	if f.Session != "" && !matchSession(f.Session, file) {
		return false
	}
	return true
}

func matchSession(want string, file SessionFile) bool {
	if filepath.Clean(want) == filepath.Clean(file.Path) {
		return true
	}
	if strings.HasPrefix(file.ID, want) {
		return true
	}
	return strings.Contains(filepath.Base(file.Path), want)
}

// Apply returns the files that pass the filter, preserving order. With
// Latest set, at most the single newest match is returned.
func (f Filter) Apply(files []SessionFile) []SessionFile {
	var out []SessionFile
	for _, file := range files {
		if f.Match(file) {
			out = append(out, file)
		}
	}
	if f.Latest && len(out) > 1 {
		newest := 0
		for i := range out {
			if out[i].ModTime.After(out[newest].ModTime) {
				newest = i
			}
		}
		out = out[newest : newest+1]
	}
	return out
}

// ParseDate parses a --since/--before value relative to now: "today",
// "yesterday", a YYYY-MM-DD date (local midnight) or an RFC 3339 instant.
func ParseDate(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch value {
	case "":
		return time.Time{}, nil
	case "today":
		return midnight, nil
	case "yesterday":
		return midnight.AddDate(0, 0, -1), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", value, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, strings.ToUpper(value)); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD, today or yesterday)", value)
}
