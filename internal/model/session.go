// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"path/filepath"
	"time"
)

// ShortIDLength is the number of leading session-id characters used in
// artifact file names.
const ShortIDLength = 8

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session is one conversation read from a transcript.
type Session struct {
	// Identity
	ID     string `json:"id"`
	Source string `json:"source"` // claude, codex, openclaw

	// Project is the project name (Claude, Codex) or agent name (OpenClaw).
	Project string `json:"project,omitempty"`
	CWD     string `json:"cwd,omitempty"`

	TranscriptPath string    `json:"transcript_path,omitempty"`
	ModTime        time.Time `json:"mod_time,omitzero"`

	// StartedAt is the session start reported by the transcript header, when
	// the host tool writes one.
	StartedAt time.Time `json:"started_at,omitzero"`

	Events []Event `json:"events"`

	// SkippedRecords counts malformed lines dropped while reading.
	SkippedRecords int `json:"skipped_records,omitempty"`
}

// Append adds an event. Unknown events are dropped.
func (s *Session) Append(e Event) {
	if e.Kind == KindUnknown {
		return
	}
	s.Events = append(s.Events, e)
}

// ShortID returns the leading characters of the session id used to key
// artifacts on disk.
func (s *Session) ShortID() string {
	return ShortID(s.ID)
}

// ShortID returns the artifact key for a session id.
func ShortID(id string) string {
	if len(id) <= ShortIDLength {
		return id
	}
	return id[:ShortIDLength]
}

// ProjectName returns Project, falling back to the base of CWD.
func (s *Session) ProjectName() string {
	if s.Project != "" {
		return s.Project
	}
	if s.CWD != "" {
		return filepath.Base(s.CWD)
	}
	return ""
}

// FirstTimestamp returns the earliest known time of the session: the header
// start time, else the first timestamped event.
func (s *Session) FirstTimestamp() time.Time {
	if !s.StartedAt.IsZero() {
		return s.StartedAt
	}
	for _, e := range s.Events {
		if !e.Timestamp.IsZero() {
			return e.Timestamp
		}
	}
	return time.Time{}
}

// LastTimestamp returns the timestamp of the last timestamped event.
func (s *Session) LastTimestamp() time.Time {
	for i := len(s.Events) - 1; i >= 0; i-- {
		if !s.Events[i].Timestamp.IsZero() {
			return s.Events[i].Timestamp
		}
	}
	return s.StartedAt
}

// HasConversation reports whether the session holds at least one message or
// tool call. Sessions without one are skipped by the exporter.
func (s *Session) HasConversation() bool {
	for _, e := range s.Events {
		if e.IsMessage() || e.Kind == KindToolCall {
			return true
		}
	}
	return false
}

// UserTexts returns the text of the first n user messages among the first
// window conversational events. A non-positive window means no limit.
func (s *Session) UserTexts(n, window int) []string {
	var texts []string
	seen := 0
	for _, e := range s.Events {
		if e.Kind == KindSystemNote {
			continue
		}
		if window > 0 && seen >= window {
			break
		}
		seen++
		if e.Kind == KindUserMessage && e.Text != "" {
			texts = append(texts, e.Text)
			if len(texts) == n {
				break
			}
		}
	}
	return texts
}
