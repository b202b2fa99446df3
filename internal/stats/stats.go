// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stats aggregates per-session statistics from normalized events.
package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/convexport/internal/model"
)

// Statistics summarizes one session. It is recomputed from the events on
// every run and never stored on its own.
type Statistics struct {
	Messages       int `json:"messages"`
	UserMessages   int `json:"user_messages"`
	AssistantTurns int `json:"assistant_messages"`
	SystemNotes    int `json:"system_notes"`

	ToolCalls   int            `json:"tool_calls"`
	ToolResults int            `json:"tool_results"`
	ToolErrors  int            `json:"tool_errors"`
	Tools       map[string]int `json:"tools,omitempty"`

	// Usage sums the token metadata of every event that carries it.
	Usage model.Usage `json:"usage"`
	// UsageEvents counts the events Usage was summed from.
	UsageEvents int `json:"usage_events"`

	FirstTimestamp time.Time     `json:"first_timestamp,omitzero"`
	LastTimestamp  time.Time     `json:"last_timestamp,omitzero"`
	Duration       time.Duration `json:"duration"`

	// Models lists distinct assistant models in first-seen order.
	Models []string `json:"models,omitempty"`
}

// ToolCount is one entry of the tool usage ranking.
type ToolCount struct {
	Name  string
	Count int
}

// Compute walks events once.
func Compute(events []model.Event) Statistics {
	s := Statistics{Tools: make(map[string]int)}
	seenModels := make(map[string]bool)

	for i := range events {
		e := &events[i]
		switch e.Kind {
		case model.KindUserMessage:
			s.UserMessages++
		case model.KindAssistantMessage:
			if strings.TrimSpace(e.Text) != "" || strings.TrimSpace(e.Thinking) != "" {
				s.AssistantTurns++
			}
			if e.Model != "" && !seenModels[e.Model] {
				seenModels[e.Model] = true
				s.Models = append(s.Models, e.Model)
			}
		case model.KindSystemNote:
			s.SystemNotes++
		case model.KindToolCall:
			s.ToolCalls++
			s.Tools[e.ToolName]++
		case model.KindToolResult:
			s.ToolResults++
			if e.IsError {
				s.ToolErrors++
			}
		}

		if e.Usage != nil {
			s.Usage.Add(*e.Usage)
			s.UsageEvents++
		}

		if !e.Timestamp.IsZero() {
			if s.FirstTimestamp.IsZero() || e.Timestamp.Before(s.FirstTimestamp) {
				s.FirstTimestamp = e.Timestamp
			}
			if e.Timestamp.After(s.LastTimestamp) {
				s.LastTimestamp = e.Timestamp
			}
		}
	}

	s.Messages = s.UserMessages + s.AssistantTurns
	if !s.FirstTimestamp.IsZero() {
		s.Duration = s.LastTimestamp.Sub(s.FirstTimestamp)
	}
	return s
}

// ForSession computes statistics for a session. The header start time, when
// present, counts as the first timestamp.
func ForSession(sess *model.Session) Statistics {
	s := Compute(sess.Events)
	if !sess.StartedAt.IsZero() && (s.FirstTimestamp.IsZero() || sess.StartedAt.Before(s.FirstTimestamp)) {
		s.FirstTimestamp = sess.StartedAt
		if s.LastTimestamp.IsZero() {
			s.LastTimestamp = sess.StartedAt
		}
		s.Duration = s.LastTimestamp.Sub(s.FirstTimestamp)
	}
	return s
}

// TopTools returns the n most used tools, by count then name. A non-positive
// n returns all of them.
func (s Statistics) TopTools(n int) []ToolCount {
	out := make([]ToolCount, 0, len(s.Tools))
	for name, c := range s.Tools {
		out = append(out, ToolCount{Name: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// HasUsage reports whether any event carried token metadata.
func (s Statistics) HasUsage() bool {
	return s.UsageEvents > 0
}
