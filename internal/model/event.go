// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents who produced an event.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	case RoleTool:
		return "Tool"
	default:
		return string(r)
	}
}

// =============================================================================
// EVENT KIND
// =============================================================================

// Kind discriminates the Event union.
type Kind int

const (
	// KindUnknown marks a record the normalizer recognised as JSON but could
	// not map. Unknown events are never appended to a session.
	KindUnknown Kind = iota
	KindUserMessage
	KindAssistantMessage
	KindToolCall
	KindToolResult
	KindSystemNote
)

var kindNames = map[Kind]string{
	KindUnknown:          "unknown",
	KindUserMessage:      "user_message",
	KindAssistantMessage: "assistant_message",
	KindToolCall:         "tool_call",
	KindToolResult:       "tool_result",
	KindSystemNote:       "system_note",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler so kinds serialize by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", string(text))
}

// =============================================================================
// USAGE
// =============================================================================

// Usage holds token counters reported by the host tool for one message.
type Usage struct {
	InputTokens         int `json:"input_tokens"`
	OutputTokens        int `json:"output_tokens"`
	CacheReadTokens     int `json:"cache_read_tokens,omitempty"`
	CacheCreationTokens int `json:"cache_creation_tokens,omitempty"`
}

// Add accumulates the counts from other into u.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheReadTokens += other.CacheReadTokens
	u.CacheCreationTokens += other.CacheCreationTokens
}

// Total returns every counted token, cache traffic included.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens + u.CacheReadTokens + u.CacheCreationTokens
}

// IsZero reports whether no counter is set.
func (u Usage) IsZero() bool {
	return u == Usage{}
}

// =============================================================================
// EVENT
// =============================================================================

// Event is one normalized unit of conversation. Kind selects which fields are
// meaningful; use the constructors rather than composite literals.
type Event struct {
	Kind      Kind      `json:"kind"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp,omitzero"`

	// Messages and system notes
	Text      string `json:"text,omitempty"`
	Thinking  string `json:"thinking,omitempty"`
	Model     string `json:"model,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Usage     *Usage `json:"usage,omitempty"`

	// Tool calls and results share CallID
	CallID   string `json:"call_id,omitempty"`
	ToolName string `json:"tool_name,omitempty"`

	// Summary is a one-line description of a tool call ("Read main.go").
	Summary string `json:"summary,omitempty"`

	Input          string `json:"input,omitempty"`
	InputTruncated int    `json:"input_truncated,omitempty"`

	Output          string `json:"output,omitempty"`
	OutputTruncated int    `json:"output_truncated,omitempty"`
	IsError         bool   `json:"is_error,omitempty"`
}

// NewUserMessage creates a user message event.
func NewUserMessage(ts time.Time, text string) Event {
	return Event{Kind: KindUserMessage, Role: RoleUser, Timestamp: ts, Text: text}
}

// NewAssistantMessage creates an assistant message event.
func NewAssistantMessage(ts time.Time, text string) Event {
	return Event{Kind: KindAssistantMessage, Role: RoleAssistant, Timestamp: ts, Text: text}
}

// NewToolCall creates a tool invocation. input is the display form of the
// arguments.
func NewToolCall(ts time.Time, callID, name, input string) Event {
	return Event{
		Kind:      KindToolCall,
		Role:      RoleAssistant,
		Timestamp: ts,
		CallID:    callID,
		ToolName:  name,
		Input:     input,
	}
}

// NewToolResult creates the result of a tool invocation.
func NewToolResult(ts time.Time, callID, output string, isError bool) Event {
	return Event{
		Kind:      KindToolResult,
		Role:      RoleTool,
		Timestamp: ts,
		CallID:    callID,
		Output:    output,
		IsError:   isError,
	}
}

// NewSystemNote creates a system or meta note (injected context, commands).
func NewSystemNote(ts time.Time, text string) Event {
	return Event{Kind: KindSystemNote, Role: RoleSystem, Timestamp: ts, Text: text}
}

// Unknown returns the placeholder for records no constructor claims.
func Unknown() Event {
	return Event{Kind: KindUnknown}
}

// IsMessage reports whether the event is a user or assistant message.
func (e Event) IsMessage() bool {
	return e.Kind == KindUserMessage || e.Kind == KindAssistantMessage
}

// HasUsage reports whether the event carries token metadata.
func (e Event) HasUsage() bool {
	return e.Usage != nil
}

// WithUsage returns a copy of e carrying u.
func (e Event) WithUsage(u Usage) Event {
	e.Usage = &u
	return e
}
