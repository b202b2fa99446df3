// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func at(min int) time.Time {
	return t0.Add(time.Duration(min) * time.Minute)
}

// =============================================================================
// EVENT TESTS
// =============================================================================

func TestConstructors_SetKindAndRole(t *testing.T) {
	tests := []struct {
		event Event
		kind  Kind
		role  Role
	}{
		{NewUserMessage(t0, "hi"), KindUserMessage, RoleUser},
		{NewAssistantMessage(t0, "hello"), KindAssistantMessage, RoleAssistant},
		{NewToolCall(t0, "c1", "Bash", "ls"), KindToolCall, RoleAssistant},
		{NewToolResult(t0, "c1", "ok", false), KindToolResult, RoleTool},
		{NewSystemNote(t0, "note"), KindSystemNote, RoleSystem},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.kind, tt.event.Kind)
		assert.Equal(t, tt.role, tt.event.Role)
	}
}

func TestKind_TextRoundTrip(t *testing.T) {
	data, err := json.Marshal(NewToolCall(t0, "c1", "Read", "main.go"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"tool_call"`)

	var back Event
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, KindToolCall, back.Kind)

	var k Kind
	assert.Error(t, k.UnmarshalText([]byte("bogus")))
}

func TestUsage_AddAndTotal(t *testing.T) {
	u := Usage{InputTokens: 100, OutputTokens: 50}
	u.Add(Usage{InputTokens: 10, OutputTokens: 5, CacheReadTokens: 7})
	assert.Equal(t, Usage{InputTokens: 110, OutputTokens: 55, CacheReadTokens: 7}, u)
	assert.Equal(t, 172, u.Total())
	assert.True(t, Usage{}.IsZero())
}

func TestWithUsage_Copies(t *testing.T) {
	u := Usage{InputTokens: 1}
	e := NewAssistantMessage(t0, "x").WithUsage(u)
	u.InputTokens = 99
	require.True(t, e.HasUsage())
	assert.Equal(t, 1, e.Usage.InputTokens)
}

// =============================================================================
// SESSION TESTS
// =============================================================================

func TestSession_AppendDropsUnknown(t *testing.T) {
	s := &Session{}
	s.Append(Unknown())
	s.Append(NewUserMessage(t0, "hi"))
	assert.Len(t, s.Events, 1)
}

func TestSession_Timestamps(t *testing.T) {
	s := &Session{}
	assert.True(t, s.FirstTimestamp().IsZero())

	s.Append(NewSystemNote(time.Time{}, "no time"))
	s.Append(NewUserMessage(at(1), "a"))
	s.Append(NewAssistantMessage(at(5), "b"))
	s.Append(NewToolResult(time.Time{}, "x", "", false))

	assert.Equal(t, at(1), s.FirstTimestamp())
	assert.Equal(t, at(5), s.LastTimestamp())

	s.StartedAt = t0
	assert.Equal(t, t0, s.FirstTimestamp())
}

func TestSession_ShortIDAndProject(t *testing.T) {
	s := &Session{ID: "3f2a9c1e-aaaa-bbbb-cccc-000000000000", CWD: "/home/me/proj"}
	assert.Equal(t, "3f2a9c1e", s.ShortID())
	assert.Equal(t, "proj", s.ProjectName())
	assert.Equal(t, "abc", ShortID("abc"))
}

func TestSession_UserTexts(t *testing.T) {
	s := &Session{}
	s.Append(NewSystemNote(t0, "ignored"))
	for i := 0; i < 4; i++ {
		s.Append(NewUserMessage(t0, "u"))
		s.Append(NewAssistantMessage(t0, "a"))
	}
	assert.Len(t, s.UserTexts(5, 0), 4)
	assert.Len(t, s.UserTexts(2, 0), 2)
	assert.Len(t, s.UserTexts(5, 3), 2)
}

func TestSession_HasConversation(t *testing.T) {
	s := &Session{}
	s.Append(NewSystemNote(t0, "only a note"))
	assert.False(t, s.HasConversation())
	s.Append(NewToolCall(t0, "c", "Bash", "ls"))
	assert.True(t, s.HasConversation())
}

// =============================================================================
// BLOCK TESTS
// =============================================================================

func TestBuildBlocks_PairsCallsAndResults(t *testing.T) {
	events := []Event{
		NewUserMessage(at(0), "list files"),
		NewAssistantMessage(at(1), "sure"),
		NewToolCall(at(1), "c1", "Bash", "ls"),
		NewToolResult(at(2), "c1", "a.go", false),
		NewUserMessage(at(3), "thanks"),
	}
	blocks := BuildBlocks(events)
	require.Len(t, blocks, 3)

	assert.Equal(t, BlockAssistant, blocks[1].Kind)
	require.Len(t, blocks[1].Tools, 1)
	x := blocks[1].Tools[0]
	assert.False(t, x.Orphaned())
	require.NotNil(t, x.Result)
	assert.Equal(t, "a.go", x.Result.Output)
	assert.Equal(t, "Bash", x.Name())
}

func TestBuildBlocks_OrphanedResultIsKept(t *testing.T) {
	events := []Event{
		NewUserMessage(at(0), "hi"),
		NewToolResult(at(1), "missing", "stray output", true),
	}
	blocks := BuildBlocks(events)
	require.Len(t, blocks, 2)
	assert.Equal(t, BlockTools, blocks[1].Kind)
	require.Len(t, blocks[1].Tools, 1)
	assert.True(t, blocks[1].Tools[0].Orphaned())
}

func TestBuildBlocks_ResultAfterLaterMessageStillPairs(t *testing.T) {
	events := []Event{
		NewAssistantMessage(at(0), "running"),
		NewToolCall(at(0), "c1", "Task", "{}"),
		NewAssistantMessage(at(1), "still running"),
		NewToolResult(at(2), "c1", "done", false),
	}
	blocks := BuildBlocks(events)
	require.Len(t, blocks, 2)
	require.NotNil(t, blocks[0].Tools[0].Result)
	assert.Empty(t, blocks[1].Tools)
}

func TestBuildBlocks_DuplicateResultIsOrphaned(t *testing.T) {
	events := []Event{
		NewAssistantMessage(at(0), ""),
		NewToolCall(at(0), "c1", "Bash", "ls"),
		NewToolResult(at(1), "c1", "first", false),
		NewToolResult(at(2), "c1", "second", false),
	}
	blocks := BuildBlocks(events)
	require.Len(t, blocks, 1)
	require.Len(t, blocks[0].Tools, 2)
	assert.True(t, blocks[0].Tools[1].Orphaned())
}

func TestBuildBlocks_IdlessResultPairsWithinBlock(t *testing.T) {
	events := []Event{
		NewAssistantMessage(at(0), "go"),
		NewToolCall(at(0), "", "exec", "ls"),
		NewToolResult(at(1), "", "out", false),
	}
	blocks := BuildBlocks(events)
	require.Len(t, blocks[0].Tools, 1)
	assert.NotNil(t, blocks[0].Tools[0].Result)
}

func TestBuildBlocks_EveryEventPlaced(t *testing.T) {
	events := []Event{
		NewToolCall(at(0), "c0", "Read", "x"),
		NewSystemNote(at(0), "ctx"),
		NewUserMessage(at(1), "u"),
		NewToolResult(at(2), "c0", "r", false),
		NewToolResult(at(3), "zz", "orphan", false),
	}
	placed := 0
	for _, b := range BuildBlocks(events) {
		if b.Message != nil {
			placed++
		}
		for _, x := range b.Tools {
			if x.Call != nil {
				placed++
			}
			if x.Result != nil {
				placed++
			}
		}
	}
	assert.Equal(t, len(events), placed)
}
