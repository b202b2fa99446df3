// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the normalized data structures shared by every stage
// of the export pipeline.
//
// Transcripts from different host tools are reduced to the same vocabulary so
// that statistics, summaries and renderers never look at raw records.
//
// # Key Types
//
//   - Event: one tagged unit of conversation (user message, assistant message,
//     tool call, tool result or system note)
//   - Session: one conversation with its identity and ordered events
//   - Usage: token counters attached to assistant messages
//   - Block: a rendered unit grouping a message with its tool exchanges
//
// # Usage
//
// Build a session by hand (tests, synthetic fixtures):
//
//	sess := &model.Session{ID: "3f2a…", Project: "demo"}
//	sess.Append(model.NewUserMessage(ts, "hello"))
//	call := model.NewToolCall(ts, "toolu_1", "Bash", `ls -la`)
//	sess.Append(call)
//
// Group events for rendering:
//
//	for _, b := range model.BuildBlocks(sess.Events) {
//	    ...
//	}
package model
