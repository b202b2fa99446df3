// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript locates host-tool session transcripts and normalizes
// their JSON-lines records into model events.
//
// Each host tool (Claude Code, Codex, OpenClaw) is a Source. A Source
// discovers SessionFile descriptors without reading transcript bodies, and
// parses one file into a model.Session. Filters run over descriptors only, so
// sessions that fail a filter are never opened.
//
// Record handling is forgiving: a malformed line is counted, logged at debug
// level, and skipped. Records that carry no conversation (compaction markers,
// file snapshots, turn context) are skipped silently.
package transcript
