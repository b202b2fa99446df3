// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides the file, text and logging helpers shared by the
// exporter packages.
//
// # Files
//
// AtomicWriteFile and AtomicCopyFile write through a temporary file in the
// target directory and rename it into place, so readers never observe a
// partial export or transcript copy.
//
// # Text
//
//   - TruncateRunes, Clip: rune-safe truncation; Clip also reports how many
//     runes were dropped
//   - TruncateWidth: truncation to terminal columns
//   - FirstLine: first non-blank line of a text
//   - FormatCount, FormatTokens, FormatDuration, FormatBytes, FormatAge:
//     human-readable numbers for documents and listings
//
// # Logging
//
// Logger writes levelled diagnostics to a writer (stderr in the CLI), either
// as "Warning: ..." lines for users or as "NAME | key=value" records at debug
// level:
//
//	log := util.NewLogger(os.Stderr, util.LevelInfo)
//	log.Event("EXPORT_WRITTEN", "session", "a1b2c3d4", "paths", 1)
//	log.Warnf("could not update index in %s: %v", dir, err)
package util
