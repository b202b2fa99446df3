// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage places export artifacts on disk.
//
// Artifacts are keyed by the short session id: a session exported as
// "a1b2c3d4_fixing-login.html" may be renamed to "a1b2c3d4_my-notes.html"
// and later exports overwrite the renamed file, keeping its creation time.
//
// # Key Types
//
//   - ArtifactStore: Finds, names and writes artifacts in one directory
//   - Plan: Where one session's artifacts go and what they carry over
//   - Index: The sessions_index.md table of every export in a directory
//
// # Usage
//
//	store, err := storage.NewArtifactStore(dir, cfg.DateFormat)
//	plan, err := store.Plan(sess, summary, formats)
//	err = store.Write(plan.Path(export.FormatHTML), data)
package storage
