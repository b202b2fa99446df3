// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders normalized sessions into standalone documents.
//
// # Key Types
//
//   - Document: A session plus its statistics, summary and display config
//   - Exporter: Renders a Document into bytes for one format
//   - ArtifactMeta: Identity and creation time read back from an export
//
// # Supported Formats
//
//   - HTML: Self-contained page with themes, collapsible tools and print CSS
//   - Markdown: YAML front matter followed by a readable transcript
//   - JSON: Machine-readable session with statistics
//
// # Usage
//
//	doc := export.NewDocument(sess, summary.Generate(sess, project), cfg)
//	data, err := export.New(export.FormatHTML).Export(doc)
//
// Rendering is deterministic: the same Document always produces the same
// bytes.
package export
