// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the convexport command line.
//
// Every host tool gets the same command tree:
//
//	convexport claude hook              # export the session named on stdin
//	convexport codex export --since today
//	convexport openclaw list --agent main
//	convexport claude view --latest
//	convexport config show --tool codex
//
// Diagnostics go to stderr; stdout carries results only. Exit codes are
// listed in errors.go.
package cli
