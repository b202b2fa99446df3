// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for the conversation exporter.
//
// Each host tool has its own profile (Claude Code, Codex, OpenClaw) with its own
// config file and defaults. Both TOML and JSON formats are read; JSON keeps
// compatibility with config files written for the original export scripts.
//
// # Key Types
//
//   - Config: display names, theme, typography, output location, visibility
//     toggles and truncation limits
//   - Profile: per-tool defaults and file locations
//   - ValidateErrors: collected validation failures
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (CONVEXPORT_*)
//   - ~/.<tool>/conversation-export-config.toml
//   - ~/.<tool>/conversation-export-config.json
//   - Built-in defaults
//
// A malformed or invalid file never aborts an export: Load returns the
// defaults together with an error wrapping ErrConfigParse, which callers
// report as a warning.
//
// # Usage
//
//	cfg, err := config.Load(config.ProfileFor("claude"))
//	if err != nil {
//	    log.Warnf("%v (using defaults)", err)
//	}
package config
