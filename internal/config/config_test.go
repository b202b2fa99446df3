// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withHome points $HOME at a temp dir and returns the tool's data dir in it.
func withHome(t *testing.T, p Profile) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CONVEXPORT_THEME", "")
	t.Setenv("CONVEXPORT_CENTRAL", "")
	t.Setenv("CONVEXPORT_OUTPUT_DIR", "")
	t.Setenv("CONVEXPORT_INCLUDE_THINKING", "")
	root := filepath.Join(home, p.HomeDir)
	require.NoError(t, os.MkdirAll(root, 0755))
	return root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// =============================================================================
// DEFAULTS
// =============================================================================

func TestDefault_PerProfile(t *testing.T) {
	claude := Default(Claude)
	assert.Equal(t, "Claude", claude.AssistantName)
	assert.Equal(t, "artifacts/conversations", claude.OutputDir)
	assert.True(t, claude.CopyTranscript)
	assert.Equal(t, "auto", claude.Theme)
	assert.Equal(t, 1000, claude.MaxToolResultLength)
	assert.Equal(t, 500, claude.MaxToolInputLength)
	assert.True(t, claude.ShowStatistics)
	assert.False(t, claude.IncludeThinking)

	codex := Default(Codex)
	assert.Equal(t, "Codex", codex.AssistantName)
	assert.Equal(t, "artifacts/conversations/codex", codex.OutputDir)
	assert.False(t, codex.CopyTranscript)

	assert.Equal(t, "~/openclaw-export", Default(OpenClaw).CentralExportLocation)

	require.NoError(t, claude.Validate())
}

func TestLookupProfile(t *testing.T) {
	p, err := LookupProfile("Codex")
	require.NoError(t, err)
	assert.Equal(t, "codex", p.Name)

	_, err = LookupProfile("gemini")
	assert.Error(t, err)
}

// =============================================================================
// LOAD
// =============================================================================

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	withHome(t, Claude)

	cfg, err := Load(Claude)
	require.NoError(t, err)
	assert.Equal(t, Default(Claude).String(), cfg.String())
}

func TestLoad_JSONOverridesAndIgnoresUnknownKeys(t *testing.T) {
	root := withHome(t, Claude)
	writeFile(t, filepath.Join(root, "conversation-export-config.json"), `{
		"_comment": "comment keys are ignored",
		"user_name": "Jo",
		"theme": "Nord",
		"show_statistics": false,
		"max_tool_result_length": 200,
		"central_export_location": null,
		"custom_colors": {"accent": "#ff0000"},
		"unknown_key": 42
	}`)

	cfg, err := Load(Claude)
	require.NoError(t, err)
	assert.Equal(t, "Jo", cfg.UserName)
	assert.Equal(t, "nord", cfg.Theme)
	assert.False(t, cfg.ShowStatistics)
	assert.True(t, cfg.ShowSummary, "absent keys keep defaults")
	assert.Equal(t, 200, cfg.MaxToolResultLength)
	assert.Equal(t, "#ff0000", cfg.CustomColors["accent"])
	assert.Equal(t, "Claude", cfg.AssistantName)
}

func TestLoad_TOMLPreferredOverJSON(t *testing.T) {
	root := withHome(t, Codex)
	writeFile(t, filepath.Join(root, "conversation-export-config.json"), `{"user_name": "from-json"}`)
	writeFile(t, filepath.Join(root, "conversation-export-config.toml"), "user_name = \"from-toml\"\ninclude_thinking = true\n")

	cfg, err := Load(Codex)
	require.NoError(t, err)
	assert.Equal(t, "from-toml", cfg.UserName)
	assert.True(t, cfg.IncludeThinking)
	assert.Equal(t, "Codex", cfg.AssistantName)
}

func TestLoad_MalformedJSONFallsBackToDefaults(t *testing.T) {
	root := withHome(t, Claude)
	writeFile(t, filepath.Join(root, "conversation-export-config.json"), `{"user_name": "Jo",`)

	cfg, err := Load(Claude)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfigParse))
	require.NotNil(t, cfg)
	assert.Equal(t, "You", cfg.UserName)
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	root := withHome(t, Claude)
	writeFile(t, filepath.Join(root, "conversation-export-config.json"), `{"theme": "neon", "user_name": "Jo"}`)

	cfg, err := Load(Claude)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigParse)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "theme", verrs[0].Field)
	assert.Equal(t, "You", cfg.UserName)
	assert.Equal(t, "auto", cfg.Theme)
}

func TestLoadFromPath_EmptyFileIsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	writeFile(t, path, "  \n")

	cfg, err := LoadFromPath(Claude, path)
	require.NoError(t, err)
	assert.Equal(t, "You", cfg.UserName)
}

func TestApplyEnvOverrides(t *testing.T) {
	withHome(t, Claude)
	t.Setenv("CONVEXPORT_THEME", "dracula")
	t.Setenv("CONVEXPORT_CENTRAL", "/srv/exports")
	t.Setenv("CONVEXPORT_INCLUDE_THINKING", "true")

	cfg, err := Load(Claude)
	require.NoError(t, err)
	assert.Equal(t, "dracula", cfg.Theme)
	assert.Equal(t, "/srv/exports", cfg.CentralDir())
	assert.True(t, cfg.IncludeThinking)

	t.Setenv("CONVEXPORT_THEME", "not-a-theme")
	cfg, err = Load(Claude)
	require.NoError(t, err)
	assert.Equal(t, "auto", cfg.Theme)
}

// =============================================================================
// SAVE
// =============================================================================

func TestSaveJSON_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cfg.json")
	cfg := Default(Claude)
	cfg.UserName = "Sam"
	cfg.CustomColors = map[string]string{"bg_color": "#000"}

	require.NoError(t, SaveJSON(cfg, path))

	loaded, err := LoadFromPath(Claude, path)
	require.NoError(t, err)
	assert.Equal(t, "Sam", loaded.UserName)
	assert.Equal(t, "#000", loaded.CustomColors["bg_color"])
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.toml")
	cfg := Default(OpenClaw)
	cfg.ShowSessionID = false

	require.NoError(t, SaveTOML(cfg, path))

	loaded, err := LoadFromPath(OpenClaw, path)
	require.NoError(t, err)
	assert.False(t, loaded.ShowSessionID)
	assert.Equal(t, "OpenClaw", loaded.AssistantName)
}

// =============================================================================
// VALIDATION AND DERIVED VALUES
// =============================================================================

func TestValidate_RejectsCSSInjection(t *testing.T) {
	cfg := Default(Claude)
	cfg.FontSize = "16px; } body { display:none"
	cfg.CustomColors = map[string]string{"accent": "red</style>"}
	cfg.MaxToolInputLength = -1

	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	fields := make([]string, 0, len(verrs))
	for _, v := range verrs {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{"max_tool_input_length", "font_size", "custom_colors.accent"}, fields)
}

func TestTitleAndFormats(t *testing.T) {
	cfg := Default(Claude)
	assert.Equal(t, "webapp Conversations", cfg.Title("webapp", "Fix Bug"))
	assert.Equal(t, "Claude Code Conversations", cfg.Title("", ""))
	cfg.TitleFormat = "{summary} ({project_name})"
	assert.Equal(t, "Fix Bug (webapp)", cfg.Title("webapp", "Fix Bug"))

	ts := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "2025-01-02 15:04:05", cfg.FormatDate(ts))
	assert.Equal(t, "15:04:05", cfg.FormatTime(ts))
	assert.Equal(t, "-", cfg.FormatDate(time.Time{}))
	assert.Equal(t, "", cfg.FormatTime(time.Time{}))
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	assert.Equal(t, filepath.Join(home, "exports"), ExpandHome("~/exports"))
	assert.Equal(t, "/abs/path", ExpandHome("/abs/path"))
	assert.Equal(t, "~user/x", ExpandHome("~user/x"))
}

func TestClone_DeepCopiesColors(t *testing.T) {
	cfg := Default(Claude)
	cfg.CustomColors = map[string]string{"accent": "#111"}
	clone := cfg.Clone()
	clone.CustomColors["accent"] = "#222"
	assert.Equal(t, "#111", cfg.CustomColors["accent"])
}
