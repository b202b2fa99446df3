// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/convexport/internal/config"
	"github.com/jeranaias/convexport/internal/transcript"
)

const sessionID = "a1b2c3d4-e5f6-7890-abcd-ef1234567890"

var transcriptLines = []string{
	`{"type":"user","sessionId":"` + sessionID + `","timestamp":"2025-03-14T09:00:00Z","message":{"role":"user","content":"Fix the login redirect bug"}}`,
	`{"type":"assistant","sessionId":"` + sessionID + `","timestamp":"2025-03-14T09:01:00Z","message":{"id":"msg_1","role":"assistant","content":[{"type":"text","text":"Fixed it."}],"usage":{"input_tokens":100,"output_tokens":50}}}`,
}

// fixture creates a Claude projects root with one session and an isolated
// home directory.
func fixture(t *testing.T) (root, transcriptPath string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CONVEXPORT_CENTRAL", "")

	root = t.TempDir()
	dir := filepath.Join(root, "-home-dev-webapp")
	require.NoError(t, os.MkdirAll(dir, 0755))
	transcriptPath = filepath.Join(dir, sessionID+".jsonl")
	require.NoError(t, os.WriteFile(transcriptPath, []byte(strings.Join(transcriptLines, "\n")+"\n"), 0644))
	return root, transcriptPath
}

// run executes the command line and returns stdout, stderr and the error.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// =============================================================================
// EXPORT COMMAND TESTS
// =============================================================================

func TestExport_WritesSession(t *testing.T) {
	root, _ := fixture(t)
	out := t.TempDir()

	stdout, _, err := run(t, "", "claude", "export", "--sessions-dir", root, "--output", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Complete: 1 exported, 0 skipped, 0 failed")
	assert.Contains(t, stdout, "a1b2c3d4")

	matches, err := filepath.Glob(filepath.Join(out, "a1b2c3d4_*.html"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestExport_SinceTodayNothingModified(t *testing.T) {
	root, path := fixture(t)
	old := time.Now().AddDate(0, 0, -2)
	require.NoError(t, os.Chtimes(path, old, old))

	stdout, _, err := run(t, "", "claude", "export", "--sessions-dir", root, "--output", t.TempDir(), "--since", "today")
	require.NoError(t, err)
	assert.Equal(t, ExitSuccess, GetExitCode(err))
	assert.Contains(t, stdout, "0 exported")
}

func TestExport_BothFormatsAndDryRun(t *testing.T) {
	root, _ := fixture(t)
	out := t.TempDir()

	stdout, _, err := run(t, "", "claude", "export", "--sessions-dir", root, "--output", out, "--format", "both", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[DRY-RUN]")
	assert.Contains(t, stdout, ".md")
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExport_SkipExisting(t *testing.T) {
	root, _ := fixture(t)
	out := t.TempDir()

	_, _, err := run(t, "", "claude", "export", "--sessions-dir", root, "--output", out)
	require.NoError(t, err)
	stdout, _, err := run(t, "", "claude", "export", "--sessions-dir", root, "--output", out, "--skip-existing")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Complete: 0 exported, 1 skipped, 0 failed")
}

func TestExport_ListMarksExported(t *testing.T) {
	root, _ := fixture(t)
	out := t.TempDir()

	stdout, _, err := run(t, "", "claude", "export", "--sessions-dir", root, "--output", out, "--list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "EXPORTED")
	assert.NotContains(t, stdout, "yes")

	_, _, err = run(t, "", "claude", "export", "--sessions-dir", root, "--output", out)
	require.NoError(t, err)
	stdout, _, err = run(t, "", "claude", "list", "--sessions-dir", root, "--output", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "a1b2c3d4")
	assert.Contains(t, stdout, "yes")
	assert.Contains(t, stdout, "1 session")
}

func TestExport_CentralLeavesLoadedConfig(t *testing.T) {
	root, _ := fixture(t)
	central := t.TempDir()

	stdout, _, err := run(t, "", "claude", "export", "--sessions-dir", root, "--central", central)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Complete: 1 exported")
	matches, err := filepath.Glob(filepath.Join(central, "webapp", "a1b2c3d4_*.html"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	a := &app{cfg: config.Default(config.Claude)}
	clone := a.cfg.Clone()
	clone.CentralExportLocation = central
	b := a.withConfig(clone)
	assert.Empty(t, a.cfg.CentralExportLocation)
	assert.Equal(t, central, b.cfg.CentralExportLocation)
}

func TestExport_Errors(t *testing.T) {
	root, _ := fixture(t)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing sessions root", []string{"claude", "export", "--sessions-dir", filepath.Join(root, "absent")}, ExitNotFoundError},
		{"unknown session", []string{"claude", "export", "--sessions-dir", root, "--session", "ffffffff"}, ExitNotFoundError},
		{"bad format", []string{"claude", "export", "--sessions-dir", root, "--format", "pdf"}, ExitUsageError},
		{"bad date", []string{"claude", "export", "--sessions-dir", root, "--since", "last tuesday"}, ExitUsageError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, "", tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, GetExitCode(err))
		})
	}
}

// =============================================================================
// HOOK COMMAND TESTS
// =============================================================================

func TestHook_ExportsPayloadSession(t *testing.T) {
	_, path := fixture(t)
	project := t.TempDir()
	payload := fmt.Sprintf(`{"session_id":%q,"transcript_path":%q,"cwd":%q,"hook_event_name":"SessionEnd","reason":"exit"}`,
		sessionID, path, project)

	stdout, _, err := run(t, payload, "claude", "hook")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Complete: 1 exported")

	// Records without a cwd keep the payload's directory.
	matches, err := filepath.Glob(filepath.Join(project, "artifacts", "conversations", "a1b2c3d4_*.html"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestHook_MissingTranscript(t *testing.T) {
	fixture(t)
	payload := `{"session_id":"x","transcript_path":"/nonexistent/session.jsonl","cwd":"/tmp"}`
	_, _, err := run(t, payload, "claude", "hook")
	require.Error(t, err)
	assert.True(t, errors.Is(err, transcript.ErrInputNotFound))
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))
}

func TestHook_InvalidPayload(t *testing.T) {
	fixture(t)
	_, _, err := run(t, "{not json", "claude", "hook")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	_, _, err = run(t, "", "claude", "hook")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestReadHookPayload(t *testing.T) {
	p, err := ReadHookPayload(strings.NewReader(`{"session_id":"s1","transcript_path":"/t.jsonl","cwd":"/w","hook_event_name":"Stop"}`))
	require.NoError(t, err)
	assert.Equal(t, HookPayload{SessionID: "s1", TranscriptPath: "/t.jsonl", CWD: "/w", HookEventName: "Stop"}, p)

	p, err = ReadHookPayload(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Equal(t, HookPayload{}, p)
}

func TestMergePayload_PipedWins(t *testing.T) {
	merged := mergePayload(HookPayload{SessionID: "piped"}, HookPayload{SessionID: "flag", CWD: "/flag"})
	assert.Equal(t, "piped", merged.SessionID)
	assert.Equal(t, "/flag", merged.CWD)
}

// =============================================================================
// VIEW AND CONFIG COMMAND TESTS
// =============================================================================

func TestView_Raw(t *testing.T) {
	root, _ := fixture(t)
	stdout, _, err := run(t, "", "claude", "view", "--sessions-dir", root, "--raw")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "# "))
	assert.Contains(t, stdout, "Fix the login redirect bug")
	assert.NotContains(t, stdout, "session_id:")
}

func TestConfig_InitShowPath(t *testing.T) {
	fixture(t)

	stdout, _, err := run(t, "", "config", "init", "--tool", "codex")
	require.NoError(t, err)
	path, err := config.PathJSON(config.Codex)
	require.NoError(t, err)
	assert.Contains(t, stdout, path)
	assert.FileExists(t, path)

	_, _, err = run(t, "", "config", "init", "--tool", "codex")
	assert.Error(t, err)

	stdout, _, err = run(t, "", "config", "path", "--tool", "codex")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", stdout)

	stdout, _, err = run(t, "", "config", "show", "--tool", "codex")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"assistant_name": "Codex"`)
}

func TestConfig_ValidateBadFile(t *testing.T) {
	fixture(t)
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{nope"), 0644))

	_, _, err := run(t, "", "config", "validate", "--config", bad)
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, GetExitCode(err))

	// Commands other than validate fall back to defaults with a warning.
	root, _ := fixture(t)
	_, stderr, err := run(t, "", "claude", "export", "--config", bad, "--sessions-dir", root, "--output", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, stderr, "Warning:")
}

func TestConfig_UnknownTool(t *testing.T) {
	fixture(t)
	_, _, err := run(t, "", "config", "show", "--tool", "emacs")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{errors.New("boom"), ExitGeneralError},
		{&BatchError{Failed: 2}, ExitGeneralError},
		{NewValidationErrorWithExample("--format", "pdf", "bad", ""), ExitUsageError},
		{ErrNotFound("session", "abc"), ExitNotFoundError},
		{fmt.Errorf("wrapped: %w", transcript.ErrInputNotFound), ExitNotFoundError},
		{fmt.Errorf("x: %w", config.ErrConfigParse), ExitConfigError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GetExitCode(tt.err), fmt.Sprint(tt.err))
	}
}

func TestCommandError(t *testing.T) {
	inner := errors.New("disk full")
	err := NewCommandError("export", "write", "could not write", inner)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "export write failed: could not write: disk full", err.Error())
}

// =============================================================================
// TERMINAL TESTS
// =============================================================================

func TestTerminal_NonFileStreams(t *testing.T) {
	assert.False(t, isTerminal(strings.NewReader("{}")))
	assert.Equal(t, defaultWidth, terminalWidth(&bytes.Buffer{}))
}

func TestStatusTag_PlainWithoutTerminal(t *testing.T) {
	assert.Equal(t, "[EXPORTED]", statusTag("exported"))
	assert.Equal(t, "[DRY-RUN]", statusTag("Dry-Run"))
	assert.Equal(t, "[PENDING]", statusTag("pending"))
	assert.Equal(t, "----", rule(4))
}
