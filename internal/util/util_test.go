// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_Basic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.html")
	data := []byte("<html></html>")

	require.NoError(t, AtomicWriteFile(path, data, 0644))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, content)
}

func TestAtomicWriteFile_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifacts", "conversations", "a.html")

	require.NoError(t, AtomicWriteFile(path, []byte("x"), 0644))

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestAtomicWriteFile_OverwritesWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.html")

	require.NoError(t, AtomicWriteFile(path, []byte("first"), 0644))
	require.NoError(t, AtomicWriteFile(path, []byte("second"), 0644))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
	assert.Len(t, entries, 1)
}

func TestAtomicCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.jsonl")
	dst := filepath.Join(dir, "out", "copy.jsonl")
	require.NoError(t, os.WriteFile(src, []byte("{\"a\":1}\n"), 0644))

	require.NoError(t, AtomicCopyFile(src, dst, 0644))

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n", string(content))
}

func TestAtomicCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := AtomicCopyFile(filepath.Join(dir, "nope"), filepath.Join(dir, "dst"), 0644)
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "dst"))
	assert.True(t, os.IsNotExist(statErr))
}

// =============================================================================
// STRING TESTS
// =============================================================================

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		input    string
		maxRunes int
		want     string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 3, "hel"},
		{"hello", 0, ""},
		{"日本語テキスト", 5, "日本..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TruncateRunes(tt.input, tt.maxRunes), "TruncateRunes(%q, %d)", tt.input, tt.maxRunes)
	}
}

func TestClip(t *testing.T) {
	got, dropped := Clip("abcdef", 4)
	assert.Equal(t, "abcd", got)
	assert.Equal(t, 2, dropped)

	got, dropped = Clip("héllo", 10)
	assert.Equal(t, "héllo", got)
	assert.Zero(t, dropped)

	got, dropped = Clip("unlimited", 0)
	assert.Equal(t, "unlimited", got)
	assert.Zero(t, dropped)
}

func TestTruncateWidth(t *testing.T) {
	assert.Equal(t, "short", TruncateWidth("short", 10))
	assert.Equal(t, "hello...", TruncateWidth("hello world", 8))
	assert.LessOrEqual(t, runewidth.StringWidth(TruncateWidth("日本語テキスト", 7)), 7)
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "first", FirstLine("\n  first  \nsecond"))
	assert.Equal(t, "", FirstLine("  \n\t"))
}

// =============================================================================
// FORMAT TESTS
// =============================================================================

func TestFormatTokens(t *testing.T) {
	assert.Equal(t, "950", FormatTokens(950))
	assert.Equal(t, "12.3K", FormatTokens(12_345))
	assert.Equal(t, "2K", FormatTokens(2_000))
	assert.Equal(t, "1.5M", FormatTokens(1_500_000))
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "200", FormatCount(200))
	assert.Equal(t, "1,234,567", FormatCount(1234567))
}

func TestFormatBytesAndAge(t *testing.T) {
	assert.Equal(t, "4.2 kB", FormatBytes(4200))
	assert.Equal(t, "0 B", FormatBytes(-1))
	assert.Equal(t, "-", FormatAge(time.Time{}))
	assert.Equal(t, "3 hours ago", FormatAge(time.Now().Add(-3*time.Hour-time.Minute)))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0s", FormatDuration(0))
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "3m 5s", FormatDuration(3*time.Minute+5*time.Second))
	assert.Equal(t, "2h 10m", FormatDuration(2*time.Hour+10*time.Minute+9*time.Second))
	assert.Equal(t, "0s", FormatDuration(-time.Second))
}

// =============================================================================
// LOGGER TESTS
// =============================================================================

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, LevelInfo)

	log.Debugf("hidden %d", 1)
	log.Infof("shown %d", 2)
	log.Warnf("careful")
	log.Event("EXPORT", "session", "abc", "state", "written")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown 2")
	assert.Contains(t, out, "Warning: careful")
	assert.NotContains(t, out, "EXPORT")

	buf.Reset()
	log = NewLogger(&buf, LevelDebug)
	log.Event("EXPORT", "session", "abc", "state", "written")
	assert.Equal(t, "EXPORT | session=abc state=written\n", buf.String())
}

func TestLogger_NilAndDiscard(t *testing.T) {
	var nilLogger *Logger
	assert.False(t, nilLogger.Enabled(LevelError))
	nilLogger.Errorf("does not panic")

	Discard().Errorf("dropped")
}
