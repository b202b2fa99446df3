// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package summary

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/convexport/internal/model"
)

func TestFromTextsAction(t *testing.T) {
	got := FromTexts([]string{
		"Please fix the login redirect bug in `auth.go`",
		"The redirect still loops after login",
	}, "webapp")
	assert.Equal(t, "Fixing Login Redirect Fix", got)
}

func TestFromTextsPlain(t *testing.T) {
	got := FromTexts([]string{"Database migrations are slow; database indexes missing"}, "api")
	assert.Equal(t, "Database Migrations Slow Indexes", got)
}

func TestFromTextsStripsNoise(t *testing.T) {
	got := FromTexts([]string{"```go\nfunc main() {}\n``` see https://example.com/docs and /usr/local/bin kernel"}, "")
	assert.Equal(t, "Kernel", got)
}

func TestFromTextsFallback(t *testing.T) {
	assert.Equal(t, "webapp session", FromTexts(nil, "webapp"))
	assert.Equal(t, "webapp session", FromTexts([]string{"can you help me with this?"}, "webapp"))
	assert.Equal(t, "Session", FromTexts(nil, ""))
}

func TestGenerateDeterministic(t *testing.T) {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sess := &model.Session{Events: []model.Event{
		model.NewSystemNote(ts, "caveat text about commands"),
		model.NewUserMessage(ts, "Refactor the export pipeline for clarity"),
		model.NewAssistantMessage(ts, "Sure"),
	}}
	first := Generate(sess, "tool")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Generate(sess, "tool"))
	}
	assert.Equal(t, "Exporting Refactor Export Pipeline", first)
}

func TestKeywordsTieBreak(t *testing.T) {
	assert.Equal(t, []string{"beta", "alpha", "gamma"}, Keywords("alpha beta gamma beta"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "fixing-login-redirect", Slugify("Fixing Login Redirect"))
	assert.Equal(t, "cafe-creme-brulee", Slugify("Café Crème Brûlée!"))
	assert.Equal(t, "session", Slugify("日本語"))
	assert.Equal(t, "session", Slugify(""))

	long := Slugify(strings.Repeat("word ", 30))
	assert.LessOrEqual(t, len(long), MaxSlugLength)
	assert.False(t, strings.HasSuffix(long, "-"))
}
