// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/convexport/internal/config"
	"github.com/jeranaias/convexport/internal/export"
	"github.com/jeranaias/convexport/internal/model"
)

const sessionID = "a1b2c3d4-e5f6-7890-abcd-ef1234567890"

var t0 = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func testSession() *model.Session {
	s := &model.Session{ID: sessionID, Source: "claude", Project: "webapp", CWD: "/home/dev/webapp"}
	s.Append(model.NewUserMessage(t0, "Fix the login redirect"))
	s.Append(model.NewAssistantMessage(t0.Add(time.Minute), "Done"))
	return s
}

func newStore(t *testing.T) *ArtifactStore {
	t.Helper()
	store, err := NewArtifactStore(t.TempDir(), "%Y-%m-%d %H:%M:%S")
	require.NoError(t, err)
	return store
}

// writeExport renders sess into the store the way the pipeline does.
func writeExport(t *testing.T, store *ArtifactStore, sess *model.Session, f export.Format) *Plan {
	t.Helper()
	plan, err := store.Plan(sess, "Fixing Login Redirect", []export.Format{f})
	require.NoError(t, err)

	doc := export.NewDocument(sess, "Fixing Login Redirect", config.Default(config.Claude))
	doc.Created, doc.CreatedLabel = plan.Created, plan.CreatedLabel
	data, err := export.New(f).Export(doc)
	require.NoError(t, err)
	require.NoError(t, store.Write(plan.Path(f), data))
	return plan
}

// =============================================================================
// OUTPUT LOCATION TESTS
// =============================================================================

func TestOutputDir_Precedence(t *testing.T) {
	cfg := config.Default(config.Claude)
	sess := testSession()

	dir, err := OutputDir(cfg, "", sess)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/dev/webapp", "artifacts", "conversations"), dir)

	cfg.CentralExportLocation = "/srv/exports"
	dir, err = OutputDir(cfg, "", sess)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/srv/exports", "webapp"), dir)

	dir, err = OutputDir(cfg, "/tmp/out", sess)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out", dir)
}

func TestNewArtifactStore_RequiresDir(t *testing.T) {
	_, err := NewArtifactStore("", "%Y")
	assert.ErrorIs(t, err, ErrNoOutputDir)
}

// =============================================================================
// PLAN TESTS
// =============================================================================

func TestPlan_NewArtifact(t *testing.T) {
	store := newStore(t)
	plan, err := store.Plan(testSession(), "Fixing Login Redirect", []export.Format{export.FormatHTML, export.FormatMarkdown})
	require.NoError(t, err)

	assert.False(t, plan.Existing)
	assert.Equal(t, "a1b2c3d4_fixing-login-redirect", plan.Stem)
	assert.Equal(t, t0, plan.Created)
	assert.Equal(t, filepath.Join(store.Dir, "a1b2c3d4_fixing-login-redirect.html"), plan.Path(export.FormatHTML))
	assert.Equal(t, filepath.Join(store.Dir, "a1b2c3d4_fixing-login-redirect.md"), plan.Path(export.FormatMarkdown))
	assert.Equal(t, filepath.Join(store.Dir, "a1b2c3d4_fixing-login-redirect.jsonl"), plan.TranscriptPath())
}

func TestPlan_ReusesRenamedArtifact(t *testing.T) {
	store := newStore(t)
	first := writeExport(t, store, testSession(), export.FormatHTML)

	renamed := filepath.Join(store.Dir, "a1b2c3d4_my-notes.html")
	require.NoError(t, os.Rename(first.Path(export.FormatHTML), renamed))

	sess := testSession()
	sess.Append(model.NewUserMessage(t0.Add(2*time.Hour), "one more thing"))
	plan, err := store.Plan(sess, "Something Else Entirely", []export.Format{export.FormatHTML})
	require.NoError(t, err)

	assert.True(t, plan.Existing)
	assert.Equal(t, renamed, plan.Path(export.FormatHTML))
	assert.Equal(t, "a1b2c3d4_my-notes", plan.Stem)
	assert.True(t, t0.Equal(plan.Created))
}

func TestPlan_KeepsCreationTimeOverFirstEvent(t *testing.T) {
	store := newStore(t)
	original := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	doc := export.NewDocument(testSession(), "x", config.Default(config.Claude))
	doc.Created = original
	data, err := export.NewHTMLExporter().Export(doc)
	require.NoError(t, err)
	require.NoError(t, store.Write(filepath.Join(store.Dir, "a1b2c3d4_x.html"), data))

	plan, err := store.Plan(testSession(), "x", []export.Format{export.FormatHTML})
	require.NoError(t, err)
	assert.True(t, original.Equal(plan.Created))
}

func TestPlan_MissingFormatFollowsExistingStem(t *testing.T) {
	store := newStore(t)
	writeExport(t, store, testSession(), export.FormatHTML)
	require.NoError(t, os.Rename(
		filepath.Join(store.Dir, "a1b2c3d4_fixing-login-redirect.html"),
		filepath.Join(store.Dir, "a1b2c3d4_renamed.html")))

	plan, err := store.Plan(testSession(), "Fixing Login Redirect", []export.Format{export.FormatHTML, export.FormatMarkdown})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Dir, "a1b2c3d4_renamed.md"), plan.Path(export.FormatMarkdown))
}

func TestPlan_CollisionWithOtherSession(t *testing.T) {
	store := newStore(t)

	// Same short id, different session.
	other := testSession()
	other.ID = "a1b2c3d4-0000-0000-0000-000000000000"
	writeExport(t, store, other, export.FormatHTML)

	plan, err := store.Plan(testSession(), "Fixing Login Redirect", []export.Format{export.FormatHTML})
	require.NoError(t, err)
	assert.False(t, plan.Existing)
	assert.Equal(t, "a1b2c3d4_fixing-login-redirect-2", plan.Stem)
}

func TestFind_LegacyArtifact(t *testing.T) {
	store := newStore(t)
	legacy := `<html><body><div class="meta">
<p><strong>Created (UTC):</strong> 2024-11-02 18:30:00</p>
</div></body></html>`
	path := filepath.Join(store.Dir, "20241102T183000Z_a1b2c3d4-e5f6-7890-abcd-ef1234567890.html")
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	prior, err := store.Find(sessionID, export.FormatHTML)
	require.NoError(t, err)
	require.NotNil(t, prior)
	assert.Equal(t, path, prior.Path)
	assert.Equal(t, time.Date(2024, 11, 2, 18, 30, 0, 0, time.UTC), prior.Meta.Created)
}

func TestFind_IgnoresUnrelatedFiles(t *testing.T) {
	store := newStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir, "notes_a1b2c3d4.html"), []byte("<p>mine</p>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir, "a1b2c3d4_draft.txt"), []byte("x"), 0644))

	prior, err := store.Find(sessionID, export.FormatHTML)
	require.NoError(t, err)
	assert.Nil(t, prior)
	assert.False(t, store.Exists(sessionID, []export.Format{export.FormatHTML, export.FormatMarkdown}))
}

func TestFind_MissingDir(t *testing.T) {
	store, err := NewArtifactStore(filepath.Join(t.TempDir(), "absent"), "%Y")
	require.NoError(t, err)
	prior, err := store.Find(sessionID, export.FormatHTML)
	require.NoError(t, err)
	assert.Nil(t, prior)
}

// =============================================================================
// WRITE TESTS
// =============================================================================

func TestWrite_ErrorIsWriteError(t *testing.T) {
	store := newStore(t)
	blocker := filepath.Join(store.Dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := store.Write(filepath.Join(blocker, "nested.html"), []byte("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWrite))
	assert.False(t, errors.Is(err, ErrNoOutputDir))
}

func TestCopyTranscript(t *testing.T) {
	store := newStore(t)
	src := filepath.Join(t.TempDir(), "session.jsonl")
	require.NoError(t, os.WriteFile(src, []byte(`{"type":"user"}`+"\n"), 0644))

	dst := filepath.Join(store.Dir, "a1b2c3d4_x.jsonl")
	require.NoError(t, store.CopyTranscript(src, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"user"}`+"\n", string(data))

	assert.NoError(t, store.CopyTranscript("", dst))
	assert.ErrorIs(t, store.CopyTranscript(filepath.Join(t.TempDir(), "missing"), dst), ErrWrite)
}

// =============================================================================
// INDEX TESTS
// =============================================================================

func TestIndex_MergeSortAndRoundTrip(t *testing.T) {
	store := newStore(t)
	for _, name := range []string{"aaaa1111_one.html", "bbbb2222_two.html", "cccc3333_three.html"} {
		require.NoError(t, os.WriteFile(filepath.Join(store.Dir, name), []byte("x"), 0644))
	}

	require.NoError(t, store.UpdateIndex(
		IndexEntry{SessionID: "aaaa1111", Project: "web", Summary: "First | pipe", Created: t0, Updated: t0, File: "aaaa1111_one.html"},
		IndexEntry{SessionID: "bbbb2222", Project: "web", Summary: "Second", Created: t0, Updated: t0.Add(time.Hour), File: "bbbb2222_two.html"},
	))
	require.NoError(t, store.UpdateIndex(
		IndexEntry{SessionID: "cccc3333", Project: "api", Summary: "Third", Created: t0, Updated: t0.Add(30 * time.Minute), File: "cccc3333_three.html"},
		IndexEntry{SessionID: "aaaa1111", Project: "web", Summary: "First again", Created: t0, Updated: t0.Add(2 * time.Hour), File: "aaaa1111_one.html"},
	))

	idx, err := LoadIndex(store.Dir)
	require.NoError(t, err)
	require.Len(t, idx.Entries, 3)
	assert.Equal(t, []string{"aaaa1111", "bbbb2222", "cccc3333"},
		[]string{idx.Entries[0].SessionID, idx.Entries[1].SessionID, idx.Entries[2].SessionID})
	assert.Equal(t, "First again", idx.Entries[0].Summary)
	assert.Equal(t, t0.Add(2*time.Hour), idx.Entries[0].Updated)
	assert.Equal(t, "cccc3333_three.html", idx.Entries[2].File)
}

func TestIndex_EscapesPipes(t *testing.T) {
	idx := &Index{Entries: []IndexEntry{{SessionID: "s1", Summary: "a | b", Updated: t0, File: "s1_x.html"}}}
	back := ParseIndex(idx.Markdown())
	require.Len(t, back.Entries, 1)
	assert.Equal(t, "a | b", back.Entries[0].Summary)
	assert.True(t, back.Entries[0].Created.IsZero())
}

func TestIndex_PrunesMissingFiles(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.UpdateIndex(IndexEntry{SessionID: "gone", Updated: t0, File: "gone_x.html"}))

	idx, err := LoadIndex(store.Dir)
	require.NoError(t, err)
	assert.Empty(t, idx.Entries)
}
