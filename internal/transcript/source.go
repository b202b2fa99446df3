// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/convexport/internal/model"
	"github.com/jeranaias/convexport/internal/util"
)

// =============================================================================
// SESSION FILES
// =============================================================================

// SessionFile describes a discovered transcript without its contents.
type SessionFile struct {
	ID      string    `json:"id"`
	Source  string    `json:"source"`
	Project string    `json:"project,omitempty"` // project (Claude, Codex) or agent (OpenClaw)
	CWD     string    `json:"cwd,omitempty"`
	Path    string    `json:"path"`
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`
}

// ShortID returns the artifact key of the file's session.
func (f SessionFile) ShortID() string {
	return model.ShortID(f.ID)
}

// FileFromPath describes a single transcript given by path, as supplied by a
// host hook or --session. id and cwd may be empty; the id then defaults to
// the file stem.
func FileFromPath(source, path, id, cwd string) (SessionFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return SessionFile{}, &NotFoundError{What: "transcript", Path: path}
		}
		return SessionFile{}, fmt.Errorf("stat transcript: %w", err)
	}
	if info.IsDir() {
		return SessionFile{}, &NotFoundError{What: "transcript", Path: path}
	}
	if id == "" {
		id = sessionIDFromName(filepath.Base(path))
	}
	f := SessionFile{
		ID:      id,
		Source:  source,
		CWD:     cwd,
		Path:    path,
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}
	if cwd != "" {
		f.Project = filepath.Base(cwd)
	}
	return f, nil
}

// sessionIDFromName extracts a session id from a transcript file name: a
// trailing UUID when there is one (rollout-2025-…-<uuid>.jsonl), else the
// whole stem.
func sessionIDFromName(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	const uuidLen = 36
	if len(stem) >= uuidLen {
		if tail := stem[len(stem)-uuidLen:]; isUUID(tail) {
			return tail
		}
	}
	return stem
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}

// sortFiles orders newest first, then by path for a stable order.
func sortFiles(files []SessionFile) {
	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].ModTime.After(files[j].ModTime)
		}
		return files[i].Path < files[j].Path
	})
}

// =============================================================================
// SOURCES
// =============================================================================

// Options tunes normalization.
type Options struct {
	// MaxToolInput and MaxToolResult clip tool payloads, in runes. Zero keeps
	// them whole.
	MaxToolInput  int
	MaxToolResult int

	IncludeThinking bool

	Logger *util.Logger
}

func (o Options) logger() *util.Logger {
	if o.Logger == nil {
		return util.Discard()
	}
	return o.Logger
}

// Source is one host tool's transcript layout and record format.
type Source interface {
	// Name returns the tool name (claude, codex, openclaw).
	Name() string

	// DefaultRoot returns the directory Discover scans by default.
	DefaultRoot() (string, error)

	// Discover enumerates session transcripts under root. A missing root is
	// an error wrapping ErrInputNotFound.
	Discover(root string) ([]SessionFile, error)

	// Parse reads and normalizes one transcript.
	Parse(ctx context.Context, file SessionFile, opts Options) (*model.Session, error)
}

// ForTool returns the Source for a tool name.
func ForTool(name string) (Source, error) {
	switch strings.ToLower(name) {
	case "claude":
		return &ClaudeSource{}, nil
	case "codex":
		return &CodexSource{}, nil
	case "openclaw":
		return &OpenClawSource{}, nil
	default:
		return nil, fmt.Errorf("unknown tool %q", name)
	}
}

// recordHandler consumes one decoded line. It returns an error wrapping
// ErrRecordParse for lines that decode but are unusable.
type recordHandler func(line []byte) error

// parseWith drives a handler over a transcript, counting and logging
// malformed lines without stopping.
func parseWith(ctx context.Context, file SessionFile, opts Options, sess *model.Session, handle recordHandler) error {
	log := opts.logger()
	err := ReadLines(ctx, file.Path, func(lineNo int, line []byte) error {
		if err := handle(line); err != nil {
			recErr := &RecordError{Path: file.Path, Line: lineNo, Err: err}
			sess.SkippedRecords++
			log.Debugf("skipping record: %v", recErr)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if sess.SkippedRecords > 0 {
		log.Event("TRANSCRIPT_SKIPPED_RECORDS", "session", file.ShortID(), "count", sess.SkippedRecords)
	}
	return nil
}

// newSession seeds a session from its descriptor.
func newSession(file SessionFile) *model.Session {
	return &model.Session{
		ID:             file.ID,
		Source:         file.Source,
		Project:        file.Project,
		CWD:            file.CWD,
		TranscriptPath: file.Path,
		ModTime:        file.ModTime,
	}
}

// pinCWD records the session's working directory once. A directory known
// from the descriptor, or from an earlier record, is kept when a later record
// reports another one, so the output location stays put after a "cd".
func pinCWD(sess *model.Session, cwd string) {
	if cwd == "" || sess.CWD != "" {
		return
	}
	sess.CWD = cwd
	if sess.Project == "" {
		sess.Project = filepath.Base(cwd)
	}
}

// decodeRecord unmarshals a line, tagging failures as record parse errors.
func decodeRecord(line []byte, v any) error {
	if err := json.Unmarshal(line, v); err != nil {
		return fmt.Errorf("%w: %v", ErrRecordParse, err)
	}
	return nil
}

// errMissingType reports a record with no discriminator.
var errMissingType = fmt.Errorf("%w: missing type field", ErrRecordParse)

// statJSONL lists *.jsonl files in dir matching keep, as descriptors.
func statJSONL(dir string, keep func(name string) bool) ([]SessionFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []SessionFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".jsonl") || (keep != nil && !keep(name)) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, SessionFile{
			ID:      sessionIDFromName(name),
			Path:    filepath.Join(dir, name),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	return files, nil
}

func requireDir(path, what string) error {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return &NotFoundError{What: what, Path: path}
	}
	return nil
}
