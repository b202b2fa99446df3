// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/convexport/internal/config"
	"github.com/jeranaias/convexport/internal/export"
	"github.com/jeranaias/convexport/internal/model"
	"github.com/jeranaias/convexport/internal/summary"
	"github.com/jeranaias/convexport/internal/util"
)

// maxCollisionSuffix bounds the -N search for a free file stem.
const maxCollisionSuffix = 1000

// =============================================================================
// OUTPUT LOCATION
// =============================================================================

// OutputDir resolves where a session's artifacts go: the explicit override,
// then the central export location (one folder per project), then the
// configured output_dir under the session's working directory.
func OutputDir(cfg *config.Config, override string, sess *model.Session) (string, error) {
	if override != "" {
		return filepath.Abs(config.ExpandHome(override))
	}
	if central := cfg.CentralDir(); central != "" {
		project := sess.ProjectName()
		if project == "" {
			project = "unknown"
		}
		return filepath.Abs(filepath.Join(central, summary.Slugify(project)))
	}

	base := sess.CWD
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrNoOutputDir, err)
		}
		base = wd
	}
	if cfg.OutputDir == "" {
		return "", ErrNoOutputDir
	}
	return filepath.Abs(filepath.Join(base, config.ExpandHome(cfg.OutputDir)))
}

// =============================================================================
// ARTIFACT STORE
// =============================================================================

// ArtifactStore handles the artifacts of one output directory.
type ArtifactStore struct {
	// Dir holds the artifacts and the index.
	Dir string

	// DateFormat is used to read creation dates from legacy exports.
	DateFormat string
}

// NewArtifactStore creates a store for dir. The directory is created on the
// first write.
func NewArtifactStore(dir, dateFormat string) (*ArtifactStore, error) {
	if dir == "" {
		return nil, ErrNoOutputDir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoOutputDir, err)
	}
	return &ArtifactStore{Dir: abs, DateFormat: dateFormat}, nil
}

// Prior is an existing artifact recognised as belonging to a session.
type Prior struct {
	Path   string
	Format export.Format
	Meta   export.ArtifactMeta
}

// Stem returns the file name without its extension.
func (p *Prior) Stem() string {
	return strings.TrimSuffix(filepath.Base(p.Path), filepath.Ext(p.Path))
}

// Find returns the existing artifact of a session in the given format, or nil.
//
// Candidates are files named "<short-id>_*", "<short-id>" or, for older
// exports, "*_<short-id>*". A candidate is accepted when its embedded session
// id matches; files without an embedded id are accepted on the
// "<short-id>_" prefix or a full id in the name.
func (s *ArtifactStore) Find(sessionID string, format export.Format) (*Prior, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	ext := export.New(format).FileExtension()
	short := model.ShortID(sessionID)

	var preferred, legacy []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ext) {
			continue
		}
		stem := strings.TrimSuffix(name, ext)
		switch {
		case stem == short || strings.HasPrefix(stem, short+"_"):
			preferred = append(preferred, name)
		case strings.Contains(stem, "_"+short):
			legacy = append(legacy, name)
		}
	}
	sort.Strings(preferred)
	sort.Strings(legacy)

	for _, name := range append(preferred, legacy...) {
		path := filepath.Join(s.Dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		meta, ok := export.ReadMeta(data, format, s.DateFormat)
		if !ok {
			meta = export.ArtifactMeta{}
		}
		if meta.SessionID != "" {
			if meta.SessionID != sessionID {
				continue
			}
		} else if !strings.HasPrefix(name, short+"_") && !strings.Contains(name, sessionID) {
			continue
		}
		return &Prior{Path: path, Format: format, Meta: meta}, nil
	}
	return nil, nil
}

// Exists reports whether any artifact of the session exists in one of the
// formats.
func (s *ArtifactStore) Exists(sessionID string, formats []export.Format) bool {
	for _, f := range formats {
		if p, err := s.Find(sessionID, f); err == nil && p != nil {
			return true
		}
	}
	return false
}

// =============================================================================
// PLANNING
// =============================================================================

// Plan is where one session's artifacts are written.
type Plan struct {
	Dir  string
	Stem string

	// Created and CreatedLabel carry over from a prior export, or hold the
	// session's first timestamp.
	Created      time.Time
	CreatedLabel string

	// Existing is set when a prior artifact was found.
	Existing bool

	paths map[export.Format]string
}

// Path returns the target file of a format.
func (p *Plan) Path(f export.Format) string {
	if path, ok := p.paths[f]; ok {
		return path
	}
	return filepath.Join(p.Dir, p.Stem+export.New(f).FileExtension())
}

// TranscriptPath returns where the raw transcript copy goes.
func (p *Plan) TranscriptPath() string {
	return filepath.Join(p.Dir, p.Stem+".jsonl")
}

// Plan decides the artifact paths and creation time of a session. Prior
// artifacts keep their file names; the first one found also supplies the
// stem for formats not exported before, and its creation time.
func (s *ArtifactStore) Plan(sess *model.Session, summaryText string, formats []export.Format) (*Plan, error) {
	plan := &Plan{
		Dir:     s.Dir,
		Created: sess.FirstTimestamp(),
		paths:   make(map[export.Format]string),
	}

	var first *Prior
	for _, f := range formats {
		prior, err := s.Find(sess.ID, f)
		if err != nil {
			return nil, err
		}
		if prior == nil {
			continue
		}
		plan.paths[f] = prior.Path
		if first == nil {
			first = prior
		}
	}

	if first != nil {
		plan.Existing = true
		plan.Stem = first.Stem()
		switch {
		case !first.Meta.Created.IsZero():
			plan.Created = first.Meta.Created
		case first.Meta.CreatedLabel != "":
			plan.Created = time.Time{}
			plan.CreatedLabel = first.Meta.CreatedLabel
		}
		return plan, nil
	}

	stem, err := s.freeStem(sess.ShortID()+"_"+summary.Slugify(summaryText), formats)
	if err != nil {
		return nil, err
	}
	plan.Stem = stem
	return plan, nil
}

// freeStem appends -2, -3, ... until no format's file exists.
func (s *ArtifactStore) freeStem(base string, formats []export.Format) (string, error) {
	taken := func(stem string) bool {
		for _, f := range formats {
			if _, err := os.Stat(filepath.Join(s.Dir, stem+export.New(f).FileExtension())); err == nil {
				return true
			}
		}
		return false
	}
	if !taken(base) {
		return base, nil
	}
	for n := 2; n <= maxCollisionSuffix; n++ {
		stem := fmt.Sprintf("%s-%d", base, n)
		if !taken(stem) {
			return stem, nil
		}
	}
	return "", fmt.Errorf("no free file name for %s in %s", base, s.Dir)
}

// =============================================================================
// WRITE OPERATIONS
// =============================================================================

// Write stores data at path atomically.
func (s *ArtifactStore) Write(path string, data []byte) error {
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return writeError(path, err)
	}
	return nil
}

// CopyTranscript copies the raw transcript next to the artifacts.
func (s *ArtifactStore) CopyTranscript(src, dst string) error {
	if src == "" {
		return nil
	}
	if err := util.AtomicCopyFile(src, dst, 0644); err != nil {
		return writeError(dst, err)
	}
	return nil
}
