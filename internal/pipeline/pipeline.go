// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pipeline drives sessions from discovery to written artifacts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/jeranaias/convexport/internal/config"
	"github.com/jeranaias/convexport/internal/export"
	"github.com/jeranaias/convexport/internal/model"
	"github.com/jeranaias/convexport/internal/storage"
	"github.com/jeranaias/convexport/internal/summary"
	"github.com/jeranaias/convexport/internal/transcript"
	"github.com/jeranaias/convexport/internal/util"
)

// =============================================================================
// STATES
// =============================================================================

// State is where a session stopped in the export pipeline.
type State int

const (
	StateDiscovered State = iota
	StateParsed
	StateRendered
	StateWritten
	StateSkipped
	StateFailed
)

var stateNames = [...]string{"discovered", "parsed", "rendered", "written", "skipped", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Result is the outcome of one session.
type Result struct {
	File    transcript.SessionFile
	State   State
	Summary string

	// Reason explains a skip or failure.
	Reason string
	Err    error

	// Paths lists the artifacts written, or that would be written in a dry run.
	Paths []string

	// Updated is set when a prior export was overwritten.
	Updated bool
}

// Report collects the results of a run.
type Report struct {
	Results  []Result
	Exported int
	Skipped  int
	Failed   int

	// IndexErrors holds index files that could not be rewritten.
	IndexErrors []error
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	switch res.State {
	case StateWritten:
		r.Exported++
	case StateSkipped:
		r.Skipped++
	case StateFailed:
		r.Failed++
	}
}

// Line is the closing summary of a run.
func (r *Report) Line() string {
	return fmt.Sprintf("Complete: %d exported, %d skipped, %d failed", r.Exported, r.Skipped, r.Failed)
}

// =============================================================================
// RUNNER
// =============================================================================

// Options control one run.
type Options struct {
	Formats []export.Format

	// Output overrides the resolved output directory.
	Output string

	// DryRun resolves paths and renders without writing anything. Sessions
	// that would be written count as exported.
	DryRun bool

	// SkipExisting leaves sessions with a prior artifact untouched.
	SkipExisting bool
}

// Runner exports sessions of one source one at a time.
type Runner struct {
	Source  transcript.Source
	Config  *config.Config
	Options Options
	Logger  *util.Logger
}

// NewRunner creates a runner. A nil logger discards output.
func NewRunner(src transcript.Source, cfg *config.Config, opts Options, log *util.Logger) *Runner {
	if len(opts.Formats) == 0 {
		opts.Formats = []export.Format{export.FormatHTML}
	}
	if log == nil {
		log = util.Discard()
	}
	return &Runner{Source: src, Config: cfg, Options: opts, Logger: log}
}

// Run exports every file in order. A failing session never stops the batch.
// Index files are rewritten once per output directory at the end.
func (r *Runner) Run(ctx context.Context, files []transcript.SessionFile) *Report {
	report := &Report{}
	stores := make(map[string]*storage.ArtifactStore)
	entries := make(map[string][]storage.IndexEntry)

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			report.add(Result{File: file, State: StateFailed, Reason: "cancelled", Err: err})
			continue
		}
		res, entry, store := r.export(ctx, file, stores)
		report.add(res)
		r.logResult(res)
		if entry != nil {
			entries[store.Dir] = append(entries[store.Dir], *entry)
		}
	}

	if r.Config.WriteIndex && !r.Options.DryRun {
		dirs := make([]string, 0, len(entries))
		for dir := range entries {
			dirs = append(dirs, dir)
		}
		sort.Strings(dirs)
		for _, dir := range dirs {
			if err := stores[dir].UpdateIndex(entries[dir]...); err != nil {
				r.Logger.Warnf("could not update index in %s: %v", dir, err)
				report.IndexErrors = append(report.IndexErrors, err)
				continue
			}
			r.Logger.Infof("Index updated: %s", filepath.Join(dir, storage.IndexFileName))
		}
	}

	r.Logger.Event("EXPORT_COMPLETE", "exported", report.Exported, "skipped", report.Skipped, "failed", report.Failed)
	return report
}

// ExportOne exports a single file, updating its directory's index. The
// error is the cause of a failed export; the report is returned either way.
func (r *Runner) ExportOne(ctx context.Context, file transcript.SessionFile) (*Report, error) {
	report := r.Run(ctx, []transcript.SessionFile{file})
	if res := report.Results[0]; res.State == StateFailed {
		return report, res.Err
	}
	return report, nil
}

func (r *Runner) export(ctx context.Context, file transcript.SessionFile, stores map[string]*storage.ArtifactStore) (Result, *storage.IndexEntry, *storage.ArtifactStore) {
	res := Result{File: file, State: StateDiscovered}
	cfg := r.Config

	// Discovered -> Parsed
	sess, err := r.Source.Parse(ctx, file, transcript.Options{
		MaxToolInput:    cfg.MaxToolInputLength,
		MaxToolResult:   cfg.MaxToolResultLength,
		IncludeThinking: cfg.IncludeThinking,
		Logger:          r.Logger,
	})
	if err != nil {
		return fail(res, "parse", err), nil, nil
	}
	if sess.ID == "" {
		return fail(res, "parse", errors.New("transcript has no session id")), nil, nil
	}
	res.State = StateParsed
	res.File.ID = sess.ID

	if !sess.HasConversation() {
		res.State, res.Reason = StateSkipped, "no conversation"
		return res, nil, nil
	}

	project := sess.ProjectName()
	summaryText := ""
	if cfg.GenerateSummary {
		summaryText = summary.Generate(sess, project)
	}
	res.Summary = summaryText

	dir, err := storage.OutputDir(cfg, r.Options.Output, sess)
	if err != nil {
		return fail(res, "output directory", err), nil, nil
	}
	store, ok := stores[dir]
	if !ok {
		if store, err = storage.NewArtifactStore(dir, cfg.DateFormat); err != nil {
			return fail(res, "output directory", err), nil, nil
		}
		stores[dir] = store
	}

	plan, err := store.Plan(sess, slugSource(summaryText, project), r.Options.Formats)
	if err != nil {
		return fail(res, "locate artifact", err), nil, nil
	}
	res.Updated = plan.Existing
	if plan.Existing && r.Options.SkipExisting {
		res.State, res.Reason = StateSkipped, "already exported"
		res.Paths = []string{plan.Path(r.Options.Formats[0])}
		return res, nil, nil
	}

	// Parsed -> Rendered
	doc := export.NewDocument(sess, summaryText, cfg)
	doc.Created, doc.CreatedLabel = plan.Created, plan.CreatedLabel

	rendered := make([][]byte, len(r.Options.Formats))
	for i, f := range r.Options.Formats {
		data, err := export.New(f).Export(doc)
		if err != nil {
			if !errors.Is(err, export.ErrRender) || data == nil {
				return fail(res, "render "+string(f), err), nil, nil
			}
			r.Logger.Warnf("%s: %v", file.ShortID(), err)
		}
		rendered[i] = data
		res.Paths = append(res.Paths, plan.Path(f))
	}
	res.State = StateRendered

	if r.Options.DryRun {
		res.State = StateWritten
		return res, nil, nil
	}

	// Rendered -> Written
	for i, f := range r.Options.Formats {
		if err := store.Write(plan.Path(f), rendered[i]); err != nil {
			return fail(res, "write", err), nil, nil
		}
	}
	if cfg.CopyTranscript {
		if err := store.CopyTranscript(sess.TranscriptPath, plan.TranscriptPath()); err != nil {
			return fail(res, "copy transcript", err), nil, nil
		}
	}
	res.State = StateWritten

	entry := &storage.IndexEntry{
		SessionID: sess.ID,
		Project:   project,
		Summary:   summaryText,
		Created:   plan.Created,
		Updated:   lastUpdate(sess),
		File:      filepath.Base(plan.Path(r.Options.Formats[0])),
	}
	return res, entry, store
}

func (r *Runner) logResult(res Result) {
	switch res.State {
	case StateWritten:
		r.Logger.Event("EXPORT_WRITTEN", "session", res.File.ShortID(), "paths", len(res.Paths), "updated", res.Updated, "dry_run", r.Options.DryRun)
	case StateSkipped:
		r.Logger.Event("EXPORT_SKIPPED", "session", res.File.ShortID(), "reason", res.Reason)
	case StateFailed:
		r.Logger.Errorf("%s: %s", res.File.Path, res.Reason)
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func fail(res Result, stage string, err error) Result {
	res.State = StateFailed
	res.Err = err
	res.Reason = fmt.Sprintf("%s: %v", stage, err)
	return res
}

// slugSource is the text new file names are derived from.
func slugSource(summaryText, project string) string {
	if summaryText != "" {
		return summaryText
	}
	if project != "" {
		return project
	}
	return "session"
}

func lastUpdate(sess *model.Session) time.Time {
	if t := sess.LastTimestamp(); !t.IsZero() {
		return t
	}
	return sess.ModTime
}
