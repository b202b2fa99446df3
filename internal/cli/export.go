// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// export.go - Batch and selected export.

package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/convexport/internal/config"
	"github.com/jeranaias/convexport/internal/export"
	"github.com/jeranaias/convexport/internal/pipeline"
	"github.com/jeranaias/convexport/internal/transcript"
)

// selectFlags choose sessions. They are shared by export, list and view.
type selectFlags struct {
	root    string
	since   string
	before  string
	agent   string
	project string
	session string
	latest  bool
}

func (f *selectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.root, "sessions-dir", "", "Directory to scan instead of the tool's default")
	cmd.Flags().StringVar(&f.since, "since", "", `Only sessions modified on or after a date (YYYY-MM-DD, "today", "yesterday")`)
	cmd.Flags().StringVar(&f.before, "before", "", "Only sessions modified before a date")
	cmd.Flags().StringVar(&f.session, "session", "", "Session id prefix, file name part, or transcript path")
	cmd.Flags().BoolVar(&f.latest, "latest", false, "Only the most recently modified session")
	cmd.Flags().StringVar(&f.agent, "agent", "", "Only sessions of this agent (exact name)")
	cmd.Flags().StringVar(&f.project, "project", "", "Only sessions of this project (exact directory name)")
}

// filter converts the flags relative to now.
func (f *selectFlags) filter(now time.Time) (transcript.Filter, error) {
	since, err := transcript.ParseDate(f.since, now)
	if err != nil {
		return transcript.Filter{}, NewValidationErrorWithExample("--since", f.since, err.Error(), "--since 2025-03-01")
	}
	before, err := transcript.ParseDate(f.before, now)
	if err != nil {
		return transcript.Filter{}, NewValidationErrorWithExample("--before", f.before, err.Error(), "--before 2025-04-01")
	}
	return transcript.Filter{
		Since:   since,
		Before:  before,
		Agent:   f.agent,
		Project: f.project,
		Session: f.session,
		Latest:  f.latest,
	}, nil
}

// selectFiles discovers and filters sessions. A --session given as an
// existing transcript path is used directly.
func (f *selectFlags) selectFiles(a *app) ([]transcript.SessionFile, error) {
	filter, err := f.filter(time.Now())
	if err != nil {
		return nil, err
	}

	if f.session != "" && filepath.Ext(f.session) == ".jsonl" {
		file, err := transcript.FileFromPath(a.profile.Name, config.ExpandHome(f.session), "", "")
		if err == nil {
			filter.Session = ""
			return filter.Apply([]transcript.SessionFile{file}), nil
		}
	}

	files, err := a.discover(f.root)
	if err != nil {
		return nil, err
	}
	selected := filter.Apply(files)
	if f.session != "" && len(selected) == 0 {
		return nil, ErrNotFound("session", f.session)
	}
	return selected, nil
}

// =============================================================================
// EXPORT COMMAND
// =============================================================================

type exportFlags struct {
	selectFlags
	output       string
	central      string
	format       string
	list         bool
	dryRun       bool
	skipExisting bool
}

func newExportCmd(p config.Profile, g *globalFlags) *cobra.Command {
	f := &exportFlags{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: fmt.Sprintf("Export %s sessions", p.DisplayName),
		Example: fmt.Sprintf(`  convexport %[1]s export --since today
  convexport %[1]s export --latest --format both
  convexport %[1]s export --session a1b2c3d4 --output ~/exports`, p.Name),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, p, g)
			if err != nil {
				return err
			}
			return runExport(cmd, a, f)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write every export into this directory")
	cmd.Flags().StringVar(&f.central, "central", "", "Central export location (one folder per project)")
	cmd.Flags().StringVar(&f.format, "format", "html", "Output format: html, md, both or json")
	cmd.Flags().BoolVar(&f.list, "list", false, "List matching sessions instead of exporting")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Show what would be written without writing")
	cmd.Flags().BoolVar(&f.skipExisting, "skip-existing", false, "Leave sessions that were exported before untouched")
	return cmd
}

func runExport(cmd *cobra.Command, a *app, f *exportFlags) error {
	formats, err := export.ParseFormats(f.format)
	if err != nil {
		return NewValidationErrorWithExample("--format", f.format, err.Error(), "--format both")
	}
	if f.central != "" {
		cfg := a.cfg.Clone()
		cfg.CentralExportLocation = f.central
		a = a.withConfig(cfg)
	}

	files, err := f.selectFiles(a)
	if err != nil {
		return err
	}
	if f.list {
		return writeSessionTable(a.stdout, a, files, f.output, formats)
	}

	runner := pipeline.NewRunner(a.source, a.cfg, pipeline.Options{
		Formats:      formats,
		Output:       f.output,
		DryRun:       f.dryRun,
		SkipExisting: f.skipExisting,
	}, a.log)
	report := runner.Run(cmd.Context(), files)

	printReport(a.stdout, report, f.dryRun)
	if report.Failed > 0 {
		return &BatchError{Failed: report.Failed}
	}
	return nil
}

// printReport writes one line per session and the closing summary.
func printReport(w io.Writer, report *pipeline.Report, dryRun bool) {
	for _, res := range report.Results {
		switch res.State {
		case pipeline.StateWritten:
			status := "exported"
			switch {
			case dryRun:
				status = "dry-run"
			case res.Updated:
				status = "updated"
			}
			for _, p := range res.Paths {
				fmt.Fprintf(w, "%s %s %s\n", statusTag(status), res.File.ShortID(), p)
			}
		case pipeline.StateSkipped:
			fmt.Fprintf(w, "%s %s %s\n", statusTag("skipped"), res.File.ShortID(), dimStyle.Render(res.Reason))
		case pipeline.StateFailed:
			fmt.Fprintf(w, "%s %s %s\n", statusTag("failed"), res.File.ShortID(), res.Reason)
		}
	}
	fmt.Fprintln(w, report.Line())
}
