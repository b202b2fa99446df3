// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// list.go - Table of discovered sessions.

package cli

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/jeranaias/convexport/internal/config"
	"github.com/jeranaias/convexport/internal/export"
	"github.com/jeranaias/convexport/internal/model"
	"github.com/jeranaias/convexport/internal/storage"
	"github.com/jeranaias/convexport/internal/transcript"
	"github.com/jeranaias/convexport/internal/util"
)

type listFlags struct {
	selectFlags
	output string
}

func newListCmd(p config.Profile, g *globalFlags) *cobra.Command {
	f := &listFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s sessions and whether they were exported", p.DisplayName),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, p, g)
			if err != nil {
				return err
			}
			files, err := f.selectFiles(a)
			if err != nil {
				return err
			}
			return writeSessionTable(a.stdout, a, files, f.output, []export.Format{export.FormatHTML, export.FormatMarkdown})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Check for exports in this directory")
	return cmd
}

// =============================================================================
// TABLE RENDERING
// =============================================================================

const projectColumnWidth = 28

// writeSessionTable prints one row per session: id, project, modification
// time, size and whether an export exists.
func writeSessionTable(w io.Writer, a *app, files []transcript.SessionFile, output string, formats []export.Format) error {
	if len(files) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}

	header := fmt.Sprintf("%s  %s  %s  %s  %s",
		runewidth.FillRight("ID", model.ShortIDLength),
		runewidth.FillRight("PROJECT", projectColumnWidth),
		runewidth.FillRight("MODIFIED", 16),
		runewidth.FillLeft("SIZE", 8),
		"EXPORTED")
	fmt.Fprintln(w, headerStyle.Render(header))
	fmt.Fprintln(w, rule(runewidth.StringWidth(header)))

	stores := make(map[string]*storage.ArtifactStore)
	for _, f := range files {
		exported := "-"
		if store := storeFor(a, f, output, stores); store != nil && store.Exists(f.ID, formats) {
			exported = "yes"
		}
		fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
			runewidth.FillRight(f.ShortID(), model.ShortIDLength),
			runewidth.FillRight(util.TruncateWidth(f.Project, projectColumnWidth), projectColumnWidth),
			runewidth.FillRight(util.FormatAge(f.ModTime), 16),
			runewidth.FillLeft(util.FormatBytes(f.Size), 8),
			exported)
	}
	fmt.Fprintf(w, "\n%s\n", dimStyle.Render(humanize.Comma(int64(len(files)))+" "+pluralize(len(files), "session", "sessions")))
	return nil
}

// storeFor opens the artifact store a session would be exported to.
func storeFor(a *app, f transcript.SessionFile, output string, stores map[string]*storage.ArtifactStore) *storage.ArtifactStore {
	sess := &model.Session{ID: f.ID, Source: f.Source, Project: f.Project, CWD: f.CWD}
	dir, err := storage.OutputDir(a.cfg, output, sess)
	if err != nil {
		return nil
	}
	if s, ok := stores[dir]; ok {
		return s
	}
	s, err := storage.NewArtifactStore(dir, a.cfg.DateFormat)
	if err != nil {
		return nil
	}
	stores[dir] = s
	return s
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
