// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// view.go - Render a session in the terminal.

package cli

import (
	"bytes"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/jeranaias/convexport/internal/config"
	"github.com/jeranaias/convexport/internal/export"
	"github.com/jeranaias/convexport/internal/summary"
	"github.com/jeranaias/convexport/internal/transcript"
)

type viewFlags struct {
	selectFlags
	raw bool
}

func newViewCmd(p config.Profile, g *globalFlags) *cobra.Command {
	f := &viewFlags{}
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show a session as formatted Markdown in the terminal",
		Example: fmt.Sprintf(`  convexport %[1]s view --latest
  convexport %[1]s view --session a1b2c3d4 --raw > session.md`, p.Name),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, p, g)
			if err != nil {
				return err
			}
			return runView(cmd, a, f)
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&f.raw, "raw", false, "Print the Markdown source instead of rendering it")
	return cmd
}

func runView(cmd *cobra.Command, a *app, f *viewFlags) error {
	if f.session == "" {
		f.latest = true
	}
	files, err := f.selectFiles(a)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return ErrNotFound("session", "matching the filters")
	}
	file := files[0]

	sess, err := a.source.Parse(cmd.Context(), file, transcript.Options{
		MaxToolInput:    a.cfg.MaxToolInputLength,
		MaxToolResult:   a.cfg.MaxToolResultLength,
		IncludeThinking: a.cfg.IncludeThinking,
		Logger:          a.log,
	})
	if err != nil {
		return err
	}

	doc := export.NewDocument(sess, summary.Generate(sess, sess.ProjectName()), a.cfg)
	md, err := export.NewMarkdownExporter().Export(doc)
	if err != nil {
		return err
	}
	md = stripFrontMatter(md)

	if f.raw {
		_, err = a.stdout.Write(md)
		return err
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(glamourStyle()),
		glamour.WithWordWrap(terminalWidth(a.stdout)-4),
	)
	if err != nil {
		return NewCommandError("view", "render", "terminal renderer unavailable", err)
	}
	out, err := r.Render(string(md))
	if err != nil {
		return NewCommandError("view", "render", "could not render session", err)
	}
	_, err = fmt.Fprint(a.stdout, out)
	return err
}

// stripFrontMatter drops the YAML header of a Markdown export.
func stripFrontMatter(md []byte) []byte {
	if !bytes.HasPrefix(md, []byte("---\n")) {
		return md
	}
	if end := bytes.Index(md[4:], []byte("\n---\n")); end >= 0 {
		return bytes.TrimLeft(md[4+end+5:], "\n")
	}
	return md
}
