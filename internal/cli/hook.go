// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// hook.go - Export triggered by the host tool at session end.

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/convexport/internal/config"
	"github.com/jeranaias/convexport/internal/export"
	"github.com/jeranaias/convexport/internal/pipeline"
	"github.com/jeranaias/convexport/internal/transcript"
)

// HookPayload is the JSON object host tools pass on stdin.
type HookPayload struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	CWD            string `json:"cwd"`
	HookEventName  string `json:"hook_event_name"`
	Reason         string `json:"reason"`
}

// ReadHookPayload decodes a payload. Empty input yields an empty payload.
func ReadHookPayload(r io.Reader) (HookPayload, error) {
	var p HookPayload
	data, err := io.ReadAll(r)
	if err != nil {
		return p, fmt.Errorf("read hook payload: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return p, nil
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, NewValidationErrorWithExample("hook payload", "", err.Error(),
			`{"session_id": "...", "transcript_path": "/path/to/session.jsonl", "cwd": "/path/to/project"}`)
	}
	return p, nil
}

type hookFlags struct {
	payload HookPayload
	output  string
	format  string
}

func newHookCmd(p config.Profile, g *globalFlags) *cobra.Command {
	f := &hookFlags{}
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Export the session described by a hook payload on stdin",
		Long: fmt.Sprintf(`Reads the payload %s sends to session-end hooks from stdin and exports
that one session. When stdin is a terminal the payload fields are taken from
flags instead.`, p.DisplayName),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, p, g)
			if err != nil {
				return err
			}
			return runHook(cmd, a, f)
		},
	}
	cmd.Flags().StringVar(&f.payload.SessionID, "session-id", "", "Session id (when stdin is a terminal)")
	cmd.Flags().StringVar(&f.payload.TranscriptPath, "transcript", "", "Transcript path (when stdin is a terminal)")
	cmd.Flags().StringVar(&f.payload.CWD, "cwd", "", "Project directory (when stdin is a terminal)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write the export into this directory")
	cmd.Flags().StringVar(&f.format, "format", "html", "Output format: html, md, both or json")
	return cmd
}

func runHook(cmd *cobra.Command, a *app, f *hookFlags) error {
	formats, err := export.ParseFormats(f.format)
	if err != nil {
		return NewValidationErrorWithExample("--format", f.format, err.Error(), "--format both")
	}

	payload := f.payload
	if !isTerminal(a.stdin) {
		piped, err := ReadHookPayload(a.stdin)
		if err != nil {
			return err
		}
		payload = mergePayload(piped, payload)
	}
	if payload.TranscriptPath == "" {
		return NewValidationErrorWithExample("hook payload", "", "transcript_path is required",
			fmt.Sprintf("convexport %s hook --transcript ~/.claude/projects/.../session.jsonl", a.profile.Name))
	}
	a.log.Event("HOOK_RECEIVED", "event", payload.HookEventName, "reason", payload.Reason, "session", payload.SessionID)

	file, err := transcript.FileFromPath(a.profile.Name, config.ExpandHome(payload.TranscriptPath), payload.SessionID, payload.CWD)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(a.source, a.cfg, pipeline.Options{Formats: formats, Output: f.output}, a.log)
	report, err := runner.ExportOne(cmd.Context(), file)
	printReport(a.stdout, report, false)
	if err != nil {
		return &BatchError{Failed: report.Failed}
	}
	return nil
}

// mergePayload fills fields missing from the piped payload with flag values.
func mergePayload(piped, flags HookPayload) HookPayload {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&piped.SessionID, flags.SessionID)
	fill(&piped.TranscriptPath, flags.TranscriptPath)
	fill(&piped.CWD, flags.CWD)
	return piped
}
