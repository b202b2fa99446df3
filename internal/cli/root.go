// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// root.go - Command tree, shared flags and per-invocation state.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/convexport/internal/config"
	"github.com/jeranaias/convexport/internal/transcript"
	"github.com/jeranaias/convexport/internal/util"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	verbose    bool
}

// app is the state of one invocation of a tool command.
type app struct {
	profile config.Profile
	cfg     *config.Config
	log     *util.Logger
	source  transcript.Source

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// NewRootCmd builds the command tree. Output goes to the command's
// configured writers so tests can capture it.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "convexport",
		Short: "Export AI coding assistant transcripts to HTML and Markdown",
		Long: `convexport turns the JSONL session transcripts written by Claude Code,
Codex and OpenClaw into standalone HTML pages and Markdown documents.

Re-running an export updates the existing file in place: renamed files keep
their name as long as the session id prefix is kept, and the original
creation time is preserved.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "Config file (default: the tool's conversation-export-config)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug output on stderr")

	for _, p := range config.Profiles() {
		root.AddCommand(newToolCmd(p, g))
	}
	root.AddCommand(newConfigCmd(g))
	return root
}

// newToolCmd groups the commands of one host tool.
func newToolCmd(p config.Profile, g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   p.Name,
		Short: fmt.Sprintf("Export %s sessions", p.DisplayName),
	}
	cmd.AddCommand(
		newHookCmd(p, g),
		newExportCmd(p, g),
		newListCmd(p, g),
		newViewCmd(p, g),
	)
	return cmd
}

// newApp loads configuration for a tool command. A config file that cannot be
// used is reported as a warning; the defaults are used instead.
func newApp(cmd *cobra.Command, p config.Profile, g *globalFlags) (*app, error) {
	level := util.LevelInfo
	if g.verbose {
		level = util.LevelDebug
	}
	log := util.NewLogger(cmd.ErrOrStderr(), level)

	var (
		cfg *config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.LoadFromPath(p, config.ExpandHome(g.configPath))
	} else {
		cfg, err = config.Load(p)
	}
	if err != nil {
		if !errors.Is(err, config.ErrConfigParse) {
			return nil, err
		}
		log.Warnf("%v; using defaults", err)
	}

	src, err := transcript.ForTool(p.Name)
	if err != nil {
		return nil, err
	}
	log.Event("CONFIG_LOADED", "tool", p.Name, "theme", cfg.Theme, "output_dir", cfg.OutputDir)

	return &app{
		profile: p,
		cfg:     cfg,
		log:     log,
		source:  src,
		stdin:   cmd.InOrStdin(),
		stdout:  cmd.OutOrStdout(),
		stderr:  cmd.ErrOrStderr(),
	}, nil
}

// withConfig returns a copy of the app using cfg. The loaded config itself is
// never modified.
func (a *app) withConfig(cfg *config.Config) *app {
	clone := *a
	clone.cfg = cfg
	return &clone
}

// discover lists the tool's sessions under root, or its default root.
func (a *app) discover(root string) ([]transcript.SessionFile, error) {
	if root == "" {
		var err error
		if root, err = a.source.DefaultRoot(); err != nil {
			return nil, err
		}
	}
	root = config.ExpandHome(root)
	files, err := a.source.Discover(root)
	if err != nil {
		return nil, err
	}
	a.log.Event("SESSIONS_DISCOVERED", "tool", a.profile.Name, "root", root, "count", len(files))
	return files, nil
}

// =============================================================================
// EXECUTION
// =============================================================================

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	root := NewRootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var batch *BatchError
	if !errors.As(err, &batch) {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("["+errorLabel(err)+"]"), err)
	}
	if isUsageError(err) {
		return ExitUsageError
	}
	return GetExitCode(err)
}

// isUsageError reports cobra's own argument and flag errors.
func isUsageError(err error) bool {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return true
	}
	msg := err.Error()
	for _, prefix := range []string{"unknown command", "unknown flag", "unknown shorthand flag", "invalid argument", "flag needs an argument", "accepts "} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}
