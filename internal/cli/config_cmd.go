// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Inspect and create configuration files.

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/convexport/internal/config"
)

type configFlags struct {
	tool  string
	force bool
	toml  bool
}

func newConfigCmd(g *globalFlags) *cobra.Command {
	f := &configFlags{}
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show, locate, validate or create the configuration",
	}
	cmd.PersistentFlags().StringVar(&f.tool, "tool", config.Claude.Name, "Tool whose configuration to use: claude, codex or openclaw")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.profile()
			if err != nil {
				return err
			}
			a, err := newApp(cmd, p, g)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, a.cfg.String())
			return nil
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config file that is read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.profile()
			if err != nil {
				return err
			}
			target := g.configPath
			if target == "" {
				if target, err = config.ActivePath(p); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), target)
			return nil
		},
	}

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check the config file and exit non-zero when it cannot be used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.profile()
			if err != nil {
				return err
			}
			target := g.configPath
			if target == "" {
				if target, err = config.ActivePath(p); err != nil {
					return err
				}
			}
			if _, err := config.LoadFromPath(p, target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s OK\n", target)
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.profile()
			if err != nil {
				return err
			}
			target := g.configPath
			if target == "" {
				if f.toml {
					target, err = config.PathTOML(p)
				} else {
					target, err = config.PathJSON(p)
				}
				if err != nil {
					return err
				}
			}
			if _, err := os.Stat(target); err == nil && !f.force {
				return NewCommandError("config", "init", "file exists (use --force to overwrite)", nil)
			}

			cfg := config.Default(p)
			if strings.HasSuffix(strings.ToLower(target), ".toml") {
				err = config.SaveTOML(cfg, target)
			} else {
				err = config.SaveJSON(cfg, target)
			}
			if err != nil {
				return NewCommandError("config", "init", "could not write "+target, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", target)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&f.force, "force", false, "Overwrite an existing file")
	initCmd.Flags().BoolVar(&f.toml, "toml", false, "Write TOML instead of JSON")

	cmd.AddCommand(show, path, validate, initCmd)
	return cmd
}

func (f *configFlags) profile() (config.Profile, error) {
	p, err := config.LookupProfile(f.tool)
	if err != nil {
		return config.Profile{}, NewValidationErrorWithExample("--tool", f.tool, err.Error(), "--tool codex")
	}
	return p, nil
}
