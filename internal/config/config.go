// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	strftime "github.com/ncruces/go-strftime"

	"github.com/jeranaias/convexport/internal/util"
)

// ErrConfigParse marks a configuration file that could not be decoded or
// failed validation. The returned config is the built-in default.
var ErrConfigParse = errors.New("config parse error")

// Themes lists the theme identifiers accepted in the theme key.
var Themes = []string{
	"auto", "dark", "light",
	"solarized-dark", "solarized-light",
	"monokai", "github-dark", "github-light",
	"dracula", "nord",
}

// =============================================================================
// PROFILES
// =============================================================================

// Profile carries the per-tool defaults and file locations.
type Profile struct {
	Name        string // command name: claude, codex, openclaw
	DisplayName string // "Claude Code"
	HomeDir     string // directory under $HOME holding the tool's data

	AssistantName         string
	OutputDir             string
	CentralExportLocation string
	CopyTranscript        bool

	// ThemeStorageKey is the localStorage key remembering the reader's theme
	// choice in exported documents.
	ThemeStorageKey string
}

var (
	Claude = Profile{
		Name:            "claude",
		DisplayName:     "Claude Code",
		HomeDir:         ".claude",
		AssistantName:   "Claude",
		OutputDir:       "artifacts/conversations",
		CopyTranscript:  true,
		ThemeStorageKey: "claude-export-theme",
	}
	Codex = Profile{
		Name:            "codex",
		DisplayName:     "Codex",
		HomeDir:         ".codex",
		AssistantName:   "Codex",
		OutputDir:       "artifacts/conversations/codex",
		ThemeStorageKey: "codex-theme",
	}
	OpenClaw = Profile{
		Name:                  "openclaw",
		DisplayName:           "OpenClaw",
		HomeDir:               ".openclaw",
		AssistantName:         "OpenClaw",
		OutputDir:             "artifacts/conversations/openclaw",
		CentralExportLocation: "~/openclaw-export",
		ThemeStorageKey:       "openclaw-export-theme",
	}
)

// Profiles returns every known profile in display order.
func Profiles() []Profile {
	return []Profile{Claude, Codex, OpenClaw}
}

// LookupProfile returns the profile with the given command name.
func LookupProfile(name string) (Profile, error) {
	for _, p := range Profiles() {
		if p.Name == strings.ToLower(name) {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("unknown tool %q (want claude, codex or openclaw)", name)
}

// Root returns the tool's data directory (~/.claude etc).
func (p Profile) Root() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, p.HomeDir), nil
}

// =============================================================================
// CONFIG STRUCTURE
// =============================================================================

// Config holds every display and output option. It is loaded once per
// invocation and treated as read-only afterwards.
type Config struct {
	// Display names
	UserName       string `json:"user_name" toml:"user_name"`
	AssistantName  string `json:"assistant_name" toml:"assistant_name"`
	UserEmoji      string `json:"user_emoji" toml:"user_emoji"`
	AssistantEmoji string `json:"assistant_emoji" toml:"assistant_emoji"`

	// Theme
	Theme        string            `json:"theme" toml:"theme"`
	CustomColors map[string]string `json:"custom_colors,omitempty" toml:"custom_colors,omitempty"`

	// Typography (CSS values)
	FontSize      string `json:"font_size" toml:"font_size"`
	LineHeight    string `json:"line_height" toml:"line_height"`
	LetterSpacing string `json:"letter_spacing" toml:"letter_spacing"`
	MaxWidth      string `json:"max_width" toml:"max_width"`
	Padding       string `json:"padding" toml:"padding"`

	// Output
	CentralExportLocation string `json:"central_export_location" toml:"central_export_location"`
	OutputDir             string `json:"output_dir" toml:"output_dir"`
	CopyTranscript        bool   `json:"copy_transcript" toml:"copy_transcript"`
	WriteIndex            bool   `json:"write_index" toml:"write_index"`

	// Content
	TitleFormat     string `json:"title_format" toml:"title_format"`
	IncludeThinking bool   `json:"include_thinking" toml:"include_thinking"`
	GenerateSummary bool   `json:"generate_summary" toml:"generate_summary"`

	// Visibility toggles
	ShowSessionID   bool `json:"show_session_id" toml:"show_session_id"`
	ShowProjectPath bool `json:"show_project_path" toml:"show_project_path"`
	ShowTimestamp   bool `json:"show_timestamp" toml:"show_timestamp"`
	ShowSummary     bool `json:"show_summary" toml:"show_summary"`
	ShowStatistics  bool `json:"show_statistics" toml:"show_statistics"`

	// Truncation limits, in characters. Zero disables truncation.
	MaxToolResultLength int `json:"max_tool_result_length" toml:"max_tool_result_length"`
	MaxToolInputLength  int `json:"max_tool_input_length" toml:"max_tool_input_length"`

	// strftime formats for rendered timestamps
	DateFormat string `json:"date_format" toml:"date_format"`
	TimeFormat string `json:"time_format" toml:"time_format"`

	// Profile is the tool the config was loaded for.
	Profile Profile `json:"-" toml:"-"`
}

// Default returns the built-in configuration for a tool.
func Default(p Profile) *Config {
	return &Config{
		UserName:       "You",
		AssistantName:  p.AssistantName,
		UserEmoji:      "👤",
		AssistantEmoji: "🤖",

		Theme: "auto",

		FontSize:      "16px",
		LineHeight:    "1.75",
		LetterSpacing: "0.01em",
		MaxWidth:      "920px",
		Padding:       "24px",

		CentralExportLocation: p.CentralExportLocation,
		OutputDir:             p.OutputDir,
		CopyTranscript:        p.CopyTranscript,
		WriteIndex:            true,

		TitleFormat:     "{project_name} Conversations",
		IncludeThinking: false,
		GenerateSummary: true,

		ShowSessionID:   true,
		ShowProjectPath: true,
		ShowTimestamp:   true,
		ShowSummary:     true,
		ShowStatistics:  true,

		MaxToolResultLength: 1000,
		MaxToolInputLength:  500,

		DateFormat: "%Y-%m-%d %H:%M:%S",
		TimeFormat: "%H:%M:%S",

		Profile: p,
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

const configBaseName = "conversation-export-config"

// PathTOML returns the path to the tool's TOML config file.
func PathTOML(p Profile) (string, error) {
	root, err := p.Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, configBaseName+".toml"), nil
}

// PathJSON returns the path to the tool's JSON config file.
func PathJSON(p Profile) (string, error) {
	root, err := p.Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, configBaseName+".json"), nil
}

// ActivePath returns the config file Load would read: the TOML file when it
// exists, else the JSON path (existing or not).
func ActivePath(p Profile) (string, error) {
	tomlPath, err := PathTOML(p)
	if err != nil {
		return "", err
	}
	if _, statErr := os.Stat(tomlPath); statErr == nil {
		return tomlPath, nil
	}
	return PathJSON(p)
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads the tool's configuration. TOML is tried first, then JSON, then
// built-in defaults. Environment overrides are applied last.
//
// A file that fails to decode or validate yields the defaults and an error
// wrapping ErrConfigParse; the returned config is always usable.
func Load(p Profile) (*Config, error) {
	tomlPath, err := PathTOML(p)
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			return LoadFromPath(p, tomlPath)
		}
	}

	jsonPath, err := PathJSON(p)
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			return LoadFromPath(p, jsonPath)
		}
	}

	cfg := Default(p)
	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file. The format is chosen
// by extension (.toml, otherwise JSON). A missing file is not an error.
func LoadFromPath(p Profile, path string) (*Config, error) {
	cfg := Default(p)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg.ApplyEnvOverrides()
		return cfg, nil
	}

	var loadErr error
	if strings.HasSuffix(strings.ToLower(path), ".toml") {
		loadErr = LoadTOML(cfg, path)
	} else {
		loadErr = LoadJSON(cfg, path)
	}
	if loadErr == nil {
		cfg.SetDefaults()
		if err := cfg.Validate(); err != nil {
			loadErr = fmt.Errorf("%s: %w: %w", path, ErrConfigParse, err)
		}
	}

	if loadErr != nil {
		cfg = Default(p)
	}
	cfg.ApplyEnvOverrides()
	return cfg, loadErr
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep the
// values already in cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("%s: %w: %w", path, ErrConfigParse, err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg. Unknown keys, including "_comment"
// style keys, are ignored.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w: failed to read JSON file: %w", path, ErrConfigParse, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%s: %w: %w", path, ErrConfigParse, err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to the tool's JSON file.
func Save(cfg *Config) error {
	path, err := PathJSON(cfg.Profile)
	if err != nil {
		return err
	}
	return SaveJSON(cfg, path)
}

// SaveJSON writes the configuration as indented JSON.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	data = append(data, '\n')
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveTOML writes the configuration as TOML with a short header.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# convexport configuration for %s\n", cfg.Profile.DisplayName)
	fmt.Fprintln(&buf, "# Keys left out fall back to built-in defaults.")
	fmt.Fprintln(&buf)

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks values that would produce a broken document.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if !IsTheme(c.Theme) {
		errs = append(errs, ValidationError{
			Field:   "theme",
			Message: fmt.Sprintf("unknown theme '%s', must be one of: %s", c.Theme, strings.Join(Themes, ", ")),
		})
	}

	if c.MaxToolResultLength < 0 {
		errs = append(errs, ValidationError{Field: "max_tool_result_length", Message: "must not be negative"})
	}
	if c.MaxToolInputLength < 0 {
		errs = append(errs, ValidationError{Field: "max_tool_input_length", Message: "must not be negative"})
	}

	css := []struct{ field, value string }{
		{"font_size", c.FontSize},
		{"line_height", c.LineHeight},
		{"letter_spacing", c.LetterSpacing},
		{"max_width", c.MaxWidth},
		{"padding", c.Padding},
	}
	for _, key := range sortedKeys(c.CustomColors) {
		css = append(css, struct{ field, value string }{"custom_colors." + key, c.CustomColors[key]})
	}
	for _, v := range css {
		if strings.ContainsAny(v.value, ";{}<>\"") {
			errs = append(errs, ValidationError{Field: v.field, Message: fmt.Sprintf("invalid CSS value '%s'", v.value)})
		}
	}

	if !strings.Contains(c.DateFormat, "%") {
		errs = append(errs, ValidationError{Field: "date_format", Message: "must contain at least one % directive"})
	}
	if !strings.Contains(c.TimeFormat, "%") {
		errs = append(errs, ValidationError{Field: "time_format", Message: "must contain at least one % directive"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsTheme reports whether name is a known theme identifier.
func IsTheme(name string) bool {
	for _, t := range Themes {
		if t == name {
			return true
		}
	}
	return false
}

// SetDefaults fills empty string fields with their defaults. Booleans and
// numbers are left alone since their zero values are meaningful.
func (c *Config) SetDefaults() {
	defaults := Default(c.Profile)

	fill := func(dst *string, def string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = def
		}
	}
	fill(&c.UserName, defaults.UserName)
	fill(&c.AssistantName, defaults.AssistantName)
	fill(&c.Theme, defaults.Theme)
	fill(&c.FontSize, defaults.FontSize)
	fill(&c.LineHeight, defaults.LineHeight)
	fill(&c.LetterSpacing, defaults.LetterSpacing)
	fill(&c.MaxWidth, defaults.MaxWidth)
	fill(&c.Padding, defaults.Padding)
	fill(&c.OutputDir, defaults.OutputDir)
	fill(&c.TitleFormat, defaults.TitleFormat)
	fill(&c.DateFormat, defaults.DateFormat)
	fill(&c.TimeFormat, defaults.TimeFormat)

	c.Theme = strings.ToLower(strings.TrimSpace(c.Theme))
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - CONVEXPORT_THEME: overrides theme (ignored when unknown)
//   - CONVEXPORT_CENTRAL: overrides central_export_location
//   - CONVEXPORT_OUTPUT_DIR: overrides output_dir
//   - CONVEXPORT_INCLUDE_THINKING: "1" or "true" enables include_thinking
func (c *Config) ApplyEnvOverrides() {
	if theme := strings.ToLower(os.Getenv("CONVEXPORT_THEME")); theme != "" && IsTheme(theme) {
		c.Theme = theme
	}
	if central := os.Getenv("CONVEXPORT_CENTRAL"); central != "" {
		c.CentralExportLocation = central
	}
	if dir := os.Getenv("CONVEXPORT_OUTPUT_DIR"); dir != "" {
		c.OutputDir = dir
	}
	if v := os.Getenv("CONVEXPORT_INCLUDE_THINKING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.IncludeThinking = b
		}
	}
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// Title expands title_format's {project_name} and {summary} placeholders.
func (c *Config) Title(project, summary string) string {
	if project == "" {
		project = c.Profile.DisplayName
	}
	r := strings.NewReplacer("{project_name}", project, "{summary}", summary)
	return strings.TrimSpace(r.Replace(c.TitleFormat))
}

// FormatDate renders t with date_format. Zero times render as "-".
func (c *Config) FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return strftime.Format(c.DateFormat, t)
}

// FormatTime renders t with time_format. Zero times render as "".
func (c *Config) FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strftime.Format(c.TimeFormat, t)
}

// CentralDir returns the expanded central export location, or "".
func (c *Config) CentralDir() string {
	if strings.TrimSpace(c.CentralExportLocation) == "" {
		return ""
	}
	return ExpandHome(c.CentralExportLocation)
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.CustomColors != nil {
		clone.CustomColors = make(map[string]string, len(c.CustomColors))
		for k, v := range c.CustomColors {
			clone.CustomColors[k] = v
		}
	}
	return &clone
}

// String returns the config as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
