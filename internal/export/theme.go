// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

// =============================================================================
// PALETTES
// =============================================================================

// Palette is the set of CSS custom properties a theme defines.
type Palette struct {
	BgColor     string
	CardBg      string
	UserBg      string
	AssistantBg string
	TextColor   string
	TextMuted   string
	Accent      string
	AccentSoft  string
	BorderColor string
	CodeBg      string
	ToolBg      string

	// CodeStyle is the chroma style used for fenced code.
	CodeStyle string
}

// vars returns the palette as ordered (property, value) pairs.
func (p Palette) vars() [][2]string {
	return [][2]string{
		{"--bg-color", p.BgColor},
		{"--card-bg", p.CardBg},
		{"--user-bg", p.UserBg},
		{"--assistant-bg", p.AssistantBg},
		{"--text-color", p.TextColor},
		{"--text-muted", p.TextMuted},
		{"--accent", p.Accent},
		{"--accent-soft", p.AccentSoft},
		{"--border-color", p.BorderColor},
		{"--code-bg", p.CodeBg},
		{"--tool-bg", p.ToolBg},
	}
}

var palettes = map[string]Palette{
	"dark": {
		BgColor: "#1e1e2e", CardBg: "#1a1a2e", UserBg: "#1a365d", AssistantBg: "#1e1e2e",
		TextColor: "#f0f0f0", TextMuted: "#b8b8c8", Accent: "#f06292", AccentSoft: "#7c6bba",
		BorderColor: "#3a3a5a", CodeBg: "#141422", ToolBg: "#1a2535",
		CodeStyle: "onedark",
	},
	"light": {
		BgColor: "#fafafa", CardBg: "#ffffff", UserBg: "#e8f4fc", AssistantBg: "#ffffff",
		TextColor: "#2d2d2d", TextMuted: "#5a5a6a", Accent: "#2563eb", AccentSoft: "#7c3aed",
		BorderColor: "#e2e2e8", CodeBg: "#f4f4f8", ToolBg: "#f8f8fc",
		CodeStyle: "github",
	},
	"solarized-dark": {
		BgColor: "#002b36", CardBg: "#073642", UserBg: "#094552", AssistantBg: "#073642",
		TextColor: "#839496", TextMuted: "#657b83", Accent: "#cb4b16", AccentSoft: "#6c71c4",
		BorderColor: "#586e75", CodeBg: "#002b36", ToolBg: "#073642",
		CodeStyle: "solarized-dark",
	},
	"solarized-light": {
		BgColor: "#fdf6e3", CardBg: "#eee8d5", UserBg: "#e4ddc8", AssistantBg: "#eee8d5",
		TextColor: "#657b83", TextMuted: "#93a1a1", Accent: "#cb4b16", AccentSoft: "#6c71c4",
		BorderColor: "#93a1a1", CodeBg: "#fdf6e3", ToolBg: "#eee8d5",
		CodeStyle: "solarized-light",
	},
	"monokai": {
		BgColor: "#272822", CardBg: "#3e3d32", UserBg: "#49483e", AssistantBg: "#3e3d32",
		TextColor: "#f8f8f2", TextMuted: "#75715e", Accent: "#f92672", AccentSoft: "#ae81ff",
		BorderColor: "#49483e", CodeBg: "#272822", ToolBg: "#3e3d32",
		CodeStyle: "monokai",
	},
	"github-dark": {
		BgColor: "#0d1117", CardBg: "#161b22", UserBg: "#21262d", AssistantBg: "#161b22",
		TextColor: "#c9d1d9", TextMuted: "#8b949e", Accent: "#58a6ff", AccentSoft: "#bc8cff",
		BorderColor: "#30363d", CodeBg: "#0d1117", ToolBg: "#161b22",
		CodeStyle: "github-dark",
	},
	"github-light": {
		BgColor: "#ffffff", CardBg: "#f6f8fa", UserBg: "#ddf4ff", AssistantBg: "#f6f8fa",
		TextColor: "#24292f", TextMuted: "#57606a", Accent: "#0969da", AccentSoft: "#8250df",
		BorderColor: "#d0d7de", CodeBg: "#f6f8fa", ToolBg: "#f6f8fa",
		CodeStyle: "github",
	},
	"dracula": {
		BgColor: "#282a36", CardBg: "#44475a", UserBg: "#4d5066", AssistantBg: "#44475a",
		TextColor: "#f8f8f2", TextMuted: "#6272a4", Accent: "#ff79c6", AccentSoft: "#bd93f9",
		BorderColor: "#6272a4", CodeBg: "#282a36", ToolBg: "#44475a",
		CodeStyle: "dracula",
	},
	"nord": {
		BgColor: "#2e3440", CardBg: "#3b4252", UserBg: "#434c5e", AssistantBg: "#3b4252",
		TextColor: "#eceff4", TextMuted: "#d8dee9", Accent: "#88c0d0", AccentSoft: "#b48ead",
		BorderColor: "#4c566a", CodeBg: "#2e3440", ToolBg: "#3b4252",
		CodeStyle: "nord",
	},
}

// LookupPalette returns the palette for a theme name, falling back to dark.
// "auto" has no palette of its own.
func LookupPalette(theme string) Palette {
	if p, ok := palettes[theme]; ok {
		return p
	}
	return palettes["dark"]
}

// colorAliases are accepted custom_colors names that set the same variable
// as a canonical name. The canonical name wins when both are given.
var colorAliases = map[string]bool{
	"--claude-bg": true,
}

// withCustom applies custom_colors overrides. Keys may be written as
// "bg_color", "bg-color" or "--bg-color"; unknown keys are ignored. Keys are
// applied in sorted order, aliases first, so the result does not depend on
// map iteration.
func (p Palette) withCustom(custom map[string]string) Palette {
	if len(custom) == 0 {
		return p
	}
	fields := map[string]*string{
		"--bg-color":     &p.BgColor,
		"--card-bg":      &p.CardBg,
		"--user-bg":      &p.UserBg,
		"--assistant-bg": &p.AssistantBg,
		"--claude-bg":    &p.AssistantBg,
		"--text-color":   &p.TextColor,
		"--text-muted":   &p.TextMuted,
		"--accent":       &p.Accent,
		"--accent-soft":  &p.AccentSoft,
		"--border-color": &p.BorderColor,
		"--code-bg":      &p.CodeBg,
		"--tool-bg":      &p.ToolBg,
	}
	keys := slices.Sorted(maps.Keys(custom))
	for _, aliases := range []bool{true, false} {
		for _, key := range keys {
			name := "--" + strings.ReplaceAll(strings.TrimPrefix(strings.ToLower(key), "--"), "_", "-")
			if colorAliases[name] != aliases {
				continue
			}
			if dst, ok := fields[name]; ok && custom[key] != "" {
				*dst = custom[key]
			}
		}
	}
	return p
}

// =============================================================================
// THEME CSS
// =============================================================================

func writeVars(sb *strings.Builder, selector string, p Palette) {
	sb.WriteString(selector + " {\n")
	for _, kv := range p.vars() {
		fmt.Fprintf(sb, "    %s: %s;\n", kv[0], kv[1])
	}
	sb.WriteString("}\n")
}

// themeCSS returns the custom property and code highlighting rules for a
// theme. The auto theme follows the reader's colour scheme unless the root
// element carries data-theme="light" or "dark", which the toggle sets.
func themeCSS(theme string, custom map[string]string) string {
	var sb strings.Builder
	if theme != "auto" {
		p := LookupPalette(theme).withCustom(custom)
		writeVars(&sb, ":root", p)
		sb.WriteString(codeCSS(p.CodeStyle, ""))
		return sb.String()
	}

	light := palettes["light"].withCustom(custom)
	dark := palettes["dark"].withCustom(custom)

	writeVars(&sb, ":root", light)
	sb.WriteString("@media (prefers-color-scheme: dark) {\n")
	writeVars(&sb, ":root:not([data-theme=\"light\"])", dark)
	sb.WriteString(codeCSS(dark.CodeStyle, ":root:not([data-theme=\"light\"])"))
	sb.WriteString("}\n")
	writeVars(&sb, ":root[data-theme=\"dark\"]", dark)

	sb.WriteString(codeCSS(light.CodeStyle, ""))
	sb.WriteString(codeCSS(dark.CodeStyle, ":root[data-theme=\"dark\"]"))
	return sb.String()
}

var chromaSelectorRe = regexp.MustCompile(`(?m)(^|\*/ )(\.chroma|\.bg)\b`)

// codeCSS returns chroma's class rules for a style, each selector prefixed
// with scope when one is given.
func codeCSS(style, scope string) string {
	var sb strings.Builder
	if err := codeFormatter.WriteCSS(&sb, codeStyle(style)); err != nil {
		return ""
	}
	css := sb.String()
	if scope != "" {
		css = chromaSelectorRe.ReplaceAllString(css, "${1}"+scope+" ${2}")
	}
	return css
}

func codeStyle(name string) *chroma.Style {
	if s := styles.Get(name); s != nil {
		return s
	}
	return styles.Fallback
}

// codeFormatter renders highlighted code with CSS classes, so one document
// can carry the rules of several styles.
var codeFormatter = chromahtml.New(chromahtml.WithClasses(true), chromahtml.TabWidth(4))
