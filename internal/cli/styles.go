// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Report and table styling.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func init() {
	lipgloss.SetColorProfile(colorProfile())
}

// =============================================================================
// STYLES
// =============================================================================

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	ruleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	// statusStyles colour the tag that opens each report line, keyed by the
	// session outcome.
	statusStyles = map[string]lipgloss.Style{
		"exported": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		"updated":  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36")),
		"dry-run":  lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		"skipped":  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		"failed":   errorStyle,
	}
)

// statusTag renders "[EXPORTED]", "[SKIPPED]" and the like.
func statusTag(status string) string {
	status = strings.ToLower(status)
	style, ok := statusStyles[status]
	if !ok {
		style = dimStyle
	}
	return style.Render("[" + strings.ToUpper(status) + "]")
}

// rule draws the line under a table header.
func rule(width int) string {
	if width <= 0 {
		width = defaultWidth
	}
	return ruleStyle.Render(strings.Repeat("-", width))
}
