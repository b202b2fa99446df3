// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"html"
	"regexp"
	"strings"
	"time"

	strftime "github.com/ncruces/go-strftime"
)

// =============================================================================
// ARTIFACT METADATA
// =============================================================================

// ArtifactMeta is what a previous export records about its session.
type ArtifactMeta struct {
	SessionID string
	Summary   string

	// Created is the parsed creation time. CreatedLabel keeps the text of a
	// creation date that could not be parsed.
	Created      time.Time
	CreatedLabel string
}

var (
	metaTagRe = regexp.MustCompile(`<meta name="(convexport:[a-z-]+)" content="([^"]*)">`)

	// Exports written before the meta tags existed only carry the header.
	legacyCreatedRe   = regexp.MustCompile(`<strong>Created(?: \(UTC\))?:</strong>\s*([^<]+)`)
	legacySessionIDRe = regexp.MustCompile(`<strong>Session ID:</strong>\s*<code>([^<]+)</code>`)
)

// ReadMeta extracts the metadata of an export in the given format.
// dateFormat is the strftime format used to parse legacy creation dates.
func ReadMeta(data []byte, format Format, dateFormat string) (ArtifactMeta, bool) {
	switch format {
	case FormatMarkdown:
		fm, ok := ParseFrontMatter(data)
		if !ok {
			return ArtifactMeta{}, false
		}
		m := ArtifactMeta{SessionID: fm.SessionID, Summary: fm.Summary, CreatedLabel: fm.CreatedLabel}
		if t, err := time.Parse(time.RFC3339, fm.Created); err == nil {
			m.Created = t
		}
		return m, true
	case FormatJSON:
		var doc JSONDocument
		if err := json.Unmarshal(data, &doc); err != nil || doc.SessionID == "" {
			return ArtifactMeta{}, false
		}
		return ArtifactMeta{SessionID: doc.SessionID, Summary: doc.Summary, Created: doc.Created, CreatedLabel: doc.CreatedLabel}, true
	default:
		return readHTMLMeta(string(data), dateFormat)
	}
}

func readHTMLMeta(doc, dateFormat string) (ArtifactMeta, bool) {
	var m ArtifactMeta
	for _, match := range metaTagRe.FindAllStringSubmatch(doc, -1) {
		value := html.UnescapeString(match[2])
		switch match[1] {
		case MetaSessionID:
			m.SessionID = value
		case MetaSummary:
			m.Summary = value
		case MetaCreated:
			if t, err := time.Parse(time.RFC3339, value); err == nil {
				m.Created = t
			}
		case MetaCreatedLabel:
			m.CreatedLabel = value
		}
	}

	if m.SessionID == "" {
		if match := legacySessionIDRe.FindStringSubmatch(doc); match != nil {
			m.SessionID = html.UnescapeString(strings.TrimSpace(match[1]))
		}
	}
	if m.Created.IsZero() && m.CreatedLabel == "" {
		if match := legacyCreatedRe.FindStringSubmatch(doc); match != nil {
			label := html.UnescapeString(strings.TrimSpace(match[1]))
			if t, ok := ParseDate(label, dateFormat); ok {
				m.Created = t
			} else {
				m.CreatedLabel = label
			}
		}
	}
	return m, m.SessionID != "" || !m.Created.IsZero() || m.CreatedLabel != ""
}

// ParseDate parses a rendered creation date, trying dateFormat first and
// then common layouts. Dates are read as UTC.
func ParseDate(value, dateFormat string) (time.Time, bool) {
	var layouts []string
	if layout, err := strftime.Layout(dateFormat); err == nil {
		layouts = append(layouts, layout)
	}
	layouts = append(layouts, "2006-01-02 15:04:05", time.RFC3339, "2006-01-02")
	for _, l := range layouts {
		if t, err := time.ParseInLocation(l, value, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
