// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/convexport/internal/config"
	"github.com/jeranaias/convexport/internal/model"
	"github.com/jeranaias/convexport/internal/stats"
	"github.com/jeranaias/convexport/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for session renderers.
type Exporter interface {
	// Export renders a document. When a section could not be rendered the
	// returned content is still complete, with a placeholder for that section,
	// and the error wraps ErrRender.
	Export(doc *Document) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md", ".html").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// ErrRender marks a section that rendered as a placeholder.
var ErrRender = errors.New("render error")

// RenderError reports one section that failed to render.
type RenderError struct {
	Section string
	Err     error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Section, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Is reports RenderError as ErrRender.
func (e *RenderError) Is(target error) bool { return target == ErrRender }

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is everything a renderer needs. Rendering is a pure function of a
// Document: identical documents give byte-identical output.
type Document struct {
	Session *model.Session
	Stats   stats.Statistics
	Summary string
	Config  *config.Config

	// Created is the artifact creation time. It is carried over from a prior
	// export and otherwise set to the session's first timestamp.
	Created time.Time

	// CreatedLabel, when set, is shown verbatim instead of Created. It keeps
	// creation dates of legacy exports that could not be parsed.
	CreatedLabel string

	// Updated is the session's last event timestamp.
	Updated time.Time
}

// NewDocument assembles a document for a session, computing statistics and
// timestamps from its events.
func NewDocument(sess *model.Session, summary string, cfg *config.Config) *Document {
	return &Document{
		Session: sess,
		Stats:   stats.ForSession(sess),
		Summary: summary,
		Config:  cfg,
		Created: sess.FirstTimestamp(),
		Updated: sess.LastTimestamp(),
	}
}

// Title returns the document title from title_format.
func (d *Document) Title() string {
	return d.Config.Title(d.Session.ProjectName(), d.Summary)
}

// CreatedText returns the rendered creation date.
func (d *Document) CreatedText() string {
	if d.CreatedLabel != "" {
		return d.CreatedLabel
	}
	return d.Config.FormatDate(d.Created.UTC())
}

// ProjectPath is the project location shown in headers.
func (d *Document) ProjectPath() string {
	if d.Session.CWD != "" {
		return d.Session.CWD
	}
	return d.Session.ProjectName()
}

func (d *Document) validate() error {
	if d == nil || d.Session == nil {
		return errors.New("document has no session")
	}
	if d.Config == nil {
		return errors.New("document has no config")
	}
	return nil
}

// =============================================================================
// FORMATS
// =============================================================================

// Format names an output format.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
)

// ParseFormats parses a --format value: html, md, json or both (html + md).
func ParseFormats(value string) ([]Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "html":
		return []Format{FormatHTML}, nil
	case "md", "markdown":
		return []Format{FormatMarkdown}, nil
	case "json":
		return []Format{FormatJSON}, nil
	case "both":
		return []Format{FormatHTML, FormatMarkdown}, nil
	default:
		return nil, fmt.Errorf("invalid format %q (want html, md, both or json)", value)
	}
}

// New returns the exporter for a format.
func New(f Format) Exporter {
	switch f {
	case FormatMarkdown:
		return NewMarkdownExporter()
	case FormatJSON:
		return NewJSONExporter()
	default:
		return NewHTMLExporter()
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// plural renders "1 message" / "2 messages".
func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return util.FormatCount(n) + " " + many
}
