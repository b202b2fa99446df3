// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/convexport/internal/model"
	"github.com/jeranaias/convexport/internal/stats"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter dumps the normalized session with its statistics.
// NOTE: display options do not apply; the dump always holds every event.
type JSONExporter struct{}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// JSONDocument is the shape of a JSON export.
type JSONDocument struct {
	SessionID    string           `json:"session_id"`
	Title        string           `json:"title"`
	Summary      string           `json:"summary,omitempty"`
	Created      time.Time        `json:"created,omitzero"`
	CreatedLabel string           `json:"created_label,omitempty"`
	Updated      time.Time        `json:"updated,omitzero"`
	Stats        stats.Statistics `json:"stats"`
	Session      *model.Session   `json:"session"`
}

// Export converts a document to indented JSON.
func (e *JSONExporter) Export(doc *Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}
	out := JSONDocument{
		SessionID:    doc.Session.ID,
		Title:        doc.Title(),
		Summary:      doc.Summary,
		Created:      doc.Created.UTC(),
		CreatedLabel: doc.CreatedLabel,
		Updated:      doc.Updated.UTC(),
		Stats:        doc.Stats,
		Session:      doc.Session,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
