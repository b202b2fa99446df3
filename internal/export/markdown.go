// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/convexport/internal/model"
	"github.com/jeranaias/convexport/internal/util"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter renders sessions as Markdown with YAML front matter.
type MarkdownExporter struct{}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{}
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// FrontMatter is the YAML header of a Markdown export. Later runs read it
// back to recognise the artifact.
type FrontMatter struct {
	Title        string `yaml:"title"`
	SessionID    string `yaml:"session_id"`
	Source       string `yaml:"source,omitempty"`
	Project      string `yaml:"project,omitempty"`
	Summary      string `yaml:"summary,omitempty"`
	Created      string `yaml:"created,omitempty"`
	CreatedLabel string `yaml:"created_label,omitempty"`
	Updated      string `yaml:"updated,omitempty"`
	Messages     int    `yaml:"messages"`
	ToolCalls    int    `yaml:"tool_calls"`
	InputTokens  int    `yaml:"input_tokens"`
	OutputTokens int    `yaml:"output_tokens"`
	Generator    string `yaml:"generator"`
}

func rfc3339(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Export converts a document to Markdown.
func (e *MarkdownExporter) Export(doc *Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}
	cfg := doc.Config
	s := doc.Stats

	fm := FrontMatter{
		Title:        doc.Title(),
		SessionID:    doc.Session.ID,
		Source:       doc.Session.Source,
		Project:      doc.Session.ProjectName(),
		Summary:      doc.Summary,
		Created:      rfc3339(doc.Created),
		CreatedLabel: doc.CreatedLabel,
		Updated:      rfc3339(doc.Updated),
		Messages:     s.Messages,
		ToolCalls:    s.ToolCalls,
		InputTokens:  s.Usage.InputTokens,
		OutputTokens: s.Usage.OutputTokens,
		Generator:    "convexport",
	}
	header, err := yaml.Marshal(&fm)
	if err != nil {
		return nil, fmt.Errorf("marshal front matter: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(header)
	sb.WriteString("---\n\n")

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(doc.Title())))

	// Session information
	if cfg.ShowSummary && doc.Summary != "" {
		sb.WriteString(fmt.Sprintf("- **Summary**: %s\n", escapeMarkdown(doc.Summary)))
	}
	if cfg.ShowSessionID {
		sb.WriteString(fmt.Sprintf("- **Session ID**: `%s`\n", doc.Session.ID))
	}
	if cfg.ShowProjectPath && doc.ProjectPath() != "" {
		sb.WriteString(fmt.Sprintf("- **Project**: `%s`\n", doc.ProjectPath()))
	}
	if cfg.ShowTimestamp {
		sb.WriteString(fmt.Sprintf("- **Created (UTC)**: %s\n", doc.CreatedText()))
		sb.WriteString(fmt.Sprintf("- **Last Updated (UTC)**: %s\n", cfg.FormatDate(doc.Updated.UTC())))
	}
	if cfg.ShowStatistics {
		sb.WriteString(fmt.Sprintf("- **Stats**: %s · %s · %s · %s input / %s output tokens\n",
			util.FormatDuration(s.Duration),
			plural(s.Messages, "message", "messages"),
			plural(s.ToolCalls, "tool call", "tool calls"),
			util.FormatCount(s.Usage.InputTokens), util.FormatCount(s.Usage.OutputTokens)))
	}
	sb.WriteString("\n---\n\n")

	for _, b := range model.BuildBlocks(doc.Session.Events) {
		e.block(&sb, cfg.UserEmoji+" "+cfg.UserName, cfg.AssistantEmoji+" "+cfg.AssistantName, doc, b)
	}

	return []byte(sb.String()), nil
}

func (e *MarkdownExporter) block(sb *strings.Builder, userLabel, assistantLabel string, doc *Document, b *model.Block) {
	cfg := doc.Config
	switch b.Kind {
	case model.BlockSystem:
		if b.Message == nil || strings.TrimSpace(b.Message.Text) == "" {
			return
		}
		sb.WriteString("<details>\n<summary>⚙️ System</summary>\n\n")
		writeFenced(sb, "text", b.Message.Text)
		sb.WriteString("</details>\n\n")
		return
	case model.BlockTools:
		e.tools(sb, b.Tools)
		return
	}

	msg := b.Message
	if msg == nil {
		sb.WriteString("> *This section could not be rendered.*\n\n")
		return
	}
	if strings.TrimSpace(msg.Text) == "" && msg.Thinking == "" && len(b.Tools) == 0 && msg.Usage == nil {
		return
	}

	label := userLabel
	if b.Kind == model.BlockAssistant {
		label = assistantLabel
	}
	heading := "### " + strings.TrimSpace(label)
	if ts := cfg.FormatTime(msg.Timestamp); ts != "" {
		heading += " <sub>" + ts + "</sub>"
	}
	if cfg.ShowStatistics && msg.Usage != nil && (msg.Usage.InputTokens > 0 || msg.Usage.OutputTokens > 0) {
		heading += fmt.Sprintf(" <sub>↓%s ↑%s</sub>", util.FormatTokens(msg.Usage.InputTokens), util.FormatTokens(msg.Usage.OutputTokens))
	}
	sb.WriteString(heading + "\n\n")

	if msg.Thinking != "" {
		sb.WriteString("<details>\n<summary>💭 Thinking</summary>\n\n")
		sb.WriteString(strings.TrimSpace(msg.Thinking))
		sb.WriteString("\n\n</details>\n\n")
	}
	if text := strings.TrimSpace(msg.Text); text != "" {
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	e.tools(sb, b.Tools)
}

func (e *MarkdownExporter) tools(sb *strings.Builder, exchanges []*model.ToolExchange) {
	if len(exchanges) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("<details>\n<summary>🛠️ Tools used (%d)</summary>\n\n", len(exchanges)))
	for _, ex := range exchanges {
		line := fmt.Sprintf("**%s**", escapeMarkdown(ex.Name()))
		if ex.Call != nil && ex.Call.Summary != "" && ex.Call.Summary != ex.Name() {
			line += " · " + escapeMarkdown(ex.Call.Summary)
		}
		if ex.Orphaned() {
			line += " *(orphaned)*"
		}
		if ex.Result != nil && ex.Result.IsError {
			line += " *(error)*"
		}
		sb.WriteString(line + "\n\n")

		if ex.Call != nil && ex.Call.Input != "" {
			sb.WriteString("Input:\n\n")
			writeFenced(sb, "", ex.Call.Input)
			writeTruncated(sb, ex.Call.InputTruncated)
		}
		switch {
		case ex.Result == nil:
			sb.WriteString("*No result captured*\n\n")
		case ex.Result.Output != "":
			sb.WriteString("Result:\n\n")
			writeFenced(sb, "", ex.Result.Output)
			writeTruncated(sb, ex.Result.OutputTruncated)
		}
	}
	sb.WriteString("</details>\n\n")
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

func writeFenced(sb *strings.Builder, lang, text string) {
	f := fence(text)
	sb.WriteString(f + lang + "\n")
	sb.WriteString(strings.TrimRight(text, "\n"))
	sb.WriteString("\n" + f + "\n\n")
}

func writeTruncated(sb *strings.Builder, dropped int) {
	if dropped > 0 {
		sb.WriteString(fmt.Sprintf("*... %s more characters truncated*\n\n", util.FormatCount(dropped)))
	}
}

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	// Only escape characters that would break formatting in titles/headings
	return strings.NewReplacer(
		"\\", "\\\\",
		"#", "\\#",
		"*", "\\*",
		"_", "\\_",
		"[", "\\[",
		"]", "\\]",
		"<", "&lt;",
	).Replace(s)
}

// ParseFrontMatter reads the YAML header of a Markdown export.
func ParseFrontMatter(data []byte) (FrontMatter, bool) {
	var fm FrontMatter
	if !bytes.HasPrefix(data, []byte("---\n")) {
		return fm, false
	}
	rest := data[len("---\n"):]
	end := bytes.Index(rest, []byte("\n---\n"))
	if end < 0 {
		return fm, false
	}
	if err := yaml.Unmarshal(rest[:end+1], &fm); err != nil {
		return fm, false
	}
	return fm, fm.SessionID != ""
}
