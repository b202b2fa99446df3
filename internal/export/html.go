// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/convexport/internal/config"
	"github.com/jeranaias/convexport/internal/model"
	"github.com/jeranaias/convexport/internal/util"
)

// Meta tag names embedded in every HTML export. Later runs read them back to
// recognise the artifact and keep its creation time.
const (
	MetaSessionID    = "convexport:session-id"
	MetaCreated      = "convexport:created"
	MetaCreatedLabel = "convexport:created-label"
	MetaSummary      = "convexport:summary"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter renders a self-contained HTML document with embedded CSS.
type HTMLExporter struct {
	content *contentRenderer
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{content: defaultContent}
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// Export converts a document to HTML.
func (e *HTMLExporter) Export(doc *Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}
	r := &htmlRender{e: e, doc: doc, cfg: doc.Config}
	r.document()
	return []byte(r.sb.String()), errors.Join(r.errs...)
}

// htmlRender holds the state of one Export call.
type htmlRender struct {
	e    *HTMLExporter
	doc  *Document
	cfg  *config.Config
	sb   strings.Builder
	errs []error
}

func (r *htmlRender) w(format string, args ...any) {
	fmt.Fprintf(&r.sb, format, args...)
}

// failed records a section error and writes its placeholder.
func (r *htmlRender) failed(section string, err error, fallback string) {
	r.errs = append(r.errs, &RenderError{Section: section, Err: err})
	r.w("<div class=\"render-error\"><p><em>This section could not be rendered.</em></p>%s</div>\n", fallback)
}

// =============================================================================
// DOCUMENT STRUCTURE
// =============================================================================

func (r *htmlRender) document() {
	doc := r.doc
	title := doc.Title()
	auto := r.cfg.Theme == "auto"

	r.w("<!DOCTYPE html>\n")
	r.w("<html lang=\"en\">\n")
	r.w("<head>\n")
	r.w("    <meta charset=\"UTF-8\">\n")
	r.w("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	r.w("    <meta name=\"generator\" content=\"convexport\">\n")
	r.w("    <meta name=\"%s\" content=\"%s\">\n", MetaSessionID, html.EscapeString(doc.Session.ID))
	if !doc.Created.IsZero() {
		r.w("    <meta name=\"%s\" content=\"%s\">\n", MetaCreated, doc.Created.UTC().Format(time.RFC3339))
	}
	if doc.CreatedLabel != "" {
		r.w("    <meta name=\"%s\" content=\"%s\">\n", MetaCreatedLabel, html.EscapeString(doc.CreatedLabel))
	}
	r.w("    <meta name=\"%s\" content=\"%s\">\n", MetaSummary, html.EscapeString(doc.Summary))
	r.w("    <title>%s</title>\n", html.EscapeString(title))
	r.w("    <style>\n%s%s    </style>\n", themeCSS(r.cfg.Theme, r.cfg.CustomColors), r.baseCSS())
	r.w("</head>\n")
	r.w("<body>\n")
	if auto {
		r.w("    <button id=\"theme-toggle\" class=\"theme-toggle\" type=\"button\">🌙 Dark</button>\n")
	}

	r.header(title)

	r.w("    <main>\n")
	for i, b := range model.BuildBlocks(doc.Session.Events) {
		r.block(i, b)
	}
	r.w("    </main>\n")

	if auto {
		r.w("%s", themeScript(r.cfg.Profile.ThemeStorageKey))
	}
	r.w("</body>\n")
	r.w("</html>\n")
}

func (r *htmlRender) header(title string) {
	doc := r.doc
	r.w("    <header>\n")
	r.w("        <h1>💬 %s</h1>\n", html.EscapeString(title))
	r.w("        <div class=\"meta\">\n")
	if r.cfg.ShowSummary && doc.Summary != "" {
		r.w("            <p><strong>Summary:</strong> %s</p>\n", html.EscapeString(doc.Summary))
	}
	if r.cfg.ShowSessionID {
		r.w("            <p><strong>Session ID:</strong> <code>%s</code></p>\n", html.EscapeString(doc.Session.ID))
	}
	if r.cfg.ShowProjectPath {
		if p := doc.ProjectPath(); p != "" {
			r.w("            <p><strong>Project:</strong> <code>%s</code></p>\n", html.EscapeString(p))
		}
	}
	if r.cfg.ShowTimestamp {
		r.w("            <p><strong>Created (UTC):</strong> %s</p>\n", html.EscapeString(doc.CreatedText()))
		r.w("            <p><strong>Last Updated (UTC):</strong> %s</p>\n", html.EscapeString(r.cfg.FormatDate(doc.Updated.UTC())))
	}
	r.w("            <p class=\"tip\"><em>Tip: You can rename this file (keep the <code>%s_</code> prefix) and it will be preserved on re-export.</em></p>\n",
		html.EscapeString(doc.Session.ShortID()))
	if r.cfg.ShowStatistics {
		r.statsSection()
	}
	r.w("        </div>\n")
	r.w("    </header>\n")
}

// =============================================================================
// STATISTICS
// =============================================================================

func (r *htmlRender) statsSection() {
	s := r.doc.Stats
	duration := util.FormatDuration(s.Duration)
	tokens := fmt.Sprintf("%s input / %s output tokens", util.FormatCount(s.Usage.InputTokens), util.FormatCount(s.Usage.OutputTokens))

	r.w("            <p class=\"stats-quick\">\n")
	r.w("                <strong>📊 Stats:</strong>\n")
	r.w("                <span class=\"stat-pill\">%s</span>\n", duration)
	r.w("                <span class=\"stat-pill\">%s</span>\n", plural(s.Messages, "message", "messages"))
	r.w("                <span class=\"stat-pill\">%s</span>\n", plural(s.ToolCalls, "tool call", "tool calls"))
	r.w("                <span class=\"stat-pill\">%s</span>\n", tokens)
	r.w("            </p>\n")

	r.w("            <div class=\"stats-section\">\n")
	r.w("                <details class=\"stats-container\">\n")
	r.w("                    <summary>View detailed statistics</summary>\n")
	r.w("                    <div class=\"stats-content\">\n")
	r.w("                        <div class=\"stats-row\">\n")
	r.statItem("Duration", duration)
	r.statItem("Messages", fmt.Sprintf("%d user / %d assistant", s.UserMessages, s.AssistantTurns))
	r.statItem("Tool Calls", util.FormatCount(s.ToolCalls))
	if s.ToolErrors > 0 {
		r.statItem("Tool Errors", util.FormatCount(s.ToolErrors))
	}
	r.w("                        </div>\n")
	r.w("                        <div class=\"stats-row\">\n")
	r.statItem("Input Tokens", util.FormatTokens(s.Usage.InputTokens))
	r.statItem("Output Tokens", util.FormatTokens(s.Usage.OutputTokens))
	r.statItem("Cache Read", util.FormatTokens(s.Usage.CacheReadTokens))
	r.statItem("Cache Write", util.FormatTokens(s.Usage.CacheCreationTokens))
	r.statItem("Total", util.FormatTokens(s.Usage.InputTokens+s.Usage.OutputTokens))
	r.w("                        </div>\n")

	if top := s.TopTools(5); len(top) > 0 {
		items := make([]string, len(top))
		for i, t := range top {
			items[i] = fmt.Sprintf("%s (%d)", html.EscapeString(t.Name), t.Count)
		}
		list := strings.Join(items, ", ")
		if extra := len(s.Tools) - len(top); extra > 0 {
			list += fmt.Sprintf(" +%d more", extra)
		}
		r.w("                        <div class=\"stats-row\">\n")
		r.statItem("Tools", list)
		r.w("                        </div>\n")
	}
	if len(s.Models) > 0 {
		r.w("                        <div class=\"stats-row\">\n")
		r.statItem("Models", html.EscapeString(strings.Join(s.Models, ", ")))
		r.w("                        </div>\n")
	}
	r.w("                    </div>\n")
	r.w("                </details>\n")
	r.w("            </div>\n")
}

// statItem writes one label/value pair. value must already be escaped.
func (r *htmlRender) statItem(label, value string) {
	r.w("                            <span class=\"stat-item\"><span class=\"stat-label\">%s:</span> %s</span>\n", label, value)
}

// =============================================================================
// BLOCKS
// =============================================================================

func (r *htmlRender) block(i int, b *model.Block) {
	switch b.Kind {
	case model.BlockSystem:
		r.systemNote(b.Message)
	case model.BlockTools:
		r.w("        <div class=\"tool-group\">\n")
		r.tools(b.Tools)
		r.w("        </div>\n")
	default:
		r.message(i, b)
	}
}

func (r *htmlRender) message(i int, b *model.Block) {
	msg := b.Message
	if msg == nil {
		r.failed(fmt.Sprintf("block %d", i), errors.New("message block without message"), "")
		return
	}
	if strings.TrimSpace(msg.Text) == "" && msg.Thinking == "" && len(b.Tools) == 0 && msg.Usage == nil {
		return
	}

	roleClass, label, headerClass := "user", r.cfg.UserEmoji+" "+r.cfg.UserName, "user-role"
	if b.Kind == model.BlockAssistant {
		roleClass, label, headerClass = "assistant", r.cfg.AssistantEmoji+" "+r.cfg.AssistantName, "assistant-role"
	}

	r.w("        <div class=\"message %s\">\n", roleClass)
	r.w("            <div class=\"message-header\">\n")
	r.w("                <span class=\"role %s\">%s</span>\n", headerClass, html.EscapeString(strings.TrimSpace(label)))
	r.w("                <span class=\"header-right\">\n")
	if r.cfg.ShowStatistics && msg.Usage != nil && (msg.Usage.InputTokens > 0 || msg.Usage.OutputTokens > 0) {
		r.w("                    <span class=\"msg-stats\" data-input-tokens=\"%d\" data-output-tokens=\"%d\">↓%s ↑%s</span>\n",
			msg.Usage.InputTokens, msg.Usage.OutputTokens,
			util.FormatTokens(msg.Usage.InputTokens), util.FormatTokens(msg.Usage.OutputTokens))
	}
	if ts := r.cfg.FormatTime(msg.Timestamp); ts != "" {
		r.w("                    <span class=\"timestamp\">%s</span>\n", html.EscapeString(ts))
	}
	r.w("                </span>\n")
	r.w("            </div>\n")

	if msg.Thinking != "" {
		r.w("            <details class=\"thinking\">\n")
		r.w("                <summary>💭 Thinking</summary>\n")
		r.w("                <div class=\"thinking-content content\">\n")
		r.markdown(fmt.Sprintf("thinking %d", i), msg.Thinking)
		r.w("                </div>\n")
		r.w("            </details>\n")
	}

	if strings.TrimSpace(msg.Text) != "" {
		r.w("            <div class=\"message-content content\">\n")
		r.markdown(fmt.Sprintf("message %d", i), msg.Text)
		r.w("            </div>\n")
	}

	r.tools(b.Tools)
	r.w("        </div>\n")
}

func (r *htmlRender) markdown(section, text string) {
	out, err := r.e.content.Render(text)
	if err != nil {
		r.failed(section, err, preBlock(text))
		return
	}
	r.w("%s", out)
}

func (r *htmlRender) systemNote(note *model.Event) {
	if note == nil || strings.TrimSpace(note.Text) == "" {
		return
	}
	r.w("        <details class=\"system-note\">\n")
	r.w("            <summary>⚙️ System")
	if ts := r.cfg.FormatTime(note.Timestamp); ts != "" {
		r.w(" <span class=\"timestamp\">%s</span>", html.EscapeString(ts))
	}
	r.w("</summary>\n")
	r.w("            <div class=\"system-content\">%s</div>\n", preBlock(note.Text))
	r.w("        </details>\n")
}

// tools renders the exchanges of one block as a single collapsed section.
func (r *htmlRender) tools(exchanges []*model.ToolExchange) {
	if len(exchanges) == 0 {
		return
	}
	r.w("            <details class=\"tools-container\">\n")
	r.w("                <summary>🛠️ Tools used (%d)</summary>\n", len(exchanges))
	r.w("                <div class=\"tools-list\">\n")
	for _, ex := range exchanges {
		r.toolItem(ex)
	}
	r.w("                </div>\n")
	r.w("            </details>\n")
}

func (r *htmlRender) toolItem(ex *model.ToolExchange) {
	class := "tool-item"
	if ex.Orphaned() {
		class += " orphaned"
	}
	if ex.Result != nil && ex.Result.IsError {
		class += " tool-error"
	}

	desc := ""
	if ex.Call != nil && ex.Call.Summary != "" && ex.Call.Summary != ex.Name() {
		desc = ex.Call.Summary
	}

	r.w("                    <details class=\"%s\">\n", class)
	r.w("                        <summary>\n")
	r.w("                            <span class=\"tool-icon\">🔧</span>\n")
	r.w("                            <span class=\"tool-name\">%s</span>\n", html.EscapeString(ex.Name()))
	if desc != "" {
		r.w("                            <span class=\"tool-desc\">· %s</span>\n", html.EscapeString(desc))
	}
	if ex.Orphaned() {
		r.w("                            <span class=\"tool-badge\">orphaned</span>\n")
	}
	r.w("                        </summary>\n")
	r.w("                        <div class=\"tool-content\">\n")

	r.w("                            <h4>Input</h4>\n")
	switch {
	case ex.Call == nil:
		r.w("                            <p><em>No matching tool call</em></p>\n")
	case ex.Call.Input == "":
		r.w("                            <p><em>No input</em></p>\n")
	default:
		r.w("                            %s%s\n", preBlock(ex.Call.Input), truncationNote(ex.Call.InputTruncated))
	}

	if ex.Result != nil && ex.Result.IsError {
		r.w("                            <h4>Result <span class=\"error\">(error)</span></h4>\n")
	} else {
		r.w("                            <h4>Result</h4>\n")
	}
	switch {
	case ex.Result == nil:
		r.w("                            <p><em>No result captured</em></p>\n")
	case ex.Result.Output == "":
		r.w("                            <p><em>Empty result</em></p>\n")
	default:
		r.w("                            %s%s\n", preBlock(ex.Result.Output), truncationNote(ex.Result.OutputTruncated))
	}

	r.w("                        </div>\n")
	r.w("                    </details>\n")
}

// =============================================================================
// EMBEDDED JAVASCRIPT
// =============================================================================

// themeScript returns the toggle for the auto theme. The choice is kept in
// localStorage under key and applied as data-theme on the root element.
func themeScript(key string) string {
	return `    <script>
    (function() {
        const STORAGE_KEY = ` + strconv.Quote(key) + `;
        const root = document.documentElement;
        const media = window.matchMedia('(prefers-color-scheme: dark)');

        function stored() {
            try {
                return localStorage.getItem(STORAGE_KEY);
            } catch (e) {
                return null;
            }
        }

        function current() {
            return root.dataset.theme || (media.matches ? 'dark' : 'light');
        }

        function updateToggleButton() {
            const btn = document.getElementById('theme-toggle');
            if (btn) {
                btn.textContent = current() === 'dark' ? '☀️ Light' : '🌙 Dark';
            }
        }

        function toggleTheme() {
            const next = current() === 'dark' ? 'light' : 'dark';
            root.dataset.theme = next;
            try {
                localStorage.setItem(STORAGE_KEY, next);
            } catch (e) {}
            updateToggleButton();
        }

        const saved = stored();
        if (saved === 'dark' || saved === 'light') {
            root.dataset.theme = saved;
        }

        document.addEventListener('DOMContentLoaded', function() {
            updateToggleButton();
            const btn = document.getElementById('theme-toggle');
            if (btn) {
                btn.addEventListener('click', toggleTheme);
            }
        });

        media.addEventListener('change', function() {
            if (!stored()) {
                updateToggleButton();
            }
        });
    })();
    </script>
`
}
