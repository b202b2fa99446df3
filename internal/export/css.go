// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import "strings"

// =============================================================================
// EMBEDDED CSS
// =============================================================================

// baseCSS returns the theme-independent rules with the configured typography
// filled in. Config validation keeps these values free of CSS syntax.
func (r *htmlRender) baseCSS() string {
	return strings.NewReplacer(
		"{{font_size}}", r.cfg.FontSize,
		"{{line_height}}", r.cfg.LineHeight,
		"{{letter_spacing}}", r.cfg.LetterSpacing,
		"{{max_width}}", r.cfg.MaxWidth,
		"{{padding}}", r.cfg.Padding,
	).Replace(baseCSS)
}

const baseCSS = `
* {
    box-sizing: border-box;
}

body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, sans-serif;
    background-color: var(--bg-color);
    color: var(--text-color);
    font-size: {{font_size}};
    line-height: {{line_height}};
    letter-spacing: {{letter_spacing}};
    padding: {{padding}};
    max-width: {{max_width}};
    margin: 0 auto;
}

header {
    background: var(--card-bg);
    padding: 20px;
    border-radius: 10px;
    margin-bottom: 30px;
    border: 1px solid var(--border-color);
}

header h1 {
    margin: 0 0 10px 0;
    color: var(--accent);
}

header .meta {
    color: var(--text-muted);
    font-size: 0.9em;
}

header .meta code {
    background: var(--code-bg);
    padding: 2px 6px;
    border-radius: 4px;
    font-size: 0.92em;
}

header .meta .tip {
    margin-top: 10px;
    padding: 8px 12px;
    background: var(--code-bg);
    border-radius: 6px;
    font-size: 0.92em;
    opacity: 0.8;
}

.message {
    margin-bottom: 20px;
    padding: 15px 20px;
    border-radius: 10px;
    border: 1px solid var(--border-color);
}

.message.user {
    background: var(--user-bg);
    border-left: 4px solid var(--accent);
}

.message.assistant {
    background: var(--assistant-bg);
    border-left: 4px solid var(--accent-soft);
}

.message-header {
    display: flex;
    justify-content: space-between;
    align-items: center;
    margin-bottom: 10px;
    padding-bottom: 8px;
    border-bottom: 1px solid var(--border-color);
}

.message-header .role {
    font-weight: 600;
    font-size: 0.9em;
    letter-spacing: 0.5px;
}

.message-header .role.user-role {
    color: var(--accent);
}

.message-header .role.assistant-role {
    color: var(--accent-soft);
}

.message-header .header-right {
    display: flex;
    align-items: center;
    gap: 12px;
}

.timestamp {
    color: var(--text-muted);
    font-size: 0.88em;
}

.message-header .msg-stats {
    font-size: 0.8em;
    color: var(--text-muted);
    background: var(--code-bg);
    padding: 2px 8px;
    border-radius: 10px;
    font-family: 'SF Mono', 'Fira Code', monospace;
}

.message-content {
    word-wrap: break-word;
}

.content p {
    margin: 0 0 10px 0;
}

.content p:last-child {
    margin-bottom: 0;
}

.content ul, .content ol {
    padding-left: 25px;
}

.content li {
    margin-bottom: 5px;
}

.content blockquote {
    border-left: 3px solid var(--accent-soft);
    margin: 10px 0;
    padding-left: 15px;
    color: var(--text-muted);
}

.content table {
    border-collapse: collapse;
    margin: 10px 0;
}

.content th, .content td {
    border: 1px solid var(--border-color);
    padding: 4px 10px;
}

details.thinking, details.system-note {
    border: 1px dashed var(--border-color);
    border-radius: 8px;
    margin: 10px 0;
    padding: 6px 12px;
    color: var(--text-muted);
    font-size: 0.92em;
}

details.system-note {
    margin-bottom: 20px;
}

details.thinking > summary, details.system-note > summary {
    cursor: pointer;
}

details.tools-container {
    background: var(--tool-bg);
    border: 1px solid var(--border-color);
    border-radius: 8px;
    margin: 10px 0;
    overflow: hidden;
}

details.tools-container > summary {
    padding: 10px 15px;
    cursor: pointer;
    font-size: 0.9em;
    color: var(--text-muted);
    font-weight: 500;
}

details.tools-container > summary:hover {
    background: rgba(128,128,128,0.1);
}

details.tools-container > summary::marker {
    color: var(--accent);
}

.tool-group {
    margin-bottom: 20px;
}

.tools-list {
    padding: 10px 15px;
    border-top: 1px solid var(--border-color);
}

.tool-item {
    background: var(--code-bg);
    border: 1px solid var(--border-color);
    border-radius: 6px;
    margin-bottom: 8px;
}

.tool-item:last-child {
    margin-bottom: 0;
}

.tool-item.orphaned {
    border-style: dashed;
}

.tool-item summary {
    padding: 8px 12px;
    cursor: pointer;
    font-size: 0.92em;
    color: var(--text-muted);
    display: flex;
    align-items: center;
    gap: 8px;
}

.tool-item summary:hover {
    background: rgba(128,128,128,0.05);
}

.tool-item summary .tool-name {
    color: #4ec9b0;
    font-weight: 500;
}

.tool-item summary .tool-desc {
    color: var(--text-muted);
    font-size: 0.9em;
}

.tool-badge {
    font-size: 0.8em;
    padding: 1px 8px;
    border-radius: 10px;
    border: 1px solid var(--accent);
    color: var(--accent);
}

.tool-content {
    padding: 12px;
    border-top: 1px solid var(--border-color);
    font-size: 0.88em;
}

.tool-content h4 {
    margin: 0 0 6px 0;
    color: var(--text-muted);
    font-size: 0.92em;
    text-transform: uppercase;
}

.tool-content pre {
    background: var(--bg-color);
    padding: 10px;
    border-radius: 4px;
    overflow-x: auto;
    margin: 6px 0;
    font-size: 0.9em;
    white-space: pre-wrap;
}

.truncated {
    font-style: italic;
    color: var(--text-muted);
    font-size: 0.9em;
}

.error {
    color: #e06c75;
}

.render-error {
    border: 1px solid #e06c75;
    border-radius: 6px;
    padding: 8px 12px;
    margin: 8px 0;
}

code {
    background: var(--code-bg);
    padding: 2px 6px;
    border-radius: 4px;
    font-family: 'SF Mono', 'Fira Code', 'Consolas', monospace;
    font-size: 0.9em;
}

pre {
    background: var(--code-bg);
    padding: 15px;
    border-radius: 8px;
    overflow-x: auto;
}

pre code {
    background: none;
    padding: 0;
}

.code-block {
    margin: 12px 0;
}

.code-block .code-lang {
    font-size: 0.75em;
    text-transform: uppercase;
    color: var(--text-muted);
    margin-bottom: 2px;
}

.code-block pre.chroma {
    background: var(--code-bg);
}

h1, h2, h3, h4 {
    color: var(--text-color);
}

a {
    color: var(--accent);
}

hr {
    border: none;
    border-top: 1px solid var(--border-color);
    margin: 30px 0;
}

.stats-quick {
    margin: 12px 0 5px 0;
    display: flex;
    flex-wrap: wrap;
    align-items: center;
    gap: 8px;
}

.stat-pill {
    background: var(--code-bg);
    padding: 3px 10px;
    border-radius: 12px;
    font-size: 0.85em;
    color: var(--text-color);
    border: 1px solid var(--border-color);
}

.stats-section {
    margin-top: 10px;
}

.stats-container {
    background: var(--tool-bg);
    border: 1px solid var(--border-color);
    border-radius: 8px;
    overflow: hidden;
}

.stats-container > summary {
    padding: 10px 15px;
    cursor: pointer;
    font-size: 0.95em;
    color: var(--text-muted);
    font-weight: 500;
}

.stats-content {
    padding: 12px 15px;
    border-top: 1px solid var(--border-color);
}

.stats-row {
    display: flex;
    flex-wrap: wrap;
    gap: 15px 25px;
    margin-bottom: 8px;
}

.stats-row:last-child {
    margin-bottom: 0;
}

.stat-item {
    font-size: 0.9em;
}

.stat-label {
    color: var(--text-muted);
    font-weight: 500;
}

.theme-toggle {
    position: fixed;
    top: 15px;
    right: 15px;
    background: var(--card-bg);
    border: 1px solid var(--border-color);
    border-radius: 20px;
    padding: 8px 14px;
    cursor: pointer;
    font-size: 0.85em;
    color: var(--text-muted);
    z-index: 100;
}

.theme-toggle:hover {
    background: var(--tool-bg);
    border-color: var(--accent);
}

@media print {
    body {
        background: white !important;
        color: black !important;
        font-size: 11pt;
        max-width: 100%;
        padding: 0;
    }

    .theme-toggle, .tip, .stats-section, .stats-quick, .msg-stats,
    details.tools-container, .tool-group, details.thinking {
        display: none !important;
    }

    header {
        background: #f5f5f5 !important;
        border: 1px solid #ddd !important;
        page-break-after: avoid;
    }

    header h1 {
        color: #333 !important;
    }

    .message {
        background: white !important;
        border: 1px solid #ddd !important;
        border-left-width: 3px !important;
        page-break-inside: avoid;
        margin-bottom: 10px;
    }

    .message.user {
        border-left-color: #2563eb !important;
    }

    .message.assistant {
        border-left-color: #7c3aed !important;
    }

    code, pre {
        background: #f5f5f5 !important;
        border: 1px solid #ddd !important;
    }

    a {
        color: #2563eb !important;
        text-decoration: underline;
    }
}

@media (max-width: 600px) {
    body {
        padding: 10px;
    }

    .message {
        padding: 12px 15px;
    }

    .stats-row {
        flex-direction: column;
        gap: 8px;
    }

    .theme-toggle {
        top: 10px;
        right: 10px;
        padding: 6px 10px;
    }
}
`
