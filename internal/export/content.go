// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	goldhtml "github.com/yuin/goldmark/renderer/html"
	gutil "github.com/yuin/goldmark/util"

	"github.com/jeranaias/convexport/internal/util"
)

// =============================================================================
// MESSAGE TEXT RENDERING
// =============================================================================

// contentRenderer turns message Markdown into sanitized HTML. Raw HTML in the
// source is shown as text, and fenced code is highlighted with chroma classes.
type contentRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func newContentRenderer() *contentRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			goldhtml.WithHardWraps(),
			renderer.WithNodeRenderers(gutil.Prioritized(&codeBlockRenderer{}, 100)),
		),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-zA-Z0-9 _-]+$`)).OnElements("span", "pre", "code", "div")
	policy.AllowAttrs("tabindex").Matching(bluemonday.Integer).OnElements("pre")
	policy.AllowAttrs("type", "checked", "disabled").OnElements("input")
	policy.RequireNoFollowOnLinks(true)

	return &contentRenderer{md: md, policy: policy}
}

var defaultContent = newContentRenderer()

// Render converts Markdown text to sanitized HTML.
func (r *contentRenderer) Render(text string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return r.policy.Sanitize(buf.String()), nil
}

// codeBlockRenderer overrides goldmark's rendering of fenced code and raw
// HTML.
type codeBlockRenderer struct{}

// RegisterFuncs implements renderer.NodeRenderer.
func (c *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, c.renderFenced)
	reg.Register(ast.KindRawHTML, c.renderRawHTML)
	reg.Register(ast.KindHTMLBlock, c.renderHTMLBlock)
}

func (c *codeBlockRenderer) renderFenced(w gutil.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)
	var code bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}
	lang := string(n.Language(source))

	_, _ = w.WriteString(`<div class="code-block">`)
	if lang != "" {
		_, _ = fmt.Fprintf(w, `<div class="code-lang">%s</div>`, html.EscapeString(lang))
	}
	if err := highlight(w, code.String(), lang); err != nil {
		_, _ = fmt.Fprintf(w, "<pre><code>%s</code></pre>", html.EscapeString(code.String()))
	}
	_, _ = w.WriteString("</div>\n")
	return ast.WalkSkipChildren, nil
}

func (c *codeBlockRenderer) renderRawHTML(w gutil.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.RawHTML)
	for i := 0; i < n.Segments.Len(); i++ {
		seg := n.Segments.At(i)
		_, _ = w.Write(gutil.EscapeHTML(seg.Value(source)))
	}
	return ast.WalkSkipChildren, nil
}

func (c *codeBlockRenderer) renderHTMLBlock(w gutil.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.HTMLBlock)
	var raw bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		raw.Write(seg.Value(source))
	}
	if n.HasClosure() {
		raw.Write(n.ClosureLine.Value(source))
	}
	_, _ = w.WriteString("<p>")
	_, _ = w.Write(gutil.EscapeHTML(bytes.TrimRight(raw.Bytes(), "\n")))
	_, _ = w.WriteString("</p>\n")
	return ast.WalkSkipChildren, nil
}

// highlight writes code as chroma-classed HTML. An unknown language is
// analysed from the code itself and falls back to plain text.
func highlight(w gutil.BufWriter, code, lang string) error {
	lexer := lexers.Get(lang)
	if lexer == nil && lang == "" {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	tokens, err := lexer.Tokenise(nil, code)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := codeFormatter.Format(&buf, codeStyle(""), tokens); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// =============================================================================
// PLAIN TEXT HELPERS
// =============================================================================

// preBlock escapes text into a <pre><code> block.
func preBlock(text string) string {
	return "<pre><code>" + html.EscapeString(text) + "</code></pre>"
}

// truncationNote marks clipped tool payloads.
func truncationNote(dropped int) string {
	if dropped <= 0 {
		return ""
	}
	return fmt.Sprintf(`<p class="truncated">... %s more characters truncated</p>`, util.FormatCount(dropped))
}

// fence returns a backtick fence longer than any backtick run in text.
func fence(text string) string {
	longest, run := 0, 0
	for _, r := range text {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	if longest < 3 {
		return "```"
	}
	return strings.Repeat("`", longest+1)
}
