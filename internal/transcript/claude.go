// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jeranaias/convexport/internal/model"
)

// =============================================================================
// CLAUDE CODE SOURCE
// =============================================================================

// ClaudeSource reads Claude Code transcripts from
// ~/.claude/projects/<encoded-project-path>/<session-uuid>.jsonl.
type ClaudeSource struct {
	// IncludeSidechains also lists transcripts whose name is not a session
	// UUID (agent-*.jsonl sub-agent logs).
	IncludeSidechains bool
}

// Name implements Source.
func (s *ClaudeSource) Name() string { return "claude" }

// DefaultRoot implements Source.
func (s *ClaudeSource) DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".claude", "projects"), nil
}

// Discover implements Source. The project of each file is decoded from its
// directory name.
func (s *ClaudeSource) Discover(root string) ([]SessionFile, error) {
	if err := requireDir(root, "Claude projects directory"); err != nil {
		return nil, err
	}
	dirs, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read projects directory: %w", err)
	}

	var files []SessionFile
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		projectPath := DecodeProjectPath(d.Name())
		found, err := statJSONL(filepath.Join(root, d.Name()), func(name string) bool {
			return s.IncludeSidechains || isUUID(strings.TrimSuffix(name, ".jsonl"))
		})
		if err != nil {
			continue
		}
		for i := range found {
			found[i].Source = s.Name()
			found[i].CWD = projectPath
			found[i].Project = filepath.Base(projectPath)
		}
		files = append(files, found...)
	}
	sortFiles(files)
	return files, nil
}

// DecodeProjectPath reverses Claude's project directory naming, which
// replaces path separators and dots with dashes. Ambiguous dashes are
// resolved greedily against the local filesystem: the longest run of
// segments that names an existing directory wins. Segments that match
// nothing fall back to plain path components.
func DecodeProjectPath(encoded string) string {
	if !strings.HasPrefix(encoded, "-") {
		return encoded
	}
	raw := strings.Split(strings.TrimPrefix(encoded, "-"), "-")

	// "--" encodes "/." (hidden directories).
	var parts []string
	for i := 0; i < len(raw); i++ {
		if raw[i] == "" && i+1 < len(raw) {
			raw[i+1] = "." + raw[i+1]
			continue
		}
		if raw[i] != "" {
			parts = append(parts, raw[i])
		}
	}

	path := string(filepath.Separator)
	for i := 0; i < len(parts); {
		next := i + 1
		for j := len(parts); j > i+1; j-- {
			candidate := filepath.Join(path, strings.Join(parts[i:j], "-"))
			if info, err := os.Stat(candidate); err == nil && info.IsDir() {
				next = j
				break
			}
		}
		path = filepath.Join(path, strings.Join(parts[i:next], "-"))
		i = next
	}
	return path
}

// =============================================================================
// CLAUDE RECORDS
// =============================================================================

type claudeRecord struct {
	Type             string          `json:"type"`
	Subtype          string          `json:"subtype"`
	SessionID        string          `json:"sessionId"`
	CWD              string          `json:"cwd"`
	Timestamp        Timestamp       `json:"timestamp"`
	IsMeta           bool            `json:"isMeta"`
	IsCompactSummary bool            `json:"isCompactSummary"`
	Content          json.RawMessage `json:"content"`
	Message          *struct {
		ID      string          `json:"id"`
		Role    string          `json:"role"`
		Model   string          `json:"model"`
		Content json.RawMessage `json:"content"`
		Usage   *usageFields    `json:"usage"`
	} `json:"message"`
}

// usageFields accepts the usage spellings of every host tool.
type usageFields struct {
	InputTokens         int `json:"input_tokens"`
	OutputTokens        int `json:"output_tokens"`
	CacheReadTokens     int `json:"cache_read_input_tokens"`
	CacheCreationTokens int `json:"cache_creation_input_tokens"`
	CachedInputTokens   int `json:"cached_input_tokens"`

	Input      int `json:"input"`
	Output     int `json:"output"`
	CacheRead  int `json:"cacheRead"`
	CacheWrite int `json:"cacheWrite"`
}

func (u *usageFields) usage() model.Usage {
	return model.Usage{
		InputTokens:         u.InputTokens + u.Input,
		OutputTokens:        u.OutputTokens + u.Output,
		CacheReadTokens:     u.CacheReadTokens + u.CachedInputTokens + u.CacheRead,
		CacheCreationTokens: u.CacheCreationTokens + u.CacheWrite,
	}
}

var (
	systemTagRe = regexp.MustCompile(`</?[a-zA-Z][\w-]*(?:\s[^>]*)?>`)

	claudeSystemPrefixes = []string{
		"<local-command-",
		"<command-name>",
		"<command-message>",
		"<command-args>",
		"<system-reminder>",
		"<environment_context>",
		"<user-prompt-submit-hook>",
		"Caveat: The messages below were generated by the user while running local commands",
	}
)

// isClaudeSystemText reports whether user-role text was injected by the
// client rather than typed.
func isClaudeSystemText(text string) bool {
	trimmed := strings.TrimSpace(text)
	for _, p := range claudeSystemPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

// cleanSystemText strips markup tags and collapses blank runs.
func cleanSystemText(text string) string {
	text = systemTagRe.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, strings.Join(strings.Fields(l), " "))
		}
	}
	return strings.Join(kept, "\n")
}

// Parse implements Source.
func (s *ClaudeSource) Parse(ctx context.Context, file SessionFile, opts Options) (*model.Session, error) {
	sess := newSession(file)
	n := &claudeNormalizer{sess: sess, opts: opts, assistantAt: -1}
	if err := parseWith(ctx, file, opts, sess, n.handle); err != nil {
		return nil, err
	}
	return sess, nil
}

type claudeNormalizer struct {
	sess *model.Session
	opts Options

	// assistantAt indexes the open assistant message in sess.Events, so that
	// consecutive records sharing a message id merge into it.
	assistantAt int
	// openID is the message id streaming into the open message, and
	// carried holds the usage of earlier ids already merged into it.
	openID  string
	carried model.Usage
}

func (n *claudeNormalizer) handle(line []byte) error {
	var rec claudeRecord
	if err := decodeRecord(line, &rec); err != nil {
		return err
	}
	if rec.Type == "" {
		return errMissingType
	}

	if rec.SessionID != "" && n.sess.ID == "" {
		n.sess.ID = rec.SessionID
	}
	pinCWD(n.sess, rec.CWD)

	ts := rec.Timestamp.Time
	switch rec.Type {
	case "user":
		if rec.IsMeta || rec.IsCompactSummary || rec.Message == nil {
			return nil
		}
		return n.user(ts, rec.Message.Content)
	case "assistant":
		if rec.Message == nil {
			return fmt.Errorf("%w: assistant record without message", ErrRecordParse)
		}
		return n.assistant(ts, &rec)
	case "system":
		if rec.Subtype == "compact_boundary" {
			return nil
		}
		var text string
		if err := json.Unmarshal(rec.Content, &text); err == nil && strings.TrimSpace(text) != "" {
			n.closeAssistant()
			n.sess.Append(model.NewSystemNote(ts, cleanSystemText(text)))
		}
		return nil
	default:
		// summary, file-history-snapshot, queue-operation and future types.
		return nil
	}
}

func (n *claudeNormalizer) closeAssistant() {
	n.assistantAt = -1
	n.openID = ""
	n.carried = model.Usage{}
}

func (n *claudeNormalizer) user(ts time.Time, raw json.RawMessage) error {
	parts, ok := decodeContent(raw)
	if !ok {
		return fmt.Errorf("%w: unreadable user content", ErrRecordParse)
	}

	var texts []string
	for _, p := range parts {
		switch p.Type {
		case "text":
			if isClaudeSystemText(p.Text) {
				if note := cleanSystemText(p.Text); note != "" {
					n.closeAssistant()
					n.sess.Append(model.NewSystemNote(ts, note))
				}
				continue
			}
			if strings.TrimSpace(p.Text) != "" {
				texts = append(texts, p.Text)
			}
		case "image":
			texts = append(texts, "[image]")
		case "tool_result":
			result := model.NewToolResult(ts, p.ToolUseID, contentText(p.Content), p.IsError)
			n.sess.Append(clipResult(result, n.opts))
		}
	}

	if len(texts) > 0 {
		n.closeAssistant()
		n.sess.Append(model.NewUserMessage(ts, strings.Join(texts, "\n\n")))
	}
	return nil
}

func (n *claudeNormalizer) assistant(ts time.Time, rec *claudeRecord) error {
	msg := rec.Message
	parts, ok := decodeContent(msg.Content)
	if !ok {
		return fmt.Errorf("%w: unreadable assistant content", ErrRecordParse)
	}

	idx := n.assistantAt
	switch {
	case idx >= 0 && msg.ID != "" && msg.ID == n.openID:
		// Another content block of the streaming message.
	case idx >= 0 && !hasProse(parts, n.opts):
		// A tool-only follow-up call continues the open message, so its
		// tools and tokens attach to the text that preceded them.
		if u := n.sess.Events[idx].Usage; u != nil {
			n.carried = *u
		}
		n.openID = msg.ID
	default:
		e := model.NewAssistantMessage(ts, "")
		e.MessageID = msg.ID
		e.Model = msg.Model
		n.sess.Append(e)
		idx = len(n.sess.Events) - 1
		n.assistantAt = idx
		n.openID = msg.ID
		n.carried = model.Usage{}
	}

	for _, p := range parts {
		switch p.Type {
		case "text":
			appendText(&n.sess.Events[idx].Text, p.Text)
		case "thinking":
			if n.opts.IncludeThinking {
				appendText(&n.sess.Events[idx].Thinking, p.Thinking)
			}
		case "tool_use":
			call := model.NewToolCall(ts, p.ID, p.Name, "")
			n.sess.Append(newToolCall(call, p.Input, n.opts))
		}
	}

	// Streaming writes one line per content block, each repeating the
	// message usage; the last line carries the final counts.
	if msg.Usage != nil {
		u := n.carried
		u.Add(msg.Usage.usage())
		n.sess.Events[idx].Usage = &u
	}
	return nil
}

// hasProse reports whether content parts carry text that renders in the
// message body.
func hasProse(parts []contentPart, opts Options) bool {
	for _, p := range parts {
		switch {
		case p.Type == "text" && strings.TrimSpace(p.Text) != "":
			return true
		case p.Type == "thinking" && opts.IncludeThinking && strings.TrimSpace(p.Thinking) != "":
			return true
		}
	}
	return false
}

func appendText(dst *string, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if *dst != "" {
		*dst += "\n\n"
	}
	*dst += text
}
