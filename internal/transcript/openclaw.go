// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/convexport/internal/model"
)

// =============================================================================
// OPENCLAW SOURCE
// =============================================================================

// OpenClawSource reads OpenClaw agent transcripts from
// ~/.openclaw/agents/<agent>/sessions/<session>.jsonl. Files whose name
// contains "-topic-" are compaction artifacts and are not listed.
type OpenClawSource struct{}

// Name implements Source.
func (s *OpenClawSource) Name() string { return "openclaw" }

// DefaultRoot implements Source.
func (s *OpenClawSource) DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".openclaw", "agents"), nil
}

// Discover implements Source. The agent name is the directory two levels
// above each transcript.
func (s *OpenClawSource) Discover(root string) ([]SessionFile, error) {
	if err := requireDir(root, "OpenClaw agents directory"); err != nil {
		return nil, err
	}
	agents, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read agents directory: %w", err)
	}

	var files []SessionFile
	for _, a := range agents {
		if !a.IsDir() {
			continue
		}
		found, err := statJSONL(filepath.Join(root, a.Name(), "sessions"), func(name string) bool {
			return !strings.Contains(name, "-topic-")
		})
		if err != nil {
			continue
		}
		for i := range found {
			found[i].Source = s.Name()
			found[i].Project = a.Name()
		}
		files = append(files, found...)
	}
	sortFiles(files)
	return files, nil
}

// =============================================================================
// OPENCLAW RECORDS
// =============================================================================

type openclawRecord struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	Timestamp Timestamp `json:"timestamp"`
	CWD       string    `json:"cwd"`
	Message   *struct {
		Role       string          `json:"role"`
		Content    json.RawMessage `json:"content"`
		Usage      *usageFields    `json:"usage"`
		Model      string          `json:"model"`
		Timestamp  Timestamp       `json:"timestamp"`
		ToolCallID string          `json:"toolCallId"`
		ToolName   string          `json:"toolName"`
		IsError    bool            `json:"isError"`
	} `json:"message"`
}

// Parse implements Source.
func (s *OpenClawSource) Parse(ctx context.Context, file SessionFile, opts Options) (*model.Session, error) {
	sess := newSession(file)
	n := &openclawNormalizer{sess: sess, opts: opts}
	if err := parseWith(ctx, file, opts, sess, n.handle); err != nil {
		return nil, err
	}
	return sess, nil
}

type openclawNormalizer struct {
	sess *model.Session
	opts Options
}

func (n *openclawNormalizer) handle(line []byte) error {
	var rec openclawRecord
	if err := decodeRecord(line, &rec); err != nil {
		return err
	}
	if rec.Type == "" {
		return errMissingType
	}

	switch rec.Type {
	case "session":
		if rec.ID != "" && n.sess.ID == "" {
			n.sess.ID = rec.ID
		}
		pinCWD(n.sess, rec.CWD)
		if !rec.Timestamp.IsZero() {
			n.sess.StartedAt = rec.Timestamp.Time
		}
		return nil
	case "message":
		if rec.Message == nil {
			return fmt.Errorf("%w: message record without message", ErrRecordParse)
		}
	default:
		// compaction, model_change, thinking_level_change, custom.
		return nil
	}

	msg := rec.Message
	ts := rec.Timestamp.Time
	if ts.IsZero() {
		ts = msg.Timestamp.Time
	}
	parts, ok := decodeContent(msg.Content)
	if !ok {
		return fmt.Errorf("%w: unreadable message content", ErrRecordParse)
	}

	switch msg.Role {
	case "user":
		n.user(ts, parts)
	case "assistant":
		e := model.NewAssistantMessage(ts, "")
		e.Model = msg.Model
		var calls []model.Event
		for _, p := range parts {
			switch p.Type {
			case "text":
				appendText(&e.Text, p.Text)
			case "thinking":
				if n.opts.IncludeThinking {
					appendText(&e.Thinking, p.Thinking)
				}
			case "toolCall":
				call := model.NewToolCall(ts, p.ID, p.Name, "")
				calls = append(calls, newToolCall(call, p.Arguments, n.opts))
			case "tool_use":
				call := model.NewToolCall(ts, p.ID, p.Name, "")
				calls = append(calls, newToolCall(call, p.Input, n.opts))
			}
		}
		if msg.Usage != nil {
			e = e.WithUsage(msg.Usage.usage())
		}
		if e.Text != "" || len(calls) > 0 || e.Usage != nil {
			n.sess.Append(e)
		}
		for _, c := range calls {
			n.sess.Append(c)
		}
	case "toolResult":
		result := model.NewToolResult(ts, msg.ToolCallID, contentText(msg.Content), msg.IsError)
		result.ToolName = msg.ToolName
		n.sess.Append(clipResult(result, n.opts))
	case "system":
		if text := contentText(msg.Content); strings.TrimSpace(text) != "" {
			n.sess.Append(model.NewSystemNote(ts, text))
		}
	}
	return nil
}

func (n *openclawNormalizer) user(ts time.Time, parts []contentPart) {
	var texts []string
	for _, p := range parts {
		switch p.Type {
		case "text":
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
		n.sess.Append(model.NewUserMessage(ts, strings.Join(texts, "\n\n")))
	}
}
