// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/convexport/internal/model"
)

// =============================================================================
// CODEX SOURCE
// =============================================================================

// CodexSource reads Codex rollouts from
// ~/.codex/sessions/YYYY/MM/DD/rollout-<timestamp>-<uuid>.jsonl.
type CodexSource struct{}

// Name implements Source.
func (s *CodexSource) Name() string { return "codex" }

// DefaultRoot implements Source.
func (s *CodexSource) DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".codex", "sessions"), nil
}

// Discover implements Source. Only the session_meta header line of each
// rollout is read, to learn the working directory the project filter needs.
func (s *CodexSource) Discover(root string) ([]SessionFile, error) {
	if err := requireDir(root, "Codex sessions directory"); err != nil {
		return nil, err
	}

	var files []SessionFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := d.Name()
		if d.IsDir() || !strings.HasPrefix(name, "rollout-") || !strings.HasSuffix(name, ".jsonl") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		f := SessionFile{
			ID:      sessionIDFromName(name),
			Source:  s.Name(),
			Path:    path,
			ModTime: info.ModTime(),
			Size:    info.Size(),
		}
		if meta, ok := peekCodexMeta(path); ok {
			if meta.ID != "" {
				f.ID = meta.ID
			}
			if meta.CWD != "" {
				f.CWD = meta.CWD
				f.Project = filepath.Base(meta.CWD)
			}
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk sessions directory: %w", err)
	}
	sortFiles(files)
	return files, nil
}

func peekCodexMeta(path string) (codexMeta, bool) {
	line, err := FirstLine(path)
	if err != nil || line == nil {
		return codexMeta{}, false
	}
	var rec codexRecord
	if json.Unmarshal(line, &rec) != nil || rec.Type != "session_meta" {
		return codexMeta{}, false
	}
	var meta codexMeta
	if json.Unmarshal(rec.Payload, &meta) != nil {
		return codexMeta{}, false
	}
	return meta, true
}

// =============================================================================
// CODEX RECORDS
// =============================================================================

type codexRecord struct {
	Timestamp Timestamp       `json:"timestamp"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

type codexMeta struct {
	ID         string    `json:"id"`
	Timestamp  Timestamp `json:"timestamp"`
	CWD        string    `json:"cwd"`
	Originator string    `json:"originator"`
	CLIVersion string    `json:"cli_version"`
}

type codexItem struct {
	Type      string          `json:"type"`
	Role      string          `json:"role"`
	Content   json.RawMessage `json:"content"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
	Input     json.RawMessage `json:"input"`
	CallID    string          `json:"call_id"`
	Output    json.RawMessage `json:"output"`
	Summary   []contentPart   `json:"summary"`
	Action    *struct {
		Command []string `json:"command"`
	} `json:"action"`
}

type codexEventMsg struct {
	Type string `json:"type"`
	Info *struct {
		LastTokenUsage *usageFields `json:"last_token_usage"`
	} `json:"info"`
}

// codexOutput is the JSON envelope some tool outputs are wrapped in.
type codexOutput struct {
	Output   string `json:"output"`
	Metadata struct {
		ExitCode *int `json:"exit_code"`
	} `json:"metadata"`
}

var codexInjectedMarkers = []string{
	"<environment_context>",
	"<user_instructions>",
	"<permissions",
	"# AGENTS.md instructions",
}

func isCodexInjected(text string) bool {
	trimmed := strings.TrimSpace(text)
	for _, m := range codexInjectedMarkers {
		if strings.HasPrefix(trimmed, m) {
			return true
		}
	}
	return strings.Contains(trimmed, "<environment_context>")
}

// Parse implements Source.
func (s *CodexSource) Parse(ctx context.Context, file SessionFile, opts Options) (*model.Session, error) {
	sess := newSession(file)
	n := &codexNormalizer{sess: sess, opts: opts, lastAssistant: -1}
	if err := parseWith(ctx, file, opts, sess, n.handle); err != nil {
		return nil, err
	}
	n.finish()
	return sess, nil
}

type codexNormalizer struct {
	sess *model.Session
	opts Options

	lastAssistant   int
	pendingUsage    *model.Usage
	pendingThinking string
}

func (n *codexNormalizer) handle(line []byte) error {
	var rec codexRecord
	if err := decodeRecord(line, &rec); err != nil {
		return err
	}
	if rec.Type == "" {
		return errMissingType
	}
	ts := rec.Timestamp.Time

	switch rec.Type {
	case "session_meta":
		var meta codexMeta
		if err := decodeRecord(rec.Payload, &meta); err != nil {
			return err
		}
		if meta.ID != "" {
			n.sess.ID = meta.ID
		}
		pinCWD(n.sess, meta.CWD)
		if !meta.Timestamp.IsZero() {
			n.sess.StartedAt = meta.Timestamp.Time
		} else if !ts.IsZero() {
			n.sess.StartedAt = ts
		}
	case "response_item":
		var item codexItem
		if err := decodeRecord(rec.Payload, &item); err != nil {
			return err
		}
		return n.item(ts, &item)
	case "event_msg":
		var msg codexEventMsg
		if err := decodeRecord(rec.Payload, &msg); err != nil {
			return err
		}
		if msg.Type == "token_count" && msg.Info != nil && msg.Info.LastTokenUsage != nil {
			n.addUsage(msg.Info.LastTokenUsage.usage())
		}
		// user_message and agent_message repeat response items.
	}
	// turn_context, compacted and future types carry no conversation.
	return nil
}

func (n *codexNormalizer) item(ts time.Time, item *codexItem) error {
	switch item.Type {
	case "message":
		text := contentText(item.Content)
		if strings.TrimSpace(text) == "" {
			return nil
		}
		switch item.Role {
		case "user":
			if isCodexInjected(text) {
				n.sess.Append(model.NewSystemNote(ts, text))
				return nil
			}
			n.sess.Append(model.NewUserMessage(ts, text))
			// Usage reported from here on belongs to this turn's reply.
			n.lastAssistant = -1
		case "assistant":
			e := model.NewAssistantMessage(ts, strings.TrimSpace(text))
			e.Thinking, n.pendingThinking = n.pendingThinking, ""
			if n.pendingUsage != nil {
				e = e.WithUsage(*n.pendingUsage)
				n.pendingUsage = nil
			}
			n.sess.Append(e)
			n.lastAssistant = len(n.sess.Events) - 1
		default:
			n.sess.Append(model.NewSystemNote(ts, text))
		}
	case "reasoning":
		if n.opts.IncludeThinking {
			for _, p := range item.Summary {
				appendText(&n.pendingThinking, p.Text)
			}
		}
	case "function_call":
		call := model.NewToolCall(ts, item.CallID, item.Name, "")
		n.sess.Append(newToolCall(call, item.Arguments, n.opts))
	case "custom_tool_call":
		call := model.NewToolCall(ts, item.CallID, item.Name, "")
		n.sess.Append(newToolCall(call, item.Input, n.opts))
	case "local_shell_call":
		var command []string
		if item.Action != nil {
			command = item.Action.Command
		}
		raw, _ := json.Marshal(map[string]any{"command": command})
		call := model.NewToolCall(ts, item.CallID, "shell", "")
		n.sess.Append(newToolCall(call, raw, n.opts))
	case "function_call_output", "custom_tool_call_output", "local_shell_call_output":
		output, isError := codexToolOutput(item.Output)
		n.sess.Append(clipResult(model.NewToolResult(ts, item.CallID, output, isError), n.opts))
	}
	return nil
}

// addUsage attaches per-turn token counts to the latest assistant message,
// or holds them for the next one when none exists yet.
func (n *codexNormalizer) addUsage(u model.Usage) {
	if u.IsZero() {
		return
	}
	if n.lastAssistant < 0 {
		if n.pendingUsage == nil {
			n.pendingUsage = &model.Usage{}
		}
		n.pendingUsage.Add(u)
		return
	}
	e := &n.sess.Events[n.lastAssistant]
	if e.Usage == nil {
		e.Usage = &model.Usage{}
	}
	e.Usage.Add(u)
}

// finish hands usage from a turn that produced no reply to the last
// assistant message of the session.
func (n *codexNormalizer) finish() {
	if n.pendingUsage == nil {
		return
	}
	for i := len(n.sess.Events) - 1; i >= 0; i-- {
		if n.sess.Events[i].Kind == model.KindAssistantMessage {
			n.lastAssistant = i
			u := *n.pendingUsage
			n.pendingUsage = nil
			n.addUsage(u)
			return
		}
	}
}

// codexToolOutput unwraps the {"output": ..., "metadata": {"exit_code": N}}
// envelope when present. A non-zero exit code marks the result as an error.
func codexToolOutput(raw json.RawMessage) (string, bool) {
	text := string(unquoteJSONString(raw))
	var env codexOutput
	if strings.HasPrefix(strings.TrimSpace(text), "{") && json.Unmarshal([]byte(text), &env) == nil && env.Output != "" {
		isError := env.Metadata.ExitCode != nil && *env.Metadata.ExitCode != 0
		return env.Output, isError
	}
	return text, false
}
