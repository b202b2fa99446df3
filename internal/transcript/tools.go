// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/jeranaias/convexport/internal/model"
	"github.com/jeranaias/convexport/internal/util"
)

// toolArgs decodes a tool argument payload. Payloads that are not JSON
// objects yield nil.
func toolArgs(raw []byte) map[string]any {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil
	}
	return args
}

func argString(args map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := args[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case []any:
			// Codex shell calls pass argv as a list.
			parts := make([]string, 0, len(v))
			for _, p := range v {
				if s, ok := p.(string); ok {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, " ")
			}
		}
	}
	return ""
}

// DescribeTool returns a one-line description of a tool call for section
// headers ("Read main.go", "Search: TODO").
func DescribeTool(name string, args map[string]any) string {
	switch strings.ToLower(name) {
	case "bash", "shell", "exec", "exec_command", "local_shell":
		if d := argString(args, "description"); d != "" {
			return d
		}
		return util.TruncateRunes(util.FirstLine(argString(args, "command", "cmd")), 50)
	case "read", "write", "edit", "multiedit", "notebookedit", "notebookread":
		if p := argString(args, "file_path", "path", "notebook_path"); p != "" {
			return name + " " + filepath.Base(p)
		}
	case "glob":
		if p := argString(args, "pattern"); p != "" {
			return "Find: " + p
		}
	case "grep":
		if p := argString(args, "pattern"); p != "" {
			return "Search: " + p
		}
	case "task", "agent":
		if d := argString(args, "description"); d != "" {
			return d
		}
	case "websearch", "web_search":
		if q := argString(args, "query"); q != "" {
			return "Search: " + util.TruncateRunes(q, 30)
		}
	case "webfetch", "web_fetch":
		if u := argString(args, "url"); u != "" {
			return "Fetch: " + u
		}
	case "todowrite", "update_plan":
		return "Update plan"
	case "apply_patch":
		return "Apply patch"
	}
	return name
}

// FormatToolInput returns the display form of tool arguments: the command for
// shell tools, the file path for file tools, indented JSON otherwise. raw is
// returned as-is when it is not a JSON object.
func FormatToolInput(name string, raw []byte) string {
	args := toolArgs(raw)
	if args == nil {
		return strings.TrimSpace(string(unquoteJSONString(raw)))
	}
	switch strings.ToLower(name) {
	case "bash", "shell", "exec", "exec_command", "local_shell":
		if c := argString(args, "command", "cmd"); c != "" {
			return c
		}
	case "read", "write", "edit", "multiedit", "notebookedit", "notebookread":
		if p := argString(args, "file_path", "path", "notebook_path"); p != "" {
			return p
		}
	}
	// MarshalIndent sorts map keys, keeping output deterministic.
	out, err := json.MarshalIndent(args, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(out)
}

// unquoteJSONString turns a JSON string literal into its contents and leaves
// anything else untouched.
func unquoteJSONString(raw []byte) []byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return []byte(s)
		}
	}
	return raw
}

// newToolCall builds a clipped tool call event from a raw argument payload.
func newToolCall(e model.Event, raw []byte, opts Options) model.Event {
	args := toolArgs(raw)
	if args == nil {
		// String payloads (Codex function arguments) often hold JSON.
		if inner := unquoteJSONString(raw); len(inner) > 0 && inner[0] == '{' {
			raw = inner
			args = toolArgs(raw)
		}
	}
	e.Summary = DescribeTool(e.ToolName, args)
	e.Input, e.InputTruncated = util.Clip(FormatToolInput(e.ToolName, raw), opts.MaxToolInput)
	return e
}

// clipResult applies the result limit to a tool result event.
func clipResult(e model.Event, opts Options) model.Event {
	e.Output, e.OutputTruncated = util.Clip(e.Output, opts.MaxToolResult)
	return e
}

// contentPart is the union of content block shapes across host tools.
type contentPart struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	Thinking  string          `json:"thinking"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
	Arguments json.RawMessage `json:"arguments"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	IsError   bool            `json:"is_error"`
}

// decodeContent reads a content field that is either a string or a list of
// parts. A string becomes a single text part.
func decodeContent(raw json.RawMessage) ([]contentPart, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, true
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, false
		}
		return []contentPart{{Type: "text", Text: s}}, true
	}
	var parts []contentPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return nil, false
	}
	return parts, true
}

// contentText flattens a tool result body: a string, or the text of its
// text parts. Images become a placeholder.
func contentText(raw json.RawMessage) string {
	parts, ok := decodeContent(raw)
	if !ok {
		return string(raw)
	}
	var texts []string
	for _, p := range parts {
		switch p.Type {
		case "text", "input_text", "output_text", "":
			if p.Text != "" {
				texts = append(texts, p.Text)
			}
		case "image", "input_image":
			texts = append(texts, "[image]")
		}
	}
	return strings.Join(texts, "\n")
}
