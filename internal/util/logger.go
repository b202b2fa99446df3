// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level is a logging threshold.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Logger writes leveled diagnostics to stderr so stdout stays reserved for
// command output.
type Logger struct {
	*log.Logger
	level Level
}

// NewLogger creates a logger writing to w at the given threshold.
func NewLogger(w io.Writer, level Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{Logger: log.New(w, "", 0), level: level}
}

// Discard returns a logger that drops everything. Used as the default in tests
// and library callers that pass no logger.
func Discard() *Logger {
	return NewLogger(io.Discard, LevelError+1)
}

// Enabled reports whether messages at level are emitted.
func (l *Logger) Enabled(level Level) bool {
	return l != nil && level >= l.level
}

func (l *Logger) Debugf(format string, args ...any) {
	if l.Enabled(LevelDebug) {
		l.Printf("DEBUG: "+format, args...)
	}
}

func (l *Logger) Infof(format string, args ...any) {
	if l.Enabled(LevelInfo) {
		l.Printf(format, args...)
	}
}

func (l *Logger) Warnf(format string, args ...any) {
	if l.Enabled(LevelWarn) {
		l.Printf("Warning: "+format, args...)
	}
}

func (l *Logger) Errorf(format string, args ...any) {
	if l.Enabled(LevelError) {
		l.Printf("Error: "+format, args...)
	}
}

// Event logs a structured debug line in "NAME | key=value key=value" form.
// kv is read as alternating keys and values.
func (l *Logger) Event(name string, kv ...any) {
	if !l.Enabled(LevelDebug) {
		return
	}
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteString(" |")
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", kv[i], kv[i+1])
	}
	l.Print(sb.String())
}
