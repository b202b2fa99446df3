// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"errors"
	"fmt"
)

var (
	// ErrInputNotFound means a transcript, session or sessions root could not
	// be located.
	ErrInputNotFound = errors.New("input not found")

	// ErrRecordParse marks one JSONL line that could not be decoded or has no
	// discriminator. It never aborts a scan.
	ErrRecordParse = errors.New("record parse error")
)

// NotFoundError describes a missing input.
type NotFoundError struct {
	What string // "sessions directory", "transcript", "session"
	Path string
}

func (e *NotFoundError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s not found", e.What)
	}
	return fmt.Sprintf("%s not found: %s", e.What, e.Path)
}

// Is makes errors.Is(err, ErrInputNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrInputNotFound
}

// RecordError describes a malformed line.
type RecordError struct {
	Path string
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrRecordParse) match.
func (e *RecordError) Is(target error) bool {
	return target == ErrRecordParse
}
