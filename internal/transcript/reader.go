// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// readerBufferSize is the initial read buffer. Lines longer than this are
// still read whole.
const readerBufferSize = 256 * 1024

// LineFunc receives one non-empty line. The slice is only valid for the
// duration of the call.
type LineFunc func(lineNo int, line []byte) error

// ReadLines streams the JSONL file at path, calling fn for every non-blank
// line. It reads what the file holds when reading reaches it and returns at
// EOF without waiting for further writes. A trailing line without a newline
// is delivered as well; a half-written record then surfaces as a parse error
// in fn rather than here.
func ReadLines(ctx context.Context, path string, fn LineFunc) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &NotFoundError{What: "transcript", Path: path}
		}
		return fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	return scanLines(ctx, f, fn)
}

func scanLines(ctx context.Context, r io.Reader, fn LineFunc) error {
	br := bufio.NewReaderSize(r, readerBufferSize)
	lineNo := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, readErr := br.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
				if err := fn(lineNo, trimmed); err != nil {
					return err
				}
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("read transcript: %w", readErr)
		}
	}
}

// FirstLine returns the first non-blank line of a file, for cheap header
// peeks during discovery.
func FirstLine(path string) ([]byte, error) {
	var first []byte
	errStop := errors.New("stop")
	err := ReadLines(context.Background(), path, func(_ int, line []byte) error {
		first = append([]byte(nil), line...)
		return errStop
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}
	return first, nil
}
