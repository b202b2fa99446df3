// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

// =============================================================================
// ERRORS
// =============================================================================

// ErrWrite is returned when an artifact, transcript copy or index could not be
// written. Use errors.Is(err, ErrWrite) to check for this error.
var ErrWrite = &StorageError{Message: "write error"}

// ErrNoOutputDir is returned when no output location can be determined.
var ErrNoOutputDir = &StorageError{Message: "no output location"}

// StorageError represents an artifact storage error.
// It implements the error interface and can be compared using errors.Is.
type StorageError struct {
	Message string
	Path    string
	Err     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support for comparing storage errors.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

func writeError(path string, err error) error {
	return &StorageError{Message: ErrWrite.Message, Path: path, Err: err}
}
