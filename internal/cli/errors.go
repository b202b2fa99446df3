// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes shared by every command.
//
// Commands always return errors and let Execute display them; nothing prints
// an error and then returns nil.

package cli

import (
	"errors"
	"fmt"

	"github.com/jeranaias/convexport/internal/config"
	"github.com/jeranaias/convexport/internal/storage"
	"github.com/jeranaias/convexport/internal/transcript"
)

// =============================================================================
// EXIT CODES - Specific codes for different error categories
// =============================================================================

const (
	// ExitSuccess indicates successful execution, including nothing to export
	ExitSuccess = 0
	// ExitGeneralError indicates a general error or a batch with failures
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates a configuration file that cannot be used
	ExitConfigError = 3
	// ExitNotFoundError indicates no sessions root or requested session
	ExitNotFoundError = 7
)

// =============================================================================
// ERROR TYPES FOR STRUCTURED ERROR HANDLING
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "export", "hook")
	Action  string // Action being performed (e.g., "discover", "write")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure for user input.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   string // Value that was provided
	Reason  string // Why validation failed
	Example string // Example of valid value (optional)
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError represents a session that could not be located.
type NotFoundError struct {
	Resource string // Type of resource (e.g., "session", "transcript")
	ID       string // Identifier that was not found
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// Is lets errors.Is(err, transcript.ErrInputNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == transcript.ErrInputNotFound
}

// BatchError reports a run in which some sessions failed. The per-session
// reasons have already been printed.
type BatchError struct {
	Failed int
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d session(s) failed to export", e.Failed)
}

// =============================================================================
// ERROR CONSTRUCTION HELPERS
// =============================================================================

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// NewValidationErrorWithExample creates a validation error with an example.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Example: example}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode determines the appropriate exit code for an error.
//   - ExitUsageError (2): ValidationError
//   - ExitConfigError (3): config.ErrConfigParse
//   - ExitNotFoundError (7): missing sessions root, session or transcript
//   - ExitGeneralError (1): all other errors, including BatchError
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ExitUsageError
	}
	if errors.Is(err, transcript.ErrInputNotFound) {
		return ExitNotFoundError
	}
	if errors.Is(err, config.ErrConfigParse) {
		return ExitConfigError
	}
	return ExitGeneralError
}

// errorLabel names the error kind for display.
func errorLabel(err error) string {
	switch {
	case errors.Is(err, transcript.ErrInputNotFound):
		return "NOT FOUND"
	case errors.Is(err, storage.ErrWrite), errors.Is(err, storage.ErrNoOutputDir):
		return "WRITE ERROR"
	case errors.Is(err, config.ErrConfigParse):
		return "CONFIG ERROR"
	default:
		return "ERROR"
	}
}
