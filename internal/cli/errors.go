// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Unified error handling for all answerline CLI commands.
//
// STANDARDIZED PATTERN:
//   - ALWAYS return errors (never just print and return nil)
//   - Let the caller decide how to display errors
//   - Use structured error types for better error handling
//   - Provide helpers for common error scenarios
//
// ERROR HANDLING: Errors must not be silently ignored

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/answerline/internal/answer"
)

// =============================================================================
// EXIT CODES - Specific codes for different error categories
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates the answer service could not be reached
	ExitNetworkError = 4
	// ExitStreamError indicates the service reported an error mid-stream
	ExitStreamError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 6
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 7
)

// =============================================================================
// ERROR TYPES FOR STRUCTURED ERROR HANDLING
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "ask", "config")
	Action  string // Action being performed (e.g., "stream", "set")
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

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	Resource string // Type of resource (e.g., "config key", "file")
	ID       string // Identifier that was not found
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// =============================================================================
// ERROR CONSTRUCTION HELPERS
// =============================================================================

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{
		Command: command,
		Action:  action,
		Reason:  reason,
		Err:     err,
	}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// NewValidationErrorWithExample creates a validation error with an example.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Reason:  reason,
		Example: example,
	}
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(resource, id string) error {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// =============================================================================
// ERROR DISPLAY HELPERS
// =============================================================================

// DisplayError displays an error in a consistent format.
// This should be called by command handlers before returning an error.
//
// Service errors are shown via answer.UserMessage so transport failures
// collapse to one stable message and stream errors surface verbatim.
//
// In JSON mode, outputs structured JSON error.
// In normal mode, displays formatted error message.
func DisplayError(err error, jsonMode bool) {
	if err == nil {
		return
	}

	if jsonMode {
		DisplayErrorJSON(err)
		return
	}

	msg := err.Error()
	var clientErr *answer.ClientError
	if errors.As(err, &clientErr) {
		msg = answer.UserMessage(err)
	}

	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("[ERROR]"), msg)
	fmt.Fprintln(os.Stderr)
}

// DisplayErrorJSON outputs an error as JSON.
func DisplayErrorJSON(err error) {
	output := map[string]interface{}{
		"error":   err.Error(),
		"success": false,
	}

	// Add structured error details if available
	var commandErr *CommandError
	var validationErr *ValidationError
	var notFoundErr *NotFoundError
	var clientErr *answer.ClientError

	switch {
	case errors.As(err, &clientErr):
		output["error"] = answer.UserMessage(err)
		switch {
		case answer.IsTimeout(err):
			output["error_type"] = "timeout_error"
		case answer.IsStreamError(err):
			output["error_type"] = "stream_error"
		default:
			output["error_type"] = "network_error"
		}

	case errors.As(err, &commandErr):
		output["error_type"] = "command_error"
		output["command"] = commandErr.Command
		output["action"] = commandErr.Action
		output["reason"] = commandErr.Reason
		if commandErr.Err != nil {
			output["underlying_error"] = commandErr.Err.Error()
		}

	case errors.As(err, &validationErr):
		output["error_type"] = "validation_error"
		output["field"] = validationErr.Field
		output["value"] = validationErr.Value
		output["reason"] = validationErr.Reason
		if validationErr.Example != "" {
			output["example"] = validationErr.Example
		}

	case errors.As(err, &notFoundErr):
		output["error_type"] = "not_found_error"
		output["resource"] = notFoundErr.Resource
		output["id"] = notFoundErr.ID

	default:
		output["error_type"] = "generic_error"
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	encoder.Encode(output)
}

// =============================================================================
// ERROR HANDLING PATTERNS
// =============================================================================

// HandleError is a convenience function that displays and returns an error.
// Use this as the final step in error handling.
//
// Example:
//
//	if err != nil {
//	    return HandleError(err, jsonMode)
//	}
func HandleError(err error, jsonMode bool) error {
	if err == nil {
		return nil
	}

	DisplayError(err, jsonMode)
	return err
}

// HandleErrorAndExit displays an error and exits with an appropriate exit code.
// Use this for fatal errors in main command handlers.
//
// Example:
//
//	if err := validateConfig(); err != nil {
//	    HandleErrorAndExit(err, jsonMode)
//	}
func HandleErrorAndExit(err error, jsonMode bool) {
	if err == nil {
		return
	}

	DisplayError(err, jsonMode)
	os.Exit(GetExitCode(err))
}

// GetExitCode determines the appropriate exit code for an error.
// This enables specific exit codes for different error categories:
//   - ExitUsageError (2): ValidationError
//   - ExitConfigError (3): config-related errors
//   - ExitNetworkError (4): answer service unreachable
//   - ExitStreamError (5): service reported an error mid-stream
//   - ExitNotFoundError (6): NotFoundError
//   - ExitTimeoutError (7): request or stream timed out
//   - ExitGeneralError (1): all other errors
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Check for specific error types
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ExitUsageError
	}

	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		return ExitNotFoundError
	}

	// Service errors carry their own taxonomy; timeout is checked first
	// because timeouts are also transport failures.
	if answer.IsTimeout(err) {
		return ExitTimeoutError
	}
	if answer.IsStreamError(err) {
		return ExitStreamError
	}
	if answer.IsTransport(err) {
		return ExitNetworkError
	}

	// Check error message content for additional categorization
	errMsg := strings.ToLower(err.Error())

	// Config errors
	if strings.Contains(errMsg, "config") ||
		strings.Contains(errMsg, "configuration") ||
		strings.Contains(errMsg, "settings") {
		return ExitConfigError
	}

	// Network errors
	if strings.Contains(errMsg, "network") ||
		strings.Contains(errMsg, "connection") ||
		strings.Contains(errMsg, "unreachable") ||
		strings.Contains(errMsg, "dial") {
		return ExitNetworkError
	}

	// Timeout errors
	if strings.Contains(errMsg, "timed out") ||
		strings.Contains(errMsg, "deadline exceeded") {
		return ExitTimeoutError
	}

	return ExitGeneralError
}

// WrapError wraps an error with additional context.
// Use this to add context as errors bubble up the call stack.
//
// Example:
//
//	result, err := doSomething()
//	if err != nil {
//	    return WrapError(err, "failed to do something")
//	}
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// =============================================================================
// COMMON ERROR CONSTRUCTORS
// =============================================================================

// ErrMissingArgument creates an error for missing required arguments.
func ErrMissingArgument(argName, usage string) error {
	return NewValidationErrorWithExample(
		argName,
		"",
		"required argument missing",
		usage,
	)
}

// ErrInvalidFormat creates an error for invalid format.
func ErrInvalidFormat(field, value, expected string) error {
	return NewValidationErrorWithExample(
		field,
		value,
		"invalid format",
		expected,
	)
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return NewNotFoundError(resource, id)
}

// =============================================================================
// ERROR CHECKING HELPERS
// =============================================================================

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsNotFoundError checks if an error is a not found error.
func IsNotFoundError(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// IsCommandError checks if an error is a command error.
func IsCommandError(err error) bool {
	var commandErr *CommandError
	return errors.As(err, &commandErr)
}
