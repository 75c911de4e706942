// Package apperrors defines structured application error types,
// allowing for a clear distinction between error classes (input, feasibility,
// precision, resource limits, configuration) and for carrying the structured
// detail a presentation layer needs to render a precise message.
//
// Error Wrapping Guidelines:
// This package follows Go's error wrapping conventions using fmt.Errorf with %w.
// All error types support errors.As(), and those carrying a cause implement
// Unwrap() for errors.Is().
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess        = 0   // Indicates successful execution.
	ExitErrorGeneric   = 1   // Indicates a generic error.
	ExitErrorTimeout   = 2   // Indicates the execution deadline was reached.
	ExitErrorInput     = 3   // Indicates an invalid request.
	ExitErrorConfig    = 4   // Indicates a configuration error.
	ExitErrorTooLarge  = 5   // Indicates an infeasible request.
	ExitErrorResource  = 6   // Indicates the memory ceiling was breached.
	ExitErrorPrecision = 7   // Indicates a non-integer value reached the value path.
	ExitErrorCanceled  = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// InputError reports an invalid request: a negative index, a digit target
// below one, or both/neither of index and digit modes supplied. It is always
// detected before any computation starts.
type InputError struct {
	// Field names the offending input ("index", "digits", "mode", ...).
	Field string
	// Message describes why validation failed.
	Message string
	// Value is the rejected value (optional, may be nil).
	Value any
}

// Error returns the error message for an InputError.
func (e InputError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid input for '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid input: %s", e.Message)
}

// NewInputError creates a new InputError.
//
// Parameters:
//   - field: The name of the input that failed validation.
//   - message: A description of why validation failed.
//   - value: The invalid value (optional).
//
// Returns:
//   - error: A new InputError instance.
func NewInputError(field, message string, value any) error {
	return InputError{Field: field, Message: message, Value: value}
}

// CalculationTooLargeError reports a request that is analytically infeasible
// within the configured limits. It is raised before, or instead of, running
// an engine.
type CalculationTooLargeError struct {
	// Reason explains which bound was exceeded.
	Reason string
	// Target is the requested index or digit count.
	Target uint64
	// Limit is the ceiling that applies (an index ceiling, or the duration
	// limit in nanoseconds when Predicted is set).
	Limit uint64
	// Predicted is the estimator's forecast, zero when the rejection is analytic.
	Predicted time.Duration
}

// Error returns the error message for a CalculationTooLargeError.
func (e CalculationTooLargeError) Error() string {
	if e.Predicted > 0 {
		return fmt.Sprintf("calculation too large: %s (target %d, predicted %s, limit %s)",
			e.Reason, e.Target, e.Predicted, time.Duration(e.Limit))
	}
	return fmt.Sprintf("calculation too large: %s (target %d, limit %d)", e.Reason, e.Target, e.Limit)
}

// PrecisionError reports that a floating-point value reached a path that
// must carry exact integers only. It is an internal invariant violation.
type PrecisionError struct {
	// Where identifies the guarded site.
	Where string
	// Value is the offending value.
	Value any
}

// Error returns the error message for a PrecisionError.
func (e PrecisionError) Error() string {
	return fmt.Sprintf("precision violation in %s: non-integer value %v (%T)", e.Where, e.Value, e.Value)
}

// ResourceExhaustedError reports that the memory ceiling was breached while a
// governed computation was running.
type ResourceExhaustedError struct {
	// Limit is the configured ceiling in bytes.
	Limit uint64
	// Observed is the peak sample in bytes.
	Observed uint64
	// Elapsed is the time at cutoff.
	Elapsed time.Duration
}

// Error returns the error message for a ResourceExhaustedError.
func (e ResourceExhaustedError) Error() string {
	return fmt.Sprintf("memory limit exceeded: observed %s, limit %s (after %s)",
		FormatBytes(e.Observed), FormatBytes(e.Limit), e.Elapsed.Round(time.Millisecond))
}

// TimeoutError reports that the execution deadline elapsed while a governed
// computation was running.
type TimeoutError struct {
	// Limit is the configured maximum duration.
	Limit time.Duration
	// Elapsed is the time at cutoff.
	Elapsed time.Duration
}

// Error returns the error message for a TimeoutError.
func (e TimeoutError) Error() string {
	return fmt.Sprintf("time limit exceeded: elapsed %s, limit %s", e.Elapsed.Round(time.Millisecond), e.Limit)
}

// Unwrap lets errors.Is(err, context.DeadlineExceeded) match a TimeoutError.
func (e TimeoutError) Unwrap() error { return context.DeadlineExceeded }

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// ServerError represents errors that occur in the HTTP server component.
// It wraps an underlying error with additional context specific to the server operation.
type ServerError struct {
	// Message is a descriptive message about the server error.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns the error message for a ServerError.
func (e ServerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e ServerError) Unwrap() error { return e.Cause }

// NewServerError creates a new ServerError with a message and optional cause.
func NewServerError(message string, cause error) error {
	return ServerError{Message: message, Cause: cause}
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// It returns nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsTerminal reports whether err belongs to the calculation failure taxonomy.
// Every member is terminal for the current request.
func IsTerminal(err error) bool {
	var (
		inputErr     InputError
		tooLargeErr  CalculationTooLargeError
		precisionErr PrecisionError
		resourceErr  ResourceExhaustedError
		timeoutErr   TimeoutError
	)
	return errors.As(err, &inputErr) ||
		errors.As(err, &tooLargeErr) ||
		errors.As(err, &precisionErr) ||
		errors.As(err, &resourceErr) ||
		errors.As(err, &timeoutErr)
}

// FormatBytes renders a byte count with binary units, e.g. "1.5 GiB".
func FormatBytes(b uint64) string {
	return humanize.IBytes(b)
}
