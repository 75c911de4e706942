package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ColorProvider defines the interface for obtaining terminal color codes.
// This abstraction breaks the import cycle with cli.
type ColorProvider interface {
	Yellow() string
	Reset() string
}

// DefaultColorProvider provides no color codes (for non-terminal output).
type DefaultColorProvider struct{}

func (d DefaultColorProvider) Yellow() string { return "" }
func (d DefaultColorProvider) Reset() string  { return "" }

// HandleCalculationError formats and prints error messages related to failed
// calculations. It distinguishes every member of the failure taxonomy so the
// user gets the limit, the observed value and the requested target.
//
// Parameters:
//   - err: The error that occurred.
//   - duration: The duration of the calculation before it failed.
//   - out: The io.Writer to which the error message will be written.
//   - colors: Provider for terminal color codes (can be nil for no colors).
//
// Returns:
//   - int: The appropriate exit code for the error type.
func HandleCalculationError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}
	if colors == nil {
		colors = DefaultColorProvider{}
	}

	msgSuffix := ""
	if duration > 0 {
		msgSuffix = fmt.Sprintf(" after %s%s%s", colors.Yellow(), duration.Round(time.Millisecond), colors.Reset())
	}

	var (
		inputErr     InputError
		tooLargeErr  CalculationTooLargeError
		precisionErr PrecisionError
		resourceErr  ResourceExhaustedError
		timeoutErr   TimeoutError
		configErr    ConfigError
	)
	switch {
	case errors.As(err, &inputErr):
		fmt.Fprintf(out, "Status: Invalid request. %v.\n", inputErr)
		return ExitErrorInput
	case errors.As(err, &configErr):
		fmt.Fprintf(out, "Status: Configuration error. %v.\n", configErr)
		return ExitErrorConfig
	case errors.As(err, &tooLargeErr):
		fmt.Fprintf(out, "Status: Refused. The %v.\n", tooLargeErr)
		return ExitErrorTooLarge
	case errors.As(err, &precisionErr):
		fmt.Fprintf(out, "Status: Failure (Precision). %v%s.\n", precisionErr, msgSuffix)
		return ExitErrorPrecision
	case errors.As(err, &resourceErr):
		fmt.Fprintf(out, "Status: Failure (Memory). Peak %s%s%s exceeded the limit of %s%s.\n",
			colors.Yellow(), FormatBytes(resourceErr.Observed), colors.Reset(), FormatBytes(resourceErr.Limit), msgSuffix)
		return ExitErrorResource
	case errors.As(err, &timeoutErr):
		fmt.Fprintf(out, "Status: Failure (Timeout). The execution limit of %s was reached after %s%s%s.\n",
			timeoutErr.Limit, colors.Yellow(), timeoutErr.Elapsed.Round(time.Millisecond), colors.Reset())
		return ExitErrorTimeout
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(out, "Status: Failure (Timeout). The execution limit was reached%s.\n", msgSuffix)
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(out, "%sStatus: Canceled%s.%s\n", colors.Yellow(), msgSuffix, colors.Reset())
		return ExitErrorCanceled
	}
	fmt.Fprintf(out, "Status: Failure. An unexpected error occurred: %v\n", err)
	return ExitErrorGeneric
}
