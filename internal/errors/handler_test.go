package apperrors

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

type MockColorProvider struct{}

func (m MockColorProvider) Yellow() string { return "[YELLOW]" }
func (m MockColorProvider) Reset() string  { return "[RESET]" }

func TestHandleCalculationError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		err          error
		duration     time.Duration
		colors       ColorProvider
		expectedCode int
		expectedMsg  string
	}{
		{
			name:         "No Error",
			err:          nil,
			expectedCode: ExitSuccess,
		},
		{
			name:         "Context Deadline",
			err:          context.DeadlineExceeded,
			duration:     1 * time.Second,
			colors:       MockColorProvider{},
			expectedCode: ExitErrorTimeout,
			expectedMsg:  "Status: Failure (Timeout). The execution limit was reached after [YELLOW]1s[RESET].",
		},
		{
			name:         "Governor Timeout",
			err:          fmt.Errorf("run: %w", TimeoutError{Limit: time.Second, Elapsed: 1200 * time.Millisecond}),
			expectedCode: ExitErrorTimeout,
			expectedMsg:  "The execution limit of 1s was reached after 1.2s.",
		},
		{
			name:         "Canceled Error",
			err:          context.Canceled,
			duration:     500 * time.Millisecond,
			colors:       MockColorProvider{},
			expectedCode: ExitErrorCanceled,
			expectedMsg:  "[YELLOW]Status: Canceled after [YELLOW]500ms[RESET].[RESET]",
		},
		{
			name:         "Input Error",
			err:          NewInputError("index", "must not be negative", int64(-1)),
			expectedCode: ExitErrorInput,
			expectedMsg:  "Status: Invalid request. invalid input for 'index': must not be negative.",
		},
		{
			name:         "Config Error",
			err:          NewConfigError("unknown kind %q", "lucas"),
			expectedCode: ExitErrorConfig,
			expectedMsg:  `Status: Configuration error. unknown kind "lucas".`,
		},
		{
			name:         "Too Large",
			err:          CalculationTooLargeError{Reason: "prime index above ceiling", Target: 7, Limit: 5},
			expectedCode: ExitErrorTooLarge,
			expectedMsg:  "Status: Refused.",
		},
		{
			name:         "Precision",
			err:          PrecisionError{Where: "factorial", Value: float32(2)},
			expectedCode: ExitErrorPrecision,
			expectedMsg:  "Status: Failure (Precision).",
		},
		{
			name:         "Resource Exhausted",
			err:          ResourceExhaustedError{Limit: 1024, Observed: 2048},
			expectedCode: ExitErrorResource,
			expectedMsg:  "Peak 2.0 KiB exceeded the limit of 1.0 KiB.",
		},
		{
			name:         "Generic Error",
			err:          fmt.Errorf("random error"),
			expectedCode: ExitErrorGeneric,
			expectedMsg:  "Status: Failure. An unexpected error occurred: random error",
		},
		{
			name:         "Default Colors",
			err:          context.DeadlineExceeded,
			duration:     1 * time.Second,
			colors:       nil,
			expectedCode: ExitErrorTimeout,
			expectedMsg:  "Status: Failure (Timeout). The execution limit was reached after 1s.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := new(bytes.Buffer)
			code := HandleCalculationError(tt.err, tt.duration, out, tt.colors)

			if code != tt.expectedCode {
				t.Errorf("HandleCalculationError() code = %v, want %v", code, tt.expectedCode)
			}

			if tt.expectedMsg != "" && !strings.Contains(out.String(), tt.expectedMsg) {
				t.Errorf("HandleCalculationError() output = %q, want %q", out.String(), tt.expectedMsg)
			}
		})
	}
}
