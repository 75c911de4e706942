/*
Package models defines the JSON documents megacalc emits.

The same shapes are printed by the CLI with --json and returned by the HTTP
server, so scripts can consume either interchangeably.
*/
package models

// CalculationResult is the JSON form of a successful calculation.
type CalculationResult struct {
	// Kind is the sequence name: fibonacci, factorial or prime.
	Kind string `json:"kind"`
	// Mode is "index" or "digits".
	Mode string `json:"mode"`
	// Target is the requested index or minimum digit count.
	Target uint64 `json:"target"`
	// ResolvedIndex is the index that produced Value.
	ResolvedIndex uint64 `json:"resolved_index"`
	// Digits is the decimal length of Value.
	Digits uint64 `json:"digits"`
	// Value is the exact decimal result. It is omitted when truncated output
	// was requested.
	Value string `json:"value,omitempty"`
	// Checksum is the xxh64 digest of Value, as 16 hex digits.
	Checksum string `json:"checksum"`
	// DurationMS is the governed run time in milliseconds.
	DurationMS float64 `json:"duration_ms"`
	// PeakMemoryBytes is the highest memory sample of the run.
	PeakMemoryBytes uint64 `json:"peak_memory_bytes"`
	// ResultFile is the path of the saved result, when one was written.
	ResultFile string `json:"result_file,omitempty"`
	// RequestID identifies the server request.
	RequestID string `json:"request_id,omitempty"`
}

// EstimateResult is the JSON form of a run-time forecast.
type EstimateResult struct {
	Kind   string `json:"kind"`
	Mode   string `json:"mode"`
	Target uint64 `json:"target"`
	// PredictedMS is the forecast run time in milliseconds.
	PredictedMS float64 `json:"predicted_ms"`
	// LimitMS is the time limit the forecast was compared with.
	LimitMS float64 `json:"limit_ms"`
	// WillExceed reports whether PredictedMS is above LimitMS.
	WillExceed bool `json:"will_exceed"`
	// ExpectedDigits is the analytic digit count of the result.
	ExpectedDigits uint64 `json:"expected_digits"`
	// Model names the complexity model, e.g. "n·ln(n)".
	Model     string `json:"model"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse is the JSON form of a failure.
type ErrorResponse struct {
	// Error is the short error code, e.g. "timeout" or "invalid".
	Error string `json:"error"`
	// Message is a descriptive error message.
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version,omitempty"`
	Timestamp int64  `json:"timestamp"`
}
