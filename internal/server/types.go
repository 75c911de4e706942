package server

// RequestParseError represents a query parsing error with its HTTP status.
type RequestParseError struct {
	Message    string
	StatusCode int
}

// Error implements the error interface.
func (e RequestParseError) Error() string {
	return e.Message
}
