package server

import (
	"log"
	"time"

	"github.com/agbru/megacalc/internal/logging"
)

// Option customizes a Server built by NewServer.
type Option func(*Server)

// WithLogger routes server logs to logger. A nil logger keeps the default.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStdLogger routes server logs to a standard library logger.
func WithStdLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logging.NewStdLoggerAdapter(logger)
		}
	}
}

// WithTimeouts replaces the HTTP and per-request timeouts.
func WithTimeouts(timeouts Timeouts) Option {
	return func(s *Server) { s.timeouts = timeouts }
}

// WithVersion sets the version reported by /health.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// Timeouts bound the HTTP server and each calculation request.
type Timeouts struct {
	// RequestTimeout cancels /run and /estimate independently of the
	// governor's time limit. It should exceed that limit so the governor
	// reports the timeout.
	RequestTimeout time.Duration
	// ShutdownTimeout bounds the drain of in-flight requests.
	ShutdownTimeout time.Duration
	// ReadTimeout, WriteTimeout and IdleTimeout are passed to http.Server.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerTimeouts returns timeouts sized for the default five minute
// calculation limit: the request and write timeouts leave headroom above it.
func DefaultServerTimeouts() Timeouts {
	return Timeouts{
		RequestTimeout:  6 * time.Minute,
		ShutdownTimeout: 30 * time.Second,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    7 * time.Minute,
		IdleTimeout:     2 * time.Minute,
	}
}
