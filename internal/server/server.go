package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agbru/megacalc/internal/config"
	apperrors "github.com/agbru/megacalc/internal/errors"
	"github.com/agbru/megacalc/internal/logging"
	"github.com/agbru/megacalc/internal/service"
)

// Server represents the HTTP API of megacalc. It wraps the standard
// http.Server and adds the middleware chain and graceful shutdown.
type Server struct {
	service        service.Service
	cfg            config.AppConfig
	httpServer     *http.Server
	logger         logging.Logger
	rateLimiter    *RateLimiter
	securityConfig SecurityConfig
	metricsHandler http.Handler
	timeouts       Timeouts
	version        string
}

// NewServer creates a new Server backed by svc.
//
// Parameters:
//   - svc: The calculation service every request goes through.
//   - cfg: The application configuration (port, limits, max target).
//   - opts: Optional functional options for customizing the server (e.g., WithLogger).
//
// Returns:
//   - *Server: A pointer to the initialized Server.
func NewServer(svc service.Service, cfg config.AppConfig, opts ...Option) *Server {
	security := DefaultSecurityConfig()
	if cfg.MaxServerTarget > 0 {
		security.MaxTarget = cfg.MaxServerTarget
	}
	s := &Server{
		service:        svc,
		cfg:            cfg,
		logger:         logging.NewDefaultLogger(),
		securityConfig: security,
		metricsHandler: promhttp.Handler(),
		timeouts:       DefaultServerTimeouts(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.rateLimiter == nil {
		s.rateLimiter = NewRateLimiter(DefaultRateLimiterConfig())
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/run", s.wrapWithMiddleware("/run", s.handleRun))
	mux.HandleFunc("/estimate", s.wrapWithMiddleware("/estimate", s.handleEstimate))
	mux.HandleFunc("/health", s.wrapWithMiddleware("/health", s.handleHealth))
	mux.HandleFunc("/metrics", s.wrapWithMiddleware("/metrics", s.handleMetrics))

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  s.timeouts.ReadTimeout,
		WriteTimeout: s.timeouts.WriteTimeout,
		IdleTimeout:  s.timeouts.IdleTimeout,
	}

	return s
}

// Handler returns the routed handler, including every middleware.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// wrapWithMiddleware applies the full middleware chain to a handler:
// Security -> RequestID -> RateLimit -> Logging -> Metrics -> Handler.
func (s *Server) wrapWithMiddleware(route string, handler http.HandlerFunc) http.HandlerFunc {
	wrapped := s.metricsMiddleware(route, handler)
	wrapped = s.loggingMiddleware(wrapped)
	wrapped = RateLimitMiddleware(s.rateLimiter, wrapped)
	wrapped = RequestIDMiddleware(wrapped)
	wrapped = SecurityMiddleware(s.securityConfig, wrapped)
	return wrapped
}

// Start listens on the configured port until ctx is done, then shuts down
// gracefully within the shutdown timeout.
//
// Parameters:
//   - ctx: Canceled on SIGINT or SIGTERM by the caller.
//
// Returns:
//   - error: A ServerError if the server fails to start or to shut down.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.rateLimiter.Stop()
		return apperrors.NewServerError("server failed to start", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.rateLimiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening",
			logging.String("addr", ln.Addr().String()),
			logging.Uint64("max_target", s.securityConfig.MaxTarget),
			logging.Duration("timeout", s.cfg.Timeout),
		)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining requests")
	case err, ok := <-errCh:
		if ok {
			return apperrors.NewServerError("server failed", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeouts.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return apperrors.NewServerError("failed to gracefully shutdown server", err)
	}

	s.logger.Info("server stopped gracefully")
	return nil
}
