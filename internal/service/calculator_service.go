// Package service exposes the numeric core to its callers: a side-effect
// free Estimate and a governed Run.
package service

//go:generate mockgen -source=calculator_service.go -destination=mocks/mock_service.go -package=mocks

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/agbru/megacalc/internal/errors"
	"github.com/agbru/megacalc/internal/estimator"
	"github.com/agbru/megacalc/internal/governor"
	"github.com/agbru/megacalc/internal/logging"
	"github.com/agbru/megacalc/internal/sequence"
)

// Estimate is the forecast for a request.
type Estimate struct {
	// Predicted is the forecast run time.
	Predicted time.Duration
	// WillExceed reports whether Predicted is above the time limit.
	WillExceed bool
	// Model is the fitted run-time model.
	Model estimator.Model
	// ExpectedDigits is the analytic digit count of the result.
	ExpectedDigits uint64
}

// Large reports whether the result is expected to exceed
// sequence.LargeDigitThreshold digits.
func (e Estimate) Large() bool {
	return e.ExpectedDigits > sequence.LargeDigitThreshold
}

// Service defines the contract between the numeric core and its callers.
type Service interface {
	// Estimate forecasts the run time of req against the service's default
	// limits. It has no side effects.
	//
	// Parameters:
	//   - ctx: The context for cancellation.
	//   - req: The validated request.
	//
	// Returns:
	//   - Estimate: The forecast.
	//   - error: An error if the engine is unavailable or benchmarking failed.
	Estimate(ctx context.Context, req sequence.Request) (Estimate, error)

	// Run computes req under limits. It is the only governed entry point.
	//
	// Parameters:
	//   - ctx: The context for cancellation.
	//   - req: The validated request.
	//   - limits: The memory and time ceilings.
	//
	// Returns:
	//   - sequence.Result: The exact value and its measurements.
	//   - error: One of the apperrors kinds, or a context error.
	Run(ctx context.Context, req sequence.Request, limits governor.Limits) (sequence.Result, error)
}

// CalculatorService implements Service on top of an engine registry.
type CalculatorService struct {
	registry  *sequence.Registry
	backend   string
	estimator *estimator.Estimator
	limits    governor.Limits
	logger    logging.Logger
	govOpts   []governor.Option
}

// Ensure CalculatorService implements Service interface.
var _ Service = (*CalculatorService)(nil)

// Option configures a CalculatorService.
type Option func(*CalculatorService)

// WithBackend selects the engine backend, e.g. "gmp".
func WithBackend(name string) Option {
	return func(s *CalculatorService) { s.backend = name }
}

// WithEstimator replaces the default estimator.
func WithEstimator(e *estimator.Estimator) Option {
	return func(s *CalculatorService) { s.estimator = e }
}

// WithLimits sets the limits Estimate compares against.
func WithLimits(l governor.Limits) Option {
	return func(s *CalculatorService) { s.limits = l }
}

// WithLogger sets the service logger.
func WithLogger(l logging.Logger) Option {
	return func(s *CalculatorService) { s.logger = l }
}

// WithGovernorOptions passes options to every governed run.
func WithGovernorOptions(opts ...governor.Option) Option {
	return func(s *CalculatorService) { s.govOpts = append(s.govOpts, opts...) }
}

// NewCalculatorService creates a CalculatorService.
//
// Parameters:
//   - registry: The engine registry, usually DefaultRegistry.
//   - opts: Optional backend, estimator, limits and logger.
func NewCalculatorService(registry *sequence.Registry, opts ...Option) *CalculatorService {
	s := &CalculatorService{
		registry:  registry,
		backend:   sequence.DefaultBackend,
		estimator: estimator.New(),
		limits:    governor.DefaultLimits(),
		logger:    logging.NewDefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Estimate benchmarks the engine for req and compares the forecast with the
// service's limits.
func (s *CalculatorService) Estimate(ctx context.Context, req sequence.Request) (Estimate, error) {
	engine, err := s.registry.Get(req.Kind, s.backend)
	if err != nil {
		return Estimate{}, err
	}
	return s.estimate(ctx, engine, req, s.limits)
}

func (s *CalculatorService) estimate(ctx context.Context, engine sequence.Engine, req sequence.Request, limits governor.Limits) (Estimate, error) {
	p, err := s.estimator.Predict(ctx, engine, req.Mode, req.Target)
	if err != nil {
		return Estimate{}, apperrors.WrapError(err, "estimating %s", req)
	}
	return Estimate{
		Predicted:      p.Predicted,
		WillExceed:     p.Predicted > limits.MaxDuration,
		Model:          p.Model,
		ExpectedDigits: sequence.EstimateDigits(req.Kind, req.Mode, req.Target),
	}, nil
}

type computed struct {
	value *big.Int
	index uint64
}

// Run computes req under limits. With req.Strict set, the estimator runs
// first and a forecast above limits.MaxDuration aborts the request with a
// CalculationTooLargeError before any engine work starts.
func (s *CalculatorService) Run(ctx context.Context, req sequence.Request, limits governor.Limits) (sequence.Result, error) {
	runID := uuid.NewString()
	kind, mode := req.Kind.String(), req.Mode.String()
	start := time.Now()

	finish := func(err error) {
		calculationsTotal.WithLabelValues(kind, mode, Status(err)).Inc()
		calculationDuration.WithLabelValues(kind, mode).Observe(time.Since(start).Seconds())
	}

	if err := limits.Validate(); err != nil {
		finish(err)
		return sequence.Result{}, err
	}
	engine, err := s.registry.Get(req.Kind, s.backend)
	if err != nil {
		finish(err)
		return sequence.Result{}, err
	}

	if req.Strict {
		est, err := s.estimate(ctx, engine, req, limits)
		if err != nil {
			finish(err)
			return sequence.Result{}, err
		}
		if est.WillExceed {
			err := apperrors.CalculationTooLargeError{
				Reason:    "predicted run time exceeds the time limit",
				Target:    req.Target,
				Limit:     uint64(limits.MaxDuration),
				Predicted: est.Predicted,
			}
			s.logger.Warn("strict mode rejected request",
				logging.String("run_id", runID),
				logging.String("request", req.String()),
				logging.Duration("predicted", est.Predicted),
			)
			finish(err)
			return sequence.Result{}, err
		}
	}

	s.logger.Debug("governed run started",
		logging.String("run_id", runID),
		logging.String("request", req.String()),
		logging.String("backend", engine.Name()),
	)
	out, usage, err := governor.Run(ctx, limits, func(ctx context.Context) (computed, error) {
		v, idx, err := sequence.Compute(ctx, engine, req)
		return computed{value: v, index: idx}, err
	}, append([]governor.Option{governor.WithLogger(s.logger)}, s.govOpts...)...)
	finish(err)
	if err != nil {
		s.logger.Error("governed run failed", err,
			logging.String("run_id", runID),
			logging.String("request", req.String()),
			logging.Duration("elapsed", usage.Elapsed),
		)
		return sequence.Result{}, err
	}

	res := sequence.Result{
		Value:         out.value,
		ResolvedIndex: out.index,
		DigitCount:    sequence.DigitCount(out.value),
		Elapsed:       usage.Elapsed,
		PeakMemory:    usage.PeakMemory,
	}
	s.logger.Info("governed run completed",
		logging.String("run_id", runID),
		logging.String("request", req.String()),
		logging.Uint64("digits", res.DigitCount),
		logging.Duration("elapsed", res.Elapsed),
		logging.Uint64("peak_memory", res.PeakMemory),
	)
	return res, nil
}

// Status classifies err into the label used by metrics, logs and API
// responses: success, timeout, memory, too_large, invalid, precision,
// canceled or error.
func Status(err error) string {
	var (
		inputErr  apperrors.InputError
		tooLarge  apperrors.CalculationTooLargeError
		exhausted apperrors.ResourceExhaustedError
		timeout   apperrors.TimeoutError
		precision apperrors.PrecisionError
		cfgErr    apperrors.ConfigError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &timeout):
		return "timeout"
	case errors.As(err, &exhausted):
		return "memory"
	case errors.As(err, &tooLarge):
		return "too_large"
	case errors.As(err, &inputErr), errors.As(err, &cfgErr):
		return "invalid"
	case errors.As(err, &precision):
		return "precision"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
