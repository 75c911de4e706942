package sequence

import (
	"context"
	"math/big"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	evaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "megacalc_engine_evaluations_total",
			Help: "The total number of engine evaluations processed",
		},
		[]string{"kind", "backend", "status"},
	)
	evaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "megacalc_engine_evaluation_duration_seconds",
			Help:    "The duration of engine evaluations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12),
		},
		[]string{"kind", "backend"},
	)
)

// instrumented decorates an Engine with tracing, metrics and a debug log line
// per evaluation.
type instrumented struct {
	inner Engine
}

// instrumentedScanner additionally forwards DigitScanner.
type instrumentedScanner struct {
	instrumented
	scanner DigitScanner
}

// Instrument wraps e so that each evaluation is traced, counted and logged.
// DigitScanner support of e is preserved. It panics if e is nil.
func Instrument(e Engine) Engine {
	if e == nil {
		panic("sequence: the Engine implementation cannot be nil")
	}
	switch e.(type) {
	case *instrumented, *instrumentedScanner:
		return e
	}
	base := instrumented{inner: e}
	if s, ok := e.(DigitScanner); ok {
		return &instrumentedScanner{instrumented: base, scanner: s}
	}
	return &base
}

func (i *instrumented) Kind() Kind   { return i.inner.Kind() }
func (i *instrumented) Name() string { return i.inner.Name() }

func (i *instrumented) EstimateIndexForDigits(d uint64) uint64 {
	return i.inner.EstimateIndexForDigits(d)
}

func (i *instrumented) ValueAtIndex(ctx context.Context, n uint64) (result *big.Int, err error) {
	ctx, done := i.observe(ctx, "ValueAtIndex", n)
	defer func() { done(err) }()
	return i.inner.ValueAtIndex(ctx, n)
}

func (s *instrumentedScanner) FirstWithDigits(ctx context.Context, d uint64) (result *big.Int, index uint64, err error) {
	ctx, done := s.observe(ctx, "FirstWithDigits", d)
	defer func() { done(err) }()
	return s.scanner.FirstWithDigits(ctx, d)
}

func (i *instrumented) observe(ctx context.Context, op string, arg uint64) (context.Context, func(error)) {
	kind, backend := i.inner.Kind().String(), i.inner.Name()
	ctx, span := otel.Tracer("megacalc/sequence").Start(ctx, kind+"."+op)
	span.SetAttributes(
		attribute.String("megacalc.backend", backend),
		attribute.String("megacalc.arg", strconv.FormatUint(arg, 10)),
	)
	start := time.Now()

	return ctx, func(err error) {
		duration := time.Since(start)
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		evaluationsTotal.WithLabelValues(kind, backend, status).Inc()
		evaluationDuration.WithLabelValues(kind, backend).Observe(duration.Seconds())

		log.Debug().
			Str("kind", kind).
			Str("backend", backend).
			Str("op", op).
			Uint64("arg", arg).
			Dur("duration", duration).
			Str("status", status).
			Msg("evaluation completed")
	}
}
