// Package estimator predicts how long a computation will take.
//
// It times the engine on a handful of small, log-spaced inputs, fits a line
// in a complexity-specific coordinate and evaluates it at the real target.
// Benchmarks run one after the other, outside any governed run.
package estimator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/agbru/megacalc/internal/errors"
	"github.com/agbru/megacalc/internal/sequence"
)

// Prediction is the forecast for one target.
type Prediction struct {
	Predicted time.Duration
	Model     Model
	Samples   []Sample
}

// InputSet returns the benchmark sizes for a kind and mode.
type InputSet func(kind sequence.Kind, mode sequence.Mode) []uint64

// BenchmarkInputs returns the default benchmark sizes.
func BenchmarkInputs(kind sequence.Kind, mode sequence.Mode) []uint64 {
	switch kind {
	case sequence.Prime:
		if mode == sequence.ByDigits {
			return []uint64{2, 3, 4, 5, 6}
		}
		return []uint64{100, 500, 1000, 2000, 5000}
	case sequence.Factorial:
		return []uint64{50, 100, 200, 500, 1000}
	default:
		return []uint64{100, 500, 1000, 2000, 5000}
	}
}

// Estimator runs micro-benchmarks and fits run-time models.
type Estimator struct {
	inputs InputSet
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithInputs replaces the benchmark sizes.
func WithInputs(inputs InputSet) Option {
	return func(e *Estimator) { e.inputs = inputs }
}

// New creates an Estimator using BenchmarkInputs.
func New(opts ...Option) *Estimator {
	e := &Estimator{inputs: BenchmarkInputs}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Predict forecasts the run time of engine for target in mode with a
// default Estimator.
func Predict(ctx context.Context, engine sequence.Engine, mode sequence.Mode, target uint64) (Prediction, error) {
	return New().Predict(ctx, engine, mode, target)
}

// Predict benchmarks engine and forecasts its run time for target in mode.
//
// Parameters:
//   - ctx: The context for cancellation. It is checked between benchmarks.
//   - engine: The engine to time.
//   - mode: Index or digit mode, selecting the benchmark inputs.
//   - target: The index or digit count to forecast.
//
// Returns:
//   - Prediction: The predicted duration, the fitted model and the samples.
//   - error: ErrNoSamples if every benchmark failed, or ctx's error.
func (e *Estimator) Predict(ctx context.Context, engine sequence.Engine, mode sequence.Mode, target uint64) (Prediction, error) {
	ctx, span := otel.Tracer("megacalc/estimator").Start(ctx, "estimator.Predict")
	defer span.End()
	span.SetAttributes(
		attribute.String("kind", engine.Kind().String()),
		attribute.String("mode", mode.String()),
	)

	samples, err := e.Benchmark(ctx, engine, mode, e.inputs(engine.Kind(), mode))
	if err != nil {
		return Prediction{}, err
	}
	model, err := Fit(TransformFor(engine.Kind()), samples)
	if err != nil {
		return Prediction{}, fmt.Errorf("%s %s: %w", engine.Kind(), mode, err)
	}
	p := Prediction{Predicted: model.Predict(target), Model: model, Samples: samples}
	span.SetAttributes(attribute.Int64("predicted_ns", int64(p.Predicted)))
	log.Debug().
		Str("kind", engine.Kind().String()).
		Str("model", model.Transform.String()).
		Float64("slope", model.Slope).
		Float64("intercept", model.Intercept).
		Dur("predicted", p.Predicted).
		Msg("run time estimated")
	return p, nil
}

// Benchmark times engine sequentially on each input. Inputs whose
// evaluation fails are skipped; cancellation of ctx stops the loop.
func (e *Estimator) Benchmark(ctx context.Context, engine sequence.Engine, mode sequence.Mode, inputs []uint64) ([]Sample, error) {
	samples := make([]Sample, 0, len(inputs))
	for _, n := range inputs {
		if err := sequence.Checkpoint(ctx); err != nil {
			return nil, err
		}
		req := sequence.Request{Kind: engine.Kind(), Mode: mode, Target: n}
		start := time.Now()
		_, _, err := sequence.Compute(ctx, engine, req)
		elapsed := time.Since(start)
		if err != nil {
			if apperrors.IsContextError(err) {
				return nil, err
			}
			log.Debug().Err(err).Uint64("input", n).Msg("benchmark input skipped")
			continue
		}
		samples = append(samples, Sample{InputSize: n, Elapsed: elapsed})
	}
	return samples, nil
}
