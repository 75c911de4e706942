// Package governor runs a computation under a wall-clock ceiling and a
// memory ceiling.
//
// The computation runs on its own goroutine next to a monitor that samples
// process memory at a fixed interval and watches the deadline. On a breach
// the governor cancels the computation's context and returns at once with a
// ResourceExhaustedError or a TimeoutError.
//
// Go cannot stop a goroutine from the outside. Engines observe cancellation
// at their next checkpoint, which for a single huge multiplication can be
// long after the breach. The governor does not wait for it: the goroutine is
// abandoned, its result is discarded when it eventually returns, and the
// event is counted in megacalc_governor_abandoned_total. Memory the abandoned
// goroutine holds is released only once it reaches a checkpoint.
package governor

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/megacalc/internal/errors"
	"github.com/agbru/megacalc/internal/logging"
)

// Usage describes the resources consumed by a governed run.
type Usage struct {
	Elapsed    time.Duration
	PeakMemory uint64
}

// Work is a computation run under governance. It must observe ctx.
type Work[T any] func(ctx context.Context) (T, error)

type options struct {
	sampler Sampler
	logger  logging.Logger
}

// Option configures a governed run.
type Option func(*options)

// WithSampler replaces the platform memory sampler.
func WithSampler(s Sampler) Option {
	return func(o *options) { o.sampler = s }
}

// WithLogger sets the logger breaches are reported to.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

type outcome[T any] struct {
	value T
	err   error
	at    time.Time
}

// Run executes work under limits.
//
// Parameters:
//   - ctx: The parent context. Its cancellation stops the run like a breach.
//   - limits: The ceilings to enforce; they must pass Validate.
//   - work: The computation.
//   - opts: Optional sampler and logger.
//
// Returns:
//   - T: The value returned by work, or the zero value on failure.
//   - Usage: Elapsed time and the peak sampled memory.
//   - error: work's own error, a ResourceExhaustedError, a TimeoutError, or
//     the parent context's error.
func Run[T any](ctx context.Context, limits Limits, work Work[T], opts ...Option) (T, Usage, error) {
	var zero T
	if err := limits.Validate(); err != nil {
		return zero, Usage{}, err
	}
	o := options{sampler: NewSampler(), logger: logging.NewDefaultLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, span := otel.Tracer("megacalc/governor").Start(ctx, "governor.Run")
	span.SetAttributes(
		attribute.Int64("limit.memory_bytes", int64(min(limits.MaxMemoryBytes, 1<<62))),
		attribute.String("limit.duration", limits.MaxDuration.String()),
	)
	defer span.End()

	var peak atomic.Uint64
	record := func() uint64 {
		v, err := o.sampler.Sample()
		if err != nil {
			o.logger.Debug("memory sample failed", logging.Err(err))
			return 0
		}
		for {
			cur := peak.Load()
			if v <= cur || peak.CompareAndSwap(cur, v) {
				return v
			}
		}
	}

	start := time.Now()
	record()

	workCtx, cancelWork := context.WithCancelCause(ctx)
	defer cancelWork(context.Canceled)

	// Buffered so that an abandoned worker can always deliver and exit.
	done := make(chan outcome[T], 1)
	go func() {
		v, err := work(workCtx)
		done <- outcome[T]{value: v, err: err, at: time.Now()}
	}()

	var (
		result   outcome[T]
		finished atomic.Bool
		stop     = make(chan struct{})
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		select {
		case result = <-done:
			finished.Store(true)
			close(stop)
		case <-gctx.Done():
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(limits.SampleInterval)
		defer ticker.Stop()
		deadline := time.NewTimer(limits.MaxDuration)
		defer deadline.Stop()
		for {
			select {
			case <-stop:
				return nil
			case <-gctx.Done():
				return nil
			case <-deadline.C:
				if finishedFirst(stop) {
					return nil
				}
				return apperrors.TimeoutError{Limit: limits.MaxDuration, Elapsed: time.Since(start)}
			case <-ticker.C:
				if v := record(); v > limits.MaxMemoryBytes {
					if finishedFirst(stop) {
						return nil
					}
					return apperrors.ResourceExhaustedError{
						Limit: limits.MaxMemoryBytes, Observed: v, Elapsed: time.Since(start),
					}
				}
			}
		}
	})

	breach := g.Wait()
	if breach != nil && !finished.Load() {
		select {
		case result = <-done:
			finished.Store(true)
		default:
		}
	}
	// A result delivered before the breach was detected wins.
	if breach != nil && finished.Load() && result.at.Sub(start) <= breachElapsed(breach) {
		breach = nil
	}
	if finished.Load() {
		record()
	}
	usage := Usage{Elapsed: time.Since(start), PeakMemory: peak.Load()}
	peakMemoryBytes.Set(float64(usage.PeakMemory))
	span.SetAttributes(attribute.Int64("peak_memory_bytes", int64(min(usage.PeakMemory, 1<<62))))

	if breach != nil {
		cancelWork(breach)
		reason := breachReason(breach)
		breachesTotal.WithLabelValues(reason).Inc()
		fields := []logging.Field{
			logging.String("reason", reason),
			logging.Duration("elapsed", usage.Elapsed),
			logging.Uint64("peak_memory", usage.PeakMemory),
		}
		if !finished.Load() {
			abandonedTotal.Inc()
			fields = append(fields, logging.Bool("abandoned", true))
		}
		o.logger.Warn("governed run stopped by limit", fields...)
		span.RecordError(breach)
		span.SetStatus(codes.Error, reason)
		return zero, usage, breach
	}

	if !finished.Load() {
		// The parent context ended first.
		cancelWork(context.Cause(ctx))
		abandonedTotal.Inc()
		span.SetStatus(codes.Error, "canceled")
		return zero, usage, ctx.Err()
	}
	if result.err != nil {
		span.RecordError(result.err)
		span.SetStatus(codes.Error, result.err.Error())
		return zero, usage, result.err
	}
	span.SetStatus(codes.Ok, "")
	return result.value, usage, nil
}

// finishedFirst reports whether the work has already delivered its result.
func finishedFirst(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}

func breachElapsed(err error) time.Duration {
	var timeout apperrors.TimeoutError
	if errors.As(err, &timeout) {
		return timeout.Elapsed
	}
	var exhausted apperrors.ResourceExhaustedError
	if errors.As(err, &exhausted) {
		return exhausted.Elapsed
	}
	return 0
}

func breachReason(err error) string {
	var timeout apperrors.TimeoutError
	if errors.As(err, &timeout) {
		return "timeout"
	}
	return "memory"
}
