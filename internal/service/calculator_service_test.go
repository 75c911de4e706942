package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/agbru/megacalc/internal/errors"
	"github.com/agbru/megacalc/internal/estimator"
	"github.com/agbru/megacalc/internal/governor"
	"github.com/agbru/megacalc/internal/logging"
	"github.com/agbru/megacalc/internal/sequence"
	"github.com/agbru/megacalc/internal/sequence/mocks"
)

func smallInputs(sequence.Kind, sequence.Mode) []uint64 { return []uint64{10, 20, 40, 80, 160} }

func newTestService(opts ...Option) *CalculatorService {
	base := []Option{
		WithLogger(logging.Nop{}),
		WithEstimator(estimator.New(estimator.WithInputs(smallInputs))),
		WithGovernorOptions(governor.WithSampler(governor.SamplerFunc(func() (uint64, error) { return 1 << 20, nil }))),
	}
	return NewCalculatorService(DefaultRegistry(0), append(base, opts...)...)
}

func testLimits() governor.Limits {
	return governor.Limits{MaxMemoryBytes: 1 << 30, MaxDuration: 10 * time.Second, SampleInterval: 10 * time.Millisecond}
}

func TestRunKnownValues(t *testing.T) {
	t.Parallel()
	tests := []struct {
		req    sequence.Request
		value  string
		index  uint64
		digits uint64
	}{
		{sequence.Request{Kind: sequence.Fibonacci, Mode: sequence.ByIndex, Target: 100}, "354224848179261915075", 100, 21},
		{sequence.Request{Kind: sequence.Fibonacci, Mode: sequence.ByDigits, Target: 3}, "144", 12, 3},
		{sequence.Request{Kind: sequence.Factorial, Mode: sequence.ByIndex, Target: 10}, "3628800", 10, 7},
		{sequence.Request{Kind: sequence.Factorial, Mode: sequence.ByDigits, Target: 7}, "3628800", 10, 7},
		{sequence.Request{Kind: sequence.Prime, Mode: sequence.ByIndex, Target: 100}, "541", 100, 3},
		{sequence.Request{Kind: sequence.Prime, Mode: sequence.ByDigits, Target: 4}, "1009", 9, 4},
	}
	svc := newTestService()
	for _, tc := range tests {
		t.Run(tc.req.String(), func(t *testing.T) {
			t.Parallel()
			res, err := svc.Run(context.Background(), tc.req, testLimits())
			require.NoError(t, err)
			assert.Equal(t, tc.value, res.Value.String())
			assert.Equal(t, tc.index, res.ResolvedIndex)
			assert.Equal(t, tc.digits, res.DigitCount)
			assert.Equal(t, uint64(1<<20), res.PeakMemory)
		})
	}
}

func TestRunIdempotent(t *testing.T) {
	t.Parallel()
	svc := newTestService()
	req := sequence.Request{Kind: sequence.Fibonacci, Mode: sequence.ByIndex, Target: 20_000}
	first, err := svc.Run(context.Background(), req, testLimits())
	require.NoError(t, err)
	second, err := svc.Run(context.Background(), req, testLimits())
	require.NoError(t, err)
	assert.Equal(t, 0, first.Value.Cmp(second.Value))
}

func TestRunStrictRejectsSlowRequest(t *testing.T) {
	t.Parallel()
	svc := newTestService()
	limits := testLimits()
	limits.MaxDuration = time.Nanosecond
	req := sequence.Request{Kind: sequence.Fibonacci, Mode: sequence.ByIndex, Target: 1_000_000, Strict: true}

	_, err := svc.Run(context.Background(), req, limits)
	var tooLarge apperrors.CalculationTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, uint64(1_000_000), tooLarge.Target)
	assert.Greater(t, tooLarge.Predicted, time.Nanosecond)
}

func TestRunStrictAllowsFastRequest(t *testing.T) {
	t.Parallel()
	svc := newTestService()
	req := sequence.Request{Kind: sequence.Factorial, Mode: sequence.ByIndex, Target: 5, Strict: true}
	res, err := svc.Run(context.Background(), req, testLimits())
	require.NoError(t, err)
	assert.Equal(t, "120", res.Value.String())
}

func TestRunInvalidLimits(t *testing.T) {
	t.Parallel()
	_, err := newTestService().Run(context.Background(),
		sequence.Request{Kind: sequence.Fibonacci, Target: 1}, governor.Limits{})
	var cfgErr apperrors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestRunPrimeIndexCeiling(t *testing.T) {
	t.Parallel()
	svc := NewCalculatorService(DefaultRegistry(1000), WithLogger(logging.Nop{}))
	_, err := svc.Run(context.Background(),
		sequence.Request{Kind: sequence.Prime, Mode: sequence.ByIndex, Target: 1001}, testLimits())
	var tooLarge apperrors.CalculationTooLargeError
	assert.ErrorAs(t, err, &tooLarge)
}

func registryWith(engine sequence.Engine) *sequence.Registry {
	r := sequence.NewRegistry()
	r.Register(engine.Kind(), sequence.DefaultBackend, func() sequence.Engine { return engine })
	return r
}

func TestRunPropagatesEngineError(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	engine.EXPECT().Kind().Return(sequence.Factorial).AnyTimes()
	engine.EXPECT().Name().Return("mock").AnyTimes()
	boom := errors.New("boom")
	engine.EXPECT().ValueAtIndex(gomock.Any(), uint64(42)).Return(nil, boom)

	svc := NewCalculatorService(registryWith(engine), WithLogger(logging.Nop{}))
	_, err := svc.Run(context.Background(),
		sequence.Request{Kind: sequence.Factorial, Mode: sequence.ByIndex, Target: 42}, testLimits())
	assert.ErrorIs(t, err, boom)
}

func TestRunTimeout(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	engine.EXPECT().Kind().Return(sequence.Fibonacci).AnyTimes()
	engine.EXPECT().Name().Return("mock").AnyTimes()
	engine.EXPECT().ValueAtIndex(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, n uint64) (*big.Int, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	svc := NewCalculatorService(registryWith(engine), WithLogger(logging.Nop{}))
	limits := testLimits()
	limits.MaxDuration = 30 * time.Millisecond
	_, err := svc.Run(context.Background(),
		sequence.Request{Kind: sequence.Fibonacci, Mode: sequence.ByIndex, Target: 7}, limits)
	var timeout apperrors.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.GreaterOrEqual(t, timeout.Elapsed, limits.MaxDuration)
}

func TestRunRejectsNilValue(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	engine.EXPECT().Kind().Return(sequence.Prime).AnyTimes()
	engine.EXPECT().Name().Return("mock").AnyTimes()
	engine.EXPECT().ValueAtIndex(gomock.Any(), gomock.Any()).Return(nil, nil)

	svc := NewCalculatorService(registryWith(engine), WithLogger(logging.Nop{}))
	_, err := svc.Run(context.Background(),
		sequence.Request{Kind: sequence.Prime, Mode: sequence.ByIndex, Target: 3}, testLimits())
	var precision apperrors.PrecisionError
	assert.ErrorAs(t, err, &precision)
}

func TestEstimate(t *testing.T) {
	t.Parallel()
	svc := newTestService()
	est, err := svc.Estimate(context.Background(),
		sequence.Request{Kind: sequence.Fibonacci, Mode: sequence.ByIndex, Target: 100})
	require.NoError(t, err)
	assert.False(t, est.WillExceed)
	assert.Equal(t, uint64(21), est.ExpectedDigits)
	assert.False(t, est.Large())
	assert.Equal(t, estimator.LogN, est.Model.Transform)

	est, err = svc.Estimate(context.Background(),
		sequence.Request{Kind: sequence.Factorial, Mode: sequence.ByIndex, Target: 10_000})
	require.NoError(t, err)
	assert.True(t, est.Large(), "10000! has 35660 digits")
}

func TestStatus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{apperrors.TimeoutError{}, "timeout"},
		{apperrors.ResourceExhaustedError{}, "memory"},
		{fmt.Errorf("wrapped: %w", apperrors.CalculationTooLargeError{}), "too_large"},
		{apperrors.NewInputError("index", "bad", -1), "invalid"},
		{apperrors.NewConfigError("bad"), "invalid"},
		{apperrors.PrecisionError{}, "precision"},
		{context.Canceled, "canceled"},
		{errors.New("other"), "error"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Status(tc.err), "%v", tc.err)
	}
}
