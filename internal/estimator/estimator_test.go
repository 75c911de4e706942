package estimator

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/megacalc/internal/fibonacci"
	"github.com/agbru/megacalc/internal/sequence"
	"github.com/agbru/megacalc/internal/sequence/mocks"
)

func TestTransformFor(t *testing.T) {
	t.Parallel()
	assert.Equal(t, LogN, TransformFor(sequence.Fibonacci))
	assert.Equal(t, NLogSquaredN, TransformFor(sequence.Factorial))
	assert.Equal(t, NLogN, TransformFor(sequence.Prime))
}

func TestTransformApply(t *testing.T) {
	t.Parallel()
	assert.Zero(t, LogN.Apply(0))
	assert.Zero(t, LogN.Apply(1))
	assert.InDelta(t, 2.302585, LogN.Apply(10), 1e-6)
	assert.InDelta(t, 10*2.302585*2.302585, NLogSquaredN.Apply(10), 1e-4)
	assert.InDelta(t, 10*2.302585, NLogN.Apply(10), 1e-5)
}

func samplesFrom(tr Transform, slope, intercept float64, sizes ...uint64) []Sample {
	out := make([]Sample, len(sizes))
	for i, n := range sizes {
		secs := slope*tr.Apply(n) + intercept
		out[i] = Sample{InputSize: n, Elapsed: time.Duration(secs * float64(time.Second))}
	}
	return out
}

func TestFitRecoversLine(t *testing.T) {
	t.Parallel()
	for _, tr := range []Transform{LogN, NLogSquaredN, NLogN} {
		t.Run(tr.String(), func(t *testing.T) {
			samples := samplesFrom(tr, 0.002, 0.01, 100, 500, 1000, 2000, 5000)
			m, err := Fit(tr, samples)
			require.NoError(t, err)
			assert.InDelta(t, 0.002, m.Slope, 1e-6)
			assert.InDelta(t, 0.01, m.Intercept, 1e-4)
		})
	}
}

func TestFitEdgeCases(t *testing.T) {
	t.Parallel()

	_, err := Fit(LogN, nil)
	assert.ErrorIs(t, err, ErrNoSamples)

	m, err := Fit(NLogN, []Sample{{InputSize: 100, Elapsed: time.Second}})
	require.NoError(t, err)
	assert.Zero(t, m.Intercept)
	// 200·ln 200 / (100·ln 100) ≈ 2.301
	assert.InDelta(t, 2.301, m.Predict(200).Seconds(), 0.001)

	m, err = Fit(LogN, []Sample{{InputSize: 1, Elapsed: time.Second}})
	require.NoError(t, err)
	assert.Equal(t, time.Second, m.Predict(1))

	// Identical inputs leave the slope undetermined: predict the mean.
	m, err = Fit(LogN, []Sample{{InputSize: 7, Elapsed: time.Second}, {InputSize: 7, Elapsed: 3 * time.Second}})
	require.NoError(t, err)
	assert.Zero(t, m.Slope)
	assert.Equal(t, 2*time.Second, m.Predict(7))
}

func TestFitClampsNegativeSlope(t *testing.T) {
	t.Parallel()
	samples := []Sample{
		{100, 50 * time.Millisecond},
		{500, 40 * time.Millisecond},
		{1000, 30 * time.Millisecond},
		{2000, 20 * time.Millisecond},
		{5000, 10 * time.Millisecond},
	}
	m, err := Fit(NLogN, samples)
	require.NoError(t, err)
	assert.Zero(t, m.Slope)
	assert.InDelta(t, float64(30*time.Millisecond), float64(m.Predict(1_000_000)), float64(time.Microsecond))
}

func TestPredictFloorAndSaturation(t *testing.T) {
	t.Parallel()
	m := Model{Transform: LogN}
	assert.Zero(t, m.Predict(1000))
	assert.Equal(t, time.Millisecond, m.Predict(1001))

	m = Model{Transform: NLogSquaredN, Slope: 1}
	assert.Equal(t, time.Duration(1<<63-1), m.Predict(1<<62))

	m = Model{Transform: LogN, Slope: 1, Intercept: -100}
	assert.Zero(t, m.Predict(10))
}

func TestPredictMonotone(t *testing.T) {
	t.Parallel()
	p, err := New().Predict(context.Background(), fibonacci.New(), sequence.ByIndex, 10_000)
	require.NoError(t, err)
	require.Len(t, p.Samples, 5)
	assert.GreaterOrEqual(t, p.Model.Slope, 0.0)
	assert.Equal(t, p.Model.Predict(10_000), p.Predicted)

	prev := time.Duration(0)
	for _, target := range []uint64{10, 1_000, 100_000, 10_000_000, 1_000_000_000, 1 << 40} {
		got := p.Model.Predict(target)
		assert.GreaterOrEqual(t, got, prev, "target %d", target)
		prev = got
	}
}

func TestBenchmarkSkipsFailedInputs(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	engine.EXPECT().Kind().Return(sequence.Prime).AnyTimes()
	engine.EXPECT().ValueAtIndex(gomock.Any(), uint64(10)).Return(big.NewInt(29), nil)
	engine.EXPECT().ValueAtIndex(gomock.Any(), uint64(20)).Return(nil, errors.New("sieve failure"))
	engine.EXPECT().ValueAtIndex(gomock.Any(), uint64(30)).Return(big.NewInt(113), nil)

	samples, err := New().Benchmark(context.Background(), engine, sequence.ByIndex, []uint64{10, 20, 30})
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, uint64(10), samples[0].InputSize)
	assert.Equal(t, uint64(30), samples[1].InputSize)
}

func TestPredictAllInputsFail(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	engine.EXPECT().Kind().Return(sequence.Factorial).AnyTimes()
	engine.EXPECT().ValueAtIndex(gomock.Any(), gomock.Any()).Return(nil, errors.New("broken")).Times(2)

	est := New(WithInputs(func(sequence.Kind, sequence.Mode) []uint64 { return []uint64{1, 2} }))
	_, err := est.Predict(context.Background(), engine, sequence.ByIndex, 100)
	assert.ErrorIs(t, err, ErrNoSamples)
}

func TestBenchmarkStopsOnCancel(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	engine.EXPECT().Kind().Return(sequence.Fibonacci).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Benchmark(ctx, engine, sequence.ByIndex, []uint64{1, 2, 3})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBenchmarkInputs(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []uint64{2, 3, 4, 5, 6}, BenchmarkInputs(sequence.Prime, sequence.ByDigits))
	assert.Equal(t, []uint64{100, 500, 1000, 2000, 5000}, BenchmarkInputs(sequence.Prime, sequence.ByIndex))
	assert.Equal(t, []uint64{50, 100, 200, 500, 1000}, BenchmarkInputs(sequence.Factorial, sequence.ByDigits))
	assert.Equal(t, []uint64{100, 500, 1000, 2000, 5000}, BenchmarkInputs(sequence.Fibonacci, sequence.ByIndex))
}
