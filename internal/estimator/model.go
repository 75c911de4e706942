package estimator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/agbru/megacalc/internal/sequence"
)

// Transform maps an input size to the coordinate in which run time is
// modeled as linear.
type Transform int

const (
	// LogN models T(n) ∝ log n.
	LogN Transform = iota
	// NLogSquaredN models T(n) ∝ n·(ln n)².
	NLogSquaredN
	// NLogN models T(n) ∝ n·ln n.
	NLogN
)

func (t Transform) String() string {
	switch t {
	case LogN:
		return "log(n)"
	case NLogSquaredN:
		return "n·ln(n)²"
	case NLogN:
		return "n·ln(n)"
	default:
		return fmt.Sprintf("Transform(%d)", int(t))
	}
}

// Apply returns the transformed coordinate of n. Sizes below 1 map like 1.
func (t Transform) Apply(n uint64) float64 {
	x := float64(max(n, 1))
	lx := math.Log(x)
	switch t {
	case NLogSquaredN:
		return x * lx * lx
	case NLogN:
		return x * lx
	default:
		return lx
	}
}

// TransformFor returns the complexity model used for kind.
func TransformFor(kind sequence.Kind) Transform {
	switch kind {
	case sequence.Factorial:
		return NLogSquaredN
	case sequence.Prime:
		return NLogN
	default:
		return LogN
	}
}

// Sample is one timed benchmark run.
type Sample struct {
	InputSize uint64
	Elapsed   time.Duration
}

// Model is a line fitted in a transformed coordinate. Elapsed seconds are
// Slope·Transform(n) + Intercept.
type Model struct {
	Transform Transform
	Slope     float64
	Intercept float64
}

// ErrNoSamples is returned by Fit when every benchmark run failed.
var ErrNoSamples = errors.New("estimator: no benchmark samples")

// minPrediction is the floor applied to predictions for inputs above
// minPredictionInput.
const (
	minPrediction      = time.Millisecond
	minPredictionInput = 1000
)

// Fit computes the least-squares line through samples in transform's
// coordinate. A single sample gives a line through the origin. A negative
// slope is clamped to zero, so predictions never decrease with the input.
func Fit(transform Transform, samples []Sample) (Model, error) {
	m := Model{Transform: transform}
	switch len(samples) {
	case 0:
		return m, ErrNoSamples
	case 1:
		x, y := transform.Apply(samples[0].InputSize), samples[0].Elapsed.Seconds()
		if x == 0 {
			m.Intercept = y
		} else {
			m.Slope = y / x
		}
		return m, nil
	}

	n := float64(len(samples))
	var xMean, yMean float64
	for _, s := range samples {
		xMean += transform.Apply(s.InputSize)
		yMean += s.Elapsed.Seconds()
	}
	xMean /= n
	yMean /= n

	var num, den float64
	for _, s := range samples {
		dx := transform.Apply(s.InputSize) - xMean
		num += dx * (s.Elapsed.Seconds() - yMean)
		den += dx * dx
	}
	if den == 0 || num <= 0 {
		m.Intercept = yMean
		return m, nil
	}
	m.Slope = num / den
	m.Intercept = yMean - m.Slope*xMean
	return m, nil
}

// Predict returns the modeled run time for input size n, never negative.
func (m Model) Predict(n uint64) time.Duration {
	secs := m.Slope*m.Transform.Apply(n) + m.Intercept
	if secs <= 0 {
		secs = 0
	}
	if secs >= math.MaxInt64/float64(time.Second) {
		return time.Duration(math.MaxInt64)
	}
	d := time.Duration(secs * float64(time.Second))
	if n > minPredictionInput && d < minPrediction {
		d = minPrediction
	}
	return d
}
