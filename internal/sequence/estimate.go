package sequence

import "math"

// LargeDigitThreshold is the expected result size above which callers should
// consult the estimator before running.
const LargeDigitThreshold = 10_000

var (
	log10Phi   = math.Log10((1 + math.Sqrt(5)) / 2)
	log10Sqrt5 = math.Log10(math.Sqrt(5))
)

// Log10Factorial approximates log10(n!) with Stirling's formula. It is only
// used to pick starting points and never on the value path.
func Log10Factorial(n float64) float64 {
	if n < 2 {
		return 0
	}
	return n*math.Log10(n) - n*math.Log10E + 0.5*math.Log10(2*math.Pi*n)
}

// NthPrimeApprox returns n(ln n + ln ln n), the classic upper approximation of
// the n-th prime.
func NthPrimeApprox(n float64) float64 {
	if n < 3 {
		return n
	}
	ln := math.Log(n)
	return n*ln + n*math.Log(ln)
}

// EstimateDigits predicts the decimal length of the result of a request
// without computing it. Digit-mode requests return their target.
func EstimateDigits(kind Kind, mode Mode, target uint64) uint64 {
	if mode == ByDigits {
		return target
	}
	n := float64(target)
	var est float64
	switch kind {
	case Fibonacci:
		est = math.Floor(n*log10Phi - log10Sqrt5 + 1)
	case Factorial:
		if target <= 1 {
			return 1
		}
		est = math.Floor(Log10Factorial(n) + 1)
	case Prime:
		if target <= 1 {
			return 1
		}
		est = math.Floor(math.Log10(math.Max(2, NthPrimeApprox(n))) + 1)
	}
	if est < 1 {
		return 1
	}
	return uint64(est)
}
