package prime

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	apperrors "github.com/agbru/megacalc/internal/errors"
	"github.com/agbru/megacalc/internal/sequence"
)

const (
	// MaxPrimeIndex is the default largest index NthPrime accepts.
	MaxPrimeIndex = 50_000_000

	// DefaultSegmentSize is the number of odd candidates sieved per segment.
	// One flag byte per candidate keeps a segment at 32 KiB.
	DefaultSegmentSize = 32 * 1024
)

// Sieve finds the n-th prime with a segmented sieve of Eratosthenes over odd
// numbers. Memory is bounded by one segment plus the base primes up to the
// square root of the upper bound.
type Sieve struct {
	segmentSize int
	maxIndex    uint64
}

// NewSieve creates a Sieve with the default segment size and index limit.
func NewSieve() *Sieve {
	return &Sieve{segmentSize: DefaultSegmentSize, maxIndex: MaxPrimeIndex}
}

// upperBound returns a value at least as large as the n-th prime. For n ≥ 6,
// p_n < n(ln n + ln ln n).
func upperBound(n uint64) uint64 {
	if n < 6 {
		return 20
	}
	x := float64(n)
	return uint64(math.Ceil(x*(math.Log(x)+math.Log(math.Log(x))))) + 1
}

// NthPrime returns the n-th prime, 1-based. If the bound estimate ever falls
// short, it is doubled and the range is sieved again.
func (s *Sieve) NthPrime(ctx context.Context, n uint64) (uint64, error) {
	if n == 0 {
		return 0, apperrors.NewInputError("index", "prime indices start at 1", n)
	}
	if n > s.maxIndex {
		return 0, apperrors.CalculationTooLargeError{
			Reason: "prime index exceeds the sieve limit", Target: n, Limit: s.maxIndex,
		}
	}
	if n == 1 {
		return 2, nil
	}

	bound := upperBound(n)
	for {
		p, ok, err := s.scan(ctx, n, bound)
		if err != nil {
			return 0, err
		}
		if ok {
			return p, nil
		}
		log.Debug().Uint64("n", n).Uint64("bound", bound).Msg("sieve bound too small, doubling")
		if bound > math.MaxUint64/2 {
			return 0, apperrors.CalculationTooLargeError{
				Reason: "sieve bound overflowed", Target: n, Limit: s.maxIndex,
			}
		}
		bound *= 2
	}
}

// scan counts primes up to bound and returns the n-th if it is reached.
func (s *Sieve) scan(ctx context.Context, n, bound uint64) (uint64, bool, error) {
	base := oddPrimesUpTo(uint64(math.Sqrt(float64(bound))) + 1)
	progress := sequence.NewLinearProgress(sequence.ProgressFrom(ctx), bound)

	count := uint64(1) // 2
	flags := make([]bool, s.segmentSize)
	span := 2 * uint64(s.segmentSize)
	for lo := uint64(3); lo <= bound; lo += span {
		if err := sequence.Checkpoint(ctx); err != nil {
			return 0, false, fmt.Errorf("sieve canceled at %d/%d: %w", lo, bound, err)
		}
		hi := min(lo+span, bound+1)
		clear(flags)

		// flags[i] stands for lo + 2i.
		for _, p := range base {
			if p*p >= hi {
				break
			}
			start := p * p
			if start < lo {
				start = (lo + p - 1) / p * p
				if start%2 == 0 {
					start += p
				}
			}
			for m := start; m < hi; m += 2 * p {
				flags[(m-lo)/2] = true
			}
		}

		for i, c := 0, lo; c < hi; i, c = i+1, c+2 {
			if flags[i] {
				continue
			}
			count++
			if count == n {
				progress.Update(bound)
				return c, true, nil
			}
		}
		progress.Update(hi)
	}
	return 0, false, nil
}

// oddPrimesUpTo returns the odd primes ≤ limit with a plain sieve.
func oddPrimesUpTo(limit uint64) []uint64 {
	if limit < 3 {
		return nil
	}
	composite := make([]bool, limit+1)
	var out []uint64
	for i := uint64(3); i <= limit; i += 2 {
		if composite[i] {
			continue
		}
		out = append(out, i)
		for j := i * i; j <= limit; j += 2 * i {
			composite[j] = true
		}
	}
	return out
}
