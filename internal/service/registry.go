package service

import (
	"github.com/agbru/megacalc/internal/factorial"
	"github.com/agbru/megacalc/internal/fibonacci"
	"github.com/agbru/megacalc/internal/prime"
	"github.com/agbru/megacalc/internal/sequence"
)

// DefaultRegistry returns a registry holding every backend compiled into the
// binary. A non-zero maxPrimeIndex replaces the prime sieve's index ceiling.
func DefaultRegistry(maxPrimeIndex uint64) *sequence.Registry {
	r := sequence.NewRegistry()
	fibonacci.Register(r)
	factorial.Register(r)
	prime.Register(r)
	if maxPrimeIndex > 0 {
		r.Register(sequence.Prime, sequence.DefaultBackend, func() sequence.Engine {
			return prime.New(prime.WithMaxIndex(maxPrimeIndex))
		})
	}
	return r
}
