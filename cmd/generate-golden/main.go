// Command generate-golden writes the reference values the engine tests
// compare against. Each oracle is the plain textbook algorithm on math/big,
// independent of the engines under test.
//
//	go run ./cmd/generate-golden            # all three files
//	go run ./cmd/generate-golden -k prime   # one sequence
package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
)

// GoldenData represents a single test case in a golden file.
type GoldenData struct {
	N      uint64 `json:"n"`
	Result string `json:"result"`
}

type golden struct {
	dir     string
	file    string
	targets []uint64
	oracle  func(targets []uint64) []*big.Int
}

var goldens = map[string]golden{
	"fib": {
		dir:  "internal/fibonacci/testdata",
		file: "fibonacci_golden.json",
		targets: []uint64{
			0, 1, 2, 3, 4, 5, 10, 20, 50, 92, 93, 94, 100,
			128, 256, 512, 1000, 1024,
			2000, 2048, 5000, 8192, 10000,
		},
		oracle: each(fibBig),
	},
	"fact": {
		dir:     "internal/factorial/testdata",
		file:    "factorial_golden.json",
		targets: []uint64{0, 1, 2, 3, 5, 10, 20, 21, 25, 50, 100, 128, 255, 256, 500, 1000, 1024, 2000},
		oracle:  each(factorialBig),
	},
	"prime": {
		dir:  "internal/prime/testdata",
		file: "prime_golden.json",
		// 168, 1229, 9592 and 78498 are the last primes below 10^3..10^6.
		targets: []uint64{1, 2, 3, 4, 5, 6, 7, 10, 25, 100, 168, 169, 1000, 1229, 5000, 9592, 10000, 78498, 100000},
		oracle:  nthPrimes,
	},
}

func main() {
	kind := pflag.StringP("kind", "k", "all", "Sequence to generate: fib, fact, prime or all.")
	root := pflag.String("root", ".", "Repository root the testdata paths are relative to.")
	pflag.Parse()

	names := []string{"fib", "fact", "prime"}
	if *kind != "all" {
		if _, ok := goldens[*kind]; !ok {
			fmt.Fprintf(os.Stderr, "Error: unknown kind %q\n", *kind)
			os.Exit(2)
		}
		names = []string{*kind}
	}

	for _, name := range names {
		path, err := write(*root, goldens[name])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Successfully generated golden file at %s\n", path)
	}
}

func write(root string, g golden) (string, error) {
	dir := filepath.Join(root, g.dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	values := g.oracle(g.targets)
	data := make([]GoldenData, len(g.targets))
	for i, n := range g.targets {
		data[i] = GoldenData{N: n, Result: values[i].String()}
	}

	path := filepath.Join(dir, g.file)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return "", fmt.Errorf("encoding JSON: %w", err)
	}
	return path, nil
}

func each(f func(uint64) *big.Int) func([]uint64) []*big.Int {
	return func(targets []uint64) []*big.Int {
		out := make([]*big.Int, len(targets))
		for i, n := range targets {
			out[i] = f(n)
		}
		return out
	}
}

// fibBig is the iterative F(n), with F(0) = 0.
func fibBig(n uint64) *big.Int {
	a, b := big.NewInt(0), big.NewInt(1)
	for i := uint64(0); i < n; i++ {
		a.Add(a, b)
		a, b = b, a
	}
	return a
}

// factorialBig multiplies 2..n one factor at a time.
func factorialBig(n uint64) *big.Int {
	result := big.NewInt(1)
	factor := new(big.Int)
	for i := uint64(2); i <= n; i++ {
		result.Mul(result, factor.SetUint64(i))
	}
	return result
}

// nthPrimes returns p(n) for each target, with p(1) = 2, by trial division
// against the primes found so far.
func nthPrimes(targets []uint64) []*big.Int {
	var limit uint64
	for _, n := range targets {
		limit = max(limit, n)
	}

	primes := make([]uint64, 0, limit)
	for c := uint64(2); uint64(len(primes)) < limit; c++ {
		isPrime := true
		for _, p := range primes {
			if p*p > c {
				break
			}
			if c%p == 0 {
				isPrime = false
				break
			}
		}
		if isPrime {
			primes = append(primes, c)
		}
	}

	out := make([]*big.Int, len(targets))
	for i, n := range targets {
		out[i] = new(big.Int).SetUint64(primes[n-1])
	}
	return out
}
