package prime

import (
	"crypto/rand"
	"math/big"
	"math/bits"
)

// RandomWitnesses is the number of random Miller-Rabin bases drawn for
// candidates above the deterministic range.
const RandomWitnesses = 40

// deterministicLimit bounds the range where the first thirteen primes are a
// complete set of Miller-Rabin witnesses.
var deterministicLimit, _ = new(big.Int).SetString("3317044064679887385961981", 10)

// witnessTier lists a set of bases that is sufficient for every odd n below
// limit.
type witnessTier struct {
	limit uint64
	bases []uint64
}

var witnessTiers = []witnessTier{
	{2047, []uint64{2}},
	{1373653, []uint64{2, 3}},
	{9080191, []uint64{31, 73}},
	{25326001, []uint64{2, 3, 5}},
	{3215031751, []uint64{2, 3, 5, 7}},
	{4759123141, []uint64{2, 7, 61}},
	{1122004669633, []uint64{2, 13, 23, 1662803}},
	{2152302898747, []uint64{2, 3, 5, 7, 11}},
	{3474749660383, []uint64{2, 3, 5, 7, 11, 13}},
	{341550071728321, []uint64{2, 3, 5, 7, 11, 13, 17}},
}

var firstThirteenPrimes = []uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41}

// smallPrimes holds the odd primes below 1000 used for trial division.
var smallPrimes = oddPrimesBelow(1000)

// trialGroup packs consecutive small primes whose product fits in a uint64,
// so one big division serves the whole group.
type trialGroup struct {
	product *big.Int
	primes  []uint64
}

var trialGroups = buildTrialGroups(smallPrimes)

func oddPrimesBelow(limit int) []uint64 {
	composite := make([]bool, limit)
	var out []uint64
	for i := 3; i < limit; i += 2 {
		if composite[i] {
			continue
		}
		out = append(out, uint64(i))
		for j := i * i; j < limit; j += 2 * i {
			composite[j] = true
		}
	}
	return out
}

func buildTrialGroups(primes []uint64) []trialGroup {
	var groups []trialGroup
	var cur []uint64
	product := uint64(1)
	for _, p := range primes {
		hi, lo := bits.Mul64(product, p)
		if hi != 0 {
			groups = append(groups, trialGroup{product: new(big.Int).SetUint64(product), primes: cur})
			cur, product = nil, 1
			lo = p
		}
		cur = append(cur, p)
		product = lo
	}
	if len(cur) > 0 {
		groups = append(groups, trialGroup{product: new(big.Int).SetUint64(product), primes: cur})
	}
	return groups
}

// smallFactor reports whether n, assumed odd and greater than 1000, has a
// prime factor below 1000.
func smallFactor(n *big.Int) bool {
	r := new(big.Int)
	for _, g := range trialGroups {
		m := r.Mod(n, g.product).Uint64()
		for _, p := range g.primes {
			if m%p == 0 {
				return true
			}
		}
	}
	return false
}

// IsProbablePrime runs the Baillie-PSW test on n: trial division by the
// primes below 1000, a Miller-Rabin stage and a strong Lucas test with
// Selfridge parameters. Below 3.3·10^24 the Miller-Rabin bases are a proven
// witness set; above, RandomWitnesses bases are drawn from crypto/rand.
// No Baillie-PSW pseudoprime is known.
func IsProbablePrime(n *big.Int) bool {
	if n.Sign() <= 0 {
		return false
	}
	if n.IsUint64() {
		v := n.Uint64()
		if v < 2 {
			return false
		}
		if v == 2 {
			return true
		}
		if v%2 == 0 {
			return false
		}
		for _, p := range smallPrimes {
			if v == p {
				return true
			}
			if v%p == 0 {
				return false
			}
			if p*p > v {
				return true
			}
		}
	} else if n.Bit(0) == 0 || smallFactor(n) {
		return false
	}

	if !millerRabin(n, witnessesFor(n)) {
		return false
	}
	return strongLucas(n)
}

func witnessesFor(n *big.Int) []*big.Int {
	if n.IsUint64() {
		v := n.Uint64()
		for _, tier := range witnessTiers {
			if v < tier.limit {
				return toBig(tier.bases)
			}
		}
	}
	if n.Cmp(deterministicLimit) < 0 {
		return toBig(firstThirteenPrimes)
	}
	return randomWitnesses(n, RandomWitnesses)
}

func toBig(vs []uint64) []*big.Int {
	out := make([]*big.Int, len(vs))
	for i, v := range vs {
		out[i] = new(big.Int).SetUint64(v)
	}
	return out
}

// randomWitnesses draws k bases uniformly from [2, n−2].
func randomWitnesses(n *big.Int, k int) []*big.Int {
	span := new(big.Int).Sub(n, big.NewInt(3))
	out := make([]*big.Int, 0, k)
	for range k {
		a, err := rand.Int(rand.Reader, span)
		if err != nil {
			// The fixed bases still leave the strong Lucas stage in place.
			return append(out, toBig(firstThirteenPrimes)...)
		}
		out = append(out, a.Add(a, big.NewInt(2)))
	}
	return out
}

// millerRabin reports whether odd n > 2 is a strong probable prime to every
// base in bases.
func millerRabin(n *big.Int, bases []*big.Int) bool {
	one := big.NewInt(1)
	nMinus1 := new(big.Int).Sub(n, one)
	s := nMinus1.TrailingZeroBits()
	d := new(big.Int).Rsh(nMinus1, s)

	x := new(big.Int)
	a := new(big.Int)
	for _, base := range bases {
		a.Mod(base, n)
		if a.Sign() == 0 {
			continue
		}
		x.Exp(a, d, n)
		if x.Cmp(one) == 0 || x.Cmp(nMinus1) == 0 {
			continue
		}
		composite := true
		for r := uint(1); r < s; r++ {
			x.Mul(x, x).Mod(x, n)
			if x.Cmp(nMinus1) == 0 {
				composite = false
				break
			}
		}
		if composite {
			return false
		}
	}
	return true
}

// strongLucas runs the strong Lucas probable prime test on odd n with
// P = 1 and Q = (1−D)/4, where D is the first of 5, −7, 9, −11, … with
// Jacobi(D, n) = −1.
func strongLucas(n *big.Int) bool {
	root := new(big.Int).Sqrt(n)
	if root.Mul(root, root).Cmp(n) == 0 {
		return false
	}

	dd := int64(5)
	bigD := new(big.Int)
	for {
		bigD.SetInt64(dd)
		j := big.Jacobi(new(big.Int).Mod(bigD, n), n)
		if j == -1 {
			break
		}
		if j == 0 && new(big.Int).Abs(bigD).Cmp(n) != 0 {
			return false
		}
		if dd > 0 {
			dd = -dd - 2
		} else {
			dd = -dd + 2
		}
	}
	q := big.NewInt((1 - dd) / 4)

	nPlus1 := new(big.Int).Add(n, big.NewInt(1))
	s := nPlus1.TrailingZeroBits()
	d := new(big.Int).Rsh(nPlus1, s)

	// Walk the bits of d from the top, keeping U_k, V_k and Q^k mod n.
	u := big.NewInt(1)
	v := big.NewInt(1)
	qk := new(big.Int).Mod(q, n)
	t := new(big.Int)
	for i := d.BitLen() - 2; i >= 0; i-- {
		u.Mul(u, v).Mod(u, n)
		v.Mul(v, v).Sub(v, t.Lsh(qk, 1)).Mod(v, n)
		qk.Mul(qk, qk).Mod(qk, n)
		if d.Bit(i) == 1 {
			du := new(big.Int).Mul(bigD, u)
			u.Add(u, v).Mod(u, n)
			halveMod(u, n)
			v.Add(v, du).Mod(v, n)
			halveMod(v, n)
			qk.Mul(qk, q).Mod(qk, n)
		}
	}

	if u.Sign() == 0 {
		return true
	}
	for r := uint(0); r < s; r++ {
		if v.Sign() == 0 {
			return true
		}
		v.Mul(v, v).Sub(v, t.Lsh(qk, 1)).Mod(v, n)
		qk.Mul(qk, qk).Mod(qk, n)
	}
	return false
}

// halveMod sets x to x/2 mod n for odd n and 0 ≤ x < n.
func halveMod(x, n *big.Int) {
	if x.Bit(0) == 1 {
		x.Add(x, n)
	}
	x.Rsh(x, 1)
}
