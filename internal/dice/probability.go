// Package dice implements the adaptive dice engine: exact sum-of-dice
// probabilities, distribution helpers, and engines that bias the served
// distribution toward outcomes the session has under-rolled.
package dice

import (
	"math/big"
)

// SumProbability returns the exact probability that numDice independent
// dice, each uniform over [1, numSides], sum to sum.
//
// The value is computed by inclusion-exclusion on the number of dice that
// exceed numSides:
//
//	P = 1/numSides^numDice * Σ_{k=0}^{kMax} (-1)^k * C(numDice, k) * C(sum - numSides*k - 1, numDice - 1)
//
// where kMax = floor((sum - numDice) / numSides). The arithmetic is done on
// big integers and converted to float64 once, so large geometries do not
// lose precision in intermediate terms.
//
// Sums outside [numDice, numDice*numSides] and non-positive geometries
// evaluate to 0.
func SumProbability(sum, numDice, numSides int) float64 {
	if numDice < 1 || numSides < 1 || sum < numDice || sum > numDice*numSides {
		return 0
	}

	kMax := (sum - numDice) / numSides
	count := new(big.Int)
	term := new(big.Int)
	for k := 0; k <= kMax; k++ {
		term.Mul(binomial(numDice, k), binomial(sum-numSides*k-1, numDice-1))
		if k%2 == 0 {
			count.Add(count, term)
		} else {
			count.Sub(count, term)
		}
	}

	total := new(big.Int).Exp(big.NewInt(int64(numSides)), big.NewInt(int64(numDice)), nil)
	p, _ := new(big.Rat).SetFrac(count, total).Float64()
	return p
}

// binomial is C(n, k) with C(n, k) = 0 whenever k < 0 or n < k.
func binomial(n, k int) *big.Int {
	if k < 0 || n < k {
		return new(big.Int)
	}
	return new(big.Int).Binomial(int64(n), int64(k))
}

// TrueDistribution returns the unbiased distribution of sums for the given
// geometry, keyed by every sum in [numDice, numDice*numSides].
func TrueDistribution(numDice, numSides int) Distribution {
	dist := make(Distribution, numDice*numSides-numDice+1)
	for sum := numDice; sum <= numDice*numSides; sum++ {
		dist[sum] = SumProbability(sum, numDice, numSides)
	}
	return dist
}
