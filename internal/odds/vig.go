package odds

import "math"

// RemoveVig removes the vig/juice from a two-way market
// Returns the true probabilities that sum to 1.0
//
// Method: Multiplicative vig removal (proportional)
// trueProbA = impliedA / (impliedA + impliedB)
// trueProbB = impliedB / (impliedA + impliedB)
func RemoveVig(impliedA, impliedB float64) (float64, float64) {
	if impliedA <= 0 || impliedB <= 0 {
		return 0, 0
	}

	total := impliedA + impliedB
	return impliedA / total, impliedB / total
}

// RemoveVigPower removes vig using the Power method
// This accounts for the favorite-longshot bias: longshots are systematically overbet.
// Finds k such that p1^k + p2^k = 1, then trueProb = p^k for each side.
func RemoveVigPower(impliedA, impliedB float64) (float64, float64) {
	if impliedA <= 0 || impliedB <= 0 || impliedA >= 1 || impliedB >= 1 {
		return RemoveVig(impliedA, impliedB)
	}

	// Already fair
	if math.Abs(impliedA+impliedB-1.0) < 1e-9 {
		return impliedA, impliedB
	}

	k := findPowerExponent(impliedA, impliedB)
	return math.Pow(impliedA, k), math.Pow(impliedB, k)
}

// findPowerExponent finds k such that p1^k + p2^k = 1 using bisection search.
// For 0 < p < 1 a higher k shrinks the sum, so overround markets land on k > 1.
func findPowerExponent(p1, p2 float64) float64 {
	const (
		tolerance = 1e-9
		maxIters  = 100
	)

	low, high := 0.01, 10.0

	for i := 0; i < maxIters; i++ {
		mid := (low + high) / 2
		currentSum := math.Pow(p1, mid) + math.Pow(p2, mid)

		if math.Abs(currentSum-1.0) < tolerance {
			return mid
		}

		if currentSum > 1 {
			low = mid
		} else {
			high = mid
		}
	}

	return (low + high) / 2
}

// RemoveVigPowerFromAmerican converts a moneyline pair to vig-free probabilities
func RemoveVigPowerFromAmerican(oddsA, oddsB int) (float64, float64) {
	return RemoveVigPower(AmericanToImplied(oddsA), AmericanToImplied(oddsB))
}
