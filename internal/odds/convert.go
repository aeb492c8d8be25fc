package odds

import (
	"math"

	"github.com/shopspring/decimal"
)

// StandardSpreadPrice is the usual price on both sides of a spread bet
const StandardSpreadPrice = -110

// AmericanToImplied converts American odds to implied probability
// Example: -150 → 0.6 (60%), +150 → 0.4 (40%)
func AmericanToImplied(odds int) float64 {
	if odds == 0 {
		return 0
	}

	if odds > 0 {
		// Underdog: probability = 100 / (odds + 100)
		return 100.0 / (float64(odds) + 100.0)
	}
	// Favorite: probability = |odds| / (|odds| + 100)
	return math.Abs(float64(odds)) / (math.Abs(float64(odds)) + 100.0)
}

// ProfitOnStake returns the net winnings on a winning bet at the given American price,
// rounded to cents. Example: $100 at -110 → $90.91, $100 at +150 → $150.00
func ProfitOnStake(odds int, stake decimal.Decimal) decimal.Decimal {
	if odds == 0 {
		return decimal.Zero
	}

	hundred := decimal.NewFromInt(100)
	price := decimal.NewFromInt(int64(odds))
	if odds > 0 {
		return stake.Mul(price).Div(hundred).Round(2)
	}
	return stake.Mul(hundred).Div(price.Abs()).Round(2)
}
