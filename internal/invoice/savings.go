package invoice

import "github.com/shopspring/decimal"

const savingsCap = 2500.0

// EstimateSavings projects a negotiation saving from the extracted total:
// 10% under 1000, 15% from 1000 up, capped at 2500. Rounding to cents
// happens once, after the multiplication and the cap. A non-positive total
// always yields 0.0 and never reaches the rate tiers.
func EstimateSavings(total float64) float64 {
	if total <= 0 {
		return 0.0
	}
	rate := 0.15
	if total < 1000 {
		rate = 0.10
	}
	savings := total * rate
	if savings > savingsCap {
		savings = savingsCap
	}
	return decimal.NewFromFloat(savings).RoundBank(2).InexactFloat64()
}
