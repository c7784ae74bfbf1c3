package order

import (
	"math"

	"trendbot/pkg/exchange"
)

// AdjustQuantity fits a desired base quantity to the exchange lot filters:
// floor to a whole number of steps, then reject anything below the minimum
// quantity or minimum notional. Returns 0 when no valid order exists.
func AdjustQuantity(qty, price float64, lots exchange.LotConstraints) float64 {
	if qty <= 0 || price <= 0 {
		return 0
	}
	if lots.StepSize > 0 {
		steps := math.Floor(qty / lots.StepSize)
		qty = steps * lots.StepSize
		// Undo the float drift a multiply can introduce, e.g. 0.30000000000000004.
		qty = roundToStep(qty, lots.StepSize)
	}
	if qty < lots.MinQty {
		return 0
	}
	if qty*price < lots.MinNotional {
		return 0
	}
	return qty
}

// roundToStep rounds qty to the decimal precision implied by the step size.
func roundToStep(qty, step float64) float64 {
	decimals := 0
	for step < 1 && decimals < 12 {
		step *= 10
		decimals++
	}
	factor := math.Pow(10, float64(decimals))
	return math.Round(qty*factor) / factor
}
