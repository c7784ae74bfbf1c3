package indicators

// RSI calculates the Relative Strength Index series using rolling means of
// gains and losses (Wilder's original form without recursive smoothing).
// Indices before period+1 bars are NaN. When the mean loss over the window
// is zero, RSI saturates at 100.
func RSI(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period+1 {
		return out
	}

	gains := make([]float64, len(values))
	losses := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	var gainSum, lossSum float64
	for i := 1; i < len(values); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
		}
		if i < period {
			continue
		}
		if lossSum == 0 {
			out[i] = 100
			continue
		}
		rs := gainSum / lossSum
		out[i] = 100 - 100/(1+rs)
	}
	return out
}
