package indicators

// MACDResult holds the MACD line, its signal line and the histogram.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD calculates the standard 12/26/9 moving average convergence divergence
// series: EMA(12) - EMA(26), a 9-span EMA of that line as the signal, and
// their difference as the histogram.
func MACD(values []float64) MACDResult {
	fast := EMA(values, 12)
	slow := EMA(values, 26)

	line := make([]float64, len(values))
	for i := range values {
		line[i] = fast[i] - slow[i]
	}

	signal := EMA(line, 9)
	hist := make([]float64, len(values))
	for i := range values {
		hist[i] = line[i] - signal[i]
	}

	return MACDResult{MACD: line, Signal: signal, Histogram: hist}
}
