package indicators

import "math"

// SMA calculates the simple moving average series over the given period.
// Indices before the window fills are NaN.
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA calculates the exponential moving average series with smoothing
// 2/(span+1), seeded by the first value.
func EMA(values []float64, span int) []float64 {
	out := nanSlice(len(values))
	if span <= 0 || len(values) == 0 {
		return out
	}

	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// CrossedAbove reports whether series a crossed above series b between the
// previous and the last bar.
func CrossedAbove(a, b []float64) bool {
	prevA, prevB, lastA, lastB, ok := lastTwo(a, b)
	if !ok {
		return false
	}
	return prevA <= prevB && lastA > lastB
}

// CrossedBelow reports whether series a crossed below series b between the
// previous and the last bar.
func CrossedBelow(a, b []float64) bool {
	prevA, prevB, lastA, lastB, ok := lastTwo(a, b)
	if !ok {
		return false
	}
	return prevA >= prevB && lastA < lastB
}

func lastTwo(a, b []float64) (prevA, prevB, lastA, lastB float64, ok bool) {
	n := len(a)
	if n < 2 || len(b) != n {
		return 0, 0, 0, 0, false
	}
	prevA, lastA = a[n-2], a[n-1]
	prevB, lastB = b[n-2], b[n-1]
	if math.IsNaN(prevA) || math.IsNaN(prevB) || math.IsNaN(lastA) || math.IsNaN(lastB) {
		return 0, 0, 0, 0, false
	}
	return prevA, prevB, lastA, lastB, true
}

// Last returns the final value of a series, or NaN when the series is empty.
func Last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
