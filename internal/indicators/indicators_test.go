package indicators

import (
	"math"
	"testing"
)

func TestSMAWindow(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	out := SMA(values, 3)

	for i := 0; i < 2; i++ {
		if !math.IsNaN(out[i]) {
			t.Fatalf("index %d: expected NaN before window fills, got %v", i, out[i])
		}
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if got := out[i+2]; math.Abs(got-w) > 1e-9 {
			t.Fatalf("index %d: SMA=%v, expected %v", i+2, got, w)
		}
	}
}

func TestSMAShortSeries(t *testing.T) {
	out := SMA([]float64{1, 2}, 3)
	for i, v := range out {
		if !math.IsNaN(v) {
			t.Fatalf("index %d: expected NaN for short series, got %v", i, v)
		}
	}
}

func TestEMASeededByFirstValue(t *testing.T) {
	values := []float64{10, 20, 30}
	out := EMA(values, 9)

	if out[0] != 10 {
		t.Fatalf("EMA seed=%v, expected first value 10", out[0])
	}
	alpha := 2.0 / 10.0
	want := alpha*20 + (1-alpha)*10
	if math.Abs(out[1]-want) > 1e-9 {
		t.Fatalf("EMA[1]=%v, expected %v", out[1], want)
	}
}

func TestRSIBounds(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
	}{
		{"rising", ramp(40, 1)},
		{"falling", ramp(40, -1)},
		{"sawtooth", sawtooth(40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RSI(tt.values, 14)
			for i, v := range out {
				if math.IsNaN(v) {
					continue
				}
				if v < 0 || v > 100 {
					t.Fatalf("index %d: RSI=%v outside [0,100]", i, v)
				}
			}
		})
	}
}

func TestRSISaturatesAt100(t *testing.T) {
	out := RSI(ramp(30, 2), 14)
	if last := Last(out); last != 100 {
		t.Fatalf("RSI=%v on a loss-free series, expected 100", last)
	}
}

func TestRSIShortSeriesIsNaN(t *testing.T) {
	out := RSI(ramp(10, 1), 14)
	for i, v := range out {
		if !math.IsNaN(v) {
			t.Fatalf("index %d: expected NaN, got %v", i, v)
		}
	}
}

func TestCrossovers(t *testing.T) {
	tests := []struct {
		name  string
		a, b  []float64
		above bool
		below bool
	}{
		{"crossed up", []float64{1, 3}, []float64{2, 2}, true, false},
		{"crossed down", []float64{3, 1}, []float64{2, 2}, false, true},
		{"no cross above", []float64{3, 4}, []float64{2, 2}, false, false},
		{"no cross below", []float64{1, 1.5}, []float64{2, 2}, false, false},
		{"touch then rise", []float64{2, 3}, []float64{2, 2}, true, false},
		{"nan bar", []float64{math.NaN(), 3}, []float64{2, 2}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CrossedAbove(tt.a, tt.b); got != tt.above {
				t.Fatalf("CrossedAbove=%v, expected %v", got, tt.above)
			}
			if got := CrossedBelow(tt.a, tt.b); got != tt.below {
				t.Fatalf("CrossedBelow=%v, expected %v", got, tt.below)
			}
		})
	}
}

func TestMACDHistogramConsistency(t *testing.T) {
	values := sawtooth(60)
	res := MACD(values)

	if len(res.MACD) != len(values) || len(res.Signal) != len(values) || len(res.Histogram) != len(values) {
		t.Fatalf("MACD output lengths mismatch input length %d", len(values))
	}
	for i := range values {
		want := res.MACD[i] - res.Signal[i]
		if math.Abs(res.Histogram[i]-want) > 1e-9 {
			t.Fatalf("index %d: histogram=%v, expected macd-signal=%v", i, res.Histogram[i], want)
		}
	}
}

func ramp(n int, step float64) []float64 {
	out := make([]float64, n)
	v := 100.0
	for i := range out {
		out[i] = v
		v += step
	}
	return out
}

func sawtooth(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i%5) - float64(i%3)
	}
	return out
}
