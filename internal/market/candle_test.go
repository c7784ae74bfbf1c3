package market

import (
	"encoding/json"
	"testing"
)

// Raw kline payloads arrive as JSON arrays of mixed strings and numbers.
func rawKlines(t *testing.T, payload string) []any {
	t.Helper()
	var raw []any
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestParseKlines(t *testing.T) {
	raw := rawKlines(t, `[
		[1700000000000, "100.0", "105.5", "99.0", "104.0", "12.5", 1700003599999, "1300.0", 42, "6.0", "624.0", "0"],
		[1700003600000, "104.0", "110.0", "103.0", "108.0", "8.0", 1700007199999, "864.0", 30, "4.0", "432.0", "0"]
	]`)

	series, err := ParseKlines(raw)
	if err != nil {
		t.Fatalf("ParseKlines: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(series))
	}

	first := series[0]
	if first.Open != 100 || first.High != 105.5 || first.Low != 99 || first.Close != 104 || first.Volume != 12.5 {
		t.Fatalf("unexpected first candle %+v", first)
	}
	if !first.CloseTime.After(first.OpenTime) {
		t.Fatalf("close time %v not after open time %v", first.CloseTime, first.OpenTime)
	}

	if got := series.Closes(); got[0] != 104 || got[1] != 108 {
		t.Fatalf("Closes() = %v", got)
	}
	if got := series.MaxHigh(); got != 110 {
		t.Fatalf("MaxHigh() = %v, want 110", got)
	}
}

func TestParseKlinesSkipsMalformedEntries(t *testing.T) {
	raw := rawKlines(t, `[
		"not an array",
		[1700000000000],
		[1700000000000, "100.0", "105.5", "99.0", "104.0", "12.5", 1700003599999]
	]`)

	series, err := ParseKlines(raw)
	if err != nil {
		t.Fatalf("ParseKlines: %v", err)
	}
	if len(series) != 1 {
		t.Fatalf("expected the single well-formed candle, got %d", len(series))
	}
}

func TestParseKlinesRejectsBadNumbers(t *testing.T) {
	raw := rawKlines(t, `[
		[1700000000000, "not-a-number", "105.5", "99.0", "104.0", "12.5", 1700003599999]
	]`)

	if _, err := ParseKlines(raw); err == nil {
		t.Fatal("expected an error for an unparseable price field")
	}
}

func TestMaxHighEmptySeries(t *testing.T) {
	if got := (Series{}).MaxHigh(); got != 0 {
		t.Fatalf("MaxHigh() on empty series = %v, want 0", got)
	}
}
