package market

import (
	"fmt"
	"strconv"
	"time"
)

// Candle is a single OHLCV bar. Immutable once constructed by the gateway.
type Candle struct {
	OpenTime  time.Time
	CloseTime time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Series is an ascending-time ordered candle sequence for one symbol.
type Series []Candle

// Closes extracts the close prices in bar order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

// MaxHigh returns the highest high over the whole series, 0 when empty.
func (s Series) MaxHigh() float64 {
	max := 0.0
	for _, c := range s {
		if c.High > max {
			max = c.High
		}
	}
	return max
}

// Len reports the number of bars.
func (s Series) Len() int { return len(s) }

// ParseKlines converts the raw Binance kline arrays into a typed Series.
// Entries that do not match the documented shape are skipped rather than
// failing the whole batch.
func ParseKlines(raw []any) (Series, error) {
	out := make(Series, 0, len(raw))
	for _, entry := range raw {
		k, ok := entry.([]any)
		if !ok || len(k) < 7 {
			continue
		}
		openTime, ok := k[0].(float64)
		if !ok {
			continue
		}
		closeTime, _ := k[6].(float64)

		c := Candle{
			OpenTime:  time.UnixMilli(int64(openTime)),
			CloseTime: time.UnixMilli(int64(closeTime)),
		}
		var err error
		if c.Open, err = parseField(k[1]); err != nil {
			return nil, fmt.Errorf("kline open: %w", err)
		}
		if c.High, err = parseField(k[2]); err != nil {
			return nil, fmt.Errorf("kline high: %w", err)
		}
		if c.Low, err = parseField(k[3]); err != nil {
			return nil, fmt.Errorf("kline low: %w", err)
		}
		if c.Close, err = parseField(k[4]); err != nil {
			return nil, fmt.Errorf("kline close: %w", err)
		}
		if c.Volume, err = parseField(k[5]); err != nil {
			return nil, fmt.Errorf("kline volume: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

func parseField(v any) (float64, error) {
	switch t := v.(type) {
	case string:
		return strconv.ParseFloat(t, 64)
	case float64:
		return t, nil
	default:
		return 0, fmt.Errorf("unexpected kline field type %T", v)
	}
}
