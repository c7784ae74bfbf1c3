// Package ledger owns the durable trading state: one position per symbol,
// the append-only trade history and the rolling equity samples. The JSON
// snapshot on disk is the engine's only memory across restarts.
package ledger

import (
	"time"
)

// SchemaVersion is written into every snapshot. Additive schema changes
// bump it; loading older versions fills the new fields with defaults.
const SchemaVersion = 1

// EquityCapacity bounds the equity ring: 7 days at hourly cadence.
const EquityCapacity = 168

// Position is the per-symbol state machine payload. While InPosition is
// true, StopLoss < EntryPrice < TakeProfit holds; both thresholds are fixed
// at entry and never recomputed while the position is open.
type Position struct {
	InPosition bool    `json:"in_position"`
	EntryPrice float64 `json:"entry_price"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
	WeeklyHigh float64 `json:"weekly_high"`
}

// TradeRecord is one executed order. Records are append-only.
type TradeRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`
	Side      string    `json:"side"` // "buy" or "sell"
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`
	Notional  float64   `json:"notional"`
	Reason    string    `json:"reason"`
}

// EquitySample is one point of total account value in the quote currency.
type EquitySample struct {
	Timestamp  time.Time `json:"timestamp"`
	TotalQuote float64   `json:"total_quote"`
}

// Snapshot is the aggregate persisted as a whole document.
type Snapshot struct {
	Version   int                  `json:"version"`
	Positions map[string]*Position `json:"positions"`
	Trades    []TradeRecord        `json:"trades"`
	Equity    []EquitySample       `json:"equity"`
}

// NewSnapshot returns the default closed state for the configured symbols.
func NewSnapshot(symbols []string) *Snapshot {
	s := &Snapshot{
		Version:   SchemaVersion,
		Positions: make(map[string]*Position, len(symbols)),
	}
	s.EnsureSymbols(symbols)
	return s
}

// EnsureSymbols default-initializes any configured symbol the snapshot does
// not know yet. New assets load safely instead of failing.
func (s *Snapshot) EnsureSymbols(symbols []string) {
	if s.Positions == nil {
		s.Positions = make(map[string]*Position, len(symbols))
	}
	for _, sym := range symbols {
		if _, ok := s.Positions[sym]; !ok {
			s.Positions[sym] = &Position{}
		}
	}
	if s.Version == 0 {
		s.Version = SchemaVersion
	}
}

// Position returns the state for a symbol, default-initializing it if absent.
func (s *Snapshot) Position(symbol string) *Position {
	s.EnsureSymbols([]string{symbol})
	return s.Positions[symbol]
}

// Open marks the position long, fixing the exit thresholds at entry.
func (p *Position) Open(entryPrice, stopLossPct, takeProfitPct float64) {
	p.InPosition = true
	p.EntryPrice = entryPrice
	p.StopLoss = entryPrice * (1 - stopLossPct)
	p.TakeProfit = entryPrice * (1 + takeProfitPct)
}

// Close marks the position flat. Price fields are left stale; they are
// ignored while InPosition is false.
func (p *Position) Close() {
	p.InPosition = false
}

// AppendTrade appends one record to the history.
func (s *Snapshot) AppendTrade(t TradeRecord) {
	s.Trades = append(s.Trades, t)
}

// AppendEquity appends a sample, evicting the oldest beyond EquityCapacity.
func (s *Snapshot) AppendEquity(sample EquitySample) {
	s.Equity = append(s.Equity, sample)
	if excess := len(s.Equity) - EquityCapacity; excess > 0 {
		s.Equity = append([]EquitySample(nil), s.Equity[excess:]...)
	}
}

// EquityChangeSince returns the percent change between the latest sample and
// the newest sample at least age old. ok is false when history is too short.
func (s *Snapshot) EquityChangeSince(now time.Time, age time.Duration) (pct float64, ok bool) {
	if len(s.Equity) < 2 {
		return 0, false
	}
	latest := s.Equity[len(s.Equity)-1]
	cutoff := now.Add(-age)
	for i := len(s.Equity) - 1; i >= 0; i-- {
		if !s.Equity[i].Timestamp.After(cutoff) {
			old := s.Equity[i].TotalQuote
			if old == 0 {
				return 0, false
			}
			return (latest.TotalQuote - old) / old * 100, true
		}
	}
	return 0, false
}

// TradesSince returns the records newer than age, newest last.
func (s *Snapshot) TradesSince(now time.Time, age time.Duration) []TradeRecord {
	cutoff := now.Add(-age)
	var out []TradeRecord
	for _, t := range s.Trades {
		if t.Timestamp.After(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

// Result sums notional per side over the whole history and reports the
// cumulative outcome as a percent of everything bought. ok is false before
// the first buy.
func (s *Snapshot) Result() (pct float64, quote float64, ok bool) {
	var bought, sold float64
	for _, t := range s.Trades {
		switch t.Side {
		case "buy":
			bought += t.Notional
		case "sell":
			sold += t.Notional
		}
	}
	if bought == 0 {
		return 0, 0, false
	}
	return (sold - bought) / bought * 100, sold - bought, true
}
