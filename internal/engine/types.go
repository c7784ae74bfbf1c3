package engine

import (
	"trendbot/internal/market"
)

// ActionKind discriminates decision outcomes.
type ActionKind int

const (
	// ActionSell closes the full holding of a symbol.
	ActionSell ActionKind = iota
	// ActionBuy opens a position with the allocated quote budget.
	ActionBuy
	// ActionAlert emits a proximity warning without touching state.
	ActionAlert
)

// Action is one decision produced by a cycle. Sells liquidate the whole
// holding; buys carry the quote budget allocated to the symbol.
type Action struct {
	Kind   ActionKind
	Symbol string
	Reason string
	Price  float64
	Budget float64 // quote currency, buys only

	// Alert fields, set when Kind == ActionAlert.
	AlertThreshold string  // "stop-loss" or "take-profit"
	AlertLevel     float64 // threshold price
	AlertDistance  float64 // fraction of price remaining to the threshold
}

// MarketSnapshot is everything a cycle observed about the market. Building
// it is the gateway's job; deciding on it needs no I/O.
type MarketSnapshot struct {
	Prices    map[string]float64
	Candles   map[string]market.Series
	FreeQuote float64
}
