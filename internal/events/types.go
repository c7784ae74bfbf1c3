package events

import (
	"time"

	"trendbot/internal/ledger"
)

// Event identifies a topic on the bus.
type Event string

const (
	// EventTradeExecuted fires after a fill has been persisted.
	EventTradeExecuted Event = "trade.executed"
	// EventProximityAlert fires when price approaches an exit threshold.
	EventProximityAlert Event = "risk.proximity"
	// EventCycleSummary fires once per completed scheduler pass.
	EventCycleSummary Event = "cycle.summary"
)

// TradeExecuted is the payload for EventTradeExecuted.
type TradeExecuted struct {
	Record ledger.TradeRecord
	// ResultPct is the realized P&L percent relative to entry, set on sells.
	ResultPct  float64
	HasResult  bool
	ResultGain float64 // quote currency
}

// ProximityAlert is the payload for EventProximityAlert.
type ProximityAlert struct {
	Symbol    string
	Threshold string  // "stop-loss" or "take-profit"
	Level     float64 // the threshold price
	Price     float64 // current price
	Distance  float64 // fraction of price remaining to the threshold
}

// SymbolBalance is one line of the cycle's balance summary.
type SymbolBalance struct {
	Asset      string
	Amount     float64
	QuoteValue float64
}

// CycleSummary is the payload for EventCycleSummary.
type CycleSummary struct {
	Timestamp    time.Time
	TotalQuote   float64
	FreeQuote    float64
	Holdings     []SymbolBalance
	Change24hPct float64
	Has24h       bool
	Change7dPct  float64
	Has7d        bool
	TradesLast24 []ledger.TradeRecord
	ResultPct    float64
	ResultQuote  float64
	HasResult    bool
	Skipped      []string // symbols skipped this cycle and why
}
