package exchange

import (
	"context"

	"trendbot/internal/market"
)

// Side is an order direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// LotConstraints are the exchange-imposed sizing rules for a symbol.
type LotConstraints struct {
	MinQty      float64
	StepSize    float64
	MinNotional float64
}

// Fill is the normalized result of a submitted market order.
type Fill struct {
	OrderID  string
	ClientID string
	Symbol   string
	Side     Side
	Qty      float64
	Price    float64
}

// Gateway abstracts a trading venue. Every method returns normalized typed
// values, never raw wire payloads, and may fail with *APIError.
type Gateway interface {
	// Balances returns free balances per asset.
	Balances(ctx context.Context) (map[string]float64, error)
	// Price returns the last ticker price for a symbol.
	Price(ctx context.Context, symbol string) (float64, error)
	// Candles returns up to limit bars of the given interval, time-ascending.
	Candles(ctx context.Context, symbol, interval string, limit int) (market.Series, error)
	// LotConstraints returns the sizing filters for a symbol.
	LotConstraints(ctx context.Context, symbol string) (LotConstraints, error)
	// SubmitOrder places a market order with an optional client order ID.
	SubmitOrder(ctx context.Context, symbol string, side Side, qty float64, clientID string) (Fill, error)
}
