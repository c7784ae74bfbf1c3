package exchange

import (
	"context"

	"trendbot/internal/market"
)

// resilient decorates a Gateway so every call runs under the retry policy.
type resilient struct {
	gw       Gateway
	attempts int
}

// WithRetry wraps gw so each call is retried on transient failures up to
// attempts times before a fatal *APIError surfaces to the caller.
func WithRetry(gw Gateway, attempts int) Gateway {
	return &resilient{gw: gw, attempts: attempts}
}

func (r *resilient) Balances(ctx context.Context) (map[string]float64, error) {
	var out map[string]float64
	err := Retry(ctx, "balances", r.attempts, func() error {
		var err error
		out, err = r.gw.Balances(ctx)
		return err
	})
	return out, err
}

func (r *resilient) Price(ctx context.Context, symbol string) (float64, error) {
	var out float64
	err := Retry(ctx, "price "+symbol, r.attempts, func() error {
		var err error
		out, err = r.gw.Price(ctx, symbol)
		return err
	})
	return out, err
}

func (r *resilient) Candles(ctx context.Context, symbol, interval string, limit int) (market.Series, error) {
	var out market.Series
	err := Retry(ctx, "candles "+symbol, r.attempts, func() error {
		var err error
		out, err = r.gw.Candles(ctx, symbol, interval, limit)
		return err
	})
	return out, err
}

func (r *resilient) LotConstraints(ctx context.Context, symbol string) (LotConstraints, error) {
	var out LotConstraints
	err := Retry(ctx, "lot constraints "+symbol, r.attempts, func() error {
		var err error
		out, err = r.gw.LotConstraints(ctx, symbol)
		return err
	})
	return out, err
}

func (r *resilient) SubmitOrder(ctx context.Context, symbol string, side Side, qty float64, clientID string) (Fill, error) {
	var out Fill
	err := Retry(ctx, "order "+symbol, r.attempts, func() error {
		var err error
		out, err = r.gw.SubmitOrder(ctx, symbol, side, qty, clientID)
		return err
	})
	return out, err
}
