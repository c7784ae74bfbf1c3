// Package sim provides an in-memory venue for dry-run mode and tests. It
// can delegate market data to a live gateway while keeping balances and
// fills purely local, so no order ever reaches the exchange.
package sim

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"trendbot/internal/market"
	"trendbot/pkg/exchange"
)

// Gateway simulates order execution over optionally-live market data.
type Gateway struct {
	mu         sync.Mutex
	inner      exchange.Gateway // optional market-data source
	quoteAsset string
	balances   map[string]float64
	prices     map[string]float64
	candles    map[string]market.Series
	lots       map[string]exchange.LotConstraints
	orderSeq   int
}

// New builds a simulated venue seeded with an initial quote balance. When
// inner is non-nil, prices/candles/lot constraints come from it.
func New(inner exchange.Gateway, quoteAsset string, initialBalance float64) *Gateway {
	return &Gateway{
		inner:      inner,
		quoteAsset: quoteAsset,
		balances:   map[string]float64{quoteAsset: initialBalance},
		prices:     make(map[string]float64),
		candles:    make(map[string]market.Series),
		lots:       make(map[string]exchange.LotConstraints),
	}
}

// SetPrice scripts the ticker price for a symbol.
func (g *Gateway) SetPrice(symbol string, price float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prices[symbol] = price
}

// SetCandles scripts the candle series for a symbol.
func (g *Gateway) SetCandles(symbol string, series market.Series) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.candles[symbol] = series
}

// SetLotConstraints scripts the sizing filters for a symbol.
func (g *Gateway) SetLotConstraints(symbol string, lot exchange.LotConstraints) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lots[symbol] = lot
}

// SetBalance overrides an asset balance.
func (g *Gateway) SetBalance(asset string, amount float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.balances[asset] = amount
}

func (g *Gateway) Balances(ctx context.Context) (map[string]float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]float64, len(g.balances))
	for k, v := range g.balances {
		out[k] = v
	}
	return out, nil
}

func (g *Gateway) Price(ctx context.Context, symbol string) (float64, error) {
	if g.inner != nil {
		price, err := g.inner.Price(ctx, symbol)
		if err == nil {
			g.SetPrice(symbol, price) // remember for fills
		}
		return price, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	price, ok := g.prices[symbol]
	if !ok {
		return 0, exchange.Fatal("sim.price", fmt.Errorf("no scripted price for %s", symbol))
	}
	return price, nil
}

func (g *Gateway) Candles(ctx context.Context, symbol, interval string, limit int) (market.Series, error) {
	if g.inner != nil {
		return g.inner.Candles(ctx, symbol, interval, limit)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	series := g.candles[symbol]
	if limit > 0 && len(series) > limit {
		series = series[len(series)-limit:]
	}
	return series, nil
}

func (g *Gateway) LotConstraints(ctx context.Context, symbol string) (exchange.LotConstraints, error) {
	g.mu.Lock()
	if lot, ok := g.lots[symbol]; ok {
		g.mu.Unlock()
		return lot, nil
	}
	g.mu.Unlock()

	if g.inner != nil {
		return g.inner.LotConstraints(ctx, symbol)
	}
	// Permissive defaults matching typical spot pairs.
	return exchange.LotConstraints{MinQty: 0.00001, StepSize: 0.00001, MinNotional: 10}, nil
}

// SubmitOrder fills a market order instantly at the last known price and
// moves the simulated balances accordingly.
func (g *Gateway) SubmitOrder(ctx context.Context, symbol string, side exchange.Side, qty float64, clientID string) (exchange.Fill, error) {
	const op = "sim.order"

	g.mu.Lock()
	defer g.mu.Unlock()

	price, ok := g.prices[symbol]
	if !ok || price <= 0 {
		return exchange.Fill{}, exchange.Fatal(op, fmt.Errorf("no price for %s", symbol))
	}

	base := strings.TrimSuffix(symbol, g.quoteAsset)
	notional := qty * price

	switch side {
	case exchange.SideBuy:
		if g.balances[g.quoteAsset] < notional {
			return exchange.Fill{}, exchange.Fatal(op, fmt.Errorf(
				"insufficient %s: need %.2f, have %.2f", g.quoteAsset, notional, g.balances[g.quoteAsset]))
		}
		g.balances[g.quoteAsset] -= notional
		g.balances[base] += qty
	case exchange.SideSell:
		if g.balances[base] < qty {
			return exchange.Fill{}, exchange.Fatal(op, fmt.Errorf(
				"insufficient %s: need %v, have %v", base, qty, g.balances[base]))
		}
		g.balances[base] -= qty
		g.balances[g.quoteAsset] += notional
	default:
		return exchange.Fill{}, exchange.Fatal(op, fmt.Errorf("unknown side %q", side))
	}

	g.orderSeq++
	if clientID == "" {
		clientID = uuid.NewString()
	}
	return exchange.Fill{
		OrderID:  fmt.Sprintf("sim-%d", g.orderSeq),
		ClientID: clientID,
		Symbol:   symbol,
		Side:     side,
		Qty:      qty,
		Price:    price,
	}, nil
}
