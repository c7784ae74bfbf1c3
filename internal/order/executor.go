// Package order turns engine decisions into exchange orders and records the
// outcome. The executor is the only component that mutates positions.
package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"trendbot/internal/engine"
	"trendbot/internal/events"
	"trendbot/internal/ledger"
	"trendbot/pkg/config"
	"trendbot/pkg/db"
	"trendbot/pkg/exchange"
)

// Executor applies actions against the gateway and persists every fill to
// the ledger snapshot and the trade journal.
type Executor struct {
	gw      exchange.Gateway
	store   *ledger.Store
	journal *db.Database // optional
	bus     *events.Bus
	params  config.Params
}

// NewExecutor wires an executor. journal may be nil to skip the SQL mirror.
func NewExecutor(gw exchange.Gateway, store *ledger.Store, journal *db.Database, bus *events.Bus, params config.Params) *Executor {
	return &Executor{gw: gw, store: store, journal: journal, bus: bus, params: params}
}

// Apply runs every action of a cycle. Order failures are logged and do not
// stop the remaining actions; the joined error is returned for the cycle
// summary. The snapshot is only mutated for orders the exchange accepted.
func (e *Executor) Apply(ctx context.Context, snap *ledger.Snapshot, actions []engine.Action) error {
	var errs []error
	for _, act := range actions {
		var err error
		switch act.Kind {
		case engine.ActionSell:
			err = e.Sell(ctx, snap, act)
		case engine.ActionBuy:
			err = e.Buy(ctx, snap, act)
		case engine.ActionAlert:
			e.bus.Publish(events.EventProximityAlert, events.ProximityAlert{
				Symbol:    act.Symbol,
				Threshold: act.AlertThreshold,
				Level:     act.AlertLevel,
				Price:     act.Price,
				Distance:  act.AlertDistance,
			})
		}
		if err != nil {
			log.Printf("order: %s %s failed: %v", act.Symbol, act.Reason, err)
			errs = append(errs, fmt.Errorf("%s: %w", act.Symbol, err))
		}
	}
	return errors.Join(errs...)
}

// Buy spends the allocated quote budget on a market buy. A budget too small
// for the lot filters skips the order without error.
func (e *Executor) Buy(ctx context.Context, snap *ledger.Snapshot, act engine.Action) error {
	lots, err := e.gw.LotConstraints(ctx, act.Symbol)
	if err != nil {
		return fmt.Errorf("lot constraints: %w", err)
	}

	qty := AdjustQuantity(act.Budget/act.Price, act.Price, lots)
	if qty == 0 {
		log.Printf("order: %s buy skipped, budget %.2f below exchange minimum", act.Symbol, act.Budget)
		return nil
	}

	fill, err := e.gw.SubmitOrder(ctx, act.Symbol, exchange.SideBuy, qty, uuid.NewString())
	if err != nil {
		return fmt.Errorf("submit buy: %w", err)
	}

	snap.Position(act.Symbol).Open(fill.Price, e.params.StopLossPct, e.params.TakeProfitPct)
	rec := e.record(fill, "buy", act.Reason)
	snap.AppendTrade(rec)
	e.persist(ctx, snap, rec, fill.OrderID)
	e.bus.Publish(events.EventTradeExecuted, events.TradeExecuted{Record: rec})

	log.Printf("order: bought %.8f %s at %.4f (%s)", fill.Qty, act.Symbol, fill.Price, act.Reason)
	return nil
}

// Sell liquidates the full free holding of the symbol's base asset.
func (e *Executor) Sell(ctx context.Context, snap *ledger.Snapshot, act engine.Action) error {
	balances, err := e.gw.Balances(ctx)
	if err != nil {
		return fmt.Errorf("balances: %w", err)
	}
	held := balances[e.params.BaseAsset(act.Symbol)]

	lots, err := e.gw.LotConstraints(ctx, act.Symbol)
	if err != nil {
		return fmt.Errorf("lot constraints: %w", err)
	}

	qty := AdjustQuantity(held, act.Price, lots)
	if qty == 0 {
		log.Printf("order: %s sell skipped, holding %.8f below exchange minimum", act.Symbol, held)
		return nil
	}

	fill, err := e.gw.SubmitOrder(ctx, act.Symbol, exchange.SideSell, qty, uuid.NewString())
	if err != nil {
		return fmt.Errorf("submit sell: %w", err)
	}

	pos := snap.Position(act.Symbol)
	entry := pos.EntryPrice
	pos.Close()

	rec := e.record(fill, "sell", act.Reason)
	snap.AppendTrade(rec)
	e.persist(ctx, snap, rec, fill.OrderID)

	evt := events.TradeExecuted{Record: rec}
	if entry > 0 {
		evt.HasResult = true
		evt.ResultPct = (fill.Price - entry) / entry * 100
		evt.ResultGain = (fill.Price - entry) * fill.Qty
	}
	e.bus.Publish(events.EventTradeExecuted, evt)

	log.Printf("order: sold %.8f %s at %.4f (%s)", fill.Qty, act.Symbol, fill.Price, act.Reason)
	return nil
}

func (e *Executor) record(fill exchange.Fill, side, reason string) ledger.TradeRecord {
	return ledger.TradeRecord{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Symbol:    fill.Symbol,
		Side:      side,
		Quantity:  fill.Qty,
		Price:     fill.Price,
		Notional:  fill.Qty * fill.Price,
		Reason:    reason,
	}
}

// persist writes the snapshot and mirrors the record to the journal. Both
// are best-effort after an accepted fill: the order already happened, so
// failures are logged rather than unwinding state.
func (e *Executor) persist(ctx context.Context, snap *ledger.Snapshot, rec ledger.TradeRecord, orderID string) {
	if err := e.store.Save(snap); err != nil {
		log.Printf("order: snapshot save failed after %s %s: %v", rec.Side, rec.Symbol, err)
	}
	if e.journal == nil {
		return
	}
	err := e.journal.InsertTrade(ctx, db.Trade{
		ID:        rec.ID,
		OrderID:   orderID,
		Symbol:    rec.Symbol,
		Side:      rec.Side,
		Qty:       rec.Quantity,
		Price:     rec.Price,
		Notional:  rec.Notional,
		Reason:    rec.Reason,
		CreatedAt: rec.Timestamp,
	})
	if err != nil {
		log.Printf("order: journal insert failed for %s: %v", rec.ID, err)
	}
}
