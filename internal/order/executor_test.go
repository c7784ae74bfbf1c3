package order

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"trendbot/internal/engine"
	"trendbot/internal/events"
	"trendbot/internal/ledger"
	"trendbot/pkg/config"
	"trendbot/pkg/exchange"
	"trendbot/pkg/exchange/sim"
)

func newFixture(t *testing.T, quoteBalance float64) (*Executor, *sim.Gateway, *ledger.Store, *events.Bus) {
	t.Helper()
	gw := sim.New(nil, "USDT", quoteBalance)
	store := ledger.NewStore(filepath.Join(t.TempDir(), "ledger.json"))
	bus := events.NewBus()
	params := config.DefaultParams()
	return NewExecutor(gw, store, nil, bus, params), gw, store, bus
}

func TestBuyOpensPositionWithThresholds(t *testing.T) {
	exec, gw, store, bus := newFixture(t, 1000)
	gw.SetPrice("BTCUSDT", 100)
	gw.SetLotConstraints("BTCUSDT", exchange.LotConstraints{MinQty: 0.001, StepSize: 0.001, MinNotional: 10})

	trades, unsub := bus.Subscribe(events.EventTradeExecuted, 1)
	defer unsub()

	snap := ledger.NewSnapshot([]string{"BTCUSDT"})
	err := exec.Buy(context.Background(), snap, engine.Action{
		Kind: engine.ActionBuy, Symbol: "BTCUSDT", Reason: "MA crossover up", Price: 100, Budget: 500,
	})
	if err != nil {
		t.Fatalf("Buy: %v", err)
	}

	pos := snap.Position("BTCUSDT")
	if !pos.InPosition {
		t.Fatal("position not opened")
	}
	if pos.EntryPrice != 100 || pos.StopLoss != 96 || pos.TakeProfit != 105 {
		t.Fatalf("thresholds = entry %v, sl %v, tp %v; want 100/96/105", pos.EntryPrice, pos.StopLoss, pos.TakeProfit)
	}
	if len(snap.Trades) != 1 {
		t.Fatalf("expected exactly one trade record, got %d", len(snap.Trades))
	}
	rec := snap.Trades[0]
	if rec.Side != "buy" || rec.Reason != "MA crossover up" || rec.ID == "" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Quantity != 5 || rec.Notional != 500 {
		t.Fatalf("expected 5 BTC for 500 USDT, got qty %v notional %v", rec.Quantity, rec.Notional)
	}

	// The fill must be durable before the event goes out.
	reloaded, err := store.Load([]string{"BTCUSDT"})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.Position("BTCUSDT").InPosition {
		t.Fatal("open position not persisted")
	}

	select {
	case got := <-trades:
		evt := got.(events.TradeExecuted)
		if evt.Record.ID != rec.ID || evt.HasResult {
			t.Fatalf("unexpected event %+v", evt)
		}
	default:
		t.Fatal("no trade event published")
	}
}

func TestSellClosesPositionAndReportsResult(t *testing.T) {
	exec, gw, _, bus := newFixture(t, 0)
	gw.SetPrice("BTCUSDT", 106)
	gw.SetBalance("BTC", 5)
	gw.SetLotConstraints("BTCUSDT", exchange.LotConstraints{MinQty: 0.001, StepSize: 0.001, MinNotional: 10})

	trades, unsub := bus.Subscribe(events.EventTradeExecuted, 1)
	defer unsub()

	snap := ledger.NewSnapshot([]string{"BTCUSDT"})
	snap.Position("BTCUSDT").Open(100, 0.04, 0.05)

	err := exec.Sell(context.Background(), snap, engine.Action{
		Kind: engine.ActionSell, Symbol: "BTCUSDT", Reason: "take-profit", Price: 106,
	})
	if err != nil {
		t.Fatalf("Sell: %v", err)
	}

	if snap.Position("BTCUSDT").InPosition {
		t.Fatal("position still open after sell")
	}
	if len(snap.Trades) != 1 || snap.Trades[0].Side != "sell" {
		t.Fatalf("unexpected trades %+v", snap.Trades)
	}

	select {
	case got := <-trades:
		evt := got.(events.TradeExecuted)
		if !evt.HasResult {
			t.Fatal("sell event missing realized result")
		}
		if math.Abs(evt.ResultPct-6) > 1e-9 {
			t.Fatalf("ResultPct = %v, want 6", evt.ResultPct)
		}
		if math.Abs(evt.ResultGain-30) > 1e-9 { // (106-100)*5
			t.Fatalf("ResultGain = %v, want 30", evt.ResultGain)
		}
	default:
		t.Fatal("no trade event published")
	}
}

func TestBuyFailureLeavesStateUntouched(t *testing.T) {
	exec, gw, store, _ := newFixture(t, 100) // cannot afford the order
	gw.SetPrice("BTCUSDT", 100)
	gw.SetLotConstraints("BTCUSDT", exchange.LotConstraints{MinQty: 0.001, StepSize: 0.001, MinNotional: 10})

	snap := ledger.NewSnapshot([]string{"BTCUSDT"})
	err := exec.Buy(context.Background(), snap, engine.Action{
		Kind: engine.ActionBuy, Symbol: "BTCUSDT", Reason: "MA crossover up", Price: 100, Budget: 500,
	})
	if err == nil {
		t.Fatal("expected a rejected order to error")
	}

	if snap.Position("BTCUSDT").InPosition {
		t.Fatal("failed buy must not open the position")
	}
	if len(snap.Trades) != 0 {
		t.Fatalf("failed buy must not record a trade, got %+v", snap.Trades)
	}

	reloaded, err := store.Load([]string{"BTCUSDT"})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.Trades) != 0 {
		t.Fatal("failed buy must not be persisted")
	}
}

func TestBuyBelowLotMinimumIsSkipped(t *testing.T) {
	exec, gw, _, _ := newFixture(t, 1000)
	gw.SetPrice("BTCUSDT", 100)
	gw.SetLotConstraints("BTCUSDT", exchange.LotConstraints{MinQty: 0.001, StepSize: 0.001, MinNotional: 10})

	snap := ledger.NewSnapshot([]string{"BTCUSDT"})
	err := exec.Buy(context.Background(), snap, engine.Action{
		Kind: engine.ActionBuy, Symbol: "BTCUSDT", Reason: "MA crossover up", Price: 100, Budget: 5,
	})
	if err != nil {
		t.Fatalf("a too-small budget should skip, not fail: %v", err)
	}
	if snap.Position("BTCUSDT").InPosition || len(snap.Trades) != 0 {
		t.Fatal("skipped buy must not touch state")
	}
}

func TestApplyContinuesPastFailures(t *testing.T) {
	exec, gw, _, bus := newFixture(t, 1000)
	gw.SetPrice("BTCUSDT", 100)
	gw.SetLotConstraints("BTCUSDT", exchange.LotConstraints{MinQty: 0.001, StepSize: 0.001, MinNotional: 10})
	// SOLUSDT has no scripted price, its order fails.

	alerts, unsub := bus.Subscribe(events.EventProximityAlert, 1)
	defer unsub()

	snap := ledger.NewSnapshot([]string{"BTCUSDT", "SOLUSDT"})
	err := exec.Apply(context.Background(), snap, []engine.Action{
		{Kind: engine.ActionBuy, Symbol: "SOLUSDT", Reason: "MA crossover up", Price: 20, Budget: 100},
		{Kind: engine.ActionBuy, Symbol: "BTCUSDT", Reason: "MA crossover up", Price: 100, Budget: 500},
		{Kind: engine.ActionAlert, Symbol: "BTCUSDT", AlertThreshold: "stop-loss", AlertLevel: 96, Price: 97.5, AlertDistance: 0.015},
	})
	if err == nil {
		t.Fatal("expected the SOLUSDT failure to surface")
	}

	if !snap.Position("BTCUSDT").InPosition {
		t.Fatal("later actions must still run after a failure")
	}
	select {
	case got := <-alerts:
		alert := got.(events.ProximityAlert)
		if alert.Threshold != "stop-loss" || alert.Symbol != "BTCUSDT" {
			t.Fatalf("unexpected alert %+v", alert)
		}
	default:
		t.Fatal("no proximity alert published")
	}
}
