package notify

import (
	"strings"
	"testing"
	"time"

	"trendbot/internal/events"
	"trendbot/internal/ledger"
)

func TestRenderTrade(t *testing.T) {
	buy := RenderTrade(events.TradeExecuted{Record: ledger.TradeRecord{
		Side: "buy", Symbol: "BTCUSDT", Quantity: 0.5, Price: 100, Notional: 50, Reason: "MA crossover up",
	}})
	if !strings.HasPrefix(buy, "Bought") || !strings.Contains(buy, "MA crossover up") {
		t.Fatalf("unexpected buy message %q", buy)
	}
	if strings.Contains(buy, "Result") {
		t.Fatal("buy message must not report a result")
	}

	sell := RenderTrade(events.TradeExecuted{
		Record:     ledger.TradeRecord{Side: "sell", Symbol: "BTCUSDT", Quantity: 0.5, Price: 106, Notional: 53, Reason: "take-profit"},
		HasResult:  true,
		ResultPct:  6,
		ResultGain: 3,
	})
	if !strings.Contains(sell, "Sold") || !strings.Contains(sell, "Result: +6.00% (+3.00)") {
		t.Fatalf("unexpected sell message %q", sell)
	}
}

func TestRenderAlert(t *testing.T) {
	msg := RenderAlert(events.ProximityAlert{
		Symbol: "SOLUSDT", Threshold: "stop-loss", Level: 96, Price: 97.5, Distance: 0.0154,
	})
	if !strings.Contains(msg, "SOLUSDT") || !strings.Contains(msg, "stop-loss") {
		t.Fatalf("unexpected alert message %q", msg)
	}
	if !strings.Contains(msg, "1.54%") {
		t.Fatalf("distance not rendered as percent: %q", msg)
	}
}

func TestRenderSummary(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := RenderSummary(events.CycleSummary{
		Timestamp:    ts,
		TotalQuote:   1234.56,
		FreeQuote:    1000,
		Holdings:     []events.SymbolBalance{{Asset: "BTC", Amount: 0.005, QuoteValue: 234.56}},
		Change24hPct: 1.5,
		Has24h:       true,
		TradesLast24: []ledger.TradeRecord{{Timestamp: ts, Side: "buy", Quantity: 0.005, Price: 46912, Reason: "MA crossover up"}},
		ResultPct:    2.5,
		ResultQuote:  30,
		HasResult:    true,
		Skipped:      []string{"SOLUSDT"},
	})

	for _, want := range []string{"1234.56", "BTC", "24h: +1.50%", "Trades last 24h: 1", "Cumulative result: +2.50%", "Skipped: SOLUSDT"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("summary missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "7d:") {
		t.Fatal("7d delta rendered without data")
	}
}

type captureSink struct {
	ch chan string
}

func (c *captureSink) Send(text string) error {
	c.ch <- text
	return nil
}

func TestNotifierDeliversBusEvents(t *testing.T) {
	bus := events.NewBus()
	sink := &captureSink{ch: make(chan string, 1)}
	stop := New(bus, sink).Start()
	defer stop()

	bus.Publish(events.EventProximityAlert, events.ProximityAlert{
		Symbol: "BTCUSDT", Threshold: "take-profit", Level: 105, Price: 103.5, Distance: 0.0145,
	})

	select {
	case msg := <-sink.ch:
		if !strings.Contains(msg, "take-profit") {
			t.Fatalf("unexpected message %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
}
