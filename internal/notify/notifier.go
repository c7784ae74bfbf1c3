// Package notify renders engine events as plain-text operator messages. The
// sink is best-effort: a failed delivery is logged and never blocks trading.
package notify

import (
	"fmt"
	"log"
	"strings"

	"trendbot/internal/events"
)

// Sink delivers one rendered message.
type Sink interface {
	Send(text string) error
}

// LogSink writes messages to the process log. It is the default sink when no
// external channel is configured.
type LogSink struct{}

func (LogSink) Send(text string) error {
	for _, line := range strings.Split(text, "\n") {
		log.Printf("notify: %s", line)
	}
	return nil
}

// Notifier subscribes to the event bus and pushes rendered summaries to the
// sink.
type Notifier struct {
	bus  *events.Bus
	sink Sink
}

// New wires a notifier. A nil sink falls back to LogSink.
func New(bus *events.Bus, sink Sink) *Notifier {
	if sink == nil {
		sink = LogSink{}
	}
	return &Notifier{bus: bus, sink: sink}
}

// Start consumes events until stop is called. Returned stop unsubscribes and
// lets the consumer goroutine drain out.
func (n *Notifier) Start() (stop func()) {
	trades, unsubTrades := n.bus.Subscribe(events.EventTradeExecuted, 16)
	alerts, unsubAlerts := n.bus.Subscribe(events.EventProximityAlert, 16)
	summaries, unsubSummaries := n.bus.Subscribe(events.EventCycleSummary, 4)

	go n.consume(trades, alerts, summaries)

	return func() {
		unsubTrades()
		unsubAlerts()
		unsubSummaries()
	}
}

func (n *Notifier) consume(trades, alerts, summaries <-chan any) {
	for trades != nil || alerts != nil || summaries != nil {
		select {
		case p, ok := <-trades:
			if !ok {
				trades = nil
				continue
			}
			n.send(RenderTrade(p.(events.TradeExecuted)))
		case p, ok := <-alerts:
			if !ok {
				alerts = nil
				continue
			}
			n.send(RenderAlert(p.(events.ProximityAlert)))
		case p, ok := <-summaries:
			if !ok {
				summaries = nil
				continue
			}
			n.send(RenderSummary(p.(events.CycleSummary)))
		}
	}
}

func (n *Notifier) send(text string) {
	if err := n.sink.Send(text); err != nil {
		log.Printf("notify: delivery failed: %v", err)
	}
}

// RenderTrade formats a trade confirmation, with realized P&L on sells.
func RenderTrade(t events.TradeExecuted) string {
	r := t.Record
	verb := "Bought"
	if r.Side == "sell" {
		verb = "Sold"
	}
	msg := fmt.Sprintf("%s %.8f %s at %.4f (%.2f) [%s]",
		verb, r.Quantity, r.Symbol, r.Price, r.Notional, r.Reason)
	if t.HasResult {
		msg += fmt.Sprintf("\nResult: %+.2f%% (%+.2f)", t.ResultPct, t.ResultGain)
	}
	return msg
}

// RenderAlert formats a proximity warning.
func RenderAlert(a events.ProximityAlert) string {
	return fmt.Sprintf("Warning: %s at %.4f is within %.2f%% of %s %.4f",
		a.Symbol, a.Price, a.Distance*100, a.Threshold, a.Level)
}

// RenderSummary formats the end-of-cycle balance and activity report.
func RenderSummary(s events.CycleSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Cycle %s: total %.2f (free %.2f)",
		s.Timestamp.Format("2006-01-02 15:04"), s.TotalQuote, s.FreeQuote)
	for _, h := range s.Holdings {
		fmt.Fprintf(&b, "\n  %s: %.8f (%.2f)", h.Asset, h.Amount, h.QuoteValue)
	}

	if s.Has24h {
		fmt.Fprintf(&b, "\n24h: %+.2f%%", s.Change24hPct)
	}
	if s.Has7d {
		fmt.Fprintf(&b, "\n7d: %+.2f%%", s.Change7dPct)
	}

	if len(s.TradesLast24) > 0 {
		fmt.Fprintf(&b, "\nTrades last 24h: %d", len(s.TradesLast24))
		for _, t := range s.TradesLast24 {
			fmt.Fprintf(&b, "\n  %s %s %.8f at %.4f [%s]",
				t.Timestamp.Format("15:04"), t.Side, t.Quantity, t.Price, t.Reason)
		}
	}
	if s.HasResult {
		fmt.Fprintf(&b, "\nCumulative result: %+.2f%% (%+.2f)", s.ResultPct, s.ResultQuote)
	}
	if len(s.Skipped) > 0 {
		fmt.Fprintf(&b, "\nSkipped: %s", strings.Join(s.Skipped, ", "))
	}
	return b.String()
}
