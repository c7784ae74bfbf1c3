// Package scheduler drives the trading loop: one full observe/decide/act
// pass per cycle, with a sleep in between. A failing pass is abandoned and
// the next one starts from persisted state.
package scheduler

import (
	"context"
	"log"
	"time"

	"trendbot/internal/engine"
	"trendbot/internal/events"
	"trendbot/internal/ledger"
	"trendbot/internal/market"
	"trendbot/internal/order"
	"trendbot/pkg/config"
	"trendbot/pkg/exchange"
)

// Scheduler owns the cycle cadence and assembles the market snapshot each
// pass.
type Scheduler struct {
	gw     exchange.Gateway
	store  *ledger.Store
	exec   *order.Executor
	bus    *events.Bus
	params config.Params

	// last good snapshot, used when a reload fails mid-flight
	snap *ledger.Snapshot

	now func() time.Time
}

// New wires a scheduler.
func New(gw exchange.Gateway, store *ledger.Store, exec *order.Executor, bus *events.Bus, params config.Params) *Scheduler {
	return &Scheduler{
		gw:     gw,
		store:  store,
		exec:   exec,
		bus:    bus,
		params: params,
		now:    time.Now,
	}
}

// Run cycles until the context is cancelled. Cancellation is honored between
// passes and in the blocking gateway calls of the current pass.
func (s *Scheduler) Run(ctx context.Context) {
	interval := s.params.CycleInterval()
	log.Printf("scheduler: running every %s for %v", interval, s.params.Symbols)

	for {
		s.RunCycle(ctx)
		select {
		case <-ctx.Done():
			log.Print("scheduler: stopped")
			return
		case <-time.After(interval):
		}
	}
}

// RunCycle executes one pass. Panics are contained here so a bad cycle never
// takes the process down.
func (s *Scheduler) RunCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("scheduler: cycle panicked, abandoned: %v", r)
		}
	}()

	snap, err := s.store.Load(s.params.Symbols)
	if err != nil {
		log.Printf("scheduler: snapshot load failed: %v", err)
		if s.snap != nil {
			// Prefer the state we already traded on over a silent reset.
			snap = s.snap
		}
	}
	s.snap = snap

	balances, err := s.gw.Balances(ctx)
	if err != nil {
		log.Printf("scheduler: balances unavailable, cycle abandoned: %v", err)
		return
	}
	freeQuote := balances[s.params.QuoteAsset]

	mkt, weekly, skipped := s.observeMarket(ctx)

	now := s.now().UTC()
	snap.AppendEquity(ledger.EquitySample{
		Timestamp:  now,
		TotalQuote: totalEquity(balances, mkt.Prices, s.params, freeQuote),
	})

	engine.RefreshWeeklyHighs(snap, weekly)

	// The entry gate: below the minimum the cycle still runs exits and
	// alerts, it just has nothing to spend.
	if freeQuote > s.params.MinQuoteBalance {
		mkt.FreeQuote = freeQuote
	} else {
		log.Printf("scheduler: free %s %.2f at or below minimum %.2f, entries disabled",
			s.params.QuoteAsset, freeQuote, s.params.MinQuoteBalance)
	}

	actions := engine.Decide(snap, mkt, s.params)
	if err := s.exec.Apply(ctx, snap, actions); err != nil {
		log.Printf("scheduler: cycle finished with order errors: %v", err)
	}

	if err := s.store.Save(snap); err != nil {
		log.Printf("scheduler: snapshot save failed: %v", err)
	}

	s.bus.Publish(events.EventCycleSummary, s.summarize(snap, balances, mkt.Prices, freeQuote, skipped, now))
}

// observeMarket gathers prices and candles per symbol. A symbol whose data
// cannot be fetched is reported as skipped and left out of the snapshot.
func (s *Scheduler) observeMarket(ctx context.Context) (engine.MarketSnapshot, map[string]market.Series, []string) {
	mkt := engine.MarketSnapshot{
		Prices:  make(map[string]float64, len(s.params.Symbols)),
		Candles: make(map[string]market.Series, len(s.params.Symbols)),
	}
	weekly := make(map[string]market.Series, len(s.params.Symbols))
	var skipped []string

	limit := s.params.CandleLimit
	if s.params.WeeklyWindow > limit {
		limit = s.params.WeeklyWindow
	}

	for _, sym := range s.params.Symbols {
		price, err := s.gw.Price(ctx, sym)
		if err != nil {
			log.Printf("scheduler: %s price unavailable: %v", sym, err)
			skipped = append(skipped, sym)
			continue
		}
		series, err := s.gw.Candles(ctx, sym, s.params.Interval, limit)
		if err != nil {
			log.Printf("scheduler: %s candles unavailable: %v", sym, err)
			skipped = append(skipped, sym)
			continue
		}

		mkt.Prices[sym] = price
		weekly[sym] = tail(series, s.params.WeeklyWindow)
		mkt.Candles[sym] = tail(series, s.params.CandleLimit)
	}
	return mkt, weekly, skipped
}

func tail(series market.Series, n int) market.Series {
	if n > 0 && len(series) > n {
		return series[len(series)-n:]
	}
	return series
}

// totalEquity values every held base asset at its current price plus the
// free quote balance. Assets without a price this cycle are valued at zero.
func totalEquity(balances, prices map[string]float64, params config.Params, freeQuote float64) float64 {
	total := freeQuote
	for _, sym := range params.Symbols {
		if held := balances[params.BaseAsset(sym)]; held > 0 {
			total += held * prices[sym]
		}
	}
	return total
}

func (s *Scheduler) summarize(snap *ledger.Snapshot, balances, prices map[string]float64, freeQuote float64, skipped []string, now time.Time) events.CycleSummary {
	summary := events.CycleSummary{
		Timestamp:  now,
		TotalQuote: totalEquity(balances, prices, s.params, freeQuote),
		FreeQuote:  freeQuote,
		Skipped:    skipped,
	}

	for _, sym := range s.params.Symbols {
		base := s.params.BaseAsset(sym)
		if held := balances[base]; held > 0 {
			summary.Holdings = append(summary.Holdings, events.SymbolBalance{
				Asset:      base,
				Amount:     held,
				QuoteValue: held * prices[sym],
			})
		}
	}

	summary.Change24hPct, summary.Has24h = snap.EquityChangeSince(now, 24*time.Hour)
	summary.Change7dPct, summary.Has7d = snap.EquityChangeSince(now, 7*24*time.Hour)
	summary.TradesLast24 = snap.TradesSince(now, 24*time.Hour)
	summary.ResultPct, summary.ResultQuote, summary.HasResult = snap.Result()

	return summary
}
