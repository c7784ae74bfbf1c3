// Package engine holds the per-symbol position state machine. Decide is a
// pure function over the ledger snapshot and one market snapshot; applying
// its actions (orders, persistence) happens elsewhere.
package engine

import (
	"log"
	"sort"

	"trendbot/internal/indicators"
	"trendbot/internal/ledger"
	"trendbot/internal/market"
	"trendbot/pkg/config"
)

// weeklyHighExitFactor triggers the trailing exit at 5% above the weekly high.
const weeklyHighExitFactor = 1.05

// Decide evaluates exits for every long symbol and entries for every flat
// symbol, in that order. It never mutates the snapshot. Symbols without a
// price or with an empty candle series are skipped for the cycle.
func Decide(snap *ledger.Snapshot, mkt MarketSnapshot, params config.Params) []Action {
	var actions []Action

	symbols := make([]string, 0, len(snap.Positions))
	for sym := range snap.Positions {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	// Exits first: a position freed this cycle still does not fund entries
	// until the next cycle, when balances are re-read.
	for _, sym := range symbols {
		pos := snap.Positions[sym]
		if !pos.InPosition {
			continue
		}
		price, series, ok := observe(sym, mkt)
		if !ok {
			continue
		}
		if act, found := evalExit(sym, pos, price, series, params); found {
			actions = append(actions, act)
		}
	}

	// Entries: balanced allocation across every flat symbol whose signal
	// fires in this same cycle.
	var entries []Action
	for _, sym := range symbols {
		pos := snap.Positions[sym]
		if pos.InPosition {
			continue
		}
		price, series, ok := observe(sym, mkt)
		if !ok {
			continue
		}
		if act, found := evalEntry(sym, price, series, params); found {
			entries = append(entries, act)
		}
	}
	if len(entries) > 0 && mkt.FreeQuote > 0 {
		budget := mkt.FreeQuote / float64(len(entries))
		for i := range entries {
			entries[i].Budget = budget
		}
		actions = append(actions, entries...)
	}

	return actions
}

func observe(sym string, mkt MarketSnapshot) (float64, []float64, bool) {
	price, ok := mkt.Prices[sym]
	if !ok || price <= 0 {
		log.Printf("%s: no price this cycle, skipping", sym)
		return 0, nil, false
	}
	series := mkt.Candles[sym]
	if len(series) == 0 {
		log.Printf("%s: no candle data this cycle, skipping", sym)
		return 0, nil, false
	}
	return price, series.Closes(), true
}

// evalExit checks the exit rules in priority order and falls through to a
// proximity alert when none trigger.
func evalExit(sym string, pos *ledger.Position, price float64, closes []float64, params config.Params) (Action, bool) {
	sell := func(reason string) (Action, bool) {
		return Action{Kind: ActionSell, Symbol: sym, Reason: reason, Price: price}, true
	}

	if price <= pos.StopLoss {
		return sell("stop-loss")
	}
	if price >= pos.TakeProfit {
		return sell("take-profit")
	}
	if pos.WeeklyHigh > 0 && price >= pos.WeeklyHigh*weeklyHighExitFactor {
		return sell("weekly-high +5%")
	}

	shortMA := indicators.SMA(closes, params.ShortWindow)
	longMA := indicators.SMA(closes, params.LongWindow)
	if indicators.CrossedBelow(shortMA, longMA) {
		return sell("MA crossover down")
	}

	if params.RSI.Enabled {
		rsi := indicators.Last(indicators.RSI(closes, params.RSI.Period))
		if rsi > params.RSI.Overbought {
			return sell("RSI overbought")
		}
	}

	// No exit: warn when price drifts within reach of either threshold.
	if d := (price - pos.StopLoss) / price; d > 0 && d <= params.ProximityPct {
		return Action{
			Kind: ActionAlert, Symbol: sym, Price: price,
			AlertThreshold: "stop-loss", AlertLevel: pos.StopLoss, AlertDistance: d,
		}, true
	}
	if d := (pos.TakeProfit - price) / price; d > 0 && d <= params.ProximityPct {
		return Action{
			Kind: ActionAlert, Symbol: sym, Price: price,
			AlertThreshold: "take-profit", AlertLevel: pos.TakeProfit, AlertDistance: d,
		}, true
	}

	return Action{}, false
}

// evalEntry requires the short MA to have crossed above the long MA on the
// last bar, confirmed by the RSI filter when enabled.
func evalEntry(sym string, price float64, closes []float64, params config.Params) (Action, bool) {
	shortMA := indicators.SMA(closes, params.ShortWindow)
	longMA := indicators.SMA(closes, params.LongWindow)
	if !indicators.CrossedAbove(shortMA, longMA) {
		return Action{}, false
	}

	reason := "MA crossover up"
	if params.RSI.Enabled {
		rsi := indicators.Last(indicators.RSI(closes, params.RSI.Period))
		switch {
		case rsi < params.RSI.Oversold:
			reason += " + RSI oversold"
		case rsi < 50:
			// Neutral RSI: the crossover alone carries the signal.
		default:
			return Action{}, false
		}
	}

	return Action{Kind: ActionBuy, Symbol: sym, Reason: reason, Price: price}, true
}

// RefreshWeeklyHighs updates each symbol's trailing high from the max high
// of its weekly candle series. Runs once per cycle, independent of
// entry/exit evaluation.
func RefreshWeeklyHighs(snap *ledger.Snapshot, weekly map[string]market.Series) {
	for sym, series := range weekly {
		if high := series.MaxHigh(); high > 0 {
			snap.Position(sym).WeeklyHigh = high
		}
	}
}
