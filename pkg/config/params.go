package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RSIParams tunes the RSI confirmation filter.
type RSIParams struct {
	Enabled    bool    `yaml:"enabled"`
	Period     int     `yaml:"period"`
	Oversold   float64 `yaml:"oversold"`
	Overbought float64 `yaml:"overbought"`
}

// Params holds the strategy parameters read from bot.yaml.
type Params struct {
	Symbols       []string  `yaml:"symbols"`
	QuoteAsset    string    `yaml:"quote_asset"`
	Interval      string    `yaml:"interval"`
	ShortWindow   int       `yaml:"short_window"`
	LongWindow    int       `yaml:"long_window"`
	StopLossPct   float64   `yaml:"stop_loss_pct"`
	TakeProfitPct float64   `yaml:"take_profit_pct"`
	RSI           RSIParams `yaml:"rsi"`

	CycleSeconds    int     `yaml:"cycle_seconds"`
	MinQuoteBalance float64 `yaml:"min_quote_balance"`
	MaxAPIAttempts  int     `yaml:"max_api_attempts"`

	// CandleLimit is how many bars each decision sees; WeeklyWindow is the
	// trailing bar count used for the weekly-high refresh and the equity ring.
	CandleLimit  int `yaml:"candle_limit"`
	WeeklyWindow int `yaml:"weekly_window"`

	// ProximityPct triggers an alert when price is within this fraction of
	// the stop-loss or take-profit threshold.
	ProximityPct float64 `yaml:"proximity_pct"`
}

// DefaultParams mirrors the documented defaults of the strategy.
func DefaultParams() Params {
	return Params{
		Symbols:       []string{"BTCUSDT", "SOLUSDT"},
		QuoteAsset:    "USDT",
		Interval:      "1h",
		ShortWindow:   7,
		LongWindow:    40,
		StopLossPct:   0.04,
		TakeProfitPct: 0.05,
		RSI: RSIParams{
			Enabled:    true,
			Period:     14,
			Oversold:   30,
			Overbought: 70,
		},
		CycleSeconds:    3600,
		MinQuoteBalance: 20,
		MaxAPIAttempts:  3,
		CandleLimit:     100,
		WeeklyWindow:    168,
		ProximityPct:    0.02,
	}
}

// LoadParams reads strategy parameters from a YAML file, applying defaults
// first so that absent keys keep their documented values. A missing file is
// not an error; the defaults are returned as-is.
func LoadParams(path string) (Params, error) {
	p := DefaultParams()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return p, fmt.Errorf("read params file: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse params file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Validate rejects parameter sets that would make the engine misbehave.
func (p Params) Validate() error {
	if len(p.Symbols) == 0 {
		return errors.New("at least one symbol is required")
	}
	if p.QuoteAsset == "" {
		return errors.New("quote_asset is required")
	}
	for _, sym := range p.Symbols {
		if !strings.HasSuffix(sym, p.QuoteAsset) {
			return fmt.Errorf("symbol %s is not quoted in %s", sym, p.QuoteAsset)
		}
	}
	if p.ShortWindow <= 0 || p.LongWindow <= 0 {
		return errors.New("moving average windows must be positive")
	}
	if p.ShortWindow >= p.LongWindow {
		return fmt.Errorf("short window (%d) must be below long window (%d)", p.ShortWindow, p.LongWindow)
	}
	if p.StopLossPct <= 0 || p.StopLossPct >= 1 {
		return fmt.Errorf("stop_loss_pct (%v) must be in (0,1)", p.StopLossPct)
	}
	if p.TakeProfitPct <= 0 {
		return fmt.Errorf("take_profit_pct (%v) must be positive", p.TakeProfitPct)
	}
	if p.RSI.Enabled {
		if p.RSI.Period <= 0 {
			return errors.New("rsi period must be positive")
		}
		if p.RSI.Oversold >= p.RSI.Overbought {
			return errors.New("rsi oversold must be below overbought")
		}
	}
	if p.CycleSeconds <= 0 {
		return errors.New("cycle_seconds must be positive")
	}
	if p.MaxAPIAttempts <= 0 {
		return errors.New("max_api_attempts must be positive")
	}
	if p.CandleLimit < p.LongWindow+1 {
		return fmt.Errorf("candle_limit (%d) too small for long window %d", p.CandleLimit, p.LongWindow)
	}
	if p.WeeklyWindow <= 0 {
		return errors.New("weekly_window must be positive")
	}
	if p.ProximityPct < 0 || p.ProximityPct >= 1 {
		return errors.New("proximity_pct must be in [0,1)")
	}
	return nil
}

// BaseAsset strips the quote suffix from a symbol, e.g. BTCUSDT -> BTC.
func (p Params) BaseAsset(symbol string) string {
	return strings.TrimSuffix(symbol, p.QuoteAsset)
}

// CycleInterval returns the pause between scheduler passes.
func (p Params) CycleInterval() time.Duration {
	return time.Duration(p.CycleSeconds) * time.Second
}
