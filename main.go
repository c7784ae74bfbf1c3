package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trendbot/internal/api"
	"trendbot/internal/events"
	"trendbot/internal/ledger"
	"trendbot/internal/notify"
	"trendbot/internal/order"
	"trendbot/internal/scheduler"
	"trendbot/pkg/config"
	"trendbot/pkg/db"
	"trendbot/pkg/exchange"
	"trendbot/pkg/exchange/binance"
	"trendbot/pkg/exchange/sim"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	params, err := config.LoadParams(cfg.ParamsPath)
	if err != nil {
		log.Fatalf("strategy params invalid: %v", err)
	}
	log.Printf("trendbot starting: %v on %s candles, cycle %s",
		params.Symbols, params.Interval, params.CycleInterval())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewBus()
	store := ledger.NewStore(cfg.LedgerPath)

	// The sqlite journal is an audit mirror; the engine trades fine without
	// it, so a broken database degrades instead of aborting.
	journal, err := db.New(cfg.JournalPath)
	if err != nil {
		log.Printf("trade journal unavailable, continuing without: %v", err)
		journal = nil
	} else {
		defer journal.Close()
	}

	live := binance.New(binance.Config{
		APIKey:    cfg.BinanceAPIKey,
		APISecret: cfg.BinanceAPISecret,
		Testnet:   cfg.BinanceTestnet,
	})

	var gateway exchange.Gateway
	venue := "binance-spot"
	if cfg.BinanceTestnet {
		venue = "binance-spot-testnet"
	}
	if cfg.DryRun {
		// Live public market data, simulated balances and fills.
		gateway = sim.New(live, params.QuoteAsset, cfg.DryRunInitialBalance)
		venue = "sim(" + venue + ")"
		log.Printf("dry-run mode: orders are simulated with %.2f %s",
			cfg.DryRunInitialBalance, params.QuoteAsset)
	} else {
		gateway = live
	}
	gateway = exchange.WithRetry(gateway, params.MaxAPIAttempts)

	// Connectivity check before committing to the loop.
	checkCtx, checkCancel := context.WithTimeout(ctx, 30*time.Second)
	balances, err := gateway.Balances(checkCtx)
	checkCancel()
	if err != nil {
		log.Fatalf("exchange connectivity check failed: %v", err)
	}
	log.Printf("connected to %s, free %s: %.2f", venue, params.QuoteAsset, balances[params.QuoteAsset])

	exec := order.NewExecutor(gateway, store, journal, bus, params)
	sched := scheduler.New(gateway, store, exec, bus, params)

	stopNotify := notify.New(bus, nil).Start()
	defer stopNotify()

	if cfg.EnableAPI {
		server := api.NewServer(bus, store, journal, params, api.Meta{
			DryRun:  cfg.DryRun,
			Venue:   venue,
			Symbols: params.Symbols,
			Started: time.Now(),
		})
		go func() {
			if err := server.Start(":" + cfg.Port); err != nil {
				log.Fatalf("status API failed: %v", err)
			}
		}()
		log.Printf("status API listening on :%s", cfg.Port)
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("shutdown signal received")
		cancel()
	}()

	sched.Run(ctx)
}
