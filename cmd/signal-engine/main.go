package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"perp-exec/internal/api"
	"perp-exec/internal/engine"
	"perp-exec/internal/events"
	"perp-exec/internal/handoff"
	"perp-exec/internal/market"
	"perp-exec/internal/notify"
	"perp-exec/internal/position"
	sigpkg "perp-exec/internal/signal"
	"perp-exec/pkg/config"
	"perp-exec/pkg/db"
	"perp-exec/pkg/exchange/binance"
	"perp-exec/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	log := logging.New("signal-engine", cfg.LogLevel)

	file, err := config.LoadStrategyFile(cfg.StrategyFile)
	if err != nil {
		log.Fatal().Err(err).Msg("strategy file load failed")
	}
	tcfg, err := engine.BuildTransitionConfig(file.Strategy)
	if err != nil {
		log.Fatal().Err(err).Msg("strategy parameters invalid")
	}

	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("database open failed")
	}
	defer database.Close()

	client := binance.NewClient(binance.Config{
		APIKey:    cfg.BinanceAPIKey,
		APISecret: cfg.BinanceAPISecret,
		Testnet:   cfg.BinanceTestnet,
	})

	series := market.NewSeries(cfg.Symbol, cfg.Timeframe, 2000)
	watcher := &market.Watcher{Source: client, Series: series, Log: log}
	store := handoff.NewSQLiteStore(database)
	bus := events.NewBus()
	notifier := notify.NewDiscord(cfg.DiscordWebhookURL, log)

	eng := engine.New(engine.Config{
		Strategy:   file.Strategy.Name,
		Symbol:     cfg.Symbol,
		Interval:   cfg.SignalInterval,
		WarmupBars: 200,
	}, watcher, &sigpkg.DemoProvider{}, tcfg, store, database, bus, notifier,
		position.Account{Equity: file.Strategy.Money}, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := api.NewServer(file.Strategy.Name, database, store, nil, log)
	go func() {
		if err := srv.Run(cfg.StatusAddr); err != nil {
			log.Error().Err(err).Msg("status server stopped")
		}
	}()

	if err := eng.Warmup(ctx); err != nil {
		log.Fatal().Err(err).Msg("warmup failed")
	}

	// The websocket feed only shortens reaction time; polling alone is
	// correct, so a failed subscription is not fatal.
	feed := &market.Feed{
		Stream:   binance.NewStreamClient(cfg.BinanceTestnet, log),
		Bus:      bus,
		Symbol:   cfg.Symbol,
		Interval: cfg.Timeframe,
		Log:      log,
	}
	if err := feed.Start(ctx); err != nil {
		log.Warn().Err(err).Msg("kline stream unavailable, polling only")
	}
	log.Info().
		Str("symbol", cfg.Symbol).
		Str("timeframe", cfg.Timeframe).
		Str("strategy", file.Strategy.Name).
		Msg("signal engine started")

	if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("signal engine stopped")
	}
	log.Info().Msg("shutdown complete")
}
