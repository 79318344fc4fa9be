package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"perp-exec/internal/api"
	"perp-exec/internal/events"
	"perp-exec/internal/handoff"
	"perp-exec/internal/notify"
	"perp-exec/internal/reconcile"
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
	log := logging.New("executor", cfg.LogLevel)

	file, err := config.LoadStrategyFile(cfg.StrategyFile)
	if err != nil {
		log.Fatal().Err(err).Msg("strategy file load failed")
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
	store := handoff.NewSQLiteStore(database)
	notifier := notify.NewDiscord(cfg.DiscordWebhookURL, log)
	bus := events.NewBus()

	eng := reconcile.NewEngine(reconcile.Config{
		Symbol:            cfg.Symbol,
		Strategy:          file.Strategy.Name,
		Interval:          cfg.ReconcileInterval,
		Epsilon:           cfg.PositionEpsilon,
		SlippageOffset:    cfg.SlippageOffset,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
		MaxNotional:       cfg.MaxNotional,
		MaxUnrealizedLoss: cfg.MaxUnrealizedLoss,
		SafetyCooldown:    cfg.SafetyCooldown,
		TargetStaleAfter:  cfg.TargetStaleAfter,
	}, client, store, database, notifier, bus, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := api.NewServer(file.Strategy.Name, database, store, eng.Status, log)
	go func() {
		if err := srv.Run(cfg.StatusAddr); err != nil {
			log.Error().Err(err).Msg("status server stopped")
		}
	}()

	log.Info().
		Str("symbol", cfg.Symbol).
		Dur("interval", cfg.ReconcileInterval).
		Msg("executor started")

	if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("executor stopped")
	}
	log.Info().Msg("shutdown complete")
}
