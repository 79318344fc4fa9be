package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"perp-exec/internal/events"
	"perp-exec/internal/grid"
	"perp-exec/internal/market"
	"perp-exec/internal/notify"
	"perp-exec/pkg/config"
	"perp-exec/pkg/exchange/binance"
	"perp-exec/pkg/logging"
)

// Fill polling runs much faster than the bar cadence so harvest orders
// go out shortly after a ladder fill.
const fillPollInterval = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	log := logging.New("gridmaker", cfg.LogLevel)

	file, err := config.LoadStrategyFile(cfg.StrategyFile)
	if err != nil {
		log.Fatal().Err(err).Msg("strategy file load failed")
	}
	gp := file.Grid

	client := binance.NewClient(binance.Config{
		APIKey:    cfg.BinanceAPIKey,
		APISecret: cfg.BinanceAPISecret,
		Testnet:   cfg.BinanceTestnet,
	})
	notifier := notify.NewDiscord(cfg.DiscordWebhookURL, log)

	series := market.NewSeries(cfg.Symbol, cfg.Timeframe, 2000)
	watcher := &market.Watcher{Source: client, Series: series, Log: log}

	quoter := grid.NewQuoter(grid.Config{
		Symbol:            cfg.Symbol,
		Lot:               gp.Lot,
		LotK:              gp.LotK,
		ClearanceK:        gp.ClearanceK,
		LookbackBars:      gp.LookbackBars,
		ATRLength:         gp.ATRLength,
		CommRate:          gp.CommRate,
		MaxNotional:       cfg.MaxNotional,
		MaxUnrealizedLoss: cfg.MaxUnrealizedLoss,
		Cooldown:          cfg.SafetyCooldown,
	}, client, notifier, events.NewBus(), log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	warmup := gp.LookbackBars
	if warmup < gp.ATRLength+1 {
		warmup = gp.ATRLength + 1
	}
	if err := watcher.Warmup(ctx, warmup); err != nil {
		log.Fatal().Err(err).Msg("warmup failed")
	}
	if err := quoter.Reset(ctx, series.Window(0)); err != nil {
		log.Fatal().Err(err).Msg("initial ladder failed")
	}
	log.Info().Str("symbol", cfg.Symbol).Str("timeframe", cfg.Timeframe).Msg("grid maker started")

	ticker := time.NewTicker(fillPollInterval)
	defer ticker.Stop()

	paused := false
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutdown complete")
			return
		case <-ticker.C:
		}

		if !quoter.Ready() {
			paused = true
			continue
		}
		if paused {
			// Cooldown just ended; rebuild from a fresh window.
			if err := watcher.Warmup(ctx, warmup); err != nil {
				log.Error().Err(err).Msg("refresh after cooldown failed")
				continue
			}
			if err := quoter.Reset(ctx, series.Window(0)); err != nil {
				log.Error().Err(err).Msg("ladder rebuild failed")
				continue
			}
			paused = false
		}

		if err := quoter.PollFills(ctx); err != nil {
			log.Error().Err(err).Msg("fill poll failed")
		}
		fresh, err := watcher.Poll(ctx)
		if err != nil {
			log.Error().Err(err).Msg("bar poll failed")
			continue
		}
		for _, bar := range fresh {
			if err := quoter.OnBar(ctx, bar, series.Window(0)); err != nil {
				log.Error().Err(err).Msg("bar handling failed")
			}
		}
	}
}
