// Connectivity check: verifies market data and (when keys are present)
// signed endpoints against the configured Binance environment.
package main

import (
	"context"
	"os"
	"time"

	"perp-exec/pkg/config"
	"perp-exec/pkg/exchange/binance"
	"perp-exec/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	log := logging.New("api-check", "debug")

	client := binance.NewClient(binance.Config{
		APIKey:    cfg.BinanceAPIKey,
		APISecret: cfg.BinanceAPISecret,
		Testnet:   cfg.BinanceTestnet,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	book, err := client.BookTicker(ctx, cfg.Symbol)
	if err != nil {
		log.Fatal().Err(err).Msg("book ticker failed")
	}
	log.Info().Float64("bid", book.BidPrice).Float64("ask", book.AskPrice).Msg("book ticker ok")

	klines, err := client.ClosedKlines(ctx, cfg.Symbol, cfg.Timeframe, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("klines failed")
	}
	log.Info().Int("bars", len(klines)).Msg("klines ok")

	if cfg.BinanceAPIKey == "" {
		log.Warn().Msg("no API key configured, skipping signed endpoints")
		return
	}
	pos, err := client.PositionRisk(ctx, cfg.Symbol)
	if err != nil {
		log.Fatal().Err(err).Msg("position risk failed")
	}
	log.Info().Float64("qty", pos.Qty).Float64("unrealized", pos.UnrealizedPnL).Msg("position risk ok")
}
