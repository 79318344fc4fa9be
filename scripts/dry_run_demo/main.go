// Dry-run demo: runs the signal engine against a synthetic random-walk
// feed and an in-memory handoff store. No venue, no database, no keys.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"perp-exec/internal/engine"
	"perp-exec/internal/events"
	"perp-exec/internal/handoff"
	"perp-exec/internal/market"
	"perp-exec/internal/position"
	sigpkg "perp-exec/internal/signal"
	"perp-exec/pkg/logging"
)

func main() {
	log := logging.New("dry-run", "debug")

	source := market.NewMockSource(50000, 40, time.Minute, 42)
	series := market.NewSeries("BTCUSDT", "1m", 500)
	watcher := &market.Watcher{Source: source, Series: series, Log: log}
	store := handoff.NewMemoryStore()
	bus := events.NewBus()

	tcfg := position.Config{
		Sizer:          position.FixedSizer(0.01),
		Stops:          position.ATRStops{Loss: 2, Profit: 3},
		CommissionRate: 0.0005,
	}
	eng := engine.New(engine.Config{
		Strategy:   "dry-run",
		Symbol:     "BTCUSDT",
		Interval:   2 * time.Second,
		WarmupBars: 60,
	}, watcher, &sigpkg.DemoProvider{}, tcfg, store, nil, bus, nil,
		position.Account{Equity: 10000}, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := eng.Warmup(ctx); err != nil {
		log.Error().Err(err).Msg("warmup failed")
		os.Exit(1)
	}
	log.Info().Msg("dry run started, ctrl-c to stop")
	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("dry run stopped")
		os.Exit(1)
	}
}
