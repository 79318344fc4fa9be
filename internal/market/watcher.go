package market

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"perp-exec/pkg/exchange/binance"
)

// KlineSource is the REST surface the watcher needs.
type KlineSource interface {
	ClosedKlines(ctx context.Context, symbol, interval string, limit int) ([]binance.Kline, error)
}

// Watcher polls for closed candles and feeds only the new ones into its
// series, in strictly increasing open-time order.
type Watcher struct {
	Source KlineSource
	Series *Series
	Log    zerolog.Logger
}

// Warmup seeds the series with history. Bars already present are
// skipped so it can also refresh a series after a long pause.
func (w *Watcher) Warmup(ctx context.Context, bars int) error {
	ks, err := w.Source.ClosedKlines(ctx, w.Series.Symbol, w.Series.Timeframe, bars)
	if err != nil {
		return fmt.Errorf("warmup klines: %w", err)
	}
	for _, k := range ks {
		b := FromKline(k)
		if last, ok := w.Series.Last(); ok && !b.OpenTime.After(last.OpenTime) {
			continue
		}
		if err := w.Series.Append(b); err != nil {
			return err
		}
	}
	w.Log.Info().Int("bars", w.Series.Len()).Msg("bar series warmed up")
	return nil
}

// Poll fetches the latest closed candles and returns those not yet seen,
// oldest first. A still-forming candle never appears here.
func (w *Watcher) Poll(ctx context.Context) ([]Bar, error) {
	ks, err := w.Source.ClosedKlines(ctx, w.Series.Symbol, w.Series.Timeframe, 3)
	if err != nil {
		return nil, fmt.Errorf("poll klines: %w", err)
	}

	var fresh []Bar
	for _, k := range ks {
		b := FromKline(k)
		if last, ok := w.Series.Last(); ok && !b.OpenTime.After(last.OpenTime) {
			continue
		}
		if err := w.Series.Append(b); err != nil {
			return fresh, err
		}
		fresh = append(fresh, b)
	}
	return fresh, nil
}
