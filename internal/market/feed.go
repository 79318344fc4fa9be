package market

import (
	"context"

	"github.com/rs/zerolog"

	"perp-exec/internal/events"
	"perp-exec/pkg/exchange/binance"
)

// Feed streams klines over the websocket and publishes each closed bar
// to the event bus. It is a latency supplement to the REST watcher: the
// signal loop wakes on the event instead of waiting out its poll tick,
// then still reads bars through the watcher so ordering and dedup stay
// in one place.
type Feed struct {
	Stream   *binance.StreamClient
	Bus      *events.Bus
	Symbol   string
	Interval string
	Log      zerolog.Logger
}

// Start subscribes and pumps closed bars until the context is
// cancelled. Returns after the subscription is established.
func (f *Feed) Start(ctx context.Context) error {
	ch, stop, err := f.Stream.SubscribeKlines(ctx, f.Symbol, f.Interval)
	if err != nil {
		return err
	}

	go func() {
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			case sk, ok := <-ch:
				if !ok {
					f.Log.Warn().Msg("kline stream closed")
					return
				}
				if !sk.Final {
					continue
				}
				f.Bus.Publish(events.EventBarClosed, FromKline(sk.Kline))
			}
		}
	}()
	return nil
}
