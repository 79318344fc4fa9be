package market

import (
	"math"
	"time"

	"perp-exec/pkg/exchange/binance"
)

// Bar is one closed OHLCV candle. Immutable once built; ordered by
// OpenTime within a series.
type Bar struct {
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
	QuoteVolume float64
	OpenTime    time.Time
	CloseTime   time.Time
}

// FromKline converts an exchange kline into a Bar.
func FromKline(k binance.Kline) Bar {
	return Bar{
		Open:        k.Open,
		High:        k.High,
		Low:         k.Low,
		Close:       k.Close,
		Volume:      k.Volume,
		QuoteVolume: k.QuoteVolume,
		OpenTime:    time.UnixMilli(k.OpenTime).UTC(),
		CloseTime:   time.UnixMilli(k.CloseTime).UTC(),
	}
}

// Valid reports whether the bar carries usable prices.
func (b Bar) Valid() bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.High >= b.Low
}
