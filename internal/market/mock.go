package market

import (
	"context"
	"math/rand"
	"time"

	"perp-exec/pkg/exchange/binance"
)

// MockSource generates synthetic random-walk candles for local
// development and dry runs. It implements KlineSource, so the rest of
// the stack runs unmodified against it.
type MockSource struct {
	StartPrice float64
	Step       float64
	BarPeriod  time.Duration

	price float64
	next  time.Time
	rng   *rand.Rand
}

func NewMockSource(startPrice, step float64, barPeriod time.Duration, seed int64) *MockSource {
	if startPrice <= 0 {
		startPrice = 100
	}
	if step <= 0 {
		step = 0.5
	}
	if barPeriod <= 0 {
		barPeriod = time.Minute
	}
	return &MockSource{
		StartPrice: startPrice,
		Step:       step,
		BarPeriod:  barPeriod,
		price:      startPrice,
		next:       time.Now().UTC().Truncate(barPeriod).Add(-100 * barPeriod),
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// ClosedKlines fabricates up to limit bars that have "closed" before
// now, continuing the random walk from the previous call.
func (m *MockSource) ClosedKlines(_ context.Context, _, _ string, limit int) ([]binance.Kline, error) {
	var out []binance.Kline
	now := time.Now().UTC()
	for len(out) < limit && m.next.Add(m.BarPeriod).Before(now) {
		open := m.price
		high := open
		low := open
		for i := 0; i < 4; i++ {
			m.price += (m.rng.Float64()*2 - 1) * m.Step
			if m.price > high {
				high = m.price
			}
			if m.price < low {
				low = m.price
			}
		}
		out = append(out, binance.Kline{
			OpenTime:  m.next.UnixMilli(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     m.price,
			Volume:    1,
			CloseTime: m.next.Add(m.BarPeriod).UnixMilli() - 1,
		})
		m.next = m.next.Add(m.BarPeriod)
	}
	return out, nil
}
