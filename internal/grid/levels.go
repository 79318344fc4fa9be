package grid

import (
	"errors"
	"math"

	"perp-exec/internal/market"
)

// Levels is one two-sided ladder around Center, spaced by Gap. Always
// ordered Buy2 < Buy1 < Center < Sell1 < Sell2.
type Levels struct {
	Center float64
	Gap    float64
	Buy1   float64
	Buy2   float64
	Sell1  float64
	Sell2  float64
}

var ErrNoBars = errors.New("grid: not enough bars")

// Gap derives the ladder spacing from the mean true range of the
// window's last length bars.
func GapFromBars(bars []market.Bar, length int) (float64, error) {
	if length <= 0 || len(bars) < length+1 {
		return 0, ErrNoBars
	}
	window := bars[len(bars)-length:]
	prevClose := bars[len(bars)-length-1].Close

	var sum float64
	for _, b := range window {
		tr := b.High - b.Low
		if d := math.Abs(b.High - prevClose); d > tr {
			tr = d
		}
		if d := math.Abs(b.Low - prevClose); d > tr {
			tr = d
		}
		sum += tr
		prevClose = b.Close
	}
	return sum / float64(length), nil
}

// Envelope returns the highest high and lowest low of the window. The
// quoter abandons its ladder when price leaves this range.
func Envelope(bars []market.Bar) (highest, lowest float64, err error) {
	if len(bars) == 0 {
		return 0, 0, ErrNoBars
	}
	highest, lowest = bars[0].High, bars[0].Low
	for _, b := range bars[1:] {
		if b.High > highest {
			highest = b.High
		}
		if b.Low < lowest {
			lowest = b.Low
		}
	}
	return highest, lowest, nil
}

// Initial builds a ladder whose center is the grid line nearest the
// current price, snapped outward from the envelope's mid pivot.
func Initial(highest, lowest, price, gap float64) Levels {
	mid := (highest + lowest) / 2
	var center float64
	if price > mid {
		center = mid + (math.Floor((price-mid)/gap)+1)*gap
	} else {
		center = mid - (math.Floor((mid-price)/gap)+1)*gap
	}
	return Levels{
		Center: center,
		Gap:    gap,
		Buy1:   center - gap,
		Buy2:   center - 2*gap,
		Sell1:  center + gap,
		Sell2:  center + 2*gap,
	}
}

// Update reacts to one closed bar. A single-level breach shifts the
// ladder one gap toward the move; a double-level breach abandons the
// old center and rebuilds asymmetrically around the close, leaving
// extra room on the side price just ran away from. gap refreshes the
// spacing from current volatility. Returns the (possibly unchanged)
// ladder and whether it moved.
func (l Levels) Update(bar market.Bar, gap float64) (Levels, bool) {
	switch {
	case bar.High >= l.Sell2:
		return Levels{
			Center: bar.Close,
			Gap:    gap,
			Sell1:  bar.Close + gap,
			Buy1:   bar.Close - 3*gap,
			Sell2:  bar.Close + 2*gap,
			Buy2:   bar.Close - 4*gap,
		}, true
	case bar.High >= l.Sell1:
		c := l.Sell1
		return Levels{
			Center: c,
			Gap:    gap,
			Sell1:  c + gap,
			Buy1:   c - 2*gap,
			Sell2:  c + 2*gap,
			Buy2:   c - 3*gap,
		}, true
	case bar.Low <= l.Buy2:
		return Levels{
			Center: bar.Close,
			Gap:    gap,
			Sell1:  bar.Close + 3*gap,
			Buy1:   bar.Close - gap,
			Sell2:  bar.Close + 4*gap,
			Buy2:   bar.Close - 2*gap,
		}, true
	case bar.Low <= l.Buy1:
		c := l.Buy1
		return Levels{
			Center: c,
			Gap:    gap,
			Sell1:  c + 2*gap,
			Buy1:   c - gap,
			Sell2:  c + 3*gap,
			Buy2:   c - 2*gap,
		}, true
	}
	return l, false
}

// Ordered reports whether the ladder brackets its center correctly.
func (l Levels) Ordered() bool {
	return l.Buy2 < l.Buy1 && l.Buy1 < l.Center &&
		l.Center < l.Sell1 && l.Sell1 < l.Sell2
}
