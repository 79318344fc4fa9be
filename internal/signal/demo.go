package signal

import (
	"perp-exec/internal/market"
)

// DemoProvider is a minimal reference provider: direction from the close
// against a simple moving average, volatility from the mean true range.
// Real deployments plug in their own Provider; this one exists so the
// binaries run end to end without external signal code.
type DemoProvider struct {
	Span int
}

func (p *DemoProvider) Name() string { return "demo_sma" }

// Evaluate computes a signal from the most recent Span bars.
func (p *DemoProvider) Evaluate(bars []market.Bar) (Signal, error) {
	span := p.Span
	if span <= 0 {
		span = 20
	}
	if len(bars) < span+1 {
		return Signal{}, &DataQualityError{Field: "window", Value: float64(len(bars)), Reason: "not enough bars"}
	}

	window := bars[len(bars)-span:]
	prev := bars[len(bars)-span-1]

	var sum, trSum float64
	prevClose := prev.Close
	for _, b := range window {
		sum += b.Close
		tr := b.High - b.Low
		if d := abs(b.High - prevClose); d > tr {
			tr = d
		}
		if d := abs(b.Low - prevClose); d > tr {
			tr = d
		}
		trSum += tr
		prevClose = b.Close
	}

	mean := sum / float64(span)
	atr := trSum / float64(span)
	last := window[len(window)-1]

	dir := Flat
	switch {
	case last.Close > mean:
		dir = Long
	case last.Close < mean:
		dir = Short
	}

	return Signal{
		Direction:      dir,
		Volatility:     atr,
		ReferencePrice: mean,
	}, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
