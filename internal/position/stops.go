package position

import "perp-exec/internal/signal"

// StopPolicy computes absolute stop-loss/take-profit levels at entry or
// scale-in time. Levels are never interpolated between bars.
type StopPolicy interface {
	Levels(side Side, ref float64, sig signal.Signal) (stopLoss, takeProfit float64)
}

// ATRStops places stops a volatility multiple away from the reference
// price.
type ATRStops struct {
	Loss   float64
	Profit float64
}

func (p ATRStops) Levels(side Side, ref float64, sig signal.Signal) (float64, float64) {
	if side == Short {
		return ref + sig.Volatility*p.Loss, ref - sig.Volatility*p.Profit
	}
	return ref - sig.Volatility*p.Loss, ref + sig.Volatility*p.Profit
}

// PercentStops places stops a fixed fraction away from the reference
// price.
type PercentStops struct {
	Loss   float64
	Profit float64
}

func (p PercentStops) Levels(side Side, ref float64, sig signal.Signal) (float64, float64) {
	if side == Short {
		return ref * (1 + p.Loss), ref * (1 - p.Profit)
	}
	return ref * (1 - p.Loss), ref * (1 + p.Profit)
}

// ExternalStops uses the provider's pre-computed stop line (a trend stop
// such as Supertrend) for the loss side and a volatility multiple for
// the profit side. Falls back to Loss when no stop line is present.
type ExternalStops struct {
	Loss   float64
	Profit float64
}

func (p ExternalStops) Levels(side Side, ref float64, sig signal.Signal) (float64, float64) {
	fallback := ATRStops{Loss: p.Loss, Profit: p.Profit}
	sl, tp := fallback.Levels(side, ref, sig)
	if sig.StopLevel > 0 {
		sl = sig.StopLevel
	}
	return sl, tp
}
