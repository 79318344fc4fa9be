package engine

import (
	"fmt"

	"perp-exec/internal/position"
	"perp-exec/pkg/config"
)

// BuildTransitionConfig maps YAML strategy parameters onto the state
// machine's sizing, stop and scaling knobs.
func BuildTransitionConfig(p config.StrategyParams) (position.Config, error) {
	cfg := position.Config{
		MultiUnit:      p.MultiUnit,
		FlipOnReverse:  p.FlipOnReverse,
		CommissionRate: p.CommissionRate,
	}

	switch p.SizerMode {
	case "fixed":
		if p.UnitSize <= 0 {
			return position.Config{}, fmt.Errorf("fixed sizer needs unit_size > 0")
		}
		cfg.Sizer = position.FixedSizer(p.UnitSize)
	case "notional":
		cfg.Sizer = position.NotionalSizer()
	case "capped":
		if p.UnitSize <= 0 || p.Money <= 0 || p.Leverage <= 0 {
			return position.Config{}, fmt.Errorf("capped sizer needs unit_size, money and leverage")
		}
		cfg.Sizer = position.FixedSizer(p.UnitSize)
		cfg.MaxNotional = p.Money * p.Leverage
	default:
		return position.Config{}, fmt.Errorf("unknown sizer_mode %q", p.SizerMode)
	}

	switch p.StopMode {
	case "atr":
		cfg.Stops = position.ATRStops{Loss: p.ATRLoss, Profit: p.ATRProfit}
	case "percent":
		cfg.Stops = position.PercentStops{Loss: p.PctLoss, Profit: p.PctProfit}
	case "external":
		cfg.Stops = position.ExternalStops{Loss: p.ATRLoss, Profit: p.ATRProfit}
	default:
		return position.Config{}, fmt.Errorf("unknown stop_mode %q", p.StopMode)
	}

	return cfg, nil
}
