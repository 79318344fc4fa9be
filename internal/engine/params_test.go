package engine

import (
	"testing"

	"perp-exec/internal/position"
	"perp-exec/pkg/config"
)

func TestBuildTransitionConfig(t *testing.T) {
	p := config.StrategyParams{
		SizerMode: "capped", UnitSize: 0.01, Money: 2000, Leverage: 4,
		StopMode: "atr", ATRLoss: 2, ATRProfit: 3,
		MultiUnit: true, CommissionRate: 0.0005,
	}
	cfg, err := BuildTransitionConfig(p)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cfg.MaxNotional != 8000 {
		t.Fatalf("max notional = %v, want money*leverage", cfg.MaxNotional)
	}
	if !cfg.MultiUnit || cfg.CommissionRate != 0.0005 {
		t.Fatalf("config = %+v", cfg)
	}
	if _, ok := cfg.Stops.(position.ATRStops); !ok {
		t.Fatalf("stops = %T, want ATRStops", cfg.Stops)
	}
	if got := cfg.Sizer(position.Account{}, 100); got != 0.01 {
		t.Fatalf("sizer = %v", got)
	}
}

func TestBuildTransitionConfigRejectsUnknownModes(t *testing.T) {
	if _, err := BuildTransitionConfig(config.StrategyParams{SizerMode: "martingale"}); err == nil {
		t.Fatal("unknown sizer_mode must fail")
	}
	if _, err := BuildTransitionConfig(config.StrategyParams{SizerMode: "notional", StopMode: "chandelier"}); err == nil {
		t.Fatal("unknown stop_mode must fail")
	}
}
