package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StrategyParams is a parameter set for the position state machine,
// loaded from a YAML file so parameter sweeps never touch code.
type StrategyParams struct {
	Name     string `yaml:"name"`
	Symbol   string `yaml:"symbol"`
	Interval string `yaml:"interval"`

	// Sizing
	SizerMode string  `yaml:"sizer_mode"` // fixed, notional, capped
	UnitSize  float64 `yaml:"unit_size"`
	Money     float64 `yaml:"money"`
	Leverage  float64 `yaml:"leverage"`

	// Stops
	StopMode  string  `yaml:"stop_mode"` // atr, percent, external
	ATRProfit float64 `yaml:"atr_profit"`
	ATRLoss   float64 `yaml:"atr_loss"`
	PctProfit float64 `yaml:"pct_profit"`
	PctLoss   float64 `yaml:"pct_loss"`

	// Behavior on an opposite signal while holding.
	FlipOnReverse bool `yaml:"flip_on_reverse"`

	// Scale one unit per aligned bar instead of all-in/all-out.
	MultiUnit bool `yaml:"multi_unit"`

	CommissionRate float64 `yaml:"commission_rate"`
}

// GridParams is a parameter set for the grid quoting policy.
type GridParams struct {
	Name   string `yaml:"name"`
	Symbol string `yaml:"symbol"`

	Lot          float64 `yaml:"lot"`
	LotK         float64 `yaml:"lot_k"`          // skewed-side lot multiple
	ClearanceK   float64 `yaml:"clearance_k"`    // inventory units forcing clearance
	LookbackBars int     `yaml:"lookback_bars"`  // boundary envelope window
	ATRLength    int     `yaml:"atr_length"`     // grid gap source
	CommRate     float64 `yaml:"commission_rate"`
}

// StrategyFile is the top-level YAML document.
type StrategyFile struct {
	Strategy StrategyParams `yaml:"strategy"`
	Grid     GridParams     `yaml:"grid"`
}

// LoadStrategyFile reads strategy parameters from a YAML file.
func LoadStrategyFile(path string) (*StrategyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read strategy file: %w", err)
	}

	var file StrategyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse strategy file: %w", err)
	}
	return &file, nil
}
