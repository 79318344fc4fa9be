package signal

import (
	"fmt"
	"math"

	"perp-exec/internal/market"
)

// Direction is the ternary per-bar trading intent.
type Direction int

const (
	Short Direction = -1
	Flat  Direction = 0
	Long  Direction = 1
)

// Signal is the per-bar output of a provider: a direction plus the
// numeric fields the position state machine needs for stop placement.
type Signal struct {
	Direction      Direction
	Volatility     float64 // ATR-like measure, >= 0
	ReferencePrice float64 // mean/anchor price for stop placement
	StopLevel      float64 // optional pre-computed stop line; 0 when absent
}

// Provider computes one signal from a closed-bar window. Implementations
// are external collaborators; the engine treats them as opaque.
type Provider interface {
	Name() string
	Evaluate(bars []market.Bar) (Signal, error)
}

// DataQualityError marks a bar whose derived signal fields are unusable.
// The defined handling is "no new entries this bar": existing positions
// keep being managed against their stored stop levels.
type DataQualityError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("signal data quality: %s=%v (%s)", e.Field, e.Value, e.Reason)
}

// Check validates the numeric fields of a signal.
func Check(s Signal) error {
	if math.IsNaN(s.Volatility) || math.IsInf(s.Volatility, 0) || s.Volatility < 0 {
		return &DataQualityError{Field: "volatility", Value: s.Volatility, Reason: "must be finite and non-negative"}
	}
	if s.Direction != Flat && s.Volatility == 0 && s.StopLevel == 0 {
		return &DataQualityError{Field: "volatility", Value: 0, Reason: "zero volatility disables entries"}
	}
	if math.IsNaN(s.ReferencePrice) || math.IsInf(s.ReferencePrice, 0) || s.ReferencePrice < 0 {
		return &DataQualityError{Field: "reference_price", Value: s.ReferencePrice, Reason: "must be finite and non-negative"}
	}
	if math.IsNaN(s.StopLevel) || math.IsInf(s.StopLevel, 0) || s.StopLevel < 0 {
		return &DataQualityError{Field: "stop_level", Value: s.StopLevel, Reason: "must be finite and non-negative"}
	}
	return nil
}
