package binance

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// instrumentMeta holds per-symbol precision filters. A price or quantity
// must land exactly on the tick/step grid or the venue rejects the order.
type instrumentMeta struct {
	TickSize string
	StepSize string
	MinQty   string
}

var instruments = map[string]instrumentMeta{
	"BTCUSDT": {TickSize: "0.1", StepSize: "0.001", MinQty: "0.001"},
	"BTCUSDC": {TickSize: "0.1", StepSize: "0.001", MinQty: "0.001"},
	"ETHUSDT": {TickSize: "0.01", StepSize: "0.001", MinQty: "0.001"},
	"SOLUSDT": {TickSize: "0.001", StepSize: "1", MinQty: "1"},
}

// RegisterInstrument overrides or adds precision filters for a symbol.
func RegisterInstrument(symbol, tickSize, stepSize, minQty string) {
	instruments[symbol] = instrumentMeta{TickSize: tickSize, StepSize: stepSize, MinQty: minQty}
}

func meta(symbol string) (instrumentMeta, error) {
	m, ok := instruments[symbol]
	if !ok {
		return instrumentMeta{}, fmt.Errorf("no instrument meta for %s", symbol)
	}
	return m, nil
}

// RoundPrice snaps a price onto the symbol's tick grid.
func RoundPrice(symbol string, price float64) (string, error) {
	m, err := meta(symbol)
	if err != nil {
		return "", err
	}
	tick, err := decimal.NewFromString(m.TickSize)
	if err != nil {
		return "", fmt.Errorf("bad tick size for %s: %w", symbol, err)
	}
	p := decimal.NewFromFloat(price)
	return p.Div(tick).Round(0).Mul(tick).String(), nil
}

// RoundQty floors a quantity onto the symbol's step grid and validates
// the minimum lot. Flooring never sends more size than intended.
func RoundQty(symbol string, qty float64) (string, error) {
	m, err := meta(symbol)
	if err != nil {
		return "", err
	}
	step, err := decimal.NewFromString(m.StepSize)
	if err != nil {
		return "", fmt.Errorf("bad step size for %s: %w", symbol, err)
	}
	minQty, err := decimal.NewFromString(m.MinQty)
	if err != nil {
		return "", fmt.Errorf("bad min qty for %s: %w", symbol, err)
	}

	q := decimal.NewFromFloat(qty).Div(step).Floor().Mul(step)
	if q.LessThan(minQty) {
		return "", fmt.Errorf("qty %v below minimum %s for %s", qty, m.MinQty, symbol)
	}
	return q.String(), nil
}
