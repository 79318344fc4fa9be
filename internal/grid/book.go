package grid

import "math"

// Book is the inventory ledger for a grid ladder. Buys and sells are
// accumulated separately as notional-weighted averages; profit is only
// realized on the matched part of the two turnovers.
type Book struct {
	Position     float64 // signed net inventory
	AvgBuy       float64
	AvgSell      float64
	TurnoverBuy  float64
	TurnoverSell float64
	Commission   float64

	CommRate float64
}

// ApplyBuy records a filled buy of qty at price.
func (b *Book) ApplyBuy(price, qty float64) {
	b.AvgBuy = (b.AvgBuy*b.TurnoverBuy + price*qty) / (b.TurnoverBuy + qty)
	b.TurnoverBuy += qty
	b.Position += qty
	b.Commission += b.CommRate * qty * price
}

// ApplySell records a filled sell of qty at price.
func (b *Book) ApplySell(price, qty float64) {
	b.AvgSell = (b.AvgSell*b.TurnoverSell + price*qty) / (b.TurnoverSell + qty)
	b.TurnoverSell += qty
	b.Position -= qty
	b.Commission += b.CommRate * qty * price
}

// Inventory is the unmatched turnover, always non-negative.
func (b *Book) Inventory() float64 {
	return math.Abs(b.TurnoverBuy - b.TurnoverSell)
}

// RealizedPnL is the profit locked in on matched turnover.
func (b *Book) RealizedPnL() float64 {
	matched := math.Min(b.TurnoverBuy, b.TurnoverSell)
	return matched * (b.AvgSell - b.AvgBuy)
}

// UnrealizedPnL marks the net inventory against a price. Long leftover
// inventory carries the buy cost basis, short leftover the sell basis.
func (b *Book) UnrealizedPnL(price float64) float64 {
	switch {
	case b.Position > 0:
		return b.Position * (price - b.AvgBuy)
	case b.Position < 0:
		return b.Position * (price - b.AvgSell)
	default:
		return 0
	}
}

// Clear crosses the net inventory at price, folding the closing fill
// into the short side of the turnover so both sides match afterwards.
// Returns the quantity that was closed.
func (b *Book) Clear(price float64) float64 {
	qty := b.Inventory()
	if qty == 0 {
		return 0
	}
	if b.Position > 0 {
		b.AvgSell = (b.AvgSell*b.TurnoverSell + price*qty) / (b.TurnoverSell + qty)
		b.TurnoverSell = b.TurnoverBuy
	} else {
		b.AvgBuy = (b.AvgBuy*b.TurnoverBuy + price*qty) / (b.TurnoverBuy + qty)
		b.TurnoverBuy = b.TurnoverSell
	}
	b.Position = 0
	b.Commission += b.CommRate * qty * price
	return qty
}

// LotSizes returns the (buy, sell) base lot for the next ladder. The
// side that reduces current inventory quotes lotK times the base lot so
// exposure mean-reverts instead of compounding.
func LotSizes(position, lot, lotK float64) (buyLot, sellLot float64) {
	buyLot, sellLot = lot, lot
	switch {
	case position > 0:
		sellLot = lot * lotK
	case position < 0:
		buyLot = lot * lotK
	}
	return buyLot, sellLot
}
