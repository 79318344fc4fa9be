package position

// Side tags the position variant. The zero value is Flat, so a zeroed
// Position is a valid flat state.
type Side int

const (
	Flat Side = iota
	Long
	Short
)

func (s Side) String() string {
	switch s {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	default:
		return "FLAT"
	}
}

// Position is the engine-owned exposure for one instrument. It is only
// ever produced by Transition; callers treat values as immutable.
//
// Invariants: Side == Flat <=> Size == 0 <=> EntryPrice == 0, and while
// open, StopLoss and TakeProfit bracket EntryPrice on the side implied
// by Side.
type Position struct {
	Side       Side
	Size       float64 // >= 0; direction lives in Side
	EntryPrice float64 // volume-weighted average cost of open exposure
	StopLoss   float64
	TakeProfit float64
}

// Signed returns the signed size: positive long, negative short.
func (p Position) Signed() float64 {
	switch p.Side {
	case Long:
		return p.Size
	case Short:
		return -p.Size
	default:
		return 0
	}
}

// Notional returns exposure in quote currency at the average cost.
func (p Position) Notional() float64 {
	return p.Size * p.EntryPrice
}

// Unrealized returns mark-to-market PnL against a price. Pure function
// of the position and the price; never stored as transition-driving state.
func (p Position) Unrealized(price float64) float64 {
	if p.Side == Flat {
		return 0
	}
	return (price - p.EntryPrice) * p.Signed()
}

// Account tracks equity and cumulative PnL/commission. Equity moves only
// when a realization or commission event occurs.
type Account struct {
	Equity        float64
	RealizedPnL   float64
	UnrealizedPnL float64
	Commission    float64
}
