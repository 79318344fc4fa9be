package position

import "math"

// Sizer computes the size delta for an entry or scale-in from account
// state and the entry price.
type Sizer func(acct Account, price float64) float64

// FixedSizer always returns the same unit size.
func FixedSizer(unit float64) Sizer {
	return func(Account, float64) float64 {
		return unit
	}
}

// NotionalSizer spends the full equity at the given price, rounded down
// to three decimals the way the venue's lot grid expects.
func NotionalSizer() Sizer {
	return func(acct Account, price float64) float64 {
		if price <= 0 || acct.Equity <= 0 {
			return 0
		}
		return math.Floor(acct.Equity/price*1000) / 1000
	}
}
