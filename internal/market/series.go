package market

import (
	"errors"
	"fmt"
)

// Series is an append-only, strictly ordered sequence of closed bars
// for one (symbol, timeframe). The state machine consumes bars in
// OpenTime order with no reordering or skipping.
type Series struct {
	Symbol    string
	Timeframe string

	bars []Bar
	max  int
}

// NewSeries builds a series keeping at most max bars (0 = unbounded).
func NewSeries(symbol, timeframe string, max int) *Series {
	return &Series{Symbol: symbol, Timeframe: timeframe, max: max}
}

// ErrOutOfOrder is returned when an appended bar does not advance OpenTime.
var ErrOutOfOrder = errors.New("bar does not advance open time")

// Append adds one closed bar. Bars already seen are ignored so that a
// poll overlap cannot double-feed the state machine.
func (s *Series) Append(b Bar) error {
	if n := len(s.bars); n > 0 {
		last := s.bars[n-1].OpenTime
		if !b.OpenTime.After(last) {
			if b.OpenTime.Equal(last) {
				return nil // duplicate from an overlapping poll
			}
			return fmt.Errorf("%w: %s <= %s", ErrOutOfOrder, b.OpenTime, last)
		}
	}
	s.bars = append(s.bars, b)
	if s.max > 0 && len(s.bars) > s.max {
		s.bars = s.bars[len(s.bars)-s.max:]
	}
	return nil
}

// Len returns the number of stored bars.
func (s *Series) Len() int { return len(s.bars) }

// Last returns the most recent closed bar.
func (s *Series) Last() (Bar, bool) {
	if len(s.bars) == 0 {
		return Bar{}, false
	}
	return s.bars[len(s.bars)-1], true
}

// Window returns the most recent n bars (fewer when the series is short).
func (s *Series) Window(n int) []Bar {
	if n <= 0 || n > len(s.bars) {
		n = len(s.bars)
	}
	out := make([]Bar, n)
	copy(out, s.bars[len(s.bars)-n:])
	return out
}
