package position

import (
	"perp-exec/internal/market"
	"perp-exec/internal/signal"
)

// EventKind labels what a transition did to the position.
type EventKind string

const (
	KindEnter      EventKind = "ENTER"
	KindScaleIn    EventKind = "SCALE_IN"
	KindScaleOut   EventKind = "SCALE_OUT"
	KindStopLoss   EventKind = "STOP_LOSS"
	KindTakeProfit EventKind = "TAKE_PROFIT"
	KindSignalExit EventKind = "SIGNAL_EXIT"
	KindFlip       EventKind = "FLIP"
)

// TradeEvent describes the fill a transition implies. Qty is the
// unsigned traded quantity of the event's leg; for a flip it covers
// both the closing and the opening leg.
type TradeEvent struct {
	Kind       EventKind
	Side       Side // resulting position side; Flat for full exits
	Qty        float64
	Price      float64
	Realized   float64
	Commission float64
}

// Config selects the sizing, stop and scaling behavior of the state
// machine. It is fixed for the lifetime of a strategy run.
type Config struct {
	Sizer          Sizer
	Stops          StopPolicy
	MultiUnit      bool    // scale in/out one unit per bar instead of all-in
	FlipOnReverse  bool    // single-unit mode: reverse directly on opposite signal
	MaxNotional    float64 // scale-in ceiling in quote currency; 0 disables
	CommissionRate float64
}

// Transition is the single state-machine step: one closed bar plus one
// signal in, the next position and account out, with an optional trade
// event when exposure changed. It is pure and total: no I/O, no clock,
// no randomness, and every input produces a well-defined result.
//
// Order of evaluation inside a bar: stop-loss first, then take-profit,
// then signal-driven actions. When a bar's range breaches both exit
// levels the stop wins and the loss is realized.
func Transition(cfg Config, pos Position, acct Account, bar market.Bar, sig signal.Signal) (Position, Account, *TradeEvent) {
	if !bar.Valid() {
		return pos, acct, nil
	}
	sigErr := signal.Check(sig)

	var ev *TradeEvent
	switch pos.Side {
	case Flat:
		if sigErr == nil {
			pos, acct, ev = enter(cfg, acct, bar, sig)
		}
	case Long, Short:
		pos, acct, ev = manage(cfg, pos, acct, bar, sig, sigErr == nil)
	}

	acct.UnrealizedPnL = pos.Unrealized(bar.Close)
	return pos, acct, ev
}

func enter(cfg Config, acct Account, bar market.Bar, sig signal.Signal) (Position, Account, *TradeEvent) {
	var side Side
	switch sig.Direction {
	case signal.Long:
		side = Long
	case signal.Short:
		side = Short
	default:
		return Position{}, acct, nil
	}

	size := cfg.Sizer(acct, bar.Close)
	if size <= 0 {
		return Position{}, acct, nil
	}
	ref := sig.ReferencePrice
	if ref <= 0 {
		ref = bar.Close
	}
	sl, tp := cfg.Stops.Levels(side, ref, sig)
	if !bracketed(side, bar.Close, sl, tp) {
		return Position{}, acct, nil
	}

	comm := cfg.CommissionRate * size * bar.Close
	acct.Equity -= comm
	acct.Commission += comm

	pos := Position{Side: side, Size: size, EntryPrice: bar.Close, StopLoss: sl, TakeProfit: tp}
	return pos, acct, &TradeEvent{Kind: KindEnter, Side: side, Qty: size, Price: bar.Close, Commission: comm}
}

func manage(cfg Config, pos Position, acct Account, bar market.Bar, sig signal.Signal, sigOK bool) (Position, Account, *TradeEvent) {
	// Exit levels are checked against the bar's range, stop-loss first.
	// PnL is realized at the breached level, not at the bar close.
	if breachedStop(pos, bar) {
		return exitAll(cfg, pos, acct, pos.StopLoss, KindStopLoss)
	}
	if breachedProfit(pos, bar) {
		return exitAll(cfg, pos, acct, pos.TakeProfit, KindTakeProfit)
	}
	if !sigOK {
		return pos, acct, nil
	}

	opposed := (pos.Side == Long && sig.Direction == signal.Short) ||
		(pos.Side == Short && sig.Direction == signal.Long)
	aligned := (pos.Side == Long && sig.Direction == signal.Long) ||
		(pos.Side == Short && sig.Direction == signal.Short)

	switch {
	case opposed && cfg.MultiUnit:
		return scaleOut(cfg, pos, acct, bar)
	case opposed && cfg.FlipOnReverse:
		return flip(cfg, pos, acct, bar, sig)
	case opposed:
		return exitAll(cfg, pos, acct, bar.Close, KindSignalExit)
	case aligned && cfg.MultiUnit:
		return scaleIn(cfg, pos, acct, bar, sig)
	}
	return pos, acct, nil
}

func breachedStop(pos Position, bar market.Bar) bool {
	if pos.Side == Long {
		return bar.Low < pos.StopLoss
	}
	return bar.High > pos.StopLoss
}

func breachedProfit(pos Position, bar market.Bar) bool {
	if pos.Side == Long {
		return bar.High > pos.TakeProfit
	}
	return bar.Low < pos.TakeProfit
}

func bracketed(side Side, px, sl, tp float64) bool {
	if side == Long {
		return sl < px && px < tp
	}
	return tp < px && px < sl
}

func exitAll(cfg Config, pos Position, acct Account, px float64, kind EventKind) (Position, Account, *TradeEvent) {
	realized := (px - pos.EntryPrice) * pos.Signed()
	comm := cfg.CommissionRate * pos.Size * px

	acct.Equity += realized - comm
	acct.RealizedPnL += realized
	acct.Commission += comm

	ev := &TradeEvent{Kind: kind, Side: Flat, Qty: pos.Size, Price: px, Realized: realized, Commission: comm}
	return Position{}, acct, ev
}

// flip closes the full position at the bar close and opens the opposite
// side in the same step. Commission is charged on both legs.
func flip(cfg Config, pos Position, acct Account, bar market.Bar, sig signal.Signal) (Position, Account, *TradeEvent) {
	realized := (bar.Close - pos.EntryPrice) * pos.Signed()
	closeComm := cfg.CommissionRate * pos.Size * bar.Close
	acct.Equity += realized - closeComm
	acct.RealizedPnL += realized
	acct.Commission += closeComm

	newSide := Short
	if pos.Side == Short {
		newSide = Long
	}
	size := cfg.Sizer(acct, bar.Close)
	ref := sig.ReferencePrice
	if ref <= 0 {
		ref = bar.Close
	}
	sl, tp := cfg.Stops.Levels(newSide, ref, sig)
	if size <= 0 || !bracketed(newSide, bar.Close, sl, tp) {
		ev := &TradeEvent{Kind: KindSignalExit, Side: Flat, Qty: pos.Size, Price: bar.Close, Realized: realized, Commission: closeComm}
		return Position{}, acct, ev
	}

	openComm := cfg.CommissionRate * size * bar.Close
	acct.Equity -= openComm
	acct.Commission += openComm

	next := Position{Side: newSide, Size: size, EntryPrice: bar.Close, StopLoss: sl, TakeProfit: tp}
	ev := &TradeEvent{Kind: KindFlip, Side: newSide, Qty: pos.Size + size, Price: bar.Close, Realized: realized, Commission: closeComm + openComm}
	return next, acct, ev
}

// scaleIn adds one sizer unit at the bar close. The entry price becomes
// the volume-weighted average and stops are recomputed from the new
// signal; size never shrinks here.
func scaleIn(cfg Config, pos Position, acct Account, bar market.Bar, sig signal.Signal) (Position, Account, *TradeEvent) {
	if cfg.MaxNotional > 0 && pos.Notional() >= cfg.MaxNotional {
		return pos, acct, nil
	}
	unit := cfg.Sizer(acct, bar.Close)
	if unit <= 0 {
		return pos, acct, nil
	}
	ref := sig.ReferencePrice
	if ref <= 0 {
		ref = bar.Close
	}
	sl, tp := cfg.Stops.Levels(pos.Side, ref, sig)
	if !bracketed(pos.Side, bar.Close, sl, tp) {
		return pos, acct, nil
	}

	comm := cfg.CommissionRate * unit * bar.Close
	acct.Equity -= comm
	acct.Commission += comm

	total := pos.Size + unit
	vwap := (pos.EntryPrice*pos.Size + bar.Close*unit) / total
	next := Position{Side: pos.Side, Size: total, EntryPrice: vwap, StopLoss: sl, TakeProfit: tp}
	return next, acct, &TradeEvent{Kind: KindScaleIn, Side: pos.Side, Qty: unit, Price: bar.Close, Commission: comm}
}

// scaleOut sheds one sizer unit at the bar close, realizing PnL on the
// closed portion against the unchanged average entry. When at most one
// unit remains the position flattens entirely.
func scaleOut(cfg Config, pos Position, acct Account, bar market.Bar) (Position, Account, *TradeEvent) {
	unit := cfg.Sizer(acct, bar.Close)
	if unit <= 0 || pos.Size <= unit {
		return exitAll(cfg, pos, acct, bar.Close, KindSignalExit)
	}

	sign := 1.0
	if pos.Side == Short {
		sign = -1.0
	}
	realized := (bar.Close - pos.EntryPrice) * unit * sign
	comm := cfg.CommissionRate * unit * bar.Close

	acct.Equity += realized - comm
	acct.RealizedPnL += realized
	acct.Commission += comm

	next := pos
	next.Size -= unit
	ev := &TradeEvent{Kind: KindScaleOut, Side: pos.Side, Qty: unit, Price: bar.Close, Realized: realized, Commission: comm}
	return next, acct, ev
}
