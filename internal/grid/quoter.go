package grid

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"perp-exec/internal/events"
	"perp-exec/internal/market"
	"perp-exec/internal/metrics"
	"perp-exec/internal/notify"
	"perp-exec/pkg/exchange"
)

// Venue is the order surface the quoter needs. Ladder orders are
// tracked and cancelled individually so harvest orders survive a
// ladder rebuild.
type Venue interface {
	PositionRisk(ctx context.Context, symbol string) (exchange.Position, error)
	PlaceOrder(ctx context.Context, req exchange.OrderRequest) (exchange.OrderResult, error)
	CancelAllOpen(ctx context.Context, symbol string) error
	OrderStatus(ctx context.Context, symbol, orderID string) (exchange.OrderResult, error)
	CancelOrder(ctx context.Context, symbol, orderID string) error
}

// Config tunes one grid quoter.
type Config struct {
	Symbol string

	Lot        float64
	LotK       float64 // inventory-reducing side quotes Lot*LotK
	ClearanceK float64 // inventory in lots that forces a market clear

	LookbackBars int
	ATRLength    int
	CommRate     float64

	MaxNotional       float64
	MaxUnrealizedLoss float64
	Cooldown          time.Duration
}

type restingOrder struct {
	id    string
	side  exchange.Side
	price float64
}

// Quoter keeps a two-sided ladder resting around the grid center and
// harvests fills one gap away. All methods run on one goroutine.
type Quoter struct {
	cfg      Config
	venue    Venue
	log      zerolog.Logger
	notifier notify.Notifier
	bus      *events.Bus

	Book   Book
	levels Levels
	gap    float64

	highest float64
	lowest  float64

	resting []restingOrder
	harvest []restingOrder

	cooldownUntil time.Time
	now           func() time.Time
}

func NewQuoter(cfg Config, venue Venue, n notify.Notifier, bus *events.Bus, log zerolog.Logger) *Quoter {
	if n == nil {
		n = notify.Nop{}
	}
	return &Quoter{
		cfg:      cfg,
		venue:    venue,
		log:      log,
		notifier: n,
		bus:      bus,
		Book:     Book{CommRate: cfg.CommRate},
		now:      time.Now,
	}
}

func (q *Quoter) publish(e events.Event, payload any) {
	if q.bus == nil {
		return
	}
	q.bus.Publish(e, payload)
}

// Reset rebuilds the ladder from scratch: spacing and boundary envelope
// from the lookback window, center snapped near the last close.
func (q *Quoter) Reset(ctx context.Context, bars []market.Bar) error {
	gap, err := GapFromBars(bars, q.cfg.ATRLength)
	if err != nil {
		return err
	}
	window := bars
	if len(window) > q.cfg.LookbackBars {
		window = window[len(window)-q.cfg.LookbackBars:]
	}
	highest, lowest, err := Envelope(window)
	if err != nil {
		return err
	}

	q.gap = gap
	q.highest = highest
	q.lowest = lowest
	q.levels = Initial(highest, lowest, bars[len(bars)-1].Close, gap)
	q.log.Info().
		Float64("center", q.levels.Center).
		Float64("gap", q.gap).
		Float64("highest", q.highest).
		Float64("lowest", q.lowest).
		Msg("grid reset")

	return q.placeLadder(ctx)
}

// placeLadder rests four orders: one lot at the first level, double at
// the second, skewed so the inventory-reducing side is heavier.
func (q *Quoter) placeLadder(ctx context.Context) error {
	buyLot, sellLot := LotSizes(q.Book.Position, q.cfg.Lot, q.cfg.LotK)
	quotes := []struct {
		side  exchange.Side
		price float64
		qty   float64
	}{
		{exchange.SideBuy, q.levels.Buy1, buyLot},
		{exchange.SideBuy, q.levels.Buy2, 2 * buyLot},
		{exchange.SideSell, q.levels.Sell1, sellLot},
		{exchange.SideSell, q.levels.Sell2, 2 * sellLot},
	}

	q.resting = q.resting[:0]
	for _, quote := range quotes {
		res, err := q.venue.PlaceOrder(ctx, exchange.OrderRequest{
			Symbol:      q.cfg.Symbol,
			Side:        quote.side,
			Type:        exchange.TypeLimit,
			Qty:         quote.qty,
			Price:       quote.price,
			TimeInForce: exchange.TifGTC,
			ClientID:    "grid-" + uuid.NewString(),
		})
		if err != nil {
			return fmt.Errorf("place ladder %s@%v: %w", quote.side, quote.price, err)
		}
		metrics.OrdersPlaced.WithLabelValues(q.cfg.Symbol, string(quote.side), string(exchange.TypeLimit)).Inc()
		q.publish(events.EventOrderPlaced, res)
		q.resting = append(q.resting, restingOrder{id: res.OrderID, side: quote.side, price: quote.price})
	}
	return nil
}

// PollFills checks the resting ladder. A fill books the trade, rests a
// harvest order one gap on the other side, and pulls the remaining
// ladder so the next bar rebuilds it around the new state.
func (q *Quoter) PollFills(ctx context.Context) error {
	if q.inCooldown() || (len(q.resting) == 0 && len(q.harvest) == 0) {
		return nil
	}

	var filled bool
	remaining := q.resting[:0]
	for _, ro := range q.resting {
		info, err := q.venue.OrderStatus(ctx, q.cfg.Symbol, ro.id)
		if err != nil {
			q.log.Warn().Err(err).Str("order_id", ro.id).Msg("order status failed")
			remaining = append(remaining, ro)
			continue
		}
		if info.Status != exchange.StatusFilled {
			remaining = append(remaining, ro)
			continue
		}

		filled = true
		if ro.side == exchange.SideBuy {
			q.Book.ApplyBuy(info.Price, info.ExecutedQty)
		} else {
			q.Book.ApplySell(info.Price, info.ExecutedQty)
		}
		q.log.Info().
			Str("side", string(ro.side)).
			Float64("price", info.Price).
			Float64("qty", info.ExecutedQty).
			Float64("position", q.Book.Position).
			Msg("ladder fill")
		if err := q.placeHarvest(ctx, info); err != nil {
			q.log.Error().Err(err).Msg("harvest order failed")
		}
	}
	q.resting = remaining

	// Harvest fills close inventory the ladder opened. They book the
	// same way but never spawn further orders, otherwise the book and
	// the venue drift apart one lot per round trip.
	keep := q.harvest[:0]
	for _, ro := range q.harvest {
		info, err := q.venue.OrderStatus(ctx, q.cfg.Symbol, ro.id)
		if err != nil {
			q.log.Warn().Err(err).Str("order_id", ro.id).Msg("order status failed")
			keep = append(keep, ro)
			continue
		}
		if info.Status != exchange.StatusFilled {
			keep = append(keep, ro)
			continue
		}
		if ro.side == exchange.SideBuy {
			q.Book.ApplyBuy(info.Price, info.ExecutedQty)
		} else {
			q.Book.ApplySell(info.Price, info.ExecutedQty)
		}
		q.log.Info().
			Str("side", string(ro.side)).
			Float64("price", info.Price).
			Float64("qty", info.ExecutedQty).
			Float64("position", q.Book.Position).
			Msg("harvest fill")
	}
	q.harvest = keep

	if filled {
		for _, ro := range q.resting {
			if err := q.venue.CancelOrder(ctx, q.cfg.Symbol, ro.id); err != nil {
				q.log.Warn().Err(err).Str("order_id", ro.id).Msg("ladder cancel failed")
			}
		}
		q.resting = q.resting[:0]
	}
	return nil
}

// placeHarvest rests the opposite side one gap from the fill price.
func (q *Quoter) placeHarvest(ctx context.Context, fill exchange.OrderResult) error {
	side := exchange.SideSell
	price := fill.Price + q.gap
	if fill.Side == exchange.SideSell {
		side = exchange.SideBuy
		price = fill.Price - q.gap
	}
	res, err := q.venue.PlaceOrder(ctx, exchange.OrderRequest{
		Symbol:      q.cfg.Symbol,
		Side:        side,
		Type:        exchange.TypeLimit,
		Qty:         fill.ExecutedQty,
		Price:       price,
		TimeInForce: exchange.TifGTC,
		ClientID:    "harvest-" + uuid.NewString(),
	})
	if err != nil {
		return err
	}
	metrics.OrdersPlaced.WithLabelValues(q.cfg.Symbol, string(side), string(exchange.TypeLimit)).Inc()
	q.publish(events.EventOrderPlaced, res)
	q.harvest = append(q.harvest, restingOrder{id: res.OrderID, side: side, price: price})
	return nil
}

// OnBar runs the per-bar housekeeping: boundary and risk checks, forced
// inventory clearance, then a ladder move if a level was breached and
// no ladder is resting.
func (q *Quoter) OnBar(ctx context.Context, bar market.Bar, window []market.Bar) error {
	if q.inCooldown() {
		return nil
	}

	if bar.Close > q.highest || bar.Close < q.lowest {
		return q.restart(ctx, "price left the lookback envelope", window)
	}
	pos, err := q.venue.PositionRisk(ctx, q.cfg.Symbol)
	if err != nil {
		return fmt.Errorf("read position: %w", err)
	}
	if q.cfg.MaxNotional > 0 && math.Abs(pos.Notional) > q.cfg.MaxNotional {
		return q.restart(ctx, "notional over limit", window)
	}
	if q.cfg.MaxUnrealizedLoss > 0 && pos.UnrealizedPnL < -q.cfg.MaxUnrealizedLoss {
		return q.restart(ctx, "unrealized loss over limit", window)
	}

	if q.cfg.ClearanceK > 0 && q.Book.Inventory() >= q.cfg.ClearanceK*q.cfg.Lot {
		if err := q.clearInventory(ctx, bar.Close); err != nil {
			return err
		}
	}

	if len(q.resting) > 0 {
		return nil
	}
	gap, err := GapFromBars(window, q.cfg.ATRLength)
	if err != nil {
		gap = q.gap
	}
	next, moved := q.levels.Update(bar, gap)
	if !moved {
		return nil
	}
	q.levels = next
	q.gap = gap
	q.log.Info().
		Float64("center", q.levels.Center).
		Float64("gap", q.gap).
		Msg("grid levels moved")
	return q.placeLadder(ctx)
}

// clearInventory crosses the net inventory at market and books the
// clearance against the bar close.
func (q *Quoter) clearInventory(ctx context.Context, close float64) error {
	side := exchange.SideSell
	if q.Book.Position < 0 {
		side = exchange.SideBuy
	}
	qty := q.Book.Inventory()

	res, err := q.venue.PlaceOrder(ctx, exchange.OrderRequest{
		Symbol:     q.cfg.Symbol,
		Side:       side,
		Type:       exchange.TypeMarket,
		Qty:        qty,
		ReduceOnly: true,
		ClientID:   "clear-" + uuid.NewString(),
	})
	if err != nil {
		return fmt.Errorf("clearance order: %w", err)
	}
	q.publish(events.EventOrderPlaced, res)
	q.Book.Clear(close)
	q.log.Warn().
		Float64("qty", qty).
		Float64("realized", q.Book.RealizedPnL()).
		Msg("inventory cleared")
	return nil
}

// restart flattens everything and pauses before rebuilding. The caller
// keeps feeding bars; the quoter wakes up once the cooldown passes.
func (q *Quoter) restart(ctx context.Context, reason string, window []market.Bar) error {
	metrics.SafetyTrips.Inc()
	q.publish(events.EventSafetyBreach, reason)
	q.cooldownUntil = q.now().Add(q.cfg.Cooldown)
	q.resting = q.resting[:0]
	q.harvest = q.harvest[:0]

	q.log.Error().Str("reason", reason).Time("until", q.cooldownUntil).Msg("grid restart")
	q.notifier.Notify(ctx, "GRID RESTART",
		fmt.Sprintf("%s: %s, paused until %s", q.cfg.Symbol, reason, q.cooldownUntil.Format(time.RFC3339)))

	if err := q.venue.CancelAllOpen(ctx, q.cfg.Symbol); err != nil {
		return fmt.Errorf("restart cancel: %w", err)
	}
	pos, err := q.venue.PositionRisk(ctx, q.cfg.Symbol)
	if err != nil {
		return fmt.Errorf("restart position: %w", err)
	}
	if pos.Qty != 0 {
		side := exchange.SideSell
		if pos.Qty < 0 {
			side = exchange.SideBuy
		}
		_, err := q.venue.PlaceOrder(ctx, exchange.OrderRequest{
			Symbol:     q.cfg.Symbol,
			Side:       side,
			Type:       exchange.TypeMarket,
			Qty:        math.Abs(pos.Qty),
			ReduceOnly: true,
			ClientID:   "restart-" + uuid.NewString(),
		})
		if err != nil {
			return fmt.Errorf("restart close: %w", err)
		}
	}
	if len(window) > 0 {
		q.Book.Clear(window[len(window)-1].Close)
	}
	return nil
}

// Ready reports whether the quoter is out of cooldown but has no
// ladder, meaning the caller should Reset it with a fresh window.
func (q *Quoter) Ready() bool {
	return !q.inCooldown()
}

func (q *Quoter) inCooldown() bool {
	return q.now().Before(q.cooldownUntil)
}
