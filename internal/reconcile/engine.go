package reconcile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"perp-exec/internal/events"
	"perp-exec/internal/handoff"
	"perp-exec/internal/metrics"
	"perp-exec/internal/notify"
	"perp-exec/pkg/db"
	"perp-exec/pkg/exchange"
)

// Cycle outcomes, recorded in metrics and the audit journal.
const (
	OutcomeCooldown    = "cooldown"
	OutcomeNoTarget    = "no_target"
	OutcomeStaleTarget = "stale_target"
	OutcomeInSync      = "in_sync"
	OutcomeAdjusted    = "adjusted"
	OutcomeExhausted   = "retries_exhausted"
	OutcomeSafety      = "safety_flatten"
	OutcomeError       = "error"
)

// Journal is the audit sink for reconciliation actions.
type Journal interface {
	CreateReconReport(ctx context.Context, r db.ReconReport) error
}

// Config tunes one reconciliation loop.
type Config struct {
	Symbol   string
	Strategy string

	Interval       time.Duration
	Epsilon        float64 // |target-actual| below this is in sync
	SlippageOffset float64 // quote-currency offset from best bid/ask
	MaxRetries     int
	RetryBackoff   time.Duration

	MaxNotional       float64 // absolute exposure ceiling, quote currency
	MaxUnrealizedLoss float64 // positive number of quote currency
	SafetyCooldown    time.Duration
	TargetStaleAfter  time.Duration
}

// Status is a point-in-time snapshot for the status API.
type Status struct {
	Symbol        string    `json:"symbol"`
	Target        float64   `json:"target"`
	Actual        float64   `json:"actual"`
	LastOutcome   string    `json:"last_outcome"`
	LastCycle     time.Time `json:"last_cycle"`
	CooldownUntil time.Time `json:"cooldown_until,omitempty"`
}

// Engine drives broker state toward the published target position. Each
// cycle stands alone: cancel whatever is resting, re-read both sides of
// the diff from scratch, then act once. Crash anywhere and the next
// cycle repairs the difference.
type Engine struct {
	cfg      Config
	gateway  exchange.Gateway
	store    handoff.Store
	journal  Journal
	notifier notify.Notifier
	bus      *events.Bus
	log      zerolog.Logger

	now func() time.Time

	cooldownUntil time.Time

	statusMu sync.RWMutex
	status   Status
}

func NewEngine(cfg Config, gw exchange.Gateway, store handoff.Store, journal Journal, n notify.Notifier, bus *events.Bus, log zerolog.Logger) *Engine {
	if n == nil {
		n = notify.Nop{}
	}
	return &Engine{
		cfg:      cfg,
		gateway:  gw,
		store:    store,
		journal:  journal,
		notifier: n,
		bus:      bus,
		log:      log,
		now:      time.Now,
		status:   Status{Symbol: cfg.Symbol},
	}
}

func (e *Engine) publish(ev events.Event, payload any) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(ev, payload)
}

// Run executes cycles until the context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	for {
		outcome, err := e.Cycle(ctx)
		if err != nil {
			e.log.Error().Err(err).Str("outcome", outcome).Msg("reconcile cycle failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Status returns the latest snapshot. Safe from any goroutine.
func (e *Engine) Status() Status {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.status
}

func (e *Engine) updateStatus(fn func(*Status)) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	fn(&e.status)
}

// Cycle performs one reconciliation pass and returns its outcome.
func (e *Engine) Cycle(ctx context.Context) (string, error) {
	now := e.now()
	e.updateStatus(func(st *Status) { st.LastCycle = now })

	if now.Before(e.cooldownUntil) {
		return e.finish(OutcomeCooldown, nil)
	}

	// Resting orders from previous cycles would double-fill against a
	// fresh diff, so every cycle starts from a clean book.
	if err := e.gateway.CancelAllOpen(ctx, e.cfg.Symbol); err != nil {
		return e.finish(OutcomeError, fmt.Errorf("cancel open orders: %w", err))
	}

	actual, err := e.gateway.PositionRisk(ctx, e.cfg.Symbol)
	if err != nil {
		return e.finish(OutcomeError, fmt.Errorf("read position: %w", err))
	}
	e.updateStatus(func(st *Status) { st.Actual = actual.Qty })
	metrics.PositionSize.WithLabelValues(e.cfg.Symbol).Set(actual.Qty)
	metrics.UnrealizedPnL.WithLabelValues(e.cfg.Symbol).Set(actual.UnrealizedPnL)

	if reason := e.safetyBreach(actual); reason != "" {
		return e.forceFlatten(ctx, actual, reason)
	}

	target, err := e.store.Latest(ctx, e.cfg.Strategy)
	if errors.Is(err, handoff.ErrNoTarget) {
		// Never traded means never touch the book.
		return e.finish(OutcomeNoTarget, nil)
	}
	if err != nil {
		return e.finish(OutcomeError, fmt.Errorf("read target: %w", err))
	}
	if target.Stale(now, e.cfg.TargetStaleAfter) {
		e.log.Warn().
			Time("computed_at", target.ComputedAt).
			Float64("target", target.Target).
			Msg("target is stale, holding")
		return e.finish(OutcomeStaleTarget, nil)
	}
	e.updateStatus(func(st *Status) { st.Target = target.Target })
	metrics.TargetPosition.WithLabelValues(e.cfg.Strategy).Set(target.Target)

	diff := target.Target - actual.Qty
	if math.Abs(diff) < e.cfg.Epsilon {
		return e.finish(OutcomeInSync, nil)
	}

	outcome, err := e.placeDiff(ctx, diff)
	e.report(ctx, target.Target, actual.Qty, diff, outcome)
	return e.finish(outcome, err)
}

func (e *Engine) finish(outcome string, err error) (string, error) {
	e.updateStatus(func(st *Status) { st.LastOutcome = outcome })
	metrics.ReconcileCycles.WithLabelValues(outcome).Inc()
	return outcome, err
}

func (e *Engine) safetyBreach(p exchange.Position) string {
	if e.cfg.MaxNotional > 0 && math.Abs(p.Notional) > e.cfg.MaxNotional {
		return fmt.Sprintf("notional %.2f exceeds limit %.2f", math.Abs(p.Notional), e.cfg.MaxNotional)
	}
	if e.cfg.MaxUnrealizedLoss > 0 && p.UnrealizedPnL < -e.cfg.MaxUnrealizedLoss {
		return fmt.Sprintf("unrealized loss %.2f exceeds limit %.2f", -p.UnrealizedPnL, e.cfg.MaxUnrealizedLoss)
	}
	return ""
}

// forceFlatten market-closes the position and pauses the loop. Open
// orders were already cancelled at the top of the cycle.
func (e *Engine) forceFlatten(ctx context.Context, actual exchange.Position, reason string) (string, error) {
	metrics.SafetyTrips.Inc()
	e.publish(events.EventSafetyBreach, reason)
	e.cooldownUntil = e.now().Add(e.cfg.SafetyCooldown)
	e.updateStatus(func(st *Status) { st.CooldownUntil = e.cooldownUntil })

	e.log.Error().
		Str("reason", reason).
		Float64("qty", actual.Qty).
		Time("cooldown_until", e.cooldownUntil).
		Msg("safety limit breached, force flattening")
	e.notifier.Notify(ctx, "SAFETY FLATTEN",
		fmt.Sprintf("%s: %s\nclosing %.4f, paused until %s",
			e.cfg.Symbol, reason, actual.Qty, e.cooldownUntil.Format(time.RFC3339)))

	if actual.Qty != 0 {
		side := exchange.SideSell
		if actual.Qty < 0 {
			side = exchange.SideBuy
		}
		_, err := e.gateway.PlaceOrder(ctx, exchange.OrderRequest{
			Symbol:     e.cfg.Symbol,
			Side:       side,
			Type:       exchange.TypeMarket,
			Qty:        math.Abs(actual.Qty),
			ReduceOnly: true,
			ClientID:   "safety-" + uuid.NewString(),
		})
		if err != nil {
			e.report(ctx, 0, actual.Qty, -actual.Qty, OutcomeSafety)
			return e.finish(OutcomeSafety, fmt.Errorf("safety close: %w", err))
		}
	}
	e.report(ctx, 0, actual.Qty, -actual.Qty, OutcomeSafety)
	return e.finish(OutcomeSafety, nil)
}

// placeDiff submits one post-only order for the signed difference. On a
// post-only reject the book moved through our price; retry with a fresh
// quote up to MaxRetries, then leave the rest for the next cycle.
func (e *Engine) placeDiff(ctx context.Context, diff float64) (string, error) {
	side := exchange.SideBuy
	if diff < 0 {
		side = exchange.SideSell
	}
	qty := math.Abs(diff)

	for attempt := 1; ; attempt++ {
		book, err := e.gateway.BookTicker(ctx, e.cfg.Symbol)
		if err != nil {
			return OutcomeError, fmt.Errorf("read book: %w", err)
		}
		price := book.BidPrice + e.cfg.SlippageOffset
		if side == exchange.SideSell {
			price = book.AskPrice - e.cfg.SlippageOffset
		}

		res, err := e.gateway.PlaceOrder(ctx, exchange.OrderRequest{
			Symbol:      e.cfg.Symbol,
			Side:        side,
			Type:        exchange.TypeLimit,
			Qty:         qty,
			Price:       price,
			TimeInForce: exchange.TifPostOnly,
			ClientID:    "recon-" + uuid.NewString(),
		})
		if err == nil {
			metrics.OrdersPlaced.WithLabelValues(e.cfg.Symbol, string(side), string(exchange.TypeLimit)).Inc()
			e.publish(events.EventOrderPlaced, res)
			e.log.Info().
				Str("side", string(side)).
				Float64("qty", qty).
				Float64("price", price).
				Str("order_id", res.OrderID).
				Msg("reconcile order placed")
			return OutcomeAdjusted, nil
		}
		if !errors.Is(err, exchange.ErrPostOnlyReject) {
			metrics.OrderRejects.WithLabelValues(e.cfg.Symbol, "error").Inc()
			e.publish(events.EventOrderRejected, err)
			return OutcomeError, fmt.Errorf("place order: %w", err)
		}
		metrics.OrderRejects.WithLabelValues(e.cfg.Symbol, "post_only").Inc()
		e.publish(events.EventOrderRejected, err)
		if attempt >= e.cfg.MaxRetries {
			e.log.Warn().Int("attempts", attempt).Msg("post-only retries exhausted")
			return OutcomeExhausted, nil
		}
		select {
		case <-ctx.Done():
			return OutcomeError, ctx.Err()
		case <-time.After(e.cfg.RetryBackoff):
		}
	}
}

func (e *Engine) report(ctx context.Context, target, actual, diff float64, action string) {
	if e.journal == nil {
		return
	}
	err := e.journal.CreateReconReport(ctx, db.ReconReport{
		Symbol:    e.cfg.Symbol,
		Target:    target,
		Actual:    actual,
		Diff:      diff,
		Action:    action,
		CreatedAt: e.now(),
	})
	if err != nil {
		e.log.Warn().Err(err).Msg("recon report write failed")
	}
}
