package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"perp-exec/internal/events"
	"perp-exec/internal/handoff"
	"perp-exec/internal/market"
	"perp-exec/internal/metrics"
	"perp-exec/internal/notify"
	"perp-exec/internal/position"
	"perp-exec/internal/signal"
	"perp-exec/pkg/db"
)

// TradeJournal persists realized trade events.
type TradeJournal interface {
	CreateTrade(ctx context.Context, t db.Trade) error
}

// Config for one signal engine instance.
type Config struct {
	Strategy   string
	Symbol     string
	Interval   time.Duration
	WarmupBars int
}

// Engine is the signal side of the stack: it feeds closed bars through
// the position state machine and publishes the resulting target to the
// handoff store. It owns its position state exclusively; the execution
// side only ever sees the published target.
type Engine struct {
	cfg      Config
	watcher  *market.Watcher
	provider signal.Provider
	tcfg     position.Config
	store    handoff.Store
	journal  TradeJournal
	bus      *events.Bus
	notifier notify.Notifier
	log      zerolog.Logger

	pos  position.Position
	acct position.Account

	now func() time.Time
}

func New(cfg Config, w *market.Watcher, p signal.Provider, tcfg position.Config,
	store handoff.Store, journal TradeJournal, bus *events.Bus, n notify.Notifier,
	acct position.Account, log zerolog.Logger) *Engine {
	if n == nil {
		n = notify.Nop{}
	}
	return &Engine{
		cfg:      cfg,
		watcher:  w,
		provider: p,
		tcfg:     tcfg,
		store:    store,
		journal:  journal,
		bus:      bus,
		notifier: n,
		log:      log,
		acct:     acct,
		now:      time.Now,
	}
}

// Warmup seeds the bar series before the first step.
func (e *Engine) Warmup(ctx context.Context) error {
	return e.watcher.Warmup(ctx, e.cfg.WarmupBars)
}

// Run polls for new bars until the context is cancelled. A failed step
// is logged and retried on the next tick; bars are never skipped
// because the watcher only hands out what was not yet consumed. A bar
// published on the bus (by the websocket feed) wakes the loop early.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	wake, unsub := e.bus.Subscribe(events.EventBarClosed, 8)
	defer unsub()

	for {
		if err := e.Step(ctx); err != nil {
			e.log.Error().Err(err).Msg("signal step failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-wake:
		}
	}
}

// Step consumes every newly closed bar in order and publishes the
// target once per step when anything advanced.
func (e *Engine) Step(ctx context.Context) error {
	fresh, err := e.watcher.Poll(ctx)
	if err != nil {
		return err
	}
	if len(fresh) == 0 {
		return nil
	}

	// The provider only ever sees bars up to the one being applied, so a
	// catch-up poll of several bars replays them exactly as live would.
	all := e.watcher.Series.Window(0)
	for i, bar := range fresh {
		end := len(all) - len(fresh) + i + 1
		if end < 1 {
			continue
		}
		metrics.BarsIngested.WithLabelValues(e.cfg.Symbol, e.watcher.Series.Timeframe).Inc()
		e.applyBar(ctx, bar, all[:end])
	}

	t := handoff.Target{
		Strategy:   e.cfg.Strategy,
		Symbol:     e.cfg.Symbol,
		Target:     e.pos.Signed(),
		ComputedAt: e.now(),
	}
	if err := e.store.Publish(ctx, t); err != nil {
		return fmt.Errorf("publish target: %w", err)
	}
	metrics.TargetsPublished.WithLabelValues(e.cfg.Strategy).Inc()
	metrics.RealizedPnL.WithLabelValues(e.cfg.Strategy).Set(e.acct.RealizedPnL)
	e.bus.Publish(events.EventTargetWritten, t)

	e.log.Info().
		Float64("target", t.Target).
		Str("side", e.pos.Side.String()).
		Float64("equity", e.acct.Equity).
		Msg("target published")
	return nil
}

func (e *Engine) applyBar(ctx context.Context, bar market.Bar, window []market.Bar) {
	sig, err := e.provider.Evaluate(window)
	if err != nil {
		// Evaluation failure means no new entries this bar, but stops on
		// an open position still need the bar. A zero signal does that.
		e.log.Warn().Err(err).Time("open_time", bar.OpenTime).Msg("signal evaluation failed")
		sig = signal.Signal{}
	}

	prev := e.pos
	var ev *position.TradeEvent
	e.pos, e.acct, ev = position.Transition(e.tcfg, e.pos, e.acct, bar, sig)
	if ev == nil {
		return
	}

	e.bus.Publish(events.EventPositionChange, e.pos)
	if ev.Realized != 0 {
		e.bus.Publish(events.EventTradeRealized, *ev)
	}
	e.log.Info().
		Str("kind", string(ev.Kind)).
		Str("from", prev.Side.String()).
		Str("to", e.pos.Side.String()).
		Float64("qty", ev.Qty).
		Float64("price", ev.Price).
		Float64("realized", ev.Realized).
		Msg("position transition")
	e.notifier.Notify(ctx, "POSITION "+string(ev.Kind),
		fmt.Sprintf("%s %s -> %s qty %.4f @ %.2f realized %.2f",
			e.cfg.Symbol, prev.Side, e.pos.Side, ev.Qty, ev.Price, ev.Realized))

	if e.journal == nil {
		return
	}
	err = e.journal.CreateTrade(ctx, db.Trade{
		ID:         uuid.NewString(),
		Strategy:   e.cfg.Strategy,
		Symbol:     e.cfg.Symbol,
		Side:       e.pos.Side.String(),
		Qty:        ev.Qty,
		Price:      ev.Price,
		Realized:   ev.Realized,
		Commission: ev.Commission,
		Reason:     string(ev.Kind),
		CreatedAt:  bar.CloseTime,
	})
	if err != nil {
		e.log.Warn().Err(err).Msg("trade journal write failed")
	}
}
