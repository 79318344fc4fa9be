package grid

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"perp-exec/internal/events"
	"perp-exec/internal/market"
	"perp-exec/pkg/exchange"
)

type fakeVenue struct {
	nextID    int
	orders    []exchange.OrderRequest
	statuses  map[string]exchange.OrderResult
	cancelled []string
	cancelAll int
	position  exchange.Position
}

func newFakeVenue() *fakeVenue {
	return &fakeVenue{statuses: map[string]exchange.OrderResult{}}
}

func (v *fakeVenue) PositionRisk(context.Context, string) (exchange.Position, error) {
	return v.position, nil
}

func (v *fakeVenue) PlaceOrder(_ context.Context, req exchange.OrderRequest) (exchange.OrderResult, error) {
	v.nextID++
	id := strconv.Itoa(v.nextID)
	v.orders = append(v.orders, req)
	res := exchange.OrderResult{OrderID: id, Status: exchange.StatusNew, Side: req.Side, Price: req.Price}
	v.statuses[id] = res
	return res, nil
}

func (v *fakeVenue) CancelAllOpen(context.Context, string) error {
	v.cancelAll++
	return nil
}

func (v *fakeVenue) OrderStatus(_ context.Context, _ string, orderID string) (exchange.OrderResult, error) {
	return v.statuses[orderID], nil
}

func (v *fakeVenue) CancelOrder(_ context.Context, _ string, orderID string) error {
	v.cancelled = append(v.cancelled, orderID)
	return nil
}

func (v *fakeVenue) fill(orderID string, qty float64) {
	res := v.statuses[orderID]
	res.Status = exchange.StatusFilled
	res.ExecutedQty = qty
	v.statuses[orderID] = res
}

func flatBars(n int, h, l, c float64) []market.Bar {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, n)
	for i := range bars {
		bars[i] = market.Bar{
			Open: c, High: h, Low: l, Close: c, Volume: 1,
			OpenTime:  start.Add(time.Duration(i) * time.Minute),
			CloseTime: start.Add(time.Duration(i+1) * time.Minute),
		}
	}
	return bars
}

func testQuoter(v *fakeVenue) *Quoter {
	return NewQuoter(Config{
		Symbol:            "BTCUSDT",
		Lot:               0.01,
		LotK:              3,
		ClearanceK:        10,
		LookbackBars:      20,
		ATRLength:         5,
		MaxNotional:       8000,
		MaxUnrealizedLoss: 100,
		Cooldown:          4 * time.Hour,
	}, v, nil, nil, zerolog.Nop())
}

func TestQuoterResetPlacesSkewlessLadder(t *testing.T) {
	v := newFakeVenue()
	q := testQuoter(v)

	if err := q.Reset(context.Background(), flatBars(30, 102, 98, 101)); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(v.orders) != 4 {
		t.Fatalf("ladder = %d orders, want 4", len(v.orders))
	}

	var buys, sells int
	for _, o := range v.orders {
		if o.Type != exchange.TypeLimit || o.TimeInForce != exchange.TifGTC {
			t.Fatalf("ladder order must be a GTC limit: %+v", o)
		}
		switch o.Side {
		case exchange.SideBuy:
			buys++
		case exchange.SideSell:
			sells++
		}
	}
	if buys != 2 || sells != 2 {
		t.Fatalf("ladder sides = %d buys / %d sells", buys, sells)
	}
	// Flat book: level-2 orders are double the level-1 lot on both sides.
	if v.orders[0].Qty != 0.01 || v.orders[1].Qty != 0.02 {
		t.Fatalf("buy lots = %v/%v, want 0.01/0.02", v.orders[0].Qty, v.orders[1].Qty)
	}
	if v.orders[2].Qty != 0.01 || v.orders[3].Qty != 0.02 {
		t.Fatalf("sell lots = %v/%v, want 0.01/0.02", v.orders[2].Qty, v.orders[3].Qty)
	}
}

func TestQuoterFillBooksHarvestAndPullsLadder(t *testing.T) {
	v := newFakeVenue()
	q := testQuoter(v)
	ctx := context.Background()

	if err := q.Reset(ctx, flatBars(30, 102, 98, 101)); err != nil {
		t.Fatalf("reset: %v", err)
	}
	buyID := "1" // first ladder order is buy1
	v.fill(buyID, 0.01)
	placedBefore := len(v.orders)

	if err := q.PollFills(ctx); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if q.Book.Position != 0.01 || q.Book.TurnoverBuy != 0.01 {
		t.Fatalf("fill not booked: %+v", q.Book)
	}

	if len(v.orders) != placedBefore+1 {
		t.Fatalf("expected one harvest order, got %d new", len(v.orders)-placedBefore)
	}
	harvest := v.orders[len(v.orders)-1]
	if harvest.Side != exchange.SideSell || harvest.Qty != 0.01 {
		t.Fatalf("unexpected harvest: %+v", harvest)
	}
	wantPrice := v.statuses[buyID].Price + q.gap
	if harvest.Price != wantPrice {
		t.Fatalf("harvest price = %v, want fill+gap = %v", harvest.Price, wantPrice)
	}
	// Remaining three ladder orders are pulled; the harvest stays.
	if len(v.cancelled) != 3 {
		t.Fatalf("cancelled %d orders, want 3", len(v.cancelled))
	}
}

func TestQuoterHarvestFillClosesInventory(t *testing.T) {
	v := newFakeVenue()
	q := testQuoter(v)
	ctx := context.Background()

	if err := q.Reset(ctx, flatBars(30, 102, 98, 101)); err != nil {
		t.Fatalf("reset: %v", err)
	}
	v.fill("1", 0.01) // buy1
	if err := q.PollFills(ctx); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if q.Book.Position != 0.01 {
		t.Fatalf("position after ladder fill = %v, want 0.01", q.Book.Position)
	}

	// The harvest sell is order 5 (after the four ladder orders). Once
	// it fills, the venue is flat and the book must agree.
	v.fill("5", 0.01)
	if err := q.PollFills(ctx); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if q.Book.Position != 0 {
		t.Fatalf("position after harvest fill = %v, want 0", q.Book.Position)
	}
	if q.Book.Inventory() != 0 {
		t.Fatalf("inventory = %v, want 0 after a full round trip", q.Book.Inventory())
	}
	if q.Book.TurnoverSell != 0.01 {
		t.Fatalf("sell turnover = %v, want 0.01", q.Book.TurnoverSell)
	}
	want := 0.01 * (v.statuses["5"].Price - v.statuses["1"].Price)
	if diff := q.Book.RealizedPnL() - want; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("realized = %v, want one gap of profit %v", q.Book.RealizedPnL(), want)
	}

	// A filled harvest order is dropped, not polled forever.
	placedBefore := len(v.orders)
	if err := q.PollFills(ctx); err != nil {
		t.Fatalf("idle poll: %v", err)
	}
	if len(v.orders) != placedBefore {
		t.Fatalf("idle poll placed orders: %d new", len(v.orders)-placedBefore)
	}
}

func TestQuoterSkewsLadderAgainstInventory(t *testing.T) {
	v := newFakeVenue()
	q := testQuoter(v)
	ctx := context.Background()

	if err := q.Reset(ctx, flatBars(30, 102, 98, 101)); err != nil {
		t.Fatalf("reset: %v", err)
	}
	v.fill("1", 0.01)
	if err := q.PollFills(ctx); err != nil {
		t.Fatalf("poll: %v", err)
	}

	// A breach bar rebuilds the ladder; with long inventory the sell
	// side must quote the heavier lot.
	bars := flatBars(30, 102, 98, 101)
	breach := bars[len(bars)-1]
	breach.Low = q.levels.Buy1 - 0.5
	breach.Close = q.levels.Buy1

	before := len(v.orders)
	if err := q.OnBar(ctx, breach, bars); err != nil {
		t.Fatalf("onbar: %v", err)
	}
	ladder := v.orders[before:]
	if len(ladder) != 4 {
		t.Fatalf("rebuilt ladder = %d orders", len(ladder))
	}
	if ladder[0].Qty != 0.01 || ladder[2].Qty != 0.03 {
		t.Fatalf("lots = buy %v / sell %v, want 0.01/0.03", ladder[0].Qty, ladder[2].Qty)
	}
}

func TestQuoterBoundaryRestartsAndCoolsDown(t *testing.T) {
	v := newFakeVenue()
	q := testQuoter(v)
	ctx := context.Background()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return now }

	bus := events.NewBus()
	q.bus = bus
	breaches, unsub := bus.Subscribe(events.EventSafetyBreach, 1)
	defer unsub()

	bars := flatBars(30, 102, 98, 101)
	if err := q.Reset(ctx, bars); err != nil {
		t.Fatalf("reset: %v", err)
	}
	v.position = exchange.Position{Qty: 0.05}

	runaway := bars[len(bars)-1]
	runaway.High, runaway.Close = 120, 119 // far above the envelope

	if err := q.OnBar(ctx, runaway, bars); err != nil {
		t.Fatalf("onbar: %v", err)
	}
	if v.cancelAll != 1 {
		t.Fatal("restart must cancel all open orders")
	}
	last := v.orders[len(v.orders)-1]
	if last.Type != exchange.TypeMarket || last.Side != exchange.SideSell || !last.ReduceOnly {
		t.Fatalf("restart close order: %+v", last)
	}
	select {
	case <-breaches:
	default:
		t.Fatal("restart must publish a safety breach event")
	}

	// Quoter stays idle during cooldown.
	before := len(v.orders)
	if err := q.OnBar(ctx, bars[len(bars)-1], bars); err != nil {
		t.Fatalf("onbar in cooldown: %v", err)
	}
	if len(v.orders) != before || q.Ready() {
		t.Fatal("cooldown quoter must stay idle")
	}

	now = now.Add(5 * time.Hour)
	if !q.Ready() {
		t.Fatal("quoter must wake after cooldown")
	}
}
