package grid

import (
	"math"
	"testing"
)

func TestBookSymmetricFillsRealizeTheSpread(t *testing.T) {
	// One buy at 98, one sell at 102, same size: inventory returns to
	// zero and the spread is fully realized.
	b := Book{}
	b.ApplyBuy(98, 0.5)
	b.ApplySell(102, 0.5)

	if b.Position != 0 {
		t.Fatalf("position = %v, want 0", b.Position)
	}
	if b.AvgBuy != 98 || b.AvgSell != 102 {
		t.Fatalf("cost basis = %v/%v, want fill prices", b.AvgBuy, b.AvgSell)
	}
	if b.Inventory() != 0 {
		t.Fatalf("inventory = %v, want 0", b.Inventory())
	}
	want := b.TurnoverSell * (b.AvgSell - b.AvgBuy)
	if got := b.RealizedPnL(); got != want || got != 2 {
		t.Fatalf("realized = %v, want %v", got, want)
	}
}

func TestBookWeightedAverages(t *testing.T) {
	b := Book{}
	b.ApplyBuy(100, 1)
	b.ApplyBuy(98, 3)

	want := (100.0*1 + 98.0*3) / 4
	if math.Abs(b.AvgBuy-want) > 1e-12 {
		t.Fatalf("avg buy = %v, want %v", b.AvgBuy, want)
	}
	if b.TurnoverBuy != 4 || b.Position != 4 {
		t.Fatalf("turnover/position = %v/%v", b.TurnoverBuy, b.Position)
	}
}

func TestBookUnrealizedUsesSideBasis(t *testing.T) {
	long := Book{}
	long.ApplyBuy(100, 2)
	if got := long.UnrealizedPnL(103); got != 6 {
		t.Fatalf("long unrealized = %v, want 6", got)
	}

	short := Book{}
	short.ApplySell(100, 2)
	if got := short.UnrealizedPnL(97); got != 6 {
		t.Fatalf("short unrealized = %v, want 6", got)
	}

	flat := Book{}
	if got := flat.UnrealizedPnL(50); got != 0 {
		t.Fatalf("flat unrealized = %v", got)
	}
}

func TestBookClearLongInventory(t *testing.T) {
	// Net long 1 after buying 2@100 and selling 1@104. Clearing at 101
	// folds the close into the sell basis and matches the turnovers.
	b := Book{}
	b.ApplyBuy(100, 2)
	b.ApplySell(104, 1)

	closed := b.Clear(101)
	if closed != 1 {
		t.Fatalf("cleared = %v, want 1", closed)
	}
	if b.Position != 0 || b.Inventory() != 0 {
		t.Fatalf("clearance left inventory: %+v", b)
	}
	if b.TurnoverSell != b.TurnoverBuy {
		t.Fatalf("turnovers unmatched: %v vs %v", b.TurnoverSell, b.TurnoverBuy)
	}
	// avg_sell = (104*1 + 101*1)/2 = 102.5, realized = 2*(102.5-100).
	if math.Abs(b.AvgSell-102.5) > 1e-12 {
		t.Fatalf("avg sell = %v, want 102.5", b.AvgSell)
	}
	if got := b.RealizedPnL(); math.Abs(got-5) > 1e-12 {
		t.Fatalf("realized = %v, want 5", got)
	}
}

func TestBookClearShortInventory(t *testing.T) {
	b := Book{}
	b.ApplySell(104, 2)
	b.ApplyBuy(100, 1)

	b.Clear(102)
	if b.Position != 0 || b.TurnoverBuy != b.TurnoverSell {
		t.Fatalf("clearance incomplete: %+v", b)
	}
	// avg_buy = (100*1 + 102*1)/2 = 101, realized = 2*(104-101).
	if got := b.RealizedPnL(); math.Abs(got-6) > 1e-12 {
		t.Fatalf("realized = %v, want 6", got)
	}
}

func TestBookClearOnFlatIsNoop(t *testing.T) {
	b := Book{}
	if b.Clear(100) != 0 {
		t.Fatal("flat clear must close nothing")
	}
}

func TestBookCommission(t *testing.T) {
	b := Book{CommRate: 0.001}
	b.ApplyBuy(100, 2)
	b.ApplySell(105, 2)
	want := 0.001*2*100 + 0.001*2*105
	if math.Abs(b.Commission-want) > 1e-12 {
		t.Fatalf("commission = %v, want %v", b.Commission, want)
	}
}

func TestLotSizesSkewAgainstInventory(t *testing.T) {
	cases := []struct {
		name              string
		position          float64
		wantBuy, wantSell float64
	}{
		{"flat", 0, 0.01, 0.01},
		{"long", 0.05, 0.01, 0.03},
		{"short", -0.05, 0.03, 0.01},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buy, sell := LotSizes(tc.position, 0.01, 3)
			if buy != tc.wantBuy || sell != tc.wantSell {
				t.Fatalf("lots = %v/%v, want %v/%v", buy, sell, tc.wantBuy, tc.wantSell)
			}
		})
	}
}
