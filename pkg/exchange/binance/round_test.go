package binance

import "testing"

func TestRoundPrice(t *testing.T) {
	cases := []struct {
		symbol string
		in     float64
		want   string
	}{
		{"BTCUSDT", 50000.04, "50000"},
		{"BTCUSDT", 50000.06, "50000.1"},
		{"ETHUSDT", 3000.004, "3000"},
		{"SOLUSDT", 150.0004, "150"},
	}
	for _, tc := range cases {
		got, err := RoundPrice(tc.symbol, tc.in)
		if err != nil {
			t.Fatalf("%s %v: %v", tc.symbol, tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%s %v = %s, want %s", tc.symbol, tc.in, got, tc.want)
		}
	}
}

func TestRoundQtyFloors(t *testing.T) {
	got, err := RoundQty("BTCUSDT", 0.0019)
	if err != nil {
		t.Fatalf("round: %v", err)
	}
	// Flooring, not rounding: never send more size than intended.
	if got != "0.001" {
		t.Fatalf("qty = %s, want 0.001", got)
	}
}

func TestRoundQtyBelowMinimum(t *testing.T) {
	if _, err := RoundQty("BTCUSDT", 0.0004); err == nil {
		t.Fatal("sub-minimum qty must error")
	}
}

func TestRoundUnknownSymbol(t *testing.T) {
	if _, err := RoundPrice("DOGEUSDT", 1); err == nil {
		t.Fatal("unknown symbol must error")
	}
	RegisterInstrument("DOGEUSDT", "0.00001", "1", "1")
	if _, err := RoundPrice("DOGEUSDT", 1); err != nil {
		t.Fatalf("registered symbol must round: %v", err)
	}
}
