package signal

import (
	"errors"
	"math"
	"testing"
	"time"

	"perp-exec/internal/market"
)

func TestCheckRejectsBadNumbers(t *testing.T) {
	cases := []struct {
		name string
		sig  Signal
		ok   bool
	}{
		{"valid long", Signal{Direction: Long, Volatility: 2, ReferencePrice: 100}, true},
		{"valid flat zero vol", Signal{Direction: Flat}, true},
		{"nan volatility", Signal{Volatility: math.NaN()}, false},
		{"negative volatility", Signal{Volatility: -1}, false},
		{"inf reference", Signal{ReferencePrice: math.Inf(1)}, false},
		{"nan stop", Signal{StopLevel: math.NaN()}, false},
		{"entry without vol or stop", Signal{Direction: Long}, false},
		{"entry with stop only", Signal{Direction: Long, StopLevel: 95}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Check(tc.sig)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok {
				var dq *DataQualityError
				if !errors.As(err, &dq) {
					t.Fatalf("expected DataQualityError, got %v", err)
				}
			}
		})
	}
}

func demoBars(n int, trend float64) []market.Bar {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, n)
	price := 100.0
	for i := range bars {
		price += trend
		bars[i] = market.Bar{
			Open: price - trend, High: price + 1, Low: price - 1, Close: price,
			Volume:    1,
			OpenTime:  start.Add(time.Duration(i) * time.Minute),
			CloseTime: start.Add(time.Duration(i+1) * time.Minute),
		}
	}
	return bars
}

func TestDemoProviderDirection(t *testing.T) {
	p := &DemoProvider{Span: 10}

	up, err := p.Evaluate(demoBars(30, 1))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if up.Direction != Long {
		t.Fatalf("uptrend direction = %v, want Long", up.Direction)
	}
	if up.Volatility <= 0 {
		t.Fatalf("volatility = %v, want > 0", up.Volatility)
	}
	if err := Check(up); err != nil {
		t.Fatalf("demo signal must pass validation: %v", err)
	}

	down, err := p.Evaluate(demoBars(30, -1))
	if err != nil || down.Direction != Short {
		t.Fatalf("downtrend direction = %v err=%v, want Short", down.Direction, err)
	}
}

func TestDemoProviderShortWindow(t *testing.T) {
	p := &DemoProvider{Span: 10}
	if _, err := p.Evaluate(demoBars(5, 1)); err == nil {
		t.Fatal("short window must error")
	}
}
