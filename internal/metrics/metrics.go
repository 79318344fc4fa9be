package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters and gauges for the execution stack. Registered on the
// default registry; exposed by the status server under /metrics.
var (
	BarsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "perpexec",
		Name:      "bars_ingested_total",
		Help:      "Closed bars accepted into the series.",
	}, []string{"symbol", "timeframe"})

	TargetsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "perpexec",
		Name:      "targets_published_total",
		Help:      "Target positions written to the handoff store.",
	}, []string{"strategy"})

	ReconcileCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "perpexec",
		Name:      "reconcile_cycles_total",
		Help:      "Reconciliation cycles by outcome.",
	}, []string{"outcome"})

	OrdersPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "perpexec",
		Name:      "orders_placed_total",
		Help:      "Orders submitted to the venue.",
	}, []string{"symbol", "side", "type"})

	OrderRejects = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "perpexec",
		Name:      "order_rejects_total",
		Help:      "Order submissions rejected by the venue.",
	}, []string{"symbol", "reason"})

	SafetyTrips = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "perpexec",
		Name:      "safety_trips_total",
		Help:      "Force-flatten events triggered by risk limits.",
	})

	PositionSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "perpexec",
		Name:      "position_size",
		Help:      "Broker-reported signed position size.",
	}, []string{"symbol"})

	TargetPosition = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "perpexec",
		Name:      "target_position",
		Help:      "Latest published target position.",
	}, []string{"strategy"})

	UnrealizedPnL = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "perpexec",
		Name:      "unrealized_pnl",
		Help:      "Broker-reported unrealized PnL in quote currency.",
	}, []string{"symbol"})

	RealizedPnL = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "perpexec",
		Name:      "realized_pnl",
		Help:      "Cumulative realized PnL tracked by the state machine.",
	}, []string{"strategy"})
)
