package exchange

import (
	"context"
	"errors"
)

// Side of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderType distinguishes resting maker orders from immediate market orders.
type OrderType string

const (
	TypeLimit  OrderType = "LIMIT"
	TypeMarket OrderType = "MARKET"
)

// TimeInForce values understood by the venue.
type TimeInForce string

const (
	TifGTC TimeInForce = "GTC"
	TifIOC TimeInForce = "IOC"
	// TifPostOnly is rejected instead of crossing the book.
	TifPostOnly TimeInForce = "GTX"
)

// OrderRequest is a venue-neutral order intent. Orders are transient:
// once acknowledged or cancelled the exchange is the system of record.
type OrderRequest struct {
	Symbol      string
	Side        Side
	Type        OrderType
	Qty         float64
	Price       float64 // ignored for market orders
	TimeInForce TimeInForce
	ReduceOnly  bool
	ClientID    string
}

// OrderResult is the venue acknowledgement, also returned by order
// status queries.
type OrderResult struct {
	OrderID     string
	ClientID    string
	Status      string
	Side        Side
	Price       float64
	ExecutedQty float64
}

// Terminal and resting order statuses reported by the venue.
const (
	StatusNew    = "NEW"
	StatusFilled = "FILLED"
)

// Position is the broker-reported position for one symbol.
type Position struct {
	Symbol        string
	Qty           float64 // signed: >0 long, <0 short
	EntryPrice    float64
	Notional      float64 // signed exposure in quote currency
	UnrealizedPnL float64
}

// BookTicker holds best bid/ask.
type BookTicker struct {
	Symbol   string
	BidPrice float64
	AskPrice float64
	Time     int64
}

// ErrPostOnlyReject marks a post-only order that would have crossed the
// book. Recoverable: the caller retries next cycle with a fresh price.
var ErrPostOnlyReject = errors.New("post-only order would cross the book")

// Gateway is the minimal exchange surface the execution side needs.
// Implementations must keep every call bounded by a short timeout.
type Gateway interface {
	BookTicker(ctx context.Context, symbol string) (BookTicker, error)
	PositionRisk(ctx context.Context, symbol string) (Position, error)
	PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
	CancelAllOpen(ctx context.Context, symbol string) error
}
