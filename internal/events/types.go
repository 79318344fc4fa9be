package events

// Event identifies a topic on the bus.
type Event string

const (
	EventBarClosed      Event = "bar.closed"
	EventPositionChange Event = "position.change"
	EventTradeRealized  Event = "trade.realized"
	EventTargetWritten  Event = "target.written"
	EventOrderPlaced    Event = "order.placed"
	EventOrderRejected  Event = "order.rejected"
	EventSafetyBreach   Event = "safety.breach"
)
