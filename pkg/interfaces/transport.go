package interfaces

import "roomcast/pkg/types"

// Transport is the delivery capability the broadcaster hands resolved
// events to. Delivery is fire-and-forget: a nil error means the event was
// queued, not that the client received it.
type Transport interface {
	Send(conn types.ConnID, event types.Outbound) error
}

// EventSink accepts inbound events from the transport layer and feeds them
// to the presence coordinator in arrival order.
type EventSink interface {
	Connect(conn types.ConnID) error
	Submit(conn types.ConnID, event types.Inbound) error
	Disconnect(conn types.ConnID) error
}
