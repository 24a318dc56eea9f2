package interfaces

import "roomcast/pkg/types"

// Connection is one live client session as seen by the transport registry.
type Connection interface {
	// ID returns the server-assigned identifier, stable for the connection's lifetime.
	ID() types.ConnID

	// WriteJSON queues v for delivery. Implementations must be safe for
	// concurrent use and must not block on a slow peer.
	WriteJSON(v any) error

	// Close tears the connection down. Safe to call more than once.
	Close() error
}
