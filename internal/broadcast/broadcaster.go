// Package broadcast resolves audiences into connections and hands events to
// the transport.
package broadcast

import (
	"github.com/rs/zerolog"

	"roomcast/internal/metrics"
	"roomcast/pkg/interfaces"
	"roomcast/pkg/types"
)

// Roster lists the connections currently in a room.
type Roster interface {
	ConnectionsOf(room string) []types.ConnID
}

// Broadcaster turns an audience into connection ids at delivery time.
type Broadcaster struct {
	roster    Roster
	transport interfaces.Transport
	logger    zerolog.Logger
}

// New creates a broadcaster reading membership from roster.
func New(roster Roster, transport interfaces.Transport, logger zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		roster:    roster,
		transport: transport,
		logger:    logger.With().Str("component", "broadcast").Logger(),
	}
}

// Recipients resolves a against the roster as it is right now.
func (b *Broadcaster) Recipients(a Audience) []types.ConnID {
	switch a.kind {
	case KindSingle:
		return []types.ConnID{a.conn}

	case KindRoom:
		return b.roster.ConnectionsOf(a.room)

	case KindRoomExcept:
		members := b.roster.ConnectionsOf(a.room)
		out := make([]types.ConnID, 0, len(members))
		for _, conn := range members {
			if conn != a.conn {
				out = append(out, conn)
			}
		}
		return out

	default:
		return nil
	}
}

// Deliver hands event to the transport for every recipient of a and returns
// how many were queued. A failed hand-off is logged and does not stop
// delivery to the remaining recipients.
func (b *Broadcaster) Deliver(event types.Outbound, a Audience) int {
	queued := 0
	for _, conn := range b.Recipients(a) {
		if err := b.transport.Send(conn, event); err != nil {
			metrics.DeliveriesDropped.Inc()
			b.logger.Warn().
				Err(err).
				Str("event", event.Event).
				Str("conn", string(conn)).
				Str("audience", a.String()).
				Msg("delivery dropped")
			continue
		}
		queued++
	}
	return queued
}
