package hub

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"roomcast/internal/metrics"
	"roomcast/pkg/types"
)

// Processor applies one inbound event to presence state.
// presence.Coordinator satisfies it.
type Processor interface {
	Connect(conn types.ConnID)
	Handle(conn types.ConnID, ev types.Inbound)
}

// Hub serializes inbound events from every connection into a single
// goroutine, so the coordinator sees them one at a time in arrival order.
type Hub struct {
	eventChannel      chan *EventContext // buffered intake for client events
	connectChannel    chan types.ConnID
	disconnectChannel chan types.ConnID
	shutdownChannel   chan struct{}
	done              chan struct{}

	processor Processor
	logger    zerolog.Logger

	running bool
	stopped bool
	mu      sync.RWMutex
}

// EventContext pairs an inbound event with the connection that sent it.
type EventContext struct {
	Conn  types.ConnID
	Event types.Inbound
}

// NewHub creates a hub with an event buffer of bufferSize (1000 when not positive).
func NewHub(processor Processor, bufferSize int, logger zerolog.Logger) *Hub {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	return &Hub{
		eventChannel:      make(chan *EventContext, bufferSize),
		connectChannel:    make(chan types.ConnID, 100),
		disconnectChannel: make(chan types.ConnID, 100),
		shutdownChannel:   make(chan struct{}),
		done:              make(chan struct{}),
		processor:         processor,
		logger:            logger.With().Str("component", "hub").Logger(),
	}
}

// Start begins hub processing
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return ErrHubAlreadyRunning
	}
	if h.stopped {
		h.mu.Unlock()
		return ErrHubStopped
	}
	h.running = true
	h.stopped = true
	h.mu.Unlock()

	h.logger.Info().Msg("starting event hub")
	go h.run(ctx)
	return nil
}

// Stop signals the loop to exit and waits for it.
func (h *Hub) Stop() error {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return ErrHubNotRunning
	}
	h.running = false
	select {
	case <-h.shutdownChannel:
	default:
		close(h.shutdownChannel)
	}
	h.mu.Unlock()

	<-h.done
	h.logger.Info().Msg("event hub stopped")
	return nil
}

// Running reports whether the loop is active.
func (h *Hub) Running() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

// Submit queues a client event. It never blocks: a full buffer rejects the
// event with ErrEventChannelFull.
func (h *Hub) Submit(conn types.ConnID, ev types.Inbound) error {
	if !h.Running() {
		return ErrHubNotRunning
	}
	if ev == nil {
		return ErrNilEvent
	}
	if _, ok := ev.(types.Disconnect); ok {
		return h.Disconnect(conn)
	}

	select {
	case h.eventChannel <- &EventContext{Conn: conn, Event: ev}:
		metrics.InboundEvents.WithLabelValues(ev.EventName()).Inc()
		return nil
	default:
		return ErrEventChannelFull
	}
}

// Connect queues a connection-opened notice.
func (h *Hub) Connect(conn types.ConnID) error {
	if !h.Running() {
		return ErrHubNotRunning
	}
	select {
	case h.connectChannel <- conn:
		return nil
	default:
		return ErrConnectChannelFull
	}
}

// Disconnect queues a teardown. Unlike Submit it waits for buffer space.
func (h *Hub) Disconnect(conn types.ConnID) error {
	if !h.Running() {
		return ErrHubNotRunning
	}
	select {
	case h.disconnectChannel <- conn:
		metrics.InboundEvents.WithLabelValues(types.EventDisconnect).Inc()
		return nil
	case <-h.shutdownChannel:
		return ErrHubNotRunning
	}
}

// run is the only goroutine that calls the processor.
func (h *Hub) run(ctx context.Context) {
	defer close(h.done)
	defer h.logger.Debug().Msg("hub processing stopped")

	for {
		select {
		case ec := <-h.eventChannel:
			h.processor.Handle(ec.Conn, ec.Event)

		case conn := <-h.connectChannel:
			h.processor.Connect(conn)

		case conn := <-h.disconnectChannel:
			h.drainEvents()
			h.processor.Handle(conn, types.Disconnect{})

		case <-h.shutdownChannel:
			h.logger.Debug().Msg("hub shutdown requested")
			h.drainPending()
			return

		case <-ctx.Done():
			h.logger.Debug().Msg("hub context cancelled")
			h.mu.Lock()
			h.running = false
			h.mu.Unlock()
			return
		}
	}
}

// drainEvents applies every event already buffered, keeping a connection's
// last messages ahead of its departure.
func (h *Hub) drainEvents() {
	for {
		select {
		case ec := <-h.eventChannel:
			h.processor.Handle(ec.Conn, ec.Event)
		default:
			return
		}
	}
}

// drainPending applies everything still queued at shutdown, events first,
// so departures reported before Stop are not lost.
func (h *Hub) drainPending() {
	h.drainEvents()
	for {
		select {
		case conn := <-h.disconnectChannel:
			h.processor.Handle(conn, types.Disconnect{})
		default:
			return
		}
	}
}
