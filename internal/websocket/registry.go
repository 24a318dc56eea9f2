package websocket

import (
	"sync"

	"github.com/rs/zerolog"

	"roomcast/internal/metrics"
	"roomcast/pkg/interfaces"
	"roomcast/pkg/types"
)

// Registry maps connection ids to live connections and implements
// interfaces.Transport on top of them.
type Registry struct {
	mu     sync.RWMutex
	conns  map[types.ConnID]interfaces.Connection
	logger zerolog.Logger
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		conns:  make(map[types.ConnID]interfaces.Connection),
		logger: logger.With().Str("component", "registry").Logger(),
	}
}

// Register adds conn. Ids are unique for the life of the process, so a
// second registration under the same id is an error.
func (r *Registry) Register(conn interfaces.Connection) error {
	if conn == nil {
		return ErrNilConnection
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[conn.ID()]; exists {
		return ErrDuplicateConnection
	}
	r.conns[conn.ID()] = conn
	metrics.ConnectionsActive.Inc()
	return nil
}

// Unregister removes conn if it is the instance registered under its id.
// Idempotent.
func (r *Registry) Unregister(conn interfaces.Connection) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	registered, exists := r.conns[conn.ID()]
	if !exists || registered != conn {
		return
	}
	delete(r.conns, conn.ID())
	metrics.ConnectionsActive.Dec()
}

func (r *Registry) Get(id types.ConnID) (interfaces.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[id]
	return conn, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Send queues event on the connection registered under id.
func (r *Registry) Send(id types.ConnID, event types.Outbound) error {
	conn, ok := r.Get(id)
	if !ok {
		return interfaces.ErrUnknownConnection
	}
	return conn.WriteJSON(event)
}

// CloseAll closes every registered connection. Their read loops then
// unregister them and report the disconnects.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	conns := make([]interfaces.Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	r.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.Close(); err != nil {
			r.logger.Debug().Err(err).Str("conn", string(conn.ID())).Msg("close failed")
		}
	}
}
