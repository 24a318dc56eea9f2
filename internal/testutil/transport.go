// Package testutil provides fakes shared by package tests.
package testutil

import (
	"errors"
	"sync"

	"roomcast/pkg/types"
)

// ErrRefused is returned by Transport.Send for connections marked with Refuse.
var ErrRefused = errors.New("delivery refused")

// Delivery is one event handed to the fake transport.
type Delivery struct {
	Conn  types.ConnID
	Event types.Outbound
}

// Transport records every Send in order. Safe for concurrent use.
type Transport struct {
	mu         sync.Mutex
	deliveries []Delivery
	refused    map[types.ConnID]bool
}

func NewTransport() *Transport {
	return &Transport{refused: make(map[types.ConnID]bool)}
}

func (t *Transport) Send(conn types.ConnID, event types.Outbound) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.refused[conn] {
		return ErrRefused
	}
	t.deliveries = append(t.deliveries, Delivery{Conn: conn, Event: event})
	return nil
}

// Refuse makes every later Send to conn fail.
func (t *Transport) Refuse(conn types.ConnID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refused[conn] = true
}

// All returns a copy of everything delivered so far.
func (t *Transport) All() []Delivery {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Delivery(nil), t.deliveries...)
}

// For returns the events delivered to conn, in order.
func (t *Transport) For(conn types.ConnID) []types.Outbound {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []types.Outbound
	for _, d := range t.deliveries {
		if d.Conn == conn {
			out = append(out, d.Event)
		}
	}
	return out
}

// Named returns the events named event delivered to conn.
func (t *Transport) Named(conn types.ConnID, event string) []types.Outbound {
	var out []types.Outbound
	for _, ev := range t.For(conn) {
		if ev.Event == event {
			out = append(out, ev)
		}
	}
	return out
}

// Len returns the number of recorded deliveries.
func (t *Transport) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.deliveries)
}

// Reset forgets recorded deliveries.
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deliveries = nil
}
