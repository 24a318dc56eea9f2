// Package history provides the bounded per-room message log.
package history

import "roomcast/pkg/types"

// DefaultCapacity is the number of messages a room remembers when no
// capacity is configured.
const DefaultCapacity = 50

// Buffer is a fixed-capacity ring of messages ordered oldest first.
// Appending to a full buffer evicts the oldest message. Not safe for
// concurrent use; the owning room store is serialized by the coordinator.
type Buffer struct {
	items []types.Message
	start int // index of the oldest message
	size  int
}

// NewBuffer returns an empty buffer. A non-positive capacity falls back to
// DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{items: make([]types.Message, capacity)}
}

// Append adds m as the newest entry and reports whether an older entry was
// evicted to make room.
func (b *Buffer) Append(m types.Message) (evicted bool) {
	capacity := len(b.items)
	if b.size < capacity {
		b.items[(b.start+b.size)%capacity] = m
		b.size++
		return false
	}
	b.items[b.start] = m
	b.start = (b.start + 1) % capacity
	return true
}

// Snapshot copies the contents oldest first. The result never aliases the
// buffer and is non-nil.
func (b *Buffer) Snapshot() []types.Message {
	out := make([]types.Message, b.size)
	capacity := len(b.items)
	for i := 0; i < b.size; i++ {
		out[i] = b.items[(b.start+i)%capacity]
	}
	return out
}

// Len returns the number of stored messages.
func (b *Buffer) Len() int { return b.size }

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int { return len(b.items) }

// Oldest returns the oldest message, if any.
func (b *Buffer) Oldest() (types.Message, bool) {
	if b.size == 0 {
		return types.Message{}, false
	}
	return b.items[b.start], true
}

// Newest returns the most recently appended message, if any.
func (b *Buffer) Newest() (types.Message, bool) {
	if b.size == 0 {
		return types.Message{}, false
	}
	return b.items[(b.start+b.size-1)%len(b.items)], true
}
