// Package directory tracks which room each live connection occupies.
package directory

import "roomcast/pkg/types"

// Directory links a connection to at most one room. It is a plain lookup
// table with no validation; the coordinator keeps it in step with the room
// store. Not safe for concurrent use.
type Directory struct {
	rooms map[types.ConnID]string
}

// New returns an empty directory.
func New() *Directory {
	return &Directory{rooms: make(map[types.ConnID]string)}
}

// CurrentRoom returns the room conn occupies.
func (d *Directory) CurrentRoom(conn types.ConnID) (string, bool) {
	room, ok := d.rooms[conn]
	return room, ok
}

// SetRoom records conn as occupying room, replacing any previous entry.
func (d *Directory) SetRoom(conn types.ConnID, room string) {
	d.rooms[conn] = room
}

// Clear forgets conn. Idempotent.
func (d *Directory) Clear(conn types.ConnID) {
	delete(d.rooms, conn)
}

// ClearIf forgets conn only while it still points at room.
func (d *Directory) ClearIf(conn types.ConnID, room string) {
	if current, ok := d.rooms[conn]; ok && current == room {
		delete(d.rooms, conn)
	}
}

// Len returns the number of connections currently in a room.
func (d *Directory) Len() int { return len(d.rooms) }

// Each calls fn for every entry.
func (d *Directory) Each(fn func(conn types.ConnID, room string)) {
	for conn, room := range d.rooms {
		fn(conn, room)
	}
}
