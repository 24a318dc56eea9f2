// Package room holds per-room membership and message history.
package room

import (
	"sort"
	"strings"

	"roomcast/internal/history"
	"roomcast/pkg/types"
)

// Room is one named collection of connections sharing a roster and history.
type Room struct {
	name    string
	members map[types.ConnID]string // conn -> display name
	history *history.Buffer
}

// Store maps room keys to rooms. Rooms are created on first insert, so an
// empty room is never visible between coordinator steps. Not safe for
// concurrent use.
type Store struct {
	rooms           map[string]*Room
	historyCapacity int
}

// NewStore creates a store whose rooms keep historyCapacity messages.
func NewStore(historyCapacity int) *Store {
	if historyCapacity <= 0 {
		historyCapacity = history.DefaultCapacity
	}
	return &Store{
		rooms:           make(map[string]*Room),
		historyCapacity: historyCapacity,
	}
}

// Exists reports whether room currently has a record.
func (s *Store) Exists(room string) bool {
	_, ok := s.rooms[room]
	return ok
}

// Insert records conn under name in room, creating the room if needed.
// An existing entry for conn is overwritten.
func (s *Store) Insert(room string, conn types.ConnID, name string) {
	r, ok := s.rooms[room]
	if !ok {
		r = &Room{
			name:    room,
			members: make(map[types.ConnID]string),
			history: history.NewBuffer(s.historyCapacity),
		}
		s.rooms[room] = r
	}
	r.members[conn] = name
}

// Remove drops conn from room and returns the name it held. The room itself
// is left in place; callers delete it once they have finished announcing the
// departure.
func (s *Store) Remove(room string, conn types.ConnID) (string, bool) {
	r, ok := s.rooms[room]
	if !ok {
		return "", false
	}
	name, ok := r.members[conn]
	if !ok {
		return "", false
	}
	delete(r.members, conn)
	return name, true
}

// Rename replaces the display name of an existing member.
func (s *Store) Rename(room string, conn types.ConnID, name string) bool {
	r, ok := s.rooms[room]
	if !ok {
		return false
	}
	if _, ok := r.members[conn]; !ok {
		return false
	}
	r.members[conn] = name
	return true
}

// NameOf returns the display name conn holds in room.
func (s *Store) NameOf(room string, conn types.ConnID) (string, bool) {
	r, ok := s.rooms[room]
	if !ok {
		return "", false
	}
	name, ok := r.members[conn]
	return name, ok
}

// NameTaken reports whether a member of room other than except holds a name
// whose folded form equals folded.
func (s *Store) NameTaken(room, folded string, except types.ConnID) bool {
	r, ok := s.rooms[room]
	if !ok {
		return false
	}
	for conn, name := range r.members {
		if conn == except {
			continue
		}
		if types.FoldName(name) == folded {
			return true
		}
	}
	return false
}

// Members returns the display names in room sorted case-insensitively.
// Empty, not nil, when the room does not exist.
func (s *Store) Members(room string) []string {
	r, ok := s.rooms[room]
	if !ok {
		return []string{}
	}
	names := make([]string, 0, len(r.members))
	for _, name := range r.members {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		li, lj := strings.ToLower(names[i]), strings.ToLower(names[j])
		if li == lj {
			return names[i] < names[j]
		}
		return li < lj
	})
	return names
}

// ConnectionsOf returns the connections currently in room.
func (s *Store) ConnectionsOf(room string) []types.ConnID {
	r, ok := s.rooms[room]
	if !ok {
		return nil
	}
	conns := make([]types.ConnID, 0, len(r.members))
	for conn := range r.members {
		conns = append(conns, conn)
	}
	return conns
}

// MemberCount returns the number of members in room.
func (s *Store) MemberCount(room string) int {
	r, ok := s.rooms[room]
	if !ok {
		return 0
	}
	return len(r.members)
}

// IsEmpty reports whether room has no members. An absent room is empty.
func (s *Store) IsEmpty(room string) bool {
	return s.MemberCount(room) == 0
}

// Delete removes room together with its history.
func (s *Store) Delete(room string) {
	delete(s.rooms, room)
}

// History returns a copy of room's messages, oldest first. Empty, not nil,
// when the room does not exist.
func (s *Store) History(room string) []types.Message {
	r, ok := s.rooms[room]
	if !ok {
		return []types.Message{}
	}
	return r.history.Snapshot()
}

// HistoryLen returns the number of messages stored for room.
func (s *Store) HistoryLen(room string) int {
	r, ok := s.rooms[room]
	if !ok {
		return 0
	}
	return r.history.Len()
}

// AppendHistory adds m to room's history. It reports false when the room
// does not exist.
func (s *Store) AppendHistory(room string, m types.Message) bool {
	r, ok := s.rooms[room]
	if !ok {
		return false
	}
	r.history.Append(m)
	return true
}

// Rooms returns all room keys in sorted order.
func (s *Store) Rooms() []string {
	keys := make([]string, 0, len(s.rooms))
	for key := range s.rooms {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// HistoryCapacity returns the per-room history bound.
func (s *Store) HistoryCapacity() int { return s.historyCapacity }

// Len returns the number of rooms.
func (s *Store) Len() int { return len(s.rooms) }

// Each calls fn for every (room, conn) membership pair.
func (s *Store) Each(fn func(room string, conn types.ConnID, name string)) {
	for key, r := range s.rooms {
		for conn, name := range r.members {
			fn(key, conn, name)
		}
	}
}
