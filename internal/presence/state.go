package presence

import (
	"fmt"

	"roomcast/pkg/types"
)

// Summaries lists every room with its member count and history length.
func (c *Coordinator) Summaries() []types.RoomSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := c.rooms.Rooms()
	out := make([]types.RoomSummary, 0, len(keys))
	for _, key := range keys {
		out = append(out, types.RoomSummary{
			Room:    key,
			Members: c.rooms.MemberCount(key),
			History: c.rooms.HistoryLen(key),
		})
	}
	return out
}

// Roster returns the display names in a room. The name is normalized the
// same way joins normalize it.
func (c *Coordinator) Roster(roomName string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := types.NormalizeRoom(roomName)
	if !c.rooms.Exists(key) {
		return nil, false
	}
	return c.rooms.Members(key), true
}

// History returns a copy of a room's history.
func (c *Coordinator) History(roomName string) []types.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms.History(types.NormalizeRoom(roomName))
}

// CurrentRoom reports the room conn occupies.
func (c *Coordinator) CurrentRoom(conn types.ConnID) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dir.CurrentRoom(conn)
}

// Stats returns the number of rooms and of connections inside a room.
func (c *Coordinator) Stats() (rooms, members int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms.Len(), c.dir.Len()
}

// CheckInvariants verifies that the directory and every room's membership
// agree, that names are unique per room, that no empty room survives and
// that no history exceeds its capacity.
func (c *Coordinator) CheckInvariants() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkInvariants()
}

func (c *Coordinator) checkInvariants() error {
	var err error
	fail := func(format string, args ...any) {
		if err == nil {
			err = fmt.Errorf("%w: "+format, append([]any{ErrInconsistentState}, args...)...)
		}
	}

	c.dir.Each(func(conn types.ConnID, key string) {
		if _, ok := c.rooms.NameOf(key, conn); !ok {
			fail("directory places %s in %q but the room does not list it", conn, key)
		}
	})

	seen := make(map[string]map[string]types.ConnID)
	c.rooms.Each(func(key string, conn types.ConnID, name string) {
		if current, ok := c.dir.CurrentRoom(conn); !ok || current != key {
			fail("%s is a member of %q but the directory says %q", conn, key, current)
		}
		if seen[key] == nil {
			seen[key] = make(map[string]types.ConnID)
		}
		folded := types.FoldName(name)
		if other, dup := seen[key][folded]; dup {
			fail("%s and %s share name %q in %q", other, conn, name, key)
		}
		seen[key][folded] = conn
	})

	for _, key := range c.rooms.Rooms() {
		if c.rooms.IsEmpty(key) {
			fail("room %q has no members", key)
		}
		if n, limit := c.rooms.HistoryLen(key), c.rooms.HistoryCapacity(); n > limit {
			fail("room %q holds %d messages, capacity %d", key, n, limit)
		}
	}
	return err
}
