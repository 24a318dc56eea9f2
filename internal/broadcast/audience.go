package broadcast

import (
	"fmt"

	"roomcast/pkg/types"
)

// Kind selects how an Audience is resolved.
type Kind int

const (
	KindSingle Kind = iota
	KindRoom
	KindRoomExcept
)

// Audience names the recipients of an outbound event without listing them.
// It is resolved against the live roster at delivery time.
type Audience struct {
	kind Kind
	room string
	conn types.ConnID
}

// Single addresses one connection.
func Single(conn types.ConnID) Audience {
	return Audience{kind: KindSingle, conn: conn}
}

// Room addresses every current member of room.
func Room(room string) Audience {
	return Audience{kind: KindRoom, room: room}
}

// RoomExcept addresses every current member of room other than conn.
func RoomExcept(room string, conn types.ConnID) Audience {
	return Audience{kind: KindRoomExcept, room: room, conn: conn}
}

func (a Audience) Kind() Kind         { return a.kind }
func (a Audience) RoomName() string   { return a.room }
func (a Audience) Conn() types.ConnID { return a.conn }

func (a Audience) String() string {
	switch a.kind {
	case KindSingle:
		return fmt.Sprintf("single(%s)", a.conn)
	case KindRoom:
		return fmt.Sprintf("room(%s)", a.room)
	case KindRoomExcept:
		return fmt.Sprintf("room(%s)-%s", a.room, a.conn)
	default:
		return "unknown"
	}
}
