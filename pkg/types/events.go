package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the JSON frame exchanged over the transport in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound is one validated client event. Each variant maps to exactly one
// inbound event name.
type Inbound interface {
	EventName() string
}

// JoinRoom asks to enter a room under a display name.
type JoinRoom struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// SendMessage posts text to the sender's current room.
type SendMessage struct {
	Msg string `json:"msg"`
}

// Typing toggles the sender's typing indicator.
type Typing struct {
	IsTyping bool `json:"is_typing"`
}

// ChangeName renames the sender inside its current room.
type ChangeName struct {
	Username string `json:"username"`
}

// Disconnect is synthesized by the transport when a connection is torn down.
// It is never decoded from the wire.
type Disconnect struct{}

func (JoinRoom) EventName() string    { return EventJoinRoom }
func (SendMessage) EventName() string { return EventSendMessage }
func (Typing) EventName() string      { return EventTyping }
func (ChangeName) EventName() string  { return EventChangeName }
func (Disconnect) EventName() string  { return EventDisconnect }

// DecodeInbound parses one frame into its typed variant. Unknown event names
// and payloads that do not match the variant's shape are rejected here so the
// coordinator only ever sees well-formed events.
func DecodeInbound(frame []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	var ev Inbound
	switch env.Event {
	case EventJoinRoom:
		var p JoinRoom
		if err := decodeData(env.Data, &p); err != nil {
			return nil, err
		}
		ev = p
	case EventSendMessage:
		var p SendMessage
		if err := decodeData(env.Data, &p); err != nil {
			return nil, err
		}
		ev = p
	case EventTyping:
		var p Typing
		if err := decodeData(env.Data, &p); err != nil {
			return nil, err
		}
		ev = p
	case EventChangeName:
		var p ChangeName
		if err := decodeData(env.Data, &p); err != nil {
			return nil, err
		}
		ev = p
	case "":
		return nil, fmt.Errorf("%w: missing event name", ErrMalformedEvent)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
	return ev, nil
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return nil
}

// Outbound is an event addressed to one or more connections.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// RoomJoined confirms a join to the joining connection.
type RoomJoined struct {
	Username string    `json:"username"`
	Room     string    `json:"room"`
	History  []Message `json:"history"`
}

// UserList carries a room's roster.
type UserList struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

// UserTyping relays a typing indicator.
type UserTyping struct {
	Username string `json:"username"`
	IsTyping bool   `json:"is_typing"`
	Room     string `json:"room"`
}

// ErrorPayload reports a rejected request to its sender.
type ErrorPayload struct {
	Msg string `json:"msg"`
}

func NewRoomJoined(username, room string, history []Message) Outbound {
	if history == nil {
		history = []Message{}
	}
	return Outbound{Event: EventRoomJoined, Data: RoomJoined{Username: username, Room: room, History: history}}
}

func NewUserList(room string, users []string) Outbound {
	if users == nil {
		users = []string{}
	}
	return Outbound{Event: EventUpdateUserList, Data: UserList{Room: room, Users: users}}
}

func NewReceiveMessage(m Message) Outbound {
	return Outbound{Event: EventReceiveMessage, Data: m}
}

func NewUserTyping(username, room string, isTyping bool) Outbound {
	return Outbound{Event: EventUserTyping, Data: UserTyping{Username: username, IsTyping: isTyping, Room: room}}
}

func NewError(err error) Outbound {
	return Outbound{Event: EventError, Data: ErrorPayload{Msg: err.Error()}}
}

func NewRequestName() Outbound {
	return Outbound{Event: EventRequestName, Data: struct{}{}}
}
