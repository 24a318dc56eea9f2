package types

import (
	"time"
)

// ConnID identifies one live transport session. Assigned by the transport on
// connect and released on disconnect; the coordinator only stores it.
type ConnID string

// Message kinds as they appear in the "type" field on the wire.
const (
	MessageKindUser   = "user"
	MessageKindStatus = "status"
)

// SystemAuthor is the author recorded on status messages.
const SystemAuthor = "System"

// Inbound event names accepted from clients.
const (
	EventJoinRoom    = "join_room"
	EventSendMessage = "send_message"
	EventTyping      = "typing"
	EventChangeName  = "change_name"
	EventDisconnect  = "disconnect"
)

// Outbound event names emitted to clients.
const (
	EventRoomJoined     = "room_joined"
	EventUpdateUserList = "update_user_list"
	EventReceiveMessage = "receive_message"
	EventUserTyping     = "user_typing"
	EventError          = "error"
	EventRequestName    = "request_name"
)

// Message is one entry of a room's history. Never mutated after creation;
// history snapshots hand out copies.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"msg"`
	Author    string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"type"`
	Room      string    `json:"room"`
}

// IsStatus reports whether the message was generated by a join, leave or
// rename transition.
func (m Message) IsStatus() bool {
	return m.Kind == MessageKindStatus
}

// RoomSummary is a read-only view of one room used by the HTTP API.
type RoomSummary struct {
	Room    string `json:"room"`
	Members int    `json:"members"`
	History int    `json:"history"`
}
