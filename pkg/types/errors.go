package types

import "errors"

// Validation errors. Their text is sent verbatim to clients in error events.
var (
	ErrEmptyUsername   = errors.New("username is required")
	ErrEmptyRoom       = errors.New("room is required")
	ErrUsernameTooLong = errors.New("username is too long")
	ErrRoomTooLong     = errors.New("room name is too long")
	ErrMessageTooLong  = errors.New("message is too long")
	ErrUsernameTaken   = errors.New("username is already taken in this room")
	ErrNotInRoom       = errors.New("join a room first")
)

// Decoding errors raised at the transport boundary.
var (
	ErrUnknownEvent   = errors.New("unknown event")
	ErrMalformedEvent = errors.New("malformed event")
)
