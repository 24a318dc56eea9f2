// Package presence implements the room/session state machine: joins, leaves,
// renames, messages and typing signals, and the audience of every
// notification they produce.
package presence

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"roomcast/internal/broadcast"
	"roomcast/internal/directory"
	"roomcast/internal/metrics"
	"roomcast/internal/room"
	"roomcast/pkg/types"
)

// Options tunes a Coordinator.
type Options struct {
	Limits types.Limits

	// Strict re-checks every invariant after each step and panics on the
	// first violation. Meant for tests.
	Strict bool

	// Now and NewID default to time.Now and random UUIDs.
	Now   func() time.Time
	NewID func() string
}

// Coordinator owns the room store and connection directory for one server
// instance. Every exported operation runs as one atomic step under a single
// lock: validation, mutation, history append and hand-off to the
// broadcaster all complete before the next step starts.
type Coordinator struct {
	mu     sync.Mutex
	rooms  *room.Store
	dir    *directory.Directory
	out    *broadcast.Broadcaster
	limits types.Limits
	strict bool
	now    func() time.Time
	newID  func() string
	logger zerolog.Logger
}

// New wires a coordinator around the given store, directory and broadcaster.
// The broadcaster must resolve room audiences against the same store.
func New(rooms *room.Store, dir *directory.Directory, out *broadcast.Broadcaster, opts Options, logger zerolog.Logger) *Coordinator {
	c := &Coordinator{
		rooms:  rooms,
		dir:    dir,
		out:    out,
		limits: opts.Limits,
		strict: opts.Strict,
		now:    opts.Now,
		newID:  opts.NewID,
		logger: logger.With().Str("component", "presence").Logger(),
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	return c
}

// Handle dispatches one inbound event from conn.
func (c *Coordinator) Handle(conn types.ConnID, ev types.Inbound) {
	switch ev := ev.(type) {
	case types.JoinRoom:
		c.Join(conn, ev.Username, ev.Room)
	case types.SendMessage:
		c.Send(conn, ev.Msg)
	case types.Typing:
		c.Typing(conn, ev.IsTyping)
	case types.ChangeName:
		c.Rename(conn, ev.Username)
	case types.Disconnect:
		c.Disconnect(conn)
	default:
		c.logger.Error().Str("conn", string(conn)).Msgf("unhandled inbound event %T", ev)
	}
}

// Connect is a no-op for presence state; a connection has no room until it
// joins one.
func (c *Coordinator) Connect(conn types.ConnID) {
	c.logger.Debug().Str("conn", string(conn)).Msg("connected")
}

// Join moves conn into roomName under username, leaving its previous room
// first if it had one.
func (c *Coordinator) Join(conn types.ConnID, username, roomName string) {
	c.step(func() { c.join(conn, username, roomName) })
}

// Disconnect removes conn from its room, if any, and forgets it.
func (c *Coordinator) Disconnect(conn types.ConnID) {
	c.step(func() {
		if current, ok := c.dir.CurrentRoom(conn); ok {
			c.leave(conn, current)
		}
		c.dir.Clear(conn)
		c.logger.Debug().Str("conn", string(conn)).Msg("disconnected")
	})
}

// Send posts text from conn to its current room.
func (c *Coordinator) Send(conn types.ConnID, text string) {
	c.step(func() { c.send(conn, text) })
}

// Typing relays conn's typing indicator to the rest of its room.
func (c *Coordinator) Typing(conn types.ConnID, isTyping bool) {
	c.step(func() {
		current, name, ok := c.resolve(conn)
		if !ok {
			return
		}
		c.out.Deliver(types.NewUserTyping(name, current, isTyping), broadcast.RoomExcept(current, conn))
	})
}

// Rename changes conn's display name inside its current room.
func (c *Coordinator) Rename(conn types.ConnID, username string) {
	c.step(func() { c.rename(conn, username) })
}

func (c *Coordinator) step(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fn()

	metrics.RoomsActive.Set(float64(c.rooms.Len()))
	if c.strict {
		if err := c.checkInvariants(); err != nil {
			panic(err)
		}
	}
}

func (c *Coordinator) join(conn types.ConnID, rawName, rawRoom string) {
	name := types.NormalizeName(rawName)
	key := types.NormalizeRoom(rawRoom)

	if err := c.limits.ValidateJoin(name, key); err != nil {
		c.reject(conn, err)
		return
	}
	if c.rooms.NameTaken(key, types.FoldName(name), conn) {
		c.reject(conn, types.ErrUsernameTaken)
		return
	}

	prev, inRoom := c.dir.CurrentRoom(conn)
	if inRoom && prev == key {
		// Re-join: confirm to the caller only.
		current, _ := c.rooms.NameOf(key, conn)
		c.out.Deliver(types.NewRoomJoined(current, key, c.rooms.History(key)), broadcast.Single(conn))
		c.out.Deliver(types.NewUserList(key, c.rooms.Members(key)), broadcast.Single(conn))
		return
	}
	if inRoom {
		c.leave(conn, prev)
	}

	c.rooms.Insert(key, conn, name)
	c.dir.SetRoom(conn, key)

	c.out.Deliver(types.NewRoomJoined(name, key, c.rooms.History(key)), broadcast.Single(conn))
	c.out.Deliver(types.NewUserList(key, c.rooms.Members(key)), broadcast.Room(key))

	status := c.record(key, types.SystemAuthor, fmt.Sprintf("%s has joined", name), types.MessageKindStatus)
	c.out.Deliver(types.NewReceiveMessage(status), broadcast.RoomExcept(key, conn))

	c.logger.Info().Str("conn", string(conn)).Str("room", key).Str("username", name).Msg("joined room")
}

func (c *Coordinator) leave(conn types.ConnID, key string) {
	name, ok := c.rooms.Remove(key, conn)
	c.dir.ClearIf(conn, key)
	if !ok {
		return
	}

	c.out.Deliver(types.NewUserList(key, c.rooms.Members(key)), broadcast.Room(key))

	status := c.record(key, types.SystemAuthor, fmt.Sprintf("%s has left", name), types.MessageKindStatus)
	c.out.Deliver(types.NewReceiveMessage(status), broadcast.Room(key))

	c.logger.Info().Str("conn", string(conn)).Str("room", key).Str("username", name).Msg("left room")

	if c.rooms.IsEmpty(key) {
		c.rooms.Delete(key)
		c.logger.Debug().Str("room", key).Msg("room closed")
	}
}

func (c *Coordinator) send(conn types.ConnID, raw string) {
	current, name, ok := c.resolve(conn)
	if !ok {
		c.out.Deliver(types.NewError(types.ErrNotInRoom), broadcast.Single(conn))
		return
	}

	text := types.NormalizeText(raw)
	if text == "" {
		return
	}
	if err := c.limits.ValidateMessage(text); err != nil {
		c.out.Deliver(types.NewError(err), broadcast.Single(conn))
		return
	}

	m := c.record(current, name, text, types.MessageKindUser)
	c.out.Deliver(types.NewReceiveMessage(m), broadcast.Room(current))

	c.logger.Debug().Str("conn", string(conn)).Str("room", current).Str("username", name).Msg("message posted")
}

func (c *Coordinator) rename(conn types.ConnID, rawName string) {
	current, old, ok := c.resolve(conn)
	if !ok {
		c.out.Deliver(types.NewError(types.ErrNotInRoom), broadcast.Single(conn))
		return
	}

	name := types.NormalizeName(rawName)
	if err := c.limits.ValidateName(name); err != nil {
		c.reject(conn, err)
		return
	}
	if name == old {
		return
	}
	if c.rooms.NameTaken(current, types.FoldName(name), conn) {
		c.reject(conn, types.ErrUsernameTaken)
		return
	}

	c.rooms.Rename(current, conn, name)
	c.out.Deliver(types.NewUserList(current, c.rooms.Members(current)), broadcast.Room(current))

	status := c.record(current, types.SystemAuthor, fmt.Sprintf("%s is now known as %s", old, name), types.MessageKindStatus)
	c.out.Deliver(types.NewReceiveMessage(status), broadcast.Room(current))

	c.logger.Info().Str("conn", string(conn)).Str("room", current).Str("from", old).Str("to", name).Msg("renamed")
}

// resolve returns conn's room and display name. A directory entry without a
// matching membership is a broken invariant, never a client error.
func (c *Coordinator) resolve(conn types.ConnID) (string, string, bool) {
	current, ok := c.dir.CurrentRoom(conn)
	if !ok {
		return "", "", false
	}
	name, ok := c.rooms.NameOf(current, conn)
	if !ok {
		c.inconsistent(fmt.Errorf("%w: %s recorded in %q but not a member", ErrInconsistentState, conn, current))
		return "", "", false
	}
	return current, name, true
}

func (c *Coordinator) record(key, author, text, kind string) types.Message {
	m := types.Message{
		ID:        c.newID(),
		Text:      text,
		Author:    author,
		Timestamp: c.now().UTC(),
		Kind:      kind,
		Room:      key,
	}
	c.rooms.AppendHistory(key, m)
	metrics.MessagesTotal.WithLabelValues(kind).Inc()
	return m
}

func (c *Coordinator) reject(conn types.ConnID, err error) {
	metrics.JoinsRejected.WithLabelValues(rejectReason(err)).Inc()
	c.logger.Warn().Err(err).Str("conn", string(conn)).Msg("request rejected")
	c.out.Deliver(types.NewError(err), broadcast.Single(conn))
}

func (c *Coordinator) inconsistent(err error) {
	c.logger.Error().Err(err).Msg("presence state inconsistent")
	if c.strict {
		panic(err)
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, types.ErrEmptyUsername):
		return "empty_username"
	case errors.Is(err, types.ErrEmptyRoom):
		return "empty_room"
	case errors.Is(err, types.ErrUsernameTooLong):
		return "username_too_long"
	case errors.Is(err, types.ErrRoomTooLong):
		return "room_too_long"
	case errors.Is(err, types.ErrUsernameTaken):
		return "username_taken"
	default:
		return "other"
	}
}
