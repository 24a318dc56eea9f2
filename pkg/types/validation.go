package types

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName trims surrounding whitespace and applies NFC so visually
// identical names compare equal. Casing is preserved for display.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// NormalizeRoom returns the room key: trimmed, NFC and case-folded. The key is
// also the room name shown to clients.
func NormalizeRoom(s string) string {
	return FoldName(NormalizeName(s))
}

// FoldName returns the case-insensitive comparison form of an already
// normalized name. A Caser holds state, so one is built per call.
func FoldName(s string) string {
	return cases.Fold().String(s)
}

// NormalizeText trims a chat message.
func NormalizeText(s string) string {
	return strings.TrimSpace(s)
}

// Limits bounds the size of names and messages. A zero field disables that check.
type Limits struct {
	MaxNameLength    int
	MaxRoomLength    int
	MaxMessageLength int
}

// ValidateName checks a normalized display name.
func (l Limits) ValidateName(name string) error {
	if name == "" {
		return ErrEmptyUsername
	}
	if l.MaxNameLength > 0 && utf8.RuneCountInString(name) > l.MaxNameLength {
		return ErrUsernameTooLong
	}
	return nil
}

// ValidateRoom checks a normalized room key.
func (l Limits) ValidateRoom(room string) error {
	if room == "" {
		return ErrEmptyRoom
	}
	if l.MaxRoomLength > 0 && utf8.RuneCountInString(room) > l.MaxRoomLength {
		return ErrRoomTooLong
	}
	return nil
}

// ValidateJoin checks both halves of a join request, name first.
func (l Limits) ValidateJoin(name, room string) error {
	if err := l.ValidateName(name); err != nil {
		return err
	}
	return l.ValidateRoom(room)
}

// ValidateMessage checks a trimmed, non-empty message text.
func (l Limits) ValidateMessage(text string) error {
	if l.MaxMessageLength > 0 && utf8.RuneCountInString(text) > l.MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}
