package types

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Normalization

func TestNormalizeName_TrimsAndKeepsCase(t *testing.T) {
	assert.Equal(t, "Alice", NormalizeName("  Alice \t"))
	assert.Equal(t, "", NormalizeName("   "))
}

func TestNormalizeName_ComposesUnicode(t *testing.T) {
	// "e" + combining acute accent vs precomposed "é"
	decomposed := "Rene\u0301"
	assert.Equal(t, "Ren\u00e9", NormalizeName(decomposed))
}

func TestNormalizeRoom_FoldsCase(t *testing.T) {
	assert.Equal(t, "lobby", NormalizeRoom(" LoBBy "))
	assert.Equal(t, NormalizeRoom("Den"), NormalizeRoom("DEN"))
}

func TestFoldName_CaseInsensitiveEquality(t *testing.T) {
	assert.Equal(t, FoldName("ALICE"), FoldName("alice"))
	assert.NotEqual(t, FoldName("alice"), FoldName("alicia"))
}

// Validation

func TestLimits_ValidateJoin(t *testing.T) {
	limits := Limits{MaxNameLength: 5, MaxRoomLength: 4}

	tests := []struct {
		name     string
		username string
		room     string
		want     error
	}{
		{"valid", "bob", "den", nil},
		{"empty username", "", "den", ErrEmptyUsername},
		{"empty room", "bob", "", ErrEmptyRoom},
		{"both empty reports username", "", "", ErrEmptyUsername},
		{"username too long", "bobbyy", "den", ErrUsernameTooLong},
		{"room too long", "bob", "lobby", ErrRoomTooLong},
		{"length counts runes", "ééééé", "den", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := limits.ValidateJoin(tt.username, tt.room)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLimits_ZeroDisablesLengthChecks(t *testing.T) {
	var limits Limits
	long := strings.Repeat("x", 10000)
	assert.NoError(t, limits.ValidateJoin(long, long))
	assert.NoError(t, limits.ValidateMessage(long))
}

func TestLimits_ValidateMessage(t *testing.T) {
	limits := Limits{MaxMessageLength: 3}
	assert.NoError(t, limits.ValidateMessage("hey"))
	assert.ErrorIs(t, limits.ValidateMessage("hey!"), ErrMessageTooLong)
}

// Inbound decoding

func TestDecodeInbound_Variants(t *testing.T) {
	tests := []struct {
		frame string
		want  Inbound
	}{
		{`{"event":"join_room","data":{"username":"alice","room":"lobby"}}`, JoinRoom{Username: "alice", Room: "lobby"}},
		{`{"event":"send_message","data":{"msg":"hi"}}`, SendMessage{Msg: "hi"}},
		{`{"event":"typing","data":{"is_typing":true}}`, Typing{IsTyping: true}},
		{`{"event":"change_name","data":{"username":"al"}}`, ChangeName{Username: "al"}},
		{`{"event":"send_message"}`, SendMessage{}},
		{`{"event":"typing","data":null}`, Typing{}},
	}

	for _, tt := range tests {
		t.Run(tt.frame, func(t *testing.T) {
			got, err := DecodeInbound([]byte(tt.frame))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.EventName(), got.EventName())
		})
	}
}

func TestDecodeInbound_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  error
	}{
		{"not json", `hello`, ErrMalformedEvent},
		{"missing event", `{"data":{}}`, ErrMalformedEvent},
		{"unknown event", `{"event":"shout","data":{}}`, ErrUnknownEvent},
		{"disconnect is not a wire event", `{"event":"disconnect"}`, ErrUnknownEvent},
		{"wrong field type", `{"event":"typing","data":{"is_typing":"yes"}}`, ErrMalformedEvent},
		{"data not an object", `{"event":"join_room","data":[1,2]}`, ErrMalformedEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeInbound([]byte(tt.frame))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

// Outbound shapes

func TestOutbound_RoomJoinedNeverNullHistory(t *testing.T) {
	data, err := json.Marshal(NewRoomJoined("alice", "lobby", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"room_joined","data":{"username":"alice","room":"lobby","history":[]}}`, string(data))
}

func TestOutbound_ReceiveMessageFieldNames(t *testing.T) {
	m := Message{ID: "1", Text: "hi", Author: "alice", Kind: MessageKindUser, Room: "lobby"}
	data, err := json.Marshal(NewReceiveMessage(m))
	require.NoError(t, err)

	var decoded struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, EventReceiveMessage, decoded.Event)
	for _, field := range []string{"msg", "username", "timestamp", "type", "room"} {
		assert.Contains(t, decoded.Data, field)
	}
	assert.Equal(t, "user", decoded.Data["type"])
}

func TestOutbound_ErrorCarriesText(t *testing.T) {
	out := NewError(ErrUsernameTaken)
	assert.Equal(t, EventError, out.Event)
	assert.Equal(t, ErrorPayload{Msg: "username is already taken in this room"}, out.Data)
}

func TestMessage_IsStatus(t *testing.T) {
	assert.True(t, Message{Kind: MessageKindStatus}.IsStatus())
	assert.False(t, Message{Kind: MessageKindUser}.IsStatus())
}
