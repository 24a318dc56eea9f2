package app

import (
	"context"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomcast/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	cfg := config.DefaultConfig()
	cfg.HTTP.Host = "127.0.0.1"
	cfg.HTTP.Port = port
	return cfg
}

func TestApplication_RejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.HTTP.Port = -1

	application, err := NewApplication(cfg, zerolog.Nop())
	assert.Error(t, err)
	assert.Nil(t, application)
}

func TestApplication_NilConfigUsesDefaults(t *testing.T) {
	application, err := NewApplication(nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", application.Addr())
}

func TestApplication_StartServesAndStopReleasesMembers(t *testing.T) {
	application, err := NewApplication(testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, application.Start(context.Background()))

	resp, err := http.Get("http://" + application.Addr() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ws, _, err := websocket.DefaultDialer.Dial("ws://"+application.Addr()+"/ws", nil)
	require.NoError(t, err)
	defer ws.Close()
	require.NoError(t, ws.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"join_room","data":{"username":"ann","room":"lobby"}}`)))

	require.Eventually(t, func() bool {
		_, members := application.Coordinator().Stats()
		return members == 1
	}, 3*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, application.Stop(ctx))

	rooms, members := application.Coordinator().Stats()
	assert.Zero(t, rooms)
	assert.Zero(t, members)
}

func TestApplication_StartFailsOnBusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := config.DefaultConfig()
	cfg.HTTP.Host = "127.0.0.1"
	cfg.HTTP.Port = ln.Addr().(*net.TCPAddr).Port

	application, err := NewApplication(cfg, zerolog.Nop())
	require.NoError(t, err)
	err = application.Start(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to listen"))
}
