package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConfig_DefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 50, cfg.Chat.MaxHistory)
	assert.Equal(t, 32, cfg.Chat.MaxNameLength)
	assert.Equal(t, 64, cfg.Chat.MaxRoomLength)
	assert.Equal(t, 2000, cfg.Chat.MaxMessageLength)
	assert.Equal(t, 1000, cfg.Chat.EventBuffer)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestConfig_Limits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chat.MaxNameLength = 5

	limits := cfg.Limits()
	assert.Equal(t, 5, limits.MaxNameLength)
	assert.Equal(t, 64, limits.MaxRoomLength)
	assert.Equal(t, 2000, limits.MaxMessageLength)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.HTTP.Port = 0 }},
		{"port too large", func(c *Config) { c.HTTP.Port = 70000 }},
		{"empty host", func(c *Config) { c.HTTP.Host = "" }},
		{"read timeout", func(c *Config) { c.HTTP.ReadTimeout = 0 }},
		{"write timeout", func(c *Config) { c.HTTP.WriteTimeout = -time.Second }},
		{"shutdown timeout", func(c *Config) { c.HTTP.ShutdownTimeout = 0 }},
		{"ping interval", func(c *Config) { c.WebSocket.PingInterval = 0 }},
		{"read timeout below ping", func(c *Config) { c.WebSocket.ReadTimeout = c.WebSocket.PingInterval }},
		{"ws write timeout", func(c *Config) { c.WebSocket.WriteTimeout = 0 }},
		{"buffer size", func(c *Config) { c.WebSocket.BufferSize = 0 }},
		{"frame size", func(c *Config) { c.WebSocket.MaxFrameSize = 0 }},
		{"history", func(c *Config) { c.Chat.MaxHistory = 0 }},
		{"negative limit", func(c *Config) { c.Chat.MaxNameLength = -1 }},
		{"event buffer", func(c *Config) { c.Chat.EventBuffer = 0 }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("zero limits disable checks", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Chat.MaxNameLength = 0
		cfg.Chat.MaxMessageLength = 0
		assert.NoError(t, cfg.Validate())
	})
}

func TestConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("ROOMCAST_HTTP_PORT", "9090")
	t.Setenv("ROOMCAST_HTTP_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("ROOMCAST_WEBSOCKET_PING_INTERVAL", "15s")
	t.Setenv("ROOMCAST_CHAT_MAX_HISTORY", "10")
	t.Setenv("ROOMCAST_LOG_FORMAT", "json")

	base := DefaultConfig()
	cfg, err := LoadFromEnv(base, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 15*time.Second, cfg.WebSocket.PingInterval)
	assert.Equal(t, 10, cfg.Chat.MaxHistory)
	assert.Equal(t, "json", cfg.Log.Format)

	// Unset variables keep the base values and the base is not modified.
	assert.Equal(t, 32, cfg.Chat.MaxNameLength)
	assert.Equal(t, 8080, base.HTTP.Port)
	assert.Equal(t, []string{"*"}, base.HTTP.AllowedOrigins)
}

func TestConfig_LoadFromEnvInvalidValue(t *testing.T) {
	t.Setenv("ROOMCAST_HTTP_PORT", "not-a-number")

	_, err := LoadFromEnv(DefaultConfig(), filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestConfig_LoadFromEnvDotenv(t *testing.T) {
	const key = "ROOMCAST_CHAT_MAX_ROOM_LENGTH"
	t.Cleanup(func() { _ = os.Unsetenv(key) })
	t.Setenv("ROOMCAST_CHAT_EVENT_BUFFER", "77")

	path := writeFile(t, "test.env", key+"=12\nROOMCAST_CHAT_EVENT_BUFFER=5\n")
	cfg, err := LoadFromEnv(DefaultConfig(), path)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Chat.MaxRoomLength)
	// The process environment wins over the dotenv file.
	assert.Equal(t, 77, cfg.Chat.EventBuffer)
}

func TestConfig_LoadFromFile(t *testing.T) {
	path := writeFile(t, "roomcast.json", `{
		"http": {"port": 9000, "read_timeout": "45s"},
		"websocket": {"ping_interval": "20s", "buffer_size": 32},
		"chat": {"max_history": 5, "max_name_length": 0},
		"log": {"level": "debug"}
	}`)

	cfg, err := LoadFromFile(path, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, 45*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, 20*time.Second, cfg.WebSocket.PingInterval)
	assert.Equal(t, 32, cfg.WebSocket.BufferSize)
	assert.Equal(t, 5, cfg.Chat.MaxHistory)
	assert.Equal(t, 0, cfg.Chat.MaxNameLength)
	assert.Equal(t, 64, cfg.Chat.MaxRoomLength)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestConfig_LoadFromFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.json"), DefaultConfig())
		assert.Error(t, err)
	})
	t.Run("invalid json", func(t *testing.T) {
		_, err := LoadFromFile(writeFile(t, "bad.json", `{"http":`), DefaultConfig())
		assert.Error(t, err)
	})
	t.Run("bad duration", func(t *testing.T) {
		_, err := LoadFromFile(writeFile(t, "dur.json", `{"http":{"read_timeout":"soon"}}`), DefaultConfig())
		assert.ErrorContains(t, err, "http.read_timeout")
	})
	t.Run("fails validation", func(t *testing.T) {
		_, err := LoadFromFile(writeFile(t, "val.json", `{"chat":{"max_history":0}}`), DefaultConfig())
		assert.ErrorContains(t, err, "max history")
	})
}

func TestConfig_LoadPrecedence(t *testing.T) {
	testChdir(t, t.TempDir())
	t.Setenv("ROOMCAST_HTTP_PORT", "9100")
	t.Setenv("ROOMCAST_CHAT_MAX_HISTORY", "20")
	t.Setenv(FileEnvVar, writeFile(t, "roomcast.json", `{"chat":{"max_history":7}}`))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.HTTP.Port)
	assert.Equal(t, 7, cfg.Chat.MaxHistory)
	assert.Equal(t, 2000, cfg.Chat.MaxMessageLength)
}

func TestConfig_LoadRejectsInvalidEnv(t *testing.T) {
	testChdir(t, t.TempDir())
	t.Setenv("ROOMCAST_LOG_LEVEL", "shouting")

	_, err := Load()
	assert.Error(t, err)
}

// testChdir changes the working directory for the duration of the test
// (equivalent to testing.T.Chdir, which requires Go 1.24).
func testChdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
