package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"roomcast/pkg/types"
)

// EnvPrefix is prepended to every environment variable the server reads.
const EnvPrefix = "ROOMCAST_"

// FileEnvVar names the environment variable holding an optional JSON config path.
const FileEnvVar = EnvPrefix + "CONFIG_FILE"

// Config is the full server configuration.
type Config struct {
	HTTP      HTTPConfig      `json:"http" envPrefix:"HTTP_"`
	WebSocket WebSocketConfig `json:"websocket" envPrefix:"WEBSOCKET_"`
	Chat      ChatConfig      `json:"chat" envPrefix:"CHAT_"`
	Log       LogConfig       `json:"log" envPrefix:"LOG_"`
}

type HTTPConfig struct {
	Host            string        `json:"host" env:"HOST"`
	Port            int           `json:"port" env:"PORT"`
	ReadTimeout     time.Duration `json:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `json:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	AllowedOrigins  []string      `json:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// WebSocketConfig tunes the per-connection transport.
type WebSocketConfig struct {
	PingInterval time.Duration `json:"ping_interval" env:"PING_INTERVAL"`
	ReadTimeout  time.Duration `json:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout time.Duration `json:"write_timeout" env:"WRITE_TIMEOUT"`
	BufferSize   int           `json:"buffer_size" env:"BUFFER_SIZE"`
	MaxFrameSize int64         `json:"max_frame_size" env:"MAX_FRAME_SIZE"`
}

// ChatConfig bounds rooms, names and messages. A zero length limit disables
// that check.
type ChatConfig struct {
	MaxHistory       int `json:"max_history" env:"MAX_HISTORY"`
	MaxNameLength    int `json:"max_name_length" env:"MAX_NAME_LENGTH"`
	MaxRoomLength    int `json:"max_room_length" env:"MAX_ROOM_LENGTH"`
	MaxMessageLength int `json:"max_message_length" env:"MAX_MESSAGE_LENGTH"`
	EventBuffer      int `json:"event_buffer" env:"EVENT_BUFFER"`
}

type LogConfig struct {
	Level  string `json:"level" env:"LEVEL"`
	Format string `json:"format" env:"FORMAT"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		WebSocket: WebSocketConfig{
			PingInterval: 30 * time.Second,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 10 * time.Second,
			BufferSize:   100,
			MaxFrameSize: 16 * 1024,
		},
		Chat: ChatConfig{
			MaxHistory:       50,
			MaxNameLength:    32,
			MaxRoomLength:    64,
			MaxMessageLength: 2000,
			EventBuffer:      1000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Limits returns the validation bounds for names, rooms and messages.
func (c *Config) Limits() types.Limits {
	return types.Limits{
		MaxNameLength:    c.Chat.MaxNameLength,
		MaxRoomLength:    c.Chat.MaxRoomLength,
		MaxMessageLength: c.Chat.MaxMessageLength,
	}
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}

func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP port must be between 1 and 65535")
	}
	if c.HTTP.Host == "" {
		return fmt.Errorf("HTTP host cannot be empty")
	}
	if c.HTTP.ReadTimeout <= 0 {
		return fmt.Errorf("HTTP read timeout must be positive")
	}
	if c.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP write timeout must be positive")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP shutdown timeout must be positive")
	}

	if c.WebSocket.PingInterval <= 0 {
		return fmt.Errorf("WebSocket ping interval must be positive")
	}
	if c.WebSocket.ReadTimeout <= c.WebSocket.PingInterval {
		return fmt.Errorf("WebSocket read timeout must exceed the ping interval")
	}
	if c.WebSocket.WriteTimeout <= 0 {
		return fmt.Errorf("WebSocket write timeout must be positive")
	}
	if c.WebSocket.BufferSize <= 0 {
		return fmt.Errorf("WebSocket buffer size must be positive")
	}
	if c.WebSocket.MaxFrameSize <= 0 {
		return fmt.Errorf("WebSocket max frame size must be positive")
	}

	if c.Chat.MaxHistory <= 0 {
		return fmt.Errorf("chat max history must be positive")
	}
	if c.Chat.MaxNameLength < 0 || c.Chat.MaxRoomLength < 0 || c.Chat.MaxMessageLength < 0 {
		return fmt.Errorf("chat length limits cannot be negative")
	}
	if c.Chat.EventBuffer <= 0 {
		return fmt.Errorf("chat event buffer must be positive")
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("log format must be console or json")
	}
	return nil
}

// LoadFromEnv applies dotenv files (".env" when none are named) and then the
// process environment on top of base. Variables already set in the process
// win over dotenv values. A missing dotenv file is not an error.
func LoadFromEnv(base *Config, dotenvFiles ...string) (*Config, error) {
	if err := godotenv.Load(dotenvFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load dotenv: %w", err)
	}

	cfg := *base
	cfg.HTTP.AllowedOrigins = append([]string(nil), base.HTTP.AllowedOrigins...)
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// configFile mirrors Config with durations written as strings ("30s").
// Pointer fields distinguish "absent" from zero.
type configFile struct {
	HTTP *struct {
		Host            string   `json:"host"`
		Port            int      `json:"port"`
		ReadTimeout     string   `json:"read_timeout"`
		WriteTimeout    string   `json:"write_timeout"`
		ShutdownTimeout string   `json:"shutdown_timeout"`
		AllowedOrigins  []string `json:"allowed_origins"`
	} `json:"http"`
	WebSocket *struct {
		PingInterval string `json:"ping_interval"`
		ReadTimeout  string `json:"read_timeout"`
		WriteTimeout string `json:"write_timeout"`
		BufferSize   int    `json:"buffer_size"`
		MaxFrameSize int64  `json:"max_frame_size"`
	} `json:"websocket"`
	Chat *struct {
		MaxHistory       *int `json:"max_history"`
		MaxNameLength    *int `json:"max_name_length"`
		MaxRoomLength    *int `json:"max_room_length"`
		MaxMessageLength *int `json:"max_message_length"`
		EventBuffer      *int `json:"event_buffer"`
	} `json:"chat"`
	Log *LogConfig `json:"log"`
}

// LoadFromFile overlays the JSON file at path onto base and validates the
// result.
func LoadFromFile(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var file configFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg := *base
	if h := file.HTTP; h != nil {
		if h.Host != "" {
			cfg.HTTP.Host = h.Host
		}
		if h.Port > 0 {
			cfg.HTTP.Port = h.Port
		}
		if len(h.AllowedOrigins) > 0 {
			cfg.HTTP.AllowedOrigins = h.AllowedOrigins
		}
		if err := parseDurations(map[string]durationField{
			"http.read_timeout":     {h.ReadTimeout, &cfg.HTTP.ReadTimeout},
			"http.write_timeout":    {h.WriteTimeout, &cfg.HTTP.WriteTimeout},
			"http.shutdown_timeout": {h.ShutdownTimeout, &cfg.HTTP.ShutdownTimeout},
		}); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if ws := file.WebSocket; ws != nil {
		if ws.BufferSize > 0 {
			cfg.WebSocket.BufferSize = ws.BufferSize
		}
		if ws.MaxFrameSize > 0 {
			cfg.WebSocket.MaxFrameSize = ws.MaxFrameSize
		}
		if err := parseDurations(map[string]durationField{
			"websocket.ping_interval": {ws.PingInterval, &cfg.WebSocket.PingInterval},
			"websocket.read_timeout":  {ws.ReadTimeout, &cfg.WebSocket.ReadTimeout},
			"websocket.write_timeout": {ws.WriteTimeout, &cfg.WebSocket.WriteTimeout},
		}); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if ch := file.Chat; ch != nil {
		setInt(&cfg.Chat.MaxHistory, ch.MaxHistory)
		setInt(&cfg.Chat.MaxNameLength, ch.MaxNameLength)
		setInt(&cfg.Chat.MaxRoomLength, ch.MaxRoomLength)
		setInt(&cfg.Chat.MaxMessageLength, ch.MaxMessageLength)
		setInt(&cfg.Chat.EventBuffer, ch.EventBuffer)
	}

	if l := file.Log; l != nil {
		if l.Level != "" {
			cfg.Log.Level = l.Level
		}
		if l.Format != "" {
			cfg.Log.Format = l.Format
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return &cfg, nil
}

type durationField struct {
	raw string
	dst *time.Duration
}

func parseDurations(fields map[string]durationField) error {
	for name, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*f.dst = d
	}
	return nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// Load resolves the configuration: defaults, then .env, then the process
// environment, then the JSON file named by ROOMCAST_CONFIG_FILE if set.
func Load() (*Config, error) {
	cfg, err := LoadFromEnv(DefaultConfig())
	if err != nil {
		return nil, err
	}
	if path := os.Getenv(FileEnvVar); path != "" {
		return LoadFromFile(path, cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
