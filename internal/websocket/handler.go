package websocket

import (
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"roomcast/internal/config"
	"roomcast/pkg/interfaces"
	"roomcast/pkg/types"
)

// Handler upgrades HTTP requests and runs the read side of each connection.
// Decoded events go to the sink; the sink reaches clients again only through
// the registry.
type Handler struct {
	registry *Registry
	sink     interfaces.EventSink
	cfg      config.WebSocketConfig
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHandler creates a handler. allowedOrigins lists the browser origins
// accepted at upgrade; "*" accepts any.
func NewHandler(registry *Registry, sink interfaces.EventSink, cfg config.WebSocketConfig, allowedOrigins []string, logger zerolog.Logger) *Handler {
	return &Handler{
		registry: registry,
		sink:     sink,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin:      originChecker(allowedOrigins),
			HandshakeTimeout: 10 * time.Second,
		},
		logger: logger.With().Str("component", "websocket").Logger(),
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, "*") {
			return true
		}
		return slices.Contains(allowed, origin)
	}
}

// ServeHTTP assigns the connection an id, registers it, prompts the client
// for a name and starts its read loop.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	id := types.ConnID(uuid.NewString())
	conn := NewConnection(ws, id, h.cfg, h.logger)
	if err := h.registry.Register(conn); err != nil {
		h.logger.Error().Err(err).Str("conn", string(id)).Msg("failed to register connection")
		_ = conn.Close()
		return
	}

	if err := h.sink.Connect(id); err != nil {
		h.logger.Warn().Err(err).Str("conn", string(id)).Msg("connection refused")
		h.registry.Unregister(conn)
		_ = conn.Close()
		return
	}
	h.logger.Info().Str("conn", string(id)).Str("remote_addr", r.RemoteAddr).Msg("client connected")

	if err := conn.WriteJSON(types.NewRequestName()); err != nil {
		h.logger.Debug().Err(err).Str("conn", string(id)).Msg("failed to send name prompt")
	}

	go h.readLoop(conn)
}

func (h *Handler) readLoop(conn *Connection) {
	id := conn.ID()
	logger := h.logger.With().Str("conn", string(id)).Logger()

	defer func() {
		if err := h.sink.Disconnect(id); err != nil {
			logger.Warn().Err(err).Msg("disconnect not delivered")
		}
		h.registry.Unregister(conn)
		_ = conn.Close()
		logger.Info().Msg("client disconnected")
	}()

	ws := conn.conn
	if h.cfg.MaxFrameSize > 0 {
		ws.SetReadLimit(h.cfg.MaxFrameSize)
	}
	if h.cfg.ReadTimeout > 0 {
		if err := ws.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout)); err != nil {
			logger.Debug().Err(err).Msg("failed to set read deadline")
			return
		}
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
		})
	}

	for {
		messageType, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logger.Debug().Err(err).Msg("read failed")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		ev, err := types.DecodeInbound(data)
		if err != nil {
			logger.Debug().Err(err).Msg("rejected frame")
			_ = conn.WriteJSON(types.NewError(err))
			continue
		}

		if err := h.sink.Submit(id, ev); err != nil {
			logger.Warn().Err(err).Str("event", ev.EventName()).Msg("event not accepted")
			_ = conn.WriteJSON(types.NewError(err))
		}
	}
}
