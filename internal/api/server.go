package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"roomcast/internal/metrics"
	"roomcast/pkg/types"
)

// Presence is the read side of the coordinator.
type Presence interface {
	Summaries() []types.RoomSummary
	Roster(room string) ([]string, bool)
	History(room string) []types.Message
	Stats() (rooms, members int)
}

// Connections reports open transport connections.
type Connections interface {
	Count() int
}

// Liveness reports whether event processing is running.
type Liveness interface {
	Running() bool
}

// Server exposes read-only room state, health, metrics and the WebSocket
// endpoint on one chi router.
type Server struct {
	presence    Presence
	connections Connections
	liveness    Liveness
	router      chi.Router
	logger      zerolog.Logger
}

// NewServer wires the routes. ws serves /ws; allowedOrigins feeds CORS.
func NewServer(presence Presence, connections Connections, liveness Liveness, ws http.Handler, allowedOrigins []string, logger zerolog.Logger) *Server {
	s := &Server{
		presence:    presence,
		connections: connections,
		liveness:    liveness,
		router:      chi.NewRouter(),
		logger:      logger.With().Str("component", "api").Logger(),
	}
	s.setupRoutes(ws, allowedOrigins)
	return s
}

func (s *Server) setupRoutes(ws http.Handler, allowedOrigins []string) {
	r := s.router
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", s.healthCheck)
	r.Route("/api/rooms", func(r chi.Router) {
		r.Use(jsonContentType)
		r.Get("/", s.listRooms)
		r.Get("/{room}", s.getRoom)
	})
	if ws != nil {
		r.Handle("/ws", ws)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Rooms       int       `json:"rooms"`
	Members     int       `json:"members"`
	Connections int       `json:"connections"`
}

type ListRoomsResponse struct {
	Rooms []types.RoomSummary `json:"rooms"`
}

type RoomResponse struct {
	Room    string          `json:"room"`
	Users   []string        `json:"users"`
	History []types.Message `json:"history"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// GET /health: 503 when the event hub is not running.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	rooms, members := s.presence.Stats()
	resp := HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC(),
		Rooms:       rooms,
		Members:     members,
		Connections: s.connections.Count(),
	}

	code := http.StatusOK
	if s.liveness != nil && !s.liveness.Running() {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, resp)
}

// GET /api/rooms
func (s *Server) listRooms(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, ListRoomsResponse{Rooms: s.presence.Summaries()})
}

// GET /api/rooms/{room}
func (s *Server) getRoom(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "room")
	users, ok := s.presence.Roster(name)
	if !ok {
		s.sendError(w, "room not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, RoomResponse{
		Room:    types.NormalizeRoom(name),
		Users:   users,
		History: s.presence.History(name),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug().Err(err).Msg("failed to write response")
	}
}

func (s *Server) sendError(w http.ResponseWriter, message string, code int) {
	s.writeJSON(w, code, ErrorResponse{
		Error:   http.StatusText(code),
		Code:    code,
		Message: message,
	})
}

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs each request and records it in the HTTP metrics,
// labelled by route pattern rather than raw path.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				route := "unmatched"
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}
				latency := time.Since(start)

				metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
				metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(latency.Seconds())

				logger.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", status).
					Dur("latency", latency).
					Str("request_id", chimw.GetReqID(r.Context())).
					Str("remote_addr", r.RemoteAddr).
					Msg("request completed")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
