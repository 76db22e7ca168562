// Package server exposes the chat over HTTP: account endpoints, chat
// read paths, and the websocket on which sessions live.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"chat-hub/auth"
	"chat-hub/contract"
	"chat-hub/errors"
	"chat-hub/observability"
	"chat-hub/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const maxBodySize = 1 << 20

// Options are the per-connection knobs of the websocket endpoint.
type Options struct {
	SendBufferSize int
	MaxMessageSize int64
	RateLimit      rate.Limit
	RateBurst      int
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
}

func DefaultOptions() Options {
	return Options{
		SendBufferSize: 256,
		MaxMessageSize: 64 * 1024,
		RateLimit:      rate.Limit(20),
		RateBurst:      40,
		PingPeriod:     54 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
	}
}

type Server struct {
	authenticator contract.Authenticator
	verifier      contract.Verifier
	chats         services.IChatService
	registry      contract.IRegistry
	metrics       *observability.Metrics
	inspector     http.Handler
	options       Options
	upgrader      websocket.Upgrader
	log           *slog.Logger
}

func NewServer(log *slog.Logger, authenticator contract.Authenticator, verifier contract.Verifier,
	chats services.IChatService, registry contract.IRegistry, metrics *observability.Metrics,
	options Options) *Server {
	return &Server{
		authenticator: authenticator,
		verifier:      verifier,
		chats:         chats,
		registry:      registry,
		metrics:       metrics,
		options:       options,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin policy is left to the deployment
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// WithInspector mounts a debug handler under /debug/inspect.
func (s *Server) WithInspector(inspector http.Handler) *Server {
	s.inspector = inspector
	return s
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	if s.inspector != nil {
		r.Method(http.MethodGet, "/debug/inspect", s.inspector)
	}

	r.Post("/register", s.register)
	r.Post("/login", s.login)
	r.Get("/ws", s.serveWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(s.verifier, s.log))
		r.Get("/chats", s.listChats)
		r.Post("/chats", s.createChat)
		r.Get("/chats/{id}/messages", s.history)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// observe logs every request and counts it by route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			// Hijacked by the websocket upgrade
			status = http.StatusSwitchingProtocols
		}
		s.metrics.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		s.log.Debug("HTTP request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return errors.Wrap(errors.ErrDecode, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors to status codes and never leaks internal ones.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		s.log.Error("Request failed", "path", r.URL.Path, "error", err)
		message = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: message})
}
