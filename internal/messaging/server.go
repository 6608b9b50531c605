package messaging

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ppiankov/lieblocker/internal/errors"
	"github.com/ppiankov/lieblocker/internal/logger"
)

const maxMessageBytes = 20 << 20

// Handler answers inbound messages
type Handler interface {
	Handle(ctx context.Context, m Message) Response
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, m Message) Response

func (f HandlerFunc) Handle(ctx context.Context, m Message) Response { return f(ctx, m) }

// Server is the agent's inbound endpoint
type Server struct {
	router  *chi.Mux
	handler Handler
	logger  *slog.Logger
	started time.Time
}

// NewServer wires the routes
func NewServer(h Handler, log *slog.Logger) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		handler: h,
		logger:  logger.OrDefault(log).With("component", "server"),
		started: time.Now(),
	}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Get("/health", s.handleHealth)
	s.router.Post("/messages", s.handleMessage)
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Failure(err))
		return
	}

	m, err := Decode(data)
	if errors.Is(err, ErrUnknownType) {
		s.logger.Debug("ignoring message", "error", err)
		writeJSON(w, http.StatusOK, Response{Success: true, Message: "Message received"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Failure(err))
		return
	}

	s.logger.Debug("received message", "type", m.MessageType())
	writeJSON(w, http.StatusOK, s.handler.Handle(r.Context(), m))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
