// Package server exposes the tool registry and the agent over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"nexuslm/customer"
	"nexuslm/tools"
)

const maxBodyBytes = 1 << 20

// Executor runs registered tools by name.
type Executor interface {
	Execute(ctx context.Context, name string, args map[string]any) (string, error)
	Definitions() []tools.Definition
}

// Chatter answers free-form customer messages.
type Chatter interface {
	Chat(ctx context.Context, sessionID, customerID, message string) (string, error)
}

type Server struct {
	registry          Executor
	agent             Chatter
	defaultCustomerID string
	logger            zerolog.Logger
}

// New builds the HTTP surface. agent may be nil, in which case /chat is not
// served.
func New(registry Executor, agent Chatter, defaultCustomerID string) *Server {
	return &Server{
		registry:          registry,
		agent:             agent,
		defaultCustomerID: defaultCustomerID,
		logger:            log.With().Str("component", "server").Logger(),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/tools", func(r chi.Router) {
		r.Get("/", s.listTools)
		r.Post("/{name}", s.executeTool)
	})
	if s.agent != nil {
		r.Post("/chat", s.chat)
	}
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

func (s *Server) listTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.registry.Definitions()})
}

func (s *Server) executeTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	args := map[string]any{}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&args); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}

	result, err := s.registry.Execute(r.Context(), name, args)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(result))
}

type chatRequest struct {
	SessionID  string `json:"session_id"`
	CustomerID string `json:"customer_id"`
	Message    string `json:"message"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.CustomerID == "" {
		req.CustomerID = s.defaultCustomerID
	}
	if req.SessionID == "" {
		req.SessionID = "http-" + req.CustomerID
	}

	reply, err := s.agent.Chat(r.Context(), req.SessionID, req.CustomerID, req.Message)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", req.SessionID).Msg("chat failed")
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_id": req.SessionID, "reply": reply})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, tools.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, tools.ErrUnknownTool), errors.Is(err, customer.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, tools.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
