// Package server exposes the conversation engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/conciergedev/concierge/core"
	"github.com/conciergedev/concierge/engine"
	"github.com/conciergedev/concierge/logging"
)

// ChatService is the façade surface the HTTP layer depends on.
type ChatService interface {
	Chat(ctx context.Context, req engine.ChatRequest) (*core.Reply, error)
	Conversation(ctx context.Context, userID string) (*core.Conversation, error)
	Conversations(ctx context.Context) ([]string, error)
}

// Options configures the HTTP server.
type Options struct {
	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Server routes agent requests to the underlying ChatService.
type Server struct {
	svc    ChatService
	logger logging.Logger
	mux    *http.ServeMux
}

// New builds the server and registers its routes.
func New(svc ChatService, optFns ...func(o *Options)) *Server {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{svc: svc, logger: opts.Logger, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /agent/chat", s.handleChat)
	s.mux.HandleFunc("GET /agent/conversations", s.handleConversations)
	s.mux.HandleFunc("GET /agent/conversations/{userID}", s.handleConversation)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req engine.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	reply, err := s.svc.Chat(r.Context(), req)
	if err != nil {
		if errors.Is(err, core.ErrMissingUserID) {
			s.writeJSON(w, http.StatusBadRequest, errorBody{Error: core.ErrMissingUserID.Error()})
			return
		}
		s.logger.Error("chat turn failed", "user_id", req.UserID, "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}

	s.writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	ids, err := s.svc.Conversations(r.Context())
	if err != nil {
		s.logger.Error("conversation listing failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	conv, err := s.svc.Conversation(r.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.writeJSON(w, http.StatusNotFound, nil)
			return
		}
		s.logger.Error("conversation lookup failed", "user_id", userID, "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}

	s.writeJSON(w, http.StatusOK, conv)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encoding failed", "error", err)
	}
}
