package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/leofalp/aigochat/core/chat"
	"github.com/leofalp/aigochat/providers/ai"
	"github.com/leofalp/aigochat/providers/memory"
)

// MaxRequestBodySize caps every request body.
const MaxRequestBodySize = 1 << 20

// ModelLister lists the models that can currently be served.
// *registry.Registry satisfies it.
type ModelLister interface {
	AvailableModels() []ai.ModelInfo
}

// ChatStarter starts chat turns. *chat.Orchestrator satisfies it.
type ChatStarter interface {
	Start(ctx context.Context, req chat.Request) (iter.Seq[chat.Event], error)
}

// Conversations is the part of memory.Store the conversation endpoints use.
type Conversations interface {
	CreateConversation(ctx context.Context, title string) (*memory.Conversation, error)
	GetConversation(ctx context.Context, id string) (*memory.Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]memory.StoredMessage, error)
	ConversationSummaries(ctx context.Context) ([]memory.ConversationSummary, error)
	DeleteConversation(ctx context.Context, id string) (bool, error)
}

// Server routes HTTP requests to the chat components.
type Server struct {
	models        ModelLister
	chat          ChatStarter
	conversations Conversations

	frontendURL string
	logger      *slog.Logger
	handler     http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request and handler logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithFrontendURL sets the single origin allowed to call the API from a browser.
func WithFrontendURL(url string) Option {
	return func(s *Server) {
		s.frontendURL = url
	}
}

// New builds the server and its middleware chain.
func New(models ModelLister, starter ChatStarter, conversations Conversations, opts ...Option) *Server {
	s := &Server{
		models:        models,
		chat:          starter,
		conversations: conversations,
		frontendURL:   "http://localhost:5173",
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("GET /api/models", s.handleModels)
	mux.HandleFunc("POST /api/conversations", s.handleCreateConversation)
	mux.HandleFunc("GET /api/conversations", s.handleListConversations)
	mux.HandleFunc("GET /api/conversations/{id}/messages", s.handleListMessages)
	mux.HandleFunc("DELETE /api/conversations/{id}", s.handleDeleteConversation)
	mux.HandleFunc("POST /api/chat", s.handleChat)

	s.handler = Chain(
		LoggingMiddleware(s.logger),
		CORSMiddleware(s.frontendURL),
		RecoveryMiddleware(s.logger),
		BodyLimitMiddleware(MaxRequestBodySize),
	)(mux)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully, waiting at most shutdownTimeout for in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, listener, shutdownTimeout)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener, shutdownTimeout time.Duration) error {
	httpServer := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(listener)
	}()
	s.logger.Info("Server listening", "addr", listener.Addr().String())

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, errorResponse{Detail: detail})
}

type errorResponse struct {
	Detail string `json:"detail"`
}
