package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/leofalp/aigochat/core/chat"
	"github.com/leofalp/aigochat/providers/ai"
	"github.com/leofalp/aigochat/providers/memory"
	"github.com/leofalp/aigochat/providers/observability"
)

const (
	detailNotFound    = "Conversation not found"
	detailUnavailable = "Unable to connect to the service."
	detailInternal    = "Internal server error"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "aigochat API"})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	models := s.models.AvailableModels()
	if models == nil {
		models = []ai.ModelInfo{}
	}
	s.logger.InfoContext(r.Context(), "Returning available models", "count", len(models))
	s.writeJSON(w, http.StatusOK, models)
}

type createConversationRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	// The body is optional.
	var req createConversationRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		s.writeDecodeError(w, err)
		return
	}

	conversation, err := s.conversations.CreateConversation(r.Context(), req.Title)
	if err != nil {
		s.internalError(w, r, "Failed to create conversation", err)
		return
	}
	s.writeJSON(w, http.StatusOK, conversation)
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.conversations.ConversationSummaries(r.Context())
	if err != nil {
		s.internalError(w, r, "Failed to list conversations", err)
		return
	}
	if summaries == nil {
		summaries = []memory.ConversationSummary{}
	}
	s.writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.conversations.GetConversation(r.Context(), id); err != nil {
		if errors.Is(err, memory.ErrConversationNotFound) {
			s.writeError(w, http.StatusNotFound, detailNotFound)
			return
		}
		s.internalError(w, r, "Failed to load conversation", err)
		return
	}

	messages, err := s.conversations.ListMessages(r.Context(), id)
	if err != nil {
		s.internalError(w, r, "Failed to list messages", err)
		return
	}
	if messages == nil {
		messages = []memory.StoredMessage{}
	}
	s.writeJSON(w, http.StatusOK, messages)
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.conversations.DeleteConversation(r.Context(), r.PathValue("id"))
	if err != nil {
		s.internalError(w, r, "Failed to delete conversation", err)
		return
	}
	if !deleted {
		s.writeError(w, http.StatusNotFound, detailNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type chatRequest struct {
	ConversationID string       `json:"conversation_id"`
	Message        *string      `json:"message"`
	Model          string       `json:"model"`
	History        []ai.Message `json:"history"`
}

func (r chatRequest) validate() error {
	var errs []error
	if r.ConversationID == "" {
		errs = append(errs, errors.New("conversation_id is required"))
	}
	if r.Message == nil {
		errs = append(errs, errors.New("message is required"))
	}
	if r.Model == "" {
		errs = append(errs, errors.New("model is required"))
	}
	for i, message := range r.History {
		if !message.Role.Valid() {
			errs = append(errs, fmt.Errorf("history[%d].role must be one of user, assistant, system", i))
		}
	}
	return errors.Join(errs...)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDecodeError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx := r.Context()
	s.logger.InfoContext(ctx, "Chat request received", observability.AttrLLMModel, req.Model)

	events, err := s.chat.Start(ctx, chat.Request{
		ConversationID: req.ConversationID,
		Message:        *req.Message,
		Model:          req.Model,
		History:        req.History,
	})
	switch {
	case errors.Is(err, chat.ErrModelUnavailable):
		s.writeError(w, http.StatusServiceUnavailable, detailUnavailable)
		return
	case errors.Is(err, chat.ErrInvalidRequest):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		s.internalError(w, r, "Failed to start chat turn", err)
		return
	}

	sse := newEventStream(w)
	for event := range events {
		if err := sse.Send(event); err != nil {
			// The client is gone; stopping the range aborts the vendor call.
			s.logger.DebugContext(ctx, "Stopped streaming to client", observability.AttrError, err)
			return
		}
	}
}

// decodeJSON decodes the request body into v. An empty body yields io.EOF.
func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(v); err != nil {
		return err
	}
	if decoder.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func (s *Server) writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		s.writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Request body exceeds maximum size of %d bytes", tooLarge.Limit))
	case errors.Is(err, io.EOF):
		s.writeError(w, http.StatusUnprocessableEntity, "request body is required")
	default:
		s.writeError(w, http.StatusUnprocessableEntity, "invalid JSON body: "+err.Error())
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.ErrorContext(r.Context(), msg, observability.AttrError, err)
	s.writeError(w, http.StatusInternalServerError, detailInternal)
}
