// ABOUTME: HTTP handlers for the chat service: conversations and messages
// ABOUTME: Proxies conversation turns to the configured LLM provider

package chat

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/2389/promptdeck/internal/auth"
	"github.com/2389/promptdeck/internal/httpapi"
	"github.com/2389/promptdeck/internal/llm"
	"github.com/2389/promptdeck/internal/store"
)

// Service implements the chat service HTTP API.
type Service struct {
	conversations store.ConversationStore
	messages      store.MessageStore
	provider      llm.Provider
	logger        *slog.Logger
}

// New creates a chat service.
func New(conversations store.ConversationStore, messages store.MessageStore, provider llm.Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		conversations: conversations,
		messages:      messages,
		provider:      provider,
		logger:        logger.With("component", "chat"),
	}
}

// RegisterRoutes registers the chat endpoints on the mux. All routes must
// be placed behind auth.Middleware by the caller.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /conversations", s.handleCreateConversation)
	mux.HandleFunc("GET /conversations/{id}", s.handleGetConversation)
	mux.HandleFunc("DELETE /conversations/{id}", s.handleDeleteConversation)
	mux.HandleFunc("GET /conversations/{id}/messages", s.handleListMessages)
	mux.HandleFunc("POST /conversations/{id}/messages", s.handleSendMessage)
	// Under /projects rather than /conversations so the pattern cannot
	// conflict with the {id} wildcard routes above.
	mux.HandleFunc("GET /projects/{projectID}/conversations", s.handleListByProject)
}

// ConversationResponse is the JSON representation of a conversation.
type ConversationResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// MessageResponse is the JSON representation of a message.
type MessageResponse struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	Role           string `json:"role"`
	Content        string `json:"content"`
	CreatedAt      string `json:"created_at"`
}

// SendMessageRequest is the JSON body for POST /conversations/{id}/messages.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessageResponse is the JSON response for a completed turn.
type SendMessageResponse struct {
	MessageID string `json:"message_id"`
	Response  string `json:"response"`
	CreatedAt string `json:"created_at"`
}

func conversationResponse(c *store.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:        c.ID,
		ProjectID: c.ProjectID,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func messageResponse(m *store.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Role:           m.Role,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// loadOwnedConversation loads a conversation and runs the ownership
// check. Missing and not-owned both answer 404; the errors stay distinct
// internally.
func (s *Service) loadOwnedConversation(w http.ResponseWriter, r *http.Request, id string) (*store.Conversation, bool) {
	userID := auth.MustUserID(r.Context())

	conv, err := s.conversations.GetConversation(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpapi.WriteError(w, http.StatusNotFound, "conversation not found")
			return nil, false
		}
		s.logger.Error("loading conversation", "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}

	if err := auth.Authorize(conv, userID); err != nil {
		httpapi.WriteError(w, http.StatusNotFound, "conversation not found")
		return nil, false
	}

	return conv, true
}

func (s *Service) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustUserID(r.Context())

	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		httpapi.WriteError(w, http.StatusBadRequest, "project_id is required")
		return
	}

	now := time.Now().UTC()
	conv := &store.Conversation{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.conversations.CreateConversation(r.Context(), conv); err != nil {
		s.logger.Error("creating conversation", "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpapi.WriteJSON(w, http.StatusCreated, conversationResponse(conv))
}

func (s *Service) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.loadOwnedConversation(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, conversationResponse(conv))
}

func (s *Service) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.loadOwnedConversation(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	if err := s.conversations.DeleteConversation(r.Context(), conv.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpapi.WriteError(w, http.StatusNotFound, "conversation not found")
			return
		}
		s.logger.Error("deleting conversation", "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]string{"message": "conversation deleted"})
}

// handleListByProject lists the caller's conversations in a project.
// Conversations owned by other users are filtered out rather than
// rejected: the project service owns project-level access checks, and
// this keeps the chat service free of a project store dependency.
func (s *Service) handleListByProject(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustUserID(r.Context())

	convs, err := s.conversations.ListConversationsByProject(r.Context(), r.PathValue("projectID"))
	if err != nil {
		s.logger.Error("listing conversations", "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	response := make([]ConversationResponse, 0, len(convs))
	for _, c := range convs {
		if c.UserID != userID {
			continue
		}
		response = append(response, conversationResponse(c))
	}
	httpapi.WriteJSON(w, http.StatusOK, response)
}

func (s *Service) handleListMessages(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.loadOwnedConversation(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	msgs, err := s.messages.ListMessagesByConversation(r.Context(), conv.ID)
	if err != nil {
		s.logger.Error("listing messages", "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	response := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		response = append(response, messageResponse(m))
	}
	httpapi.WriteJSON(w, http.StatusOK, response)
}

// handleSendMessage runs one conversation turn: persist the user message,
// send the full history to the LLM provider, persist the assistant reply.
// A provider failure answers 502; the user message is already persisted by
// then and stays.
func (s *Service) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.loadOwnedConversation(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		httpapi.WriteError(w, http.StatusBadRequest, "content is required")
		return
	}

	userMsg := &store.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           store.RoleUser,
		Content:        req.Content,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.messages.CreateMessage(r.Context(), userMsg); err != nil {
		s.logger.Error("persisting user message", "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	history, err := s.messages.ListMessagesByConversation(r.Context(), conv.ID)
	if err != nil {
		s.logger.Error("loading history", "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	llmMessages := make([]llm.Message, 0, len(history))
	for _, m := range history {
		llmMessages = append(llmMessages, llm.Message{Role: m.Role, Content: m.Content})
	}

	reply, err := s.provider.SendMessage(r.Context(), llmMessages)
	if err != nil {
		s.logger.Error("LLM provider call failed", "conversation_id", conv.ID, "error", err)
		httpapi.WriteError(w, http.StatusBadGateway, "error communicating with LLM service")
		return
	}

	assistantMsg := &store.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           store.RoleAssistant,
		Content:        reply,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.messages.CreateMessage(r.Context(), assistantMsg); err != nil {
		s.logger.Error("persisting assistant message", "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, SendMessageResponse{
		MessageID: assistantMsg.ID,
		Response:  reply,
		CreatedAt: assistantMsg.CreatedAt.UTC().Format(time.RFC3339),
	})
}
