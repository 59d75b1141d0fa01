package handler

import (
	"encoding/json"
	"net/http"

	"github.com/askpage/askpage/internal/api/middleware"
	"github.com/askpage/askpage/internal/api/response"
	"github.com/askpage/askpage/internal/domain"
	"github.com/askpage/askpage/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ConversationHandler exposes conversation management to the widget
type ConversationHandler struct {
	conversations *service.ConversationService
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(conversations *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

// List returns the visitor's conversations for a project
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	visitorID := r.URL.Query().Get("visitor_id")
	if visitorID == "" {
		response.BadRequest(w, "missing visitor_id")
		return
	}
	projectID, err := uuid.Parse(r.URL.Query().Get("project_id"))
	if err != nil {
		response.BadRequest(w, "invalid project_id")
		return
	}

	summaries, err := h.conversations.List(r.Context(), visitorID, projectID, middleware.GetVisitorClaims(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if summaries == nil {
		summaries = []domain.ConversationSummary{}
	}
	response.OK(w, map[string]any{"conversations": summaries})
}

// Messages returns a conversation's full message history
func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}

	conv, err := h.conversations.Messages(r.Context(), id, middleware.GetVisitorClaims(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	messages := conv.Messages
	if messages == nil {
		messages = []domain.Message{}
	}
	response.OK(w, map[string]any{"messages": messages})
}

type resetRequest struct {
	VisitorID  string `json:"visitor_id" validate:"required,max=128"`
	ArticleUID string `json:"article_unique_id" validate:"required"`
	ProjectID  string `json:"project_id" validate:"required,uuid"`
}

// Reset clears the conversation identified by its natural key
func (h *ConversationHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		response.BadRequest(w, "invalid project_id")
		return
	}

	id, err := h.conversations.Reset(r.Context(), req.VisitorID, req.ArticleUID, projectID, middleware.GetVisitorClaims(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.OK(w, map[string]string{"conversation_id": id.String()})
}

// Delete removes a conversation
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}

	if err := h.conversations.Delete(r.Context(), id, middleware.GetVisitorClaims(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	response.OK(w, map[string]bool{"success": true})
}

func conversationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "conversationID"))
	if err != nil {
		response.BadRequest(w, "invalid conversation ID")
		return uuid.Nil, false
	}
	return id, true
}
