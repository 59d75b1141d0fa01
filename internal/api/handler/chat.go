package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/askpage/askpage/internal/api/response"
	"github.com/askpage/askpage/internal/service"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ChatHandler relays the model's SSE stream to the widget
type ChatHandler struct {
	chat *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// The embed script sends projectId and questionId in camelCase; the rest of
// the body follows the widget's snake_case convention.
type chatRequest struct {
	ProjectID  string `json:"projectId" validate:"required,uuid"`
	QuestionID string `json:"questionId" validate:"required,max=64"`
	Question   string `json:"question" validate:"required,max=2000"`
	Title      string `json:"title" validate:"max=512"`
	Content    string `json:"content"`
	URL        string `json:"url" validate:"required,url"`
	ImageURL   string `json:"image_url" validate:"omitempty,url"`
	VisitorID  string `json:"visitor_id" validate:"required,max=128"`
	SessionID  string `json:"session_id" validate:"max=128"`
}

// Stream answers a question over SSE. The conversation id travels in a
// response header so the body stays a pure event stream.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
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
		response.BadRequest(w, "invalid projectId")
		return
	}

	result, err := h.chat.Chat(r.Context(), service.ChatRequest{
		ProjectID:  projectID,
		QuestionID: req.QuestionID,
		Question:   req.Question,
		Title:      req.Title,
		Content:    req.Content,
		URL:        req.URL,
		ImageURL:   req.ImageURL,
		VisitorID:  req.VisitorID,
		SessionID:  req.SessionID,
		Origin:     r.Header.Get("Origin"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Conversation-Id", result.ConversationID.String())
	w.WriteHeader(http.StatusOK)

	flusher, canFlush := w.(http.Flusher)

	if result.CachedAnswer != "" {
		writeCachedFrames(w, result.CachedAnswer)
		if canFlush {
			flusher.Flush()
		}
		return
	}

	defer result.Stream.Close()

	buf := make([]byte, 4096)
	for {
		n, err := result.Stream.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				// Client went away; the collector branch keeps draining.
				log.Debug().Err(werr).Msg("client disconnected mid-stream")
				return
			}
			if canFlush {
				flusher.Flush()
			}
		}
		if err != nil {
			return
		}
	}
}

// writeCachedFrames replays a cached answer in the same SSE shape a live
// stream has, so the widget needs no second code path.
func writeCachedFrames(w http.ResponseWriter, answer string) {
	frame := map[string]any{
		"choices": []map[string]any{
			{"delta": map[string]string{"content": answer}},
		},
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	fmt.Fprint(w, "data: [DONE]\n\n")
}
