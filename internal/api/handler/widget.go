package handler

import (
	"encoding/json"
	"net/http"

	"github.com/askpage/askpage/internal/api/response"
	"github.com/askpage/askpage/internal/repository/redis"
	"github.com/askpage/askpage/internal/service"
	"github.com/google/uuid"
)

// WidgetHandler serves the widget bootstrap configuration
type WidgetHandler struct {
	projects *service.ProjectService
	limiter  *redis.RateLimiter
}

// NewWidgetHandler creates a new widget handler
func NewWidgetHandler(projects *service.ProjectService, limiter *redis.RateLimiter) *WidgetHandler {
	return &WidgetHandler{projects: projects, limiter: limiter}
}

type configRequest struct {
	ProjectID string `json:"projectId"`
	// ClientID is the legacy embed-script name for the project identifier.
	ClientID  string `json:"client_id"`
	VisitorID string `json:"visitor_id"`
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
	Referrer  string `json:"referrer"`
	UserAgent string `json:"user_agent"`
}

// Config returns the project's widget configuration. This is the widget's
// first call on page load, so it also gates on origin.
func (h *WidgetHandler) Config(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	rawID := req.ProjectID
	if rawID == "" {
		rawID = req.ClientID
	}
	if rawID == "" {
		response.BadRequest(w, "missing project identifier")
		return
	}

	projectID, err := uuid.Parse(rawID)
	if err != nil {
		response.BadRequest(w, "invalid project identifier")
		return
	}

	project, err := h.projects.Authorize(r.Context(), projectID, r.Header.Get("Origin"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if res := h.limiter.Check(r.Context(), "config", req.VisitorID, project.ID); res.Limited {
		response.TooManyRequests(w, "too many requests", res.RetryAfterSeconds)
		return
	}

	response.OK(w, project.Config())
}
