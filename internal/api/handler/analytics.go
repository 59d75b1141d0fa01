package handler

import (
	"encoding/json"
	"net/http"

	"github.com/askpage/askpage/internal/api/response"
	"github.com/askpage/askpage/internal/service"
	"github.com/google/uuid"
)

// AnalyticsHandler records widget telemetry events
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

type analyticsRequest struct {
	ProjectID string         `json:"project_id" validate:"required,uuid"`
	EventType string         `json:"event_type" validate:"required,max=64"`
	Label     string         `json:"event_label" validate:"max=512"`
	VisitorID string         `json:"visitor_id" validate:"max=128"`
	SessionID string         `json:"session_id" validate:"max=128"`
	Data      map[string]any `json:"event_data"`
}

// Track validates and records one event
func (h *AnalyticsHandler) Track(w http.ResponseWriter, r *http.Request) {
	var req analyticsRequest
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

	err = h.analytics.Track(r.Context(), service.AnalyticsEvent{
		ProjectID: projectID,
		EventType: req.EventType,
		Label:     req.Label,
		VisitorID: req.VisitorID,
		SessionID: req.SessionID,
		Data:      req.Data,
		Origin:    r.Header.Get("Origin"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.OK(w, map[string]bool{"success": true})
}
