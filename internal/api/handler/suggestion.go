package handler

import (
	"encoding/json"
	"net/http"

	"github.com/askpage/askpage/internal/api/middleware"
	"github.com/askpage/askpage/internal/api/response"
	"github.com/askpage/askpage/internal/security"
	"github.com/askpage/askpage/internal/service"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SuggestionHandler serves suggested questions for an article
type SuggestionHandler struct {
	suggestions *service.SuggestionService
	issuer      *security.TokenIssuer
}

// NewSuggestionHandler creates a new suggestion handler
func NewSuggestionHandler(suggestions *service.SuggestionService, issuer *security.TokenIssuer) *SuggestionHandler {
	return &SuggestionHandler{suggestions: suggestions, issuer: issuer}
}

type suggestionRequest struct {
	ProjectID string `json:"projectId" validate:"required,uuid"`
	URL       string `json:"url" validate:"required,url"`
	Title     string `json:"title" validate:"max=512"`
	Content   string `json:"content" validate:"required"`
	ImageURL  string `json:"image_url" validate:"omitempty,url"`
	VisitorID string `json:"visitor_id" validate:"max=128"`
}

// Get returns the article's suggested questions, issuing a fresh visitor
// token when the request carried none.
func (h *SuggestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	var req suggestionRequest
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

	suggestions, err := h.suggestions.Suggest(r.Context(), service.SuggestionRequest{
		ProjectID: projectID,
		URL:       req.URL,
		Title:     req.Title,
		Content:   req.Content,
		ImageURL:  req.ImageURL,
		VisitorID: req.VisitorID,
		Origin:    r.Header.Get("Origin"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Anonymous callers get no token; there is no visitor to bind it to.
	if req.VisitorID != "" && middleware.GetVisitorClaims(r.Context()) == nil {
		token, err := h.issuer.Issue(req.VisitorID, req.ProjectID)
		if err != nil {
			log.Error().Err(err).Msg("failed to issue visitor token")
		} else {
			w.Header().Set("X-Visitor-Token", token)
		}
	}

	response.OK(w, map[string]any{"suggestions": suggestions})
}
