package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Project represents a customer site that embeds the widget
type Project struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	AllowedOrigins  []string  `json:"allowed_origins"`
	FreeformEnabled bool      `json:"freeform_enabled"`
	SuggestionCount int       `json:"suggestion_count"`
	RefuseOffTopic  bool      `json:"refuse_off_topic"`
	ThemeColor      string    `json:"theme_color"`
	Position        string    `json:"position"`
	CreatedAt       time.Time `json:"created_at"`
}

// WidgetConfig is the subset of project settings the embed script needs
type WidgetConfig struct {
	ProjectID       uuid.UUID `json:"project_id"`
	Name            string    `json:"name"`
	ThemeColor      string    `json:"theme_color"`
	Position        string    `json:"position"`
	FreeformEnabled bool      `json:"freeform_enabled"`
	SuggestionCount int       `json:"suggestion_count"`
}

// Config returns the client-visible widget configuration
func (p *Project) Config() WidgetConfig {
	return WidgetConfig{
		ProjectID:       p.ID,
		Name:            p.Name,
		ThemeColor:      p.ThemeColor,
		Position:        p.Position,
		FreeformEnabled: p.FreeformEnabled,
		SuggestionCount: p.SuggestionCount,
	}
}

// ProjectRepository defines the interface for project lookup
type ProjectRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*Project, error)
}
