package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/askpage/askpage/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProjectRepository implements domain.ProjectRepository
type ProjectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

// Get retrieves a project by id
func (r *ProjectRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	query := `
		SELECT id, name, allowed_origins, freeform_enabled, suggestion_count,
		       refuse_off_topic, theme_color, position, created_at
		FROM projects
		WHERE id = $1
	`
	var p domain.Project
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.AllowedOrigins,
		&p.FreeformEnabled,
		&p.SuggestionCount,
		&p.RefuseOffTopic,
		&p.ThemeColor,
		&p.Position,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}
