package service

import (
	"context"
	"fmt"

	"github.com/askpage/askpage/internal/domain"
	"github.com/askpage/askpage/internal/repository/redis"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ProjectService resolves projects, fronting the repository with a short
// Redis cache since every widget request starts with a project lookup.
type ProjectService struct {
	repo  domain.ProjectRepository
	cache *redis.ProjectCache
}

// NewProjectService creates a new project service. cache may be nil.
func NewProjectService(repo domain.ProjectRepository, cache *redis.ProjectCache) *ProjectService {
	return &ProjectService{repo: repo, cache: cache}
}

// Get returns the project by id
func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, id); err == nil && cached != nil {
			return cached, nil
		}
	}

	project, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, project); err != nil {
			log.Warn().Err(err).Str("project_id", id.String()).Msg("failed to cache project")
		}
	}
	return project, nil
}

// Authorize fetches the project and verifies the request origin against its
// allow-list. A missing or mismatched origin is a domain.ErrForbidden.
func (s *ProjectService) Authorize(ctx context.Context, id uuid.UUID, origin string) (*domain.Project, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !OriginAllowed(origin, project.AllowedOrigins) {
		log.Warn().
			Str("project_id", id.String()).
			Str("origin", origin).
			Msg("origin not allowed")
		return nil, fmt.Errorf("%w: origin not allowed", domain.ErrForbidden)
	}
	return project, nil
}
