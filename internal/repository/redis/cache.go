package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/askpage/askpage/internal/domain"
	"github.com/google/uuid"
)

const (
	projectCachePrefix = "project:"
	projectCacheTTL    = 5 * time.Minute
)

// ProjectCache caches project rows, which are read on every widget request
type ProjectCache struct {
	client *Client
}

// NewProjectCache creates a new project cache
func NewProjectCache(client *Client) *ProjectCache {
	return &ProjectCache{client: client}
}

// Get retrieves a cached project. A miss returns (nil, nil).
func (c *ProjectCache) Get(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	key := fmt.Sprintf("%s%s", projectCachePrefix, projectID.String())

	data, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, nil // Cache miss
	}

	var project domain.Project
	if err := json.Unmarshal(data, &project); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project: %w", err)
	}

	return &project, nil
}

// Set caches a project row
func (c *ProjectCache) Set(ctx context.Context, project *domain.Project) error {
	key := fmt.Sprintf("%s%s", projectCachePrefix, project.ID.String())

	data, err := json.Marshal(project)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	return c.client.rdb.Set(ctx, key, data, projectCacheTTL).Err()
}

// Invalidate removes a cached project
func (c *ProjectCache) Invalidate(ctx context.Context, projectID uuid.UUID) error {
	key := fmt.Sprintf("%s%s", projectCachePrefix, projectID.String())
	return c.client.rdb.Del(ctx, key).Err()
}
