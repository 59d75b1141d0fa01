package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/askpage/askpage/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ArticleRepository implements domain.ArticleRepository
type ArticleRepository struct {
	pool *pgxpool.Pool
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(pool *pgxpool.Pool) *ArticleRepository {
	return &ArticleRepository{pool: pool}
}

// GetOrCreate returns the article with the given unique id, inserting it
// first if absent. The unique_id constraint makes concurrent first
// references converge on one row.
func (r *ArticleRepository) GetOrCreate(ctx context.Context, article *domain.Article) (*domain.Article, error) {
	now := time.Now()
	insert := `
		INSERT INTO articles (id, project_id, unique_id, url, title, content, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (unique_id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, insert,
		uuid.New(),
		article.ProjectID,
		article.UniqueID,
		article.URL,
		article.Title,
		article.Content,
		article.ImageURL,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create article: %w", err)
	}

	return r.GetByUniqueID(ctx, article.UniqueID)
}

// GetByUniqueID retrieves an article by its url+project natural key
func (r *ArticleRepository) GetByUniqueID(ctx context.Context, uniqueID string) (*domain.Article, error) {
	query := `
		SELECT id, project_id, unique_id, url, title, content, image_url, cache, created_at, updated_at
		FROM articles
		WHERE unique_id = $1
	`
	var a domain.Article
	var cacheJSON []byte

	err := r.pool.QueryRow(ctx, query, uniqueID).Scan(
		&a.ID,
		&a.ProjectID,
		&a.UniqueID,
		&a.URL,
		&a.Title,
		&a.Content,
		&a.ImageURL,
		&cacheJSON,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	if len(cacheJSON) > 0 {
		var cache domain.ArticleCache
		if err := json.Unmarshal(cacheJSON, &cache); err != nil {
			return nil, fmt.Errorf("failed to unmarshal article cache: %w", err)
		}
		a.Cache = &cache
	}
	return &a, nil
}

// UpdateImage sets the article image, only when none is stored yet
func (r *ArticleRepository) UpdateImage(ctx context.Context, id uuid.UUID, imageURL string) error {
	query := `
		UPDATE articles
		SET image_url = $2, updated_at = $3
		WHERE id = $1 AND (image_url IS NULL OR image_url = '')
	`
	if _, err := r.pool.Exec(ctx, query, id, imageURL, time.Now()); err != nil {
		return fmt.Errorf("failed to update article image: %w", err)
	}
	return nil
}

// UpdateCache replaces the article's cached suggestion artifacts
func (r *ArticleRepository) UpdateCache(ctx context.Context, id uuid.UUID, cache *domain.ArticleCache) error {
	data, err := json.Marshal(cache)
	if err != nil {
		return fmt.Errorf("failed to marshal article cache: %w", err)
	}

	query := `
		UPDATE articles
		SET cache = $2::jsonb, updated_at = $3
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, data, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update article cache: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
