package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Suggestion is a pre-generated candidate question for an article.
// Answer may be empty until the first visitor asks it.
type Suggestion struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
}

// FreeformQA is a visitor-typed question and its generated answer,
// recorded alongside the pre-generated suggestions.
type FreeformQA struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

// ArticleCache holds the generated artifacts attached to an article row
type ArticleCache struct {
	Suggestions []Suggestion `json:"suggestions,omitempty"`
	Freeform    []FreeformQA `json:"freeform,omitempty"`
}

// Suggestion returns the cached suggestion with the given id, if any
func (c *ArticleCache) Suggestion(id string) *Suggestion {
	if c == nil {
		return nil
	}
	for i := range c.Suggestions {
		if c.Suggestions[i].ID == id {
			return &c.Suggestions[i]
		}
	}
	return nil
}

// Article is a page the widget has seen, keyed by url+project ("unique id").
// Many conversations may reference one article.
type Article struct {
	ID        uuid.UUID     `json:"id"`
	ProjectID uuid.UUID     `json:"project_id"`
	UniqueID  string        `json:"unique_id"`
	URL       string        `json:"url"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	ImageURL  string        `json:"image_url,omitempty"`
	Cache     *ArticleCache `json:"cache,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ArticleUniqueID builds the natural key for an article
func ArticleUniqueID(url string, projectID uuid.UUID) string {
	return url + projectID.String()
}

// ArticleRepository defines the interface for article storage
type ArticleRepository interface {
	GetOrCreate(ctx context.Context, article *Article) (*Article, error)
	GetByUniqueID(ctx context.Context, uniqueID string) (*Article, error)
	UpdateImage(ctx context.Context, id uuid.UUID, imageURL string) error
	UpdateCache(ctx context.Context, id uuid.UUID, cache *ArticleCache) error
}
