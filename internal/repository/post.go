package repository

import (
	"context"

	"blog-api/internal/domain"
)

// PostRepository exposes persistence operations for posts. Reads populate
// AuthorUsername from the owning user.
type PostRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, post *domain.Post) (string, error)
	Get(ctx context.Context, id string) (*domain.Post, error)
	Update(ctx context.Context, post *domain.Post) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Post, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Post, error)
}
