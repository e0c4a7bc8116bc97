// Package repository provides data access for portfolio content and auth state.
package repository

import (
	"context"

	"github.com/dmarin/portfolio-api/internal/models"
)

// BlogRepository handles blog post storage. Lookups for missing posts
// return (nil, nil) rather than an error.
type BlogRepository interface {
	Create(ctx context.Context, post *models.BlogPost) error
	GetByID(ctx context.Context, id string) (*models.BlogPost, error)
	// List returns every stored post. Filtering, ordering and pagination
	// happen above the repository.
	List(ctx context.Context) ([]*models.BlogPost, error)
	Update(ctx context.Context, post *models.BlogPost) error
	Delete(ctx context.Context, id string) error

	// IncrementViews atomically bumps the view counter and returns the
	// new total, or (0, nil) when the post does not exist. Concurrent
	// callers never lose an increment.
	IncrementViews(ctx context.Context, id string) (int64, error)
	// IncrementReaction atomically bumps one emoji's counter and returns
	// the full reaction map, or (nil, nil) when the post does not exist.
	IncrementReaction(ctx context.Context, id, emoji string) (map[string]int64, error)
	// AppendComment atomically appends a comment and returns the full
	// list, or (nil, nil) when the post does not exist.
	AppendComment(ctx context.Context, id string, comment models.Comment) ([]models.Comment, error)
}

// CodeRepository handles one-time authentication codes.
type CodeRepository interface {
	Put(ctx context.Context, code *models.AuthCode) error
	// Take atomically fetches and deletes a code, returning (nil, nil)
	// when it does not exist. Two concurrent takers cannot both succeed.
	Take(ctx context.Context, code string) (*models.AuthCode, error)
}

// RateLimitRepository persists durable rate limit records keyed by
// limiter scope (IP or email). Missing records return (nil, nil).
type RateLimitRepository interface {
	Get(ctx context.Context, id string) (*models.RateLimitRecord, error)
	Put(ctx context.Context, record *models.RateLimitRecord) error
}

// ContactRepository stores inbound contact messages.
type ContactRepository interface {
	Put(ctx context.Context, msg *models.ContactMessage) error
}
