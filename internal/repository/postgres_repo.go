package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dmarin/portfolio-api/internal/database"
	"github.com/dmarin/portfolio-api/internal/models"
)

// PostgresBlogRepository stores blog posts as jsonb documents with the
// mutable counters in dedicated columns so increments run as single
// UPDATE ... RETURNING statements.
type PostgresBlogRepository struct {
	db *database.Postgres
}

// NewPostgresBlogRepository creates a PostgreSQL-backed blog repository.
func NewPostgresBlogRepository(db *database.Postgres) *PostgresBlogRepository {
	return &PostgresBlogRepository{db: db}
}

func (r *PostgresBlogRepository) Create(ctx context.Context, post *models.BlogPost) error {
	doc, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("failed to marshal blog post: %w", err)
	}

	query := `
		INSERT INTO blog_posts (id, doc, status, created_at)
		VALUES ($1, $2, $3, $4)`

	if _, err := r.db.Pool().Exec(ctx, query, post.ID, doc, string(post.Status), post.Date); err != nil {
		return fmt.Errorf("failed to insert blog post: %w", err)
	}
	return nil
}

func (r *PostgresBlogRepository) GetByID(ctx context.Context, id string) (*models.BlogPost, error) {
	query := `
		SELECT doc, views, reactions, comments
		FROM blog_posts
		WHERE id = $1`

	var doc, reactions, comments []byte
	var views int64
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(&doc, &views, &reactions, &comments)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get blog post: %w", err)
	}
	return assemblePost(doc, views, reactions, comments)
}

func (r *PostgresBlogRepository) List(ctx context.Context) ([]*models.BlogPost, error) {
	query := `
		SELECT doc, views, reactions, comments
		FROM blog_posts
		ORDER BY created_at DESC`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list blog posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.BlogPost
	for rows.Next() {
		var doc, reactions, comments []byte
		var views int64
		if err := rows.Scan(&doc, &views, &reactions, &comments); err != nil {
			return nil, fmt.Errorf("failed to scan blog post: %w", err)
		}
		post, err := assemblePost(doc, views, reactions, comments)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *PostgresBlogRepository) Update(ctx context.Context, post *models.BlogPost) error {
	doc, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("failed to marshal blog post: %w", err)
	}

	query := `
		UPDATE blog_posts
		SET doc = $2, status = $3
		WHERE id = $1`

	if _, err := r.db.Pool().Exec(ctx, query, post.ID, doc, string(post.Status)); err != nil {
		return fmt.Errorf("failed to update blog post: %w", err)
	}
	return nil
}

func (r *PostgresBlogRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Pool().Exec(ctx, `DELETE FROM blog_posts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete blog post: %w", err)
	}
	return nil
}

func (r *PostgresBlogRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	query := `
		UPDATE blog_posts
		SET views = views + 1
		WHERE id = $1
		RETURNING views`

	var views int64
	if err := r.db.Pool().QueryRow(ctx, query, id).Scan(&views); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to increment views: %w", err)
	}
	return views, nil
}

func (r *PostgresBlogRepository) IncrementReaction(ctx context.Context, id, emoji string) (map[string]int64, error) {
	query := `
		UPDATE blog_posts
		SET reactions = jsonb_set(
			reactions,
			ARRAY[$2],
			(COALESCE(reactions->>$2, '0')::bigint + 1)::text::jsonb
		)
		WHERE id = $1
		RETURNING reactions`

	var raw []byte
	if err := r.db.Pool().QueryRow(ctx, query, id, emoji).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to increment reaction: %w", err)
	}

	var reactions map[string]int64
	if err := json.Unmarshal(raw, &reactions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reactions: %w", err)
	}
	return reactions, nil
}

func (r *PostgresBlogRepository) AppendComment(ctx context.Context, id string, comment models.Comment) ([]models.Comment, error) {
	data, err := json.Marshal(comment)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal comment: %w", err)
	}

	query := `
		UPDATE blog_posts
		SET comments = comments || $2::jsonb
		WHERE id = $1
		RETURNING comments`

	var raw []byte
	if err := r.db.Pool().QueryRow(ctx, query, id, data).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to append comment: %w", err)
	}

	var comments []models.Comment
	if err := json.Unmarshal(raw, &comments); err != nil {
		return nil, fmt.Errorf("failed to unmarshal comments: %w", err)
	}
	return comments, nil
}

func assemblePost(doc []byte, views int64, reactions, comments []byte) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := json.Unmarshal(doc, &post); err != nil {
		return nil, fmt.Errorf("failed to unmarshal blog post: %w", err)
	}
	post.Views = views
	if err := json.Unmarshal(reactions, &post.Reactions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reactions: %w", err)
	}
	if err := json.Unmarshal(comments, &post.Comments); err != nil {
		return nil, fmt.Errorf("failed to unmarshal comments: %w", err)
	}
	return &post, nil
}

// PostgresCodeRepository stores one-time auth codes.
type PostgresCodeRepository struct {
	db *database.Postgres
}

// NewPostgresCodeRepository creates a PostgreSQL-backed code repository.
func NewPostgresCodeRepository(db *database.Postgres) *PostgresCodeRepository {
	return &PostgresCodeRepository{db: db}
}

func (r *PostgresCodeRepository) Put(ctx context.Context, code *models.AuthCode) error {
	query := `
		INSERT INTO auth_codes (code, expires_at, created_at, used)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE
		SET expires_at = EXCLUDED.expires_at,
		    created_at = EXCLUDED.created_at,
		    used = EXCLUDED.used`

	if _, err := r.db.Pool().Exec(ctx, query, code.Code, code.ExpiresAt, code.CreatedAt, code.Used); err != nil {
		return fmt.Errorf("failed to store auth code: %w", err)
	}
	return nil
}

func (r *PostgresCodeRepository) Take(ctx context.Context, code string) (*models.AuthCode, error) {
	query := `
		DELETE FROM auth_codes
		WHERE code = $1
		RETURNING expires_at, created_at, used`

	record := models.AuthCode{Code: code}
	err := r.db.Pool().QueryRow(ctx, query, code).Scan(&record.ExpiresAt, &record.CreatedAt, &record.Used)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to take auth code: %w", err)
	}
	return &record, nil
}

// PostgresRateLimitRepository persists rate limit records.
type PostgresRateLimitRepository struct {
	db *database.Postgres
}

// NewPostgresRateLimitRepository creates a PostgreSQL-backed rate limit repository.
func NewPostgresRateLimitRepository(db *database.Postgres) *PostgresRateLimitRepository {
	return &PostgresRateLimitRepository{db: db}
}

func (r *PostgresRateLimitRepository) Get(ctx context.Context, id string) (*models.RateLimitRecord, error) {
	query := `
		SELECT attempts, blocked_until, last_updated
		FROM rate_limits
		WHERE id = $1`

	record := models.RateLimitRecord{ID: id}
	var attempts []byte
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(&attempts, &record.BlockedUntil, &record.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get rate limit record: %w", err)
	}
	if err := json.Unmarshal(attempts, &record.Attempts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attempts: %w", err)
	}
	return &record, nil
}

func (r *PostgresRateLimitRepository) Put(ctx context.Context, record *models.RateLimitRecord) error {
	attempts, err := json.Marshal(record.Attempts)
	if err != nil {
		return fmt.Errorf("failed to marshal attempts: %w", err)
	}

	query := `
		INSERT INTO rate_limits (id, attempts, blocked_until, last_updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET attempts = EXCLUDED.attempts,
		    blocked_until = EXCLUDED.blocked_until,
		    last_updated = EXCLUDED.last_updated`

	if _, err := r.db.Pool().Exec(ctx, query, record.ID, attempts, record.BlockedUntil, record.LastUpdated); err != nil {
		return fmt.Errorf("failed to store rate limit record: %w", err)
	}
	return nil
}

// PostgresContactRepository stores contact messages as jsonb documents.
type PostgresContactRepository struct {
	db *database.Postgres
}

// NewPostgresContactRepository creates a PostgreSQL-backed contact repository.
func NewPostgresContactRepository(db *database.Postgres) *PostgresContactRepository {
	return &PostgresContactRepository{db: db}
}

func (r *PostgresContactRepository) Put(ctx context.Context, msg *models.ContactMessage) error {
	doc, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal contact message: %w", err)
	}

	query := `
		INSERT INTO contact_messages (id, doc, created_at)
		VALUES ($1, $2, $3)`

	if _, err := r.db.Pool().Exec(ctx, query, msg.ID, doc, msg.Timestamp); err != nil {
		return fmt.Errorf("failed to store contact message: %w", err)
	}
	return nil
}
