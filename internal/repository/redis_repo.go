package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/dmarin/portfolio-api/internal/database"
	"github.com/dmarin/portfolio-api/internal/models"
)

const (
	blogKeyPrefix      = "blog:"
	blogIndexKey       = "blog:ids"
	blogViewsPrefix    = "blog:views:"
	blogReactsPrefix   = "blog:reactions:"
	blogCommentsPrefix = "blog:comments:"
	authCodePrefix     = "authcode:"
	rateLimitPrefix    = "ratelimit:"
	contactPrefix      = "contact:"
)

// RedisBlogRepository stores blog posts in Redis. The post document lives
// at a plain key while views, reactions and comments live in dedicated
// counter structures so increments stay atomic under concurrency.
type RedisBlogRepository struct {
	db *database.Redis
}

// NewRedisBlogRepository creates a Redis-backed blog repository.
func NewRedisBlogRepository(db *database.Redis) *RedisBlogRepository {
	return &RedisBlogRepository{db: db}
}

func (r *RedisBlogRepository) Create(ctx context.Context, post *models.BlogPost) error {
	data, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("failed to marshal blog post: %w", err)
	}
	if err := r.db.Set(ctx, blogKeyPrefix+post.ID, data, 0); err != nil {
		return fmt.Errorf("failed to store blog post: %w", err)
	}
	if err := r.db.SAdd(ctx, blogIndexKey, post.ID); err != nil {
		return fmt.Errorf("failed to index blog post: %w", err)
	}
	return nil
}

func (r *RedisBlogRepository) GetByID(ctx context.Context, id string) (*models.BlogPost, error) {
	data, err := r.db.Get(ctx, blogKeyPrefix+id)
	if err != nil {
		if database.IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get blog post: %w", err)
	}

	var post models.BlogPost
	if err := json.Unmarshal([]byte(data), &post); err != nil {
		return nil, fmt.Errorf("failed to unmarshal blog post: %w", err)
	}
	if err := r.loadCounters(ctx, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *RedisBlogRepository) List(ctx context.Context) ([]*models.BlogPost, error) {
	ids, err := r.db.SMembers(ctx, blogIndexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list blog posts: %w", err)
	}

	posts := make([]*models.BlogPost, 0, len(ids))
	for _, id := range ids {
		post, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if post == nil {
			// Index entry outlived the document, drop it.
			_ = r.db.SRem(ctx, blogIndexKey, id)
			continue
		}
		posts = append(posts, post)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].Date.After(posts[j].Date) })
	return posts, nil
}

func (r *RedisBlogRepository) Update(ctx context.Context, post *models.BlogPost) error {
	data, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("failed to marshal blog post: %w", err)
	}
	if err := r.db.Set(ctx, blogKeyPrefix+post.ID, data, 0); err != nil {
		return fmt.Errorf("failed to update blog post: %w", err)
	}
	return nil
}

func (r *RedisBlogRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.Delete(ctx,
		blogKeyPrefix+id,
		blogViewsPrefix+id,
		blogReactsPrefix+id,
		blogCommentsPrefix+id,
	); err != nil {
		return fmt.Errorf("failed to delete blog post: %w", err)
	}
	if err := r.db.SRem(ctx, blogIndexKey, id); err != nil {
		return fmt.Errorf("failed to unindex blog post: %w", err)
	}
	return nil
}

// exists reports whether a post document is stored for id. Counter keys
// are only touched for posts that exist so deletes stay complete.
func (r *RedisBlogRepository) exists(ctx context.Context, id string) (bool, error) {
	_, err := r.db.Get(ctx, blogKeyPrefix+id)
	if err != nil {
		if database.IsNil(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check blog post: %w", err)
	}
	return true, nil
}

func (r *RedisBlogRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	ok, err := r.exists(ctx, id)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	views, err := r.db.Incr(ctx, blogViewsPrefix+id)
	if err != nil {
		return 0, fmt.Errorf("failed to increment views: %w", err)
	}
	return views, nil
}

func (r *RedisBlogRepository) IncrementReaction(ctx context.Context, id, emoji string) (map[string]int64, error) {
	ok, err := r.exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	raw, err := r.db.HIncrBy(ctx, blogReactsPrefix+id, emoji, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to increment reaction: %w", err)
	}
	reactions := make(map[string]int64, len(raw))
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt reaction counter %q: %w", k, err)
		}
		reactions[k] = n
	}
	return reactions, nil
}

func (r *RedisBlogRepository) AppendComment(ctx context.Context, id string, comment models.Comment) ([]models.Comment, error) {
	ok, err := r.exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	data, err := json.Marshal(comment)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal comment: %w", err)
	}
	raw, err := r.db.RPush(ctx, blogCommentsPrefix+id, data)
	if err != nil {
		return nil, fmt.Errorf("failed to append comment: %w", err)
	}
	return decodeComments(raw)
}

// loadCounters overlays the live counter state onto a stored document.
func (r *RedisBlogRepository) loadCounters(ctx context.Context, post *models.BlogPost) error {
	views, err := r.db.Get(ctx, blogViewsPrefix+post.ID)
	if err != nil && !database.IsNil(err) {
		return fmt.Errorf("failed to get views: %w", err)
	}
	if views != "" {
		n, err := strconv.ParseInt(views, 10, 64)
		if err != nil {
			return fmt.Errorf("corrupt view counter: %w", err)
		}
		post.Views = n
	}

	raw, err := r.db.HGetAll(ctx, blogReactsPrefix+post.ID)
	if err != nil {
		return fmt.Errorf("failed to get reactions: %w", err)
	}
	if len(raw) > 0 {
		post.Reactions = make(map[string]int64, len(raw))
		for k, v := range raw {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("corrupt reaction counter %q: %w", k, err)
			}
			post.Reactions[k] = n
		}
	}

	items, err := r.db.LRange(ctx, blogCommentsPrefix+post.ID)
	if err != nil {
		return fmt.Errorf("failed to get comments: %w", err)
	}
	if len(items) > 0 {
		comments, err := decodeComments(items)
		if err != nil {
			return err
		}
		post.Comments = comments
	}
	return nil
}

func decodeComments(items []string) ([]models.Comment, error) {
	comments := make([]models.Comment, 0, len(items))
	for _, item := range items {
		var c models.Comment
		if err := json.Unmarshal([]byte(item), &c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, nil
}

// RedisCodeRepository stores one-time auth codes in Redis. Codes carry
// their expiry in the record rather than as a key TTL so an expired code
// still answers differently from an unknown one.
type RedisCodeRepository struct {
	db *database.Redis
}

// NewRedisCodeRepository creates a Redis-backed code repository.
func NewRedisCodeRepository(db *database.Redis) *RedisCodeRepository {
	return &RedisCodeRepository{db: db}
}

func (r *RedisCodeRepository) Put(ctx context.Context, code *models.AuthCode) error {
	data, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("failed to marshal auth code: %w", err)
	}
	if err := r.db.Set(ctx, authCodePrefix+code.Code, data, 0); err != nil {
		return fmt.Errorf("failed to store auth code: %w", err)
	}
	return nil
}

func (r *RedisCodeRepository) Take(ctx context.Context, code string) (*models.AuthCode, error) {
	data, err := r.db.GetDel(ctx, authCodePrefix+code)
	if err != nil {
		if database.IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to take auth code: %w", err)
	}

	var record models.AuthCode
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auth code: %w", err)
	}
	return &record, nil
}

// RedisRateLimitRepository persists rate limit records in Redis.
type RedisRateLimitRepository struct {
	db *database.Redis
}

// NewRedisRateLimitRepository creates a Redis-backed rate limit repository.
func NewRedisRateLimitRepository(db *database.Redis) *RedisRateLimitRepository {
	return &RedisRateLimitRepository{db: db}
}

func (r *RedisRateLimitRepository) Get(ctx context.Context, id string) (*models.RateLimitRecord, error) {
	data, err := r.db.Get(ctx, rateLimitPrefix+id)
	if err != nil {
		if database.IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get rate limit record: %w", err)
	}

	var record models.RateLimitRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rate limit record: %w", err)
	}
	return &record, nil
}

func (r *RedisRateLimitRepository) Put(ctx context.Context, record *models.RateLimitRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal rate limit record: %w", err)
	}
	if err := r.db.Set(ctx, rateLimitPrefix+record.ID, data, 0); err != nil {
		return fmt.Errorf("failed to store rate limit record: %w", err)
	}
	return nil
}

// RedisContactRepository stores contact messages in Redis.
type RedisContactRepository struct {
	db *database.Redis
}

// NewRedisContactRepository creates a Redis-backed contact repository.
func NewRedisContactRepository(db *database.Redis) *RedisContactRepository {
	return &RedisContactRepository{db: db}
}

func (r *RedisContactRepository) Put(ctx context.Context, msg *models.ContactMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal contact message: %w", err)
	}
	if err := r.db.Set(ctx, contactPrefix+msg.ID, data, 0); err != nil {
		return fmt.Errorf("failed to store contact message: %w", err)
	}
	return nil
}
