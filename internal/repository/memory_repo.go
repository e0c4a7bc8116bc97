package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/dmarin/portfolio-api/internal/models"
)

// MemoryBlogRepository is an in-memory blog repository used by the memory
// storage driver and in tests. All operations are safe for concurrent use.
type MemoryBlogRepository struct {
	mu    sync.Mutex
	posts map[string]*models.BlogPost
}

// NewMemoryBlogRepository creates an in-memory blog repository.
func NewMemoryBlogRepository() *MemoryBlogRepository {
	return &MemoryBlogRepository{posts: make(map[string]*models.BlogPost)}
}

func (r *MemoryBlogRepository) Create(ctx context.Context, post *models.BlogPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[post.ID] = clonePost(post)
	return nil
}

func (r *MemoryBlogRepository) GetByID(ctx context.Context, id string) (*models.BlogPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	return clonePost(post), nil
}

func (r *MemoryBlogRepository) List(ctx context.Context) ([]*models.BlogPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	posts := make([]*models.BlogPost, 0, len(r.posts))
	for _, post := range r.posts {
		posts = append(posts, clonePost(post))
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].Date.After(posts[j].Date) })
	return posts, nil
}

func (r *MemoryBlogRepository) Update(ctx context.Context, post *models.BlogPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.posts[post.ID]
	if !ok {
		r.posts[post.ID] = clonePost(post)
		return nil
	}
	updated := clonePost(post)
	// Engagement counters are owned by the increment operations.
	updated.Views = existing.Views
	updated.Reactions = existing.Reactions
	updated.Comments = existing.Comments
	r.posts[post.ID] = updated
	return nil
}

func (r *MemoryBlogRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.posts, id)
	return nil
}

func (r *MemoryBlogRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return 0, nil
	}
	post.Views++
	return post.Views, nil
}

func (r *MemoryBlogRepository) IncrementReaction(ctx context.Context, id, emoji string) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	if post.Reactions == nil {
		post.Reactions = make(map[string]int64)
	}
	post.Reactions[emoji]++
	reactions := make(map[string]int64, len(post.Reactions))
	for k, v := range post.Reactions {
		reactions[k] = v
	}
	return reactions, nil
}

func (r *MemoryBlogRepository) AppendComment(ctx context.Context, id string, comment models.Comment) ([]models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	post.Comments = append(post.Comments, comment)
	comments := make([]models.Comment, len(post.Comments))
	copy(comments, post.Comments)
	return comments, nil
}

func clonePost(post *models.BlogPost) *models.BlogPost {
	c := *post
	if post.Tags != nil {
		c.Tags = append([]string(nil), post.Tags...)
	}
	if post.References != nil {
		c.References = append([]string(nil), post.References...)
	}
	if post.Reactions != nil {
		c.Reactions = make(map[string]int64, len(post.Reactions))
		for k, v := range post.Reactions {
			c.Reactions[k] = v
		}
	}
	if post.Comments != nil {
		c.Comments = append([]models.Comment(nil), post.Comments...)
	}
	return &c
}

// MemoryCodeRepository is an in-memory one-time code repository.
type MemoryCodeRepository struct {
	mu    sync.Mutex
	codes map[string]*models.AuthCode
}

// NewMemoryCodeRepository creates an in-memory code repository.
func NewMemoryCodeRepository() *MemoryCodeRepository {
	return &MemoryCodeRepository{codes: make(map[string]*models.AuthCode)}
}

func (r *MemoryCodeRepository) Put(ctx context.Context, code *models.AuthCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *code
	r.codes[code.Code] = &c
	return nil
}

func (r *MemoryCodeRepository) Take(ctx context.Context, code string) (*models.AuthCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.codes[code]
	if !ok {
		return nil, nil
	}
	delete(r.codes, code)
	return record, nil
}

// MemoryRateLimitRepository is an in-memory rate limit record store.
type MemoryRateLimitRepository struct {
	mu      sync.Mutex
	records map[string]*models.RateLimitRecord
}

// NewMemoryRateLimitRepository creates an in-memory rate limit repository.
func NewMemoryRateLimitRepository() *MemoryRateLimitRepository {
	return &MemoryRateLimitRepository{records: make(map[string]*models.RateLimitRecord)}
}

func (r *MemoryRateLimitRepository) Get(ctx context.Context, id string) (*models.RateLimitRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	c := *record
	c.Attempts = append([]int64(nil), record.Attempts...)
	return &c, nil
}

func (r *MemoryRateLimitRepository) Put(ctx context.Context, record *models.RateLimitRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *record
	c.Attempts = append([]int64(nil), record.Attempts...)
	r.records[record.ID] = &c
	return nil
}

// MemoryContactRepository is an in-memory contact message store.
type MemoryContactRepository struct {
	mu       sync.Mutex
	messages map[string]*models.ContactMessage
}

// NewMemoryContactRepository creates an in-memory contact repository.
func NewMemoryContactRepository() *MemoryContactRepository {
	return &MemoryContactRepository{messages: make(map[string]*models.ContactMessage)}
}

func (r *MemoryContactRepository) Put(ctx context.Context, msg *models.ContactMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *msg
	r.messages[msg.ID] = &c
	return nil
}

// Messages returns all stored messages. Test helper.
func (r *MemoryContactRepository) Messages() []*models.ContactMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.ContactMessage, 0, len(r.messages))
	for _, m := range r.messages {
		c := *m
		out = append(out, &c)
	}
	return out
}
