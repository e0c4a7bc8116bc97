package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmarin/portfolio-api/internal/models"
	apierrors "github.com/dmarin/portfolio-api/internal/pkg/errors"
	"github.com/dmarin/portfolio-api/internal/pkg/ident"
	"github.com/dmarin/portfolio-api/internal/repository"
)

const (
	defaultListLimit   = 50
	maxTitleLength     = 200
	maxContentLength   = 100000
	maxCommentName     = 80
	maxCommentContent  = 2000
	defaultReadingTime = "5 min"
)

// ListParams filter and paginate a blog listing.
type ListParams struct {
	Limit   int
	LastKey string
	Query   string
	Tag     string
	// IncludeDrafts is set when the caller presented a valid session.
	IncludeDrafts bool
}

// ListResult is one page of a blog listing.
type ListResult struct {
	Blogs   []*models.BlogPost `json:"blogs"`
	LastKey string             `json:"lastKey,omitempty"`
	Count   int                `json:"count"`
}

// CreateBlogInput holds the client-supplied fields of a new post.
type CreateBlogInput struct {
	Title         string   `json:"title"`
	Excerpt       string   `json:"excerpt"`
	Content       string   `json:"content"`
	Tags          []string `json:"tags"`
	ReadingTime   string   `json:"readingTime"`
	FeaturedImage string   `json:"featuredImage"`
	References    []string `json:"references"`
	Status        string   `json:"status"`
}

// UpdateBlogInput holds a partial update. Nil fields are left untouched;
// anything outside this whitelist never reaches storage.
type UpdateBlogInput struct {
	Title         *string   `json:"title"`
	Excerpt       *string   `json:"excerpt"`
	Content       *string   `json:"content"`
	Tags          *[]string `json:"tags"`
	ReadingTime   *string   `json:"readingTime"`
	Status        *string   `json:"status"`
	FeaturedImage *string   `json:"featuredImage"`
	References    *[]string `json:"references"`
}

func (u *UpdateBlogInput) empty() bool {
	return u.Title == nil && u.Excerpt == nil && u.Content == nil &&
		u.Tags == nil && u.ReadingTime == nil && u.Status == nil &&
		u.FeaturedImage == nil && u.References == nil
}

// BlogService implements blog content and engagement operations.
type BlogService struct {
	repo        repository.BlogRepository
	logger      *slog.Logger
	development bool
	now         func() time.Time
}

// NewBlogService creates a blog service.
func NewBlogService(repo repository.BlogRepository, logger *slog.Logger, development bool) *BlogService {
	return &BlogService{
		repo:        repo,
		logger:      logger,
		development: development,
		now:         time.Now,
	}
}

// List returns one page of posts, newest first. Drafts are only included
// for authenticated callers. Search and tag filtering scan the full set;
// the catalog is small enough that an index would not pay for itself.
func (s *BlogService) List(ctx context.Context, params ListParams) (*ListResult, error) {
	posts, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list blog posts", "error", err)
		return nil, apierrors.NewUpstreamError("Failed to list posts", err, s.development)
	}

	filtered := make([]*models.BlogPost, 0, len(posts))
	for _, post := range posts {
		if !params.IncludeDrafts && !post.Published() {
			continue
		}
		if params.Tag != "" && !post.HasTag(params.Tag) {
			continue
		}
		if !post.Matches(params.Query) {
			continue
		}
		filtered = append(filtered, post)
	}

	// Resume after the cursor.
	start := 0
	if params.LastKey != "" {
		for i, post := range filtered {
			if post.ID == params.LastKey {
				start = i + 1
				break
			}
		}
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	end := start + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	page := filtered[start:end]

	result := &ListResult{Blogs: page, Count: len(page)}
	if end < len(filtered) && len(page) > 0 {
		result.LastKey = page[len(page)-1].ID
	}
	return result, nil
}

// Get returns a single post by id.
func (s *BlogService) Get(ctx context.Context, id string) (*models.BlogPost, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get blog post", "id", id, "error", err)
		return nil, apierrors.NewUpstreamError("Failed to get post", err, s.development)
	}
	if post == nil {
		return nil, apierrors.NewNotFoundError("Blog post")
	}
	return post, nil
}

// Create stores a new post with server-assigned id, timestamps and defaults.
func (s *BlogService) Create(ctx context.Context, input CreateBlogInput) (*models.BlogPost, error) {
	var missing []string
	if strings.TrimSpace(input.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(input.Excerpt) == "" {
		missing = append(missing, "excerpt")
	}
	if strings.TrimSpace(input.Content) == "" {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		return nil, apierrors.NewMissingFieldsError(missing...)
	}
	if len(input.Title) > maxTitleLength {
		return nil, apierrors.NewValidationError("title", "title exceeds 200 characters")
	}
	if len(input.Content) > maxContentLength {
		return nil, apierrors.NewValidationError("content", "content exceeds 100000 characters")
	}

	status := models.StatusPublished
	if input.Status != "" {
		status = models.Status(input.Status)
		if !status.Valid() {
			return nil, apierrors.NewValidationError("status", "status must be draft or published")
		}
	}

	now := s.now()
	post := &models.BlogPost{
		ID:            ident.New("blog"),
		Title:         input.Title,
		Excerpt:       input.Excerpt,
		Content:       input.Content,
		Tags:          input.Tags,
		ReadingTime:   input.ReadingTime,
		FeaturedImage: input.FeaturedImage,
		References:    input.References,
		Date:          now,
		UpdatedAt:     now,
		Status:        status,
		Reactions:     map[string]int64{},
		Comments:      []models.Comment{},
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}
	if post.ReadingTime == "" {
		post.ReadingTime = defaultReadingTime
	}

	if err := s.repo.Create(ctx, post); err != nil {
		s.logger.Error("failed to create blog post", "error", err)
		return nil, apierrors.NewUpstreamError("Failed to create post", err, s.development)
	}

	s.logger.Info("blog post created", "id", post.ID, "status", post.Status)
	return post, nil
}

// Update applies a partial update. An update carrying no whitelisted field
// is rejected; updatedAt is always rewritten.
func (s *BlogService) Update(ctx context.Context, id string, input UpdateBlogInput) (*models.BlogPost, error) {
	if input.empty() {
		return nil, apierrors.ErrBadRequest.WithMessage("No fields to update")
	}

	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get blog post", "id", id, "error", err)
		return nil, apierrors.NewUpstreamError("Failed to update post", err, s.development)
	}
	if post == nil {
		return nil, apierrors.NewNotFoundError("Blog post")
	}

	if input.Title != nil {
		post.Title = *input.Title
	}
	if input.Excerpt != nil {
		post.Excerpt = *input.Excerpt
	}
	if input.Content != nil {
		post.Content = *input.Content
	}
	if input.Tags != nil {
		post.Tags = *input.Tags
	}
	if input.ReadingTime != nil {
		post.ReadingTime = *input.ReadingTime
	}
	if input.FeaturedImage != nil {
		post.FeaturedImage = *input.FeaturedImage
	}
	if input.References != nil {
		post.References = *input.References
	}
	if input.Status != nil {
		status := models.Status(*input.Status)
		if !status.Valid() {
			return nil, apierrors.NewValidationError("status", "status must be draft or published")
		}
		post.Status = status
	}
	post.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, post); err != nil {
		s.logger.Error("failed to update blog post", "id", id, "error", err)
		return nil, apierrors.NewUpstreamError("Failed to update post", err, s.development)
	}

	s.logger.Info("blog post updated", "id", id)
	return post, nil
}

// Delete removes a post and its engagement state.
func (s *BlogService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete blog post", "id", id, "error", err)
		return apierrors.NewUpstreamError("Failed to delete post", err, s.development)
	}
	s.logger.Info("blog post deleted", "id", id)
	return nil
}

// RecordView atomically increments a post's view counter and returns the
// new total.
func (s *BlogService) RecordView(ctx context.Context, id string) (int64, error) {
	views, err := s.repo.IncrementViews(ctx, id)
	if err != nil {
		s.logger.Error("failed to record view", "id", id, "error", err)
		return 0, apierrors.NewUpstreamError("Failed to record view", err, s.development)
	}
	if views == 0 {
		return 0, apierrors.NewNotFoundError("Blog post")
	}
	return views, nil
}

// React atomically increments one emoji's counter and returns the full
// reaction map.
func (s *BlogService) React(ctx context.Context, id, emoji string) (map[string]int64, error) {
	if strings.TrimSpace(emoji) == "" {
		return nil, apierrors.NewMissingFieldsError("emoji")
	}
	reactions, err := s.repo.IncrementReaction(ctx, id, emoji)
	if err != nil {
		s.logger.Error("failed to record reaction", "id", id, "error", err)
		return nil, apierrors.NewUpstreamError("Failed to record reaction", err, s.development)
	}
	if reactions == nil {
		return nil, apierrors.NewNotFoundError("Blog post")
	}
	return reactions, nil
}

// AddComment appends a reader comment. The hidden website field is a spam
// honeypot: when it is filled nothing is stored and stored=false comes back
// so the handler can shape an ambiguous success.
func (s *BlogService) AddComment(ctx context.Context, id, name, content, website string) ([]models.Comment, bool, error) {
	var missing []string
	if strings.TrimSpace(name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(content) == "" {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		return nil, false, apierrors.NewMissingFieldsError(missing...)
	}

	if website != "" {
		s.logger.Info("comment honeypot triggered", "id", id)
		return nil, false, nil
	}

	name = truncateRunes(name, maxCommentName)
	content = truncateRunes(content, maxCommentContent)

	comment := models.Comment{
		ID:        uuid.NewString(),
		Name:      name,
		Content:   content,
		CreatedAt: s.now(),
	}
	comments, err := s.repo.AppendComment(ctx, id, comment)
	if err != nil {
		s.logger.Error("failed to append comment", "id", id, "error", err)
		return nil, false, apierrors.NewUpstreamError("Failed to add comment", err, s.development)
	}
	if comments == nil {
		return nil, false, apierrors.NewNotFoundError("Blog post")
	}
	return comments, true, nil
}

// truncateRunes caps s at max characters. Limits are counted in runes so a
// cut never splits a multibyte character.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
