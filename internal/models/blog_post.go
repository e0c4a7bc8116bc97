package models

import (
	"strings"
	"time"
)

// Status represents blog post visibility.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Valid returns true if the status is a known value.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s Status) String() string {
	return string(s)
}

// Comment is a single reader comment on a post. Comments are append-only.
type Comment struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// BlogPost represents a blog post document.
//
// Views, Reactions and Comments are engagement state mutated only through
// the store's atomic operations, never by a client-side read-modify-write.
type BlogPost struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Excerpt       string           `json:"excerpt"`
	Content       string           `json:"content"`
	Tags          []string         `json:"tags"`
	ReadingTime   string           `json:"readingTime"`
	FeaturedImage string           `json:"featuredImage,omitempty"`
	References    []string         `json:"references,omitempty"`
	Date          time.Time        `json:"date"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	Status        Status           `json:"status"`
	Views         int64            `json:"views"`
	Reactions     map[string]int64 `json:"reactions"`
	Comments      []Comment        `json:"comments"`
}

// Published returns true if the post is publicly visible.
func (p *BlogPost) Published() bool {
	return p.Status == StatusPublished
}

// Matches reports whether the post matches a free-text query. The match is
// case-insensitive over title, excerpt, content and tags.
func (p *BlogPost) Matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Excerpt), q) ||
		strings.Contains(strings.ToLower(p.Content), q) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// HasTag reports whether the post carries the exact tag.
func (p *BlogPost) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
