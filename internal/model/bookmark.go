package model

import (
	"strings"
	"time"
)

// createdDateLayouts lists the timestamp formats the remote service emits
// for createdDate, most specific first.
var createdDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Bookmark represents a saved URL as stored by the remote service.
type Bookmark struct {
	ID          int64    `json:"bookmarkId,omitempty"` // 0 = not persisted yet
	Title       string   `json:"title" validate:"required,max=200"`
	URL         string   `json:"url" validate:"required,url"`
	Description string   `json:"description"`
	Image       *string  `json:"image,omitempty"`
	NotiDate    *string  `json:"notidate,omitempty"`
	CreatedDate string   `json:"createdDate,omitempty"`
	Tags        []string `json:"tags" validate:"dive,required,max=50"`
}

// NewBookmarkParams holds parameters for creating a new Bookmark.
type NewBookmarkParams struct {
	Title       string
	URL         string
	Description string
	Tags        []string
}

// NewBookmark creates an unpersisted Bookmark. The remote service assigns
// the identifier and creation date.
func NewBookmark(params NewBookmarkParams) Bookmark {
	tags := params.Tags
	if tags == nil {
		tags = []string{}
	}

	return Bookmark{
		Title:       params.Title,
		URL:         params.URL,
		Description: params.Description,
		Tags:        tags,
	}
}

// CreatedAt parses CreatedDate. The second return value is false when the
// service delivered a value none of the known layouts accept.
func (b Bookmark) CreatedAt() (time.Time, bool) {
	s := strings.TrimSpace(b.CreatedDate)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range createdDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// HasTag reports whether the bookmark carries the given tag name.
func (b Bookmark) HasTag(name string) bool {
	for _, t := range b.Tags {
		if t == name {
			return true
		}
	}
	return false
}

// UniqueTags returns the tag names with duplicates removed, first occurrence wins.
func (b Bookmark) UniqueTags() []string {
	seen := make(map[string]bool, len(b.Tags))
	tags := make([]string, 0, len(b.Tags))
	for _, t := range b.Tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	return tags
}

// Clone returns a copy that shares no slices or pointers with b.
func (b Bookmark) Clone() Bookmark {
	c := b
	if b.Tags != nil {
		c.Tags = make([]string, len(b.Tags))
		copy(c.Tags, b.Tags)
	}
	if b.Image != nil {
		img := *b.Image
		c.Image = &img
	}
	if b.NotiDate != nil {
		d := *b.NotiDate
		c.NotiDate = &d
	}
	return c
}
