package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pickabook/pkb/internal/model"
)

// ListTags returns one page of the user's tags.
func (c *Client) ListTags(ctx context.Context, page, size int) ([]model.Tag, error) {
	var tags []model.Tag
	if err := c.do(ctx, http.MethodGet, "/bookmark/tags", pageQuery(page, size), nil, &tags); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	return tags, nil
}

// ListBookmarks returns one page of the user's bookmarks.
func (c *Client) ListBookmarks(ctx context.Context, page, size int) ([]model.Bookmark, error) {
	var bookmarks []model.Bookmark
	if err := c.do(ctx, http.MethodGet, "/bookmark", pageQuery(page, size), nil, &bookmarks); err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	if bookmarks == nil {
		bookmarks = []model.Bookmark{}
	}
	return bookmarks, nil
}

// ListBookmarksByTag returns one page of the bookmarks carrying a tag.
func (c *Client) ListBookmarksByTag(ctx context.Context, tagID int64, page, size int) ([]model.Bookmark, error) {
	path := fmt.Sprintf("/bookmark/tag/%d", tagID)
	var bookmarks []model.Bookmark
	if err := c.do(ctx, http.MethodGet, path, pageQuery(page, size), nil, &bookmarks); err != nil {
		return nil, fmt.Errorf("list bookmarks of tag %d: %w", tagID, err)
	}
	if bookmarks == nil {
		bookmarks = []model.Bookmark{}
	}
	return bookmarks, nil
}

// CreateBookmark stores a new bookmark and returns it with the
// service-assigned identifier.
func (c *Client) CreateBookmark(ctx context.Context, b model.Bookmark) (model.Bookmark, error) {
	b.ID = 0
	if b.Tags == nil {
		b.Tags = []string{}
	}
	var created model.Bookmark
	if err := c.do(ctx, http.MethodPost, "/bookmark", nil, b, &created); err != nil {
		return model.Bookmark{}, fmt.Errorf("create bookmark: %w", err)
	}
	return created, nil
}

// UpdateBookmark replaces a stored bookmark.
func (c *Client) UpdateBookmark(ctx context.Context, b model.Bookmark) error {
	path := fmt.Sprintf("/bookmark/%d", b.ID)
	if err := c.do(ctx, http.MethodPut, path, nil, b, nil); err != nil {
		return fmt.Errorf("update bookmark %d: %w", b.ID, err)
	}
	return nil
}

// DeleteBookmark removes a stored bookmark.
func (c *Client) DeleteBookmark(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/bookmark/delete/%d", id)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("delete bookmark %d: %w", id, err)
	}
	return nil
}
