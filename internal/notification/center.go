// Package notification keeps the list of bookmark reminders.
package notification

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/pickabook/pkb/internal/model"
)

// DefaultPageSize is the number of notifications requested per load.
const DefaultPageSize = 100

// Service is the part of the remote API used for notifications.
type Service interface {
	ListNotifications(ctx context.Context, page, size int) ([]model.Notification, error)
	CheckNotification(ctx context.Context, id int64) error
}

// Center holds the most recently loaded notifications.
type Center struct {
	svc      Service
	logger   *zap.Logger
	pageSize int

	mu   sync.RWMutex
	list []model.Notification
}

// NewCenter creates an empty Center. A nil logger discards output.
func NewCenter(svc Service, logger *zap.Logger) *Center {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Center{svc: svc, logger: logger, pageSize: DefaultPageSize}
}

// Load clears the list and replaces it with the service's. On failure the
// list stays empty.
func (c *Center) Load(ctx context.Context) error {
	c.mu.Lock()
	c.list = nil
	c.mu.Unlock()

	list, err := c.svc.ListNotifications(ctx, 0, c.pageSize)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.list = list
	c.mu.Unlock()
	return nil
}

// List returns a copy of the loaded notifications.
func (c *Center) List() []model.Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.list)
}

// Unread returns the notifications not yet checked.
func (c *Center) Unread() []model.Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []model.Notification
	for _, n := range c.list {
		if !n.Check {
			out = append(out, n)
		}
	}
	return out
}

// Get returns the loaded notification with the given identifier.
func (c *Center) Get(id int64) (model.Notification, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, n := range c.list {
		if n.ID == id {
			return n, true
		}
	}
	return model.Notification{}, false
}

// MarkRead checks the notification on the service and, once accepted,
// locally. An identifier not in the list changes nothing locally.
func (c *Center) MarkRead(ctx context.Context, id int64) error {
	if err := c.svc.CheckNotification(ctx, id); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.list {
		if c.list[i].ID == id {
			c.list[i].Check = true
		}
	}
	return nil
}

// Open returns the bookmark URL of n and marks n read. The URL is returned
// even when marking fails, so the caller can still open it.
func (c *Center) Open(ctx context.Context, n model.Notification) (string, error) {
	url := n.Bookmark.URL
	if err := c.MarkRead(ctx, n.ID); err != nil {
		c.logger.Warn("mark read failed", zap.Int64("id", n.ID), zap.Error(err))
		return url, fmt.Errorf("mark notification %d read: %w", n.ID, err)
	}
	return url, nil
}
