package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pickabook/pkb/internal/model"
)

// ListNotifications returns one page of bookmark notifications.
func (c *Client) ListNotifications(ctx context.Context, page, size int) ([]model.Notification, error) {
	var list []model.Notification
	if err := c.do(ctx, http.MethodGet, "/notification", pageQuery(page, size), nil, &list); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	if list == nil {
		list = []model.Notification{}
	}
	return list, nil
}

// CheckNotification marks a notification read on the service.
func (c *Client) CheckNotification(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/notification/check/%d", id)
	if err := c.do(ctx, http.MethodPost, path, nil, nil, nil); err != nil {
		return fmt.Errorf("check notification %d: %w", id, err)
	}
	return nil
}
