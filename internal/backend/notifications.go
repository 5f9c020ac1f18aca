package backend

import (
	"context"
	"fmt"

	"github.com/somchai/helpdesk/internal/model"
)

// ListNotifications はログイン中の利用者宛て通知一覧を取得する。
func (c *Client) ListNotifications(ctx context.Context, token string) ([]model.Notification, error) {
	var out []model.Notification
	if err := c.get(ctx, "/api/notifications", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkNotificationRead は通知を既読にする。冪等な操作。
func (c *Client) MarkNotificationRead(ctx context.Context, token string, id int) error {
	return c.post(ctx, fmt.Sprintf("/api/notifications/%d/read", id), token, nil, nil)
}
