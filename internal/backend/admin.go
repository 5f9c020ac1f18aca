package backend

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/somchai/helpdesk/internal/model"
)

// ListUsers は利用者アカウント一覧を取得する。管理者専用。
func (c *Client) ListUsers(ctx context.Context, token string) ([]model.PortalUser, error) {
	var out []model.PortalUser
	if err := c.get(ctx, "/api/users", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateUserRole は利用者の役割を変更する。管理者専用。
func (c *Client) UpdateUserRole(ctx context.Context, token string, id int, role string) (*model.PortalUser, error) {
	body := map[string]string{"role": role}
	var out model.PortalUser
	if err := c.patch(ctx, fmt.Sprintf("/api/users/%d", id), token, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser は利用者アカウントを削除する。管理者専用。
func (c *Client) DeleteUser(ctx context.Context, token string, id int) error {
	return c.delete(ctx, fmt.Sprintf("/api/users/%d", id), token)
}

// ListDepartments は部署一覧を取得する。
func (c *Client) ListDepartments(ctx context.Context, token string) ([]model.Department, error) {
	var out []model.Department
	if err := c.get(ctx, "/api/departments", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateDepartment は部署を新規作成する。管理者専用。
func (c *Client) CreateDepartment(ctx context.Context, token, name string) (*model.Department, error) {
	body := map[string]string{"name": name}
	var out model.Department
	if err := c.post(ctx, "/api/departments", token, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDepartment は部署を削除する。管理者専用。
func (c *Client) DeleteDepartment(ctx context.Context, token string, id int) error {
	return c.delete(ctx, fmt.Sprintf("/api/departments/%d", id), token)
}

// AuditFilter は監査ログ一覧の絞り込み条件。
type AuditFilter struct {
	Action string
	Page   int
	Limit  int
}

func (f AuditFilter) values() url.Values {
	q := url.Values{}
	if f.Action != "" {
		q.Set("action", f.Action)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// ListAuditLogs は監査ログ一覧を取得する。管理者専用。
func (c *Client) ListAuditLogs(ctx context.Context, token string, filter AuditFilter) ([]model.AuditEntry, error) {
	var out []model.AuditEntry
	if err := c.get(ctx, "/api/audit-logs", token, filter.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClearData は指定スコープの業務データを全消去する。管理者専用の
// 破壊的操作であり、scopeには repairs / loans / notifications を指定する。
func (c *Client) ClearData(ctx context.Context, token, scope string) error {
	body := map[string]string{"scope": scope}
	return c.post(ctx, "/api/admin/clear-data", token, body, nil)
}
