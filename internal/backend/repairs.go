package backend

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/somchai/helpdesk/internal/model"
)

// RepairFilter は修理チケット一覧の絞り込み条件。
type RepairFilter struct {
	Status     string
	Search     string
	ReporterID string
	Page       int
	Limit      int
}

func (f RepairFilter) values() url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.ReporterID != "" {
		q.Set("reporter_id", f.ReporterID)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// CreateRepairInput は修理チケット作成のリクエストボディ。
type CreateRepairInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Priority     string `json:"priority"`
	DepartmentID int    `json:"department_id"`
	ImageURL     string `json:"image_url,omitempty"`
}

// UpdateRepairStatusInput は修理チケットのステータス更新ボディ。
type UpdateRepairStatusInput struct {
	Status     string `json:"status"`
	Note       string `json:"note,omitempty"`
	AssigneeID int    `json:"assignee_id,omitempty"`
}

// ListRepairs は修理チケット一覧を取得する。
func (c *Client) ListRepairs(ctx context.Context, token string, filter RepairFilter) ([]model.RepairTicket, error) {
	var out []model.RepairTicket
	if err := c.get(ctx, "/api/repairs", token, filter.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRepair は修理チケット1件を取得する。
func (c *Client) GetRepair(ctx context.Context, token string, id int) (*model.RepairTicket, error) {
	var out model.RepairTicket
	if err := c.get(ctx, fmt.Sprintf("/api/repairs/%d", id), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRepair は修理チケットを新規作成する。
func (c *Client) CreateRepair(ctx context.Context, token string, in CreateRepairInput) (*model.RepairTicket, error) {
	var out model.RepairTicket
	if err := c.post(ctx, "/api/repairs", token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRepairStatus は修理チケットのステータスを更新する。
func (c *Client) UpdateRepairStatus(ctx context.Context, token string, id int, in UpdateRepairStatusInput) (*model.RepairTicket, error) {
	var out model.RepairTicket
	if err := c.patch(ctx, fmt.Sprintf("/api/repairs/%d/status", id), token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
