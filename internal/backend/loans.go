package backend

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/somchai/helpdesk/internal/model"
)

// LoanFilter は貸出一覧の絞り込み条件。
type LoanFilter struct {
	Status     string
	BorrowerID string
}

func (f LoanFilter) values() url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.BorrowerID != "" {
		q.Set("borrower_id", f.BorrowerID)
	}
	return q
}

// CreateLoanInput は機器貸出登録のリクエストボディ。
type CreateLoanInput struct {
	EquipmentID int       `json:"equipment_id"`
	DueAt       time.Time `json:"due_at"`
	Note        string    `json:"note,omitempty"`
}

// ListLoans は貸出一覧を取得する。
func (c *Client) ListLoans(ctx context.Context, token string, filter LoanFilter) ([]model.Loan, error) {
	var out []model.Loan
	if err := c.get(ctx, "/api/loans", token, filter.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateLoan は機器貸出を登録する。
func (c *Client) CreateLoan(ctx context.Context, token string, in CreateLoanInput) (*model.Loan, error) {
	var out model.Loan
	if err := c.post(ctx, "/api/loans", token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReturnLoan は貸出機器の返却を記録する。
func (c *Client) ReturnLoan(ctx context.Context, token string, id int) (*model.Loan, error) {
	var out model.Loan
	if err := c.post(ctx, fmt.Sprintf("/api/loans/%d/return", id), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListStock は在庫一覧を取得する。
func (c *Client) ListStock(ctx context.Context, token string) ([]model.StockItem, error) {
	var out []model.StockItem
	if err := c.get(ctx, "/api/stock", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdjustStockInput は在庫数量調整のリクエストボディ。
type AdjustStockInput struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

// AdjustStock は在庫数量を増減する。
func (c *Client) AdjustStock(ctx context.Context, token string, id int, in AdjustStockInput) (*model.StockItem, error) {
	var out model.StockItem
	if err := c.patch(ctx, fmt.Sprintf("/api/stock/%d", id), token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
