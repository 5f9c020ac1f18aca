package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/somchai/helpdesk/internal/backend"
	"github.com/somchai/helpdesk/internal/middleware"
	"github.com/somchai/helpdesk/internal/model"
)

// LoanAPI は貸出ハンドラーが必要とするバックエンド操作。
type LoanAPI interface {
	ListLoans(ctx context.Context, token string, filter backend.LoanFilter) ([]model.Loan, error)
	CreateLoan(ctx context.Context, token string, in backend.CreateLoanInput) (*model.Loan, error)
	ReturnLoan(ctx context.Context, token string, id int) (*model.Loan, error)
	ListStock(ctx context.Context, token string) ([]model.StockItem, error)
	AdjustStock(ctx context.Context, token string, id int, in backend.AdjustStockInput) (*model.StockItem, error)
}

// LoanHandler は機器貸出・在庫のHTTPハンドラー。
type LoanHandler struct {
	api       LoanAPI
	sanitizer TextSanitizer
	validate  *validator.Validate
}

// NewLoanHandler はLoanHandlerを生成する。
func NewLoanHandler(api LoanAPI, sanitizer TextSanitizer) *LoanHandler {
	return &LoanHandler{
		api:       api,
		sanitizer: sanitizer,
		validate:  validator.New(),
	}
}

// createLoanRequest は貸出登録リクエストのボディ。
type createLoanRequest struct {
	EquipmentID int       `json:"equipment_id" validate:"required,gt=0"`
	DueAt       time.Time `json:"due_at" validate:"required"`
	Note        string    `json:"note" validate:"omitempty,max=2000"`
}

// adjustStockRequest は在庫調整リクエストのボディ。
type adjustStockRequest struct {
	Delta  int    `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"required,max=500"`
}

// ListLoans は貸出一覧を返す。
// GET /api/loans
// 一般ユーザーには自分の借用分のみを返す。
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	filter := backend.LoanFilter{Status: r.URL.Query().Get("status")}
	if sess.Role == model.RoleUser {
		filter.BorrowerID = sess.UserID
	}

	loans, err := h.api.ListLoans(r.Context(), sess.Token, filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loans)
}

// CreateLoan は機器貸出を登録する。
// POST /api/loans
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createLoanRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(err.Error()))
		return
	}
	if !req.DueAt.After(time.Now()) {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("กำหนดคืนต้องเป็นวันที่ในอนาคต"))
		return
	}

	loan, err := h.api.CreateLoan(r.Context(), sess.Token, backend.CreateLoanInput{
		EquipmentID: req.EquipmentID,
		DueAt:       req.DueAt,
		Note:        h.sanitizer.SanitizeText(req.Note),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, loan)
}

// ReturnLoan は貸出機器の返却を記録する。
// POST /api/loans/{id}/return
func (h *LoanHandler) ReturnLoan(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, ok := intURLParam(w, r, "id")
	if !ok {
		return
	}

	loan, err := h.api.ReturnLoan(r.Context(), sess.Token, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loan)
}

// ListStock は在庫一覧を返す。
// GET /api/stock
// IT担当・管理者専用（ルーティング側でRequireRoleを適用）。
func (h *LoanHandler) ListStock(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	items, err := h.api.ListStock(r.Context(), sess.Token)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// AdjustStock は在庫数量を増減する。
// PATCH /api/stock/{id}
// IT担当・管理者専用（ルーティング側でRequireRoleを適用）。
func (h *LoanHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, ok := intURLParam(w, r, "id")
	if !ok {
		return
	}

	var req adjustStockRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(err.Error()))
		return
	}

	item, err := h.api.AdjustStock(r.Context(), sess.Token, id, backend.AdjustStockInput{
		Delta:  req.Delta,
		Reason: h.sanitizer.SanitizeText(req.Reason),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}
