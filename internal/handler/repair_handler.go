package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/somchai/helpdesk/internal/backend"
	"github.com/somchai/helpdesk/internal/middleware"
	"github.com/somchai/helpdesk/internal/model"
)

// RepairAPI は修理ハンドラーが必要とするバックエンド操作。
type RepairAPI interface {
	ListRepairs(ctx context.Context, token string, filter backend.RepairFilter) ([]model.RepairTicket, error)
	GetRepair(ctx context.Context, token string, id int) (*model.RepairTicket, error)
	CreateRepair(ctx context.Context, token string, in backend.CreateRepairInput) (*model.RepairTicket, error)
	UpdateRepairStatus(ctx context.Context, token string, id int, in backend.UpdateRepairStatusInput) (*model.RepairTicket, error)
}

// TextSanitizer は自由入力テキストのサニタイズインターフェース。
type TextSanitizer interface {
	SanitizeText(raw string) string
}

// RepairHandler は修理チケットのHTTPハンドラー。
// バックエンドへのプロキシとして動作し、セッションのBearerトークンで
// バックエンドを呼び出す。
type RepairHandler struct {
	api       RepairAPI
	sanitizer TextSanitizer
	validate  *validator.Validate
}

// NewRepairHandler はRepairHandlerを生成する。
func NewRepairHandler(api RepairAPI, sanitizer TextSanitizer) *RepairHandler {
	return &RepairHandler{
		api:       api,
		sanitizer: sanitizer,
		validate:  validator.New(),
	}
}

// createRepairRequest は修理チケット作成リクエストのボディ。
type createRepairRequest struct {
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description" validate:"required,max=4000"`
	Priority     string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DepartmentID int    `json:"department_id" validate:"required,gt=0"`
	ImageURL     string `json:"image_url" validate:"omitempty,url"`
}

// updateRepairStatusRequest はステータス更新リクエストのボディ。
type updateRepairStatusRequest struct {
	Status     string `json:"status" validate:"required"`
	Note       string `json:"note" validate:"omitempty,max=2000"`
	AssigneeID int    `json:"assignee_id" validate:"omitempty,gt=0"`
}

// ListRepairs は修理チケット一覧を返す。
// GET /api/repairs
// 一般ユーザーには自分が起票したチケットのみを返す。
func (h *RepairHandler) ListRepairs(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	q := r.URL.Query()
	filter := backend.RepairFilter{
		Status: q.Get("status"),
		Search: q.Get("search"),
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if sess.Role == model.RoleUser {
		filter.ReporterID = sess.UserID
	}

	if filter.Status != "" && !model.ValidRepairStatus(filter.Status) {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("สถานะไม่ถูกต้อง"))
		return
	}

	tickets, err := h.api.ListRepairs(r.Context(), sess.Token, filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tickets)
}

// GetRepair は修理チケット1件を返す。
// GET /api/repairs/{id}
func (h *RepairHandler) GetRepair(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, ok := intURLParam(w, r, "id")
	if !ok {
		return
	}

	ticket, err := h.api.GetRepair(r.Context(), sess.Token, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 一般ユーザーは自分のチケットしか閲覧できない
	if sess.Role == model.RoleUser && strconv.Itoa(ticket.ReporterID) != sess.UserID {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
		return
	}

	writeJSON(w, http.StatusOK, ticket)
}

// CreateRepair は修理チケットを起票する。
// POST /api/repairs
func (h *RepairHandler) CreateRepair(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createRepairRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(err.Error()))
		return
	}

	ticket, err := h.api.CreateRepair(r.Context(), sess.Token, backend.CreateRepairInput{
		Title:        h.sanitizer.SanitizeText(req.Title),
		Description:  h.sanitizer.SanitizeText(req.Description),
		Priority:     req.Priority,
		DepartmentID: req.DepartmentID,
		ImageURL:     req.ImageURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ticket)
}

// UpdateRepairStatus は修理チケットのステータスを更新する。
// PATCH /api/repairs/{id}/status
// IT担当・管理者専用（ルーティング側でRequireRoleを適用）。
func (h *RepairHandler) UpdateRepairStatus(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, ok := intURLParam(w, r, "id")
	if !ok {
		return
	}

	var req updateRepairStatusRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(err.Error()))
		return
	}
	if !model.ValidRepairStatus(req.Status) {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("สถานะไม่ถูกต้อง"))
		return
	}

	ticket, err := h.api.UpdateRepairStatus(r.Context(), sess.Token, id, backend.UpdateRepairStatusInput{
		Status:     req.Status,
		Note:       h.sanitizer.SanitizeText(req.Note),
		AssigneeID: req.AssigneeID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ticket)
}
