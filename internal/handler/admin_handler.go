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

// AdminAPI は管理者ハンドラーが必要とするバックエンド操作。
type AdminAPI interface {
	ListUsers(ctx context.Context, token string) ([]model.PortalUser, error)
	UpdateUserRole(ctx context.Context, token string, id int, role string) (*model.PortalUser, error)
	DeleteUser(ctx context.Context, token string, id int) error
	ListDepartments(ctx context.Context, token string) ([]model.Department, error)
	CreateDepartment(ctx context.Context, token, name string) (*model.Department, error)
	DeleteDepartment(ctx context.Context, token string, id int) error
	ListAuditLogs(ctx context.Context, token string, filter backend.AuditFilter) ([]model.AuditEntry, error)
	ClearData(ctx context.Context, token, scope string) error
}

// AdminHandler は管理画面のHTTPハンドラー。
// すべてのルートはルーティング側でRequireRole(ADMIN)を適用する。
type AdminHandler struct {
	api      AdminAPI
	validate *validator.Validate
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(api AdminAPI) *AdminHandler {
	return &AdminHandler{
		api:      api,
		validate: validator.New(),
	}
}

// updateUserRoleRequest は役割変更リクエストのボディ。
type updateUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=ADMIN IT USER"`
}

// createDepartmentRequest は部署作成リクエストのボディ。
type createDepartmentRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// clearDataRequest はデータ全消去リクエストのボディ。
type clearDataRequest struct {
	Scope   string `json:"scope" validate:"required,oneof=repairs loans notifications"`
	Confirm string `json:"confirm" validate:"required"`
}

// clearDataConfirmPhrase はデータ全消去の確認フレーズ。
// 誤操作防止のため、ボディで同じ文字列の入力を要求する。
const clearDataConfirmPhrase = "DELETE"

// ListUsers は利用者アカウント一覧を返す。
// GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	users, err := h.api.ListUsers(r.Context(), sess.Token)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// UpdateUserRole は利用者の役割を変更する。
// PATCH /api/admin/users/{id}
func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, ok := intURLParam(w, r, "id")
	if !ok {
		return
	}

	var req updateUserRoleRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(err.Error()))
		return
	}

	// 自分自身の役割は下げられない（管理者が誰もいなくなる事故の防止）
	if strconv.Itoa(id) == sess.UserID && req.Role != string(model.RoleAdmin) {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("ไม่สามารถลดสิทธิ์ของตนเองได้"))
		return
	}

	user, err := h.api.UpdateUserRole(r.Context(), sess.Token, id, req.Role)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// DeleteUser は利用者アカウントを削除する。
// DELETE /api/admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, ok := intURLParam(w, r, "id")
	if !ok {
		return
	}

	if strconv.Itoa(id) == sess.UserID {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("ไม่สามารถลบบัญชีของตนเองได้"))
		return
	}

	if err := h.api.DeleteUser(r.Context(), sess.Token, id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListDepartments は部署一覧を返す。
// GET /api/departments
func (h *AdminHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	departments, err := h.api.ListDepartments(r.Context(), sess.Token)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, departments)
}

// CreateDepartment は部署を作成する。
// POST /api/admin/departments
func (h *AdminHandler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createDepartmentRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(err.Error()))
		return
	}

	dept, err := h.api.CreateDepartment(r.Context(), sess.Token, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dept)
}

// DeleteDepartment は部署を削除する。
// DELETE /api/admin/departments/{id}
func (h *AdminHandler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, ok := intURLParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.api.DeleteDepartment(r.Context(), sess.Token, id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListAuditLogs は監査ログ一覧を返す。
// GET /api/admin/audit-logs
func (h *AdminHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	q := r.URL.Query()
	filter := backend.AuditFilter{Action: q.Get("action")}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}

	logs, err := h.api.ListAuditLogs(r.Context(), sess.Token, filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, logs)
}

// ClearData は指定スコープの業務データを全消去する。
// POST /api/admin/clear-data
// 破壊的操作のため、確認フレーズの一致を必須とする。
func (h *AdminHandler) ClearData(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req clearDataRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(err.Error()))
		return
	}
	if req.Confirm != clearDataConfirmPhrase {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("กรุณาพิมพ์ DELETE เพื่อยืนยันการลบข้อมูล"))
		return
	}

	if err := h.api.ClearData(r.Context(), sess.Token, req.Scope); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
