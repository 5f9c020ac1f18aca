package handler

import (
	"context"
	"net/http"

	"github.com/somchai/helpdesk/internal/middleware"
	"github.com/somchai/helpdesk/internal/model"
)

// NotificationAPI は通知ハンドラーが必要とするバックエンド操作。
type NotificationAPI interface {
	ListNotifications(ctx context.Context, token string) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, token string, id int) error
}

// NotificationHandler は利用者向け通知のHTTPハンドラー。
type NotificationHandler struct {
	api NotificationAPI
}

// NewNotificationHandler はNotificationHandlerを生成する。
func NewNotificationHandler(api NotificationAPI) *NotificationHandler {
	return &NotificationHandler{api: api}
}

// ListNotifications はログイン中の利用者宛て通知一覧を返す。
// GET /api/notifications
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	notifications, err := h.api.ListNotifications(r.Context(), sess.Token)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, notifications)
}

// MarkRead は通知を既読にする。冪等。
// POST /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, ok := intURLParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.api.MarkNotificationRead(r.Context(), sess.Token, id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
