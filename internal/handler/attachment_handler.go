package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/somchai/helpdesk/internal/model"
	"github.com/somchai/helpdesk/internal/security"
)

// AttachmentHandler は修理チケットの添付画像をプロキシ取得する。
// 添付URLは利用者入力由来のため、SSRFガードで検証してから取得する。
type AttachmentHandler struct {
	guard   security.SSRFGuardService
	client  *http.Client
	maxSize int64
}

// NewAttachmentHandler はAttachmentHandlerを生成する。
// clientにはguard.NewSafeClientで生成したHTTPクライアントを渡すこと。
func NewAttachmentHandler(guard security.SSRFGuardService, client *http.Client, maxSize int64) *AttachmentHandler {
	return &AttachmentHandler{
		guard:   guard,
		client:  client,
		maxSize: maxSize,
	}
}

// Fetch は添付URLの内容を取得してそのまま返す。
// GET /api/attachments?url=...
func (h *AttachmentHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("ไม่ได้ระบุ URL"))
		return
	}

	if err := h.guard.ValidateURL(rawURL); err != nil {
		slog.Warn("attachment URL blocked",
			slog.String("url", rawURL),
			slog.String("error", err.Error()),
		)
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewValidationError("URL ไม่ได้รับอนุญาต"))
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, rawURL, nil)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("URL ไม่ถูกต้อง"))
		return
	}

	resp, err := h.client.Do(req)
	if err != nil {
		slog.Error("failed to fetch attachment", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusBadGateway, model.NewBackendError(""))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		writeAPIErrorResponse(w, http.StatusBadGateway, model.NewBackendError(""))
		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")

	// サイズ上限を超えた分は切り捨てる
	if _, err := io.Copy(w, io.LimitReader(resp.Body, h.maxSize)); err != nil {
		slog.Error("failed to stream attachment", slog.String("error", err.Error()))
	}
}
