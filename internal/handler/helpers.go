// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/somchai/helpdesk/internal/backend"
	"github.com/somchai/helpdesk/internal/model"
)

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
// APIErrorはコード別のステータスで返し、バックエンドエラーは
// ステータスとメッセージを引き継ぐ。それ以外は500として扱う。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	if be, ok := backend.AsError(err); ok {
		statusCode := be.StatusCode
		if statusCode == 0 {
			statusCode = http.StatusBadGateway
		}
		writeAPIErrorResponse(w, statusCode, model.NewBackendError(be.Message))
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "เกิดข้อผิดพลาดภายในระบบ",
		Category: "system",
		Action:   "รอสักครู่แล้วลองใหม่อีกครั้ง",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorのコードをHTTPステータスに対応付ける。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized, model.ErrCodeLoginFailed, model.ErrCodeMissingUserData:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeLinkConflict:
		return http.StatusConflict
	case model.ErrCodeLinkExpired, model.ErrCodeLinkIncomplete, model.ErrCodeValidation:
		return http.StatusBadRequest
	case model.ErrCodeCodeExchangeFailed, model.ErrCodeLinkFailed, model.ErrCodeBackend:
		return http.StatusBadGateway
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSONBody はリクエストボディをJSONとしてデコードする。
// 解析失敗時は400を書き込んでfalseを返す。
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("รูปแบบคำขอไม่ถูกต้อง"))
		return false
	}
	return true
}

// intURLParam はchiのURLパラメータを整数として取り出す。
// 数値でない場合は400を書き込んでfalseを返す。
func intURLParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("รหัสรายการไม่ถูกต้อง"))
		return 0, false
	}
	return id, true
}
