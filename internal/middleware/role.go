package middleware

import (
	"log/slog"
	"net/http"

	"github.com/somchai/helpdesk/internal/model"
)

// RequireRole は指定役割のいずれかを持つセッションのみ通過させる
// ミドルウェアを返す。セッションミドルウェアの後に配置すること。
// 役割が一致しないリクエストには統一フォーマットの403を返す。
func RequireRole(roles ...model.Role) func(next http.Handler) http.Handler {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := SessionFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			if !allowed[sess.Role] {
				slog.Warn("role check failed",
					slog.String("user_id", sess.UserID),
					slog.String("role", string(sess.Role)),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
