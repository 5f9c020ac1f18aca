package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/somchai/helpdesk/internal/middleware"
	"github.com/somchai/helpdesk/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Sessions          middleware.SessionGetter
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	Logger            *slog.Logger

	// 認証・連携
	AuthService AuthServiceInterface
	Negotiator  LinkingNegotiatorInterface
	AuthConfig  AuthHandlerConfig

	// 業務プロキシ
	RepairAPI       RepairAPI
	LoanAPI         LoanAPI
	AdminAPI        AdminAPI
	NotificationAPI NotificationAPI
	Sanitizer       TextSanitizer

	// 添付プロキシ
	AttachmentHandler *AttachmentHandler

	// 監視
	MetricsHandler http.Handler
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを
// 構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Recovery → SecurityHeaders → CORS → Logging →
//	(認証ルート外) Session → CSRF → RateLimit(General)
//
// ルート・コールバック・ログイン系はミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	authHandler := NewAuthHandler(deps.AuthService, deps.Negotiator, deps.AuthConfig)
	repairHandler := NewRepairHandler(deps.RepairAPI, deps.Sanitizer)
	loanHandler := NewLoanHandler(deps.LoanAPI, deps.Sanitizer)
	adminHandler := NewAdminHandler(deps.AdminAPI)
	notificationHandler := NewNotificationHandler(deps.NotificationAPI)
	exportHandler := NewExportHandler(deps.RepairAPI, deps.LoanAPI)

	// --- 認証不要のルート ---

	// 着信URLの意図解決とOAuthコールバック
	r.Get("/", authHandler.Root)
	r.Get("/callback", authHandler.Callback)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.Sessions))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// アカウント連携の強制上書き
		r.Post("/api/auth/link/force", authHandler.ForceLink)

		// 修理チケット
		r.Route("/api/repairs", func(r chi.Router) {
			r.Get("/", repairHandler.ListRepairs)
			r.Post("/", repairHandler.CreateRepair)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", repairHandler.GetRepair)
				r.With(middleware.RequireRole(model.RoleAdmin, model.RoleIT)).
					Patch("/status", repairHandler.UpdateRepairStatus)
			})
		})

		// 機器貸出
		r.Route("/api/loans", func(r chi.Router) {
			r.Get("/", loanHandler.ListLoans)
			r.Post("/", loanHandler.CreateLoan)
			r.Post("/{id}/return", loanHandler.ReturnLoan)
		})

		// 在庫（IT担当・管理者のみ）
		r.Route("/api/stock", func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleAdmin, model.RoleIT))
			r.Get("/", loanHandler.ListStock)
			r.Patch("/{id}", loanHandler.AdjustStock)
		})

		// 通知
		r.Route("/api/notifications", func(r chi.Router) {
			r.Get("/", notificationHandler.ListNotifications)
			r.Post("/{id}/read", notificationHandler.MarkRead)
		})

		// 部署一覧（起票フォームで全役割が使用する）
		r.Get("/api/departments", adminHandler.ListDepartments)

		// 添付プロキシ
		if deps.AttachmentHandler != nil {
			r.Get("/api/attachments", deps.AttachmentHandler.Fetch)
		}

		// 管理画面（管理者のみ）
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleAdmin))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", adminHandler.ListUsers)
				r.Patch("/{id}", adminHandler.UpdateUserRole)
				r.Delete("/{id}", adminHandler.DeleteUser)
			})

			r.Route("/departments", func(r chi.Router) {
				r.Post("/", adminHandler.CreateDepartment)
				r.Delete("/{id}", adminHandler.DeleteDepartment)
			})

			r.Get("/audit-logs", adminHandler.ListAuditLogs)
			r.Post("/clear-data", adminHandler.ClearData)

			// エクスポートは専用レート制限を追加
			r.With(deps.RateLimiter.ExportMiddleware()).Get("/export", exportHandler.Export)
		})
	})

	return r
}
