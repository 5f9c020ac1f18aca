package auth

import "github.com/somchai/helpdesk/internal/model"

// ポータルのルーティングパス。
const (
	PathRoot           = "/"
	PathAdminLogin     = "/login/admin"
	PathAdminHome      = "/admin"
	PathAdminProfile   = "/admin/profile"
	PathITRepairs      = "/it/repairs"
	PathITProfile      = "/it/profile"
	PathReporterPortal = "/repairs/liff"
	PathReporterForm   = "/repairs/liff/form"
)

// LandingAfterLogin はログイン成功後の役割別ランディングパスを返す。
func LandingAfterLogin(role model.Role) string {
	switch role {
	case model.RoleAdmin:
		return PathAdminHome
	case model.RoleIT:
		return PathITRepairs
	default:
		return PathReporterPortal
	}
}

// LandingAfterLinking はアカウント連携完了後の役割別ランディングパスを返す。
// ログイン後とは別表だが、役割の序列は一致させておくこと。
func LandingAfterLinking(role model.Role) string {
	switch role {
	case model.RoleAdmin:
		return PathAdminProfile
	case model.RoleIT:
		return PathITProfile
	default:
		return PathRoot
	}
}
