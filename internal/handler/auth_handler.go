package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/somchai/helpdesk/internal/auth"
	"github.com/somchai/helpdesk/internal/middleware"
	"github.com/somchai/helpdesk/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// BuildLinkingAuthURL は連携開始用のLINE認可URLを組み立てる。
	BuildLinkingAuthURL(ctx context.Context, verificationToken string) (string, error)
	// Login は認可コードをセッションに交換する。
	Login(ctx context.Context, code, state string) (*auth.LoginResult, error)
	// Logout はセッションを破棄する。
	Logout(ctx context.Context, sessionID string) error
	// Current は有効なセッションを返す。未認証はnil。
	Current(ctx context.Context, sessionID string) (*model.Session, error)
}

// LinkingNegotiatorInterface はアカウント連携ハンドラーが必要とする
// ネゴシエーターインターフェース。
type LinkingNegotiatorInterface interface {
	CompleteLinking(ctx context.Context, sess *model.Session, code, verificationToken string) auth.Outcome
	ForceLinking(ctx context.Context, sess *model.Session) auth.Outcome
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はLINE OAuth認証とアカウント連携のHTTPハンドラー。
type AuthHandler struct {
	service    AuthServiceInterface
	negotiator LinkingNegotiatorInterface
	config     AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, negotiator LinkingNegotiatorInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service:    service,
		negotiator: negotiator,
		config:     config,
	}
}

// linkResultPath は連携完了以外の結果を表示するフロントエンドのパス。
const linkResultPath = "/link/result"

// Root はルートURLへの着信を意図別に振り分ける。
// GET /
// コールバック系の意図はクエリを保ったまま/callbackへ転送し、
// ナビゲーション系の意図は解決済みパスへリダイレクトする。
func (h *AuthHandler) Root(w http.ResponseWriter, r *http.Request) {
	res := auth.Resolve(r.URL.Query(), r.UserAgent())

	switch res.Intent {
	case auth.IntentBeginLinking:
		authURL, err := h.service.BuildLinkingAuthURL(r.Context(), res.VerificationToken)
		if err != nil {
			slog.Error("failed to build linking auth url", slog.String("error", err.Error()))
			http.Redirect(w, r, auth.PathAdminLogin, http.StatusTemporaryRedirect)
			return
		}
		http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)

	case auth.IntentCompleteLinking, auth.IntentCompleteLogin:
		// コールバック処理はクエリを保ったまま/callbackに集約する
		http.Redirect(w, r, "/callback?"+r.URL.RawQuery, http.StatusTemporaryRedirect)

	default:
		http.Redirect(w, r, res.RedirectPath, http.StatusTemporaryRedirect)
	}
}

// Callback はLINE OAuthコールバックを処理する。
// GET /callback?code=xxx&state=yyy
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	res := auth.Resolve(r.URL.Query(), r.UserAgent())

	switch res.Intent {
	case auth.IntentCompleteLogin:
		h.completeLogin(w, r, res)
	case auth.IntentCompleteLinking:
		h.completeLinking(w, r, res)
	case auth.IntentBeginLinking:
		h.Root(w, r)
	default:
		http.Redirect(w, r, res.RedirectPath, http.StatusTemporaryRedirect)
	}
}

// completeLogin はログインコールバックを処理する。
// 成功時はセッションCookieを設定して役割別のランディングへ、
// 失敗時はエラー内容をクエリに載せてログイン画面へ戻す。
func (h *AuthHandler) completeLogin(w http.ResponseWriter, r *http.Request, res auth.Resolution) {
	result, err := h.service.Login(r.Context(), res.Code, res.State)
	if err != nil {
		apiErr := model.NewLoginFailedError("")
		if e, ok := err.(*model.APIError); ok {
			apiErr = e
		}
		q := url.Values{}
		q.Set("error", apiErr.Code)
		q.Set("message", apiErr.Message)
		http.Redirect(w, r, auth.PathAdminLogin+"?"+q.Encode(), http.StatusTemporaryRedirect)
		return
	}

	h.setSessionCookie(w, result.Session.ID)
	http.Redirect(w, r, result.RedirectPath, http.StatusTemporaryRedirect)
}

// completeLinking は連携コールバックを処理する。
// 連携はログイン済みセッションを前提とし、セッションが無い場合も
// ネゴシエーターが利用者向けエラーとして扱う。
func (h *AuthHandler) completeLinking(w http.ResponseWriter, r *http.Request, res auth.Resolution) {
	sess := h.currentSession(r)

	outcome := h.negotiator.CompleteLinking(r.Context(), sess, res.Code, res.VerificationToken)
	if outcome.State == model.LinkingStateLinked {
		http.Redirect(w, r, outcome.RedirectPath, http.StatusTemporaryRedirect)
		return
	}

	q := url.Values{}
	q.Set("state", string(outcome.State))
	if outcome.Err != nil {
		q.Set("error", outcome.Err.Code)
		q.Set("message", outcome.Err.Message)
	}
	if outcome.CanForce {
		q.Set("can_force", "1")
	}
	http.Redirect(w, r, linkResultPath+"?"+q.Encode(), http.StatusTemporaryRedirect)
}

// ForceLink はCONFLICT状態からの強制再連携を処理する。
// POST /api/auth/link/force
// セッションミドルウェアの内側に配置する。
func (h *AuthHandler) ForceLink(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	outcome := h.negotiator.ForceLinking(r.Context(), sess)
	if outcome.State == model.LinkingStateLinked {
		writeJSON(w, http.StatusOK, map[string]string{
			"state":    string(outcome.State),
			"redirect": outcome.RedirectPath,
		})
		return
	}

	apiErr := outcome.Err
	if apiErr == nil {
		apiErr = model.NewLinkFailedError("")
	}
	writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
}

// Logout はセッションを破棄する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のログイン利用者情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value == "" {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	sess, err := h.service.Current(r.Context(), cookie.Value)
	if err != nil {
		slog.Error("failed to get current session", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}
	if sess == nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"user_id": sess.UserID,
		"role":    string(sess.Role),
	})
}

// currentSession はCookieから有効なセッションを取り出す。無効ならnil。
func (h *AuthHandler) currentSession(r *http.Request) *model.Session {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	sess, err := h.service.Current(r.Context(), cookie.Value)
	if err != nil {
		slog.Error("failed to load session for linking", slog.String("error", err.Error()))
		return nil
	}
	return sess
}

// setSessionCookie はセッションCookieを設定する（HTTP Only）。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie はセッションCookieを削除する。
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
