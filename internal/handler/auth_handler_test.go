package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/somchai/helpdesk/internal/auth"
	"github.com/somchai/helpdesk/internal/middleware"
	"github.com/somchai/helpdesk/internal/model"
)

// mockAuthService はAuthServiceInterfaceのモック。
type mockAuthService struct {
	buildLinkingAuthURLFn func(ctx context.Context, verificationToken string) (string, error)
	loginFn               func(ctx context.Context, code, state string) (*auth.LoginResult, error)
	logoutFn              func(ctx context.Context, sessionID string) error
	currentFn             func(ctx context.Context, sessionID string) (*model.Session, error)
}

func (m *mockAuthService) BuildLinkingAuthURL(ctx context.Context, verificationToken string) (string, error) {
	if m.buildLinkingAuthURLFn != nil {
		return m.buildLinkingAuthURLFn(ctx, verificationToken)
	}
	return "https://access.line.me/oauth2/v2.1/authorize?state=linking%3A" + verificationToken, nil
}

func (m *mockAuthService) Login(ctx context.Context, code, state string) (*auth.LoginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, code, state)
	}
	return &auth.LoginResult{
		Session: &model.Session{
			ID:        "s1",
			UserID:    "7",
			Role:      model.RoleUser,
			Token:     "T",
			ExpiresAt: time.Now().Add(time.Hour),
		},
		RedirectPath: auth.PathReporterPortal,
	}, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAuthService) Current(ctx context.Context, sessionID string) (*model.Session, error) {
	if m.currentFn != nil {
		return m.currentFn(ctx, sessionID)
	}
	return nil, nil
}

// mockNegotiator はLinkingNegotiatorInterfaceのモック。
type mockNegotiator struct {
	completeLinkingFn func(ctx context.Context, sess *model.Session, code, verificationToken string) auth.Outcome
	forceLinkingFn    func(ctx context.Context, sess *model.Session) auth.Outcome
}

func (m *mockNegotiator) CompleteLinking(ctx context.Context, sess *model.Session, code, verificationToken string) auth.Outcome {
	if m.completeLinkingFn != nil {
		return m.completeLinkingFn(ctx, sess, code, verificationToken)
	}
	return auth.Outcome{State: model.LinkingStateLinked, RedirectPath: auth.PathRoot}
}

func (m *mockNegotiator) ForceLinking(ctx context.Context, sess *model.Session) auth.Outcome {
	if m.forceLinkingFn != nil {
		return m.forceLinkingFn(ctx, sess)
	}
	return auth.Outcome{State: model.LinkingStateLinked, RedirectPath: auth.PathRoot}
}

func newTestAuthHandler(service AuthServiceInterface, negotiator LinkingNegotiatorInterface) *AuthHandler {
	return NewAuthHandler(service, negotiator, AuthHandlerConfig{SessionMaxAge: 3600})
}

func TestAuthHandler_Root_Dispatch(t *testing.T) {
	tests := []struct {
		name         string
		target       string
		userAgent    string
		wantLocation string
	}{
		{
			name:         "ログインコールバックは/callbackへ転送",
			target:       "/?code=ABC123&state=xyz",
			wantLocation: "/callback?code=ABC123&state=xyz",
		},
		{
			name:         "連携コールバックも/callbackへ転送",
			target:       "/?code=ABC123&state=linking:VT1",
			wantLocation: "/callback?code=ABC123&state=linking:VT1",
		},
		{
			name:         "LINEアプリ内ブラウザはレポーターポータルへ",
			target:       "/",
			userAgent:    "Mozilla/5.0 Line/14.0.0",
			wantLocation: auth.PathReporterPortal,
		},
		{
			name:         "フォールバックはログイン画面へ",
			target:       "/",
			wantLocation: auth.PathAdminLogin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestAuthHandler(&mockAuthService{}, &mockNegotiator{})

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.userAgent != "" {
				req.Header.Set("User-Agent", tt.userAgent)
			}
			rec := httptest.NewRecorder()

			h.Root(rec, req)

			if rec.Code != http.StatusTemporaryRedirect {
				t.Fatalf("status = %d, want 307", rec.Code)
			}
			if got := rec.Header().Get("Location"); got != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got, tt.wantLocation)
			}
		})
	}
}

func TestAuthHandler_Root_BeginLinkingRedirectsToAuthURL(t *testing.T) {
	var gotToken string
	service := &mockAuthService{
		buildLinkingAuthURLFn: func(ctx context.Context, verificationToken string) (string, error) {
			gotToken = verificationToken
			return "https://access.line.me/authorize?state=linking%3AVT1", nil
		},
	}
	h := newTestAuthHandler(service, &mockNegotiator{})

	req := httptest.NewRequest(http.MethodGet, "/?token=VT1", nil)
	rec := httptest.NewRecorder()

	h.Root(rec, req)

	if gotToken != "VT1" {
		t.Errorf("verification token = %q, want VT1", gotToken)
	}
	if got := rec.Header().Get("Location"); got != "https://access.line.me/authorize?state=linking%3AVT1" {
		t.Errorf("Location = %q", got)
	}
}

func TestAuthHandler_Callback_LoginSuccessSetsCookie(t *testing.T) {
	h := newTestAuthHandler(&mockAuthService{}, &mockNegotiator{})

	req := httptest.NewRequest(http.MethodGet, "/callback?code=ABC123", nil)
	rec := httptest.NewRecorder()

	h.Callback(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != auth.PathReporterPortal {
		t.Errorf("Location = %q, want %q", got, auth.PathReporterPortal)
	}

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("expected session cookie to be set")
	}
	if sessionCookie.Value != "s1" {
		t.Errorf("cookie value = %q, want s1", sessionCookie.Value)
	}
	if !sessionCookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
}

func TestAuthHandler_Callback_LoginFailureRedirectsToLogin(t *testing.T) {
	service := &mockAuthService{
		loginFn: func(ctx context.Context, code, state string) (*auth.LoginResult, error) {
			return nil, model.NewLoginFailedError("invalid authorization code")
		},
	}
	h := newTestAuthHandler(service, &mockNegotiator{})

	req := httptest.NewRequest(http.MethodGet, "/callback?code=BAD", nil)
	rec := httptest.NewRecorder()

	h.Callback(rec, req)

	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("invalid Location: %v", err)
	}
	if loc.Path != auth.PathAdminLogin {
		t.Errorf("redirect path = %q, want %q", loc.Path, auth.PathAdminLogin)
	}
	if got := loc.Query().Get("error"); got != model.ErrCodeLoginFailed {
		t.Errorf("error param = %q, want LOGIN_FAILED", got)
	}
	if got := loc.Query().Get("message"); got != "invalid authorization code" {
		t.Errorf("message param = %q", got)
	}

	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName && c.Value != "" {
			t.Error("session cookie must not be set on login failure")
		}
	}
}

func TestAuthHandler_Callback_LinkingSuccess(t *testing.T) {
	sess := &model.Session{ID: "s1", UserID: "7", Role: model.RoleAdmin, Token: "T", ExpiresAt: time.Now().Add(time.Hour)}
	service := &mockAuthService{
		currentFn: func(ctx context.Context, sessionID string) (*model.Session, error) {
			return sess, nil
		},
	}
	var gotCode, gotToken string
	negotiator := &mockNegotiator{
		completeLinkingFn: func(ctx context.Context, s *model.Session, code, verificationToken string) auth.Outcome {
			gotCode, gotToken = code, verificationToken
			return auth.Outcome{State: model.LinkingStateLinked, RedirectPath: auth.PathAdminProfile}
		},
	}
	h := newTestAuthHandler(service, negotiator)

	req := httptest.NewRequest(http.MethodGet, "/callback?code=ABC123&state=linking:VT1", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "s1"})
	rec := httptest.NewRecorder()

	h.Callback(rec, req)

	if gotCode != "ABC123" || gotToken != "VT1" {
		t.Errorf("negotiator called with code=%q token=%q", gotCode, gotToken)
	}
	if got := rec.Header().Get("Location"); got != auth.PathAdminProfile {
		t.Errorf("Location = %q, want %q", got, auth.PathAdminProfile)
	}
}

func TestAuthHandler_Callback_LinkingConflictRedirectsToResult(t *testing.T) {
	negotiator := &mockNegotiator{
		completeLinkingFn: func(ctx context.Context, s *model.Session, code, verificationToken string) auth.Outcome {
			return auth.Outcome{
				State:    model.LinkingStateConflict,
				Err:      model.NewLinkConflictError(),
				CanForce: true,
			}
		},
	}
	h := newTestAuthHandler(&mockAuthService{}, negotiator)

	req := httptest.NewRequest(http.MethodGet, "/callback?code=ABC123&state=linking:VT1", nil)
	rec := httptest.NewRecorder()

	h.Callback(rec, req)

	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("invalid Location: %v", err)
	}
	if loc.Path != linkResultPath {
		t.Errorf("redirect path = %q, want %q", loc.Path, linkResultPath)
	}
	q := loc.Query()
	if q.Get("state") != string(model.LinkingStateConflict) {
		t.Errorf("state param = %q, want CONFLICT", q.Get("state"))
	}
	if q.Get("error") != model.ErrCodeLinkConflict {
		t.Errorf("error param = %q, want LINK_CONFLICT", q.Get("error"))
	}
	if q.Get("can_force") != "1" {
		t.Errorf("can_force param = %q, want 1", q.Get("can_force"))
	}
}

func TestAuthHandler_ForceLink(t *testing.T) {
	t.Run("成功", func(t *testing.T) {
		h := newTestAuthHandler(&mockAuthService{}, &mockNegotiator{
			forceLinkingFn: func(ctx context.Context, sess *model.Session) auth.Outcome {
				return auth.Outcome{State: model.LinkingStateLinked, RedirectPath: auth.PathITProfile}
			},
		})

		sess := &model.Session{ID: "s1", UserID: "7", Role: model.RoleIT, Token: "T", ExpiresAt: time.Now().Add(time.Hour)}
		req := httptest.NewRequest(http.MethodPost, "/api/auth/link/force", nil)
		req = req.WithContext(middleware.ContextWithSession(req.Context(), sess))
		rec := httptest.NewRecorder()

		h.ForceLink(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to parse body: %v", err)
		}
		if body["state"] != "LINKED" || body["redirect"] != auth.PathITProfile {
			t.Errorf("body = %v", body)
		}
	})

	t.Run("引き継ぎ値欠落は400", func(t *testing.T) {
		h := newTestAuthHandler(&mockAuthService{}, &mockNegotiator{
			forceLinkingFn: func(ctx context.Context, sess *model.Session) auth.Outcome {
				return auth.Outcome{State: model.LinkingStateFailed, Err: model.NewLinkIncompleteError()}
			},
		})

		sess := &model.Session{ID: "s1", UserID: "7", Role: model.RoleUser, Token: "T", ExpiresAt: time.Now().Add(time.Hour)}
		req := httptest.NewRequest(http.MethodPost, "/api/auth/link/force", nil)
		req = req.WithContext(middleware.ContextWithSession(req.Context(), sess))
		rec := httptest.NewRecorder()

		h.ForceLink(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		var body apiErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to parse body: %v", err)
		}
		if body.Code != model.ErrCodeLinkIncomplete {
			t.Errorf("code = %q, want LINK_INCOMPLETE", body.Code)
		}
		if body.Message != "ข้อมูลไม่สมบูรณ์ กรุณาเริ่มต้นใหม่" {
			t.Errorf("message = %q", body.Message)
		}
	})

	t.Run("セッションなしは401", func(t *testing.T) {
		h := newTestAuthHandler(&mockAuthService{}, &mockNegotiator{})

		req := httptest.NewRequest(http.MethodPost, "/api/auth/link/force", nil)
		rec := httptest.NewRecorder()

		h.ForceLink(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	var loggedOut string
	service := &mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			loggedOut = sessionID
			return nil
		},
	}
	h := newTestAuthHandler(service, &mockNegotiator{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "s1"})
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if loggedOut != "s1" {
		t.Errorf("logged out session = %q, want s1", loggedOut)
	}

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected session cookie to be cleared")
	}
}

func TestAuthHandler_Me(t *testing.T) {
	t.Run("ログイン済み", func(t *testing.T) {
		service := &mockAuthService{
			currentFn: func(ctx context.Context, sessionID string) (*model.Session, error) {
				return &model.Session{ID: "s1", UserID: "7", Role: model.RoleAdmin, Token: "T", ExpiresAt: time.Now().Add(time.Hour)}, nil
			},
		}
		h := newTestAuthHandler(service, &mockNegotiator{})

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "s1"})
		rec := httptest.NewRecorder()

		h.Me(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to parse body: %v", err)
		}
		if body["user_id"] != "7" || body["role"] != "ADMIN" {
			t.Errorf("body = %v", body)
		}
	})

	t.Run("未ログイン", func(t *testing.T) {
		h := newTestAuthHandler(&mockAuthService{}, &mockNegotiator{})

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		rec := httptest.NewRecorder()

		h.Me(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}
