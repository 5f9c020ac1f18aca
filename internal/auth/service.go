package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/somchai/helpdesk/internal/backend"
	"github.com/somchai/helpdesk/internal/model"
)

// LoginAPI はログインフローに必要なバックエンド操作。
type LoginAPI interface {
	// GetLineAuthURL はLINE OAuthの認可URL情報を取得する。
	GetLineAuthURL(ctx context.Context) (*backend.LineAuthURL, error)
	// LoginWithCode は認可コードをアクセストークンに交換する。
	LoginWithCode(ctx context.Context, code, state string) (*backend.LoginResult, error)
}

// SessionManager はサービスが利用するセッション操作。
type SessionManager interface {
	Issue(ctx context.Context, userID string, role model.Role, token string) (*model.Session, error)
	Get(ctx context.Context, id string) (*model.Session, error)
	Clear(ctx context.Context, id string) error
}

// LoginResult はログイン成功時の結果を表す。
type LoginResult struct {
	Session      *model.Session
	RedirectPath string
}

// Service はログイン・ログアウトと連携開始URLの組み立てを行う。
type Service struct {
	api      LoginAPI
	sessions SessionManager
	logger   *slog.Logger
	metrics  Metrics
}

// NewService はServiceを生成する。
func NewService(api LoginAPI, sessions SessionManager, logger *slog.Logger, metrics Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Service{
		api:      api,
		sessions: sessions,
		logger:   logger,
		metrics:  metrics,
	}
}

// BuildLinkingAuthURL は連携開始用のLINE認可URLを組み立てる。
// stateパラメータを「linking:検証トークン」で上書きし、
// コールバック側が連携フローであることを判別できるようにする。
func (s *Service) BuildLinkingAuthURL(ctx context.Context, verificationToken string) (string, error) {
	info, err := s.api.GetLineAuthURL(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get line auth url: %w", err)
	}

	u, err := url.Parse(info.AuthURL)
	if err != nil {
		return "", fmt.Errorf("invalid auth url from backend: %w", err)
	}
	q := u.Query()
	q.Set("state", LinkingStatePrefix+verificationToken)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Login は認可コードをログインに交換し、セッションを発行する。
// 失敗時の利用者向けメッセージはバックエンドのメッセージを優先し、
// 通信エラーなどメッセージが得られない場合は汎用メッセージに落とす。
func (s *Service) Login(ctx context.Context, code, state string) (*LoginResult, error) {
	res, err := s.api.LoginWithCode(ctx, code, state)
	if err != nil {
		s.metrics.RecordLoginFailure()
		s.logger.Error("login code exchange failed", slog.String("error", err.Error()))
		if be, ok := backend.AsError(err); ok && be.StatusCode != 0 {
			return nil, model.NewLoginFailedError(be.Message)
		}
		return nil, model.NewLoginFailedError("")
	}

	role := model.ParseRole(res.Role)
	sess, err := s.sessions.Issue(ctx, string(res.UserID), role, res.AccessToken)
	if err != nil {
		s.metrics.RecordLoginFailure()
		s.logger.Error("failed to issue session", slog.String("error", err.Error()))
		return nil, model.NewLoginFailedError("")
	}

	s.metrics.RecordLoginSuccess()
	s.logger.Info("login succeeded",
		slog.String("user_id", sess.UserID),
		slog.String("role", string(sess.Role)),
	)
	return &LoginResult{
		Session:      sess,
		RedirectPath: LandingAfterLogin(role),
	}, nil
}

// Logout は指定セッションを破棄する。冪等。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Clear(ctx, sessionID)
}

// Current は指定IDの有効なセッションを返す。未認証はnil。
func (s *Service) Current(ctx context.Context, sessionID string) (*model.Session, error) {
	return s.sessions.Get(ctx, sessionID)
}
