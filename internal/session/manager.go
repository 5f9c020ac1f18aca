// Package session はポータルセッションのライフサイクル管理を提供する。
// セッションはトークン・ユーザーID・役割の3要素がすべて揃っているときのみ
// 認証済みとみなし、部分的な状態は未認証として扱う。
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/somchai/helpdesk/internal/model"
	"github.com/somchai/helpdesk/internal/repository"
)

// Manager はセッションの発行・検証・破棄を行う。
// すべてのコンポーネントはグローバル状態に触れず、このManagerを
// 依存として受け取る。
type Manager struct {
	repo   repository.SessionRepository
	maxAge time.Duration
	logger *slog.Logger
}

// NewManager はManagerを生成する。
func NewManager(repo repository.SessionRepository, maxAge time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		repo:   repo,
		maxAge: maxAge,
		logger: logger,
	}
}

// Issue は新しいセッションを発行して永続化する。
// 3要素のいずれかが欠けている場合はエラーを返し、部分的なセッションを
// 作らない。バックエンドトークンがJWTで有効期限を持つ場合は、
// セッション有効期限をトークン有効期限まで切り詰める。
func (m *Manager) Issue(ctx context.Context, userID string, role model.Role, token string) (*model.Session, error) {
	if userID == "" || role == "" || token == "" {
		return nil, fmt.Errorf("refusing to issue partial session (userID=%t role=%t token=%t)",
			userID != "", role != "", token != "")
	}

	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	expiresAt := now.Add(m.maxAge)
	if tokenExp, ok := bearerExpiry(token); ok && tokenExp.Before(expiresAt) {
		expiresAt = tokenExp
	}

	sess := &model.Session{
		ID:        id,
		UserID:    userID,
		Role:      role,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}

	if err := m.repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return sess, nil
}

// Get は指定IDの有効なセッションを返す。
// 未存在・期限切れはnilを返す。3要素が揃っていない行と、
// Bearerトークン自体が期限切れの行は未認証として削除する。
func (m *Manager) Get(ctx context.Context, id string) (*model.Session, error) {
	if id == "" {
		return nil, nil
	}

	sess, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if sess == nil {
		return nil, nil
	}

	if !sess.Complete() {
		m.logger.Warn("dropping partial session",
			slog.String("session_id", sess.ID),
			slog.String("user_id", sess.UserID),
		)
		if err := m.repo.DeleteByID(ctx, sess.ID); err != nil {
			m.logger.Error("failed to delete partial session", slog.String("error", err.Error()))
		}
		return nil, nil
	}

	if tokenExp, ok := bearerExpiry(sess.Token); ok && time.Now().After(tokenExp) {
		if err := m.repo.DeleteByID(ctx, sess.ID); err != nil {
			m.logger.Error("failed to delete expired session", slog.String("error", err.Error()))
		}
		return nil, nil
	}

	return sess, nil
}

// Clear は指定IDのセッションを破棄する。冪等。
func (m *Manager) Clear(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := m.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// ClearUser は指定ユーザーの全セッションを破棄する。
// 強制再連携後など、全端末のログアウトが必要な場合に使用する。
func (m *Manager) ClearUser(ctx context.Context, userID string) error {
	if err := m.repo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear user sessions: %w", err)
	}
	return nil
}

// bearerExpiry はBearerトークンがJWTの場合にexpクレームを取り出す。
// 署名検証は行わない（検証責務はトークン発行元のバックエンドにある）。
// JWTでないトークン・expを持たないトークンはok=falseを返し、
// セッション側の有効期限のみで管理する。
func bearerExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
