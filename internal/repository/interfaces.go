// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/somchai/helpdesk/internal/model"
)

// SessionRepository はポータルセッションの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れ・未存在の場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// LinkingRepository はアカウント連携の引き継ぎ状態の短期保存インターフェース。
// CONFLICT状態から強制再連携までの間だけ値を保持できればよいため、
// 実装はTTL付きキーバリューストアを想定する。
type LinkingRepository interface {
	// SaveRequest は連携要求を保存する。同一ユーザーの既存要求は上書きされる。
	SaveRequest(ctx context.Context, req *model.LinkingRequest) error
	// FindRequest は指定ユーザーの連携要求を取得する。未存在・期限切れはnilを返す。
	FindRequest(ctx context.Context, userID string) (*model.LinkingRequest, error)
	// DeleteRequest は指定ユーザーの連携要求を削除する。冪等。
	DeleteRequest(ctx context.Context, userID string) error
	// AcquireCodeOnce は認可コードの一回限りの使用権を取得する。
	// 初回の呼び出しのみtrueを返し、同じコードでの再呼び出しはfalseを返す。
	AcquireCodeOnce(ctx context.Context, code string) (bool, error)
}
