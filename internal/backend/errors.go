package backend

import (
	"errors"
	"fmt"
	"strings"
)

// genericErrorMessage は通信エラー・パース不能レスポンスに対する
// 正規化メッセージ。詳細はログにのみ記録する。
const genericErrorMessage = "Internal server error"

// Kind はバックエンドエラーの分類を表す。
// バックエンドは構造化エラーコードを返さず英語メッセージのみを返すため、
// メッセージの部分文字列照合はHTTP境界のこの1箇所でのみ行い、
// 呼び出し側はKindで分岐する。
type Kind int

const (
	// KindGeneric は分類不能な一般エラー。
	KindGeneric Kind = iota
	// KindConflict は対象LINEアカウントが別ユーザーに連携済みであることを示す。
	KindConflict
	// KindExpired は連携トークンの期限切れを示す。
	KindExpired
)

// Error はバックエンド呼び出しの失敗を表す。
type Error struct {
	Kind       Kind
	StatusCode int // 通信エラー時は0
	Message    string
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	return fmt.Sprintf("backend error (status=%d): %s", e.StatusCode, e.Message)
}

// AsError はerrからbackend.Errorを取り出す。
func AsError(err error) (*Error, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// classifyMessage はバックエンドのエラーメッセージをKindに分類する。
func classifyMessage(msg string) Kind {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "already linked"):
		return KindConflict
	case strings.Contains(lower, "expired"):
		return KindExpired
	default:
		return KindGeneric
	}
}
