// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService は修理チケット・貸出の自由入力テキストを
// サニタイズし、格納データ経由のXSSからポータル利用者を保護する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService は自由入力テキストのサニタイズインターフェース。
// バックエンドへの書き込み前に使用される。
type TextSanitizerService interface {
	// SanitizeText は入力からHTMLタグをすべて除去した素のテキストを返す。
	// チケットの説明や備考はプレーンテキストとして扱うため、
	// タグの通過は一切許可しない。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayの厳格ポリシーを保持し、スレッドセーフに処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// bluemondayのStrictPolicy（全タグ除去）を使用する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText は入力からHTMLタグをすべて除去した素のテキストを返す。
// bluemondayはタグ除去後のテキストをHTMLエスケープして返すため、
// プレーンテキストとして格納できるようにエスケープを戻す。
func (s *textSanitizer) SanitizeText(raw string) string {
	cleaned := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}
