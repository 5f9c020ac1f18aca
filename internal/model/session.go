// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// Role はポータル利用者の役割を表す。
type Role string

const (
	// RoleAdmin はシステム管理者。
	RoleAdmin Role = "ADMIN"
	// RoleIT はIT担当者（修理対応スタッフ）。
	RoleIT Role = "IT"
	// RoleUser は一般利用者（修理依頼者）。
	RoleUser Role = "USER"
)

// ParseRole はバックエンドが返すrole文字列を正規化する。
// 大文字小文字は区別せず、未知の値はRoleUserにフォールバックする。
func ParseRole(s string) Role {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(RoleAdmin):
		return RoleAdmin
	case string(RoleIT):
		return RoleIT
	default:
		return RoleUser
	}
}

// Session はポータルのログインセッションを表す。
// Tokenは外部バックエンドが発行したBearerトークンで、ポータルは
// バックエンド呼び出し時にそのまま転送する。
type Session struct {
	ID        string
	UserID    string
	Role      Role
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Complete はセッションの必須3要素（トークン・ユーザーID・役割）が
// すべて揃っているかを返す。部分的にしか揃っていないセッションは
// 未認証として扱う。
func (s *Session) Complete() bool {
	return s != nil && s.Token != "" && s.UserID != "" && s.Role != ""
}
