// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。メッセージは利用者向けの
// タイ語、コードは機械判定用の英語定数とする。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ（利用者向け）
	Category string // カテゴリ: auth, linking, validation, backend, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeLoginFailed        = "LOGIN_FAILED"
	ErrCodeCodeExchangeFailed = "CODE_EXCHANGE_FAILED"
	ErrCodeMissingUserData    = "MISSING_USER_DATA"
	ErrCodeLinkConflict       = "LINK_CONFLICT"
	ErrCodeLinkExpired        = "LINK_EXPIRED"
	ErrCodeLinkIncomplete     = "LINK_INCOMPLETE"
	ErrCodeLinkFailed         = "LINK_FAILED"
	ErrCodeValidation         = "VALIDATION_FAILED"
	ErrCodeBackend            = "BACKEND_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "กรุณาเข้าสู่ระบบ",
		Category: "auth",
		Action:   "เข้าสู่ระบบแล้วลองใหม่อีกครั้ง",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "คุณไม่มีสิทธิ์เข้าถึงส่วนนี้",
		Category: "auth",
		Action:   "ติดต่อผู้ดูแลระบบหากต้องการสิทธิ์เพิ่มเติม",
	}
}

// NewLoginFailedError はログインコード交換の失敗エラーを生成する。
// バックエンドからメッセージが得られた場合はそれを優先する。
func NewLoginFailedError(backendMessage string) *APIError {
	msg := backendMessage
	if msg == "" {
		msg = "การยืนยันตัวตนล้มเหลว"
	}
	return &APIError{
		Code:     ErrCodeLoginFailed,
		Message:  msg,
		Category: "auth",
		Action:   "กลับไปหน้าเข้าสู่ระบบแล้วลองใหม่อีกครั้ง",
	}
}

// NewCodeExchangeFailedError は認可コードからLINEユーザーIDへの
// 交換失敗エラーを生成する。
func NewCodeExchangeFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeCodeExchangeFailed,
		Message:  "การแจ้งยืนยันตัวตนล้มเหลว",
		Category: "linking",
		Action:   "เริ่มการเชื่อมต่อบัญชีใหม่อีกครั้ง",
	}
}

// NewMissingUserDataError はセッションにユーザーIDまたはトークンが
// 存在しない場合のエラーを生成する。
func NewMissingUserDataError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingUserData,
		Message:  "ไม่พบข้อมูลผู้ใช้ กรุณาเข้าสู่ระบบใหม่",
		Category: "auth",
		Action:   "เข้าสู่ระบบแล้วเริ่มการเชื่อมต่อบัญชีใหม่",
	}
}

// NewLinkConflictError は連携先LINEアカウントが既に別ユーザーと
// 連携済みの場合のエラーを生成する。強制再連携で回復できる。
func NewLinkConflictError() *APIError {
	return &APIError{
		Code:     ErrCodeLinkConflict,
		Message:  "บัญชี LINE นี้ถูกเชื่อมต่อกับผู้ใช้อื่นแล้ว",
		Category: "linking",
		Action:   "กดยืนยันเพื่อย้ายการเชื่อมต่อมาที่บัญชีนี้",
	}
}

// NewLinkExpiredError は連携リンクの期限切れエラーを生成する。
func NewLinkExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeLinkExpired,
		Message:  "ลิงก์หมดอายุ กรุณาทำรายการใหม่",
		Category: "linking",
		Action:   "ขอลิงก์เชื่อมต่อบัญชีใหม่แล้วลองอีกครั้ง",
	}
}

// NewLinkIncompleteError は強制再連携に必要な引き継ぎ値が
// 欠落している場合のエラーを生成する。
func NewLinkIncompleteError() *APIError {
	return &APIError{
		Code:     ErrCodeLinkIncomplete,
		Message:  "ข้อมูลไม่สมบูรณ์ กรุณาเริ่มต้นใหม่",
		Category: "linking",
		Action:   "เริ่มการเชื่อมต่อบัญชีตั้งแต่ต้นอีกครั้ง",
	}
}

// NewLinkFailedError はその他の連携失敗エラーを生成する。
// バックエンドのメッセージをそのまま表示する。
func NewLinkFailedError(backendMessage string) *APIError {
	msg := backendMessage
	if msg == "" {
		msg = "การเชื่อมต่อบัญชีล้มเหลว"
	}
	return &APIError{
		Code:     ErrCodeLinkFailed,
		Message:  msg,
		Category: "linking",
		Action:   "ลองใหม่อีกครั้ง หรือติดต่อผู้ดูแลระบบ",
	}
}

// NewValidationError は入力値検証エラーを生成する。
func NewValidationError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("ข้อมูลไม่ถูกต้อง: %s", detail),
		Category: "validation",
		Action:   "ตรวจสอบข้อมูลแล้วส่งใหม่อีกครั้ง",
	}
}

// NewBackendError はバックエンド呼び出し失敗エラーを生成する。
func NewBackendError(backendMessage string) *APIError {
	msg := backendMessage
	if msg == "" {
		msg = "เกิดข้อผิดพลาดภายในระบบ"
	}
	return &APIError{
		Code:     ErrCodeBackend,
		Message:  msg,
		Category: "backend",
		Action:   "รอสักครู่แล้วลองใหม่อีกครั้ง",
	}
}

// NewNotFoundError は対象リソースが見つからない場合のエラーを生成する。
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("ไม่พบข้อมูล: %s", resource),
		Category: "backend",
		Action:   "ตรวจสอบรายการที่เลือกอีกครั้ง",
	}
}
