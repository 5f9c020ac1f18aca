package model

import "time"

// LinkingState はLINEアカウント連携フローの状態を表す。
// 連携ネゴシエーターは明示的な有限状態機械としてこの状態を遷移する。
type LinkingState string

const (
	// LinkingStateInit は連携処理の初期状態。
	LinkingStateInit LinkingState = "INIT"
	// LinkingStateExchangingCode は認可コードをLINEユーザーIDに交換中の状態。
	LinkingStateExchangingCode LinkingState = "EXCHANGING_CODE"
	// LinkingStateVerifyingLink はバックエンドの連携検証エンドポイントを呼び出し中の状態。
	LinkingStateVerifyingLink LinkingState = "VERIFYING_LINK"
	// LinkingStateLinked は連携が完了した終端状態。
	LinkingStateLinked LinkingState = "LINKED"
	// LinkingStateConflict は対象のLINEアカウントが別ユーザーに連携済みの状態。
	// 強制再連携（FORCE_LINKING）でのみ回復できる。
	LinkingStateConflict LinkingState = "CONFLICT"
	// LinkingStateForceLinking はforce=trueで再連携を実行中の状態。
	LinkingStateForceLinking LinkingState = "FORCE_LINKING"
	// LinkingStateFailed は回復不能な失敗の終端状態。
	LinkingStateFailed LinkingState = "FAILED"
)

// LinkingRequest はCONFLICT状態から強制再連携へ引き継ぐ連携要求を表す。
// 認可コードは一度しか交換できないため、交換済みのLineUserIDと
// VerificationTokenをこの構造体で保持し、強制再連携時に再利用する。
// 1回の連携試行ごとに生成され、TTL付きで短期保存される。
type LinkingRequest struct {
	UserID            string    `json:"user_id"`
	LineUserID        string    `json:"line_user_id"`
	VerificationToken string    `json:"verification_token"`
	CreatedAt         time.Time `json:"created_at"`
}

// Complete は強制再連携に必要な値が揃っているかを返す。
func (r *LinkingRequest) Complete() bool {
	return r != nil && r.LineUserID != "" && r.VerificationToken != ""
}
