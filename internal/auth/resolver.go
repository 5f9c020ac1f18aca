// Package auth はLINE OAuthログイン、アカウント連携フロー、
// セッション発行を提供する。
package auth

import (
	"net/url"
	"strings"
)

// LinkingStatePrefix はアカウント連携フローを示すstateパラメータの接頭辞。
// 接頭辞より後ろの部分が連携検証トークンとなる。
const LinkingStatePrefix = "linking:"

// lineUserAgentMarker はLINEアプリ内ブラウザのUser-Agentに含まれる識別子。
const lineUserAgentMarker = "Line/"

// Intent は着信URLのナビゲーション意図を表す。
type Intent int

const (
	// IntentBeginLinking はアカウント連携の開始（認可URLへの誘導）。
	IntentBeginLinking Intent = iota
	// IntentCompleteLinking は連携コールバックの完了処理。
	IntentCompleteLinking
	// IntentCompleteLogin はログインコールバックの完了処理。
	IntentCompleteLogin
	// IntentLiffDeepLink はLIFF（アプリ内ブラウザ）のディープリンク解決。
	IntentLiffDeepLink
	// IntentReporterPortal はLINEアプリ内ブラウザからの素の訪問。
	IntentReporterPortal
	// IntentLogin は上記いずれにも該当しないフォールバック。
	IntentLogin
)

// String はIntentのログ用表記を返す。
func (i Intent) String() string {
	switch i {
	case IntentBeginLinking:
		return "begin_linking"
	case IntentCompleteLinking:
		return "complete_linking"
	case IntentCompleteLogin:
		return "complete_login"
	case IntentLiffDeepLink:
		return "liff_deep_link"
	case IntentReporterPortal:
		return "reporter_portal"
	default:
		return "login"
	}
}

// Resolution は着信URLの分類結果を表す。
// ナビゲーションは副作用ではなく戻り値として表現し、
// 呼び出し側（HTTPハンドラー）がリダイレクトを実行する。
type Resolution struct {
	Intent Intent

	// Code / State はコールバック系インテントで使用する。
	Code  string
	State string

	// VerificationToken は連携系インテントで使用する検証トークン。
	VerificationToken string

	// RedirectPath はナビゲーション系インテント
	// （LIFF・レポーターポータル・ログイン）の遷移先。
	RedirectPath string
}

// Resolve は着信URLのクエリパラメータとUser-Agentから
// ナビゲーション意図をちょうど1つ決定する。
// 判定は先勝ちで、複数の分岐が同時に成立することはない。
func Resolve(query url.Values, userAgent string) Resolution {
	code := query.Get("code")
	state := query.Get("state")
	token := query.Get("token")

	// 1. token有り・code無し → 連携開始
	if token != "" && code == "" {
		return Resolution{
			Intent:            IntentBeginLinking,
			VerificationToken: token,
		}
	}

	// 2. code有り・stateがlinking:接頭辞 → 連携完了
	if code != "" && strings.HasPrefix(state, LinkingStatePrefix) {
		return Resolution{
			Intent:            IntentCompleteLinking,
			Code:              code,
			State:             state,
			VerificationToken: strings.TrimPrefix(state, LinkingStatePrefix),
		}
	}

	// 3. code有り → ログイン完了
	if code != "" {
		return Resolution{
			Intent: IntentCompleteLogin,
			Code:   code,
			State:  state,
		}
	}

	// 4. LIFFパラメータ有り → ディープリンク解決
	if query.Get("liffClientId") != "" || query.Get("liffRedirectUri") != "" {
		return Resolution{
			Intent:       IntentLiffDeepLink,
			RedirectPath: resolveLiffTarget(query),
		}
	}

	// 5. LINEアプリ内ブラウザからの素の訪問 → レポーターポータル
	if strings.Contains(userAgent, lineUserAgentMarker) {
		return Resolution{
			Intent:       IntentReporterPortal,
			RedirectPath: PathReporterPortal,
		}
	}

	// 6. フォールバック → ログイン画面
	return Resolution{
		Intent:       IntentLogin,
		RedirectPath: PathAdminLogin,
	}
}

// resolveLiffTarget はliff.stateから遷移先パスを決定し、
// LIFF制御用以外の元のクエリパラメータを遷移先に引き継ぐ。
func resolveLiffTarget(query url.Values) string {
	target := PathReporterPortal
	if liffState := query.Get("liff.state"); strings.HasPrefix(liffState, "/repairs") {
		target = liffState
	}

	// LIFF制御用パラメータを除いた残りを引き継ぐ
	rest := url.Values{}
	for key, vals := range query {
		switch key {
		case "liffClientId", "liffRedirectUri", "liff.state":
			continue
		}
		for _, v := range vals {
			rest.Add(key, v)
		}
	}

	if len(rest) == 0 {
		return target
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + rest.Encode()
}
