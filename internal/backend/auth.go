package backend

import (
	"context"
	"encoding/json"
	"fmt"
)

// FlexibleID は数値・文字列のどちらで返ってきてもよいIDを表す。
// バックエンドのuserIdは数値で定義されているが、実際には文字列で
// 返るレスポンスも観測されているため両方を受け付ける。
type FlexibleID string

// UnmarshalJSON はJSONの数値または文字列をFlexibleIDにデコードする。
func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexibleID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %s", string(b))
	}
	*f = FlexibleID(n.String())
	return nil
}

// LineAuthURL はLINE認可URL取得エンドポイントのレスポンス。
type LineAuthURL struct {
	AuthURL     string `json:"auth_url"`
	ClientID    string `json:"client_id"`
	RedirectURI string `json:"redirect_uri"`
	State       string `json:"state"`
}

// LoginResult はログインコード交換のレスポンス。
type LoginResult struct {
	AccessToken string     `json:"access_token"`
	UserID      FlexibleID `json:"userId"`
	Role        string     `json:"role"`
}

// LinkingVerifyRequest は連携検証エンドポイントのリクエストボディ。
type LinkingVerifyRequest struct {
	UserID            string `json:"userId"`
	LineUserID        string `json:"lineUserId"`
	VerificationToken string `json:"verificationToken"`
	Force             bool   `json:"force"`
}

// GetLineAuthURL はLINE OAuthの認可URL情報を取得する。
func (c *Client) GetLineAuthURL(ctx context.Context) (*LineAuthURL, error) {
	var out LineAuthURL
	if err := c.get(ctx, "/api/auth/line-auth-url", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoginWithCode は認可コードをアクセストークン・ユーザーID・役割に交換する。
// コードは一度しか交換できない。
func (c *Client) LoginWithCode(ctx context.Context, code, state string) (*LoginResult, error) {
	body := map[string]string{"code": code, "state": state}
	var out LoginResult
	if err := c.post(ctx, "/api/auth/line-callback", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyLineCode は認可コードをLINEユーザーIDに解決する。
// アカウント連携フロー専用で、こちらもコードは一度しか使えない。
func (c *Client) VerifyLineCode(ctx context.Context, code string) (string, error) {
	body := map[string]string{"code": code}
	var out struct {
		LineUserID string `json:"lineUserId"`
	}
	if err := c.post(ctx, "/api/auth/verify-line-code", "", body, &out); err != nil {
		return "", err
	}
	return out.LineUserID, nil
}

// VerifyLinking はLINEアカウントとローカルアカウントの連携を検証・確定する。
// Bearer認証必須。連携済み競合はKindConflict、トークン期限切れは
// KindExpiredのエラーとして返る。
func (c *Client) VerifyLinking(ctx context.Context, token string, req LinkingVerifyRequest) error {
	return c.post(ctx, "/api/line-oa/linking/verify", token, req, nil)
}
