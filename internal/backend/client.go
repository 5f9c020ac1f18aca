// Package backend は外部ヘルプデスクREST APIのクライアントを提供する。
// 修理チケット・貸出・ユーザー等のデータはすべて外部バックエンドが所有し、
// ポータルはこのクライアント経由で取得・更新する。
package backend

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// MetricsRecorder はバックエンド呼び出しの計測インターフェース。
type MetricsRecorder interface {
	RecordBackendCall(method, path string, statusCode int, duration time.Duration)
}

// nopMetrics は計測を行わないMetricsRecorder実装。
type nopMetrics struct{}

func (nopMetrics) RecordBackendCall(method, path string, statusCode int, duration time.Duration) {}

// Config はClientの設定。
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics MetricsRecorder
}

// Client は外部バックエンドAPIのHTTPクライアント。
// Bearerトークンはリクエスト単位で付与し、プロセス内には保持しない。
// 自動リトライは行わない。失敗はすべて呼び出し元に返し、
// 再試行は利用者の明示的な操作に委ねる。
type Client struct {
	rc      *resty.Client
	logger  *slog.Logger
	metrics MetricsRecorder
}

// New はClientを生成する。
func New(cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopMetrics{}
	}

	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		rc:      rc,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
}

// do はバックエンドへのHTTPリクエストを実行し、レスポンスをoutにデコードする。
//
//   - tokenが空でない場合のみAuthorization: Bearerヘッダーを付与する
//   - 非2xxレスポンスはボディのmessageフィールド（非JSONボディも許容）を
//     取り出し、分類済みの*Errorとして返す
//   - 通信エラー・デコード失敗は一般エラーメッセージに正規化する
//
// 返るエラーが唯一の失敗シグナルであり、部分的な結果は返さない。
func (c *Client) do(ctx context.Context, method, path, token string, query url.Values, body, out any) error {
	start := time.Now()

	req := c.rc.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode()
	}
	c.metrics.RecordBackendCall(method, path, statusCode, time.Since(start))

	if err != nil {
		c.logger.Error("backend request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return &Error{Kind: KindGeneric, StatusCode: 0, Message: genericErrorMessage}
	}

	if !resp.IsSuccess() {
		// 非JSONボディや空ボディを許容してmessageフィールドを探す
		msg := gjson.GetBytes(resp.Body(), "message").String()
		kind := classifyMessage(msg)
		if msg == "" {
			msg = genericErrorMessage
		}
		c.logger.Warn("backend returned error status",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", statusCode),
			slog.String("message", msg),
		)
		return &Error{Kind: kind, StatusCode: statusCode, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			c.logger.Error("failed to decode backend response",
				slog.String("method", method),
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			return &Error{Kind: KindGeneric, StatusCode: statusCode, Message: genericErrorMessage}
		}
	}

	return nil
}

func (c *Client) get(ctx context.Context, path, token string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, token, query, nil, out)
}

func (c *Client) post(ctx context.Context, path, token string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, token, nil, body, out)
}

func (c *Client) patch(ctx context.Context, path, token string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, token, nil, body, out)
}

func (c *Client) delete(ctx context.Context, path, token string) error {
	return c.do(ctx, http.MethodDelete, path, token, nil, nil, nil)
}
