// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/somchai/helpdesk/internal/model"
)

// Collector はPrometheusメトリクスを収集する実装。
// 認証フロー（auth.Metrics）とバックエンド呼び出し
// （backend.MetricsRecorder）の両方の計測点を実装する。
type Collector struct {
	loginSuccess   prometheus.Counter
	loginFail      prometheus.Counter
	linkOutcome    *prometheus.CounterVec
	backendStatus  *prometheus.CounterVec
	backendLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "helpdesk_login_success_total",
			Help: "ログイン成功の合計数",
		}),
		loginFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "helpdesk_login_fail_total",
			Help: "ログイン失敗の合計数",
		}),
		linkOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_link_outcome_total",
			Help: "アカウント連携試行の最終状態別の合計数",
		}, []string{"state"}),
		backendStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_backend_status_total",
			Help: "バックエンドAPIのHTTPステータスコード別のレスポンス数",
		}, []string{"method", "status_code"}),
		backendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "helpdesk_backend_latency_seconds",
			Help:    "バックエンドAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.loginSuccess,
		c.loginFail,
		c.linkOutcome,
		c.backendStatus,
		c.backendLatency,
	)

	return c
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure() {
	c.loginFail.Inc()
}

// RecordLinkOutcome は連携試行の最終状態を記録する。
func (c *Collector) RecordLinkOutcome(state model.LinkingState) {
	c.linkOutcome.WithLabelValues(string(state)).Inc()
}

// RecordBackendCall はバックエンドAPI呼び出しの結果を記録する。
// statusCodeが0の場合は通信エラーを表す。
func (c *Collector) RecordBackendCall(method, path string, statusCode int, duration time.Duration) {
	c.backendStatus.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.backendLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
