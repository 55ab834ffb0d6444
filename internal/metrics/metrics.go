// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェア、サービス層、レコードストアから利用する。
type MetricsCollector interface {
	RecordHTTPRequest(route, method string, statusCode int, duration time.Duration)
	RecordAuthFailure(reason string)
	RecordStoreOperation(backend, op string, err error, duration time.Duration)
	RecordLocationAppended()
	RecordUserRegistered()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
	authFailures    *prometheus.CounterVec
	storeOps        *prometheus.CounterVec
	storeLatency    *prometheus.HistogramVec
	locationsAdded  prometheus.Counter
	usersRegistered prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guardify_http_requests_total",
			Help: "ルート・メソッド・ステータスコード別のHTTPリクエスト数",
		}, []string{"route", "method", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "guardify_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guardify_auth_failures_total",
			Help: "理由別の認証失敗数",
		}, []string{"reason"}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guardify_store_operations_total",
			Help: "バックエンド・操作・結果別のレコードストア操作数",
		}, []string{"backend", "op", "result"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "guardify_store_operation_duration_seconds",
			Help:    "レコードストア操作のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend", "op"}),
		locationsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guardify_locations_appended_total",
			Help: "追記された位置情報の合計数",
		}),
		usersRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guardify_users_registered_total",
			Help: "新規登録（上書きを含む）されたユーザーの合計数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.authFailures,
		c.storeOps,
		c.storeLatency,
		c.locationsAdded,
		c.usersRegistered,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの結果と処理時間を記録する。
func (c *Collector) RecordHTTPRequest(route, method string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(route, method, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordAuthFailure は認証失敗を記録する。reasonは "missing_token" または "invalid_token"。
func (c *Collector) RecordAuthFailure(reason string) {
	c.authFailures.WithLabelValues(reason).Inc()
}

// RecordStoreOperation はレコードストア操作の結果とレイテンシを記録する。
func (c *Collector) RecordStoreOperation(backend, op string, err error, duration time.Duration) {
	result := "success"
	if err != nil {
		result = "error"
	}
	c.storeOps.WithLabelValues(backend, op, result).Inc()
	c.storeLatency.WithLabelValues(backend, op).Observe(duration.Seconds())
}

// RecordLocationAppended は位置情報の追記を記録する。
func (c *Collector) RecordLocationAppended() {
	c.locationsAdded.Inc()
}

// RecordUserRegistered は新規ユーザーの保存を記録する。
func (c *Collector) RecordUserRegistered() {
	c.usersRegistered.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
