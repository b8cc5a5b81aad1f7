// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層、ワーカーから利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRegistration(mode string)
	RecordLogin(method string)
	RecordDispatch(sink, result string)
	RecordEventConsumed(eventType string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus     *prometheus.CounterVec
	registrations  *prometheus.CounterVec
	logins         *prometheus.CounterVec
	dispatches     *prometheus.CounterVec
	eventsConsumed *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskdeck_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskdeck_registrations_total",
			Help: "アイデンティティモード別のユーザー登録数",
		}, []string{"mode"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskdeck_logins_total",
			Help: "認証方式別のログイン成功数",
		}, []string{"method"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskdeck_event_dispatch_total",
			Help: "シンク・結果別のイベント発行試行数",
		}, []string{"sink", "result"}),
		eventsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskdeck_events_consumed_total",
			Help: "ワーカーが処理したイベントの種類別合計数",
		}, []string{"event_type"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.registrations,
		c.logins,
		c.dispatches,
		c.eventsConsumed,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRegistration はユーザー登録をアイデンティティモード別に記録する。
func (c *Collector) RecordRegistration(mode string) {
	c.registrations.WithLabelValues(mode).Inc()
}

// RecordLogin はログイン成功を認証方式別に記録する。
func (c *Collector) RecordLogin(method string) {
	c.logins.WithLabelValues(method).Inc()
}

// RecordDispatch はイベント発行の試行結果を記録する。
func (c *Collector) RecordDispatch(sink, result string) {
	c.dispatches.WithLabelValues(sink, result).Inc()
}

// RecordEventConsumed はワーカーが処理したイベントを記録する。
func (c *Collector) RecordEventConsumed(eventType string) {
	c.eventsConsumed.WithLabelValues(eventType).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
