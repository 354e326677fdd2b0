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
// ファンアウトワーカーやサービス層から利用する。
type MetricsCollector interface {
	RecordBatchSent(recipients int)
	RecordBatchFailure(contentType string)
	RecordFanoutCompleted(duration time.Duration)
	RecordHTTPStatus(statusCode int)
	RecordSubscriberSignup()
	RecordLikeToggled()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	batchesSent       prometheus.Counter
	recipientsTotal   prometheus.Counter
	batchFailures     *prometheus.CounterVec
	fanoutDuration    prometheus.Histogram
	httpStatus        *prometheus.CounterVec
	subscriberSignups prometheus.Counter
	likesToggled      prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		batchesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jbbc_mail_batches_sent_total",
			Help: "送信に成功したメールバッチの合計数",
		}),
		recipientsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jbbc_mail_recipients_total",
			Help: "メールを送信した受信者の合計数",
		}),
		batchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jbbc_mail_batch_failures_total",
			Help: "コンテンツ種別ごとのメールバッチ送信失敗数",
		}, []string{"content_type"}),
		fanoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "jbbc_fanout_duration_seconds",
			Help:    "ファンアウトジョブ全体の所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jbbc_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		subscriberSignups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jbbc_subscriber_signups_total",
			Help: "購読登録の合計数",
		}),
		likesToggled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jbbc_likes_toggled_total",
			Help: "ブログ記事いいねトグルの合計数",
		}),
	}

	reg.MustRegister(
		c.batchesSent,
		c.recipientsTotal,
		c.batchFailures,
		c.fanoutDuration,
		c.httpStatus,
		c.subscriberSignups,
		c.likesToggled,
	)

	return c
}

// RecordBatchSent はバッチ送信成功と受信者数を記録する。
func (c *Collector) RecordBatchSent(recipients int) {
	c.batchesSent.Inc()
	c.recipientsTotal.Add(float64(recipients))
}

// RecordBatchFailure はバッチ送信失敗を記録する。
func (c *Collector) RecordBatchFailure(contentType string) {
	c.batchFailures.WithLabelValues(contentType).Inc()
}

// RecordFanoutCompleted はファンアウトジョブの所要時間を記録する。
func (c *Collector) RecordFanoutCompleted(duration time.Duration) {
	c.fanoutDuration.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordSubscriberSignup は購読登録を記録する。
func (c *Collector) RecordSubscriberSignup() {
	c.subscriberSignups.Inc()
}

// RecordLikeToggled はいいねトグルを記録する。
func (c *Collector) RecordLikeToggled() {
	c.likesToggled.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
