// Package metrics 提供 Prometheus 指标的收集与暴露。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector 是指标收集接口，供处理层和服务层使用。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordPostCreated()
	RecordPostView()
}

// Collector 是基于 Prometheus 的实现。
type Collector struct {
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
	loginSuccess   prometheus.Counter
	loginFail      prometheus.Counter
	postsCreated   prometheus.Counter
	postViews      prometheus.Counter
}

// NewCollector 生成 Collector 并把指标注册到给定的注册表。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kinghome_http_status_total",
			Help: "按 HTTP 状态码统计的响应数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kinghome_request_latency_seconds",
			Help:    "HTTP 请求处理延迟（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kinghome_login_success_total",
			Help: "登录成功的合计数",
		}),
		loginFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kinghome_login_fail_total",
			Help: "登录失败的合计数",
		}),
		postsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kinghome_posts_created_total",
			Help: "创建笔记的合计数",
		}),
		postViews: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kinghome_post_views_total",
			Help: "笔记详情阅读的合计数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.loginSuccess,
		c.loginFail,
		c.postsCreated,
		c.postViews,
	)

	return c
}

// RecordHTTPStatus 记录一次 HTTP 响应的状态码。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency 记录一次请求的处理延迟。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordLoginSuccess 记录一次登录成功。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure 记录一次登录失败。
func (c *Collector) RecordLoginFailure() {
	c.loginFail.Inc()
}

// RecordPostCreated 记录一次笔记创建。
func (c *Collector) RecordPostCreated() {
	c.postsCreated.Inc()
}

// RecordPostView 记录一次笔记详情阅读。
func (c *Collector) RecordPostView() {
	c.postViews.Inc()
}

// Handler 返回 Prometheus 抓取用的 HTTP 处理器。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
