// Package metrics 提供 Prometheus helper，包含 HTTP 与定价业务指标
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标集合
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// 定价计算次数
	CalculationsTotal *prometheus.CounterVec
	// 定价失败次数
	ErrorsTotal *prometheus.CounterVec
	// 缓存命中情况
	CacheRequestsTotal *prometheus.CounterVec
	// 事件发布情况
	EventsPublishedTotal *prometheus.CounterVec
}

// New 创建指标实例并注册到独立的 registry
func New(serviceName string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		CalculationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "calculations_total",
			Help:      "Total pricing calculations by operation and option type",
		}, []string{"operation", "type"}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "errors_total",
			Help:      "Total rejected pricing requests by operation and reason",
		}, []string{"operation", "reason"}),
		CacheRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "cache_requests_total",
			Help:      "Quote cache lookups by result",
		}, []string{"result"}),
		EventsPublishedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "events_published_total",
			Help:      "Domain events published by type and outcome",
		}, []string{"event", "outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CalculationsTotal,
		m.ErrorsTotal,
		m.CacheRequestsTotal,
		m.EventsPublishedTotal,
	)
	return m
}

// Registry 返回底层 registry，便于测试读取
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回 Prometheus 抓取端点
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, seconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

// RecordCalculation 记录一次成功的定价计算
func (m *Metrics) RecordCalculation(operation, optionType string) {
	m.CalculationsTotal.WithLabelValues(operation, optionType).Inc()
}

// RecordError 记录一次被拒绝的定价请求
func (m *Metrics) RecordError(operation, reason string) {
	m.ErrorsTotal.WithLabelValues(operation, reason).Inc()
}

// RecordCache 记录缓存查询结果：hit, miss, error
func (m *Metrics) RecordCache(result string) {
	m.CacheRequestsTotal.WithLabelValues(result).Inc()
}

// RecordEvent 记录事件发布结果：ok, error
func (m *Metrics) RecordEvent(event, outcome string) {
	m.EventsPublishedTotal.WithLabelValues(event, outcome).Inc()
}

// Collector 业务层使用的指标接口
type Collector interface {
	RecordCalculation(operation, optionType string)
	RecordError(operation, reason string)
	RecordCache(result string)
	RecordEvent(event, outcome string)
}

// Noop 不记录任何指标
type Noop struct{}

func (Noop) RecordCalculation(string, string) {}
func (Noop) RecordError(string, string)       {}
func (Noop) RecordCache(string)               {}
func (Noop) RecordEvent(string, string)       {}
