package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "location_service_"

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	aggregateMutations *prometheus.CounterVec
	conflictRetries    *prometheus.CounterVec
)

// Init 注册指标。重复调用安全。
func Init() {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		)
		aggregateMutations = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "aggregate_mutations_total",
				Help: "Location aggregate mutations by operation and result",
			},
			[]string{"operation", "result"},
		)
		conflictRetries = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "version_conflict_retries_total",
				Help: "Optimistic version conflicts that triggered a reload",
			},
			[]string{"operation"},
		)

		prometheus.MustRegister(httpRequests, httpLatency, aggregateMutations, conflictRetries)
	})
}

// Handler 返回 Prometheus 抓取端点
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTP 记录一次 HTTP 请求
func ObserveHTTP(route, method string, status int, latency time.Duration) {
	if httpRequests == nil {
		return
	}
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpLatency.WithLabelValues(route, method).Observe(latency.Seconds())
}

// RecordMutation 记录聚合变更结果（create/update/delete × success/…）
func RecordMutation(operation, result string) {
	if aggregateMutations == nil {
		return
	}
	aggregateMutations.WithLabelValues(operation, result).Inc()
}

// RecordConflictRetry 记录一次版本冲突重试
func RecordConflictRetry(operation string) {
	if conflictRetries == nil {
		return
	}
	conflictRetries.WithLabelValues(operation).Inc()
}
