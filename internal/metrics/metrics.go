package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EstimateRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ikemen_estimate_requests_total",
		Help: "Total number of /api/estimate requests",
	})
	RegionsRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ikemen_regions_requests_total",
		Help: "Total number of /api/regions requests",
	})
	RequestDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ikemen_request_duration_ms",
		Help:    "Request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	})
	NotFoundTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ikemen_not_found_total",
		Help: "Total estimates resolved to the not-found shape",
	})
	FallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ikemen_backend_fallback_total",
		Help: "Total estimates degraded by an unexpected internal error",
	})
	MemoHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ikemen_memo_hits_total",
		Help: "Total in-process TTL cache hits",
	})
	MemoMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ikemen_memo_misses_total",
		Help: "Total in-process TTL cache misses",
	})
	RedisHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ikemen_redis_hits_total",
		Help: "Total redis cache hits",
	})
	RedisMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ikemen_redis_misses_total",
		Help: "Total redis cache misses",
	})
	OverrideHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ikemen_override_hits_total",
		Help: "Total estimates served from the manual override store",
	})
	WDQSRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ikemen_wdqs_requests_total",
		Help: "Total SPARQL requests issued to the query service",
	})
	WDQSSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ikemen_wdqs_success_total",
		Help: "Total SPARQL requests answered with a decodable result",
	})
	WDQSFailTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ikemen_wdqs_fail_total",
		Help: "Total SPARQL attempts failed by transport, status or decode",
	})
	WDQSRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ikemen_wdqs_retries_total",
		Help: "Total SPARQL retry attempts after a failed attempt",
	})
	WDQSUnavailableTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ikemen_wdqs_unavailable_total",
		Help: "Total SPARQL queries abandoned after retry exhaustion",
	})
	WDQSDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ikemen_wdqs_duration_ms",
		Help:    "SPARQL call duration in milliseconds",
		Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000, 10000},
	})
	EstatRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ikemen_estat_requests_total",
		Help: "Total e-Stat proxy requests",
	})
	EstatFailTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ikemen_estat_fail_total",
		Help: "Total e-Stat proxy upstream failures",
	})
)

func init() {
	prometheus.MustRegister(EstimateRequestsTotal)
	prometheus.MustRegister(RegionsRequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(NotFoundTotal)
	prometheus.MustRegister(FallbackTotal)
	prometheus.MustRegister(MemoHitsTotal)
	prometheus.MustRegister(MemoMissesTotal)
	prometheus.MustRegister(RedisHitsTotal)
	prometheus.MustRegister(RedisMissesTotal)
	prometheus.MustRegister(OverrideHitsTotal)
	prometheus.MustRegister(WDQSRequestsTotal)
	prometheus.MustRegister(WDQSSuccessTotal)
	prometheus.MustRegister(WDQSFailTotal)
	prometheus.MustRegister(WDQSRetriesTotal)
	prometheus.MustRegister(WDQSUnavailableTotal)
	prometheus.MustRegister(WDQSDurationMs)
	prometheus.MustRegister(EstatRequestsTotal)
	prometheus.MustRegister(EstatFailTotal)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }
