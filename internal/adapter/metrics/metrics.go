package metrics

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpReqTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "change_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "change_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "endpoint"})

	dispositionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "change_dispositions_total",
		Help: "Completed transactions by disposition",
	}, []string{"disposition"})

	changeCentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "change_amount_cents_total",
		Help: "Change resolved, in minor units, by disposition",
	}, []string{"disposition"})

	payoutStatusTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "change_payout_status_updates_total",
		Help: "Admin payout decisions by resulting status",
	}, []string{"status"})

	rateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "change_rate_limited_total",
		Help: "Requests rejected with 429, by rate limit group",
	}, []string{"group"})

	balanceMismatches = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "change_balance_mismatches",
		Help: "Customers whose balance differs from their deposit total at the last reconciliation",
	})
)

// Middleware records request count and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		timer := prometheus.NewTimer(httpLatency.WithLabelValues(c.Request.Method, endpoint))

		c.Next()

		timer.ObserveDuration()
		httpReqTotal.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// RateLimited counts a request rejected by the limiter for group.
func RateLimited(group string) {
	rateLimitedTotal.WithLabelValues(group).Inc()
}

// Recorder implements the service-side metrics hooks.
type Recorder struct{}

// NewRecorder returns a Recorder backed by the default registry.
func NewRecorder() *Recorder { return &Recorder{} }

func (Recorder) Disposition(kind string, changeCents int64) {
	dispositionsTotal.WithLabelValues(kind).Inc()
	changeCentsTotal.WithLabelValues(kind).Add(float64(changeCents))
}

func (Recorder) PayoutStatus(status string) {
	payoutStatusTotal.WithLabelValues(status).Inc()
}

func (Recorder) Mismatches(n int) {
	balanceMismatches.Set(float64(n))
}
