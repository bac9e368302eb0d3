package genclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postcraft_genai_requests_total",
			Help: "Total number of generation requests by operation and outcome.",
		},
		[]string{"operation", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postcraft_genai_request_duration_seconds",
			Help:    "Duration of generation requests by operation.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160, 320, 640},
		},
		[]string{"operation"},
	)
)

// observe は操作の結果を記録します。status は成功時 "ok"、失敗時は Kind です。
func observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = string(KindOf(err))
		if status == "" {
			status = string(KindTransport)
		}
	}
	requestsTotal.WithLabelValues(op, status).Inc()
	requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
