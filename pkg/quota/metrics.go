package quota

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keygate_quota_checks_total",
			Help: "Total number of quota check-and-increment calls",
		},
		[]string{"backend", "result"},
	)

	checkDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "keygate_quota_check_duration_seconds",
			Help:    "Latency of quota check-and-increment calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)
)

// observeCheck records the outcome and latency of one ledger call.
func observeCheck(backend string, decision *Decision, err error, start time.Time) {
	result := "error"
	if err == nil {
		if decision.Admitted {
			result = "admitted"
		} else {
			result = "denied"
		}
	}

	checksTotal.WithLabelValues(backend, result).Inc()
	checkDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
}
