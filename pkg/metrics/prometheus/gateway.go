package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/gatehouse/pkg/gateway"
	"github.com/marmos91/gatehouse/pkg/metrics"
)

// gatewayMetrics is the Prometheus implementation of gateway.Metrics.
type gatewayMetrics struct {
	loginsTotal    *prometheus.CounterVec
	loginDuration  *prometheus.HistogramVec
	authorizations *prometheus.CounterVec
}

// NewGatewayMetrics creates a new Prometheus-backed gateway.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewGatewayMetrics() gateway.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &gatewayMetrics{
		loginsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_logins_total",
				Help: "Total number of login attempts by outcome",
			},
			[]string{"outcome"}, // "success", "rejected", "unavailable"
		),
		loginDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "gatehouse_login_duration_milliseconds",
				Help: "Duration of login attempts including the directory bind, in milliseconds",
				Buckets: []float64{
					5,    // 5ms - local directory
					25,   // 25ms
					100,  // 100ms
					500,  // 500ms
					1000, // 1s
					5000, // 5s - directory timeout
				},
			},
			[]string{"outcome"},
		),
		authorizations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_authorizations_total",
				Help: "Total number of per-request session checks by result",
			},
			[]string{"result"}, // "allowed", "denied"
		),
	}
}

func (m *gatewayMetrics) ObserveLogin(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.loginsTotal.WithLabelValues(outcome).Inc()
	m.loginDuration.WithLabelValues(outcome).Observe(duration.Seconds() * 1000)
}

func (m *gatewayMetrics) RecordAuthorization(authorized bool) {
	if m == nil {
		return
	}
	result := "denied"
	if authorized {
		result = "allowed"
	}
	m.authorizations.WithLabelValues(result).Inc()
}
