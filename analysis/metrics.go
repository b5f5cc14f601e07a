package analysis

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records pass timings and outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	PassDuration  *prometheus.HistogramVec
	PassResults   *prometheus.CounterVec
	StoreMessages prometheus.Gauge
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PassDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chat_insight_pass_duration_seconds",
			Help:    "Wall time of one analysis pass.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"pass"}),
		PassResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_insight_pass_results_total",
			Help: "Analysis pass results by status.",
		}, []string{"pass", "status"}),
		StoreMessages: f.NewGauge(prometheus.GaugeOpts{
			Name: "chat_insight_store_messages",
			Help: "Messages in the analyzed store.",
		}),
	}
}

func (m *Metrics) observePass(pass string, status Status, d time.Duration) {
	if m == nil {
		return
	}
	m.PassDuration.WithLabelValues(pass).Observe(d.Seconds())
	m.PassResults.WithLabelValues(pass, string(status)).Inc()
}

func (m *Metrics) setMessages(n int) {
	if m == nil {
		return
	}
	m.StoreMessages.Set(float64(n))
}
