package poller

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeSkipped = "skipped"
)

// Metrics instruments every poller. A nil *Metrics is a no-op so
// tests can run pollers bare.
type Metrics struct {
	ticks       *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
}

// NewMetrics registers the poll metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "signalpanel",
			Subsystem: "poll",
			Name:      "ticks_total",
			Help:      "Poll ticks by task and outcome.",
		}, []string{"task", "outcome"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "signalpanel",
			Subsystem: "poll",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful tick per task.",
		}, []string{"task"}),
	}
	reg.MustRegister(m.ticks, m.lastSuccess)
	return m
}

func (m *Metrics) tick(task, outcome string) {
	if m == nil {
		return
	}
	m.ticks.WithLabelValues(task, outcome).Inc()
}

func (m *Metrics) success(task string, at time.Time) {
	if m == nil {
		return
	}
	m.lastSuccess.WithLabelValues(task).Set(float64(at.Unix()))
}
