package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "price_alert"

// Metrics holds the monitor collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	CyclesTotal          prometheus.Counter
	AlertsFiredTotal     prometheus.Counter
	FetchFailuresTotal   *prometheus.CounterVec
	NotifyFailuresTotal  prometheus.Counter
	CycleDurationSeconds prometheus.Histogram
	ActiveAlerts         prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "cycles_total",
			Help:      "Number of completed monitor cycles",
		}),
		AlertsFiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "alerts_fired_total",
			Help:      "Number of alerts that fired",
		}),
		FetchFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "price_fetch_failures_total",
			Help:      "Number of failed price fetches per ticker",
		}, []string{"ticker"}),
		NotifyFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "notify_failures_total",
			Help:      "Number of notifications that could not be delivered",
		}),
		CycleDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of monitor cycles",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		ActiveAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "active_alerts",
			Help:      "Active alerts seen by the last cycle",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.CyclesTotal,
		m.AlertsFiredTotal,
		m.FetchFailuresTotal,
		m.NotifyFailuresTotal,
		m.CycleDurationSeconds,
		m.ActiveAlerts,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveCycle records a finished cycle.
func (m *Metrics) ObserveCycle(active, fired int, took time.Duration) {
	if m == nil {
		return
	}
	m.CyclesTotal.Inc()
	m.AlertsFiredTotal.Add(float64(fired))
	m.ActiveAlerts.Set(float64(active))
	m.CycleDurationSeconds.Observe(took.Seconds())
}

func (m *Metrics) FetchFailed(ticker string) {
	if m == nil {
		return
	}
	m.FetchFailuresTotal.WithLabelValues(ticker).Inc()
}

func (m *Metrics) NotifyFailed() {
	if m == nil {
		return
	}
	m.NotifyFailuresTotal.Inc()
}
