package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveCycle(3, 2, 150*time.Millisecond)
	m.ObserveCycle(1, 0, 50*time.Millisecond)
	m.FetchFailed("AAPL")
	m.FetchFailed("AAPL")
	m.NotifyFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CyclesTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AlertsFiredTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveAlerts))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FetchFailuresTotal.WithLabelValues("AAPL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotifyFailuresTotal))
}

func TestMetricsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCycle(1, 1, time.Second)
		m.FetchFailed("AAPL")
		m.NotifyFailed()
	})
}
