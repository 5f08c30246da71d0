package metric

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()

	require.NotNil(t, registry)
	require.NotNil(t, registry.CoreMetrics())
	require.NotNil(t, registry.PrometheusRegistry())
}

func TestMetrics_RecordOperation(t *testing.T) {
	registry := NewMetricsRegistry()
	m := registry.CoreMetrics()

	m.RecordOperation("load", "ok")
	m.RecordOperation("load", "ok")
	m.RecordOperation("load", "error")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("load", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("load", "error")))
}

func TestMetrics_RecordResourceCount(t *testing.T) {
	registry := NewMetricsRegistry()
	m := registry.CoreMetrics()

	m.RecordResourceCount(42)
	assert.Equal(t, 42.0, testutil.ToFloat64(m.ResourceCount))

	m.RecordResourceCount(0)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ResourceCount))
}

func TestMetrics_RecordEvents(t *testing.T) {
	registry := NewMetricsRegistry()
	m := registry.CoreMetrics()

	m.RecordEventPublished()
	m.RecordEventPublished()
	m.RecordEventPublishFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsPublished))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventPublishFailed))
}

func TestMetrics_RecordNATSStatus(t *testing.T) {
	registry := NewMetricsRegistry()
	m := registry.CoreMetrics()

	m.RecordNATSStatus(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NATSConnected))

	m.RecordNATSStatus(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.NATSConnected))

	m.RecordNATSRTT(3 * time.Millisecond)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.NATSRTT))
}

func TestMetricsRegistry_RegisterCollector(t *testing.T) {
	registry := NewMetricsRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "trawl_test_gauge",
		Help: "test gauge",
	})

	require.NoError(t, registry.RegisterCollector("test_gauge", gauge))

	// Duplicate name is rejected
	err := registry.RegisterCollector("test_gauge", gauge)
	assert.Error(t, err)

	// Unregister then re-register succeeds
	assert.True(t, registry.Unregister("test_gauge"))
	assert.False(t, registry.Unregister("test_gauge"))
	assert.NoError(t, registry.RegisterCollector("test_gauge", gauge))
}

func TestServer_Defaults(t *testing.T) {
	registry := NewMetricsRegistry()
	server := NewServer(0, "", registry)

	assert.Equal(t, 9090, server.port)
	assert.Equal(t, "/metrics", server.path)
	assert.Equal(t, "http://localhost:9090/metrics", server.Address())
}
