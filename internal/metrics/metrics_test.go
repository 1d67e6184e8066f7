package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-api/internal/metrics"
)

func TestNew_RegistersInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.AuthEvent("login", "success")
	m.AuthEvent("login", "success")
	m.Cleanup("deleted")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthEvents.WithLabelValues("login", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MediaCleanup.WithLabelValues("deleted")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["blog_auth_events_total"])
	assert.True(t, names["blog_media_cleanup_total"])
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.AuthEvent("login", "failure")
		m.Cleanup("failed")
	})
}

func TestNewRegistry(t *testing.T) {
	reg := metrics.NewRegistry()
	metrics.New(reg)
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
