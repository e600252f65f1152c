package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	require.NotNil(t, m)

	gathered, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, gathered)
}

func TestNewMetricsSurvivesReregistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	require.NotPanics(t, func() {
		NewMetrics(reg)
		NewMetrics(reg)
	})
}

func TestNewMetricsWithNilRegistererIsUnregistered(t *testing.T) {
	require.NotPanics(t, func() {
		m := NewMetrics(nil)
		m.ChannelOpened()
	})
}

func TestChannelCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ChannelOpened()
	m.ChannelOpened()
	m.ChannelClosed()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.ChannelsOpen))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ChannelsTotal))
}

func TestSessionCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.SessionCreated("anonymous")
	m.SessionCreated("username")
	m.SessionClosed()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.SessionsActive))
}

func TestPublishLatencyAndRetransmitDepth(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	require.NotPanics(t, func() {
		m.ObservePublishLatencySeconds(0.01)
		m.SetRetransmitDepth(3)
	})
	assert.Equal(t, float64(3), testutil.ToFloat64(m.RetransmitDepth))
}

func TestSubscriptionGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.SubscriptionCreated()
	m.SubscriptionCreated()
	m.SubscriptionTerminated()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.SubscriptionCount))
}

func TestNilMetricsMethodsAreNoOps(t *testing.T) {
	var m *Metrics

	require.NotPanics(t, func() {
		m.ChannelOpened()
		m.ChannelClosed()
		m.SessionCreated("anonymous")
		m.SessionClosed()
		m.ObservePublishLatencySeconds(1)
		m.SetRetransmitDepth(0)
		m.SubscriptionCreated()
		m.SubscriptionTerminated()
	})
}
