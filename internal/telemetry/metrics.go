package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// registerOrReuse registers a collector with reg, returning the
// already-registered collector on a duplicate registration rather
// than panicking, so re-initializing a Runtime in tests doesn't fail.
func registerOrReuse(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

// Metrics holds the process-wide Prometheus collectors for the
// channel, session, and subscription layers. All methods are
// nil-safe: calling them on a nil *Metrics is a no-op, so components
// can hold an unconditional *Metrics field and skip a nil check at
// every call site.
type Metrics struct {
	ChannelsOpen   prometheus.Gauge
	ChannelsTotal  prometheus.Counter
	SessionsActive prometheus.Gauge
	SessionsTotal  *prometheus.CounterVec // labeled by identity kind

	PublishLatency    prometheus.Histogram
	RetransmitDepth   prometheus.Gauge
	SubscriptionCount prometheus.Gauge
}

// NewMetrics creates and registers the collectors with reg. If reg is
// nil the collectors are created unregistered, which is what tests
// should pass.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChannelsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "opcuad",
			Subsystem: "channel",
			Name:      "open",
			Help:      "Current number of open secure channels.",
		}),
		ChannelsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "opcuad",
			Subsystem: "channel",
			Name:      "opened_total",
			Help:      "Total number of secure channels opened.",
		}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "opcuad",
			Subsystem: "session",
			Name:      "active",
			Help:      "Current number of activated sessions.",
		}),
		SessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opcuad",
			Subsystem: "session",
			Name:      "created_total",
			Help:      "Total number of sessions created, labeled by identity kind.",
		}, []string{"identity_kind"}),
		PublishLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "opcuad",
			Subsystem: "subscription",
			Name:      "publish_latency_seconds",
			Help:      "Time from sample queued to NotificationMessage built.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~33s
		}),
		RetransmitDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "opcuad",
			Subsystem: "subscription",
			Name:      "retransmit_queue_depth",
			Help:      "Current retransmit queue depth, summed across subscriptions.",
		}),
		SubscriptionCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "opcuad",
			Subsystem: "subscription",
			Name:      "active",
			Help:      "Current number of live subscriptions.",
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{
			m.ChannelsOpen, m.ChannelsTotal, m.SessionsActive, m.SessionsTotal,
			m.PublishLatency, m.RetransmitDepth, m.SubscriptionCount,
		} {
			registerOrReuse(reg, c)
		}
	}
	return m
}

func (m *Metrics) ChannelOpened() {
	if m == nil {
		return
	}
	m.ChannelsOpen.Inc()
	m.ChannelsTotal.Inc()
}

func (m *Metrics) ChannelClosed() {
	if m == nil {
		return
	}
	m.ChannelsOpen.Dec()
}

func (m *Metrics) SessionCreated(identityKind string) {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
	m.SessionsTotal.WithLabelValues(identityKind).Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}

func (m *Metrics) ObservePublishLatencySeconds(seconds float64) {
	if m == nil {
		return
	}
	m.PublishLatency.Observe(seconds)
}

func (m *Metrics) SetRetransmitDepth(depth int) {
	if m == nil {
		return
	}
	m.RetransmitDepth.Set(float64(depth))
}

func (m *Metrics) SubscriptionCreated() {
	if m == nil {
		return
	}
	m.SubscriptionCount.Inc()
}

func (m *Metrics) SubscriptionTerminated() {
	if m == nil {
		return
	}
	m.SubscriptionCount.Dec()
}
