// Package metrics exports supervisor decisions as Prometheus metrics.
//
// A Collector implements connection.Observer and prometheus.Collector, so a
// single value is passed to the supervisor config and registered with a
// registry:
//
//	c := metrics.NewCollector()
//	reg := metrics.NewRegistry(c)
//	sup, _ := connection.New(room, connection.Config{Observer: c, ...})
//	srv := metrics.NewServer(reg, metrics.ServerConfig{Address: ":9100"})
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/roomlink/roomlink-go/pkg/connection"
	"github.com/roomlink/roomlink-go/pkg/transport"
)

const namespace = "roomlink"

var allStatuses = []connection.Status{
	connection.StatusDisconnected,
	connection.StatusConnecting,
	connection.StatusConnected,
}

// Collector records supervisor activity per room.
type Collector struct {
	status            *prometheus.GaugeVec
	transitions       *prometheus.CounterVec
	attempts          *prometheus.CounterVec
	retriesScheduled  *prometheus.CounterVec
	retryDelaySeconds *prometheus.HistogramVec
	retryBaseSeconds  *prometheus.GaugeVec
	sessionCloses     *prometheus.CounterVec
	sessionDuration   *prometheus.HistogramVec
	reachable         *prometheus.GaugeVec

	mu             sync.Mutex
	connectedSince map[string]time.Time
	now            func() time.Time
}

// NewCollector creates a collector with no rooms.
func NewCollector() *Collector {
	return &Collector{
		status: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "connection_status",
				Help:      "Current connection status per room (1 for the active status)",
			},
			[]string{"room", "status"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "status_transitions_total",
				Help:      "Total number of status transitions",
			},
			[]string{"room", "to"},
		),
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connection_attempts_total",
				Help:      "Total number of session attempts",
			},
			[]string{"room", "kind"},
		),
		retriesScheduled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retries_scheduled_total",
				Help:      "Total number of retry timers armed",
			},
			[]string{"room"},
		),
		retryDelaySeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "retry_delay_seconds",
				Help:      "Scheduled retry delays including jitter",
				Buckets:   []float64{0.5, 1, 2, 4, 8, 16, 30, 60},
			},
			[]string{"room"},
		),
		retryBaseSeconds: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "retry_base_delay_seconds",
				Help:      "Base delay of the most recently scheduled retry",
			},
			[]string{"room"},
		),
		sessionCloses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_closes_total",
				Help:      "Total number of sessions that ended",
			},
			[]string{"room", "result", "opened"},
		),
		sessionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "session_duration_seconds",
				Help:      "Time spent connected per session",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"room"},
		),
		reachable: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "host_reachable",
				Help:      "Last host reachability observed by the room's supervisor",
			},
			[]string{"room"},
		),
		connectedSince: make(map[string]time.Time),
		now:            time.Now,
	}
}

func (c *Collector) all() []prometheus.Collector {
	return []prometheus.Collector{
		c.status,
		c.transitions,
		c.attempts,
		c.retriesScheduled,
		c.retryDelaySeconds,
		c.retryBaseSeconds,
		c.sessionCloses,
		c.sessionDuration,
		c.reachable,
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.all() {
		m.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, m := range c.all() {
		m.Collect(ch)
	}
}

// StatusChanged implements connection.Observer.
func (c *Collector) StatusChanged(room string, from, to connection.Status) {
	for _, s := range allStatuses {
		v := 0.0
		if s == to {
			v = 1
		}
		c.status.WithLabelValues(room, s.String()).Set(v)
	}
	c.transitions.WithLabelValues(room, to.String()).Inc()

	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case to == connection.StatusConnected:
		c.connectedSince[room] = c.now()
	case from == connection.StatusConnected:
		if since, ok := c.connectedSince[room]; ok {
			c.sessionDuration.WithLabelValues(room).Observe(c.now().Sub(since).Seconds())
			delete(c.connectedSince, room)
		}
	}
}

// AttemptStarted implements connection.Observer.
func (c *Collector) AttemptStarted(room string, retry int) {
	kind := "retry"
	if retry == 0 {
		kind = "initial"
	}
	c.attempts.WithLabelValues(room, kind).Inc()
}

// RetryScheduled implements connection.Observer.
func (c *Collector) RetryScheduled(room string, retry int, base, delay time.Duration) {
	c.retriesScheduled.WithLabelValues(room).Inc()
	c.retryDelaySeconds.WithLabelValues(room).Observe(delay.Seconds())
	c.retryBaseSeconds.WithLabelValues(room).Set(base.Seconds())
}

// SessionClosed implements connection.Observer.
func (c *Collector) SessionClosed(room string, reason transport.CloseReason) {
	result := "failure"
	if reason.Clean() {
		result = "clean"
	}
	c.sessionCloses.WithLabelValues(room, result, strconv.FormatBool(reason.WasOpen)).Inc()
}

// ReachabilityChanged implements connection.Observer.
func (c *Collector) ReachabilityChanged(room string, reachable bool) {
	v := 0.0
	if reachable {
		v = 1
	}
	c.reachable.WithLabelValues(room).Set(v)
}

// Forget drops all series of room.
func (c *Collector) Forget(room string) {
	labels := prometheus.Labels{"room": room}
	c.status.DeletePartialMatch(labels)
	c.transitions.DeletePartialMatch(labels)
	c.attempts.DeletePartialMatch(labels)
	c.retriesScheduled.DeletePartialMatch(labels)
	c.retryDelaySeconds.DeletePartialMatch(labels)
	c.retryBaseSeconds.DeletePartialMatch(labels)
	c.sessionCloses.DeletePartialMatch(labels)
	c.sessionDuration.DeletePartialMatch(labels)
	c.reachable.DeletePartialMatch(labels)

	c.mu.Lock()
	delete(c.connectedSince, room)
	c.mu.Unlock()
}

// NewRegistry returns a registry with c and the Go runtime and process
// collectors registered.
func NewRegistry(c *Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		c,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Compile-time interface satisfaction checks.
var (
	_ connection.Observer  = (*Collector)(nil)
	_ prometheus.Collector = (*Collector)(nil)
)
