package promexporter

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pior/rcp"
)

// Source is what the collector reads at scrape time. *rcp.Client implements it.
type Source interface {
	Addr() string
	State() rcp.ConnectionState
	Stats() rcp.ClientStats
}

var connectionStates = []rcp.ConnectionState{rcp.Disconnected, rcp.Connecting, rcp.Connected, rcp.Draining}

// circuitBreakerStates maps gobreaker state names to the gauge value.
var circuitBreakerStates = map[string]float64{
	"closed":    0,
	"half-open": 1,
	"open":      2,
}

// ClientCollector exports the statistics of one client.
type ClientCollector struct {
	src Source

	sent               *prometheus.Desc
	replies            *prometheus.Desc
	consoleErrors      *prometheus.Desc
	timeouts           *prometheus.Desc
	connectionLost     *prometheus.Desc
	notifications      *prometheus.Desc
	subscribersDropped *prometheus.Desc
	mismatches         *prometheus.Desc
	lateReplies        *prometheus.Desc
	connectAttempts    *prometheus.Desc
	reconnects         *prometheus.Desc
	pending            *prometheus.Desc
	subscribers        *prometheus.Desc
	state              *prometheus.Desc
	circuitState       *prometheus.Desc
}

// NewClientCollector returns a collector labelling every metric with the
// console address.
func NewClientCollector(src Source) *ClientCollector {
	labels := prometheus.Labels{"console": src.Addr()}
	desc := func(name, help string, variableLabels ...string) *prometheus.Desc {
		return prometheus.NewDesc("rcp_"+name, help, variableLabels, labels)
	}

	return &ClientCollector{
		src:                src,
		sent:               desc("commands_sent_total", "Commands written to the console"),
		replies:            desc("replies_total", "Calls resolved with a reply"),
		consoleErrors:      desc("console_errors_total", "Calls resolved with an ERROR line"),
		timeouts:           desc("timeouts_total", "Calls abandoned on timeout"),
		connectionLost:     desc("connection_lost_calls_total", "Calls failed by a connection loss"),
		notifications:      desc("notifications_total", "Notification lines received"),
		subscribersDropped: desc("subscribers_dropped_total", "Subscribers dropped for being too slow"),
		mismatches:         desc("reply_mismatches_total", "Replies that did not echo the command they were attributed to"),
		lateReplies:        desc("late_replies_total", "Replies received after their call was abandoned"),
		connectAttempts:    desc("connect_attempts_total", "TCP connect attempts"),
		reconnects:         desc("reconnects_total", "Successful connects after the first"),
		pending:            desc("pending_calls", "Calls awaiting a reply"),
		subscribers:        desc("subscribers", "Active subscriptions"),
		state:              desc("connection_state", "Current connection state (1 for the active state)", "state"),
		circuitState:       desc("circuit_breaker_state", "Circuit breaker state (0=closed, 1=half-open, 2=open)"),
	}
}

func (c *ClientCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.sent
	ch <- c.replies
	ch <- c.consoleErrors
	ch <- c.timeouts
	ch <- c.connectionLost
	ch <- c.notifications
	ch <- c.subscribersDropped
	ch <- c.mismatches
	ch <- c.lateReplies
	ch <- c.connectAttempts
	ch <- c.reconnects
	ch <- c.pending
	ch <- c.subscribers
	ch <- c.state
	ch <- c.circuitState
}

func (c *ClientCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()

	counter := func(desc *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v))
	}
	counter(c.sent, s.Sent)
	counter(c.replies, s.Replies)
	counter(c.consoleErrors, s.ConsoleErrors)
	counter(c.timeouts, s.Timeouts)
	counter(c.connectionLost, s.ConnectionLost)
	counter(c.notifications, s.Notifications)
	counter(c.subscribersDropped, s.SubscribersDropped)
	counter(c.mismatches, s.Mismatches)
	counter(c.lateReplies, s.LateReplies)
	counter(c.connectAttempts, s.ConnectAttempts)
	counter(c.reconnects, s.Reconnects)

	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(s.Pending))
	ch <- prometheus.MustNewConstMetric(c.subscribers, prometheus.GaugeValue, float64(s.Subscribers))

	current := c.src.State()
	for _, state := range connectionStates {
		v := 0.0
		if state == current {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(c.state, prometheus.GaugeValue, v, state.String())
	}

	if v, ok := circuitBreakerStates[s.CircuitBreakerState]; ok {
		ch <- prometheus.MustNewConstMetric(c.circuitState, prometheus.GaugeValue, v)
	}
}

// PoolSource is what the pool collector reads at scrape time. *rcp.Pool
// implements it.
type PoolSource interface {
	Stats() rcp.PoolStats
}

// PoolCollector exports the statistics of a client pool.
type PoolCollector struct {
	src PoolSource

	conns         *prometheus.Desc
	created       *prometheus.Desc
	destroyed     *prometheus.Desc
	acquires      *prometheus.Desc
	acquireWaits  *prometheus.Desc
	acquireErrors *prometheus.Desc
	waitSeconds   *prometheus.Desc
}

// NewPoolCollector returns a collector labelling every metric with the
// console address.
func NewPoolCollector(addr string, src PoolSource) *PoolCollector {
	labels := prometheus.Labels{"console": addr}
	desc := func(name, help string, variableLabels ...string) *prometheus.Desc {
		return prometheus.NewDesc("rcp_pool_"+name, help, variableLabels, labels)
	}

	return &PoolCollector{
		src:           src,
		conns:         desc("connections", "Pool connections", "state"),
		created:       desc("connections_created_total", "Connections created"),
		destroyed:     desc("connections_destroyed_total", "Connections shut down"),
		acquires:      desc("acquires_total", "Acquire attempts"),
		acquireWaits:  desc("acquire_waits_total", "Acquires that waited for a connection"),
		acquireErrors: desc("acquire_errors_total", "Cancelled acquires"),
		waitSeconds:   desc("acquire_wait_seconds_total", "Time spent waiting for a connection"),
	}
}

func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(c, ch)
}

func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()

	ch <- prometheus.MustNewConstMetric(c.conns, prometheus.GaugeValue, float64(s.TotalConns), "total")
	ch <- prometheus.MustNewConstMetric(c.conns, prometheus.GaugeValue, float64(s.ActiveConns), "active")
	ch <- prometheus.MustNewConstMetric(c.conns, prometheus.GaugeValue, float64(s.IdleConns), "idle")
	ch <- prometheus.MustNewConstMetric(c.created, prometheus.CounterValue, float64(s.CreatedConns))
	ch <- prometheus.MustNewConstMetric(c.destroyed, prometheus.CounterValue, float64(s.DestroyedConns))
	ch <- prometheus.MustNewConstMetric(c.acquires, prometheus.CounterValue, float64(s.AcquireCount))
	ch <- prometheus.MustNewConstMetric(c.acquireWaits, prometheus.CounterValue, float64(s.AcquireWaitCount))
	ch <- prometheus.MustNewConstMetric(c.acquireErrors, prometheus.CounterValue, float64(s.AcquireErrors))
	ch <- prometheus.MustNewConstMetric(c.waitSeconds, prometheus.CounterValue, float64(s.AcquireWaitTimeNs)/1e9)
}
