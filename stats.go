package rcp

import (
	"sync/atomic"
)

// ClientStats contains statistics about a client.
// Counters are cumulative over the client lifetime, across reconnects.
//
// For Prometheus integration, expose these as:
//   - Counters: Sent, Replies, ConsoleErrors, Timeouts, ConnectionLost, Notifications,
//     SubscribersDropped, Mismatches, LateReplies, ConnectAttempts, Reconnects
//   - Gauges: Pending, Subscribers
type ClientStats struct {
	Sent               uint64 // Commands written to the socket
	Replies            uint64 // Calls resolved with a reply
	ConsoleErrors      uint64 // Calls resolved with an ERROR line
	Timeouts           uint64 // Calls abandoned on timeout
	ConnectionLost     uint64 // Calls failed by a connection loss
	Notifications      uint64 // Notification lines received
	SubscribersDropped uint64 // Subscribers dropped for being too slow
	Mismatches         uint64 // Replies that didn't echo the command they were attributed to
	LateReplies        uint64 // Replies absorbed by a timed out or cancelled call
	ConnectAttempts    uint64 // TCP connect attempts
	Reconnects         uint64 // Successful connects after the first

	// Current state
	Pending             int    // Calls awaiting a reply
	Subscribers         int    // Active subscriptions
	CircuitBreakerState string // "closed", "half-open", "open", empty without breaker
}

// statsCollector provides internal methods for updating client stats.
type statsCollector struct {
	stats ClientStats
}

func (c *statsCollector) recordSent() {
	atomic.AddUint64(&c.stats.Sent, 1)
}

func (c *statsCollector) recordReply() {
	atomic.AddUint64(&c.stats.Replies, 1)
}

func (c *statsCollector) recordConsoleError() {
	atomic.AddUint64(&c.stats.ConsoleErrors, 1)
}

func (c *statsCollector) recordTimeout() {
	atomic.AddUint64(&c.stats.Timeouts, 1)
}

func (c *statsCollector) recordConnectionLost(calls int) {
	atomic.AddUint64(&c.stats.ConnectionLost, uint64(calls))
}

func (c *statsCollector) recordNotification() {
	atomic.AddUint64(&c.stats.Notifications, 1)
}

func (c *statsCollector) recordSubscribersDropped(n int) {
	atomic.AddUint64(&c.stats.SubscribersDropped, uint64(n))
}

func (c *statsCollector) recordMismatch() {
	atomic.AddUint64(&c.stats.Mismatches, 1)
}

func (c *statsCollector) recordLateReply() {
	atomic.AddUint64(&c.stats.LateReplies, 1)
}

func (c *statsCollector) recordConnectAttempt() {
	atomic.AddUint64(&c.stats.ConnectAttempts, 1)
}

func (c *statsCollector) recordReconnect() {
	atomic.AddUint64(&c.stats.Reconnects, 1)
}

func (c *statsCollector) snapshot() ClientStats {
	return ClientStats{
		Sent:               atomic.LoadUint64(&c.stats.Sent),
		Replies:            atomic.LoadUint64(&c.stats.Replies),
		ConsoleErrors:      atomic.LoadUint64(&c.stats.ConsoleErrors),
		Timeouts:           atomic.LoadUint64(&c.stats.Timeouts),
		ConnectionLost:     atomic.LoadUint64(&c.stats.ConnectionLost),
		Notifications:      atomic.LoadUint64(&c.stats.Notifications),
		SubscribersDropped: atomic.LoadUint64(&c.stats.SubscribersDropped),
		Mismatches:         atomic.LoadUint64(&c.stats.Mismatches),
		LateReplies:        atomic.LoadUint64(&c.stats.LateReplies),
		ConnectAttempts:    atomic.LoadUint64(&c.stats.ConnectAttempts),
		Reconnects:         atomic.LoadUint64(&c.stats.Reconnects),
	}
}

// Stats returns a snapshot of the client statistics.
func (c *Client) Stats() ClientStats {
	s := c.stats.snapshot()

	c.mu.Lock()
	s.Pending = c.queue.live
	s.Subscribers = len(c.subs)
	c.mu.Unlock()

	if c.breaker != nil {
		s.CircuitBreakerState = c.breaker.State().String()
	}

	return s
}
