package rcp

import (
	"context"
	"net"
	"time"

	"github.com/pior/rcp/protocol"
)

// stableSessionDuration is how long a connection must last for the reconnect
// backoff to start over from Backoff.Base.
const stableSessionDuration = 5 * time.Second

// run owns the connection lifecycle until Shutdown.
func (c *Client) run() {
	defer close(c.done)
	defer c.finish()

	failures := 0
	for !c.isClosing() {
		conn, err := c.connect()
		if err != nil {
			if c.isClosing() {
				return
			}
			failures++
			delay := NextBackoffDelay(c.cfg.Backoff, failures, nil)
			c.log.Warn().Err(err).Int("attempt", failures).Dur("retry_in", delay).Msg("connect failed")
			if !c.sleep(delay) {
				return
			}
			continue
		}

		started := c.cfg.Clock.Now()
		cause := c.serve(conn)
		if c.isClosing() {
			return
		}
		// A console that closes right after accepting keeps backing off.
		if c.cfg.Clock.Now().Sub(started) >= stableSessionDuration {
			failures = 0
		}
		failures++
		delay := NextBackoffDelay(c.cfg.Backoff, failures, nil)
		c.log.Warn().Err(cause).Int("attempt", failures).Dur("retry_in", delay).Msg("connection lost")
		if !c.sleep(delay) {
			return
		}
	}
}

func (c *Client) connect() (net.Conn, error) {
	c.setState(Connecting)
	c.stats.recordConnectAttempt()

	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.ConnectTimeout)
	defer cancel()

	dial := func() (net.Conn, error) {
		return c.cfg.DialContext(ctx, "tcp", c.addr)
	}

	var conn net.Conn
	var err error
	if c.breaker != nil {
		conn, err = c.breaker.Execute(dial)
	} else {
		conn, err = dial()
	}
	if err != nil {
		c.setState(Disconnected)
		return nil, &protocol.ConnectionError{Op: "dial", Err: err}
	}
	return conn, nil
}

// serve runs a connection until it fails or the client shuts down, then fails
// every call still pending on it.
func (c *Client) serve(conn net.Conn) error {
	s := newSession(c, conn)

	c.mu.Lock()
	c.sessions++
	reconnect := c.sessions > 1
	c.setStateLocked(Connected)
	c.mu.Unlock()

	if reconnect {
		c.stats.recordReconnect()
	}
	s.log.Info().Str("remote", conn.RemoteAddr().String()).Bool("reconnect", reconnect).Msg("connected")

	cause := s.run()

	c.mu.Lock()
	lost := c.queue.drain()
	c.stats.recordConnectionLost(len(lost))
	err := connectionLost(cause)
	for _, call := range lost {
		call.resolveLocked(Reply{}, err)
	}
	c.setStateLocked(Disconnected)
	c.mu.Unlock()

	s.log.Info().Err(cause).Int("failed_calls", len(lost)).Msg("disconnected")
	return cause
}

// finish ends every subscription once the supervisor stops.
func (c *Client) finish() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setStateLocked(Disconnected)
	c.closeSubscriptionsLocked(ErrShuttingDown)
	c.log.Info().Msg("client shut down")
}

// sleep waits for d, returning false if the client shuts down first.
func (c *Client) sleep(d time.Duration) bool {
	if d <= 0 {
		return !c.isClosing()
	}
	timer := c.cfg.Clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C():
		return true
	case <-c.ctx.Done():
		return false
	}
}

func (c *Client) setState(s ConnectionState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setStateLocked(s)
}

func (c *Client) setStateLocked(s ConnectionState) {
	prev := c.state
	if prev == s {
		return
	}
	c.state = s

	switch {
	case s == Connected:
		close(c.connected)
	case prev == Connected:
		c.connected = make(chan struct{})
	}
}
