package rcp

import (
	"iter"
	"strings"

	"github.com/pior/rcp/protocol"
)

// Notification is an unsolicited line pushed by the console.
type Notification = protocol.Notification

// Subscription receives the notifications pushed by the console from the
// moment it is created. It survives reconnects and ends when closed, when its
// receiver falls behind, or when the client shuts down.
type Subscription struct {
	client   *Client
	ch       chan Notification
	prefixes []string

	// guarded by Client.mu
	closed bool
	err    error
}

// C returns the delivery channel. It is closed when the subscription ends.
func (s *Subscription) C() <-chan Notification {
	return s.ch
}

// All returns an iterator over notifications until the subscription ends.
func (s *Subscription) All() iter.Seq[Notification] {
	return func(yield func(Notification) bool) {
		for n := range s.ch {
			if !yield(n) {
				return
			}
		}
	}
}

// Close ends the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.client.mu.Lock()
	defer s.client.mu.Unlock()
	s.client.unsubscribeLocked(s, ErrSubscriptionClosed)
}

// Err reports why the subscription ended, nil while it is active.
func (s *Subscription) Err() error {
	s.client.mu.Lock()
	defer s.client.mu.Unlock()
	return s.err
}

// matches reports whether the notification address starts with one of the
// subscription prefixes. No prefix matches everything.
func (s *Subscription) matches(n Notification) bool {
	if len(s.prefixes) == 0 {
		return true
	}
	for _, p := range s.prefixes {
		if strings.HasPrefix(n.Address, p) {
			return true
		}
	}
	return false
}

// Subscribe registers a new subscription. When prefixes are given, only
// notifications whose address starts with one of them are delivered.
// Subscribing after Shutdown returns an already ended subscription.
func (c *Client) Subscribe(prefixes ...string) *Subscription {
	s := &Subscription{
		client:   c,
		ch:       make(chan Notification, c.cfg.SubscriptionBuffer),
		prefixes: append([]string(nil), prefixes...),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosing() {
		s.closed = true
		s.err = ErrShuttingDown
		close(s.ch)
		return s
	}
	c.subs[s] = struct{}{}
	return s
}

func (c *Client) unsubscribeLocked(s *Subscription, reason error) {
	if s.closed {
		return
	}
	s.closed = true
	s.err = reason
	delete(c.subs, s)
	close(s.ch)
}

// dispatchLocked fans a notification out to every matching subscriber.
// Sends never block: a subscriber with a full channel is dropped.
func (c *Client) dispatchLocked(n Notification) (delivered, dropped int) {
	for s := range c.subs {
		if !s.matches(n) {
			continue
		}
		select {
		case s.ch <- n:
			delivered++
		default:
			c.stats.recordSubscribersDropped(1)
			c.unsubscribeLocked(s, ErrSubscriptionDropped)
			dropped++
		}
	}
	return delivered, dropped
}

func (c *Client) closeSubscriptionsLocked(reason error) {
	for s := range c.subs {
		c.unsubscribeLocked(s, reason)
	}
}
