package rcp

import (
	"net"
	"time"

	"github.com/sony/gobreaker/v2"
)

// NewCircuitBreakerConfig returns a function that creates a circuit breaker
// for a console. While the breaker is open, reconnect attempts fail without
// touching the network and the supervisor keeps backing off.
func NewCircuitBreakerConfig(maxRequests uint32, interval, timeout time.Duration) func(string) *gobreaker.CircuitBreaker[net.Conn] {
	return func(addr string) *gobreaker.CircuitBreaker[net.Conn] {
		settings := gobreaker.Settings{
			Name:        addr,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}
		return gobreaker.NewCircuitBreaker[net.Conn](settings)
	}
}
