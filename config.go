package rcp

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/pior/rcp/internal/clock"
	"github.com/pior/rcp/protocol"
)

// DefaultPort is the TCP port RCP consoles listen on.
const DefaultPort = 49280

// Clock is the time source used for call timeouts and reconnect backoff.
type Clock = clock.Clock

// Timer is returned by Clock.NewTimer.
type Timer = clock.Timer

// BackoffConfig controls the delay between reconnect attempts.
type BackoffConfig struct {
	// Base is the delay before the first retry.
	Base time.Duration

	// Max caps the delay. Zero means no cap.
	Max time.Duration

	// Multiplier grows the delay between consecutive failures. Values below 1 are treated as 1.
	Multiplier float64

	// Jitter randomizes each delay by +/- this fraction (0.2 = +/-20%).
	Jitter float64
}

// Config holds configuration for the RCP client.
// Zero-valued fields are replaced by the values of DefaultConfig.
type Config struct {
	// ConnectTimeout bounds each TCP connect attempt.
	ConnectTimeout time.Duration

	// CallTimeout is the default deadline of Send, measured from the call.
	// The effective deadline is the earliest of this and the context deadline.
	// Negative disables the client-side timer.
	CallTimeout time.Duration

	// WriteTimeout bounds each socket write. A write timeout drops the connection.
	WriteTimeout time.Duration

	// Backoff is the reconnect policy.
	Backoff BackoffConfig

	// MaxLineLength is the longest inbound line accepted, terminator excluded.
	// Longer lines drop the connection.
	MaxLineLength int

	// MaxPending bounds the number of calls awaiting a reply on a connection.
	// Calls beyond it fail with ErrQueueFull. Timed out calls don't count;
	// the oldest of them are forgotten once the queue holds MaxPending entries.
	MaxPending int

	// SubscriptionBuffer is the channel capacity of each subscription.
	// A subscriber whose channel is full when a notification arrives is dropped.
	SubscriptionBuffer int

	// DrainTimeout is how long Shutdown waits for pending calls to be answered
	// before closing the socket. Zero closes the socket as soon as the last
	// command is written.
	DrainTimeout time.Duration

	// Grammar gives the reply class of each verb.
	Grammar *protocol.Grammar

	// Matcher attributes replies to pending calls.
	// If nil, FIFOMatcher is used.
	Matcher Matcher

	// DialContext opens the connection to the console.
	// If nil, a net.Dialer is used.
	DialContext func(ctx context.Context, network, addr string) (net.Conn, error)

	// NewCircuitBreaker creates a circuit breaker guarding connect attempts.
	// Called once per client with the console address.
	// If nil, no circuit breaker is used.
	NewCircuitBreaker func(addr string) *gobreaker.CircuitBreaker[net.Conn]

	// Clock is the time source for timeouts and backoff. Socket deadlines
	// always use the wall clock.
	Clock Clock

	// Logger receives engine logs. If nil, logging is disabled.
	Logger *zerolog.Logger
}

// DefaultConfig returns the configuration used for zero-valued fields.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 3 * time.Second,
		CallTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		Backoff: BackoffConfig{
			Base:       250 * time.Millisecond,
			Max:        10 * time.Second,
			Multiplier: 2.0,
			Jitter:     0.2,
		},
		MaxLineLength:      protocol.DefaultMaxLineLength,
		MaxPending:         256,
		SubscriptionBuffer: 64,
		Grammar:            protocol.DefaultGrammar(),
		Matcher:            FIFOMatcher{},
		Clock:              clock.Real(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()

	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.CallTimeout == 0 {
		c.CallTimeout = d.CallTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.Backoff == (BackoffConfig{}) {
		c.Backoff = d.Backoff
	}
	if c.MaxLineLength <= 0 {
		c.MaxLineLength = d.MaxLineLength
	}
	if c.MaxPending <= 0 {
		c.MaxPending = d.MaxPending
	}
	if c.SubscriptionBuffer <= 0 {
		c.SubscriptionBuffer = d.SubscriptionBuffer
	}
	if c.DrainTimeout < 0 {
		c.DrainTimeout = 0
	}
	if c.Grammar == nil {
		c.Grammar = d.Grammar
	}
	if c.Matcher == nil {
		c.Matcher = d.Matcher
	}
	if c.DialContext == nil {
		dialer := &net.Dialer{}
		c.DialContext = dialer.DialContext
	}
	if c.Clock == nil {
		c.Clock = d.Clock
	}
	return c
}

func (c Config) logger() zerolog.Logger {
	if c.Logger == nil {
		return zerolog.Nop()
	}
	return *c.Logger
}
