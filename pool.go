package rcp

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/jackc/puddle/v2"

	"github.com/pior/rcp/protocol"
)

// ErrPoolClosed is returned by Pool.Send after Pool.Close.
var ErrPoolClosed = errors.New("rcp: pool closed")

// PoolConfig holds configuration for a Pool.
type PoolConfig struct {
	// Config applies to every client of the pool.
	Config

	// MaxSize is the maximum number of connections to the console.
	// Consoles accept a handful of RCP clients; keep this small.
	// Required: must be > 0.
	MaxSize int32
}

// PoolStats contains statistics about a Pool.
type PoolStats struct {
	AcquireCount      uint64 // Total acquire attempts
	AcquireWaitCount  uint64 // Acquires that had to wait for a client
	CreatedConns      uint64 // Total clients created
	DestroyedConns    uint64 // Total clients shut down
	AcquireErrors     uint64 // Cancelled acquires
	AcquireWaitTimeNs uint64 // Total nanoseconds spent waiting

	TotalConns  int32 // Clients in the pool (active + idle)
	IdleConns   int32 // Idle clients
	ActiveConns int32 // Clients currently running a call
}

// Pool spreads calls over several connections to the same console. Each
// connection is a Client with its own pending queue, so replies are still
// attributed per connection. A call holds its client until it resolves.
type Pool struct {
	addr string
	cfg  Config
	pool *puddle.Pool[*Client]

	createdConns   atomic.Uint64
	destroyedConns atomic.Uint64
}

// NewPool creates a pool of clients for the console at addr. Clients are
// connected lazily on first use.
func NewPool(addr string, cfg PoolConfig) (*Pool, error) {
	if cfg.MaxSize <= 0 {
		return nil, errors.New("rcp: pool MaxSize must be > 0")
	}

	p := &Pool{
		addr: addr,
		cfg:  cfg.Config.withDefaults(),
	}

	pool, err := puddle.NewPool(&puddle.Config[*Client]{
		Constructor: func(ctx context.Context) (*Client, error) {
			ctx, cancel := context.WithTimeout(ctx, p.cfg.ConnectTimeout)
			defer cancel()

			c, err := Dial(ctx, p.addr, p.cfg)
			if err != nil {
				return nil, err
			}
			p.createdConns.Add(1)
			return c, nil
		},
		Destructor: func(c *Client) {
			p.destroyedConns.Add(1)
			_ = c.Close()
		},
		MaxSize: cfg.MaxSize,
	})
	if err != nil {
		return nil, err
	}
	p.pool = pool
	return p, nil
}

// Send acquires a client, sends cmd on it and releases it.
func (p *Pool) Send(ctx context.Context, cmd protocol.Command) (Reply, error) {
	res, err := p.pool.Acquire(ctx)
	if err != nil {
		if errors.Is(err, puddle.ErrClosedPool) {
			return Reply{}, ErrPoolClosed
		}
		return Reply{}, err
	}

	reply, err := res.Value().Send(ctx, cmd)
	if errors.Is(err, ErrShuttingDown) {
		res.Destroy()
		return reply, err
	}
	res.Release()
	return reply, err
}

// Close shuts down every client. It blocks until clients in use are released.
func (p *Pool) Close() {
	p.pool.Close()
}

// Stats returns a snapshot of pool statistics.
func (p *Pool) Stats() PoolStats {
	s := p.pool.Stat()

	return PoolStats{
		TotalConns:        s.TotalResources(),
		IdleConns:         s.IdleResources(),
		ActiveConns:       s.AcquiredResources(),
		AcquireCount:      uint64(s.AcquireCount()),
		AcquireWaitCount:  uint64(s.EmptyAcquireCount()),
		CreatedConns:      p.createdConns.Load(),
		DestroyedConns:    p.destroyedConns.Load(),
		AcquireErrors:     uint64(s.CanceledAcquireCount()),
		AcquireWaitTimeNs: uint64(s.EmptyAcquireWaitTime().Nanoseconds()),
	}
}

// ClientStats aggregates the statistics of the idle clients of the pool.
func (p *Pool) ClientStats() ClientStats {
	var total ClientStats
	for _, res := range p.pool.AcquireAllIdle() {
		s := res.Value().Stats()
		res.Release()

		total.Sent += s.Sent
		total.Replies += s.Replies
		total.ConsoleErrors += s.ConsoleErrors
		total.Timeouts += s.Timeouts
		total.ConnectionLost += s.ConnectionLost
		total.Notifications += s.Notifications
		total.SubscribersDropped += s.SubscribersDropped
		total.Mismatches += s.Mismatches
		total.LateReplies += s.LateReplies
		total.ConnectAttempts += s.ConnectAttempts
		total.Reconnects += s.Reconnects
		total.Pending += s.Pending
		total.Subscribers += s.Subscribers
	}
	return total
}
