package rcp

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pior/rcp/protocol"
)

// session is one connection lifetime: a reader and a writer sharing the
// socket, torn down together on the first error.
type session struct {
	client *Client
	conn   net.Conn
	log    zerolog.Logger
	reader *protocol.LineReader

	readerDone chan struct{}

	// drained is closed by the reader when the last live call is answered
	// during Shutdown. Guarded by Client.mu.
	drained chan struct{}
}

func newSession(c *Client, conn net.Conn) *session {
	return &session{
		client:     c,
		conn:       conn,
		log:        c.log.With().Str("conn_id", uuid.NewString()).Logger(),
		reader:     protocol.NewLineReader(conn, c.cfg.MaxLineLength),
		readerDone: make(chan struct{}),
	}
}

// run returns the error that ended the connection.
func (s *session) run() error {
	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		defer close(s.readerDone)
		return s.readLoop()
	})
	g.Go(func() error {
		return s.writeLoop(ctx)
	})
	g.Go(func() error {
		s.closeWhenDone(ctx)
		return nil
	})

	return g.Wait()
}

func (s *session) closeWhenDone(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-s.client.force:
	}
	if s.client.isClosing() {
		s.drain()
	}
	if err := s.conn.Close(); err != nil {
		s.log.Debug().Err(err).Msg("close")
	}
}

// drain waits for pending calls to be answered, at most DrainTimeout.
func (s *session) drain() {
	c := s.client

	c.mu.Lock()
	c.setStateLocked(Draining)
	if c.cfg.DrainTimeout <= 0 || c.queue.live == 0 {
		c.mu.Unlock()
		return
	}
	s.drained = make(chan struct{})
	drained := s.drained
	pending := c.queue.live
	c.mu.Unlock()

	s.log.Info().Int("pending", pending).Dur("timeout", c.cfg.DrainTimeout).Msg("draining")

	timer := c.cfg.Clock.NewTimer(c.cfg.DrainTimeout)
	defer timer.Stop()

	select {
	case <-drained:
	case <-timer.C():
	case <-s.readerDone:
	case <-c.force:
	}
}

func (s *session) readLoop() error {
	c := s.client
	for {
		raw, err := s.reader.ReadLine()
		if err != nil {
			if errors.Is(err, protocol.ErrLineTooLong) {
				s.log.Warn().Int("max", c.cfg.MaxLineLength).Msg("inbound line too long")
				return err
			}
			return &protocol.ConnectionError{Op: "read", Err: err}
		}
		s.log.Debug().Bytes("line", raw).Msg("recv")

		line, err := c.cfg.Grammar.Classify(string(raw))
		if err != nil {
			s.log.Warn().Err(err).Msg("malformed reply")
			return err
		}
		c.handleLine(s, line)
	}
}

func (s *session) writeLoop(ctx context.Context) error {
	c := s.client
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.ctx.Done():
			return ErrShuttingDown
		case call := <-c.submit:
			if err := s.write(call); err != nil {
				return err
			}
		}
	}
}

// write queues call and writes its command. The call is queued before the
// first byte leaves so the reader always finds it. Once Shutdown has started,
// the call fails with ErrShuttingDown and nothing is written.
func (s *session) write(call *pendingCall) error {
	c := s.client
	expectsReply := call.class != protocol.ReplyNone

	evicted := 0
	c.mu.Lock()
	if call.abandoned {
		c.mu.Unlock()
		return nil
	}
	if c.isClosing() {
		call.resolveLocked(Reply{}, ErrShuttingDown)
		c.mu.Unlock()
		return ErrShuttingDown
	}
	if expectsReply {
		if c.queue.live >= c.cfg.MaxPending {
			call.resolveLocked(Reply{}, ErrQueueFull)
			c.mu.Unlock()
			return nil
		}
		// Tombstones whose reply never came must not hold the queue full.
		evicted = c.queue.evictTombstones(c.cfg.MaxPending)
		call.enqueued = c.cfg.Clock.Now()
		c.queue.push(call)
	}
	c.mu.Unlock()

	if evicted > 0 {
		s.log.Debug().Int("count", evicted).Msg("evicted abandoned calls without reply")
	}

	if err := s.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		s.log.Debug().Err(err).Msg("set write deadline")
	}
	if err := protocol.WriteCommand(s.conn, call.cmd); err != nil {
		s.log.Warn().Err(err).Stringer("cmd", call.cmd).Msg("write failed")
		if !expectsReply {
			c.stats.recordConnectionLost(1)
			c.mu.Lock()
			call.resolveLocked(Reply{}, connectionLost(err))
			c.mu.Unlock()
		}
		return err
	}

	c.stats.recordSent()
	s.log.Debug().Stringer("cmd", call.cmd).Msg("sent")

	if !expectsReply {
		c.mu.Lock()
		call.resolveLocked(Reply{
			Verb:    call.cmd.Verb(),
			Address: call.cmd.Address(),
			Args:    call.cmd.Args(),
		}, nil)
		c.mu.Unlock()
	}
	return nil
}
