package rcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/pior/rcp/protocol"
)

// Reply is the answer of the console to a command.
type Reply = protocol.Reply

// Client is an RCP client bound to one console. It owns a single TCP
// connection, reconnects on failure, attributes replies to calls and fans
// notifications out to subscribers.
//
// A Client is safe for concurrent use. Shutdown must be called to release it.
type Client struct {
	addr    string
	cfg     Config
	log     zerolog.Logger
	stats   statsCollector
	breaker *gobreaker.CircuitBreaker[net.Conn] // nil if not configured

	// submit hands calls to the writer of the current connection.
	submit chan *pendingCall

	// ctx is cancelled by Shutdown.
	ctx       context.Context
	cancel    context.CancelFunc
	force     chan struct{}
	forceOnce sync.Once
	done      chan struct{}

	// mu guards the pending queue, the subscriber set and the connection
	// state. It is never held across blocking operations.
	mu        sync.Mutex
	queue     pendingQueue
	subs      map[*Subscription]struct{}
	state     ConnectionState
	connected chan struct{} // closed while Connected
	sessions  int
}

// NewClient creates a client for the console at addr ("host" or "host:port",
// port 49280 by default) and starts connecting in the background.
func NewClient(addr string, cfg Config) (*Client, error) {
	if addr == "" {
		return nil, errors.New("rcp: no console address")
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, strconv.Itoa(DefaultPort))
	}

	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		addr:      addr,
		cfg:       cfg,
		log:       cfg.logger().With().Str("console", addr).Logger(),
		submit:    make(chan *pendingCall),
		ctx:       ctx,
		cancel:    cancel,
		force:     make(chan struct{}),
		done:      make(chan struct{}),
		subs:      make(map[*Subscription]struct{}),
		connected: make(chan struct{}),
	}
	if cfg.NewCircuitBreaker != nil {
		c.breaker = cfg.NewCircuitBreaker(addr)
	}

	go c.run()
	return c, nil
}

// Dial creates a client and waits for its first connection.
func Dial(ctx context.Context, addr string, cfg Config) (*Client, error) {
	c, err := NewClient(addr, cfg)
	if err != nil {
		return nil, err
	}
	if err := c.WaitConnected(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Addr returns the console address.
func (c *Client) Addr() string {
	return c.addr
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// WaitConnected blocks until the client is connected.
func (c *Client) WaitConnected(ctx context.Context) error {
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()

	select {
	case <-connected:
		return nil
	case <-c.ctx.Done():
		return ErrShuttingDown
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrNotConnected, ctx.Err())
	}
}

// Send writes cmd and waits for its reply, at most Config.CallTimeout.
//
// Errors:
//   - *ConsoleError: the console answered with an ERROR line
//   - ErrTimeout: no reply before the deadline (connection unaffected)
//   - ErrConnectionLost: the connection failed before the reply arrived
//   - ErrShuttingDown: the client is shut down
//   - ErrQueueFull: too many calls are awaiting a reply
//   - context.Canceled: ctx was cancelled
//
// Commands whose verb has no reply class return once written.
// While the client is disconnected, Send waits for the next connection
// within the same deadline.
func (c *Client) Send(ctx context.Context, cmd protocol.Command) (Reply, error) {
	return c.SendTimeout(ctx, cmd, c.cfg.CallTimeout)
}

// SendTimeout is like Send with an explicit timeout. A timeout <= 0 relies on
// ctx alone.
func (c *Client) SendTimeout(ctx context.Context, cmd protocol.Command, timeout time.Duration) (Reply, error) {
	if cmd.IsZero() {
		return Reply{}, &protocol.InvalidCommandError{Field: "verb", Message: "is empty"}
	}
	if c.isClosing() {
		return Reply{}, ErrShuttingDown
	}
	if err := ctx.Err(); err != nil {
		return Reply{}, c.contextError(err)
	}

	call := newPendingCall(cmd, c.cfg.Grammar.ReplyClass(cmd.Verb()))

	var expired <-chan time.Time
	if timeout > 0 {
		timer := c.cfg.Clock.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C()
	}

	select {
	case c.submit <- call:
	case <-expired:
		c.stats.recordTimeout()
		return Reply{}, ErrTimeout
	case <-ctx.Done():
		return Reply{}, c.contextError(ctx.Err())
	case <-c.ctx.Done():
		return Reply{}, ErrShuttingDown
	}

	select {
	case <-call.done:
		return call.result()
	case <-expired:
		return c.abandon(call, ErrTimeout)
	case <-ctx.Done():
		return c.abandon(call, c.contextError(ctx.Err()))
	}
}

// Get sends "get <address> <indices...>".
func (c *Client) Get(ctx context.Context, address string, indices ...int) (Reply, error) {
	cmd, err := protocol.Get(address, indices...)
	if err != nil {
		return Reply{}, err
	}
	return c.Send(ctx, cmd)
}

// Set sends "set <address> <indices...> <value>".
func (c *Client) Set(ctx context.Context, address string, value protocol.Value, indices ...int) (Reply, error) {
	cmd, err := protocol.Set(address, value, indices...)
	if err != nil {
		return Reply{}, err
	}
	return c.Send(ctx, cmd)
}

// SendLine parses a raw command line and sends it.
func (c *Client) SendLine(ctx context.Context, line string) (Reply, error) {
	cmd, err := protocol.ParseCommand(line)
	if err != nil {
		return Reply{}, err
	}
	return c.Send(ctx, cmd)
}

// abandon gives up on a call that was handed to the writer. A reply that
// resolved the call first wins.
func (c *Client) abandon(call *pendingCall, reason error) (Reply, error) {
	c.mu.Lock()
	if call.resolved {
		c.mu.Unlock()
		return call.result()
	}
	c.queue.abandon(call)
	call.resolveLocked(Reply{}, reason)
	c.mu.Unlock()

	if errors.Is(reason, ErrTimeout) {
		c.stats.recordTimeout()
	}
	c.log.Debug().Err(reason).Stringer("cmd", call.cmd).Msg("call abandoned")
	return Reply{}, reason
}

func (c *Client) contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

// Shutdown stops accepting commands, lets the writer finish, waits up to
// Config.DrainTimeout for pending replies, then closes the connection.
// Remaining calls fail with ErrConnectionLost and subscriptions end with
// ErrShuttingDown. If ctx ends first, the connection is closed immediately.
func (c *Client) Shutdown(ctx context.Context) error {
	c.cancel()

	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		c.forceOnce.Do(func() { close(c.force) })
		<-c.done
		return ctx.Err()
	}
}

// Close shuts the client down without waiting for pending replies.
func (c *Client) Close() error {
	c.cancel()
	c.forceOnce.Do(func() { close(c.force) })
	return c.Shutdown(context.Background())
}

func (c *Client) isClosing() bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}
