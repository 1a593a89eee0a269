package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pior/rcp"
	"github.com/pior/rcp/protocol"
)

const helpText = `Commands:
  <verb> <address> [args...] [value]   send a raw RCP command, e.g. get MIXER:Current/InCh/Fader/Level 0 0
  :watch [prefix...]                   print notifications (optionally filtered by address prefix)
  :unwatch                             stop printing notifications
  :stats                               show client statistics
  :state                               show the connection state
  :help                                show this help
  :quit                                exit`

// console is the part of *rcp.Client the REPL uses.
type console interface {
	SendLine(ctx context.Context, line string) (rcp.Reply, error)
	Subscribe(prefixes ...string) *rcp.Subscription
	Stats() rcp.ClientStats
	State() rcp.ConnectionState
}

type repl struct {
	client console

	mu      sync.Mutex // serializes writes to out
	out     io.Writer
	watches []*rcp.Subscription
	wg      sync.WaitGroup
}

func newREPL(client console, out io.Writer) *repl {
	return &repl{client: client, out: out}
}

func (r *repl) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

// handle runs one input line. It returns false when the session should end.
func (r *repl) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return true
	}

	if !strings.HasPrefix(line, ":") {
		r.send(ctx, line)
		return true
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q", ":exit":
		return false
	case ":help":
		r.printf("%s\n", helpText)
	case ":watch":
		r.watch(fields[1:])
	case ":unwatch":
		r.unwatch()
	case ":stats":
		r.printStats()
	case ":state":
		r.printf("%s\n", r.client.State())
	default:
		r.printf("unknown command %s, try :help\n", fields[0])
	}
	return true
}

func (r *repl) send(ctx context.Context, line string) {
	reply, err := r.client.SendLine(ctx, line)
	if err != nil {
		var consoleErr *rcp.ConsoleError
		if errors.As(err, &consoleErr) {
			r.printf("%s\n", consoleErr.Line)
			return
		}
		r.printf("error: %v\n", err)
		return
	}
	r.printf("%s\n", formatReply(reply))
}

func (r *repl) watch(prefixes []string) {
	sub := r.client.Subscribe(prefixes...)

	r.mu.Lock()
	r.watches = append(r.watches, sub)
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for n := range sub.All() {
			r.printf("%s\n", n.Raw)
		}
		if err := sub.Err(); err != nil && !errors.Is(err, rcp.ErrSubscriptionClosed) {
			r.printf("watch ended: %v\n", err)
		}
	}()

	if len(prefixes) == 0 {
		r.printf("watching all notifications\n")
	} else {
		r.printf("watching %s\n", strings.Join(prefixes, ", "))
	}
}

func (r *repl) unwatch() {
	r.mu.Lock()
	watches := r.watches
	r.watches = nil
	r.mu.Unlock()

	for _, sub := range watches {
		sub.Close()
	}
	r.wg.Wait()
}

func (r *repl) printStats() {
	s := r.client.Stats()
	r.printf("sent=%d replies=%d console_errors=%d timeouts=%d connection_lost=%d\n",
		s.Sent, s.Replies, s.ConsoleErrors, s.Timeouts, s.ConnectionLost)
	r.printf("notifications=%d subscribers=%d dropped=%d mismatches=%d late_replies=%d\n",
		s.Notifications, s.Subscribers, s.SubscribersDropped, s.Mismatches, s.LateReplies)
	r.printf("pending=%d connect_attempts=%d reconnects=%d\n",
		s.Pending, s.ConnectAttempts, s.Reconnects)
}

// close stops every watch.
func (r *repl) close() {
	r.unwatch()
}

func formatReply(reply rcp.Reply) string {
	var b strings.Builder
	if reply.Multi {
		b.WriteString(protocol.MarkerOKMulti)
	} else {
		b.WriteString(protocol.MarkerOK)
	}
	b.WriteString(" " + reply.Key())
	if reply.HasValue {
		b.WriteString(" " + formatValue(reply.Value, reply.Quoted))
	}
	return b.String()
}

func formatValue(v string, quoted bool) string {
	if quoted {
		return protocol.QuoteString(v)
	}
	return v
}
