package rcp

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/pior/rcp/internal/testutils"
	"github.com/pior/rcp/protocol"
)

const testTimeout = 2 * time.Second

func testConfig(t testing.TB) Config {
	logger := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.InfoLevel)
	return Config{
		CallTimeout: testTimeout,
		Backoff: BackoffConfig{
			Base:       10 * time.Millisecond,
			Max:        50 * time.Millisecond,
			Multiplier: 2,
		},
		Logger: &logger,
	}
}

func dialTestClient(t testing.TB, addr string, cfg Config) *Client {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	client, err := Dial(ctx, addr, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

type request struct {
	conn *testutils.ConsoleConn
	line string
}

// reply answers the request with "OK <command> <suffix>".
func (r request) reply(t testing.TB, suffix string) {
	t.Helper()
	line := "OK " + r.line
	if suffix != "" {
		line += " " + suffix
	}
	require.NoError(t, r.conn.Send(line))
}

// newScriptedConsole starts a console that never answers on its own: every
// command line is handed to the test.
func newScriptedConsole(t testing.TB) (*testutils.FakeConsole, <-chan request) {
	requests := make(chan request, 64)
	console := testutils.NewFakeConsole(t, func(conn *testutils.ConsoleConn, line string) {
		requests <- request{conn: conn, line: line}
	})
	return console, requests
}

func nextRequest(t testing.TB, requests <-chan request) request {
	t.Helper()
	select {
	case r := <-requests:
		return r
	case <-time.After(testTimeout):
		t.Fatal("console received no command")
		return request{}
	}
}

type result struct {
	reply Reply
	err   error
}

func sendAsync(ctx context.Context, client *Client, cmd protocol.Command) <-chan result {
	ch := make(chan result, 1)
	go func() {
		reply, err := client.Send(ctx, cmd)
		ch <- result{reply, err}
	}()
	return ch
}

func waitResult(t testing.TB, ch <-chan result) result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(testTimeout):
		t.Fatal("call did not resolve")
		return result{}
	}
}

func requireNoResult(t testing.TB, ch <-chan result) {
	t.Helper()
	select {
	case r := <-ch:
		t.Fatalf("call resolved unexpectedly: %+v", r)
	default:
	}
}

func receive(t testing.TB, sub *Subscription) Notification {
	t.Helper()
	select {
	case n, ok := <-sub.C():
		require.True(t, ok, "subscription ended: %v", sub.Err())
		return n
	case <-time.After(testTimeout):
		t.Fatal("no notification received")
		return Notification{}
	}
}

func requireEnded(t testing.TB, sub *Subscription, reason error) {
	t.Helper()
	require.Eventually(t, func() bool {
		for {
			select {
			case _, ok := <-sub.C():
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	}, testTimeout, time.Millisecond)
	require.ErrorIs(t, sub.Err(), reason)
}

func getCmd(t testing.TB, address string, indices ...int) protocol.Command {
	t.Helper()
	cmd, err := protocol.Get(address, indices...)
	require.NoError(t, err)
	return cmd
}
