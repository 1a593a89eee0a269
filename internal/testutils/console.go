package testutils

import (
	"net"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/pior/rcp/protocol"
)

// Handler answers one command line received by a FakeConsole.
type Handler func(conn *ConsoleConn, line string)

// FakeConsole is an RCP console listening on a loopback port.
//
// With a nil handler it behaves like a mixer: get returns the stored value of
// a parameter, set stores it, echoes the command and notifies the other
// connections, and any other verb is acknowledged.
type FakeConsole struct {
	t        testing.TB
	listener net.Listener
	handler  Handler

	mu       sync.Mutex
	conns    map[*ConsoleConn]struct{}
	accepted int
	received []string
	params   map[string]protocol.Value
}

// NewFakeConsole starts a console. It is stopped by t.Cleanup.
func NewFakeConsole(t testing.TB, handler Handler) *FakeConsole {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to start fake console: %v", err)
	}

	f := &FakeConsole{
		t:        t,
		listener: listener,
		conns:    make(map[*ConsoleConn]struct{}),
		params:   make(map[string]protocol.Value),
	}
	f.handler = handler
	if f.handler == nil {
		f.handler = f.Mixer
	}

	t.Cleanup(f.Close)
	go f.accept()
	return f
}

// Addr returns the host:port the console listens on.
func (f *FakeConsole) Addr() string {
	return f.listener.Addr().String()
}

func (f *FakeConsole) accept() {
	for {
		conn, err := f.listener.Accept()
		if err != nil {
			return
		}

		cc := &ConsoleConn{console: f, conn: conn}
		f.mu.Lock()
		f.conns[cc] = struct{}{}
		f.accepted++
		f.mu.Unlock()

		go cc.serve()
	}
}

// Close stops listening and closes every connection.
func (f *FakeConsole) Close() {
	_ = f.listener.Close()
	f.DropConnections()
}

// DropConnections closes the open connections. The console keeps accepting
// new ones.
func (f *FakeConsole) DropConnections() {
	for _, cc := range f.Conns() {
		cc.Close()
	}
}

// Conns returns the open connections.
func (f *FakeConsole) Conns() []*ConsoleConn {
	f.mu.Lock()
	defer f.mu.Unlock()

	conns := make([]*ConsoleConn, 0, len(f.conns))
	for cc := range f.conns {
		conns = append(conns, cc)
	}
	return conns
}

// Accepted returns the number of connections accepted so far.
func (f *FakeConsole) Accepted() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accepted
}

// Received returns every command line received, in arrival order.
func (f *FakeConsole) Received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.received)
}

// Push writes line to every open connection.
func (f *FakeConsole) Push(line string) {
	for _, cc := range f.Conns() {
		_ = cc.Send(line)
	}
}

// SetParam stores the value returned by get for address and indices.
func (f *FakeConsole) SetParam(address string, value protocol.Value, indices ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params[paramKey(address, indices)] = value
}

// Param returns the stored value of a parameter.
func (f *FakeConsole) Param(address string, indices ...string) (protocol.Value, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.params[paramKey(address, indices)]
	return v, ok
}

// Mixer is the default handler.
func (f *FakeConsole) Mixer(conn *ConsoleConn, line string) {
	cmd, err := protocol.ParseCommand(line)
	if err != nil {
		_ = conn.Send("ERROR unknown InvalidArgument")
		return
	}

	switch cmd.Verb() {
	case protocol.VerbGet:
		value, ok := f.Param(cmd.Address(), cmd.Args()...)
		if !ok {
			_ = conn.Send("ERROR get UnknownAddress")
			return
		}
		reply, err := cmd.WithValue(value)
		if err != nil {
			_ = conn.Send("ERROR get InvalidArgument")
			return
		}
		_ = conn.Send("OK " + reply.String())

	case protocol.VerbSet:
		if cmd.Value().IsZero() {
			_ = conn.Send("ERROR set WrongFormat")
			return
		}
		f.SetParam(cmd.Address(), cmd.Value(), cmd.Args()...)
		_ = conn.Send("OK " + cmd.String())
		for _, other := range f.Conns() {
			if other != conn {
				_ = other.Send("NOTIFY " + cmd.String())
			}
		}

	default:
		_ = conn.Send("OK " + cmd.String())
	}
}

func (f *FakeConsole) record(line string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, line)
}

func (f *FakeConsole) remove(cc *ConsoleConn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.conns, cc)
}

func paramKey(address string, indices []string) string {
	return strings.Join(append([]string{address}, indices...), " ")
}

// ConsoleConn is the console side of one client connection.
type ConsoleConn struct {
	console *FakeConsole
	conn    net.Conn

	wmu sync.Mutex
}

func (cc *ConsoleConn) serve() {
	defer cc.Close()

	reader := protocol.NewLineReader(cc.conn, 0)
	for {
		raw, err := reader.ReadLine()
		if err != nil {
			return
		}
		line := string(raw)
		cc.console.record(line)
		cc.console.handler(cc, line)
	}
}

// Send writes line followed by LF.
func (cc *ConsoleConn) Send(line string) error {
	cc.wmu.Lock()
	defer cc.wmu.Unlock()
	return protocol.WriteLine(cc.conn, []byte(line+protocol.LF))
}

// SendRaw writes data as is.
func (cc *ConsoleConn) SendRaw(data string) error {
	cc.wmu.Lock()
	defer cc.wmu.Unlock()
	_, err := cc.conn.Write([]byte(data))
	return err
}

// Close closes the connection.
func (cc *ConsoleConn) Close() {
	cc.console.remove(cc)
	_ = cc.conn.Close()
}
