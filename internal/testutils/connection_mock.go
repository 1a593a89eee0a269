package testutils

import (
	"bytes"
	"net"
	"strings"
	"sync"
	"time"
)

// ConnectionMock is a scripted net.Conn for testing.
// Reads block until data is fed, a read error is set or the mock is closed.
type ConnectionMock struct {
	mu       sync.Mutex
	cond     *sync.Cond
	readBuf  bytes.Buffer
	writeBuf bytes.Buffer
	readErr  error
	writeErr error
	closed   bool

	// ReadChunk caps the bytes returned by each Read (0: no cap), to exercise
	// reassembly of partial lines.
	ReadChunk int

	// WriteChunk caps the bytes accepted by each Write (0: no cap), to
	// exercise short writes.
	WriteChunk int
}

// NewConnectionMock creates a new mock connection with pre-configured response data
func NewConnectionMock(responseData ...string) *ConnectionMock {
	m := &ConnectionMock{}
	m.cond = sync.NewCond(&m.mu)
	m.readBuf.WriteString(strings.Join(responseData, ""))
	return m
}

// Feed makes data available to Read.
func (m *ConnectionMock) Feed(data ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readBuf.WriteString(strings.Join(data, ""))
	m.cond.Broadcast()
}

// FailReads makes Read return err once buffered data is consumed.
func (m *ConnectionMock) FailReads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
	m.cond.Broadcast()
}

// FailWrites makes every subsequent Write return err.
func (m *ConnectionMock) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

func (m *ConnectionMock) Read(b []byte) (n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for m.readBuf.Len() == 0 && m.readErr == nil && !m.closed {
		m.cond.Wait()
	}
	if m.closed {
		return 0, net.ErrClosed
	}
	if m.readBuf.Len() == 0 {
		return 0, m.readErr
	}
	if m.ReadChunk > 0 && len(b) > m.ReadChunk {
		b = b[:m.ReadChunk]
	}
	return m.readBuf.Read(b)
}

func (m *ConnectionMock) Write(b []byte) (n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, net.ErrClosed
	}
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	if m.WriteChunk > 0 && len(b) > m.WriteChunk {
		b = b[:m.WriteChunk]
	}
	return m.writeBuf.Write(b)
}

func (m *ConnectionMock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.cond.Broadcast()
	return nil
}

// IsClosed reports whether Close was called.
func (m *ConnectionMock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *ConnectionMock) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0}
}

func (m *ConnectionMock) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 49280}
}

func (m *ConnectionMock) SetDeadline(t time.Time) error      { return nil }
func (m *ConnectionMock) SetReadDeadline(t time.Time) error  { return nil }
func (m *ConnectionMock) SetWriteDeadline(t time.Time) error { return nil }

// GetWrittenRequest returns the raw bytes written to the mock connection
func (m *ConnectionMock) GetWrittenRequest() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeBuf.String()
}

// WrittenLines returns the complete lines written so far, without terminator.
func (m *ConnectionMock) WrittenLines() []string {
	written := m.GetWrittenRequest()
	if i := strings.LastIndexByte(written, '\n'); i >= 0 {
		return strings.Split(written[:i], "\n")
	}
	return nil
}
