package protocol

import (
	"bytes"
	"io"
	"sync"
)

// Buffer pool for building command lines
var bufferPool = sync.Pool{
	New: func() any {
		// Typical command line is ~60 bytes, labels push it past 100
		return bytes.NewBuffer(make([]byte, 0, 256))
	},
}

const maxPooledBuffer = 16 * 1024

func getBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() > maxPooledBuffer {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}

// WriteCommand serializes cmd and writes it to w as one LF-terminated line.
// See WriteLine for the partial write guarantee.
func WriteCommand(w io.Writer, cmd Command) error {
	if cmd.IsZero() {
		return &InvalidCommandError{Field: "verb", Message: "is empty"}
	}

	buf := getBuffer()
	defer putBuffer(buf)

	buf.Write(cmd.AppendLine(buf.AvailableBuffer()))
	return WriteLine(w, buf.Bytes())
}

// WriteLine writes line in full. Writers that accept fewer bytes than
// offered without an error are retried until everything is written; a line
// is either written completely or WriteLine returns an error.
// The caller must treat any error as a corrupted stream: an unknown prefix of
// the line may have reached the peer.
func WriteLine(w io.Writer, line []byte) error {
	stalls := 0
	for len(line) > 0 {
		n, err := w.Write(line)
		if err != nil {
			return &ConnectionError{Op: "write", Err: err}
		}
		if n == 0 {
			stalls++
			if stalls > 3 {
				return &ConnectionError{Op: "write", Err: io.ErrShortWrite}
			}
			continue
		}
		stalls = 0
		line = line[n:]
	}
	return nil
}
