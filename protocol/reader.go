package protocol

import (
	"bufio"
	"bytes"
	"io"
)

// Pre-allocated byte slices for comparisons (avoid allocation in hot path)
var (
	lfBytes = []byte(LF)
	crBytes = []byte(CR)
)

// LineReader splits an inbound byte stream into protocol lines.
// Partial reads are reassembled; a line longer than the configured maximum
// fails with ErrLineTooLong. A LineReader belongs to one connection and is
// discarded with it.
type LineReader struct {
	r        *bufio.Reader
	maxLen   int
	overflow []byte
}

// NewLineReader returns a reader enforcing maxLen bytes per line (terminator
// excluded). maxLen <= 0 selects DefaultMaxLineLength.
func NewLineReader(r io.Reader, maxLen int) *LineReader {
	if maxLen <= 0 {
		maxLen = DefaultMaxLineLength
	}
	bufSize := 4096
	if maxLen+2 < bufSize {
		bufSize = max(maxLen+2, 16)
	}
	return &LineReader{
		r:      bufio.NewReaderSize(r, bufSize),
		maxLen: maxLen,
	}
}

// ReadLine returns the next complete line without its CR/LF terminator.
// Empty lines are skipped. The returned slice is only valid until the next
// call.
//
// Errors:
//   - io.EOF: stream closed between lines
//   - io.ErrUnexpectedEOF: stream closed in the middle of a line
//   - ErrLineTooLong: the line exceeds the maximum length
//   - Other I/O errors from the underlying reader
func (lr *LineReader) ReadLine() ([]byte, error) {
	for {
		line, err := lr.readRaw()
		if err != nil {
			return nil, err
		}
		line = bytes.TrimSuffix(line, lfBytes)
		line = bytes.TrimSuffix(line, crBytes)
		if len(line) > lr.maxLen {
			return nil, ErrLineTooLong
		}
		if len(line) == 0 {
			continue
		}
		return line, nil
	}
}

// readRaw reads up to and including LF.
func (lr *LineReader) readRaw() ([]byte, error) {
	// Read line using ReadSlice (zero allocation, returns slice into buffer)
	line, err := lr.r.ReadSlice('\n')
	if err == nil {
		return line, nil
	}
	if err != bufio.ErrBufferFull {
		return nil, lr.eofError(line, err)
	}

	// Line exceeds the buffer, accumulate until LF or the limit
	// (terminator included, so the bound is maxLen+CRLF).
	lr.overflow = append(lr.overflow[:0], line...)
	for {
		if len(lr.overflow) > lr.maxLen+2 {
			return nil, ErrLineTooLong
		}
		line, err = lr.r.ReadSlice('\n')
		lr.overflow = append(lr.overflow, line...)
		if err == nil {
			return lr.overflow, nil
		}
		if err != bufio.ErrBufferFull {
			return nil, lr.eofError(lr.overflow, err)
		}
	}
}

func (lr *LineReader) eofError(partial []byte, err error) error {
	if err == io.EOF && len(partial) > 0 {
		return io.ErrUnexpectedEOF
	}
	return err
}
