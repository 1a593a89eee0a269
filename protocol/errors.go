package protocol

import (
	"errors"
	"fmt"
)

// Error types for RCP operations.
// They let the engine decide whether a failure is local to one call or
// poisons the connection (see ShouldReconnect).

// ErrLineTooLong is returned by LineReader when an inbound line exceeds the
// configured maximum. The stream can no longer be trusted.
var ErrLineTooLong = errors.New("rcp: line too long")

// InvalidCommandError is returned when a Command cannot be constructed:
// empty or malformed verb, empty address, or a token containing whitespace.
//
// Connection handling: nothing was sent, connection is unaffected
type InvalidCommandError struct {
	Field   string // verb, address, arg or value
	Value   string
	Message string
}

func (e *InvalidCommandError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("rcp: invalid command: %s %s", e.Field, e.Message)
	}
	return fmt.Sprintf("rcp: invalid command: %s %q %s", e.Field, e.Value, e.Message)
}

// ShouldReconnect returns false - the command was rejected client-side
func (e *InvalidCommandError) ShouldReconnect() bool {
	return false
}

// ConsoleError represents an ERROR line sent by the console in answer to a
// command. It carries the console's message verbatim.
//
// Common causes:
//   - UnknownCommand
//   - InvalidArgument (bad index, out of range value)
//   - WrongFormat
//   - AccessDenied / Busy
//
// Connection handling: connection is still valid
type ConsoleError struct {
	Verb    string // verb echoed by the console, may be empty
	Message string // everything after the verb, verbatim
	Line    string // raw line
}

func (e *ConsoleError) Error() string {
	if e.Verb == "" {
		return "rcp: console error: " + e.Message
	}
	return "rcp: console error: " + e.Verb + ": " + e.Message
}

// ShouldReconnect returns false - console errors don't corrupt the stream
func (e *ConsoleError) ShouldReconnect() bool {
	return false
}

// ParseError represents an inbound line that claims to be a reply but does
// not match any reply grammar.
//
// Connection handling: correlation can no longer be trusted, RECONNECT
type ParseError struct {
	Message string
	Line    string
	Err     error // Underlying error, if any
}

func (e *ParseError) Error() string {
	msg := "rcp: parse error: " + e.Message
	if e.Line != "" {
		msg += fmt.Sprintf(" (line %q)", e.Line)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ShouldReconnect returns true - a malformed reply desynchronizes the queue
func (e *ParseError) ShouldReconnect() bool {
	return true
}

// ConnectionError wraps I/O errors from socket operations.
//
// Connection handling: connection is already broken, RECONNECT
type ConnectionError struct {
	Op  string // read, write, dial
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("rcp: connection error during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ShouldReconnect returns true - connection errors mean the socket is gone
func (e *ConnectionError) ShouldReconnect() bool {
	return true
}

// ErrorWithConnectionState is implemented by errors that know whether the
// connection must be dropped.
type ErrorWithConnectionState interface {
	error
	ShouldReconnect() bool
}

// ShouldReconnect reports whether err leaves the stream in a state that
// requires dropping the connection.
//
// Returns true for ParseError, ConnectionError, ErrLineTooLong and unknown
// errors. Returns false for nil, ConsoleError and InvalidCommandError.
func ShouldReconnect(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrLineTooLong) {
		return true
	}

	var e ErrorWithConnectionState
	if errors.As(err, &e) {
		return e.ShouldReconnect()
	}

	// Unknown error type - be conservative and drop the connection
	return true
}
