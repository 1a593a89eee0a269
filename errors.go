package rcp

import (
	"errors"
	"fmt"

	"github.com/pior/rcp/protocol"
)

var (
	// ErrTimeout is returned by Send when no reply arrived before the call deadline.
	// The connection is unaffected.
	ErrTimeout = errors.New("rcp: call timed out")

	// ErrConnectionLost is returned to every pending call when the connection
	// fails or is closed. The transport cause is wrapped alongside it.
	ErrConnectionLost = errors.New("rcp: connection lost")

	// ErrShuttingDown is returned for calls issued after Shutdown.
	ErrShuttingDown = errors.New("rcp: client is shutting down")

	// ErrQueueFull is returned when MaxPending calls are already waiting for a reply.
	ErrQueueFull = errors.New("rcp: too many pending calls")

	// ErrSubscriptionDropped ends a subscription whose receiver fell behind.
	ErrSubscriptionDropped = errors.New("rcp: subscription dropped, receiver too slow")

	// ErrSubscriptionClosed ends a subscription closed by its owner.
	ErrSubscriptionClosed = errors.New("rcp: subscription closed")

	// ErrNotConnected is returned by WaitConnected when the context ends first.
	ErrNotConnected = errors.New("rcp: not connected")
)

// Aliases so callers can inspect errors without importing the protocol package.
type (
	InvalidCommandError = protocol.InvalidCommandError
	ConsoleError        = protocol.ConsoleError
	ParseError          = protocol.ParseError
)

// ErrLineTooLong is returned when an inbound line exceeds Config.MaxLineLength.
var ErrLineTooLong = protocol.ErrLineTooLong

func connectionLost(cause error) error {
	if cause == nil {
		return ErrConnectionLost
	}
	if errors.Is(cause, ErrConnectionLost) {
		return cause
	}
	return fmt.Errorf("%w: %w", ErrConnectionLost, cause)
}
