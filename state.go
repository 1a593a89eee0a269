package rcp

// ConnectionState is the lifecycle state of the connection supervisor.
//
//	Disconnected -> Connecting -> Connected -> Disconnected (on error)
//	                                        -> Draining -> Disconnected (on shutdown)
type ConnectionState int32

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
	Draining
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Draining:
		return "draining"
	default:
		return "unknown"
	}
}
