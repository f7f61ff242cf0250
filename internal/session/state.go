// Package session implements the realtime duplex audio session: capture
// encoding, gapless playback scheduling, and the controller that owns the
// session state machine and deterministic teardown.
package session

// State is the lifecycle state of one session. Error and Closed are
// terminal; a new session requires a new Controller.
type State int

const (
	StateConnecting State = iota
	StateConnected
	StateError
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateError || s == StateClosed
}
