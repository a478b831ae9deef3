package connection

// Status is the connection status visible to consumers.
type Status uint8

const (
	// StatusDisconnected indicates no open session.
	StatusDisconnected Status = iota

	// StatusConnecting indicates an attempt is in progress.
	StatusConnecting

	// StatusConnected indicates an open session.
	StatusConnected
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "DISCONNECTED"
	case StatusConnecting:
		return "CONNECTING"
	case StatusConnected:
		return "CONNECTED"
	default:
		return "UNKNOWN"
	}
}

// State is the internal supervisor state.
type State uint8

const (
	// StateIdle indicates no session and no pending retry. The supervisor
	// waits for Start or for reachability to return.
	StateIdle State = iota

	// StateConnecting indicates a session attempt is in progress.
	StateConnecting

	// StateConnected indicates an open session.
	StateConnected

	// StateBackoff indicates a retry timer is pending.
	StateBackoff

	// StateShuttingDown is terminal.
	StateShuttingDown
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateBackoff:
		return "BACKOFF"
	case StateShuttingDown:
		return "SHUTTING_DOWN"
	default:
		return "UNKNOWN"
	}
}

// Status maps the state to the consumer-visible status.
func (s State) Status() Status {
	switch s {
	case StateConnecting:
		return StatusConnecting
	case StateConnected:
		return StatusConnected
	default:
		return StatusDisconnected
	}
}
