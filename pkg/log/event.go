package log

import "time"

// MaxFrameDataSize is the largest payload captured in a FrameEvent.
// Larger payloads are truncated.
const MaxFrameDataSize = 4096

// Event represents a diagnostic event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the transport session (UUID). Supervisor events
	// that are not tied to a session leave it empty.
	SessionID string `cbor:"2,keyasint,omitempty"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Room is the connection target.
	Room string `cbor:"6,keyasint,omitempty"`

	// RemoteAddr is the peer address (host:port).
	RemoteAddr string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame        *FrameEvent        `cbor:"10,keyasint,omitempty"`
	StateChange  *StateChangeEvent  `cbor:"11,keyasint,omitempty"`
	Retry        *RetryEvent        `cbor:"12,keyasint,omitempty"`
	ControlMsg   *ControlMsgEvent   `cbor:"13,keyasint,omitempty"`
	Error        *ErrorEventData    `cbor:"14,keyasint,omitempty"`
	Reachability *ReachabilityEvent `cbor:"15,keyasint,omitempty"`
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which component captured the event.
type Layer uint8

const (
	// LayerTransport is the WebSocket frame layer.
	LayerTransport Layer = 0
	// LayerSession is a single transport session's lifecycle.
	LayerSession Layer = 1
	// LayerSupervisor is the connection supervisor.
	LayerSupervisor Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerSession:
		return "SESSION"
	case LayerSupervisor:
		return "SUPERVISOR"
	default:
		return "UNKNOWN"
	}
}

// ParseLayer returns the layer with the given name.
func ParseLayer(s string) (Layer, bool) {
	for l := LayerTransport; l <= LayerSupervisor; l++ {
		if l.String() == s {
			return l, true
		}
	}
	return 0, false
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates an application payload.
	CategoryMessage Category = 0
	// CategoryControl indicates a control frame (ping/pong/close).
	CategoryControl Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
	// CategoryRetry indicates a retry scheduling decision.
	CategoryRetry Category = 4
	// CategoryReachability indicates a reachability transition.
	CategoryReachability Category = 5
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryControl:
		return "CONTROL"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	case CategoryRetry:
		return "RETRY"
	case CategoryReachability:
		return "REACHABILITY"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory returns the category with the given name.
func ParseCategory(s string) (Category, bool) {
	for c := CategoryMessage; c <= CategoryReachability; c++ {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}

// FrameEvent captures a payload frame at the transport layer.
type FrameEvent struct {
	// Size is the payload size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the payload (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`

	// Binary is set for binary frames.
	Binary bool `cbor:"4,keyasint,omitempty"`
}

// NewFrameEvent captures data, truncating it to MaxFrameDataSize.
func NewFrameEvent(data []byte, binary bool) *FrameEvent {
	fe := &FrameEvent{Size: len(data), Binary: binary}
	if len(data) > MaxFrameDataSize {
		fe.Data = append([]byte(nil), data[:MaxFrameDataSize]...)
		fe.Truncated = true
	} else {
		fe.Data = append([]byte(nil), data...)
	}
	return fe
}

// StateChangeEvent captures supervisor and session lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntitySupervisor indicates a supervisor state change.
	StateEntitySupervisor StateEntity = 0
	// StateEntitySession indicates a transport session state change.
	StateEntitySession StateEntity = 1
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntitySupervisor:
		return "SUPERVISOR"
	case StateEntitySession:
		return "SESSION"
	default:
		return "UNKNOWN"
	}
}

// RetryEvent captures a retry scheduling decision.
type RetryEvent struct {
	// Attempt is the number of attempts started since the last reset.
	Attempt int `cbor:"1,keyasint"`

	// Base is the pre-jitter delay.
	Base time.Duration `cbor:"2,keyasint"`

	// Delay is the scheduled wait including jitter.
	Delay time.Duration `cbor:"3,keyasint"`

	// Reason describes why the retry was scheduled.
	Reason string `cbor:"4,keyasint,omitempty"`
}

// ReachabilityEvent captures a reachability transition.
type ReachabilityEvent struct {
	Reachable bool `cbor:"1,keyasint"`
}

// ControlMsgEvent captures transport-level control frames.
type ControlMsgEvent struct {
	// Type of control message.
	Type ControlMsgType `cbor:"1,keyasint"`

	// Seq is the keep-alive sequence number for ping and pong.
	Seq *uint32 `cbor:"2,keyasint,omitempty"`

	// CloseCode is the WebSocket close code for close frames.
	CloseCode *int `cbor:"3,keyasint,omitempty"`
}

// ControlMsgType indicates the type of control message.
type ControlMsgType uint8

const (
	// ControlMsgPing indicates a ping frame.
	ControlMsgPing ControlMsgType = 0
	// ControlMsgPong indicates a pong frame.
	ControlMsgPong ControlMsgType = 1
	// ControlMsgClose indicates a close frame.
	ControlMsgClose ControlMsgType = 2
)

// String returns the control message type name.
func (c ControlMsgType) String() string {
	switch c {
	case ControlMsgPing:
		return "PING"
	case ControlMsgPong:
		return "PONG"
	case ControlMsgClose:
		return "CLOSE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the error code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
