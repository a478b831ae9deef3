package wire

// MessageType identifies a record.
type MessageType string

const (
	// TypeEntered announces that the client joined the room.
	TypeEntered MessageType = "entered"
)

// String returns the type name.
func (t MessageType) String() string {
	if t == "" {
		return "UNKNOWN"
	}
	return string(t)
}

// Envelope is the common header of every record. Decoding any record into an
// Envelope yields its type.
type Envelope struct {
	Type MessageType `json:"type" cbor:"type"`
}

// Presence is the presence announcement.
type Presence struct {
	Type MessageType `json:"type" cbor:"type"`
}

// NewEntered returns the announcement sent when a session opens.
func NewEntered() Presence {
	return Presence{Type: TypeEntered}
}
