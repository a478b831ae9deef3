package transport

import (
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
)

// Error classes.
var (
	// ErrOpenFailed classifies failures before the connection reached open.
	ErrOpenFailed = errors.New("transport open failed")

	// ErrRuntime classifies failures on an open connection.
	ErrRuntime = errors.New("transport runtime error")

	// ErrNotOpen is returned by Send before open and after close.
	ErrNotOpen = errors.New("transport not open")

	// ErrKeepAliveTimeout reports that too many pongs were missed.
	ErrKeepAliveTimeout = errors.New("keep-alive timeout")
)

// Phase is the lifecycle phase an Error occurred in.
type Phase uint8

const (
	// PhaseOpen is before the connection reached open.
	PhaseOpen Phase = iota
	// PhaseRuntime is while the connection was open.
	PhaseRuntime
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseOpen:
		return "OPEN"
	case PhaseRuntime:
		return "RUNTIME"
	default:
		return "UNKNOWN"
	}
}

// Error is a transport failure.
//
// errors.Is(err, ErrOpenFailed) and errors.Is(err, ErrRuntime) classify it by
// phase; the underlying cause stays reachable through Unwrap.
type Error struct {
	Op    string
	Phase Phase
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Phase.class(), e.Op, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Phase.sentinel(), e.Err}
}

func (p Phase) sentinel() error {
	if p == PhaseOpen {
		return ErrOpenFailed
	}
	return ErrRuntime
}

func (p Phase) class() string {
	return p.sentinel().Error()
}

// Close codes used for locally generated close reasons.
const (
	CloseNormal   = websocket.CloseNormalClosure
	CloseAbnormal = websocket.CloseAbnormalClosure
)

// CloseReason describes why a Connection ended.
type CloseReason struct {
	// Code is the WebSocket close code.
	Code int

	// Text is the close text sent by the peer or a local description.
	Text string

	// Err is the failure that ended the connection, if any.
	Err error

	// WasOpen reports whether the connection reached open.
	WasOpen bool
}

// Clean reports whether the connection ended without a failure.
func (r CloseReason) Clean() bool {
	return r.Err == nil && (r.Code == websocket.CloseNormalClosure || r.Code == websocket.CloseGoingAway)
}

func (r CloseReason) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%d %s: %v", r.Code, r.Text, r.Err)
	}
	return fmt.Sprintf("%d %s", r.Code, r.Text)
}
