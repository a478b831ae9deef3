package transport

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/roomlink/roomlink-go/pkg/log"
	"github.com/roomlink/roomlink-go/pkg/wire"
)

// Connection defaults.
const (
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWriteTimeout     = 10 * time.Second
	DefaultMaxMessageSize   = 1 << 20
)

// ConnectionState is the lifecycle state of a Connection.
type ConnectionState uint8

const (
	// StateNew indicates Open has not been called.
	StateNew ConnectionState = iota

	// StateDialing indicates the WebSocket handshake is in progress.
	StateDialing

	// StateOpen indicates an established connection.
	StateOpen

	// StateClosed indicates a terminated connection.
	StateClosed
)

// String returns the connection state name.
func (s ConnectionState) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateDialing:
		return "DIALING"
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Handler receives Connection lifecycle events.
//
// All calls for one Connection come from a single goroutine. Handlers must
// not call Close on the same Connection.
type Handler interface {
	// OnOpen is called once the connection is established and the presence
	// announcement has been sent.
	OnOpen()

	// OnMessage is called for each payload received while open.
	OnMessage(data []byte)

	// OnError reports a failure. OnClose always follows.
	OnError(err error)

	// OnClose is called exactly once, last.
	OnClose(reason CloseReason)
}

// Session is a single connection attempt.
// Implemented by Connection.
type Session interface {
	// ID returns a unique identifier for the session.
	ID() string

	// Open starts the attempt asynchronously. Calls after the first are ignored.
	Open(ctx context.Context)

	// Send writes a payload. It returns ErrNotOpen unless the session is open.
	Send(payload []byte) error

	// Close terminates the session and waits until OnClose was delivered.
	// It is idempotent.
	Close()
}

// ConnectionConfig configures a Connection.
type ConnectionConfig struct {
	// Room is recorded in diagnostic events.
	Room string

	// HandshakeTimeout bounds the WebSocket handshake (default: 10s).
	HandshakeTimeout time.Duration

	// WriteTimeout bounds each write (default: 10s).
	WriteTimeout time.Duration

	// MaxMessageSize is the read limit for incoming payloads (default: 1MB).
	MaxMessageSize int64

	// KeepAlive configuration.
	KeepAlive KeepAliveConfig

	// Header is sent with the handshake request.
	Header http.Header

	// Codec encodes the presence announcement and selects the frame type of
	// outgoing payloads (default: wire.JSON).
	Codec wire.Codec

	// Logger for operational logging. If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger receives diagnostic events. If nil, capture is disabled.
	ProtocolLogger log.Logger
}

// DefaultConnectionConfig returns the default connection configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		HandshakeTimeout: DefaultHandshakeTimeout,
		WriteTimeout:     DefaultWriteTimeout,
		MaxMessageSize:   DefaultMaxMessageSize,
		KeepAlive:        DefaultKeepAliveConfig(),
		Codec:            wire.JSON,
	}
}

// Connection is a WebSocket session to one room.
type Connection struct {
	id      string
	url     string
	config  ConnectionConfig
	handler Handler

	mu         sync.Mutex
	state      ConnectionState
	ws         *websocket.Conn
	cancel     context.CancelFunc
	closing    bool
	failure    error
	remoteAddr string

	writeMu sync.Mutex
	done    chan struct{}
}

// NewConnection creates a connection to url (not yet opened).
func NewConnection(url string, config ConnectionConfig, handler Handler) *Connection {
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultWriteTimeout
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.Codec == nil {
		config.Codec = wire.JSON
	}

	return &Connection{
		id:      uuid.NewString(),
		url:     url,
		config:  config,
		handler: handler,
		done:    make(chan struct{}),
	}
}

// ID returns the session identifier.
func (c *Connection) ID() string {
	return c.id
}

// URL returns the dial target.
func (c *Connection) URL() string {
	return c.url
}

// State returns the current connection state.
func (c *Connection) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed after OnClose was delivered.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Open starts the connection attempt.
func (c *Connection) Open(ctx context.Context) {
	c.mu.Lock()
	if c.state != StateNew {
		c.mu.Unlock()
		return
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.state = StateDialing
	c.mu.Unlock()

	c.logState(StateNew, StateDialing, "")
	go c.run(ctx)
}

// Send writes a payload to the peer.
func (c *Connection) Send(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	ws := c.ws
	open := c.state == StateOpen && !c.closing
	c.mu.Unlock()

	if !open {
		return ErrNotOpen
	}

	binary := c.config.Codec.Binary()
	if err := c.write(ws, frameType(binary), payload); err != nil {
		err = &Error{Op: "send", Phase: PhaseRuntime, Err: err}
		c.fail(err)
		ws.Close()
		return err
	}
	c.logFrame(log.DirectionOut, payload, binary)
	return nil
}

// Close terminates the connection. It blocks until OnClose was delivered.
func (c *Connection) Close() {
	c.mu.Lock()
	if c.state == StateNew {
		c.state = StateClosed
		c.closing = true
		c.mu.Unlock()

		c.logState(StateNew, StateClosed, "session closed")
		c.handler.OnClose(CloseReason{Code: CloseNormal, Text: "session closed"})
		close(c.done)
		return
	}
	if c.closing || c.state == StateClosed {
		c.mu.Unlock()
		<-c.done
		return
	}
	c.closing = true
	ws := c.ws
	cancel := c.cancel
	c.mu.Unlock()

	cancel()
	if ws != nil {
		code := CloseNormal
		c.logEvent(log.Event{
			Direction:  log.DirectionOut,
			Layer:      log.LayerTransport,
			Category:   log.CategoryControl,
			ControlMsg: &log.ControlMsgEvent{Type: log.ControlMsgClose, CloseCode: &code},
		})
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
			time.Now().Add(c.config.WriteTimeout))
		ws.Close()
	}
	<-c.done
}

func (c *Connection) run(ctx context.Context) {
	defer close(c.done)

	reason := c.serve(ctx)

	c.mu.Lock()
	old := c.state
	c.state = StateClosed
	ws := c.ws
	failure := c.failure
	c.mu.Unlock()

	if ws != nil {
		ws.Close()
	}
	c.cancel()

	if failure != nil {
		reason.Err = failure
		c.debugLog("transport error", "error", failure)
		c.logError(failure)
		c.handler.OnError(failure)
	}
	c.logState(old, StateClosed, reason.String())
	c.handler.OnClose(reason)
}

func (c *Connection) serve(ctx context.Context) CloseReason {
	closed := CloseReason{Code: CloseNormal, Text: "session closed"}

	ws, err := c.dial(ctx)
	if err != nil {
		if c.isClosing() {
			return closed
		}
		c.fail(&Error{Op: "dial", Phase: PhaseOpen, Err: err})
		return CloseReason{Code: CloseAbnormal, Text: "dial failed"}
	}

	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		ws.Close()
		return closed
	}
	c.ws = ws
	c.remoteAddr = ws.RemoteAddr().String()
	c.mu.Unlock()

	if err := c.announce(ws); err != nil {
		if c.isClosing() {
			return closed
		}
		c.fail(&Error{Op: "announce", Phase: PhaseOpen, Err: err})
		return CloseReason{Code: CloseAbnormal, Text: "announce failed"}
	}

	c.logState(StateDialing, StateOpen, "")
	c.debugLog("session open", "url", c.url, "remote", c.remoteAddr)
	c.handler.OnOpen()

	closed.WasOpen = true

	var ka *KeepAlive
	ws.SetReadLimit(c.config.MaxMessageSize)
	ws.SetPingHandler(func(data string) error {
		c.logControl(log.DirectionIn, log.ControlMsgPing, []byte(data))
		err := ws.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(c.config.WriteTimeout))
		if err == nil {
			c.logControl(log.DirectionOut, log.ControlMsgPong, []byte(data))
		}
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})
	ws.SetPongHandler(func(data string) error {
		c.logControl(log.DirectionIn, log.ControlMsgPong, []byte(data))
		if seq, ok := DecodePingPayload([]byte(data)); ok && ka != nil {
			ka.PongReceived(seq)
		}
		return nil
	})

	if !c.config.KeepAlive.Disabled {
		ka = NewKeepAlive(c.config.KeepAlive,
			func(seq uint32) error {
				payload := EncodePingPayload(seq)
				c.logControl(log.DirectionOut, log.ControlMsgPing, payload)
				return ws.WriteControl(websocket.PingMessage, payload, time.Now().Add(c.config.WriteTimeout))
			},
			func() {
				c.fail(&Error{Op: "keepalive", Phase: PhaseRuntime, Err: ErrKeepAliveTimeout})
				ws.Close()
			},
		)
		ka.Start(ctx)
		defer ka.Stop()
	}

	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			return c.readFailure(err)
		}
		c.logFrame(log.DirectionIn, data, mt == websocket.BinaryMessage)
		c.handler.OnMessage(data)
	}
}

// dial runs the WebSocket handshake. gorilla only applies the context
// deadline to the handshake I/O, so the raw conn is closed as soon as ctx is
// cancelled; otherwise Close would wait out HandshakeTimeout on a peer that
// accepted TCP but never answers.
func (c *Connection) dial(ctx context.Context) (*websocket.Conn, error) {
	var stop func() bool
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.config.HandshakeTimeout,
		NetDialContext: func(dctx context.Context, network, addr string) (net.Conn, error) {
			var d net.Dialer
			conn, err := d.DialContext(dctx, network, addr)
			if err != nil {
				return nil, err
			}
			// Bound to the session context, not dctx, which gorilla
			// cancels when the handshake returns.
			stop = context.AfterFunc(ctx, func() { conn.Close() })
			return conn, nil
		},
	}
	ws, resp, err := dialer.DialContext(ctx, c.url, c.config.Header)
	if stop != nil {
		stop()
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return ws, err
}

// announce sends the presence record and marks the connection open. Holding
// writeMu keeps the announcement ahead of any Send.
func (c *Connection) announce(ws *websocket.Conn) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	data, err := wire.EncodeEntered(c.config.Codec)
	if err != nil {
		return err
	}
	binary := c.config.Codec.Binary()
	if err := c.write(ws, frameType(binary), data); err != nil {
		return err
	}
	c.logFrame(log.DirectionOut, data, binary)

	c.mu.Lock()
	c.state = StateOpen
	c.mu.Unlock()
	return nil
}

func (c *Connection) readFailure(err error) CloseReason {
	if c.isClosing() {
		return CloseReason{Code: CloseNormal, Text: "session closed", WasOpen: true}
	}

	// gorilla reports a dropped TCP connection as a 1006 CloseError even
	// though no close frame arrived.
	var ce *websocket.CloseError
	if errors.As(err, &ce) && ce.Code != websocket.CloseAbnormalClosure {
		code := ce.Code
		c.logEvent(log.Event{
			Direction:  log.DirectionIn,
			Layer:      log.LayerTransport,
			Category:   log.CategoryControl,
			ControlMsg: &log.ControlMsgEvent{Type: log.ControlMsgClose, CloseCode: &code},
		})
		return CloseReason{Code: ce.Code, Text: ce.Text, WasOpen: true}
	}

	c.fail(&Error{Op: "read", Phase: PhaseRuntime, Err: err})
	return CloseReason{Code: CloseAbnormal, Text: "connection lost", WasOpen: true}
}

func (c *Connection) write(ws *websocket.Conn, messageType int, data []byte) error {
	if err := ws.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout)); err != nil {
		return err
	}
	return ws.WriteMessage(messageType, data)
}

// fail records the first failure of the connection.
func (c *Connection) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failure == nil && !c.closing {
		c.failure = err
	}
}

func (c *Connection) isClosing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closing
}

func frameType(binary bool) int {
	if binary {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

func (c *Connection) debugLog(msg string, args ...any) {
	if c.config.Logger != nil {
		c.config.Logger.Debug(msg, append([]any{"session", c.id, "room", c.config.Room}, args...)...)
	}
}

func (c *Connection) logEvent(e log.Event) {
	if c.config.ProtocolLogger == nil {
		return
	}
	e.Timestamp = time.Now()
	e.SessionID = c.id
	e.Room = c.config.Room
	c.mu.Lock()
	e.RemoteAddr = c.remoteAddr
	c.mu.Unlock()
	c.config.ProtocolLogger.Log(e)
}

func (c *Connection) logFrame(dir log.Direction, data []byte, binary bool) {
	if c.config.ProtocolLogger == nil {
		return
	}
	c.logEvent(log.Event{
		Direction: dir,
		Layer:     log.LayerTransport,
		Category:  log.CategoryMessage,
		Frame:     log.NewFrameEvent(data, binary),
	})
}

func (c *Connection) logControl(dir log.Direction, typ log.ControlMsgType, payload []byte) {
	ctrl := &log.ControlMsgEvent{Type: typ}
	if seq, ok := DecodePingPayload(payload); ok {
		ctrl.Seq = &seq
	}
	c.logEvent(log.Event{
		Direction:  dir,
		Layer:      log.LayerTransport,
		Category:   log.CategoryControl,
		ControlMsg: ctrl,
	})
}

func (c *Connection) logState(from, to ConnectionState, reason string) {
	c.logEvent(log.Event{
		Layer:    log.LayerSession,
		Category: log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntitySession,
			OldState: from.String(),
			NewState: to.String(),
			Reason:   reason,
		},
	})
}

func (c *Connection) logError(err error) {
	var op string
	var te *Error
	if errors.As(err, &te) {
		op = te.Op
	}
	c.logEvent(log.Event{
		Layer:    log.LayerSession,
		Category: log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerTransport,
			Message: err.Error(),
			Context: op,
		},
	})
}

// Compile-time interface satisfaction check.
var _ Session = (*Connection)(nil)
