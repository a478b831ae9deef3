package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/roomlink/roomlink-go/pkg/log"
	"github.com/roomlink/roomlink-go/pkg/wire"
)

// DefaultPort is the default relay server port.
const DefaultPort = 8080

// RoomPathPrefix is the path prefix the relay server accepts rooms under.
const RoomPathPrefix = "/rooms/"

// ServerConfig configures a relay server.
type ServerConfig struct {
	// Address to listen on (e.g., ":8080" or "127.0.0.1:8080").
	Address string

	// MaxMessageSize is the read limit for incoming payloads (default: 1MB).
	MaxMessageSize int64

	// WriteTimeout bounds each write (default: 10s).
	WriteTimeout time.Duration

	// Logger for operational logging. If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger receives diagnostic events (optional).
	ProtocolLogger log.Logger

	// OnConnect is called when a peer joins a room.
	OnConnect func(peer *Peer)

	// OnDisconnect is called when a peer left its room.
	OnDisconnect func(peer *Peer)

	// OnMessage is called for every payload received from a peer.
	OnMessage func(peer *Peer, msg []byte)
}

// Server relays payloads between the members of a room.
type Server struct {
	config   ServerConfig
	upgrader websocket.Upgrader

	listener   net.Listener
	httpServer *http.Server

	rooms   map[string]map[*Peer]struct{}
	roomsMu sync.RWMutex

	running atomic.Bool
	wg      sync.WaitGroup
}

// NewServer creates a new relay server.
func NewServer(config ServerConfig) *Server {
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultWriteTimeout
	}

	return &Server{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		rooms: make(map[string]map[*Peer]struct{}),
	}
}

// Start listens on the configured address and serves until Stop.
func (s *Server) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		s.running.Store(false)
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.Handle(RoomPathPrefix, s)
	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.debugLog("serve failed", "error", err)
		}
	}()

	s.debugLog("relay listening", "addr", listener.Addr().String())
	return nil
}

// Stop closes the listener and all peers, then waits for their handlers.
func (s *Server) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)

	// Hijacked WebSocket connections are not tracked by http.Server.
	for _, p := range s.peers() {
		p.Close()
	}

	s.wg.Wait()
	return err
}

// Addr returns the server's listen address.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// ConnectionCount returns the number of connected peers.
func (s *Server) ConnectionCount() int {
	s.roomsMu.RLock()
	defer s.roomsMu.RUnlock()
	n := 0
	for _, members := range s.rooms {
		n += len(members)
	}
	return n
}

// RoomSize returns the number of peers in room.
func (s *Server) RoomSize(room string) int {
	s.roomsMu.RLock()
	defer s.roomsMu.RUnlock()
	return len(s.rooms[room])
}

// Rooms returns the names of all occupied rooms, sorted.
func (s *Server) Rooms() []string {
	s.roomsMu.RLock()
	defer s.roomsMu.RUnlock()
	rooms := make([]string, 0, len(s.rooms))
	for r := range s.rooms {
		rooms = append(rooms, r)
	}
	sort.Strings(rooms)
	return rooms
}

// RoomFromPath extracts the room from a request path of the form
// /rooms/{room}.
func RoomFromPath(path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, RoomPathPrefix)
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	room, err := url.PathUnescape(rest)
	if err != nil || room == "" {
		return "", false
	}
	return room, true
}

// ServeHTTP upgrades a room request and relays until the peer leaves.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	room, ok := RoomFromPath(r.URL.EscapedPath())
	if !ok {
		http.NotFound(w, r)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.debugLog("upgrade failed", "error", err)
		return
	}

	s.wg.Add(1)
	defer s.wg.Done()

	peer := &Peer{
		id:     uuid.NewString(),
		room:   room,
		ws:     ws,
		server: s,
	}
	s.join(peer)
	defer s.leave(peer)

	ws.SetReadLimit(s.config.MaxMessageSize)
	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if !errors.As(err, &ce) {
				s.debugLog("peer read failed", "room", room, "peer", peer.id, "error", err)
			}
			return
		}
		peer.logFrame(log.DirectionIn, data, mt == websocket.BinaryMessage)
		s.handleMessage(peer, mt, data)
	}
}

func (s *Server) handleMessage(from *Peer, messageType int, data []byte) {
	codec := wire.JSON
	if messageType == websocket.BinaryMessage {
		codec = wire.CBOR
	}
	if typ, err := wire.PeekType(codec, data); err == nil && typ == wire.TypeEntered {
		s.debugLog("peer entered", "room", from.room, "peer", from.id)
	}

	if s.config.OnMessage != nil {
		s.config.OnMessage(from, data)
	}

	for _, p := range s.members(from.room) {
		if p == from {
			continue
		}
		if err := p.send(messageType, data); err != nil {
			s.debugLog("relay failed", "room", p.room, "peer", p.id, "error", err)
		}
	}
}

func (s *Server) join(p *Peer) {
	s.roomsMu.Lock()
	members, ok := s.rooms[p.room]
	if !ok {
		members = make(map[*Peer]struct{})
		s.rooms[p.room] = members
	}
	members[p] = struct{}{}
	s.roomsMu.Unlock()

	s.debugLog("peer joined", "room", p.room, "peer", p.id, "remote", p.ws.RemoteAddr().String())
	p.logState("", "JOINED")
	if s.config.OnConnect != nil {
		s.config.OnConnect(p)
	}
}

func (s *Server) leave(p *Peer) {
	p.Close()

	s.roomsMu.Lock()
	if members, ok := s.rooms[p.room]; ok {
		delete(members, p)
		if len(members) == 0 {
			delete(s.rooms, p.room)
		}
	}
	s.roomsMu.Unlock()

	s.debugLog("peer left", "room", p.room, "peer", p.id)
	p.logState("JOINED", "LEFT")
	if s.config.OnDisconnect != nil {
		s.config.OnDisconnect(p)
	}
}

func (s *Server) members(room string) []*Peer {
	s.roomsMu.RLock()
	defer s.roomsMu.RUnlock()
	peers := make([]*Peer, 0, len(s.rooms[room]))
	for p := range s.rooms[room] {
		peers = append(peers, p)
	}
	return peers
}

func (s *Server) peers() []*Peer {
	s.roomsMu.RLock()
	defer s.roomsMu.RUnlock()
	var peers []*Peer
	for _, members := range s.rooms {
		for p := range members {
			peers = append(peers, p)
		}
	}
	return peers
}

func (s *Server) debugLog(msg string, args ...any) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, args...)
	}
}

// Peer is a client connected to a relay room.
type Peer struct {
	id     string
	room   string
	ws     *websocket.Conn
	server *Server

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// ID returns the peer identifier.
func (p *Peer) ID() string { return p.id }

// Room returns the room the peer joined.
func (p *Peer) Room() string { return p.room }

// RemoteAddr returns the peer's network address.
func (p *Peer) RemoteAddr() net.Addr { return p.ws.RemoteAddr() }

// Send writes a text payload to the peer.
func (p *Peer) Send(data []byte) error {
	return p.send(websocket.TextMessage, data)
}

// Close sends a going-away close frame and closes the connection.
func (p *Peer) Close() error {
	var err error
	p.closeOnce.Do(func() {
		_ = p.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "relay closing"),
			time.Now().Add(time.Second))
		err = p.ws.Close()
	})
	return err
}

func (p *Peer) send(messageType int, data []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if err := p.ws.SetWriteDeadline(time.Now().Add(p.server.config.WriteTimeout)); err != nil {
		return err
	}
	if err := p.ws.WriteMessage(messageType, data); err != nil {
		return err
	}
	p.logFrame(log.DirectionOut, data, messageType == websocket.BinaryMessage)
	return nil
}

func (p *Peer) logFrame(dir log.Direction, data []byte, binary bool) {
	if p.server.config.ProtocolLogger == nil {
		return
	}
	p.server.config.ProtocolLogger.Log(log.Event{
		Timestamp:  time.Now(),
		SessionID:  p.id,
		Room:       p.room,
		RemoteAddr: p.ws.RemoteAddr().String(),
		Direction:  dir,
		Layer:      log.LayerTransport,
		Category:   log.CategoryMessage,
		Frame:      log.NewFrameEvent(data, binary),
	})
}

func (p *Peer) logState(from, to string) {
	if p.server.config.ProtocolLogger == nil {
		return
	}
	p.server.config.ProtocolLogger.Log(log.Event{
		Timestamp:  time.Now(),
		SessionID:  p.id,
		Room:       p.room,
		RemoteAddr: p.ws.RemoteAddr().String(),
		Layer:      log.LayerSession,
		Category:   log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntitySession,
			OldState: from,
			NewState: to,
		},
	})
}
