package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/roomlink/roomlink-go/pkg/log"
	"github.com/roomlink/roomlink-go/pkg/wire"
)

// DefaultPathTemplate is the room path on a relay server.
const DefaultPathTemplate = "/rooms/" + RoomPlaceholder

// RoomPlaceholder is replaced by the escaped room in a path template.
const RoomPlaceholder = "{room}"

// ErrInvalidServer is returned by NewClient for unusable server addresses.
var ErrInvalidServer = errors.New("invalid server address")

// ClientConfig configures a roomlink client.
type ClientConfig struct {
	// Server is the relay base address: a ws://, wss://, http:// or
	// https:// URL, or a bare host:port (ws:// is assumed).
	Server string

	// PathTemplate is appended to the server path with RoomPlaceholder
	// replaced by the escaped room (default: DefaultPathTemplate).
	PathTemplate string

	// HandshakeTimeout bounds the WebSocket handshake (default: 10s).
	HandshakeTimeout time.Duration

	// WriteTimeout bounds each write (default: 10s).
	WriteTimeout time.Duration

	// MaxMessageSize is the read limit for incoming payloads (default: 1MB).
	MaxMessageSize int64

	// KeepAlive configuration.
	KeepAlive KeepAliveConfig

	// Header is sent with every handshake request.
	Header http.Header

	// Codec for the presence announcement (default: wire.JSON).
	Codec wire.Codec

	// Logger for operational logging. If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger receives diagnostic events. If nil, capture is disabled.
	ProtocolLogger log.Logger
}

// Client creates sessions to rooms on one relay server.
type Client struct {
	config ClientConfig
	base   *url.URL
}

// NewClient creates a new client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.PathTemplate == "" {
		config.PathTemplate = DefaultPathTemplate
	}
	if !strings.Contains(config.PathTemplate, RoomPlaceholder) {
		return nil, fmt.Errorf("path template %q lacks %s", config.PathTemplate, RoomPlaceholder)
	}
	if config.KeepAlive == (KeepAliveConfig{}) {
		config.KeepAlive = DefaultKeepAliveConfig()
	}

	base, err := parseServer(config.Server)
	if err != nil {
		return nil, err
	}

	return &Client{
		config: config,
		base:   base,
	}, nil
}

// URL returns the WebSocket URL of room.
func (c *Client) URL(room string) string {
	path := strings.ReplaceAll(c.config.PathTemplate, RoomPlaceholder, url.PathEscape(room))
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimSuffix(c.base.String(), "/") + path
}

// NewSession creates an unopened session to room.
func (c *Client) NewSession(room string, handler Handler) Session {
	return NewConnection(c.URL(room), ConnectionConfig{
		Room:             room,
		HandshakeTimeout: c.config.HandshakeTimeout,
		WriteTimeout:     c.config.WriteTimeout,
		MaxMessageSize:   c.config.MaxMessageSize,
		KeepAlive:        c.config.KeepAlive,
		Header:           c.config.Header,
		Codec:            c.config.Codec,
		Logger:           c.config.Logger,
		ProtocolLogger:   c.config.ProtocolLogger,
	}, handler)
}

func parseServer(server string) (*url.URL, error) {
	if server == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidServer)
	}
	if !strings.Contains(server, "://") {
		server = "ws://" + server
	}

	u, err := url.Parse(server)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidServer, err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidServer, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidServer)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
