package discovery

import (
	"errors"
	"net"
	"strconv"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceType is the service type advertised by relay servers.
	ServiceType = "_roomlink._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// DefaultPort is the default relay port.
	DefaultPort = 8080

	// ProtocolVersion is the advertised protocol version.
	ProtocolVersion = "1"

	// MaxInstanceNameLen is the DNS-SD instance label limit.
	MaxInstanceNameLen = 63
)

// TXT record keys.
const (
	TXTKeyVersion      = "ver"  // Protocol version
	TXTKeyPathTemplate = "path" // Room path template (optional)
	TXTKeyTLS          = "tls"  // "1" if the relay expects wss:// (optional)
)

// DefaultBrowseTimeout bounds Resolve when the context has no deadline.
const DefaultBrowseTimeout = 5 * time.Second

// Discovery errors.
var (
	ErrInvalidTXTRecord    = errors.New("invalid TXT record format")
	ErrMissingRequired     = errors.New("missing required field")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 characters")
	ErrEmptyInstanceName   = errors.New("instance name is empty")
	ErrNotFound            = errors.New("service not found")
)

// RelayInfo is what a relay advertises.
type RelayInfo struct {
	// InstanceName is the user-friendly relay name.
	InstanceName string

	// Port the relay listens on (default: DefaultPort).
	Port uint16

	// PathTemplate is the room path template (optional).
	PathTemplate string

	// TLS reports whether the relay expects wss://.
	TLS bool
}

// RelayService is a relay found by browsing.
type RelayService struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string
	Version      string
	PathTemplate string
	TLS          bool
}

// Endpoint returns a dialable host:port for the relay, preferring the first
// resolved address over the host name.
func (s *RelayService) Endpoint() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return net.JoinHostPort(trimDot(host), strconv.Itoa(int(s.Port)))
}

// ServerURL returns the relay base URL for a transport client.
func (s *RelayService) ServerURL() string {
	scheme := "ws://"
	if s.TLS {
		scheme = "wss://"
	}
	return scheme + s.Endpoint()
}

func trimDot(host string) string {
	if n := len(host); n > 0 && host[n-1] == '.' {
		return host[:n-1]
	}
	return host
}

// AdvertiserConfig configures mDNS advertising.
type AdvertiserConfig struct {
	// Interface restricts advertising to one network interface (default: all).
	Interface string

	// TTL of the advertised records (default: library default).
	TTL time.Duration
}

// BrowserConfig configures mDNS browsing.
type BrowserConfig struct {
	// Interface restricts browsing to one network interface (default: all).
	Interface string
}
