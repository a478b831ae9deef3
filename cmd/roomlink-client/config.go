package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roomlink/roomlink-go/internal/logging"
	"github.com/roomlink/roomlink-go/pkg/connection"
	"github.com/roomlink/roomlink-go/pkg/reachability"
	"github.com/roomlink/roomlink-go/pkg/transport"
	"github.com/roomlink/roomlink-go/pkg/wire"
)

// Config is the client configuration, read from YAML and overridden by flags.
type Config struct {
	Server          string `yaml:"server"`
	Room            string `yaml:"room"`
	PathTemplate    string `yaml:"path_template"`
	DiscoverService bool   `yaml:"discover_service"`
	Codec           string `yaml:"codec"`
	Interactive     bool   `yaml:"interactive"`

	Backoff      BackoffConfig      `yaml:"backoff"`
	KeepAlive    KeepAliveConfig    `yaml:"keepalive"`
	Reachability ReachabilityConfig `yaml:"reachability"`
	Log          logging.Config     `yaml:"log"`
	Diagnostics  DiagnosticsConfig  `yaml:"diagnostics"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

// BackoffConfig configures the reconnect policy.
type BackoffConfig struct {
	Initial    time.Duration `yaml:"initial"`
	Max        time.Duration `yaml:"max"`
	Jitter     time.Duration `yaml:"jitter"`
	Multiplier float64       `yaml:"multiplier"`
}

// KeepAliveConfig configures transport keep-alive.
type KeepAliveConfig struct {
	PingInterval time.Duration `yaml:"ping_interval"`
	PongTimeout  time.Duration `yaml:"pong_timeout"`
	MaxMissed    int           `yaml:"max_missed"`
	Disabled     bool          `yaml:"disabled"`
}

// ReachabilityConfig configures network reachability probing.
type ReachabilityConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	Disabled     bool          `yaml:"disabled"`
}

// DiagnosticsConfig configures diagnostic event capture.
type DiagnosticsConfig struct {
	// File receives CBOR events, readable with roomlink-log.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`

	// Console also writes events to the operational log at debug level.
	Console bool `yaml:"console"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is the metrics server address; empty disables the endpoint.
	Listen string `yaml:"listen"`
}

// ConfigError reports a configuration problem.
type ConfigError struct {
	File    string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	msg := e.Message
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	policy := connection.DefaultPolicy()
	ka := transport.DefaultKeepAliveConfig()
	return Config{
		PathTemplate: transport.DefaultPathTemplate,
		Codec:        "json",
		Backoff: BackoffConfig{
			Initial:    policy.Initial,
			Max:        policy.Max,
			Jitter:     policy.Jitter,
			Multiplier: policy.Multiplier,
		},
		KeepAlive: KeepAliveConfig{
			PingInterval: ka.PingInterval,
			PongTimeout:  ka.PongTimeout,
			MaxMissed:    ka.MaxMissedPongs,
		},
		Reachability: ReachabilityConfig{
			PollInterval: reachability.DefaultPollInterval,
		},
		Log: logging.Config{Level: "info"},
	}
}

// ParseConfig parses YAML over the defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Message: "failed to parse YAML", Cause: err}
	}
	return &cfg, nil
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{File: path, Message: "failed to read file", Cause: err}
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			ce.File = path
		}
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can be run.
func (c *Config) Validate() error {
	if c.Room == "" {
		return &ConfigError{Message: "room is required"}
	}
	if c.Server == "" && !c.DiscoverService {
		return &ConfigError{Message: "server is required unless discover_service is set"}
	}
	if _, err := wire.CodecByName(c.Codec); err != nil {
		return &ConfigError{Message: "invalid codec", Cause: err}
	}
	if c.Backoff.Initial < 0 || c.Backoff.Max < 0 || c.Backoff.Jitter < 0 {
		return &ConfigError{Message: "backoff durations must not be negative"}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return &ConfigError{Message: "invalid log level", Cause: err}
	}
	return nil
}

// Policy returns the backoff policy.
func (c *Config) Policy() connection.Policy {
	return connection.Policy{
		Initial:    c.Backoff.Initial,
		Max:        c.Backoff.Max,
		Jitter:     c.Backoff.Jitter,
		Multiplier: c.Backoff.Multiplier,
	}
}

// KeepAliveConfig returns the transport keep-alive configuration.
func (c *Config) KeepAliveConfig() transport.KeepAliveConfig {
	return transport.KeepAliveConfig{
		PingInterval:   c.KeepAlive.PingInterval,
		PongTimeout:    c.KeepAlive.PongTimeout,
		MaxMissedPongs: c.KeepAlive.MaxMissed,
		Disabled:       c.KeepAlive.Disabled,
	}
}

// parseFlags loads the -config file, if any, and applies the flags that
// were set explicitly on top of it.
func parseFlags(args []string) (*Config, error) {
	fs := flag.NewFlagSet("roomlink-client", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: roomlink-client [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	var (
		configFile  = fs.String("config", "", "Configuration file path (YAML)")
		server      = fs.String("server", "", "Relay address (ws://host:port or host:port)")
		room        = fs.String("room", "", "Room to join")
		discover    = fs.Bool("discover", false, "Find the relay via mDNS when no server is set")
		codec       = fs.String("codec", "json", "Presence codec: json, cbor")
		interactive = fs.Bool("interactive", false, "Enable interactive command mode")
		logLevel    = fs.String("log-level", "info", "Log level: debug, info, warn, error")
		logFile     = fs.String("log-file", "", "Also write the log to a rotating file")
		protocolLog = fs.String("protocol-log", "", "File path for diagnostic event logging (CBOR format)")
		metricsAddr = fs.String("metrics", "", "Serve Prometheus metrics on this address (e.g. :9100)")
		initial     = fs.Duration("backoff-initial", 0, "Initial reconnect delay")
		maxDelay    = fs.Duration("backoff-max", 0, "Maximum reconnect delay")
	)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if *configFile != "" {
		loaded, err := LoadConfig(*configFile)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "server":
			cfg.Server = *server
		case "room":
			cfg.Room = *room
		case "discover":
			cfg.DiscoverService = *discover
		case "codec":
			cfg.Codec = *codec
		case "interactive":
			cfg.Interactive = *interactive
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-file":
			cfg.Log.File = *logFile
		case "protocol-log":
			cfg.Diagnostics.File = *protocolLog
		case "metrics":
			cfg.Metrics.Listen = *metricsAddr
		case "backoff-initial":
			cfg.Backoff.Initial = *initial
		case "backoff-max":
			cfg.Backoff.Max = *maxDelay
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
