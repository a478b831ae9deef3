// Command roomlink-relay is a development relay for roomlink clients.
//
// It accepts WebSocket connections on /rooms/{room} and forwards every
// payload a member sends to the other members of the same room. Unless
// disabled, the relay advertises itself via mDNS so clients configured with
// discover_service can find it.
//
// Usage:
//
//	roomlink-relay [flags]
//
// Flags:
//
//	-addr string          Listen address (default ":8080")
//	-name string          mDNS instance name (default: roomlink-<hostname>)
//	-advertise            Advertise the relay via mDNS (default true)
//	-interface string     Network interface for mDNS (default: all)
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  File path for diagnostic event logging (CBOR format)
//
// Examples:
//
//	# Run a relay on the default port
//	roomlink-relay
//
//	# Run on localhost only, without mDNS, capturing frames
//	roomlink-relay -addr 127.0.0.1:9000 -advertise=false -protocol-log relay.rlog
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/roomlink/roomlink-go/internal/logging"
	"github.com/roomlink/roomlink-go/pkg/discovery"
	rllog "github.com/roomlink/roomlink-go/pkg/log"
	"github.com/roomlink/roomlink-go/pkg/transport"
)

// Config holds the relay configuration.
type Config struct {
	Address     string
	Name        string
	Advertise   bool
	Interface   string
	LogLevel    string
	ProtocolLog string
}

var config Config

func init() {
	flag.StringVar(&config.Address, "addr", fmt.Sprintf(":%d", transport.DefaultPort), "Listen address")
	flag.StringVar(&config.Name, "name", "", "mDNS instance name (default: roomlink-<hostname>)")
	flag.BoolVar(&config.Advertise, "advertise", true, "Advertise the relay via mDNS")
	flag.StringVar(&config.Interface, "interface", "", "Network interface for mDNS (default: all)")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&config.ProtocolLog, "protocol-log", "", "File path for diagnostic event logging (CBOR format)")
}

func main() {
	flag.Parse()

	logger, closer, err := logging.New(logging.Config{Level: config.LogLevel}, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config, logger); err != nil {
		logger.Error("relay failed", "error", err)
		os.Exit(1)
	}
}

// run serves until ctx is cancelled.
func run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	r, err := startRelay(ctx, cfg, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return r.Stop()
	})
	return g.Wait()
}

// relay is a running transport server plus its mDNS advertisement.
type relay struct {
	server     *transport.Server
	advertiser *discovery.Advertiser
	protoLog   *rllog.FileLogger
	logger     *slog.Logger
}

func startRelay(ctx context.Context, cfg Config, logger *slog.Logger) (*relay, error) {
	r := &relay{logger: logger}

	serverCfg := transport.ServerConfig{
		Address: cfg.Address,
		Logger:  logger,
		OnConnect: func(p *transport.Peer) {
			logger.Info("room joined", "room", p.Room(), "members", r.server.RoomSize(p.Room()))
		},
		OnDisconnect: func(p *transport.Peer) {
			logger.Info("room left", "room", p.Room(), "members", r.server.RoomSize(p.Room()))
		},
	}

	if cfg.ProtocolLog != "" {
		fl, err := rllog.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			return nil, fmt.Errorf("failed to open protocol log: %w", err)
		}
		r.protoLog = fl
		serverCfg.ProtocolLogger = fl
	}

	r.server = transport.NewServer(serverCfg)
	if err := r.server.Start(ctx); err != nil {
		r.closeLog()
		return nil, err
	}
	logger.Info("relay listening", "addr", r.server.Addr().String())

	if cfg.Advertise {
		r.advertise(ctx, cfg)
	}
	return r, nil
}

// advertise registers the relay via mDNS. Failure is not fatal: clients
// can still connect with an explicit server address.
func (r *relay) advertise(ctx context.Context, cfg Config) {
	name := cfg.Name
	if name == "" {
		host, _ := os.Hostname()
		name = "roomlink-" + host
	}
	if len(name) > discovery.MaxInstanceNameLen {
		name = name[:discovery.MaxInstanceNameLen]
	}

	var port uint16
	if addr, ok := r.server.Addr().(*net.TCPAddr); ok {
		port = uint16(addr.Port)
	}

	adv := discovery.NewAdvertiser(discovery.AdvertiserConfig{Interface: cfg.Interface})
	err := adv.Advertise(ctx, &discovery.RelayInfo{
		InstanceName: name,
		Port:         port,
		PathTemplate: transport.DefaultPathTemplate,
	})
	if err != nil {
		r.logger.Warn("mDNS advertisement failed", "error", err)
		return
	}
	r.advertiser = adv
	r.logger.Info("advertising relay", "name", name, "service", discovery.ServiceType, "port", port)
}

// Stop withdraws the advertisement and stops the server.
func (r *relay) Stop() error {
	if r.advertiser != nil {
		r.advertiser.Stop()
	}
	err := r.server.Stop()
	if cerr := r.closeLog(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	return err
}

func (r *relay) closeLog() error {
	if r.protoLog == nil {
		return nil
	}
	err := r.protoLog.Close()
	written, dropped := r.protoLog.Stats()
	r.logger.Info("protocol log closed", "events", written, "dropped", dropped)
	return err
}
