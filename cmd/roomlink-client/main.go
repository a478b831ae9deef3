// Command roomlink-client keeps a connection to a roomlink room alive.
//
// It connects to a relay, announces its presence, prints status changes and
// incoming messages, and reconnects with exponential backoff when the
// connection drops or the network goes away.
//
// Usage:
//
//	roomlink-client [flags]
//
// Flags:
//
//	-config string          Configuration file path (YAML)
//	-server string          Relay address (ws://host:port or host:port)
//	-room string            Room to join
//	-discover               Find the relay via mDNS when no server is set
//	-codec string           Presence codec: json, cbor (default "json")
//	-interactive            Enable interactive command mode
//	-log-level string       Log level: debug, info, warn, error (default "info")
//	-log-file string        Also write the log to a rotating file
//	-protocol-log string    File path for diagnostic event logging (CBOR format)
//	-metrics string         Serve Prometheus metrics on this address
//	-backoff-initial value  Initial reconnect delay
//	-backoff-max value      Maximum reconnect delay
//
// Examples:
//
//	# Join a room on a local relay in interactive mode
//	roomlink-client -server localhost:8080 -room lobby -interactive
//
//	# Find the relay on the local network and export metrics
//	roomlink-client -discover -room lobby -metrics :9100
//
// Interactive Commands:
//
//	send <text>     - Send a text payload to the room
//	status          - Show connection status
//	reconnect-info  - Show backoff progress
//	online|offline  - Force network reachability
//	auto            - Return to automatic reachability detection
//	quit            - Exit the client
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roomlink/roomlink-go/cmd/roomlink-client/interactive"
	"github.com/roomlink/roomlink-go/internal/logging"
	"github.com/roomlink/roomlink-go/pkg/connection"
	"github.com/roomlink/roomlink-go/pkg/discovery"
	rllog "github.com/roomlink/roomlink-go/pkg/log"
	"github.com/roomlink/roomlink-go/pkg/metrics"
	"github.com/roomlink/roomlink-go/pkg/reachability"
	"github.com/roomlink/roomlink-go/pkg/transport"
	"github.com/roomlink/roomlink-go/pkg/wire"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	console := &consoleWriter{w: os.Stderr}
	logger, closer, err := logging.New(cfg.Log, console)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, console, os.Stdout); err != nil {
		logger.Error("client failed", "error", err)
		closer.Close()
		os.Exit(1)
	}
}

// run supervises the room connection until ctx is cancelled or the user
// quits the interactive session.
func run(ctx context.Context, cfg *Config, logger *slog.Logger, console *consoleWriter, stdout io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	server, pathTemplate, err := resolveServer(ctx, cfg, logger)
	if err != nil {
		return err
	}

	protoLog, protoCloser := openDiagnostics(cfg.Diagnostics, logger)
	defer protoCloser.Close()

	codec, err := wire.CodecByName(cfg.Codec)
	if err != nil {
		return err
	}
	client, err := transport.NewClient(transport.ClientConfig{
		Server:         server,
		PathTemplate:   pathTemplate,
		KeepAlive:      cfg.KeepAliveConfig(),
		Codec:          codec,
		Logger:         logger,
		ProtocolLogger: protoLog,
	})
	if err != nil {
		return err
	}

	var (
		monitor  reachability.Monitor = reachability.Static(true)
		override *reachability.Override
		watcher  *reachability.Watcher
	)
	if !cfg.Reachability.Disabled {
		b := reachability.NewBroadcaster(reachability.HasRoutableInterface())
		override = reachability.NewOverride(b, nil)
		watcher = reachability.NewWatcher(b, reachability.WatcherConfig{
			PollInterval: cfg.Reachability.PollInterval,
			Probe:        override.Probe,
			Logger:       logger,
		})
		monitor = b
	}

	collector := metrics.NewCollector()
	sup, err := connection.New(cfg.Room, connection.Config{
		Transport:      client,
		Policy:         cfg.Policy(),
		Reachability:   monitor,
		Observer:       collector,
		Logger:         logger,
		ProtocolLogger: protoLog,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	if watcher != nil {
		watcher.Start(gctx)
		defer watcher.Stop()
	}

	if cfg.Metrics.Listen != "" {
		ms := metrics.NewServer(metrics.NewRegistry(collector), metrics.ServerConfig{
			Address: cfg.Metrics.Listen,
			Logger:  logger,
		})
		if err := ms.Start(); err != nil {
			return err
		}
		logger.Info("metrics listening", "addr", ms.Addr().String())
		g.Go(func() error {
			<-gctx.Done()
			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			return ms.Stop(sctx)
		})
	}

	if cfg.Interactive {
		var reach interactive.Reachability
		if override != nil {
			reach = override
		}
		repl, err := interactive.New(sup, reach)
		if err != nil {
			return err
		}
		console.Set(repl.Stdout())
		defer console.Set(os.Stderr)
		g.Go(func() error {
			repl.Run(gctx, cancel)
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			repl.Close()
			return nil
		})
	} else {
		defer sup.Subscribe(func(st connection.Status) {
			logger.Info("status changed", "room", cfg.Room, "status", st.String())
		})()
		defer sup.OnMessage(func(data []byte) {
			fmt.Fprintf(stdout, "%s\n", data)
		})()
	}

	logger.Info("connecting", "room", cfg.Room, "server", server)
	if err := sup.Start(); err != nil {
		return err
	}
	g.Go(func() error {
		<-gctx.Done()
		sup.Close()
		return nil
	})

	return g.Wait()
}

// resolveServer returns the configured relay, or browses for one when none
// is set.
func resolveServer(ctx context.Context, cfg *Config, logger *slog.Logger) (server, pathTemplate string, err error) {
	if cfg.Server != "" {
		return cfg.Server, cfg.PathTemplate, nil
	}

	logger.Info("browsing for relay", "service", discovery.ServiceType)
	svc, err := discovery.NewBrowser(discovery.BrowserConfig{}, logger).Resolve(ctx)
	if err != nil {
		return "", "", fmt.Errorf("relay discovery failed: %w", err)
	}

	pathTemplate = cfg.PathTemplate
	if svc.PathTemplate != "" {
		pathTemplate = svc.PathTemplate
	}
	logger.Info("discovered relay", "name", svc.InstanceName, "server", svc.ServerURL())
	return svc.ServerURL(), pathTemplate, nil
}

// openDiagnostics builds the diagnostic event sink. The returned logger is
// nil when capture is disabled.
func openDiagnostics(cfg DiagnosticsConfig, logger *slog.Logger) (rllog.Logger, io.Closer) {
	var (
		sinks  []rllog.Logger
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		fl := rllog.NewStreamLogger(logging.Rotating(cfg.File, cfg.MaxSizeMB, cfg.MaxBackups))
		sinks = append(sinks, fl)
		closer = fl
	}
	if cfg.Console {
		sinks = append(sinks, rllog.NewSlogAdapter(logger))
	}

	if len(sinks) == 0 {
		return nil, closer
	}
	return rllog.NewMultiLogger(sinks...), closer
}

// consoleWriter lets the console log move to the readline writer once the
// interactive session starts.
type consoleWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (c *consoleWriter) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Write(p)
}

func (c *consoleWriter) Set(w io.Writer) {
	c.mu.Lock()
	c.w = w
	c.mu.Unlock()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
