package reachability

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"
)

// DefaultPollInterval is the default interval between interface probes.
const DefaultPollInterval = 2 * time.Second

// ProbeFunc reports whether the host currently has network connectivity.
type ProbeFunc func() bool

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// PollInterval is the interval between probes (default: 2s).
	PollInterval time.Duration

	// Probe is the connectivity check (default: HasRoutableInterface).
	Probe ProbeFunc

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// Watcher periodically probes connectivity and feeds the result into a
// Broadcaster. The Broadcaster takes care of deduplication.
type Watcher struct {
	config WatcherConfig
	target *Broadcaster

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// NewWatcher creates a watcher feeding target.
func NewWatcher(target *Broadcaster, config WatcherConfig) *Watcher {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.Probe == nil {
		config.Probe = HasRoutableInterface
	}
	return &Watcher{
		config: config,
		target: target,
	}
}

// Start probes once synchronously and then keeps probing in the background
// until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	w.mu.Unlock()

	w.Poll()
	go w.loop(ctx)
}

// Stop stops probing and waits for the background loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	done := w.done
	w.mu.Unlock()

	<-done
}

// Poll runs the probe once and publishes the result. Returns the probed state.
func (w *Watcher) Poll() bool {
	reachable := w.config.Probe()
	if w.target.Set(reachable) {
		w.debugLog("reachability changed", "reachable", reachable)
	}
	return reachable
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Poll()
		}
	}
}

func (w *Watcher) debugLog(msg string, args ...any) {
	if w.config.Logger != nil {
		w.config.Logger.Debug(msg, args...)
	}
}

// HasRoutableInterface reports whether any non-loopback interface is up and
// carries a global unicast address.
func HasRoutableInterface() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch a := addr.(type) {
			case *net.IPNet:
				ip = a.IP
			case *net.IPAddr:
				ip = a.IP
			}
			if ip != nil && ip.IsGlobalUnicast() {
				return true
			}
		}
	}
	return false
}

var (
	defaultOnce        sync.Once
	defaultBroadcaster *Broadcaster
)

// Default returns the process-wide reachability registry. The first call
// starts a Watcher with default settings that lives for the rest of the
// process.
func Default() *Broadcaster {
	defaultOnce.Do(func() {
		defaultBroadcaster = NewBroadcaster(HasRoutableInterface())
		NewWatcher(defaultBroadcaster, WatcherConfig{}).Start(context.Background())
	})
	return defaultBroadcaster
}
