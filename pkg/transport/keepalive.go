package transport

import (
	"context"
	"encoding/binary"
	"sync"
	"time"
)

// Keep-alive constants.
const (
	// DefaultPingInterval is the default interval between pings.
	DefaultPingInterval = 30 * time.Second

	// DefaultPongTimeout is the default timeout waiting for a pong response.
	DefaultPongTimeout = 5 * time.Second

	// DefaultMaxMissedPongs is the default number of missed pongs before disconnect.
	DefaultMaxMissedPongs = 3
)

// KeepAliveConfig configures keep-alive behavior.
type KeepAliveConfig struct {
	// PingInterval is the interval between pings.
	PingInterval time.Duration

	// PongTimeout is the timeout waiting for a pong response.
	PongTimeout time.Duration

	// MaxMissedPongs is the number of missed pongs before disconnect.
	MaxMissedPongs int

	// Disabled turns keep-alive monitoring off.
	Disabled bool
}

// DefaultKeepAliveConfig returns the default keep-alive configuration.
func DefaultKeepAliveConfig() KeepAliveConfig {
	return KeepAliveConfig{
		PingInterval:   DefaultPingInterval,
		PongTimeout:    DefaultPongTimeout,
		MaxMissedPongs: DefaultMaxMissedPongs,
	}
}

func (c KeepAliveConfig) withDefaults() KeepAliveConfig {
	if c.PingInterval <= 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.PongTimeout <= 0 {
		c.PongTimeout = DefaultPongTimeout
	}
	if c.MaxMissedPongs <= 0 {
		c.MaxMissedPongs = DefaultMaxMissedPongs
	}
	return c
}

// DetectionDelay calculates the maximum time to detect a dead connection.
func (c KeepAliveConfig) DetectionDelay() time.Duration {
	return c.PingInterval*time.Duration(c.MaxMissedPongs) + c.PongTimeout
}

// EncodePingPayload encodes a keep-alive sequence number as a ping/pong payload.
func EncodePingPayload(seq uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, seq)
	return b
}

// DecodePingPayload decodes a ping/pong payload. ok is false for payloads
// not produced by EncodePingPayload.
func DecodePingPayload(b []byte) (seq uint32, ok bool) {
	if len(b) != 4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(b), true
}

// KeepAlive monitors connection liveness.
//
// It calls sendPing every PingInterval and onTimeout once when
// MaxMissedPongs consecutive pings went unanswered for PongTimeout.
type KeepAlive struct {
	config    KeepAliveConfig
	sendPing  func(seq uint32) error
	onTimeout func()

	mu           sync.Mutex
	seq          uint32
	pending      bool
	lastPingTime time.Time
	lastPongTime time.Time
	missedPongs  int
	lastRTT      time.Duration

	pongCh   chan uint32
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewKeepAlive creates a new keep-alive monitor.
func NewKeepAlive(config KeepAliveConfig, sendPing func(seq uint32) error, onTimeout func()) *KeepAlive {
	return &KeepAlive{
		config:    config.withDefaults(),
		sendPing:  sendPing,
		onTimeout: onTimeout,
		pongCh:    make(chan uint32, 1),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start begins monitoring. It must be called at most once.
func (ka *KeepAlive) Start(ctx context.Context) {
	go ka.loop(ctx)
}

// Stop stops monitoring and waits for the loop to exit.
// It must follow Start and is safe to call multiple times.
func (ka *KeepAlive) Stop() {
	ka.stopOnce.Do(func() { close(ka.stopCh) })
	<-ka.done
}

// PongReceived reports a pong carrying seq.
func (ka *KeepAlive) PongReceived(seq uint32) {
	select {
	case ka.pongCh <- seq:
	case <-ka.done:
	default:
		// A pong is already queued; the newest sequence wins on the next one.
	}
}

// KeepAliveStats contains keep-alive statistics.
type KeepAliveStats struct {
	LastPingTime time.Time
	LastPongTime time.Time
	MissedPongs  int
	CurrentSeq   uint32
	RTT          time.Duration
}

// Stats returns current keep-alive statistics.
func (ka *KeepAlive) Stats() KeepAliveStats {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	return KeepAliveStats{
		LastPingTime: ka.lastPingTime,
		LastPongTime: ka.lastPongTime,
		MissedPongs:  ka.missedPongs,
		CurrentSeq:   ka.seq,
		RTT:          ka.lastRTT,
	}
}

func (ka *KeepAlive) loop(ctx context.Context) {
	defer close(ka.done)

	ticker := time.NewTicker(ka.config.PingInterval)
	defer ticker.Stop()

	// The pong deadline is checked independently of the ping ticker so a
	// PongTimeout shorter than PingInterval is honoured.
	deadline := time.NewTimer(ka.config.PongTimeout)
	defer deadline.Stop()

	ka.ping(deadline)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ka.stopCh:
			return
		case <-ticker.C:
			ka.ping(deadline)
		case <-deadline.C:
			if ka.handleDeadline() {
				if ka.onTimeout != nil {
					ka.onTimeout()
				}
				return
			}
		case seq := <-ka.pongCh:
			ka.handlePong(seq)
		}
	}
}

func (ka *KeepAlive) ping(deadline *time.Timer) {
	ka.mu.Lock()
	if ka.pending {
		// Previous ping is still unanswered; its deadline already counted it.
		ka.mu.Unlock()
		return
	}
	ka.seq++
	seq := ka.seq
	ka.pending = true
	ka.lastPingTime = time.Now()
	ka.mu.Unlock()

	deadline.Reset(ka.config.PongTimeout)

	// A failed write surfaces through the read side; the pong deadline
	// still counts the miss.
	_ = ka.sendPing(seq)
}

// handleDeadline records a missed pong and reports whether the connection
// should be considered dead.
func (ka *KeepAlive) handleDeadline() bool {
	ka.mu.Lock()
	defer ka.mu.Unlock()

	if !ka.pending {
		return false
	}
	ka.pending = false
	ka.missedPongs++
	return ka.missedPongs >= ka.config.MaxMissedPongs
}

func (ka *KeepAlive) handlePong(seq uint32) {
	ka.mu.Lock()
	defer ka.mu.Unlock()

	now := time.Now()
	ka.lastPongTime = now

	// Late pongs for an earlier ping are ignored.
	if ka.pending && seq == ka.seq {
		ka.pending = false
		ka.missedPongs = 0
		ka.lastRTT = now.Sub(ka.lastPingTime)
	}
}
