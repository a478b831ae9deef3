package connection

import (
	"time"

	"github.com/roomlink/roomlink-go/pkg/transport"
)

// Observer receives supervisor decisions. Methods are called on the
// supervisor goroutine and must return quickly.
type Observer interface {
	// StatusChanged is called on every status transition.
	StatusChanged(room string, from, to Status)

	// AttemptStarted is called when a session attempt begins. retry is the
	// number of retries started since the last reset (0 for an immediate
	// attempt).
	AttemptStarted(room string, retry int)

	// RetryScheduled is called when a retry timer is armed.
	RetryScheduled(room string, retry int, base, delay time.Duration)

	// SessionClosed is called when the current session ended.
	SessionClosed(room string, reason transport.CloseReason)

	// ReachabilityChanged is called for each reachability transition the
	// supervisor observes.
	ReachabilityChanged(room string, reachable bool)
}

// NopObserver ignores all notifications.
type NopObserver struct{}

func (NopObserver) StatusChanged(string, Status, Status)                     {}
func (NopObserver) AttemptStarted(string, int)                               {}
func (NopObserver) RetryScheduled(string, int, time.Duration, time.Duration) {}
func (NopObserver) SessionClosed(string, transport.CloseReason)              {}
func (NopObserver) ReachabilityChanged(string, bool)                         {}

// MultiObserver fans notifications out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) StatusChanged(room string, from, to Status) {
	for _, o := range m {
		o.StatusChanged(room, from, to)
	}
}

func (m MultiObserver) AttemptStarted(room string, retry int) {
	for _, o := range m {
		o.AttemptStarted(room, retry)
	}
}

func (m MultiObserver) RetryScheduled(room string, retry int, base, delay time.Duration) {
	for _, o := range m {
		o.RetryScheduled(room, retry, base, delay)
	}
}

func (m MultiObserver) SessionClosed(room string, reason transport.CloseReason) {
	for _, o := range m {
		o.SessionClosed(room, reason)
	}
}

func (m MultiObserver) ReachabilityChanged(room string, reachable bool) {
	for _, o := range m {
		o.ReachabilityChanged(room, reachable)
	}
}

// Compile-time interface satisfaction checks.
var (
	_ Observer = NopObserver{}
	_ Observer = MultiObserver(nil)
)
