package reachability

import "sync"

// Override lets an operator force the reachability published to a
// Broadcaster. Use its Probe as the WatcherConfig probe so periodic polls
// respect the forced state.
type Override struct {
	target *Broadcaster
	probe  ProbeFunc

	mu     sync.Mutex
	forced *bool
}

// NewOverride creates an override publishing to target. probe is the
// automatic check (default: HasRoutableInterface).
func NewOverride(target *Broadcaster, probe ProbeFunc) *Override {
	if probe == nil {
		probe = HasRoutableInterface
	}
	return &Override{target: target, probe: probe}
}

// Probe returns the forced state if set, else the automatic probe result.
func (o *Override) Probe() bool {
	if reachable, ok := o.Forced(); ok {
		return reachable
	}
	return o.probe()
}

// Force pins the state and publishes it immediately.
func (o *Override) Force(reachable bool) {
	o.mu.Lock()
	o.forced = &reachable
	o.mu.Unlock()
	o.target.Set(reachable)
}

// Clear returns to automatic probing and publishes the probed state.
func (o *Override) Clear() {
	o.mu.Lock()
	o.forced = nil
	o.mu.Unlock()
	o.target.Set(o.probe())
}

// Forced returns the forced state, if any.
func (o *Override) Forced() (reachable, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.forced == nil {
		return false, false
	}
	return *o.forced, true
}
