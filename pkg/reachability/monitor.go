package reachability

import (
	"sync"
)

// Monitor reports host network reachability and transitions.
type Monitor interface {
	// IsReachable returns the current belief about network connectivity.
	IsReachable() bool

	// OnChange registers fn to be called once per reachability transition.
	// The returned function deregisters fn; calling it more than once is safe.
	OnChange(fn func(reachable bool)) (unsubscribe func())
}

// Broadcaster is a Monitor whose state is set explicitly.
// It deduplicates repeated identical states and fans transitions out to all
// registered listeners in registration order.
type Broadcaster struct {
	mu        sync.Mutex
	reachable bool
	nextID    uint64
	listeners map[uint64]func(bool)
	order     []uint64

	// dispatchMu serializes Set so listeners observe transitions in order.
	dispatchMu sync.Mutex
}

// NewBroadcaster creates a Broadcaster with the given initial state.
func NewBroadcaster(reachable bool) *Broadcaster {
	return &Broadcaster{
		reachable: reachable,
		listeners: make(map[uint64]func(bool)),
	}
}

// IsReachable returns the current state.
func (b *Broadcaster) IsReachable() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reachable
}

// OnChange registers a transition listener.
func (b *Broadcaster) OnChange(fn func(reachable bool)) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners[id] = fn
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

// Set updates the state. Listeners are called synchronously, outside the
// internal lock, only if the state actually changed. Returns true on a
// transition.
func (b *Broadcaster) Set(reachable bool) bool {
	b.dispatchMu.Lock()
	defer b.dispatchMu.Unlock()

	b.mu.Lock()
	if b.reachable == reachable {
		b.mu.Unlock()
		return false
	}
	b.reachable = reachable
	ids := append([]uint64(nil), b.order...)
	b.mu.Unlock()

	for _, id := range ids {
		b.mu.Lock()
		fn, ok := b.listeners[id]
		b.mu.Unlock()
		if !ok {
			// Deregistered by an earlier listener in this dispatch.
			continue
		}
		fn(reachable)
	}
	return true
}

// ListenerCount returns the number of registered listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

func (b *Broadcaster) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.listeners[id]; !ok {
		return
	}
	delete(b.listeners, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Static is a Monitor that never changes. Useful when reachability tracking
// is disabled.
type Static bool

// IsReachable returns the fixed state.
func (s Static) IsReachable() bool { return bool(s) }

// OnChange never fires.
func (Static) OnChange(func(bool)) func() { return func() {} }

// Compile-time interface satisfaction checks.
var (
	_ Monitor = (*Broadcaster)(nil)
	_ Monitor = Static(true)
)
