package connection

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/roomlink/roomlink-go/pkg/transport"
)

const (
	waitTimeout = 2 * time.Second
	quietPeriod = 50 * time.Millisecond
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func waitState(t *testing.T, s *Supervisor, want State) {
	t.Helper()
	waitFor(t, "state "+want.String(), func() bool { return s.State() == want })
}

// fakeSession is a transport.Session driven by the test.
type fakeSession struct {
	id      string
	room    string
	handler transport.Handler

	mu         sync.Mutex
	openCalls  int
	open       bool
	closed     bool
	closeCalls int
	sent       [][]byte
}

func (s *fakeSession) ID() string { return s.id }

func (s *fakeSession) Open(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openCalls++
}

func (s *fakeSession) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open || s.closed {
		return transport.ErrNotOpen
	}
	s.sent = append(s.sent, payload)
	return nil
}

// Close reports OnClose before returning, like transport.Connection.
func (s *fakeSession) Close() {
	s.mu.Lock()
	s.closeCalls++
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	wasOpen := s.open
	s.mu.Unlock()

	s.handler.OnClose(transport.CloseReason{Code: transport.CloseNormal, Text: "session closed", WasOpen: wasOpen})
}

// accept completes the handshake.
func (s *fakeSession) accept() {
	s.mu.Lock()
	s.open = true
	s.mu.Unlock()
	s.handler.OnOpen()
}

// drop fails the session the way the transport does: error, then close.
func (s *fakeSession) drop(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	wasOpen := s.open
	s.mu.Unlock()

	s.handler.OnError(err)
	s.handler.OnClose(transport.CloseReason{Code: transport.CloseAbnormal, Err: err, WasOpen: wasOpen})
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSession) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCalls
}

func (s *fakeSession) opened() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openCalls > 0
}

// fakeTransport records every session it creates.
type fakeTransport struct {
	mu       sync.Mutex
	sessions []*fakeSession
	created  chan *fakeSession
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{created: make(chan *fakeSession, 64)}
}

func (f *fakeTransport) NewSession(room string, handler transport.Handler) transport.Session {
	f.mu.Lock()
	s := &fakeSession{id: fmt.Sprintf("session-%d", len(f.sessions)+1), room: room, handler: handler}
	f.sessions = append(f.sessions, s)
	f.mu.Unlock()

	f.created <- s
	return s
}

func (f *fakeTransport) next(t *testing.T) *fakeSession {
	t.Helper()
	select {
	case s := <-f.created:
		return s
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for a session attempt")
		return nil
	}
}

func (f *fakeTransport) expectNone(t *testing.T) {
	t.Helper()
	select {
	case s := <-f.created:
		t.Fatalf("unexpected session attempt %s", s.id)
	case <-time.After(quietPeriod):
	}
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

func (f *fakeTransport) liveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.sessions {
		if !s.isClosed() {
			n++
		}
	}
	return n
}

// manualScheduler arms timers that only fire when the test says so.
type manualScheduler struct {
	mu    sync.Mutex
	armed chan *manualTimer
}

type manualTimer struct {
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{armed: make(chan *manualTimer, 64)}
}

func (m *manualScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	tm := &manualTimer{delay: d, f: f}
	m.armed <- tm
	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		if tm.stopped || tm.fired {
			return false
		}
		tm.stopped = true
		return true
	}
}

func (m *manualScheduler) next(t *testing.T) *manualTimer {
	t.Helper()
	select {
	case tm := <-m.armed:
		return tm
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for a retry timer")
		return nil
	}
}

func (m *manualScheduler) expectNone(t *testing.T) {
	t.Helper()
	select {
	case tm := <-m.armed:
		t.Fatalf("unexpected retry timer (%v)", tm.delay)
	case <-time.After(quietPeriod):
	}
}

// fire runs the timer callback, even if it was stopped. A stopped timer that
// fires models a stop that lost the race against expiry.
func (m *manualScheduler) fire(tm *manualTimer) {
	m.mu.Lock()
	tm.fired = true
	m.mu.Unlock()
	tm.f()
}

func (m *manualScheduler) stopped(tm *manualTimer) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return tm.stopped
}

// manualMonitor lets the test change the queried state and the notifications
// independently.
type manualMonitor struct {
	mu           sync.Mutex
	reachable    bool
	listeners    map[int]func(bool)
	nextID       int
	unsubscribes int
}

func newManualMonitor(reachable bool) *manualMonitor {
	return &manualMonitor{reachable: reachable, listeners: make(map[int]func(bool))}
}

func (m *manualMonitor) IsReachable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reachable
}

func (m *manualMonitor) OnChange(fn func(bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.unsubscribes++
		delete(m.listeners, id)
	}
}

// setQuiet changes the queried state without notifying.
func (m *manualMonitor) setQuiet(reachable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reachable = reachable
}

// emit sets the state and notifies every listener.
func (m *manualMonitor) emit(reachable bool) {
	m.mu.Lock()
	m.reachable = reachable
	fns := make([]func(bool), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(reachable)
	}
}

func (m *manualMonitor) listenerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}

func (m *manualMonitor) unsubscribeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unsubscribes
}

// recordingObserver records supervisor notifications.
type recordingObserver struct {
	mu        sync.Mutex
	statuses  []Status
	attempts  []int
	bases     []time.Duration
	closes    []transport.CloseReason
	reachable []bool
}

func (o *recordingObserver) StatusChanged(room string, from, to Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, to)
}

func (o *recordingObserver) AttemptStarted(room string, retry int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts = append(o.attempts, retry)
}

func (o *recordingObserver) RetryScheduled(room string, retry int, base, delay time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.bases = append(o.bases, base)
}

func (o *recordingObserver) SessionClosed(room string, reason transport.CloseReason) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closes = append(o.closes, reason)
}

func (o *recordingObserver) ReachabilityChanged(room string, reachable bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reachable = append(o.reachable, reachable)
}

func (o *recordingObserver) Statuses() []Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Status(nil), o.statuses...)
}

func (o *recordingObserver) Attempts() []int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]int(nil), o.attempts...)
}

func (o *recordingObserver) Bases() []time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]time.Duration(nil), o.bases...)
}

func (o *recordingObserver) Closes() []transport.CloseReason {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]transport.CloseReason(nil), o.closes...)
}

func (o *recordingObserver) ReachabilityCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.reachable)
}
