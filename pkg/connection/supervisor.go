package connection

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roomlink/roomlink-go/pkg/log"
	"github.com/roomlink/roomlink-go/pkg/reachability"
	"github.com/roomlink/roomlink-go/pkg/transport"
)

// Supervisor errors.
var (
	ErrShutdown     = errors.New("supervisor shut down")
	ErrNotConnected = errors.New("not connected")
	ErrNoTransport  = errors.New("transport is required")
	ErrNoTarget     = errors.New("room is required")
)

// Sender is the consumer's handle on the open session. It cannot close or
// reopen the session; that stays with the supervisor.
type Sender interface {
	ID() string
	Send(payload []byte) error
}

type sessionView struct {
	session transport.Session
}

func (v sessionView) ID() string                { return v.session.ID() }
func (v sessionView) Send(payload []byte) error { return v.session.Send(payload) }

// SessionFactory creates transport sessions.
// Implemented by transport.Client.
type SessionFactory interface {
	// NewSession returns an unopened session to room that reports to handler.
	NewSession(room string, handler transport.Handler) transport.Session
}

// Scheduler arms one-shot timers.
type Scheduler interface {
	// AfterFunc calls f once after d. stop cancels the timer and reports
	// whether it was still pending.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Config configures a Supervisor.
type Config struct {
	// Transport creates sessions (required).
	Transport SessionFactory

	// Policy is the backoff policy (default: DefaultPolicy()).
	Policy Policy

	// Reachability reports host connectivity (default: reachability.Default()).
	Reachability reachability.Monitor

	// Observer receives supervisor decisions (optional).
	Observer Observer

	// Scheduler arms retry timers (default: wall clock).
	Scheduler Scheduler

	// Rand is the jitter source (default: global source).
	Rand *rand.Rand

	// Logger for operational logging. If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger receives diagnostic events. If nil, capture is disabled.
	ProtocolLogger log.Logger
}

// Mailbox events.
type (
	evStart        struct{}
	evShutdown     struct{}
	evTimer        struct{ gen uint64 }
	evReachability struct{ reachable bool }
	evOpen         struct{ attempt uint64 }
	evMessage      struct {
		attempt uint64
		data    []byte
	}
	evError struct {
		attempt uint64
		err     error
	}
	evClose struct {
		attempt uint64
		reason  transport.CloseReason
	}
)

// Supervisor keeps one connection to a room alive.
type Supervisor struct {
	room    string
	config  Config
	policy  Policy
	mailbox *mailbox

	ctx    context.Context
	cancel context.CancelFunc

	// Owned by the loop goroutine.
	state       State
	retry       RetryState
	reachable   bool
	session     transport.Session
	attempt     uint64
	timerGen    uint64
	stopTimer   func() bool
	unsubscribe func()

	// Snapshot published to consumers.
	mu          sync.RWMutex
	status      Status
	published   State
	live        Sender
	retryView   RetryState
	statusSubs  subscribers[Status]
	messageSubs subscribers[[]byte]

	lifecycleMu sync.Mutex
	started     bool
	shutdown    bool
	loopDone    chan struct{}
	loopID      atomic.Uint64
}

// New creates a supervisor for room. It does nothing until Start.
func New(room string, config Config) (*Supervisor, error) {
	if room == "" {
		return nil, ErrNoTarget
	}
	if config.Transport == nil {
		return nil, ErrNoTransport
	}
	if config.Reachability == nil {
		config.Reachability = reachability.Default()
	}
	if config.Observer == nil {
		config.Observer = NopObserver{}
	}
	if config.Scheduler == nil {
		config.Scheduler = wallClock{}
	}
	policy := config.Policy.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	return &Supervisor{
		room:      room,
		config:    config,
		policy:    policy,
		mailbox:   newMailbox(),
		ctx:       ctx,
		cancel:    cancel,
		retry:     policy.Reset(),
		retryView: policy.Reset(),
		loopDone:  make(chan struct{}),
	}, nil
}

// Room returns the connection target.
func (s *Supervisor) Room() string {
	return s.room
}

// Start begins supervising. The first attempt is immediate when the host is
// reachable; otherwise the supervisor waits for reachability. Calling Start
// again has no effect. Start after Close returns ErrShutdown.
func (s *Supervisor) Start() error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.shutdown {
		return ErrShutdown
	}
	if s.started {
		return nil
	}
	s.started = true

	s.mailbox.post(evStart{})
	s.unsubscribe = s.config.Reachability.OnChange(func(reachable bool) {
		s.mailbox.post(evReachability{reachable: reachable})
	})

	go s.loop()
	return nil
}

// Close shuts the supervisor down. Any live session is closed before Close
// returns. Close is idempotent. Called from a status subscriber, message
// subscriber or observer, it only requests the shutdown, which completes once
// the callback returns.
func (s *Supervisor) Close() {
	wait := !s.onLoop()

	s.lifecycleMu.Lock()
	if s.shutdown {
		s.lifecycleMu.Unlock()
		if wait {
			<-s.loopDone
		}
		return
	}
	s.shutdown = true
	started := s.started
	s.lifecycleMu.Unlock()

	if !started {
		s.mailbox.close()
		s.cancel()
		s.publish(StateShuttingDown)
		close(s.loopDone)
		return
	}

	s.mailbox.post(evShutdown{})
	if wait {
		<-s.loopDone
	}
}

// Done is closed when the supervisor has shut down.
func (s *Supervisor) Done() <-chan struct{} {
	return s.loopDone
}

// Status returns the current connection status.
func (s *Supervisor) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// State returns the current internal state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.published
}

// RetryState returns the current backoff progress.
func (s *Supervisor) RetryState() RetryState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.retryView
}

// Session returns the open session, if any.
func (s *Supervisor) Session() (Sender, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live, s.live != nil
}

// Send writes a payload on the open session.
func (s *Supervisor) Send(payload []byte) error {
	sess, ok := s.Session()
	if !ok {
		return ErrNotConnected
	}
	return sess.Send(payload)
}

// Subscribe registers fn for status transitions. The returned function
// removes the subscription and is safe to call more than once.
func (s *Supervisor) Subscribe(fn func(Status)) (unsubscribe func()) {
	return s.statusSubs.add(&s.mu, fn)
}

// OnMessage registers fn for payloads received on the current session.
func (s *Supervisor) OnMessage(fn func([]byte)) (unsubscribe func()) {
	return s.messageSubs.add(&s.mu, fn)
}

func (s *Supervisor) loop() {
	defer close(s.loopDone)
	s.loopID.Store(goroutineID())

	for range s.mailbox.notify {
		for _, ev := range s.mailbox.drain() {
			if s.handle(ev) {
				return
			}
		}
	}
}

// handle applies one event. It reports true after shutdown.
func (s *Supervisor) handle(ev any) bool {
	switch ev := ev.(type) {
	case evStart:
		s.onStart()
	case evReachability:
		s.onReachability(ev.reachable)
	case evTimer:
		s.onTimer(ev.gen)
	case evOpen:
		if s.current(ev.attempt) && s.state == StateConnecting {
			s.onOpen()
		}
	case evMessage:
		if s.current(ev.attempt) && s.state == StateConnected {
			for _, fn := range s.messageSubs.snapshot(&s.mu) {
				fn(ev.data)
			}
		}
	case evError:
		if s.current(ev.attempt) {
			// The session closes itself after an error; the close drives the retry.
			s.debugLog("session error", "error", ev.err)
		}
	case evClose:
		if s.current(ev.attempt) {
			s.onSessionEnded(ev.reason)
		}
	case evShutdown:
		s.onShutdown()
		return true
	}
	return false
}

// onLoop reports whether the caller runs on the event loop, that is inside a
// callback the supervisor is delivering.
func (s *Supervisor) onLoop() bool {
	id := s.loopID.Load()
	return id != 0 && id == goroutineID()
}

// current reports whether attempt belongs to the live session.
func (s *Supervisor) current(attempt uint64) bool {
	return s.session != nil && attempt == s.attempt
}

func (s *Supervisor) onStart() {
	if s.state != StateIdle {
		return
	}
	s.reachable = s.config.Reachability.IsReachable()
	if !s.reachable {
		s.debugLog("host unreachable, deferring first attempt")
		s.logState(StateIdle, StateIdle, "unreachable at start")
		return
	}
	s.connect("start")
}

func (s *Supervisor) onReachability(reachable bool) {
	s.reachable = reachable
	s.config.Observer.ReachabilityChanged(s.room, reachable)
	s.logEvent(log.Event{
		Category:     log.CategoryReachability,
		Reachability: &log.ReachabilityEvent{Reachable: reachable},
	})
	s.debugLog("reachability changed", "reachable", reachable, "state", s.state.String())

	if reachable {
		s.setRetry(s.policy.Reset())
		switch s.state {
		case StateIdle, StateBackoff:
			s.cancelTimer()
			s.connect("reachability restored")
		}
		return
	}

	switch s.state {
	case StateConnecting, StateConnected:
		s.closeSession()
		s.setState(StateIdle, "reachability lost")
	case StateBackoff:
		s.cancelTimer()
		s.setState(StateIdle, "reachability lost")
	}
}

func (s *Supervisor) onTimer(gen uint64) {
	if gen != s.timerGen || s.state != StateBackoff {
		return
	}
	s.stopTimer = nil

	if !s.config.Reachability.IsReachable() {
		s.reachable = false
		s.setState(StateIdle, "unreachable at retry")
		return
	}
	s.setRetry(s.policy.Advance(s.retry))
	s.connect("retry")
}

func (s *Supervisor) onOpen() {
	s.setRetry(s.policy.Reset())
	s.mu.Lock()
	s.live = sessionView{session: s.session}
	s.mu.Unlock()
	s.setState(StateConnected, "session open")
}

func (s *Supervisor) onSessionEnded(reason transport.CloseReason) {
	s.detachSession()
	s.config.Observer.SessionClosed(s.room, reason)
	s.debugLog("session closed", "reason", reason.String(), "was_open", reason.WasOpen)
	s.scheduleRetry(reason.String())
}

func (s *Supervisor) onShutdown() {
	s.cancelTimer()
	s.closeSession()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.mailbox.close()
	s.cancel()
	s.setState(StateShuttingDown, "shutdown")
	s.debugLog("supervisor shut down")
}

func (s *Supervisor) connect(reason string) {
	if s.session != nil {
		// Never two live sessions.
		return
	}

	s.attempt++
	h := &sessionHandler{mailbox: s.mailbox, attempt: s.attempt}
	s.session = s.config.Transport.NewSession(s.room, h)

	s.setState(StateConnecting, reason)
	s.config.Observer.AttemptStarted(s.room, s.retry.Attempts)
	s.session.Open(s.ctx)
}

func (s *Supervisor) scheduleRetry(reason string) {
	delay, _ := s.policy.Next(s.retry, s.config.Rand)

	s.timerGen++
	gen := s.timerGen
	mb := s.mailbox
	s.stopTimer = s.config.Scheduler.AfterFunc(delay, func() {
		mb.post(evTimer{gen: gen})
	})

	s.setState(StateBackoff, reason)
	s.config.Observer.RetryScheduled(s.room, s.retry.Attempts+1, s.retry.CurrentDelay, delay)
	s.logEvent(log.Event{
		Category: log.CategoryRetry,
		Retry: &log.RetryEvent{
			Attempt: s.retry.Attempts + 1,
			Base:    s.retry.CurrentDelay,
			Delay:   delay,
			Reason:  reason,
		},
	})
	s.debugLog("retry scheduled", "base", s.retry.CurrentDelay, "delay", delay)
}

// cancelTimer stops a pending retry. Bumping the generation discards a fire
// that is already queued.
func (s *Supervisor) cancelTimer() {
	s.timerGen++
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
}

// closeSession closes the live session synchronously. Its remaining events
// are discarded.
func (s *Supervisor) closeSession() {
	sess := s.detachSession()
	if sess != nil {
		sess.Close()
	}
}

func (s *Supervisor) detachSession() transport.Session {
	sess := s.session
	s.session = nil
	s.mu.Lock()
	s.live = nil
	s.mu.Unlock()
	return sess
}

func (s *Supervisor) setRetry(r RetryState) {
	s.retry = r
	s.mu.Lock()
	s.retryView = r
	s.mu.Unlock()
}

func (s *Supervisor) setState(next State, reason string) {
	prev := s.state
	s.state = next
	from, to := s.publish(next)

	s.logState(prev, next, reason)
	if prev != next {
		s.debugLog("state change", "from", prev.String(), "to", next.String(), "reason", reason)
	}

	if from != to {
		s.config.Observer.StatusChanged(s.room, from, to)
		for _, fn := range s.statusSubs.snapshot(&s.mu) {
			fn(to)
		}
	}
}

// publish updates the consumer snapshot and returns the status transition.
func (s *Supervisor) publish(next State) (from, to Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	from = s.status
	s.published = next
	s.status = next.Status()
	return from, s.status
}

func (s *Supervisor) debugLog(msg string, args ...any) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, append([]any{"room", s.room}, args...)...)
	}
}

func (s *Supervisor) logEvent(e log.Event) {
	if s.config.ProtocolLogger == nil {
		return
	}
	e.Timestamp = time.Now()
	e.Room = s.room
	e.Layer = log.LayerSupervisor
	if s.session != nil {
		e.SessionID = s.session.ID()
	}
	s.config.ProtocolLogger.Log(e)
}

func (s *Supervisor) logState(from, to State, reason string) {
	s.logEvent(log.Event{
		Category: log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntitySupervisor,
			OldState: from.String(),
			NewState: to.String(),
			Reason:   reason,
		},
	})
}

// sessionHandler forwards session callbacks into the mailbox, tagged with
// the attempt they belong to.
type sessionHandler struct {
	mailbox *mailbox
	attempt uint64
}

func (h *sessionHandler) OnOpen() {
	h.mailbox.post(evOpen{attempt: h.attempt})
}

func (h *sessionHandler) OnMessage(data []byte) {
	h.mailbox.post(evMessage{attempt: h.attempt, data: data})
}

func (h *sessionHandler) OnError(err error) {
	h.mailbox.post(evError{attempt: h.attempt, err: err})
}

func (h *sessionHandler) OnClose(reason transport.CloseReason) {
	h.mailbox.post(evClose{attempt: h.attempt, reason: reason})
}

// subscribers is an ordered set of callbacks guarded by the supervisor's
// snapshot lock.
type subscribers[T any] struct {
	nextID uint64
	order  []uint64
	fns    map[uint64]func(T)
}

func (l *subscribers[T]) add(mu *sync.RWMutex, fn func(T)) func() {
	mu.Lock()
	if l.fns == nil {
		l.fns = make(map[uint64]func(T))
	}
	l.nextID++
	id := l.nextID
	l.fns[id] = fn
	l.order = append(l.order, id)
	mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			mu.Lock()
			defer mu.Unlock()
			delete(l.fns, id)
			for i, v := range l.order {
				if v == id {
					l.order = append(l.order[:i], l.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (l *subscribers[T]) snapshot(mu *sync.RWMutex) []func(T) {
	mu.RLock()
	defer mu.RUnlock()
	fns := make([]func(T), 0, len(l.order))
	for _, id := range l.order {
		fns = append(fns, l.fns[id])
	}
	return fns
}

// Compile-time interface satisfaction check.
var _ transport.Handler = (*sessionHandler)(nil)
