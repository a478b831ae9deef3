package connection_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/roomlink/roomlink-go/pkg/connection"
	connmocks "github.com/roomlink/roomlink-go/pkg/connection/mocks"
	"github.com/roomlink/roomlink-go/pkg/reachability"
	reachmocks "github.com/roomlink/roomlink-go/pkg/reachability/mocks"
	"github.com/roomlink/roomlink-go/pkg/transport"
	transportmocks "github.com/roomlink/roomlink-go/pkg/transport/mocks"
	"github.com/roomlink/roomlink-go/pkg/wire"
)

const waitTimeout = 3 * time.Second

func TestSupervisorWithMocks(t *testing.T) {
	t.Run("OfflineThenRestored", func(t *testing.T) {
		monitor := reachmocks.NewMockMonitor(t)
		factory := connmocks.NewMockSessionFactory(t)
		observer := connmocks.NewMockObserver(t)
		session := transportmocks.NewMockSession(t)

		var notify func(bool)
		unsubscribed := 0
		monitor.EXPECT().IsReachable().Return(false).Once()
		monitor.EXPECT().OnChange(mock.Anything).RunAndReturn(func(fn func(bool)) func() {
			notify = fn
			return func() { unsubscribed++ }
		}).Once()

		factory.EXPECT().NewSession("lobby", mock.Anything).Return(session).Once()
		session.EXPECT().Open(mock.Anything).Return().Once()
		session.EXPECT().Close().Return().Once()

		observer.EXPECT().ReachabilityChanged("lobby", true).Return().Once()
		observer.EXPECT().StatusChanged("lobby", connection.StatusDisconnected, connection.StatusConnecting).Return().Once()
		observer.EXPECT().AttemptStarted("lobby", 0).Return().Once()
		observer.EXPECT().StatusChanged("lobby", connection.StatusConnecting, connection.StatusDisconnected).Return().Once()

		sup, err := connection.New("lobby", connection.Config{
			Transport:    factory,
			Reachability: monitor,
			Observer:     observer,
		})
		require.NoError(t, err)
		require.NoError(t, sup.Start())

		// Nothing is attempted while unreachable.
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, connection.StateIdle, sup.State())
		require.NotNil(t, notify)

		notify(true)
		assert.Eventually(t, func() bool {
			return sup.State() == connection.StateConnecting
		}, waitTimeout, 5*time.Millisecond)

		sup.Close()
		sup.Close()
		assert.Equal(t, 1, unsubscribed)
		assert.Equal(t, connection.StateShuttingDown, sup.State())
	})

	t.Run("SendPassesThrough", func(t *testing.T) {
		factory := connmocks.NewMockSessionFactory(t)
		session := transportmocks.NewMockSession(t)

		var handler transport.Handler
		factory.EXPECT().NewSession("lobby", mock.Anything).
			Run(func(_ string, h transport.Handler) { handler = h }).
			Return(session).Once()
		session.EXPECT().Open(mock.Anything).Return().Once()
		session.EXPECT().Send([]byte("ping")).Return(nil).Once()
		session.EXPECT().Close().Return().Once()

		sup, err := connection.New("lobby", connection.Config{
			Transport:    factory,
			Reachability: reachability.Static(true),
		})
		require.NoError(t, err)
		require.NoError(t, sup.Start())
		defer sup.Close()

		assert.Eventually(t, func() bool {
			return sup.State() == connection.StateConnecting
		}, waitTimeout, 5*time.Millisecond)
		assert.ErrorIs(t, sup.Send([]byte("ping")), connection.ErrNotConnected)

		handler.OnOpen()
		assert.Eventually(t, func() bool {
			return sup.Status() == connection.StatusConnected
		}, waitTimeout, 5*time.Millisecond)
		assert.NoError(t, sup.Send([]byte("ping")))
	})
}

func TestMultiObserver(t *testing.T) {
	a := connmocks.NewMockObserver(t)
	b := connmocks.NewMockObserver(t)
	reason := transport.CloseReason{Code: transport.CloseNormal}

	for _, o := range []*connmocks.MockObserver{a, b} {
		o.EXPECT().StatusChanged("r", connection.StatusConnecting, connection.StatusConnected).Return().Once()
		o.EXPECT().AttemptStarted("r", 2).Return().Once()
		o.EXPECT().RetryScheduled("r", 3, time.Second, 1200*time.Millisecond).Return().Once()
		o.EXPECT().SessionClosed("r", reason).Return().Once()
		o.EXPECT().ReachabilityChanged("r", false).Return().Once()
	}

	m := connection.MultiObserver{a, b}
	m.StatusChanged("r", connection.StatusConnecting, connection.StatusConnected)
	m.AttemptStarted("r", 2)
	m.RetryScheduled("r", 3, time.Second, 1200*time.Millisecond)
	m.SessionClosed("r", reason)
	m.ReachabilityChanged("r", false)
}

// relayRecorder tracks what each peer sent to the relay.
type relayRecorder struct {
	mu      sync.Mutex
	peers   []*transport.Peer
	first   map[string][]byte
	entered map[string]int
}

func newRelayRecorder() *relayRecorder {
	return &relayRecorder{first: make(map[string][]byte), entered: make(map[string]int)}
}

func (r *relayRecorder) config() transport.ServerConfig {
	return transport.ServerConfig{
		OnConnect: func(p *transport.Peer) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.peers = append(r.peers, p)
		},
		OnMessage: func(p *transport.Peer, msg []byte) {
			r.mu.Lock()
			defer r.mu.Unlock()
			if _, ok := r.first[p.ID()]; !ok {
				r.first[p.ID()] = append([]byte(nil), msg...)
			}
			if typ, err := wire.PeekType(wire.JSON, msg); err == nil && typ == wire.TypeEntered {
				r.entered[p.ID()]++
			}
		},
	}
}

func (r *relayRecorder) peer(i int) *transport.Peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i >= len(r.peers) {
		return nil
	}
	return r.peers[i]
}

func (r *relayRecorder) announced(id string) ([]byte, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.first[id], r.entered[id]
}

func TestSupervisorThroughRelay(t *testing.T) {
	rec := newRelayRecorder()
	relay := transport.NewServer(rec.config())
	ts := httptest.NewServer(relay)
	defer ts.Close()

	client, err := transport.NewClient(transport.ClientConfig{
		Server:    ts.URL,
		KeepAlive: transport.KeepAliveConfig{Disabled: true},
	})
	require.NoError(t, err)

	var statusMu sync.Mutex
	var statuses []connection.Status

	sup, err := connection.New("lobby", connection.Config{
		Transport:    client,
		Reachability: reachability.NewBroadcaster(true),
		Policy: connection.Policy{
			Initial:    10 * time.Millisecond,
			Max:        40 * time.Millisecond,
			Jitter:     5 * time.Millisecond,
			Multiplier: 2,
		},
	})
	require.NoError(t, err)

	sup.Subscribe(func(s connection.Status) {
		statusMu.Lock()
		defer statusMu.Unlock()
		statuses = append(statuses, s)
	})
	messages := make(chan []byte, 4)
	sup.OnMessage(func(p []byte) { messages <- p })

	require.NoError(t, sup.Start())
	defer sup.Close()

	require.Eventually(t, func() bool {
		return sup.Status() == connection.StatusConnected && relay.RoomSize("lobby") == 1
	}, waitTimeout, 5*time.Millisecond)

	// The first frame of a session is its presence announcement.
	first := rec.peer(0)
	require.NotNil(t, first)
	require.Eventually(t, func() bool {
		_, n := rec.announced(first.ID())
		return n == 1
	}, waitTimeout, 5*time.Millisecond)
	msg, _ := rec.announced(first.ID())
	var env wire.Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, wire.TypeEntered, env.Type)

	// Another member of the room talks to the supervised session.
	wsURL := "ws" + ts.URL[len("http"):] + "/rooms/lobby"
	other, _, err := websocket.DefaultDialer.DialContext(context.Background(), wsURL, nil)
	require.NoError(t, err)
	defer other.Close()
	require.Eventually(t, func() bool { return relay.RoomSize("lobby") == 2 }, waitTimeout, 5*time.Millisecond)

	require.NoError(t, other.WriteMessage(websocket.TextMessage, []byte("hello")))
	select {
	case p := <-messages:
		assert.Equal(t, "hello", string(p))
	case <-time.After(waitTimeout):
		t.Fatal("message not forwarded")
	}

	require.NoError(t, sup.Send([]byte("welcome")))
	_, got, err := other.ReadMessage()
	require.NoError(t, err)
	if typ, perr := wire.PeekType(wire.JSON, got); perr == nil && typ == wire.TypeEntered {
		_, got, err = other.ReadMessage()
		require.NoError(t, err)
	}
	assert.Equal(t, "welcome", string(got))

	// The relay drops the session; the supervisor reconnects and announces again.
	require.NoError(t, first.Close())
	require.Eventually(t, func() bool {
		second := rec.peer(2)
		if second == nil || sup.Status() != connection.StatusConnected {
			return false
		}
		_, n := rec.announced(second.ID())
		return n == 1
	}, waitTimeout, 5*time.Millisecond)
	assert.Equal(t, 2, relay.RoomSize("lobby"))

	sup.Close()
	require.Eventually(t, func() bool { return relay.RoomSize("lobby") == 1 }, waitTimeout, 5*time.Millisecond)

	statusMu.Lock()
	defer statusMu.Unlock()
	require.GreaterOrEqual(t, len(statuses), 5)
	assert.Equal(t, []connection.Status{
		connection.StatusConnecting,
		connection.StatusConnected,
		connection.StatusDisconnected,
		connection.StatusConnecting,
		connection.StatusConnected,
	}, statuses[:5])
}

// silentRelay accepts TCP connections but never answers the WebSocket
// handshake.
func silentRelay(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		held []net.Conn
	)
	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			held = append(held, c)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		l.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range held {
			c.Close()
		}
	})
	return "ws://" + l.Addr().String()
}

func TestSupervisorStalledHandshake(t *testing.T) {
	const bound = time.Second

	newSupervisor := func(t *testing.T, reach *reachability.Broadcaster) *connection.Supervisor {
		t.Helper()
		client, err := transport.NewClient(transport.ClientConfig{
			Server:    silentRelay(t),
			KeepAlive: transport.KeepAliveConfig{Disabled: true},
		})
		require.NoError(t, err)

		sup, err := connection.New("lobby", connection.Config{Transport: client, Reachability: reach})
		require.NoError(t, err)
		require.NoError(t, sup.Start())
		t.Cleanup(sup.Close)

		require.Eventually(t, func() bool { return sup.State() == connection.StateConnecting },
			waitTimeout, 5*time.Millisecond)
		// Let the dial reach the handshake read.
		time.Sleep(50 * time.Millisecond)
		return sup
	}

	t.Run("ReachabilityLost", func(t *testing.T) {
		reach := reachability.NewBroadcaster(true)
		sup := newSupervisor(t, reach)

		reach.Set(false)
		require.Eventually(t, func() bool { return sup.State() == connection.StateIdle },
			bound, 5*time.Millisecond)
		assert.Equal(t, connection.StatusDisconnected, sup.Status())
		assert.Zero(t, sup.RetryState().Attempts)
	})

	t.Run("Close", func(t *testing.T) {
		sup := newSupervisor(t, reachability.NewBroadcaster(true))

		start := time.Now()
		sup.Close()
		assert.Less(t, time.Since(start), bound)
		assert.Equal(t, connection.StateShuttingDown, sup.State())
	})
}
