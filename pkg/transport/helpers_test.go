package transport

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

const waitTimeout = 2 * time.Second

// recorder is a Handler that records lifecycle events in order.
type recorder struct {
	mu       sync.Mutex
	events   []string
	errs     []error
	reason   CloseReason
	messages chan []byte
	opened   chan struct{}
	closed   chan struct{}
}

func newRecorder() *recorder {
	return &recorder{
		messages: make(chan []byte, 16),
		opened:   make(chan struct{}),
		closed:   make(chan struct{}),
	}
}

func (r *recorder) OnOpen() {
	r.record("open")
	close(r.opened)
}

func (r *recorder) OnMessage(data []byte) {
	r.record("message")
	r.messages <- data
}

func (r *recorder) OnError(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
	r.record("error")
}

func (r *recorder) OnClose(reason CloseReason) {
	r.mu.Lock()
	r.reason = reason
	r.mu.Unlock()
	r.record("close")
	close(r.closed)
}

func (r *recorder) record(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func (r *recorder) Reason() CloseReason {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reason
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %s", what)
	}
}

// peerServer runs fn for every upgraded connection.
func peerServer(t *testing.T, fn func(ws *websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		fn(ws)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

func testConfig() ConnectionConfig {
	cfg := DefaultConnectionConfig()
	cfg.KeepAlive.Disabled = true
	return cfg
}

// silentListener accepts TCP connections but never answers the handshake.
func silentListener(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

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
	return l.Addr().String()
}
