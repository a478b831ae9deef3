package transport

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientURL(t *testing.T) {
	tests := []struct {
		name     string
		server   string
		template string
		room     string
		want     string
	}{
		{"bare host", "relay.local:8080", "", "lobby", "ws://relay.local:8080/rooms/lobby"},
		{"ws", "ws://relay.local", "", "lobby", "ws://relay.local/rooms/lobby"},
		{"http maps to ws", "http://relay.local", "", "lobby", "ws://relay.local/rooms/lobby"},
		{"https maps to wss", "https://relay.local/", "", "lobby", "wss://relay.local/rooms/lobby"},
		{"base path", "wss://example.com/api/", "", "lobby", "wss://example.com/api/rooms/lobby"},
		{"escaped room", "ws://h", "", "a b/c", "ws://h/rooms/a%20b%2Fc"},
		{"custom template", "ws://h", "/v2/{room}/socket", "r1", "ws://h/v2/r1/socket"},
		{"relative template", "ws://h", "chat/{room}", "r1", "ws://h/chat/r1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(ClientConfig{Server: tt.server, PathTemplate: tt.template})
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.URL(tt.room))
		})
	}
}

func TestNewClientInvalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  ClientConfig
	}{
		{"empty server", ClientConfig{}},
		{"bad scheme", ClientConfig{Server: "ftp://h"}},
		{"missing host", ClientConfig{Server: "ws://"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidServer)
		})
	}

	_, err := NewClient(ClientConfig{Server: "h:1", PathTemplate: "/rooms"})
	assert.Error(t, err)
}

func TestClientNewSession(t *testing.T) {
	relay := NewServer(ServerConfig{})
	ts := httptest.NewServer(relay)
	defer ts.Close()

	client, err := NewClient(ClientConfig{
		Server:    ts.URL,
		KeepAlive: KeepAliveConfig{Disabled: true},
	})
	require.NoError(t, err)

	rec := newRecorder()
	s := client.NewSession("lobby", rec)
	require.NotEmpty(t, s.ID())
	assert.NotEqual(t, s.ID(), client.NewSession("lobby", newRecorder()).ID())

	s.Open(context.Background())
	waitFor(t, rec.opened, "open")
	assert.Eventually(t, func() bool { return relay.RoomSize("lobby") == 1 }, waitTimeout, 5*time.Millisecond)

	s.Close()
	assert.Eventually(t, func() bool { return relay.RoomSize("lobby") == 0 }, waitTimeout, 5*time.Millisecond)
}
