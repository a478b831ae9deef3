package log

import (
	"testing"
	"time"
)

func TestNoopLogger(t *testing.T) {
	var l Logger = NoopLogger{}

	// Must not panic.
	l.Log(Event{Timestamp: time.Now(), Category: CategoryState})
}

// mockLogger records events for testing
type mockLogger struct {
	events []Event
}

func (m *mockLogger) Log(event Event) {
	m.events = append(m.events, event)
}

func TestMultiLoggerCallsAll(t *testing.T) {
	mock1 := &mockLogger{}
	mock2 := &mockLogger{}

	multi := NewMultiLogger(mock1, nil, mock2)
	multi.Log(Event{Timestamp: time.Now(), SessionID: "sess-123", Category: CategoryMessage})

	for i, mock := range []*mockLogger{mock1, mock2} {
		if len(mock.events) != 1 {
			t.Errorf("logger %d: got %d events, want 1", i, len(mock.events))
			continue
		}
		if mock.events[0].SessionID != "sess-123" {
			t.Errorf("logger %d: SessionID = %q, want %q", i, mock.events[0].SessionID, "sess-123")
		}
	}
}

func TestMultiLoggerCollapses(t *testing.T) {
	if _, ok := NewMultiLogger().(NoopLogger); !ok {
		t.Error("no sinks: want NoopLogger")
	}
	if _, ok := NewMultiLogger(nil, nil).(NoopLogger); !ok {
		t.Error("nil sinks: want NoopLogger")
	}

	single := &mockLogger{}
	if got := NewMultiLogger(nil, single); got != Logger(single) {
		t.Errorf("single sink: got %T, want the sink itself", got)
	}
}

func TestLoggerFunc(t *testing.T) {
	var rooms []string
	l := LoggerFunc(func(e Event) { rooms = append(rooms, e.Room) })

	NewMultiLogger(l, &mockLogger{}).Log(Event{Room: "lobby"})
	if len(rooms) != 1 || rooms[0] != "lobby" {
		t.Errorf("rooms = %v, want [lobby]", rooms)
	}
}
