package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roomlink/roomlink-go/pkg/log"
)

var testTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.rlog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

// sampleEvents is a short reconnect cycle for room "lobby".
func sampleEvents() []log.Event {
	code := 1006
	return []log.Event{
		{
			Timestamp: testTime,
			Room:      "lobby",
			Layer:     log.LayerSupervisor,
			Category:  log.CategoryState,
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntitySupervisor,
				OldState: "IDLE",
				NewState: "CONNECTING",
			},
		},
		{
			Timestamp:  testTime.Add(10 * time.Millisecond),
			SessionID:  "aaaa1111-2222-3333-4444-555566667777",
			Room:       "lobby",
			RemoteAddr: "10.0.0.5:8080",
			Direction:  log.DirectionOut,
			Layer:      log.LayerTransport,
			Category:   log.CategoryMessage,
			Frame:      log.NewFrameEvent([]byte("hello"), false),
		},
		{
			Timestamp: testTime.Add(20 * time.Millisecond),
			SessionID: "aaaa1111-2222-3333-4444-555566667777",
			Room:      "lobby",
			Direction: log.DirectionIn,
			Layer:     log.LayerTransport,
			Category:  log.CategoryMessage,
			Frame:     log.NewFrameEvent([]byte{0x01, 0x02, 0x03}, true),
		},
		{
			Timestamp:  testTime.Add(30 * time.Millisecond),
			SessionID:  "aaaa1111-2222-3333-4444-555566667777",
			Room:       "lobby",
			Direction:  log.DirectionIn,
			Layer:      log.LayerTransport,
			Category:   log.CategoryControl,
			ControlMsg: &log.ControlMsgEvent{Type: log.ControlMsgClose, CloseCode: &code},
		},
		{
			Timestamp: testTime.Add(40 * time.Millisecond),
			Room:      "lobby",
			Layer:     log.LayerSupervisor,
			Category:  log.CategoryRetry,
			Retry: &log.RetryEvent{
				Attempt: 1,
				Base:    time.Second,
				Delay:   1250 * time.Millisecond,
				Reason:  "session closed",
			},
		},
		{
			Timestamp:    testTime.Add(50 * time.Millisecond),
			Room:         "lobby",
			Layer:        log.LayerSupervisor,
			Category:     log.CategoryReachability,
			Reachability: &log.ReachabilityEvent{Reachable: false},
		},
		{
			Timestamp: testTime.Add(2 * time.Second),
			SessionID: "bbbb1111-2222-3333-4444-555566667777",
			Room:      "lobby",
			Layer:     log.LayerSession,
			Category:  log.CategoryError,
			Error: &log.ErrorEventData{
				Layer:   log.LayerSession,
				Message: "connection refused",
				Context: "dial",
			},
		},
	}
}
