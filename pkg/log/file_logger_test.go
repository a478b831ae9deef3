package log

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFileLoggerCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.rlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("log file was not created")
	}
}

func TestFileLoggerWritesCBOR(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.rlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	event := Event{
		Timestamp: time.Now(),
		SessionID: "sess-123",
		Direction: DirectionIn,
		Layer:     LayerTransport,
		Category:  CategoryMessage,
		Frame:     NewFrameEvent([]byte{1, 2, 3}, true),
	}
	logger.Log(event)
	logger.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}
	if decoded.SessionID != event.SessionID {
		t.Errorf("SessionID: got %q, want %q", decoded.SessionID, event.SessionID)
	}
	if decoded.Frame == nil || decoded.Frame.Size != 3 {
		t.Errorf("Frame = %+v", decoded.Frame)
	}
}

func TestFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.rlog")

	for _, id := range []string{"a", "b"} {
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger failed: %v", err)
		}
		logger.Log(Event{Timestamp: time.Now(), SessionID: id})
		logger.Close()
	}

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	for _, want := range []string{"a", "b"} {
		e, err := reader.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if e.SessionID != want {
			t.Errorf("SessionID = %q, want %q", e.SessionID, want)
		}
	}
}

func TestFileLoggerCloseIdempotent(t *testing.T) {
	logger, err := NewFileLogger(filepath.Join(t.TempDir(), "test.rlog"))
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	logger.Log(Event{Timestamp: time.Now()})
	if written, dropped := logger.Stats(); written != 0 || dropped != 1 {
		t.Errorf("Stats = %d/%d, want 0/1", written, dropped)
	}
}

func TestFileLoggerConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.rlog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Log(Event{Timestamp: time.Now(), Category: CategoryState})
		}()
	}
	wg.Wait()
	logger.Close()

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		_, err := reader.Next()
		if err != nil {
			break
		}
		count++
	}
	if count != n {
		t.Errorf("read %d events, want %d", count, n)
	}
}

type closeRecorder struct {
	writes int
	closed bool
}

func (c *closeRecorder) Write(p []byte) (int, error) {
	if c.closed {
		return 0, errors.New("closed")
	}
	c.writes++
	return len(p), nil
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestStreamLogger(t *testing.T) {
	w := &closeRecorder{}
	logger := NewStreamLogger(w)

	logger.Log(Event{Timestamp: time.Now()})
	logger.Log(Event{Timestamp: time.Now()})
	if w.writes != 2 {
		t.Errorf("writes = %d, want 2", w.writes)
	}

	logger.Close()
	if !w.closed {
		t.Error("underlying writer not closed")
	}
	if written, dropped := logger.Stats(); written != 2 || dropped != 0 {
		t.Errorf("Stats = %d/%d, want 2/0", written, dropped)
	}
}

type failingWriter struct{ closeRecorder }

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestFileLoggerCountsWriteErrors(t *testing.T) {
	logger := NewStreamLogger(&failingWriter{})
	logger.Log(Event{Timestamp: time.Now()})

	if written, dropped := logger.Stats(); written != 0 || dropped != 1 {
		t.Errorf("Stats = %d/%d, want 0/1", written, dropped)
	}
}
