package log

// Logger receives diagnostic events from supervisors, sessions and relays.
// Log is called from session read loops and the supervisor goroutine at the
// same time, so implementations must be safe for concurrent use and should
// not block.
type Logger interface {
	Log(event Event)
}

// LoggerFunc adapts an ordinary function to the Logger interface.
type LoggerFunc func(Event)

// Log calls f(event).
func (f LoggerFunc) Log(event Event) { f(event) }

// NoopLogger drops every event. A nil Logger field means the same thing
// wherever this package's loggers are accepted.
type NoopLogger struct{}

func (NoopLogger) Log(Event) {}

// MultiLogger delivers each event to every sink, in the order given.
type MultiLogger struct {
	sinks []Logger
}

// NewMultiLogger combines sinks into one Logger. Nil sinks are dropped. With
// no sinks left it returns NoopLogger, and a single sink is returned as is.
func NewMultiLogger(sinks ...Logger) Logger {
	kept := make([]Logger, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	switch len(kept) {
	case 0:
		return NoopLogger{}
	case 1:
		return kept[0]
	}
	return &MultiLogger{sinks: kept}
}

func (m *MultiLogger) Log(event Event) {
	for _, s := range m.sinks {
		s.Log(event)
	}
}

var (
	_ Logger = NoopLogger{}
	_ Logger = LoggerFunc(nil)
	_ Logger = (*MultiLogger)(nil)
)
