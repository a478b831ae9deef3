package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/roomlink/roomlink-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Sessions          map[string]*SessionStats
	Rooms             map[string]*RoomStats
	Errors            int
	Truncated         bool
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for a single transport session.
type SessionStats struct {
	Room      string
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	BytesIn   int
	BytesOut  int
}

// RoomStats holds supervisor statistics for a room.
type RoomStats struct {
	Sessions     int
	Retries      int
	MaxAttempt   int
	LongestDelay time.Duration
	Offline      int
}

func newStats() *Stats {
	return &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Sessions:          make(map[string]*SessionStats),
		Rooms:             make(map[string]*RoomStats),
	}
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	room := s.room(event.Room)

	if event.SessionID != "" {
		sess, ok := s.Sessions[event.SessionID]
		if !ok {
			sess = &SessionStats{
				Room:      event.Room,
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
			}
			s.Sessions[event.SessionID] = sess
			room.Sessions++
		}
		sess.Events++
		if event.Timestamp.Before(sess.FirstSeen) {
			sess.FirstSeen = event.Timestamp
		}
		if event.Timestamp.After(sess.LastSeen) {
			sess.LastSeen = event.Timestamp
		}
		if event.Frame != nil {
			if event.Direction == log.DirectionIn {
				sess.BytesIn += event.Frame.Size
			} else {
				sess.BytesOut += event.Frame.Size
			}
		}
	}

	if event.Retry != nil {
		room.Retries++
		if event.Retry.Attempt > room.MaxAttempt {
			room.MaxAttempt = event.Retry.Attempt
		}
		if event.Retry.Delay > room.LongestDelay {
			room.LongestDelay = event.Retry.Delay
		}
	}
	if event.Reachability != nil && !event.Reachability.Reachable {
		room.Offline++
	}
	if event.Error != nil {
		s.Errors++
	}
}

func (s *Stats) room(name string) *RoomStats {
	r, ok := s.Rooms[name]
	if !ok {
		r = &RoomStats{}
		s.Rooms[name] = r
	}
	return r
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := newStats()
	for event, err := range reader.Events() {
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}
	stats.Truncated = reader.Truncated()

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== roomlink Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerSession, log.LayerSupervisor} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for c := log.CategoryMessage; c <= log.CategoryReachability; c++ {
		if count := stats.EventsByCategory[c]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", c.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	rooms := make([]string, 0, len(stats.Rooms))
	for name := range stats.Rooms {
		if name != "" {
			rooms = append(rooms, name)
		}
	}
	sort.Strings(rooms)
	fmt.Fprintf(w, "Rooms: %d\n", len(rooms))
	for _, name := range rooms {
		r := stats.Rooms[name]
		fmt.Fprintf(w, "  %s: %d sessions, %d retries", name, r.Sessions, r.Retries)
		if r.Retries > 0 {
			fmt.Fprintf(w, " (max attempt %d, longest delay %s)", r.MaxAttempt, formatDuration(r.LongestDelay))
		}
		if r.Offline > 0 {
			fmt.Fprintf(w, ", offline %d times", r.Offline)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Sessions: %d\n", len(stats.Sessions))
	if len(stats.Sessions) > 0 {
		type sessInfo struct {
			id    string
			stats *SessionStats
		}
		sessions := make([]sessInfo, 0, len(stats.Sessions))
		for id, ss := range stats.Sessions {
			sessions = append(sessions, sessInfo{id, ss})
		}
		sort.Slice(sessions, func(i, j int) bool {
			return sessions[i].stats.FirstSeen.Before(sessions[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, s := range sessions {
			duration := s.stats.LastSeen.Sub(s.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %s: %d events, duration %s\n", shortenID(s.id), s.stats.Room, s.stats.Events, duration)
			if s.stats.BytesIn > 0 || s.stats.BytesOut > 0 {
				fmt.Fprintf(w, "           Bytes: %d in, %d out\n", s.stats.BytesIn, s.stats.BytesOut)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
	if stats.Truncated {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Warning: log ends with a partial record")
	}
}
