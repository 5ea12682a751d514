package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/ktimer/ktimer-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	RemoteOutcomes    map[log.RemoteOutcome]int
	Timers            map[string]*TimerStats
	Connections       map[string]*ConnectionStats
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// TimerStats holds statistics for a single timer.
type TimerStats struct {
	Commands      int
	Ticks         int
	Remote        int
	StateChanges  int
	LastState     string
	RemoteApplied int
}

// ConnectionStats holds statistics for a single connection.
type ConnectionStats struct {
	FirstSeen     time.Time
	LastSeen      time.Time
	Events        int
	RemoteAddr    string
	Requests      int
	Notifications int
}

func newStats() *Stats {
	return &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		RemoteOutcomes:    make(map[log.RemoteOutcome]int),
		Timers:            make(map[string]*TimerStats),
		Connections:       make(map[string]*ConnectionStats),
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

	if event.Error != nil {
		s.Errors++
	}
	if event.Remote != nil {
		s.RemoteOutcomes[event.Remote.Outcome]++
	}

	if event.TimerID != "" && event.Layer == log.LayerEngine {
		ts, ok := s.Timers[event.TimerID]
		if !ok {
			ts = &TimerStats{}
			s.Timers[event.TimerID] = ts
		}
		switch {
		case event.Command != nil:
			ts.Commands++
		case event.Tick != nil:
			ts.Ticks++
		case event.Remote != nil:
			ts.Remote++
			if event.Remote.Outcome == log.OutcomeApplied {
				ts.RemoteApplied++
			}
		case event.StateChange != nil:
			ts.StateChanges++
			ts.LastState = event.StateChange.NewState
		}
	}

	if event.ConnectionID == "" {
		return
	}
	conn, ok := s.Connections[event.ConnectionID]
	if !ok {
		conn = &ConnectionStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
		s.Connections[event.ConnectionID] = conn
	}
	conn.Events++
	if event.Timestamp.After(conn.LastSeen) {
		conn.LastSeen = event.Timestamp
	}
	if event.RemoteAddr != "" && conn.RemoteAddr == "" {
		conn.RemoteAddr = event.RemoteAddr
	}
	if event.Message != nil {
		switch event.Message.Type {
		case log.MessageTypeRequest:
			conn.Requests++
		case log.MessageTypeNotification:
			conn.Notifications++
		}
	}
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := newStats()
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Timer Capture Statistics ===")
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
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerWire, log.LayerEngine} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{
		log.CategoryMessage, log.CategoryControl, log.CategoryState, log.CategoryError,
		log.CategoryCommand, log.CategoryRemote, log.CategoryTick,
	} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.RemoteOutcomes) > 0 {
		fmt.Fprintln(w, "Remote Observations:")
		for _, o := range []log.RemoteOutcome{log.OutcomeApplied, log.OutcomeIgnored, log.OutcomeThrottled, log.OutcomeDisabled} {
			if count := stats.RemoteOutcomes[o]; count > 0 {
				fmt.Fprintf(w, "  %-12s %d\n", o.String()+":", count)
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Timers: %d\n", len(stats.Timers))
	ids := make([]string, 0, len(stats.Timers))
	for id := range stats.Timers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		ts := stats.Timers[id]
		fmt.Fprintf(w, "  [%s] commands %d, ticks %d, remote %d (applied %d)\n",
			id, ts.Commands, ts.Ticks, ts.Remote, ts.RemoteApplied)
		if ts.LastState != "" {
			fmt.Fprintf(w, "           Last state: %s\n", ts.LastState)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Connections: %d\n", len(stats.Connections))
	if len(stats.Connections) > 0 {
		type connInfo struct {
			id    string
			stats *ConnectionStats
		}
		conns := make([]connInfo, 0, len(stats.Connections))
		for id, cs := range stats.Connections {
			conns = append(conns, connInfo{id, cs})
		}
		sort.Slice(conns, func(i, j int) bool {
			return conns[i].stats.FirstSeen.Before(conns[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, c := range conns {
			duration := c.stats.LastSeen.Sub(c.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenConnID(c.id), c.stats.Events, duration)
			if c.stats.RemoteAddr != "" {
				fmt.Fprintf(w, "           Peer: %s\n", c.stats.RemoteAddr)
			}
			fmt.Fprintf(w, "           Requests: %d, notifications: %d\n", c.stats.Requests, c.stats.Notifications)
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
