package log

import (
	"io"
	"path/filepath"
	"testing"
	"time"
)

func writeEvents(t *testing.T, events ...Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.klog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func TestReaderFilters(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	path := writeEvents(t,
		Event{Timestamp: base, TimerID: "tea", Layer: LayerEngine, Category: CategoryCommand, Command: &CommandEvent{Name: "start", Applied: true}},
		Event{Timestamp: base.Add(time.Second), TimerID: "tea", Layer: LayerEngine, Category: CategoryRemote, Origin: OriginRemote,
			Remote: &RemoteEvent{Channel: ChannelState, Text: "paused", Outcome: OutcomeApplied}},
		Event{Timestamp: base.Add(2 * time.Second), TimerID: "egg", Layer: LayerEngine, Category: CategoryTick, Tick: &TickEvent{Remaining: 9}},
		Event{Timestamp: base.Add(3 * time.Second), ConnectionID: "c1", Layer: LayerTransport, Category: CategoryState,
			StateChange: &StateChangeEvent{Entity: StateEntityConnection, NewState: "CONNECTED"}},
	)

	remote := OriginRemote
	transport := LayerTransport
	tick := CategoryTick
	end := base.Add(2 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"timer", Filter{TimerID: "tea"}, 2},
		{"origin", Filter{Origin: &remote}, 1},
		{"layer", Filter{Layer: &transport}, 1},
		{"category", Filter{Category: &tick}, 1},
		{"connection", Filter{ConnectionID: "c1"}, 1},
		{"time end exclusive", Filter{TimeEnd: &end}, 2},
		{"time start inclusive", Filter{TimeStart: &end}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, err := NewFilteredReader(path, tt.filter)
			if err != nil {
				t.Fatalf("NewFilteredReader: %v", err)
			}
			defer reader.Close()

			got := 0
			for {
				_, err := reader.Next()
				if err == io.EOF {
					break
				}
				if err != nil {
					t.Fatalf("Next: %v", err)
				}
				got++
			}
			if got != tt.want {
				t.Errorf("matched %d events, want %d", got, tt.want)
			}
		})
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "missing.klog")); err == nil {
		t.Error("NewReader() expected error for missing file")
	}
}
