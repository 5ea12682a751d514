package commands

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/ktimer/ktimer-go/pkg/log"
)

func readAll(t *testing.T, path string) []log.Event {
	t.Helper()
	r, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer r.Close()

	var events []log.Event
	for {
		e, err := r.Next()
		if err == io.EOF {
			return events
		}
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		events = append(events, e)
	}
}

func TestFilterByOrigin(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "remote.klog")

	n, err := RunFilter(path, FilterOptions{Output: out, Origin: "remote"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 event, got %d", n)
	}

	events := readAll(t, out)
	if len(events) != 1 || events[0].Remote == nil {
		t.Fatalf("expected the remote event, got %+v", events)
	}
}

func TestFilterByConnectionAndDirection(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "out.klog")

	n, err := RunFilter(path, FilterOptions{Output: out, ConnID: "abc12345-6789", Direction: "out"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 event, got %d", n)
	}
	if events := readAll(t, out); events[0].Message.Type != log.MessageTypeResponse {
		t.Errorf("expected the response, got %+v", events[0].Message)
	}
}

func TestFilterOptionsBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		opts FilterOptions
	}{
		{"bad time start", FilterOptions{TimeStart: "yesterday"}},
		{"bad time end", FilterOptions{TimeEnd: "tomorrow"}},
		{"bad layer", FilterOptions{Layer: "service"}},
		{"bad direction", FilterOptions{Direction: "sideways"}},
		{"bad category", FilterOptions{Category: "snapshot"}},
		{"bad origin", FilterOptions{Origin: "elsewhere"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.opts.Build(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFilterTimeWindow(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "window.klog")

	// The sample starts at 10:15:32.123; the remote event is one second later.
	n, err := RunFilter(path, FilterOptions{Output: out, TimeStart: "2026-01-28T10:15:33Z"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 event after start, got %d", n)
	}
}
