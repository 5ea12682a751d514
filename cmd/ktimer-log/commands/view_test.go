package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/ktimer/ktimer-go/pkg/log"
	"github.com/ktimer/ktimer-go/pkg/wire"
)

func TestFormatFrameEvent(t *testing.T) {
	event := log.Event{
		Timestamp:    time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC),
		ConnectionID: "abc12345-6789-0123-4567-890abcdef012",
		Direction:    log.DirectionOut,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		Frame:        &log.FrameEvent{Size: 128, Data: []byte{0xa1, 0x01}},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{"2026-01-28T10:15:32.123456Z", "[conn:abc12345]", "OUT", "TRANSPORT", "Frame", "128 bytes", "a101"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestFormatResponseEvent(t *testing.T) {
	status := wire.StatusUnknownTimer
	elapsed := 1500 * time.Microsecond
	event := log.Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-1",
		Direction:    log.DirectionOut,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		Message: &log.MessageEvent{
			Type:           log.MessageTypeResponse,
			MessageID:      9,
			Status:         &status,
			ProcessingTime: &elapsed,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{"RESPONSE", "MessageID: 9", "UNKNOWN_TIMER (2)", "1.500ms"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestFormatEngineEventsUseTimerScope(t *testing.T) {
	event := log.Event{
		Timestamp: time.Now(),
		TimerID:   "kitchen",
		Layer:     log.LayerEngine,
		Category:  log.CategoryRemote,
		Origin:    log.OriginRemote,
		Remote:    &log.RemoteEvent{Channel: log.ChannelState, Text: "paused", Outcome: log.OutcomeApplied},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{"[timer:kitchen]", "ENGINE Remote (remote)", `State: "paused"`, "Outcome: APPLIED"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestFormatCommandAndTick(t *testing.T) {
	secs := 60
	var buf bytes.Buffer
	formatEvent(&buf, log.Event{
		TimerID:  "t",
		Layer:    log.LayerEngine,
		Category: log.CategoryCommand,
		Command:  &log.CommandEvent{Name: "start", Seconds: &secs},
	})
	formatEvent(&buf, log.Event{
		TimerID:  "t",
		Layer:    log.LayerEngine,
		Category: log.CategoryTick,
		Tick:     &log.TickEvent{Remaining: -3, Overdue: true},
	})
	output := buf.String()

	for _, want := range []string{"Command: start 60 (no-op)", "Remaining: -3 (overdue)"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestFormatControlUsesCtrlLayer(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, log.Event{
		ConnectionID: "conn-1",
		Layer:        log.LayerTransport,
		Category:     log.CategoryControl,
		ControlMsg:   &log.ControlMsgEvent{Type: log.ControlMsgPing},
	})
	if !strings.Contains(buf.String(), "CTRL PING") {
		t.Errorf("expected CTRL PING, got: %s", buf.String())
	}
}

func TestParseFlags(t *testing.T) {
	if l, err := ParseLayerFlag("Engine"); err != nil || l != log.LayerEngine {
		t.Errorf("ParseLayerFlag(Engine) = %v, %v", l, err)
	}
	if _, err := ParseLayerFlag("service"); err == nil {
		t.Error("expected error for unknown layer")
	}
	if d, err := ParseDirectionFlag("OUT"); err != nil || d != log.DirectionOut {
		t.Errorf("ParseDirectionFlag(OUT) = %v, %v", d, err)
	}
	if c, err := ParseCategoryFlag("remote"); err != nil || c != log.CategoryRemote {
		t.Errorf("ParseCategoryFlag(remote) = %v, %v", c, err)
	}
	if _, err := ParseCategoryFlag("snapshot"); err == nil {
		t.Error("expected error for unknown category")
	}
	if o, err := ParseOriginFlag("remote"); err != nil || o != log.OriginRemote {
		t.Errorf("ParseOriginFlag(remote) = %v, %v", o, err)
	}
}

func TestRunViewAppliesFilter(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	engine := log.LayerEngine
	var buf bytes.Buffer
	if err := RunView(path, log.Filter{Layer: &engine}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	output := buf.String()

	if strings.Contains(output, "REQUEST") {
		t.Errorf("wire events should be filtered out, got: %s", output)
	}
	if strings.Count(output, "ENGINE") != 2 {
		t.Errorf("expected 2 engine events, got: %s", output)
	}
}
