package service

import (
	"github.com/ktimer/ktimer-go/pkg/timer"
	"github.com/ktimer/ktimer-go/pkg/wire"
)

// buildStatus converts an engine snapshot into its wire form.
func buildStatus(id, name string, s timer.Snapshot, maxDuration uint32) wire.TimerStatus {
	return wire.TimerStatus{
		TimerID:     id,
		Name:        name,
		State:       s.State.String(),
		Status:      s.Status,
		Remaining:   s.Remaining,
		Set:         s.Set,
		Running:     s.Running,
		Paused:      s.Paused,
		Overdue:     s.Overdue,
		Synced:      s.Synced,
		MaxDuration: maxDuration,
	}
}

// engineStatus reads the status of e. Call it on e's loop only.
func engineStatus(e *timer.Engine) wire.TimerStatus {
	return buildStatus(e.ID(), e.Name(), e.Snapshot(), e.MaxDuration())
}

// buildEventInfo converts a named engine event into its wire form.
func buildEventInfo(ev timer.Event) *wire.EventInfo {
	return &wire.EventInfo{
		Name:       ev.Kind.String(),
		FromRemote: ev.FromRemote,
		Remaining:  ev.Remaining,
	}
}
