package timer

import (
	"math"

	"github.com/ktimer/ktimer-go/pkg/log"
)

// Remote timer states understood by HandleRemoteState.
const (
	RemoteIdle   = "idle"
	RemotePaused = "paused"
	RemoteActive = "active"
)

// remainingNoiseFloor is the largest remote remaining value treated as noise.
const remainingNoiseFloor = 0.5

// RemoteText is a textual observable reporting the remote timer state.
type RemoteText interface {
	Subscribe(fn func(string))
}

// RemoteNumber is a numeric observable reporting the remote remaining seconds.
type RemoteNumber interface {
	Subscribe(fn func(float64))

	// Value returns the last observed value, or false if none was observed.
	Value() (float64, bool)
}

// BindRemoteState attaches the remote state observable. Updates are routed
// to HandleRemoteState on the goroutine that publishes them.
func (e *Engine) BindRemoteState(src RemoteText) {
	e.remoteState = src
	src.Subscribe(e.HandleRemoteState)
}

// BindRemoteRemaining attaches the remote remaining observable. Its last
// value is also read when a remote state observation needs it.
func (e *Engine) BindRemoteRemaining(src RemoteNumber) {
	e.remoteRemaining = src
	src.Subscribe(e.HandleRemoteRemaining)
}

// RemoteAvailable reports whether any remote observable is bound.
func (e *Engine) RemoteAvailable() bool { return e.remoteAvailable() }

func (e *Engine) remoteAvailable() bool {
	return e.remoteState != nil || e.remoteRemaining != nil
}

// HandleRemoteState reconciles a remote state observation: "idle" cancels,
// "paused" pauses or adopts a paused timer, "active" resumes or starts.
// Other values only mark the timer as synced.
func (e *Engine) HandleRemoteState(text string) {
	if !e.syncEnabled {
		e.logRemote(log.ChannelState, text, 0, log.OutcomeDisabled)
		return
	}
	e.markSynced()

	var apply func()
	switch text {
	case RemoteIdle:
		if e.state != StateStopped && e.remainingSeconds > 0 {
			apply = func() { e.cancel(true) }
		}
	case RemotePaused:
		switch e.state {
		case StateRunning:
			apply = func() { e.pause(true) }
		case StateStopped:
			if v := e.remoteRemainingSeconds(); v > 0 {
				apply = func() { e.adopt(v, StatePaused, "remote_paused") }
			}
		}
	case RemoteActive:
		switch e.state {
		case StatePaused:
			apply = func() { e.resume(true) }
		case StateStopped:
			v := e.remoteRemainingSeconds()
			if v <= 0 {
				v = max(e.setSeconds, 0)
			}
			apply = func() { e.start(v, true) }
		}
	}
	if apply == nil {
		e.logRemote(log.ChannelState, text, 0, log.OutcomeIgnored)
		return
	}
	e.logRemote(log.ChannelState, text, 0, log.OutcomeApplied)
	apply()
}

// HandleRemoteRemaining reconciles a remote remaining observation. A stopped
// timer adopts the value and starts running. An active timer takes the value
// as a correction, at most once per sync interval; the first correction is
// always accepted.
func (e *Engine) HandleRemoteRemaining(value float64) {
	if !e.syncEnabled {
		e.logRemote(log.ChannelRemaining, "", value, log.OutcomeDisabled)
		return
	}
	e.markSynced()

	if math.IsNaN(value) || value <= remainingNoiseFloor {
		e.logRemote(log.ChannelRemaining, "", value, log.OutcomeIgnored)
		return
	}
	remaining := truncateSeconds(value)

	if e.state == StateStopped {
		if remaining <= 0 {
			e.logRemote(log.ChannelRemaining, "", value, log.OutcomeIgnored)
			return
		}
		e.logRemote(log.ChannelRemaining, "", value, log.OutcomeApplied)
		e.adopt(remaining, StateRunning, "remote_remaining")
		return
	}

	now := e.clock.Now()
	if !e.lastRemoteSync.IsZero() && now.Sub(e.lastRemoteSync) < e.syncInterval {
		e.logRemote(log.ChannelRemaining, "", value, log.OutcomeThrottled)
		return
	}
	if remaining <= 0 {
		e.logRemote(log.ChannelRemaining, "", value, log.OutcomeIgnored)
		return
	}
	e.logRemote(log.ChannelRemaining, "", value, log.OutcomeApplied)
	e.remainingSeconds = remaining
	e.lastRemoteSync = now
	e.publish()
}

// adopt takes over a remote timer from the stopped state. The remaining
// value is kept as reported and may exceed the clamped set duration.
// No named event fires.
func (e *Engine) adopt(remaining int, state State, reason string) {
	e.setSeconds = clampSeconds(remaining, e.maxDurationSeconds)
	e.remainingSeconds = remaining
	e.state = state
	e.overdue = false
	e.logTransition(StatusStopped, reason, true)
	e.publish()
}

func (e *Engine) markSynced() {
	if e.syncEnabled {
		e.synced = e.remoteAvailable()
	}
}

// remoteRemainingSeconds reads the bound remaining observable, 0 if unbound
// or without a value.
func (e *Engine) remoteRemainingSeconds() int {
	if e.remoteRemaining == nil {
		return 0
	}
	v, ok := e.remoteRemaining.Value()
	if !ok {
		return 0
	}
	return truncateSeconds(v)
}

// truncateSeconds converts toward zero, mapping NaN to 0 and saturating
// infinities.
func truncateSeconds(v float64) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int(v)
}

func (e *Engine) logRemote(ch log.RemoteChannel, text string, value float64, outcome log.RemoteOutcome) {
	e.logger.Log(log.Event{
		Timestamp: e.clock.Now(),
		TimerID:   e.id,
		Layer:     log.LayerEngine,
		Category:  log.CategoryRemote,
		Origin:    log.OriginRemote,
		Remote: &log.RemoteEvent{
			Channel: ch,
			Text:    text,
			Value:   value,
			Outcome: outcome,
		},
	})
}
