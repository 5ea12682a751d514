package timer

import (
	"log/slog"
	"time"

	"github.com/ktimer/ktimer-go/pkg/log"
)

// Engine is a countdown timer with remote reconciliation.
// See the package documentation for the concurrency contract.
type Engine struct {
	id   string
	name string

	state            State
	setSeconds       int
	remainingSeconds int
	overdue          bool
	synced           bool

	maxDurationSeconds uint32
	tickInterval       time.Duration
	syncInterval       time.Duration
	syncEnabled        bool
	lastRemoteSync     time.Time

	remoteState     RemoteText
	remoteRemaining RemoteNumber

	clock     Clock
	logger    log.Logger
	observers observers
}

// NewEngine creates a stopped engine from cfg.
func NewEngine(cfg Config) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		id:                 cfg.ID,
		name:               cfg.Name,
		setSeconds:         clampSeconds(cfg.InitialSetSeconds, cfg.MaxDurationSeconds),
		maxDurationSeconds: cfg.MaxDurationSeconds,
		tickInterval:       cfg.TickInterval,
		syncInterval:       cfg.SyncInterval,
		syncEnabled:        cfg.EnableRemoteSync,
		clock:              cfg.Clock,
		logger:             cfg.Logger,
		observers:          observers{events: make(map[EventKind][]func(Event))},
	}
}

// On registers fn for events of the given kind. Callbacks run synchronously
// in registration order.
func (e *Engine) On(kind EventKind, fn func(Event)) {
	e.observers.events[kind] = append(e.observers.events[kind], fn)
}

// OnEvent registers fn for events of every kind.
func (e *Engine) OnEvent(fn func(Event)) {
	e.observers.all = append(e.observers.all, fn)
}

// OnChange registers fn to receive a Snapshot after every mutation.
func (e *Engine) OnChange(fn func(Snapshot)) {
	e.observers.change = append(e.observers.change, fn)
}

// Start sets the duration to seconds (clamped) and starts counting down
// from it. Valid in any state; restarting a running timer resets it.
func (e *Engine) Start(seconds int) {
	e.logCommand("start", &seconds, true)
	e.start(seconds, false)
}

// StartDefault starts the timer with the current set duration.
func (e *Engine) StartDefault() {
	e.logCommand("start", nil, true)
	e.start(e.setSeconds, false)
}

// Pause freezes a running timer. No-op otherwise.
func (e *Engine) Pause() {
	e.logCommand("pause", nil, e.state == StateRunning)
	e.pause(false)
}

// Resume continues a paused timer. No-op otherwise.
func (e *Engine) Resume() {
	e.logCommand("resume", nil, e.state == StatePaused)
	e.resume(false)
}

// Cancel stops the timer and clears the remaining time. Always fires
// EventCancelled, even when already stopped.
func (e *Engine) Cancel() {
	e.logCommand("cancel", nil, true)
	e.cancel(false)
}

// SetSeconds changes the set duration without touching the run state or the
// remaining time. Publishes a change only when the clamped value differs.
func (e *Engine) SetSeconds(seconds int) {
	v := clampSeconds(seconds, e.maxDurationSeconds)
	changed := v != e.setSeconds
	e.logCommand("set_seconds", &seconds, changed)
	if !changed {
		return
	}
	e.setSeconds = v
	e.publish()
}

// SetMaxDuration changes the duration ceiling (0 = unlimited) and re-clamps
// the set and remaining values.
func (e *Engine) SetMaxDuration(seconds uint32) {
	e.maxDurationSeconds = seconds
	set := clampSeconds(e.setSeconds, seconds)
	remaining := clampSeconds(e.remainingSeconds, seconds)
	changed := set != e.setSeconds || remaining != e.remainingSeconds
	arg := int(seconds)
	e.logCommand("set_max_duration", &arg, changed)
	if !changed {
		return
	}
	e.setSeconds = set
	e.remainingSeconds = remaining
	e.publish()
}

// Tick advances a running timer by one second. The first time the remaining
// time reaches zero the timer becomes overdue and fires EventFinished; it
// keeps counting into negative values until cancelled or restarted.
func (e *Engine) Tick() {
	if e.state != StateRunning {
		return
	}
	e.remainingSeconds--
	finished := e.remainingSeconds <= 0 && !e.overdue
	if finished {
		e.overdue = true
	}
	e.logger.Log(log.Event{
		Timestamp: e.clock.Now(),
		TimerID:   e.id,
		Layer:     log.LayerEngine,
		Category:  log.CategoryTick,
		Tick:      &log.TickEvent{Remaining: e.remainingSeconds, Overdue: e.overdue},
	})
	if finished {
		e.logTransition(StatusRunning, "finished", false)
		e.observers.fire(Event{Kind: EventFinished})
	}
	e.publish()
	e.observers.fire(Event{Kind: EventTick, Remaining: e.remainingSeconds})
}

// ID returns the timer ID.
func (e *Engine) ID() string { return e.id }

// Name returns the display name.
func (e *Engine) Name() string { return e.name }

// State returns the run state.
func (e *Engine) State() State { return e.state }

// Remaining returns the remaining seconds. Negative once overdue.
func (e *Engine) Remaining() int { return e.remainingSeconds }

// Set returns the set duration in seconds.
func (e *Engine) Set() int { return e.setSeconds }

// Overdue reports whether the countdown passed zero since the last start.
func (e *Engine) Overdue() bool { return e.overdue }

// Synced reports whether the timer is currently tracking a remote copy.
func (e *Engine) Synced() bool { return e.synced }

// MaxDuration returns the duration ceiling in seconds (0 = unlimited).
func (e *Engine) MaxDuration() uint32 { return e.maxDurationSeconds }

// TickInterval returns the configured tick period.
func (e *Engine) TickInterval() time.Duration { return e.tickInterval }

// SyncInterval returns the remote correction throttle window.
func (e *Engine) SyncInterval() time.Duration { return e.syncInterval }

// SyncEnabled reports whether remote reconciliation is on.
func (e *Engine) SyncEnabled() bool { return e.syncEnabled }

// Status returns the published status string.
func (e *Engine) Status() string { return statusOf(e.state, e.overdue) }

// Snapshot returns the current published view.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Remaining: e.remainingSeconds,
		Set:       e.setSeconds,
		Status:    statusOf(e.state, e.overdue),
		State:     e.state,
		Running:   e.state == StateRunning,
		Paused:    e.state == StatePaused,
		Overdue:   e.overdue,
		Synced:    e.synced,
	}
}

// LogValue implements slog.LogValuer and reports the configuration.
func (e *Engine) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", e.id),
		slog.String("name", e.name),
		slog.Duration("tick_interval", e.tickInterval),
		slog.Duration("sync_interval", e.syncInterval),
		slog.Any("max_duration", e.maxDurationSeconds),
		slog.Int("set_seconds", e.setSeconds),
		slog.Bool("remote_sync", e.syncEnabled),
		slog.Bool("remote_state", e.remoteState != nil),
		slog.Bool("remote_remaining", e.remoteRemaining != nil),
	)
}

func (e *Engine) start(seconds int, fromRemote bool) {
	old := e.Status()
	e.setSeconds = clampSeconds(seconds, e.maxDurationSeconds)
	e.remainingSeconds = e.setSeconds
	e.state = StateRunning
	e.overdue = false
	e.synced = e.syncEnabled && e.remoteAvailable()
	e.logTransition(old, "start", fromRemote)
	e.publish()
	e.observers.fire(Event{Kind: EventStarted, FromRemote: fromRemote})
}

func (e *Engine) pause(fromRemote bool) {
	if e.state != StateRunning {
		return
	}
	old := e.Status()
	e.state = StatePaused
	e.logTransition(old, "pause", fromRemote)
	e.publish()
	e.observers.fire(Event{Kind: EventPaused, FromRemote: fromRemote})
}

func (e *Engine) resume(fromRemote bool) {
	if e.state != StatePaused {
		return
	}
	e.state = StateRunning
	e.synced = e.syncEnabled && e.remoteAvailable()
	e.logTransition(StatusPaused, "resume", fromRemote)
	e.publish()
	e.observers.fire(Event{Kind: EventResumed, FromRemote: fromRemote})
}

func (e *Engine) cancel(fromRemote bool) {
	old := e.Status()
	e.state = StateStopped
	e.remainingSeconds = 0
	e.overdue = false
	e.synced = false
	e.logTransition(old, "cancel", fromRemote)
	e.publish()
	e.observers.fire(Event{Kind: EventCancelled, FromRemote: fromRemote})
}

func (e *Engine) publish() {
	e.observers.publish(e.Snapshot())
}

func (e *Engine) logCommand(name string, seconds *int, applied bool) {
	e.logger.Log(log.Event{
		Timestamp: e.clock.Now(),
		TimerID:   e.id,
		Layer:     log.LayerEngine,
		Category:  log.CategoryCommand,
		Command:   &log.CommandEvent{Name: name, Seconds: seconds, Applied: applied},
	})
}

// logTransition records a status change. Unchanged statuses are skipped.
func (e *Engine) logTransition(old, reason string, fromRemote bool) {
	now := e.Status()
	if old == now {
		return
	}
	e.logger.Log(log.Event{
		Timestamp: e.clock.Now(),
		TimerID:   e.id,
		Layer:     log.LayerEngine,
		Category:  log.CategoryState,
		Origin:    originOf(fromRemote),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityTimer,
			OldState: old,
			NewState: now,
			Reason:   reason,
		},
	})
}

func originOf(fromRemote bool) log.Origin {
	if fromRemote {
		return log.OriginRemote
	}
	return log.OriginLocal
}

var _ slog.LogValuer = (*Engine)(nil)
