package timer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktimer/ktimer-go/pkg/log"
)

func TestEngineInitialState(t *testing.T) {
	e, _ := newTestEngine(func(c *Config) { c.InitialSetSeconds = 300 })

	assert.Equal(t, StateStopped, e.State())
	assert.Equal(t, 300, e.Set())
	assert.Equal(t, 0, e.Remaining())
	assert.Equal(t, StatusStopped, e.Status())
	assert.Equal(t, "t1", e.Name(), "name defaults to the ID")
}

func TestEngineInitialSetClamped(t *testing.T) {
	e, _ := newTestEngine(func(c *Config) {
		c.MaxDurationSeconds = 100
		c.InitialSetSeconds = 500
	})
	assert.Equal(t, 100, e.Set())
}

func TestClampSeconds(t *testing.T) {
	tests := []struct {
		name string
		x    int
		max  uint32
		want int
	}{
		{"Negative", -5, 7200, 0},
		{"Zero", 0, 7200, 0},
		{"Within", 90, 7200, 90},
		{"AtCeiling", 7200, 7200, 7200},
		{"AboveCeiling", 9000, 7200, 7200},
		{"Unlimited", 1 << 30, 0, 1 << 30},
		{"UnlimitedNegative", -1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clampSeconds(tt.x, tt.max)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, clampSeconds(got, tt.max), "idempotent")
		})
	}
}

func TestEngineStart(t *testing.T) {
	e, _ := newTestEngine(nil)
	r := record(e)

	e.Start(90)

	assert.Equal(t, StateRunning, e.State())
	assert.Equal(t, 90, e.Set())
	assert.Equal(t, 90, e.Remaining())
	assert.False(t, e.Synced(), "no remote observables")

	require.Len(t, r.snapshots, 1)
	s := r.snapshots[0]
	assert.Equal(t, StatusRunning, s.Status)
	assert.True(t, s.Running)
	assert.False(t, s.Paused)
	assert.False(t, s.Overdue)

	require.Len(t, r.events, 1)
	assert.Equal(t, EventStarted, r.events[0].Kind)
	assert.False(t, r.events[0].FromRemote)
}

func TestEngineStartClamps(t *testing.T) {
	e, _ := newTestEngine(nil)

	e.Start(10000)
	assert.Equal(t, 7200, e.Set())
	assert.Equal(t, 7200, e.Remaining())

	e.Start(-5)
	assert.Equal(t, 0, e.Set())
	assert.Equal(t, 0, e.Remaining())
	assert.Equal(t, StateRunning, e.State())
}

func TestEngineStartDefault(t *testing.T) {
	e, _ := newTestEngine(func(c *Config) { c.InitialSetSeconds = 45 })

	e.StartDefault()

	assert.Equal(t, 45, e.Remaining())
	assert.Equal(t, StateRunning, e.State())
}

func TestEngineStartResetsOverdue(t *testing.T) {
	e, _ := newTestEngine(nil)
	e.Start(1)
	e.Tick()
	require.True(t, e.Overdue())

	e.Start(60)

	assert.False(t, e.Overdue())
	assert.Equal(t, StatusRunning, e.Status())
}

func TestEngineTickCountdown(t *testing.T) {
	e, _ := newTestEngine(nil)
	e.Start(3)
	r := record(e)

	e.Tick()
	e.Tick()
	require.Equal(t, 1, e.Remaining())
	require.False(t, e.Overdue())

	e.Tick()
	require.Equal(t, 0, e.Remaining())
	require.True(t, e.Overdue())
	assert.Equal(t, StatusOverdue, e.Status())

	e.Tick()
	assert.Equal(t, -1, e.Remaining())

	assert.Equal(t, 1, r.count(EventFinished), "finished fires once")
	assert.Equal(t, 4, r.count(EventTick))
	assert.Len(t, r.snapshots, 4)
}

func TestEngineTickEventOrder(t *testing.T) {
	e, _ := newTestEngine(nil)
	e.Start(1)
	r := record(e)

	e.Tick()

	assert.Equal(t, []EventKind{EventFinished, EventTick}, r.kinds())
	require.Len(t, r.events, 2)
	assert.Equal(t, 0, r.events[1].Remaining)
	assert.False(t, r.events[0].FromRemote)
}

func TestEngineTickIgnoredWhenNotRunning(t *testing.T) {
	e, _ := newTestEngine(nil)
	r := record(e)

	e.Tick()
	assert.Empty(t, r.snapshots)
	assert.Empty(t, r.events)

	e.Start(10)
	e.Pause()
	r.reset()
	for i := 0; i < 5; i++ {
		e.Tick()
	}
	assert.Equal(t, 10, e.Remaining(), "paused timer keeps its remaining time")
	assert.Empty(t, r.events)
}

func TestEnginePauseResume(t *testing.T) {
	e, _ := newTestEngine(nil)
	r := record(e)

	e.Pause()
	require.Equal(t, StateStopped, e.State())
	require.Empty(t, r.events)

	e.Start(60)
	e.Tick()
	e.Pause()
	assert.Equal(t, StatePaused, e.State())
	assert.Equal(t, StatusPaused, e.Status())

	r.reset()
	e.Pause()
	assert.Empty(t, r.events, "pause while paused")

	e.Resume()
	assert.Equal(t, StateRunning, e.State())
	assert.Equal(t, 59, e.Remaining())
	assert.Equal(t, []EventKind{EventResumed}, r.kinds())

	r.reset()
	e.Resume()
	assert.Empty(t, r.events, "resume while running")
}

func TestEngineCancel(t *testing.T) {
	tests := []struct {
		name  string
		setup func(e *Engine)
	}{
		{"FromStopped", func(e *Engine) {}},
		{"FromRunning", func(e *Engine) { e.Start(30) }},
		{"FromPaused", func(e *Engine) { e.Start(30); e.Pause() }},
		{"FromOverdue", func(e *Engine) { e.Start(1); e.Tick(); e.Tick() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(nil)
			tt.setup(e)
			r := record(e)

			e.Cancel()

			assert.Equal(t, StateStopped, e.State())
			assert.Equal(t, 0, e.Remaining())
			assert.False(t, e.Overdue())
			assert.False(t, e.Synced())
			assert.Equal(t, []EventKind{EventCancelled}, r.kinds())
			require.Len(t, r.snapshots, 1)
			assert.Equal(t, StatusStopped, r.snapshots[0].Status)
		})
	}
}

func TestEngineSetSeconds(t *testing.T) {
	e, _ := newTestEngine(nil)
	r := record(e)

	e.SetSeconds(120)
	require.Equal(t, 120, e.Set())
	require.Len(t, r.snapshots, 1)

	e.SetSeconds(120)
	assert.Len(t, r.snapshots, 1, "unchanged value publishes nothing")

	e.SetSeconds(99999)
	assert.Equal(t, 7200, e.Set())
	assert.Equal(t, StateStopped, e.State())
	assert.Empty(t, r.events)
}

func TestEngineSetSecondsWhileRunning(t *testing.T) {
	e, _ := newTestEngine(nil)
	e.Start(60)
	e.Tick()

	e.SetSeconds(300)

	assert.Equal(t, 59, e.Remaining())
	assert.Equal(t, 300, e.Set())
}

func TestEngineSetMaxDuration(t *testing.T) {
	e, _ := newTestEngine(nil)
	e.Start(600)
	r := record(e)

	e.SetMaxDuration(100)
	assert.Equal(t, 100, e.Set())
	assert.Equal(t, 100, e.Remaining())
	assert.Len(t, r.snapshots, 1)

	e.SetMaxDuration(200)
	assert.Len(t, r.snapshots, 1, "raising the ceiling changes nothing")
	assert.Equal(t, uint32(200), e.MaxDuration())

	e.SetMaxDuration(0)
	e.Start(100000)
	assert.Equal(t, 100000, e.Set())
}

func TestEngineObserversRegistrationOrder(t *testing.T) {
	e, _ := newTestEngine(nil)
	var order []int
	e.On(EventStarted, func(Event) { order = append(order, 1) })
	e.On(EventStarted, func(Event) { order = append(order, 2) })
	e.On(EventPaused, func(Event) { order = append(order, 99) })
	e.On(EventStarted, func(Event) { order = append(order, 3) })

	e.Start(5)

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestEngineChangeBeforeEvent(t *testing.T) {
	e, _ := newTestEngine(nil)
	var seq []string
	e.OnChange(func(Snapshot) { seq = append(seq, "change") })
	e.On(EventStarted, func(Event) { seq = append(seq, "started") })

	e.Start(5)

	assert.Equal(t, []string{"change", "started"}, seq)
}

func TestEngineLogsCommandsAndTransitions(t *testing.T) {
	capture := &captureLogger{}
	e, _ := newTestEngine(func(c *Config) { c.Logger = capture })

	e.Start(2)
	e.Pause()
	e.Pause()
	e.Resume()
	e.Tick()
	e.Tick()

	cmds := capture.byCategory(log.CategoryCommand)
	require.Len(t, cmds, 4)
	assert.Equal(t, "pause", cmds[2].Command.Name)
	assert.False(t, cmds[2].Command.Applied, "second pause is a no-op")

	var transitions []string
	for _, ev := range capture.byCategory(log.CategoryState) {
		transitions = append(transitions, ev.StateChange.OldState+">"+ev.StateChange.NewState)
	}
	assert.Equal(t, []string{"stopped>running", "running>paused", "paused>running", "running>overdue"}, transitions)

	ticks := capture.byCategory(log.CategoryTick)
	require.Len(t, ticks, 2)
	assert.True(t, ticks[1].Tick.Overdue)
}

func TestParseEventKind(t *testing.T) {
	for k := EventStarted; k <= EventTick; k++ {
		got, ok := ParseEventKind(k.String())
		assert.True(t, ok, k.String())
		assert.Equal(t, k, got)
	}
	_, ok := ParseEventKind("exploded")
	assert.False(t, ok)
}
