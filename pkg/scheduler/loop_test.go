package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktimer/ktimer-go/pkg/timer"
)

type manualTicker struct {
	ch      chan time.Time
	period  time.Duration
	stopped chan struct{}
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               { close(m.stopped) }

func (m *manualTicker) factory(d time.Duration) Ticker {
	m.period = d
	return m
}

// tick blocks until the loop has received the tick.
func (m *manualTicker) tick() {
	m.ch <- time.Now()
}

func startLoop(t *testing.T, engine *timer.Engine, opts ...Option) (*Loop, *manualTicker, context.CancelFunc) {
	t.Helper()
	mt := newManualTicker()
	l := New(engine, append([]Option{WithTicker(mt.factory)}, opts...)...)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l, mt, cancel
}

func TestLoopTicksEngine(t *testing.T) {
	cfg := timer.DefaultConfig("t1")
	cfg.TickInterval = 250 * time.Millisecond
	l, mt, _ := startLoop(t, timer.NewEngine(cfg))
	ctx := context.Background()

	require.NoError(t, l.Do(ctx, func(e *timer.Engine) { e.Start(10) }))
	mt.tick()
	mt.tick()
	mt.tick()

	var remaining int
	require.NoError(t, l.Do(ctx, func(e *timer.Engine) { remaining = e.Remaining() }))
	assert.Equal(t, 7, remaining)
	assert.Equal(t, 250*time.Millisecond, mt.period)
}

func TestLoopPost(t *testing.T) {
	l, _, _ := startLoop(t, timer.NewEngine(timer.DefaultConfig("t1")))

	require.NoError(t, l.Post(func(e *timer.Engine) { e.Start(30) }))
	require.NoError(t, l.Post(func(e *timer.Engine) { e.Pause() }))

	var state timer.State
	require.NoError(t, l.Do(context.Background(), func(e *timer.Engine) { state = e.State() }))
	assert.Equal(t, timer.StatePaused, state)
}

func TestLoopStop(t *testing.T) {
	l, mt, cancel := startLoop(t, timer.NewEngine(timer.DefaultConfig("t1")))

	cancel()
	<-l.Done()
	<-mt.stopped

	err := l.Do(context.Background(), func(*timer.Engine) {})
	assert.ErrorIs(t, err, ErrStopped)
	assert.ErrorIs(t, l.Post(func(*timer.Engine) {}), ErrStopped)
}

func TestLoopRunTwice(t *testing.T) {
	l, _, _ := startLoop(t, timer.NewEngine(timer.DefaultConfig("t1")))

	// Ensure the first Run owns the loop before trying again.
	require.NoError(t, l.Do(context.Background(), func(*timer.Engine) {}))

	err := l.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestLoopDoContextCancelled(t *testing.T) {
	// Not running: the submit blocks once the inbox is full.
	l := New(timer.NewEngine(timer.DefaultConfig("t1")), WithInboxSize(1))
	require.NoError(t, l.Post(func(*timer.Engine) {}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Do(ctx, func(*timer.Engine) {})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.ErrorIs(t, l.Post(func(*timer.Engine) {}), ErrInboxFull)
}

func TestLoopDoAbandonedJobNeverRuns(t *testing.T) {
	l, _, _ := startLoop(t, timer.NewEngine(timer.DefaultConfig("t1")))

	release := make(chan struct{})
	require.NoError(t, l.Post(func(*timer.Engine) { <-release }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var ran atomic.Bool
	err := l.Do(ctx, func(*timer.Engine) { ran.Store(true) })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, l.Do(context.Background(), func(*timer.Engine) {}))
	assert.False(t, ran.Load())
}

func TestLoopDoWaitsForStartedJob(t *testing.T) {
	l, _, _ := startLoop(t, timer.NewEngine(timer.DefaultConfig("t1")))

	ctx, cancel := context.WithCancel(context.Background())
	var remaining int
	err := l.Do(ctx, func(e *timer.Engine) {
		cancel()
		time.Sleep(10 * time.Millisecond)
		e.Start(42)
		remaining = e.Remaining()
	})
	require.NoError(t, err)
	assert.Equal(t, 42, remaining)
}

func TestLoopRunReturnsContextError(t *testing.T) {
	mt := newManualTicker()
	l := New(timer.NewEngine(timer.DefaultConfig("t1")), WithTicker(mt.factory))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
