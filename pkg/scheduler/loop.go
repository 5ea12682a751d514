package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/ktimer/ktimer-go/pkg/timer"
)

// DefaultInboxSize is the default number of queued closures.
const DefaultInboxSize = 64

// Loop errors.
var (
	ErrStopped        = errors.New("scheduler: loop stopped")
	ErrInboxFull      = errors.New("scheduler: inbox full")
	ErrAlreadyRunning = errors.New("scheduler: loop already running")
)

// Ticker is a source of tick times.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker with the given period.
type TickerFunc func(d time.Duration) Ticker

// NewTimeTicker is the default TickerFunc, backed by time.Ticker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// Option configures a Loop.
type Option func(*Loop)

// WithTicker replaces the tick source.
func WithTicker(fn TickerFunc) Option {
	return func(l *Loop) { l.newTicker = fn }
}

// WithInboxSize sets the closure queue capacity.
func WithInboxSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.inbox = make(chan func(), n)
		}
	}
}

const (
	jobQueued int32 = iota
	jobStarted
	jobAbandoned
)

// Loop serializes all access to one engine.
type Loop struct {
	engine    *timer.Engine
	newTicker TickerFunc
	inbox     chan func()
	done      chan struct{}
	running   atomic.Bool
}

// New creates a loop for engine. Call Run to start it.
func New(engine *timer.Engine, opts ...Option) *Loop {
	l := &Loop{
		engine:    engine,
		newTicker: NewTimeTicker,
		inbox:     make(chan func(), DefaultInboxSize),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Engine returns the engine. Only touch it from inside Do or Post, or
// before Run starts.
func (l *Loop) Engine() *timer.Engine {
	return l.engine
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run ticks the engine and executes queued closures until ctx is done.
// It returns ctx.Err(). A Loop can only be run once.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(l.done)

	ticker := l.newTicker(l.engine.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			l.engine.Tick()
		case fn := <-l.inbox:
			fn()
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to finish.
//
// When Do returns an error, fn has not run and never will. If ctx ends after
// fn has started, Do still waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func(*timer.Engine)) error {
	var claim atomic.Int32
	finished := make(chan struct{})
	job := func() {
		if !claim.CompareAndSwap(jobQueued, jobStarted) {
			return
		}
		defer close(finished)
		fn(l.engine)
	}

	select {
	case l.inbox <- job:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	var err error
	select {
	case <-finished:
		return nil
	case <-l.done:
		err = ErrStopped
	case <-ctx.Done():
		err = ctx.Err()
	}
	if claim.CompareAndSwap(jobQueued, jobAbandoned) {
		return err
	}
	<-finished
	return nil
}

// Post queues fn without waiting. It fails if the loop has stopped or the
// inbox is full.
func (l *Loop) Post(fn func(*timer.Engine)) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}

	select {
	case l.inbox <- func() { fn(l.engine) }:
		return nil
	default:
		return ErrInboxFull
	}
}
