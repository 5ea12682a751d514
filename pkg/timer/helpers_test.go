package timer

import (
	"sync"
	"time"

	"github.com/ktimer/ktimer-go/pkg/log"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeText struct {
	subs []func(string)
}

func (f *fakeText) Subscribe(fn func(string)) { f.subs = append(f.subs, fn) }

func (f *fakeText) Push(s string) {
	for _, fn := range f.subs {
		fn(s)
	}
}

type fakeNumber struct {
	value float64
	has   bool
	subs  []func(float64)
}

func (f *fakeNumber) Subscribe(fn func(float64)) { f.subs = append(f.subs, fn) }

func (f *fakeNumber) Value() (float64, bool) { return f.value, f.has }

// Set stores a value without notifying subscribers.
func (f *fakeNumber) Set(v float64) {
	f.value = v
	f.has = true
}

func (f *fakeNumber) Push(v float64) {
	f.Set(v)
	for _, fn := range f.subs {
		fn(v)
	}
}

// recorder collects snapshots and events from an engine.
type recorder struct {
	snapshots []Snapshot
	events    []Event
}

func record(e *Engine) *recorder {
	r := &recorder{}
	e.OnChange(func(s Snapshot) { r.snapshots = append(r.snapshots, s) })
	e.OnEvent(func(ev Event) { r.events = append(r.events, ev) })
	return r
}

func (r *recorder) kinds() []EventKind {
	out := make([]EventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (r *recorder) count(kind EventKind) int {
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) reset() {
	r.snapshots = nil
	r.events = nil
}

type captureLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (c *captureLogger) Log(ev log.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureLogger) byCategory(cat log.Category) []log.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []log.Event
	for _, ev := range c.events {
		if ev.Category == cat {
			out = append(out, ev)
		}
	}
	return out
}

func newTestEngine(mutate func(*Config)) (*Engine, *fakeClock) {
	clock := newFakeClock()
	cfg := DefaultConfig("t1")
	cfg.Clock = clock
	if mutate != nil {
		mutate(&cfg)
	}
	return NewEngine(cfg), clock
}
