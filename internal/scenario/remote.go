package scenario

import (
	"time"

	"github.com/ktimer/ktimer-go/pkg/timer"
)

// Clock is a manually advanced clock.
type Clock struct {
	now time.Time
}

// NewClock returns a clock set to a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time { return c.now }

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// remoteText is an inbound text observable.
type remoteText struct {
	subs []func(string)
}

func (r *remoteText) Subscribe(fn func(string)) { r.subs = append(r.subs, fn) }

func (r *remoteText) push(v string) {
	for _, fn := range r.subs {
		fn(v)
	}
}

// remoteNumber is an inbound numeric observable whose value can also be
// set without notifying, like a sensor that already had a state when the
// engine looked.
type remoteNumber struct {
	subs []func(float64)
	v    float64
	has  bool
}

func (r *remoteNumber) Subscribe(fn func(float64)) { r.subs = append(r.subs, fn) }

func (r *remoteNumber) Value() (float64, bool) { return r.v, r.has }

func (r *remoteNumber) set(v float64) {
	r.v, r.has = v, true
}

func (r *remoteNumber) push(v float64) {
	r.set(v)
	for _, fn := range r.subs {
		fn(v)
	}
}

var (
	_ timer.Clock        = (*Clock)(nil)
	_ timer.RemoteText   = (*remoteText)(nil)
	_ timer.RemoteNumber = (*remoteNumber)(nil)
)
