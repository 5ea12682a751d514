package service

import (
	"context"

	"github.com/ktimer/ktimer-go/pkg/config"
	"github.com/ktimer/ktimer-go/pkg/entity"
	"github.com/ktimer/ktimer-go/pkg/scheduler"
	"github.com/ktimer/ktimer-go/pkg/timer"
	"github.com/ktimer/ktimer-go/pkg/wire"
)

// Timer is one engine hosted by the service together with its loop and
// entities.
type Timer struct {
	id       string
	name     string
	loop     *scheduler.Loop
	entities *entity.Entities
	remote   *entity.Remote
}

// newTimer builds the engine for tc and binds its entities. Observers
// added to the returned engine must be registered before the loop runs.
func newTimer(tc config.TimerConfig, ec timer.Config, opts ...scheduler.Option) *Timer {
	engine := timer.NewEngine(ec)
	t := &Timer{
		id:       tc.ID,
		name:     engine.Name(),
		loop:     scheduler.New(engine, opts...),
		entities: entity.NewEntities(tc.ID),
	}
	t.entities.Bind(engine)
	t.remote = entity.NewRemote(tc.ID, engine, tc.RemoteState, tc.RemoteRemaining)
	return t
}

// ID returns the timer ID.
func (t *Timer) ID() string { return t.id }

// Name returns the display name. It defaults to the ID.
func (t *Timer) Name() string { return t.name }

// Entities returns the outbound sensors. They are updated on the loop
// goroutine; reading them from elsewhere is safe.
func (t *Timer) Entities() *entity.Entities { return t.entities }

// Remote returns the inbound observables. Fields are nil when not
// configured.
func (t *Timer) Remote() *entity.Remote { return t.remote }

// Loop returns the scheduler loop driving the engine.
func (t *Timer) Loop() *scheduler.Loop { return t.loop }

// Do runs fn on the timer's loop and waits for it.
func (t *Timer) Do(ctx context.Context, fn func(*timer.Engine)) error {
	return t.loop.Do(ctx, fn)
}

// Status returns the current wire status.
func (t *Timer) Status(ctx context.Context) (wire.TimerStatus, error) {
	var st wire.TimerStatus
	err := t.loop.Do(ctx, func(e *timer.Engine) { st = engineStatus(e) })
	return st, err
}

// PublishRemoteState publishes text into the remote state observable.
func (t *Timer) PublishRemoteState(ctx context.Context, text string) error {
	if t.remote.State == nil {
		return ErrNoRemote
	}
	return t.loop.Do(ctx, func(*timer.Engine) { t.remote.State.Publish(text) })
}

// PublishRemoteRemaining publishes v into the remote remaining observable.
func (t *Timer) PublishRemoteRemaining(ctx context.Context, v float64) error {
	if t.remote.Remaining == nil {
		return ErrNoRemote
	}
	return t.loop.Do(ctx, func(*timer.Engine) { t.remote.Remaining.Publish(v) })
}
