package entity

import "github.com/ktimer/ktimer-go/pkg/timer"

// Entities groups the outbound sensors of one timer.
type Entities struct {
	Remaining *Sensor
	Set       *Sensor
	State     *TextSensor
	Running   *BinarySensor
	Paused    *BinarySensor
	Overdue   *BinarySensor
}

// NewEntities creates the outbound sensors, named after prefix.
func NewEntities(prefix string) *Entities {
	return &Entities{
		Remaining: NewSensor(prefix + "_remaining"),
		Set:       NewSensor(prefix + "_set"),
		State:     NewTextSensor(prefix + "_state"),
		Running:   NewBinarySensor(prefix + "_running"),
		Paused:    NewBinarySensor(prefix + "_paused"),
		Overdue:   NewBinarySensor(prefix + "_overdue"),
	}
}

// Update publishes a snapshot into every sensor.
func (e *Entities) Update(s timer.Snapshot) {
	e.Remaining.Publish(float64(s.Remaining))
	e.Set.Publish(float64(s.Set))
	e.State.Publish(s.Status)
	e.Running.Publish(s.Running)
	e.Paused.Publish(s.Paused)
	e.Overdue.Publish(s.Overdue)
}

// Bind publishes the engine's current snapshot and every later change.
func (e *Entities) Bind(engine *timer.Engine) {
	e.Update(engine.Snapshot())
	engine.OnChange(e.Update)
}

// Remote holds the inbound observables a hub pushes into.
type Remote struct {
	State     *TextSensor
	Remaining *Sensor
}

// NewRemote creates the requested inbound observables and binds them to
// engine. Either may be disabled; Remote fields stay nil for those.
func NewRemote(prefix string, engine *timer.Engine, state, remaining bool) *Remote {
	r := &Remote{}
	if state {
		r.State = NewTextSensor(prefix + "_remote_state")
		engine.BindRemoteState(r.State)
	}
	if remaining {
		r.Remaining = NewSensor(prefix + "_remote_remaining")
		engine.BindRemoteRemaining(r.Remaining)
	}
	return r
}

var (
	_ timer.RemoteText   = (*TextSensor)(nil)
	_ timer.RemoteNumber = (*Sensor)(nil)
)
