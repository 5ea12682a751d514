package timer

// EventKind identifies a named timer event.
type EventKind uint8

const (
	EventStarted EventKind = iota + 1
	EventPaused
	EventResumed
	EventCancelled
	EventFinished
	EventTick
)

// String returns the event name as used in configuration and on the wire.
func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	case EventCancelled:
		return "cancelled"
	case EventFinished:
		return "finished"
	case EventTick:
		return "tick"
	default:
		return "unknown"
	}
}

// ParseEventKind maps an event name back to its kind.
func ParseEventKind(name string) (EventKind, bool) {
	for k := EventStarted; k <= EventTick; k++ {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

// Event is delivered to observers registered with On.
type Event struct {
	Kind EventKind

	// FromRemote is true when a remote observation caused the event.
	// Always false for EventFinished and EventTick.
	FromRemote bool

	// Remaining is the remaining seconds after a tick (EventTick only).
	Remaining int
}

// observers holds callbacks in registration order.
type observers struct {
	change []func(Snapshot)
	events map[EventKind][]func(Event)
	all    []func(Event)
}

func (o *observers) fire(ev Event) {
	for _, fn := range o.events[ev.Kind] {
		fn(ev)
	}
	for _, fn := range o.all {
		fn(ev)
	}
}

func (o *observers) publish(s Snapshot) {
	for _, fn := range o.change {
		fn(s)
	}
}
