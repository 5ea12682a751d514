package timer

// State is the run state of a timer.
type State uint8

const (
	// StateStopped means no countdown is active. Initial state.
	StateStopped State = iota

	// StateRunning means the countdown decrements on every tick.
	StateRunning

	// StatePaused means the countdown is frozen.
	StatePaused
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "STOPPED"
	case StateRunning:
		return "RUNNING"
	case StatePaused:
		return "PAUSED"
	default:
		return "UNKNOWN"
	}
}

// Published status strings.
const (
	StatusStopped = "stopped"
	StatusPaused  = "paused"
	StatusOverdue = "overdue"
	StatusRunning = "running"
)

// statusOf derives the published status. Overdue wins over running.
func statusOf(state State, overdue bool) string {
	switch state {
	case StateStopped:
		return StatusStopped
	case StatePaused:
		return StatusPaused
	}
	if overdue {
		return StatusOverdue
	}
	return StatusRunning
}

// Snapshot is the published view of an engine after a mutation.
type Snapshot struct {
	Remaining int
	Set       int
	Status    string
	State     State
	Running   bool
	Paused    bool
	Overdue   bool
	Synced    bool
}
