package wire

// Operation identifies what a request asks the device to do.
type Operation uint8

const (
	// OpList returns the status of every timer on the device.
	OpList Operation = 1

	// OpStatus returns the status of one timer.
	OpStatus Operation = 2

	// OpStart starts a timer. Without Seconds the timer's set duration is used.
	OpStart Operation = 3

	// OpPause pauses a running timer.
	OpPause Operation = 4

	// OpResume resumes a paused timer.
	OpResume Operation = 5

	// OpCancel stops a timer and clears its remaining time.
	OpCancel Operation = 6

	// OpSetSeconds changes the set duration without touching the run state.
	OpSetSeconds Operation = 7

	// OpSetMaxDuration changes the duration ceiling (0 = unlimited).
	OpSetMaxDuration Operation = 8

	// OpRemoteState delivers a remote textual state observation (idle/paused/active).
	OpRemoteState Operation = 9

	// OpRemoteRemaining delivers a remote remaining-seconds observation.
	OpRemoteRemaining Operation = 10

	// OpSubscribe registers the connection for notifications.
	// An empty TimerID subscribes to all timers.
	OpSubscribe Operation = 11

	// OpUnsubscribe removes a subscription.
	OpUnsubscribe Operation = 12
)

// String returns the operation name.
func (o Operation) String() string {
	switch o {
	case OpList:
		return "List"
	case OpStatus:
		return "Status"
	case OpStart:
		return "Start"
	case OpPause:
		return "Pause"
	case OpResume:
		return "Resume"
	case OpCancel:
		return "Cancel"
	case OpSetSeconds:
		return "SetSeconds"
	case OpSetMaxDuration:
		return "SetMaxDuration"
	case OpRemoteState:
		return "RemoteState"
	case OpRemoteRemaining:
		return "RemoteRemaining"
	case OpSubscribe:
		return "Subscribe"
	case OpUnsubscribe:
		return "Unsubscribe"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the operation is known.
func (o Operation) IsValid() bool {
	return o >= OpList && o <= OpUnsubscribe
}

// NeedsTimer returns true if the operation must name a timer.
func (o Operation) NeedsTimer() bool {
	switch o {
	case OpList, OpSubscribe, OpUnsubscribe:
		return false
	default:
		return true
	}
}

// ParseOperation maps a CLI-style name ("start", "remote-state") to an Operation.
func ParseOperation(name string) (Operation, bool) {
	switch name {
	case "list":
		return OpList, true
	case "status":
		return OpStatus, true
	case "start":
		return OpStart, true
	case "pause":
		return OpPause, true
	case "resume":
		return OpResume, true
	case "cancel":
		return OpCancel, true
	case "set", "set-seconds":
		return OpSetSeconds, true
	case "max", "set-max-duration":
		return OpSetMaxDuration, true
	case "remote-state":
		return OpRemoteState, true
	case "remote-remaining":
		return OpRemoteRemaining, true
	case "subscribe", "watch":
		return OpSubscribe, true
	case "unsubscribe":
		return OpUnsubscribe, true
	default:
		return 0, false
	}
}
