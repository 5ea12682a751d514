package wire

// Status represents a response status code.
type Status uint8

const (
	// StatusSuccess indicates the request was applied (or was a valid no-op).
	StatusSuccess Status = 0

	// StatusInvalidOperation indicates the operation is unknown.
	StatusInvalidOperation Status = 1

	// StatusUnknownTimer indicates no timer has the requested ID.
	StatusUnknownTimer Status = 2

	// StatusInvalidPayload indicates a required field is missing.
	StatusInvalidPayload Status = 3

	// StatusUnavailable indicates the timer has no binding for the remote
	// channel the request targets.
	StatusUnavailable Status = 4

	// StatusBusy indicates the device is shutting down.
	StatusBusy Status = 5
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusInvalidOperation:
		return "INVALID_OPERATION"
	case StatusUnknownTimer:
		return "UNKNOWN_TIMER"
	case StatusInvalidPayload:
		return "INVALID_PAYLOAD"
	case StatusUnavailable:
		return "UNAVAILABLE"
	case StatusBusy:
		return "BUSY"
	default:
		return "UNKNOWN"
	}
}

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}
