package wire

import (
	"errors"
	"fmt"
)

// NotificationMessageID is reserved to indicate a notification message.
const NotificationMessageID uint32 = 0

// Request validation errors.
var (
	ErrReservedMessageID = errors.New("messageId 0 is reserved for notifications")
	ErrInvalidOperation  = errors.New("invalid operation")
	ErrMissingTimerID    = errors.New("timer ID required")
	ErrMissingField      = errors.New("required field missing")
)

// Request is sent by a client or hub to the device.
//
// CBOR encoding:
//
//	{
//	  1: messageId,  // uint32, non-zero
//	  2: operation,  // uint8
//	  3: timerId,    // string (omitted for List/Subscribe-all)
//	  4: seconds,    // int (Start, SetSeconds, SetMaxDuration)
//	  5: text,       // string (RemoteState)
//	  6: value       // float (RemoteRemaining)
//	}
type Request struct {
	MessageID uint32    `cbor:"1,keyasint"`
	Operation Operation `cbor:"2,keyasint"`
	TimerID   string    `cbor:"3,keyasint,omitempty"`
	Seconds   *int      `cbor:"4,keyasint,omitempty"`
	Text      string    `cbor:"5,keyasint,omitempty"`
	Value     *float64  `cbor:"6,keyasint,omitempty"`
}

// Validate checks if the request is well formed.
func (r *Request) Validate() error {
	if r.MessageID == NotificationMessageID {
		return ErrReservedMessageID
	}
	if !r.Operation.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidOperation, r.Operation)
	}
	if r.Operation.NeedsTimer() && r.TimerID == "" {
		return fmt.Errorf("%w for %s", ErrMissingTimerID, r.Operation)
	}
	switch r.Operation {
	case OpSetSeconds, OpSetMaxDuration:
		if r.Seconds == nil {
			return fmt.Errorf("%w: seconds", ErrMissingField)
		}
	case OpRemoteState:
		if r.Text == "" {
			return fmt.Errorf("%w: text", ErrMissingField)
		}
	case OpRemoteRemaining:
		if r.Value == nil {
			return fmt.Errorf("%w: value", ErrMissingField)
		}
	}
	return nil
}

// Response answers a Request.
//
// CBOR encoding:
//
//	{
//	  1: messageId,  // uint32: matches request
//	  2: status,     // uint8: 0=success, or error code
//	  3: timers,     // array of TimerStatus (Status returns one, List all)
//	  4: message     // optional diagnostic text
//	}
type Response struct {
	MessageID uint32        `cbor:"1,keyasint"`
	Status    Status        `cbor:"2,keyasint"`
	Timers    []TimerStatus `cbor:"3,keyasint,omitempty"`
	Message   string        `cbor:"4,keyasint,omitempty"`
}

// IsSuccess returns true if the response indicates success.
func (r *Response) IsSuccess() bool {
	return r.Status.IsSuccess()
}

// TimerStatus is the published view of one timer.
type TimerStatus struct {
	TimerID     string `cbor:"1,keyasint"`
	Name        string `cbor:"2,keyasint,omitempty"`
	State       string `cbor:"3,keyasint"`
	Status      string `cbor:"4,keyasint"`
	Remaining   int    `cbor:"5,keyasint"`
	Set         int    `cbor:"6,keyasint"`
	Running     bool   `cbor:"7,keyasint"`
	Paused      bool   `cbor:"8,keyasint"`
	Overdue     bool   `cbor:"9,keyasint"`
	Synced      bool   `cbor:"10,keyasint"`
	MaxDuration uint32 `cbor:"11,keyasint"`
}

// NotificationKind distinguishes snapshot changes from named timer events.
type NotificationKind uint8

const (
	// NotifyChange carries a fresh TimerStatus after a state mutation.
	NotifyChange NotificationKind = 1

	// NotifyEvent carries a named timer event (started, finished, tick ...).
	NotifyEvent NotificationKind = 2
)

// String returns the notification kind name.
func (k NotificationKind) String() string {
	switch k {
	case NotifyChange:
		return "CHANGE"
	case NotifyEvent:
		return "EVENT"
	default:
		return "UNKNOWN"
	}
}

// EventInfo describes a named timer event.
type EventInfo struct {
	Name       string `cbor:"1,keyasint"`
	FromRemote bool   `cbor:"2,keyasint,omitempty"`
	Remaining  int    `cbor:"3,keyasint,omitempty"`
}

// Notification is pushed by the device to subscribed connections.
//
// CBOR encoding:
//
//	{
//	  1: 0,         // messageId 0 = notification
//	  2: kind,      // uint8
//	  3: timerId,   // string
//	  4: status,    // TimerStatus (kind CHANGE)
//	  5: event      // EventInfo (kind EVENT)
//	}
type Notification struct {
	Kind    NotificationKind `cbor:"2,keyasint"`
	TimerID string           `cbor:"3,keyasint"`
	Status  *TimerStatus     `cbor:"4,keyasint,omitempty"`
	Event   *EventInfo       `cbor:"5,keyasint,omitempty"`
}

// ControlMessage represents a transport-level control message.
// It uses keys 10 and 11 so it never collides with request/response keys.
type ControlMessage struct {
	Type     ControlMessageType `cbor:"10,keyasint"`
	Sequence uint32             `cbor:"11,keyasint,omitempty"`
}

// ControlMessageType represents the type of control message.
type ControlMessageType uint8

const (
	// ControlPing is sent to check connection liveness.
	ControlPing ControlMessageType = 1

	// ControlPong is the response to a ping.
	ControlPong ControlMessageType = 2

	// ControlClose initiates graceful connection close.
	ControlClose ControlMessageType = 3
)

// String returns the control message type name.
func (c ControlMessageType) String() string {
	switch c {
	case ControlPing:
		return "PING"
	case ControlPong:
		return "PONG"
	case ControlClose:
		return "CLOSE"
	default:
		return "UNKNOWN"
	}
}
