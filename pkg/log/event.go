package log

import (
	"time"

	"github.com/ktimer/ktimer-go/pkg/wire"
)

// Event is a captured event from any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// TimerID identifies the timer the event belongs to (engine and wire layers).
	TimerID string `cbor:"2,keyasint,omitempty"`

	// ConnectionID identifies the network connection (transport and wire layers).
	ConnectionID string `cbor:"3,keyasint,omitempty"`

	// Direction indicates message flow.
	Direction Direction `cbor:"4,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"5,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"6,keyasint"`

	// Origin tells whether the engine acted on a local or a remote trigger.
	Origin Origin `cbor:"7,keyasint,omitempty"`

	// RemoteAddr is the peer address (IP:port).
	RemoteAddr string `cbor:"8,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"`
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	ControlMsg  *ControlMsgEvent  `cbor:"13,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"`
	Command     *CommandEvent     `cbor:"15,keyasint,omitempty"`
	Remote      *RemoteEvent      `cbor:"16,keyasint,omitempty"`
	Tick        *TickEvent        `cbor:"17,keyasint,omitempty"`
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates where the event was captured.
type Layer uint8

const (
	// LayerTransport is the framing layer (raw bytes).
	LayerTransport Layer = 0
	// LayerWire is the message encoding layer (decoded CBOR).
	LayerWire Layer = 1
	// LayerEngine is the timer engine.
	LayerEngine Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerEngine:
		return "ENGINE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a protocol message or frame.
	CategoryMessage Category = 0
	// CategoryControl indicates a control message (ping/pong/close).
	CategoryControl Category = 1
	// CategoryState indicates a state change (timer or connection).
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
	// CategoryCommand indicates a command handed to an engine.
	CategoryCommand Category = 4
	// CategoryRemote indicates a remote observation reaching an engine.
	CategoryRemote Category = 5
	// CategoryTick indicates a countdown tick.
	CategoryTick Category = 6
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryControl:
		return "CONTROL"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	case CategoryCommand:
		return "COMMAND"
	case CategoryRemote:
		return "REMOTE"
	case CategoryTick:
		return "TICK"
	default:
		return "UNKNOWN"
	}
}

// Origin tells who triggered an engine action.
type Origin uint8

const (
	// OriginLocal is a local command or the local tick.
	OriginLocal Origin = 0
	// OriginRemote is a remote observation.
	OriginRemote Origin = 1
)

// String returns the origin name.
func (o Origin) String() string {
	switch o {
	case OriginLocal:
		return "LOCAL"
	case OriginRemote:
		return "REMOTE"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw frame data at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes (including length prefix).
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MessageEvent captures a decoded message at the wire layer.
type MessageEvent struct {
	// Type distinguishes request/response/notification.
	Type MessageType `cbor:"1,keyasint"`

	// MessageID correlates request/response pairs (0 for notifications).
	MessageID uint32 `cbor:"2,keyasint"`

	// Operation is set for requests.
	Operation *wire.Operation `cbor:"3,keyasint,omitempty"`

	// Status is set for responses.
	Status *wire.Status `cbor:"4,keyasint,omitempty"`

	// ProcessingTime is the duration from request receipt to response send.
	ProcessingTime *time.Duration `cbor:"5,keyasint,omitempty"`
}

// MessageType distinguishes request/response/notification.
type MessageType uint8

const (
	// MessageTypeRequest indicates a request message.
	MessageTypeRequest MessageType = 0
	// MessageTypeResponse indicates a response message.
	MessageTypeResponse MessageType = 1
	// MessageTypeNotification indicates a notification message.
	MessageTypeNotification MessageType = 2
)

// String returns the message type name.
func (m MessageType) String() string {
	switch m {
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeResponse:
		return "RESPONSE"
	case MessageTypeNotification:
		return "NOTIFICATION"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures timer and connection state changes.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (the command or observation that caused it).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityTimer indicates a timer engine state change.
	StateEntityTimer StateEntity = 0
	// StateEntityConnection indicates a connection state change.
	StateEntityConnection StateEntity = 1
	// StateEntityService indicates a device service lifecycle change.
	StateEntityService StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityTimer:
		return "TIMER"
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityService:
		return "SERVICE"
	default:
		return "UNKNOWN"
	}
}

// ControlMsgEvent captures transport-level control messages.
type ControlMsgEvent struct {
	// Type of control message.
	Type ControlMsgType `cbor:"1,keyasint"`
}

// ControlMsgType indicates the type of control message.
type ControlMsgType uint8

const (
	// ControlMsgPing indicates a ping message.
	ControlMsgPing ControlMsgType = 0
	// ControlMsgPong indicates a pong message.
	ControlMsgPong ControlMsgType = 1
	// ControlMsgClose indicates a close message.
	ControlMsgClose ControlMsgType = 2
)

// String returns the control message type name.
func (c ControlMsgType) String() string {
	switch c {
	case ControlMsgPing:
		return "PING"
	case ControlMsgPong:
		return "PONG"
	case ControlMsgClose:
		return "CLOSE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}

// CommandEvent captures a command applied to an engine.
type CommandEvent struct {
	// Name is the command (start, pause, resume, cancel, set_seconds, set_max_duration).
	Name string `cbor:"1,keyasint"`

	// Seconds is the command argument, if any.
	Seconds *int `cbor:"2,keyasint,omitempty"`

	// Applied is false when the command was a no-op in the current state.
	Applied bool `cbor:"3,keyasint"`
}

// RemoteEvent captures a remote observation and what the engine did with it.
type RemoteEvent struct {
	// Channel is the observation channel.
	Channel RemoteChannel `cbor:"1,keyasint"`

	// Text is the observed state for ChannelState.
	Text string `cbor:"2,keyasint,omitempty"`

	// Value is the observed remaining seconds for ChannelRemaining.
	Value float64 `cbor:"3,keyasint,omitempty"`

	// Outcome is what the engine did.
	Outcome RemoteOutcome `cbor:"4,keyasint"`
}

// RemoteChannel identifies a remote observation channel.
type RemoteChannel uint8

const (
	// ChannelState is the remote textual state (idle/paused/active).
	ChannelState RemoteChannel = 0
	// ChannelRemaining is the remote remaining-seconds value.
	ChannelRemaining RemoteChannel = 1
)

// String returns the channel name.
func (c RemoteChannel) String() string {
	switch c {
	case ChannelState:
		return "STATE"
	case ChannelRemaining:
		return "REMAINING"
	default:
		return "UNKNOWN"
	}
}

// RemoteOutcome is what the engine did with a remote observation.
type RemoteOutcome uint8

const (
	// OutcomeApplied means the observation changed local state.
	OutcomeApplied RemoteOutcome = 0
	// OutcomeIgnored means the observation was recognised but needed no action,
	// or was noise / unrecognised.
	OutcomeIgnored RemoteOutcome = 1
	// OutcomeThrottled means a remaining update arrived inside the sync window.
	OutcomeThrottled RemoteOutcome = 2
	// OutcomeDisabled means remote sync is turned off for the timer.
	OutcomeDisabled RemoteOutcome = 3
)

// String returns the outcome name.
func (o RemoteOutcome) String() string {
	switch o {
	case OutcomeApplied:
		return "APPLIED"
	case OutcomeIgnored:
		return "IGNORED"
	case OutcomeThrottled:
		return "THROTTLED"
	case OutcomeDisabled:
		return "DISABLED"
	default:
		return "UNKNOWN"
	}
}

// TickEvent captures one countdown step.
type TickEvent struct {
	// Remaining is the remaining seconds after the tick.
	Remaining int `cbor:"1,keyasint"`

	// Overdue is the overdue flag after the tick.
	Overdue bool `cbor:"2,keyasint,omitempty"`
}
