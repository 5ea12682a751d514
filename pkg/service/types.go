package service

import (
	"errors"
	"log/slog"
	"time"

	"github.com/ktimer/ktimer-go/pkg/config"
	"github.com/ktimer/ktimer-go/pkg/log"
	"github.com/ktimer/ktimer-go/pkg/scheduler"
	"github.com/ktimer/ktimer-go/pkg/timer"
)

// Service errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrAlreadyStarted = errors.New("service already started")
	ErrStopped        = errors.New("service stopped")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrUnknownTimer   = errors.New("unknown timer")
	ErrNoRemote       = errors.New("remote observable not configured")
)

// ServiceState represents the service state.
type ServiceState uint8

const (
	// StateIdle - service created but not started.
	StateIdle ServiceState = iota

	// StateStarting - service is starting up.
	StateStarting

	// StateRunning - service is running normally.
	StateRunning

	// StateStopping - service is shutting down.
	StateStopping

	// StateStopped - service has stopped. It cannot be started again.
	StateStopped
)

// String returns the state name.
func (s ServiceState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateStarting:
		return "STARTING"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// DeviceConfig configures a DeviceService.
type DeviceConfig struct {
	// Config is the loaded device configuration. Required.
	Config *config.Config

	// IdleTimeout closes connections that send nothing for this long.
	// Zero keeps idle connections open.
	IdleTimeout time.Duration

	// NotificationQueueSize bounds the per-connection notification queue
	// (default DefaultNotificationQueueSize).
	NotificationQueueSize int

	// Clock overrides the engines' clock (tests).
	Clock timer.Clock

	// LoopOptions are passed to every scheduler.Loop.
	LoopOptions []scheduler.Option

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger receives capture events from every layer (optional).
	ProtocolLogger log.Logger
}

// Validate checks if the device config is valid.
func (c *DeviceConfig) Validate() error {
	if c.Config == nil {
		return ErrInvalidConfig
	}
	if err := c.Config.Validate(); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	if len(c.Config.Timers) == 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Event types for service callbacks.
type EventType uint8

const (
	// EventConnected - connection accepted.
	EventConnected EventType = iota

	// EventDisconnected - connection closed.
	EventDisconnected

	// EventTimerChanged - a timer published a new snapshot.
	EventTimerChanged

	// EventTimerEvent - a timer fired a named event.
	EventTimerEvent

	// EventError - a connection or advertising error.
	EventError
)

// String returns the event type name.
func (e EventType) String() string {
	switch e {
	case EventConnected:
		return "CONNECTED"
	case EventDisconnected:
		return "DISCONNECTED"
	case EventTimerChanged:
		return "TIMER_CHANGED"
	case EventTimerEvent:
		return "TIMER_EVENT"
	case EventError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event represents a service event.
type Event struct {
	// Type is the event type.
	Type EventType

	// ConnectionID is set for connection events.
	ConnectionID string

	// RemoteAddr is the peer address for connection events.
	RemoteAddr string

	// TimerID is set for timer events.
	TimerID string

	// Snapshot is set for EventTimerChanged.
	Snapshot *timer.Snapshot

	// TimerEvent is set for EventTimerEvent.
	TimerEvent *timer.Event

	// Error is set if the event is an error.
	Error error
}

// EventHandler handles service events. Timer events are delivered on the
// timer's loop goroutine; handlers must not block and must not call
// Timer.Do on the same timer.
type EventHandler func(Event)
