package timer

import (
	"time"

	"github.com/ktimer/ktimer-go/pkg/log"
)

// Defaults for Config.
const (
	DefaultTickInterval       = time.Second
	DefaultSyncInterval       = 5 * time.Second
	DefaultMaxDurationSeconds = 7200
)

// Config configures an Engine.
//
// Start from DefaultConfig: the zero values of MaxDurationSeconds and
// EnableRemoteSync are meaningful (unlimited, disabled) and are kept as given.
type Config struct {
	// ID identifies the timer in logs and on the wire.
	ID string

	// Name is a display name. Defaults to ID.
	Name string

	// TickInterval is how often the scheduler calls Tick. Each tick
	// decrements one second regardless of this value.
	TickInterval time.Duration

	// SyncInterval is the minimum time between accepted remote remaining
	// corrections while the timer is active.
	SyncInterval time.Duration

	// MaxDurationSeconds caps the set duration. Zero means unlimited.
	MaxDurationSeconds uint32

	// InitialSetSeconds is the set duration at creation, clamped.
	InitialSetSeconds int

	// EnableRemoteSync turns remote reconciliation on.
	EnableRemoteSync bool

	// Logger receives captured events. Nil disables capture.
	Logger log.Logger

	// Clock is used for the sync throttle. Nil means SystemClock.
	Clock Clock
}

// DefaultConfig returns the default configuration for a timer with the given ID.
func DefaultConfig(id string) Config {
	return Config{
		ID:                 id,
		TickInterval:       DefaultTickInterval,
		SyncInterval:       DefaultSyncInterval,
		MaxDurationSeconds: DefaultMaxDurationSeconds,
		EnableRemoteSync:   true,
	}
}

// withDefaults fills the fields whose zero value is not usable.
func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = c.ID
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.SyncInterval <= 0 {
		c.SyncInterval = DefaultSyncInterval
	}
	if c.Clock == nil {
		c.Clock = SystemClock
	}
	c.Logger = log.OrNoop(c.Logger)
	return c
}

// clampSeconds bounds x to [0, max], or [0, inf) when max is zero.
func clampSeconds(x int, max uint32) int {
	if x < 0 {
		return 0
	}
	if max > 0 && uint64(x) > uint64(max) {
		return int(max)
	}
	return x
}
