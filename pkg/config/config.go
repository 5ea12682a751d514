package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ktimer/ktimer-go/pkg/log"
	"github.com/ktimer/ktimer-go/pkg/timer"
)

// DefaultListen is the default API listen address.
const DefaultListen = ":6055"

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config is a device configuration.
type Config struct {
	Device      DeviceConfig  `yaml:"device"`
	Listen      string        `yaml:"listen"`
	MDNS        MDNSConfig    `yaml:"mdns"`
	ProtocolLog string        `yaml:"protocol_log,omitempty"`
	Timers      []TimerConfig `yaml:"timers"`
}

// DeviceConfig identifies the device.
type DeviceConfig struct {
	// ID defaults to a random UUID.
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// MDNSConfig controls service advertising.
type MDNSConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Interface string `yaml:"interface,omitempty"`
}

// TimerConfig configures one timer.
type TimerConfig struct {
	ID                string   `yaml:"id"`
	Name              string   `yaml:"name,omitempty"`
	TickInterval      Duration `yaml:"tick_interval"`
	SyncInterval      Duration `yaml:"sync_interval"`
	MaxDuration       Duration `yaml:"max_duration"`
	InitialSetSeconds int      `yaml:"initial_set_seconds"`
	EnableRemoteSync  bool     `yaml:"enable_remote_sync"`

	// RemoteState and RemoteRemaining create the inbound observables a hub
	// pushes its timer state and remaining seconds into.
	RemoteState     bool `yaml:"remote_state"`
	RemoteRemaining bool `yaml:"remote_remaining"`
}

// Default returns a configuration with one default timer.
func Default() *Config {
	return &Config{
		Listen: DefaultListen,
		MDNS:   MDNSConfig{Enabled: true},
		Timers: []TimerConfig{DefaultTimer("timer")},
	}
}

// DefaultTimer returns the defaults for a timer.
func DefaultTimer(id string) TimerConfig {
	return TimerConfig{
		ID:               id,
		TickInterval:     Duration(timer.DefaultTickInterval),
		SyncInterval:     Duration(timer.DefaultSyncInterval),
		MaxDuration:      Duration(timer.DefaultMaxDurationSeconds * time.Second),
		EnableRemoteSync: true,
	}
}

// UnmarshalYAML fills omitted fields from DefaultTimer.
func (t *TimerConfig) UnmarshalYAML(n *yaml.Node) error {
	type plain TimerConfig
	p := plain(DefaultTimer(""))
	if err := n.Decode(&p); err != nil {
		return err
	}
	*t = TimerConfig(p)
	return nil
}

// EngineConfig converts the timer settings into a timer.Config.
func (t TimerConfig) EngineConfig(logger log.Logger) timer.Config {
	cfg := timer.DefaultConfig(t.ID)
	cfg.Name = t.Name
	cfg.TickInterval = t.TickInterval.Std()
	cfg.SyncInterval = t.SyncInterval.Std()
	cfg.MaxDurationSeconds = uint32(t.MaxDuration.Seconds())
	cfg.InitialSetSeconds = t.InitialSetSeconds
	cfg.EnableRemoteSync = t.EnableRemoteSync
	cfg.Logger = logger
	return cfg
}

// Parse parses YAML, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	cfg.Timers = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &LoadError{Message: "failed to parse YAML", Cause: err}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, &LoadError{Message: err.Error(), Cause: err}
	}
	return cfg, nil
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}
	cfg, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{File: path, Message: err.Error(), Cause: err}
	}
	return cfg, nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c *Config) applyDefaults() {
	if c.Device.ID == "" {
		c.Device.ID = uuid.NewString()
	}
	if c.Device.Name == "" {
		c.Device.Name = "ktimer-" + c.Device.ID[:min(8, len(c.Device.ID))]
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if len(c.Timers) == 0 {
		c.Timers = []TimerConfig{DefaultTimer("timer")}
	}
	for i := range c.Timers {
		if c.Timers[i].ID == "" {
			c.Timers[i].ID = uuid.NewString()
		}
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Timers))
	for i, t := range c.Timers {
		where := "timers[" + strconv.Itoa(i) + "]"
		switch {
		case t.ID == "":
			return fmt.Errorf("%w: %s: id is required", ErrInvalid, where)
		case seen[t.ID]:
			return fmt.Errorf("%w: %s: duplicate id %q", ErrInvalid, where, t.ID)
		case t.TickInterval <= 0:
			return fmt.Errorf("%w: %s: tick_interval must be positive", ErrInvalid, where)
		case t.SyncInterval <= 0:
			return fmt.Errorf("%w: %s: sync_interval must be positive", ErrInvalid, where)
		case t.MaxDuration < 0 || t.MaxDuration.Seconds() > math.MaxUint32:
			return fmt.Errorf("%w: %s: max_duration out of range", ErrInvalid, where)
		case t.InitialSetSeconds < 0:
			return fmt.Errorf("%w: %s: initial_set_seconds must not be negative", ErrInvalid, where)
		}
		seen[t.ID] = true
	}
	return nil
}

// Timer returns the timer configuration with the given ID.
func (c *Config) Timer(id string) (TimerConfig, bool) {
	for _, t := range c.Timers {
		if t.ID == id {
			return t, true
		}
	}
	return TimerConfig{}, false
}
