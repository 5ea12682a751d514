package transport

import (
	"context"
	"sync"
	"time"
)

// Keep-alive defaults.
const (
	DefaultPingInterval   = 15 * time.Second
	DefaultPongTimeout    = 5 * time.Second
	DefaultMaxMissedPongs = 3
)

// KeepAliveConfig configures a KeepAlive.
type KeepAliveConfig struct {
	PingInterval   time.Duration
	PongTimeout    time.Duration
	MaxMissedPongs int
}

// DefaultKeepAliveConfig returns the default keep-alive configuration.
func DefaultKeepAliveConfig() KeepAliveConfig {
	return KeepAliveConfig{
		PingInterval:   DefaultPingInterval,
		PongTimeout:    DefaultPongTimeout,
		MaxMissedPongs: DefaultMaxMissedPongs,
	}
}

// DetectionDelay is the longest time a dead peer can go unnoticed.
func (c KeepAliveConfig) DetectionDelay() time.Duration {
	return c.PingInterval*time.Duration(c.MaxMissedPongs) + c.PongTimeout
}

// KeepAlive sends periodic pings and reports a timeout after too many
// unanswered ones. Feed received pongs to PongReceived.
type KeepAlive struct {
	config    KeepAliveConfig
	sendPing  func(seq uint32) error
	onTimeout func()

	mu       sync.Mutex
	seq      uint32
	pending  bool
	sentAt   time.Time
	missed   int
	latency  time.Duration
	pongCh   chan uint32
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewKeepAlive creates a keep-alive. Zero config fields take defaults.
func NewKeepAlive(config KeepAliveConfig, sendPing func(seq uint32) error, onTimeout func()) *KeepAlive {
	def := DefaultKeepAliveConfig()
	if config.PingInterval <= 0 {
		config.PingInterval = def.PingInterval
	}
	if config.PongTimeout <= 0 {
		config.PongTimeout = def.PongTimeout
	}
	if config.MaxMissedPongs <= 0 {
		config.MaxMissedPongs = def.MaxMissedPongs
	}
	return &KeepAlive{
		config:    config,
		sendPing:  sendPing,
		onTimeout: onTimeout,
		pongCh:    make(chan uint32, 1),
		stopCh:    make(chan struct{}),
	}
}

// Run pings until ctx is done, Stop is called, or the peer times out.
func (ka *KeepAlive) Run(ctx context.Context) {
	ticker := time.NewTicker(ka.config.PingInterval)
	defer ticker.Stop()

	ka.ping()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ka.stopCh:
			return
		case seq := <-ka.pongCh:
			ka.pong(seq)
		case <-ticker.C:
			if ka.expired() {
				if ka.onTimeout != nil {
					ka.onTimeout()
				}
				return
			}
			ka.ping()
		}
	}
}

// Stop ends Run.
func (ka *KeepAlive) Stop() {
	ka.stopOnce.Do(func() { close(ka.stopCh) })
}

// PongReceived reports a pong from the peer.
func (ka *KeepAlive) PongReceived(seq uint32) {
	select {
	case ka.pongCh <- seq:
	default:
	}
}

// Latency returns the round trip of the last answered ping.
func (ka *KeepAlive) Latency() time.Duration {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	return ka.latency
}

// MissedPongs returns the number of consecutive unanswered pings.
func (ka *KeepAlive) MissedPongs() int {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	return ka.missed
}

func (ka *KeepAlive) ping() {
	ka.mu.Lock()
	ka.seq++
	seq := ka.seq
	ka.pending = true
	ka.sentAt = time.Now()
	ka.mu.Unlock()

	// A failed send counts as a missed pong on the next tick.
	_ = ka.sendPing(seq)
}

func (ka *KeepAlive) pong(seq uint32) {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	if !ka.pending || seq != ka.seq {
		return
	}
	ka.pending = false
	ka.missed = 0
	ka.latency = time.Since(ka.sentAt)
}

// expired counts an outstanding ping as missed and reports whether the
// limit is reached.
func (ka *KeepAlive) expired() bool {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	if ka.pending && time.Since(ka.sentAt) >= ka.config.PongTimeout {
		ka.pending = false
		ka.missed++
	}
	return ka.missed >= ka.config.MaxMissedPongs
}
