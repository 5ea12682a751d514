package discovery

import (
	"context"
	"time"
)

// Advertiser publishes a device on the local network.
type Advertiser interface {
	// Advertise starts advertising the device, replacing any previous
	// advertisement.
	Advertise(ctx context.Context, info *DeviceInfo) error

	// Update replaces the TXT records of the running advertisement.
	Update(info *DeviceInfo) error

	// Stop withdraws the advertisement. Safe to call when not advertising.
	Stop() error
}

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL. Default: 120 seconds.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{TTL: 120 * time.Second}
}
