package discovery

import (
	"context"
	"time"
)

// Browser finds devices on the local network.
type Browser interface {
	// Browse streams devices as they are found. The channel is closed when
	// ctx is done.
	Browse(ctx context.Context) (<-chan *DeviceService, error)

	// FindAll collects devices until the browse timeout elapses.
	FindAll(ctx context.Context) ([]*DeviceService, error)

	// FindByID returns the first device advertising id.
	FindByID(ctx context.Context, id string) (*DeviceService, error)
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// BrowseTimeout bounds FindAll and FindByID. Default: 5 seconds.
	BrowseTimeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{BrowseTimeout: BrowseTimeout}
}

// collect drains in until ctx is done.
func collect(ctx context.Context, in <-chan *DeviceService) []*DeviceService {
	var out []*DeviceService
	for {
		select {
		case svc, ok := <-in:
			if !ok {
				return out
			}
			out = append(out, svc)
		case <-ctx.Done():
			return out
		}
	}
}
