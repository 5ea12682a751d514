package discovery

import (
	"errors"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceType is the mDNS service type of a ktimer device.
	ServiceType = "_ktimer._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the default API port.
	DefaultPort = 6055
)

// TXT record keys.
const (
	TXTKeyID      = "id"
	TXTKeyName    = "name"
	TXTKeyTimers  = "timers"
	TXTKeyVersion = "ver"
)

// Limits and timing.
const (
	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63

	// MaxTXTValueLen keeps a key=value pair inside one TXT string.
	MaxTXTValueLen = 200

	// BrowseTimeout is the default timeout for FindAll and FindByID.
	BrowseTimeout = 5 * time.Second
)

// Discovery errors.
var (
	ErrNotAdvertising  = errors.New("not advertising")
	ErrNotFound        = errors.New("device not found")
	ErrMissingRequired = errors.New("missing required TXT field")
	ErrInvalidName     = errors.New("invalid instance name")
)

// DeviceInfo is what a device advertises.
type DeviceInfo struct {
	ID      string
	Name    string
	Timers  []string
	Version string
	Port    uint16
}

// InstanceName returns the mDNS instance name: the display name, or the ID
// when no name is set, truncated to the DNS label limit.
func (d *DeviceInfo) InstanceName() string {
	name := d.Name
	if name == "" {
		name = d.ID
	}
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}
	return name
}

// DeviceService is a device found by browsing.
type DeviceService struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string

	DeviceInfo
}

// Address returns host:port for the first known address, falling back to
// the advertised host name.
func (s *DeviceService) Address() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return joinHostPort(host, s.Port)
}
