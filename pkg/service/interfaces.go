package service

// TimerRegistry resolves timers by ID. It is satisfied by *DeviceService.
type TimerRegistry interface {
	Timer(id string) (*Timer, bool)
	Timers() []*Timer
}

// Compile-time check: *DeviceService implements TimerRegistry.
var _ TimerRegistry = (*DeviceService)(nil)
