// Package log provides structured event capture for ktimer devices.
//
// This package defines the Logger interface and Event types for recording
// what a timer device does: engine transitions, commands, remote
// observations, and the network traffic that carries them. It is separate
// from operational logging (slog) - event capture is a complete,
// machine-readable trace for debugging and analysis.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.Logger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.Logger, _ = log.NewFileLogger("/var/log/ktimer/kitchen.klog")
//
//	// Both
//	cfg.Logger = log.NewMultiLogger(console, file)
//
// # Event Types
//
// Events are captured at three layers:
//   - Transport: raw frames, connection state, control messages
//   - Wire: decoded requests, responses and notifications
//   - Engine: timer state changes, commands, remote observations, ticks
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with the .klog extension.
// The ktimer-log CLI views, filters and exports them.
package log
