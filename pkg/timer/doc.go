// Package timer implements the countdown timer engine for ktimer devices.
//
// An Engine is a small state machine (stopped, running, paused) that owns a
// set duration, the remaining seconds, an overdue flag and a synced flag. It
// is driven by three independent inputs:
//
//   - a periodic tick (Tick), normally once per second
//   - direct commands (Start, Pause, Resume, Cancel, SetSeconds)
//   - remote observations from a hub (HandleRemoteState, HandleRemoteRemaining)
//
// After every mutation the engine publishes a Snapshot to its change
// observers, and it fires named events (started, paused, resumed, cancelled,
// finished, tick) to observers registered with On.
//
// # Remote Reconciliation
//
// A hub may run its own copy of the timer and report it as a textual state
// ("idle", "paused", "active") and/or a remaining-seconds number. The remote
// copy is advisory: text observations drive coarse transitions, numeric
// observations correct the local remaining time at most once per sync
// interval so they do not fight the local tick.
//
// # Invalid Input
//
// The engine never returns errors. Durations are clamped to
// [0, MaxDurationSeconds], commands that do not apply in the current state
// are ignored, unrecognised remote states and remaining values of 0.5 or
// less are dropped.
//
// # Concurrency
//
// An Engine is not safe for concurrent use. All calls, including the
// callbacks of bound remote observables, must come from one goroutine; see
// package scheduler for the loop that provides this.
package timer
