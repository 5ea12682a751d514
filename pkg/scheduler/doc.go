// Package scheduler runs a timer engine on a single goroutine.
//
// A Loop owns one timer.Engine. It ticks the engine at the engine's tick
// interval and executes submitted closures in between ticks, so commands,
// remote observations and ticks never overlap. Everything that touches the
// engine after Run has started must go through Do or Post.
package scheduler
