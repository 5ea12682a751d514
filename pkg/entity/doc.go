// Package entity provides sensor-style observables: a numeric Sensor, a
// TextSensor and a BinarySensor. Each keeps its last published state and
// notifies subscribers synchronously on Publish.
//
// A timer publishes its snapshots into an Entities group, and a hub pushes
// remote observations into a Sensor or TextSensor bound to the timer's
// reconciliation handlers.
//
// Entities are safe for concurrent use, but subscribers run on the
// publishing goroutine; publish from the goroutine that owns the engine.
package entity
