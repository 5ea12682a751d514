// Package scenario runs YAML-described timer scenarios against an engine
// driven by a fake clock.
//
// A scenario configures one timer and lists steps. Each step performs an
// action and may check expectations against the engine right after it:
//
//	id: throttle-window
//	name: Remote remaining is throttled while running
//	config:
//	  sync_interval: 5s
//	  remote_remaining: true
//	steps:
//	  - action: start
//	    params: {seconds: 100}
//	  - action: remote_remaining
//	    params: {value: 80}
//	    expect: {remaining: 80, remote_outcome: APPLIED}
//	  - action: advance
//	    params: {duration: 100ms}
//	  - action: remote_remaining
//	    params: {value: 70}
//	    expect: {remaining: 80, remote_outcome: THROTTLED}
//
// The events expectation lists what the engine emitted during the step, in
// order: "change" for a snapshot, otherwise the event name, suffixed with
// ":remote" when a remote observation caused it.
package scenario
