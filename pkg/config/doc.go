// Package config loads ktimer device configuration from YAML.
//
// Example:
//
//	device:
//	  name: Kitchen
//	listen: ":6055"
//	mdns:
//	  enabled: true
//	protocol_log: /var/log/ktimer/kitchen.klog
//	timers:
//	  - id: oven
//	    name: Oven
//	    max_duration: 2h
//	    initial_set_seconds: 600
//	    remote_state: true
//	    remote_remaining: true
//	  - id: eggs
//	    tick_interval: 1s
//	    sync_interval: 5s
//	    enable_remote_sync: false
//
// Omitted fields take the defaults of DefaultTimer and Default. Durations
// are Go duration strings ("1s", "2h30m") or plain integers in seconds.
package config
