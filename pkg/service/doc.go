// Package service runs a ktimer device.
//
// DeviceService owns one timer.Engine per configured timer, each driven by
// its own scheduler.Loop. It exposes them over the transport server, pushes
// change and event notifications to subscribed connections and advertises
// the device over mDNS.
//
// Example usage:
//
//	cfg, _ := config.Load("device.yaml")
//	svc, err := service.NewDeviceService(service.DeviceConfig{Config: cfg})
//	if err != nil {
//		return err
//	}
//	if err := svc.Start(ctx); err != nil {
//		return err
//	}
//	defer svc.Stop()
//
// # Requests
//
// Requests are handled on the reading connection's goroutine and applied to
// the target engine with scheduler.Loop.Do, so responses on one connection
// are sent in request order. Every response carries the status of the
// affected timers as seen right after the request was applied.
//
// # Remote observations
//
// RemoteState and RemoteRemaining requests are published into the timer's
// inbound entities. The engine reacts through the bindings created at
// construction, so a hub pushing over the network and a local caller using
// Timer.PublishRemoteState take the same path.
//
// # Notifications
//
// Engine observers run on the loop goroutine. They hand encoded
// notifications to the NotificationDispatcher, which queues them per
// connection and writes them from a separate goroutine so a slow peer never
// stalls a timer.
package service
