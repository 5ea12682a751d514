// Package client is the controller side of the timer API.
//
// A Client owns one connection to a device. Requests are correlated with
// their responses by message ID, so several goroutines may issue requests
// at once. Notifications for subscribed timers are handed to the handler
// set with SetNotificationHandler, on the client's read goroutine.
//
// Basic usage:
//
//	c, err := client.Dial(ctx, "kitchen.local:6055", client.Config{})
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	st, err := c.Start(ctx, "kitchen", client.Seconds(300))
//
// Backoff computes reconnect delays for long-running watchers.
package client
