// Package wire defines the CBOR wire format for the ktimer network API.
//
// Messages use CBOR (RFC 8949) with integer keys and are carried in
// length-prefixed frames (see package transport).
//
// # Message Types
//
//   - Request: hub or client to device (commands, queries, remote observations)
//   - Response: device to client, echoing the request's message ID
//   - Notification: device to subscribed clients (snapshot changes and timer events)
//   - Control: ping/pong/close at the connection level
//
// A notification always carries messageId 0. Control messages use their
// own key range (10, 11) so they can be told apart without a full decode.
package wire
