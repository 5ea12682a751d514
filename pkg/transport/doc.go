// Package transport carries ktimer messages over TCP.
//
// Every message is a CBOR payload preceded by a 4-byte big-endian length:
//
//	┌────────────────────────────────┐
//	│      CBOR Messages             │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// The API is meant for a trusted local network and carries no TLS, the
// same as the native API of the firmware the timers run on.
//
// Control messages (ping, pong, close) are answered by the server itself
// and never reach OnMessage. Clients may run a KeepAlive to detect a dead
// device while waiting for notifications.
package transport
