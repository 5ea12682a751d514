package transport

import (
	"context"
	"net"
	"time"
)

// Conn is the side of a connection a message handler sees.
// Implemented by ServerConn.
type Conn interface {
	ConnID() string
	RemoteAddr() net.Addr
	Send(data []byte) error
	Close() error
}

// ClientConnection is a controller connection to a device.
// Implemented by ClientConn.
type ClientConnection interface {
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
	Send(data []byte) error
	Receive(timeout time.Duration) ([]byte, error)
	SendPing(seq uint32) error
	SendClose() error
	Close() error
}

// TransportServer accepts API connections.
// Implemented by Server.
type TransportServer interface {
	Start(ctx context.Context) error
	Stop() error
	Addr() net.Addr
	ConnectionCount() int
}

// FrameReadWriter provides length-prefixed frame I/O.
// Implemented by Framer.
type FrameReadWriter interface {
	ReadFrame() ([]byte, error)
	WriteFrame(data []byte) error
}

var (
	_ Conn             = (*ServerConn)(nil)
	_ ClientConnection = (*ClientConn)(nil)
	_ TransportServer  = (*Server)(nil)
	_ FrameReadWriter  = (*Framer)(nil)
)
