package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ktimer/ktimer-go/pkg/log"
	"github.com/ktimer/ktimer-go/pkg/wire"
)

// DefaultPort is the default ktimer API port.
const DefaultPort = 6055

// Connection state names used in capture events.
const (
	ConnStateConnected    = "CONNECTED"
	ConnStateDisconnected = "DISCONNECTED"
)

// ErrServerRunning is returned by Start on a running server.
var ErrServerRunning = errors.New("server already running")

// ServerConfig configures a Server.
type ServerConfig struct {
	// Address to listen on (e.g. ":6055" or "127.0.0.1:0").
	Address string

	// MaxMessageSize is the maximum payload size (default 64 KB).
	MaxMessageSize uint32

	// IdleTimeout closes connections that send nothing for this long.
	// Zero disables it.
	IdleTimeout time.Duration

	// Logger for protocol capture (optional).
	Logger log.Logger

	// OnConnect is called when a connection is accepted.
	OnConnect func(conn *ServerConn)

	// OnDisconnect is called after a connection is closed.
	OnDisconnect func(conn *ServerConn)

	// OnMessage is called for every non-control frame, on the
	// connection's read goroutine.
	OnMessage func(conn *ServerConn, msg []byte)

	// OnError is called for accept and read errors.
	OnError func(conn *ServerConn, err error)
}

// Server accepts API connections from controllers and hubs.
type Server struct {
	config   ServerConfig
	listener net.Listener

	conns   map[*ServerConn]struct{}
	connsMu sync.RWMutex

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a server. It does not listen until Start.
func NewServer(config ServerConfig) *Server {
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	return &Server{
		config: config,
		conns:  make(map[*ServerConn]struct{}),
	}
}

// Start listens and begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return ErrServerRunning
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Address, err)
	}
	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener and all connections and waits for their
// goroutines.
func (s *Server) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	s.cancel()
	err := s.listener.Close()

	s.connsMu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()
	return err
}

// Addr returns the listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// ConnectionCount returns the number of open connections.
func (s *Server) ConnectionCount() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

// Broadcast sends data to every open connection and returns the number of
// successful sends.
func (s *Server) Broadcast(data []byte) int {
	s.connsMu.RLock()
	conns := make([]*ServerConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.connsMu.RUnlock()

	n := 0
	for _, c := range conns {
		if c.Send(data) == nil {
			n++
		}
	}
	return n
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}
			if s.config.OnError != nil {
				s.config.OnError(nil, fmt.Errorf("accept: %w", err))
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()

	connID := uuid.NewString()
	framer := NewFramer(conn, s.config.MaxMessageSize)
	framer.SetLogger(s.config.Logger, connID)

	sconn := &ServerConn{
		conn:    conn,
		framer:  framer,
		server:  s,
		closeCh: make(chan struct{}),
		connID:  connID,
	}

	s.connsMu.Lock()
	if !s.running.Load() {
		s.connsMu.Unlock()
		_ = conn.Close()
		return
	}
	s.conns[sconn] = struct{}{}
	s.connsMu.Unlock()

	logConnState(s.config.Logger, connID, sconn.remote(), "", ConnStateConnected)
	if s.config.OnConnect != nil {
		s.config.OnConnect(sconn)
	}

	sconn.readLoop()
	_ = sconn.Close()

	s.connsMu.Lock()
	delete(s.conns, sconn)
	s.connsMu.Unlock()

	logConnState(s.config.Logger, connID, sconn.remote(), ConnStateConnected, ConnStateDisconnected)
	if s.config.OnDisconnect != nil {
		s.config.OnDisconnect(sconn)
	}
}

// ServerConn is one accepted connection.
type ServerConn struct {
	conn      net.Conn
	framer    *Framer
	server    *Server
	closeCh   chan struct{}
	closeOnce sync.Once
	connID    string
}

// ConnID returns the unique connection identifier.
func (c *ServerConn) ConnID() string {
	return c.connID
}

// RemoteAddr returns the peer address.
func (c *ServerConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *ServerConn) remote() string {
	if a := c.conn.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}

// Send writes one frame to the peer.
func (c *ServerConn) Send(data []byte) error {
	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}
	return c.framer.WriteFrame(data)
}

// Close closes the connection. Safe to call more than once.
func (c *ServerConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

// Done is closed when the connection is closed.
func (c *ServerConn) Done() <-chan struct{} {
	return c.closeCh
}

func (c *ServerConn) readLoop() {
	cfg := &c.server.config
	for {
		if cfg.IdleTimeout > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(cfg.IdleTimeout))
		}
		data, err := c.framer.ReadFrame()
		if err != nil {
			select {
			case <-c.closeCh:
			default:
				if cfg.OnError != nil && c.server.running.Load() && !errors.Is(err, io.EOF) {
					cfg.OnError(c, err)
				}
			}
			return
		}

		if ctrl := AsControl(data); ctrl != nil {
			if c.handleControl(ctrl) {
				return
			}
			continue
		}
		if cfg.OnMessage != nil {
			cfg.OnMessage(c, data)
		}
	}
}

// handleControl answers a control message and reports whether the
// connection should end.
func (c *ServerConn) handleControl(msg *wire.ControlMessage) bool {
	logger := c.server.config.Logger
	logControl(logger, c.connID, c.remote(), msg.Type, log.DirectionIn)

	switch msg.Type {
	case wire.ControlPing:
		if pong, err := EncodePong(msg.Sequence); err == nil && c.Send(pong) == nil {
			logControl(logger, c.connID, c.remote(), wire.ControlPong, log.DirectionOut)
		}
	case wire.ControlClose:
		if ack, err := EncodeClose(); err == nil && c.Send(ack) == nil {
			logControl(logger, c.connID, c.remote(), wire.ControlClose, log.DirectionOut)
		}
		return true
	}
	return false
}
