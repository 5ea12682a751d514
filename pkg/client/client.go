package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ktimer/ktimer-go/pkg/log"
	"github.com/ktimer/ktimer-go/pkg/transport"
	"github.com/ktimer/ktimer-go/pkg/wire"
)

// DefaultRequestTimeout bounds a request when Config.Timeout is zero.
const DefaultRequestTimeout = 10 * time.Second

// Client errors.
var (
	ErrRequestTimeout  = errors.New("request timed out")
	ErrClientClosed    = errors.New("client is closed")
	ErrUnexpectedReply = errors.New("unexpected reply")
	ErrKeepAlive       = errors.New("keep-alive timeout")
)

// Config configures Dial.
type Config struct {
	// Timeout bounds each request (default DefaultRequestTimeout).
	Timeout time.Duration

	// KeepAlive enables pings when set.
	KeepAlive *transport.KeepAliveConfig

	// Transport is passed to transport.Dial.
	Transport transport.ClientConfig

	// Logger receives wire-layer capture events (optional).
	Logger log.Logger
}

// Client issues requests to one device.
type Client struct {
	conn    *transport.ClientConn
	timeout time.Duration
	logger  log.Logger

	nextMsgID atomic.Uint32

	pendingMu sync.Mutex
	pending   map[uint32]chan *wire.Response

	mu            sync.RWMutex
	notifyHandler func(*wire.Notification)

	keepAlive *transport.KeepAlive

	closing   atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
	err       error
}

// Dial connects to the device at address.
func Dial(ctx context.Context, address string, config Config) (*Client, error) {
	if config.Transport.Logger == nil {
		config.Transport.Logger = config.Logger
	}
	conn, err := transport.Dial(ctx, address, config.Transport)
	if err != nil {
		return nil, err
	}
	return newClient(conn, config), nil
}

func newClient(conn *transport.ClientConn, config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = DefaultRequestTimeout
	}
	c := &Client{
		conn:    conn,
		timeout: config.Timeout,
		logger:  log.OrNoop(config.Logger),
		pending: make(map[uint32]chan *wire.Response),
		done:    make(chan struct{}),
	}

	if config.KeepAlive != nil {
		c.keepAlive = transport.NewKeepAlive(*config.KeepAlive, conn.SendPing, func() {
			c.shutdown(ErrKeepAlive)
		})
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-c.done
			cancel()
		}()
		go c.keepAlive.Run(ctx)
	}

	go c.readLoop()
	return c
}

// SetNotificationHandler sets the handler for incoming notifications.
func (c *Client) SetNotificationHandler(handler func(*wire.Notification)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifyHandler = handler
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns why the connection ended, once Done is closed.
func (c *Client) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Latency returns the last keep-alive round trip, or zero.
func (c *Client) Latency() time.Duration {
	if c.keepAlive == nil {
		return 0
	}
	return c.keepAlive.Latency()
}

// Close sends a close message and closes the connection.
func (c *Client) Close() error {
	select {
	case <-c.done:
		return nil
	default:
	}
	c.closing.Store(true)
	_ = c.conn.SendClose()
	c.shutdown(ErrClientClosed)
	return nil
}

func (c *Client) shutdown(cause error) {
	c.closeOnce.Do(func() {
		c.err = cause
		close(c.done)
		_ = c.conn.Close()
		if c.keepAlive != nil {
			c.keepAlive.Stop()
		}

		c.pendingMu.Lock()
		for id, ch := range c.pending {
			close(ch)
			delete(c.pending, id)
		}
		c.pendingMu.Unlock()
	})
}

func (c *Client) readLoop() {
	for {
		data, err := c.conn.Receive(0)
		if err != nil {
			if c.closing.Load() {
				err = ErrClientClosed
			}
			c.shutdown(err)
			return
		}

		if ctrl := transport.AsControl(data); ctrl != nil {
			switch ctrl.Type {
			case wire.ControlPing:
				if pong, err := transport.EncodePong(ctrl.Sequence); err == nil {
					_ = c.conn.Send(pong)
				}
			case wire.ControlPong:
				if c.keepAlive != nil {
					c.keepAlive.PongReceived(ctrl.Sequence)
				}
			case wire.ControlClose:
				c.shutdown(transport.ErrConnectionClosed)
				return
			}
			continue
		}

		msgType, err := wire.PeekMessageType(data)
		if err != nil {
			continue
		}
		switch msgType {
		case wire.MessageTypeNotification:
			if n, err := wire.DecodeNotification(data); err == nil {
				c.handleNotification(n)
			}
		case wire.MessageTypeMessage:
			if resp, err := wire.DecodeResponse(data); err == nil {
				c.handleResponse(resp)
			}
		}
	}
}

func (c *Client) handleResponse(resp *wire.Response) {
	c.pendingMu.Lock()
	ch, ok := c.pending[resp.MessageID]
	if ok {
		delete(c.pending, resp.MessageID)
	}
	c.pendingMu.Unlock()

	if !ok {
		return
	}
	status := resp.Status
	c.logMessage(log.DirectionIn, log.MessageTypeResponse, resp.MessageID, "", nil, &status)
	ch <- resp
}

func (c *Client) handleNotification(n *wire.Notification) {
	c.logMessage(log.DirectionIn, log.MessageTypeNotification, 0, n.TimerID, nil, nil)

	c.mu.RLock()
	handler := c.notifyHandler
	c.mu.RUnlock()

	if handler != nil {
		handler(n)
	}
}

// nextMessageID returns the next message ID, skipping the reserved zero.
func (c *Client) nextMessageID() uint32 {
	for {
		if id := c.nextMsgID.Add(1); id != 0 {
			return id
		}
	}
}

// Do sends req with a fresh message ID and waits for its response. A
// response with a non-success status is returned as a *StatusError.
func (c *Client) Do(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	req.MessageID = c.nextMessageID()
	data, err := wire.EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	respCh := make(chan *wire.Response, 1)
	c.pendingMu.Lock()
	select {
	case <-c.done:
		c.pendingMu.Unlock()
		return nil, ErrClientClosed
	default:
	}
	c.pending[req.MessageID] = respCh
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, req.MessageID)
		c.pendingMu.Unlock()
	}()

	op := req.Operation
	c.logMessage(log.DirectionOut, log.MessageTypeRequest, req.MessageID, req.TimerID, &op, nil)
	if err := c.conn.Send(data); err != nil {
		return nil, err
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrRequestTimeout
	case resp, ok := <-respCh:
		if !ok {
			return nil, ErrClientClosed
		}
		if !resp.IsSuccess() {
			return resp, &StatusError{Status: resp.Status, Message: resp.Message}
		}
		return resp, nil
	}
}

func (c *Client) logMessage(dir log.Direction, typ log.MessageType, msgID uint32, timerID string,
	op *wire.Operation, status *wire.Status) {
	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		TimerID:      timerID,
		ConnectionID: c.conn.LocalAddr().String(),
		Direction:    dir,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		RemoteAddr:   c.conn.RemoteAddr().String(),
		Message: &log.MessageEvent{
			Type:      typ,
			MessageID: msgID,
			Operation: op,
			Status:    status,
		},
	})
}

// StatusError is a non-success response.
type StatusError struct {
	Status  wire.Status
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Status.String() + ": " + e.Message
	}
	return e.Status.String()
}

// IsStatus reports whether err is a *StatusError carrying status.
func IsStatus(err error, status wire.Status) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}
