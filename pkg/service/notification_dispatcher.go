package service

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ktimer/ktimer-go/pkg/log"
	"github.com/ktimer/ktimer-go/pkg/wire"
)

// DefaultNotificationQueueSize is the default per-connection queue length.
const DefaultNotificationQueueSize = 256

// ConnectionSender is a function that sends data to a connection.
type ConnectionSender func(data []byte) error

// NotificationDispatcher routes timer notifications to subscribed
// connections. Each connection gets a bounded queue drained by its own
// goroutine; when the queue is full the notification is dropped for that
// connection.
type NotificationDispatcher struct {
	mu sync.RWMutex

	subs        *SubscriptionManager
	connections map[string]*connectionInfo
	queueSize   int
	wg          sync.WaitGroup
	closed      bool

	// Protocol logging (optional)
	logger log.Logger
}

// connectionInfo is the outbound queue of one connection.
type connectionInfo struct {
	id      string
	sender  ConnectionSender
	queue   chan outbound
	dropped atomic.Uint64
}

type outbound struct {
	timerID string
	data    []byte
}

// NewNotificationDispatcher creates a dispatcher for the given
// subscriptions.
func NewNotificationDispatcher(subs *SubscriptionManager, queueSize int, logger log.Logger) *NotificationDispatcher {
	if queueSize <= 0 {
		queueSize = DefaultNotificationQueueSize
	}
	return &NotificationDispatcher{
		subs:        subs,
		connections: make(map[string]*connectionInfo),
		queueSize:   queueSize,
		logger:      log.OrNoop(logger),
	}
}

// AddConnection registers a connection and starts its writer.
func (d *NotificationDispatcher) AddConnection(connID string, sender ConnectionSender) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if _, ok := d.connections[connID]; ok {
		return
	}
	ci := &connectionInfo{
		id:     connID,
		sender: sender,
		queue:  make(chan outbound, d.queueSize),
	}
	d.connections[connID] = ci

	d.wg.Add(1)
	go d.writeLoop(ci)
}

// RemoveConnection stops the writer of connID and drops its subscriptions.
// Queued notifications are discarded.
func (d *NotificationDispatcher) RemoveConnection(connID string) {
	d.subs.RemoveConnection(connID)

	d.mu.Lock()
	ci, ok := d.connections[connID]
	if ok {
		delete(d.connections, connID)
		close(ci.queue)
	}
	d.mu.Unlock()
}

// Notify encodes n once and queues it for every subscriber of its timer.
// It never blocks and returns the number of connections it was queued for.
func (d *NotificationDispatcher) Notify(n *wire.Notification) int {
	ids := d.subs.Subscribers(n.TimerID)
	if len(ids) == 0 {
		return 0
	}
	data, err := wire.EncodeNotification(n)
	if err != nil {
		return 0
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	queued := 0
	for _, id := range ids {
		ci := d.connections[id]
		if ci == nil {
			continue
		}
		select {
		case ci.queue <- outbound{timerID: n.TimerID, data: data}:
			queued++
		default:
			ci.dropped.Add(1)
		}
	}
	return queued
}

// Dropped returns how many notifications were dropped for connID.
func (d *NotificationDispatcher) Dropped(connID string) uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if ci := d.connections[connID]; ci != nil {
		return ci.dropped.Load()
	}
	return 0
}

// ConnectionCount returns the number of registered connections.
func (d *NotificationDispatcher) ConnectionCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.connections)
}

// Close removes every connection and waits for the writers to exit.
func (d *NotificationDispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	for id, ci := range d.connections {
		delete(d.connections, id)
		close(ci.queue)
		d.subs.RemoveConnection(id)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *NotificationDispatcher) writeLoop(ci *connectionInfo) {
	defer d.wg.Done()
	for out := range ci.queue {
		if err := ci.sender(out.data); err != nil {
			continue
		}
		d.logger.Log(log.Event{
			Timestamp:    time.Now(),
			TimerID:      out.timerID,
			ConnectionID: ci.id,
			Direction:    log.DirectionOut,
			Layer:        log.LayerWire,
			Category:     log.CategoryMessage,
			Message: &log.MessageEvent{
				Type:      log.MessageTypeNotification,
				MessageID: wire.NotificationMessageID,
			},
		})
	}
}
