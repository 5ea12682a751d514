package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ktimer/ktimer-go/pkg/config"
	"github.com/ktimer/ktimer-go/pkg/scheduler"
	"github.com/ktimer/ktimer-go/pkg/timer"
	"github.com/ktimer/ktimer-go/pkg/transport"
	"github.com/ktimer/ktimer-go/pkg/wire"
)

const testHeader = `device:
  id: dev-1
  name: Kitchen
listen: "127.0.0.1:0"
mdns:
  enabled: false
`

// stillTicker never fires; tests tick explicitly through Timer.Do.
type stillTicker struct{}

func (stillTicker) C() <-chan time.Time { return nil }
func (stillTicker) Stop()               {}

func noTicks(time.Duration) scheduler.Ticker { return stillTicker{} }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestService(t *testing.T, timersYAML string) (*DeviceService, *fakeClock) {
	t.Helper()
	cfg, err := config.Parse([]byte(testHeader + timersYAML))
	require.NoError(t, err)

	clock := newFakeClock()
	svc, err := NewDeviceService(DeviceConfig{
		Config:      cfg,
		Clock:       clock,
		LoopOptions: []scheduler.Option{scheduler.WithTicker(noTicks)},
	})
	require.NoError(t, err)
	return svc, clock
}

func startTestService(t *testing.T, timersYAML string) (*DeviceService, *fakeClock) {
	t.Helper()
	svc, clock := newTestService(t, timersYAML)
	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(func() { _ = svc.Stop() })
	return svc, clock
}

// tick advances the named timer by n ticks on its loop.
func tick(t *testing.T, svc *DeviceService, id string, n int) {
	t.Helper()
	tm, ok := svc.Timer(id)
	require.True(t, ok)
	for range n {
		require.NoError(t, tm.Do(context.Background(), func(e *timer.Engine) { e.Tick() }))
	}
}

type testClient struct {
	t      *testing.T
	conn   *transport.ClientConn
	nextID uint32
	notifs []*wire.Notification
}

func dialTestClient(t *testing.T, svc *DeviceService) *testClient {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, err := transport.Dial(ctx, svc.Addr().String(), transport.ClientConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &testClient{t: t, conn: conn}
}

// request sends a request and returns its response. Notifications that
// arrive in between are kept for waitNotification.
func (c *testClient) request(op wire.Operation, timerID string, mutate ...func(*wire.Request)) *wire.Response {
	c.t.Helper()
	c.nextID++
	req := &wire.Request{MessageID: c.nextID, Operation: op, TimerID: timerID}
	for _, m := range mutate {
		m(req)
	}
	data, err := wire.Marshal(req)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.Send(data))

	for {
		frame, err := c.conn.Receive(2 * time.Second)
		require.NoError(c.t, err)
		typ, err := wire.PeekMessageType(frame)
		require.NoError(c.t, err)
		if typ == wire.MessageTypeNotification {
			n, err := wire.DecodeNotification(frame)
			require.NoError(c.t, err)
			c.notifs = append(c.notifs, n)
			continue
		}
		resp, err := wire.DecodeResponse(frame)
		require.NoError(c.t, err)
		require.Equal(c.t, req.MessageID, resp.MessageID)
		return resp
	}
}

// waitNotification returns the first notification matching fn, consuming
// everything before it.
func (c *testClient) waitNotification(fn func(*wire.Notification) bool) *wire.Notification {
	c.t.Helper()
	for len(c.notifs) > 0 {
		n := c.notifs[0]
		c.notifs = c.notifs[1:]
		if fn(n) {
			return n
		}
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		frame, err := c.conn.Receive(time.Until(deadline))
		require.NoError(c.t, err)
		n, err := wire.DecodeNotification(frame)
		if err != nil {
			continue
		}
		if fn(n) {
			return n
		}
	}
	c.t.Fatal("notification not received")
	return nil
}

func seconds(n int) func(*wire.Request) {
	return func(r *wire.Request) { r.Seconds = &n }
}

func text(s string) func(*wire.Request) {
	return func(r *wire.Request) { r.Text = s }
}

func value(v float64) func(*wire.Request) {
	return func(r *wire.Request) { r.Value = &v }
}

func isEvent(name string) func(*wire.Notification) bool {
	return func(n *wire.Notification) bool {
		return n.Kind == wire.NotifyEvent && n.Event != nil && n.Event.Name == name
	}
}
