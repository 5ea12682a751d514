package client_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktimer/ktimer-go/pkg/client"
	"github.com/ktimer/ktimer-go/pkg/config"
	"github.com/ktimer/ktimer-go/pkg/scheduler"
	"github.com/ktimer/ktimer-go/pkg/service"
	"github.com/ktimer/ktimer-go/pkg/timer"
	"github.com/ktimer/ktimer-go/pkg/transport"
	"github.com/ktimer/ktimer-go/pkg/wire"
)

type stillTicker struct{}

func (stillTicker) C() <-chan time.Time { return nil }
func (stillTicker) Stop()               {}

const deviceYAML = `device:
  id: dev-1
listen: "127.0.0.1:0"
mdns:
  enabled: false
timers:
  - id: kitchen
    initial_set_seconds: 60
    remote_state: true
    remote_remaining: true
  - id: oven
`

func startDevice(t *testing.T) *service.DeviceService {
	t.Helper()
	cfg, err := config.Parse([]byte(deviceYAML))
	require.NoError(t, err)

	svc, err := service.NewDeviceService(service.DeviceConfig{
		Config: cfg,
		LoopOptions: []scheduler.Option{
			scheduler.WithTicker(func(time.Duration) scheduler.Ticker { return stillTicker{} }),
		},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(func() { _ = svc.Stop() })
	return svc
}

func dial(t *testing.T, svc *service.DeviceService, cfg client.Config) *client.Client {
	t.Helper()
	c, err := client.Dial(context.Background(), svc.Addr().String(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClientCommands(t *testing.T) {
	svc := startDevice(t)
	c := dial(t, svc, client.Config{})
	ctx := context.Background()

	timers, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, timers, 2)
	assert.Equal(t, "kitchen", timers[0].TimerID)
	assert.Equal(t, 60, timers[0].Set)

	st, err := c.Start(ctx, "kitchen", nil)
	require.NoError(t, err)
	assert.True(t, st.Running)
	assert.Equal(t, 60, st.Remaining)

	st, err = c.Pause(ctx, "kitchen")
	require.NoError(t, err)
	assert.True(t, st.Paused)

	st, err = c.Resume(ctx, "kitchen")
	require.NoError(t, err)
	assert.True(t, st.Running)

	st, err = c.SetMaxDuration(ctx, "kitchen", 30)
	require.NoError(t, err)
	assert.Equal(t, 30, st.Remaining)
	assert.Equal(t, uint32(30), st.MaxDuration)

	st, err = c.Cancel(ctx, "kitchen")
	require.NoError(t, err)
	assert.Equal(t, timer.StatusStopped, st.Status)

	st, err = c.Start(ctx, "oven", client.Seconds(10))
	require.NoError(t, err)
	assert.Equal(t, 10, st.Set)

	st, err = c.SetSeconds(ctx, "oven", 20)
	require.NoError(t, err)
	assert.Equal(t, 20, st.Set)
}

func TestClientStatusErrors(t *testing.T) {
	svc := startDevice(t)
	c := dial(t, svc, client.Config{})
	ctx := context.Background()

	_, err := c.Status(ctx, "grill")
	assert.True(t, client.IsStatus(err, wire.StatusUnknownTimer), "got %v", err)

	_, err = c.RemoteState(ctx, "oven", "active")
	assert.True(t, client.IsStatus(err, wire.StatusUnavailable), "got %v", err)

	_, err = c.SetMaxDuration(ctx, "oven", -1)
	assert.True(t, client.IsStatus(err, wire.StatusInvalidPayload), "got %v", err)

	var se *client.StatusError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Error(), "INVALID_PAYLOAD")
}

func TestClientRemoteObservations(t *testing.T) {
	svc := startDevice(t)
	c := dial(t, svc, client.Config{})
	ctx := context.Background()

	_, err := c.Start(ctx, "kitchen", client.Seconds(120))
	require.NoError(t, err)

	st, err := c.RemoteRemaining(ctx, "kitchen", 90.4)
	require.NoError(t, err)
	assert.Equal(t, 90, st.Remaining)
	assert.True(t, st.Synced)

	st, err = c.RemoteState(ctx, "kitchen", "paused")
	require.NoError(t, err)
	assert.True(t, st.Paused)
}

func TestClientNotifications(t *testing.T) {
	svc := startDevice(t)
	c := dial(t, svc, client.Config{})
	ctx := context.Background()

	var (
		mu     sync.Mutex
		events []string
	)
	c.SetNotificationHandler(func(n *wire.Notification) {
		if n.Kind != wire.NotifyEvent {
			return
		}
		mu.Lock()
		events = append(events, n.TimerID+":"+n.Event.Name)
		mu.Unlock()
	})

	timers, err := c.Subscribe(ctx, "kitchen")
	require.NoError(t, err)
	require.Len(t, timers, 1)

	_, err = c.Start(ctx, "kitchen", nil)
	require.NoError(t, err)
	_, err = c.Start(ctx, "oven", client.Seconds(5))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 1 && events[0] == "kitchen:started"
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, c.Unsubscribe(ctx, ""))
	_, err = c.Pause(ctx, "kitchen")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Len(t, events, 1)
	mu.Unlock()
}

func TestClientConcurrentRequests(t *testing.T) {
	svc := startDevice(t)
	c := dial(t, svc, client.Config{})
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Status(ctx, "oven")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestClientKeepAliveAndClose(t *testing.T) {
	svc := startDevice(t)
	c := dial(t, svc, client.Config{
		KeepAlive: &transport.KeepAliveConfig{
			PingInterval:   20 * time.Millisecond,
			PongTimeout:    time.Second,
			MaxMissedPongs: 3,
		},
	})

	assert.Eventually(t, func() bool { return c.Latency() > 0 }, time.Second, 10*time.Millisecond)

	require.NoError(t, c.Close())
	<-c.Done()
	assert.ErrorIs(t, c.Err(), client.ErrClientClosed)

	_, err := c.List(context.Background())
	assert.ErrorIs(t, err, client.ErrClientClosed)
}

func TestClientDetectsDeviceShutdown(t *testing.T) {
	svc := startDevice(t)
	c := dial(t, svc, client.Config{})

	_, err := c.List(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.Stop())
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("client did not notice the device going away")
	}
	assert.Error(t, c.Err())
}
