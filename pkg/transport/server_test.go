package transport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ktimer/ktimer-go/pkg/log"
	"github.com/ktimer/ktimer-go/pkg/wire"
)

func startTestServer(t *testing.T, cfg ServerConfig) *Server {
	t.Helper()
	cfg.Address = "127.0.0.1:0"
	s := NewServer(cfg)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func dialTest(t *testing.T, s *Server) *ClientConn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, s.Addr().String(), ClientConfig{})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestServerEcho(t *testing.T) {
	s := startTestServer(t, ServerConfig{
		OnMessage: func(conn *ServerConn, msg []byte) {
			_ = conn.Send(append([]byte("echo:"), msg...))
		},
	})
	c := dialTest(t, s)

	if err := c.Send([]byte("hi")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got, err := c.Receive(time.Second)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(got) != "echo:hi" {
		t.Errorf("Receive() = %q, want echo:hi", got)
	}
}

func TestServerPingPong(t *testing.T) {
	rec := &recordingLogger{}
	var messages int
	var mu sync.Mutex
	s := startTestServer(t, ServerConfig{
		Logger: rec,
		OnMessage: func(*ServerConn, []byte) {
			mu.Lock()
			messages++
			mu.Unlock()
		},
	})
	c := dialTest(t, s)

	if err := c.SendPing(7); err != nil {
		t.Fatalf("SendPing: %v", err)
	}
	data, err := c.Receive(time.Second)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	ctrl := AsControl(data)
	if ctrl == nil || ctrl.Type != wire.ControlPong || ctrl.Sequence != 7 {
		t.Fatalf("reply = %+v, want pong 7", ctrl)
	}

	mu.Lock()
	defer mu.Unlock()
	if messages != 0 {
		t.Errorf("control message reached OnMessage")
	}

	var ctrlEvents int
	for _, ev := range rec.snapshot() {
		if ev.Category == log.CategoryControl {
			ctrlEvents++
		}
	}
	if ctrlEvents != 2 {
		t.Errorf("control events = %d, want 2", ctrlEvents)
	}
}

func TestServerCloseHandshake(t *testing.T) {
	disconnected := make(chan string, 1)
	s := startTestServer(t, ServerConfig{
		OnDisconnect: func(conn *ServerConn) { disconnected <- conn.ConnID() },
	})
	c := dialTest(t, s)
	waitFor(t, func() bool { return s.ConnectionCount() == 1 })

	if err := c.SendClose(); err != nil {
		t.Fatalf("SendClose: %v", err)
	}
	data, err := c.Receive(time.Second)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if ctrl := AsControl(data); ctrl == nil || ctrl.Type != wire.ControlClose {
		t.Errorf("reply = %+v, want close ack", ctrl)
	}

	select {
	case id := <-disconnected:
		if id == "" {
			t.Error("empty connection ID")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnDisconnect not called")
	}
	if n := s.ConnectionCount(); n != 0 {
		t.Errorf("ConnectionCount() = %d, want 0", n)
	}
}

func TestServerConnectionEvents(t *testing.T) {
	rec := &recordingLogger{}
	connected := make(chan *ServerConn, 1)
	disconnected := make(chan struct{})
	s := startTestServer(t, ServerConfig{
		Logger:       rec,
		OnConnect:    func(conn *ServerConn) { connected <- conn },
		OnDisconnect: func(*ServerConn) { close(disconnected) },
	})
	c := dialTest(t, s)

	var sc *ServerConn
	select {
	case sc = <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("OnConnect not called")
	}
	_ = c.Close()
	select {
	case <-disconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("OnDisconnect not called")
	}
	<-sc.Done()

	var states []string
	for _, ev := range rec.snapshot() {
		if ev.StateChange != nil && ev.StateChange.Entity == log.StateEntityConnection {
			if ev.ConnectionID != sc.ConnID() {
				t.Errorf("event connection ID = %q, want %q", ev.ConnectionID, sc.ConnID())
			}
			states = append(states, ev.StateChange.NewState)
		}
	}
	if len(states) != 2 || states[0] != ConnStateConnected || states[1] != ConnStateDisconnected {
		t.Errorf("states = %v", states)
	}
}

func TestServerBroadcastAndStop(t *testing.T) {
	s := startTestServer(t, ServerConfig{})
	c1 := dialTest(t, s)
	c2 := dialTest(t, s)
	waitFor(t, func() bool { return s.ConnectionCount() == 2 })

	if n := s.Broadcast([]byte("all")); n != 2 {
		t.Errorf("Broadcast() = %d, want 2", n)
	}
	for _, c := range []*ClientConn{c1, c2} {
		got, err := c.Receive(time.Second)
		if err != nil || string(got) != "all" {
			t.Errorf("Receive() = %q, %v", got, err)
		}
	}

	if err := s.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if _, err := c1.Receive(time.Second); err == nil {
		t.Error("Receive after Stop succeeded")
	}
	if err := s.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestServerStartTwice(t *testing.T) {
	s := startTestServer(t, ServerConfig{})
	if err := s.Start(context.Background()); !errors.Is(err, ErrServerRunning) {
		t.Errorf("Start() error = %v, want ErrServerRunning", err)
	}
}

func TestClientClosed(t *testing.T) {
	s := startTestServer(t, ServerConfig{})
	c := dialTest(t, s)
	_ = c.Close()

	if err := c.Send([]byte("x")); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("Send after Close = %v", err)
	}
	if _, err := c.Receive(0); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("Receive after Close = %v", err)
	}
}

func TestDialRefused(t *testing.T) {
	s := NewServer(ServerConfig{Address: "127.0.0.1:0"})
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	addr := s.Addr().String()
	_ = s.Stop()

	if _, err := Dial(context.Background(), addr, ClientConfig{ConnectTimeout: time.Second}); err == nil {
		t.Error("Dial to a stopped server succeeded")
	}
}
