package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/ktimer/ktimer-go/pkg/discovery"
	"github.com/ktimer/ktimer-go/pkg/log"
	"github.com/ktimer/ktimer-go/pkg/timer"
	"github.com/ktimer/ktimer-go/pkg/transport"
	"github.com/ktimer/ktimer-go/pkg/version"
	"github.com/ktimer/ktimer-go/pkg/wire"
)

// DeviceService orchestrates a ktimer device.
type DeviceService struct {
	mu sync.RWMutex

	config DeviceConfig
	state  ServiceState

	// Timers in configuration order, and by ID.
	timers []*Timer
	byID   map[string]*Timer

	server     *transport.Server
	handler    *ProtocolHandler
	subs       *SubscriptionManager
	dispatcher *NotificationDispatcher

	// Discovery (optional)
	advertiser discovery.Advertiser

	// Event handlers
	eventHandlers []EventHandler

	// Logger for debug output
	logger *slog.Logger

	// Protocol logger for structured event capture
	protocolLogger log.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	loopsWg sync.WaitGroup
}

// NewDeviceService creates a new device service. Engines are created
// immediately; nothing runs until Start.
func NewDeviceService(config DeviceConfig) (*DeviceService, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	svc := &DeviceService{
		config:         config,
		state:          StateIdle,
		byID:           make(map[string]*Timer, len(config.Config.Timers)),
		subs:           NewSubscriptionManager(),
		logger:         logger,
		protocolLogger: log.OrNoop(config.ProtocolLogger),
	}
	svc.dispatcher = NewNotificationDispatcher(svc.subs, config.NotificationQueueSize, svc.protocolLogger)
	svc.handler = NewProtocolHandler(svc, svc.subs, svc.protocolLogger)

	for _, tc := range config.Config.Timers {
		ec := tc.EngineConfig(svc.protocolLogger)
		if config.Clock != nil {
			ec.Clock = config.Clock
		}
		t := newTimer(tc, ec, config.LoopOptions...)
		engine := t.loop.Engine()
		engine.OnChange(func(s timer.Snapshot) { svc.timerChanged(engine, s) })
		engine.OnEvent(func(ev timer.Event) { svc.timerEvent(t.id, ev) })

		svc.timers = append(svc.timers, t)
		svc.byID[t.id] = t
	}

	return svc, nil
}

// SetAdvertiser replaces the mDNS advertiser. Must be called before Start.
func (s *DeviceService) SetAdvertiser(a discovery.Advertiser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advertiser = a
}

// State returns the current service state.
func (s *DeviceService) State() ServiceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// DeviceID returns the configured device ID.
func (s *DeviceService) DeviceID() string {
	return s.config.Config.Device.ID
}

// Timer returns the timer with the given ID.
func (s *DeviceService) Timer(id string) (*Timer, bool) {
	t, ok := s.byID[id]
	return t, ok
}

// Timers returns all timers in configuration order.
func (s *DeviceService) Timers() []*Timer {
	out := make([]*Timer, len(s.timers))
	copy(out, s.timers)
	return out
}

// Addr returns the API listen address, or nil before Start.
func (s *DeviceService) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.server == nil {
		return nil
	}
	return s.server.Addr()
}

// OnEvent registers an event handler.
func (s *DeviceService) OnEvent(handler EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventHandlers = append(s.eventHandlers, handler)
}

// Start runs the timer loops, opens the API listener and starts
// advertising. A failing advertiser is logged and does not stop the
// device.
func (s *DeviceService) Start(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateIdle:
	case StateStopped:
		s.mu.Unlock()
		return ErrStopped
	default:
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.setStateLocked(StateStarting)
	s.mu.Unlock()

	s.ctx, s.cancel = context.WithCancel(ctx)

	server := transport.NewServer(transport.ServerConfig{
		Address:      s.config.Config.Listen,
		IdleTimeout:  s.config.IdleTimeout,
		Logger:       s.protocolLogger,
		OnConnect:    s.handleConnect,
		OnDisconnect: s.handleDisconnect,
		OnMessage:    s.handleMessage,
		OnError:      s.handleError,
	})
	if err := server.Start(s.ctx); err != nil {
		s.cancel()
		s.mu.Lock()
		s.setStateLocked(StateIdle)
		s.mu.Unlock()
		return err
	}

	for _, t := range s.timers {
		s.loopsWg.Add(1)
		go func(t *Timer) {
			defer s.loopsWg.Done()
			if err := t.loop.Run(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Warn("timer loop exited", "timer", t.id, "error", err)
			}
		}(t)
	}

	s.mu.Lock()
	s.server = server
	if s.advertiser == nil && s.config.Config.MDNS.Enabled {
		advConfig := discovery.DefaultAdvertiserConfig()
		advConfig.Interface = s.config.Config.MDNS.Interface
		s.advertiser = discovery.NewMDNSAdvertiser(advConfig)
	}
	advertiser := s.advertiser
	s.setStateLocked(StateRunning)
	s.mu.Unlock()

	if advertiser != nil {
		if err := advertiser.Advertise(s.ctx, s.deviceInfo()); err != nil {
			s.logger.Warn("mDNS advertising failed", "error", err)
			s.emitEvent(Event{Type: EventError, Error: fmt.Errorf("advertise: %w", err)})
		}
	}

	s.logger.Info("device service started",
		"addr", server.Addr().String(),
		"device", s.config.Config.Device.Name,
		"timers", len(s.timers))
	return nil
}

// Stop withdraws the advertisement, closes every connection and waits for
// the timer loops to exit.
func (s *DeviceService) Stop() error {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.setStateLocked(StateStopping)
	advertiser := s.advertiser
	server := s.server
	s.mu.Unlock()

	var errs []error
	if advertiser != nil {
		if err := advertiser.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("advertiser: %w", err))
		}
	}
	if err := server.Stop(); err != nil && !errors.Is(err, net.ErrClosed) {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}

	s.cancel()
	s.loopsWg.Wait()
	s.dispatcher.Close()

	s.mu.Lock()
	s.setStateLocked(StateStopped)
	s.mu.Unlock()

	s.logger.Info("device service stopped")
	return errors.Join(errs...)
}

// deviceInfo builds the advertised record.
func (s *DeviceService) deviceInfo() *discovery.DeviceInfo {
	ids := make([]string, len(s.timers))
	for i, t := range s.timers {
		ids[i] = t.id
	}
	info := &discovery.DeviceInfo{
		ID:      s.config.Config.Device.ID,
		Name:    s.config.Config.Device.Name,
		Timers:  ids,
		Version: version.Current,
	}
	if tcp, ok := s.Addr().(*net.TCPAddr); ok {
		info.Port = uint16(tcp.Port)
	}
	return info
}

func (s *DeviceService) handleConnect(conn *transport.ServerConn) {
	s.dispatcher.AddConnection(conn.ConnID(), conn.Send)
	s.logger.Debug("connection accepted", "conn", conn.ConnID(), "remote", conn.RemoteAddr().String())
	s.emitEvent(Event{
		Type:         EventConnected,
		ConnectionID: conn.ConnID(),
		RemoteAddr:   conn.RemoteAddr().String(),
	})
}

func (s *DeviceService) handleDisconnect(conn *transport.ServerConn) {
	s.dispatcher.RemoveConnection(conn.ConnID())
	s.logger.Debug("connection closed", "conn", conn.ConnID())
	s.emitEvent(Event{
		Type:         EventDisconnected,
		ConnectionID: conn.ConnID(),
		RemoteAddr:   conn.RemoteAddr().String(),
	})
}

func (s *DeviceService) handleMessage(conn *transport.ServerConn, data []byte) {
	resp := s.handler.HandleMessage(s.ctx, conn.ConnID(), data)
	if resp == nil {
		s.logger.Debug("dropped undecodable frame", "conn", conn.ConnID(), "size", len(data))
		return
	}
	if err := conn.Send(resp); err != nil {
		s.logger.Debug("send response failed", "conn", conn.ConnID(), "error", err)
	}
}

func (s *DeviceService) handleError(conn *transport.ServerConn, err error) {
	ev := Event{Type: EventError, Error: err}
	if conn != nil {
		ev.ConnectionID = conn.ConnID()
	}
	s.logger.Debug("transport error", "conn", ev.ConnectionID, "error", err)
	s.emitEvent(ev)
}

// timerChanged runs on the timer's loop goroutine.
func (s *DeviceService) timerChanged(e *timer.Engine, snap timer.Snapshot) {
	st := buildStatus(e.ID(), e.Name(), snap, e.MaxDuration())
	s.dispatcher.Notify(&wire.Notification{
		Kind:    wire.NotifyChange,
		TimerID: e.ID(),
		Status:  &st,
	})
	s.emitEvent(Event{Type: EventTimerChanged, TimerID: e.ID(), Snapshot: &snap})
}

// timerEvent runs on the timer's loop goroutine.
func (s *DeviceService) timerEvent(id string, ev timer.Event) {
	s.dispatcher.Notify(&wire.Notification{
		Kind:    wire.NotifyEvent,
		TimerID: id,
		Event:   buildEventInfo(ev),
	})
	if ev.Kind != timer.EventTick {
		s.logger.Info("timer event", "timer", id, "event", ev.Kind.String(), "remote", ev.FromRemote)
	}
	s.emitEvent(Event{Type: EventTimerEvent, TimerID: id, TimerEvent: &ev})
}

func (s *DeviceService) emitEvent(event Event) {
	s.mu.RLock()
	handlers := make([]EventHandler, len(s.eventHandlers))
	copy(handlers, s.eventHandlers)
	s.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// setStateLocked changes the state and records it. Caller holds s.mu.
func (s *DeviceService) setStateLocked(state ServiceState) {
	old := s.state
	s.state = state
	s.protocolLogger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerEngine,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityService,
			OldState: old.String(),
			NewState: state.String(),
		},
	})
}
