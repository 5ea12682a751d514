// Command ktimer-device runs one or more countdown timers and serves them
// over the timer API.
//
// Every timer counts down locally and, when configured, reconciles itself
// against the state and remaining seconds a hub pushes back through the
// remote-state and remote-remaining operations.
//
// Usage:
//
//	ktimer-device [flags]
//
// Flags:
//
//	-config string        Configuration file path
//	-listen string        Listen address (overrides config)
//	-name string          Device name (overrides config)
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  Write a capture of all protocol events to this file
//	-no-mdns              Do not advertise over mDNS
//	-interactive          Run the interactive console
//
// Examples:
//
//	# One default timer on :6055
//	ktimer-device
//
//	# Kitchen and oven timers from a file, with a capture for ktimer-log
//	ktimer-device -config kitchen.yaml -protocol-log device.klog
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ktimer/ktimer-go/cmd/ktimer-device/interactive"
	"github.com/ktimer/ktimer-go/pkg/config"
	klog "github.com/ktimer/ktimer-go/pkg/log"
	"github.com/ktimer/ktimer-go/pkg/service"
	"github.com/ktimer/ktimer-go/pkg/timer"
)

// Options holds the command-line options.
type Options struct {
	ConfigFile  string
	Listen      string
	Name        string
	LogLevel    string
	ProtocolLog string
	NoMDNS      bool
	Interactive bool
}

var opts Options

func init() {
	flag.StringVar(&opts.ConfigFile, "config", "", "Configuration file path")
	flag.StringVar(&opts.Listen, "listen", "", "Listen address (overrides config)")
	flag.StringVar(&opts.Name, "name", "", "Device name (overrides config)")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&opts.ProtocolLog, "protocol-log", "", "Write a capture of all protocol events to this file")
	flag.BoolVar(&opts.NoMDNS, "no-mdns", false, "Do not advertise over mDNS")
	flag.BoolVar(&opts.Interactive, "interactive", false, "Run the interactive console")
}

func main() {
	flag.Parse()

	log.SetFlags(log.Ltime | log.Lmicroseconds)

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(opts.LogLevel)}))

	devCfg := service.DeviceConfig{
		Config: cfg,
		Logger: logger,
	}

	if cfg.ProtocolLog != "" {
		fileLogger, err := klog.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			log.Fatalf("Failed to open protocol log: %v", err)
		}
		defer fileLogger.Close()

		devCfg.ProtocolLogger = fileLogger
		if opts.LogLevel == "debug" {
			devCfg.ProtocolLogger = klog.NewMultiLogger(fileLogger, klog.NewSlogAdapter(logger))
		}
		log.Printf("Protocol capture: %s", cfg.ProtocolLog)
	}

	svc, err := service.NewDeviceService(devCfg)
	if err != nil {
		log.Fatalf("Failed to create device service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var console *interactive.Console
	if opts.Interactive {
		console, err = interactive.New(svc)
		if err != nil {
			log.Fatalf("Failed to start console: %v", err)
		}
		log.SetOutput(console.Stdout())
	} else {
		svc.OnEvent(handleEvent)
	}

	log.Println("Kitchen Timer Device")
	log.Println("====================")
	log.Printf("Device: %s (%s)", cfg.Device.Name, cfg.Device.ID)
	for _, t := range svc.Timers() {
		log.Printf("Timer:  %s (%s)", t.Name(), t.ID())
	}

	if err := svc.Start(ctx); err != nil {
		log.Fatalf("Failed to start service: %v", err)
	}
	log.Printf("Listening on %s (state: %s)", svc.Addr(), svc.State())

	if console != nil {
		go console.Run(ctx, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v", sig)
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	if err := svc.Stop(); err != nil {
		log.Printf("Error stopping service: %v", err)
	}
	log.Println("Goodbye!")
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigFile != "" {
		cfg, err = config.Load(opts.ConfigFile)
	} else {
		cfg, err = config.Parse(nil)
	}
	if err != nil {
		return nil, err
	}

	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}
	if opts.Name != "" {
		cfg.Device.Name = opts.Name
	}
	if opts.ProtocolLog != "" {
		cfg.ProtocolLog = opts.ProtocolLog
	}
	if opts.NoMDNS {
		cfg.MDNS.Enabled = false
	}
	return cfg, cfg.Validate()
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func handleEvent(event service.Event) {
	switch event.Type {
	case service.EventConnected:
		log.Printf("[EVENT] Client connected: %s", event.RemoteAddr)
	case service.EventDisconnected:
		log.Printf("[EVENT] Client disconnected: %s", event.RemoteAddr)
	case service.EventTimerEvent:
		if event.TimerEvent.Kind == timer.EventTick {
			return
		}
		origin := ""
		if event.TimerEvent.FromRemote {
			origin = " (remote)"
		}
		log.Printf("[EVENT] %s: %s%s", event.TimerID, event.TimerEvent.Kind, origin)
	case service.EventError:
		log.Printf("[EVENT] Error: %v", event.Error)
	}
}
