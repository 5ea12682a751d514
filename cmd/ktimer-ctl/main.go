// Command ktimer-ctl controls timer devices from the command line.
//
// Usage:
//
//	ktimer-ctl [flags] <command> [args]
//
// Commands:
//
//	discover                          Browse the network for devices
//	list                              List all timers
//	status <timer>                    Show one timer
//	start <timer> [seconds]           Start (default: the set duration)
//	pause <timer>                     Pause
//	resume <timer>                    Resume
//	cancel <timer>                    Stop and reset
//	set <timer> <seconds>             Change the set duration
//	max <timer> <seconds>             Change the maximum duration (0 = unlimited)
//	remote-state <timer> <text>       Push a hub state (idle, paused, active)
//	remote-remaining <timer> <value>  Push a hub remaining-seconds value
//	watch [timer]                     Follow notifications, reconnecting on loss
//
// The device is given with -addr, or found by ID over mDNS with -device.
//
// Examples:
//
//	ktimer-ctl discover
//	ktimer-ctl -addr 192.168.1.20:6055 start kitchen 300
//	ktimer-ctl -device 6f1c2a watch
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ktimer/ktimer-go/pkg/client"
	"github.com/ktimer/ktimer-go/pkg/discovery"
	klog "github.com/ktimer/ktimer-go/pkg/log"
	"github.com/ktimer/ktimer-go/pkg/transport"
	"github.com/ktimer/ktimer-go/pkg/version"
	"github.com/ktimer/ktimer-go/pkg/wire"
)

// Options holds the command-line options.
type Options struct {
	Addr        string
	DeviceID    string
	Interface   string
	Timeout     time.Duration
	ProtocolLog string
}

var opts Options

func init() {
	flag.StringVar(&opts.Addr, "addr", "", "Device address (host:port)")
	flag.StringVar(&opts.DeviceID, "device", "", "Find the device with this ID over mDNS")
	flag.StringVar(&opts.Interface, "interface", "", "Network interface for mDNS")
	flag.DurationVar(&opts.Timeout, "timeout", 5*time.Second, "Request and browse timeout")
	flag.StringVar(&opts.ProtocolLog, "protocol-log", "", "Write a capture of all protocol events to this file")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ktimer-ctl [flags] <command> [args]\n\nFlags:\n")
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr, commandHelp)
	}
}

const commandHelp = `
Commands:
  discover                          Browse the network for devices
  list                              List all timers
  status <timer>                    Show one timer
  start <timer> [seconds]           Start (default: the set duration)
  pause <timer>                     Pause
  resume <timer>                    Resume
  cancel <timer>                    Stop and reset
  set <timer> <seconds>             Change the set duration
  max <timer> <seconds>             Change the maximum duration (0 = unlimited)
  remote-state <timer> <text>       Push a hub state (idle, paused, active)
  remote-remaining <timer> <value>  Push a hub remaining-seconds value
  watch [timer]                     Follow notifications, reconnecting on loss
`

func main() {
	flag.Parse()
	log.SetFlags(log.Ltime)

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	cmd, args := flag.Arg(0), flag.Args()[1:]

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var logger klog.Logger
	if opts.ProtocolLog != "" {
		fl, err := klog.NewFileLogger(opts.ProtocolLog)
		if err != nil {
			log.Fatalf("Failed to open protocol log: %v", err)
		}
		defer fl.Close()
		logger = fl
	}

	var err error
	switch cmd {
	case "discover":
		err = runDiscover(ctx)
	case "watch":
		err = runWatch(ctx, args, logger)
	default:
		err = runCommand(ctx, cmd, args, logger)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runDiscover(ctx context.Context) error {
	browser := discovery.NewMDNSBrowser(discovery.BrowserConfig{
		BrowseTimeout: opts.Timeout,
		Interface:     opts.Interface,
	})
	devices, err := browser.FindAll(ctx)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("No devices found.")
		return nil
	}
	printDevices(os.Stdout, devices)
	return nil
}

// resolveAddr returns -addr, or browses for -device.
func resolveAddr(ctx context.Context) (string, error) {
	if opts.Addr != "" {
		return opts.Addr, nil
	}
	if opts.DeviceID == "" {
		return "", errors.New("one of -addr or -device is required")
	}

	browser := discovery.NewMDNSBrowser(discovery.BrowserConfig{
		BrowseTimeout: opts.Timeout,
		Interface:     opts.Interface,
	})
	dev, err := browser.FindByID(ctx, opts.DeviceID)
	if err != nil {
		return "", fmt.Errorf("device %s: %w", opts.DeviceID, err)
	}
	if err := version.Check(dev.Version); err != nil {
		return "", fmt.Errorf("device %s: %w", opts.DeviceID, err)
	}
	return dev.Address(), nil
}

func connect(ctx context.Context, logger klog.Logger, keepAlive bool) (*client.Client, error) {
	addr, err := resolveAddr(ctx)
	if err != nil {
		return nil, err
	}
	cfg := client.Config{
		Timeout:   opts.Timeout,
		Transport: transport.ClientConfig{ConnectTimeout: opts.Timeout},
		Logger:    logger,
	}
	if keepAlive {
		ka := transport.DefaultKeepAliveConfig()
		cfg.KeepAlive = &ka
	}
	return client.Dial(ctx, addr, cfg)
}

func runCommand(ctx context.Context, cmd string, args []string, logger klog.Logger) error {
	op, err := parseCommand(cmd, args)
	if err != nil {
		return err
	}

	c, err := connect(ctx, logger, false)
	if err != nil {
		return err
	}
	defer c.Close()

	if op == nil {
		timers, err := c.List(ctx)
		if err != nil {
			return err
		}
		printTimers(os.Stdout, timers)
		return nil
	}

	st, err := op(ctx, c)
	if err != nil {
		return err
	}
	printTimers(os.Stdout, []wire.TimerStatus{st})
	return nil
}

type timerOp func(context.Context, *client.Client) (wire.TimerStatus, error)

// parseCommand maps a command line onto a client call. A nil op means list.
func parseCommand(cmd string, args []string) (timerOp, error) {
	need := func(n int, usage string) error {
		if len(args) < n {
			return fmt.Errorf("usage: ktimer-ctl %s %s", cmd, usage)
		}
		return nil
	}

	switch cmd {
	case "list", "ls":
		return nil, nil
	case "status":
		if err := need(1, "<timer>"); err != nil {
			return nil, err
		}
		return func(ctx context.Context, c *client.Client) (wire.TimerStatus, error) {
			return c.Status(ctx, args[0])
		}, nil
	case "start":
		if err := need(1, "<timer> [seconds]"); err != nil {
			return nil, err
		}
		var secs *int
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return nil, fmt.Errorf("invalid seconds %q", args[1])
			}
			secs = &n
		}
		return func(ctx context.Context, c *client.Client) (wire.TimerStatus, error) {
			return c.Start(ctx, args[0], secs)
		}, nil
	case "pause", "resume", "cancel":
		if err := need(1, "<timer>"); err != nil {
			return nil, err
		}
		return func(ctx context.Context, c *client.Client) (wire.TimerStatus, error) {
			switch cmd {
			case "pause":
				return c.Pause(ctx, args[0])
			case "resume":
				return c.Resume(ctx, args[0])
			default:
				return c.Cancel(ctx, args[0])
			}
		}, nil
	case "set", "max":
		if err := need(2, "<timer> <seconds>"); err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("invalid seconds %q", args[1])
		}
		return func(ctx context.Context, c *client.Client) (wire.TimerStatus, error) {
			if cmd == "set" {
				return c.SetSeconds(ctx, args[0], n)
			}
			return c.SetMaxDuration(ctx, args[0], n)
		}, nil
	case "remote-state":
		if err := need(2, "<timer> <text>"); err != nil {
			return nil, err
		}
		return func(ctx context.Context, c *client.Client) (wire.TimerStatus, error) {
			return c.RemoteState(ctx, args[0], args[1])
		}, nil
	case "remote-remaining":
		if err := need(2, "<timer> <value>"); err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q", args[1])
		}
		return func(ctx context.Context, c *client.Client) (wire.TimerStatus, error) {
			return c.RemoteRemaining(ctx, args[0], v)
		}, nil
	default:
		return nil, fmt.Errorf("unknown command: %s", cmd)
	}
}

// runWatch subscribes and prints notifications until ctx is done,
// reconnecting with backoff when the connection drops.
func runWatch(ctx context.Context, args []string, logger klog.Logger) error {
	timerID := ""
	if len(args) > 0 {
		timerID = args[0]
	}

	backoff := client.NewBackoff(client.BackoffConfig{})
	for {
		err := watchOnce(ctx, timerID, logger, backoff)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if client.IsStatus(err, wire.StatusUnknownTimer) {
			return err
		}
		delay := backoff.Current()
		log.Printf("Connection lost (%v), retrying in ~%s", err, delay)
		if err := backoff.Wait(ctx); err != nil {
			return err
		}
	}
}

func watchOnce(ctx context.Context, timerID string, logger klog.Logger, backoff *client.Backoff) error {
	c, err := connect(ctx, logger, true)
	if err != nil {
		return err
	}
	defer c.Close()

	c.SetNotificationHandler(func(n *wire.Notification) {
		if line := formatNotification(n); line != "" {
			log.Print(line)
		}
	})

	timers, err := c.Subscribe(ctx, timerID)
	if err != nil {
		return err
	}
	backoff.Reset()
	printTimers(os.Stdout, timers)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.Done():
		return c.Err()
	}
}
