// Package interactive provides the interactive console for ktimer-device.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/ktimer/ktimer-go/pkg/service"
	"github.com/ktimer/ktimer-go/pkg/timer"
	"github.com/ktimer/ktimer-go/pkg/wire"
)

// Console handles interactive mode for ktimer-device.
type Console struct {
	svc *service.DeviceService
	rl  *readline.Instance
	out io.Writer

	// showTicks prints every tick when set.
	showTicks bool
}

// New creates a console bound to svc.
func New(svc *service.DeviceService) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "timer> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	c := &Console{svc: svc, rl: rl, out: rl.Stdout()}
	svc.OnEvent(c.handleEvent)
	return c, nil
}

// Stdout returns a writer that coordinates with the readline prompt.
func (c *Console) Stdout() io.Writer {
	return c.out
}

// Run reads commands until quit, EOF or ctx is done.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		if cmd == "quit" || cmd == "exit" || cmd == "q" {
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
		if err := c.Exec(ctx, cmd, args); err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
		}
	}
}

// Exec runs one console command.
func (c *Console) Exec(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help", "?":
		c.printHelp()
		return nil
	case "list", "ls":
		return c.cmdList(ctx)
	case "ticks":
		c.showTicks = !c.showTicks
		fmt.Fprintf(c.out, "Tick display: %v\n", c.showTicks)
		return nil
	case "status", "s":
		return c.withTimer(ctx, args, 0, func(*timer.Engine, []string) error { return nil })
	case "start":
		return c.withTimer(ctx, args, 0, func(e *timer.Engine, rest []string) error {
			if len(rest) == 0 {
				e.StartDefault()
				return nil
			}
			secs, err := strconv.Atoi(rest[0])
			if err != nil {
				return fmt.Errorf("invalid seconds %q", rest[0])
			}
			e.Start(secs)
			return nil
		})
	case "pause", "p":
		return c.withTimer(ctx, args, 0, func(e *timer.Engine, _ []string) error { e.Pause(); return nil })
	case "resume", "r":
		return c.withTimer(ctx, args, 0, func(e *timer.Engine, _ []string) error { e.Resume(); return nil })
	case "cancel", "c":
		return c.withTimer(ctx, args, 0, func(e *timer.Engine, _ []string) error { e.Cancel(); return nil })
	case "set":
		return c.withTimer(ctx, args, 1, func(e *timer.Engine, rest []string) error {
			secs, err := strconv.Atoi(rest[0])
			if err != nil {
				return fmt.Errorf("invalid seconds %q", rest[0])
			}
			e.SetSeconds(secs)
			return nil
		})
	case "max":
		return c.withTimer(ctx, args, 1, func(e *timer.Engine, rest []string) error {
			secs, err := strconv.ParseUint(rest[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid max duration %q", rest[0])
			}
			e.SetMaxDuration(uint32(secs))
			return nil
		})
	case "remote-state", "rs":
		return c.cmdRemoteState(ctx, args)
	case "remote-remaining", "rr":
		return c.cmdRemoteRemaining(ctx, args)
	default:
		return fmt.Errorf("unknown command: %s (type 'help' for commands)", cmd)
	}
}

// resolve splits args into a timer and the remaining arguments. The timer
// ID may be omitted when the device has a single timer.
func (c *Console) resolve(args []string, want int) (*service.Timer, []string, error) {
	if len(args) > 0 {
		if t, ok := c.svc.Timer(args[0]); ok {
			args = args[1:]
			if len(args) < want {
				return nil, nil, fmt.Errorf("expected %d argument(s)", want)
			}
			return t, args, nil
		}
	}
	timers := c.svc.Timers()
	if len(timers) != 1 {
		if len(args) > want {
			return nil, nil, fmt.Errorf("%w: %s", service.ErrUnknownTimer, args[0])
		}
		return nil, nil, errors.New("timer ID required")
	}
	if len(args) < want {
		return nil, nil, fmt.Errorf("expected %d argument(s)", want)
	}
	return timers[0], args, nil
}

func (c *Console) withTimer(ctx context.Context, args []string, want int, fn func(*timer.Engine, []string) error) error {
	t, rest, err := c.resolve(args, want)
	if err != nil {
		return err
	}
	var (
		fnErr error
		snap  timer.Snapshot
	)
	if err := t.Do(ctx, func(e *timer.Engine) {
		fnErr = fn(e, rest)
		snap = e.Snapshot()
	}); err != nil {
		return err
	}
	if fnErr != nil {
		return fnErr
	}
	c.printSnapshot(t, snap)
	return nil
}

func (c *Console) cmdRemoteState(ctx context.Context, args []string) error {
	t, rest, err := c.resolve(args, 1)
	if err != nil {
		return err
	}
	return t.PublishRemoteState(ctx, strings.Join(rest, " "))
}

func (c *Console) cmdRemoteRemaining(ctx context.Context, args []string) error {
	t, rest, err := c.resolve(args, 1)
	if err != nil {
		return err
	}
	v, err := strconv.ParseFloat(rest[0], 64)
	if err != nil {
		return fmt.Errorf("invalid value %q", rest[0])
	}
	return t.PublishRemoteRemaining(ctx, v)
}

func (c *Console) cmdList(ctx context.Context) error {
	w := c.out
	fmt.Fprintf(w, "%-12s %-16s %-8s %9s %9s %s\n", "ID", "NAME", "STATUS", "REMAINING", "SET", "FLAGS")
	for _, t := range c.svc.Timers() {
		st, err := t.Status(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-12s %-16s %-8s %9d %9d %s\n",
			st.TimerID, st.Name, st.Status, st.Remaining, st.Set, flags(st))
	}
	return nil
}

func flags(st wire.TimerStatus) string {
	var f []string
	if st.Synced {
		f = append(f, "synced")
	}
	if st.MaxDuration > 0 {
		f = append(f, "max="+strconv.FormatUint(uint64(st.MaxDuration), 10))
	}
	return strings.Join(f, ",")
}

func (c *Console) printSnapshot(t *service.Timer, s timer.Snapshot) {
	fmt.Fprintf(c.out, "%s: %s remaining=%d set=%d synced=%v\n",
		t.ID(), s.Status, s.Remaining, s.Set, s.Synced)
}

func (c *Console) handleEvent(event service.Event) {
	if event.Type != service.EventTimerEvent {
		return
	}
	ev := event.TimerEvent
	if ev.Kind == timer.EventTick && !c.showTicks {
		return
	}

	line := fmt.Sprintf("[%s] %s: %s", time.Now().Format("15:04:05"), event.TimerID, ev.Kind)
	if ev.Kind == timer.EventTick {
		line += " " + strconv.Itoa(ev.Remaining)
	}
	if ev.FromRemote {
		line += " (remote)"
	}
	fmt.Fprintln(c.out, line)
	if c.rl != nil {
		c.rl.Refresh()
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Timer Commands ([id] may be omitted with a single timer):
  Control:
    start [id] [seconds]      - Start (default: the set duration)
    pause [id]                - Pause a running timer
    resume [id]               - Resume a paused timer
    cancel [id]               - Stop and reset
    set [id] <seconds>        - Change the set duration
    max [id] <seconds>        - Change the maximum duration (0 = unlimited)

  Remote:
    remote-state [id] <text>      - Feed a remote state (idle, paused, active)
    remote-remaining [id] <value> - Feed a remote remaining-seconds value

  Inspection:
    list                      - List all timers
    status [id]               - Show one timer
    ticks                     - Toggle tick display

  General:
    help                      - Show this help
    quit                      - Exit device`)
}
