package scenario

import (
	"fmt"
	"time"

	"github.com/ktimer/ktimer-go/pkg/log"
	"github.com/ktimer/ktimer-go/pkg/timer"
)

// Runner executes scenarios.
type Runner struct {
	logger log.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger forwards every capture event of the engine to logger.
func WithLogger(logger log.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// NewRunner creates a runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every step of sc against a fresh engine. A failing step does
// not stop the run; later steps still execute so all failures are
// reported together.
func (r *Runner) Run(sc *Scenario) *Result {
	st := newRun(sc, r.logger)
	res := &Result{Scenario: sc, Passed: true}

	for i := range sc.Steps {
		step := &sc.Steps[i]
		sr := &StepResult{Index: i, Step: step}

		st.events = st.events[:0]
		st.captured = st.captured[:0]
		if err := actions[step.Action](st, step.Params); err != nil {
			sr.Error = err
		} else {
			sr.Failures = st.check(step.Expect)
		}

		if !sr.Passed() {
			res.Passed = false
		}
		res.Steps = append(res.Steps, sr)
	}
	return res
}

// run is the state of one scenario execution.
type run struct {
	engine    *timer.Engine
	clock     *Clock
	state     *remoteText
	remaining *remoteNumber

	// events and captured hold what happened during the current step.
	events   []string
	captured []log.Event
}

func newRun(sc *Scenario, extra log.Logger) *run {
	st := &run{clock: NewClock()}

	var logger log.Logger = st
	if extra != nil {
		logger = log.NewMultiLogger(st, extra)
	}
	cfg := sc.Config.EngineConfig(logger)
	cfg.Clock = st.clock
	st.engine = timer.NewEngine(cfg)

	if sc.Config.RemoteState {
		st.state = &remoteText{}
		st.engine.BindRemoteState(st.state)
	}
	if sc.Config.RemoteRemaining {
		st.remaining = &remoteNumber{}
		st.engine.BindRemoteRemaining(st.remaining)
	}

	st.engine.OnChange(func(timer.Snapshot) { st.events = append(st.events, "change") })
	st.engine.OnEvent(func(ev timer.Event) {
		name := ev.Kind.String()
		if ev.FromRemote {
			name += ":remote"
		}
		st.events = append(st.events, name)
	})
	return st
}

// Log captures engine events for the current step.
func (st *run) Log(ev log.Event) {
	st.captured = append(st.captured, ev)
}

// lastRemoteOutcome returns the outcome of the last remote observation of
// the step.
func (st *run) lastRemoteOutcome() (string, bool) {
	for i := len(st.captured) - 1; i >= 0; i-- {
		if r := st.captured[i].Remote; r != nil {
			return r.Outcome.String(), true
		}
	}
	return "", false
}

// actions maps action names to their implementation.
var actions = map[string]func(st *run, p map[string]any) error{
	"start": func(st *run, p map[string]any) error {
		s, ok, err := intParam(p, "seconds")
		if err != nil {
			return err
		}
		if ok {
			st.engine.Start(s)
		} else {
			st.engine.StartDefault()
		}
		return nil
	},
	"pause":  func(st *run, _ map[string]any) error { st.engine.Pause(); return nil },
	"resume": func(st *run, _ map[string]any) error { st.engine.Resume(); return nil },
	"cancel": func(st *run, _ map[string]any) error { st.engine.Cancel(); return nil },
	"set_seconds": func(st *run, p map[string]any) error {
		s, err := requireInt(p, "seconds")
		if err != nil {
			return err
		}
		st.engine.SetSeconds(s)
		return nil
	},
	"set_max_duration": func(st *run, p map[string]any) error {
		s, err := requireInt(p, "seconds")
		if err != nil {
			return err
		}
		if s < 0 {
			return fmt.Errorf("seconds must not be negative")
		}
		st.engine.SetMaxDuration(uint32(s))
		return nil
	},
	"tick": func(st *run, p map[string]any) error {
		n, ok, err := intParam(p, "count")
		if err != nil {
			return err
		}
		if !ok {
			n = 1
		}
		for range n {
			st.engine.Tick()
		}
		return nil
	},
	"advance": func(st *run, p map[string]any) error {
		raw, ok := p["duration"]
		if !ok {
			return fmt.Errorf("missing param %q", "duration")
		}
		d, err := time.ParseDuration(fmt.Sprint(raw))
		if err != nil {
			return err
		}
		st.clock.Advance(d)
		return nil
	},
	"remote_state": func(st *run, p map[string]any) error {
		text, ok := p["text"].(string)
		if !ok {
			return fmt.Errorf("missing string param %q", "text")
		}
		// Without a bound observable no observation reaches the engine.
		if st.state != nil {
			st.state.push(text)
		}
		return nil
	},
	"remote_remaining": func(st *run, p map[string]any) error {
		v, err := requireFloat(p, "value")
		if err != nil {
			return err
		}
		if st.remaining != nil {
			st.remaining.push(v)
		}
		return nil
	},
	"remote_remaining_value": func(st *run, p map[string]any) error {
		v, err := requireFloat(p, "value")
		if err != nil {
			return err
		}
		if st.remaining == nil {
			return fmt.Errorf("remote_remaining is not bound")
		}
		st.remaining.set(v)
		return nil
	},
}

func intParam(p map[string]any, key string) (int, bool, error) {
	raw, ok := p[key]
	if !ok {
		return 0, false, nil
	}
	v, ok := toInt(raw)
	if !ok {
		return 0, false, fmt.Errorf("param %q: expected integer, got %v", key, raw)
	}
	return v, true, nil
}

func requireInt(p map[string]any, key string) (int, error) {
	v, ok, err := intParam(p, key)
	if err == nil && !ok {
		err = fmt.Errorf("missing param %q", key)
	}
	return v, err
}

func requireFloat(p map[string]any, key string) (float64, error) {
	raw, ok := p[key]
	if !ok {
		return 0, fmt.Errorf("missing param %q", key)
	}
	v, ok := toFloat(raw)
	if !ok {
		return 0, fmt.Errorf("param %q: expected number, got %v", key, raw)
	}
	return v, nil
}
