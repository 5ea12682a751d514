package scenario

import (
	"strconv"

	"github.com/ktimer/ktimer-go/pkg/config"
)

// Scenario is a single scenario loaded from YAML.
type Scenario struct {
	// ID is the unique scenario identifier.
	ID string `yaml:"id"`

	// Name is a human-readable name.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description,omitempty"`

	// Config configures the timer under test. Omitted fields take the
	// timer defaults.
	Config config.TimerConfig `yaml:"config"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Tags for categorizing scenarios.
	Tags []string `yaml:"tags,omitempty"`
}

// Step is one action with optional expectations.
type Step struct {
	// Action is the action to perform (e.g. "start", "tick", "remote_state").
	Action string `yaml:"action"`

	// Params are parameters for the action.
	Params map[string]any `yaml:"params,omitempty"`

	// Expect maps expectation keys to expected values.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Description explains what this step does.
	Description string `yaml:"description,omitempty"`
}

// LoadError describes a scenario loading failure.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.File == "" {
		return msg
	}
	return e.File + ": " + msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Result is the outcome of running a scenario.
type Result struct {
	Scenario *Scenario
	Passed   bool
	Steps    []*StepResult
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index int
	Step  *Step

	// Error is set when the action itself could not run.
	Error error

	// Failures lists unmet expectations.
	Failures []string
}

// Passed returns true if the action ran and every expectation held.
func (r *StepResult) Passed() bool {
	return r.Error == nil && len(r.Failures) == 0
}

// Failures returns every problem of the run, prefixed with its step.
func (r *Result) Failures() []string {
	var out []string
	for _, s := range r.Steps {
		prefix := "step " + strconv.Itoa(s.Index+1) + " (" + s.Step.Action + "): "
		if s.Error != nil {
			out = append(out, prefix+s.Error.Error())
		}
		for _, f := range s.Failures {
			out = append(out, prefix+f)
		}
	}
	return out
}
