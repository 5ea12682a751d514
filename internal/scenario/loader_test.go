package scenario_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ktimer/ktimer-go/internal/scenario"
)

// TestParseBasic tests basic YAML scenario parsing.
func TestParseBasic(t *testing.T) {
	yaml := `
id: SC-001
name: Basic
config:
  id: oven
  max_duration: 90s
  sync_interval: 2
steps:
  - action: start
    params:
      seconds: 10
    expect:
      remaining: 10
`
	sc, err := scenario.Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Failed to parse scenario: %v", err)
	}
	if sc.ID != "SC-001" || sc.Name != "Basic" {
		t.Errorf("identity mismatch: %q %q", sc.ID, sc.Name)
	}
	if sc.Config.ID != "oven" {
		t.Errorf("config ID: expected oven, got %s", sc.Config.ID)
	}
	if sc.Config.MaxDuration.Seconds() != 90 {
		t.Errorf("max duration: expected 90, got %d", sc.Config.MaxDuration.Seconds())
	}
	if sc.Config.SyncInterval.Std() != 2*time.Second {
		t.Errorf("sync interval: expected 2s, got %v", sc.Config.SyncInterval.Std())
	}
	if !sc.Config.EnableRemoteSync {
		t.Error("remote sync should default to enabled")
	}
	if len(sc.Steps) != 1 || sc.Steps[0].Action != "start" {
		t.Fatalf("unexpected steps: %+v", sc.Steps)
	}
}

// TestParseDefaultsWithoutConfig tests that a missing config block gets
// the timer defaults.
func TestParseDefaultsWithoutConfig(t *testing.T) {
	sc, err := scenario.Parse([]byte("id: x\nsteps:\n  - action: tick\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sc.Config.ID != "timer" {
		t.Errorf("expected default ID timer, got %s", sc.Config.ID)
	}
	if sc.Config.MaxDuration.Seconds() != 7200 {
		t.Errorf("expected default max duration 7200, got %d", sc.Config.MaxDuration.Seconds())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "id: [", "failed to parse YAML"},
		{"missing id", "steps:\n  - action: tick\n", "ID is required"},
		{"no steps", "id: x\n", "at least one step"},
		{"unknown action", "id: x\nsteps:\n  - action: explode\n", `unknown action "explode"`},
		{"unknown expectation", "id: x\nsteps:\n  - action: tick\n    expect: {colour: red}\n", `unknown expectation "colour"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scenario.Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			var le *scenario.LoadError
			if !errors.As(err, &le) {
				t.Fatalf("expected LoadError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadSetsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("name: no id\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := scenario.Load(path)
	var le *scenario.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if le.File != path {
		t.Errorf("File: expected %s, got %s", path, le.File)
	}

	_, err = scenario.Load(filepath.Join(dir, "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestLoadDirectorySkipsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b.yaml":    "id: b\nsteps:\n  - action: tick\n",
		"a.yml":     "id: a\nsteps:\n  - action: tick\n",
		"notes.txt": "not a scenario",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	scs, err := scenario.LoadDirectory(dir)
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	if len(scs) != 2 || scs[0].ID != "a" || scs[1].ID != "b" {
		t.Fatalf("unexpected scenarios: %d", len(scs))
	}
}
