package scenario

import (
	"fmt"
	"math"
	"sort"
)

// checks maps expectation keys to their checker. A checker returns an
// empty string when the expectation holds.
var checks = map[string]func(st *run, want any) string{
	"remaining":    func(st *run, want any) string { return expectInt(want, st.engine.Remaining()) },
	"set":          func(st *run, want any) string { return expectInt(want, st.engine.Set()) },
	"max_duration": func(st *run, want any) string { return expectInt(want, int(st.engine.MaxDuration())) },
	"status":       func(st *run, want any) string { return expectString(want, st.engine.Status()) },
	"state":        func(st *run, want any) string { return expectString(want, st.engine.State().String()) },
	"running":      func(st *run, want any) string { return expectBool(want, st.engine.Snapshot().Running) },
	"paused":       func(st *run, want any) string { return expectBool(want, st.engine.Snapshot().Paused) },
	"overdue":      func(st *run, want any) string { return expectBool(want, st.engine.Overdue()) },
	"synced":       func(st *run, want any) string { return expectBool(want, st.engine.Synced()) },
	"events": func(st *run, want any) string {
		list, ok := want.([]any)
		if !ok {
			return fmt.Sprintf("expected a list, got %v", want)
		}
		exp := make([]string, len(list))
		for i, v := range list {
			exp[i] = fmt.Sprint(v)
		}
		if fmt.Sprint(exp) != fmt.Sprint(st.events) {
			return fmt.Sprintf("expected %v, got %v", exp, st.events)
		}
		return ""
	},
	"remote_outcome": func(st *run, want any) string {
		got, ok := st.lastRemoteOutcome()
		if !ok {
			return "no remote observation was logged"
		}
		return expectString(want, got)
	},
}

// check evaluates every expectation, in key order for stable output.
func (st *run) check(expect map[string]any) []string {
	keys := make([]string, 0, len(expect))
	for k := range expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var failures []string
	for _, k := range keys {
		if msg := checks[k](st, expect[k]); msg != "" {
			failures = append(failures, k+": "+msg)
		}
	}
	return failures
}

func expectInt(want any, got int) string {
	w, ok := toInt(want)
	if !ok {
		return fmt.Sprintf("expected an integer, got %v", want)
	}
	if w != got {
		return fmt.Sprintf("expected %d, got %d", w, got)
	}
	return ""
}

func expectString(want any, got string) string {
	w, ok := want.(string)
	if !ok {
		return fmt.Sprintf("expected a string, got %v", want)
	}
	if w != got {
		return fmt.Sprintf("expected %q, got %q", w, got)
	}
	return ""
}

func expectBool(want any, got bool) string {
	w, ok := want.(bool)
	if !ok {
		return fmt.Sprintf("expected a bool, got %v", want)
	}
	if w != got {
		return fmt.Sprintf("expected %t, got %t", w, got)
	}
	return ""
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
