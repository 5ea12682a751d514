package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ktimer/ktimer-go/pkg/discovery"
	"github.com/ktimer/ktimer-go/pkg/version"
	"github.com/ktimer/ktimer-go/pkg/wire"
)

func printTimers(w io.Writer, timers []wire.TimerStatus) {
	fmt.Fprintf(w, "%-12s %-16s %-8s %9s %9s %s\n", "ID", "NAME", "STATUS", "REMAINING", "SET", "FLAGS")
	for _, st := range timers {
		fmt.Fprintf(w, "%-12s %-16s %-8s %9s %9d %s\n",
			st.TimerID, st.Name, st.Status, formatRemaining(st.Remaining), st.Set, timerFlags(st))
	}
}

// formatRemaining renders seconds as m:ss, with a leading minus when overdue.
func formatRemaining(secs int) string {
	sign := ""
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	return fmt.Sprintf("%s%d:%02d", sign, secs/60, secs%60)
}

func timerFlags(st wire.TimerStatus) string {
	var f []string
	if st.Synced {
		f = append(f, "synced")
	}
	if st.MaxDuration > 0 {
		f = append(f, "max="+strconv.FormatUint(uint64(st.MaxDuration), 10))
	}
	return strings.Join(f, ",")
}

func formatNotification(n *wire.Notification) string {
	switch n.Kind {
	case wire.NotifyEvent:
		if n.Event == nil {
			return ""
		}
		line := n.TimerID + ": " + n.Event.Name
		if n.Event.Name == "tick" {
			line += " " + formatRemaining(n.Event.Remaining)
		}
		if n.Event.FromRemote {
			line += " (remote)"
		}
		return line
	case wire.NotifyChange:
		if n.Status == nil {
			return ""
		}
		return fmt.Sprintf("%s: %s %s set=%d", n.TimerID, n.Status.Status, formatRemaining(n.Status.Remaining), n.Status.Set)
	default:
		return ""
	}
}

func printDevices(w io.Writer, devices []*discovery.DeviceService) {
	fmt.Fprintf(w, "%-24s %-36s %-22s %-8s %s\n", "NAME", "ID", "ADDRESS", "API", "TIMERS")
	for _, d := range devices {
		api := d.Version
		if err := version.Check(d.Version); err != nil {
			api += " (incompatible)"
		}
		fmt.Fprintf(w, "%-24s %-36s %-22s %-8s %s\n",
			d.InstanceName, d.ID, d.Address(), api, strings.Join(d.Timers, ","))
	}
}
