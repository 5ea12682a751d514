package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes captured events to an slog.Logger at Debug level.
// Useful during development to see engine and protocol activity in the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	if event.TimerID != "" {
		attrs = append(attrs, slog.String("timer", event.TimerID))
	}
	if event.ConnectionID != "" {
		attrs = append(attrs,
			slog.String("conn_id", event.ConnectionID),
			slog.String("direction", event.Direction.String()),
		)
	}
	if event.Layer == LayerEngine {
		attrs = append(attrs, slog.String("origin", event.Origin.String()))
	}

	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("frame_size", event.Frame.Size),
			slog.Bool("truncated", event.Frame.Truncated),
		)
	case event.Message != nil:
		attrs = append(attrs,
			slog.Uint64("msg_id", uint64(event.Message.MessageID)),
			slog.String("msg_type", event.Message.Type.String()),
		)
		if event.Message.Operation != nil {
			attrs = append(attrs, slog.String("operation", event.Message.Operation.String()))
		}
		if event.Message.Status != nil {
			attrs = append(attrs, slog.String("status", event.Message.Status.String()))
		}
		if event.Message.ProcessingTime != nil {
			attrs = append(attrs, slog.Duration("processing_time", *event.Message.ProcessingTime))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Command != nil:
		attrs = append(attrs,
			slog.String("command", event.Command.Name),
			slog.Bool("applied", event.Command.Applied),
		)
		if event.Command.Seconds != nil {
			attrs = append(attrs, slog.Int("seconds", *event.Command.Seconds))
		}
	case event.Remote != nil:
		attrs = append(attrs,
			slog.String("channel", event.Remote.Channel.String()),
			slog.String("outcome", event.Remote.Outcome.String()),
		)
		if event.Remote.Channel == ChannelState {
			attrs = append(attrs, slog.String("text", event.Remote.Text))
		} else {
			attrs = append(attrs, slog.Float64("value", event.Remote.Value))
		}
	case event.Tick != nil:
		attrs = append(attrs,
			slog.Int("remaining", event.Tick.Remaining),
			slog.Bool("overdue", event.Tick.Overdue),
		)
	case event.ControlMsg != nil:
		attrs = append(attrs, slog.String("ctrl_type", event.ControlMsg.Type.String()))
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "ktimer", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
