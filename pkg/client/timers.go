package client

import (
	"context"

	"github.com/ktimer/ktimer-go/pkg/wire"
)

// Seconds returns a pointer to s, for Start.
func Seconds(s int) *int { return &s }

// List returns the status of every timer on the device.
func (c *Client) List(ctx context.Context) ([]wire.TimerStatus, error) {
	resp, err := c.Do(ctx, &wire.Request{Operation: wire.OpList})
	if err != nil {
		return nil, err
	}
	return resp.Timers, nil
}

// Status returns one timer's status.
func (c *Client) Status(ctx context.Context, timerID string) (wire.TimerStatus, error) {
	return c.timerOp(ctx, &wire.Request{Operation: wire.OpStatus, TimerID: timerID})
}

// Start starts the timer for seconds, or for its set duration when
// seconds is nil.
func (c *Client) Start(ctx context.Context, timerID string, seconds *int) (wire.TimerStatus, error) {
	return c.timerOp(ctx, &wire.Request{Operation: wire.OpStart, TimerID: timerID, Seconds: seconds})
}

// Pause pauses a running timer.
func (c *Client) Pause(ctx context.Context, timerID string) (wire.TimerStatus, error) {
	return c.timerOp(ctx, &wire.Request{Operation: wire.OpPause, TimerID: timerID})
}

// Resume resumes a paused timer.
func (c *Client) Resume(ctx context.Context, timerID string) (wire.TimerStatus, error) {
	return c.timerOp(ctx, &wire.Request{Operation: wire.OpResume, TimerID: timerID})
}

// Cancel stops the timer and resets it.
func (c *Client) Cancel(ctx context.Context, timerID string) (wire.TimerStatus, error) {
	return c.timerOp(ctx, &wire.Request{Operation: wire.OpCancel, TimerID: timerID})
}

// SetSeconds changes the set duration.
func (c *Client) SetSeconds(ctx context.Context, timerID string, seconds int) (wire.TimerStatus, error) {
	return c.timerOp(ctx, &wire.Request{Operation: wire.OpSetSeconds, TimerID: timerID, Seconds: &seconds})
}

// SetMaxDuration changes the maximum duration; zero means unlimited.
func (c *Client) SetMaxDuration(ctx context.Context, timerID string, seconds int) (wire.TimerStatus, error) {
	return c.timerOp(ctx, &wire.Request{Operation: wire.OpSetMaxDuration, TimerID: timerID, Seconds: &seconds})
}

// RemoteState pushes a hub state observation (idle, paused, active).
func (c *Client) RemoteState(ctx context.Context, timerID, text string) (wire.TimerStatus, error) {
	return c.timerOp(ctx, &wire.Request{Operation: wire.OpRemoteState, TimerID: timerID, Text: text})
}

// RemoteRemaining pushes a hub remaining-seconds observation.
func (c *Client) RemoteRemaining(ctx context.Context, timerID string, value float64) (wire.TimerStatus, error) {
	return c.timerOp(ctx, &wire.Request{Operation: wire.OpRemoteRemaining, TimerID: timerID, Value: &value})
}

// Subscribe follows timerID, or every timer when timerID is empty, and
// returns the current statuses.
func (c *Client) Subscribe(ctx context.Context, timerID string) ([]wire.TimerStatus, error) {
	resp, err := c.Do(ctx, &wire.Request{Operation: wire.OpSubscribe, TimerID: timerID})
	if err != nil {
		return nil, err
	}
	return resp.Timers, nil
}

// Unsubscribe stops following timerID, or everything when empty.
func (c *Client) Unsubscribe(ctx context.Context, timerID string) error {
	_, err := c.Do(ctx, &wire.Request{Operation: wire.OpUnsubscribe, TimerID: timerID})
	return err
}

func (c *Client) timerOp(ctx context.Context, req *wire.Request) (wire.TimerStatus, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return wire.TimerStatus{}, err
	}
	if len(resp.Timers) != 1 {
		return wire.TimerStatus{}, ErrUnexpectedReply
	}
	return resp.Timers[0], nil
}
