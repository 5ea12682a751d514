package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/ktimer/ktimer-go/pkg/log"
	"github.com/ktimer/ktimer-go/pkg/scheduler"
	"github.com/ktimer/ktimer-go/pkg/timer"
	"github.com/ktimer/ktimer-go/pkg/wire"
)

// ProtocolHandler turns wire requests into engine calls.
type ProtocolHandler struct {
	timers TimerRegistry
	subs   *SubscriptionManager
	logger log.Logger
}

// NewProtocolHandler creates a handler over the given timers.
func NewProtocolHandler(timers TimerRegistry, subs *SubscriptionManager, logger log.Logger) *ProtocolHandler {
	return &ProtocolHandler{
		timers: timers,
		subs:   subs,
		logger: log.OrNoop(logger),
	}
}

// HandleMessage decodes one frame from connID and returns the encoded
// response. It returns nil when the frame carries no message ID to answer.
func (h *ProtocolHandler) HandleMessage(ctx context.Context, connID string, data []byte) []byte {
	received := time.Now()

	req, err := wire.DecodeRequest(data)
	if req == nil || errors.Is(err, wire.ErrReservedMessageID) {
		h.logError(connID, err)
		return nil
	}
	h.logMessage(connID, req.TimerID, log.DirectionIn, log.MessageTypeRequest, req.MessageID, &req.Operation, nil, nil)

	var resp *wire.Response
	if err != nil {
		resp = rejectRequest(req, err)
	} else {
		resp = h.HandleRequest(ctx, connID, req)
	}

	out, encErr := wire.EncodeResponse(resp)
	if encErr != nil {
		h.logError(connID, encErr)
		return nil
	}
	elapsed := time.Since(received)
	h.logMessage(connID, req.TimerID, log.DirectionOut, log.MessageTypeResponse, resp.MessageID, nil, &resp.Status, &elapsed)
	return out
}

// HandleRequest processes a validated request.
func (h *ProtocolHandler) HandleRequest(ctx context.Context, connID string, req *wire.Request) *wire.Response {
	switch req.Operation {
	case wire.OpList:
		return h.handleList(ctx, req)
	case wire.OpSubscribe:
		return h.handleSubscribe(ctx, connID, req)
	case wire.OpUnsubscribe:
		h.subs.Unsubscribe(connID, req.TimerID)
		return &wire.Response{MessageID: req.MessageID, Status: wire.StatusSuccess}
	}

	t, ok := h.timers.Timer(req.TimerID)
	if !ok {
		return errorResponse(req.MessageID, wire.StatusUnknownTimer, "unknown timer "+req.TimerID)
	}

	var apply func(*timer.Engine)
	switch req.Operation {
	case wire.OpStatus:
		apply = func(*timer.Engine) {}
	case wire.OpStart:
		apply = func(e *timer.Engine) {
			if req.Seconds == nil {
				e.StartDefault()
				return
			}
			e.Start(*req.Seconds)
		}
	case wire.OpPause:
		apply = (*timer.Engine).Pause
	case wire.OpResume:
		apply = (*timer.Engine).Resume
	case wire.OpCancel:
		apply = (*timer.Engine).Cancel
	case wire.OpSetSeconds:
		apply = func(e *timer.Engine) { e.SetSeconds(*req.Seconds) }
	case wire.OpSetMaxDuration:
		if *req.Seconds < 0 || int64(*req.Seconds) > math.MaxUint32 {
			return errorResponse(req.MessageID, wire.StatusInvalidPayload, "max duration out of range")
		}
		apply = func(e *timer.Engine) { e.SetMaxDuration(uint32(*req.Seconds)) }
	case wire.OpRemoteState:
		if t.remote.State == nil {
			return errorResponse(req.MessageID, wire.StatusUnavailable, "remote state not configured")
		}
		apply = func(*timer.Engine) { t.remote.State.Publish(req.Text) }
	case wire.OpRemoteRemaining:
		if t.remote.Remaining == nil {
			return errorResponse(req.MessageID, wire.StatusUnavailable, "remote remaining not configured")
		}
		apply = func(*timer.Engine) { t.remote.Remaining.Publish(*req.Value) }
	default:
		return errorResponse(req.MessageID, wire.StatusInvalidOperation, "unsupported operation")
	}

	var st wire.TimerStatus
	err := t.Do(ctx, func(e *timer.Engine) {
		apply(e)
		st = engineStatus(e)
	})
	if err != nil {
		return loopErrorResponse(req.MessageID, err)
	}
	return &wire.Response{
		MessageID: req.MessageID,
		Status:    wire.StatusSuccess,
		Timers:    []wire.TimerStatus{st},
	}
}

func (h *ProtocolHandler) handleList(ctx context.Context, req *wire.Request) *wire.Response {
	timers := h.timers.Timers()
	statuses := make([]wire.TimerStatus, 0, len(timers))
	for _, t := range timers {
		st, err := t.Status(ctx)
		if err != nil {
			return loopErrorResponse(req.MessageID, err)
		}
		statuses = append(statuses, st)
	}
	return &wire.Response{MessageID: req.MessageID, Status: wire.StatusSuccess, Timers: statuses}
}

// handleSubscribe registers the subscription and primes the subscriber
// with the current status of every timer it now follows.
func (h *ProtocolHandler) handleSubscribe(ctx context.Context, connID string, req *wire.Request) *wire.Response {
	if req.TimerID == "" {
		h.subs.Subscribe(connID, "")
		return h.handleList(ctx, req)
	}

	t, ok := h.timers.Timer(req.TimerID)
	if !ok {
		return errorResponse(req.MessageID, wire.StatusUnknownTimer, "unknown timer "+req.TimerID)
	}
	h.subs.Subscribe(connID, req.TimerID)

	st, err := t.Status(ctx)
	if err != nil {
		return loopErrorResponse(req.MessageID, err)
	}
	return &wire.Response{MessageID: req.MessageID, Status: wire.StatusSuccess, Timers: []wire.TimerStatus{st}}
}

func (h *ProtocolHandler) logMessage(connID, timerID string, dir log.Direction, typ log.MessageType,
	msgID uint32, op *wire.Operation, status *wire.Status, elapsed *time.Duration) {
	h.logger.Log(log.Event{
		Timestamp:    time.Now(),
		TimerID:      timerID,
		ConnectionID: connID,
		Direction:    dir,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		Message: &log.MessageEvent{
			Type:           typ,
			MessageID:      msgID,
			Operation:      op,
			Status:         status,
			ProcessingTime: elapsed,
		},
	})
}

func (h *ProtocolHandler) logError(connID string, err error) {
	h.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerWire,
		Category:     log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerWire,
			Message: err.Error(),
			Context: "decode request",
		},
	})
}

// rejectRequest answers a request that decoded but failed validation.
func rejectRequest(req *wire.Request, err error) *wire.Response {
	status := wire.StatusInvalidPayload
	if errors.Is(err, wire.ErrInvalidOperation) {
		status = wire.StatusInvalidOperation
	}
	return errorResponse(req.MessageID, status, err.Error())
}

func loopErrorResponse(msgID uint32, err error) *wire.Response {
	if errors.Is(err, scheduler.ErrStopped) {
		return errorResponse(msgID, wire.StatusBusy, "timer stopped")
	}
	return errorResponse(msgID, wire.StatusBusy, err.Error())
}

func errorResponse(msgID uint32, status wire.Status, msg string) *wire.Response {
	return &wire.Response{MessageID: msgID, Status: status, Message: msg}
}
