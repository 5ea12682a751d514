package transport

import (
	"time"

	"github.com/ktimer/ktimer-go/pkg/log"
	"github.com/ktimer/ktimer-go/pkg/wire"
)

// EncodePing encodes a ping control message.
func EncodePing(seq uint32) ([]byte, error) {
	return wire.EncodeControlMessage(&wire.ControlMessage{Type: wire.ControlPing, Sequence: seq})
}

// EncodePong encodes a pong control message.
func EncodePong(seq uint32) ([]byte, error) {
	return wire.EncodeControlMessage(&wire.ControlMessage{Type: wire.ControlPong, Sequence: seq})
}

// EncodeClose encodes a close control message.
func EncodeClose() ([]byte, error) {
	return wire.EncodeControlMessage(&wire.ControlMessage{Type: wire.ControlClose})
}

// AsControl returns the control message in data, or nil if data is not one.
func AsControl(data []byte) *wire.ControlMessage {
	msgType, err := wire.PeekMessageType(data)
	if err != nil || msgType != wire.MessageTypeControl {
		return nil
	}
	msg, err := wire.DecodeControlMessage(data)
	if err != nil {
		return nil
	}
	return msg
}

func logControl(logger log.Logger, connID, remote string, t wire.ControlMessageType, dir log.Direction) {
	if logger == nil {
		return
	}
	var ct log.ControlMsgType
	switch t {
	case wire.ControlPing:
		ct = log.ControlMsgPing
	case wire.ControlPong:
		ct = log.ControlMsgPong
	case wire.ControlClose:
		ct = log.ControlMsgClose
	default:
		return
	}
	logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    dir,
		Layer:        log.LayerTransport,
		Category:     log.CategoryControl,
		RemoteAddr:   remote,
		ControlMsg:   &log.ControlMsgEvent{Type: ct},
	})
}

func logConnState(logger log.Logger, connID, remote, oldState, newState string) {
	if logger == nil {
		return
	}
	logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		RemoteAddr:   remote,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: oldState,
			NewState: newState,
		},
	})
}
