package rtm

import (
	"context"
	"errors"

	"slackbroker/models"
)

var (
	// ErrClosedByRequest 表示 session 是因為收到關閉訊號而結束，並非錯誤
	ErrClosedByRequest = errors.New("stream closed by request")
	// ErrSinkUnavailable 表示下游已不再接收事件
	ErrSinkUnavailable = errors.New("event sink unavailable")
)

// Connector 提供即時串流的 websocket 位址
type Connector interface {
	ConnectStream(ctx context.Context) (string, error)
}

// Sink 接收串流上的每一個 frame
type Sink interface {
	Publish(event models.Event) error
}

// Control 是送往 session 的控制訊號
type Control int

const (
	CloseSignal Control = iota + 1
)

type State int32

const (
	StateConnecting State = iota + 1
	StateHandshaking
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
