package rtm

import (
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

const (
	defaultPingInterval = 30 * time.Second
	writeWait           = 5 * time.Second
	// 連續兩個 ping 週期都沒有回應才判定斷線
	pongWaitFactor      = 2
)

type sessionOptions struct {
	logger       *slog.Logger
	dialer       *websocket.Dialer
	reconnect    backoff.BackOff
	pingInterval time.Duration
}

type SessionOption func(*sessionOptions)

// WithLogger 設置日誌記錄器
func WithLogger(logger *slog.Logger) SessionOption {
	return func(o *sessionOptions) {
		o.logger = logger
	}
}

// WithDialer 設置 websocket 撥號器
func WithDialer(dialer *websocket.Dialer) SessionOption {
	return func(o *sessionOptions) {
		o.dialer = dialer
	}
}

// WithReconnect 啟用斷線重連，b 決定每次重連前的等待時間，
// 回傳 backoff.Stop 時 session 結束
func WithReconnect(b backoff.BackOff) SessionOption {
	return func(o *sessionOptions) {
		o.reconnect = b
	}
}

// WithPingInterval 設置 ping 的間隔，0 表示不送 ping 也不檢查讀取逾時
func WithPingInterval(d time.Duration) SessionOption {
	return func(o *sessionOptions) {
		o.pingInterval = d
	}
}
