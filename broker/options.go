package broker

import (
	"log/slog"

	"github.com/cenkalti/backoff/v4"

	"slackbroker/adapters/rtm"
	"slackbroker/adapters/slack"
)

// ClientFactory 以 token 建立一個新的 API client，每個 worker 各自呼叫一次
type ClientFactory func(token string) slack.IClient

type brokerOptions struct {
	logger             *slog.Logger
	clientFactory      ClientFactory
	maxWorkers         int
	reconnect          backoff.BackOff
	sessionOptions     []rtm.SessionOption
	requestBufferSize  int
	responseBufferSize int
}

type Option func(*brokerOptions)

// WithLogger 設置日誌記錄器
func WithLogger(logger *slog.Logger) Option {
	return func(o *brokerOptions) {
		o.logger = logger
	}
}

// WithClientFactory 設置建立 API client 的方式
func WithClientFactory(factory ClientFactory) Option {
	return func(o *brokerOptions) {
		o.clientFactory = factory
	}
}

// WithMaxWorkers 限制同時執行的 worker 數量，0 表示不限制
func WithMaxWorkers(n int) Option {
	return func(o *brokerOptions) {
		o.maxWorkers = n
	}
}

// WithReconnect 讓串流在傳輸錯誤後依 b 重新連線
func WithReconnect(b backoff.BackOff) Option {
	return func(o *brokerOptions) {
		o.reconnect = b
	}
}

// WithSessionOptions 附加串流 session 的選項
func WithSessionOptions(opts ...rtm.SessionOption) Option {
	return func(o *brokerOptions) {
		o.sessionOptions = append(o.sessionOptions, opts...)
	}
}

// WithRequestBufferSize 設置請求佇列的初始容量
func WithRequestBufferSize(n int) Option {
	return func(o *brokerOptions) {
		o.requestBufferSize = n
	}
}

// WithResponseBufferSize 設置回應佇列的初始容量
func WithResponseBufferSize(n int) Option {
	return func(o *brokerOptions) {
		o.responseBufferSize = n
	}
}

func defaultClientFactory(token string) slack.IClient {
	return slack.NewClient(token)
}
