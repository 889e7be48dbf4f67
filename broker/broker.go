package broker

import (
	"context"
	"errors"
	"log/slog"

	"slackbroker/adapters/queue"
	"slackbroker/adapters/rtm"
	"slackbroker/models"
)

var (
	ErrEmptyToken       = errors.New("token cannot be empty")
	ErrNilClientFactory = errors.New("client factory cannot be nil")
	ErrNilRequest       = errors.New("request cannot be nil")
)

// Handle 是呼叫端唯一持有的 broker 介面
type Handle struct {
	requests  *queue.Queue[Request]
	responses *queue.Queue[Response]
	session   *rtm.Session
	pool      *pool
	done      chan struct{}
	logger    *slog.Logger
}

// eventSink 將串流 frame 轉成 StreamEvent 放進回應佇列
type eventSink struct {
	responses *queue.Queue[Response]
}

func (s eventSink) Publish(event models.Event) error {
	return s.responses.Send(StreamEvent{Event: event})
}

// Start 啟動 broker 並立即返回。
// 串流 session 與派發迴圈都在背景執行，ctx 取消等同送出 Close。
func Start(ctx context.Context, token string, opts ...Option) (*Handle, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}

	// 默認選項
	options := brokerOptions{
		logger:        slog.Default(),
		clientFactory: defaultClientFactory,
	}

	// 應用自定義選項
	for _, opt := range opts {
		opt(&options)
	}

	if options.clientFactory == nil {
		return nil, ErrNilClientFactory
	}

	h := &Handle{
		requests:  queue.New[Request](options.requestBufferSize),
		responses: queue.New[Response](options.responseBufferSize),
		done:      make(chan struct{}),
		logger:    options.logger.With(slog.String("caller", "Broker")),
	}

	sessionOpts := []rtm.SessionOption{rtm.WithLogger(options.logger)}
	if options.reconnect != nil {
		sessionOpts = append(sessionOpts, rtm.WithReconnect(options.reconnect))
	}
	sessionOpts = append(sessionOpts, options.sessionOptions...)

	h.session = rtm.Open(ctx, options.clientFactory(token), eventSink{responses: h.responses}, sessionOpts...)
	h.pool = newPool(token, options.clientFactory, h.responses, options.maxWorkers, options.logger)

	go h.run(ctx)
	return h, nil
}

func (h *Handle) run(ctx context.Context) {
	defer close(h.done)
	h.logger.Info("broker started")

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("context done, shutting down", slog.Any("error", ctx.Err()))
			h.shutdown()
			return
		case req, ok := <-h.requests.Out():
			if !ok {
				h.shutdown()
				return
			}
			if _, isClose := req.(Close); isClose {
				h.logger.Info("close requested, shutting down")
				h.shutdown()
				return
			}
			h.pool.dispatch(req)
		}
	}
}

// shutdown 依序停止接收請求、關閉並等待串流，最後關閉回應佇列
func (h *Handle) shutdown() {
	h.requests.Close()
	h.requests.Detach()

	h.session.Close()
	h.session.Wait()
	h.logger.Debug("stream session joined")

	h.responses.Close()
	h.logger.Info("broker stopped")
}

// Send 送出請求，永遠不會阻塞。broker 停止接收後回傳 queue.ErrClosed。
func (h *Handle) Send(req Request) error {
	if req == nil {
		return ErrNilRequest
	}
	return h.requests.Send(req)
}

// Responses 回傳唯一的回應通道，broker 結束且緩衝清空後關閉
func (h *Handle) Responses() <-chan Response {
	return h.responses.Out()
}

// Done 在 broker 的背景 goroutine 結束時關閉
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

func (h *Handle) Wait() {
	<-h.done
}

// Close 送出 Close 並等待 broker 結束，可重複呼叫
func (h *Handle) Close() {
	if err := h.requests.Send(Close{}); err != nil {
		h.logger.Debug("close request not accepted", slog.Any("error", err))
	}
	<-h.done
}

// Detach 表示呼叫端不再讀取回應，之後所有生產者的送出都會失敗而非阻塞
func (h *Handle) Detach() {
	h.responses.Detach()
}
