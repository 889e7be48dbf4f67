package broker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"slackbroker/adapters/queue"
)

const (
	DirectMessageLimit = 5
	HistoryLimit       = 10
)

// pool 為每個請求啟動一個獨立的 worker，不等待其結束
type pool struct {
	token     string
	factory   ClientFactory
	responses *queue.Queue[Response]
	sem       *semaphore.Weighted
	logger    *slog.Logger
}

func newPool(token string, factory ClientFactory, responses *queue.Queue[Response], maxWorkers int, logger *slog.Logger) *pool {
	p := &pool{
		token:     token,
		factory:   factory,
		responses: responses,
		logger:    logger.With(slog.String("caller", "WorkerPool")),
	}
	if maxWorkers > 0 {
		p.sem = semaphore.NewWeighted(int64(maxWorkers))
	}
	return p
}

// dispatch 不會阻塞，名額限制在 worker 內部等待
func (p *pool) dispatch(req Request) {
	logger := p.logger.With(
		slog.String("task", uuid.NewString()),
		slog.String("request", req.String()),
	)
	logger.Debug("dispatching request")

	go func() {
		ctx := context.Background()
		if p.sem != nil {
			if err := p.sem.Acquire(ctx, 1); err != nil {
				logger.Warn("fail to acquire worker slot", slog.Any("error", err))
				return
			}
			defer p.sem.Release(1)
		}

		// 沒有人會讀取結果，不必呼叫 API
		if p.responses.IsDetached() {
			logger.Debug("consumer detached, request skipped")
			return
		}

		resp, err := p.execute(ctx, req)
		if err != nil {
			logger.Warn("request failed, no response sent", slog.Any("error", err))
			return
		}
		if err := p.responses.Send(resp); err != nil {
			logger.Debug("response dropped", slog.Any("error", err))
			return
		}
		logger.Debug("response sent")
	}()
}

func (p *pool) execute(ctx context.Context, req Request) (Response, error) {
	const op = "execute"
	client := p.factory(p.token)

	switch r := req.(type) {
	case ListChannels:
		channels, err := client.ListChannels(ctx)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to list channels, err=%w", op, err)
		}
		return ChannelList{Channels: channels}, nil
	case ListUsers:
		users, err := client.ListUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to list users, err=%w", op, err)
		}
		return UserList{Users: users}, nil
	case ListDirectMessages:
		conversations, err := client.ListDirectMessages(ctx, DirectMessageLimit)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to list direct messages, err=%w", op, err)
		}
		return DirectMessageList{Conversations: conversations}, nil
	case FetchHistory:
		messages, err := client.FetchHistory(ctx, r.ChannelID, HistoryLimit)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to fetch history, channel=%s, err=%w", op, r.ChannelID, err)
		}
		return History{ChannelID: r.ChannelID, Messages: messages}, nil
	default:
		return nil, fmt.Errorf("[%s] Unsupported request, request=%s", op, req)
	}
}
