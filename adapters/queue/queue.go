package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/smallnest/chanx"
)

var (
	// ErrClosed 表示佇列已停止接收新的資料
	ErrClosed = errors.New("queue is closed")
	// ErrDetached 表示消費者已離開，資料不會再被讀取
	ErrDetached = errors.New("queue consumer is detached")
)

// Queue 是多生產者、單一消費者的無界佇列。
// Send 在佇列存活時永遠不會阻塞；消費者從 Out 讀取，順序為 FIFO。
type Queue[T any] struct {
	ch     *chanx.UnboundedChan[T]
	cancel context.CancelFunc

	mu     sync.RWMutex // 保護 closed 與 ch.In 的關閉
	closed bool

	detached   chan struct{}
	detachOnce sync.Once
}

// New 建立一個新的佇列，initCapacity 為內部緩衝的初始大小
func New[T any](initCapacity int) *Queue[T] {
	if initCapacity <= 0 {
		initCapacity = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue[T]{
		ch:       chanx.NewUnboundedChan[T](ctx, initCapacity),
		cancel:   cancel,
		detached: make(chan struct{}),
	}
}

// Send 將資料放入佇列。
// 佇列關閉後回傳 ErrClosed，消費者離開後回傳 ErrDetached。
func (q *Queue[T]) Send(v T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}
	select {
	case <-q.detached:
		return ErrDetached
	default:
	}

	select {
	case q.ch.In <- v:
		return nil
	case <-q.detached:
		return ErrDetached
	}
}

// Out 回傳消費端通道。
// Close 之後，緩衝中的資料全部讀出時通道會被關閉。
func (q *Queue[T]) Out() <-chan T {
	return q.ch.Out
}

// Close 停止接收新的資料，已在佇列中的資料仍可由 Out 讀出
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.ch.In)
}

// Detach 表示消費者不再讀取；
// 之後所有 Send 都會立即失敗，並釋放內部的 goroutine。
func (q *Queue[T]) Detach() {
	q.detachOnce.Do(func() {
		close(q.detached)
		q.cancel()
	})
}

// IsDetached 判斷消費者是否已離開
func (q *Queue[T]) IsDetached() bool {
	select {
	case <-q.detached:
		return true
	default:
		return false
	}
}
