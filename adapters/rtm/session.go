package rtm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"slackbroker/models"
)

// Session 擁有與後端即時串流的整個生命週期：
// 取得位址、握手、收送 frame，直到收到關閉訊號或發生錯誤。
type Session struct {
	connector Connector
	sink      Sink
	control   chan Control
	closing   atomic.Bool
	state     atomic.Int32
	done      chan struct{}
	logger    *slog.Logger
	options   sessionOptions
}

// Open 啟動一個 session 並立即返回，連線在背景進行
func Open(ctx context.Context, connector Connector, sink Sink, opts ...SessionOption) *Session {
	// 默認選項
	options := sessionOptions{
		logger:       slog.Default(),
		dialer:       websocket.DefaultDialer,
		pingInterval: defaultPingInterval,
	}

	// 應用自定義選項
	for _, opt := range opts {
		opt(&options)
	}

	s := &Session{
		connector: connector,
		sink:      sink,
		control:   make(chan Control, 1),
		done:      make(chan struct{}),
		logger:    options.logger.With(slog.String("caller", "StreamSession")),
		options:   options,
	}
	s.setState(StateConnecting)

	go s.run(ctx)
	return s
}

// Close 送出關閉訊號，不等待 session 結束。
// 對已結束的 session 呼叫是 no-op。
func (s *Session) Close() {
	select {
	case s.control <- CloseSignal:
	default:
	}
}

// Wait 阻塞直到 session 結束
func (s *Session) Wait() {
	<-s.done
}

// Done 在 session 結束時關閉
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(state State) {
	s.state.Store(int32(state))
	s.logger.Debug("state changed", slog.String("state", state.String()))
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer s.setState(StateClosed)

	for {
		err := s.runOnce(ctx)
		switch {
		case errors.Is(err, ErrClosedByRequest):
			s.logger.Debug("session closed by request")
			return
		case errors.Is(err, ErrSinkUnavailable):
			s.logger.Info("event sink is gone, ending session")
			return
		case ctx.Err() != nil:
			s.logger.Debug("session context done", slog.Any("error", ctx.Err()))
			return
		}

		s.logger.Error("stream session failed", slog.Any("error", err))
		if s.options.reconnect == nil {
			return
		}

		wait := s.options.reconnect.NextBackOff()
		if wait == backoff.Stop {
			s.logger.Warn("reconnect attempts exhausted")
			return
		}
		s.logger.Info("reconnecting", slog.Duration("after", wait))

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-s.control:
			timer.Stop()
			s.logger.Debug("session closed by request while waiting to reconnect")
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

func (s *Session) runOnce(ctx context.Context) error {
	conn, err := s.establish(ctx)
	if err != nil {
		return err
	}
	if s.options.reconnect != nil {
		s.options.reconnect.Reset()
	}
	s.setState(StateOpen)
	s.logger.Info("stream connected")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.read(conn)
	})
	g.Go(func() error {
		return s.write(gctx, conn)
	})
	// 任一方結束即關閉連線，讓阻塞中的讀取返回
	g.Go(func() error {
		<-gctx.Done()
		return conn.Close()
	})
	err = g.Wait()
	// 關閉訊號送出後，讀取端可能先讀到對方回應的 close frame
	if s.closing.Load() {
		return ErrClosedByRequest
	}
	return err
}

// establish 在背景撥號，期間收到關閉訊號會取消撥號
func (s *Session) establish(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		conn *websocket.Conn
		err  error
	}
	resultCh := make(chan result, 1)
	go func() {
		conn, err := s.connect(dialCtx)
		resultCh <- result{conn: conn, err: err}
	}()

	abort := func(err error) (*websocket.Conn, error) {
		cancel()
		if r := <-resultCh; r.conn != nil {
			r.conn.Close()
		}
		return nil, err
	}

	select {
	case r := <-resultCh:
		return r.conn, r.err
	case <-s.control:
		return abort(ErrClosedByRequest)
	case <-ctx.Done():
		return abort(ctx.Err())
	}
}

func (s *Session) connect(ctx context.Context) (*websocket.Conn, error) {
	const op = "connect"
	s.setState(StateConnecting)
	streamURL, err := s.connector.ConnectStream(ctx)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to request stream url, err=%w", op, err)
	}

	s.setState(StateHandshaking)
	conn, err := s.dial(ctx, streamURL)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to dial stream, err=%w", op, err)
	}
	return conn, nil
}

// dial 在握手期間監看 ctx，取消時關閉底層連線讓阻塞的握手返回
func (s *Session) dial(ctx context.Context, streamURL string) (*websocket.Conn, error) {
	dialer := *s.options.dialer
	netDial := dialer.NetDialContext
	if netDial == nil {
		netDial = (&net.Dialer{}).DialContext
	}

	var stop func() bool
	dialer.NetDialContext = func(dialCtx context.Context, network, addr string) (net.Conn, error) {
		netConn, err := netDial(dialCtx, network, addr)
		if err != nil {
			return nil, err
		}
		stop = context.AfterFunc(ctx, func() { netConn.Close() })
		return netConn, nil
	}

	conn, _, err := dialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		return nil, err
	}
	if stop != nil && !stop() {
		conn.Close()
		return nil, ctx.Err()
	}
	return conn, nil
}

// read 轉發每個 frame。啟用 ping 時，超過 pongWait 沒有收到任何資料即視為對方已失聯。
func (s *Session) read(conn *websocket.Conn) error {
	const op = "read"

	pongWait := s.options.pingInterval * pongWaitFactor
	extend := func() error {
		if pongWait <= 0 {
			return nil
		}
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	}
	if err := extend(); err != nil {
		return fmt.Errorf("[%s] Fail to set read deadline, err=%w", op, err)
	}
	conn.SetPongHandler(func(string) error { return extend() })

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("[%s] Fail to read frame, err=%w", op, err)
		}
		if err := extend(); err != nil {
			return fmt.Errorf("[%s] Fail to set read deadline, err=%w", op, err)
		}

		var event models.Event
		switch messageType {
		case websocket.TextMessage:
			event = models.Event{Kind: models.EventText, Data: data}
		case websocket.BinaryMessage:
			event = models.Event{Kind: models.EventBinary, Data: data}
		default:
			continue
		}

		if err := s.sink.Publish(event); err != nil {
			return fmt.Errorf("[%s] %w, err=%v", op, ErrSinkUnavailable, err)
		}
		s.logger.Debug("frame forwarded",
			slog.String("kind", event.Kind.String()),
			slog.String("type", event.Type()))
	}
}

// write 等待控制訊號，並在閒置時送出 ping
func (s *Session) write(ctx context.Context, conn *websocket.Conn) error {
	const op = "write"

	var tick <-chan time.Time
	if s.options.pingInterval > 0 {
		ticker := time.NewTicker(s.options.pingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case signal := <-s.control:
			if signal != CloseSignal {
				continue
			}
			s.closing.Store(true)
			err := conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait),
			)
			if err != nil {
				s.logger.Debug("fail to send close frame", slog.Any("error", err))
			}
			return ErrClosedByRequest
		case <-tick:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return fmt.Errorf("[%s] Fail to send ping, err=%w", op, err)
			}
		}
	}
}
