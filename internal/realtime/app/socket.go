package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"social_network_client/internal/realtime/domain"
	"social_network_client/pkg/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	// ErrNotConnected send or run before Connect
	ErrNotConnected = errors.New("websocket not connected")
	// ErrSocketClosed socket was closed by Close
	ErrSocketClosed = errors.New("websocket closed")
)

// Options socket tuning
type Options struct {
	WriteTimeout time.Duration
	// PingInterval 0 disables client keepalive
	PingInterval        time.Duration
	ReconnectMaxWait    time.Duration
	ReconnectMaxElapsed time.Duration
	// Jar cookie jar shared with the REST client (session cookie)
	Jar http.CookieJar
}

// Socket the single shared websocket connection
type Socket struct {
	bus    *Bus
	dialer *websocket.Dialer
	opts   Options

	mu     sync.Mutex
	conn   *websocket.Conn
	url    string
	closed bool
	hooks  []func()
	// switching 換 endpoint 的 dial 完成時關閉
	switching chan struct{}

	writeMu sync.Mutex
}

// NewSocket create Socket publishing inbound envelopes on bus
func NewSocket(bus *Bus, opts Options) *Socket {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	dialer := *websocket.DefaultDialer
	dialer.Jar = opts.Jar
	return &Socket{
		bus:    bus,
		dialer: &dialer,
		opts:   opts,
	}
}

// OnReconnect register fn, called after every successful redial
func (s *Socket) OnReconnect(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Connect open the connection, reuse it if already open for url
func (s *Socket) Connect(ctx context.Context, url string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSocketClosed
	}
	if s.conn != nil && s.url == url {
		s.mu.Unlock()
		return nil
	}
	old := s.conn
	s.conn = nil
	s.url = url
	var switched chan struct{}
	if old != nil {
		switched = make(chan struct{})
		s.switching = switched
	}
	s.mu.Unlock()

	if old == nil {
		return s.dial(ctx)
	}

	logger.Log.Info("websocket endpoint changed, closing previous connection", zap.String("url", url))
	old.Close()
	err := s.dial(ctx)

	s.mu.Lock()
	if s.switching == switched {
		s.switching = nil
	}
	s.mu.Unlock()
	close(switched)
	return err
}

func (s *Socket) dial(ctx context.Context) error {
	s.mu.Lock()
	url := s.url
	s.mu.Unlock()

	conn, resp, err := s.dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}

	s.mu.Lock()
	if s.closed || s.url != url {
		s.mu.Unlock()
		conn.Close()
		return ErrSocketClosed
	}
	if s.conn != nil {
		// 另一個 dial 已經先完成
		s.mu.Unlock()
		conn.Close()
		return nil
	}
	s.conn = conn
	s.mu.Unlock()

	logger.Log.Info("websocket connected", zap.String("url", url))
	return nil
}

// Connected report whether a connection is open
func (s *Socket) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Last most recently received envelope
func (s *Socket) Last() (domain.Envelope, bool) {
	return s.bus.Last()
}

func (s *Socket) current() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *Socket) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Send serialize {type, data} and write it
func (s *Socket) Send(ctx context.Context, msgType string, data any) error {
	env, err := domain.NewEnvelope(msgType, data)
	if err != nil {
		return err
	}
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	conn := s.current()
	if conn == nil {
		return ErrNotConnected
	}

	deadline := time.Now().Add(s.opts.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("write %s: %w", msgType, err)
	}
	logger.Log.Debug("websocket sent", zap.String("type", msgType))
	return nil
}

// Run read loop, reconnect with backoff until ctx is done or Close
func (s *Socket) Run(ctx context.Context) error {
	if s.current() == nil {
		return ErrNotConnected
	}

	for {
		conn := s.current()
		if conn == nil {
			if err := s.reconnect(ctx); err != nil {
				return err
			}
			continue
		}

		err := s.readLoop(ctx, conn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.isClosed() {
			return ErrSocketClosed
		}

		s.mu.Lock()
		replaced := s.conn != conn
		if !replaced {
			s.conn = nil
		}
		switching := s.switching
		s.mu.Unlock()
		conn.Close()

		// Connect 換了 endpoint, 等它 dial 完直接讀新的連線
		if replaced {
			if switching != nil {
				select {
				case <-switching:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			continue
		}

		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			logger.Log.Info("websocket closed by server", zap.Error(err))
		} else {
			logger.Log.Errorf("websocket read error:", err)
		}

		if err := s.reconnect(ctx); err != nil {
			return err
		}
	}
}

func (s *Socket) readLoop(ctx context.Context, conn *websocket.Conn) error {
	stop := make(chan struct{})
	defer close(stop)

	if s.opts.PingInterval > 0 {
		go s.keepalive(ctx, conn, stop)
	}
	// ReadMessage 不吃 ctx, 取消時直接關閉連線
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if mt != websocket.TextMessage {
			continue
		}

		var env domain.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			logger.Log.Warn("websocket invalid envelope", zap.Error(err))
			continue
		}
		s.bus.Publish(env)
	}
}

// keepalive 定期發送 Ping, pong 由對方自動回覆
func (s *Socket) keepalive(ctx context.Context, conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(s.opts.WriteTimeout)); err != nil {
				logger.Log.Errorf("Ping error:", err)
				return
			}
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Socket) reconnect(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	if s.opts.ReconnectMaxWait > 0 {
		b.MaxInterval = s.opts.ReconnectMaxWait
	}
	b.MaxElapsedTime = s.opts.ReconnectMaxElapsed

	operation := func() error {
		if s.isClosed() {
			return backoff.Permanent(ErrSocketClosed)
		}
		return s.dial(ctx)
	}
	notify := func(err error, wait time.Duration) {
		logger.Log.Warn("websocket reconnect failed", zap.Error(err), zap.Duration("retry_in", wait))
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		return err
	}

	s.mu.Lock()
	hooks := append([]func(){}, s.hooks...)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
	return nil
}

// Close send a close frame and stop reconnecting
func (s *Socket) Close() error {
	s.mu.Lock()
	s.closed = true
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}

	s.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client closing"),
		time.Now().Add(time.Second))
	s.writeMu.Unlock()
	return conn.Close()
}
