package app

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"social_network_client/internal/chat/domain"
	rtdomain "social_network_client/internal/realtime/domain"
	"social_network_client/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultPageSize a history page shorter than this means no more history
	DefaultPageSize = 10
	// DefaultHistoryTimeout a history request unanswered this long is treated as lost
	DefaultHistoryTimeout = 30 * time.Second
)

var (
	// ErrNoOpenThread chatbox is idle
	ErrNoOpenThread = errors.New("no chat thread open")
	// ErrInvalidThread thread key has no id
	ErrInvalidThread = errors.New("invalid chat thread")
	// ErrHistoryExhausted the last page was shorter than a full page
	ErrHistoryExhausted = errors.New("no more message history")
	// ErrRequestInFlight a history page is already being loaded
	ErrRequestInFlight = errors.New("message history request in flight")
	// ErrEmptyMessage nothing to send
	ErrEmptyMessage = errors.New("message body is empty")
)

// State chatbox state
type State int

const (
	// StateIdle no thread open
	StateIdle State = iota
	// StateLoadingHistory a history request is in flight
	StateLoadingHistory
	// StateReady history loaded, accepting live messages and input
	StateReady
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoadingHistory:
		return "loading-history"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// ThreadTracker unread bookkeeping the chatbox reports to
type ThreadTracker interface {
	ResetUnread(key domain.ThreadKey)
	MarkActive(thread domain.ChatThread)
	CurrentUserID() int64
}

// Chatbox history and input of the open thread
type Chatbox struct {
	sender   rtdomain.Sender
	threads  ThreadTracker
	pageSize int
	timeout  time.Duration
	now      func() time.Time

	mu         sync.Mutex
	state      State
	thread     domain.ChatThread
	history    []domain.Message
	hasMore    bool
	generation uint64
	// inflight 尚未回覆的 history request, 依送出順序
	inflight []historyRequest
}

type historyRequest struct {
	generation uint64
	key        domain.ThreadKey
	sentAt     time.Time
}

// NewChatbox create Chatbox, pageSize <= 0 uses DefaultPageSize
func NewChatbox(sender rtdomain.Sender, threads ThreadTracker, pageSize int) *Chatbox {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Chatbox{
		sender:   sender,
		threads:  threads,
		pageSize: pageSize,
		timeout:  DefaultHistoryTimeout,
		now:      time.Now,
	}
}

// SetHistoryTimeout change how long a history request may stay unanswered, <= 0 keeps the current value
func (c *Chatbox) SetHistoryTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = d
}

// Open show thread and request its newest page, same thread is a no-op
func (c *Chatbox) Open(ctx context.Context, thread domain.ChatThread) error {
	if !thread.Key.Valid() {
		return ErrInvalidThread
	}

	c.mu.Lock()
	if c.state != StateIdle && c.thread.Key == thread.Key {
		c.mu.Unlock()
		return nil
	}
	c.generation++
	c.thread = thread
	c.history = nil
	c.hasMore = true
	c.mu.Unlock()

	logger.Log.Debug("chatbox open", zap.String("thread", thread.Key.String()))
	return c.request(ctx)
}

// LoadMore request the page before the oldest loaded message
func (c *Chatbox) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	c.expireLocked()
	switch {
	case c.state == StateIdle:
		c.mu.Unlock()
		return ErrNoOpenThread
	case c.state == StateLoadingHistory:
		c.mu.Unlock()
		return ErrRequestInFlight
	case !c.hasMore:
		c.mu.Unlock()
		return ErrHistoryExhausted
	}
	c.mu.Unlock()

	return c.request(ctx)
}

func (c *Chatbox) request(ctx context.Context) error {
	c.mu.Lock()
	gen := c.generation
	key := c.thread.Key
	req := rtdomain.HistoryRequest{
		ID:          key.UserID(),
		GroupID:     key.GroupID(),
		LastMessage: c.cursorLocked(),
	}
	c.state = StateLoadingHistory
	c.inflight = append(c.inflight, historyRequest{generation: gen, key: key, sentAt: c.now()})
	c.mu.Unlock()

	if err := c.sender.Send(ctx, rtdomain.TypeRequestMessageHistory, req); err != nil {
		c.mu.Lock()
		c.dropInflightLocked(gen)
		if c.generation == gen && c.state == StateLoadingHistory {
			c.state = StateReady
		}
		c.mu.Unlock()
		return err
	}
	return nil
}

// cursorLocked smallest known message id, 0 when nothing is loaded
func (c *Chatbox) cursorLocked() int64 {
	for _, m := range c.history {
		if m.ID > 0 {
			return m.ID
		}
	}
	return 0
}

func (c *Chatbox) dropInflightLocked(gen uint64) {
	for i := len(c.inflight) - 1; i >= 0; i-- {
		if c.inflight[i].generation == gen {
			c.inflight = append(c.inflight[:i], c.inflight[i+1:]...)
			return
		}
	}
}

// expireLocked drop requests older than the timeout, a lost request of the
// open thread returns the box to Ready so it can be asked again
func (c *Chatbox) expireLocked() {
	now := c.now()
	kept := c.inflight[:0]
	for _, r := range c.inflight {
		if now.Sub(r.sentAt) > c.timeout {
			logger.Log.Warn("message history request expired",
				zap.String("thread", r.key.String()), zap.Uint64("generation", r.generation))
			continue
		}
		kept = append(kept, r)
	}
	c.inflight = kept
	c.settleLocked()
}

// settleLocked leave LoadingHistory when nothing of the current generation is pending
func (c *Chatbox) settleLocked() {
	if c.state != StateLoadingHistory {
		return
	}
	for _, r := range c.inflight {
		if r.generation == c.generation {
			return
		}
	}
	c.state = StateReady
}

// takeRequestLocked remove and return the request page answers. A non-empty
// page names its thread, so it is matched by key; replies come back in send
// order, so requests sent before the matched one will never be answered.
// An empty page carries nothing to match and takes the oldest request.
func (c *Chatbox) takeRequestLocked(page []domain.Message) (historyRequest, bool) {
	if len(c.inflight) == 0 {
		return historyRequest{}, false
	}
	if len(page) == 0 {
		r := c.inflight[0]
		c.inflight = c.inflight[1:]
		return r, true
	}
	for i, r := range c.inflight {
		if belongsTo(r.key, page[0]) {
			if i > 0 {
				logger.Log.Warn("message history requests without reply dropped", zap.Int("count", i))
			}
			c.inflight = c.inflight[i+1:]
			return r, true
		}
	}
	return historyRequest{}, false
}

// HandleHistory apply one message_history page, stale pages are discarded
func (c *Chatbox) HandleHistory(page []domain.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.expireLocked()
	req, ok := c.takeRequestLocked(page)
	if !ok {
		logger.Log.Warn("unsolicited message history discarded", zap.Int("size", len(page)))
		return false
	}

	if req.generation != c.generation || c.state != StateLoadingHistory {
		logger.Log.Debug("stale message history discarded",
			zap.Uint64("generation", req.generation), zap.Uint64("current", c.generation))
		c.settleLocked()
		return false
	}

	known := make(map[int64]struct{}, len(c.history)+len(page))
	for _, m := range c.history {
		if m.ID > 0 {
			known[m.ID] = struct{}{}
		}
	}

	older := make([]domain.Message, 0, len(page))
	for _, m := range page {
		if m.ID > 0 {
			if _, dup := known[m.ID]; dup {
				continue
			}
			known[m.ID] = struct{}{}
		}
		older = append(older, m)
	}
	sort.SliceStable(older, func(i, j int) bool { return older[i].ID < older[j].ID })

	c.history = append(older, c.history...)
	if len(page) < c.pageSize {
		c.hasMore = false
	}
	c.state = StateReady
	return true
}

// DiscardHistory account for a message_history reply that could not be decoded
func (c *Chatbox) DiscardHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.inflight) == 0 {
		return
	}
	c.inflight = c.inflight[1:]
	c.settleLocked()
}

// Resync forget pending requests and reload the open thread, used after the
// connection was replaced since replies on the old one are gone
func (c *Chatbox) Resync(ctx context.Context) error {
	c.mu.Lock()
	c.inflight = nil
	if c.state == StateIdle {
		c.mu.Unlock()
		return nil
	}
	c.generation++
	c.history = nil
	c.hasMore = true
	thread := c.thread
	c.mu.Unlock()

	logger.Log.Info("chatbox resync", zap.String("thread", thread.Key.String()))
	return c.request(ctx)
}

// HandleMessage append a live message when it belongs to the open thread
func (c *Chatbox) HandleMessage(msg domain.Message) bool {
	me := c.threads.CurrentUserID()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateIdle || !belongsTo(c.thread.Key, msg) {
		return false
	}

	if msg.ID > 0 {
		for _, m := range c.history {
			if m.ID == msg.ID {
				return false
			}
		}
	}

	// 自己送出的訊息回來時取代本地的暫存訊息
	if me > 0 && msg.SenderID == me {
		for i, m := range c.history {
			if m.Optimistic() && m.Body == msg.Body {
				c.history[i] = msg
				return true
			}
		}
	}

	c.history = append(c.history, msg)
	return true
}

// belongsTo msg is part of the conversation key, either direction for a direct thread
func belongsTo(key domain.ThreadKey, msg domain.Message) bool {
	if msg.Key() == key {
		return true
	}
	return key.IsDirect() && msg.GroupID == 0 && msg.RecipientID == key.ID()
}

// AtBottom scroll position reached the end within a 1 pixel tolerance
func AtBottom(scrollHeight, clientHeight, scrollTop float64) bool {
	return scrollHeight-clientHeight <= scrollTop+1
}

// OnScroll mark the thread read when the history is scrolled to the bottom
func (c *Chatbox) OnScroll(ctx context.Context, scrollHeight, clientHeight, scrollTop float64) (bool, error) {
	if !AtBottom(scrollHeight, clientHeight, scrollTop) {
		return false, nil
	}
	return true, c.MarkRead(ctx)
}

// MarkRead send messages_read and reset unread. last_message is the newest
// message id the server assigned; optimistic entries at the tail have no id
// yet and are skipped, so the cursor never goes back to 0 after a send.
func (c *Chatbox) MarkRead(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateIdle {
		c.mu.Unlock()
		return ErrNoOpenThread
	}
	key := c.thread.Key
	var last int64
	for i := len(c.history) - 1; i >= 0; i-- {
		if c.history[i].ID > 0 {
			last = c.history[i].ID
			break
		}
	}
	c.mu.Unlock()

	err := c.sender.Send(ctx, rtdomain.TypeMessagesRead, rtdomain.HistoryRequest{
		ID:          key.UserID(),
		GroupID:     key.GroupID(),
		LastMessage: last,
	})
	c.threads.ResetUnread(key)
	return err
}

// Send transmit body to the open thread and append it optimistically
func (c *Chatbox) Send(ctx context.Context, body string) (domain.Message, error) {
	if strings.TrimSpace(body) == "" {
		return domain.Message{}, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.state == StateIdle {
		c.mu.Unlock()
		return domain.Message{}, ErrNoOpenThread
	}
	thread := c.thread
	c.mu.Unlock()

	key := thread.Key
	me := c.threads.CurrentUserID()
	out := domain.OutgoingMessage{
		Body:        body,
		SenderID:    me,
		RecipientID: key.UserID(),
		GroupID:     key.GroupID(),
	}
	err := c.sender.Send(ctx, rtdomain.TypeMessage, out)
	if err != nil {
		logger.Log.Error("send message failed", zap.String("thread", key.String()), zap.Error(err))
	}

	msg := domain.Message{
		SenderID:    me,
		RecipientID: out.RecipientID,
		GroupID:     out.GroupID,
		Body:        body,
		Timestamp:   c.now(),
		ClientRef:   uuid.New().String(),
	}

	c.mu.Lock()
	if c.state != StateIdle && c.thread.Key == key {
		c.history = append(c.history, msg)
	}
	c.mu.Unlock()

	// 送出代表已讀
	c.threads.MarkActive(thread)
	c.threads.ResetUnread(key)
	return msg, err
}

// Close return to idle, dropping the history
func (c *Chatbox) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.state = StateIdle
	c.thread = domain.ChatThread{}
	c.history = nil
	c.hasMore = false
}

// State current state
func (c *Chatbox) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Thread the open thread, ok is false when idle
func (c *Chatbox) Thread() (domain.ChatThread, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.thread, c.state != StateIdle
}

// HasMore more history can be requested
func (c *Chatbox) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

// History copy of the loaded messages, oldest first
func (c *Chatbox) History() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Message(nil), c.history...)
}

// SenderLabel name shown above history[i]: empty for own messages and
// for consecutive messages of the same sender
func SenderLabel(history []domain.Message, i int, me int64) string {
	if i < 0 || i >= len(history) {
		return ""
	}
	msg := history[i]
	if msg.SenderID == me {
		return ""
	}
	if i > 0 && history[i-1].SenderID == msg.SenderID {
		return ""
	}
	return msg.SenderName
}
