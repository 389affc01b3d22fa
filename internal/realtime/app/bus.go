package app

import (
	"errors"
	"sync"
	"sync/atomic"

	"social_network_client/internal/realtime/domain"
	"social_network_client/pkg/logger"

	"go.uber.org/zap"
)

var (
	// ErrDuplicateSubscriber subscription name already used
	ErrDuplicateSubscriber = errors.New("subscriber already registered")
	// ErrBusClosed bus no longer accepts subscribers
	ErrBusClosed = errors.New("bus closed")
)

// Subscription one consumer of the bus, filtered by type
type Subscription struct {
	name    string
	types   map[string]struct{}
	ch      chan domain.Envelope
	dropped atomic.Uint64
}

// C envelopes delivered to this subscription, closed on Unsubscribe
func (s *Subscription) C() <-chan domain.Envelope {
	return s.ch
}

// Name subscriber name
func (s *Subscription) Name() string {
	return s.name
}

// Dropped count of envelopes lost because the buffer was full
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Accepts report whether msgType is routed to this subscription
func (s *Subscription) Accepts(msgType string) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[msgType]
	return ok
}

// Bus fan-out of inbound envelopes to per-consumer subscriptions
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	buffer int
	closed bool
	last   atomic.Pointer[domain.Envelope]
}

// NewBus create Bus, buffer is the per-subscription channel size
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 1
	}
	return &Bus{
		subs:   make(map[string]*Subscription),
		buffer: buffer,
	}
}

// Subscribe register a consumer, no types means every type
func (b *Bus) Subscribe(name string, types ...string) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}
	if _, ok := b.subs[name]; ok {
		return nil, ErrDuplicateSubscriber
	}

	sub := &Subscription{
		name:  name,
		types: make(map[string]struct{}, len(types)),
		ch:    make(chan domain.Envelope, b.buffer),
	}
	for _, t := range types {
		sub.types[t] = struct{}{}
	}
	b.subs[name] = sub
	return sub, nil
}

// Unsubscribe remove the consumer and close its channel
func (b *Bus) Unsubscribe(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subs[name]; ok {
		delete(b.subs, name)
		close(sub.ch)
	}
}

// Publish deliver env to every matching subscription, returns delivered count
// 滿的 buffer 只會丟棄該訂閱者的訊息, 不阻塞讀取迴圈
func (b *Bus) Publish(env domain.Envelope) int {
	b.last.Store(&env)

	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for _, sub := range b.subs {
		if !sub.Accepts(env.Type) {
			continue
		}
		select {
		case sub.ch <- env:
			delivered++
		default:
			sub.dropped.Add(1)
			logger.Log.Warn("subscriber buffer full, envelope dropped",
				zap.String("subscriber", sub.name), zap.String("type", env.Type))
		}
	}
	if delivered == 0 {
		logger.Log.Debug("no subscriber for envelope", zap.String("type", env.Type))
	}
	return delivered
}

// Last most recently published envelope
func (b *Bus) Last() (domain.Envelope, bool) {
	env := b.last.Load()
	if env == nil {
		return domain.Envelope{}, false
	}
	return *env, true
}

// Close unsubscribe everyone
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for name, sub := range b.subs {
		delete(b.subs, name)
		close(sub.ch)
	}
}
