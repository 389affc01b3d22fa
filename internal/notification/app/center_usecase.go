package app

import (
	"context"
	"sync"
	"time"

	"social_network_client/internal/notification/domain"
	rtdomain "social_network_client/internal/realtime/domain"
	errprocess "social_network_client/pkg/err"
	"social_network_client/pkg/logger"

	"go.uber.org/zap"
)

// DefaultPopupTTL popup auto hide
const DefaultPopupTTL = 5 * time.Second

// popupTypes envelope types that raise the transient popup
var popupTypes = map[string]struct{}{
	rtdomain.TypeNotification: {},
}

// Fetcher REST source of the pending notifications
type Fetcher interface {
	Notifications(ctx context.Context) ([]domain.Notification, error)
}

// Center pending notifications, popup slot and load banner
type Center struct {
	sender   rtdomain.Sender
	fetcher  Fetcher
	popupTTL time.Duration
	now      func() time.Time

	mu      sync.RWMutex
	loaded  bool
	pending []domain.Notification
	popup   *domain.Notification
	popupAt time.Time
	banner  string
}

// NewCenter create Center, popupTTL <= 0 uses DefaultPopupTTL
func NewCenter(sender rtdomain.Sender, fetcher Fetcher, popupTTL time.Duration) *Center {
	if popupTTL <= 0 {
		popupTTL = DefaultPopupTTL
	}
	return &Center{
		sender:   sender,
		fetcher:  fetcher,
		popupTTL: popupTTL,
		now:      time.Now,
	}
}

// Types envelope types the center subscribes to
func (c *Center) Types() []string {
	return []string{rtdomain.TypeNotification}
}

// Load fetch the pending list once
func (c *Center) Load(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}
	return c.Reload(ctx)
}

// Reload fetch the pending list again, pushes received meanwhile are kept
func (c *Center) Reload(ctx context.Context) error {
	list, err := c.fetcher.Notifications(ctx)
	if err != nil {
		c.mu.Lock()
		c.banner = errprocess.Banner(err)
		c.mu.Unlock()
		logger.Log.Error("load notifications failed", zap.Error(err))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[int64]struct{}, len(list))
	for _, n := range list {
		seen[n.ID] = struct{}{}
	}
	merged := make([]domain.Notification, 0, len(list)+len(c.pending))
	// 載入前就推播進來的通知維持在最前面
	if c.loaded {
		merged = append(merged, list...)
	} else {
		for _, n := range c.pending {
			if _, ok := seen[n.ID]; !ok {
				merged = append(merged, n)
			}
		}
		merged = append(merged, list...)
	}
	c.pending = merged
	c.loaded = true
	c.banner = ""

	logger.Log.Info("notifications loaded", zap.Int("count", len(merged)))
	return nil
}

// Run consume envelopes until ch is closed or ctx is done
func (c *Center) Run(ctx context.Context, ch <-chan rtdomain.Envelope) {
	for {
		select {
		case env, ok := <-ch:
			if !ok {
				return
			}
			if err := c.Handle(env); err != nil {
				logger.Log.Error("notification envelope dropped", zap.String("type", env.Type), zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Handle prepend a pushed notification, popup when its type is included
func (c *Center) Handle(env rtdomain.Envelope) error {
	if env.Type != rtdomain.TypeNotification {
		return nil
	}
	var n domain.Notification
	if err := env.Decode(&n); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if i := indexOf(c.pending, n.ID); i >= 0 {
		c.pending = append(c.pending[:i], c.pending[i+1:]...)
	}
	c.pending = append([]domain.Notification{n}, c.pending...)

	if _, ok := popupTypes[env.Type]; ok {
		c.popup = &n
		c.popupAt = c.now()
	}
	return nil
}

func indexOf(list []domain.Notification, id int64) int {
	for i, n := range list {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// Accept answer id positively, removed even when the send fails
func (c *Center) Accept(ctx context.Context, id int64) error {
	return c.respond(ctx, id, true)
}

// Reject answer id negatively, removed even when the send fails
func (c *Center) Reject(ctx context.Context, id int64) error {
	return c.respond(ctx, id, false)
}

func (c *Center) respond(ctx context.Context, id int64, reaction bool) error {
	err := c.sender.Send(ctx, rtdomain.TypeResponse, rtdomain.ReactionRequest{ID: id, Reaction: reaction})
	if err != nil {
		logger.Log.Error("notification response failed",
			zap.Int64("notification_id", id), zap.Bool("reaction", reaction), zap.Error(err))
	}
	c.Dismiss(id)
	return err
}

// Dismiss remove id from the pending list without answering, the popup is left alone
func (c *Center) Dismiss(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := indexOf(c.pending, id); i >= 0 {
		c.pending = append(c.pending[:i], c.pending[i+1:]...)
	}
}

// Pending copy of the pending list, newest first
func (c *Center) Pending() []domain.Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Notification(nil), c.pending...)
}

// Count badge number
func (c *Center) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pending)
}

// Popup the transient notification while its TTL has not passed
func (c *Center) Popup() (domain.Notification, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.popup == nil || c.now().Sub(c.popupAt) >= c.popupTTL {
		return domain.Notification{}, false
	}
	return *c.popup, true
}

// DismissPopup hide the popup, pending list unchanged
func (c *Center) DismissPopup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.popup = nil
}

// Banner load error text, "" when none
func (c *Center) Banner() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.banner
}

// DismissBanner clear the load error
func (c *Center) DismissBanner() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.banner = ""
}

// Render plain text line for n
func (c *Center) Render(n domain.Notification) string {
	return domain.Render(n)
}
