package app

import (
	"context"
	"sync"

	"social_network_client/internal/chat/domain"
	rtdomain "social_network_client/internal/realtime/domain"
	"social_network_client/pkg/logger"

	"go.uber.org/zap"
)

// ChatList owns the direct and group thread lists, most recently active first
type ChatList struct {
	sender rtdomain.Sender

	mu            sync.RWMutex
	userThreads   []domain.ChatThread
	groupThreads  []domain.ChatThread
	currentUserID int64
	hasNew        bool
	newCh         chan struct{}
}

// NewChatList create ChatList
func NewChatList(sender rtdomain.Sender) *ChatList {
	return &ChatList{
		sender: sender,
		newCh:  make(chan struct{}, 1),
	}
}

// LoadThreadList ask the server for the chatlist snapshot
func (c *ChatList) LoadThreadList(ctx context.Context) error {
	return c.sender.Send(ctx, rtdomain.TypeRequestChatlist, nil)
}

// HandleChatlist replace both lists wholesale
func (c *ChatList) HandleChatlist(p domain.ChatlistPayload) {
	users := toThreads(p.UserChatlist)
	groups := toThreads(p.GroupChatlist)

	c.mu.Lock()
	c.currentUserID = p.UserID
	c.userThreads = users
	c.groupThreads = groups
	unread := anyUnread(users) || anyUnread(groups)
	if unread {
		c.raiseLocked()
	}
	c.mu.Unlock()

	logger.Log.Info("chatlist loaded",
		zap.Int64("user_id", p.UserID),
		zap.Int("user_chats", len(users)),
		zap.Int("group_chats", len(groups)))
}

func toThreads(entries []domain.ThreadEntry) []domain.ChatThread {
	out := make([]domain.ChatThread, 0, len(entries))
	for _, e := range entries {
		t, ok := e.Thread()
		if !ok {
			logger.Log.Warn("chatlist entry without id skipped", zap.String("name", e.Name))
			continue
		}
		out = append(out, t)
	}
	return out
}

func anyUnread(threads []domain.ChatThread) bool {
	for _, t := range threads {
		if t.UnreadCount > 0 {
			return true
		}
	}
	return false
}

// HandleMessage bump the thread of an inbound message to the front
func (c *ChatList) HandleMessage(msg domain.Message) {
	key := msg.Key()
	if !key.Valid() {
		logger.Log.Warn("message without routable key", zap.Int64("sender_id", msg.SenderID))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// 自己送出的訊息: 歸到對方的 thread, 不算未讀
	if c.currentUserID > 0 && msg.SenderID == c.currentUserID {
		if msg.GroupID == 0 {
			if msg.RecipientID <= 0 {
				return
			}
			key = domain.Direct(msg.RecipientID)
		}
		list := c.listLocked(key)
		if i := indexOf(*list, key); i >= 0 {
			*list = moveToFront(*list, i, (*list)[i])
		}
		return
	}

	list := c.listLocked(key)
	if i := indexOf(*list, key); i >= 0 {
		t := (*list)[i]
		t.UnreadCount++
		if !msg.Timestamp.IsZero() {
			t.Timestamp = msg.Timestamp
		}
		*list = moveToFront(*list, i, t)
	} else {
		*list = append([]domain.ChatThread{msg.Thread()}, *list...)
	}
	c.raiseLocked()
}

// ResetUnread zero the unread counter of key, order unchanged
func (c *ChatList) ResetUnread(key domain.ThreadKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.listLocked(key)
	if i := indexOf(*list, key); i >= 0 {
		(*list)[i].UnreadCount = 0
	}
}

// MarkActive move thread to the front, inserting it when unknown
func (c *ChatList) MarkActive(thread domain.ChatThread) {
	if !thread.Key.Valid() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.listLocked(thread.Key)
	if i := indexOf(*list, thread.Key); i >= 0 {
		*list = moveToFront(*list, i, (*list)[i])
		return
	}
	thread.UnreadCount = 0
	*list = append([]domain.ChatThread{thread}, *list...)
}

func (c *ChatList) listLocked(key domain.ThreadKey) *[]domain.ChatThread {
	if key.IsGroup() {
		return &c.groupThreads
	}
	return &c.userThreads
}

func indexOf(list []domain.ChatThread, key domain.ThreadKey) int {
	for i, t := range list {
		if t.Key == key {
			return i
		}
	}
	return -1
}

func moveToFront(list []domain.ChatThread, i int, t domain.ChatThread) []domain.ChatThread {
	copy(list[1:i+1], list[:i])
	list[0] = t
	return list
}

func (c *ChatList) raiseLocked() {
	c.hasNew = true
	select {
	case c.newCh <- struct{}{}:
	default:
	}
}

// HasNewMessages navigation badge flag
func (c *ChatList) HasNewMessages() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hasNew
}

// ClearNewMessages only a consumer clears the flag
func (c *ChatList) ClearNewMessages() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasNew = false
}

// NewMessages coalescing signal, fires when the flag is raised
func (c *ChatList) NewMessages() <-chan struct{} {
	return c.newCh
}

// CurrentUserID user id from the last chatlist
func (c *ChatList) CurrentUserID() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentUserID
}

// UserThreads copy of the direct threads
func (c *ChatList) UserThreads() []domain.ChatThread {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.ChatThread(nil), c.userThreads...)
}

// GroupThreads copy of the group threads
func (c *ChatList) GroupThreads() []domain.ChatThread {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.ChatThread(nil), c.groupThreads...)
}

// Thread find thread by key
func (c *ChatList) Thread(key domain.ThreadKey) (domain.ChatThread, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := c.userThreads
	if key.IsGroup() {
		list = c.groupThreads
	}
	if i := indexOf(list, key); i >= 0 {
		return list[i], true
	}
	return domain.ChatThread{}, false
}
