package mockserver

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	chatdomain "social_network_client/internal/chat/domain"
	notifydomain "social_network_client/internal/notification/domain"
	rtdomain "social_network_client/internal/realtime/domain"
	"social_network_client/pkg/logger"
	"social_network_client/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// conn one websocket of a user, writes are serialized
type conn struct {
	ws     *websocket.Conn
	userID int64
	mu     sync.Mutex
}

func (c *conn) write(env rtdomain.Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

// Hub routes websocket envelopes between connected users
type Hub struct {
	store *Store

	mu    sync.RWMutex
	conns map[int64]map[*conn]struct{}
}

// NewHub create Hub
func NewHub(store *Store) *Hub {
	return &Hub{
		store: store,
		conns: make(map[int64]map[*conn]struct{}),
	}
}

func (h *Hub) add(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[c.userID]
	if !ok {
		set = make(map[*conn]struct{})
		h.conns[c.userID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[c.userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.conns, c.userID)
		}
	}
}

// Online number of open connections of userID
func (h *Hub) Online(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Push send msgType/data to every connection of userID
func (h *Hub) Push(userID int64, msgType string, data any) {
	env, err := rtdomain.NewEnvelope(msgType, data)
	if err != nil {
		logger.Log.Error("push marshal failed", zap.String("type", msgType), zap.Error(err))
		return
	}

	h.mu.RLock()
	targets := make([]*conn, 0, len(h.conns[userID]))
	for c := range h.conns[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(env); err != nil {
			logger.Log.Warn("push failed", zap.Int64("user_id", userID), zap.String("type", msgType), zap.Error(err))
		}
	}
}

// HandleConnection 是 WebSocket 連線的進入點
func (h *Hub) HandleConnection(ws *websocket.Conn) {
	userID, _ := ws.Locals(middlewares.TokenUserID).(int64)
	c := &conn{ws: ws, userID: userID}
	h.add(c)
	logger.Log.Info("websocket open", zap.Int64("user_id", userID))

	defer func() {
		h.remove(c)
		ws.Close()
		logger.Log.Info("websocket close", zap.Int64("user_id", userID))
	}()

	for {
		mt, message, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Debug("connection closed", zap.Error(err))
			} else {
				//直接斷線 1006
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		var env rtdomain.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			logger.Log.Warn("invalid envelope", zap.Error(err))
			continue
		}
		if err := h.Dispatch(c, env); err != nil {
			logger.Log.Warn("envelope rejected", zap.String("type", env.Type), zap.Error(err))
		}
	}
}

// Dispatch handle one envelope from c
func (h *Hub) Dispatch(c *conn, env rtdomain.Envelope) error {
	switch env.Type {
	case rtdomain.TypeRequestChatlist:
		return c.write(mustEnvelope(rtdomain.TypeChatlist, h.store.Chatlist(c.userID)))

	case rtdomain.TypeRequestMessageHistory:
		var req rtdomain.HistoryRequest
		if err := env.Decode(&req); err != nil {
			return err
		}
		key, ok := chatdomain.KeyFromIDs(req.ID, req.GroupID)
		if !ok {
			return fmt.Errorf("history request without thread")
		}
		return c.write(mustEnvelope(rtdomain.TypeMessageHistory, h.store.History(c.userID, key, req.LastMessage)))

	case rtdomain.TypeMessagesRead:
		var req rtdomain.HistoryRequest
		if err := env.Decode(&req); err != nil {
			return err
		}
		key, ok := chatdomain.KeyFromIDs(req.ID, req.GroupID)
		if !ok {
			return fmt.Errorf("messages_read without thread")
		}
		h.store.MarkRead(c.userID, key, req.LastMessage)
		return nil

	case rtdomain.TypeMessage:
		var in chatdomain.OutgoingMessage
		if err := env.Decode(&in); err != nil {
			return err
		}
		msg, err := h.store.SaveMessage(c.userID, in)
		if err != nil {
			return err
		}
		h.deliver(msg)
		return nil

	case rtdomain.TypeFollowRequest:
		var req rtdomain.TargetRequest
		if err := env.Decode(&req); err != nil {
			return err
		}
		return h.followRequest(c.userID, req.ID)

	case rtdomain.TypeUnfollow:
		var req rtdomain.TargetRequest
		if err := env.Decode(&req); err != nil {
			return err
		}
		h.store.Unfollow(c.userID, req.ID)
		return nil

	case rtdomain.TypeGroupRequest:
		var req rtdomain.GroupTargetRequest
		if err := env.Decode(&req); err != nil {
			return err
		}
		return h.groupRequest(c.userID, req.GroupID)

	case rtdomain.TypeResponse:
		var req rtdomain.ReactionRequest
		if err := env.Decode(&req); err != nil {
			return err
		}
		return h.respond(c.userID, req)

	default:
		return fmt.Errorf("unknown type %q", env.Type)
	}
}

// deliver echo to the sender, fan out to the recipient or group members
func (h *Hub) deliver(msg chatdomain.Message) {
	if msg.GroupID > 0 {
		for _, id := range h.store.GroupMembers(msg.GroupID) {
			h.Push(id, rtdomain.TypeMessage, msg)
		}
		return
	}
	h.Push(msg.SenderID, rtdomain.TypeMessage, msg)
	if msg.RecipientID != msg.SenderID {
		h.Push(msg.RecipientID, rtdomain.TypeMessage, msg)
	}
}

func (h *Hub) followRequest(from, target int64) error {
	sender, ok := h.store.User(from)
	if !ok {
		return ErrUnknownUser
	}
	recipient, ok := h.store.User(target)
	if !ok {
		return fmt.Errorf("user %d: %w", target, ErrNotFound)
	}
	// 公開帳號直接追蹤
	if recipient.IsPublic {
		h.store.Follow(from, target)
		return nil
	}
	n := h.store.AddNotification(target, notifydomain.Notification{
		Type:       notifydomain.FollowRequest,
		SenderID:   from,
		SenderName: sender.Name(),
	})
	h.Push(target, rtdomain.TypeNotification, n)
	return nil
}

func (h *Hub) groupRequest(from, groupID int64) error {
	sender, ok := h.store.User(from)
	if !ok {
		return ErrUnknownUser
	}
	g, ok := h.store.Group(groupID)
	if !ok {
		return fmt.Errorf("group %d: %w", groupID, ErrNotFound)
	}
	n := h.store.AddNotification(g.CreatorID, notifydomain.Notification{
		Type:       notifydomain.GroupRequest,
		SenderID:   from,
		SenderName: sender.Name(),
		GroupID:    g.ID,
		GroupName:  g.Title,
	})
	h.Push(g.CreatorID, rtdomain.TypeNotification, n)
	return nil
}

// Invite push a group_invite to userID
func (h *Hub) Invite(from, userID, groupID int64) error {
	sender, ok := h.store.User(from)
	if !ok {
		return ErrUnknownUser
	}
	g, ok := h.store.Group(groupID)
	if !ok {
		return fmt.Errorf("group %d: %w", groupID, ErrNotFound)
	}
	n := h.store.AddNotification(userID, notifydomain.Notification{
		Type:       notifydomain.GroupInvite,
		SenderID:   from,
		SenderName: sender.Name(),
		GroupID:    g.ID,
		GroupName:  g.Title,
	})
	h.Push(userID, rtdomain.TypeNotification, n)
	return nil
}

func (h *Hub) respond(userID int64, req rtdomain.ReactionRequest) error {
	n, ok := h.store.TakeNotification(userID, req.ID)
	if !ok {
		return fmt.Errorf("notification %d: %w", req.ID, ErrNotFound)
	}
	if !req.Reaction {
		return nil
	}
	switch n.Type {
	case notifydomain.FollowRequest:
		h.store.Follow(n.SenderID, userID)
	case notifydomain.GroupInvite:
		return h.store.AddMember(n.GroupID, userID)
	case notifydomain.GroupRequest:
		return h.store.AddMember(n.GroupID, n.SenderID)
	}
	return nil
}

func mustEnvelope(msgType string, data any) rtdomain.Envelope {
	env, err := rtdomain.NewEnvelope(msgType, data)
	if err != nil {
		// 只有 store 自己的型別, marshal 不會失敗
		panic(err)
	}
	return env
}
