package app

import (
	"context"
	"fmt"

	"social_network_client/internal/chat/domain"
	rtdomain "social_network_client/internal/realtime/domain"
	"social_network_client/pkg/logger"

	"go.uber.org/zap"
)

// ChatWebsocketHandler 將 chatlist / message / message_history 分派給 ChatList 與 Chatbox
type ChatWebsocketHandler struct {
	list *ChatList
	box  *Chatbox
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(list *ChatList, box *Chatbox) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{
		list: list,
		box:  box,
	}
}

// Types envelope types this handler subscribes to
func (h *ChatWebsocketHandler) Types() []string {
	return []string{
		rtdomain.TypeChatlist,
		rtdomain.TypeMessage,
		rtdomain.TypeMessageHistory,
	}
}

// Run consume envelopes until ch is closed or ctx is done
func (h *ChatWebsocketHandler) Run(ctx context.Context, ch <-chan rtdomain.Envelope) {
	for {
		select {
		case env, ok := <-ch:
			if !ok {
				return
			}
			if err := h.Handle(env); err != nil {
				logger.Log.Error("chat envelope dropped", zap.String("type", env.Type), zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Handle dispatch one envelope
func (h *ChatWebsocketHandler) Handle(env rtdomain.Envelope) error {
	switch env.Type {
	//聊天清單
	case rtdomain.TypeChatlist:
		var p domain.ChatlistPayload
		if err := env.Decode(&p); err != nil {
			return err
		}
		h.list.HandleChatlist(p)

	//即時訊息: 先更新清單再交給開啟中的聊天室
	case rtdomain.TypeMessage:
		var msg domain.Message
		if err := env.Decode(&msg); err != nil {
			return err
		}
		h.list.HandleMessage(msg)
		if h.box != nil {
			h.box.HandleMessage(msg)
		}

	//歷史訊息
	case rtdomain.TypeMessageHistory:
		var page []domain.Message
		if err := env.Decode(&page); err != nil {
			if h.box != nil {
				h.box.DiscardHistory()
			}
			return err
		}
		if h.box != nil {
			h.box.HandleHistory(page)
		}

	default:
		return fmt.Errorf("unknown message type %q", env.Type)
	}
	return nil
}
