package domain

import (
	"context"
	"encoding/json"
	"fmt"
)

// inbound message types
const (
	// TypeChatlist snapshot of both chat lists
	TypeChatlist = "chatlist"
	// TypeMessage a chat message (both directions)
	TypeMessage = "message"
	// TypeMessageHistory one page of older messages
	TypeMessageHistory = "message_history"
	// TypeNotification a pending notification push
	TypeNotification = "notification"
)

// outbound message types
const (
	// TypeRequestChatlist ask for the chatlist snapshot
	TypeRequestChatlist = "request_chatlist"
	// TypeRequestMessageHistory ask for one page of history before a cursor
	TypeRequestMessageHistory = "request_message_history"
	// TypeMessagesRead acknowledge messages up to last_message
	TypeMessagesRead = "messages_read"
	// TypeFollowRequest follow a user
	TypeFollowRequest = "follow_request"
	// TypeUnfollow unfollow a user
	TypeUnfollow = "unfollow"
	// TypeGroupRequest ask to join a group
	TypeGroupRequest = "group_request"
	// TypeResponse reaction to a notification
	TypeResponse = "response"
)

// Envelope websocket frame {type, data}
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshal data into an envelope, nil data is omitted
func NewEnvelope(msgType string, data any) (Envelope, error) {
	env := Envelope{Type: msgType}
	if data == nil {
		return env, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return env, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env.Data = raw
	return env, nil
}

// Decode unmarshal Data into v
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%s: empty payload", e.Type)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// Sender transmits a tagged message over the shared connection
type Sender interface {
	Send(ctx context.Context, msgType string, data any) error
}

// HistoryRequest request_message_history / messages_read payload
type HistoryRequest struct {
	ID          int64 `json:"id"`
	GroupID     int64 `json:"group_id"`
	LastMessage int64 `json:"last_message"`
}

// ReactionRequest response payload for a notification
type ReactionRequest struct {
	ID       int64 `json:"id"`
	Reaction bool  `json:"reaction"`
}

// TargetRequest follow_request / unfollow payload
type TargetRequest struct {
	ID int64 `json:"id"`
}

// GroupTargetRequest group_request payload
type GroupTargetRequest struct {
	GroupID int64 `json:"group_id"`
}
