package domain

import "time"

// Message 表示一則聊天訊息
type Message struct {
	ID            int64     `json:"id"`
	SenderID      int64     `json:"sender_id"`
	SenderName    string    `json:"sender_name"`
	AvatarImage   string    `json:"avatar_image"`
	RecipientID   int64     `json:"recipient_id"`
	RecipientName string    `json:"recipient_name"`
	GroupID       int64     `json:"group_id"`
	GroupName     string    `json:"group_name"`
	Body          string    `json:"body"`
	Timestamp     time.Time `json:"timestamp"`

	// ClientRef 本地送出尚未取得 server id 的訊息
	ClientRef string `json:"-"`
}

// Key routing key: the group when group_id > 0, otherwise the sender
func (m Message) Key() ThreadKey {
	if m.GroupID > 0 {
		return Group(m.GroupID)
	}
	return Direct(m.SenderID)
}

// Optimistic message appended locally before the server assigned an id
func (m Message) Optimistic() bool {
	return m.ID == 0 && m.ClientRef != ""
}

// Thread synthesize a chat list entry from the message metadata
func (m Message) Thread() ChatThread {
	name := m.SenderName
	if m.GroupID > 0 && m.GroupName != "" {
		name = m.GroupName
	}
	return ChatThread{
		Key:         m.Key(),
		Name:        name,
		AvatarImage: m.AvatarImage,
		Timestamp:   m.Timestamp,
		UnreadCount: 1,
	}
}

// OutgoingMessage message payload sent by the user
type OutgoingMessage struct {
	Body        string `json:"body"`
	SenderID    int64  `json:"sender_id"`
	RecipientID int64  `json:"recipient_id"`
	GroupID     int64  `json:"group_id"`
}
