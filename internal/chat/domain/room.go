package domain

import (
	"fmt"
	"time"
)

// ThreadKind definition chat thread type
type ThreadKind int

const (
	// ThreadDirect 1對1
	ThreadDirect ThreadKind = iota + 1
	// ThreadGroup 群組
	ThreadGroup
)

func (k ThreadKind) String() string {
	switch k {
	case ThreadDirect:
		return "direct"
	case ThreadGroup:
		return "group"
	default:
		return "unknown"
	}
}

// ThreadKey identifies a thread: Direct(userID) | Group(groupID)
// zero value is the invalid key
type ThreadKey struct {
	kind ThreadKind
	id   int64
}

// Direct key of a 1對1 thread with peer userID
func Direct(userID int64) ThreadKey {
	return ThreadKey{kind: ThreadDirect, id: userID}
}

// Group key of a group thread
func Group(groupID int64) ThreadKey {
	return ThreadKey{kind: ThreadGroup, id: groupID}
}

// KeyFromIDs build key from the wire (user_id, group_id) pair,
// group wins when both are set, ok is false when neither is
func KeyFromIDs(userID, groupID int64) (ThreadKey, bool) {
	switch {
	case groupID > 0:
		return Group(groupID), true
	case userID > 0:
		return Direct(userID), true
	default:
		return ThreadKey{}, false
	}
}

// Kind thread kind
func (k ThreadKey) Kind() ThreadKind { return k.kind }

// ID peer user id or group id
func (k ThreadKey) ID() int64 { return k.id }

// IsDirect 1對1
func (k ThreadKey) IsDirect() bool { return k.kind == ThreadDirect }

// IsGroup 群組
func (k ThreadKey) IsGroup() bool { return k.kind == ThreadGroup }

// Valid key has a kind and a positive id
func (k ThreadKey) Valid() bool { return k.kind != 0 && k.id > 0 }

// UserID wire user_id, 0 for a group
func (k ThreadKey) UserID() int64 {
	if k.kind == ThreadDirect {
		return k.id
	}
	return 0
}

// GroupID wire group_id, 0 for a direct thread
func (k ThreadKey) GroupID() int64 {
	if k.kind == ThreadGroup {
		return k.id
	}
	return 0
}

func (k ThreadKey) String() string {
	return fmt.Sprintf("%s:%d", k.kind, k.id)
}

// ChatThread one entry of a chat list
type ChatThread struct {
	Key         ThreadKey
	Name        string
	AvatarImage string
	Timestamp   time.Time
	UnreadCount int
}

// ThreadEntry chatlist wire entry (user_chatlist / group_chatlist)
type ThreadEntry struct {
	UserID      int64     `json:"user_id,omitempty"`
	GroupID     int64     `json:"group_id,omitempty"`
	Name        string    `json:"name"`
	Timestamp   time.Time `json:"timestamp"`
	AvatarImage string    `json:"avatar_image"`
	UnreadCount int       `json:"unread_count"`
}

// Thread convert the wire entry, ok is false for an entry without id
func (e ThreadEntry) Thread() (ChatThread, bool) {
	key, ok := KeyFromIDs(e.UserID, e.GroupID)
	if !ok {
		return ChatThread{}, false
	}
	unread := e.UnreadCount
	if unread < 0 {
		unread = 0
	}
	return ChatThread{
		Key:         key,
		Name:        e.Name,
		AvatarImage: e.AvatarImage,
		Timestamp:   e.Timestamp,
		UnreadCount: unread,
	}, true
}

// ChatlistPayload chatlist data
type ChatlistPayload struct {
	UserID        int64         `json:"user_id"`
	UserChatlist  []ThreadEntry `json:"user_chatlist"`
	GroupChatlist []ThreadEntry `json:"group_chatlist"`
}
