package domain

import (
	"fmt"
	"time"
)

// NotificationType pending action kind
type NotificationType string

const (
	// FollowRequest someone wants to follow the user
	FollowRequest NotificationType = "follow_request"
	// GroupInvite the user is invited to a group
	GroupInvite NotificationType = "group_invite"
	// GroupRequest someone wants to join a group the user owns
	GroupRequest NotificationType = "group_request"
	// EventInvite a group event is scheduled
	EventInvite NotificationType = "event_invite"
)

// EventTimeLayout event_invite datetime display
const EventTimeLayout = "02 Jan 06, 15:04"

// Notification 待處理的通知
type Notification struct {
	ID            int64            `json:"notification_id"`
	Type          NotificationType `json:"notification_type"`
	SenderID      int64            `json:"sender_id"`
	SenderName    string           `json:"sender_name"`
	GroupID       int64            `json:"group_id"`
	GroupName     string           `json:"group_name"`
	EventID       int64            `json:"event_id"`
	EventName     string           `json:"event_name"`
	EventDatetime time.Time        `json:"event_datetime"`
}

// Render plain text line for n, unknown types render ""
func Render(n Notification) string {
	switch n.Type {
	case FollowRequest:
		return fmt.Sprintf("%s wants to follow you", n.SenderName)
	case GroupInvite:
		return fmt.Sprintf("%s invites you to join the group %s", n.SenderName, n.GroupName)
	case GroupRequest:
		return fmt.Sprintf("%s wants to join your group %s", n.SenderName, n.GroupName)
	case EventInvite:
		return fmt.Sprintf("%s is going to take place on %s", n.EventName, n.EventDatetime.Format(EventTimeLayout))
	default:
		return ""
	}
}

// Actionable types answered with accept / reject
func (n Notification) Actionable() bool {
	switch n.Type {
	case FollowRequest, GroupInvite, GroupRequest, EventInvite:
		return true
	default:
		return false
	}
}
