package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	at := time.Date(2024, 6, 7, 18, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		n    Notification
		want string
	}{
		{"follow request", Notification{Type: FollowRequest, SenderName: "Bob"}, "Bob wants to follow you"},
		{"group invite", Notification{Type: GroupInvite, SenderName: "Bob", GroupName: "Hikers"}, "Bob invites you to join the group Hikers"},
		{"group request", Notification{Type: GroupRequest, SenderName: "Carol", GroupName: "Hikers"}, "Carol wants to join your group Hikers"},
		{"event invite", Notification{Type: EventInvite, EventName: "Picnic", EventDatetime: at}, "Picnic is going to take place on 07 Jun 24, 18:30"},
		{"unknown", Notification{Type: "poke", SenderName: "Bob"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.n))
			assert.Equal(t, tt.want != "", tt.n.Actionable())
		})
	}
}
