package mockserver

import (
	"testing"

	chatdomain "social_network_client/internal/chat/domain"
	notifydomain "social_network_client/internal/notification/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T) (*Store, int64, int64) {
	t.Helper()
	s := NewStore()
	a, err := s.Signup(SignupInput{Email: "a@example.com", Password: "Secr3t!pw", Nickname: "ann"})
	require.NoError(t, err)
	b, err := s.Signup(SignupInput{Email: "b@example.com", Password: "Secr3t!pw", FirstName: "Ben", LastName: "B"})
	require.NoError(t, err)
	return s, a.ID, b.ID
}

func TestStore_ChatlistAndHistory(t *testing.T) {
	s, ann, ben := seededStore(t)

	var last chatdomain.Message
	for i := 0; i < 12; i++ {
		msg, err := s.SaveMessage(ann, chatdomain.OutgoingMessage{Body: "m", RecipientID: ben})
		require.NoError(t, err)
		last = msg
	}
	assert.Equal(t, "Ben B", last.RecipientName)

	list := s.Chatlist(ben)
	require.Len(t, list.UserChatlist, 1)
	assert.Equal(t, ann, list.UserChatlist[0].UserID)
	assert.Equal(t, "ann", list.UserChatlist[0].Name)
	assert.Equal(t, 12, list.UserChatlist[0].UnreadCount)

	// 自己送出的不算未讀
	assert.Zero(t, s.Chatlist(ann).UserChatlist[0].UnreadCount)

	page := s.History(ben, chatdomain.Direct(ann), 0)
	require.Len(t, page, historyPage)
	assert.Equal(t, last.ID, page[0].ID)

	older := s.History(ben, chatdomain.Direct(ann), page[len(page)-1].ID)
	assert.Len(t, older, 2)

	s.MarkRead(ben, chatdomain.Direct(ann), last.ID)
	assert.Zero(t, s.Chatlist(ben).UserChatlist[0].UnreadCount)
}

func TestStore_GroupMessages(t *testing.T) {
	s, ann, ben := seededStore(t)
	g := s.CreateGroup(ann, "Hikers", "")

	_, err := s.SaveMessage(ben, chatdomain.OutgoingMessage{Body: "hi", GroupID: g.ID})
	assert.ErrorIs(t, err, ErrNotFound, "non member")

	require.NoError(t, s.AddMember(g.ID, ben))
	msg, err := s.SaveMessage(ben, chatdomain.OutgoingMessage{Body: "hi", GroupID: g.ID})
	require.NoError(t, err)
	assert.Equal(t, "Hikers", msg.GroupName)

	list := s.Chatlist(ann)
	require.Len(t, list.GroupChatlist, 1)
	assert.Equal(t, 1, list.GroupChatlist[0].UnreadCount)
	assert.Equal(t, []int64{ann, ben}, s.GroupMembers(g.ID))
}

func TestStore_Notifications(t *testing.T) {
	s, ann, ben := seededStore(t)

	first := s.AddNotification(ann, notifydomain.Notification{Type: notifydomain.FollowRequest, SenderID: ben})
	second := s.AddNotification(ann, notifydomain.Notification{Type: notifydomain.FollowRequest, SenderID: ben})

	list := s.Notifications(ann)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	n, ok := s.TakeNotification(ann, first.ID)
	require.True(t, ok)
	assert.Equal(t, first.ID, n.ID)
	_, ok = s.TakeNotification(ann, first.ID)
	assert.False(t, ok)
	assert.Len(t, s.Notifications(ann), 1)
}

func TestStore_Feed(t *testing.T) {
	s, ann, ben := seededStore(t)
	var ids []int64
	for i := 0; i < 12; i++ {
		ids = append(ids, s.AddPost(ann, 0, "p").ID)
	}
	s.AddPost(ben, 0, "other")

	onlyAnn := func(p Post) bool { return p.UserID == ann }
	page := s.Feed(0, onlyAnn)
	require.Len(t, page, feedPage)
	assert.Equal(t, ids[11], page[0].ID)

	rest := s.Feed(page[len(page)-1].ID, onlyAnn)
	assert.Len(t, rest, 2)
	assert.Empty(t, s.Feed(ids[0], onlyAnn))
}
