package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyFromIDs(t *testing.T) {
	tests := []struct {
		name    string
		userID  int64
		groupID int64
		want    ThreadKey
		ok      bool
	}{
		{"1對1", 5, 0, Direct(5), true},
		{"群組", 0, 9, Group(9), true},
		{"group wins", 5, 9, Group(9), true},
		{"no id", 0, 0, ThreadKey{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := KeyFromIDs(tt.userID, tt.groupID)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestThreadKey(t *testing.T) {
	d := Direct(3)
	assert.True(t, d.IsDirect())
	assert.Equal(t, int64(3), d.UserID())
	assert.Equal(t, int64(0), d.GroupID())
	assert.Equal(t, "direct:3", d.String())

	g := Group(3)
	assert.True(t, g.IsGroup())
	assert.Equal(t, int64(0), g.UserID())
	assert.Equal(t, int64(3), g.GroupID())
	assert.NotEqual(t, d, g)

	assert.False(t, ThreadKey{}.Valid())
	assert.False(t, Direct(0).Valid())
}

func TestMessageKey(t *testing.T) {
	assert.Equal(t, Direct(2), Message{SenderID: 2, RecipientID: 1}.Key())
	assert.Equal(t, Group(7), Message{SenderID: 2, GroupID: 7}.Key())

	th := Message{SenderID: 2, SenderName: "Bob", GroupID: 7, GroupName: "Hikers"}.Thread()
	assert.Equal(t, "Hikers", th.Name)
	assert.Equal(t, 1, th.UnreadCount)

	assert.True(t, Message{ClientRef: "x"}.Optimistic())
	assert.False(t, Message{ID: 1, ClientRef: "x"}.Optimistic())
}

func TestThreadEntry(t *testing.T) {
	th, ok := ThreadEntry{UserID: 4, Name: "Dave", UnreadCount: -1}.Thread()
	assert.True(t, ok)
	assert.Equal(t, Direct(4), th.Key)
	assert.Equal(t, 0, th.UnreadCount)

	_, ok = ThreadEntry{Name: "nobody"}.Thread()
	assert.False(t, ok)
}
