package client

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"social_network_client/internal/api"
	chatapp "social_network_client/internal/chat/app"
	chatdomain "social_network_client/internal/chat/domain"
	"social_network_client/internal/mockserver"
	notifydomain "social_network_client/internal/notification/domain"
	"social_network_client/pkg/config"
	"social_network_client/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.SetNewNop()
}

const testPassword = "Secr3t!pw"

func startBackend(t *testing.T) (*mockserver.Server, string, []int64) {
	t.Helper()
	srv, err := mockserver.New(config.MockBackend{JWTSecret: "test-secret", SessionTTL: time.Hour}, nil)
	require.NoError(t, err)

	ids, err := srv.Seed([]mockserver.SeedUser{
		{Email: "alice@example.com", Password: testPassword, First: "Alice", Last: "A", Nickname: "alice"},
		{Email: "bob@example.com", Password: testPassword, First: "Bob", Last: "B", Nickname: "bob"},
	}, "Hikers")
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.App.Listener(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown() })

	return srv, ln.Addr().String(), ids
}

func startClient(t *testing.T, ctx context.Context, addr, username string) *Client {
	t.Helper()
	c, err := New(config.Client{
		APIURL:      "http://" + addr,
		WSURL:       "ws://" + addr + "/ws",
		Credentials: config.CredentialsConfig{Username: username, Password: testPassword},
	})
	require.NoError(t, err)
	require.NoError(t, c.Start(ctx))

	go func() { _ = c.Run(ctx) }()
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient_ChatAndNotificationFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	_, addr, ids := startBackend(t)
	aliceID, bobID := ids[0], ids[1]

	alice := startClient(t, ctx, addr, "alice")
	bob := startClient(t, ctx, addr, "bob@example.com")

	t.Run("登入後取得 chatlist", func(t *testing.T) {
		require.Eventually(t, func() bool {
			return alice.ChatList.CurrentUserID() == aliceID && len(alice.ChatList.GroupThreads()) == 1
		}, 5*time.Second, 20*time.Millisecond)
		assert.Equal(t, "Hikers", alice.ChatList.GroupThreads()[0].Name)
		assert.Empty(t, alice.ChatList.UserThreads())
	})

	t.Run("私訊送達並取代樂觀訊息", func(t *testing.T) {
		require.NoError(t, alice.Chatbox.Open(ctx, chatdomain.ChatThread{Key: chatdomain.Direct(bobID), Name: "bob"}))
		require.Eventually(t, func() bool {
			return alice.Chatbox.State() == chatapp.StateReady
		}, 5*time.Second, 20*time.Millisecond)
		assert.False(t, alice.Chatbox.HasMore())

		_, err := alice.Chatbox.Send(ctx, "hi bob")
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			h := alice.Chatbox.History()
			return len(h) == 1 && h[0].ID > 0
		}, 5*time.Second, 20*time.Millisecond)

		require.Eventually(t, func() bool {
			th, ok := bob.ChatList.Thread(chatdomain.Direct(aliceID))
			return ok && th.UnreadCount == 1
		}, 5*time.Second, 20*time.Millisecond)
		assert.True(t, bob.ChatList.HasNewMessages())

		th, ok := alice.ChatList.Thread(chatdomain.Direct(bobID))
		require.True(t, ok)
		assert.Zero(t, th.UnreadCount)
	})

	t.Run("bob 讀取歷史並標記已讀", func(t *testing.T) {
		th, ok := bob.ChatList.Thread(chatdomain.Direct(aliceID))
		require.True(t, ok)
		require.NoError(t, bob.Chatbox.Open(ctx, th))

		require.Eventually(t, func() bool {
			h := bob.Chatbox.History()
			return bob.Chatbox.State() == chatapp.StateReady && len(h) == 1 && h[0].Body == "hi bob"
		}, 5*time.Second, 20*time.Millisecond)

		read, err := bob.Chatbox.OnScroll(ctx, 500, 500, 0)
		require.NoError(t, err)
		assert.True(t, read)

		th, _ = bob.ChatList.Thread(chatdomain.Direct(aliceID))
		assert.Zero(t, th.UnreadCount)
	})

	t.Run("加入群組申請成為通知", func(t *testing.T) {
		groupID := alice.ChatList.GroupThreads()[0].Key.ID()
		require.NoError(t, bob.Relations.RequestJoinGroup(ctx, groupID))

		require.Eventually(t, func() bool {
			return alice.Center.Count() == 1
		}, 5*time.Second, 20*time.Millisecond)

		n := alice.Center.Pending()[0]
		assert.Equal(t, notifydomain.GroupRequest, n.Type)
		assert.True(t, strings.Contains(alice.Center.Render(n), "bob"))
		popup, ok := alice.Center.Popup()
		require.True(t, ok)
		assert.Equal(t, n.ID, popup.ID)

		require.NoError(t, alice.Center.Accept(ctx, n.ID))
		assert.Zero(t, alice.Center.Count())

		// 重新載入確認 server 端已移除
		require.Eventually(t, func() bool {
			if err := alice.Center.Reload(ctx); err != nil {
				return false
			}
			return alice.Center.Count() == 0
		}, 5*time.Second, 50*time.Millisecond)
	})

	t.Run("REST 與 socket 共用 session", func(t *testing.T) {
		p, err := bob.API.Profile(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, bobID, p.ID)
		assert.True(t, p.IsOwnProfile)

		feed := api.NewFeedPager(bob.API, api.FeedPath)
		posts, err := feed.Next(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, "hello from bob", posts[0].Content)

		_, err = feed.Next(ctx)
		require.NoError(t, err)
		assert.True(t, feed.Exhausted())
	})
}

func TestClient_LoginFailure(t *testing.T) {
	_, addr, _ := startBackend(t)

	c, err := New(config.Client{
		APIURL:      "http://" + addr,
		WSURL:       "ws://" + addr + "/ws",
		Credentials: config.CredentialsConfig{Username: "alice", Password: "wrong"},
	})
	require.NoError(t, err)

	err = c.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Wrong username or password")
	assert.False(t, c.Socket.Connected())
}

func TestNew_RequiresEndpoints(t *testing.T) {
	_, err := New(config.Client{APIURL: "http://localhost"})
	assert.Error(t, err)
}
