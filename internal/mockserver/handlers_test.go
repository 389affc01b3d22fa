package mockserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"social_network_client/pkg/config"
	"social_network_client/pkg/logger"
	"social_network_client/pkg/middlewares"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.SetNewNop()
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := New(config.MockBackend{JWTSecret: "secret", SessionTTL: time.Hour}, nil)
	require.NoError(t, err)
	_, err = srv.Seed([]SeedUser{
		{Email: "alice@example.com", Password: "Secr3t!pw", First: "Alice", Last: "A", Nickname: "alice"},
	}, "")
	require.NoError(t, err)
	return srv
}

func postJSON(t *testing.T, srv *Server, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.App.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func bodyOf(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t)

	t.Run("缺少欄位 400", func(t *testing.T) {
		resp := postJSON(t, srv, "/login", `{"username":"alice"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("密碼錯誤 401", func(t *testing.T) {
		resp := postJSON(t, srv, "/login", `{"username":"alice","password":"nope"}`)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("nickname 或 email 登入並設定 cookie", func(t *testing.T) {
		for _, name := range []string{"alice", "ALICE@example.com"} {
			resp := postJSON(t, srv, "/login", `{"username":"`+name+`","password":"Secr3t!pw"}`)
			require.Equal(t, http.StatusOK, resp.StatusCode, name)

			var session *http.Cookie
			for _, ck := range resp.Cookies() {
				if ck.Name == middlewares.CookieToken {
					session = ck
				}
			}
			require.NotNil(t, session, name)

			req := httptest.NewRequest(http.MethodGet, "/auth", nil)
			req.AddCookie(session)
			authResp, err := srv.App.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, authResp.StatusCode)
		}
	})
}

func TestSignupConflicts(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name string
		body string
		want string
	}{
		{"email 重複", `{"email":"alice@example.com","password":"Secr3t!pw","nickname":"x"}`, "email\n"},
		{"nickname 重複", `{"email":"new@example.com","password":"Secr3t!pw","nickname":"Alice"}`, "nickname\n"},
		{"弱密碼", `{"email":"new@example.com","password":"weakpass","nickname":"y"}`, "password\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, srv, "/signup", tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tc.want, bodyOf(t, resp))
		})
	}

	resp := postJSON(t, srv, "/signup", `{"email":"new@example.com","password":"Secr3t!pw","firstName":"N","lastName":"U"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionRequired(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/auth", "/notifications", "/profile", "/feedposts/0"} {
		resp, err := srv.App.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}

	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	req.AddCookie(&http.Cookie{Name: middlewares.CookieToken, Value: "garbage"})
	resp, err := srv.App.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNotificationsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp := postJSON(t, srv, "/login", `{"username":"alice","password":"Secr3t!pw"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookies := resp.Cookies()

	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	resp, err := srv.App.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out []map[string]any
	require.NoError(t, json.Unmarshal([]byte(bodyOf(t, resp)), &out))
	assert.Empty(t, out)
}
