package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	errprocess "social_network_client/pkg/err"
	"social_network_client/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.SetNewNop()
}

func newTestClient(t *testing.T, h http.Handler, opts Options) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, opts)
	require.NoError(t, err)
	return c, srv
}

func TestLogin_ErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		want   string
	}{
		{http.StatusBadRequest, MissingCredentialsMessage},
		{http.StatusUnauthorized, WrongCredentialsMessage},
		{http.StatusInternalServerError, LoginFailedMessage},
		{http.StatusTeapot, LoginFailedMessage},
	}
	for _, tc := range cases {
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}), Options{})

		err := c.Login(context.Background(), LoginForm{Username: "a", Password: "b"})
		var se *errprocess.ServerError
		require.True(t, errors.As(err, &se), "status %d", tc.status)
		assert.Equal(t, tc.status, se.Status)
		assert.Equal(t, tc.want, se.Message)
		assert.Equal(t, tc.want, errprocess.Banner(err))
	}
}

func TestLogin_SessionCookieStored(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		var form LoginForm
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil || form.Username != "alice" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "tok", Path: "/"})
	})
	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie("session"); err != nil || ck.Value != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
	c, srv := newTestClient(t, mux, Options{})

	ctx := context.Background()
	assert.True(t, errprocess.IsStatus(c.Auth(ctx), http.StatusUnauthorized))
	require.NoError(t, c.Login(ctx, LoginForm{Username: "alice", Password: "pw"}))
	assert.NoError(t, c.Auth(ctx))

	u, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	assert.Len(t, c.Jar().Cookies(u.URL), 1)
}

func TestNoResponse(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url, Options{Timeout: time.Second})
	require.NoError(t, err)

	err = c.Auth(context.Background())
	assert.ErrorIs(t, err, errprocess.ErrNoResponse)
	assert.Equal(t, errprocess.ErrNoResponse.Error(), errprocess.Banner(err))
}

func TestServerError_GenericMessage(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}), Options{})

	_, err := c.Profile(context.Background(), 3)
	var se *errprocess.ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Status)
	assert.Equal(t, errprocess.ErrInternal.Error(), se.Message)
	assert.Equal(t, "boom\n", se.Body)
}

func TestGetRetry_ServerAnswerIsFinal(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}), Options{RetryMaxElapsed: time.Second})

	err := c.Auth(context.Background())
	assert.True(t, errprocess.IsStatus(err, http.StatusNotFound))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestGetRetry_TransportFailure(t *testing.T) {
	var hits int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			// 第一次直接斷線
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		_, _ = w.Write([]byte(`{"id":7,"firstName":"Ann","lastName":"Lee"}`))
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, Options{RetryMaxElapsed: 5 * time.Second})
	require.NoError(t, err)

	p, err := c.Profile(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, "Ann Lee", p.DisplayName())
	assert.GreaterOrEqual(t, atomic.LoadInt32(&hits), int32(2))
}

func TestSignup_ValidationBlocksRequest(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}), Options{})

	err := c.Signup(context.Background(), SignupForm{Email: "nope"})
	var ve errprocess.ValidationErrors
	require.ErrorAs(t, err, &ve)
	assert.NotEmpty(t, ve.Field("email"))
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestSignup_DistinguishedConflicts(t *testing.T) {
	cases := map[string]string{
		"nickname\n": NicknameTakenMessage,
		"email\n":    EmailTakenMessage,
		"password":   WeakPasswordMessage,
	}
	for body, want := range cases {
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, body)
		}), Options{})

		err := c.Signup(context.Background(), validSignup())
		assert.Equal(t, want, errprocess.Banner(err), "body %q", body)
	}
}

func TestSignup_OtherBadRequestIsGeneric(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "something else", http.StatusBadRequest)
	}), Options{})

	err := c.Signup(context.Background(), validSignup())
	assert.Equal(t, errprocess.ErrInternal.Error(), errprocess.Banner(err))
}

func TestCreateComment_Multipart(t *testing.T) {
	var (
		gotPost    string
		gotContent string
		gotFile    string
	)
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/insertcomment", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotPost = r.FormValue("postId")
		gotContent = r.FormValue("content")
		f, _, err := r.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		gotFile = string(b)
	}), Options{})

	err := c.CreateComment(context.Background(), CommentForm{
		PostID:  12,
		Content: "nice",
		Image:   &Upload{FileName: "a.png", Content: strings.NewReader("PNG")},
	})
	require.NoError(t, err)
	assert.Equal(t, "12", gotPost)
	assert.Equal(t, "nice", gotContent)
	assert.Equal(t, "PNG", gotFile)
}

func TestCreateComment_LengthErrors(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}), Options{})
	ctx := context.Background()

	err := c.CreateComment(ctx, CommentForm{PostID: 1, Content: strings.Repeat("x", 101)})
	var ve errprocess.ValidationErrors
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, CommentLengthMessage, ve.Field("content"))

	err = c.CreateComment(ctx, CommentForm{PostID: 1, Content: "ok"})
	assert.Equal(t, CommentLengthMessage, errprocess.Banner(err))
}

func TestSearch(t *testing.T) {
	var gotPath string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`[{"userId":2,"name":"Bob"},{"groupId":5,"name":"Bobcats"}]`))
	}), Options{})
	ctx := context.Background()

	out, err := c.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Empty(t, gotPath)

	out, err = c.Search(ctx, "bob smith")
	require.NoError(t, err)
	assert.Equal(t, "/search/bob%20smith", gotPath)
	require.Len(t, out, 2)
	assert.Equal(t, int64(5), out[1].GroupID)
}
