package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedServer 每頁回傳 offset 之前的 3 篇, id 由大到小
type feedServer struct {
	mu      sync.Mutex
	offsets []string
	block   chan struct{}
}

func (s *feedServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	offset := parts[len(parts)-1]
	s.mu.Lock()
	s.offsets = append(s.offsets, offset)
	block := s.block
	s.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-r.Context().Done():
			return
		}
	}

	from, _ := strconv.ParseInt(offset, 10, 64)
	if from == 0 {
		from = 10
	}
	var page []Post
	for id := from - 1; id > 0 && len(page) < 3; id-- {
		page = append(page, Post{ID: id, Content: fmt.Sprintf("post %d", id)})
	}
	if page == nil {
		page = []Post{}
	}
	_ = json.NewEncoder(w).Encode(page)
}

func (s *feedServer) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.offsets...)
}

func TestFeedPager_PagesUntilEmpty(t *testing.T) {
	srv := &feedServer{}
	c, _ := newTestClient(t, srv, Options{})
	p := NewFeedPager(c, FeedPath)
	ctx := context.Background()

	page, err := p.Next(ctx)
	require.NoError(t, err)
	assert.Len(t, page, 3)
	assert.Equal(t, int64(7), p.Offset())

	for !p.Exhausted() {
		_, err = p.Next(ctx)
		require.NoError(t, err)
	}
	assert.Len(t, p.Posts(), 9)
	assert.Equal(t, []string{"0", "7", "4", "1"}, srv.seen())

	_, err = p.Next(ctx)
	assert.ErrorIs(t, err, ErrFeedExhausted)
}

func TestFeedPager_ResetDiscardsInflight(t *testing.T) {
	srv := &feedServer{block: make(chan struct{})}
	c, _ := newTestClient(t, srv, Options{})
	p := NewFeedPager(c, GroupFeedPath(4))

	done := make(chan error, 1)
	go func() {
		_, err := p.Next(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return len(srv.seen()) == 1 }, time.Second, 5*time.Millisecond)
	_, err := p.Next(context.Background())
	assert.ErrorIs(t, err, ErrFeedBusy)

	p.Reset()
	assert.ErrorIs(t, <-done, ErrFeedReset)
	assert.Empty(t, p.Posts())
	assert.Zero(t, p.Offset())

	close(srv.block)
	page, err := p.Next(context.Background())
	require.NoError(t, err)
	assert.Len(t, page, 3)
	assert.Equal(t, "/groupfeed/4", GroupFeedPath(4))
}
