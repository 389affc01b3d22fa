package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"social_network_client/pkg/logger"

	"go.uber.org/zap"
)

var (
	// ErrFeedExhausted the last page came back empty
	ErrFeedExhausted = errors.New("no more posts")
	// ErrFeedBusy a page is already being loaded
	ErrFeedBusy = errors.New("feed page request in flight")
	// ErrFeedReset the pager was reset while the page was loading
	ErrFeedReset = errors.New("feed reset while loading")
)

// feed sources
const (
	FeedPath         = "/feedposts"
	ProfilePostsPath = "/profileposts"
)

// UserPostsPath posts of one user
func UserPostsPath(userID int64) string {
	return fmt.Sprintf("/userposts/%d", userID)
}

// GroupFeedPath posts of one group
func GroupFeedPath(groupID int64) string {
	return fmt.Sprintf("/groupfeed/%d", groupID)
}

// FeedPager infinite scroll over GET {path}/{offset}, offset is the last post id
type FeedPager struct {
	client *Client
	path   string

	mu         sync.Mutex
	posts      []Post
	offset     int64
	exhausted  bool
	loading    bool
	generation uint64
	cancel     context.CancelFunc
}

// NewFeedPager create FeedPager for one of the feed paths
func NewFeedPager(client *Client, path string) *FeedPager {
	return &FeedPager{
		client: client,
		path:   strings.TrimRight(path, "/"),
	}
}

// Next load the page after the current offset and append it
func (p *FeedPager) Next(ctx context.Context) ([]Post, error) {
	p.mu.Lock()
	if p.exhausted {
		p.mu.Unlock()
		return nil, ErrFeedExhausted
	}
	if p.loading {
		p.mu.Unlock()
		return nil, ErrFeedBusy
	}
	gen := p.generation
	offset := p.offset
	reqCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.loading = true
	p.mu.Unlock()

	var page []Post
	err := p.client.getJSON(reqCtx, fmt.Sprintf("%s/%d", p.path, offset), &page)
	cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation {
		logger.Log.Debug("stale feed page discarded", zap.String("path", p.path), zap.Int64("offset", offset))
		return nil, ErrFeedReset
	}
	p.loading = false
	p.cancel = nil
	if err != nil {
		return nil, err
	}
	if len(page) == 0 {
		p.exhausted = true
		return nil, nil
	}
	p.posts = append(p.posts, page...)
	p.offset = page[len(page)-1].ID
	return page, nil
}

// Reset drop loaded posts, cancel the in-flight page and start from offset 0
func (p *FeedPager) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.generation++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.posts = nil
	p.offset = 0
	p.exhausted = false
	p.loading = false
}

// Posts copy of loaded posts in arrival order
func (p *FeedPager) Posts() []Post {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Post(nil), p.posts...)
}

// Offset id of the last loaded post
func (p *FeedPager) Offset() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offset
}

// Exhausted an empty page was returned
func (p *FeedPager) Exhausted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exhausted
}
