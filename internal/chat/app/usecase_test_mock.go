package app

import (
	"context"
	"sync"

	"social_network_client/internal/chat/domain"
	rtdomain "social_network_client/internal/realtime/domain"

	"github.com/stretchr/testify/mock"
)

// MockSender mock websocket Sender
type MockSender struct {
	mock.Mock
}

// Send mock send
func (m *MockSender) Send(ctx context.Context, msgType string, data any) error {
	args := m.Called(ctx, msgType, data)
	return args.Error(0)
}

// recordingSender keeps every outbound envelope, used where mock expectations get noisy
type recordingSender struct {
	mu   sync.Mutex
	sent []sentEnvelope
	err  error
}

type sentEnvelope struct {
	Type string
	Data any
}

func (r *recordingSender) Send(_ context.Context, msgType string, data any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentEnvelope{Type: msgType, Data: data})
	return r.err
}

func (r *recordingSender) all() []sentEnvelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentEnvelope(nil), r.sent...)
}

func (r *recordingSender) ofType(msgType string) []sentEnvelope {
	var out []sentEnvelope
	for _, s := range r.all() {
		if s.Type == msgType {
			out = append(out, s)
		}
	}
	return out
}

func (r *recordingSender) lastHistoryRequest() (rtdomain.HistoryRequest, bool) {
	reqs := r.ofType(rtdomain.TypeRequestMessageHistory)
	if len(reqs) == 0 {
		return rtdomain.HistoryRequest{}, false
	}
	req, ok := reqs[len(reqs)-1].Data.(rtdomain.HistoryRequest)
	return req, ok
}

// MockThreadTracker mock ThreadTracker
type MockThreadTracker struct {
	mock.Mock
}

// ResetUnread mock reset unread
func (m *MockThreadTracker) ResetUnread(key domain.ThreadKey) {
	m.Called(key)
}

// MarkActive mock mark active
func (m *MockThreadTracker) MarkActive(thread domain.ChatThread) {
	m.Called(thread)
}

// CurrentUserID mock current user id
func (m *MockThreadTracker) CurrentUserID() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}
