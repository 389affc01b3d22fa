package app

import (
	"context"

	"social_network_client/internal/notification/domain"

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

// MockFetcher mock REST notification fetcher
type MockFetcher struct {
	mock.Mock
}

// Notifications mock fetch
func (m *MockFetcher) Notifications(ctx context.Context) ([]domain.Notification, error) {
	args := m.Called(ctx)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Notification), args.Error(1)
	}
	return nil, args.Error(1)
}
