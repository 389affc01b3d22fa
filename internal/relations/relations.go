// Package relations follow / unfollow / join-group actions sent over the shared socket
package relations

import (
	"context"

	rtdomain "social_network_client/internal/realtime/domain"
	"social_network_client/pkg/logger"

	"go.uber.org/zap"
)

// Relations fire-and-forget social actions, answers come back as notifications
type Relations struct {
	sender rtdomain.Sender
}

// New create Relations
func New(sender rtdomain.Sender) *Relations {
	return &Relations{sender: sender}
}

// Follow send follow_request{id}
func (r *Relations) Follow(ctx context.Context, userID int64) error {
	return r.send(ctx, rtdomain.TypeFollowRequest, rtdomain.TargetRequest{ID: userID})
}

// Unfollow send unfollow{id}
func (r *Relations) Unfollow(ctx context.Context, userID int64) error {
	return r.send(ctx, rtdomain.TypeUnfollow, rtdomain.TargetRequest{ID: userID})
}

// RequestJoinGroup send group_request{group_id}
func (r *Relations) RequestJoinGroup(ctx context.Context, groupID int64) error {
	return r.send(ctx, rtdomain.TypeGroupRequest, rtdomain.GroupTargetRequest{GroupID: groupID})
}

func (r *Relations) send(ctx context.Context, msgType string, data any) error {
	if err := r.sender.Send(ctx, msgType, data); err != nil {
		logger.Log.Error("relation action failed", zap.String("type", msgType), zap.Error(err))
		return err
	}
	return nil
}
