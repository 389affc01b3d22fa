// Package bridge republishes realtime envelopes to redis and relays outbound
// commands from redis back to the socket.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	rtdomain "social_network_client/internal/realtime/domain"
	"social_network_client/pkg/database"
	"social_network_client/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// lastTTL 最後一筆 envelope 保留時間
const lastTTL = 24 * time.Hour

// Publisher publish payload on a channel
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// RedisPubSub definition redis pub/sub
type RedisPubSub struct {
	client *redis.Client
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{client: client}
}

// Publish 將 message 序列化後，發布到指定 channel
func (r *RedisPubSub) Publish(ctx context.Context, channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, channel, data).Err()
}

// Subscribe 訂閱 channel，收到訊息後呼叫 handler, ctx 結束時關閉
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string, handler func(payload string)) error {
	sub := r.client.Subscribe(ctx, channel)
	// 等待訂閱確認
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}
				handler(m.Payload)
			case <-ctx.Done():
				logger.Log.Info(fmt.Sprintf("%s , sub close", channel))
				return
			}
		}
	}()
	return nil
}

// Bridge inbound envelopes → {prefix}:{type}, {prefix}:outbound → socket
type Bridge struct {
	pub    Publisher
	last   database.RedisRepository[rtdomain.Envelope]
	sender rtdomain.Sender
	prefix string
}

// New create Bridge, last may be nil
func New(pub Publisher, last database.RedisRepository[rtdomain.Envelope], sender rtdomain.Sender, prefix string) *Bridge {
	return &Bridge{
		pub:    pub,
		last:   last,
		sender: sender,
		prefix: prefix,
	}
}

// Channel redis channel of an envelope type
func (b *Bridge) Channel(msgType string) string {
	return fmt.Sprintf("%s:%s", b.prefix, msgType)
}

// OutboundChannel channel other processes publish envelopes to send
func (b *Bridge) OutboundChannel() string {
	return b.Channel("outbound")
}

// LastKey key holding the last envelope of a type
func (b *Bridge) LastKey(msgType string) string {
	return fmt.Sprintf("%s:last:%s", b.prefix, msgType)
}

// Run republish envelopes until ch is closed or ctx is done
func (b *Bridge) Run(ctx context.Context, ch <-chan rtdomain.Envelope) {
	for {
		select {
		case env, ok := <-ch:
			if !ok {
				return
			}
			if err := b.Forward(ctx, env); err != nil {
				logger.Log.Warn("bridge publish failed", zap.String("type", env.Type), zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Forward publish one envelope and remember it as the last of its type
func (b *Bridge) Forward(ctx context.Context, env rtdomain.Envelope) error {
	if err := b.pub.Publish(ctx, b.Channel(env.Type), env); err != nil {
		return err
	}
	if b.last != nil {
		if err := b.last.Set(ctx, b.LastKey(env.Type), env, lastTTL); err != nil {
			return err
		}
	}
	return nil
}

// Relay decode an outbound payload and send it over the socket
func (b *Bridge) Relay(ctx context.Context, payload string) error {
	var env rtdomain.Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return fmt.Errorf("decode outbound envelope: %w", err)
	}
	if env.Type == "" {
		return fmt.Errorf("outbound envelope without type")
	}
	var data any
	if len(env.Data) > 0 {
		data = env.Data
	}
	return b.sender.Send(ctx, env.Type, data)
}

// ListenOutbound subscribe the outbound channel and relay every payload
func (b *Bridge) ListenOutbound(ctx context.Context, sub *RedisPubSub) error {
	return sub.Subscribe(ctx, b.OutboundChannel(), func(payload string) {
		if err := b.Relay(ctx, payload); err != nil {
			logger.Log.Error("bridge relay failed", zap.Error(err))
		}
	})
}
