package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/huangang/projectdesk/internal/auth"
	"github.com/huangang/projectdesk/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RedisSessionBus relays session events through a Redis pub/sub channel so
// every instance notifies its own listeners. Tokens never leave the process.
type RedisSessionBus struct {
	client  *redis.Client
	channel string
	hub     *SessionHub
	sub     *redis.PubSub
}

type wireSessionEvent struct {
	Type      auth.Event `json:"type"`
	UserID    string     `json:"user_id"`
	Email     string     `json:"email,omitempty"`
	ExpiresAt time.Time  `json:"expires_at,omitempty"`
	At        time.Time  `json:"at"`
}

func NewRedisSessionBus(client *redis.Client, channel string, hub *SessionHub) *RedisSessionBus {
	return &RedisSessionBus{client: client, channel: channel, hub: hub}
}

// Start subscribes, waits for the subscription to be confirmed, then attaches
// the bus to the hub.
func (b *RedisSessionBus) Start(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	b.sub = sub

	go b.consume(sub.Channel())
	b.hub.SetBus(b)
	logger.Info().Str("channel", b.channel).Msg("session events bridged through redis")
	return nil
}

func (b *RedisSessionBus) consume(ch <-chan *redis.Message) {
	for msg := range ch {
		var w wireSessionEvent
		if err := json.Unmarshal([]byte(msg.Payload), &w); err != nil {
			logger.Warn().Err(err).Msg("dropping malformed session event")
			continue
		}

		event := SessionEvent{Type: w.Type, UserID: w.UserID, At: w.At}
		if w.Type != auth.EventSignedOut {
			event.Session = &auth.Session{
				ExpiresAt: w.ExpiresAt,
				User:      auth.User{ID: w.UserID, Email: w.Email},
			}
		}
		b.hub.Deliver(event)
	}
}

func (b *RedisSessionBus) Publish(ctx context.Context, event SessionEvent) error {
	w := wireSessionEvent{Type: event.Type, UserID: event.UserID, At: event.At}
	if event.Session != nil {
		w.Email = event.Session.User.Email
		w.ExpiresAt = event.Session.ExpiresAt
	}
	data, err := json.Marshal(w)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, data).Err()
}

// Close detaches from the hub and ends the subscription.
func (b *RedisSessionBus) Close() error {
	b.hub.SetBus(nil)
	if b.sub == nil {
		return nil
	}
	return b.sub.Close()
}
