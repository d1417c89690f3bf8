package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/geocoder89/bloodhub/internal/domain/request"
)

const EventRequestCreated = "request.created"

// Publisher is the part of redisclient.Client the notifier uses.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) (int64, error)
}

// Message is the JSON published on the channel.
type Message struct {
	Type    string          `json:"type"`
	Request request.Request `json:"request"`
}

type RedisNotifier struct {
	pub     Publisher
	channel string
}

func NewRedisNotifier(pub Publisher, channel string) *RedisNotifier {
	return &RedisNotifier{pub: pub, channel: channel}
}

func (n *RedisNotifier) RequestCreated(ctx context.Context, req request.Request) error {
	payload, err := json.Marshal(Message{Type: EventRequestCreated, Request: req})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	if _, err := n.pub.Publish(ctx, n.channel, payload); err != nil {
		return fmt.Errorf("publish %s: %w", n.channel, err)
	}
	return nil
}
