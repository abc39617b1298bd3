// Package audit publishes authentication events over watermill.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

const DefaultTopic = "catalog.auth"

const (
	LoginSucceeded = "auth.login.succeeded"
	LoginFailed    = "auth.login.failed"
	Logout         = "auth.logout"
)

// Event is the payload of every audit message. Reason holds a failure kind,
// never a password or a token.
type Event struct {
	Type   string    `json:"type"`
	UserId string    `json:"user_id,omitempty"`
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

type Publisher struct {
	publisher message.Publisher
	topic     string
	now       func() time.Time
}

func NewPublisher(publisher message.Publisher, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{publisher: publisher, topic: topic, now: time.Now}
}

func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if event.At.IsZero() {
		event.At = p.now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("type", event.Type)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.publisher.Close()
}

// NewGoChannel returns an in-process pub/sub. Nobody has to subscribe;
// messages without subscribers are dropped.
func NewGoChannel() *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
}

// NewRedisStream returns a publisher appending to a Redis stream per topic.
func NewRedisStream(client redis.UniversalClient) (message.Publisher, error) {
	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: client},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis stream publisher: %w", err)
	}
	return publisher, nil
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
