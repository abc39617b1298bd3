package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherGoChannel(t *testing.T) {
	pubsub := NewGoChannel()
	defer pubsub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubsub.Subscribe(ctx, DefaultTopic)
	require.NoError(t, err)

	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	p := NewPublisher(pubsub, "")
	require.NoError(t, p.Publish(ctx, Event{Type: LoginFailed, Reason: "InvalidCredentials", At: at}))

	select {
	case msg := <-messages:
		msg.Ack()
		var got Event
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, LoginFailed, got.Type)
		assert.Equal(t, "InvalidCredentials", got.Reason)
		assert.Empty(t, got.UserId)
		assert.True(t, at.Equal(got.At))
		assert.Equal(t, LoginFailed, msg.Metadata.Get("type"))
		assert.NotEmpty(t, msg.UUID)
	case <-ctx.Done():
		t.Fatal("no audit message received")
	}
}

func TestPublisherStampsTime(t *testing.T) {
	rec := &recordingPublisher{}
	p := NewPublisher(rec, "topic")
	now := time.Date(2024, 5, 5, 5, 5, 5, 0, time.UTC)
	p.now = func() time.Time { return now }

	require.NoError(t, p.Publish(context.Background(), Event{Type: Logout, UserId: "42"}))
	require.Len(t, rec.messages, 1)
	assert.Equal(t, "topic", rec.topic)

	var got Event
	require.NoError(t, json.Unmarshal(rec.messages[0].Payload, &got))
	assert.Equal(t, "42", got.UserId)
	assert.True(t, now.Equal(got.At))
}

func TestPublisherError(t *testing.T) {
	p := NewPublisher(&recordingPublisher{err: errors.New("closed")}, "")
	err := p.Publish(context.Background(), Event{Type: LoginSucceeded})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Publish(context.Background(), Event{Type: Logout}))
}

type recordingPublisher struct {
	topic    string
	messages []*message.Message
	err      error
}

func (r *recordingPublisher) Publish(topic string, messages ...*message.Message) error {
	if r.err != nil {
		return r.err
	}
	r.topic = topic
	r.messages = append(r.messages, messages...)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }
