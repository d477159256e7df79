package eventbus

import (
	"context"
	"testing"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueName(t *testing.T) {
	assert.Equal(t, "ews_queue_ews_calculated", QueueName("ews.calculated"))
	assert.Equal(t, "ews_queue_ews_consensus", QueueName("ews.consensus"))
}

func TestMemoryBus_PublishDeliversToSubscriber(t *testing.T) {
	bus := NewMemoryBus(kitlog.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Envelope, 1)
	go func() {
		_ = bus.Subscribe(ctx, TopicScoreCalculated, func(ctx context.Context, env Envelope) error {
			received <- env
			return nil
		})
	}()

	// allow the subscriber goroutine to register before publishing.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, bus.Publish(context.Background(), TopicScoreCalculated, "evt-1", []byte(`{"x":1}`)))

	select {
	case env := <-received:
		assert.Equal(t, "evt-1", env.EventID)
		assert.Equal(t, TopicScoreCalculated, env.RoutingKey)
	case <-time.After(time.Second):
		t.Fatal("envelope not delivered")
	}
}
