package eventbus

import (
	"context"
	"sync"
	"time"

	kitlog "github.com/go-kit/kit/log"
)

// MemoryBus is the degraded in-memory fallback used when the broker is
// unreachable and NODE_ENV permits it (§4.6/§9 "process-wide event-bus
// singleton"). It fans out published envelopes to every subscriber
// registered for the routing key, synchronously, on the publishing
// goroutine.
type MemoryBus struct {
	logger kitlog.Logger

	mu          sync.RWMutex
	subscribers map[string][]Handler
	closed      bool
}

func NewMemoryBus(logger kitlog.Logger) *MemoryBus {
	return &MemoryBus{logger: logger, subscribers: map[string][]Handler{}}
}

func (b *MemoryBus) Publish(ctx context.Context, routingKey, eventID string, body []byte) error {
	b.mu.RLock()
	handlers := append([]Handler{}, b.subscribers[routingKey]...)
	b.mu.RUnlock()

	env := Envelope{EventID: eventID, RoutingKey: routingKey, PublishedAt: time.Now(), Body: body}
	for _, h := range handlers {
		if err := h(ctx, env); err != nil {
			b.logger.Log("msg", "in-memory bus handler failed", "routingKey", routingKey, "error", err)
		}
	}
	return nil
}

// Subscribe registers handler and blocks until ctx is cancelled, matching
// the AMQPBus contract so callers can swap implementations freely.
func (b *MemoryBus) Subscribe(ctx context.Context, routingKey string, handler Handler) error {
	b.mu.Lock()
	b.subscribers[routingKey] = append(b.subscribers[routingKey], handler)
	b.mu.Unlock()

	<-ctx.Done()
	return nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subscribers = nil
	return nil
}
