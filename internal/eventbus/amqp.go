package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	kitlog "github.com/go-kit/kit/log"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ews-platform/ews-consensus/internal/apperr"
	"github.com/ews-platform/ews-consensus/internal/metrics"
)

// AMQPBus is a Bus backed by a topic exchange on a RabbitMQ broker. The
// connection is process-wide, lazily established, and redialed on error:
// dial-on-demand, reconnect-on-loss, simplified for a single broker
// instead of a mesh of peer servers.
type AMQPBus struct {
	url    string
	logger kitlog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPBus builds an adapter that connects lazily on first Publish or
// Subscribe call.
func NewAMQPBus(url string, logger kitlog.Logger) *AMQPBus {
	return &AMQPBus{url: url, logger: logger}
}

func (b *AMQPBus) connection() (*amqp.Channel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ch != nil && !b.ch.IsClosed() {
		return b.ch, nil
	}

	conn, err := amqp.Dial(b.url)
	if err != nil {
		return nil, apperr.Bus("failed to dial amqp broker", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, apperr.Bus("failed to open amqp channel", err)
	}
	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, apperr.Bus("failed to declare exchange", err)
	}

	b.conn = conn
	b.ch = ch
	return ch, nil
}

func (b *AMQPBus) Publish(ctx context.Context, routingKey, eventID string, body []byte) error {
	ch, err := b.connection()
	if err != nil {
		b.logger.Log("msg", "bus publish failed to connect", "routingKey", routingKey, "error", err)
		metrics.BusPublishFailures.WithLabelValues(routingKey).Inc()
		return err
	}

	err = ch.PublishWithContext(ctx, ExchangeName, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    eventID,
		Timestamp:    time.Now(),
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		b.logger.Log("msg", "bus publish failed", "routingKey", routingKey, "error", err)
		metrics.BusPublishFailures.WithLabelValues(routingKey).Inc()
		return apperr.Bus("failed to publish message", err)
	}
	return nil
}

func (b *AMQPBus) Subscribe(ctx context.Context, routingKey string, handler Handler) error {
	ch, err := b.connection()
	if err != nil {
		return err
	}

	queueName := QueueName(routingKey)
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return apperr.Bus("failed to declare queue", err)
	}
	if err := ch.QueueBind(queueName, routingKey, ExchangeName, false, nil); err != nil {
		return apperr.Bus("failed to bind queue", err)
	}

	deliveries, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return apperr.Bus("failed to start consuming", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return apperr.Bus("amqp delivery channel closed", fmt.Errorf("consumer on %s terminated", queueName))
			}
			env := Envelope{EventID: d.MessageId, RoutingKey: d.RoutingKey, PublishedAt: d.Timestamp, Body: d.Body}
			if err := handler(ctx, env); err != nil {
				b.logger.Log("msg", "bus handler failed, requeueing", "routingKey", routingKey, "error", err)
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (b *AMQPBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ch != nil {
		b.ch.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
