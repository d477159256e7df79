package eventbus

import kitlog "github.com/go-kit/kit/log"

// New builds the process-wide bus singleton (§9): an AMQPBus against amqpURL
// when the broker is reachable, falling back to MemoryBus in development
// when it is not (§5 "Shared resources").
func New(amqpURL string, isDevelopment bool, logger kitlog.Logger) Bus {
	bus := NewAMQPBus(amqpURL, logger)
	if _, err := bus.connection(); err != nil {
		if !isDevelopment {
			logger.Log("msg", "amqp broker unreachable", "error", err)
			return bus
		}
		logger.Log("msg", "amqp broker unreachable, falling back to in-memory bus", "error", err)
		return NewMemoryBus(logger)
	}
	return bus
}
