package queue

import (
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/popeskul/smshub/internal/clock"
	"github.com/popeskul/smshub/internal/config"
)

const (
	DriverRedis    = "redis"
	DriverRabbitMQ = "rabbitmq"
)

// NewBroker builds the broker selected by cfg.Driver. The Redis client is
// only used by the redis driver.
func NewBroker(cfg config.QueueConfig, client *redis.Client, clk clock.Clock, logger *zap.Logger) (Broker, error) {
	switch cfg.Driver {
	case DriverRabbitMQ:
		broker, err := NewRabbitBroker(cfg.AMQPURL, cfg.Name, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		return broker, nil
	case DriverRedis, "":
		pollInterval := time.Duration(cfg.PollInterval) * time.Millisecond
		return NewRedisBroker(client, cfg.Name, pollInterval, clk, logger), nil
	default:
		return nil, fmt.Errorf("unknown queue driver %q", cfg.Driver)
	}
}
