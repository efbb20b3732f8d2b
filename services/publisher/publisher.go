package publisher

import (
	"context"
	"fmt"
	"strings"

	"github.com/WilliamsRotolo/autocaricamento/config"
	crawlerrors "github.com/WilliamsRotolo/autocaricamento/pkg/errors"
)

// Publisher represents a service for publishing crawl results
type Publisher interface {
	// Publish publishes a message under key
	Publish(ctx context.Context, key string, message []byte) error

	// TrimStreams trims the streams to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}

// NopPublisher drops every message. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, []byte) error { return nil }
func (NopPublisher) TrimStreams(context.Context) error            { return nil }
func (NopPublisher) Close() error                                 { return nil }

// New creates the publisher selected by cfg.Publisher
func New(cfg *config.Config) (Publisher, error) {
	switch strings.ToLower(cfg.Publisher) {
	case "", "none":
		return NopPublisher{}, nil
	case "redis":
		return NewRedisPublisher(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMaxLength), nil
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			return nil, crawlerrors.NewConfiguration("KAFKA_BROKERS is required for the kafka publisher", nil)
		}
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	default:
		return nil, crawlerrors.NewConfiguration(fmt.Sprintf("unknown publisher %q", cfg.Publisher), nil)
	}
}
