package publisher

import (
	"context"
	"time"

	crawlerrors "github.com/WilliamsRotolo/autocaricamento/pkg/errors"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher implements Publisher by writing to a Kafka topic
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher writing to topic on brokers
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}

	return &KafkaPublisher{writer: writer}
}

// Publish writes message with key as the Kafka message key
func (p *KafkaPublisher) Publish(ctx context.Context, key string, message []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: message,
		Time:  time.Now(),
	})
	if err != nil {
		return crawlerrors.NewPublisher("failed to write to topic "+p.writer.Topic, err)
	}
	return nil
}

// TrimStreams is a no-op: topic retention is configured on the brokers
func (p *KafkaPublisher) TrimStreams(context.Context) error {
	return nil
}

// Close flushes pending messages and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
