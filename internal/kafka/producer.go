package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// Producer wraps a single long-lived writer shared across requests. Writes are
// confirmed by all in-sync replicas before Publish returns, so a successful
// call means the message is durable.
type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	return &Producer{Writer: writer}
}

// Publish writes one message to the given topic, keyed so that messages for
// the same key land on the same partition in order.
func (p *Producer) Publish(ctx context.Context, topic, key string, value []byte) error {
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
