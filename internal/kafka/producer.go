package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

type Producer struct {
	Writer *kafka.Writer
}

// NewProducer creates a topic-agnostic producer; the topic is chosen per
// message.
func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
	}
	return &Producer{Writer: writer}
}

// NewDisabled returns a producer that drops every message, for deployments
// running without Kafka (KAFKA_ENABLED=false).
func NewDisabled() *Producer {
	return &Producer{}
}

func (p *Producer) Publish(topic string, key string, value []byte) error {
	if p.Writer == nil {
		return nil
	}
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
}

func (p *Producer) Close() error {
	if p.Writer == nil {
		return nil
	}
	return p.Writer.Close()
}
