package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/config"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes values of type T as JSON messages. Each message is
// keyed by key(value), so every message for one key lands on the same
// partition.
type Producer[T any] struct {
	w      messageWriter
	key    func(T) string
	logger *slog.Logger
}

// NewProducer creates a Producer writing to topic.
func NewProducer[T any](cfg config.KafkaConfig, topic string, key func(T) string) *Producer[T] {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Snappy,
	}
	return newProducer(w, topic, key)
}

func newProducer[T any](w messageWriter, topic string, key func(T) string) *Producer[T] {
	return &Producer[T]{
		w:      w,
		key:    key,
		logger: slog.Default().With("component", "kafka-producer", "topic", topic),
	}
}

// Publish writes values in a single call. Nothing is written when any
// value fails to encode.
func (p *Producer[T]) Publish(ctx context.Context, values ...T) error {
	if len(values) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(values))
	for _, v := range values {
		key := p.key(v)
		body, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding message %s: %w", key, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:     []byte(key),
			Value:   body,
			Headers: []kafka.Header{{Key: headerContentType, Value: []byte(contentTypeJSON)}},
		})
	}
	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Error("publish failed", "messages", len(msgs), "error", err)
		return fmt.Errorf("publishing %d messages: %w", len(msgs), err)
	}
	p.logger.Debug("published", "messages", len(msgs))
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Producer[T]) Close() error {
	return p.w.Close()
}
