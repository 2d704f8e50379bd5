// Package kafka moves typed JSON messages over segmentio/kafka-go. The
// query service publishes analytics events with a Producer and the
// analytics service reads them back with a Consumer of the same type.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/config"
)

const (
	headerContentType = "content-type"
	contentTypeJSON   = "application/json"
)

// Handler processes one decoded message. A returned error leaves the
// message uncommitted.
type Handler[T any] func(ctx context.Context, value T) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConsumerStats counts what a Consumer has done with the messages it read.
type ConsumerStats struct {
	Handled int64
	Skipped int64
	Failed  int64
}

// Consumer reads a topic, decodes every message into T and hands it to a
// Handler. Messages that cannot be decoded are skipped and committed.
type Consumer[T any] struct {
	r       messageReader
	handle  Handler[T]
	backoff time.Duration
	logger  *slog.Logger

	handled atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
}

// NewConsumer creates a Consumer in cfg.ConsumerGroup reading topic.
func NewConsumer[T any](cfg config.KafkaConfig, topic string, handle Handler[T]) *Consumer[T] {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    1e3,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})
	return newConsumer(r, topic, handle)
}

func newConsumer[T any](r messageReader, topic string, handle Handler[T]) *Consumer[T] {
	return &Consumer[T]{
		r:       r,
		handle:  handle,
		backoff: time.Second,
		logger:  slog.Default().With("component", "kafka-consumer", "topic", topic),
	}
}

// Run consumes until ctx is cancelled. Fetch errors are retried after a
// pause.
func (c *Consumer[T]) Run(ctx context.Context) error {
	c.logger.Info("consumer started")
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			c.logger.Error("fetch failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.backoff):
			}
			continue
		}

		value, err := decode[T](msg)
		if err != nil {
			c.skipped.Add(1)
			c.logger.Warn("skipping undecodable message",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"key", string(msg.Key),
				"error", err,
			)
			c.commit(ctx, msg)
			continue
		}
		if err := c.handle(ctx, value); err != nil {
			c.failed.Add(1)
			c.logger.Error("handler failed",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
			continue
		}
		c.handled.Add(1)
		c.commit(ctx, msg)
	}
}

func (c *Consumer[T]) commit(ctx context.Context, msg kafka.Message) {
	if err := c.r.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
		c.logger.Error("commit failed",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
	}
}

func (c *Consumer[T]) Stats() ConsumerStats {
	return ConsumerStats{
		Handled: c.handled.Load(),
		Skipped: c.skipped.Load(),
		Failed:  c.failed.Load(),
	}
}

// Close closes the reader.
func (c *Consumer[T]) Close() error {
	return c.r.Close()
}

func decode[T any](msg kafka.Message) (T, error) {
	var v T
	for _, h := range msg.Headers {
		if h.Key == headerContentType && string(h.Value) != contentTypeJSON {
			return v, fmt.Errorf("unsupported content type %q", h.Value)
		}
	}
	if err := json.Unmarshal(msg.Value, &v); err != nil {
		return v, fmt.Errorf("decoding message: %w", err)
	}
	return v, nil
}
