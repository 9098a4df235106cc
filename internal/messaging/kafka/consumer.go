package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/IgorGrieder/encurtador-links/internal/events"
	"github.com/IgorGrieder/encurtador-links/internal/infrastructure/logger"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	Backoff time.Duration
}

// Handler processes one decoded event. Returning an error leaves the offset
// uncommitted so the message is redelivered.
type Handler func(ctx context.Context, ev events.LinkEvent) error

type Consumer struct {
	reader  messageReader
	backoff time.Duration
}

func NewConsumer(cfg ConsumerConfig) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka consumer requires at least one broker")
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
		StartOffset: kafka.FirstOffset,
	})

	return newConsumer(reader, cfg.Backoff), nil
}

func newConsumer(r messageReader, backoff time.Duration) *Consumer {
	if backoff <= 0 {
		backoff = time.Second
	}
	return &Consumer{reader: r, backoff: backoff}
}

// Run fetches messages until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	tracer := otel.Tracer("links-consumer")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			logger.Error("Failed to fetch kafka message", zap.Error(err))
			if !sleep(ctx, c.backoff) {
				return nil
			}
			continue
		}

		consumeCtx, span := tracer.Start(
			contextFromHeaders(ctx, msg.Headers),
			"kafka.consume.link_event",
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(
				attribute.String("messaging.system", "kafka"),
				attribute.String("messaging.destination.name", msg.Topic),
				attribute.String("messaging.operation", "process"),
				attribute.Int("messaging.kafka.partition", msg.Partition),
				attribute.Int64("messaging.kafka.offset", msg.Offset),
			),
		)

		if err := c.process(consumeCtx, msg, handle); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "process link event failed")
			logger.Error("Failed to process link event",
				zap.Error(err),
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
			)
			span.End()
			if !sleep(ctx, c.backoff) {
				return nil
			}
			continue
		}

		if err := c.reader.CommitMessages(consumeCtx, msg); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "commit kafka offset failed")
			logger.Error("Failed to commit kafka offset", zap.Error(err), zap.Int64("offset", msg.Offset))
		}
		span.End()
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message, handle Handler) error {
	var ev events.LinkEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		logger.Warn("Invalid link event payload, skipping",
			zap.Error(err),
			zap.ByteString("payload", msg.Value),
		)
		return nil
	}
	if ev.Type == "" {
		logger.Warn("Link event missing type, skipping", zap.String("event_id", ev.EventID))
		return nil
	}
	return handle(ctx, ev)
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
