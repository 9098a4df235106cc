// Package kafka publishes and consumes link lifecycle events.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/IgorGrieder/encurtador-links/internal/config"
	"github.com/IgorGrieder/encurtador-links/internal/events"
)

const DefaultTopic = "links.lifecycle"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type PublisherConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration

	// BreakerFailures consecutive write errors open the breaker for
	// BreakerCooldown. Zero values use the defaults.
	BreakerFailures int
	BreakerCooldown time.Duration
}

// PublisherConfigFrom maps the KAFKA_* settings onto a PublisherConfig.
func PublisherConfigFrom(cfg config.KafkaConfig) PublisherConfig {
	return PublisherConfig{
		Brokers:         cfg.Brokers,
		Topic:           cfg.Topic,
		WriteTimeout:    cfg.WriteTimeout,
		BreakerFailures: cfg.BreakerFailures,
		BreakerCooldown: cfg.BreakerCooldown,
	}
}

type Publisher struct {
	writer       messageWriter
	topic        string
	writeTimeout time.Duration
	breaker      *breaker
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	p := newPublisher(writer, cfg.Topic, cfg.WriteTimeout)
	p.breaker = newBreaker(cfg.BreakerFailures, cfg.BreakerCooldown)
	return p, nil
}

func newPublisher(w messageWriter, topic string, writeTimeout time.Duration) *Publisher {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &Publisher{
		writer:       w,
		topic:        topic,
		writeTimeout: writeTimeout,
		breaker:      newBreaker(defaultBreakerFailures, defaultBreakerCooldown),
	}
}

// Publish writes ev keyed by its short code so events for one link stay ordered.
func (p *Publisher) Publish(ctx context.Context, ev events.LinkEvent) error {
	if err := p.breaker.allow(); err != nil {
		return err
	}

	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}

	ctx, span := otel.Tracer("links-publisher").Start(
		ctx,
		"kafka.publish."+ev.Type,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", p.topic),
			attribute.String("messaging.operation", "publish"),
			attribute.String("messaging.message.id", ev.EventID),
			attribute.String("messaging.kafka.message_key", ev.Key()),
		),
	)
	defer span.End()

	msg := kafka.Message{
		Key:     []byte(ev.Key()),
		Value:   value,
		Headers: injectHeaders(ctx),
	}
	if at, err := time.Parse(time.RFC3339Nano, ev.OccurredAt); err == nil {
		msg.Time = at.UTC()
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		p.breaker.onFailure()
		span.RecordError(err)
		span.SetStatus(codes.Error, "kafka publish failed")
		return err
	}
	p.breaker.onSuccess()
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
