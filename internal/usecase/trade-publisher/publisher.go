package tradepublisher

import (
	"context"

	tradepublisherv1 "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/trade-publisher/v1"
	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/config"
	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/errors"
	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Publisher publishes trade events to the outbound trade topic.
type Publisher struct {
	kafkaWriter *kafka.Writer
	logger      logger.Interface
}

// NewPublisher creates a Kafka publisher for trade events.
func NewPublisher(cfg config.KafkaConfig, log logger.Interface) *Publisher {
	kafkaWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
	})

	return &Publisher{
		kafkaWriter: kafkaWriter,
		logger:      log,
	}
}

// PublishTradeEvent publishes a trade event to the trade topic. The symbol is
// used as the message key so events for one symbol stay ordered.
func (p *Publisher) PublishTradeEvent(ctx context.Context, event *tradepublisherv1.TradeEventPayload) error {
	msg := kafka.Message{
		Key:   []byte(event.Symbol),
		Value: tradepublisherv1.ToBytes(event),
	}

	if err := p.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		p.logger.Error(err,
			logger.Field{Key: "error", Value: err.Error()},
			logger.Field{Key: "tradeID", Value: event.TradeID},
			logger.Field{Key: "symbol", Value: event.Symbol},
		)
		return errors.NewTracer("failed to publish trade event").Wrap(err)
	}
	return nil
}

// Close properly closes the Kafka writer.
func (p *Publisher) Close() error {
	return p.kafkaWriter.Close()
}
