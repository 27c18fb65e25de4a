package orderreader

import (
	"context"
	"encoding/json"

	orderbookv1 "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/orderbook/v1"
	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/config"
	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/errors"
	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Reader consumes order requests from the inbound order topic.
type Reader struct {
	kafkaReader *kafka.Reader
	logger      logger.Interface
}

// NewReader creates a Kafka reader for the order topic. It returns an
// implementation of the OrderReader interface.
func NewReader(cfg config.KafkaConfig, log logger.Interface) *Reader {
	kafkaReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		Partition:   0,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})

	return &Reader{
		kafkaReader: kafkaReader,
		logger:      log,
	}
}

func (r *Reader) logError(err error, operation string) {
	r.logger.Error(err,
		logger.Field{Key: "error", Value: err.Error()},
		logger.Field{Key: "operation", Value: operation},
	)
}

// SetOffset positions the reader at the given feed offset.
func (r *Reader) SetOffset(offset int64) error {
	if err := r.kafkaReader.SetOffset(offset); err != nil {
		r.logError(err, "SetOffset")
		return err
	}
	return nil
}

// ReadMessage reads the next message from the order topic and parses it as a
// PlaceOrderRequest. The request carries the message's feed offset.
func (r *Reader) ReadMessage(ctx context.Context) (kafka.Message, orderbookv1.PlaceOrderRequest, error) {
	var request orderbookv1.PlaceOrderRequest

	msg, err := r.kafkaReader.ReadMessage(ctx)
	if err != nil {
		r.logError(err, "ReadMessage")
		return kafka.Message{Offset: 0}, request, err
	}

	if err := json.Unmarshal(msg.Value, &request); err != nil {
		r.logError(err, "UnmarshalOrder")
		// return the original message so the caller can keep its offset moving
		return msg, request, errors.NewErrorDetails("failed to decode order message", string(errors.OrderFeedDecodeError), "message")
	}

	r.logger.Debug("ReadMessage",
		logger.Field{Key: "userID", Value: request.UserID},
		logger.Field{Key: "symbol", Value: request.Symbol},
		logger.Field{Key: "side", Value: request.Side},
		logger.Field{Key: "kind", Value: request.Kind},
		logger.Field{Key: "quantity", Value: request.Quantity},
		logger.Field{Key: "price", Value: request.Price},
	)

	request.Offset = msg.Offset

	return msg, request, nil
}

// CommitMessages commits the messages back to Kafka after processing. It is
// a no-op for partition readers, where resume offsets come from snapshots.
func (r *Reader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	if r.kafkaReader.Config().GroupID == "" {
		return nil
	}
	if err := r.kafkaReader.CommitMessages(ctx, msgs...); err != nil {
		r.logError(err, "CommitMessages")
		return err
	}
	return nil
}

// Close properly closes the Kafka reader.
func (r *Reader) Close() error {
	if err := r.kafkaReader.Close(); err != nil {
		r.logError(err, "Close")
		return err
	}
	return nil
}
