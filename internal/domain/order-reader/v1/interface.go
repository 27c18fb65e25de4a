package orderreaderv1

import (
	"context"

	orderbookv1 "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/orderbook/v1"
	"github.com/segmentio/kafka-go"
)

// OrderReader defines the interface for reading order requests from the
// inbound order feed.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=orderreaderv1_mock
type OrderReader interface {
	// ReadMessage reads the next message and returns it together with the
	// parsed order request. The request carries the feed offset.
	ReadMessage(ctx context.Context) (kafka.Message, orderbookv1.PlaceOrderRequest, error)
	// SetOffset positions the reader at the given feed offset.
	SetOffset(offset int64) error
	// CommitMessages commits processed messages back to the feed.
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	// Close closes the reader.
	Close() error
}
