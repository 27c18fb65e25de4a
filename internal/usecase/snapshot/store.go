package snapshot

import (
	"context"
	"encoding/json"

	snapshotv1 "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/snapshot/v1"
	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/errors"
	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/logger"
	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/redis"
)

const snapshotKeyPrefix = "orderbook_snapshot:"

// Store persists order book snapshots in Redis, one key per symbol.
type Store struct {
	redisClient redis.Client
	logger      logger.Interface
}

// NewStore creates a snapshot store backed by the given Redis client.
func NewStore(redisClient redis.Client, log logger.Interface) *Store {
	return &Store{
		redisClient: redisClient,
		logger:      log,
	}
}

// Store serializes the snapshot and writes it under the symbol's key,
// replacing any previous snapshot for that symbol.
func (s *Store) Store(ctx context.Context, snapshot *snapshotv1.Snapshot) error {
	buf, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.ErrorContext(ctx, err,
			logger.Field{Key: "symbol", Value: snapshot.Symbol},
			logger.Field{Key: "operation", Value: "marshal snapshot"},
		)
		return errors.NewTracer("snapshot_marshal_error").Wrap(err)
	}

	if err := s.redisClient.Set(ctx, snapshotKeyPrefix+snapshot.Symbol, buf, 0); err != nil {
		s.logger.ErrorContext(ctx, err,
			logger.Field{Key: "symbol", Value: snapshot.Symbol},
			logger.Field{Key: "operation", Value: "store snapshot"},
		)
		return errors.NewTracer("snapshot_store_error").Wrap(err)
	}

	s.logger.InfoContext(ctx, "snapshot stored",
		logger.Field{Key: "symbol", Value: snapshot.Symbol},
		logger.Field{Key: "orderOffset", Value: snapshot.OrderOffset},
		logger.Field{Key: "orders", Value: len(snapshot.Orders)},
	)
	return nil
}

// Load returns the latest snapshot for the symbol, or nil when none exists.
func (s *Store) Load(ctx context.Context, symbol string) (*snapshotv1.Snapshot, error) {
	data, err := s.redisClient.Get(ctx, snapshotKeyPrefix+symbol)
	if err != nil {
		s.logger.ErrorContext(ctx, err,
			logger.Field{Key: "symbol", Value: symbol},
			logger.Field{Key: "operation", Value: "load snapshot"},
		)
		return nil, errors.NewTracer("snapshot_load_error").Wrap(err)
	}

	if data == "" {
		s.logger.WarnContext(ctx, "no snapshot found",
			logger.Field{Key: "symbol", Value: symbol},
		)
		return nil, nil
	}

	var snapshot snapshotv1.Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		s.logger.ErrorContext(ctx, err,
			logger.Field{Key: "symbol", Value: symbol},
			logger.Field{Key: "operation", Value: "unmarshal snapshot"},
		)
		return nil, errors.NewTracer("snapshot_unmarshal_error").Wrap(err)
	}

	return &snapshot, nil
}
