package ledger

import (
	"context"
	"strconv"
	"sync"
	"time"

	ledgerv1 "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/ledger/v1"
	orderbookv1 "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/orderbook/v1"
	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/logger"
	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/redis"
	v9 "github.com/redis/go-redis/v9"
)

const (
	// TradeStreamKey is the Redis stream holding the append-only trade log.
	TradeStreamKey = "trades_stream"

	userPnLKeyPrefix = "user_pnl:"
	pnlField         = "pnl"

	// maxRetryBuffer bounds the number of unpersisted trades kept in memory.
	// Beyond it the oldest entries are dropped.
	maxRetryBuffer = 10_000
)

// Ledger persists executed trades to a Redis stream and keeps per-user
// realized PnL in Redis hashes.
//
// A match is never undone because of a persistence failure: trades that fail
// to persist go into an in-memory retry buffer and are re-applied by
// FlushRetries.
type Ledger struct {
	redisClient redis.Client
	logger      logger.Interface

	mu          sync.Mutex
	retryBuffer []orderbookv1.Trade
}

// NewLedger creates a ledger backed by the given Redis client.
func NewLedger(redisClient redis.Client, log logger.Interface) *Ledger {
	return &Ledger{
		redisClient: redisClient,
		logger:      log,
	}
}

// Record appends each trade to the trade log and applies its two PnL
// mutations in one MULTI/EXEC block. Failed trades are buffered for retry
// and the last error is returned for visibility.
func (l *Ledger) Record(ctx context.Context, trades []orderbookv1.Trade) error {
	var lastErr error

	for _, trade := range trades {
		if err := l.applyTrade(ctx, trade); err != nil {
			l.logger.ErrorContext(ctx, err,
				logger.Field{Key: "operation", Value: "Record"},
				logger.Field{Key: "tradeID", Value: trade.ID},
			)
			l.buffer(trade)
			lastErr = err
		}
	}

	return lastErr
}

// applyTrade persists one trade: the stream append, then both PnL mutations
// atomically. The seller is credited and the buyer debited by the notional.
func (l *Ledger) applyTrade(ctx context.Context, trade orderbookv1.Trade) error {
	_, err := l.redisClient.XAdd(ctx, &v9.XAddArgs{
		Stream: TradeStreamKey,
		Values: map[string]any{
			"price":     trade.Price,
			"quantity":  trade.Quantity,
			"buyer":     trade.Buyer,
			"seller":    trade.Seller,
			"timestamp": trade.Timestamp.UnixMilli(),
		},
	})
	if err != nil {
		return err
	}

	notional := trade.Notional()
	sellerKey := userPnLKeyPrefix + trade.Seller
	buyerKey := userPnLKeyPrefix + trade.Buyer

	_, err = l.redisClient.TxPipelined(ctx, func(pipe v9.Pipeliner) error {
		pipe.HIncrByFloat(ctx, sellerKey, pnlField, notional)
		pipe.HIncrByFloat(ctx, buyerKey, pnlField, -notional)
		return nil
	})
	return err
}

// buffer stores a failed trade for later retry, dropping the oldest entries
// once the buffer is full.
func (l *Ledger) buffer(trade orderbookv1.Trade) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.retryBuffer) >= maxRetryBuffer {
		dropped := l.retryBuffer[0]
		l.retryBuffer = l.retryBuffer[1:]
		l.logger.Warn("retry buffer full, dropping oldest trade",
			logger.Field{Key: "tradeID", Value: dropped.ID},
		)
	}
	l.retryBuffer = append(l.retryBuffer, trade)
}

// FlushRetries re-applies buffered trades. Trades that fail again return to
// the buffer in their original order.
func (l *Ledger) FlushRetries(ctx context.Context) (int, error) {
	l.mu.Lock()
	pending := l.retryBuffer
	l.retryBuffer = nil
	l.mu.Unlock()

	if len(pending) == 0 {
		return 0, nil
	}

	var (
		flushed      int
		stillFailing []orderbookv1.Trade
		lastErr      error
	)

	for _, trade := range pending {
		if err := l.applyTrade(ctx, trade); err != nil {
			stillFailing = append(stillFailing, trade)
			lastErr = err
			continue
		}
		flushed++
	}

	if len(stillFailing) > 0 {
		l.mu.Lock()
		l.retryBuffer = append(stillFailing, l.retryBuffer...)
		l.mu.Unlock()
	}

	return flushed, lastErr
}

// PendingRetries returns the number of trades waiting in the retry buffer.
func (l *Ledger) PendingRetries() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.retryBuffer)
}

// UserPnL returns the realized PnL for a user. The boolean is false when the
// user has never traded.
func (l *Ledger) UserPnL(ctx context.Context, userID string) (float64, bool, error) {
	val, err := l.redisClient.HGet(ctx, userPnLKeyPrefix+userID, pnlField)
	if err != nil {
		return 0, false, err
	}
	if val == "" {
		return 0, false, nil
	}

	pnl, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, err
	}
	return pnl, true, nil
}

// RecentTrades returns up to count trades, newest first.
func (l *Ledger) RecentTrades(ctx context.Context, count int64) ([]ledgerv1.TradeRecord, error) {
	msgs, err := l.redisClient.XRevRangeN(ctx, TradeStreamKey, "+", "-", count)
	if err != nil {
		return nil, err
	}

	records := make([]ledgerv1.TradeRecord, 0, len(msgs))
	for _, msg := range msgs {
		record, err := parseTradeRecord(msg)
		if err != nil {
			l.logger.ErrorContext(ctx, err,
				logger.Field{Key: "operation", Value: "RecentTrades"},
				logger.Field{Key: "streamID", Value: msg.ID},
			)
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

func parseTradeRecord(msg v9.XMessage) (ledgerv1.TradeRecord, error) {
	record := ledgerv1.TradeRecord{ID: msg.ID}

	price, err := streamInt(msg.Values, "price")
	if err != nil {
		return record, err
	}
	quantity, err := streamInt(msg.Values, "quantity")
	if err != nil {
		return record, err
	}
	millis, err := streamInt(msg.Values, "timestamp")
	if err != nil {
		return record, err
	}

	record.Price = price
	record.Quantity = quantity
	record.Buyer = streamString(msg.Values, "buyer")
	record.Seller = streamString(msg.Values, "seller")
	record.Timestamp = time.UnixMilli(millis).UTC()

	return record, nil
}

func streamString(values map[string]any, key string) string {
	if s, ok := values[key].(string); ok {
		return s
	}
	return ""
}

func streamInt(values map[string]any, key string) (int64, error) {
	switch v := values[key].(type) {
	case string:
		return strconv.ParseInt(v, 10, 64)
	case int64:
		return v, nil
	default:
		return 0, strconv.ErrSyntax
	}
}
