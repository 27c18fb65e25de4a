package ledgerv1

import (
	"context"

	orderbookv1 "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/orderbook/v1"
)

// Ledger records executed trades and keeps per-user realized PnL.
//
// Record never undoes a match: when persistence fails, implementations keep
// the failed trades in a retry buffer and FlushRetries drains it later.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=ledgerv1_mock
type Ledger interface {
	// Record appends the trades to the trade log and applies both PnL
	// mutations per trade atomically.
	Record(ctx context.Context, trades []orderbookv1.Trade) error
	// FlushRetries re-attempts buffered trades that previously failed to
	// persist. It returns the number of trades flushed.
	FlushRetries(ctx context.Context) (int, error)
	// PendingRetries returns the number of trades waiting in the retry buffer.
	PendingRetries() int
	// UserPnL returns the realized PnL for a user. The boolean reports
	// whether the user has any PnL recorded.
	UserPnL(ctx context.Context, userID string) (float64, bool, error)
	// RecentTrades returns up to count trades in reverse chronological order.
	RecentTrades(ctx context.Context, count int64) ([]TradeRecord, error)
}
