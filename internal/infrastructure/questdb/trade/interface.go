package trade

import (
	"context"
	"time"
)

// TradeRepository is the interface for the trade archive repository.
//
//go:generate mockgen -source=interface.go -destination=mock/repository_mock.go -package=mock
type TradeRepository interface {
	GetByFilter(ctx context.Context, filter Filter) ([]*ArchivedTrade, error)
	GetLatestBySymbol(ctx context.Context, symbol string) (*ArchivedTrade, error)
	GetVolumeBySymbol(ctx context.Context, symbol string, from time.Time, to time.Time) (int64, error)
	Store(ctx context.Context, trade *ArchivedTrade) error
	StoreBatch(ctx context.Context, trades []*ArchivedTrade) error
}
