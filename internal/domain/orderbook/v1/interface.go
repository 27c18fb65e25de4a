package orderbookv1

import snapshotv1 "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/snapshot/v1"

// Orderbook defines the interface for a single symbol's order book.
//
// Submit runs one full matching pass for the incoming order: it matches
// against the opposing side under price-time priority, rests any limit
// residual on the order's own side, and discards any market remainder.
type Orderbook interface {
	Submit(order *Order) ([]Trade, error)
	BestBid() (int64, bool)
	BestAsk() (int64, bool)
	BidTotalVolume() int64
	AskTotalVolume() int64
	Bids() []*Limit
	Asks() []*Limit
	CreateSnapshot() *snapshotv1.Snapshot
	RestoreOrderbook(*snapshotv1.Snapshot) error
	Validate() error
}
