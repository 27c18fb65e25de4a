package trade

import (
	"time"
)

// ArchivedTrade represents one executed trade in the archive table.
type ArchivedTrade struct {
	Timestamp time.Time
	TradeID   string
	Symbol    string
	Price     int64
	Quantity  int64
	Buyer     string
	Seller    string
	TakerSide string // "buy" or "sell"
}

// Filter represents the filter criteria for archived trades.
type Filter struct {
	Symbol string
	User   string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}
