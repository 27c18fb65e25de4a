package ledgerv1

import (
	"time"
)

// TradeRecord is one executed trade as read back from the trade log.
type TradeRecord struct {
	ID        string    `json:"id"`
	Price     int64     `json:"price"`
	Quantity  int64     `json:"quantity"`
	Buyer     string    `json:"buyer"`
	Seller    string    `json:"seller"`
	Timestamp time.Time `json:"timestamp"`
}

// Notional returns price * quantity for the record.
func (r TradeRecord) Notional() int64 {
	return r.Price * r.Quantity
}
