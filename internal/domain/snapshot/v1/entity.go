package snapshotv1

import "time"

// Snapshot represents the state of one symbol's order book at a specific
// point in time, together with the feed offset it was taken at.
type Snapshot struct {
	Symbol       string      `json:"symbol"`
	OrderOffset  int64       `json:"orderOffset"`
	LastSequence int64       `json:"lastSequence"`
	Orders       []BookOrder `json:"orders"`
	TakenAt      time.Time   `json:"takenAt"`
}

// BookOrder represents a resting order in the order book with its details.
type BookOrder struct {
	OrderID   string    `json:"orderID"`
	UserID    string    `json:"userID"`
	Side      string    `json:"side"`
	Price     int64     `json:"price"`
	Quantity  int64     `json:"quantity"`
	Remaining int64     `json:"remaining"`
	Sequence  int64     `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
}
