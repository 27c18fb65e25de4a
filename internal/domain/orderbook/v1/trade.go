package orderbookv1

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Trade represents an immutable record of one match event. Trades are
// append-only; they are never mutated or deleted after creation.
type Trade struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Price     int64     `json:"price"`
	Quantity  int64     `json:"quantity"`
	Buyer     string    `json:"buyer"`
	Seller    string    `json:"seller"`
	TakerSide Side      `json:"takerSide"`
	Timestamp time.Time `json:"timestamp"`
}

// newTrade builds a trade between an incoming (taker) order and a resting
// (maker) order. The trade executes at the resting order's price.
func newTrade(incoming, resting *Order, quantity int64) Trade {
	buyer, seller := incoming.UserID, resting.UserID
	if !incoming.IsBid() {
		buyer, seller = resting.UserID, incoming.UserID
	}

	return Trade{
		ID:        ulid.Make().String(),
		Symbol:    incoming.Symbol,
		Price:     resting.Price,
		Quantity:  quantity,
		Buyer:     buyer,
		Seller:    seller,
		TakerSide: incoming.Side,
		Timestamp: time.Now().UTC(),
	}
}

// Notional returns the cash value of the trade.
func (t Trade) Notional() float64 {
	return float64(t.Price) * float64(t.Quantity)
}
