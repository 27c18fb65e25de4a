package orderbookv1

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Side represents the side of an order.
type Side string

const (
	// SideBuy represents a buy (bid) order.
	SideBuy Side = "buy"
	// SideSell represents a sell (ask) order.
	SideSell Side = "sell"
)

// Valid checks whether the side is one of the known values.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Opposite returns the opposing side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderKind represents the kind of order.
type OrderKind string

const (
	// KindLimit represents a limit order.
	KindLimit OrderKind = "limit"
	// KindMarket represents a market order. Market orders never rest; any
	// unfilled remainder is discarded.
	KindMarket OrderKind = "market"
)

// Valid checks whether the kind is one of the known values.
func (k OrderKind) Valid() bool {
	return k == KindLimit || k == KindMarket
}

// MatchingMode selects how resting orders at a crossed price level are
// allocated against an incoming order.
type MatchingMode string

const (
	// ModeFIFO allocates strictly by admission order within a price level.
	ModeFIFO MatchingMode = "fifo"
	// ModeProRata allocates proportionally to resting size within a price level.
	ModeProRata MatchingMode = "prorata"
)

// Order represents a single order admitted into the matching engine.
//
// Price is only meaningful for limit orders. The constructors below are the
// only intended way to build an Order, so a market order can never carry a
// price and a limit order always does.
type Order struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userID"`
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"side"`
	Kind      OrderKind `json:"kind"`
	Price     int64     `json:"price,omitempty"`
	Quantity  int64     `json:"quantity"`
	Remaining int64     `json:"remaining"`
	Sequence  int64     `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`

	Limit *Limit `json:"-"` // resting level back-reference, nil while not resting
}

// NewLimitOrder creates a new limit order with the given parameters.
func NewLimitOrder(userID, symbol string, side Side, price, quantity int64) *Order {
	return &Order{
		ID:        ulid.Make().String(),
		UserID:    userID,
		Symbol:    symbol,
		Side:      side,
		Kind:      KindLimit,
		Price:     price,
		Quantity:  quantity,
		Remaining: quantity,
		Timestamp: time.Now().UTC(),
	}
}

// NewMarketOrder creates a new market order with the given parameters.
func NewMarketOrder(userID, symbol string, side Side, quantity int64) *Order {
	return &Order{
		ID:        ulid.Make().String(),
		UserID:    userID,
		Symbol:    symbol,
		Side:      side,
		Kind:      KindMarket,
		Quantity:  quantity,
		Remaining: quantity,
		Timestamp: time.Now().UTC(),
	}
}

// IsBid checks if the order is a bid (buy) order.
func (o *Order) IsBid() bool {
	return o.Side == SideBuy
}

// IsFilled checks if the order is fully filled.
func (o *Order) IsFilled() bool {
	return o.Remaining == 0
}

// Crosses reports whether the order's price constraint is satisfied by a
// resting order at restingPrice. Market orders cross any resting price.
func (o *Order) Crosses(restingPrice int64) bool {
	if o.Kind == KindMarket {
		return true
	}
	if o.Side == SideBuy {
		return restingPrice <= o.Price
	}
	return restingPrice >= o.Price
}

// PlaceOrderRequest represents a request to submit an order to the engine.
type PlaceOrderRequest struct {
	UserID   string    `json:"userID"`
	Symbol   string    `json:"symbol"`
	Side     Side      `json:"side"`
	Kind     OrderKind `json:"kind"`
	Quantity int64     `json:"quantity"`
	Price    int64     `json:"price,omitempty"`
	Offset   int64     `json:"-"` // position in the inbound order feed
}
