package orderbookv1

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrNilOrder is returned when a nil order is handed to a limit.
	ErrNilOrder = errors.New("order cannot be nil")
	// ErrInvalidPrice is returned when a limit carries a non-positive price.
	ErrInvalidPrice = errors.New("price must be positive")
	// ErrInvalidQuantity is returned when an order carries a non-positive remaining quantity.
	ErrInvalidQuantity = errors.New("remaining quantity must be positive")
	// ErrOrderNotFound is returned when removing an order that is not resting at the limit.
	ErrOrderNotFound = errors.New("order not found in limit")
)

// Limit represents a single price level in the order book. Orders are held in
// admission order, so slice order is FIFO order: sequence numbers are assigned
// monotonically at admission and all inserts happen under the book's lock.
//
// A Limit is not safe for concurrent use on its own; the owning book
// serializes access.
type Limit struct {
	Price       int64    `json:"price"`
	Orders      []*Order `json:"orders"`
	TotalVolume int64    `json:"totalVolume"`
}

// NewLimit creates a new Limit with the specified price.
func NewLimit(price int64) *Limit {
	return &Limit{
		Price:  price,
		Orders: make([]*Order, 0),
	}
}

// AddOrder adds an order to the back of the level and updates the total volume.
func (l *Limit) AddOrder(order *Order) error {
	if order == nil {
		return ErrNilOrder
	}
	if order.Remaining <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, order.Remaining)
	}

	order.Limit = l
	l.Orders = append(l.Orders, order)
	l.TotalVolume += order.Remaining

	return nil
}

// RemoveOrder removes an order from the level and updates the total volume.
func (l *Limit) RemoveOrder(order *Order) error {
	if order == nil {
		return ErrNilOrder
	}

	for i, o := range l.Orders {
		if o == order {
			l.Orders = append(l.Orders[:i], l.Orders[i+1:]...)
			l.TotalVolume -= order.Remaining
			order.Limit = nil
			return nil
		}
	}

	return ErrOrderNotFound
}

// Fill matches the incoming order against the level in strict FIFO order:
// among equal-priced resting orders the lowest sequence number always fills
// first. Fully filled resting orders are removed from the level.
func (l *Limit) Fill(incoming *Order) []Trade {
	if incoming == nil {
		return nil
	}

	var trades []Trade

	for len(l.Orders) > 0 && incoming.Remaining > 0 {
		resting := l.Orders[0]

		quantity := min(incoming.Remaining, resting.Remaining)
		trades = append(trades, newTrade(incoming, resting, quantity))

		incoming.Remaining -= quantity
		resting.Remaining -= quantity
		l.TotalVolume -= quantity

		if resting.Remaining == 0 {
			resting.Limit = nil
			l.Orders = l.Orders[1:]
		}
	}

	return trades
}

// FillProRata matches the incoming order against the level by allocating its
// quantity proportionally to resting size: each resting order receives the
// floor of its share, and leftover units go to the largest resting orders
// first. Trades are still emitted in admission order.
func (l *Limit) FillProRata(incoming *Order) []Trade {
	if incoming == nil || l.TotalVolume == 0 {
		return nil
	}

	want := incoming.Remaining
	total := l.TotalVolume

	fills := make([]int64, len(l.Orders))
	var assigned int64
	for i, resting := range l.Orders {
		share := want * resting.Remaining / total
		fills[i] = share
		assigned += share
	}

	// leftover units go to the largest resting orders
	leftover := want - assigned
	indices := make([]int, len(l.Orders))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return l.Orders[indices[a]].Remaining > l.Orders[indices[b]].Remaining
	})
	for _, i := range indices {
		if leftover <= 0 {
			break
		}
		fills[i]++
		leftover--
	}

	var trades []Trade
	remaining := make([]*Order, 0, len(l.Orders))

	for i, resting := range l.Orders {
		quantity := min(fills[i], incoming.Remaining, resting.Remaining)

		if quantity > 0 {
			trades = append(trades, newTrade(incoming, resting, quantity))

			incoming.Remaining -= quantity
			resting.Remaining -= quantity
			l.TotalVolume -= quantity
		}

		if resting.Remaining > 0 {
			remaining = append(remaining, resting)
		} else {
			resting.Limit = nil
		}
	}

	l.Orders = remaining

	return trades
}

// IsEmpty checks if the level has no orders.
func (l *Limit) IsEmpty() bool {
	return len(l.Orders) == 0
}

// OrderCount returns the number of orders at this level.
func (l *Limit) OrderCount() int {
	return len(l.Orders)
}

// Validate performs basic validation of the level's state.
func (l *Limit) Validate() error {
	if l.Price <= 0 {
		return fmt.Errorf("%w: limit price %d", ErrInvalidPrice, l.Price)
	}

	var calculated int64
	var lastSequence int64
	for _, order := range l.Orders {
		if order == nil {
			return errors.New("nil order found in limit")
		}
		if order.Remaining <= 0 {
			return fmt.Errorf("%w: order %s has remaining %d", ErrInvalidQuantity, order.ID, order.Remaining)
		}
		if order.Sequence < lastSequence {
			return fmt.Errorf("fifo order violated at limit %d: sequence %d after %d", l.Price, order.Sequence, lastSequence)
		}
		lastSequence = order.Sequence
		calculated += order.Remaining
	}

	if calculated != l.TotalVolume {
		return fmt.Errorf("volume mismatch at limit %d: calculated %d, stored %d", l.Price, calculated, l.TotalVolume)
	}

	return nil
}
