package orderbook

import (
	"fmt"
	"sort"
	"sync"
	"time"

	orderbookv1 "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/orderbook/v1"
	snapshotv1 "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/snapshot/v1"
)

// Book is a single symbol's order book. Both sides are kept as a price->level
// map plus a price-sorted level slice, so best-price queries are O(1) and
// level insertion is a binary search.
//
// All mutating access is serialized through the book's own lock; the engine
// additionally guarantees at most one matching pass per symbol at a time.
type Book struct {
	mu     sync.RWMutex
	symbol string
	mode   orderbookv1.MatchingMode

	askLimits map[int64]*orderbookv1.Limit
	bidLimits map[int64]*orderbookv1.Limit
	asks      orderbookv1.Limits // ascending by price
	bids      orderbookv1.Limits // descending by price

	lastSequence int64
}

// NewBook creates an empty order book for the given symbol.
func NewBook(symbol string, mode orderbookv1.MatchingMode) *Book {
	if mode == "" {
		mode = orderbookv1.ModeFIFO
	}
	return &Book{
		symbol:    symbol,
		mode:      mode,
		askLimits: make(map[int64]*orderbookv1.Limit),
		bidLimits: make(map[int64]*orderbookv1.Limit),
	}
}

// Symbol returns the symbol this book belongs to.
func (b *Book) Symbol() string {
	return b.symbol
}

// Submit runs one matching pass for the incoming order against the book.
//
// The incoming order is matched against the best opposing levels while its
// price constraint is satisfied. A limit order's residual rests on its own
// side; a market order's remainder is discarded. Trades are returned in the
// order they were produced.
func (b *Book) Submit(order *orderbookv1.Order) ([]orderbookv1.Trade, error) {
	if order == nil {
		return nil, orderbookv1.ErrNilOrder
	}
	if order.Remaining <= 0 {
		return nil, fmt.Errorf("%w: got %d", orderbookv1.ErrInvalidQuantity, order.Remaining)
	}
	if order.Symbol != b.symbol {
		return nil, fmt.Errorf("order symbol %q does not belong to book %q", order.Symbol, b.symbol)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	trades := b.match(order)

	if order.Kind == orderbookv1.KindLimit && order.Remaining > 0 {
		b.rest(order)
	}

	if order.Sequence > b.lastSequence {
		b.lastSequence = order.Sequence
	}

	return trades, nil
}

// match consumes opposing liquidity while the incoming order crosses the best
// opposing price. Exhausted levels are dropped as they empty.
func (b *Book) match(order *orderbookv1.Order) []orderbookv1.Trade {
	var trades []orderbookv1.Trade

	for order.Remaining > 0 {
		top := b.topOpposing(order.Side)
		if top == nil || !order.Crosses(top.Price) {
			break
		}

		var fills []orderbookv1.Trade
		if b.mode == orderbookv1.ModeProRata {
			fills = top.FillProRata(order)
		} else {
			fills = top.Fill(order)
		}

		trades = append(trades, fills...)

		if top.IsEmpty() {
			b.dropLevel(order.Side.Opposite(), top)
		}

		if len(fills) == 0 {
			// allocation made no progress; leave the remainder alone
			break
		}
	}

	return trades
}

// rest places the order's residual on its own side of the book.
func (b *Book) rest(order *orderbookv1.Order) {
	limits := b.askLimits
	if order.IsBid() {
		limits = b.bidLimits
	}

	level, exists := limits[order.Price]
	if !exists {
		level = orderbookv1.NewLimit(order.Price)
		limits[order.Price] = level
		b.insertLevel(order.Side, level)
	}

	// AddOrder only rejects nil or exhausted orders, both excluded above
	_ = level.AddOrder(order)
}

// topOpposing returns the best opposing level for the given side, or nil.
func (b *Book) topOpposing(side orderbookv1.Side) *orderbookv1.Limit {
	if side == orderbookv1.SideBuy {
		if len(b.asks) == 0 {
			return nil
		}
		return b.asks[0]
	}
	if len(b.bids) == 0 {
		return nil
	}
	return b.bids[0]
}

// insertLevel places a new level at its sorted position on the given side.
func (b *Book) insertLevel(side orderbookv1.Side, level *orderbookv1.Limit) {
	if side == orderbookv1.SideBuy {
		i := sort.Search(len(b.bids), func(i int) bool {
			return b.bids[i].Price < level.Price
		})
		b.bids = append(b.bids, nil)
		copy(b.bids[i+1:], b.bids[i:])
		b.bids[i] = level
		return
	}

	i := sort.Search(len(b.asks), func(i int) bool {
		return b.asks[i].Price > level.Price
	})
	b.asks = append(b.asks, nil)
	copy(b.asks[i+1:], b.asks[i:])
	b.asks[i] = level
}

// dropLevel removes an emptied level from the given side.
func (b *Book) dropLevel(side orderbookv1.Side, level *orderbookv1.Limit) {
	if side == orderbookv1.SideBuy {
		delete(b.bidLimits, level.Price)
		for i, l := range b.bids {
			if l == level {
				b.bids = append(b.bids[:i], b.bids[i+1:]...)
				return
			}
		}
		return
	}

	delete(b.askLimits, level.Price)
	for i, l := range b.asks {
		if l == level {
			b.asks = append(b.asks[:i], b.asks[i+1:]...)
			return
		}
	}
}

// BestBid returns the highest resting bid price, if any.
func (b *Book) BestBid() (int64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.bids) == 0 {
		return 0, false
	}
	return b.bids[0].Price, true
}

// BestAsk returns the lowest resting ask price, if any.
func (b *Book) BestAsk() (int64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.asks) == 0 {
		return 0, false
	}
	return b.asks[0].Price, true
}

// Bids returns bid levels sorted by price (descending).
func (b *Book) Bids() []*orderbookv1.Limit {
	b.mu.RLock()
	defer b.mu.RUnlock()

	levels := make([]*orderbookv1.Limit, len(b.bids))
	copy(levels, b.bids)
	return levels
}

// Asks returns ask levels sorted by price (ascending).
func (b *Book) Asks() []*orderbookv1.Limit {
	b.mu.RLock()
	defer b.mu.RUnlock()

	levels := make([]*orderbookv1.Limit, len(b.asks))
	copy(levels, b.asks)
	return levels
}

// BidTotalVolume returns total resting bid volume.
func (b *Book) BidTotalVolume() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var total int64
	for _, level := range b.bids {
		total += level.TotalVolume
	}
	return total
}

// AskTotalVolume returns total resting ask volume.
func (b *Book) AskTotalVolume() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var total int64
	for _, level := range b.asks {
		total += level.TotalVolume
	}
	return total
}

// Validate checks the book's invariants: both sides correctly sorted, every
// level internally consistent, and the book not crossed.
func (b *Book) Validate() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i, level := range b.asks {
		if err := level.Validate(); err != nil {
			return err
		}
		if i > 0 && b.asks[i-1].Price >= level.Price {
			return fmt.Errorf("ask levels out of order: %d before %d", b.asks[i-1].Price, level.Price)
		}
	}

	for i, level := range b.bids {
		if err := level.Validate(); err != nil {
			return err
		}
		if i > 0 && b.bids[i-1].Price <= level.Price {
			return fmt.Errorf("bid levels out of order: %d before %d", b.bids[i-1].Price, level.Price)
		}
	}

	if len(b.bids) > 0 && len(b.asks) > 0 && b.bids[0].Price >= b.asks[0].Price {
		return fmt.Errorf("book crossed: best bid %d >= best ask %d", b.bids[0].Price, b.asks[0].Price)
	}

	return nil
}

// CreateSnapshot creates a snapshot of the current book state.
func (b *Book) CreateSnapshot() *snapshotv1.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var bookOrders []snapshotv1.BookOrder

	collect := func(levels orderbookv1.Limits) {
		for _, level := range levels {
			for _, order := range level.Orders {
				bookOrders = append(bookOrders, snapshotv1.BookOrder{
					OrderID:   order.ID,
					UserID:    order.UserID,
					Side:      string(order.Side),
					Price:     order.Price,
					Quantity:  order.Quantity,
					Remaining: order.Remaining,
					Sequence:  order.Sequence,
					Timestamp: order.Timestamp,
				})
			}
		}
	}

	collect(b.bids)
	collect(b.asks)

	return &snapshotv1.Snapshot{
		Symbol:       b.symbol,
		LastSequence: b.lastSequence,
		Orders:       bookOrders,
		TakenAt:      time.Now().UTC(),
	}
}

// RestoreOrderbook restores the book from a snapshot, replacing any current
// state. Orders are re-added in sequence order so FIFO priority survives the
// round trip.
func (b *Book) RestoreOrderbook(snapshot *snapshotv1.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.askLimits = make(map[int64]*orderbookv1.Limit)
	b.bidLimits = make(map[int64]*orderbookv1.Limit)
	b.asks = nil
	b.bids = nil
	b.lastSequence = snapshot.LastSequence

	restored := make(orderbookv1.Orders, 0, len(snapshot.Orders))
	for _, bookOrder := range snapshot.Orders {
		restored = append(restored, &orderbookv1.Order{
			ID:        bookOrder.OrderID,
			UserID:    bookOrder.UserID,
			Symbol:    b.symbol,
			Side:      orderbookv1.Side(bookOrder.Side),
			Kind:      orderbookv1.KindLimit,
			Price:     bookOrder.Price,
			Quantity:  bookOrder.Quantity,
			Remaining: bookOrder.Remaining,
			Sequence:  bookOrder.Sequence,
			Timestamp: bookOrder.Timestamp,
		})
	}
	sort.Sort(restored)

	for _, order := range restored {
		if order.Remaining <= 0 {
			return fmt.Errorf("failed to restore order %s: remaining %d", order.ID, order.Remaining)
		}
		b.rest(order)
	}

	return nil
}
