package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	ledgerv1 "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/ledger/v1"
	orderreaderv1 "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/order-reader/v1"
	orderbookv1 "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/orderbook/v1"
	snapshotv1 "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/snapshot/v1"
	tradepublisherv1 "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/trade-publisher/v1"
	"github.com/aatishgupta25/real-time-order-matching-engine/internal/usecase/orderbook"
	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/config"
	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/errors"
	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/logger"
)

// BookFactory creates an order book for a symbol. It exists so tests can
// inject their own book implementation.
type BookFactory func(symbol string) orderbookv1.Orderbook

// shard holds one symbol's book together with its submit lock. The lock
// serializes the matching pass and the post-match validation, so at most one
// order mutates a symbol's book at a time.
type shard struct {
	mu          sync.Mutex
	book        orderbookv1.Orderbook
	quarantined bool
}

// Engine is the matching engine façade. It owns one order book per symbol,
// assigns the global arrival sequence, and wires executed trades into the
// ledger and the outbound trade topic.
type Engine struct {
	ledger         ledgerv1.Ledger
	orderReader    orderreaderv1.OrderReader
	tradePublisher tradepublisherv1.TradePublisher
	snapshotStore  snapshotv1.Store
	logger         logger.Interface
	config         *config.Config

	newBook  BookFactory
	symbols  map[string]struct{} // empty map admits any non-empty symbol
	sequence atomic.Int64

	booksMu sync.RWMutex
	books   map[string]*shard

	// feed position tracking
	mu                 sync.RWMutex
	orderOffset        int64
	lastSnapshotOffset int64

	totalTrades atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	snapshotInterval    time.Duration
	snapshotOffsetDelta int64
	retryFlushInterval  time.Duration
}

// NewEngine creates a new Engine with the provided dependencies.
func NewEngine(
	ledger ledgerv1.Ledger,
	orderReader orderreaderv1.OrderReader,
	tradePublisher tradepublisherv1.TradePublisher,
	snapshotStore snapshotv1.Store,
	log logger.Interface,
	cfg *config.Config,
) *Engine {
	return NewEngineWithOptions(ledger, orderReader, tradePublisher, snapshotStore, log, cfg, DefaultEngineOptions())
}

// NewEngineWithOptions creates a new engine with custom options.
func NewEngineWithOptions(
	ledger ledgerv1.Ledger,
	orderReader orderreaderv1.OrderReader,
	tradePublisher tradepublisherv1.TradePublisher,
	snapshotStore snapshotv1.Store,
	log logger.Interface,
	cfg *config.Config,
	options *Options,
) *Engine {
	mode := orderbookv1.MatchingMode(cfg.MatchingMode)

	symbols := make(map[string]struct{}, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		symbols[symbol] = struct{}{}
	}

	return &Engine{
		ledger:         ledger,
		orderReader:    orderReader,
		tradePublisher: tradePublisher,
		snapshotStore:  snapshotStore,
		logger:         log,
		config:         cfg,

		newBook: func(symbol string) orderbookv1.Orderbook {
			return orderbook.NewBook(symbol, mode)
		},
		symbols: symbols,
		books:   make(map[string]*shard),

		orderOffset:         -1,
		snapshotInterval:    options.SnapshotInterval,
		snapshotOffsetDelta: options.SnapshotOffsetDelta,
		retryFlushInterval:  options.RetryFlushInterval,
	}
}

// SetBookFactory replaces the book factory. Must be called before Start.
func (e *Engine) SetBookFactory(factory BookFactory) {
	e.newBook = factory
}

// Start restores snapshots, positions the order reader, and launches the
// processing routines.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	if err := e.restoreSnapshots(ctx); err != nil {
		return err
	}

	currentOffset := e.getOrderOffset()
	if currentOffset >= 0 {
		currentOffset++
	}
	if err := e.orderReader.SetOffset(currentOffset); err != nil {
		return err
	}

	e.wg.Add(3)
	go e.runOrderProcessor()
	go e.runSnapshotManager()
	go e.runRetryFlusher()

	e.logger.Info("engine started",
		logger.Field{Key: "symbols", Value: e.config.Symbols},
		logger.Field{Key: "matchingMode", Value: e.config.MatchingMode},
	)

	return nil
}

// Stop gracefully shuts down the engine.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("engine stopped gracefully")
		return nil
	case <-ctx.Done():
		e.logger.Warn("engine stop timeout exceeded")
		return ctx.Err()
	}
}

// Submit validates the request, runs one matching pass on the symbol's book,
// and records and publishes the resulting trades. It returns the trades the
// order produced.
func (e *Engine) Submit(ctx context.Context, request *orderbookv1.PlaceOrderRequest) ([]orderbookv1.Trade, error) {
	if err := e.validateRequest(request); err != nil {
		return nil, err
	}

	s := e.shard(request.Symbol)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quarantined {
		return nil, errors.NewErrorDetails("symbol is quarantined", string(errors.OrderbookQuarantined), "symbol")
	}

	order := e.buildOrder(request)

	trades, err := s.book.Submit(order)
	if err != nil {
		return nil, err
	}

	if err := s.book.Validate(); err != nil {
		// the book can no longer be trusted, stop matching this symbol
		s.quarantined = true
		e.logger.ErrorContext(ctx, err,
			logger.Field{Key: "symbol", Value: request.Symbol},
			logger.Field{Key: "action", Value: "quarantine_symbol"},
		)
		return trades, errors.NewErrorDetails("order book failed validation", string(errors.OrderbookInconsistent), "symbol")
	}

	if len(trades) > 0 {
		e.totalTrades.Add(int64(len(trades)))
		recordErr := e.recordTrades(ctx, trades)
		e.publishTrades(ctx, trades)
		if recordErr != nil {
			// the match stands, the ledger retries in the background
			return trades, errors.NewErrorDetails("failed to record trades, buffered for retry", string(errors.TradeLogAppendError), "")
		}
	}

	return trades, nil
}

// validateRequest rejects malformed requests before any book is touched.
func (e *Engine) validateRequest(request *orderbookv1.PlaceOrderRequest) error {
	if request == nil {
		return errors.NewErrorDetails("request cannot be nil", string(errors.OrderInvalidKind), "request")
	}
	if request.Symbol == "" {
		return errors.NewErrorDetails("symbol cannot be empty", string(errors.OrderUnknownSymbol), "symbol")
	}
	if len(e.symbols) > 0 {
		if _, ok := e.symbols[request.Symbol]; !ok {
			return errors.NewErrorDetails("symbol is not tradable", string(errors.OrderUnknownSymbol), "symbol")
		}
	}
	if !request.Side.Valid() {
		return errors.NewErrorDetails("side must be buy or sell", string(errors.OrderInvalidSide), "side")
	}
	if !request.Kind.Valid() {
		return errors.NewErrorDetails("kind must be limit or market", string(errors.OrderInvalidKind), "kind")
	}
	if request.Quantity <= 0 {
		return errors.NewErrorDetails("quantity must be positive", string(errors.OrderInvalidQuantity), "quantity")
	}
	if request.Kind == orderbookv1.KindLimit && request.Price <= 0 {
		return errors.NewErrorDetails("limit price must be positive", string(errors.OrderInvalidPrice), "price")
	}
	if request.Kind == orderbookv1.KindMarket && request.Price != 0 {
		return errors.NewErrorDetails("market orders cannot carry a price", string(errors.OrderInvalidPrice), "price")
	}
	return nil
}

// buildOrder turns a validated request into an order carrying the next
// global sequence number.
func (e *Engine) buildOrder(request *orderbookv1.PlaceOrderRequest) *orderbookv1.Order {
	var order *orderbookv1.Order
	if request.Kind == orderbookv1.KindMarket {
		order = orderbookv1.NewMarketOrder(request.UserID, request.Symbol, request.Side, request.Quantity)
	} else {
		order = orderbookv1.NewLimitOrder(request.UserID, request.Symbol, request.Side, request.Price, request.Quantity)
	}
	order.Sequence = e.sequence.Add(1)
	return order
}

// shard returns the symbol's shard, creating its book lazily.
func (e *Engine) shard(symbol string) *shard {
	e.booksMu.RLock()
	s, exists := e.books[symbol]
	e.booksMu.RUnlock()
	if exists {
		return s
	}

	e.booksMu.Lock()
	defer e.booksMu.Unlock()

	if s, exists = e.books[symbol]; exists {
		return s
	}
	s = &shard{book: e.newBook(symbol)}
	e.books[symbol] = s
	return s
}

// recordTrades hands executed trades to the ledger. A record failure never
// undoes the match; the ledger buffers failed trades for retry.
func (e *Engine) recordTrades(ctx context.Context, trades []orderbookv1.Trade) error {
	if err := e.ledger.Record(ctx, trades); err != nil {
		e.logger.ErrorContext(ctx, err,
			logger.Field{Key: "action", Value: "record_trades"},
			logger.Field{Key: "tradeCount", Value: len(trades)},
		)
		return err
	}

	return nil
}

// publishTrades emits trade events on the outbound topic, best effort.
func (e *Engine) publishTrades(ctx context.Context, trades []orderbookv1.Trade) {
	for _, trade := range trades {
		event := tradepublisherv1.CreateFromTrade(trade)
		if err := e.tradePublisher.PublishTradeEvent(ctx, event); err != nil {
			e.logger.ErrorContext(ctx, err,
				logger.Field{Key: "action", Value: "publish_trade"},
				logger.Field{Key: "tradeID", Value: trade.ID},
			)
		}
	}
}

// runOrderProcessor reads and processes orders from the inbound feed.
func (e *Engine) runOrderProcessor() {
	defer e.wg.Done()

	e.logger.Info("starting order processor")

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("order processor shutting down")
			e.orderReader.Close()
			return
		default:
			msg, request, err := e.orderReader.ReadMessage(e.ctx)
			if err != nil {
				if errors.ErrorCodeEquals(err, errors.OrderFeedDecodeError) {
					// poison message, skip it but keep the offset moving
					e.logger.ErrorContext(e.ctx, err,
						logger.Field{Key: "action", Value: "skip_malformed_order"},
						logger.Field{Key: "offset", Value: msg.Offset},
					)
					if err := e.orderReader.CommitMessages(e.ctx, msg); err != nil {
						e.logger.ErrorContext(e.ctx, err,
							logger.Field{Key: "action", Value: "commit_order_message"},
						)
					}
					e.setOrderOffset(msg.Offset)
					continue
				}
				e.logger.ErrorContext(e.ctx, err,
					logger.Field{Key: "action", Value: "read_order_message"},
				)
				time.Sleep(100 * time.Millisecond)
				continue
			}

			if err := e.orderReader.CommitMessages(e.ctx, msg); err != nil {
				e.logger.ErrorContext(e.ctx, err,
					logger.Field{Key: "action", Value: "commit_order_message"},
				)
			}

			if _, err := e.Submit(e.ctx, &request); err != nil {
				e.logger.ErrorContext(e.ctx, err,
					logger.Field{Key: "action", Value: "process_order"},
					logger.Field{Key: "userID", Value: request.UserID},
					logger.Field{Key: "symbol", Value: request.Symbol},
				)
			}

			e.setOrderOffset(msg.Offset)
		}
	}
}

// runSnapshotManager periodically persists per-symbol snapshots.
func (e *Engine) runSnapshotManager() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.snapshotInterval)
	defer ticker.Stop()

	e.logger.Info("starting snapshot manager")

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("snapshot manager shutting down")
			return
		case <-ticker.C:
			if e.shouldCreateSnapshot() {
				e.createAndStoreSnapshots()
			}
		}
	}
}

// runRetryFlusher periodically drains the ledger's retry buffer.
func (e *Engine) runRetryFlusher() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.retryFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			if e.ledger.PendingRetries() == 0 {
				continue
			}
			flushed, err := e.ledger.FlushRetries(e.ctx)
			if err != nil {
				e.logger.ErrorContext(e.ctx, err,
					logger.Field{Key: "action", Value: "flush_trade_retries"},
				)
			}
			if flushed > 0 {
				e.logger.Info("flushed buffered trades",
					logger.Field{Key: "flushed", Value: flushed},
				)
			}
		}
	}
}

// shouldCreateSnapshot checks whether enough feed progress was made since
// the last snapshot.
func (e *Engine) shouldCreateSnapshot() bool {
	e.mu.RLock()
	currentOffset := e.orderOffset
	lastSnapshotOffset := e.lastSnapshotOffset
	e.mu.RUnlock()

	if currentOffset <= 0 {
		return false
	}

	return currentOffset-lastSnapshotOffset >= e.snapshotOffsetDelta
}

// createAndStoreSnapshots snapshots every live book at the current offset.
func (e *Engine) createAndStoreSnapshots() {
	currentOffset := e.getOrderOffset()

	e.booksMu.RLock()
	shards := make([]*shard, 0, len(e.books))
	for _, s := range e.books {
		shards = append(shards, s)
	}
	e.booksMu.RUnlock()

	stored := 0
	for _, s := range shards {
		s.mu.Lock()
		snapshot := s.book.CreateSnapshot()
		s.mu.Unlock()

		snapshot.OrderOffset = currentOffset

		if err := e.snapshotStore.Store(e.ctx, snapshot); err != nil {
			e.logger.ErrorContext(e.ctx, err,
				logger.Field{Key: "action", Value: "store_snapshot"},
				logger.Field{Key: "symbol", Value: snapshot.Symbol},
			)
			continue
		}
		stored++
	}

	if stored > 0 {
		e.setLastSnapshotOffset(currentOffset)
		e.logger.Info("snapshots stored",
			logger.Field{Key: "count", Value: stored},
			logger.Field{Key: "offset", Value: currentOffset},
		)
	}
}

// restoreSnapshots rebuilds the books of all configured symbols. The resume
// offset is the smallest snapshot offset, so no symbol misses orders; a few
// may be re-delivered.
func (e *Engine) restoreSnapshots(ctx context.Context) error {
	if len(e.symbols) == 0 {
		e.logger.Debug("no symbol whitelist configured, skipping snapshot restore")
		return nil
	}

	var (
		resumeOffset int64 = -1
		maxSequence  int64
		restored     int
	)

	for symbol := range e.symbols {
		snapshot, err := e.snapshotStore.Load(ctx, symbol)
		if err != nil {
			return err
		}
		if snapshot == nil {
			continue
		}

		s := e.shard(symbol)
		s.mu.Lock()
		err = s.book.RestoreOrderbook(snapshot)
		s.mu.Unlock()
		if err != nil {
			return err
		}

		if resumeOffset < 0 || snapshot.OrderOffset < resumeOffset {
			resumeOffset = snapshot.OrderOffset
		}
		if snapshot.LastSequence > maxSequence {
			maxSequence = snapshot.LastSequence
		}
		restored++
	}

	if restored == 0 {
		return nil
	}

	e.sequence.Store(maxSequence)
	e.mu.Lock()
	e.orderOffset = resumeOffset
	e.lastSnapshotOffset = resumeOffset
	e.mu.Unlock()

	e.logger.Info("order books restored from snapshots",
		logger.Field{Key: "restored", Value: restored},
		logger.Field{Key: "resumeOffset", Value: resumeOffset},
	)

	return nil
}

// BestBid returns the best bid for a symbol, if its book exists.
func (e *Engine) BestBid(symbol string) (int64, bool) {
	e.booksMu.RLock()
	s, exists := e.books[symbol]
	e.booksMu.RUnlock()
	if !exists {
		return 0, false
	}
	return s.book.BestBid()
}

// BestAsk returns the best ask for a symbol, if its book exists.
func (e *Engine) BestAsk(symbol string) (int64, bool) {
	e.booksMu.RLock()
	s, exists := e.books[symbol]
	e.booksMu.RUnlock()
	if !exists {
		return 0, false
	}
	return s.book.BestAsk()
}

// UserPnL returns a user's realized PnL from the ledger.
func (e *Engine) UserPnL(ctx context.Context, userID string) (float64, bool, error) {
	return e.ledger.UserPnL(ctx, userID)
}

// RecentTrades returns the most recent trades from the ledger, newest first.
func (e *Engine) RecentTrades(ctx context.Context, count int64) ([]ledgerv1.TradeRecord, error) {
	return e.ledger.RecentTrades(ctx, count)
}

// IsQuarantined reports whether a symbol's book is quarantined.
func (e *Engine) IsQuarantined(symbol string) bool {
	e.booksMu.RLock()
	s, exists := e.books[symbol]
	e.booksMu.RUnlock()
	if !exists {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quarantined
}

// GetTotalTrades returns the number of trades executed since start.
func (e *Engine) GetTotalTrades() int64 {
	return e.totalTrades.Load()
}

// GetOrderOffset returns the current order feed offset.
func (e *Engine) GetOrderOffset() int64 {
	return e.getOrderOffset()
}

// GetLastSnapshotOffset returns the offset of the last stored snapshot.
func (e *Engine) GetLastSnapshotOffset() int64 {
	return e.getLastSnapshotOffset()
}

func (e *Engine) getOrderOffset() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.orderOffset
}

func (e *Engine) setOrderOffset(offset int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orderOffset = offset
}

func (e *Engine) getLastSnapshotOffset() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastSnapshotOffset
}

func (e *Engine) setLastSnapshotOffset(offset int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSnapshotOffset = offset
}
