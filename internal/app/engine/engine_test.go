package engine

import (
	"context"
	"errors"
	"testing"

	ledgermock "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/ledger/v1/mock"
	orderreadermock "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/order-reader/v1/mock"
	orderbookv1 "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/orderbook/v1"
	snapshotv1 "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/snapshot/v1"
	snapshotmock "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/snapshot/v1/mock"
	tradepublishermock "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/trade-publisher/v1/mock"
	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/config"
	pkgerrors "github.com/aatishgupta25/real-time-order-matching-engine/pkg/errors"
	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// Test fixtures and helpers
type testFixture struct {
	ctrl               *gomock.Controller
	mockLedger         *ledgermock.MockLedger
	mockOrderReader    *orderreadermock.MockOrderReader
	mockTradePublisher *tradepublishermock.MockTradePublisher
	mockSnapshotStore  *snapshotmock.MockStore
	logger             *logger.Logger
	config             *config.Config
}

func setupTestFixture(t *testing.T) *testFixture {
	ctrl := gomock.NewController(t)

	log, err := logger.NewLogger()
	require.NoError(t, err)

	return &testFixture{
		ctrl:               ctrl,
		mockLedger:         ledgermock.NewMockLedger(ctrl),
		mockOrderReader:    orderreadermock.NewMockOrderReader(ctrl),
		mockTradePublisher: tradepublishermock.NewMockTradePublisher(ctrl),
		mockSnapshotStore:  snapshotmock.NewMockStore(ctrl),
		logger:             log,
		config: &config.Config{
			Symbols:      []string{"BTC-USD"},
			MatchingMode: "fifo",
			OrderFeed: config.KafkaConfig{
				Brokers: []string{"localhost:9092"},
				Topic:   "orders",
			},
			TradePublisher: config.KafkaConfig{
				Brokers: []string{"localhost:9092"},
				Topic:   "trades",
			},
		},
	}
}

func (f *testFixture) teardown() {
	f.ctrl.Finish()
}

// createTestEngine creates an engine with an initialized context so Submit
// can be exercised without Start.
func createTestEngine(fixture *testFixture) *Engine {
	engine := NewEngine(
		fixture.mockLedger,
		fixture.mockOrderReader,
		fixture.mockTradePublisher,
		fixture.mockSnapshotStore,
		fixture.logger,
		fixture.config,
	)
	engine.ctx = context.Background()
	return engine
}

func limitRequest(userID string, side orderbookv1.Side, price, quantity int64) *orderbookv1.PlaceOrderRequest {
	return &orderbookv1.PlaceOrderRequest{
		UserID:   userID,
		Symbol:   "BTC-USD",
		Side:     side,
		Kind:     orderbookv1.KindLimit,
		Price:    price,
		Quantity: quantity,
	}
}

func marketRequest(userID string, side orderbookv1.Side, quantity int64) *orderbookv1.PlaceOrderRequest {
	return &orderbookv1.PlaceOrderRequest{
		UserID:   userID,
		Symbol:   "BTC-USD",
		Side:     side,
		Kind:     orderbookv1.KindMarket,
		Quantity: quantity,
	}
}

func TestEngine_Submit_Validation(t *testing.T) {
	testCases := []struct {
		name    string
		request *orderbookv1.PlaceOrderRequest
		code    pkgerrors.ErrorCode
	}{
		{
			name:    "nil request",
			request: nil,
			code:    pkgerrors.OrderInvalidKind,
		},
		{
			name: "empty symbol",
			request: &orderbookv1.PlaceOrderRequest{
				UserID: "user1", Side: orderbookv1.SideBuy, Kind: orderbookv1.KindLimit, Price: 150, Quantity: 10,
			},
			code: pkgerrors.OrderUnknownSymbol,
		},
		{
			name: "symbol off the whitelist",
			request: &orderbookv1.PlaceOrderRequest{
				UserID: "user1", Symbol: "DOGE-USD", Side: orderbookv1.SideBuy, Kind: orderbookv1.KindLimit, Price: 150, Quantity: 10,
			},
			code: pkgerrors.OrderUnknownSymbol,
		},
		{
			name: "invalid side",
			request: &orderbookv1.PlaceOrderRequest{
				UserID: "user1", Symbol: "BTC-USD", Side: "hold", Kind: orderbookv1.KindLimit, Price: 150, Quantity: 10,
			},
			code: pkgerrors.OrderInvalidSide,
		},
		{
			name: "invalid kind",
			request: &orderbookv1.PlaceOrderRequest{
				UserID: "user1", Symbol: "BTC-USD", Side: orderbookv1.SideBuy, Kind: "stop", Price: 150, Quantity: 10,
			},
			code: pkgerrors.OrderInvalidKind,
		},
		{
			name:    "non-positive quantity",
			request: limitRequest("user1", orderbookv1.SideBuy, 150, 0),
			code:    pkgerrors.OrderInvalidQuantity,
		},
		{
			name:    "non-positive limit price",
			request: limitRequest("user1", orderbookv1.SideBuy, 0, 10),
			code:    pkgerrors.OrderInvalidPrice,
		},
		{
			name: "market order with price",
			request: &orderbookv1.PlaceOrderRequest{
				UserID: "user1", Symbol: "BTC-USD", Side: orderbookv1.SideBuy, Kind: orderbookv1.KindMarket, Price: 150, Quantity: 10,
			},
			code: pkgerrors.OrderInvalidPrice,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fixture := setupTestFixture(t)
			defer fixture.teardown()

			engine := createTestEngine(fixture)

			trades, err := engine.Submit(context.Background(), tc.request)
			require.Error(t, err)
			assert.Nil(t, trades)
			assert.True(t, pkgerrors.ErrorCodeEquals(err, tc.code), "expected code %s, got %v", tc.code, err)
		})
	}
}

func TestEngine_Submit_RestingOrderProducesNoTrades(t *testing.T) {
	fixture := setupTestFixture(t)
	defer fixture.teardown()

	engine := createTestEngine(fixture)

	trades, err := engine.Submit(context.Background(), limitRequest("user1", orderbookv1.SideSell, 150, 10))
	require.NoError(t, err)
	assert.Empty(t, trades)

	bestAsk, ok := engine.BestAsk("BTC-USD")
	assert.True(t, ok)
	assert.Equal(t, int64(150), bestAsk)
	assert.Equal(t, int64(0), engine.GetTotalTrades())
}

func TestEngine_Submit_MatchRecordsAndPublishes(t *testing.T) {
	fixture := setupTestFixture(t)
	defer fixture.teardown()

	engine := createTestEngine(fixture)

	_, err := engine.Submit(context.Background(), limitRequest("seller", orderbookv1.SideSell, 150, 10))
	require.NoError(t, err)

	fixture.mockLedger.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, trades []orderbookv1.Trade) error {
			require.Len(t, trades, 1)
			assert.Equal(t, int64(150), trades[0].Price)
			assert.Equal(t, int64(10), trades[0].Quantity)
			assert.Equal(t, "buyer", trades[0].Buyer)
			assert.Equal(t, "seller", trades[0].Seller)
			return nil
		})
	fixture.mockTradePublisher.EXPECT().PublishTradeEvent(gomock.Any(), gomock.Any()).Return(nil)

	trades, err := engine.Submit(context.Background(), limitRequest("buyer", orderbookv1.SideBuy, 151, 10))
	require.NoError(t, err)
	require.Len(t, trades, 1)

	assert.Equal(t, int64(1), engine.GetTotalTrades())

	_, ok := engine.BestAsk("BTC-USD")
	assert.False(t, ok)
}

func TestEngine_Submit_MarketRemainderDiscarded(t *testing.T) {
	fixture := setupTestFixture(t)
	defer fixture.teardown()

	engine := createTestEngine(fixture)

	_, err := engine.Submit(context.Background(), limitRequest("seller", orderbookv1.SideSell, 150, 10))
	require.NoError(t, err)

	fixture.mockLedger.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
	fixture.mockTradePublisher.EXPECT().PublishTradeEvent(gomock.Any(), gomock.Any()).Return(nil)

	trades, err := engine.Submit(context.Background(), marketRequest("buyer", orderbookv1.SideBuy, 15))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(10), trades[0].Quantity)

	// the unfilled remainder never rests
	_, ok := engine.BestBid("BTC-USD")
	assert.False(t, ok)
}

func TestEngine_Submit_SequenceAssignment(t *testing.T) {
	fixture := setupTestFixture(t)
	defer fixture.teardown()

	engine := createTestEngine(fixture)

	// resting orders at the same price keep admission order, which follows
	// from strictly increasing sequence assignment
	_, err := engine.Submit(context.Background(), limitRequest("seller1", orderbookv1.SideSell, 150, 3))
	require.NoError(t, err)
	_, err = engine.Submit(context.Background(), limitRequest("seller2", orderbookv1.SideSell, 150, 4))
	require.NoError(t, err)

	fixture.mockLedger.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
	fixture.mockTradePublisher.EXPECT().PublishTradeEvent(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	trades, err := engine.Submit(context.Background(), limitRequest("buyer", orderbookv1.SideBuy, 150, 5))
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "seller1", trades[0].Seller)
	assert.Equal(t, "seller2", trades[1].Seller)
}

// brokenBook satisfies the Orderbook interface but fails validation after
// every submit.
type brokenBook struct {
	orderbookv1.Orderbook
}

func (b *brokenBook) Submit(order *orderbookv1.Order) ([]orderbookv1.Trade, error) {
	return nil, nil
}

func (b *brokenBook) Validate() error {
	return errors.New("volume mismatch")
}

func (b *brokenBook) CreateSnapshot() *snapshotv1.Snapshot {
	return &snapshotv1.Snapshot{}
}

func TestEngine_Submit_QuarantinesBrokenBook(t *testing.T) {
	fixture := setupTestFixture(t)
	defer fixture.teardown()

	engine := createTestEngine(fixture)
	engine.SetBookFactory(func(symbol string) orderbookv1.Orderbook {
		return &brokenBook{}
	})

	_, err := engine.Submit(context.Background(), limitRequest("user1", orderbookv1.SideSell, 150, 10))
	require.Error(t, err)
	assert.True(t, pkgerrors.ErrorCodeEquals(err, pkgerrors.OrderbookInconsistent))
	assert.True(t, engine.IsQuarantined("BTC-USD"))

	// every later submit for the symbol is rejected outright
	_, err = engine.Submit(context.Background(), limitRequest("user2", orderbookv1.SideBuy, 149, 5))
	require.Error(t, err)
	assert.True(t, pkgerrors.ErrorCodeEquals(err, pkgerrors.OrderbookQuarantined))
}

func TestEngine_UserPnL(t *testing.T) {
	fixture := setupTestFixture(t)
	defer fixture.teardown()

	engine := createTestEngine(fixture)

	fixture.mockLedger.EXPECT().UserPnL(gomock.Any(), "user1").Return(1500.0, true, nil)

	pnl, ok, err := engine.UserPnL(context.Background(), "user1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1500.0, pnl)
}

func TestEngine_RecentTrades(t *testing.T) {
	fixture := setupTestFixture(t)
	defer fixture.teardown()

	engine := createTestEngine(fixture)

	fixture.mockLedger.EXPECT().RecentTrades(gomock.Any(), int64(10)).Return(nil, nil)

	records, err := engine.RecentTrades(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestEngine_Submit_LedgerFailureDoesNotUndoMatch(t *testing.T) {
	fixture := setupTestFixture(t)
	defer fixture.teardown()

	engine := createTestEngine(fixture)

	_, err := engine.Submit(context.Background(), limitRequest("seller", orderbookv1.SideSell, 150, 10))
	require.NoError(t, err)

	fixture.mockLedger.EXPECT().Record(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))
	fixture.mockTradePublisher.EXPECT().PublishTradeEvent(gomock.Any(), gomock.Any()).Return(nil)

	trades, err := engine.Submit(context.Background(), limitRequest("buyer", orderbookv1.SideBuy, 150, 10))
	require.Error(t, err)
	assert.True(t, pkgerrors.ErrorCodeEquals(err, pkgerrors.TradeLogAppendError))
	require.Len(t, trades, 1)
	assert.Equal(t, int64(1), engine.GetTotalTrades())
}
