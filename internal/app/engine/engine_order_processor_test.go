package engine

import (
	"context"
	"testing"
	"time"

	orderbookv1 "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/orderbook/v1"
	snapshotv1 "github.com/aatishgupta25/real-time-order-matching-engine/internal/domain/snapshot/v1"
	pkgerrors "github.com/aatishgupta25/real-time-order-matching-engine/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestEngine_StartStop_NoSnapshot(t *testing.T) {
	fixture := setupTestFixture(t)
	defer fixture.teardown()

	engine := NewEngine(
		fixture.mockLedger,
		fixture.mockOrderReader,
		fixture.mockTradePublisher,
		fixture.mockSnapshotStore,
		fixture.logger,
		fixture.config,
	)

	fixture.mockSnapshotStore.EXPECT().Load(gomock.Any(), "BTC-USD").Return(nil, nil)
	fixture.mockOrderReader.EXPECT().SetOffset(int64(-1)).Return(nil)
	fixture.mockOrderReader.EXPECT().Close().Return(nil)
	fixture.mockLedger.EXPECT().PendingRetries().Return(0).AnyTimes()

	// block the reader until shutdown
	fixture.mockOrderReader.EXPECT().ReadMessage(gomock.Any()).DoAndReturn(
		func(ctx context.Context) (kafka.Message, orderbookv1.PlaceOrderRequest, error) {
			<-ctx.Done()
			return kafka.Message{}, orderbookv1.PlaceOrderRequest{}, ctx.Err()
		}).AnyTimes()

	require.NoError(t, engine.Start(context.Background()))

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, engine.Stop(stopCtx))
}

func TestEngine_Start_RestoresSnapshotAndResumes(t *testing.T) {
	fixture := setupTestFixture(t)
	defer fixture.teardown()

	engine := NewEngine(
		fixture.mockLedger,
		fixture.mockOrderReader,
		fixture.mockTradePublisher,
		fixture.mockSnapshotStore,
		fixture.logger,
		fixture.config,
	)

	snapshot := &snapshotv1.Snapshot{
		Symbol:       "BTC-USD",
		OrderOffset:  42,
		LastSequence: 5,
		Orders: []snapshotv1.BookOrder{
			{OrderID: "resting1", UserID: "seller", Side: "sell", Price: 150, Quantity: 10, Remaining: 10, Sequence: 5},
		},
	}

	fixture.mockSnapshotStore.EXPECT().Load(gomock.Any(), "BTC-USD").Return(snapshot, nil)
	fixture.mockOrderReader.EXPECT().SetOffset(int64(43)).Return(nil)
	fixture.mockOrderReader.EXPECT().Close().Return(nil)
	fixture.mockLedger.EXPECT().PendingRetries().Return(0).AnyTimes()
	fixture.mockOrderReader.EXPECT().ReadMessage(gomock.Any()).DoAndReturn(
		func(ctx context.Context) (kafka.Message, orderbookv1.PlaceOrderRequest, error) {
			<-ctx.Done()
			return kafka.Message{}, orderbookv1.PlaceOrderRequest{}, ctx.Err()
		}).AnyTimes()

	require.NoError(t, engine.Start(context.Background()))

	// the restored book is live
	bestAsk, ok := engine.BestAsk("BTC-USD")
	assert.True(t, ok)
	assert.Equal(t, int64(150), bestAsk)
	assert.Equal(t, int64(42), engine.GetOrderOffset())
	assert.Equal(t, int64(42), engine.GetLastSnapshotOffset())

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, engine.Stop(stopCtx))
}

func TestEngine_OrderProcessor_ProcessesFeedMessages(t *testing.T) {
	fixture := setupTestFixture(t)
	defer fixture.teardown()

	engine := NewEngine(
		fixture.mockLedger,
		fixture.mockOrderReader,
		fixture.mockTradePublisher,
		fixture.mockSnapshotStore,
		fixture.logger,
		fixture.config,
	)

	request := orderbookv1.PlaceOrderRequest{
		UserID:   "user1",
		Symbol:   "BTC-USD",
		Side:     orderbookv1.SideSell,
		Kind:     orderbookv1.KindLimit,
		Price:    150,
		Quantity: 10,
		Offset:   7,
	}
	msg := kafka.Message{Offset: 7}

	processed := make(chan struct{})

	fixture.mockSnapshotStore.EXPECT().Load(gomock.Any(), "BTC-USD").Return(nil, nil)
	fixture.mockOrderReader.EXPECT().SetOffset(int64(-1)).Return(nil)
	fixture.mockOrderReader.EXPECT().Close().Return(nil)
	fixture.mockLedger.EXPECT().PendingRetries().Return(0).AnyTimes()

	first := fixture.mockOrderReader.EXPECT().ReadMessage(gomock.Any()).Return(msg, request, nil)
	fixture.mockOrderReader.EXPECT().ReadMessage(gomock.Any()).DoAndReturn(
		func(ctx context.Context) (kafka.Message, orderbookv1.PlaceOrderRequest, error) {
			close(processed)
			<-ctx.Done()
			return kafka.Message{}, orderbookv1.PlaceOrderRequest{}, ctx.Err()
		}).After(first).AnyTimes()
	fixture.mockOrderReader.EXPECT().CommitMessages(gomock.Any(), msg).Return(nil)

	require.NoError(t, engine.Start(context.Background()))

	select {
	case <-processed:
	case <-time.After(2 * time.Second):
		t.Fatal("order was not processed in time")
	}

	bestAsk, ok := engine.BestAsk("BTC-USD")
	assert.True(t, ok)
	assert.Equal(t, int64(150), bestAsk)
	assert.Equal(t, int64(7), engine.GetOrderOffset())

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, engine.Stop(stopCtx))
}

func TestEngine_OrderProcessor_SkipsMalformedMessages(t *testing.T) {
	fixture := setupTestFixture(t)
	defer fixture.teardown()

	engine := NewEngine(
		fixture.mockLedger,
		fixture.mockOrderReader,
		fixture.mockTradePublisher,
		fixture.mockSnapshotStore,
		fixture.logger,
		fixture.config,
	)

	msg := kafka.Message{Offset: 9, Value: []byte("not json")}
	decodeErr := pkgerrors.NewErrorDetails("failed to decode order message", string(pkgerrors.OrderFeedDecodeError), "message")

	skipped := make(chan struct{})

	fixture.mockSnapshotStore.EXPECT().Load(gomock.Any(), "BTC-USD").Return(nil, nil)
	fixture.mockOrderReader.EXPECT().SetOffset(int64(-1)).Return(nil)
	fixture.mockOrderReader.EXPECT().Close().Return(nil)
	fixture.mockLedger.EXPECT().PendingRetries().Return(0).AnyTimes()

	first := fixture.mockOrderReader.EXPECT().ReadMessage(gomock.Any()).
		Return(msg, orderbookv1.PlaceOrderRequest{}, decodeErr)
	fixture.mockOrderReader.EXPECT().ReadMessage(gomock.Any()).DoAndReturn(
		func(ctx context.Context) (kafka.Message, orderbookv1.PlaceOrderRequest, error) {
			close(skipped)
			<-ctx.Done()
			return kafka.Message{}, orderbookv1.PlaceOrderRequest{}, ctx.Err()
		}).After(first).AnyTimes()
	fixture.mockOrderReader.EXPECT().CommitMessages(gomock.Any(), msg).Return(nil)

	require.NoError(t, engine.Start(context.Background()))

	select {
	case <-skipped:
	case <-time.After(2 * time.Second):
		t.Fatal("malformed message was not skipped in time")
	}

	// the offset advanced past the poison message, the book stayed untouched
	assert.Equal(t, int64(9), engine.GetOrderOffset())
	_, ok := engine.BestAsk("BTC-USD")
	assert.False(t, ok)
	_, ok = engine.BestBid("BTC-USD")
	assert.False(t, ok)

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, engine.Stop(stopCtx))
}
